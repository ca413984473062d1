package chain

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"
)

// FakeClient emulates the registry in memory for local dev and tests. The
// final score is a plain average of the six inputs, standing in for
// whatever formula the deployed contract uses.
type FakeClient struct {
	mu      sync.Mutex
	records map[string]BorrowerRecord
	seq     uint64
}

func NewFakeClient() *FakeClient {
	return &FakeClient{records: make(map[string]BorrowerRecord)}
}

func (f *FakeClient) SubmitBorrower(_ context.Context, input BorrowerInput) (string, error) {
	if err := input.Validate(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	scores := input.scoreArgs()
	sum := new(big.Int)
	for _, s := range scores {
		sum.Add(sum, s)
	}
	final := new(big.Int).Div(sum, big.NewInt(int64(len(scores))))

	nid := strings.TrimSpace(input.NID)
	f.records[nid] = BorrowerRecord{
		NID:                         nid,
		Name:                        strings.TrimSpace(input.Name),
		AccountBalanceScore:         scores[0],
		PaymentHistoryScore:         scores[1],
		TotalTransactionsScore:      scores[2],
		TotalRemainingLoanScore:     scores[3],
		CreditAgeScore:              scores[4],
		ProfessionalRiskFactorScore: scores[5],
		FinalCreditScore:            final,
	}

	f.seq++
	return fakeTxHash(nid, f.seq), nil
}

func (f *FakeClient) GetBorrower(_ context.Context, nid string) (BorrowerRecord, error) {
	nid = strings.TrimSpace(nid)
	if nid == "" {
		return BorrowerRecord{}, fmt.Errorf("%w: nid is required", ErrInvalidInput)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[nid]
	if !ok {
		return BorrowerRecord{}, fmt.Errorf("%w: nid %s (no record, or stored with all default values)", ErrNotFound, nid)
	}
	return rec, nil
}

// fakeTxHash derives a distinct hash per submission, so repeated writes of
// identical input still produce independent transaction identifiers.
func fakeTxHash(nid string, seq uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	sum := sha256.Sum256(append([]byte(nid), buf[:]...))
	return "0x" + hex.EncodeToString(sum[:])
}
