package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Client abstracts the on-chain credit score registry interaction.
type Client interface {
	SubmitBorrower(ctx context.Context, input BorrowerInput) (string, error)
	GetBorrower(ctx context.Context, nid string) (BorrowerRecord, error)
}

// HealthChecker is implemented by clients that can probe the RPC endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Initialization failures. Fatal to startup; no chain operations are
// possible until resolved.
var (
	ErrInvalidCredential = errors.New("invalid signing credential")
	ErrABIResolution     = errors.New("abi resolution failed")
)

// Operation failures. Transient; the caller may retry manually, the client
// never retries on its own.
var (
	ErrSubmission   = errors.New("transaction submission failed")
	ErrInvalidInput = errors.New("invalid input")
	ErrDecode       = errors.New("decode contract response")
	ErrNetwork      = errors.New("network call failed")
)

// ErrNotFound is returned when the contract hands back an all-default
// record. The contract stores no existence flag, so a borrower that was
// never written and a borrower written with all-zero scores are
// indistinguishable; both surface as this error.
var ErrNotFound = errors.New("borrower not found")

// BorrowerInput carries the score inputs for one upsert. Values are
// validated client-side before any signing work.
type BorrowerInput struct {
	NID                         string `json:"nid"`
	Name                        string `json:"name"`
	AccountBalanceScore         int    `json:"accountBalanceScore"`
	PaymentHistoryScore         int    `json:"paymentHistoryScore"`
	TotalTransactionsScore      int    `json:"totalTransactionsScore"`
	TotalRemainingLoanScore     int    `json:"totalRemainingLoanScore"`
	CreditAgeScore              int    `json:"creditAgeScore"`
	ProfessionalRiskFactorScore int    `json:"professionalRiskFactorScore"`
}

func (in BorrowerInput) Validate() error {
	if strings.TrimSpace(in.NID) == "" {
		return fmt.Errorf("%w: nid is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	for _, score := range []struct {
		name  string
		value int
	}{
		{"accountBalanceScore", in.AccountBalanceScore},
		{"paymentHistoryScore", in.PaymentHistoryScore},
		{"totalTransactionsScore", in.TotalTransactionsScore},
		{"totalRemainingLoanScore", in.TotalRemainingLoanScore},
		{"creditAgeScore", in.CreditAgeScore},
		{"professionalRiskFactorScore", in.ProfessionalRiskFactorScore},
	} {
		if score.value < 0 || score.value > 100 {
			return fmt.Errorf("%w: %s must be in [0,100], got %d", ErrInvalidInput, score.name, score.value)
		}
	}
	return nil
}

// scoreArgs returns the six score parameters widened to the contract's
// uint256 type, in the positional order addOrUpdateBorrower expects.
func (in BorrowerInput) scoreArgs() []*big.Int {
	return []*big.Int{
		big.NewInt(int64(in.AccountBalanceScore)),
		big.NewInt(int64(in.PaymentHistoryScore)),
		big.NewInt(int64(in.TotalTransactionsScore)),
		big.NewInt(int64(in.TotalRemainingLoanScore)),
		big.NewInt(int64(in.CreditAgeScore)),
		big.NewInt(int64(in.ProfessionalRiskFactorScore)),
	}
}

// BorrowerRecord is the nine-field tuple getBorrowerDetails returns, mapped
// 1:1 in contract order. FinalCreditScore is computed on-chain and is never
// supplied by this client.
type BorrowerRecord struct {
	NID                         string   `json:"nid"`
	Name                        string   `json:"name"`
	AccountBalanceScore         *big.Int `json:"accountBalanceScore"`
	PaymentHistoryScore         *big.Int `json:"paymentHistoryScore"`
	TotalTransactionsScore      *big.Int `json:"totalTransactionsScore"`
	TotalRemainingLoanScore     *big.Int `json:"totalRemainingLoanScore"`
	CreditAgeScore              *big.Int `json:"creditAgeScore"`
	ProfessionalRiskFactorScore *big.Int `json:"professionalRiskFactorScore"`
	FinalCreditScore            *big.Int `json:"finalCreditScore"`
}

func (r BorrowerRecord) isZero() bool {
	if r.NID != "" || r.Name != "" {
		return false
	}
	for _, v := range []*big.Int{
		r.AccountBalanceScore,
		r.PaymentHistoryScore,
		r.TotalTransactionsScore,
		r.TotalRemainingLoanScore,
		r.CreditAgeScore,
		r.ProfessionalRiskFactorScore,
		r.FinalCreditScore,
	} {
		if v != nil && v.Sign() != 0 {
			return false
		}
	}
	return true
}
