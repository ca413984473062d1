package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"scorechain/internal/contracts"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// EthClient signs and submits borrower updates to the CreditScoreRegistry
// contract and executes read-only detail calls against it. Immutable after
// construction; safe for concurrent use by any number of in-flight
// operations.
type EthClient struct {
	backend   bind.ContractBackend
	eth       *ethclient.Client
	contract  *bind.BoundContract
	abi       abi.ABI
	address   common.Address
	chainID   *big.Int
	transacts *bind.TransactOpts
}

type EthClientConfig struct {
	RPCURL          string
	PrivateKeyHex   string
	ContractAddress string
	ChainID         int64
	// ABIJSON overrides the compiled-in registry ABI. Empty means
	// contracts.CreditScoreRegistryABI.
	ABIJSON string
}

// NewEthClient dials the RPC endpoint and builds the contract handle. The
// endpoint is not probed here; an unreachable node surfaces on the first
// call or transaction.
func NewEthClient(ctx context.Context, cfg EthClientConfig) (*EthClient, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	cli, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	c, err := newClient(cli, cfg)
	if err != nil {
		return nil, err
	}
	c.eth = cli
	return c, nil
}

func newClient(backend bind.ContractBackend, cfg EthClientConfig) (*EthClient, error) {
	// Credential first: a malformed key must fail before any ABI work.
	pk, err := parsePrivateKey(cfg.PrivateKeyHex)
	if err != nil {
		return nil, err
	}

	if cfg.ChainID == 0 {
		return nil, fmt.Errorf("chain id is required")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address: %s", cfg.ContractAddress)
	}

	abiJSON := cfg.ABIJSON
	if abiJSON == "" {
		abiJSON = contracts.CreditScoreRegistryABI
	}
	parsedABI, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: parse abi: %v", ErrABIResolution, err)
	}
	for _, name := range []string{contracts.MethodAddOrUpdateBorrower, contracts.MethodGetBorrowerDetails} {
		if _, ok := parsedABI.Methods[name]; !ok {
			return nil, fmt.Errorf("%w: function %s not in abi", ErrABIResolution, name)
		}
	}

	address := common.HexToAddress(cfg.ContractAddress)
	bound := bind.NewBoundContract(address, parsedABI, backend, backend, backend)

	chainID := big.NewInt(cfg.ChainID)
	txOpts, err := bind.NewKeyedTransactorWithChainID(pk, chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: transactor: %v", ErrInvalidCredential, err)
	}
	txOpts.GasLimit = 0 // let node estimate
	txOpts.GasPrice = nil
	txOpts.Nonce = nil

	return &EthClient{
		backend:   backend,
		contract:  bound,
		abi:       parsedABI,
		address:   address,
		chainID:   chainID,
		transacts: txOpts,
	}, nil
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("%w: private key is required", ErrInvalidCredential)
	}
	hexKey = strings.TrimPrefix(hexKey, "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return key, nil
}

// SubmitBorrower signs and submits addOrUpdateBorrower exactly once and
// returns the transaction hash. It does not wait for mining; the written
// state is not guaranteed visible to a read until the block confirms.
func (c *EthClient) SubmitBorrower(ctx context.Context, input BorrowerInput) (string, error) {
	if err := input.Validate(); err != nil {
		return "", err
	}

	args := []interface{}{strings.TrimSpace(input.NID), strings.TrimSpace(input.Name)}
	for _, score := range input.scoreArgs() {
		args = append(args, score)
	}

	opts := *c.transacts
	opts.Context = ctx

	tx, err := c.contract.Transact(&opts, contracts.MethodAddOrUpdateBorrower, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	return tx.Hash().Hex(), nil
}

// GetBorrower executes a read-only getBorrowerDetails call and maps the
// nine positional outputs into a BorrowerRecord. Every call re-queries the
// node; nothing is cached.
func (c *EthClient) GetBorrower(ctx context.Context, nid string) (BorrowerRecord, error) {
	nid = strings.TrimSpace(nid)
	if nid == "" {
		return BorrowerRecord{}, fmt.Errorf("%w: nid is required", ErrInvalidInput)
	}

	data, err := c.abi.Pack(contracts.MethodGetBorrowerDetails, nid)
	if err != nil {
		return BorrowerRecord{}, fmt.Errorf("%w: pack call: %v", ErrDecode, err)
	}

	output, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: data}, nil)
	if err != nil {
		return BorrowerRecord{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	out, err := c.abi.Unpack(contracts.MethodGetBorrowerDetails, output)
	if err != nil {
		return BorrowerRecord{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	record, err := recordFromOutputs(out)
	if err != nil {
		return BorrowerRecord{}, err
	}
	if record.isZero() {
		return BorrowerRecord{}, fmt.Errorf("%w: nid %s (no record, or stored with all default values)", ErrNotFound, nid)
	}
	return record, nil
}

func recordFromOutputs(out []interface{}) (BorrowerRecord, error) {
	if len(out) != 9 {
		return BorrowerRecord{}, fmt.Errorf("%w: expected 9 outputs, got %d", ErrDecode, len(out))
	}

	nid, ok := out[0].(string)
	if !ok {
		return BorrowerRecord{}, fmt.Errorf("%w: output 0 is not a string", ErrDecode)
	}
	name, ok := out[1].(string)
	if !ok {
		return BorrowerRecord{}, fmt.Errorf("%w: output 1 is not a string", ErrDecode)
	}

	nums := make([]*big.Int, 7)
	for i := range nums {
		v, ok := out[2+i].(*big.Int)
		if !ok {
			return BorrowerRecord{}, fmt.Errorf("%w: output %d is not a uint256", ErrDecode, 2+i)
		}
		nums[i] = v
	}

	return BorrowerRecord{
		NID:                         nid,
		Name:                        name,
		AccountBalanceScore:         nums[0],
		PaymentHistoryScore:         nums[1],
		TotalTransactionsScore:      nums[2],
		TotalRemainingLoanScore:     nums[3],
		CreditAgeScore:              nums[4],
		ProfessionalRiskFactorScore: nums[5],
		FinalCreditScore:            nums[6],
	}, nil
}

// Ping checks the RPC endpoint is responding.
func (c *EthClient) Ping(ctx context.Context) error {
	if c.eth == nil {
		return fmt.Errorf("rpc client not configured")
	}
	_, err := c.eth.BlockNumber(ctx)
	return err
}
