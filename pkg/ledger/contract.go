package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const (
	defaultQueryGas       = 100_000
	defaultTransactionGas = 1_000_000
)

// ContractConfig configures a Contract.
type ContractConfig struct {
	Client         *hedera.Client
	ContractID     string
	QueryGas       uint64
	TransactionGas uint64
}

// Contract is the Hedera smart-contract implementation of Service.
// Reads go through ContractCallQuery, writes through
// ContractExecuteTransaction with receipt confirmation.
type Contract struct {
	client         *hedera.Client
	contractID     hedera.ContractID
	queryGas       uint64
	transactionGas uint64

	mu      sync.Mutex
	pending map[TransactionRef]hedera.TransactionResponse
}

var _ Service = (*Contract)(nil)

// NewContract creates a new Contract.
func NewContract(config ContractConfig) (*Contract, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("hedera client is required")
	}
	contractRef := strings.TrimSpace(config.ContractID)
	if contractRef == "" {
		return nil, fmt.Errorf("contract ID is required")
	}
	contractID, err := hedera.ContractIDFromString(contractRef)
	if err != nil {
		return nil, fmt.Errorf("invalid contract ID %q: %w", contractRef, err)
	}

	queryGas := config.QueryGas
	if queryGas == 0 {
		queryGas = defaultQueryGas
	}
	transactionGas := config.TransactionGas
	if transactionGas == 0 {
		transactionGas = defaultTransactionGas
	}

	return &Contract{
		client:         config.Client,
		contractID:     contractID,
		queryGas:       queryGas,
		transactionGas: transactionGas,
		pending:        make(map[TransactionRef]hedera.TransactionResponse),
	}, nil
}

func buildFunctionParameters(args *CallArguments) *hedera.ContractFunctionParameters {
	parameters := hedera.NewContractFunctionParameters()
	if args == nil {
		return parameters
	}
	for _, argument := range args.args {
		switch argument.kind {
		case argString:
			parameters = parameters.AddString(argument.str)
		case argUint64:
			parameters = parameters.AddUint64(argument.num)
		case argBytes32:
			parameters = parameters.AddBytes32(argument.bytes32)
		case argStringArray:
			parameters = parameters.AddStringArray(argument.strs)
		}
	}
	return parameters
}

func (c *Contract) call(ctx context.Context, method string, args *CallArguments) (hedera.ContractFunctionResult, error) {
	if err := ctx.Err(); err != nil {
		return hedera.ContractFunctionResult{}, err
	}
	result, err := hedera.NewContractCallQuery().
		SetContractID(c.contractID).
		SetGas(c.queryGas).
		SetFunction(method, buildFunctionParameters(args)).
		Execute(c.client)
	if err != nil {
		return hedera.ContractFunctionResult{}, fmt.Errorf("contract call %s: %w", method, err)
	}
	return result, nil
}

func (c *Contract) callBool(ctx context.Context, method string, args *CallArguments) (bool, error) {
	result, err := c.call(ctx, method, args)
	if err != nil {
		return false, err
	}
	return result.GetBool(0), nil
}

// CertificateExists reports whether the contract holds a commitment
// for the certificate number.
func (c *Contract) CertificateExists(ctx context.Context, certificateNumber string) (bool, error) {
	return c.callBool(ctx, "certificateExists", NewCallArguments().AddString(certificateNumber))
}

// CertificateValid reports the contract's validity flag for the
// certificate number.
func (c *Contract) CertificateValid(ctx context.Context, certificateNumber string) (bool, error) {
	return c.callBool(ctx, "isCertificateValid", NewCallArguments().AddString(certificateNumber))
}

// BatchCount returns the number of recorded batch commitments.
func (c *Contract) BatchCount(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, "getBatchCount", nil)
	if err != nil {
		return 0, err
	}
	return result.GetUint64(0), nil
}

// Paused reports whether the contract is paused.
func (c *Contract) Paused(ctx context.Context) (bool, error) {
	return c.callBool(ctx, "paused", nil)
}

// AuthorizedIssuer reports whether the account may issue certificates.
func (c *Contract) AuthorizedIssuer(ctx context.Context, issuerID string) (bool, error) {
	return c.callBool(ctx, "isAuthorizedIssuer", NewCallArguments().AddString(issuerID))
}

// Simulate dry-runs the call without submitting a transaction.
func (c *Contract) Simulate(ctx context.Context, method string, args *CallArguments) error {
	_, err := c.call(ctx, method, args)
	return err
}

// Transact submits the contract call and tracks its response for a
// later AwaitConfirmation.
func (c *Contract) Transact(ctx context.Context, method string, args *CallArguments, memo string) (TransactionRef, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	transaction := hedera.NewContractExecuteTransaction().
		SetContractID(c.contractID).
		SetGas(c.transactionGas).
		SetFunction(method, buildFunctionParameters(args))
	if memo != "" {
		transaction = transaction.SetTransactionMemo(memo)
	}

	response, err := transaction.Execute(c.client)
	if err != nil {
		return "", fmt.Errorf("contract execute %s: %w", method, err)
	}

	ref := TransactionRef(response.TransactionID.String())
	c.mu.Lock()
	c.pending[ref] = response
	c.mu.Unlock()
	return ref, nil
}

// AwaitConfirmation blocks on the receipt for a transaction previously
// submitted through Transact.
func (c *Contract) AwaitConfirmation(ctx context.Context, ref TransactionRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	response, ok := c.pending[ref]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown transaction reference %q", ref)
	}

	receipt, err := response.GetReceipt(c.client)
	if err != nil {
		return fmt.Errorf("receipt for %s: %w", ref, err)
	}

	c.mu.Lock()
	delete(c.pending, ref)
	c.mu.Unlock()

	if receipt.Status != hedera.StatusSuccess {
		return fmt.Errorf("transaction %s finished with status %s", ref, receipt.Status)
	}
	return nil
}
