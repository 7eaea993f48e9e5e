package settlement

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/azharpratama/tenso/common/errors"
	"github.com/azharpratama/tenso/common/log"
	"github.com/azharpratama/tenso/x402"
)

// Router is the node's transactional surface against the chain. Every
// method submits a transaction and waits for its inclusion.
type Router interface {
	ApproveRouter(ctx context.Context, amount *big.Int) (string, error)
	SplitPayment(ctx context.Context, apiOwner, nodeOperator common.Address, amount *big.Int) (string, error)
	SplitPaymentWithAuthorization(ctx context.Context, payer, apiOwner, nodeOperator common.Address, amount, validAfter, validBefore *big.Int, nonce [32]byte, signature string) (string, error)
}

// Engine executes the on-chain fund movement for a verified proof. This is
// the only component that mutates chain state. Settle never panics or
// returns an error across this boundary: the caller always receives a
// result, and any failure means the payment is not settled.
type Engine interface {
	Settle(ctx context.Context, payload *x402.PaymentPayload, apiOwner, nodeOperator, amount string) *x402.SettlementResult
	Mode() string
}

const (
	ModeSponsored  = "sponsored"
	ModeDirectPull = "direct"
)

// NewEngine selects the settlement strategy by configured mode.
func NewEngine(mode string, router Router, networkID string, logger log.Logger) (Engine, error) {
	switch mode {
	case "", ModeSponsored:
		return &Sponsored{router: router, networkID: networkID, logger: logger}, nil
	case ModeDirectPull:
		return &DirectPull{router: router, networkID: networkID, logger: logger}, nil
	default:
		return nil, errors.Errorf("unknown settlement mode: %q", mode)
	}
}

type settleInputs struct {
	payer        common.Address
	apiOwner     common.Address
	nodeOperator common.Address
	amount       *big.Int
}

func parseInputs(payload *x402.PaymentPayload, apiOwner, nodeOperator, amount string) (*settleInputs, error) {
	if payload == nil || payload.Payload == nil || payload.Payload.From == "" {
		return nil, errors.New("invalid signature payload - missing payer address")
	}
	if !common.IsHexAddress(apiOwner) {
		return nil, errors.Errorf("invalid api owner address: %q", apiOwner)
	}
	if !common.IsHexAddress(nodeOperator) {
		return nil, errors.Errorf("invalid node operator address: %q", nodeOperator)
	}
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok || value.Sign() < 0 {
		return nil, errors.Errorf("invalid settlement amount: %q", amount)
	}
	return &settleInputs{
		payer:        common.HexToAddress(payload.Payload.From),
		apiOwner:     common.HexToAddress(apiOwner),
		nodeOperator: common.HexToAddress(nodeOperator),
		amount:       value,
	}, nil
}
