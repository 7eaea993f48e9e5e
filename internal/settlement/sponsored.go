package settlement

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/azharpratama/tenso/common/log"
	"github.com/azharpratama/tenso/x402"
)

// Sponsored settles from the node's own custody: the payer's signature is
// consent evidence, not the instrument of transfer. The node fronts both
// gas and the settled amount, then the router splits it per its fixed
// policy.
type Sponsored struct {
	router    Router
	networkID string
	logger    log.Logger
}

func (s *Sponsored) Mode() string {
	return ModeSponsored
}

// Settle runs approve → confirm → split → confirm. The approval must be
// confirmed before the split is submitted; a speculative split would revert.
// Approval failure and split failure are both terminal for this call.
func (s *Sponsored) Settle(ctx context.Context, payload *x402.PaymentPayload, apiOwner, nodeOperator, amount string) *x402.SettlementResult {
	in, err := parseInputs(payload, apiOwner, nodeOperator, amount)
	if err != nil {
		return x402.SettleFailure(err.Error())
	}

	s.logger.WithFields(logrus.Fields{
		"payer":     in.payer.Hex(),
		"api_owner": in.apiOwner.Hex(),
		"amount":    in.amount.String(),
	}).Info("Processing sponsored settlement")

	if _, err := s.router.ApproveRouter(ctx, in.amount); err != nil {
		return x402.SettleFailure(err.Error())
	}

	txHash, err := s.router.SplitPayment(ctx, in.apiOwner, in.nodeOperator, in.amount)
	if err != nil {
		return x402.SettleFailure(err.Error())
	}

	s.logger.WithFields(logrus.Fields{"tx_hash": txHash}).Info("Payment split confirmed")
	return x402.SettleSuccess(txHash, s.networkID)
}
