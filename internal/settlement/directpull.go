package settlement

import (
	"context"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/azharpratama/tenso/common/log"
	"github.com/azharpratama/tenso/common/util"
	"github.com/azharpratama/tenso/x402"
)

// DirectPull settles trustlessly: the payer's EIP-3009 authorization is
// submitted as-is and the router pulls the funds straight from the payer
// before splitting. The node only fronts gas.
type DirectPull struct {
	router    Router
	networkID string
	logger    log.Logger
}

func (d *DirectPull) Mode() string {
	return ModeDirectPull
}

// Settle submits the authorized split and waits for confirmation. A reused
// nonce reverts inside the token contract and surfaces as a failure here.
func (d *DirectPull) Settle(ctx context.Context, payload *x402.PaymentPayload, apiOwner, nodeOperator, amount string) *x402.SettlementResult {
	in, err := parseInputs(payload, apiOwner, nodeOperator, amount)
	if err != nil {
		return x402.SettleFailure(err.Error())
	}

	proof := payload.Payload
	nonce, err := util.ParseBytes32(proof.Nonce)
	if err != nil {
		return x402.SettleFailure(err.Error())
	}

	d.logger.WithFields(logrus.Fields{
		"payer":     in.payer.Hex(),
		"api_owner": in.apiOwner.Hex(),
		"amount":    in.amount.String(),
	}).Info("Processing direct-pull settlement")

	txHash, err := d.router.SplitPaymentWithAuthorization(ctx,
		in.payer, in.apiOwner, in.nodeOperator, in.amount,
		big.NewInt(proof.ValidAfter), big.NewInt(proof.ValidBefore), nonce, proof.Signature)
	if err != nil {
		return x402.SettleFailure(err.Error())
	}

	d.logger.WithFields(logrus.Fields{"tx_hash": txHash}).Info("Authorized split confirmed")
	return x402.SettleSuccess(txHash, d.networkID)
}
