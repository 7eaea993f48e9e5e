package ctrl

import (
	"context"

	constant "github.com/azharpratama/tenso/const"
	"github.com/azharpratama/tenso/internal/verifier"
	"github.com/azharpratama/tenso/x402"
)

// Supported lists the scheme/network pairs this facilitator accepts.
func (c *Ctrl) Supported() *x402.SupportedResponse {
	return &x402.SupportedResponse{
		Kinds: []x402.SupportedKind{
			{Scheme: constant.SchemeEIP712, Network: c.networkID},
			{Scheme: constant.SchemeOnchain, Network: c.networkID},
		},
	}
}

// VerifyHeader decodes a payment header and verifies it against the
// requirement. Decode failures are invalid payments, never errors.
func (c *Ctrl) VerifyHeader(ctx context.Context, header string, requirement *x402.PaymentRequirements) *x402.VerifyResponse {
	payload, err := x402.DecodePayment(header)
	if err != nil {
		reason := verifier.ReasonInvalidPayload
		return &x402.VerifyResponse{IsValid: false, InvalidReason: &reason}
	}
	return c.verifier.Verify(ctx, payload, requirement)
}

// VerifyPayload verifies an already-decoded proof.
func (c *Ctrl) VerifyPayload(ctx context.Context, payload *x402.PaymentPayload, requirement *x402.PaymentRequirements) *x402.VerifyResponse {
	return c.verifier.Verify(ctx, payload, requirement)
}

// SettleHeader decodes a payment header and executes settlement. The
// result object is always populated; failures never escape as errors.
func (c *Ctrl) SettleHeader(ctx context.Context, header, apiOwner, nodeOperator, amount string) *x402.SettlementResult {
	payload, err := x402.DecodePayment(header)
	if err != nil {
		return x402.SettleFailure("invalid payment header: " + err.Error())
	}
	return c.SettlePayload(ctx, payload, apiOwner, nodeOperator, amount)
}

// SettlePayload executes settlement for a decoded proof.
func (c *Ctrl) SettlePayload(ctx context.Context, payload *x402.PaymentPayload, apiOwner, nodeOperator, amount string) *x402.SettlementResult {
	return c.engine.Settle(ctx, payload, apiOwner, nodeOperator, amount)
}
