package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	constant "github.com/azharpratama/tenso/const"
	"github.com/azharpratama/tenso/internal/verifier"
	"github.com/azharpratama/tenso/x402"
)

// GetSupported
//
//	@Description  This endpoint lists the payment scheme and network pairs the node settles
//	@ID			getSupported
//	@Tags		facilitator
//	@Produce	json
//	@Router		/supported [get]
//	@Success	200	{object}	x402.SupportedResponse
func (h *Handler) GetSupported(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.ctrl.Supported())
}

// VerifyPayment
//
//	@Description  This endpoint checks a payment proof against requirements without settling
//	@ID			verifyPayment
//	@Tags		facilitator
//	@Accept		json
//	@Produce	json
//	@Param		body	body	x402.VerifyRequest	true	"body"
//	@Router		/verify [post]
//	@Success	200	{object}	x402.VerifyResponse
func (h *Handler) VerifyPayment(ctx *gin.Context) {
	// A malformed request is an invalid payment, never an HTTP error: the
	// caller always gets a result object.
	var req x402.VerifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		rejectVerify(ctx, verifier.ReasonInvalidPayload)
		return
	}
	if req.X402Version != constant.X402Version {
		rejectVerify(ctx, verifier.ReasonUnsupportedVersion)
		return
	}
	if err := req.PaymentRequirements.Validate(); err != nil {
		rejectVerify(ctx, verifier.ReasonInvalidPayload)
		return
	}

	res := h.ctrl.VerifyHeader(ctx.Request.Context(), req.PaymentHeader, &req.PaymentRequirements)
	ctx.JSON(http.StatusOK, res)
}

// SettlePayment
//
//	@Description  This endpoint settles a verified payment on chain and reports the transaction
//	@ID			settlePayment
//	@Tags		facilitator
//	@Accept		json
//	@Produce	json
//	@Param		body	body	x402.SettleRequest	true	"body"
//	@Router		/settle [post]
//	@Success	200	{object}	x402.SettlementResult
func (h *Handler) SettlePayment(ctx *gin.Context) {
	// Settlement never throws to the caller: every failure mode is a
	// result object with success=false.
	var req x402.SettleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusOK, x402.SettleFailure("invalid request body: "+err.Error()))
		return
	}

	result := h.ctrl.SettleHeader(ctx.Request.Context(), req.PaymentHeader, req.ApiOwner, req.NodeOperator, req.Amount)
	ctx.JSON(http.StatusOK, result)
}

func rejectVerify(ctx *gin.Context, reason string) {
	ctx.JSON(http.StatusOK, &x402.VerifyResponse{IsValid: false, InvalidReason: &reason})
}
