package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/azharpratama/tenso/common/errors"
	"github.com/azharpratama/tenso/common/log"
	constant "github.com/azharpratama/tenso/const"
	"github.com/azharpratama/tenso/internal/ctrl"
	"github.com/azharpratama/tenso/monitor"
	"github.com/azharpratama/tenso/x402"
)

// Proxy is the payment-gated forwarding pipeline. Each request walks a
// linear state machine: resolve the listing, challenge or verify, settle,
// then forward upstream and attach the receipt. Forwarding is strictly
// conditional on settlement success.
type Proxy struct {
	ctrl   *ctrl.Ctrl
	logger log.Logger

	allowOrigins []string
	serviceGroup *gin.RouterGroup
	httpClient   *http.Client
}

func New(c *ctrl.Ctrl, engine *gin.Engine, allowOrigins []string, enableMonitor bool, logger log.Logger) *Proxy {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}

	p := &Proxy{
		ctrl:         c,
		logger:       logger,
		allowOrigins: allowOrigins,
		serviceGroup: engine.Group(constant.ProxyPrefix),
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}

	p.serviceGroup.Use(cors.New(cors.Config{
		AllowOrigins:  p.allowOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", constant.HeaderPayment},
		ExposeHeaders: []string{constant.HeaderPaymentResponse},
	}))

	if enableMonitor {
		p.serviceGroup.Use(monitor.TrackMetrics())
	}

	return p
}

func (p *Proxy) Start() error {
	p.serviceGroup.Any("/:apiId/*path", p.forward)
	return nil
}

// forward drives one request through the pipeline. A client disconnect
// after settlement has been submitted does not roll anything back: the
// settlement runs on a detached context to confirmation and the analytics
// record is still written, even if the HTTP response is lost.
func (p *Proxy) forward(ctx *gin.Context) {
	monitor.Inc(monitor.ForwardRequestCount)

	apiID := ctx.Param("apiId")
	path := ctx.Param("path")

	api, err := p.ctrl.FindApi(apiID)
	if err != nil {
		if errors.IsNotFound(err) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "API not found"})
			return
		}
		p.handleBrokerError(ctx, err, "resolve api")
		return
	}

	endpoint, err := p.ctrl.FindEndpoint(api, path, ctx.Request.Method)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	requestURL := requestURL(ctx)
	header := ctx.GetHeader(constant.HeaderPayment)
	if header == "" {
		monitor.Inc(monitor.ChallengeIssuedCount)
		ctx.JSON(http.StatusPaymentRequired, p.ctrl.BuildPaymentRequired(api, endpoint, requestURL))
		return
	}

	payload, err := x402.DecodePayment(header)
	if err != nil {
		p.rejectPayment(ctx, "Invalid payment payload")
		return
	}

	// The requirement is rebuilt from the endpoint's current price and
	// owner, never trusted from the client.
	requirement := p.ctrl.BuildChallenge(api, endpoint, requestURL)
	verdict := p.ctrl.VerifyPayload(ctx.Request.Context(), payload, &requirement)
	if !verdict.IsValid {
		reason := "Payment verification failed"
		if verdict.InvalidReason != nil {
			reason = *verdict.InvalidReason
		}
		p.rejectPayment(ctx, reason)
		return
	}

	monitor.Inc(monitor.SettlementCount)
	settleCtx := context.WithoutCancel(ctx.Request.Context())
	result := p.ctrl.SettlePayload(settleCtx, payload, api.Owner, p.ctrl.NodeOperator(), endpoint.Price)
	if !result.Success {
		monitor.Inc(monitor.SettlementErrorCount)
		message := "settlement failed"
		if result.Error != nil {
			message = *result.Error
		}
		p.logger.WithFields(logrus.Fields{
			"api_id": apiID,
			"error":  message,
		}).Error("Settlement failed, not forwarding")
		ctx.JSON(http.StatusPaymentRequired, gin.H{
			"x402Version":  constant.X402Version,
			"error":        "settlement_failed",
			"errorMessage": message,
		})
		return
	}

	p.forwardUpstream(ctx, api.BaseURL, path, result)

	txHash := ""
	if result.TxHash != nil {
		txHash = *result.TxHash
	}
	p.ctrl.RecordCall(api.ID, endpoint.Path, endpoint.Price, txHash)
}

func (p *Proxy) forwardUpstream(ctx *gin.Context, baseURL, path string, result *x402.SettlementResult) {
	upstreamURL := baseURL + path
	if raw := ctx.Request.URL.RawQuery; raw != "" {
		upstreamURL += "?" + raw
	}

	var body io.Reader
	if ctx.Request.Method != http.MethodGet {
		reqBody, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			p.handleBrokerError(ctx, err, "read request body")
			return
		}
		body = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx.Request.Context(), ctx.Request.Method, upstreamURL, body)
	if err != nil {
		p.handleBrokerError(ctx, err, "build upstream request")
		return
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	p.logger.WithFields(logrus.Fields{"upstream": upstreamURL}).Info("Forwarding request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "upstream request failed"})
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "upstream response unreadable"})
		return
	}
	if !json.Valid(respBody) {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "upstream returned non-JSON response"})
		return
	}

	receipt, err := x402.EncodeReceipt(result)
	if err != nil {
		p.handleBrokerError(ctx, err, "encode payment receipt")
		return
	}

	ctx.Header(constant.HeaderPaymentResponse, receipt)
	ctx.Data(resp.StatusCode, "application/json", respBody)
}

func (p *Proxy) rejectPayment(ctx *gin.Context, reason string) {
	monitor.Inc(monitor.InvalidPaymentCount)
	ctx.JSON(http.StatusPaymentRequired, gin.H{
		"x402Version":  constant.X402Version,
		"error":        constant.ErrorInvalidPayment,
		"errorMessage": reason,
	})
}

func requestURL(ctx *gin.Context) string {
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + ctx.Request.Host + ctx.Request.RequestURI
}

func (p *Proxy) handleBrokerError(ctx *gin.Context, err error, context string) {
	p.logger.Errorf("Proxy broker error: %v, context: %s", err, context)
	info := "Forwarder proxy"
	if context != "" {
		info += (": " + context)
	}
	errors.Response(ctx, errors.Wrap(err, info))
}
