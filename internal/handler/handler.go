package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/azharpratama/tenso/common/errors"
	"github.com/azharpratama/tenso/config"
	"github.com/azharpratama/tenso/internal/ctrl"
	"github.com/azharpratama/tenso/internal/proxy"
)

type Handler struct {
	ctrl  *ctrl.Ctrl
	proxy *proxy.Proxy
}

func New(ctrl *ctrl.Ctrl, proxy *proxy.Proxy) *Handler {
	h := &Handler{
		ctrl:  ctrl,
		proxy: proxy,
	}
	return h
}

// corsMiddleware handles CORS for individual routes
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.Health)

	// facilitator
	r.GET("/supported", corsMiddleware(), h.GetSupported)
	r.POST("/verify", corsMiddleware(), h.VerifyPayment)
	r.POST("/settle", corsMiddleware(), h.SettlePayment)

	group := r.Group("/v1")

	// registry
	group.GET("/api", corsMiddleware(), h.ListApis)
	group.GET("/api/:apiId", corsMiddleware(), h.GetApi)
	group.POST("/api", corsMiddleware(), h.CreateApi)
	group.PUT("/api/:apiId", corsMiddleware(), h.UpdateApi)
	group.DELETE("/api/:apiId", corsMiddleware(), h.DeleteApi)

	// analytics
	group.GET("/analytics", corsMiddleware(), h.GetAnalytics)
}

// Health
//
//	@Description  This endpoint reports the node's liveness and settlement mode
//	@ID			health
//	@Tags		health
//	@Router		/ [get]
//	@Success	200	{object}	map[string]interface{}
func (h *Handler) Health(ctx *gin.Context) {
	conf := config.GetConfig()
	ctx.JSON(http.StatusOK, gin.H{
		"name":           "x402-forwarder-node",
		"version":        "0.1.0",
		"status":         "ok",
		"network":        h.ctrl.NetworkID(),
		"nodeOperator":   h.ctrl.NodeOperator(),
		"settlementMode": h.ctrl.SettlementMode(),
		"contracts": gin.H{
			"usdc":            conf.Contracts.Usdc,
			"paymentRouter":   conf.Contracts.PaymentRouter,
			"paymentVerifier": conf.Contracts.PaymentVerifier,
			"nodeRegistry":    conf.Contracts.NodeRegistry,
		},
		"endpoints": gin.H{
			"proxy":     "ALL /api/:apiId/*path",
			"supported": "GET /supported",
			"verify":    "POST /verify",
			"settle":    "POST /settle",
			"registry":  "GET|POST /v1/api, GET|PUT|DELETE /v1/api/:apiId",
			"analytics": "GET /v1/analytics",
		},
	})
}

func handleBrokerError(ctx *gin.Context, err error, context string) {
	info := "Node"
	if context != "" {
		info += (": " + context)
	}
	errors.Response(ctx, errors.Wrap(err, info))
}
