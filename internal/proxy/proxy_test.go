package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/azharpratama/tenso/common/errors"
	"github.com/azharpratama/tenso/common/log"
	constant "github.com/azharpratama/tenso/const"
	"github.com/azharpratama/tenso/internal/ctrl"
	"github.com/azharpratama/tenso/internal/settlement"
	"github.com/azharpratama/tenso/model"
	"github.com/azharpratama/tenso/x402"
)

const (
	testOwner    = "0x857B06519E91e3A54538791bDbb0E22373e36b66"
	testOperator = "0x209693Bc6afc0C5328bA36FaF03C514EF312287C"
	testAsset    = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
	testNetwork  = "eip155:84532"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	mu      sync.Mutex
	apis    map[string]*model.Api
	records []model.AnalyticsRecord
}

func (s *fakeStore) GetApi(id string) (*model.Api, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	api, ok := s.apis[id]
	if !ok {
		return nil, errors.NotFound(errors.New("record not found"), "API not found")
	}
	return api, nil
}

func (s *fakeStore) ListApis(opts *model.ApiListOptions) ([]model.Api, error) { return nil, nil }
func (s *fakeStore) CreateApi(api *model.Api) error                           { return nil }
func (s *fakeStore) UpdateApi(api *model.Api) error                           { return nil }
func (s *fakeStore) DeleteApi(id string) error                                { return nil }

func (s *fakeStore) AddAnalyticsRecord(record *model.AnalyticsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

func (s *fakeStore) CountAnalyticsRecords() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.records)), nil
}

func (s *fakeStore) ListRecentAnalyticsRecords(limit int) ([]model.AnalyticsRecord, error) {
	return nil, nil
}
func (s *fakeStore) ListAnalyticsAmounts() ([]string, error) { return nil, nil }

type fakeVerifier struct {
	reason string // empty means valid
	gotReq *x402.PaymentRequirements
}

func (v *fakeVerifier) Verify(ctx context.Context, payload *x402.PaymentPayload, requirement *x402.PaymentRequirements) *x402.VerifyResponse {
	v.gotReq = requirement
	if v.reason != "" {
		reason := v.reason
		return &x402.VerifyResponse{IsValid: false, InvalidReason: &reason}
	}
	return &x402.VerifyResponse{IsValid: true}
}

type fakeEngine struct {
	result *x402.SettlementResult
	calls  int
}

func (e *fakeEngine) Settle(ctx context.Context, payload *x402.PaymentPayload, apiOwner, nodeOperator, amount string) *x402.SettlementResult {
	e.calls++
	return e.result
}

func (e *fakeEngine) Mode() string { return settlement.ModeSponsored }

type testNode struct {
	engine   *gin.Engine
	store    *fakeStore
	verifier *fakeVerifier
	settler  *fakeEngine
	ctrl     *ctrl.Ctrl
}

func newTestNode(t *testing.T, upstreamURL string) *testNode {
	t.Helper()
	logger, err := log.GetLogger(nil)
	if err != nil {
		t.Fatalf("GetLogger() error = %v", err)
	}

	store := &fakeStore{apis: map[string]*model.Api{
		"weather": {
			ID:      "weather",
			Name:    "Weather API",
			Owner:   testOwner,
			BaseURL: upstreamURL,
			Endpoints: []model.Endpoint{
				{Path: "/forecast", Method: "GET", Price: "10000", Description: "7-day forecast"},
				{Path: "/report", Method: "POST", Price: "20000"},
			},
		},
	}}

	verifier := &fakeVerifier{}
	settler := &fakeEngine{result: x402.SettleSuccess("0xabc123", testNetwork)}

	c := ctrl.New(store, verifier, settler, cache.New(time.Minute, time.Minute), 1, testOperator, testAsset, testNetwork, logger)

	engine := gin.New()
	p := New(c, engine, nil, false, logger)
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	return &testNode{engine: engine, store: store, verifier: verifier, settler: settler, ctrl: c}
}

func paymentHeader(t *testing.T) string {
	t.Helper()
	header, err := x402.EncodePayment(&x402.PaymentPayload{
		X402Version: 1,
		Scheme:      constant.SchemeEIP712,
		Network:     testNetwork,
		Payload: &x402.ExactEvmPayload{
			From:        testOwner,
			Signature:   "0xab",
			ValidAfter:  0,
			ValidBefore: 1_900_000_000,
			Nonce:       "0x1100000000000000000000000000000000000000000000000000000000000000",
			Amount:      "10000",
		},
	})
	if err != nil {
		t.Fatalf("EncodePayment() error = %v", err)
	}
	return header
}

func TestForwardUnknownApi(t *testing.T) {
	node := newTestNode(t, "http://unused")

	req := httptest.NewRequest("GET", "/api/nope/forecast", nil)
	rec := httptest.NewRecorder()
	node.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "API not found" {
		t.Errorf("error = %q; want API not found", body["error"])
	}
}

func TestForwardUnknownEndpoint(t *testing.T) {
	node := newTestNode(t, "http://unused")

	// Path exists, method does not.
	req := httptest.NewRequest("DELETE", "/api/weather/forecast", nil)
	rec := httptest.NewRecorder()
	node.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", rec.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != "Endpoint not found" {
		t.Errorf("error = %q; want Endpoint not found", body["error"])
	}
}

func TestForwardChallenge(t *testing.T) {
	node := newTestNode(t, "http://unused")

	req := httptest.NewRequest("GET", "/api/weather/forecast", nil)
	rec := httptest.NewRecorder()
	node.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d; want 402", rec.Code)
	}

	var challenge x402.PaymentRequiredResponse
	if err := json.NewDecoder(rec.Body).Decode(&challenge); err != nil {
		t.Fatalf("decode challenge: %v", err)
	}
	if challenge.X402Version != 1 {
		t.Errorf("x402Version = %d; want 1", challenge.X402Version)
	}
	if challenge.Error != constant.ErrorPaymentRequired {
		t.Errorf("error = %q; want %q", challenge.Error, constant.ErrorPaymentRequired)
	}
	if challenge.ErrorMessage != "Payment of 0.01 USDC required" {
		t.Errorf("errorMessage = %q", challenge.ErrorMessage)
	}
	if len(challenge.Accepts) != 1 {
		t.Fatalf("accepts length = %d; want 1", len(challenge.Accepts))
	}
	accept := challenge.Accepts[0]
	if accept.MaxAmountRequired != "10000" {
		t.Errorf("maxAmountRequired = %q; want 10000", accept.MaxAmountRequired)
	}
	if accept.PayTo != testOwner {
		t.Errorf("payTo = %q; want %q", accept.PayTo, testOwner)
	}
	if node.settler.calls != 0 {
		t.Errorf("settlement calls = %d; want 0 on challenge", node.settler.calls)
	}
}

func TestForwardMalformedPayment(t *testing.T) {
	node := newTestNode(t, "http://unused")

	req := httptest.NewRequest("GET", "/api/weather/forecast", nil)
	req.Header.Set(constant.HeaderPayment, "!!!garbage!!!")
	rec := httptest.NewRecorder()
	node.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d; want 402", rec.Code)
	}
	var body map[string]interface{}
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != constant.ErrorInvalidPayment {
		t.Errorf("error = %v; want %s", body["error"], constant.ErrorInvalidPayment)
	}
}

func TestForwardInvalidProof(t *testing.T) {
	node := newTestNode(t, "http://unused")
	node.verifier.reason = "Signature does not match payer"

	req := httptest.NewRequest("GET", "/api/weather/forecast", nil)
	req.Header.Set(constant.HeaderPayment, paymentHeader(t))
	rec := httptest.NewRecorder()
	node.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d; want 402", rec.Code)
	}
	var body map[string]interface{}
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["errorMessage"] != "Signature does not match payer" {
		t.Errorf("errorMessage = %v", body["errorMessage"])
	}
	if node.settler.calls != 0 {
		t.Errorf("settlement calls = %d; want 0 for invalid proof", node.settler.calls)
	}

	// The requirement checked against is rebuilt server-side.
	if node.verifier.gotReq == nil || node.verifier.gotReq.MaxAmountRequired != "10000" {
		t.Errorf("verified requirement = %+v; want server-built with 10000", node.verifier.gotReq)
	}
}

func TestForwardSettlementFailureBlocksUpstream(t *testing.T) {
	upstreamHits := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamHits++
	}))
	defer upstream.Close()

	node := newTestNode(t, upstream.URL)
	node.settler.result = x402.SettleFailure("insufficient custody balance")

	req := httptest.NewRequest("GET", "/api/weather/forecast", nil)
	req.Header.Set(constant.HeaderPayment, paymentHeader(t))
	rec := httptest.NewRecorder()
	node.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d; want 402", rec.Code)
	}
	var body map[string]interface{}
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != "settlement_failed" {
		t.Errorf("error = %v; want settlement_failed", body["error"])
	}
	if body["errorMessage"] != "insufficient custody balance" {
		t.Errorf("errorMessage = %v", body["errorMessage"])
	}
	if upstreamHits != 0 {
		t.Errorf("upstream hits = %d; want 0 after failed settlement", upstreamHits)
	}
	if rec.Header().Get(constant.HeaderPaymentResponse) != "" {
		t.Error("receipt header present on failed settlement")
	}
}

func TestForwardSuccess(t *testing.T) {
	var gotPath, gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"forecast":"sunny"}`))
	}))
	defer upstream.Close()

	node := newTestNode(t, upstream.URL)

	req := httptest.NewRequest("GET", "/api/weather/forecast?days=7", nil)
	req.Header.Set(constant.HeaderPayment, paymentHeader(t))
	rec := httptest.NewRecorder()
	node.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200, body %s", rec.Code, rec.Body.String())
	}
	if gotPath != "/forecast" {
		t.Errorf("upstream path = %q; want /forecast", gotPath)
	}
	if gotQuery != "days=7" {
		t.Errorf("upstream query = %q; want days=7", gotQuery)
	}
	if rec.Body.String() != `{"forecast":"sunny"}` {
		t.Errorf("body = %s", rec.Body.String())
	}

	receiptHeader := rec.Header().Get(constant.HeaderPaymentResponse)
	if receiptHeader == "" {
		t.Fatal("missing receipt header")
	}
	receipt, err := x402.DecodeReceipt(receiptHeader)
	if err != nil {
		t.Fatalf("DecodeReceipt() error = %v", err)
	}
	if !receipt.Success {
		t.Error("receipt success = false; want true")
	}
	if receipt.TxHash == nil || *receipt.TxHash != "0xabc123" {
		t.Errorf("receipt txHash = %v; want 0xabc123", receipt.TxHash)
	}
	if receipt.NetworkId == nil || *receipt.NetworkId != testNetwork {
		t.Errorf("receipt networkId = %v; want %s", receipt.NetworkId, testNetwork)
	}

	// Analytics writes are async; closing the controller drains the pool.
	node.ctrl.Close()
	count, _ := node.store.CountAnalyticsRecords()
	if count != 1 {
		t.Errorf("analytics records = %d; want 1", count)
	}
}

func TestForwardNonJSONUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not json</html>"))
	}))
	defer upstream.Close()

	node := newTestNode(t, upstream.URL)

	req := httptest.NewRequest("GET", "/api/weather/forecast", nil)
	req.Header.Set(constant.HeaderPayment, paymentHeader(t))
	rec := httptest.NewRecorder()
	node.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d; want 502", rec.Code)
	}
}

func TestForwardUnreachableUpstream(t *testing.T) {
	node := newTestNode(t, "http://127.0.0.1:1")

	req := httptest.NewRequest("GET", "/api/weather/forecast", nil)
	req.Header.Set(constant.HeaderPayment, paymentHeader(t))
	rec := httptest.NewRecorder()
	node.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d; want 502", rec.Code)
	}
}

func TestForwardPostBody(t *testing.T) {
	var gotBody string
	var gotContentType string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	node := newTestNode(t, upstream.URL)

	req := httptest.NewRequest("POST", "/api/weather/report", bytes.NewBufferString(`{"city":"Jakarta"}`))
	req.Header.Set(constant.HeaderPayment, paymentHeader(t))
	rec := httptest.NewRecorder()
	node.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200, body %s", rec.Code, rec.Body.String())
	}
	if gotBody != `{"city":"Jakarta"}` {
		t.Errorf("upstream body = %q", gotBody)
	}
	if gotContentType != "application/json" {
		t.Errorf("upstream content type = %q; want application/json", gotContentType)
	}
}
