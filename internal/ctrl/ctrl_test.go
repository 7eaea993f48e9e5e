package ctrl

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/azharpratama/tenso/common/errors"
	"github.com/azharpratama/tenso/common/log"
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

// fakeStore is an in-memory Store for controller tests.
type fakeStore struct {
	mu      sync.Mutex
	apis    map[string]*model.Api
	records []model.AnalyticsRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{apis: make(map[string]*model.Api)}
}

func (s *fakeStore) GetApi(id string) (*model.Api, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	api, ok := s.apis[id]
	if !ok {
		return nil, errors.NotFound(errors.New("record not found"), "API not found")
	}
	clone := *api
	return &clone, nil
}

func (s *fakeStore) ListApis(opts *model.ApiListOptions) ([]model.Api, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Api
	for _, api := range s.apis {
		if opts != nil && opts.Owner != nil && api.Owner != *opts.Owner {
			continue
		}
		out = append(out, *api)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) CreateApi(api *model.Api) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *api
	s.apis[api.ID] = &clone
	return nil
}

func (s *fakeStore) UpdateApi(api *model.Api) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *api
	s.apis[api.ID] = &clone
	return nil
}

func (s *fakeStore) DeleteApi(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.apis, id)
	return nil
}

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
	s.mu.Lock()
	defer s.mu.Unlock()
	records := append([]model.AnalyticsRecord(nil), s.records...)
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp > records[j].Timestamp })
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *fakeStore) ListAnalyticsAmounts() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	amounts := make([]string, 0, len(s.records))
	for _, r := range s.records {
		amounts = append(amounts, r.Amount)
	}
	return amounts, nil
}

// alwaysValid approves every proof.
type alwaysValid struct{}

func (alwaysValid) Verify(ctx context.Context, payload *x402.PaymentPayload, requirement *x402.PaymentRequirements) *x402.VerifyResponse {
	return &x402.VerifyResponse{IsValid: true}
}

// stubEngine returns a canned settlement result.
type stubEngine struct {
	result *x402.SettlementResult
	calls  int
}

func (e *stubEngine) Settle(ctx context.Context, payload *x402.PaymentPayload, apiOwner, nodeOperator, amount string) *x402.SettlementResult {
	e.calls++
	return e.result
}

func (e *stubEngine) Mode() string { return settlement.ModeSponsored }

func newTestCtrl(t *testing.T, store Store, engine settlement.Engine) *Ctrl {
	t.Helper()
	logger, err := log.GetLogger(nil)
	if err != nil {
		t.Fatalf("GetLogger() error = %v", err)
	}
	if engine == nil {
		engine = &stubEngine{result: x402.SettleSuccess("0xabc", testNetwork)}
	}
	c := New(store, alwaysValid{}, engine, cache.New(time.Minute, time.Minute), 1, testOperator, testAsset, testNetwork, logger)
	t.Cleanup(c.Close)
	return c
}

func testApi() *model.Api {
	return &model.Api{
		ID:      "weather",
		Name:    "Weather API",
		Owner:   testOwner,
		BaseURL: "https://weather.example.com",
		Endpoints: []model.Endpoint{
			{Path: "/forecast", Method: "GET", Price: "10000", Description: "7-day forecast"},
			{Path: "/forecast", Method: "POST", Price: "20000"},
		},
	}
}

func TestCreateApiNormalizesDecimalPrices(t *testing.T) {
	store := newFakeStore()
	c := newTestCtrl(t, store, nil)

	api := testApi()
	api.Endpoints[0].Price = "0.01"

	created, err := c.CreateApi(api)
	if err != nil {
		t.Fatalf("CreateApi() error = %v", err)
	}
	if created.Endpoints[0].Price != "10000" {
		t.Errorf("Price = %s; want 10000", created.Endpoints[0].Price)
	}
}

func TestCreateApiGeneratesID(t *testing.T) {
	c := newTestCtrl(t, newFakeStore(), nil)

	api := testApi()
	api.ID = ""
	created, err := c.CreateApi(api)
	if err != nil {
		t.Fatalf("CreateApi() error = %v", err)
	}
	if created.ID == "" {
		t.Error("ID not generated")
	}
}

func TestCreateApiRejections(t *testing.T) {
	c := newTestCtrl(t, newFakeStore(), nil)

	t.Run("bad owner", func(t *testing.T) {
		api := testApi()
		api.Owner = "not-an-address"
		if _, err := c.CreateApi(api); err == nil {
			t.Error("CreateApi() expected error for bad owner")
		}
	})

	t.Run("duplicate endpoint", func(t *testing.T) {
		api := testApi()
		api.Endpoints = append(api.Endpoints, model.Endpoint{Path: "/forecast", Method: "GET", Price: "1"})
		if _, err := c.CreateApi(api); err == nil {
			t.Error("CreateApi() expected error for duplicate endpoint")
		}
	})

	t.Run("negative price", func(t *testing.T) {
		api := testApi()
		api.Endpoints[0].Price = "-5"
		if _, err := c.CreateApi(api); err == nil {
			t.Error("CreateApi() expected error for negative price")
		}
	})
}

func TestUpdateApiOwnerGate(t *testing.T) {
	store := newFakeStore()
	c := newTestCtrl(t, store, nil)
	if _, err := c.CreateApi(testApi()); err != nil {
		t.Fatalf("CreateApi() error = %v", err)
	}

	updated := testApi()
	updated.Name = "Renamed"

	if _, err := c.UpdateApi("weather", testOperator, updated); err == nil {
		t.Error("UpdateApi() by non-owner expected error")
	}

	// Owner comparison is case-insensitive.
	got, err := c.UpdateApi("weather", "0x857B06519E91E3A54538791BDBB0E22373E36B66", updated)
	if err != nil {
		t.Fatalf("UpdateApi() by owner error = %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name = %s; want Renamed", got.Name)
	}
}

func TestDeleteApiOwnerGate(t *testing.T) {
	store := newFakeStore()
	c := newTestCtrl(t, store, nil)
	if _, err := c.CreateApi(testApi()); err != nil {
		t.Fatalf("CreateApi() error = %v", err)
	}

	if err := c.DeleteApi("weather", testOperator); err == nil {
		t.Error("DeleteApi() by non-owner expected error")
	}
	if err := c.DeleteApi("weather", testOwner); err != nil {
		t.Fatalf("DeleteApi() by owner error = %v", err)
	}
	if _, err := c.FindApi("weather"); !errors.IsNotFound(err) {
		t.Errorf("FindApi() after delete = %v; want not found", err)
	}
}

func TestFindApiCaches(t *testing.T) {
	store := newFakeStore()
	c := newTestCtrl(t, store, nil)
	if _, err := c.CreateApi(testApi()); err != nil {
		t.Fatalf("CreateApi() error = %v", err)
	}

	first, err := c.FindApi("weather")
	if err != nil {
		t.Fatalf("FindApi() error = %v", err)
	}

	// Mutate the store behind the cache; the cached listing must win until
	// invalidated by a write through the controller.
	store.mu.Lock()
	store.apis["weather"].Name = "changed underneath"
	store.mu.Unlock()

	second, err := c.FindApi("weather")
	if err != nil {
		t.Fatalf("FindApi() error = %v", err)
	}
	if second.Name != first.Name {
		t.Errorf("Name = %s; want cached %s", second.Name, first.Name)
	}
}

func TestFindEndpointNotFound(t *testing.T) {
	c := newTestCtrl(t, newFakeStore(), nil)
	api := testApi()

	if _, err := c.FindEndpoint(api, "/forecast", "DELETE"); err == nil {
		t.Error("FindEndpoint() expected error for unknown method")
	}
	if _, err := c.FindEndpoint(api, "/nope", "GET"); err == nil {
		t.Error("FindEndpoint() expected error for unknown path")
	}

	ep, err := c.FindEndpoint(api, "/forecast", "GET")
	if err != nil {
		t.Fatalf("FindEndpoint() error = %v", err)
	}
	if ep.Price != "10000" {
		t.Errorf("Price = %s; want 10000", ep.Price)
	}
}
