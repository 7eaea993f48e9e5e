package ctrl

import (
	"context"

	"github.com/gammazero/workerpool"
	"github.com/patrickmn/go-cache"

	"github.com/azharpratama/tenso/common/log"
	"github.com/azharpratama/tenso/internal/settlement"
	"github.com/azharpratama/tenso/model"
	"github.com/azharpratama/tenso/x402"
)

// Store is the registry and analytics persistence the controller depends
// on. internal/db implements it.
type Store interface {
	GetApi(id string) (*model.Api, error)
	ListApis(opts *model.ApiListOptions) ([]model.Api, error)
	CreateApi(api *model.Api) error
	UpdateApi(api *model.Api) error
	DeleteApi(id string) error

	AddAnalyticsRecord(record *model.AnalyticsRecord) error
	CountAnalyticsRecords() (int64, error)
	ListRecentAnalyticsRecords(limit int) ([]model.AnalyticsRecord, error)
	ListAnalyticsAmounts() ([]string, error)
}

// ProofVerifier validates a payment proof against a requirement. Safe for
// repeated and concurrent calls with the same proof.
type ProofVerifier interface {
	Verify(ctx context.Context, payload *x402.PaymentPayload, requirement *x402.PaymentRequirements) *x402.VerifyResponse
}

type Ctrl struct {
	store    Store
	verifier ProofVerifier
	engine   settlement.Engine
	svcCache *cache.Cache
	pool     *workerpool.WorkerPool
	logger   log.Logger

	nodeOperator string
	asset        string
	networkID    string
}

func New(
	store Store,
	verifier ProofVerifier,
	engine settlement.Engine,
	svcCache *cache.Cache,
	analyticsWorkers int,
	nodeOperator string,
	asset string,
	networkID string,
	logger log.Logger,
) *Ctrl {
	if analyticsWorkers <= 0 {
		analyticsWorkers = 1
	}
	return &Ctrl{
		store:        store,
		verifier:     verifier,
		engine:       engine,
		svcCache:     svcCache,
		pool:         workerpool.New(analyticsWorkers),
		logger:       logger,
		nodeOperator: nodeOperator,
		asset:        asset,
		networkID:    networkID,
	}
}

func (c *Ctrl) NodeOperator() string {
	return c.nodeOperator
}

func (c *Ctrl) Asset() string {
	return c.asset
}

func (c *Ctrl) NetworkID() string {
	return c.networkID
}

func (c *Ctrl) SettlementMode() string {
	return c.engine.Mode()
}

// Close drains the analytics worker pool, letting in-flight records land.
func (c *Ctrl) Close() {
	c.pool.StopWait()
}
