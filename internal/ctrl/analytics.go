package ctrl

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/azharpratama/tenso/common/util"
	constant "github.com/azharpratama/tenso/const"
	"github.com/azharpratama/tenso/model"
)

// RecordCall appends an analytics record for a settled, forwarded call.
// The write happens on the worker pool so a slow store never holds a
// response, and it still lands if the client has already disconnected.
func (c *Ctrl) RecordCall(apiID, endpointPath, atomicAmount, txHash string) {
	amount, err := util.FromAtomic(atomicAmount, constant.AssetDecimals)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"error":  err,
			"api_id": apiID,
			"amount": atomicAmount,
		}).Error("Failed to convert settled amount for analytics")
		return
	}

	record := &model.AnalyticsRecord{
		ApiID:     apiID,
		Endpoint:  endpointPath,
		Amount:    amount,
		Timestamp: time.Now().UnixMilli(),
		TxHash:    txHash,
	}

	c.pool.Submit(func() {
		if err := c.store.AddAnalyticsRecord(record); err != nil {
			c.logger.WithFields(logrus.Fields{
				"error":  err,
				"api_id": apiID,
			}).Error("Failed to write analytics record")
		}
	})
}

// AnalyticsSummary aggregates total volume, total calls and the ten most
// recent calls. Volume is summed with exact decimal arithmetic.
func (c *Ctrl) AnalyticsSummary() (*model.AnalyticsSummary, error) {
	count, err := c.store.CountAnalyticsRecords()
	if err != nil {
		return nil, err
	}

	amounts, err := c.store.ListAnalyticsAmounts()
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, amount := range amounts {
		d, err := decimal.NewFromString(amount)
		if err != nil {
			c.logger.WithFields(logrus.Fields{"amount": amount}).Warn("Skipping unparsable analytics amount")
			continue
		}
		total = total.Add(d)
	}

	recent, err := c.store.ListRecentAnalyticsRecords(10)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []model.AnalyticsRecord{}
	}

	return &model.AnalyticsSummary{
		TotalVolume: total.String(),
		TotalCalls:  count,
		RecentCalls: recent,
	}, nil
}
