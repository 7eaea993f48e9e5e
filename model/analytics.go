package model

// AnalyticsRecord is one settled, forwarded call. Records are written once
// per successful settlement and never mutated or deleted by the broker.
type AnalyticsRecord struct {
	Model
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	ApiID    string `gorm:"type:varchar(255);not null;index" json:"apiId"`
	Endpoint string `gorm:"type:varchar(2048);not null" json:"endpoint"`
	// Amount is the settled value in decimal asset units, e.g. "1.5".
	Amount string `gorm:"type:varchar(255);not null" json:"amount"`
	// Timestamp is Unix milliseconds at settlement time.
	Timestamp int64  `gorm:"type:bigint;not null" json:"timestamp"`
	TxHash    string `gorm:"type:varchar(255);not null" json:"txHash"`
}

type AnalyticsSummary struct {
	TotalVolume string            `json:"totalVolume"`
	TotalCalls  int64             `json:"totalCalls"`
	RecentCalls []AnalyticsRecord `json:"recentCalls"`
}
