package db

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/soft_delete"

	"github.com/azharpratama/tenso/model"
)

func (d *DB) Migrate() error {
	d.db.Set("gorm:table_options", "ENGINE=InnoDB")

	m := gormigrate.New(d.db, &gormigrate.Options{UseTransaction: false}, []*gormigrate.Migration{
		{
			ID: "create-api",
			Migrate: func(tx *gorm.DB) error {
				type Api struct {
					model.Model
					ID        string                `gorm:"type:varchar(255);not null;primaryKey"`
					Name      string                `gorm:"type:varchar(255);not null"`
					Owner     string                `gorm:"type:varchar(255);not null;index"`
					BaseURL   string                `gorm:"type:varchar(2048);not null"`
					DeletedAt soft_delete.DeletedAt `gorm:"softDelete:nano;not null;default:0"`
				}
				return tx.AutoMigrate(&Api{})
			},
		},
		{
			ID: "create-endpoint",
			Migrate: func(tx *gorm.DB) error {
				type Endpoint struct {
					model.Model
					ID          uint   `gorm:"primaryKey;autoIncrement"`
					ApiID       string `gorm:"type:varchar(255);not null;uniqueIndex:api_path_method"`
					Path        string `gorm:"type:varchar(2048);not null;uniqueIndex:api_path_method,length:255"`
					Method      string `gorm:"type:varchar(16);not null;uniqueIndex:api_path_method"`
					Price       string `gorm:"type:varchar(255);not null"`
					Description string `gorm:"type:varchar(2048);not null;default:''"`
				}
				return tx.AutoMigrate(&Endpoint{})
			},
		},
		{
			ID: "create-analytics-record",
			Migrate: func(tx *gorm.DB) error {
				type AnalyticsRecord struct {
					model.Model
					ID        uint   `gorm:"primaryKey;autoIncrement"`
					ApiID     string `gorm:"type:varchar(255);not null;index"`
					Endpoint  string `gorm:"type:varchar(2048);not null"`
					Amount    string `gorm:"type:varchar(255);not null"`
					Timestamp int64  `gorm:"type:bigint;not null;index"`
					TxHash    string `gorm:"type:varchar(255);not null"`
				}
				return tx.AutoMigrate(&AnalyticsRecord{})
			},
		},
	})

	return errors.Wrap(m.Migrate(), "migrate database")
}
