package db

import (
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/azharpratama/tenso/common/errors"
	"github.com/azharpratama/tenso/common/log"
	"github.com/azharpratama/tenso/config"
	"github.com/azharpratama/tenso/model"
)

type DB struct {
	db     *gorm.DB
	logger log.Logger
}

func NewDB(conf *config.Config, logger log.Logger) (*DB, error) {
	db, err := gorm.Open(mysql.Open(conf.Database.Provider), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, err
	}
	return &DB{db: db, logger: logger}, nil
}

// GetApi loads a listing with its endpoints. Unknown ids come back as a
// typed not-found error, which the pipeline maps to HTTP 404.
func (d *DB) GetApi(id string) (*model.Api, error) {
	var api model.Api
	if err := d.db.Preload("Endpoints").Where("id = ?", id).First(&api).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound(err, "API not found")
		}
		d.logger.WithFields(logrus.Fields{"error": err, "api_id": id}).Error("Failed to get api")
		return nil, err
	}
	return &api, nil
}

func (d *DB) ListApis(opts *model.ApiListOptions) ([]model.Api, error) {
	var apis []model.Api
	query := d.db.Preload("Endpoints").Model(&model.Api{})
	if opts != nil && opts.Owner != nil {
		query = query.Where("owner = ?", *opts.Owner)
	}
	if err := query.Find(&apis).Error; err != nil {
		d.logger.WithFields(logrus.Fields{"error": err}).Error("Failed to list apis")
		return nil, err
	}
	return apis, nil
}

func (d *DB) CreateApi(api *model.Api) error {
	if err := d.db.Create(api).Error; err != nil {
		d.logger.WithFields(logrus.Fields{"error": err, "api_id": api.ID}).Error("Failed to create api")
		return err
	}
	return nil
}

// UpdateApi replaces a listing's mutable fields and its whole endpoint set.
func (d *DB) UpdateApi(api *model.Api) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Api{ID: api.ID}).Updates(map[string]interface{}{
			"name":     api.Name,
			"base_url": api.BaseURL,
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("api_id = ?", api.ID).Delete(&model.Endpoint{}).Error; err != nil {
			return err
		}
		for i := range api.Endpoints {
			api.Endpoints[i].ID = 0
			api.Endpoints[i].ApiID = api.ID
		}
		if len(api.Endpoints) == 0 {
			return nil
		}
		return tx.Create(&api.Endpoints).Error
	})
	if err != nil {
		d.logger.WithFields(logrus.Fields{"error": err, "api_id": api.ID}).Error("Failed to update api")
	}
	return err
}

func (d *DB) DeleteApi(id string) error {
	result := d.db.Where("id = ?", id).Delete(&model.Api{})
	if result.Error != nil {
		d.logger.WithFields(logrus.Fields{"error": result.Error, "api_id": id}).Error("Failed to delete api")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.NotFound(gorm.ErrRecordNotFound, "API not found")
	}
	return nil
}

func (d *DB) AddAnalyticsRecord(record *model.AnalyticsRecord) error {
	if err := d.db.Create(record).Error; err != nil {
		d.logger.WithFields(logrus.Fields{
			"error":  err,
			"api_id": record.ApiID,
		}).Error("Failed to add analytics record")
		return err
	}
	return nil
}

func (d *DB) CountAnalyticsRecords() (int64, error) {
	var count int64
	if err := d.db.Model(&model.AnalyticsRecord{}).Count(&count).Error; err != nil {
		d.logger.WithFields(logrus.Fields{"error": err}).Error("Failed to count analytics records")
		return 0, err
	}
	return count, nil
}

func (d *DB) ListRecentAnalyticsRecords(limit int) ([]model.AnalyticsRecord, error) {
	var records []model.AnalyticsRecord
	if err := d.db.Order("timestamp DESC").Limit(limit).Find(&records).Error; err != nil {
		d.logger.WithFields(logrus.Fields{"error": err}).Error("Failed to list analytics records")
		return nil, err
	}
	return records, nil
}

// ListAnalyticsAmounts returns every settled amount as a decimal string;
// summation happens in the caller with exact decimal arithmetic.
func (d *DB) ListAnalyticsAmounts() ([]string, error) {
	var amounts []string
	if err := d.db.Model(&model.AnalyticsRecord{}).Pluck("amount", &amounts).Error; err != nil {
		d.logger.WithFields(logrus.Fields{"error": err}).Error("Failed to list analytics amounts")
		return nil, err
	}
	return amounts, nil
}
