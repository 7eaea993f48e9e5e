package model

import (
	"gorm.io/plugin/soft_delete"
)

// Api is one registered upstream API. The id is unique across the registry;
// only the owning address may edit or delete a listing.
type Api struct {
	Model
	ID        string                `gorm:"type:varchar(255);not null;primaryKey" json:"id" immutable:"true"`
	Name      string                `gorm:"type:varchar(255);not null" json:"name" binding:"required"`
	Owner     string                `gorm:"type:varchar(255);not null;index" json:"owner" binding:"required"`
	BaseURL   string                `gorm:"type:varchar(2048);not null" json:"baseUrl" binding:"required"`
	Endpoints []Endpoint            `gorm:"foreignKey:ApiID;references:ID;constraint:OnDelete:CASCADE" json:"endpoints"`
	DeletedAt soft_delete.DeletedAt `gorm:"softDelete:nano;not null;default:0" json:"-"`
}

// Endpoint is a priced route within an API. Price is stored in the asset's
// smallest denomination; decimal input must be converted before persisting.
// (path, method) is unique within an API.
type Endpoint struct {
	Model
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	ApiID       string `gorm:"type:varchar(255);not null;uniqueIndex:api_path_method" json:"-"`
	Path        string `gorm:"type:varchar(2048);not null;uniqueIndex:api_path_method,length:255" json:"path" binding:"required"`
	Method      string `gorm:"type:varchar(16);not null;uniqueIndex:api_path_method" json:"method" binding:"required,oneof=GET POST PUT DELETE"`
	Price       string `gorm:"type:varchar(255);not null" json:"price" binding:"required"`
	Description string `gorm:"type:varchar(2048);not null;default:''" json:"description"`
}

// FindEndpoint resolves a (path, method) pair within the listing. A nil
// return is the normal not-found branch, not an error.
func (a *Api) FindEndpoint(path, method string) *Endpoint {
	for i := range a.Endpoints {
		if a.Endpoints[i].Path == path && a.Endpoints[i].Method == method {
			return &a.Endpoints[i]
		}
	}
	return nil
}

type ApiList struct {
	Metadata ListMeta `json:"metadata"`
	Items    []Api    `json:"items"`
}

type ApiListOptions struct {
	Owner *string `form:"owner"`
}
