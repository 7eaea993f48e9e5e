package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type Model struct {
	CreatedAt *time.Time `json:"createdAt" readonly:"true"`
	UpdatedAt *time.Time `json:"updatedAt" readonly:"true"`
}

type ListMeta struct {
	Total uint64 `json:"total"`
}

type StringSlice []string

func (a StringSlice) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *StringSlice) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan StringSlice: not []byte")
	}
	return json.Unmarshal(bytes, a)
}
