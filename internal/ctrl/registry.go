package ctrl

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/azharpratama/tenso/common/errors"
	"github.com/azharpratama/tenso/common/util"
	constant "github.com/azharpratama/tenso/const"
	"github.com/azharpratama/tenso/model"
)

const apiCachePrefix = "api:"

// FindApi resolves a listing by id through the read cache. Not-found is a
// normal branch surfaced as a typed 404 error.
func (c *Ctrl) FindApi(id string) (*model.Api, error) {
	if cached, ok := c.svcCache.Get(apiCachePrefix + id); ok {
		return cached.(*model.Api), nil
	}

	api, err := c.store.GetApi(id)
	if err != nil {
		return nil, err
	}

	c.svcCache.SetDefault(apiCachePrefix+id, api)
	return api, nil
}

// FindEndpoint resolves a priced route within a listing.
func (c *Ctrl) FindEndpoint(api *model.Api, path, method string) (*model.Endpoint, error) {
	endpoint := api.FindEndpoint(path, method)
	if endpoint == nil {
		return nil, errors.NotFound(errors.New("no endpoint for path and method"), "Endpoint not found")
	}
	return endpoint, nil
}

func (c *Ctrl) ListApis(opts *model.ApiListOptions) ([]model.Api, error) {
	return c.store.ListApis(opts)
}

// CreateApi registers a listing. Prices arrive either already in atomic
// units or as decimal token amounts; both are normalized to integer
// smallest-unit form before anything is persisted.
func (c *Ctrl) CreateApi(api *model.Api) (*model.Api, error) {
	if api.ID == "" {
		api.ID = strings.Split(uuid.New().String(), "-")[0]
	}
	if !util.ValidAddress(api.Owner) {
		return nil, errors.BadRequest(errors.Errorf("invalid owner address: %q", api.Owner), "create api")
	}
	if err := normalizeEndpoints(api.Endpoints); err != nil {
		return nil, errors.BadRequest(err, "create api")
	}
	now := time.Now()
	api.CreatedAt = &now

	if err := c.store.CreateApi(api); err != nil {
		return nil, err
	}

	c.svcCache.Delete(apiCachePrefix + api.ID)
	c.logger.WithFields(logrus.Fields{"api_id": api.ID, "owner": api.Owner}).Info("API registered")
	return api, nil
}

// UpdateApi applies an owner-gated edit and replaces the endpoint set.
func (c *Ctrl) UpdateApi(id, caller string, updated *model.Api) (*model.Api, error) {
	existing, err := c.store.GetApi(id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(existing.Owner, caller) {
		return nil, errors.Forbidden(errors.New("caller is not the listing owner"), "update api")
	}
	if err := normalizeEndpoints(updated.Endpoints); err != nil {
		return nil, errors.BadRequest(err, "update api")
	}

	existing.Name = updated.Name
	existing.BaseURL = updated.BaseURL
	existing.Endpoints = updated.Endpoints
	if err := c.store.UpdateApi(existing); err != nil {
		return nil, err
	}

	c.svcCache.Delete(apiCachePrefix + id)
	return existing, nil
}

// DeleteApi removes a listing, owner-gated.
func (c *Ctrl) DeleteApi(id, caller string) error {
	existing, err := c.store.GetApi(id)
	if err != nil {
		return err
	}
	if !strings.EqualFold(existing.Owner, caller) {
		return errors.Forbidden(errors.New("caller is not the listing owner"), "delete api")
	}
	if err := c.store.DeleteApi(id); err != nil {
		return err
	}
	c.svcCache.Delete(apiCachePrefix + id)
	return nil
}

func normalizeEndpoints(endpoints []model.Endpoint) error {
	seen := make(map[string]struct{}, len(endpoints))
	for i := range endpoints {
		ep := &endpoints[i]

		key := ep.Method + " " + ep.Path
		if _, ok := seen[key]; ok {
			return errors.Errorf("duplicate endpoint %s", key)
		}
		seen[key] = struct{}{}

		price := ep.Price
		if strings.Contains(price, ".") {
			atomic, err := util.ToAtomic(price, constant.AssetDecimals)
			if err != nil {
				return err
			}
			ep.Price = atomic
			continue
		}
		n, err := util.ToBigInt(price)
		if err != nil {
			return err
		}
		if n.Sign() < 0 {
			return errors.Errorf("price must not be negative: %q", price)
		}
	}
	return nil
}
