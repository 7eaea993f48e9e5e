package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/azharpratama/tenso/common/errors"
	"github.com/azharpratama/tenso/model"
)

// ListApis
//
//	@Description  This endpoint lists registered APIs, optionally filtered by owner
//	@ID			listApis
//	@Tags		api
//	@Produce	json
//	@Param		owner	query	string	false	"owner address"
//	@Router		/api [get]
//	@Success	200	{object}	model.ApiList
func (h *Handler) ListApis(ctx *gin.Context) {
	var opts model.ApiListOptions
	if err := ctx.ShouldBindQuery(&opts); err != nil {
		handleBrokerError(ctx, errors.Wrap(err, "bind query"), "list api")
		return
	}

	apis, err := h.ctrl.ListApis(&opts)
	if err != nil {
		handleBrokerError(ctx, err, "list api")
		return
	}

	ctx.JSON(http.StatusOK, model.ApiList{
		Metadata: model.ListMeta{Total: uint64(len(apis))},
		Items:    apis,
	})
}

// GetApi
//
//	@Description  This endpoint returns a single API with its endpoints
//	@ID			getApi
//	@Tags		api
//	@Produce	json
//	@Param		apiId	path	string	true	"api id"
//	@Router		/api/{apiId} [get]
//	@Success	200	{object}	model.Api
func (h *Handler) GetApi(ctx *gin.Context) {
	api, err := h.ctrl.FindApi(ctx.Param("apiId"))
	if err != nil {
		handleBrokerError(ctx, err, "get api")
		return
	}

	ctx.JSON(http.StatusOK, api)
}

// CreateApi
//
//	@Description  This endpoint registers a new API listing
//	@ID			createApi
//	@Tags		api
//	@Accept		json
//	@Produce	json
//	@Param		body	body	model.Api	true	"body"
//	@Router		/api [post]
//	@Success	201	{object}	model.Api
func (h *Handler) CreateApi(ctx *gin.Context) {
	var api model.Api
	if err := ctx.ShouldBindJSON(&api); err != nil {
		handleBrokerError(ctx, errors.Wrap(err, "bind request"), "create api")
		return
	}

	created, err := h.ctrl.CreateApi(&api)
	if err != nil {
		handleBrokerError(ctx, err, "create api")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// UpdateApi
//
//	@Description  This endpoint updates a listing; only the owner may update
//	@ID			updateApi
//	@Tags		api
//	@Accept		json
//	@Produce	json
//	@Param		apiId	path	string		true	"api id"
//	@Param		body	body	model.Api	true	"body"
//	@Router		/api/{apiId} [put]
//	@Success	200	{object}	model.Api
func (h *Handler) UpdateApi(ctx *gin.Context) {
	var api model.Api
	if err := ctx.ShouldBindJSON(&api); err != nil {
		handleBrokerError(ctx, errors.Wrap(err, "bind request"), "update api")
		return
	}

	updated, err := h.ctrl.UpdateApi(ctx.Param("apiId"), api.Owner, &api)
	if err != nil {
		handleBrokerError(ctx, err, "update api")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// DeleteApi
//
//	@Description  This endpoint removes a listing; only the owner may delete
//	@ID			deleteApi
//	@Tags		api
//	@Param		apiId	path	string	true	"api id"
//	@Param		owner	query	string	true	"owner address"
//	@Router		/api/{apiId} [delete]
//	@Success	204	{string}	string
func (h *Handler) DeleteApi(ctx *gin.Context) {
	if err := h.ctrl.DeleteApi(ctx.Param("apiId"), ctx.Query("owner")); err != nil {
		handleBrokerError(ctx, err, "delete api")
		return
	}

	ctx.Status(http.StatusNoContent)
}
