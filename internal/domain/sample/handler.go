package sample

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lims/lims/internal/platform/auth"
	"github.com/lims/lims/pkg/errs"
	"github.com/lims/lims/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	collect := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleLabTechnician, auth.RoleReception))
	collect.POST("/samples", h.Create)

	bench := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleLabTechnician, auth.RolePathologist, auth.RoleLabDirector))
	bench.PUT("/samples/:id/status", h.UpdateStatus)
	bench.POST("/samples/:id/reject", h.Reject)

	api.GET("/samples", h.List)
	api.GET("/samples/:id", h.Get)
}

type sampleResponse struct {
	*Sample
	TATStatus string `json:"tat_status"`
}

func (h *Handler) respond(smp *Sample) sampleResponse {
	status := TATOnTime
	if h.svc.IsBreached(smp) {
		status = TATBreached
	}
	return sampleResponse{Sample: smp, TATStatus: status}
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	smp, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, h.respond(smp))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// Bench scanners submit the barcode or accession number instead.
		smp, serr := h.svc.GetBySampleID(c.Request().Context(), c.Param("id"))
		if serr != nil {
			smp, serr = h.svc.GetByBarcode(c.Request().Context(), c.Param("id"))
		}
		if serr != nil {
			return echo.NewHTTPError(errs.HTTPStatus(serr), serr.Error())
		}
		return c.JSON(http.StatusOK, h.respond(smp))
	}
	smp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, h.respond(smp))
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	if v := c.QueryParam("status"); v != "" {
		params["status"] = v
	}
	if v := c.QueryParam("patient_id"); v != "" {
		params["patient"] = v
	}
	items, total, err := h.svc.List(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]sampleResponse, len(items))
	for i, smp := range items {
		out[i] = h.respond(smp)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(out, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	smp, err := h.svc.Transition(c.Request().Context(), id, body.Status)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, h.respond(smp))
}

func (h *Handler) Reject(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		RejectionReason string `json:"rejection_reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	smp, err := h.svc.Reject(c.Request().Context(), id, body.RejectionReason)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, h.respond(smp))
}
