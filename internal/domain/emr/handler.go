package emr

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
	emr := api.Group("/emr", auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor, auth.RoleReception))
	emr.POST("/patient/register", h.RegisterPatient)
	emr.POST("/lab-order", h.CreateOrder)
	emr.GET("/patient/:id", h.PatientByUHID)
	emr.GET("/patient/:id/results", h.PatientResults)
	emr.GET("/sample/:sample_id/status", h.SampleStatus)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	reg, err := h.svc.RegisterPatient(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	if reg.Status == RegistrationExists {
		return c.JSON(http.StatusOK, reg)
	}
	return c.JSON(http.StatusCreated, reg)
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var in OrderInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	order, err := h.svc.CreateOrder(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *Handler) PatientByUHID(c echo.Context) error {
	p, err := h.svc.PatientByUHID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) PatientResults(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.PatientResults(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) SampleStatus(c echo.Context) error {
	st, err := h.svc.SampleStatus(c.Request().Context(), c.Param("sample_id"))
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, st)
}
