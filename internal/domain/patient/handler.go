package patient

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
	write := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleReception, auth.RoleLabTechnician))
	write.POST("/patients", h.Register)

	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
}

func (h *Handler) Register(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Register(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// Also accept a UHID in the path for reception workflows.
		p, uerr := h.svc.GetPatientByUHID(c.Request().Context(), c.Param("id"))
		if uerr != nil {
			return echo.NewHTTPError(errs.HTTPStatus(uerr), uerr.Error())
		}
		return c.JSON(http.StatusOK, p)
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), c.QueryParam("search"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
