package catalog

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
	write := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleLabDirector))
	write.POST("/tests", h.CreateTest)

	api.GET("/tests", h.ListTests)
	api.GET("/tests/:id", h.GetTest)
}

func (h *Handler) CreateTest(c echo.Context) error {
	var td TestDefinition
	if err := c.Bind(&td); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateTest(c.Request().Context(), &td); err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, td)
}

func (h *Handler) GetTest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	td, err := h.svc.GetTest(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, td)
}

func (h *Handler) ListTests(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListTests(c.Request().Context(), c.QueryParam("category"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
