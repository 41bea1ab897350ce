package inventory

import (
	"net/http"

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
	stock := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleLabTechnician, auth.RoleQualityManager))
	stock.POST("/inventory", h.AddItem)

	api.GET("/inventory", h.ListItems)
	api.GET("/inventory/alerts", h.Alerts)
}

func (h *Handler) AddItem(c echo.Context) error {
	var item Item
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.AddItem(c.Request().Context(), &item); err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) ListItems(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"item_type", "search"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	items, total, err := h.svc.ListItems(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Alerts(c echo.Context) error {
	alerts, err := h.svc.StockAlerts(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, alerts)
}
