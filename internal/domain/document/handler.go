package document

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
	quality := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleQualityManager, auth.RoleLabDirector))
	quality.POST("/nabl-documents", h.Register)
	quality.PUT("/nabl-documents/:id/status", h.SetStatus)

	api.GET("/nabl-documents", h.List)
	api.GET("/nabl-documents/:id", h.Get)
}

func (h *Handler) Register(c echo.Context) error {
	var d Document
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Register(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid document id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.SetStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid document id")
	}
	d, err := h.svc.GetDocument(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"document_type", "status"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	items, total, err := h.svc.ListDocuments(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
