package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier/internal/history"
)

// BuildsHandler serves the recorded build history.
type BuildsHandler struct {
	store *history.Store
}

func NewBuildsHandler(store *history.Store) *BuildsHandler {
	return &BuildsHandler{store: store}
}

func (h *BuildsHandler) Register(e *echo.Echo) {
	e.GET("/builds", h.List)
	e.GET("/builds/:id", h.Get)
	e.GET("/sessions/:id/events", h.Events)
}

func (h *BuildsHandler) List(c echo.Context) error {
	limit := 0
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}
	builds, err := h.store.ListBuilds(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	if builds == nil {
		builds = []history.BuildSummary{}
	}
	return c.JSON(http.StatusOK, builds)
}

func (h *BuildsHandler) Get(c echo.Context) error {
	build, err := h.store.GetBuild(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, build)
}

func (h *BuildsHandler) Events(c echo.Context) error {
	events, err := h.store.SessionEvents(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	if events == nil {
		events = []history.SessionEvent{}
	}
	return c.JSON(http.StatusOK, events)
}
