package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/builder"
)

// SessionsHandler drives build sessions through the staged flow.
type SessionsHandler struct {
	hub *builder.Hub
}

func NewSessionsHandler(hub *builder.Hub) *SessionsHandler {
	return &SessionsHandler{hub: hub}
}

func (h *SessionsHandler) Register(e *echo.Echo) {
	g := e.Group("/sessions")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/submit", h.Submit)
	g.POST("/:id/approve", h.Approve)
	g.POST("/:id/revise", h.Revise)
	g.POST("/:id/edit", h.Edit)
	g.PUT("/:id/draft", h.UpdateDraft)
	g.DELETE("/:id/draft", h.CancelEdit)
	g.POST("/:id/goto", h.GoTo)
	g.POST("/:id/reset", h.Reset)
}

type submitRequest struct {
	Statement string `json:"statement"`
}

type reviseRequest struct {
	Feedback string `json:"feedback"`
}

type editRequest struct {
	Action string `json:"action"`
}

type gotoRequest struct {
	Target string `json:"target"`
	Index  int    `json:"index"`
}

func (h *SessionsHandler) Create(c echo.Context) error {
	b := h.hub.Create()
	return c.JSON(http.StatusCreated, b.Snapshot())
}

func (h *SessionsHandler) List(c echo.Context) error {
	sessions := h.hub.List()
	if sessions == nil {
		sessions = []builder.Session{}
	}
	return c.JSON(http.StatusOK, sessions)
}

func (h *SessionsHandler) Get(c echo.Context) error {
	b, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b.Snapshot())
}

func (h *SessionsHandler) Delete(c echo.Context) error {
	if _, err := h.session(c); err != nil {
		return writeError(c, err)
	}
	h.hub.Remove(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (h *SessionsHandler) Submit(c echo.Context) error {
	b, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := b.Submit(c.Request().Context(), req.Statement); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b.Snapshot())
}

func (h *SessionsHandler) Approve(c echo.Context) error {
	b, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := b.Approve(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b.Snapshot())
}

func (h *SessionsHandler) Revise(c echo.Context) error {
	b, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var req reviseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := b.Revise(c.Request().Context(), req.Feedback); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b.Snapshot())
}

// Edit begins or saves the current agent's edit draft. The draft itself is
// updated with PUT /sessions/:id/draft and discarded with DELETE.
func (h *SessionsHandler) Edit(c echo.Context) error {
	b, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var req editRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	switch strings.TrimSpace(req.Action) {
	case "", "begin":
		err = b.BeginEdit()
	case "save":
		err = b.SaveEdit()
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "action must be begin or save")
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b.Snapshot())
}

func (h *SessionsHandler) UpdateDraft(c echo.Context) error {
	b, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var draft blueprint.AgentSpec
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := b.UpdateDraft(draft); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b.Snapshot())
}

func (h *SessionsHandler) CancelEdit(c echo.Context) error {
	b, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := b.CancelEdit(); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b.Snapshot())
}

func (h *SessionsHandler) GoTo(c echo.Context) error {
	b, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var req gotoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	switch strings.TrimSpace(req.Target) {
	case "design":
		err = b.GoToDesign()
	case "agent":
		err = b.GoToAgent(req.Index)
	case "complete":
		err = b.GoToComplete()
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "target must be design, agent, or complete")
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b.Snapshot())
}

func (h *SessionsHandler) Reset(c echo.Context) error {
	b, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := b.Reset(); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b.Snapshot())
}

func (h *SessionsHandler) session(c echo.Context) (*builder.Builder, error) {
	return h.hub.Get(c.Param("id"))
}
