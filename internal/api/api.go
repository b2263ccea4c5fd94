// Package api exposes the fraud desk over HTTP: the tool surface the
// conversational runtime calls, plus a small admin surface for seeding and
// inspecting cases.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/securetrust-dev/fraudguard/internal/engine"
	"github.com/securetrust-dev/fraudguard/internal/verify"
	"github.com/securetrust-dev/fraudguard/pkg/schema"
)

// Handler carries the store, the verification engine and the session
// manager behind the HTTP surface.
type Handler struct {
	Store    *engine.CaseStore
	Engine   *verify.Engine
	Sessions *verify.Manager
}

// Register wires all routes onto the router behind bearer-token auth.
func (h *Handler) Register(r *gin.Engine, secret []byte) {
	apiGroup := r.Group("/api")
	apiGroup.Use(RequireAuth(secret))
	{
		apiGroup.POST("/sessions", h.CreateSession)
		apiGroup.DELETE("/sessions/:id", h.EndSession)
		apiGroup.POST("/sessions/:id/tools/:tool", h.CallTool)

		apiGroup.GET("/cases", h.ListCases)
		apiGroup.GET("/cases/:username", h.GetCase)
		apiGroup.PUT("/cases/:username", h.PutCase)
	}
}

// CreateSession starts a new conversation session.
func (h *Handler) CreateSession(c *gin.Context) {
	id, _ := h.Sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

// EndSession discards a conversation session. Unresolved work is dropped;
// nothing was persisted for it.
func (h *Handler) EndSession(c *gin.Context) {
	h.Sessions.End(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

// toolArgs is the union of arguments the five tools accept.
type toolArgs struct {
	Username string `json:"username"`
	Answer   string `json:"answer"`
	Made     *bool  `json:"made"`
}

// CallTool dispatches one named tool call against a session. The tool names
// mirror what the dialogue layer is prompted with.
func (h *Handler) CallTool(c *gin.Context) {
	session, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	var args toolArgs
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&args); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var cmd verify.Command
	switch c.Param("tool") {
	case "load_case":
		if args.Username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
			return
		}
		cmd = verify.LoadCase{Username: args.Username}
	case "verify_answer":
		cmd = verify.SubmitAnswer{Answer: args.Answer}
	case "confirm_transaction":
		if args.Made == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "made is required"})
			return
		}
		cmd = verify.ConfirmTransaction{Made: *args.Made}
	case "close_verification_failed":
		cmd = verify.CloseVerificationFailed{}
	case "get_case_details":
		cmd = verify.GetCaseDetails{}
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown tool"})
		return
	}

	result, err := h.Engine.Dispatch(session, cmd)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListCases returns every stored fraud case.
func (h *Handler) ListCases(c *gin.Context) {
	cases, err := h.Store.LoadAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cases)
}

// GetCase returns one fraud case by customer name.
func (h *Handler) GetCase(c *gin.Context) {
	found, err := h.Store.FindByUsername(c.Param("username"))
	if errors.Is(err, engine.ErrCaseNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, found)
}

// PutCase upserts a complete fraud case. This is how new alerts are seeded.
func (h *Handler) PutCase(c *gin.Context) {
	var body schema.FraudCase
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	body.Username = c.Param("username")
	body.ApplyDefaults()
	if err := body.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Upsert(body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
