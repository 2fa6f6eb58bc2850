package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LexFlowLab/lexflow/backend/internal/draft"
	"github.com/LexFlowLab/lexflow/backend/internal/export"
)

var errMissingSessionManager = errors.New("server: session manager dependency required")

// Dependencies lists the collaborators of the HTTP handler.
type Dependencies struct {
	Sessions *SessionManager
	Logger   *zap.Logger
}

// NewHTTPHandler builds the gin router exposing draft session operations.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Sessions == nil {
		return nil, errMissingSessionManager
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		sessions: deps.Sessions,
		logger:   logger,
	}

	drafts := router.Group("/drafts/:caseID")
	drafts.POST("/open", handler.handleOpen)
	drafts.GET("", handler.handleState)
	drafts.DELETE("", handler.handleClose)
	drafts.PUT("/content", handler.handleSetContent)
	drafts.POST("/insert", handler.handleInsertText)
	drafts.POST("/edits", handler.handleRecordEdit)
	drafts.POST("/save", handler.handleSave)
	drafts.POST("/restore", handler.handleRestore)
	drafts.POST("/comments", handler.handleAddComment)
	drafts.POST("/comments/:commentID/toggle", handler.handleToggleComment)
	drafts.POST("/track-changes", handler.handleTrackChanges)
	drafts.POST("/export", handler.handleExport)
	drafts.POST("/import", handler.handleImport)
	drafts.GET("/events", handler.handleEvents)

	return router, nil
}

type httpHandler struct {
	sessions *SessionManager
	logger   *zap.Logger
}

type openRequestPayload struct {
	ClientID     string `json:"client_id"`
	InitialDraft string `json:"initial_draft"`
}

type openResponsePayload struct {
	ClientID string             `json:"client_id"`
	State    draft.SessionState `json:"state"`
}

func (h *httpHandler) handleOpen(c *gin.Context) {
	caseID, err := draft.NewCaseID(c.Param("caseID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_case_id"})
		return
	}

	var request openRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	clientID := draft.ClientID(request.ClientID)
	session, err := h.sessions.Open(c.Request.Context(), caseID, clientID, request.InitialDraft)
	if err != nil {
		h.logger.Error("failed to open draft session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "open_failed"})
		return
	}

	c.JSON(http.StatusOK, openResponsePayload{
		ClientID: session.ClientID().String(),
		State:    session.State(),
	})
}

func (h *httpHandler) handleState(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.State())
}

func (h *httpHandler) handleClose(c *gin.Context) {
	caseID, clientID, ok := h.sessionAddress(c)
	if !ok {
		return
	}
	if err := h.sessions.Close(caseID, clientID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
		return
	}
	c.Status(http.StatusNoContent)
}

type contentRequestPayload struct {
	Content string `json:"content"`
}

func (h *httpHandler) handleSetContent(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var request contentRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.SetContent(c.Request.Context(), request.Content); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

type insertRequestPayload struct {
	Text string `json:"text"`
}

func (h *httpHandler) handleInsertText(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var request insertRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.InsertText(c.Request.Context(), request.Text); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

type editRequestPayload struct {
	InputType string `json:"input_type"`
	Snippet   string `json:"snippet"`
}

func (h *httpHandler) handleRecordEdit(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var request editRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	event := draft.EditEvent{InputType: request.InputType, Snippet: request.Snippet}
	if err := session.RecordEdit(c.Request.Context(), event); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

func (h *httpHandler) handleSave(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	if err := session.SaveManually(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

type restoreRequestPayload struct {
	VersionID string `json:"version_id"`
}

func (h *httpHandler) handleRestore(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var request restoreRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.VersionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.RestoreVersion(c.Request.Context(), request.VersionID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

type commentRequestPayload struct {
	Selection string `json:"selection"`
	Text      string `json:"text"`
}

func (h *httpHandler) handleAddComment(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var request commentRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	comment, err := session.AddComment(c.Request.Context(), request.Selection, request.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *httpHandler) handleToggleComment(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	comment, err := session.ToggleCommentResolved(c.Request.Context(), c.Param("commentID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

type trackChangesRequestPayload struct {
	Enabled bool `json:"enabled"`
}

func (h *httpHandler) handleTrackChanges(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var request trackChangesRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	session.SetTrackChanges(request.Enabled)
	c.JSON(http.StatusOK, gin.H{"track_changes": session.TrackChanges()})
}

type exportRequestPayload struct {
	Format string `json:"format"`
}

func (h *httpHandler) handleExport(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var request exportRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	format, err := export.ParseFormat(request.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_format"})
		return
	}
	result, err := session.Export(c.Request.Context(), format)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type importRequestPayload struct {
	DraftText string `json:"draft_text"`
}

func (h *httpHandler) handleImport(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var request importRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.ImportDraft(c.Request.Context(), request.DraftText); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

type noticeEventPayload struct {
	Kind    string `json:"kind"`
	Text    string `json:"text,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
	Cleared bool   `json:"cleared,omitempty"`
}

func (h *httpHandler) handleEvents(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	stream := session.NoticeStream()
	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case notice, open := <-stream:
			if !open {
				return false
			}
			c.SSEvent("notice", noticeEventPayload{
				Kind:    string(notice.Kind),
				Text:    notice.Text,
				IsError: notice.IsError,
				Cleared: notice.Cleared,
			})
			return true
		}
	})
}

func (h *httpHandler) sessionAddress(c *gin.Context) (draft.CaseID, draft.ClientID, bool) {
	caseID, err := draft.NewCaseID(c.Param("caseID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_case_id"})
		return "", "", false
	}
	clientID, err := draft.NewClientID(c.Query("client_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_client_id"})
		return "", "", false
	}
	return caseID, clientID, true
}

func (h *httpHandler) lookupSession(c *gin.Context) (*draft.Session, bool) {
	caseID, clientID, ok := h.sessionAddress(c)
	if !ok {
		return nil, false
	}
	session, err := h.sessions.Get(caseID, clientID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
		return nil, false
	}
	return session, true
}

func (h *httpHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, draft.ErrEmptySelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_selection"})
	case errors.Is(err, draft.ErrEmptyComment):
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_comment"})
	case errors.Is(err, draft.ErrEmptyDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_document"})
	case errors.Is(err, draft.ErrVersionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "version_not_found"})
	case errors.Is(err, draft.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "comment_not_found"})
	case errors.Is(err, draft.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "session_closed"})
	case errors.Is(err, draft.ErrExporterUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export_unavailable"})
	default:
		h.logger.Error("draft operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
