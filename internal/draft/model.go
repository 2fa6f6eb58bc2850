package draft

import (
	"errors"
	"fmt"
	"strings"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidCaseID indicates that a case identifier is empty or exceeds storage bounds.
	ErrInvalidCaseID = errors.New("draft: invalid case id")
	// ErrInvalidClientID indicates that a client identifier is empty or exceeds storage bounds.
	ErrInvalidClientID = errors.New("draft: invalid client id")
	// ErrUnknownSaveReason indicates an unrecognized version snapshot reason.
	ErrUnknownSaveReason = errors.New("draft: unknown save reason")
	// ErrUnknownChangeAction indicates an unrecognized change log action.
	ErrUnknownChangeAction = errors.New("draft: unknown change action")
)

// CaseID represents a validated case identifier.
type CaseID string

// NewCaseID validates raw input and returns a CaseID.
func NewCaseID(rawInput string) (CaseID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidCaseID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidCaseID, maxIdentifierLength)
	}
	return CaseID(trimmed), nil
}

// String returns the underlying string identifier.
func (id CaseID) String() string {
	return string(id)
}

// ClientID represents a validated per-session client identifier.
type ClientID string

// NewClientID validates raw input and returns a ClientID.
func NewClientID(rawInput string) (ClientID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidClientID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidClientID, maxIdentifierLength)
	}
	return ClientID(trimmed), nil
}

// String returns the underlying string identifier.
func (id ClientID) String() string {
	return string(id)
}

// SaveReason enumerates why a version snapshot was recorded.
type SaveReason string

const (
	// SaveReasonManual marks a snapshot taken on explicit user save.
	SaveReasonManual SaveReason = "manual"
	// SaveReasonAuto marks a snapshot taken by the autosave scheduler.
	SaveReasonAuto SaveReason = "auto"
	// SaveReasonAI marks a snapshot taken when a new generated draft was imported.
	SaveReasonAI SaveReason = "ai"
)

// ParseSaveReason validates a raw save reason string.
func ParseSaveReason(value string) (SaveReason, error) {
	switch SaveReason(strings.ToLower(strings.TrimSpace(value))) {
	case SaveReasonManual:
		return SaveReasonManual, nil
	case SaveReasonAuto:
		return SaveReasonAuto, nil
	case SaveReasonAI:
		return SaveReasonAI, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSaveReason, value)
	}
}

// ChangeAction enumerates tracked edit classifications.
type ChangeAction string

const (
	// ChangeActionInsert records a tracked text insertion.
	ChangeActionInsert ChangeAction = "insert"
	// ChangeActionDelete records a tracked deletion.
	ChangeActionDelete ChangeAction = "delete"
	// ChangeActionEdit records any other tracked modification.
	ChangeActionEdit ChangeAction = "edit"
)

// ParseChangeAction validates a raw change action string.
func ParseChangeAction(value string) (ChangeAction, error) {
	switch ChangeAction(strings.ToLower(strings.TrimSpace(value))) {
	case ChangeActionInsert:
		return ChangeActionInsert, nil
	case ChangeActionDelete:
		return ChangeActionDelete, nil
	case ChangeActionEdit:
		return ChangeActionEdit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChangeAction, value)
	}
}

// VersionSnapshot is an immutable historical copy of draft content.
type VersionSnapshot struct {
	ID            string     `json:"id"`
	Content       string     `json:"content"`
	SavedAtMillis int64      `json:"saved_at_ms"`
	Reason        SaveReason `json:"reason"`
}

// CommentSnapshot is a note anchored to a text selection.
type CommentSnapshot struct {
	ID              string `json:"id"`
	Quote           string `json:"quote"`
	Text            string `json:"text"`
	CreatedAtMillis int64  `json:"created_at_ms"`
	Resolved        bool   `json:"resolved"`
}

// ChangeLogEntry records a single tracked edit.
type ChangeLogEntry struct {
	ID              string       `json:"id"`
	Action          ChangeAction `json:"action"`
	Snippet         string       `json:"snippet"`
	CreatedAtMillis int64        `json:"created_at_ms"`
}

// PersistedDraftState is the durable per-case slot. It is always written as a
// complete replacement so a reader never observes a partially updated state.
type PersistedDraftState struct {
	Content           string            `json:"content"`
	History           []VersionSnapshot `json:"history"`
	LastSavedAtMillis int64             `json:"last_saved_at_ms"`
	Comments          []CommentSnapshot `json:"comments"`
	ChangeLog         []ChangeLogEntry  `json:"change_log"`
}

// MessageType enumerates broadcast sync message kinds.
type MessageType string

const (
	// MessageTypePresence announces that a session is actively editing.
	MessageTypePresence MessageType = "presence"
	// MessageTypeSave announces that a peer completed a manual save.
	MessageTypeSave MessageType = "save"
	// MessageTypeContentUpdate carries the full draft payload of a peer.
	MessageTypeContentUpdate MessageType = "content-update"
)

// SyncMessage is the ephemeral broadcast payload exchanged between sessions
// editing the same case. It is never persisted directly.
type SyncMessage struct {
	Type            MessageType       `json:"type"`
	CaseID          string            `json:"case_id"`
	ClientID        string            `json:"client_id"`
	TimestampMillis int64             `json:"timestamp_ms,omitempty"`
	HTML            string            `json:"html,omitempty"`
	Comments        []CommentSnapshot `json:"comments,omitempty"`
	ChangeLog       []ChangeLogEntry  `json:"change_log,omitempty"`
}
