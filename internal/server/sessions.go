package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/LexFlowLab/lexflow/backend/internal/draft"
)

var (
	errMissingFactory = errors.New("server: session factory is required")
	// ErrSessionNotFound indicates that no open session matches the request.
	ErrSessionNotFound = errors.New("server: session not found")
)

// SessionFactory builds an unopened draft session for a case and client.
type SessionFactory func(caseID draft.CaseID, clientID draft.ClientID, initialDraft string) (*draft.Session, error)

// SessionManager tracks the open editor sessions hosted by this process, one
// per (case, client) pair. It is the host-side replacement for the browser
// keeping one editor instance per window.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*draft.Session
	factory  SessionFactory
	logger   *zap.Logger
}

// SessionManagerConfig describes a SessionManager.
type SessionManagerConfig struct {
	Factory SessionFactory
	Logger  *zap.Logger
}

// NewSessionManager validates the configuration and returns a SessionManager.
func NewSessionManager(cfg SessionManagerConfig) (*SessionManager, error) {
	if cfg.Factory == nil {
		return nil, errMissingFactory
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		sessions: make(map[string]*draft.Session),
		factory:  cfg.Factory,
		logger:   logger,
	}, nil
}

func sessionKey(caseID draft.CaseID, clientID draft.ClientID) string {
	return fmt.Sprintf("%s/%s", caseID.String(), clientID.String())
}

// Open returns the existing session for the pair or builds and opens a new
// one. An empty client identifier lets the session generate its own.
func (m *SessionManager) Open(ctx context.Context, caseID draft.CaseID, clientID draft.ClientID, initialDraft string) (*draft.Session, error) {
	if clientID != "" {
		m.mu.Lock()
		if existing, ok := m.sessions[sessionKey(caseID, clientID)]; ok {
			m.mu.Unlock()
			return existing, nil
		}
		m.mu.Unlock()
	}

	session, err := m.factory(caseID, clientID, initialDraft)
	if err != nil {
		return nil, err
	}
	if err := session.Open(ctx); err != nil {
		session.Close()
		return nil, err
	}

	key := sessionKey(caseID, session.ClientID())
	m.mu.Lock()
	if existing, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		session.Close()
		return existing, nil
	}
	m.sessions[key] = session
	m.mu.Unlock()

	m.logger.Info("draft session opened",
		zap.String("case_id", caseID.String()),
		zap.String("client_id", session.ClientID().String()))
	return session, nil
}

// Get returns the open session for the pair.
func (m *SessionManager) Get(caseID draft.CaseID, clientID draft.ClientID) (*draft.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionKey(caseID, clientID)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close tears down the session for the pair.
func (m *SessionManager) Close(caseID draft.CaseID, clientID draft.ClientID) error {
	key := sessionKey(caseID, clientID)
	m.mu.Lock()
	session, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	session.Close()
	m.logger.Info("draft session closed",
		zap.String("case_id", caseID.String()),
		zap.String("client_id", clientID.String()))
	return nil
}

// CloseAll tears down every open session. Used on server shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*draft.Session, 0, len(m.sessions))
	for key, session := range m.sessions {
		sessions = append(sessions, session)
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
