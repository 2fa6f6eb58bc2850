package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LexFlowLab/lexflow/backend/internal/export"
)

const (
	defaultAutosaveInterval = 5 * time.Minute
	defaultPresenceInterval = 15 * time.Second
	defaultDebounceWindow   = 500 * time.Millisecond
	defaultHistoryLimit     = 20
	defaultChangeLogLimit   = 200

	noticeStreamBuffer = 16
)

var (
	// ErrMissingCaseID indicates that a session was configured without a case.
	ErrMissingCaseID = errors.New("draft: case id is required")
	// ErrSessionClosed indicates an operation on a closed session.
	ErrSessionClosed = errors.New("draft: session is closed")
	// ErrEmptySelection indicates an add-comment call without selected text.
	ErrEmptySelection = errors.New("draft: selection is empty")
	// ErrEmptyComment indicates an add-comment call without a comment body.
	ErrEmptyComment = errors.New("draft: comment body is empty")
	// ErrEmptyDocument indicates a version save against a blank document.
	ErrEmptyDocument = errors.New("draft: document is empty")
	// ErrVersionNotFound indicates a restore against an unknown version id.
	ErrVersionNotFound = errors.New("draft: version not found")
	// ErrCommentNotFound indicates a toggle against an unknown comment id.
	ErrCommentNotFound = errors.New("draft: comment not found")
	// ErrExporterUnavailable indicates an export request without an exporter.
	ErrExporterUnavailable = errors.New("draft: exporter is not configured")

	noOpLogger = zap.NewNop()
)

const (
	opSessionOpen    = "draft.session.open"
	opSessionPersist = "draft.session.persist"
	opSessionPublish = "draft.session.publish"
	opSessionSave    = "draft.session.save"
	opSessionExport  = "draft.session.export"
)

// SaveCallback is invoked with current content on explicit manual save. A
// failing callback never rolls back the local save.
type SaveCallback func(ctx context.Context, content string) error

// EditEvent carries the metadata of a non-insertion edit observed while track
// changes is enabled.
type EditEvent struct {
	InputType string
	Snippet   string
}

// SessionConfig describes the collaborators and tuning of a Session. Only
// CaseID is mandatory; a nil Store or Channel degrades persistence or
// collaboration silently, matching the product behavior when the browser
// primitives are unavailable.
type SessionConfig struct {
	CaseID           CaseID
	ClientID         ClientID
	InitialDraft     string
	Store            Store
	Channel          Channel
	Exporter         export.Exporter
	SaveCallback     SaveCallback
	Sanitizer        *Sanitizer
	Surface          Surface
	Clock            Clock
	Scheduler        Scheduler
	IDProvider       IDProvider
	Logger           *zap.Logger
	AutosaveInterval time.Duration
	PresenceInterval time.Duration
	DebounceWindow   time.Duration
	HistoryLimit     int
	ChangeLogLimit   int
}

// SessionState is a point-in-time copy of the editable state of a session.
type SessionState struct {
	Content           string            `json:"content"`
	History           []VersionSnapshot `json:"history"`
	Comments          []CommentSnapshot `json:"comments"`
	ChangeLog         []ChangeLogEntry  `json:"change_log"`
	LastSavedAtMillis int64             `json:"last_saved_at_ms"`
	TrackChanges      bool              `json:"track_changes"`
}

// Session owns the collaborative editing state for one case within one
// client. All collaboration state that the browser build kept at module scope
// (broadcast channel, client identifier, last applied remote timestamp) is
// instance state here, constructed on Open and torn down on Close.
type Session struct {
	caseID       CaseID
	clientID     ClientID
	store        Store
	channel      Channel
	exporter     export.Exporter
	saveCallback SaveCallback
	sanitizer    *Sanitizer
	surface      Surface
	clock        Clock
	scheduler    Scheduler
	ids          IDProvider
	logger       *zap.Logger

	mu           sync.Mutex
	content      string
	baseline     string
	history      *BoundedList[VersionSnapshot]
	comments     []CommentSnapshot
	changeLog    *BoundedList[ChangeLogEntry]
	lastSavedAt  int64
	lastRemoteTS int64
	trackChanges bool
	closed       bool

	notices      map[NoticeKind]Notice
	noticeTimers map[NoticeKind]Timer
	noticeCh     chan Notice

	publishDebounce *debouncer
	autosave        *interval
	presence        *interval
	unsubscribe     func()
	recvDone        chan struct{}
}

// NewSession validates the configuration and builds an unopened Session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.CaseID == "" {
		return nil, ErrMissingCaseID
	}

	sanitizer := cfg.Sanitizer
	if sanitizer == nil {
		sanitizer = NewSanitizer()
	}
	surface := cfg.Surface
	if surface == nil {
		surface = NewMarkupSurface()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = NewWallScheduler()
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = NewUUIDProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	clientID := cfg.ClientID
	if clientID == "" {
		generated, err := ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("draft: generate client id: %w", err)
		}
		clientID = ClientID(generated)
	}

	autosaveInterval := cfg.AutosaveInterval
	if autosaveInterval <= 0 {
		autosaveInterval = defaultAutosaveInterval
	}
	presenceInterval := cfg.PresenceInterval
	if presenceInterval <= 0 {
		presenceInterval = defaultPresenceInterval
	}
	debounceWindow := cfg.DebounceWindow
	if debounceWindow <= 0 {
		debounceWindow = defaultDebounceWindow
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	changeLogLimit := cfg.ChangeLogLimit
	if changeLogLimit <= 0 {
		changeLogLimit = defaultChangeLogLimit
	}

	session := &Session{
		caseID:       cfg.CaseID,
		clientID:     clientID,
		store:        cfg.Store,
		channel:      cfg.Channel,
		exporter:     cfg.Exporter,
		saveCallback: cfg.SaveCallback,
		sanitizer:    sanitizer,
		surface:      surface,
		clock:        clock,
		scheduler:    scheduler,
		ids:          ids,
		logger:       logger,
		history: NewBoundedList[VersionSnapshot](historyLimit, func(snapshot VersionSnapshot) string {
			return snapshot.Content
		}),
		changeLog:       NewBoundedList[ChangeLogEntry](changeLogLimit, nil),
		notices:         make(map[NoticeKind]Notice),
		noticeTimers:    make(map[NoticeKind]Timer),
		noticeCh:        make(chan Notice, noticeStreamBuffer),
		publishDebounce: newDebouncer(scheduler, debounceWindow),
	}
	session.autosave = newInterval(scheduler, autosaveInterval, session.autosaveTick)
	session.presence = newInterval(scheduler, presenceInterval, session.presenceTick)
	session.baseline = session.normalizeIncoming(cfg.InitialDraft)

	return session, nil
}

// CaseID returns the case the session edits.
func (s *Session) CaseID() CaseID {
	return s.caseID
}

// ClientID returns the per-session client identifier.
func (s *Session) ClientID() ClientID {
	return s.clientID
}

// Open loads persisted state or imports the initial draft, starts the
// autosave and presence timers, announces presence, and begins consuming
// peer messages.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	if s.store != nil {
		persisted, err := s.store.Load(ctx, s.caseID)
		if err != nil {
			s.logWarn(opSessionOpen, "load_failed", err)
		} else if persisted != nil {
			s.content = s.sanitizer.Sanitize(persisted.Content)
			s.history.Replace(persisted.History)
			s.comments = append([]CommentSnapshot(nil), persisted.Comments...)
			s.changeLog.Replace(persisted.ChangeLog)
			s.lastSavedAt = persisted.LastSavedAtMillis
		}
	}
	if s.content == "" {
		s.content = s.baseline
	}
	s.mu.Unlock()

	s.autosave.Start()
	s.presence.Start()
	s.presenceTick()

	if s.channel != nil {
		recvCtx, cancel := context.WithCancel(context.Background())
		stream, cleanup := s.channel.Subscribe(recvCtx, s.caseID)
		done := make(chan struct{})
		s.mu.Lock()
		s.unsubscribe = func() {
			cancel()
			cleanup()
		}
		s.recvDone = done
		s.mu.Unlock()
		go func() {
			defer close(done)
			for message := range stream {
				s.handleMessage(message)
			}
		}()
	}

	return nil
}

// Close cancels every timer and subscription. No timer fires after Close
// returns and no further messages are applied.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for kind, timer := range s.noticeTimers {
		timer.Stop()
		delete(s.noticeTimers, kind)
	}
	unsubscribe := s.unsubscribe
	recvDone := s.recvDone
	s.mu.Unlock()

	s.autosave.Stop()
	s.presence.Stop()
	s.publishDebounce.Cancel()
	if unsubscribe != nil {
		unsubscribe()
	}
	if recvDone != nil {
		<-recvDone
	}

	s.mu.Lock()
	close(s.noticeCh)
	s.mu.Unlock()
}

// State returns a copy of the current editable state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		Content:           s.content,
		History:           s.history.Items(),
		Comments:          append([]CommentSnapshot(nil), s.comments...),
		ChangeLog:         s.changeLog.Items(),
		LastSavedAtMillis: s.lastSavedAt,
		TrackChanges:      s.trackChanges,
	}
}

// SetContent replaces current content with the sanitized input. This is the
// ordinary local edit path.
func (s *Session) SetContent(ctx context.Context, rawHTML string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.content = s.sanitizer.Sanitize(rawHTML)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.scheduleSync()
	return nil
}

// InsertText inserts plain text at the cursor. While track changes is on the
// insertion is stripped to plain text, wrapped in a tagged change span, and a
// change log entry is recorded; while off it applies directly.
func (s *Session) InsertText(ctx context.Context, text string) error {
	inline := s.sanitizer.InlineText(text)
	if inline == "" {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.trackChanges {
		changeID, err := s.ids.NewID()
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("draft: generate change id: %w", err)
		}
		markup := changeOpenTag(changeID) + inline + "</span>"
		s.content = s.surface.InsertAtCursor(s.content, markup)
		s.appendChangeLocked(changeID, ChangeActionInsert, s.sanitizer.PlainText(text))
	} else {
		s.content = s.surface.InsertAtCursor(s.content, inline)
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.scheduleSync()
	return nil
}

// RecordEdit classifies a non-insertion edit while track changes is on. The
// event input type decides between delete and edit; the snippet falls back to
// a generic marker when nothing is recoverable. A no-op while track changes
// is off.
func (s *Session) RecordEdit(ctx context.Context, event EditEvent) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if !s.trackChanges {
		s.mu.Unlock()
		return nil
	}

	changeID, err := s.ids.NewID()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("draft: generate change id: %w", err)
	}
	action := classifyEdit(event.InputType)
	snippet := s.sanitizer.PlainText(event.Snippet)
	if snippet == "" {
		snippet = textChangedFallback
	}
	s.appendChangeLocked(changeID, action, snippet)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.scheduleSync()
	return nil
}

// SetTrackChanges toggles the track-changes mode. There is no automatic
// transition; only explicit calls change the mode.
func (s *Session) SetTrackChanges(enabled bool) {
	s.mu.Lock()
	s.trackChanges = enabled
	s.mu.Unlock()
}

// TrackChanges reports whether the recorder is on.
func (s *Session) TrackChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackChanges
}

// RecordVersion snapshots the current content (or the override) into version
// history. Blank documents are rejected.
func (s *Session) RecordVersion(ctx context.Context, reason SaveReason, overrideContent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.recordVersionLocked(ctx, reason, overrideContent)
}

// recordVersionLocked requires s.mu to be held.
func (s *Session) recordVersionLocked(ctx context.Context, reason SaveReason, overrideContent string) error {
	content := s.content
	if overrideContent != "" {
		content = s.sanitizer.Sanitize(overrideContent)
	}
	if s.sanitizer.IsEmpty(content) {
		return ErrEmptyDocument
	}

	snapshotID, err := s.ids.NewID()
	if err != nil {
		return fmt.Errorf("draft: generate version id: %w", err)
	}
	now := s.clock().UTC().UnixMilli()
	s.history.Prepend(VersionSnapshot{
		ID:            snapshotID,
		Content:       content,
		SavedAtMillis: now,
		Reason:        reason,
	})
	s.lastSavedAt = now
	s.persistLocked(ctx)
	return nil
}

// SaveManually records a manual version snapshot, surfaces the save
// confirmation, announces the save to peers, and invokes the optional
// external save callback. The local save completes regardless of callback
// failure.
func (s *Session) SaveManually(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	err := s.recordVersionLocked(ctx, SaveReasonManual, "")
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrEmptyDocument) {
			s.showNotice(NoticeValidation, "저장할 내용이 없습니다", true, validationNoticeTTL)
		}
		return err
	}
	content := s.content
	s.mu.Unlock()

	s.showNotice(NoticeSaved, textSaved, false, savedNoticeTTL)
	s.publish(ctx, SyncMessage{
		Type:     MessageTypeSave,
		CaseID:   s.caseID.String(),
		ClientID: s.clientID.String(),
	})

	if s.saveCallback != nil {
		if callbackErr := s.saveCallback(ctx, content); callbackErr != nil {
			s.logWarn(opSessionSave, "callback_failed", callbackErr)
		}
	}
	return nil
}

// RestoreVersion replaces current content with the identified snapshot.
// Restoring is not itself a save event: no new version entry is created.
func (s *Session) RestoreVersion(ctx context.Context, versionID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	var found *VersionSnapshot
	for _, snapshot := range s.history.Items() {
		if snapshot.ID == versionID {
			copied := snapshot
			found = &copied
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrVersionNotFound, versionID)
	}
	s.content = found.Content
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.scheduleSync()
	return nil
}

// AddComment anchors a comment to the given selection. Empty selections and
// empty bodies are rejected with a transient validation notice.
func (s *Session) AddComment(ctx context.Context, selection, body string) (CommentSnapshot, error) {
	selection = strings.TrimSpace(selection)
	body = strings.TrimSpace(body)
	if selection == "" {
		s.showNotice(NoticeValidation, "텍스트를 먼저 선택해 주세요", true, validationNoticeTTL)
		return CommentSnapshot{}, ErrEmptySelection
	}
	if body == "" {
		s.showNotice(NoticeValidation, "코멘트 내용을 입력해 주세요", true, validationNoticeTTL)
		return CommentSnapshot{}, ErrEmptyComment
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return CommentSnapshot{}, ErrSessionClosed
	}
	commentID, err := s.ids.NewID()
	if err != nil {
		s.mu.Unlock()
		return CommentSnapshot{}, fmt.Errorf("draft: generate comment id: %w", err)
	}

	openTag := commentOpenTag(commentID)
	wrapped, ok := s.surface.ApplyInlineMark(s.content, selection, openTag)
	if ok {
		s.content = wrapped
	} else {
		// Non-contiguous selection: reinsert the sanitized plain-text
		// selection wrapped in the same span.
		s.content = s.surface.InsertAtCursor(s.content, openTag+s.sanitizer.InlineText(selection)+"</span>")
	}

	comment := CommentSnapshot{
		ID:              commentID,
		Quote:           selection,
		Text:            body,
		CreatedAtMillis: s.clock().UTC().UnixMilli(),
		Resolved:        false,
	}
	s.comments = append([]CommentSnapshot{comment}, s.comments...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.scheduleSync()
	return comment, nil
}

// ToggleCommentResolved flips the resolved flag of the identified comment and
// synchronizes the resolved class on every tagged span.
func (s *Session) ToggleCommentResolved(ctx context.Context, commentID string) (CommentSnapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return CommentSnapshot{}, ErrSessionClosed
	}
	index := -1
	for i := range s.comments {
		if s.comments[i].ID == commentID {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return CommentSnapshot{}, fmt.Errorf("%w: %s", ErrCommentNotFound, commentID)
	}
	s.comments[index].Resolved = !s.comments[index].Resolved
	s.content = s.surface.ToggleClassOnTagged(s.content, AttrCommentID, commentID, ClassCommentResolved)
	toggled := s.comments[index]
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.scheduleSync()
	return toggled, nil
}

// ImportDraft applies an externally generated draft text. A distinct incoming
// value replaces current content, records an ai version snapshot, and updates
// the import baseline; repeating the same value is a no-op.
func (s *Session) ImportDraft(ctx context.Context, text string) error {
	incoming := s.normalizeIncoming(text)
	if incoming == "" {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if incoming == s.baseline {
		s.mu.Unlock()
		return nil
	}
	s.content = incoming
	s.baseline = incoming
	if err := s.recordVersionLocked(ctx, SaveReasonAI, ""); err != nil && !errors.Is(err, ErrEmptyDocument) {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.scheduleSync()
	return nil
}

// Export hands current content to the external export collaborator and
// surfaces the outcome as a transient toast. Editor state is never touched.
func (s *Session) Export(ctx context.Context, format export.Format) (export.Result, error) {
	if s.exporter == nil {
		s.showNotice(NoticeExport, "내보내기 서비스를 사용할 수 없습니다", true, exportNoticeTTL)
		return export.Result{}, ErrExporterUnavailable
	}

	s.mu.Lock()
	content := s.content
	s.mu.Unlock()

	result, err := s.exporter.Export(ctx, export.Request{Format: format, Content: content})
	if err != nil || !result.Success {
		s.logWarn(opSessionExport, "export_failed", err)
		s.showNotice(NoticeExport, "문서 내보내기에 실패했습니다", true, exportNoticeTTL)
		if err != nil {
			return export.Result{}, err
		}
		return result, nil
	}

	s.showNotice(NoticeExport, fmt.Sprintf("문서 다운로드 완료: %s", result.Filename), false, exportNoticeTTL)
	return result, nil
}

// ActiveNotices returns a copy of the currently visible transient notices.
func (s *Session) ActiveNotices() map[NoticeKind]Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[NoticeKind]Notice, len(s.notices))
	for kind, notice := range s.notices {
		copied[kind] = notice
	}
	return copied
}

// NoticeStream exposes notice set and clear events. The channel closes when
// the session closes; slow consumers drop events rather than blocking the
// session.
func (s *Session) NoticeStream() <-chan Notice {
	return s.noticeCh
}

func (s *Session) handleMessage(message SyncMessage) {
	if message.CaseID != s.caseID.String() || message.ClientID == s.clientID.String() {
		return
	}

	switch message.Type {
	case MessageTypePresence:
		s.showNotice(NoticePeerEditing, textPeerEditing, false, peerNoticeTTL)
	case MessageTypeSave:
		s.showNotice(NoticePeerSaved, textPeerSaved, false, peerNoticeTTL)
	case MessageTypeContentUpdate:
		s.applyRemoteUpdate(message)
	}
}

// applyRemoteUpdate enforces the last-writer-wins rule: a content update is
// applied only when its origin timestamp is strictly greater than the last
// applied remote timestamp. Stale updates are discarded silently.
func (s *Session) applyRemoteUpdate(message SyncMessage) {
	s.mu.Lock()
	if s.closed || message.TimestampMillis <= s.lastRemoteTS {
		s.mu.Unlock()
		return
	}
	s.lastRemoteTS = message.TimestampMillis
	s.content = s.sanitizer.Sanitize(message.HTML)
	s.comments = append([]CommentSnapshot(nil), message.Comments...)
	s.changeLog.Replace(message.ChangeLog)
	// Adopting remote content moves the import baseline so the generated
	// draft watcher does not misfire on the next import check.
	s.baseline = s.content
	s.persistLocked(context.Background())
	s.mu.Unlock()

	s.showNotice(NoticeSynced, textSyncedFromPeer, false, syncedNoticeTTL)
}

// scheduleSync debounces an outbound content-update publish.
func (s *Session) scheduleSync() {
	if s.channel == nil {
		return
	}
	s.publishDebounce.Trigger(s.publishSnapshot)
}

func (s *Session) publishSnapshot() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	message := SyncMessage{
		Type:            MessageTypeContentUpdate,
		CaseID:          s.caseID.String(),
		ClientID:        s.clientID.String(),
		TimestampMillis: s.clock().UTC().UnixMilli(),
		HTML:            s.content,
		Comments:        append([]CommentSnapshot(nil), s.comments...),
		ChangeLog:       s.changeLog.Items(),
	}
	s.mu.Unlock()

	s.publish(context.Background(), message)
}

func (s *Session) publish(ctx context.Context, message SyncMessage) {
	if s.channel == nil {
		return
	}
	if err := s.channel.Publish(ctx, message); err != nil {
		s.logWarn(opSessionPublish, "publish_failed", err)
	}
}

func (s *Session) autosaveTick() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	// Blank documents are never autosaved and lastSavedAt stays untouched.
	if err := s.recordVersionLocked(context.Background(), SaveReasonAuto, ""); err != nil && !errors.Is(err, ErrEmptyDocument) {
		s.logWarn(opSessionSave, "autosave_failed", err)
	}
	s.mu.Unlock()
}

func (s *Session) presenceTick() {
	s.publish(context.Background(), SyncMessage{
		Type:     MessageTypePresence,
		CaseID:   s.caseID.String(),
		ClientID: s.clientID.String(),
	})
}

// appendChangeLocked requires s.mu to be held.
func (s *Session) appendChangeLocked(changeID string, action ChangeAction, snippet string) {
	s.changeLog.Prepend(ChangeLogEntry{
		ID:              changeID,
		Action:          action,
		Snippet:         snippet,
		CreatedAtMillis: s.clock().UTC().UnixMilli(),
	})
}

// persistLocked rewrites the full durable slot. Requires s.mu to be held. A
// nil store or a write failure degrades silently to in-memory editing.
func (s *Session) persistLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	state := PersistedDraftState{
		Content:           s.content,
		History:           s.history.Items(),
		LastSavedAtMillis: s.lastSavedAt,
		Comments:          append([]CommentSnapshot(nil), s.comments...),
		ChangeLog:         s.changeLog.Items(),
	}
	if err := s.store.Persist(ctx, s.caseID, state); err != nil {
		s.logWarn(opSessionPersist, "persist_failed", err)
	}
}

func (s *Session) showNotice(kind NoticeKind, text string, isError bool, ttl time.Duration) {
	notice := Notice{Kind: kind, Text: text, IsError: isError}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if existing, ok := s.noticeTimers[kind]; ok {
		existing.Stop()
	}
	s.notices[kind] = notice
	s.noticeTimers[kind] = s.scheduler.Schedule(ttl, func() {
		s.clearNotice(kind)
	})
	s.emitNoticeLocked(notice)
	s.mu.Unlock()
}

func (s *Session) clearNotice(kind NoticeKind) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.notices, kind)
	delete(s.noticeTimers, kind)
	s.emitNoticeLocked(Notice{Kind: kind, Cleared: true})
	s.mu.Unlock()
}

// emitNoticeLocked requires s.mu to be held so a send never races the
// channel close in Close. Slow consumers drop events.
func (s *Session) emitNoticeLocked(notice Notice) {
	select {
	case s.noticeCh <- notice:
	default:
	}
}

func (s *Session) normalizeIncoming(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	if strings.Contains(trimmed, "<") {
		return s.sanitizer.Sanitize(trimmed)
	}
	return s.sanitizer.FromPlainText(trimmed)
}

func (s *Session) logWarn(operation, reason string, err error) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.String("case_id", s.caseID.String()),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Warn("draft session degraded", fields...)
}

func classifyEdit(inputType string) ChangeAction {
	if strings.Contains(strings.ToLower(inputType), "delete") {
		return ChangeActionDelete
	}
	return ChangeActionEdit
}
