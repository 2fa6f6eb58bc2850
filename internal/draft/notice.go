package draft

import "time"

// NoticeKind enumerates the transient user-facing indicators a session emits.
type NoticeKind string

const (
	// NoticeSaved confirms an explicit manual save.
	NoticeSaved NoticeKind = "saved"
	// NoticeValidation reports a rejected comment or save input.
	NoticeValidation NoticeKind = "validation"
	// NoticePeerEditing signals that another session is viewing the case.
	NoticePeerEditing NoticeKind = "peer-editing"
	// NoticePeerSaved signals that another session just saved.
	NoticePeerSaved NoticeKind = "peer-saved"
	// NoticeSynced signals that remote content replaced local content.
	NoticeSynced NoticeKind = "synced"
	// NoticeExport reports the outcome of a document export.
	NoticeExport NoticeKind = "export"
)

// Notice is a transient status message. Cleared is true on the auto-clear
// event that follows the display delay.
type Notice struct {
	Kind    NoticeKind
	Text    string
	IsError bool
	Cleared bool
}

// Display delays mirror the product behavior: each notice self-clears after
// a fixed period.
const (
	savedNoticeTTL      = 3 * time.Second
	peerNoticeTTL       = 4 * time.Second
	syncedNoticeTTL     = 4 * time.Second
	validationNoticeTTL = 2500 * time.Millisecond
	exportNoticeTTL     = 5 * time.Second
)

// User-facing status strings carried over from the portal UI.
const (
	textSaved           = "저장 완료"
	textPeerEditing     = "다른 사용자가 편집 중입니다"
	textPeerSaved       = "다른 사용자가 저장했습니다"
	textSyncedFromPeer  = "다른 창의 변경 사항을 반영했습니다"
	textChangedFallback = "변경됨"
)
