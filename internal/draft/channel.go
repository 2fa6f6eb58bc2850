package draft

import "context"

// Channel is the same-origin broadcast boundary between sessions editing one
// case. Implementations are namespaced per case and give no delivery
// guarantee; a nil Channel simply disables collaboration.
type Channel interface {
	Publish(ctx context.Context, message SyncMessage) error
	Subscribe(ctx context.Context, caseID CaseID) (<-chan SyncMessage, func())
}
