package ops

import "github.com/rutero-app/fieldsync/internal/models"

// Reconcile merges a freshly fetched record with its locally cached copy.
// Callers pass local only when the cached copy carries unsynced edits; the
// overlay then decides which fields the local copy keeps. With nothing to
// merge the remote record is accepted as-is.
func Reconcile[T any](local *T, remote T, overlay func(local, remote T) T) T {
	if local == nil {
		return remote
	}
	return overlay(*local, remote)
}

// overlayOrder keeps the status-bearing fields of a dirty local order over
// the pulled copy: status, reason and the locally chosen sequence. The
// merged record stays dirty until its queue entry replays.
func overlayOrder(local, remote models.Order) models.Order {
	merged := remote
	merged.Status = local.Status
	merged.Reason = local.Reason
	merged.Sequence = local.Sequence
	merged.Synced = false
	return merged
}

// overlayRoadmap keeps a dirty local roadmap's status over the pulled copy.
func overlayRoadmap(local, remote models.Roadmap) models.Roadmap {
	merged := remote
	merged.Status = local.Status
	merged.Synced = false
	return merged
}
