package models

// EntryStatus is the lifecycle state of a queue entry. In practice an entry
// is PENDING until it is removed after a successful replay; FAILED and
// COMPLETED exist for stats and forward compatibility.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "PENDING"
	EntryStatusFailed    EntryStatus = "FAILED"
	EntryStatusCompleted EntryStatus = "COMPLETED"
)

// QueueEntry is one pending remote-bound mutation. Payload holds the typed
// operation payload serialized by EncodePayload; decode it with
// DecodePayload(Kind, Payload) at replay time.
//
// Entries are never mutated in place except for retry bookkeeping
// (RetryCount, LastRetryAt, Status).
type QueueEntry struct {
	ID          string
	Table       string
	RecordID    string
	Kind        OpKind
	Payload     []byte
	Priority    int
	RetryCount  int
	LastRetryAt int64
	CreatedAt   int64
	Status      EntryStatus
}
