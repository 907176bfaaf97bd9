package models

// MessageStatus tracks read state on the driver's side.
type MessageStatus string

const (
	MessageStatusUnread MessageStatus = "unread"
	MessageStatusRead   MessageStatus = "read"
)

// Message is an operational message between the driver and dispatch.
// SendPending marks a message written offline that still has to be created
// remotely (as opposed to the row-level Synced flag, which also covers read
// confirmations).
type Message struct {
	ID          string
	RemoteID    string
	Sender      string
	Recipient   string
	Subject     string
	Body        string
	Date        int64
	Status      MessageStatus
	SendPending bool

	Synced    bool
	CreatedAt int64
	UpdatedAt int64
}
