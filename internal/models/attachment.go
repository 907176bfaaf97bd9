package models

// Attachment is a binary payload (voucher photo, signature) stored exactly
// once in the local store. During replay it is only ever uploaded, never
// re-fetched; Container is the remote storage bucket/folder hint.
type Attachment struct {
	ID        string
	Name      string
	MimeType  string
	Size      int64
	Container string
	Data      []byte

	Synced    bool
	CreatedAt int64
	UpdatedAt int64
}
