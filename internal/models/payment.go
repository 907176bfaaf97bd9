package models

// Payment is money collected against an order. A payment created offline may
// reference a locally stored voucher image via AttachmentID; during replay
// the binary is uploaded first and the remote attachment id injected into
// the create payload.
type Payment struct {
	ID                string
	OrderID           string
	Amount            float64
	MethodID          string
	MethodDescription string
	VoucherNumber     string
	AttachmentID      string
	Author            string

	Synced    bool
	CreatedAt int64
	UpdatedAt int64
}
