package models

// ReturnStatus values follow the upstream vocabulary.
type ReturnStatus string

const (
	ReturnStatusOpen   ReturnStatus = "Abierta"
	ReturnStatusClosed ReturnStatus = "Cerrada"
)

// Return is a product return registered against an order. RemoteID is the
// upstream identifier, known only once the return exists remotely.
type Return struct {
	ID           string
	RemoteID     string
	OrderID      string
	Products     string
	Status       ReturnStatus
	Observations string
	Sequence     int
	Latitude     float64
	Longitude    float64

	Synced    bool
	CreatedAt int64
	UpdatedAt int64
}
