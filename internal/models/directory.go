package models

// User is a cached directory entry for an application user (message
// recipients, payment authors).
type User struct {
	ID        string
	RemoteID  string
	FirstName string
	LastName  string
	Login     string

	Synced    bool
	CreatedAt int64
	UpdatedAt int64
}

// Client is a cached directory entry for a delivery client. Directory rows
// are replaced wholesale on pull and never edited locally, so clients carry
// no sync flag.
type Client struct {
	ID        string
	Code      string
	Name      string
	Address   string
	District  string
	Canton    string
	Province  string
	Latitude  float64
	Longitude float64
	OpensAt   string
	ClosesAt  string

	CreatedAt int64
	UpdatedAt int64
}

// PaymentMethod is a cached payment method ("Efectivo", "Transferencia", ...).
type PaymentMethod struct {
	ID          string
	RemoteID    string
	Description string
	Position    int

	Synced    bool
	CreatedAt int64
	UpdatedAt int64
}

// PaymentCondition is a cached payment condition ("Contado", "Crédito 30", ...).
type PaymentCondition struct {
	ID          string
	RemoteID    string
	Description string
	Position    int

	CreatedAt int64
	UpdatedAt int64
}
