package models

// OrderStatus uses the upstream service's Spanish vocabulary; the values
// travel over the wire and are persisted as-is.
type OrderStatus string

const (
	OrderStatusAssigned    OrderStatus = "Asignado"
	OrderStatusLoaded      OrderStatus = "Cargado"
	OrderStatusNotLoaded   OrderStatus = "No Cargado"
	OrderStatusInvalidated OrderStatus = "Invalidado"
	OrderStatusDelivered   OrderStatus = "Entregado"
)

// Order is a delivery stop within a roadmap.
type Order struct {
	ID         string
	RoadmapID  string
	Number     string
	ClientCode string
	ClientName string
	Address    string
	Amount     float64
	Status     OrderStatus
	Sequence   int
	Latitude   float64
	Longitude  float64
	Blocked    bool
	Reason     string

	Synced    bool
	CreatedAt int64
	UpdatedAt int64
}
