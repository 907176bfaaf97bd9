package models

// RoadmapStatus tracks a roadmap through its delivery day.
type RoadmapStatus string

const (
	RoadmapStatusPending  RoadmapStatus = "Pendiente"
	RoadmapStatusStarted  RoadmapStatus = "Iniciada"
	RoadmapStatusFinished RoadmapStatus = "Finalizada"
)

// Roadmap is the day's route assigned to a driver, with its nested orders.
// Orders is populated only by the pull/reconcile path; the store persists
// orders in their own table.
type Roadmap struct {
	ID           string
	Number       string
	Status       RoadmapStatus
	Route        string
	TotalOrders  int
	TotalBags    int
	TotalCredit  float64
	TotalCash    float64
	DeliveryDate string

	Synced    bool
	CreatedAt int64
	UpdatedAt int64

	Orders []Order
}
