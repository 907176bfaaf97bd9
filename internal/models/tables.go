// Package models defines the domain entities mirrored in the local store
// and the typed mutation-queue operations replayed against the remote API.
package models

// Table names of the mirrored entities. Queue entries reference rows by
// (table, record id), so these values are part of the persisted format.
const (
	TableRoadmaps          = "roadmaps"
	TableOrders            = "orders"
	TablePayments          = "payments"
	TableReturns           = "returns"
	TableMessages          = "messages"
	TableUsers             = "users"
	TableClients           = "clients"
	TablePaymentMethods    = "payment_methods"
	TablePaymentConditions = "payment_conditions"
	TableAttachments       = "attachments"
)
