// Package remote is the client for the authoritative field-operations API.
// It performs no retries and no offline fallback; both are the caller's
// responsibility (the sync manager retries, the domain operations layer
// decides the mode up front).
package remote

import (
	"context"

	"github.com/rutero-app/fieldsync/internal/models"
)

// AttachmentTicket is the remote side of an attachment create: the assigned
// remote id plus a presigned URL the binary must be PUT to.
type AttachmentTicket struct {
	RemoteID  string `json:"id"`
	UploadURL string `json:"upload_url"`
}

// Service is the remote API surface consumed by the domain operations layer
// and the queue replay handlers. Every endpoint is idempotent-tolerant:
// creates take a client-generated idempotency key, the rest are safe to
// repeat for the same logical operation.
type Service interface {
	// Health probes reachability; used by the connectivity orchestrator.
	Health(ctx context.Context) error

	// GetRoadmap returns the driver's current roadmap with nested orders.
	GetRoadmap(ctx context.Context, driverID string) (*models.Roadmap, error)

	// Assignment transitions.
	ConfirmOrderLoad(ctx context.Context, orderID string) error
	RejectOrderLoad(ctx context.Context, orderID, reason string) error
	InvalidateOrder(ctx context.Context, orderID, reason string) error

	// MoveOrder repositions an order within its roadmap.
	MoveOrder(ctx context.Context, roadmapID, orderID string, sequence int) error

	// Roadmap state transitions.
	StartRoadmap(ctx context.Context, roadmapID string) error
	FinishRoadmap(ctx context.Context, roadmapID string) error

	// Payments. CreatePayment sends idempotencyKey as the Idempotency-Key
	// header (the local payment id) and remoteAttachmentID when a voucher
	// binary was uploaded first.
	CreatePayment(ctx context.Context, idempotencyKey string, p *models.Payment, remoteAttachmentID string) error
	UpdatePayment(ctx context.Context, p *models.Payment) error
	DeletePayment(ctx context.Context, paymentID string) error

	// Messages. CreateMessage returns the remote message id.
	CreateMessage(ctx context.Context, idempotencyKey string, m *models.Message) (string, error)
	ConfirmMessage(ctx context.Context, remoteID string) error

	// CloseReturn closes a return by its remote id.
	CloseReturn(ctx context.Context, remoteID, observations string) error

	// CreateAttachment registers attachment metadata and returns the
	// ticket used to upload the binary.
	CreateAttachment(ctx context.Context, a *models.Attachment) (*AttachmentTicket, error)

	// Directory pulls.
	ListClients(ctx context.Context) ([]models.Client, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	ListPaymentConditions(ctx context.Context) ([]models.PaymentCondition, error)
}
