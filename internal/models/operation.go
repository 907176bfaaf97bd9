package models

import (
	"encoding/json"
	"fmt"
)

// OpKind discriminates the queued operation payloads. The values are
// persisted in the queue table, so they must stay stable.
type OpKind string

const (
	OpMarkOrderLoaded    OpKind = "mark_order_loaded"
	OpMarkOrderNotLoaded OpKind = "mark_order_not_loaded"
	OpInvalidateOrder    OpKind = "invalidate_order"
	OpMoveOrder          OpKind = "move_order"
	OpStartRoadmap       OpKind = "start_roadmap"
	OpFinishRoadmap      OpKind = "finish_roadmap"
	OpCreatePayment      OpKind = "create_payment"
	OpUpdatePayment      OpKind = "update_payment"
	OpDeletePayment      OpKind = "delete_payment"
	OpCreateMessage      OpKind = "create_message"
	OpConfirmMessage     OpKind = "confirm_message"
	OpCloseReturn        OpKind = "close_return"
)

// OrderAssignmentPayload covers the three assignment transitions
// (loaded / not loaded / invalidated). Reason is empty for loaded.
type OrderAssignmentPayload struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

// MoveOrderPayload reorders an order inside its roadmap.
type MoveOrderPayload struct {
	RoadmapID string `json:"roadmap_id"`
	OrderID   string `json:"order_id"`
	Sequence  int    `json:"sequence"`
}

// RoadmapTransitionPayload covers start and finish.
type RoadmapTransitionPayload struct {
	RoadmapID string `json:"roadmap_id"`
}

// PaymentPayload is the snapshot of a payment write. For creates the local
// payment id doubles as the idempotency key; RemoteAttachmentID is filled
// in by the replay handler after the voucher binary is uploaded.
type PaymentPayload struct {
	PaymentID          string  `json:"payment_id"`
	OrderID            string  `json:"order_id"`
	Amount             float64 `json:"amount"`
	MethodID           string  `json:"method_id"`
	MethodDescription  string  `json:"method_description"`
	VoucherNumber      string  `json:"voucher_number,omitempty"`
	AttachmentID       string  `json:"attachment_id,omitempty"`
	RemoteAttachmentID string  `json:"remote_attachment_id,omitempty"`
	Author             string  `json:"author,omitempty"`
}

// MessagePayload is the snapshot of a message create or confirm.
type MessagePayload struct {
	MessageID string `json:"message_id"`
	RemoteID  string `json:"remote_id,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body,omitempty"`
	Date      int64  `json:"date,omitempty"`
}

// CloseReturnPayload closes a return remotely.
type CloseReturnPayload struct {
	ReturnID     string `json:"return_id"`
	RemoteID     string `json:"remote_id"`
	Observations string `json:"observations,omitempty"`
}

// TableFor maps an operation kind to the mirrored table its record id
// points into.
func TableFor(kind OpKind) string {
	switch kind {
	case OpMarkOrderLoaded, OpMarkOrderNotLoaded, OpInvalidateOrder, OpMoveOrder:
		return TableOrders
	case OpStartRoadmap, OpFinishRoadmap:
		return TableRoadmaps
	case OpCreatePayment, OpUpdatePayment, OpDeletePayment:
		return TablePayments
	case OpCreateMessage, OpConfirmMessage:
		return TableMessages
	case OpCloseReturn:
		return TableReturns
	default:
		return ""
	}
}

// EncodePayload serializes a typed payload for queue storage.
func EncodePayload(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return b, nil
}

// DecodePayload deserializes queue payload bytes into the concrete payload
// type for kind. Callers type-assert the result.
func DecodePayload(kind OpKind, data []byte) (any, error) {
	decode := func(v any) (any, error) {
		if err := json.Unmarshal(data, v); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return v, nil
	}

	switch kind {
	case OpMarkOrderLoaded, OpMarkOrderNotLoaded, OpInvalidateOrder:
		return decode(&OrderAssignmentPayload{})
	case OpMoveOrder:
		return decode(&MoveOrderPayload{})
	case OpStartRoadmap, OpFinishRoadmap:
		return decode(&RoadmapTransitionPayload{})
	case OpCreatePayment, OpUpdatePayment, OpDeletePayment:
		return decode(&PaymentPayload{})
	case OpCreateMessage, OpConfirmMessage:
		return decode(&MessagePayload{})
	case OpCloseReturn:
		return decode(&CloseReturnPayload{})
	default:
		return nil, fmt.Errorf("unknown operation kind: %s", kind)
	}
}
