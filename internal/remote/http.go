package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rutero-app/fieldsync/internal/models"
)

const idempotencyKeyHeader = "Idempotency-Key"

// HTTPClient implements Service over the JSON API.
type HTTPClient struct {
	baseURL string
	token   string
	hc      *http.Client
}

// NewHTTPClient returns a client for the API at baseURL. token is sent as a
// bearer token on every request; token refresh is handled outside this core.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		hc:      &http.Client{Timeout: timeout},
	}
}

// do performs one JSON request. Transport failures wrap ErrUnavailable;
// HTTP >= 400 becomes a *StatusError. out may be nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, headers map[string]string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// Wire shapes. The API speaks its own field names; conversion to the local
// models happens here and nowhere else.

type orderDTO struct {
	ID         string  `json:"id"`
	Number     string  `json:"number"`
	ClientCode string  `json:"client_code"`
	ClientName string  `json:"client_name"`
	Address    string  `json:"address"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
	Sequence   int     `json:"sequence"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Blocked    bool    `json:"blocked"`
	Reason     string  `json:"reason"`
}

type roadmapDTO struct {
	ID           string     `json:"id"`
	Number       string     `json:"number"`
	Status       string     `json:"status"`
	Route        string     `json:"route"`
	TotalOrders  int        `json:"total_orders"`
	TotalBags    int        `json:"total_bags"`
	TotalCredit  float64    `json:"total_credit"`
	TotalCash    float64    `json:"total_cash"`
	DeliveryDate string     `json:"delivery_date"`
	Orders       []orderDTO `json:"orders"`
}

func (c *HTTPClient) GetRoadmap(ctx context.Context, driverID string) (*models.Roadmap, error) {
	var dto roadmapDTO
	path := "/drivers/" + url.PathEscape(driverID) + "/roadmap"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &dto); err != nil {
		return nil, err
	}

	rm := &models.Roadmap{
		ID:           dto.ID,
		Number:       dto.Number,
		Status:       models.RoadmapStatus(dto.Status),
		Route:        dto.Route,
		TotalOrders:  dto.TotalOrders,
		TotalBags:    dto.TotalBags,
		TotalCredit:  dto.TotalCredit,
		TotalCash:    dto.TotalCash,
		DeliveryDate: dto.DeliveryDate,
		Synced:       true,
	}
	rm.Orders = make([]models.Order, 0, len(dto.Orders))
	for _, o := range dto.Orders {
		rm.Orders = append(rm.Orders, models.Order{
			ID:         o.ID,
			RoadmapID:  dto.ID,
			Number:     o.Number,
			ClientCode: o.ClientCode,
			ClientName: o.ClientName,
			Address:    o.Address,
			Amount:     o.Amount,
			Status:     models.OrderStatus(o.Status),
			Sequence:   o.Sequence,
			Latitude:   o.Latitude,
			Longitude:  o.Longitude,
			Blocked:    o.Blocked,
			Reason:     o.Reason,
			Synced:     true,
		})
	}
	return rm, nil
}

func (c *HTTPClient) ConfirmOrderLoad(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/load", nil, nil, nil)
}

func (c *HTTPClient) RejectOrderLoad(ctx context.Context, orderID, reason string) error {
	in := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/reject", nil, in, nil)
}

func (c *HTTPClient) InvalidateOrder(ctx context.Context, orderID, reason string) error {
	in := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/invalidate", nil, in, nil)
}

func (c *HTTPClient) MoveOrder(ctx context.Context, roadmapID, orderID string, sequence int) error {
	in := map[string]int{"sequence": sequence}
	path := "/roadmaps/" + url.PathEscape(roadmapID) + "/orders/" + url.PathEscape(orderID) + "/position"
	return c.do(ctx, http.MethodPost, path, nil, in, nil)
}

func (c *HTTPClient) StartRoadmap(ctx context.Context, roadmapID string) error {
	return c.do(ctx, http.MethodPost, "/roadmaps/"+url.PathEscape(roadmapID)+"/start", nil, nil, nil)
}

func (c *HTTPClient) FinishRoadmap(ctx context.Context, roadmapID string) error {
	return c.do(ctx, http.MethodPost, "/roadmaps/"+url.PathEscape(roadmapID)+"/finish", nil, nil, nil)
}

type paymentDTO struct {
	OrderID           string  `json:"order_id"`
	Amount            float64 `json:"amount"`
	MethodID          string  `json:"method_id"`
	MethodDescription string  `json:"method_description"`
	VoucherNumber     string  `json:"voucher_number,omitempty"`
	AttachmentID      string  `json:"attachment_id,omitempty"`
	Author            string  `json:"author,omitempty"`
}

func (c *HTTPClient) CreatePayment(ctx context.Context, idempotencyKey string, p *models.Payment, remoteAttachmentID string) error {
	in := paymentDTO{
		OrderID:           p.OrderID,
		Amount:            p.Amount,
		MethodID:          p.MethodID,
		MethodDescription: p.MethodDescription,
		VoucherNumber:     p.VoucherNumber,
		AttachmentID:      remoteAttachmentID,
		Author:            p.Author,
	}
	headers := map[string]string{idempotencyKeyHeader: idempotencyKey}
	return c.do(ctx, http.MethodPost, "/payments", headers, in, nil)
}

func (c *HTTPClient) UpdatePayment(ctx context.Context, p *models.Payment) error {
	in := paymentDTO{
		OrderID:           p.OrderID,
		Amount:            p.Amount,
		MethodID:          p.MethodID,
		MethodDescription: p.MethodDescription,
		VoucherNumber:     p.VoucherNumber,
	}
	return c.do(ctx, http.MethodPut, "/payments/"+url.PathEscape(p.ID), nil, in, nil)
}

func (c *HTTPClient) DeletePayment(ctx context.Context, paymentID string) error {
	return c.do(ctx, http.MethodDelete, "/payments/"+url.PathEscape(paymentID), nil, nil, nil)
}

func (c *HTTPClient) CreateMessage(ctx context.Context, idempotencyKey string, m *models.Message) (string, error) {
	in := map[string]any{
		"sender":    m.Sender,
		"recipient": m.Recipient,
		"subject":   m.Subject,
		"body":      m.Body,
		"date":      m.Date,
	}
	var out struct {
		ID string `json:"id"`
	}
	headers := map[string]string{idempotencyKeyHeader: idempotencyKey}
	if err := c.do(ctx, http.MethodPost, "/messages", headers, in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *HTTPClient) ConfirmMessage(ctx context.Context, remoteID string) error {
	return c.do(ctx, http.MethodPost, "/messages/"+url.PathEscape(remoteID)+"/confirm", nil, nil, nil)
}

func (c *HTTPClient) CloseReturn(ctx context.Context, remoteID, observations string) error {
	in := map[string]string{"observations": observations}
	return c.do(ctx, http.MethodPost, "/returns/"+url.PathEscape(remoteID)+"/close", nil, in, nil)
}

func (c *HTTPClient) CreateAttachment(ctx context.Context, a *models.Attachment) (*AttachmentTicket, error) {
	in := map[string]any{
		"name":      a.Name,
		"mime_type": a.MimeType,
		"size":      a.Size,
		"container": a.Container,
	}
	// the local id doubles as the idempotency key so a replayed create
	// resolves to the same remote attachment
	headers := map[string]string{idempotencyKeyHeader: a.ID}
	ticket := &AttachmentTicket{}
	if err := c.do(ctx, http.MethodPost, "/attachments", headers, in, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

type clientDTO struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	District  string  `json:"district"`
	Canton    string  `json:"canton"`
	Province  string  `json:"province"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	OpensAt   string  `json:"opens_at"`
	ClosesAt  string  `json:"closes_at"`
}

func (c *HTTPClient) ListClients(ctx context.Context) ([]models.Client, error) {
	var dtos []clientDTO
	if err := c.do(ctx, http.MethodGet, "/clients", nil, nil, &dtos); err != nil {
		return nil, err
	}
	result := make([]models.Client, 0, len(dtos))
	for _, d := range dtos {
		result = append(result, models.Client{
			ID: d.ID, Code: d.Code, Name: d.Name, Address: d.Address,
			District: d.District, Canton: d.Canton, Province: d.Province,
			Latitude: d.Latitude, Longitude: d.Longitude,
			OpensAt: d.OpensAt, ClosesAt: d.ClosesAt,
		})
	}
	return result, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var dtos []struct {
		ID        string `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Login     string `json:"login"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &dtos); err != nil {
		return nil, err
	}
	result := make([]models.User, 0, len(dtos))
	for _, d := range dtos {
		result = append(result, models.User{
			ID: d.ID, RemoteID: d.ID,
			FirstName: d.FirstName, LastName: d.LastName, Login: d.Login,
			Synced: true,
		})
	}
	return result, nil
}

func (c *HTTPClient) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var dtos []struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Position    int    `json:"position"`
	}
	if err := c.do(ctx, http.MethodGet, "/payment-methods", nil, nil, &dtos); err != nil {
		return nil, err
	}
	result := make([]models.PaymentMethod, 0, len(dtos))
	for _, d := range dtos {
		result = append(result, models.PaymentMethod{
			ID: d.ID, RemoteID: d.ID, Description: d.Description, Position: d.Position,
			Synced: true,
		})
	}
	return result, nil
}

func (c *HTTPClient) ListPaymentConditions(ctx context.Context) ([]models.PaymentCondition, error) {
	var dtos []struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Position    int    `json:"position"`
	}
	if err := c.do(ctx, http.MethodGet, "/payment-conditions", nil, nil, &dtos); err != nil {
		return nil, err
	}
	result := make([]models.PaymentCondition, 0, len(dtos))
	for _, d := range dtos {
		result = append(result, models.PaymentCondition{
			ID: d.ID, RemoteID: d.ID, Description: d.Description, Position: d.Position,
		})
	}
	return result, nil
}

var _ Service = (*HTTPClient)(nil)
