package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"railbook/pkg/model"
)

const RequesterHeader = "X-Requester-ID"

// BookingClient talks to the bookings service on behalf of one requester.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseURL, requesterID string) *BookingClient {
	c := NewHttpClient(baseURL)
	c.Headers[RequesterHeader] = requesterID
	return &BookingClient{httpClient: c}
}

func (c *BookingClient) Book(ctx context.Context, req *model.BookingRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings", req)
}

func (c *BookingClient) BookIdempotent(ctx context.Context, req *model.BookingRequest, key string) (*Response, error) {
	return c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings", req, map[string]string{"Idempotency-Key": key})
}

func (c *BookingClient) CancelBooking(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/cancel", struct{}{})
}

func (c *BookingClient) CancelWaitlistEntry(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/waitlist/id/"+url.PathEscape(id)+"/cancel", struct{}{})
}

func (c *BookingClient) Cancel(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/cancellations", map[string]string{"id": id})
}

func (c *BookingClient) GetBooking(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *BookingClient) ListBookings(ctx context.Context, limit int, offset int64) (*Response, error) {
	return c.httpClient.GET(ctx, fmt.Sprintf("/api/v1/bookings?limit=%d&offset=%d", limit, offset))
}

func (c *BookingClient) Waitlist(ctx context.Context, scope model.Scope) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/waitlist?"+scopeQuery(scope))
}

func (c *BookingClient) Inventory(ctx context.Context, scope model.Scope) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/inventory?"+scopeQuery(scope))
}

func (c *BookingClient) DecodeOutcome(resp *Response) (*model.BookingOutcome, error) {
	var outcome model.BookingOutcome
	if err := decodeData(resp, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (c *BookingClient) DecodeCancellation(resp *Response) (*model.CancellationOutcome, error) {
	var outcome model.CancellationOutcome
	if err := decodeData(resp, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// VehicleClient pushes signed route definitions, acting as the definition service.
type VehicleClient struct {
	httpClient *HttpClient
	secret     string
}

func NewVehicleClient(baseURL, secret string) *VehicleClient {
	return &VehicleClient{httpClient: NewHttpClient(baseURL), secret: secret}
}

func (c *VehicleClient) Define(ctx context.Context, id string, def *model.VehicleDefinition) (*Response, error) {
	body, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vehicle definition: %w", err)
	}
	headers := map[string]string{
		"X-Signature-256": "sha256=" + Sign(body, c.secret),
		"Content-Type":    "application/json",
	}
	return c.httpClient.PUTRaw(ctx, "/api/v1/vehicles/id/"+url.PathEscape(id), body, headers)
}

func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func scopeQuery(scope model.Scope) string {
	q := url.Values{}
	q.Set("vehicle_id", scope.VehicleID)
	q.Set("travel_date", scope.TravelDate)
	return q.Encode()
}

func decodeData(resp *Response, target any) error {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return fmt.Errorf("could not decode response wrapper:\n%s\n%w", resp.ToString(), err)
	}
	if err := json.Unmarshal(wrapper.Data, target); err != nil {
		return fmt.Errorf("could not decode response data:\n%s\n%w", resp.ToString(), err)
	}
	return nil
}
