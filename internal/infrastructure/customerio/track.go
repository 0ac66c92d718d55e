package customerio

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/domain/gateway"
)

func (c *Client) customerURL(externalID string) string {
	return fmt.Sprintf("%s/customers/%s", c.trackBaseURL, url.PathEscape(externalID))
}

// UpsertCustomer creates or updates a remote profile.
// PUT /customers/{id}
func (c *Client) UpsertCustomer(ctx context.Context, req *gateway.UpsertCustomerRequest) error {
	body := make(map[string]interface{}, len(req.Attributes)+2)
	for name, value := range req.Attributes {
		body[name] = value
	}
	if req.Email != "" {
		body["email"] = req.Email
	}
	if req.CreatedAt != nil {
		body["created_at"] = req.CreatedAt.Unix()
	}

	c.logger.Info("CustomerIOClient: Upserting customer",
		zap.String("external_id", req.ExternalID),
		zap.String("site_id", req.SiteID),
		zap.Int("attribute_count", len(req.Attributes)))

	resp, err := c.do(ctx, http.MethodPut, c.customerURL(req.ExternalID), trackAuth(req.TrackAuth), body)
	if err != nil {
		return err
	}
	return c.checkEmptyBody(resp, "upsert customer")
}

// CreateEvent records a named event against a customer.
// POST /customers/{id}/events
func (c *Client) CreateEvent(ctx context.Context, req *gateway.CreateEventRequest) error {
	body := map[string]interface{}{
		"name": req.Name,
	}
	if len(req.Data) > 0 {
		body["data"] = req.Data
	}
	if req.Type != "" {
		body["type"] = req.Type
	}
	if req.Timestamp != nil {
		body["timestamp"] = req.Timestamp.Unix()
	}

	c.logger.Info("CustomerIOClient: Creating event",
		zap.String("external_id", req.ExternalID),
		zap.String("event_name", req.Name),
		zap.String("event_type", req.Type))

	resp, err := c.do(ctx, http.MethodPost, c.customerURL(req.ExternalID)+"/events", trackAuth(req.TrackAuth), body)
	if err != nil {
		return err
	}
	return c.checkEmptyBody(resp, "create event")
}

// AddDevice registers or refreshes a device token.
// PUT /customers/{id}/devices
func (c *Client) AddDevice(ctx context.Context, req *gateway.AddDeviceRequest) error {
	device := map[string]interface{}{
		"id":       req.Device.ID,
		"platform": req.Device.Platform,
	}
	if req.Device.LastUsed != nil {
		device["last_used"] = req.Device.LastUsed.Unix()
	}

	c.logger.Info("CustomerIOClient: Adding device",
		zap.String("external_id", req.ExternalID),
		zap.String("platform", req.Device.Platform))

	resp, err := c.do(ctx, http.MethodPut, c.customerURL(req.ExternalID)+"/devices", trackAuth(req.TrackAuth),
		map[string]interface{}{"device": device})
	if err != nil {
		return err
	}
	return c.checkEmptyBody(resp, "add device")
}

// MergeCustomers folds the secondary profile into the primary one; the
// primary keeps its attributes where both are set.
// POST /merge_customers
func (c *Client) MergeCustomers(ctx context.Context, req *gateway.MergeCustomersRequest) error {
	body := map[string]interface{}{
		"primary":   map[string]string{"id": req.PrimaryID},
		"secondary": map[string]string{"id": req.SecondaryID},
	}

	c.logger.Info("CustomerIOClient: Merging customers",
		zap.String("primary_id", req.PrimaryID),
		zap.String("secondary_id", req.SecondaryID))

	resp, err := c.do(ctx, http.MethodPost, c.trackBaseURL+"/merge_customers", trackAuth(req.TrackAuth), body)
	if err != nil {
		return err
	}
	return c.checkEmptyBody(resp, "merge customers")
}

// DeleteCustomer removes a remote profile.
// DELETE /customers/{id}
func (c *Client) DeleteCustomer(ctx context.Context, req *gateway.DeleteCustomerRequest) error {
	c.logger.Info("CustomerIOClient: Deleting customer",
		zap.String("external_id", req.ExternalID))

	resp, err := c.do(ctx, http.MethodDelete, c.customerURL(req.ExternalID), trackAuth(req.TrackAuth), nil)
	if err != nil {
		return err
	}
	return c.checkEmptyBody(resp, "delete customer")
}
