package customerio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
	"github.com/railroadmedia/customer-io/internal/domain/gateway"
)

type customerAttributesResponse struct {
	Customer *struct {
		ID         string                 `json:"id"`
		Attributes map[string]interface{} `json:"attributes"`
		Devices    []struct {
			ID       string `json:"id"`
			Platform string `json:"platform"`
			LastUsed *int64 `json:"last_used"`
		} `json:"devices"`
	} `json:"customer"`
	Errors json.RawMessage `json:"errors"`
}

// GetCustomer fetches a remote profile with its attributes coerced.
// GET /customers/{id}/attributes
func (c *Client) GetCustomer(ctx context.Context, appAPIKey, externalID string) (*entity.RemoteCustomer, error) {
	endpoint := fmt.Sprintf("%s/customers/%s/attributes", c.appBaseURL, url.PathEscape(externalID))

	resp, err := c.do(ctx, http.MethodGet, endpoint, appAuth(appAPIKey), nil)
	if err != nil {
		return nil, err
	}

	if resp.status >= http.StatusInternalServerError || resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden {
		return nil, domainErrors.NewRemoteAPIError(resp.status, "failed to fetch customer "+externalID, string(resp.body), nil)
	}

	var decoded customerAttributesResponse
	if err := json.Unmarshal(resp.body, &decoded); err != nil {
		if resp.status == http.StatusNotFound {
			return nil, domainErrors.NewNotFoundError("customer " + externalID + " not found on customer.io")
		}
		return nil, domainErrors.NewRemoteAPIError(resp.status, "failed to decode customer "+externalID, string(resp.body), err)
	}

	if decoded.Customer == nil || (len(decoded.Errors) > 0 && string(decoded.Errors) != "null") {
		c.logger.Info("CustomerIOClient: Customer not found",
			zap.String("external_id", externalID),
			zap.Int("status_code", resp.status))
		return nil, domainErrors.NewNotFoundError("customer " + externalID + " not found on customer.io")
	}

	remote := &entity.RemoteCustomer{
		ID:         decoded.Customer.ID,
		Attributes: make(map[string]entity.AttributeValue, len(decoded.Customer.Attributes)),
		Devices:    make([]entity.Device, 0, len(decoded.Customer.Devices)),
	}
	for name, raw := range decoded.Customer.Attributes {
		remote.Attributes[name] = entity.CoerceAttribute(raw)
	}
	for _, d := range decoded.Customer.Devices {
		device := entity.Device{ID: d.ID, Platform: d.Platform}
		if d.LastUsed != nil {
			lastUsed := time.Unix(*d.LastUsed, 0).UTC()
			device.LastUsed = &lastUsed
		}
		remote.Devices = append(remote.Devices, device)
	}
	return remote, nil
}

// GetActivities lists a customer's activities, newest first.
// GET /customers/{id}/activities
func (c *Client) GetActivities(ctx context.Context, req *gateway.ActivitiesRequest) (*entity.ActivityPage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = gateway.DefaultActivitiesLimit
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if req.Type != "" {
		query.Set("type", req.Type)
	}
	if req.Name != "" {
		query.Set("name", req.Name)
	}
	if req.Start != "" {
		query.Set("start", req.Start)
	}
	endpoint := fmt.Sprintf("%s/customers/%s/activities?%s", c.appBaseURL, url.PathEscape(req.ExternalID), query.Encode())

	resp, err := c.do(ctx, http.MethodGet, endpoint, appAuth(req.AppAPIKey), nil)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return nil, domainErrors.NewNotFoundError("customer " + req.ExternalID + " not found on customer.io")
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, domainErrors.NewRemoteAPIError(resp.status, "failed to list activities for "+req.ExternalID, string(resp.body), nil)
	}

	var page entity.ActivityPage
	if err := json.Unmarshal(resp.body, &page); err != nil {
		return nil, domainErrors.NewRemoteAPIError(resp.status, "failed to decode activities for "+req.ExternalID, string(resp.body), err)
	}
	if page.Activities == nil {
		page.Activities = []entity.Activity{}
	}
	return &page, nil
}

// SendTransactionalEmail triggers a transactional message.
// POST /send/email
func (c *Client) SendTransactionalEmail(ctx context.Context, req *gateway.TransactionalEmailRequest) (string, error) {
	body := map[string]interface{}{
		"transactional_message_id": req.MessageID,
		"to":                       req.To,
		"identifiers":              map[string]string{"id": req.ExternalID},
	}
	if len(req.MessageData) > 0 {
		body["message_data"] = req.MessageData
	}

	c.logger.Info("CustomerIOClient: Sending transactional email",
		zap.String("message_id", req.MessageID),
		zap.String("external_id", req.ExternalID))

	resp, err := c.do(ctx, http.MethodPost, c.appBaseURL+"/send/email", appAuth(req.AppAPIKey), body)
	if err != nil {
		return "", err
	}

	var result struct {
		DeliveryID string `json:"delivery_id"`
	}
	if resp.status >= 200 && resp.status < 300 {
		if err := json.Unmarshal(resp.body, &result); err == nil && result.DeliveryID != "" {
			return result.DeliveryID, nil
		}
	}

	message := remoteErrorMessage(resp.body)
	if message == "" {
		message = "customer.io did not accept transactional message " + req.MessageID
	}
	c.logger.Warn("CustomerIOClient: Transactional email rejected",
		zap.String("message_id", req.MessageID),
		zap.Int("status_code", resp.status),
		zap.String("response_body", string(resp.body)))
	return "", domainErrors.NewRemoteAPIError(resp.status, message, string(resp.body), nil)
}
