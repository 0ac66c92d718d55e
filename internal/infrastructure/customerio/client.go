package customerio

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
	"github.com/railroadmedia/customer-io/internal/domain/gateway"
)

const (
	DefaultTrackBaseURL = "https://track.customer.io/api/v1"
	DefaultAppBaseURL   = "https://api.customer.io/v1"
	defaultTimeout      = 15 * time.Second
)

type Config struct {
	TrackBaseURL string
	AppBaseURL   string
	Timeout      time.Duration
}

// Client implements gateway.CustomerGateway over the customer.io Track and
// App APIs. Credentials travel with each request so one client serves every
// configured account.
type Client struct {
	client       *http.Client
	trackBaseURL string
	appBaseURL   string
	logger       *zap.Logger
}

var _ gateway.CustomerGateway = (*Client)(nil)

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.TrackBaseURL == "" {
		cfg.TrackBaseURL = DefaultTrackBaseURL
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = DefaultAppBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		client:       &http.Client{Timeout: cfg.Timeout},
		trackBaseURL: strings.TrimRight(cfg.TrackBaseURL, "/"),
		appBaseURL:   strings.TrimRight(cfg.AppBaseURL, "/"),
		logger:       logger,
	}
}

type authorizer func(req *http.Request)

func trackAuth(auth gateway.TrackAuth) authorizer {
	token := base64.StdEncoding.EncodeToString([]byte(auth.SiteID + ":" + auth.TrackAPIKey))
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Basic "+token)
	}
}

func appAuth(appAPIKey string) authorizer {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+appAPIKey)
	}
}

type response struct {
	status int
	body   []byte
}

// do sends one request. Transport failures come back as a RemoteAPI error
// with status 0; HTTP error statuses are left to the caller.
func (c *Client) do(ctx context.Context, method, url string, auth authorizer, payload interface{}) (*response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, domainErrors.NewRemoteAPIError(0, "failed to encode request for "+url, "", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, domainErrors.NewRemoteAPIError(0, "failed to create request for "+url, "", err)
	}
	auth(req)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("CustomerIOClient: Calling customer.io",
		zap.String("method", method),
		zap.String("url", url))

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("CustomerIOClient: Request failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.Error(err))
		return nil, domainErrors.NewRemoteAPIError(0, "customer.io request failed", "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domainErrors.NewRemoteAPIError(resp.StatusCode, "failed to read customer.io response", "", err)
	}

	c.logger.Debug("CustomerIOClient: Received response",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("body_size", len(respBody)))

	return &response{status: resp.StatusCode, body: respBody}, nil
}

// checkEmptyBody turns a write response into an error unless the remote answered
// with a 2xx status and an empty body. A 200 carrying an error document is a
// failure.
func (c *Client) checkEmptyBody(resp *response, operation string) error {
	if resp.status >= 200 && resp.status < 300 && isEmptyBody(resp.body) {
		return nil
	}

	message := remoteErrorMessage(resp.body)
	if message == "" {
		message = fmt.Sprintf("unexpected customer.io response to %s", operation)
	}

	c.logger.Warn("CustomerIOClient: Remote rejected request",
		zap.String("operation", operation),
		zap.Int("status_code", resp.status),
		zap.String("response_body", string(resp.body)))

	return domainErrors.NewRemoteAPIError(resp.status, message, string(resp.body), nil)
}

func isEmptyBody(body []byte) bool {
	switch strings.TrimSpace(string(body)) {
	case "", "{}", "[]", "null":
		return true
	default:
		return false
	}
}

// remoteErrorMessage pulls the first message out of customer.io's
// {"meta":{"error":...}} or {"errors":[{"detail":...}]} documents.
func remoteErrorMessage(body []byte) string {
	var doc struct {
		Meta struct {
			Error  string   `json:"error"`
			Errors []string `json:"errors"`
		} `json:"meta"`
		Errors []struct {
			Detail string `json:"detail"`
			Reason string `json:"reason"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}

	switch {
	case doc.Meta.Error != "":
		return doc.Meta.Error
	case len(doc.Meta.Errors) > 0:
		return strings.Join(doc.Meta.Errors, "; ")
	case len(doc.Errors) > 0 && doc.Errors[0].Detail != "":
		return doc.Errors[0].Detail
	case len(doc.Errors) > 0:
		return doc.Errors[0].Reason
	}
	return ""
}
