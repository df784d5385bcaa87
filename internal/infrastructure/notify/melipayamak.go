// Package notify carries the best-effort outbound side channels: manager
// SMS forwarding through Melipayamak and the deposit webhook. Nothing here
// may fail a committed business operation.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/saeidmoini/salehi-panel/internal/domain/banksms"
	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

// SmsClient sends SMS through the Melipayamak advanced API. Each bank
// profile carries its own API key and originating number.
type SmsClient struct {
	baseURL string
	client  *http.Client
}

var _ banksms.ManagerNotifier = (*SmsClient)(nil)

// NewSmsClient creates an SMS client against the advanced send endpoint.
func NewSmsClient(baseURL string, timeout time.Duration) *SmsClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SmsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type advancedSendRequest struct {
	From string   `json:"from"`
	To   []string `json:"to"`
	Text string   `json:"text"`
	Udh  string   `json:"udh"`
}

// SendToManagers delivers the text to every manager number of the profile.
func (c *SmsClient) SendToManagers(ctx context.Context, profile banksms.Profile, text string) error {
	if len(profile.ManagerNumbers) == 0 {
		return nil
	}
	if profile.NotifyAPIKey == "" || profile.NotifyFrom == "" {
		return fmt.Errorf("bank profile %q has no notification credentials", profile.Key)
	}
	return c.send(ctx, profile.NotifyAPIKey, profile.NotifyFrom, profile.ManagerNumbers, text)
}

func (c *SmsClient) send(ctx context.Context, apiKey, from string, to []string, text string) error {
	payload, err := json.Marshal(advancedSendRequest{
		From: from,
		To:   to,
		Text: text,
	})
	if err != nil {
		return fmt.Errorf("marshal sms request: %w", err)
	}

	url := c.endpointFor(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	logger.Debug(ctx, "manager sms sent", "recipients", len(to))
	return nil
}

// endpointFor appends the API key path segment unless the configured URL
// already ends with it.
func (c *SmsClient) endpointFor(apiKey string) string {
	if strings.HasSuffix(c.baseURL, "/"+apiKey) {
		return c.baseURL
	}
	return c.baseURL + "/" + apiKey
}
