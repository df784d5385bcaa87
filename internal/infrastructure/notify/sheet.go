package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

// SheetWebhook posts matched deposits to an external spreadsheet endpoint.
// Disabled when no URL is configured.
type SheetWebhook struct {
	url    string
	token  string
	client *http.Client
}

// NewSheetWebhook creates the deposit webhook client. An empty URL yields an
// inert client.
func NewSheetWebhook(url, token string, timeout time.Duration) *SheetWebhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SheetWebhook{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the webhook is configured.
func (w *SheetWebhook) Enabled() bool {
	return w != nil && w.url != ""
}

type depositRow struct {
	Token  string `json:"token"`
	Amount int64  `json:"amount"`
	Date   string `json:"date"`
}

// RecordDeposit appends one row. date is the deposit's local calendar day in
// "YYYY-MM-DD" form.
func (w *SheetWebhook) RecordDeposit(ctx context.Context, amountToman int64, date string) error {
	if !w.Enabled() {
		return nil
	}

	payload, err := json.Marshal(depositRow{Token: w.token, Amount: amountToman, Date: date})
	if err != nil {
		return fmt.Errorf("marshal deposit row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build deposit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post deposit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("deposit webhook returned %d", resp.StatusCode)
	}

	logger.Debug(ctx, "deposit recorded to sheet", "amount_toman", amountToman, "date", date)
	return nil
}
