package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WebhookEmailDispatcher posts send requests to the hosted email service.
// The service owns templates, rendering and delivery.
type WebhookEmailDispatcher struct {
	URL    string
	Client *http.Client
	Logger *zap.Logger
}

func NewWebhookEmailDispatcher(url string, logger *zap.Logger) *WebhookEmailDispatcher {
	return &WebhookEmailDispatcher{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
		Logger: logger,
	}
}

type emailSendRequest struct {
	Template  string            `json:"template"`
	BookingID string            `json:"bookingId"`
	Recipient string            `json:"recipient"`
	Data      map[string]string `json:"data,omitempty"`
}

func (d *WebhookEmailDispatcher) Send(ctx context.Context, kind TemplateKind, bookingID, recipient string, data map[string]string) DispatchResult {
	payload, err := json.Marshal(emailSendRequest{
		Template:  string(kind),
		BookingID: bookingID,
		Recipient: recipient,
		Data:      data,
	})
	if err != nil {
		return Failed(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(payload))
	if err != nil {
		return Failed(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		d.Logger.Warn("email dispatch failed",
			zap.String("template", string(kind)),
			zap.String("bookingId", bookingID),
			zap.Error(err))
		return Failed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := fmt.Errorf("email service returned status %d", resp.StatusCode)
		d.Logger.Warn("email dispatch rejected",
			zap.String("template", string(kind)),
			zap.String("bookingId", bookingID),
			zap.Int("status", resp.StatusCode))
		return Failed(err)
	}

	d.Logger.Info("email dispatched",
		zap.String("template", string(kind)),
		zap.String("bookingId", bookingID),
		zap.String("recipient", recipient))
	return Dispatched()
}

// LogEmailDispatcher is the development stand-in: it only logs what would
// have been sent.
type LogEmailDispatcher struct {
	Logger *zap.Logger
}

func (d *LogEmailDispatcher) Send(_ context.Context, kind TemplateKind, bookingID, recipient string, data map[string]string) DispatchResult {
	d.Logger.Info("email (dev, not sent)",
		zap.String("template", string(kind)),
		zap.String("bookingId", bookingID),
		zap.String("recipient", recipient),
		zap.Any("data", data))
	return Dispatched()
}
