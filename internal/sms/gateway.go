// Package sms validates Philippine mobile numbers and submits messages to
// the external SMS provider.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/handaph/alerts-service/internal/observability"
)

var (
	// ErrInvalidPhoneNumber is returned for any number that is neither the
	// 12-digit 639… international form nor the 11-digit 09… local form.
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	// ErrEmptyMessage is returned when the message is empty after trimming.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrMissingCredentials is returned when the provider token is not
	// configured. Server misconfiguration, detected before any network call.
	ErrMissingCredentials = errors.New("sms provider credentials are not configured")
	// ErrProvider is returned when the provider reports a logical failure
	// inside an otherwise successful response.
	ErrProvider = errors.New("sms provider error")
)

// MessageType classifies an outbound SMS for logging and auditing.
type MessageType string

const (
	TypeWeather   MessageType = "weather"
	TypeRisk      MessageType = "risk"
	TypeAlert     MessageType = "alert"
	TypeEmergency MessageType = "emergency"
)

var (
	intlForm  = regexp.MustCompile(`^639\d{9}$`)
	localForm = regexp.MustCompile(`^09\d{9}$`)
)

// FormatPhoneNumber validates a PH mobile number and normalizes it to E.164.
// "09171234567" and "639171234567" both become "+639171234567"; any other
// shape is rejected.
func FormatPhoneNumber(raw string) (string, error) {
	n := strings.TrimSpace(raw)
	switch {
	case intlForm.MatchString(n):
		return "+" + n, nil
	case localForm.MatchString(n):
		return "+63" + n[1:], nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, raw)
	}
}

// SendResult is the provider's acknowledgement of an accepted message.
type SendResult struct {
	Success   bool           `json:"success"`
	Recipient string         `json:"recipient"`
	Data      map[string]any `json:"data,omitempty"`
}

// Gateway submits messages to the SMS provider. One attempt per send, no
// retries.
type Gateway struct {
	endpoint   string
	token      string
	senderID   string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewGateway creates a Gateway. An empty token is allowed at construction;
// sends will fail fast with ErrMissingCredentials.
func NewGateway(httpClient *http.Client, endpoint, token, senderID string, logger *slog.Logger, metrics *observability.Metrics) *Gateway {
	return &Gateway{
		endpoint:   endpoint,
		token:      token,
		senderID:   senderID,
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
	}
}

// Send validates the request and submits it to the provider. All validation
// failures are returned before any network I/O happens.
func (g *Gateway) Send(ctx context.Context, phoneNumber, message string, msgType MessageType) (SendResult, error) {
	recipient, err := FormatPhoneNumber(phoneNumber)
	if err != nil {
		g.metrics.SmsRejected.Inc()
		return SendResult{}, err
	}

	if strings.TrimSpace(message) == "" {
		g.metrics.SmsRejected.Inc()
		return SendResult{}, ErrEmptyMessage
	}

	if g.token == "" {
		g.metrics.SmsRejected.Inc()
		return SendResult{}, ErrMissingCredentials
	}

	body, err := json.Marshal(map[string]any{
		"sender_id":  g.senderID,
		"recipients": []string{recipient},
		"message":    message,
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return SendResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	var providerBody map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&providerBody); err != nil {
		return SendResult{}, fmt.Errorf("%w: unreadable response: %v", ErrProvider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SendResult{}, fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
	}

	// The provider can report a logical failure inside a 200 response.
	if errField, ok := providerBody["error"]; ok && errField != nil {
		return SendResult{}, fmt.Errorf("%w: %v", ErrProvider, errField)
	}

	g.metrics.SmsSent.Inc()
	g.logger.Info("sms submitted", "type", string(msgType), "recipient", recipient)

	return SendResult{
		Success:   true,
		Recipient: recipient,
		Data:      providerBody,
	}, nil
}
