package notifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/ilindan-dev/fanout-notifier/internal/config"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	"github.com/rs/zerolog"
)

// maxGatewayErrorBody caps how much of an error response we read back for logging.
const maxGatewayErrorBody = 512

// phonePattern accepts E.164-style numbers, with or without the leading plus.
var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{4,14}$`)

// SMSNotifier sends notifications through an HTTP SMS gateway.
type SMSNotifier struct {
	url    string
	apiKey string
	from   string
	client *http.Client
	logger zerolog.Logger
}

// smsRequest is the JSON body the gateway expects.
type smsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// NewSMSNotifier creates a new instance of SMSNotifier.
func NewSMSNotifier(cfg config.SMSConfig, logger *zerolog.Logger) *SMSNotifier {
	return &SMSNotifier{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		from:   cfg.From,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger.With().Str("component", "sms_notifier").Logger(),
	}
}

// Channel implements the Notifier interface.
func (n *SMSNotifier) Channel() model.Channel {
	return model.ChannelSMS
}

// Notify implements the Notifier interface for SMS. Gateway rejections (4xx)
// are permanent; gateway or transport trouble (5xx, network errors) is
// retryable.
func (n *SMSNotifier) Notify(ctx context.Context, recipient, message string) error {
	if !phonePattern.MatchString(recipient) {
		return fmt.Errorf("%w: %q is not a phone number", ErrInvalidRecipient, recipient)
	}

	body, err := json.Marshal(smsRequest{From: n.from, To: recipient, Body: message})
	if err != nil {
		return fmt.Errorf("failed to marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error().Err(err).Str("recipient", recipient).Msg("sms gateway unreachable")
		return &DeliveryError{Channel: model.ChannelSMS, Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		n.logger.Info().Str("recipient", recipient).Msg("sms sent successfully")
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxGatewayErrorBody))
	gwErr := fmt.Errorf("gateway returned %s: %s", resp.Status, bytes.TrimSpace(detail))
	n.logger.Error().Err(gwErr).Str("recipient", recipient).Msg("failed to send sms")
	return &DeliveryError{Channel: model.ChannelSMS, Err: gwErr, Retryable: resp.StatusCode >= 500}
}
