package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioBaseURL = "https://api.twilio.com"

// SMSConfig configures the Twilio SMS channel.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         []string
	BaseURL    string
}

// SMS sends notices through the Twilio Messages API.
type SMS struct {
	cfg        SMSConfig
	httpClient *http.Client
}

// NewSMS returns nil when the channel is not configured.
func NewSMS(cfg SMSConfig) *SMS {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = twilioBaseURL
	}
	return &SMS{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *SMS) Name() string { return "sms" }

func (s *SMS) Notify(ctx context.Context, msg Message) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(s.cfg.BaseURL, "/"), url.PathEscape(s.cfg.AccountSID))

	for _, to := range s.cfg.To {
		form := url.Values{
			"From": {s.cfg.From},
			"To":   {to},
			"Body": {msg.Subject},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("send sms to %s: %w", to, err)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			return fmt.Errorf("send sms to %s: status %d: %s", to, resp.StatusCode, string(body))
		}
	}
	return nil
}
