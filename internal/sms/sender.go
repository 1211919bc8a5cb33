package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Sender interface {
	Send(ctx context.Context, to string, body string) error
	ProviderID() string
}

// ProviderConfig holds the messaging provider credentials. All three must be
// present for the provider sender to be used; otherwise the service falls back
// to the noop sender (offline/dev mode).
type ProviderConfig struct {
	APIURL     string
	AccountID  string
	AuthToken  string
	FromNumber string
}

func (c ProviderConfig) Complete() bool {
	return strings.TrimSpace(c.AccountID) != "" &&
		strings.TrimSpace(c.AuthToken) != "" &&
		strings.TrimSpace(c.FromNumber) != ""
}

// ProviderSender delivers messages through the external messaging API over
// HTTP. Delivery is best-effort; callers decide what to do with failures.
type ProviderSender struct {
	cfg  ProviderConfig
	http *http.Client
}

func NewProviderSender(cfg ProviderConfig) *ProviderSender {
	return &ProviderSender{
		cfg: cfg,
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *ProviderSender) ProviderID() string {
	return "sms-provider"
}

func (s *ProviderSender) Send(ctx context.Context, to string, body string) error {
	url := strings.TrimSpace(s.cfg.APIURL)
	if url == "" {
		return errors.New("sms api url not configured")
	}
	payload := map[string]string{
		"account_id": s.cfg.AccountID,
		"from":       s.cfg.FromNumber,
		"to":         to,
		"body":       body,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AuthToken)
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}
	return nil
}

type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) ProviderID() string {
	return "sms-noop"
}

func (s *NoopSender) Send(_ context.Context, _ string, _ string) error {
	return nil
}
