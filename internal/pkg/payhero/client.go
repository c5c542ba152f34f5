// Package payhero is a minimal client for the PayHero STK push API.
package payhero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	chargePath      = "/api/v2/payments"
	providerMpesa   = "m-pesa"
	defaultTimeout  = 30 * time.Second
	maxErrorBodyLen = 512
)

type Config struct {
	BaseURL     string `mapstructure:"base_url"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	ChannelID   int    `mapstructure:"channel_id"`
	CallbackURL string `mapstructure:"callback_url"`
}

type Client struct {
	// baseURL is the PayHero API root, without trailing slash.
	baseURL string

	username string
	password string

	channelID   int
	callbackURL string

	// hc is the http client.
	hc *http.Client
}

func NewClient(c *Config) *Client {
	return &Client{
		baseURL:     strings.TrimRight(c.BaseURL, "/"),
		username:    c.Username,
		password:    c.Password,
		channelID:   c.ChannelID,
		callbackURL: c.CallbackURL,
		hc: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type ChargeRequest struct {
	Amount            int64  `json:"amount"`
	PhoneNumber       string `json:"phone_number"`
	ChannelID         int    `json:"channel_id"`
	Provider          string `json:"provider"`
	ExternalReference string `json:"external_reference"`
	CallbackURL       string `json:"callback_url"`
}

// ChargeResponse is whatever the gateway acknowledged with, kept verbatim.
type ChargeResponse map[string]interface{}

// APIError is returned when the gateway answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payhero: status %d: %s", e.StatusCode, e.Body)
}

// Charge sends a single STK push. It never retries.
func (c *Client) Charge(ctx context.Context, amount int64, phone, reference string) (ChargeResponse, error) {
	body, err := json.Marshal(ChargeRequest{
		Amount:            amount,
		PhoneNumber:       phone,
		ChannelID:         c.channelID,
		Provider:          providerMpesa,
		ExternalReference: reference,
		CallbackURL:       c.callbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chargePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("c.hc.Do -> %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll -> %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(raw) > maxErrorBodyLen {
			raw = raw[:maxErrorBodyLen]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	out := ChargeResponse{}
	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("json.Unmarshal -> %w", err)
		}
	}

	return out, nil
}
