package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tradewall/tradewall/internal/domain"
)

const DefaultEndpoint = "https://api.pushover.net/1/messages.json"

// Pushover delivers push notifications through the Pushover message API.
type Pushover struct {
	token    string
	userKey  string
	endpoint string
	client   *http.Client
}

func NewPushover(token, userKey string) *Pushover {
	return &Pushover{
		token:    token,
		userKey:  userKey,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// NewPushoverWithEndpoint exists for tests pointing at a local server.
func NewPushoverWithEndpoint(token, userKey, endpoint string) *Pushover {
	p := NewPushover(token, userKey)
	p.endpoint = endpoint
	return p
}

func (p *Pushover) Send(ctx context.Context, title, message string) error {
	if p.token == "" || p.userKey == "" {
		return fmt.Errorf("%w: pushover credentials not configured", domain.ErrDeliveryFailure)
	}

	form := url.Values{}
	form.Set("token", p.token)
	form.Set("user", p.userKey)
	form.Set("title", title)
	form.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrDeliveryFailure, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err)
	}
	defer resp.Body.Close()

	var result struct {
		Status int      `json:"status"`
		Errors []string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrDeliveryFailure, err)
	}

	if resp.StatusCode >= 400 || result.Status != 1 {
		return fmt.Errorf("%w: pushover status %d: %s", domain.ErrDeliveryFailure, resp.StatusCode, strings.Join(result.Errors, "; "))
	}
	return nil
}
