package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pricetrack/internal/model"
)

const defaultPushAPIURL = "https://api.day.app"

// PushService sends Bark-style push notifications
type PushService struct {
	apiURL    string
	client    *http.Client
	isEnabled bool
}

// NewPushService creates a push notification service. An empty apiURL uses
// the default Bark endpoint.
func NewPushService(apiURL string) *PushService {
	if apiURL == "" {
		apiURL = defaultPushAPIURL
	}
	return &PushService{
		apiURL: strings.TrimRight(apiURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		isEnabled: true,
	}
}

// Disable disables the push service
func (p *PushService) Disable() {
	p.isEnabled = false
}

// SendNotification sends a push notification to the device behind key
func (p *PushService) SendNotification(ctx context.Context, key, title, content string) error {
	if !p.isEnabled {
		return nil
	}
	if key == "" {
		return fmt.Errorf("push key is empty")
	}

	// URL layout: {api}/{key}/{title}/{content}
	pushURL := fmt.Sprintf("%s/%s/%s/%s",
		p.apiURL, key, url.QueryEscape(title), url.QueryEscape(content))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pushURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// SendAlertNotification sends a triggered price alert
func (p *PushService) SendAlertNotification(ctx context.Context, key string, alert *model.PriceAlert, product *model.Product) error {
	title := "Price alert triggered"
	content := fmt.Sprintf("%s is now %.2f %s (target %.2f)",
		product.Name, product.CurrentPrice, product.Currency, alert.TargetPrice)
	return p.SendNotification(ctx, key, title, content)
}

// ValidateKey checks that a push key looks plausible
func (p *PushService) ValidateKey(key string) bool {
	return key != "" && !strings.Contains(key, " ")
}
