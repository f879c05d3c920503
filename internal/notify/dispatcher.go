package notify

import (
	"context"
	"log"

	"pricetrack/internal/model"
)

// Notifier delivers a triggered alert to its configured channels
type Notifier interface {
	Send(ctx context.Context, alert *model.PriceAlert, product *model.Product) error
}

// Dispatcher fans a triggered alert out to its channel selectors. Delivery
// failures are logged and never fatal to the engine; the returned error is
// the last failure, for callers that want to count them.
type Dispatcher struct {
	push  *PushService
	email *EmailService
}

// NewDispatcher creates a dispatcher over the given channel services.
// Either service may be nil.
func NewDispatcher(push *PushService, email *EmailService) *Dispatcher {
	return &Dispatcher{
		push:  push,
		email: email,
	}
}

// Send delivers the alert to every channel it selects
func (d *Dispatcher) Send(ctx context.Context, alert *model.PriceAlert, product *model.Product) error {
	var lastErr error

	if alert.PushKey != "" {
		if d.push != nil {
			if err := d.push.SendAlertNotification(ctx, alert.PushKey, alert, product); err != nil {
				log.Printf("Push notification failed for alert %s: %v", alert.ID, err)
				lastErr = err
			}
		} else {
			log.Printf("Push channel selected for alert %s but no push service configured", alert.ID)
		}
	}

	if alert.Email != "" {
		if d.email != nil && d.email.IsEnabled() {
			if err := d.email.SendAlertEmail(alert.Email, alert, product); err != nil {
				log.Printf("Email notification failed for alert %s: %v", alert.ID, err)
				lastErr = err
			}
		} else {
			log.Printf("Email channel selected for alert %s but email is not configured", alert.ID)
		}
	}

	if alert.Phone != "" {
		// No SMS gateway in scope; phone selectors ride the push provider
		// when one is configured.
		if d.push != nil {
			if err := d.push.SendAlertNotification(ctx, alert.Phone, alert, product); err != nil {
				log.Printf("Phone notification failed for alert %s: %v", alert.ID, err)
				lastErr = err
			}
		} else {
			log.Printf("Phone channel selected for alert %s but no push service configured", alert.ID)
		}
	}

	return lastErr
}
