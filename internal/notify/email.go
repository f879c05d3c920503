package notify

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"pricetrack/internal/model"
)

// EmailService handles email notifications
type EmailService struct {
	host      string
	port      int
	username  string
	password  string
	from      string
	isEnabled bool
}

// NewEmailService creates an email notification service. It stays disabled
// until credentials are provided.
func NewEmailService(host, username, password, from string, port int) *EmailService {
	return &EmailService{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		from:      from,
		isEnabled: username != "" && password != "",
	}
}

// Disable disables the email service
func (e *EmailService) Disable() {
	e.isEnabled = false
}

// IsEnabled returns whether the email service is enabled
func (e *EmailService) IsEnabled() bool {
	return e.isEnabled
}

// SendEmail sends an email
func (e *EmailService) SendEmail(to, subject, body string) error {
	if !e.isEnabled {
		return nil
	}
	if to == "" {
		return fmt.Errorf("recipient email is empty")
	}

	msg := e.buildMessage(to, subject, body)
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	// Try STARTTLS over a plain connection first
	if err := e.sendWithSTARTTLS(addr, to, msg); err == nil {
		return nil
	}

	// Fall back to the stdlib helper
	auth := smtp.PlainAuth("", e.username, e.password, e.host)
	return smtp.SendMail(addr, auth, e.username, []string{to}, []byte(msg))
}

func (e *EmailService) sendWithSTARTTLS(addr, to, msg string) error {
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
		return err
	}
	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(e.username); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	wc, err := client.Data()
	if err != nil {
		return err
	}
	defer wc.Close()

	_, err = fmt.Fprint(wc, msg)
	return err
}

func (e *EmailService) buildMessage(to, subject, body string) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s\r\n", e.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return msg.String()
}

// SendAlertEmail sends a triggered price alert email
func (e *EmailService) SendAlertEmail(to string, alert *model.PriceAlert, product *model.Product) error {
	subject := fmt.Sprintf("Price alert: %s", product.Name)
	body := e.buildAlertHTML(alert, product)
	return e.SendEmail(to, subject, body)
}

func (e *EmailService) buildAlertHTML(alert *model.PriceAlert, product *model.Product) string {
	direction := "reached"
	if product.CurrentPrice <= alert.TargetPrice {
		direction = "dropped to"
	} else if product.CurrentPrice >= alert.TargetPrice && alert.NotifyOnIncrease {
		direction = "rose to"
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2>Price alert triggered</h2>
		<p><strong>%s</strong> (%s) %s <strong>%.2f %s</strong>.</p>
		<p>Alert target: %.2f %s</p>
		<p style="color: #999; font-size: 12px;">Sent automatically at %s. Do not reply.</p>
	</div>
</body>
</html>`,
		product.Name,
		product.Retailer,
		direction,
		product.CurrentPrice,
		product.Currency,
		alert.TargetPrice,
		product.Currency,
		time.Now().Format("2006-01-02 15:04:05"),
	)
}

// ValidateEmail validates an email address
func (e *EmailService) ValidateEmail(email string) bool {
	if email == "" {
		return false
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	return strings.Contains(parts[1], ".")
}
