package notification

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridDispatcher sends through the SendGrid v3 mail API.
type SendGridDispatcher struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridDispatcher(apiKey, fromAddress, fromName string) *SendGridDispatcher {
	return &SendGridDispatcher{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

func (d *SendGridDispatcher) Send(ctx context.Context, to string, msg Message) error {
	message := mail.NewV3Mail()
	message.SetFrom(d.from)
	message.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(to, to))
	message.AddPersonalizations(p)

	// text/plain must precede text/html
	message.AddContent(mail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		message.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	resp, err := d.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", to, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send to %s: status %d: %s", to, resp.StatusCode, resp.Body)
	}
	return nil
}
