package utils

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Email is a provider-neutral outgoing message.
type Email struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// ResendMailer sends through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) Send(ctx context.Context, e Email) error {
	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      e.To,
		Subject: e.Subject,
		Text:    e.Text,
		Html:    e.HTML,
		ReplyTo: e.ReplyTo,
	}
	sent, err := m.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	Log.Debug("email sent", zap.String("provider", "resend"), zap.String("id", sent.Id))
	return nil
}

// SESMailer sends through Amazon SES.
type SESMailer struct {
	client *ses.Client
	from   string
}

func NewSESMailer(ctx context.Context, region, from string) (*SESMailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for SES: %w", err)
	}
	return &SESMailer{client: ses.NewFromConfig(cfg), from: from}, nil
}

func (m *SESMailer) Send(ctx context.Context, e Email) error {
	body := &types.Body{Text: &types.Content{Data: aws.String(e.Text)}}
	if e.HTML != "" {
		body.Html = &types.Content{Data: aws.String(e.HTML)}
	}
	input := &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: e.To},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(e.Subject)},
			Body:    body,
		},
		Source: aws.String(m.from),
	}
	if e.ReplyTo != "" {
		input.ReplyToAddresses = []string{e.ReplyTo}
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}

// NopMailer drops messages. Used when MAIL_PROVIDER=none.
type NopMailer struct{}

func (NopMailer) Send(_ context.Context, e Email) error {
	Log.Info("email dropped", zap.Strings("to", e.To), zap.String("subject", e.Subject))
	return nil
}

func SendMFAEmail(ctx context.Context, m Mailer, to, code string) error {
	return m.Send(ctx, Email{
		To:      []string{to},
		Subject: "Your NutriLens verification code",
		Text:    fmt.Sprintf("Your verification code is: %s\n\nUse this to complete your login. It expires in 10 minutes.", code),
	})
}

func SendResetEmail(ctx context.Context, m Mailer, to, token string) error {
	return m.Send(ctx, Email{
		To:      []string{to},
		Subject: "NutriLens password reset code",
		Text:    fmt.Sprintf("Your password reset code is: %s\n\nIt expires in 15 minutes.", token),
	})
}

// ContactMessage is the content of a contact-form notification.
type ContactMessage struct {
	Reference string
	Name      string
	Email     string
	Subject   string
	Message   string
}

func SendContactNotification(ctx context.Context, m Mailer, inbox string, c ContactMessage) error {
	subject := c.Subject
	if subject == "" {
		subject = "New contact message"
	}
	text := fmt.Sprintf("From: %s <%s>\nReference: %s\n\n%s", c.Name, c.Email, c.Reference, c.Message)
	htmlBody := fmt.Sprintf(
		"<p><strong>From:</strong> %s &lt;%s&gt;<br><strong>Reference:</strong> %s</p><p>%s</p>",
		html.EscapeString(c.Name), html.EscapeString(c.Email), html.EscapeString(c.Reference),
		strings.ReplaceAll(html.EscapeString(c.Message), "\n", "<br>"),
	)
	return m.Send(ctx, Email{
		To:      []string{inbox},
		ReplyTo: c.Email,
		Subject: "[NutriLens contact] " + subject,
		Text:    text,
		HTML:    htmlBody,
	})
}
