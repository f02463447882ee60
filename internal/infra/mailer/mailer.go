package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const brand = "Bali Invest Advisory"

// Mailer renders the site's transactional emails and hands them to a Sender.
type Mailer struct {
	sender Sender
	from   string
	appURL string
}

func New(sender Sender, from, appURL string) *Mailer {
	return &Mailer{sender: sender, from: from, appURL: appURL}
}

type LeadEmail struct {
	LeadID  uint
	Source  string
	Name    string
	Email   string
	Phone   string
	Budget  string
	Sector  string
	Message string
}

type PaymentEmail struct {
	To           string
	Name         string
	ProductName  string
	Tier         string
	AmountIDR    string
	DisplayPrice string
	ExternalID   string
}

func (m *Mailer) render(name string, data map[string]interface{}) (string, error) {
	data["Brand"] = brand
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (m *Mailer) send(ctx context.Context, to, subject, tmpl string, data map[string]interface{}, att ...Attachment) error {
	html, err := m.render(tmpl, data)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{
		From:        m.from,
		To:          []string{to},
		Subject:     subject,
		HTML:        html,
		Attachments: att,
	})
}

func (m *Mailer) SendVerification(ctx context.Context, to, name, token string) error {
	return m.send(ctx, to, "Verify your account", "verify_email.html", map[string]interface{}{
		"Name": name,
		"Link": m.appURL + "/verify?token=" + token,
	})
}

func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	return m.send(ctx, to, "Welcome to "+brand, "welcome.html", map[string]interface{}{
		"Name": name,
		"Link": m.appURL + "/properties",
	})
}

// SendLeadNotification alerts the sales inbox. Reply-To is the lead.
func (m *Mailer) SendLeadNotification(ctx context.Context, inbox string, l LeadEmail) error {
	html, err := m.render("lead_notification.html", map[string]interface{}{
		"LeadID":  l.LeadID,
		"Source":  l.Source,
		"Name":    l.Name,
		"Email":   l.Email,
		"Phone":   l.Phone,
		"Budget":  l.Budget,
		"Sector":  l.Sector,
		"Message": l.Message,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{
		From:    m.from,
		To:      []string{inbox},
		ReplyTo: l.Email,
		Subject: fmt.Sprintf("New %s lead: %s", l.Source, l.Name),
		HTML:    html,
	})
}

func (m *Mailer) SendPaymentConfirmation(ctx context.Context, p PaymentEmail, receipt []byte) error {
	var att []Attachment
	if len(receipt) > 0 {
		att = append(att, Attachment{Name: "receipt-" + p.ExternalID + ".pdf", ContentType: "application/pdf", Data: receipt})
	}
	return m.send(ctx, p.To, "Payment received: "+p.ProductName, "payment_confirmation.html", map[string]interface{}{
		"Name":         p.Name,
		"ProductName":  p.ProductName,
		"Tier":         p.Tier,
		"AmountIDR":    p.AmountIDR,
		"DisplayPrice": p.DisplayPrice,
		"ExternalID":   p.ExternalID,
	}, att...)
}

func (m *Mailer) SendKYCRequest(ctx context.Context, to, name string) error {
	return m.send(ctx, to, "Documents needed for your transaction", "kyc_request.html", map[string]interface{}{
		"Name": name,
		"Link": m.appURL + "/account/documents",
	})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	return m.send(ctx, to, "Reset your password", "password_reset.html", map[string]interface{}{
		"Name": name,
		"Link": m.appURL + "/reset-password?token=" + token,
	})
}
