package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"bali-advisory/internal/domain/catalog"
	"bali-advisory/internal/domain/leads"
	"bali-advisory/internal/domain/users"
	"bali-advisory/internal/infra/mailer"
	"bali-advisory/internal/infra/odoo"
	"bali-advisory/internal/infra/queue"
	"bali-advisory/internal/infra/receipt"
	"bali-advisory/internal/infra/telegram"
)

type CRM interface {
	UpsertPartner(ctx context.Context, c odoo.Contact) (int64, error)
	CreateLead(ctx context.Context, in odoo.LeadInput) (int64, error)
	UpdateLeadStage(ctx context.Context, leadID int64, stage string) error
	MarkLeadLost(ctx context.Context, leadID int64) error
	CreateSaleOrder(ctx context.Context, in odoo.SaleOrderInput) (int64, error)
	SetMembershipLevel(ctx context.Context, partnerID int64, level string) error
}

type Mail interface {
	SendVerification(ctx context.Context, to, name, token string) error
	SendWelcome(ctx context.Context, to, name string) error
	SendLeadNotification(ctx context.Context, inbox string, l mailer.LeadEmail) error
	SendPaymentConfirmation(ctx context.Context, p mailer.PaymentEmail, receipt []byte) error
	SendKYCRequest(ctx context.Context, to, name string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
}

type Alerter interface {
	Notify(ctx context.Context, text string) error
}

type ReceiptRenderer interface {
	Generate(d receipt.Data) ([]byte, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*users.User, error)
	SetCRMPartnerID(ctx context.Context, userID uint, partnerID int64) error
}

type LeadStore interface {
	FindByID(ctx context.Context, id uint) (*leads.Lead, error)
	SetCRMLeadID(ctx context.Context, id uint, crmID int64) error
}

// Workers executes jobs. CRM and Alerts may be nil when Odoo or Telegram is
// not configured; those jobs are then skipped.
type Workers struct {
	CRM        CRM
	Mail       Mail
	Alerts     Alerter
	Receipts   ReceiptRenderer
	Users      UserStore
	Leads      LeadStore
	SalesInbox string
	Brand      string
	Log        zerolog.Logger
}

// Register binds every job type to its handler.
func (w *Workers) Register(r *queue.Router) {
	r.Handle(JobCRMSaleOrder, decode(w.crmSaleOrder))
	r.Handle(JobCRMMembership, decode(w.crmMembership))
	r.Handle(JobCRMLead, decode(w.crmLead))
	r.Handle(JobCRMLeadStage, decode(w.crmLeadStage))
	r.Handle(JobPaymentEmail, decode(w.paymentEmail))
	r.Handle(JobLeadEmail, decode(w.leadEmail))
	r.Handle(JobWelcomeEmail, decode(w.welcomeEmail))
	r.Handle(JobVerificationEmail, decode(w.verificationEmail))
	r.Handle(JobKYCRequestEmail, decode(w.kycRequestEmail))
	r.Handle(JobPasswordResetEmail, decode(w.passwordResetEmail))
	r.Handle(JobSalesAlert, decode(w.salesAlert))
}

func decode[T any](fn func(context.Context, T) error) queue.Handler {
	return func(ctx context.Context, job queue.Job) error {
		var payload T
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", job.Type, err)
		}
		return fn(ctx, payload)
	}
}

// partnerFor returns the Odoo partner of a user, creating and remembering it
// on first use.
func (w *Workers) partnerFor(ctx context.Context, userID uint, email, name string) (int64, error) {
	if userID != 0 {
		u, err := w.Users.FindByID(ctx, userID)
		if err == nil {
			if u.CRMPartnerID != nil && *u.CRMPartnerID != 0 {
				return *u.CRMPartnerID, nil
			}
			if email == "" {
				email = u.Email
			}
			if name == "" {
				name = u.DisplayName()
			}
		}
	}

	id, err := w.CRM.UpsertPartner(ctx, odoo.Contact{Name: name, Email: email})
	if err != nil {
		return 0, err
	}
	if userID != 0 {
		if err := w.Users.SetCRMPartnerID(ctx, userID, id); err != nil {
			w.Log.Warn().Err(err).Uint("user_id", userID).Msg("store crm partner id failed")
		}
	}
	return id, nil
}

func (w *Workers) crmSaleOrder(ctx context.Context, s Sale) error {
	if w.CRM == nil {
		return nil
	}
	partnerID, err := w.partnerFor(ctx, s.UserID, s.Email, s.Name)
	if err != nil {
		return fmt.Errorf("sale order partner: %w", err)
	}
	orderID, err := w.CRM.CreateSaleOrder(ctx, odoo.SaleOrderInput{
		PartnerID: partnerID,
		Reference: s.ExternalID,
		Lines: []odoo.OrderLine{{
			ProductCode: s.ProductKey,
			Name:        s.ProductName,
			PriceUnit:   float64(s.AmountIDR),
			Quantity:    1,
		}},
	})
	if err != nil {
		return err
	}
	w.Log.Info().Int64("order_id", orderID).Str("external_id", s.ExternalID).Msg("crm sale order created")
	return nil
}

func (w *Workers) crmMembership(ctx context.Context, m Membership) error {
	if w.CRM == nil {
		return nil
	}
	partnerID, err := w.partnerFor(ctx, m.UserID, m.Email, m.Name)
	if err != nil {
		return fmt.Errorf("membership partner: %w", err)
	}
	return w.CRM.SetMembershipLevel(ctx, partnerID, m.Tier)
}

func (w *Workers) crmLead(ctx context.Context, ref LeadRef) error {
	if w.CRM == nil {
		return nil
	}
	l, err := w.Leads.FindByID(ctx, ref.LeadID)
	if err != nil {
		return fmt.Errorf("load lead %d: %w", ref.LeadID, err)
	}
	if l.CRMLeadID != nil {
		return nil
	}

	contact := odoo.Contact{Name: l.Name, Email: l.Email, Phone: l.Phone}
	partnerID, err := w.CRM.UpsertPartner(ctx, contact)
	if err != nil {
		return fmt.Errorf("lead partner: %w", err)
	}

	crmID, err := w.CRM.CreateLead(ctx, odoo.LeadInput{
		Title:       leadTitle(l),
		Contact:     contact,
		PartnerID:   partnerID,
		Description: l.Message,
		Source:      l.Source,
	})
	if err != nil {
		return err
	}
	return w.Leads.SetCRMLeadID(ctx, l.ID, crmID)
}

var stageNames = map[string]string{
	leads.StatusNew:       "New",
	leads.StatusContacted: "Qualified",
	leads.StatusQualified: "Proposition",
}

func (w *Workers) crmLeadStage(ctx context.Context, s LeadStage) error {
	if w.CRM == nil {
		return nil
	}
	l, err := w.Leads.FindByID(ctx, s.LeadID)
	if err != nil {
		return fmt.Errorf("load lead %d: %w", s.LeadID, err)
	}
	if l.CRMLeadID == nil {
		w.Log.Info().Uint("lead_id", l.ID).Msg("lead not in crm yet, stage not mirrored")
		return nil
	}
	if s.Status == leads.StatusLost {
		return w.CRM.MarkLeadLost(ctx, *l.CRMLeadID)
	}
	stage, ok := stageNames[s.Status]
	if !ok {
		return fmt.Errorf("no crm stage for status %q", s.Status)
	}
	return w.CRM.UpdateLeadStage(ctx, *l.CRMLeadID, stage)
}

func (w *Workers) paymentEmail(ctx context.Context, s Sale) error {
	amount := catalog.FormatIDR(s.AmountIDR)

	var pdf []byte
	if w.Receipts != nil {
		var err error
		pdf, err = w.Receipts.Generate(receipt.Data{
			Brand:        w.Brand,
			ExternalID:   s.ExternalID,
			InvoiceID:    s.InvoiceID,
			Provider:     s.Provider,
			PaidAt:       s.PaidAt,
			CustomerName: s.Name,
			Email:        s.Email,
			ProductName:  s.ProductName,
			DisplayPrice: s.DisplayPrice,
			ExchangeRate: strconv.FormatFloat(s.ExchangeRate, 'f', -1, 64),
			AmountIDR:    amount,
		})
		if err != nil {
			// still send the confirmation without the attachment
			w.Log.Error().Err(err).Str("external_id", s.ExternalID).Msg("receipt generation failed")
			pdf = nil
		}
	}

	return w.Mail.SendPaymentConfirmation(ctx, mailer.PaymentEmail{
		To:           s.Email,
		Name:         s.Name,
		ProductName:  s.ProductName,
		Tier:         s.Tier,
		AmountIDR:    amount,
		DisplayPrice: s.DisplayPrice,
		ExternalID:   s.ExternalID,
	}, pdf)
}

func (w *Workers) leadEmail(ctx context.Context, ref LeadRef) error {
	l, err := w.Leads.FindByID(ctx, ref.LeadID)
	if err != nil {
		return fmt.Errorf("load lead %d: %w", ref.LeadID, err)
	}

	if w.Alerts != nil {
		alert := telegram.FormatLead(telegram.LeadAlert{
			ID: l.ID, Source: l.Source, Name: l.Name, Email: l.Email, Phone: l.Phone, Budget: l.Budget,
		})
		if err := w.Alerts.Notify(ctx, alert); err != nil {
			w.Log.Warn().Err(err).Uint("lead_id", l.ID).Msg("lead alert failed")
		}
	}

	if w.SalesInbox == "" {
		return nil
	}
	return w.Mail.SendLeadNotification(ctx, w.SalesInbox, mailer.LeadEmail{
		LeadID:  l.ID,
		Source:  l.Source,
		Name:    l.Name,
		Email:   l.Email,
		Phone:   l.Phone,
		Budget:  l.Budget,
		Sector:  l.Sector,
		Message: l.Message,
	})
}

func (w *Workers) welcomeEmail(ctx context.Context, r Recipient) error {
	return w.Mail.SendWelcome(ctx, r.Email, r.Name)
}

func (w *Workers) verificationEmail(ctx context.Context, r Recipient) error {
	return w.Mail.SendVerification(ctx, r.Email, r.Name, r.Token)
}

func (w *Workers) kycRequestEmail(ctx context.Context, r Recipient) error {
	return w.Mail.SendKYCRequest(ctx, r.Email, r.Name)
}

func (w *Workers) passwordResetEmail(ctx context.Context, r Recipient) error {
	return w.Mail.SendPasswordReset(ctx, r.Email, r.Name, r.Token)
}

func (w *Workers) salesAlert(ctx context.Context, a Alert) error {
	if w.Alerts == nil {
		return nil
	}
	return w.Alerts.Notify(ctx, a.Text)
}

func leadTitle(l *leads.Lead) string {
	title := fmt.Sprintf("[%s] %s", l.Source, l.Name)
	if l.Budget != "" {
		title += " · " + l.Budget
	}
	return title
}

func saleAlertText(s Sale) string {
	return telegram.FormatSale(telegram.SaleAlert{
		ProductName: s.ProductName,
		AmountIDR:   catalog.FormatIDR(s.AmountIDR),
		Email:       s.Email,
		ExternalID:  s.ExternalID,
	})
}
