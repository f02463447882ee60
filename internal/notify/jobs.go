// Package notify turns domain events into side-effect jobs (CRM sync, email,
// sales alerts) and runs them off the request path.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bali-advisory/internal/infra/queue"
)

const (
	JobCRMSaleOrder      = "crm.sale_order"
	JobCRMMembership     = "crm.membership"
	JobCRMLead           = "crm.lead"
	JobCRMLeadStage      = "crm.lead_stage"
	JobPaymentEmail      = "email.payment_confirmation"
	JobLeadEmail         = "email.lead_notification"
	JobWelcomeEmail      = "email.welcome"
	JobVerificationEmail = "email.verification"
	JobKYCRequestEmail   = "email.kyc_request"
	JobSalesAlert        = "telegram.sales_alert"

	JobPasswordResetEmail = "email.password_reset"
)

// Sale describes a paid invoice.
type Sale struct {
	UserID       uint      `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	ProductKey   string    `json:"product_key"`
	ProductName  string    `json:"product_name"`
	Tier         string    `json:"tier,omitempty"`
	ExternalID   string    `json:"external_id"`
	InvoiceID    string    `json:"invoice_id,omitempty"`
	Provider     string    `json:"provider"`
	AmountIDR    int64     `json:"amount_idr"`
	DisplayPrice string    `json:"display_price"`
	ExchangeRate float64   `json:"exchange_rate"`
	PaidAt       time.Time `json:"paid_at"`
}

type Membership struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Tier   string `json:"tier"`
}

type LeadRef struct {
	LeadID uint `json:"lead_id"`
}

type LeadStage struct {
	LeadID uint   `json:"lead_id"`
	Status string `json:"status"`
}

type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}

type Alert struct {
	Text string `json:"text"`
}

// DefaultPublishTimeout caps how long a caller waits on a saturated queue.
const DefaultPublishTimeout = 3 * time.Second

// Dispatcher publishes jobs. Publishing failures are logged; callers never see
// them.
type Dispatcher struct {
	pub            queue.Publisher
	publishTimeout time.Duration
	log            zerolog.Logger
}

func NewDispatcher(pub queue.Publisher, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		pub:            pub,
		publishTimeout: DefaultPublishTimeout,
		log:            log.With().Str("component", "dispatcher").Logger(),
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, jobType string, payload interface{}) {
	job, err := queue.NewJob(jobType, payload)
	if err != nil {
		d.log.Error().Err(err).Str("job_type", jobType).Msg("build job failed")
		return
	}
	// the request context may be cancelled as soon as the handler returns
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.publishTimeout)
	defer cancel()
	if err := d.pub.Publish(ctx, job); err != nil {
		d.log.Error().Err(err).Str("job_type", jobType).Str("job_id", job.ID).Msg("publish job failed")
	}
}

// SaleCompleted fans out the side effects of a paid invoice. Membership sync
// only runs for products that grant a tier.
func (d *Dispatcher) SaleCompleted(ctx context.Context, s Sale) {
	d.enqueue(ctx, JobCRMSaleOrder, s)
	if s.Tier != "" {
		d.enqueue(ctx, JobCRMMembership, Membership{UserID: s.UserID, Email: s.Email, Name: s.Name, Tier: s.Tier})
	}
	d.enqueue(ctx, JobPaymentEmail, s)
	d.enqueue(ctx, JobSalesAlert, Alert{Text: saleAlertText(s)})
}

func (d *Dispatcher) LeadCaptured(ctx context.Context, leadID uint) {
	d.enqueue(ctx, JobCRMLead, LeadRef{LeadID: leadID})
	d.enqueue(ctx, JobLeadEmail, LeadRef{LeadID: leadID})
}

func (d *Dispatcher) LeadStatusChanged(ctx context.Context, leadID uint, status string) {
	d.enqueue(ctx, JobCRMLeadStage, LeadStage{LeadID: leadID, Status: status})
}

func (d *Dispatcher) Welcome(ctx context.Context, email, name string) {
	d.enqueue(ctx, JobWelcomeEmail, Recipient{Email: email, Name: name})
}

func (d *Dispatcher) Verification(ctx context.Context, email, name, token string) {
	d.enqueue(ctx, JobVerificationEmail, Recipient{Email: email, Name: name, Token: token})
}

func (d *Dispatcher) KYCRequest(ctx context.Context, email, name string) {
	d.enqueue(ctx, JobKYCRequestEmail, Recipient{Email: email, Name: name})
}

func (d *Dispatcher) PasswordReset(ctx context.Context, email, name, token string) {
	d.enqueue(ctx, JobPasswordResetEmail, Recipient{Email: email, Name: name, Token: token})
}

func (d *Dispatcher) SalesAlert(ctx context.Context, text string) {
	d.enqueue(ctx, JobSalesAlert, Alert{Text: text})
}
