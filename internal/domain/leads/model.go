package leads

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusLost      = "lost"
)

const (
	SourceContact    = "contact"
	SourceAdvisor    = "advisor"
	SourceWizard     = "wizard"
	SourceProperty   = "property"
	SourceVendor     = "vendor"
	SourceNewsletter = "newsletter"
	SourceCheckout   = "checkout"

	SourceConsultation = "consultation"
)

var (
	ErrInvalidEmail  = errors.New("invalid email")
	ErrNameRequired  = errors.New("name is required")
	ErrInvalidStatus = errors.New("invalid lead status")
	ErrInvalidSource = errors.New("invalid lead source")
	ErrDuplicateLead = errors.New("lead already submitted")
)

type Lead struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Email      string    `gorm:"not null;index" json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Budget     string    `json:"budget,omitempty"`
	Sector     string    `json:"sector,omitempty"`
	Source     string    `gorm:"type:varchar(20);not null;index" json:"source"`
	Message    string    `json:"message,omitempty"`
	Status     string    `gorm:"type:varchar(20);not null;default:'new';index" json:"status"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	PropertyID *uint     `json:"property_id,omitempty"`
	CRMLeadID  *int64    `gorm:"column:crm_lead_id" json:"crm_lead_id,omitempty"`
	Locale     string    `gorm:"type:varchar(5)" json:"locale,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsEmailValid(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusLost:
		return true
	}
	return false
}

func ValidSource(s string) bool {
	switch s {
	case SourceContact, SourceAdvisor, SourceWizard, SourceProperty, SourceVendor, SourceNewsletter, SourceCheckout, SourceConsultation:
		return true
	}
	return false
}

// Normalize trims the contact fields and fills defaults.
func (l *Lead) Normalize() {
	l.Name = strings.TrimSpace(l.Name)
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	l.Phone = strings.TrimSpace(l.Phone)
	if l.Source == "" {
		l.Source = SourceContact
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
}

// Validate runs after Normalize.
func (l Lead) Validate() error {
	if l.Name == "" {
		return ErrNameRequired
	}
	if !IsEmailValid(l.Email) {
		return ErrInvalidEmail
	}
	if !ValidSource(l.Source) {
		return ErrInvalidSource
	}
	if !ValidStatus(l.Status) {
		return ErrInvalidStatus
	}
	return nil
}
