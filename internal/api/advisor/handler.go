package advisor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/app/http/middleware"
	"bali-advisory/internal/domain/advisor"
	"bali-advisory/internal/domain/leads"
)

type LeadSubmitter interface {
	Submit(ctx context.Context, l leads.Lead) (*leads.Lead, error)
}

type Handler struct {
	leads LeadSubmitter
	log   zerolog.Logger
}

func NewHandler(l LeadSubmitter, log zerolog.Logger) *Handler {
	return &Handler{leads: l, log: log.With().Str("component", "advisor_api").Logger()}
}

// contact is the optional lead part of both lead magnets.
type contact struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}

// captureLead stores a lead when an email was given. A duplicate or any other
// failure never blocks the result.
func (h *Handler) captureLead(c *gin.Context, ct contact, source, budget, sector string) *uint {
	if strings.TrimSpace(ct.Email) == "" {
		return nil
	}
	name := ct.Name
	if strings.TrimSpace(name) == "" {
		name = strings.SplitN(ct.Email, "@", 2)[0]
	}
	l := leads.Lead{
		Name:   name,
		Email:  ct.Email,
		Phone:  ct.Phone,
		Budget: budget,
		Sector: sector,
		Source: source,
	}
	if id := middleware.UserID(c); id != 0 {
		l.UserID = &id
	}
	saved, err := h.leads.Submit(c.Request.Context(), l)
	if err != nil {
		if !errors.Is(err, leads.ErrDuplicateLead) {
			h.log.Warn().Err(err).Str("source", source).Msg("lead capture failed")
		}
		return nil
	}
	return &saved.ID
}

// Advise handles POST /advisor.
func (h *Handler) Advise(c *gin.Context) {
	var req struct {
		BudgetUSD int64 `json:"budget_usd" binding:"required"`
		contact
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "budget_usd is required and email must be valid")
		return
	}

	rec, err := advisor.Advise(req.BudgetUSD)
	if err != nil {
		apierr.BadRequest(c, err.Error())
		return
	}

	leadID := h.captureLead(c, req.contact, leads.SourceAdvisor, rec.Bracket, "")
	c.JSON(http.StatusOK, gin.H{
		"advice":  rec.ViewFor(middleware.Tier(c)),
		"lead_id": leadID,
	})
}

// Sectors handles GET /wizard/sectors.
func (h *Handler) Sectors(c *gin.Context) {
	type sector struct {
		Key          string `json:"key"`
		Title        string `json:"title"`
		MinBudgetUSD int64  `json:"min_budget_usd"`
	}
	out := []sector{}
	for _, key := range advisor.Sectors() {
		g, err := advisor.GuideFor(key)
		if err != nil {
			continue
		}
		out = append(out, sector{Key: g.Sector, Title: g.Title, MinBudgetUSD: g.MinBudgetUSD})
	}
	c.JSON(http.StatusOK, gin.H{"sectors": out})
}

// Wizard handles POST /wizard.
func (h *Handler) Wizard(c *gin.Context) {
	var req struct {
		Budget       int64  `json:"budget" binding:"required"`
		Sector       string `json:"sector" binding:"required"`
		HorizonYears int    `json:"horizon_years" binding:"min=0,max=50"`
		Goal         string `json:"goal" binding:"omitempty,oneof=income growth lifestyle"`
		contact
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "budget and sector are required")
		return
	}

	res, err := advisor.RunWizard(advisor.WizardInput{
		BudgetUSD:    req.Budget,
		Sector:       req.Sector,
		HorizonYears: req.HorizonYears,
		Goal:         req.Goal,
	}, middleware.Tier(c))
	if err != nil {
		apierr.BadRequest(c, err.Error())
		return
	}

	leadID := h.captureLead(c, req.contact, leads.SourceWizard, res.Bracket, res.Sector)
	c.JSON(http.StatusOK, gin.H{"result": res, "lead_id": leadID})
}

// Consultation handles POST /consultation-request. The route sits behind
// RequireTier(vip), so the account email is always present.
func (h *Handler) Consultation(c *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Sector  string `json:"sector"`
		Message string `json:"message" binding:"required,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "message is required")
		return
	}

	email := middleware.Email(c)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	uid := middleware.UserID(c)
	saved, err := h.leads.Submit(c.Request.Context(), leads.Lead{
		Name:    name,
		Email:   email,
		Phone:   req.Phone,
		Sector:  req.Sector,
		Message: req.Message,
		Source:  leads.SourceConsultation,
		UserID:  &uid,
	})
	if err != nil {
		apierr.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "lead_id": saved.ID})
}
