package properties

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/app/http/middleware"
	"bali-advisory/internal/domain/leads"
	"bali-advisory/internal/domain/properties"
	"bali-advisory/internal/repository"
)

type Store interface {
	List(ctx context.Context, f repository.PropertyFilter) ([]properties.Property, error)
	FindBySlug(ctx context.Context, slug string) (*properties.Property, error)
	FindByID(ctx context.Context, id uint) (*properties.Property, error)
	Create(ctx context.Context, p *properties.Property) error
	Save(ctx context.Context, p *properties.Property) error
	SetStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
}

type LeadSubmitter interface {
	Submit(ctx context.Context, l leads.Lead) (*leads.Lead, error)
}

type Handler struct {
	store Store
	leads LeadSubmitter
	log   zerolog.Logger
}

func NewHandler(store Store, l LeadSubmitter, log zerolog.Logger) *Handler {
	return &Handler{store: store, leads: l, log: log.With().Str("component", "properties_api").Logger()}
}

type listingInput struct {
	Title       string          `json:"title" binding:"required,max=200"`
	Area        string          `json:"area" binding:"required,max=80"`
	Type        string          `json:"type" binding:"required"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	LeaseYears  int             `json:"lease_years" binding:"min=0,max=99"`
	Bedrooms    int             `json:"bedrooms" binding:"min=0,max=100"`
	LandSizeM2  int             `json:"land_size_m2" binding:"min=0"`
	Description string          `json:"description" binding:"max=10000"`
	Images      []string        `json:"images" binding:"max=30"`
}

func (in listingInput) validate() error {
	if !properties.ValidType(in.Type) {
		return fmt.Errorf("type must be one of villa, land, apartment, commercial")
	}
	if in.PriceUSD.IsNegative() {
		return fmt.Errorf("price_usd must not be negative")
	}
	return nil
}

func (in listingInput) apply(p *properties.Property) {
	p.Title = strings.TrimSpace(in.Title)
	p.Area = strings.TrimSpace(in.Area)
	p.Type = in.Type
	p.PriceUSD = in.PriceUSD
	p.LeaseYears = in.LeaseYears
	p.Bedrooms = in.Bedrooms
	p.LandSizeM2 = in.LandSizeM2
	p.Description = in.Description
	p.ImageURLs = properties.JoinImages(in.Images)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apierr.BadRequest(c, "invalid property id")
		return 0, false
	}
	return uint(id), true
}

// List handles GET /properties. Off-market listings only appear for VIP
// members and prices are gated per tier.
func (h *Handler) List(c *gin.Context) {
	items, err := h.store.List(c.Request.Context(), repository.PropertyFilter{
		Status: properties.StatusPublished,
		Area:   c.Query("area"),
		Type:   c.Query("type"),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("list properties failed")
		apierr.Internal(c, "Failed to load properties")
		return
	}

	tier := middleware.Tier(c)
	out := make([]properties.View, 0, len(items))
	for _, p := range items {
		if !p.VisibleTo(tier) {
			continue
		}
		out = append(out, properties.ViewFor(p, tier, false))
	}
	c.JSON(http.StatusOK, gin.H{"properties": out})
}

// Get handles GET /properties/:slug. Hidden listings answer 404 like missing
// ones.
func (h *Handler) Get(c *gin.Context) {
	p, err := h.store.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierr.NotFound(c, "Property not found")
			return
		}
		h.log.Error().Err(err).Msg("find property failed")
		apierr.Internal(c, "Failed to load property")
		return
	}

	tier := middleware.Tier(c)
	if p.Status != properties.StatusPublished || !p.VisibleTo(tier) {
		apierr.NotFound(c, "Property not found")
		return
	}
	c.JSON(http.StatusOK, properties.ViewFor(*p, tier, true))
}

// Submit handles POST /properties/submissions from vendors. The listing waits
// for review and the vendor becomes a lead.
func (h *Handler) Submit(c *gin.Context) {
	var req struct {
		listingInput
		VendorName  string `json:"vendor_name" binding:"required"`
		VendorEmail string `json:"vendor_email" binding:"required,email"`
		VendorPhone string `json:"vendor_phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "title, area, type, vendor_name and a valid vendor_email are required")
		return
	}
	if err := req.validate(); err != nil {
		apierr.BadRequest(c, err.Error())
		return
	}

	p := properties.Property{
		Status:      properties.StatusPendingReview,
		VendorName:  strings.TrimSpace(req.VendorName),
		VendorEmail: strings.ToLower(strings.TrimSpace(req.VendorEmail)),
		VendorPhone: strings.TrimSpace(req.VendorPhone),
	}
	req.apply(&p)
	p.Slug = properties.UniqueSlug(p.Title, p.Area)

	ctx := c.Request.Context()
	if err := h.store.Create(ctx, &p); err != nil {
		h.log.Error().Err(err).Msg("store vendor submission failed")
		apierr.Internal(c, "Failed to submit property")
		return
	}

	propertyID := p.ID
	lead := leads.Lead{
		Name:       p.VendorName,
		Email:      p.VendorEmail,
		Phone:      p.VendorPhone,
		Source:     leads.SourceVendor,
		Budget:     p.PriceUSD.StringFixed(0),
		Message:    fmt.Sprintf("Vendor submission: %s (%s, %s)", p.Title, p.Area, p.Type),
		PropertyID: &propertyID,
	}
	var leadID *uint
	if saved, err := h.leads.Submit(ctx, lead); err != nil {
		h.log.Warn().Err(err).Uint("property_id", p.ID).Msg("vendor lead not created")
	} else {
		leadID = &saved.ID
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "property_id": p.ID, "lead_id": leadID})
}

// AdminList handles GET /admin/properties?status=
func (h *Handler) AdminList(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !properties.ValidStatus(status) {
		apierr.BadRequest(c, "invalid status")
		return
	}
	items, err := h.store.List(c.Request.Context(), repository.PropertyFilter{Status: status, Area: c.Query("area"), Type: c.Query("type")})
	if err != nil {
		apierr.Internal(c, "Failed to load properties")
		return
	}
	c.JSON(http.StatusOK, gin.H{"properties": items})
}

type adminInput struct {
	listingInput
	Status      string `json:"status"`
	PremiumOnly bool   `json:"premium_only"`
}

func (in adminInput) validate() error {
	if err := in.listingInput.validate(); err != nil {
		return err
	}
	if in.Status != "" && !properties.ValidStatus(in.Status) {
		return fmt.Errorf("invalid status")
	}
	return nil
}

// Create handles POST /admin/properties.
func (h *Handler) Create(c *gin.Context) {
	var req adminInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		apierr.BadRequest(c, err.Error())
		return
	}

	p := properties.Property{Status: properties.StatusDraft, PremiumOnly: req.PremiumOnly}
	if req.Status != "" {
		p.Status = req.Status
	}
	req.apply(&p)
	p.Slug = properties.UniqueSlug(p.Title, p.Area)

	if err := h.store.Create(c.Request.Context(), &p); err != nil {
		apierr.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update handles PUT /admin/properties/:id. The slug is kept so shared links
// survive a title change.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req adminInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		apierr.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	p, err := h.store.FindByID(ctx, id)
	if err != nil {
		apierr.FromError(c, err)
		return
	}
	req.apply(p)
	p.PremiumOnly = req.PremiumOnly
	if req.Status != "" {
		p.Status = req.Status
	}
	if err := h.store.Save(ctx, p); err != nil {
		apierr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		apierr.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Approve(c *gin.Context) {
	h.setStatus(c, properties.StatusPublished)
}

func (h *Handler) Reject(c *gin.Context) {
	h.setStatus(c, properties.StatusRejected)
}

func (h *Handler) setStatus(c *gin.Context, status string) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.store.SetStatus(c.Request.Context(), id, status); err != nil {
		apierr.FromError(c, err)
		return
	}
	h.log.Info().Uint("property_id", id).Str("status", status).Msg("property status changed")
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}
