package leads

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/app/http/middleware"
	"bali-advisory/internal/domain/leads"
)

type Service interface {
	Submit(ctx context.Context, l leads.Lead) (*leads.Lead, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	List(ctx context.Context, status string, limit, offset int) ([]leads.Lead, int64, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type submitRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Budget     string `json:"budget"`
	Sector     string `json:"sector"`
	Source     string `json:"source"`
	Message    string `json:"message" binding:"max=5000"`
	PropertyID *uint  `json:"property_id"`
	Locale     string `json:"locale" binding:"omitempty,max=5"`
}

// Submit handles POST /leads. CRM sync and notifications run as jobs, so the
// response does not depend on them.
func (h *Handler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "name and a valid email are required")
		return
	}

	lead := leads.Lead{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Budget:     req.Budget,
		Sector:     req.Sector,
		Source:     req.Source,
		Message:    req.Message,
		PropertyID: req.PropertyID,
		Locale:     req.Locale,
	}
	if id := middleware.UserID(c); id != 0 {
		lead.UserID = &id
	}

	saved, err := h.svc.Submit(c.Request.Context(), lead)
	if err != nil {
		apierr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "lead_id": saved.ID})
}

// List handles GET /admin/leads?status=&limit=&offset=
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, total, err := h.svc.List(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		apierr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": items, "total": total})
}

// UpdateStatus handles PATCH /admin/leads/:id
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierr.BadRequest(c, "invalid lead id")
		return
	}
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.BadRequest(c, "status is required")
		return
	}

	if err := h.svc.UpdateStatus(c.Request.Context(), uint(id), body.Status); err != nil {
		apierr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
