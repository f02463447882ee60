package kyc

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/app/http/middleware"
	"bali-advisory/internal/domain/kyc"
	"bali-advisory/internal/domain/users"
	"bali-advisory/internal/infra/storage"
)

const keyPrefix = "kyc"

type Uploader interface {
	Upload(ctx context.Context, prefix string, data []byte, contentType, ext string) (storage.Object, error)
}

type DocumentStore interface {
	Create(ctx context.Context, d *kyc.Document) error
	ListByUser(ctx context.Context, userID uint) ([]kyc.Document, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*users.User, error)
}

type Events interface {
	KYCRequest(ctx context.Context, email, name string)
}

type Handler struct {
	uploader Uploader
	docs     DocumentStore
	users    UserFinder
	events   Events
	log      zerolog.Logger
}

// NewHandler accepts a nil uploader; uploads then answer 503.
func NewHandler(uploader Uploader, docs DocumentStore, u UserFinder, events Events, log zerolog.Logger) *Handler {
	return &Handler{
		uploader: uploader,
		docs:     docs,
		users:    u,
		events:   events,
		log:      log.With().Str("component", "kyc_api").Logger(),
	}
}

// Upload handles POST /kyc/documents (multipart: file, kind). The content type
// is sniffed from the bytes, not taken from the client.
func (h *Handler) Upload(c *gin.Context) {
	if h.uploader == nil {
		apierr.JSON(c, http.StatusServiceUnavailable, apierr.CodeUnavailable, "document storage is not configured")
		return
	}

	// room for the multipart envelope around the file
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, kyc.MaxDocumentBytes+(1<<20))

	kind := c.PostForm("kind")
	if !kyc.ValidKind(kind) {
		apierr.BadRequest(c, "kind must be one of passport, ktp, npwp, proof_of_funds")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		apierr.BadRequest(c, "file is required (max 10 MB)")
		return
	}
	if fh.Size > kyc.MaxDocumentBytes {
		apierr.JSON(c, http.StatusRequestEntityTooLarge, apierr.CodeBadRequest, "file exceeds 10 MB")
		return
	}

	f, err := fh.Open()
	if err != nil {
		apierr.BadRequest(c, "unable to read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, kyc.MaxDocumentBytes+1))
	if err != nil {
		apierr.BadRequest(c, "unable to read file")
		return
	}
	if int64(len(data)) > kyc.MaxDocumentBytes {
		apierr.JSON(c, http.StatusRequestEntityTooLarge, apierr.CodeBadRequest, "file exceeds 10 MB")
		return
	}

	contentType := http.DetectContentType(data)
	ext, ok := kyc.AllowedContentTypes[contentType]
	if !ok {
		apierr.JSON(c, http.StatusUnsupportedMediaType, apierr.CodeBadRequest, "only PDF, JPEG and PNG files are accepted")
		return
	}

	userID := middleware.UserID(c)
	ctx := c.Request.Context()
	obj, err := h.uploader.Upload(ctx, keyPrefix, data, contentType, ext)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("kyc upload failed")
		apierr.JSON(c, http.StatusBadGateway, apierr.CodeInternal, "upload failed")
		return
	}

	doc := kyc.Document{
		UserID:      userID,
		Kind:        kind,
		StorageKey:  obj.Key,
		URL:         obj.URL,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}
	if err := h.docs.Create(ctx, &doc); err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Str("key", obj.Key).Msg("store kyc document row failed")
		apierr.Internal(c, "failed to record document")
		return
	}

	h.log.Info().Uint("user_id", userID).Str("kind", kind).Str("key", obj.Key).Msg("kyc document stored")
	c.JSON(http.StatusCreated, doc)
}

// List handles GET /kyc/documents.
func (h *Handler) List(c *gin.Context) {
	docs, err := h.docs.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		apierr.Internal(c, "failed to load documents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// AdminList handles GET /admin/users/:id/kyc-documents.
func (h *Handler) AdminList(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierr.BadRequest(c, "invalid user id")
		return
	}
	docs, err := h.docs.ListByUser(c.Request.Context(), uint(id))
	if err != nil {
		apierr.Internal(c, "failed to load documents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// RequestDocuments handles POST /admin/users/:id/kyc-request.
func (h *Handler) RequestDocuments(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierr.BadRequest(c, "invalid user id")
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.FindByID(ctx, uint(id))
	if err != nil {
		apierr.FromError(c, err)
		return
	}
	h.events.KYCRequest(ctx, u.Email, u.DisplayName())
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}
