package kyc

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bali-advisory/internal/app/http/middleware"
	"bali-advisory/internal/domain/kyc"
	"bali-advisory/internal/domain/users"
	"bali-advisory/internal/infra/storage"
	"bali-advisory/internal/repository"
)

const secret = "kyc-secret"

type memUploader struct {
	keys []string
}

func (m *memUploader) Upload(_ context.Context, prefix string, _ []byte, _, ext string) (storage.Object, error) {
	key := storage.ObjectKey(prefix, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), "doc", ext)
	m.keys = append(m.keys, key)
	return storage.Object{Key: key}, nil
}

type memDocs struct {
	docs []kyc.Document
}

func (m *memDocs) Create(_ context.Context, d *kyc.Document) error {
	d.ID = uint(len(m.docs) + 1)
	m.docs = append(m.docs, *d)
	return nil
}

func (m *memDocs) ListByUser(_ context.Context, userID uint) ([]kyc.Document, error) {
	var out []kyc.Document
	for _, d := range m.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

type oneUser struct{}

func (oneUser) FindByID(_ context.Context, id uint) (*users.User, error) {
	if id != 3 {
		return nil, repository.ErrNotFound
	}
	return &users.User{ID: 3, Email: "client@example.com", Name: "Ketut"}, nil
}

type kycEvents struct {
	requested []string
}

func (e *kycEvents) KYCRequest(_ context.Context, email, _ string) {
	e.requested = append(e.requested, email)
}

func router(up Uploader, docs *memDocs, events *kycEvents) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(up, docs, oneUser{}, events, zerolog.Nop())
	r := gin.New()
	authed := r.Group("/", middleware.Auth(secret))
	authed.POST("/kyc/documents", h.Upload)
	authed.GET("/kyc/documents", h.List)
	r.POST("/admin/users/:id/kyc-request", h.RequestDocuments)
	return r
}

func upload(t *testing.T, r *gin.Engine, kind string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("kind", kind))
	fw, err := mw.CreateFormFile("file", "doc.bin")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	tok, err := middleware.IssueToken(secret, time.Hour, users.User{ID: 3})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/kyc/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadPDF(t *testing.T) {
	up := &memUploader{}
	docs := &memDocs{}
	r := router(up, docs, &kycEvents{})

	w := upload(t, r, "passport", []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.Len(t, docs.docs, 1)
	assert.Equal(t, "kyc/2026/03/09/doc.pdf", docs.docs[0].StorageKey)
	assert.Equal(t, "application/pdf", docs.docs[0].ContentType)
	assert.Equal(t, uint(3), docs.docs[0].UserID)
	assert.NotContains(t, w.Body.String(), "kyc/2026", "storage key is not exposed")
}

func TestUploadRejections(t *testing.T) {
	docs := &memDocs{}
	r := router(&memUploader{}, docs, &kycEvents{})

	assert.Equal(t, http.StatusBadRequest, upload(t, r, "selfie", []byte("%PDF-1.7")).Code)
	assert.Equal(t, http.StatusUnsupportedMediaType, upload(t, r, "ktp", []byte("MZ\x90\x00 not a document")).Code)

	big := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("a"), kyc.MaxDocumentBytes)...)
	w := upload(t, r, "npwp", big)
	assert.True(t, w.Code == http.StatusRequestEntityTooLarge || w.Code == http.StatusBadRequest, w.Code)
	assert.Empty(t, docs.docs)
}

func TestUploadWithoutStorage(t *testing.T) {
	r := router(nil, &memDocs{}, &kycEvents{})
	assert.Equal(t, http.StatusServiceUnavailable, upload(t, r, "passport", []byte("%PDF-1.7")).Code)
}

func TestRequestDocuments(t *testing.T) {
	events := &kycEvents{}
	r := router(&memUploader{}, &memDocs{}, events)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/users/3/kyc-request", strings.NewReader("")))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"client@example.com"}, events.requested)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/users/99/kyc-request", strings.NewReader("")))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
