package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"bali-advisory/internal/api/apierr"
)

var strictPolicy = bluemonday.StrictPolicy()

// secretFields are passed through untouched; stripping markup from a password
// would change it.
var secretFields = map[string]bool{
	"password":     true,
	"old_password": true,
	"new_password": true,
	"token":        true,
}

// SanitizeInput strips markup from every string in a JSON body, nested objects
// and arrays included. Non-JSON bodies (multipart uploads) pass through.
func SanitizeInput() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}
		if !strings.HasPrefix(c.ContentType(), gin.MIMEJSON) || c.Request.Body == nil {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			apierr.Abort(c, http.StatusBadRequest, apierr.CodeBadRequest, "Invalid body")
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		var body interface{}
		if err := json.Unmarshal(buf, &body); err != nil {
			apierr.Abort(c, http.StatusBadRequest, apierr.CodeBadRequest, "Malformed JSON")
			return
		}

		newBody, err := json.Marshal(sanitizeValue("", body))
		if err != nil {
			apierr.Abort(c, http.StatusBadRequest, apierr.CodeBadRequest, "Malformed JSON")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(newBody))
		c.Request.ContentLength = int64(len(newBody))

		c.Next()
	}
}

func sanitizeValue(key string, v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		if secretFields[key] {
			return val
		}
		return strings.TrimSpace(strictPolicy.Sanitize(val))
	case map[string]interface{}:
		for k, inner := range val {
			val[k] = sanitizeValue(k, inner)
		}
		return val
	case []interface{}:
		for i, inner := range val {
			val[i] = sanitizeValue(key, inner)
		}
		return val
	default:
		return v
	}
}
