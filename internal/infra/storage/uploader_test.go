package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2025, 7, 4, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "kyc/2025/07/04/abc.pdf", ObjectKey("/kyc/", at, "abc", ".pdf"))
}

func TestNewUploaderValidates(t *testing.T) {
	_, err := NewUploader(Config{Region: "ap-southeast-1", AccessKey: "a", SecretKey: "s"})
	assert.Error(t, err)

	_, err = NewUploader(Config{Bucket: "kyc", AccessKey: "a", SecretKey: "s"})
	assert.Error(t, err)

	u, err := NewUploader(Config{Bucket: "kyc", Region: "ap-southeast-1", AccessKey: "a", SecretKey: "s"})
	assert.NoError(t, err)
	assert.NotNil(t, u)
}
