package kyc

import "time"

const MaxDocumentBytes = 10 << 20

// AllowedContentTypes maps accepted upload types to the stored file extension.
var AllowedContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Kind        string    `gorm:"type:varchar(30);not null" json:"kind"` // passport, ktp, npwp, proof_of_funds
	StorageKey  string    `gorm:"not null" json:"-"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

func ValidKind(k string) bool {
	switch k {
	case "passport", "ktp", "npwp", "proof_of_funds":
		return true
	}
	return false
}
