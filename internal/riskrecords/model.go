package riskrecords

import (
	"time"

	"labrisk-backend/internal/features"
)

// RiskRecord is one screened lab report: the stored document's metadata, the
// extracted text, the parsed features, the predicted risk label, and the
// admin-managed review status.
type RiskRecord struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	FileName   string          `json:"fileName"`
	MimeType   string          `json:"mimeType"`
	SizeBytes  int64           `json:"sizeBytes"`
	StorageKey string          `json:"-"`
	RawText    string          `json:"rawText"`
	Features   features.Vector `json:"features"`
	RiskLabel  string          `json:"riskLabel"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AdminRecord is a RiskRecord with the owning user's identity attached, for
// the admin listing.
type AdminRecord struct {
	RiskRecord
	OwnerName  string `json:"ownerName"`
	OwnerEmail string `json:"ownerEmail"`
}
