package models

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is the persisted outcome of one resume analysis.
type Analysis struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OriginalFilename string    `gorm:"type:text;not null" json:"original_filename"`
	JobDescription   string    `gorm:"type:text;not null" json:"job_description"`
	ParsedContent    string    `gorm:"type:text;not null" json:"parsed_content"`
	ATSScore         int       `gorm:"not null" json:"ats_score"`
	MatchSummary     string    `gorm:"type:text" json:"match_summary"`
	Recommendations  []string  `gorm:"type:jsonb;serializer:json" json:"recommendations"`
	StorageKey       string    `gorm:"type:text" json:"storage_key,omitempty"`
	CreatedAt        time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (Analysis) TableName() string {
	return "analyses"
}
