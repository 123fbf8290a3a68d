package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded resume together with the text extracted from it.
type Document struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OriginalFileName string    `gorm:"type:text" json:"original_filename"`
	FileType         string    `gorm:"type:text" json:"file_type"`
	StorageKey       string    `gorm:"type:text" json:"storage_key"`
	SizeBytes        int64     `json:"size_bytes"`
	ExtractedText    string    `gorm:"type:text" json:"extracted_text"`
	ResumeAnalysis   string    `gorm:"type:text" json:"resume_analysis"`
	CreatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}
