package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobStatus string

const (
	StatusOpen               JobStatus = "open"
	StatusAccepted           JobStatus = "accepted"
	StatusReturned           JobStatus = "returned"
	StatusCompleted          JobStatus = "completed"
	StatusPendingTranslation JobStatus = "pending_translation"
)

type PremiumService string

const (
	PremiumTranslation PremiumService = "translation"
	PremiumVoiceOver   PremiumService = "voice_over"
)

type Job struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"requester_id"`
	Language       string          `gorm:"type:text;not null" json:"language"`
	SourceLanguage *string         `gorm:"type:text" json:"source_language,omitempty"`
	TargetLanguage *string         `gorm:"type:text" json:"target_language,omitempty"`
	IsPremium      bool            `gorm:"not null;default:false" json:"is_premium"`
	PremiumService *PremiumService `gorm:"type:text" json:"premium_service,omitempty"`
	PaymentAmount  float64         `gorm:"type:decimal(10,2);not null" json:"payment_amount"`
	Status         JobStatus       `gorm:"type:text;not null;index" json:"status"`
	FileID         uuid.UUID       `gorm:"type:uuid;not null" json:"file_id"`
	ReturnedFileID *uuid.UUID      `gorm:"type:uuid" json:"returned_file_id"`
	AcceptedBy     *uuid.UUID      `gorm:"type:uuid;index" json:"accepted_by"`
	AcceptedAt     *time.Time      `json:"accepted_at"`
	DueDate        *time.Time      `json:"due_date"`
	ReturnedAt     *time.Time      `json:"returned_at"`
	Rating         *int            `json:"rating"`
	Attempts       int             `gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Relations
	File         *SharedFile `gorm:"foreignKey:FileID" json:"file,omitempty"`
	ReturnedFile *SharedFile `gorm:"foreignKey:ReturnedFileID" json:"returned_file,omitempty"`
	Acceptor     *Profile    `gorm:"foreignKey:AcceptedBy" json:"acceptor,omitempty"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
