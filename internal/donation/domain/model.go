package domain

import (
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Defaults applied when the donor opts out of attribution.
const (
	DefaultDonorName  = "Anonymous"
	DefaultDonorEmail = "N/A"
	DefaultPurpose    = "General Fund"
)

// Donation is one donation attempt or outcome. Amounts are stored in
// major currency units; ExternalReference is either a processor checkout
// session id or a locally synthesized manual_ token, and is unique so a
// single external event can never produce two records.
type Donation struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	Amount            float64      `json:"amount" gorm:"not null"`
	Currency          string       `json:"currency" gorm:"type:text;not null"`
	DonorName         string       `json:"donor_name" gorm:"type:text;not null"`
	DonorEmail        string       `json:"donor_email" gorm:"type:text;not null"`
	Purpose           string       `json:"purpose" gorm:"type:text;not null"`
	ExternalReference string       `json:"external_reference" gorm:"type:text;not null;uniqueIndex"`
	Status            Status       `json:"status" gorm:"type:text;not null"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"not null"`
}

func (Donation) TableName() string { return "donations" }

// ToMinorUnits converts a major-unit amount to the processor's integer
// minor-unit representation. The amount is scaled by 100 and rounded to
// the nearest integer, halves away from zero on the scaled value.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
