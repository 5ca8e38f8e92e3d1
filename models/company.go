package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is a tracked company. Ticker is the stable external key used for
// creation and deletion; Name is scraped from the summary page and is what the
// read cache and the autocomplete index are keyed by.
type Company struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Ticker string    `json:"ticker" gorm:"type:varchar(20);not null;uniqueIndex"`
	Name   string    `json:"name" gorm:"type:varchar(255);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"default:CURRENT_TIMESTAMP"`
}

// CompanyPage is one page of a company listing ordered by name.
type CompanyPage struct {
	Companies  []Company `json:"companies"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
}
