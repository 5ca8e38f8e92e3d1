package models

import (
	"time"

	"github.com/google/uuid"
)

// DividendEvent is one dividend line parsed out of an upstream history table.
// Date carries no time-of-day (midnight UTC). Amount keeps the upstream
// currency formatting verbatim; it is never parsed to a number.
type DividendEvent struct {
	Date   time.Time `json:"date"`
	Amount string    `json:"amount"`
}

// DividendRecord is a persisted dividend. The (CompanyID, Date) pair is unique:
// at most one record per company per date, enforced by the store schema.
type DividendRecord struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:uuid;not null"`
	Date      time.Time `json:"date" gorm:"not null"`
	Amount    string    `json:"amount" gorm:"type:varchar(32);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"default:CURRENT_TIMESTAMP"`
}

// Event converts a persisted record back to its wire-level event shape.
func (r DividendRecord) Event() DividendEvent {
	return DividendEvent{Date: r.Date, Amount: r.Amount}
}

// ScrapedResult pairs a company with its full dividend history as last
// scraped or as last materialized from the store. It is ephemeral: produced,
// consumed, then discarded (or held briefly by the read cache).
type ScrapedResult struct {
	Company   Company         `json:"company"`
	Dividends []DividendEvent `json:"dividends"`
}
