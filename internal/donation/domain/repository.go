package domain

import (
	"context"
	"time"

	"github.com/dunamis-edu/dunamis/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, donation *Donation) error
	FindByReference(ctx context.Context, db *gorm.DB, externalReference string) (*Donation, error)

	// MarkCompleted is a single conditional update: it flips status to
	// completed only where the reference matches AND status is still
	// pending, so concurrent duplicate deliveries settle to exactly one
	// transition. It reports whether a row changed.
	MarkCompleted(ctx context.Context, db *gorm.DB, externalReference string, updatedAt time.Time) (bool, error)

	// List returns up to limit donations newest first, starting after
	// cursor when one is given. Callers pass limit+1 to detect more pages.
	List(ctx context.Context, db *gorm.DB, cursor *pagination.Cursor, limit int) ([]Donation, error)
}
