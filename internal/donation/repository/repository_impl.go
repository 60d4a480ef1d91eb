package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/dunamis-edu/dunamis/internal/donation/domain"
	pkgdb "github.com/dunamis-edu/dunamis/pkg/db"
	"github.com/dunamis-edu/dunamis/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, donation *domain.Donation) error {
	err := db.WithContext(ctx).Exec(
		`INSERT INTO donations (
			id, amount, currency, donor_name, donor_email, purpose,
			external_reference, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		donation.ID,
		donation.Amount,
		donation.Currency,
		donation.DonorName,
		donation.DonorEmail,
		donation.Purpose,
		donation.ExternalReference,
		donation.Status,
		donation.CreatedAt,
		donation.UpdatedAt,
	).Error
	if pkgdb.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicateReference
	}
	return err
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, externalReference string) (*domain.Donation, error) {
	var item domain.Donation
	err := db.WithContext(ctx).Raw(
		`SELECT id, amount, currency, donor_name, donor_email, purpose,
			external_reference, status, created_at, updated_at
		 FROM donations
		 WHERE external_reference = ?
		 LIMIT 1`,
		externalReference,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) MarkCompleted(ctx context.Context, db *gorm.DB, externalReference string, updatedAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE donations
		 SET status = ?, updated_at = ?
		 WHERE external_reference = ? AND status = ?`,
		domain.StatusCompleted,
		updatedAt,
		externalReference,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, cursor *pagination.Cursor, limit int) ([]domain.Donation, error) {
	query := `SELECT id, amount, currency, donor_name, donor_email, purpose,
			external_reference, status, created_at, updated_at
		 FROM donations`
	args := []interface{}{}

	if cursor != nil {
		// Bind as native types so the comparison behaves the same on
		// every dialect regardless of how timestamps are stored.
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		query += ` WHERE created_at < ? OR (created_at = ? AND id < ?)`
		args = append(args, createdAt, createdAt, id)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var items []domain.Donation
	err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
