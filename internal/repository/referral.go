package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spinloot_backend/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type referralRow struct {
	ID               uuid.UUID  `db:"id"`
	ReferrerID       uuid.UUID  `db:"referrer_id"`
	ReferredID       uuid.UUID  `db:"referred_id"`
	ReferralCode     string     `db:"referral_code"`
	Status           string     `db:"status"`
	ReferrerEarnings int        `db:"referrer_earnings"`
	ReferredBonus    int        `db:"referred_bonus"`
	Source           string     `db:"source"`
	Metadata         []byte     `db:"metadata"`
	ActivationDate   *time.Time `db:"activation_date"`
	CompletionDate   *time.Time `db:"completion_date"`
	CreatedAt        time.Time  `db:"created_at"`
}

func (row *referralRow) toModel() (*model.Referral, error) {
	ref := &model.Referral{
		ID:               row.ID,
		ReferrerID:       row.ReferrerID,
		ReferredID:       row.ReferredID,
		ReferralCode:     row.ReferralCode,
		Status:           model.ReferralStatus(row.Status),
		ReferrerEarnings: row.ReferrerEarnings,
		ReferredBonus:    row.ReferredBonus,
		Source:           model.ReferralSource(row.Source),
		ActivationDate:   row.ActivationDate,
		CompletionDate:   row.CompletionDate,
		CreatedAt:        row.CreatedAt,
	}
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &ref.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode referral metadata: %w", err)
		}
	}
	return ref, nil
}

// CreateReferral inserts the relationship record. The table carries a
// unique constraint on (referrer_id, referred_id); a duplicate pair
// surfaces as ErrReferralExists.
func (r *Repository) CreateReferral(ctx context.Context, ref *model.Referral) error {
	metadata, err := json.Marshal(ref.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode referral metadata: %w", err)
	}

	query, args, err := squirrel.
		Insert("referrals").
		SetMap(map[string]interface{}{
			"id":                ref.ID,
			"referrer_id":       ref.ReferrerID,
			"referred_id":       ref.ReferredID,
			"referral_code":     ref.ReferralCode,
			"status":            string(ref.Status),
			"referrer_earnings": ref.ReferrerEarnings,
			"referred_bonus":    ref.ReferredBonus,
			"source":            string(ref.Source),
			"metadata":          metadata,
			"created_at":        ref.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build referral insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrReferralExists
		}
		return fmt.Errorf("failed to insert referral: %w", err)
	}

	return nil
}

// UpdateReferralStatus moves a referral through its lifecycle and stamps
// the matching date column.
func (r *Repository) UpdateReferralStatus(ctx context.Context, id uuid.UUID, status model.ReferralStatus, at time.Time) error {
	builder := squirrel.
		Update("referrals").
		Set("status", string(status)).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	switch status {
	case model.ReferralActive:
		builder = builder.Set("activation_date", at)
	case model.ReferralCompleted:
		builder = builder.Set("completion_date", at)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// GetReferralsByUser lists a user's referrals joined with the referred
// user's public fields, newest first. Status filters when non-empty.
func (r *Repository) GetReferralsByUser(ctx context.Context, referrerID uuid.UUID, status model.ReferralStatus) ([]*model.ReferralListEntry, error) {
	builder := squirrel.
		Select(
			"r.id", "r.referrer_id", "r.referred_id", "r.referral_code",
			"r.status", "r.referrer_earnings", "r.referred_bonus",
			"r.source", "r.metadata", "r.activation_date",
			"r.completion_date", "r.created_at",
			"u.wallet_address AS referred_wallet",
			"u.display_name AS referred_display_name",
			"u.avatar AS referred_avatar",
			"u.registration_date AS referred_joined_at",
		).
		From("referrals r").
		Join("users u ON u.id = r.referred_id").
		Where(squirrel.Eq{"r.referrer_id": referrerID}).
		OrderBy("r.created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if status != "" {
		builder = builder.Where(squirrel.Eq{"r.status": string(status)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		referralRow
		ReferredWallet      string    `db:"referred_wallet"`
		ReferredDisplayName string    `db:"referred_display_name"`
		ReferredAvatar      string    `db:"referred_avatar"`
		ReferredJoinedAt    time.Time `db:"referred_joined_at"`
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}

	entries := make([]*model.ReferralListEntry, len(rows))
	for i := range rows {
		ref, err := rows[i].referralRow.toModel()
		if err != nil {
			return nil, err
		}
		entries[i] = &model.ReferralListEntry{
			Referral:            *ref,
			ReferredWallet:      rows[i].ReferredWallet,
			ReferredDisplayName: rows[i].ReferredDisplayName,
			ReferredAvatar:      rows[i].ReferredAvatar,
			ReferredJoinedAt:    rows[i].ReferredJoinedAt,
		}
	}

	return entries, nil
}

// GetReferralStatusCounts groups a user's referrals by status.
func (r *Repository) GetReferralStatusCounts(ctx context.Context, referrerID uuid.UUID) (map[model.ReferralStatus]int, error) {
	query, args, err := squirrel.
		Select("status", "COUNT(*) AS count").
		From("referrals").
		Where(squirrel.Eq{"referrer_id": referrerID}).
		GroupBy("status").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ReferralStatus]int, len(rows))
	for _, row := range rows {
		counts[model.ReferralStatus(row.Status)] = row.Count
	}

	return counts, nil
}

// CountReferralsSince counts a user's referrals created at or after the
// given instant, used for the this-month stat.
func (r *Repository) CountReferralsSince(ctx context.Context, referrerID uuid.UUID, since time.Time) (int, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From("referrals").
		Where(squirrel.Eq{"referrer_id": referrerID}).
		Where(squirrel.GtOrEq{"created_at": since}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		return 0, err
	}

	return count, nil
}
