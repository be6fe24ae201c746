package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"spinloot_backend/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// userRow mirrors the users table. The aggregate's owned collections
// (points history, completed tasks, referral grants) live in jsonb
// columns so a save is a single atomic row write.
type userRow struct {
	ID                    uuid.UUID  `db:"id"`
	WalletAddress         string     `db:"wallet_address"`
	DisplayName           string     `db:"display_name"`
	Email                 string     `db:"email"`
	Avatar                string     `db:"avatar"`
	Role                  string     `db:"role"`
	IsActive              bool       `db:"is_active"`
	LastLogin             *time.Time `db:"last_login"`
	ReferralCode          string     `db:"referral_code"`
	ReferredBy            *uuid.UUID `db:"referred_by"`
	ReferralCount         int        `db:"referral_count"`
	TotalReferralEarnings int        `db:"total_referral_earnings"`
	ReferredUsers         []byte     `db:"referred_users"`
	TotalPoints           int        `db:"total_points"`
	CurrentTier           string     `db:"current_tier"`
	PointsHistory         []byte     `db:"points_history"`
	CompletedTasks        []byte     `db:"completed_tasks"`
	LastSpinnerSpin       *time.Time `db:"last_spinner_spin"`
	SpinnerSpinsToday     int        `db:"spinner_spins_today"`
	RegistrationDate      time.Time  `db:"registration_date"`
	Version               int64      `db:"version"`
}

func (row *userRow) toModel() (*model.User, error) {
	u := &model.User{
		ID:                    row.ID,
		WalletAddress:         row.WalletAddress,
		DisplayName:           row.DisplayName,
		Email:                 row.Email,
		Avatar:                row.Avatar,
		Role:                  model.Role(row.Role),
		IsActive:              row.IsActive,
		LastLogin:             row.LastLogin,
		ReferralCode:          row.ReferralCode,
		ReferredBy:            row.ReferredBy,
		ReferralCount:         row.ReferralCount,
		TotalReferralEarnings: row.TotalReferralEarnings,
		TotalPoints:           row.TotalPoints,
		CurrentTier:           model.Tier(row.CurrentTier),
		LastSpinnerSpin:       row.LastSpinnerSpin,
		SpinnerSpinsToday:     row.SpinnerSpinsToday,
		RegistrationDate:      row.RegistrationDate,
		Version:               row.Version,
	}

	if err := json.Unmarshal(row.PointsHistory, &u.PointsHistory); err != nil {
		return nil, fmt.Errorf("failed to decode points history: %w", err)
	}
	if err := json.Unmarshal(row.CompletedTasks, &u.CompletedTasks); err != nil {
		return nil, fmt.Errorf("failed to decode completed tasks: %w", err)
	}
	if err := json.Unmarshal(row.ReferredUsers, &u.ReferredUsers); err != nil {
		return nil, fmt.Errorf("failed to decode referred users: %w", err)
	}
	if u.CompletedTasks == nil {
		u.CompletedTasks = make(map[string]*model.TaskCompletion)
	}

	return u, nil
}

func marshalAggregate(user *model.User) (history, tasks, referred []byte, err error) {
	if history, err = json.Marshal(user.PointsHistory); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode points history: %w", err)
	}
	if tasks, err = json.Marshal(user.CompletedTasks); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode completed tasks: %w", err)
	}
	if referred, err = json.Marshal(user.ReferredUsers); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode referred users: %w", err)
	}
	return history, tasks, referred, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	history, tasks, referred, err := marshalAggregate(user)
	if err != nil {
		return err
	}

	query, args, err := squirrel.
		Insert("users").
		SetMap(map[string]interface{}{
			"id":                      user.ID,
			"wallet_address":          user.WalletAddress,
			"display_name":            user.DisplayName,
			"email":                   user.Email,
			"avatar":                  user.Avatar,
			"role":                    string(user.Role),
			"is_active":               user.IsActive,
			"last_login":              user.LastLogin,
			"referral_code":           user.ReferralCode,
			"referred_by":             user.ReferredBy,
			"referral_count":          user.ReferralCount,
			"total_referral_earnings": user.TotalReferralEarnings,
			"referred_users":          referred,
			"total_points":            user.TotalPoints,
			"current_tier":            string(user.CurrentTier),
			"points_history":          history,
			"completed_tasks":         tasks,
			"last_spinner_spin":       user.LastSpinnerSpin,
			"spinner_spins_today":     user.SpinnerSpinsToday,
			"registration_date":       user.RegistrationDate,
			"version":                 1,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrWalletExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.Version = 1
	return nil
}

// SaveUser writes the full aggregate back, guarded by the version the
// aggregate was loaded with. A concurrent writer makes the conditional
// update match zero rows and the caller gets ErrVersionConflict.
func (r *Repository) SaveUser(ctx context.Context, user *model.User) error {
	history, tasks, referred, err := marshalAggregate(user)
	if err != nil {
		return err
	}

	query, args, err := squirrel.
		Update("users").
		SetMap(map[string]interface{}{
			"display_name":            user.DisplayName,
			"email":                   user.Email,
			"avatar":                  user.Avatar,
			"role":                    string(user.Role),
			"is_active":               user.IsActive,
			"last_login":              user.LastLogin,
			"referred_by":             user.ReferredBy,
			"referral_count":          user.ReferralCount,
			"total_referral_earnings": user.TotalReferralEarnings,
			"referred_users":          referred,
			"total_points":            user.TotalPoints,
			"current_tier":            string(user.CurrentTier),
			"points_history":          history,
			"completed_tasks":         tasks,
			"last_spinner_spin":       user.LastSpinnerSpin,
			"spinner_spins_today":     user.SpinnerSpinsToday,
			"version":                 user.Version + 1,
		}).
		Where(squirrel.Eq{"id": user.ID, "version": user.Version}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user update query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrVersionConflict
	}

	user.Version++
	return nil
}

func (r *Repository) getUserWhere(ctx context.Context, cond squirrel.Eq) (*model.User, error) {
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(cond).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row userRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel()
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getUserWhere(ctx, squirrel.Eq{"id": id})
}

func (r *Repository) GetUserByWalletAddress(ctx context.Context, walletAddress string) (*model.User, error) {
	return r.getUserWhere(ctx, squirrel.Eq{"wallet_address": strings.ToLower(walletAddress)})
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, referralCode string) (*model.User, error) {
	return r.getUserWhere(ctx, squirrel.Eq{"referral_code": strings.ToUpper(referralCode)})
}

// GetTopUsers is the repository fallback for the points leaderboard.
func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	query, args, err := squirrel.
		Select("*").
		From("users").
		OrderBy("total_points DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []userRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	users := make([]*model.User, len(rows))
	for i := range rows {
		users[i], err = rows[i].toModel()
		if err != nil {
			return nil, err
		}
	}

	return users, nil
}

// GetReferralLeaderboard lists users with at least one referral, most
// referrals first, earnings breaking ties.
func (r *Repository) GetReferralLeaderboard(ctx context.Context, limit, offset int) ([]*model.ReferralLeader, error) {
	query, args, err := squirrel.
		Select("id", "display_name", "wallet_address", "avatar", "referral_count", "total_referral_earnings").
		From("users").
		Where(squirrel.Gt{"referral_count": 0}).
		OrderBy("referral_count DESC", "total_referral_earnings DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID                    uuid.UUID `db:"id"`
		DisplayName           string    `db:"display_name"`
		WalletAddress         string    `db:"wallet_address"`
		Avatar                string    `db:"avatar"`
		ReferralCount         int       `db:"referral_count"`
		TotalReferralEarnings int       `db:"total_referral_earnings"`
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	leaders := make([]*model.ReferralLeader, len(rows))
	for i, row := range rows {
		leaders[i] = &model.ReferralLeader{
			UserID:                row.ID,
			DisplayName:           row.DisplayName,
			WalletAddress:         row.WalletAddress,
			Avatar:                row.Avatar,
			ReferralCount:         row.ReferralCount,
			TotalReferralEarnings: row.TotalReferralEarnings,
		}
	}

	return leaders, nil
}

func (r *Repository) CountReferrers(ctx context.Context) (int, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From("users").
		Where(squirrel.Gt{"referral_count": 0}).
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
