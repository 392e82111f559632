package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"contactfinder/internal/model"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// Store is the durable ledger: accounts plus an append-only search history
// in PostgreSQL. Balance mutations go through single conditional statements,
// so per-user serialization is enforced by the database row, not by locks
// held in this process.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetAccount(ctx context.Context, userID string) (*model.Account, error) {
	var acc model.Account
	err := s.db.QueryRow(ctx, `
SELECT user_id, display_name, credits, total_searches, successful_searches, created_at
FROM accounts
WHERE user_id = $1
`, userID).Scan(&acc.UserID, &acc.DisplayName, &acc.Credits,
		&acc.TotalSearches, &acc.SuccessfulSearches, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acc, nil
}

func (s *Store) CreateAccount(ctx context.Context, userID, displayName string, startingCredits int64) (*model.Account, error) {
	var acc model.Account
	err := s.db.QueryRow(ctx, `
INSERT INTO accounts (user_id, display_name, credits)
VALUES ($1, $2, $3)
RETURNING user_id, display_name, credits, total_searches, successful_searches, created_at
`, userID, displayName, startingCredits).Scan(&acc.UserID, &acc.DisplayName, &acc.Credits,
		&acc.TotalSearches, &acc.SuccessfulSearches, &acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &acc, nil
}

func (s *Store) AdjustCredits(ctx context.Context, userID string, delta int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `
UPDATE accounts
SET credits = credits + $2
WHERE user_id = $1
RETURNING credits
`, userID, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("adjust credits: %w", err)
	}
	return balance, nil
}

// ReserveCredits decrements the balance only if it covers the cost. The
// check and the decrement are one statement, so two concurrent reservations
// can never both succeed on the last credit.
func (s *Store) ReserveCredits(ctx context.Context, userID string, cost int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `
UPDATE accounts
SET credits = credits - $2
WHERE user_id = $1 AND credits >= $2
RETURNING credits
`, userID, cost).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, gerr := s.GetAccount(ctx, userID); gerr != nil {
				return 0, gerr
			}
			return 0, ErrInsufficientCredits
		}
		return 0, fmt.Errorf("reserve credits: %w", err)
	}
	return balance, nil
}

// AppendSearchRecord inserts the record and bumps the owning account's
// counters in the same transaction, keeping the counters equal to the
// history row counts at all times.
func (s *Store) AppendSearchRecord(ctx context.Context, rec *model.SearchRecord) (int64, error) {
	var id int64
	err := withTx(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
INSERT INTO search_history (user_id, query, result_label, contact_value, found)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at
`, rec.UserID, rec.Query, rec.ResultLabel, rec.ContactValue, rec.Found).Scan(&id, &rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert search record: %w", err)
		}

		tag, err := tx.Exec(ctx, `
UPDATE accounts
SET total_searches = total_searches + 1,
    successful_searches = successful_searches + CASE WHEN $2 THEN 1 ELSE 0 END
WHERE user_id = $1
`, rec.UserID, rec.Found)
		if err != nil {
			return fmt.Errorf("bump search counters: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrAccountNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	rec.ID = id
	return id, nil
}

func (s *Store) RecentSearches(ctx context.Context, userID string, limit int) ([]model.SearchRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx, `
SELECT id, user_id, query, result_label, contact_value, found, created_at
FROM search_history
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent searches: %w", err)
	}
	defer rows.Close()

	var records []model.SearchRecord
	for rows.Next() {
		var rec model.SearchRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Query, &rec.ResultLabel,
			&rec.ContactValue, &rec.Found, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
