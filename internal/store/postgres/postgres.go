// Package postgres stores user data in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"zenbudget/internal/core"
	"zenbudget/internal/store"
)

type Repository struct {
	pool *pgxpool.Pool
}

var _ store.Repository = (*Repository)(nil)

// New migrates the database at url and opens a connection pool.
func New(ctx context.Context, url string) (*Repository, error) {
	if err := RunMigrations(url); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) CreateProfile(ctx context.Context, u core.User) (bool, error) {
	if u.UID == "" {
		return false, core.ErrEmptyUID
	}
	created := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO users (uid, display_name, email) VALUES ($1, $2, $3) ON CONFLICT (uid) DO NOTHING`,
			u.UID, u.DisplayName, u.Email)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, c := range core.DefaultCategories() {
			c.ID = uuid.NewString()
			batch.Queue(insertCategorySQL, c.ID, u.UID, c.Name, c.Color, string(c.Icon), string(c.Type), limitValue(c.BudgetLimit))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *Repository) GetProfile(ctx context.Context, uid string) (core.User, error) {
	var u core.User
	err := r.pool.QueryRow(ctx, `SELECT uid, display_name, email FROM users WHERE uid = $1`, uid).
		Scan(&u.UID, &u.DisplayName, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, fmt.Errorf("profile %s: %w", uid, store.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get profile: %w", err)
	}
	return u, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, uid, displayName string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET display_name = $1 WHERE uid = $2`, displayName, uid)
	return affected(tag, err, "profile", uid)
}

func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT uid FROM users ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *Repository) AddTransaction(ctx context.Context, uid string, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions
			(id, uid, amount_cents, occurred_at, category_id, description, type, is_recurring, frequency, recurrence_of)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, uid, t.Amount.Cents, t.Date, t.CategoryID, t.Description,
		string(t.Type), t.IsRecurring, string(t.Frequency), t.RecurrenceOf)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, uid string, t core.Transaction) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions SET
			amount_cents = $1, occurred_at = $2, category_id = $3, description = $4,
			type = $5, is_recurring = $6, frequency = $7, recurrence_of = $8
		WHERE id = $9 AND uid = $10`,
		t.Amount.Cents, t.Date, t.CategoryID, t.Description,
		string(t.Type), t.IsRecurring, string(t.Frequency), t.RecurrenceOf, t.ID, uid)
	return affected(tag, err, "transaction", t.ID)
}

func (r *Repository) DeleteTransaction(ctx context.Context, uid, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND uid = $2`, id, uid)
	return affected(tag, err, "transaction", id)
}

func (r *Repository) ListTransactions(ctx context.Context, uid string) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, amount_cents, occurred_at, category_id, description, type, is_recurring, frequency, recurrence_of
		FROM transactions WHERE uid = $1 ORDER BY occurred_at DESC, seq`, uid)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Transaction, error) {
		var (
			t         core.Transaction
			typ, freq string
		)
		err := row.Scan(&t.ID, &t.Amount.Cents, &t.Date, &t.CategoryID, &t.Description,
			&typ, &t.IsRecurring, &freq, &t.RecurrenceOf)
		t.Type = core.TransactionType(typ)
		t.Frequency = core.Frequency(freq)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return out, nil
}

const insertCategorySQL = `
	INSERT INTO categories (id, uid, name, color, icon, type, budget_limit_cents)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (r *Repository) AddCategory(ctx context.Context, uid string, c core.Category) (core.Category, error) {
	c.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx, insertCategorySQL,
		c.ID, uid, c.Name, c.Color, string(c.Icon), string(c.Type), limitValue(c.BudgetLimit))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, uid string, c core.Category) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET name = $1, color = $2, icon = $3, type = $4, budget_limit_cents = $5
		WHERE id = $6 AND uid = $7`,
		c.Name, c.Color, string(c.Icon), string(c.Type), limitValue(c.BudgetLimit), c.ID, uid)
	return affected(tag, err, "category", c.ID)
}

func (r *Repository) DeleteCategory(ctx context.Context, uid, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND uid = $2`, id, uid)
	return affected(tag, err, "category", id)
}

func (r *Repository) ListCategories(ctx context.Context, uid string) ([]core.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, color, icon, type, budget_limit_cents
		FROM categories WHERE uid = $1 ORDER BY seq`, uid)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Category, error) {
		var (
			c         core.Category
			icon, typ string
			limit     *int64
		)
		err := row.Scan(&c.ID, &c.Name, &c.Color, &icon, &typ, &limit)
		c.Icon = core.ParseIcon(icon)
		c.Type = core.TransactionType(typ)
		if limit != nil {
			c.BudgetLimit = &core.Money{Cents: *limit}
		}
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return out, nil
}

func (r *Repository) CreateCredential(ctx context.Context, c store.Credential) error {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	_, err := r.pool.Exec(ctx,
		`INSERT INTO credentials (email, uid, password_hash) VALUES ($1, $2, $3)`,
		email, c.UID, c.PasswordHash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("credential %s: %w", email, store.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *Repository) GetCredential(ctx context.Context, email string) (store.Credential, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var c store.Credential
	err := r.pool.QueryRow(ctx,
		`SELECT email, uid, password_hash FROM credentials WHERE email = $1`, email).
		Scan(&c.Email, &c.UID, &c.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Credential{}, fmt.Errorf("credential %s: %w", email, store.ErrNotFound)
	}
	if err != nil {
		return store.Credential{}, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

func affected(tag pgconn.CommandTag, err error, kind, id string) error {
	if err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func limitValue(m *core.Money) *int64 {
	if m == nil || m.Cents <= 0 {
		return nil
	}
	v := m.Cents
	return &v
}
