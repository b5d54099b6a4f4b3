// Package sqlite stores user data in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"zenbudget/internal/core"
	"zenbudget/internal/store"
)

type Repository struct {
	db *sql.DB
}

var _ store.Repository = (*Repository)(nil)

// New opens (creating if needed) the database at dbPath and migrates it.
func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	slog.Info("SQLite repository ready", "path", dbPath)
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) CreateProfile(ctx context.Context, u core.User) (bool, error) {
	if u.UID == "" {
		return false, core.ErrEmptyUID
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (uid, display_name, email) VALUES (?, ?, ?) ON CONFLICT(uid) DO NOTHING`,
		u.UID, u.DisplayName, u.Email)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	for _, c := range core.DefaultCategories() {
		c.ID = uuid.NewString()
		if err := insertCategory(ctx, tx, u.UID, c); err != nil {
			return false, fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit profile: %w", err)
	}
	return true, nil
}

func (r *Repository) GetProfile(ctx context.Context, uid string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT uid, display_name, email FROM users WHERE uid = ?`, uid).
		Scan(&u.UID, &u.DisplayName, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("profile %s: %w", uid, store.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get profile: %w", err)
	}
	return u, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, uid, displayName string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET display_name = ? WHERE uid = ?`, displayName, uid)
	return affected(res, err, "profile", uid)
}

func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT uid FROM users ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, uid)
	}
	return out, rows.Err()
}

func (r *Repository) AddTransaction(ctx context.Context, uid string, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, uid, amount_cents, occurred_at, category_id, description, type, is_recurring, frequency, recurrence_of)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, uid, t.Amount.Cents, formatTime(t.Date), t.CategoryID, t.Description,
		string(t.Type), t.IsRecurring, string(t.Frequency), t.RecurrenceOf)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, uid string, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET
			amount_cents = ?, occurred_at = ?, category_id = ?, description = ?,
			type = ?, is_recurring = ?, frequency = ?, recurrence_of = ?
		WHERE id = ? AND uid = ?`,
		t.Amount.Cents, formatTime(t.Date), t.CategoryID, t.Description,
		string(t.Type), t.IsRecurring, string(t.Frequency), t.RecurrenceOf, t.ID, uid)
	return affected(res, err, "transaction", t.ID)
}

func (r *Repository) DeleteTransaction(ctx context.Context, uid, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND uid = ?`, id, uid)
	return affected(res, err, "transaction", id)
}

func (r *Repository) ListTransactions(ctx context.Context, uid string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, occurred_at, category_id, description, type, is_recurring, frequency, recurrence_of
		FROM transactions WHERE uid = ? ORDER BY occurred_at DESC, rowid`, uid)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			t         core.Transaction
			occurred  string
			typ, freq string
		)
		if err := rows.Scan(&t.ID, &t.Amount.Cents, &occurred, &t.CategoryID, &t.Description,
			&typ, &t.IsRecurring, &freq, &t.RecurrenceOf); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = time.Parse(time.RFC3339Nano, occurred); err != nil {
			return nil, fmt.Errorf("parse date of transaction %s: %w", t.ID, err)
		}
		t.Type = core.TransactionType(typ)
		t.Frequency = core.Frequency(freq)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) AddCategory(ctx context.Context, uid string, c core.Category) (core.Category, error) {
	c.ID = uuid.NewString()
	if err := insertCategory(ctx, r.db, uid, c); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertCategory(ctx context.Context, db execer, uid string, c core.Category) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO categories (id, uid, name, color, icon, type, budget_limit_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, uid, c.Name, c.Color, string(c.Icon), string(c.Type), limitValue(c.BudgetLimit))
	return err
}

func (r *Repository) UpdateCategory(ctx context.Context, uid string, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, color = ?, icon = ?, type = ?, budget_limit_cents = ?
		WHERE id = ? AND uid = ?`,
		c.Name, c.Color, string(c.Icon), string(c.Type), limitValue(c.BudgetLimit), c.ID, uid)
	return affected(res, err, "category", c.ID)
}

func (r *Repository) DeleteCategory(ctx context.Context, uid, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND uid = ?`, id, uid)
	return affected(res, err, "category", id)
}

func (r *Repository) ListCategories(ctx context.Context, uid string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, color, icon, type, budget_limit_cents
		FROM categories WHERE uid = ? ORDER BY rowid`, uid)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var (
			c         core.Category
			icon, typ string
			limit     sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &icon, &typ, &limit); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Icon = core.ParseIcon(icon)
		c.Type = core.TransactionType(typ)
		if limit.Valid {
			c.BudgetLimit = &core.Money{Cents: limit.Int64}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateCredential(ctx context.Context, c store.Credential) error {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (email, uid, password_hash) VALUES (?, ?, ?) ON CONFLICT(email) DO NOTHING`,
		email, c.UID, c.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("credential %s: %w", email, store.ErrAlreadyExists)
	}
	return nil
}

func (r *Repository) GetCredential(ctx context.Context, email string) (store.Credential, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var c store.Credential
	err := r.db.QueryRowContext(ctx,
		`SELECT email, uid, password_hash FROM credentials WHERE email = ?`, email).
		Scan(&c.Email, &c.UID, &c.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Credential{}, fmt.Errorf("credential %s: %w", email, store.ErrNotFound)
	}
	if err != nil {
		return store.Credential{}, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

func affected(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func limitValue(m *core.Money) any {
	if m == nil || m.Cents <= 0 {
		return nil
	}
	return m.Cents
}
