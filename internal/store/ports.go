// Package store defines the remote store adapter: per-user profiles,
// transactions and categories, plus the credentials of password accounts.
package store

import (
	"context"
	"errors"

	"zenbudget/internal/core"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Ports for outbound adapters.
type (
	Profiles interface {
		// CreateProfile stores u if it does not exist yet and seeds the
		// default categories. It reports whether the profile was created.
		CreateProfile(ctx context.Context, u core.User) (created bool, err error)
		GetProfile(ctx context.Context, uid string) (core.User, error)
		UpdateProfile(ctx context.Context, uid, displayName string) error
	}

	Transactions interface {
		// AddTransaction assigns an ID and returns the stored transaction.
		AddTransaction(ctx context.Context, uid string, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, uid string, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, uid, id string) error
		ListTransactions(ctx context.Context, uid string) ([]core.Transaction, error)
	}

	Categories interface {
		AddCategory(ctx context.Context, uid string, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, uid string, c core.Category) error
		DeleteCategory(ctx context.Context, uid, id string) error
		ListCategories(ctx context.Context, uid string) ([]core.Category, error)
	}

	Users interface {
		ListUserIDs(ctx context.Context) ([]string, error)
	}

	Credentials interface {
		CreateCredential(ctx context.Context, c Credential) error
		GetCredential(ctx context.Context, email string) (Credential, error)
	}

	// Reader is the read side used by the change feed.
	Reader interface {
		ListTransactions(ctx context.Context, uid string) ([]core.Transaction, error)
		ListCategories(ctx context.Context, uid string) ([]core.Category, error)
	}

	Repository interface {
		Profiles
		Transactions
		Categories
		Users
		Credentials
		Close() error
	}
)

// Credential is a password account. Email is stored lower-cased.
type Credential struct {
	Email        string
	UID          string
	PasswordHash string
}
