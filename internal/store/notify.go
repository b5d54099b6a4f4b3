package store

import (
	"context"
	"log/slog"

	"zenbudget/internal/core"
)

// Collection names a per-user collection that can change.
type Collection string

const (
	TransactionsCollection Collection = "transactions"
	CategoriesCollection   Collection = "categories"
)

// Change announces that a user's collection was written.
type Change struct {
	UserID     string     `json:"user_id"`
	Collection Collection `json:"collection"`
}

// Publisher carries changes to subscribers.
type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

// Notifying wraps a Repository and publishes a Change after every successful
// write. Publish failures are logged; the write already happened.
type Notifying struct {
	Repository
	pub Publisher
}

// Notify returns repo wrapped so that writes reach pub.
func Notify(repo Repository, pub Publisher) *Notifying {
	return &Notifying{Repository: repo, pub: pub}
}

func (n *Notifying) publish(ctx context.Context, uid string, col Collection) {
	if err := n.pub.Publish(ctx, Change{UserID: uid, Collection: col}); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change", "user_id", uid, "collection", col, "error", err)
	}
}

func (n *Notifying) CreateProfile(ctx context.Context, u core.User) (bool, error) {
	created, err := n.Repository.CreateProfile(ctx, u)
	if err == nil && created {
		n.publish(ctx, u.UID, CategoriesCollection)
	}
	return created, err
}

func (n *Notifying) AddTransaction(ctx context.Context, uid string, tx core.Transaction) (core.Transaction, error) {
	out, err := n.Repository.AddTransaction(ctx, uid, tx)
	if err == nil {
		n.publish(ctx, uid, TransactionsCollection)
	}
	return out, err
}

func (n *Notifying) UpdateTransaction(ctx context.Context, uid string, tx core.Transaction) error {
	err := n.Repository.UpdateTransaction(ctx, uid, tx)
	if err == nil {
		n.publish(ctx, uid, TransactionsCollection)
	}
	return err
}

func (n *Notifying) DeleteTransaction(ctx context.Context, uid, id string) error {
	err := n.Repository.DeleteTransaction(ctx, uid, id)
	if err == nil {
		n.publish(ctx, uid, TransactionsCollection)
	}
	return err
}

func (n *Notifying) AddCategory(ctx context.Context, uid string, c core.Category) (core.Category, error) {
	out, err := n.Repository.AddCategory(ctx, uid, c)
	if err == nil {
		n.publish(ctx, uid, CategoriesCollection)
	}
	return out, err
}

func (n *Notifying) UpdateCategory(ctx context.Context, uid string, c core.Category) error {
	err := n.Repository.UpdateCategory(ctx, uid, c)
	if err == nil {
		n.publish(ctx, uid, CategoriesCollection)
	}
	return err
}

func (n *Notifying) DeleteCategory(ctx context.Context, uid, id string) error {
	err := n.Repository.DeleteCategory(ctx, uid, id)
	if err == nil {
		n.publish(ctx, uid, CategoriesCollection)
	}
	return err
}
