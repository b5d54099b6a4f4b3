// Package storetest holds the behaviour every store.Repository must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"zenbudget/internal/core"
	"zenbudget/internal/store"
)

// Run exercises repo against the repository contract. newRepo must return
// an empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) store.Repository) {
	t.Run("profile seeds default categories", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		u := core.User{UID: "u1", DisplayName: "Jane", Email: "jane@example.com"}

		created, err := repo.CreateProfile(ctx, u)
		if err != nil || !created {
			t.Fatalf("create profile: created=%v err=%v", created, err)
		}
		created, err = repo.CreateProfile(ctx, u)
		if err != nil || created {
			t.Fatalf("second create should be a no-op: created=%v err=%v", created, err)
		}
		cats, err := repo.ListCategories(ctx, "u1")
		if err != nil {
			t.Fatalf("list categories: %v", err)
		}
		if len(cats) != len(core.DefaultCategories()) {
			t.Fatalf("expected %d seeded categories, got %d", len(core.DefaultCategories()), len(cats))
		}
		for _, c := range cats {
			if c.ID == "" {
				t.Fatalf("seeded category %s has no id", c.Name)
			}
		}

		got, err := repo.GetProfile(ctx, "u1")
		if err != nil || got != u {
			t.Fatalf("get profile: %+v, %v", got, err)
		}
		if err := repo.UpdateProfile(ctx, "u1", "Janet"); err != nil {
			t.Fatalf("update profile: %v", err)
		}
		got, _ = repo.GetProfile(ctx, "u1")
		if got.DisplayName != "Janet" {
			t.Fatalf("display name not updated: %+v", got)
		}
		if _, err := repo.GetProfile(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		ids, err := repo.ListUserIDs(ctx)
		if err != nil || len(ids) != 1 || ids[0] != "u1" {
			t.Fatalf("list users: %v, %v", ids, err)
		}
	})

	t.Run("transaction lifecycle", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		if _, err := repo.CreateProfile(ctx, core.User{UID: "u1"}); err != nil {
			t.Fatalf("create profile: %v", err)
		}
		in := core.Transaction{
			Amount:      core.Money{Cents: 12050},
			Date:        time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
			CategoryID:  "food",
			Description: "Groceries",
			Type:        core.Expense,
			IsRecurring: true,
			Frequency:   core.Monthly,
		}
		added, err := repo.AddTransaction(ctx, "u1", in)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if added.ID == "" {
			t.Fatalf("no id assigned")
		}

		list, err := repo.ListTransactions(ctx, "u1")
		if err != nil || len(list) != 1 {
			t.Fatalf("list: %v, %v", list, err)
		}
		got := list[0]
		if got.ID != added.ID || got.Amount != in.Amount || !got.Date.Equal(in.Date) ||
			got.Frequency != core.Monthly || !got.IsRecurring || got.Description != "Groceries" {
			t.Fatalf("stored transaction differs: %+v", got)
		}

		added.Description = "Supermarket"
		if err := repo.UpdateTransaction(ctx, "u1", added); err != nil {
			t.Fatalf("update: %v", err)
		}
		list, _ = repo.ListTransactions(ctx, "u1")
		if list[0].Description != "Supermarket" {
			t.Fatalf("update not applied: %+v", list[0])
		}

		missing := added
		missing.ID = "nope"
		if err := repo.UpdateTransaction(ctx, "u1", missing); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := repo.DeleteTransaction(ctx, "u1", added.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := repo.DeleteTransaction(ctx, "u1", added.ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
		list, _ = repo.ListTransactions(ctx, "u1")
		if len(list) != 0 {
			t.Fatalf("expected empty list, got %d", len(list))
		}
	})

	t.Run("category lifecycle", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		if _, err := repo.CreateProfile(ctx, core.User{UID: "u1"}); err != nil {
			t.Fatalf("create profile: %v", err)
		}
		before, _ := repo.ListCategories(ctx, "u1")

		limit := core.Money{Cents: 200000}
		c, err := repo.AddCategory(ctx, "u1", core.Category{
			Name: "Pets", Color: "#123456", Icon: core.IconDog, Type: core.Expense, BudgetLimit: &limit,
		})
		if err != nil || c.ID == "" {
			t.Fatalf("add category: %+v, %v", c, err)
		}
		cats, _ := repo.ListCategories(ctx, "u1")
		if len(cats) != len(before)+1 {
			t.Fatalf("expected %d categories, got %d", len(before)+1, len(cats))
		}
		var stored core.Category
		for _, x := range cats {
			if x.ID == c.ID {
				stored = x
			}
		}
		if stored.Icon != core.IconDog || stored.BudgetLimit == nil || *stored.BudgetLimit != limit {
			t.Fatalf("stored category differs: %+v", stored)
		}

		c.BudgetLimit = nil
		c.Name = "Animals"
		if err := repo.UpdateCategory(ctx, "u1", c); err != nil {
			t.Fatalf("update: %v", err)
		}
		cats, _ = repo.ListCategories(ctx, "u1")
		for _, x := range cats {
			if x.ID == c.ID && (x.Name != "Animals" || x.BudgetLimit != nil) {
				t.Fatalf("update not applied: %+v", x)
			}
		}
		if err := repo.DeleteCategory(ctx, "u1", c.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := repo.DeleteCategory(ctx, "u1", c.ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("credentials", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		cred := store.Credential{Email: "Jane@Example.com", UID: "u1", PasswordHash: "hash"}
		if err := repo.CreateCredential(ctx, cred); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := repo.CreateCredential(ctx, cred); !errors.Is(err, store.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		got, err := repo.GetCredential(ctx, "jane@example.com")
		if err != nil || got.UID != "u1" || got.PasswordHash != "hash" {
			t.Fatalf("get: %+v, %v", got, err)
		}
		if _, err := repo.GetCredential(ctx, "other@example.com"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
