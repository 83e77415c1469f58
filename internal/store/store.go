// Package store maps the four persisted namespaces (users,
// shopping_lists, products, current_user) onto the key-value store via
// the codec. It also owns the store-wide lock: every read-modify-write
// sequence that touches more than one key, such as joining a list or
// the delete cascade, must run inside the critical section because the
// key-value layer offers no cross-key transaction.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/esb/quicklist/internal/codec"
	"github.com/esb/quicklist/internal/kv"
	"github.com/esb/quicklist/internal/models"
)

const (
	keyUsers       = "users"
	keyLists       = "shopping_lists"
	keyProducts    = "products"
	keyCurrentUser = "current_user"
)

// Store is the typed persistence layer shared by the directory,
// registry and catalog.
type Store struct {
	db kv.Store
	mu sync.RWMutex
}

// New wraps a key-value backend.
func New(db kv.Store) *Store {
	return &Store{db: db}
}

// Lock acquires the store-wide writer lock.
func (s *Store) Lock() { s.mu.Lock() }

// Unlock releases the store-wide writer lock.
func (s *Store) Unlock() { s.mu.Unlock() }

// RLock acquires the store-wide reader lock.
func (s *Store) RLock() { s.mu.RLock() }

// RUnlock releases the store-wide reader lock.
func (s *Store) RUnlock() { s.mu.RUnlock() }

// Users returns every registered user. An absent namespace is an empty
// collection; a present but undecodable one is a corrupt-record error.
func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	blob, found, err := s.db.Get(ctx, keyUsers)
	if err != nil {
		return nil, fmt.Errorf("reading users: %w", err)
	}
	if !found {
		return []models.User{}, nil
	}

	var users []models.User
	if err := codec.Decode(blob, &users); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}
	return users, nil
}

// SaveUsers persists the full user collection.
func (s *Store) SaveUsers(ctx context.Context, users []models.User) error {
	blob, err := codec.Encode(users)
	if err != nil {
		return err
	}
	if err := s.db.Set(ctx, keyUsers, blob); err != nil {
		return fmt.Errorf("writing users: %w", err)
	}
	return nil
}

// Lists returns the full code-to-list mapping.
func (s *Store) Lists(ctx context.Context) (map[string]models.ShoppingList, error) {
	blob, found, err := s.db.Get(ctx, keyLists)
	if err != nil {
		return nil, fmt.Errorf("reading shopping lists: %w", err)
	}
	if !found {
		return map[string]models.ShoppingList{}, nil
	}

	var lists map[string]models.ShoppingList
	if err := codec.Decode(blob, &lists); err != nil {
		return nil, fmt.Errorf("decoding shopping lists: %w", err)
	}
	return lists, nil
}

// SaveLists persists the full code-to-list mapping.
func (s *Store) SaveLists(ctx context.Context, lists map[string]models.ShoppingList) error {
	blob, err := codec.Encode(lists)
	if err != nil {
		return err
	}
	if err := s.db.Set(ctx, keyLists, blob); err != nil {
		return fmt.Errorf("writing shopping lists: %w", err)
	}
	return nil
}

// FindList looks a list up by code.
func (s *Store) FindList(ctx context.Context, listCode string) (*models.ShoppingList, bool, error) {
	lists, err := s.Lists(ctx)
	if err != nil {
		return nil, false, err
	}
	list, found := lists[listCode]
	if !found {
		return nil, false, nil
	}
	return &list, true, nil
}

// SaveList writes a single list record back into its namespace.
func (s *Store) SaveList(ctx context.Context, list *models.ShoppingList) error {
	lists, err := s.Lists(ctx)
	if err != nil {
		return err
	}
	lists[list.ListCode] = *list
	return s.SaveLists(ctx, lists)
}

// RemoveList drops a list record. Removing an absent code is not an
// error.
func (s *Store) RemoveList(ctx context.Context, listCode string) error {
	lists, err := s.Lists(ctx)
	if err != nil {
		return err
	}
	if _, found := lists[listCode]; !found {
		return nil
	}
	delete(lists, listCode)
	return s.SaveLists(ctx, lists)
}

// ProductsByList returns the full code-to-products mapping. Products
// of one list keep their insertion order.
func (s *Store) ProductsByList(ctx context.Context) (map[string][]models.Product, error) {
	blob, found, err := s.db.Get(ctx, keyProducts)
	if err != nil {
		return nil, fmt.Errorf("reading products: %w", err)
	}
	if !found {
		return map[string][]models.Product{}, nil
	}

	var products map[string][]models.Product
	if err := codec.Decode(blob, &products); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	return products, nil
}

// SaveProductsByList persists the full code-to-products mapping.
func (s *Store) SaveProductsByList(ctx context.Context, products map[string][]models.Product) error {
	blob, err := codec.Encode(products)
	if err != nil {
		return err
	}
	if err := s.db.Set(ctx, keyProducts, blob); err != nil {
		return fmt.Errorf("writing products: %w", err)
	}
	return nil
}

// ListProducts returns the products of one list in insertion order.
// An unknown code yields an empty sequence.
func (s *Store) ListProducts(ctx context.Context, listCode string) ([]models.Product, error) {
	products, err := s.ProductsByList(ctx)
	if err != nil {
		return nil, err
	}
	listProducts := products[listCode]
	if listProducts == nil {
		return []models.Product{}, nil
	}
	return listProducts, nil
}

// RememberedUser returns the persisted active actor, if any.
func (s *Store) RememberedUser(ctx context.Context) (string, bool, error) {
	email, found, err := s.db.Get(ctx, keyCurrentUser)
	if err != nil {
		return "", false, fmt.Errorf("reading current user: %w", err)
	}
	return email, found, nil
}

// RememberUser persists the active actor's email.
func (s *Store) RememberUser(ctx context.Context, email string) error {
	if err := s.db.Set(ctx, keyCurrentUser, email); err != nil {
		return fmt.Errorf("writing current user: %w", err)
	}
	return nil
}

// ForgetUser clears the persisted active actor.
func (s *Store) ForgetUser(ctx context.Context) error {
	if err := s.db.Delete(ctx, keyCurrentUser); err != nil {
		return fmt.Errorf("clearing current user: %w", err)
	}
	return nil
}

// Ping checks the health of the underlying key-value store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close flushes and releases the underlying key-value store.
func (s *Store) Close() error {
	return s.db.Close()
}
