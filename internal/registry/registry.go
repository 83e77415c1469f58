// Package registry manages shopping lists: creation with generated
// codes, membership, renaming and the delete cascade. Every mutation
// is a read-modify-write cycle over the typed store and runs inside
// the store-wide critical section because a single operation can touch
// the list, user and product namespaces.
package registry

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/esb/quicklist/internal/authz"
	"github.com/esb/quicklist/internal/models"
	"github.com/esb/quicklist/internal/session"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// CodeLength is the length of generated list codes.
	CodeLength = 6

	triesToGenerateUniqueCode = 10
)

type listStore interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()

	Users(ctx context.Context) ([]models.User, error)
	SaveUsers(ctx context.Context, users []models.User) error

	Lists(ctx context.Context) (map[string]models.ShoppingList, error)
	FindList(ctx context.Context, listCode string) (*models.ShoppingList, bool, error)
	SaveList(ctx context.Context, list *models.ShoppingList) error
	RemoveList(ctx context.Context, listCode string) error

	ProductsByList(ctx context.Context) (map[string][]models.Product, error)
	SaveProductsByList(ctx context.Context, products map[string][]models.Product) error
}

// Registry is the list management component.
type Registry struct {
	db listStore
}

// New creates a registry over the typed store.
func New(db listStore) *Registry {
	return &Registry{db: db}
}

func generateRandomCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		randomIndex, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generating list code: %w", err)
		}
		code[i] = codeAlphabet[randomIndex.Int64()]
	}
	return string(code), nil
}

func (r *Registry) generateUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < triesToGenerateUniqueCode; i++ {
		code, err := generateRandomCode(CodeLength)
		if err != nil {
			return "", err
		}
		_, found, err := r.db.FindList(ctx, code)
		if err != nil {
			return "", err
		}
		if !found {
			return code, nil
		}
	}
	return "", models.ErrCodeSpaceExhausted
}

// CreateList creates a list with the acting user as creator and sole
// member, records the code in the creator's created and joined sets,
// and returns the generated code. An empty category defaults to
// General.
func (r *Registry) CreateList(ctx context.Context, sess *session.Session, name, category string) (string, error) {
	if sess == nil {
		return "", models.ErrNoSession
	}
	if name == "" {
		return "", models.ErrValidation
	}
	if category == "" {
		category = models.DefaultCategory
	}

	r.db.Lock()
	defer r.db.Unlock()

	users, err := r.db.Users(ctx)
	if err != nil {
		return "", err
	}
	creator := findUser(users, sess.Email)
	if creator == nil {
		return "", models.ErrNoSession
	}

	code, err := r.generateUniqueCode(ctx)
	if err != nil {
		return "", err
	}

	list := &models.ShoppingList{
		ListCode:     code,
		ListName:     name,
		CreatorEmail: sess.Email,
		Category:     category,
		MemberEmails: []string{sess.Email},
		CreatedAt:    time.Now().UnixMilli(),
	}
	if err := r.db.SaveList(ctx, list); err != nil {
		return "", err
	}

	creator.CreatedListCodes.Add(code)
	creator.JoinedListCodes.Add(code)
	if err := r.db.SaveUsers(ctx, users); err != nil {
		return "", err
	}

	return code, nil
}

// List reconstructs a single list from storage.
func (r *Registry) List(ctx context.Context, listCode string) (*models.ShoppingList, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	list, found, err := r.db.FindList(ctx, listCode)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound
	}
	return list, nil
}

// JoinList adds the acting user to the list's members and the code to
// the user's joined set. The actor must be a registered user; joining
// twice is a conflict.
func (r *Registry) JoinList(ctx context.Context, sess *session.Session, listCode string) error {
	if sess == nil {
		return models.ErrNoSession
	}

	r.db.Lock()
	defer r.db.Unlock()

	users, err := r.db.Users(ctx)
	if err != nil {
		return err
	}
	actor := findUser(users, sess.Email)
	if actor == nil {
		return models.ErrNoSession
	}

	list, found, err := r.db.FindList(ctx, listCode)
	if err != nil {
		return err
	}
	if !found {
		return models.ErrNotFound
	}
	if list.IsMember(sess.Email) {
		return models.ErrConflict
	}

	list.AddMember(sess.Email)
	if err := r.db.SaveList(ctx, list); err != nil {
		return err
	}

	actor.JoinedListCodes.Add(listCode)
	return r.db.SaveUsers(ctx, users)
}

// LeaveList removes the acting user from the list. The actor must be a
// registered user and the creator can never leave.
func (r *Registry) LeaveList(ctx context.Context, sess *session.Session, listCode string) error {
	if sess == nil {
		return models.ErrNoSession
	}

	r.db.Lock()
	defer r.db.Unlock()

	users, err := r.db.Users(ctx)
	if err != nil {
		return err
	}
	actor := findUser(users, sess.Email)
	if actor == nil {
		return models.ErrNoSession
	}

	list, found, err := r.db.FindList(ctx, listCode)
	if err != nil {
		return err
	}
	if !found {
		return models.ErrNotFound
	}
	if list.IsCreator(sess.Email) {
		return models.ErrForbidden
	}

	list.RemoveMember(sess.Email)
	if err := r.db.SaveList(ctx, list); err != nil {
		return err
	}

	actor.JoinedListCodes.Remove(listCode)
	return r.db.SaveUsers(ctx, users)
}

// RemoveMember removes another member from the list. Only a user who
// passes the management guard may call it, the creator cannot be
// removed, and callers cannot remove themselves.
func (r *Registry) RemoveMember(ctx context.Context, sess *session.Session, listCode, memberEmail string) error {
	if sess == nil {
		return models.ErrNoSession
	}

	r.db.Lock()
	defer r.db.Unlock()

	list, found, err := r.db.FindList(ctx, listCode)
	if err != nil {
		return err
	}
	if !found {
		return models.ErrNotFound
	}

	users, err := r.db.Users(ctx)
	if err != nil {
		return err
	}
	actor := findUser(users, sess.Email)
	if !authz.CanManageList(actor, list) {
		return models.ErrForbidden
	}
	if list.IsCreator(memberEmail) || memberEmail == sess.Email {
		return models.ErrForbidden
	}
	if !list.IsMember(memberEmail) {
		return models.ErrNotFound
	}

	list.RemoveMember(memberEmail)
	if err := r.db.SaveList(ctx, list); err != nil {
		return err
	}

	member := findUser(users, memberEmail)
	if member != nil {
		member.JoinedListCodes.Remove(listCode)
		return r.db.SaveUsers(ctx, users)
	}
	return nil
}

// RenameList updates the list name in place. Authorization is the
// caller's responsibility via the management guard.
func (r *Registry) RenameList(ctx context.Context, listCode, newName string) error {
	if newName == "" {
		return models.ErrValidation
	}

	r.db.Lock()
	defer r.db.Unlock()

	list, found, err := r.db.FindList(ctx, listCode)
	if err != nil {
		return err
	}
	if !found {
		return models.ErrNotFound
	}

	list.ListName = newName
	return r.db.SaveList(ctx, list)
}

// DeleteList removes a list and cascades: the list record first, then
// the code is stripped from every user's created and joined sets, then
// every product scoped to the list is dropped. The whole cascade runs
// in the store-wide critical section; the first failing step is
// reported and nothing after it is attempted.
func (r *Registry) DeleteList(ctx context.Context, sess *session.Session, listCode string) error {
	if sess == nil {
		return models.ErrNoSession
	}

	r.db.Lock()
	defer r.db.Unlock()

	list, found, err := r.db.FindList(ctx, listCode)
	if err != nil {
		return err
	}
	if !found {
		return models.ErrNotFound
	}

	users, err := r.db.Users(ctx)
	if err != nil {
		return err
	}
	if !authz.CanManageList(findUser(users, sess.Email), list) {
		return models.ErrForbidden
	}

	if err := r.db.RemoveList(ctx, listCode); err != nil {
		return fmt.Errorf("removing list record: %w", err)
	}

	changed := false
	for i := range users {
		if users[i].HasCreated(listCode) || users[i].HasJoined(listCode) {
			users[i].CreatedListCodes.Remove(listCode)
			users[i].JoinedListCodes.Remove(listCode)
			changed = true
		}
	}
	if changed {
		if err := r.db.SaveUsers(ctx, users); err != nil {
			return fmt.Errorf("stripping list code from users: %w", err)
		}
	}

	products, err := r.db.ProductsByList(ctx)
	if err != nil {
		return fmt.Errorf("removing list products: %w", err)
	}
	if _, found := products[listCode]; found {
		delete(products, listCode)
		if err := r.db.SaveProductsByList(ctx, products); err != nil {
			return fmt.Errorf("removing list products: %w", err)
		}
	}

	return nil
}

// ListsForUser resolves the acting user's joined codes against storage
// in order, skipping codes whose list record is missing.
func (r *Registry) ListsForUser(ctx context.Context, sess *session.Session) ([]models.ShoppingList, error) {
	return r.resolveUserLists(ctx, sess, func(usr *models.User) models.CodeSet {
		return usr.JoinedListCodes
	})
}

// CreatedListsForUser resolves the acting user's created codes the
// same way.
func (r *Registry) CreatedListsForUser(ctx context.Context, sess *session.Session) ([]models.ShoppingList, error) {
	return r.resolveUserLists(ctx, sess, func(usr *models.User) models.CodeSet {
		return usr.CreatedListCodes
	})
}

// ListMembers returns the member emails, creator first and joiners in
// join order.
func (r *Registry) ListMembers(ctx context.Context, listCode string) ([]string, error) {
	list, err := r.List(ctx, listCode)
	if err != nil {
		return nil, err
	}
	return list.MemberEmails, nil
}

// ListCount returns the number of stored lists.
func (r *Registry) ListCount(ctx context.Context) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	lists, err := r.db.Lists(ctx)
	if err != nil {
		return 0, err
	}
	return len(lists), nil
}

func (r *Registry) resolveUserLists(
	ctx context.Context,
	sess *session.Session,
	codesOf func(*models.User) models.CodeSet,
) ([]models.ShoppingList, error) {
	if sess == nil {
		return nil, models.ErrNoSession
	}

	r.db.RLock()
	defer r.db.RUnlock()

	users, err := r.db.Users(ctx)
	if err != nil {
		return nil, err
	}
	usr := findUser(users, sess.Email)
	if usr == nil {
		return nil, models.ErrNoSession
	}

	lists, err := r.db.Lists(ctx)
	if err != nil {
		return nil, err
	}

	resolved := []models.ShoppingList{}
	for _, code := range codesOf(usr) {
		if list, found := lists[code]; found {
			resolved = append(resolved, list)
		}
	}
	return resolved, nil
}

func findUser(users []models.User, email string) *models.User {
	for i := range users {
		if users[i].Email == email {
			return &users[i]
		}
	}
	return nil
}
