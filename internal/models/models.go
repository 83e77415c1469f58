// Package models defines the entity records persisted by the store,
// the request/response models of the HTTP API, and the sentinel errors
// shared across the service packages.
package models

import (
	"errors"

	"github.com/thoas/go-funk"
)

// Role labels the privilege level of a registered user.
type Role string

const (
	// RoleUser is the default role assigned on registration.
	RoleUser Role = "USER"

	// RoleAdmin passes the management guard on every list.
	RoleAdmin Role = "ADMIN"
)

// DefaultCategory is assigned to lists and products created without an
// explicit category.
const DefaultCategory = "General"

// ReservedCategory never appears in derived category sets.
const ReservedCategory = "system"

var (
	// ErrNotFound is returned when a referenced user, list or product
	// does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned on duplicate registration, duplicate
	// membership or a duplicate identifier.
	ErrConflict = errors.New("record already exists")

	// ErrForbidden is returned when the acting user fails the
	// management guard for a creator-only operation.
	ErrForbidden = errors.New("operation not allowed for this user")

	// ErrInvalidCredentials is returned when no user matches the given
	// email and password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoSession is returned when an operation requiring an
	// authenticated actor is called without one.
	ErrNoSession = errors.New("no authenticated session")

	// ErrCorruptRecord marks a stored blob that exists but cannot be
	// decoded. It is never downgraded to an empty-state result.
	ErrCorruptRecord = errors.New("stored record is corrupt")

	// ErrCodeSpaceExhausted is returned when list code generation fails
	// to find a free code within the attempt cap.
	ErrCodeSpaceExhausted = errors.New("unable to generate a unique list code")

	// ErrValidation is returned when a structurally invalid entity is
	// passed to a core operation.
	ErrValidation = errors.New("invalid input")
)

// User is a registered account. Accounts are never physically deleted.
type User struct {
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	Role             Role    `json:"role"`
	CreatedListCodes CodeSet `json:"createdLists,omitempty"`
	JoinedListCodes  CodeSet `json:"joinedLists,omitempty"`
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasJoined reports whether the user's joined set contains the code.
func (u *User) HasJoined(listCode string) bool {
	return u.JoinedListCodes.Contains(listCode)
}

// HasCreated reports whether the user's created set contains the code.
func (u *User) HasCreated(listCode string) bool {
	return u.CreatedListCodes.Contains(listCode)
}

// ShoppingList is a shared list identified by a generated six character
// code. The creator is always the first member and can never be removed.
type ShoppingList struct {
	ListCode     string   `json:"listCode"`
	ListName     string   `json:"listName"`
	CreatorEmail string   `json:"creatorEmail"`
	Category     string   `json:"category"`
	MemberEmails []string `json:"members"`
	CreatedAt    int64    `json:"createdAt"`
}

// IsCreator reports whether the email belongs to the list's creator.
func (l *ShoppingList) IsCreator(email string) bool {
	return l.CreatorEmail == email
}

// IsMember reports whether the email is present in the member set.
// Matching is exact, no case normalization.
func (l *ShoppingList) IsMember(email string) bool {
	return funk.ContainsString(l.MemberEmails, email)
}

// AddMember appends the email to the member set unless already present,
// preserving join order.
func (l *ShoppingList) AddMember(email string) {
	if l.IsMember(email) {
		return
	}
	l.MemberEmails = append(l.MemberEmails, email)
}

// RemoveMember drops the email from the member set.
func (l *ShoppingList) RemoveMember(email string) {
	l.MemberEmails = funk.FilterString(l.MemberEmails, func(member string) bool {
		return member != email
	})
}

// MemberCount returns the number of members including the creator.
func (l *ShoppingList) MemberCount() int {
	return len(l.MemberEmails)
}

// Product is a single entry scoped to one shopping list.
type Product struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
	Purchased bool    `json:"purchased"`
	AddedBy   string  `json:"addedBy"`
	ListCode  string  `json:"listCode"`
	Notes     string  `json:"notes"`
	Price     float64 `json:"price"`
	AddedAt   int64   `json:"addedDate"`
}

// TotalPrice is the line cost of the product, purchased or not.
func (p *Product) TotalPrice() float64 {
	return float64(p.Quantity) * p.Price
}

// Statistics aggregates a list's products. Item counts are measured in
// quantity units, not product records.
type Statistics struct {
	TotalItems     int     `json:"total_items"`
	PurchasedItems int     `json:"purchased_items"`
	RemainingItems int     `json:"remaining_items"`
	TotalCost      float64 `json:"total_cost"`
}
