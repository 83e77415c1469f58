// Package directory manages registered users: registration,
// authentication, role checks and session recovery. User records are
// re-derived from storage on every access, never cached.
package directory

import (
	"context"

	"github.com/esb/quicklist/internal/models"
	"github.com/esb/quicklist/internal/session"
)

type userStore interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()

	Users(ctx context.Context) ([]models.User, error)
	SaveUsers(ctx context.Context, users []models.User) error

	RememberedUser(ctx context.Context) (string, bool, error)
	RememberUser(ctx context.Context, email string) error
	ForgetUser(ctx context.Context) error
}

// Directory is the user management component.
type Directory struct {
	db userStore
}

// New creates a directory over the typed store.
func New(db userStore) *Directory {
	return &Directory{db: db}
}

// Register appends a new user with empty list sets. The email must not
// be registered yet; matching is exact and case-sensitive. An empty
// role defaults to USER.
func (d *Directory) Register(ctx context.Context, email, password string, role models.Role) error {
	if email == "" || password == "" {
		return models.ErrValidation
	}
	if role == "" {
		role = models.RoleUser
	}

	d.db.Lock()
	defer d.db.Unlock()

	users, err := d.db.Users(ctx)
	if err != nil {
		return err
	}

	for _, usr := range users {
		if usr.Email == email {
			return models.ErrConflict
		}
	}

	users = append(users, models.User{
		Email:    email,
		Password: password,
		Role:     role,
	})

	return d.db.SaveUsers(ctx, users)
}

// Authenticate scans the registered users for a matching email and
// password pair. On success it persists the actor as the remembered
// current user and returns a session for it.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (*session.Session, error) {
	d.db.Lock()
	defer d.db.Unlock()

	users, err := d.db.Users(ctx)
	if err != nil {
		return nil, err
	}

	for _, usr := range users {
		if usr.Email == email && usr.Password == password {
			if err := d.db.RememberUser(ctx, email); err != nil {
				return nil, err
			}
			return session.New(email), nil
		}
	}

	return nil, models.ErrInvalidCredentials
}

// ResumeSession rebuilds a session from the persisted current-user
// pointer. It fails when nothing is remembered or the remembered
// account no longer matches a registered user.
func (d *Directory) ResumeSession(ctx context.Context) (*session.Session, error) {
	d.db.RLock()
	defer d.db.RUnlock()

	email, found, err := d.db.RememberedUser(ctx)
	if err != nil {
		return nil, err
	}
	if !found || email == "" {
		return nil, models.ErrNoSession
	}

	if _, found, err := d.findUser(ctx, email); err != nil {
		return nil, err
	} else if !found {
		return nil, models.ErrNoSession
	}

	return session.New(email), nil
}

// Logout clears the persisted current-user pointer.
func (d *Directory) Logout(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return models.ErrNoSession
	}

	d.db.Lock()
	defer d.db.Unlock()

	return d.db.ForgetUser(ctx)
}

// UserRecord re-derives the acting user's record from storage.
func (d *Directory) UserRecord(ctx context.Context, sess *session.Session) (*models.User, error) {
	if sess == nil {
		return nil, models.ErrNoSession
	}

	d.db.RLock()
	defer d.db.RUnlock()

	usr, found, err := d.findUser(ctx, sess.Email)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound
	}
	return usr, nil
}

// UserByEmail looks up any registered user by exact email.
func (d *Directory) UserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	d.db.RLock()
	defer d.db.RUnlock()

	return d.findUser(ctx, email)
}

// IsAdmin reports whether the acting user carries the ADMIN role.
func (d *Directory) IsAdmin(ctx context.Context, sess *session.Session) (bool, error) {
	usr, err := d.UserRecord(ctx, sess)
	if err != nil {
		return false, err
	}
	return usr.IsAdmin(), nil
}

// UserCount returns the number of registered users.
func (d *Directory) UserCount(ctx context.Context) (int, error) {
	d.db.RLock()
	defer d.db.RUnlock()

	users, err := d.db.Users(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func (d *Directory) findUser(ctx context.Context, email string) (*models.User, bool, error) {
	users, err := d.db.Users(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range users {
		if users[i].Email == email {
			return &users[i], true, nil
		}
	}
	return nil, false, nil
}
