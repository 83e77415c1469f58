// Package auth provides middleware and helpers for JWT-based
// authentication of HTTP requests. Tokens are carried in a cookie or
// the Authorization header and resolve to an explicit session passed
// through the request context.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/esb/quicklist/internal/logger"
	"github.com/esb/quicklist/internal/models"
	"github.com/esb/quicklist/internal/session"
)

// Claims are the JWT claims used by the service. The email identifies
// the acting user; the record itself is always re-read from storage.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// ContextKey is a custom type for storing values in context to avoid
// collisions.
type ContextKey string

// SessionKey is the context key under which the authenticated session
// is stored.
const SessionKey ContextKey = "session"

type userDirectory interface {
	UserByEmail(ctx context.Context, email string) (*models.User, bool, error)
}

// Auth issues and verifies session tokens.
type Auth struct {
	users          userDirectory
	authCookieName string
	signingKey     []byte
	tokenTTL       time.Duration
}

// New creates an Auth handler over the user directory with the given
// cookie name, signing secret and token lifetime.
func New(users userDirectory, authCookieName string, signingKey []byte, tokenTTL time.Duration) *Auth {
	return &Auth{
		users:          users,
		authCookieName: authCookieName,
		signingKey:     signingKey,
		tokenTTL:       tokenTTL,
	}
}

// IssueSession writes a signed session token for the email as both an
// Authorization header and a cookie.
func (a *Auth) IssueSession(response http.ResponseWriter, email string) error {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
		},
		Email: email,
	}

	jwtString, err := a.buildJWTString(claims)
	if err != nil {
		return err
	}

	response.Header().Set("Authorization", jwtString)
	http.SetCookie(response, &http.Cookie{
		Name:     a.authCookieName,
		Value:    jwtString,
		Path:     "/",
		HttpOnly: true,
	})

	return nil
}

// ClearSession expires the session cookie.
func (a *Auth) ClearSession(response http.ResponseWriter) {
	http.SetCookie(response, &http.Cookie{
		Name:     a.authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// RequireUser is an HTTP middleware that authenticates the request via
// its token and stores the resulting session in the request context.
// Requests without a valid token, or whose account no longer exists,
// are rejected with 401.
func (a *Auth) RequireUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		email := a.getEmailFromAuthorizationHeaderOrCookie(request)
		if email == "" {
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		_, found, err := a.users.UserByEmail(request.Context(), email)
		if err != nil {
			logger.Log.Debugln("Error resolving the session user: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)
			return
		}
		if !found {
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(request.Context(), SessionKey, session.New(email))
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// SessionFromContext extracts the authenticated session placed by
// RequireUser, or nil.
func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(SessionKey).(*session.Session)
	return sess
}

func (a *Auth) getTokenStringFromAuthorizationHeaderOrCookie(request *http.Request) string {
	tokenString := request.Header.Get("Authorization")
	if tokenString != "" {
		return tokenString
	}
	cookie, err := request.Cookie(a.authCookieName)
	if err == nil {
		tokenString = cookie.Value
	}

	return tokenString
}

func (a *Auth) getEmailFromAuthorizationHeaderOrCookie(request *http.Request) string {
	tokenString := a.getTokenStringFromAuthorizationHeaderOrCookie(request)
	if tokenString == "" {
		return ""
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingKey, nil
		},
	)
	if err != nil || !token.Valid {
		return ""
	}

	return claims.Email
}

func (a *Auth) buildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
