// Package session identifies anonymous visitors with a random id kept in a
// cookie. The id scopes the visitor's cart.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CookieName = "storefront_session"
	cookieTTL  = 30 * 24 * time.Hour
)

var ErrNoSession = errors.New("no session in context")

type ctxKey string

const idCtxKey ctxKey = "session_id"

// Manager issues session ids and reads them back from requests.
type Manager struct {
	secure bool
	ttl    time.Duration
}

func NewManager(secure bool) *Manager {
	return &Manager{secure: secure, ttl: cookieTTL}
}

// NewID returns a fresh random (v4) session id.
func NewID() string {
	return uuid.NewString()
}

// Valid reports whether id looks like an id this package issued.
func Valid(id string) bool {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.Version() == 4
}

// FromRequest returns the session id carried by the request cookie, if any.
func (m *Manager) FromRequest(r *http.Request) (string, bool) {
	ck, err := r.Cookie(CookieName)
	if err != nil || !Valid(ck.Value) {
		return "", false
	}
	return ck.Value, true
}

// SetCookie writes the session cookie on the response.
func (m *Manager) SetCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware makes sure every request carries a session id, issuing one when
// the cookie is absent or invalid. The id is stored in the request context.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := m.FromRequest(c.Request)
		if !ok {
			id = NewID()
			m.SetCookie(c.Writer, id)
		}
		c.Request = c.Request.WithContext(WithID(c.Request.Context(), id))
		c.Next()
	}
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idCtxKey, id)
}

// IDFrom returns the session id stored by the middleware.
func IDFrom(ctx context.Context) (string, error) {
	id, ok := ctx.Value(idCtxKey).(string)
	if !ok || id == "" {
		return "", ErrNoSession
	}
	return id, nil
}
