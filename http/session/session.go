// Package session identifies browsers with a session ID cookie.
package session

import (
	"context"
	"net/http"

	"github.com/micromdm/nanointake/utils/uuid"
)

// DefaultCookieName is the name of the session ID cookie.
const DefaultCookieName = "nanointake_session"

type contextKey struct{}

// NewContext returns a copy of ctx carrying the session id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the session ID from ctx.
// An empty string is returned if there is none.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

type config struct {
	name   string
	secure bool
	maxAge int
	ider   uuid.IDer
}

// Option configures the session middleware.
type Option func(*config)

// WithCookieName changes the session cookie name.
func WithCookieName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithSecure marks the session cookie Secure.
func WithSecure(secure bool) Option {
	return func(c *config) {
		c.secure = secure
	}
}

// WithMaxAge sets the session cookie Max-Age in seconds.
// Zero (the default) makes the cookie last for the browser session.
func WithMaxAge(seconds int) Option {
	return func(c *config) {
		c.maxAge = seconds
	}
}

// WithIDer sets the session ID generator.
// Generated IDs must be UUIDs.
func WithIDer(ider uuid.IDer) Option {
	return func(c *config) {
		c.ider = ider
	}
}

// NewMiddleware creates middleware that places the session ID of every
// request into its context. Requests without a valid session cookie are
// assigned a new session ID which is sent back as a cookie.
func NewMiddleware(opts ...Option) func(http.Handler) http.Handler {
	c := &config{name: DefaultCookieName, ider: uuid.NewUUID()}
	for _, opt := range opts {
		opt(c)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cookie, err := r.Cookie(c.name); err == nil && uuid.Valid(cookie.Value) {
				id = cookie.Value
			} else {
				id = c.ider.ID()
				http.SetCookie(w, &http.Cookie{
					Name:     c.name,
					Value:    id,
					Path:     "/",
					MaxAge:   c.maxAge,
					HttpOnly: true,
					Secure:   c.secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
		})
	}
}
