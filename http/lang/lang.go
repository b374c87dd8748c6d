// Package lang resolves the display language of requests.
package lang

import (
	"context"
	"net/http"

	"github.com/alexedwards/flow"
	"golang.org/x/text/language"
)

// Param is the route parameter holding the display language.
const Param = "lang"

// Supported display languages. The first is the default.
var Supported = []string{"en", "fr"}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.French,
})

// Default returns the default display language.
func Default() string {
	return Supported[0]
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying the display language.
func NewContext(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKey{}, lang)
}

// FromContext returns the display language from ctx.
func FromContext(ctx context.Context) (string, bool) {
	lang, ok := ctx.Value(contextKey{}).(string)
	return lang, ok && lang != ""
}

// IsSupported reports whether lang is exactly one of the supported language codes.
func IsSupported(lang string) bool {
	for _, s := range Supported {
		if s == lang {
			return true
		}
	}
	return false
}

// Match returns the supported language best matching the
// Accept-Language header value.
func Match(acceptLanguage string) string {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	_, i, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default()
	}
	return Supported[i]
}

// Middleware places the display language into the request context.
// The language comes from the route parameter if there is one; routes
// with an unsupported language are not found. Otherwise the
// Accept-Language header is used.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := flow.Param(r.Context(), Param)
		if lang != "" {
			if !IsSupported(lang) {
				http.NotFound(w, r)
				return
			}
		} else {
			lang = Match(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), lang)))
	})
}
