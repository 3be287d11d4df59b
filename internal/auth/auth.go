// Package auth is the identity boundary for the dashboard: a static
// credential directory resolving bearer tokens to users, and context
// plumbing so downstream code can read the acting user.
//
// Requests without a (valid) token are not rejected — they simply carry
// no user, and event metadata is omitted accordingly.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// User is the acting user's identity as seen by the rest of the service.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Directory is a static token → user lookup table.
type Directory struct {
	byToken map[string]User
}

// defaultCredentials seed the directory so a fresh deployment is usable
// before a credentials file is mounted.
var defaultCredentials = map[string]User{
	"dev-admin-token":   {ID: "u-001", Name: "Administrator", Role: "admin"},
	"dev-finance-token": {ID: "u-002", Name: "Finance Manager", Role: "finance"},
	"dev-legal-token":   {ID: "u-003", Name: "Legal Counsel", Role: "legal"},
}

// NewDirectory returns a directory seeded with the built-in credentials.
func NewDirectory() *Directory {
	byToken := make(map[string]User, len(defaultCredentials))
	for token, user := range defaultCredentials {
		byToken[token] = user
	}
	return &Directory{byToken: byToken}
}

// LoadFile merges token → user entries from a JSON file into the
// directory, overriding built-in entries on token collision.
func (d *Directory) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read credentials file: %w", err)
	}

	var entries map[string]User
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse credentials file: %w", err)
	}

	for token, user := range entries {
		d.byToken[token] = user
	}
	return nil
}

// Lookup resolves a bearer token to a user.
func (d *Directory) Lookup(token string) (User, bool) {
	user, ok := d.byToken[token]
	return user, ok
}

type ctxKey struct{}

// WithUser returns a context carrying the acting user.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the acting user, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(ctxKey{}).(User)
	return user, ok
}

// Middleware resolves the Authorization bearer token against the
// directory and stores the user in the request context. Anonymous and
// unknown-token requests pass through without a user.
func Middleware(dir *Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(header, "Bearer "); ok {
				if user, found := dir.Lookup(token); found {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
