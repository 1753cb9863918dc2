// Package authenticator declares the authentication surface the router
// depends on, so that handler tests can substitute a fake.
package authenticator

import (
	"context"
	"net/http"

	"github.com/dkomarov/reelrank/internal/user"
)

type Authenticator interface {
	RequireUser(h http.Handler) http.Handler
	Register(ctx context.Context, email, rawPassword string) (*user.User, error)
	Login(ctx context.Context, email, rawPassword string) (*user.User, error)
	EstablishSession(response http.ResponseWriter, usr *user.User) error
	ClearSession(response http.ResponseWriter)
}
