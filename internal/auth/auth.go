// Package auth implements the session manager: registration, login and
// logout over bcrypt-hashed credentials, with the authenticated identity
// carried in a signed JWT cookie. Protected routes resolve the current
// user through the RequireUser middleware; unauthenticated requests are
// redirected to the login page.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkomarov/reelrank/internal/logger"
	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/user"
)

const sessionTTL = 7 * 24 * time.Hour

// ErrInvalidCredentials is returned by Login when the email is unknown
// or the password does not match. The two cases are deliberately not
// distinguishable by the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

type userKeeper interface {
	CreateUser(ctx context.Context, email, passwordHash string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByID(ctx context.Context, userID string) (*user.User, error)
}

// Auth handles user authentication and session cookie management.
type Auth struct {
	db userKeeper

	// authCookieName is the name of the cookie used to store the JWT.
	authCookieName string

	// authCookieSigningSecretKey is the key used to sign JWTs.
	authCookieSigningSecretKey []byte

	// loginPath is where unauthenticated requests are redirected.
	loginPath string
}

// Claims represents the JWT claims used by the system.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid
// collisions.
type ContextKey string

// CurrentUserKey is the context key under which RequireUser stores the
// resolved *user.User.
const CurrentUserKey ContextKey = "currentUser"

// New creates a new Auth manager bound to the given user storage,
// cookie name and JWT signing secret.
func New(
	db userKeeper,
	authCookieName string,
	authCookieSigningSecretKey []byte,
	loginPath string,
) *Auth {
	return &Auth{
		db:                         db,
		authCookieName:             authCookieName,
		authCookieSigningSecretKey: authCookieSigningSecretKey,
		loginPath:                  loginPath,
	}
}

// Register creates a new user with the given credentials. The raw
// password is hashed with bcrypt and never stored or logged. Returns
// models.ErrEmailTaken when the email is already registered.
func (a *Auth) Register(ctx context.Context, email, rawPassword string) (*user.User, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error while hashing the password: %w", err)
	}

	userID, err := a.db.CreateUser(ctx, email, string(passwordHash))
	if err != nil {
		return nil, err
	}

	return &user.User{
		ID:           userID,
		Email:        email,
		PasswordHash: string(passwordHash),
	}, nil
}

// Login resolves the user by email and verifies the password against
// the stored bcrypt hash. Unknown email and hash mismatch both yield
// ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, email, rawPassword string) (*user.User, error) {
	usr, err := a.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(rawPassword)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return usr, nil
}

// EstablishSession signs a JWT bound to the user's ID and sets it as
// the session cookie.
func (a *Auth) EstablishSession(response http.ResponseWriter, usr *user.User) error {
	JWTString, err := a.buildJWTString(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
		},
		UserID: usr.ID,
	})
	if err != nil {
		return err
	}

	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    JWTString,
			Path:     "/",
			HttpOnly: true,
		},
	)

	return nil
}

// ClearSession expires the session cookie.
func (a *Auth) ClearSession(response http.ResponseWriter) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		},
	)
}

// RequireUser is an HTTP middleware that resolves the current user from
// the session cookie and stores it in the request context. Requests
// without a valid session are redirected to the login page instead of
// being failed.
func (a *Auth) RequireUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID := a.getUserIDFromCookie(request)
		if userID == "" {
			http.Redirect(response, request, a.loginPath, http.StatusFound)
			return
		}

		usr, err := a.db.GetUserByID(request.Context(), userID)
		if err != nil {
			if errors.Is(err, models.ErrUserNotFound) {
				// Stale cookie for a user that no longer exists.
				a.ClearSession(response)
				http.Redirect(response, request, a.loginPath, http.StatusFound)
				return
			}
			logger.Log.Debugln("Error calling the `a.db.GetUserByID()`: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(request.Context(), CurrentUserKey, usr)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// CurrentUser returns the identity resolved by RequireUser, or an
// unauthenticated zero identity when the middleware did not run.
func CurrentUser(ctx context.Context) *user.User {
	usr, ok := ctx.Value(CurrentUserKey).(*user.User)
	if !ok {
		return &user.User{}
	}

	return usr
}

func (a *Auth) getUserIDFromCookie(request *http.Request) string {
	cookie, err := request.Cookie(a.authCookieName)
	if err != nil {
		return ""
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.authCookieSigningSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		return ""
	}

	return claims.UserID
}

func (a *Auth) buildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.authCookieSigningSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
