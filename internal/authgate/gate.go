package authgate

import (
	"context"
	"errors"
)

// ErrNotSignedIn is returned by operations that need an active session.
var ErrNotSignedIn = errors.New("no signed in user")

// Account is the provider-level view of the signed-in user. The user service
// translates it into the domain profile.
type Account struct {
	ID            string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
}

// Gate defines the authentication provider operations.
//
// CurrentUser is a possibly stale snapshot: it is nil until the first state
// resolution completes, so callers that must know the real state (the
// navigation guard) have to wait for OnAuthStateResolved instead.
type Gate interface {
	// CurrentUser returns the last resolved account, or nil.
	CurrentUser() *Account
	// OnAuthStateResolved registers fn to be called with the resolved account
	// (or nil) at least once, and again on every later sign-in/out. The
	// returned function detaches the listener and is safe to call twice.
	OnAuthStateResolved(fn func(*Account)) (unsubscribe func())

	CreateUser(ctx context.Context, email, password, displayName, photoURL string) error
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	SendSignInLinkToEmail(ctx context.Context, email string) error
	SignInWithEmailLink(ctx context.Context, email, oobCode string) error
	FetchSignInMethods(ctx context.Context, email string) ([]string, error)
	SendPasswordResetEmail(ctx context.Context, email string) error
	// UpdateProfile patches the display name and/or photo URL; nil means keep.
	UpdateProfile(ctx context.Context, displayName, photoURL *string) error
	// AccountInfo re-reads the profile of the current session from the provider.
	AccountInfo(ctx context.Context) (*Account, error)
}
