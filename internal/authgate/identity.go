package authgate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const emailPasswordSignInMethod = "password"

// IdentityToolkit implements Gate on the Google Identity Toolkit REST API.
type IdentityToolkit struct {
	rp          *identitytoolkit.RelyingpartyService
	continueURL string
	state       *authState
	logger      zerolog.Logger

	mu      sync.Mutex
	idToken string
}

// NewIdentityToolkit creates the gate and kicks off the initial asynchronous
// state resolution. Sessions do not persist across processes, so the initial
// state always resolves to signed-out; listeners attached before that still
// observe the resolution event rather than a stale snapshot.
func NewIdentityToolkit(ctx context.Context, apiKey, continueURL string, logger zerolog.Logger) (*IdentityToolkit, error) {
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Identity Toolkit client: %w", err)
	}

	g := &IdentityToolkit{
		rp:          svc.Relyingparty,
		continueURL: continueURL,
		state:       newAuthState(),
		logger:      logger.With().Str("component", "authgate").Logger(),
	}
	go g.state.resolve(nil)
	return g, nil
}

func (g *IdentityToolkit) CurrentUser() *Account {
	return g.state.snapshot()
}

func (g *IdentityToolkit) OnAuthStateResolved(fn func(*Account)) func() {
	return g.state.subscribe(fn)
}

// token returns the session ID token, failing when there is no live session.
func (g *IdentityToolkit) token() (string, error) {
	g.mu.Lock()
	idToken := g.idToken
	g.mu.Unlock()
	if idToken == "" {
		return "", ErrNotSignedIn
	}
	if exp, err := tokenExpiry(idToken); err == nil && time.Now().After(exp) {
		return "", fmt.Errorf("session expired: %w", ErrNotSignedIn)
	}
	return idToken, nil
}

// adopt installs a fresh session token and resolves the auth state from the
// provider's account record.
func (g *IdentityToolkit) adopt(ctx context.Context, idToken string) error {
	g.mu.Lock()
	g.idToken = idToken
	g.mu.Unlock()

	acc, err := g.AccountInfo(ctx)
	if err != nil {
		return err
	}
	g.logger.Debug().Str("user_id", acc.ID).Msg("auth state resolved")
	g.state.resolve(acc)
	return nil
}

func (g *IdentityToolkit) CreateUser(ctx context.Context, email, password, displayName, photoURL string) error {
	resp, err := g.rp.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
		PhotoUrl:    photoURL,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return g.adopt(ctx, resp.IdToken)
}

func (g *IdentityToolkit) SignIn(ctx context.Context, email, password string) error {
	resp, err := g.rp.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to sign in: %w", err)
	}
	return g.adopt(ctx, resp.IdToken)
}

func (g *IdentityToolkit) SignOut(ctx context.Context) error {
	g.mu.Lock()
	g.idToken = ""
	g.mu.Unlock()
	g.state.resolve(nil)
	return nil
}

func (g *IdentityToolkit) SendSignInLinkToEmail(ctx context.Context, email string) error {
	_, err := g.rp.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType:        "EMAIL_SIGNIN",
		Email:              email,
		ContinueUrl:        g.continueURL,
		CanHandleCodeInApp: true,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to send sign-in link: %w", err)
	}
	return nil
}

func (g *IdentityToolkit) SignInWithEmailLink(ctx context.Context, email, oobCode string) error {
	resp, err := g.rp.EmailLinkSignin(&identitytoolkit.IdentitytoolkitRelyingpartyEmailLinkSigninRequest{
		Email:   email,
		OobCode: oobCode,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to sign in with email link: %w", err)
	}
	return g.adopt(ctx, resp.IdToken)
}

func (g *IdentityToolkit) FetchSignInMethods(ctx context.Context, email string) ([]string, error) {
	resp, err := g.rp.CreateAuthUri(&identitytoolkit.IdentitytoolkitRelyingpartyCreateAuthUriRequest{
		Identifier:  email,
		ContinueUri: g.continueURL,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sign-in methods: %w", err)
	}
	return resp.AllProviders, nil
}

func (g *IdentityToolkit) SendPasswordResetEmail(ctx context.Context, email string) error {
	_, err := g.rp.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (g *IdentityToolkit) UpdateProfile(ctx context.Context, displayName, photoURL *string) error {
	idToken, err := g.token()
	if err != nil {
		return err
	}
	req := &identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		IdToken:           idToken,
		ReturnSecureToken: true,
	}
	if displayName != nil {
		req.DisplayName = *displayName
	}
	if photoURL != nil {
		req.PhotoUrl = *photoURL
	}
	resp, err := g.rp.SetAccountInfo(req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if resp.IdToken != "" {
		return g.adopt(ctx, resp.IdToken)
	}
	return g.adopt(ctx, idToken)
}

func (g *IdentityToolkit) AccountInfo(ctx context.Context) (*Account, error) {
	idToken, err := g.token()
	if err != nil {
		return nil, err
	}
	resp, err := g.rp.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		IdToken: idToken,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account info: %w", err)
	}
	if len(resp.Users) == 0 {
		return nil, fmt.Errorf("account info response is empty: %w", ErrNotSignedIn)
	}
	u := resp.Users[0]
	return &Account{
		ID:            u.LocalId,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoUrl,
		EmailVerified: u.EmailVerified,
	}, nil
}
