package authgate

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// tokenExpiry reads the exp claim from an ID token without verifying the
// signature. Verification is the provider's job; the client only needs to
// know when the session lapses.
func tokenExpiry(idToken string) (time.Time, error) {
	parser := &jwt.Parser{}
	token, _, err := parser.ParseUnverified(idToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse ID token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}, fmt.Errorf("unexpected ID token claims type")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, fmt.Errorf("ID token has no exp claim")
	}
	return time.Unix(int64(exp), 0), nil
}
