package router

import (
	"context"

	"app/internal/authgate"
)

// AuthGuard gates protected routes on the asynchronously resolved auth state.
//
// The gate's CurrentUser snapshot may not be hydrated yet right after process
// start, so the guard never reads it. Instead every navigation attempt waits
// for one resolution event and then detaches its listener, so listeners do
// not pile up across navigations.
func AuthGuard(gate authgate.Gate, signUpRoute string) Guard {
	return func(ctx context.Context, to Route) (Decision, error) {
		resolved := make(chan *authgate.Account, 1)
		unsubscribe := gate.OnAuthStateResolved(func(acc *authgate.Account) {
			// Only the first event per attempt matters.
			select {
			case resolved <- acc:
			default:
			}
		})
		defer unsubscribe()

		select {
		case acc := <-resolved:
			if to.RequiresAuth && acc == nil {
				return RedirectTo(signUpRoute), nil
			}
			return Allow, nil
		case <-ctx.Done():
			return Decision{}, ctx.Err()
		}
	}
}
