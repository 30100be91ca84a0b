package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// maxRedirects caps guard redirect chains so a misconfigured route table
// cannot loop forever.
const maxRedirects = 10

// Route is an entry of the navigation table.
type Route struct {
	Name         string
	Path         string
	RequiresAuth bool
}

// Decision is a guard outcome: allow the navigation, or redirect to a named
// route.
type Decision struct {
	Redirect string
}

// Allow lets the navigation proceed.
var Allow = Decision{}

// RedirectTo resolves the navigation to another route; guards run again on
// the redirect target.
func RedirectTo(name string) Decision {
	return Decision{Redirect: name}
}

// Guard is consulted before every navigation.
type Guard func(ctx context.Context, to Route) (Decision, error)

// Router resolves named navigations through its guard chain.
type Router struct {
	mu      sync.Mutex
	routes  map[string]Route
	guards  []Guard
	current *Route
	logger  zerolog.Logger
}

func New(routes []Route, logger zerolog.Logger) *Router {
	table := make(map[string]Route, len(routes))
	for _, r := range routes {
		table[r.Name] = r
	}
	return &Router{
		routes: table,
		logger: logger.With().Str("component", "router").Logger(),
	}
}

// BeforeEach appends a guard. Guards run in registration order on every
// navigation attempt, including redirect targets.
func (r *Router) BeforeEach(g Guard) {
	r.mu.Lock()
	r.guards = append(r.guards, g)
	r.mu.Unlock()
}

// Push navigates to the named route and returns the route actually reached,
// which differs from the request when a guard redirected.
func (r *Router) Push(ctx context.Context, name string) (Route, error) {
	r.mu.Lock()
	guards := make([]Guard, len(r.guards))
	copy(guards, r.guards)
	r.mu.Unlock()

	target := name
	for hop := 0; hop <= maxRedirects; hop++ {
		route, ok := r.route(target)
		if !ok {
			return Route{}, fmt.Errorf("unknown route %q", target)
		}

		redirected := false
		for _, g := range guards {
			decision, err := g(ctx, route)
			if err != nil {
				return Route{}, err
			}
			if decision.Redirect != "" && decision.Redirect != route.Name {
				r.logger.Debug().Str("from", route.Name).Str("to", decision.Redirect).Msg("navigation redirected")
				target = decision.Redirect
				redirected = true
				break
			}
		}
		if redirected {
			continue
		}

		r.mu.Lock()
		r.current = &route
		r.mu.Unlock()
		return route, nil
	}
	return Route{}, fmt.Errorf("too many redirects while navigating to %q", name)
}

// Current returns the active route, if any navigation succeeded yet.
func (r *Router) Current() (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return Route{}, false
	}
	return *r.current, true
}

func (r *Router) route(name string) (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[name]
	return route, ok
}
