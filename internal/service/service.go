package service

import (
	"errors"
	"fmt"
	"sync"

	"app/internal/authgate"
	"app/internal/loading"
)

// ErrUnauthenticated is returned when an owner-scoped operation is attempted
// without a signed-in user.
var ErrUnauthenticated = errors.New("no logged in user")

// Options controls the side effects of a service call.
type Options struct {
	// ShowLoading toggles the busy indicator for the duration of the call.
	ShowLoading bool
	// UpdateStore applies the confirmed remote change to the local cache.
	UpdateStore bool
}

// acquire starts the busy indicator when requested and returns a release
// function that stops it at most once, on every return path.
func acquire(bar *loading.Bar, show bool) func() {
	if !show || bar == nil {
		return func() {}
	}
	bar.Start()
	var once sync.Once
	return func() {
		once.Do(bar.Stop)
	}
}

// ownerID resolves the authenticated owner from the gate snapshot.
func ownerID(gate authgate.Gate) (string, error) {
	acc := gate.CurrentUser()
	if acc == nil {
		return "", ErrUnauthenticated
	}
	return acc.ID, nil
}

func coursesCollection(ownerID string) string {
	return fmt.Sprintf("users/%s/courses", ownerID)
}

func chaptersCollection(ownerID, courseID string) string {
	return fmt.Sprintf("users/%s/courses/%s/chapters", ownerID, courseID)
}
