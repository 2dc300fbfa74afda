// Package service enforces authorization and translates store outcomes into
// coded domain errors. Handlers call it; it never touches HTTP.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nightcity/redsheet/internal/apperr"
	"github.com/nightcity/redsheet/internal/events"
	"github.com/nightcity/redsheet/internal/store"
)

// Publisher receives campaign events after a successful write.
type Publisher interface {
	Publish(events.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// clock and id generation are swapped out in tests.
type env struct {
	now   func() time.Time
	newID func() string
}

func defaultEnv() env {
	return env{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// translate maps store sentinels to coded errors naming what.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case isCoded(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, store.ErrConditionFailed):
		return apperr.Wrap(apperr.CodeConcurrentModification, what+" was modified concurrently", err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func isCoded(err error) bool {
	_, ok := apperr.CodeOf(err)
	return ok
}
