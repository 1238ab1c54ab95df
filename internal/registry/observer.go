package registry

import "github.com/example/ride-sharing/internal/models"

// Observer receives lifecycle events after the registry state has changed.
// Observers run synchronously and cannot affect the outcome of an operation.
type Observer interface {
	Observe(e models.Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(e models.Event)

func (f ObserverFunc) Observe(e models.Event) { f(e) }
