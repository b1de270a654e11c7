//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/google/uuid"

	"mentorlink/domain"
	"mentorlink/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the push side of a transport session. Consume must never
// block the caller: a full session buffer drops the event.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry is the presence registry: the live mapping from user identity
// to their active transport session. It is the only mutable shared
// in-memory state of the core and is owned exclusively by the runtime.
type IRegistry interface {
	Register(userID string, sessionID uuid.UUID, sink EventSink)
	Unregister(userID string, sessionID uuid.UUID)
	Sink(userID string) (EventSink, bool)
	IsOnline(userID string) bool
	OnlineUsers() []string
}

// IDispatcher pushes a freshly persisted message to the recipient's
// session, if one is registered. At-most-once, best-effort.
type IDispatcher interface {
	Dispatch(ctx context.Context, message domain.Message)
}
