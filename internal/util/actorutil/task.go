package actorutil

import (
	"fmt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

// SafeBackgroundTask runs a function off the actor goroutine and reports the
// outcome through callbacks. Panics are turned into errors.
type SafeBackgroundTask[T any] struct {
	fn        func() (*T, error)
	onError   func(error)
	onSuccess func(*T)
}

func NewBackgroundTask[T any](fn func() (*T, error)) *SafeBackgroundTask[T] {
	return &SafeBackgroundTask[T]{fn: fn}
}

func NewBackgroundTaskErr(fn func() error) *SafeBackgroundTask[struct{}] {
	return &SafeBackgroundTask[struct{}]{
		fn: func() (*struct{}, error) {
			return &struct{}{}, fn()
		},
	}
}

func (t *SafeBackgroundTask[T]) OnError(fn func(error)) *SafeBackgroundTask[T] {
	t.onError = fn
	return t
}

func (t *SafeBackgroundTask[T]) OnSuccess(fn func(*T)) *SafeBackgroundTask[T] {
	t.onSuccess = fn
	return t
}

// PipeTo runs the task in the background and sends mapFn's message to pid.
func (t *SafeBackgroundTask[T]) PipeTo(root *actor.RootContext, pid *actor.PID, mapFn func(*T, error) any) {
	t.onSuccess = func(value *T) {
		root.Send(pid, mapFn(value, nil))
	}
	t.onError = func(err error) {
		root.Send(pid, mapFn(nil, err))
	}
	go t.Run()
}

func (t *SafeBackgroundTask[T]) Run() {
	result := io.RunSync(io.Eval(t.guarded))
	if result.Error != nil {
		if t.onError != nil {
			t.onError(result.Error)
		}
		return
	}
	if t.onSuccess != nil {
		t.onSuccess(result.Value)
	}
}

func (t *SafeBackgroundTask[T]) guarded() (value *T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("background task panic: %v", r)
		}
	}()
	return t.fn()
}
