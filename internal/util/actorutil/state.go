package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

type ActorState interface {
	Name() string
	Receive(actor.Context)
}

type namedState struct {
	name    string
	receive actor.ReceiveFunc
}

func (s namedState) Name() string {
	return s.name
}

func (s namedState) Receive(ctx actor.Context) {
	s.receive(ctx)
}

func State(name string, receive actor.ReceiveFunc) ActorState {
	return namedState{name: name, receive: receive}
}

// ActorWithStates is a stack of named behaviors. The name of the active state
// is reported by StateName.
type ActorWithStates struct {
	behavior actor.Behavior
	names    []string
}

func NewActorWithStates(initial ActorState) *ActorWithStates {
	s := &ActorWithStates{behavior: actor.NewBehavior()}
	s.Become(initial)
	return s
}

func (s *ActorWithStates) Receive(ctx actor.Context) {
	s.behavior.Receive(ctx)
}

func (s *ActorWithStates) Become(state ActorState) {
	s.behavior.Become(state.Receive)
	s.names = []string{state.Name()}
}

func (s *ActorWithStates) BecomeStacked(state ActorState) {
	s.behavior.BecomeStacked(state.Receive)
	s.names = append(s.names, state.Name())
}

func (s *ActorWithStates) UnbecomeStacked() {
	s.behavior.UnbecomeStacked()
	if len(s.names) > 1 {
		s.names = s.names[:len(s.names)-1]
	}
}

func (s *ActorWithStates) StateName() string {
	if len(s.names) == 0 {
		return ""
	}
	return s.names[len(s.names)-1]
}
