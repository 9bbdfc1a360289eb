package actor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/berfenger/v2ca/internal/core/domain"
	"github.com/berfenger/v2ca/internal/core/port"
	"github.com/berfenger/v2ca/internal/metrics"
	"github.com/berfenger/v2ca/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// InboundMessage is a raw MQTT message forwarded to a BridgeDispatchActor.
type InboundMessage struct {
	Topic   string
	Payload []byte
}

type messageProcessed struct {
	topic string
	err   error
}

var errNoValue = errors.New("adapted value is absent")

// BridgeDispatchActor decodes, adapts and delivers inbound messages one at a
// time in arrival order. Messages arriving while one is being handled are
// stashed. A failing message is logged and never stops the actor.
type BridgeDispatchActor[T, K any] struct {
	*actorutil.ActorWithStates
	stash    *actorutil.Stash
	topic    string
	adapter  port.Adapter[*T, *K]
	callback port.Callback[K]
	logger   *zap.Logger
}

func NewBridgeDispatchActor[T, K any](topic string, adapter port.Adapter[*T, *K], callback port.Callback[K],
	logger *zap.Logger) *BridgeDispatchActor[T, K] {
	act := &BridgeDispatchActor[T, K]{
		stash:    &actorutil.Stash{},
		topic:    topic,
		adapter:  adapter,
		callback: callback,
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_BRIDGE, logger).With(zap.String("topic", topic)),
	}
	act.ActorWithStates = actorutil.NewActorWithStates(actorutil.State("idle", act.DefaultReceive))
	return act
}

func (state *BridgeDispatchActor[T, K]) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("bridge@default started")
	case *actor.Stopping:
		state.logger.Debug("bridge@default stopping")
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_BRIDGE,
			Healthy: true,
			State:   state.StateName(),
		})
	case InboundMessage:
		state.dispatch(ctx, msg)
	}
}

func (state *BridgeDispatchActor[T, K]) ProcessingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Stopping:
		state.logger.Debug("bridge@processing stopping", zap.Int("stashed", state.stash.Len()))
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_BRIDGE,
			Healthy: true,
			State:   state.StateName(),
		})
	case InboundMessage:
		state.logger.Debug("bridge@processing stash")
		state.stash.Stash(msg)
	case messageProcessed:
		state.record(msg)
		state.UnbecomeStacked()
		for {
			next, ok := state.stash.Pop()
			if !ok || state.dispatch(ctx, next.(InboundMessage)) {
				break
			}
		}
	}
}

// dispatch reports whether msg was handed to a background task.
func (state *BridgeDispatchActor[T, K]) dispatch(ctx actor.Context, msg InboundMessage) bool {
	if msg.Topic != state.topic {
		state.logger.Debug("bridge@dispatch ignoring foreign topic", zap.String("received", msg.Topic))
		metrics.BridgeMessages.WithLabelValues(state.topic, metrics.RESULT_SKIP).Inc()
		return false
	}
	state.BecomeStacked(actorutil.State("processing", state.ProcessingReceive))
	actorutil.NewBackgroundTaskErr(func() error {
		return state.handle(msg.Payload)
	}).PipeTo(ctx.ActorSystem().Root, ctx.Self(), func(_ *struct{}, err error) any {
		return messageProcessed{topic: msg.Topic, err: err}
	})
	return true
}

func (state *BridgeDispatchActor[T, K]) handle(payload []byte) error {
	var raw T
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	ctx := context.Background()
	adapted, err := state.adapter.Adapt(ctx, &raw)
	if err != nil {
		return fmt.Errorf("adapt message: %w", err)
	}
	if adapted == nil {
		return errNoValue
	}
	if err := state.callback(ctx, *adapted); err != nil {
		return fmt.Errorf("deliver message: %w", err)
	}
	return nil
}

func (state *BridgeDispatchActor[T, K]) record(msg messageProcessed) {
	switch {
	case msg.err == nil:
		metrics.BridgeMessages.WithLabelValues(msg.topic, metrics.RESULT_OK).Inc()
	case errors.Is(msg.err, errNoValue):
		state.logger.Debug("bridge@processed no value")
		metrics.BridgeMessages.WithLabelValues(msg.topic, metrics.RESULT_SKIP).Inc()
	default:
		state.logger.Error("bridge@processed error occurred while processing message", zap.Error(msg.err))
		metrics.BridgeMessages.WithLabelValues(msg.topic, metrics.RESULT_ERROR).Inc()
	}
}
