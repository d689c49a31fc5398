package services

import (
	"context"

	"github.com/LOGQS/coursegen-backend/internal/clients/redis"
	"github.com/LOGQS/coursegen-backend/internal/sse"
)

type SSEEmitter interface {
	Emit(ctx context.Context, msg sse.SSEMessage)
}

type HubEmitter struct{ Hub *sse.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg sse.SSEMessage) {
	e.Hub.Broadcast(msg)
}

type RedisEmitter struct{ Bus redis.SSEBus }

func (e *RedisEmitter) Emit(ctx context.Context, msg sse.SSEMessage) {
	_ = e.Bus.Publish(ctx, msg)
}

// MultiEmitter fans one event out to several sinks; used to drive the
// local hub and the redis bus from a single notifier.
type MultiEmitter struct{ Emitters []SSEEmitter }

func (e *MultiEmitter) Emit(ctx context.Context, msg sse.SSEMessage) {
	for _, em := range e.Emitters {
		if em != nil {
			em.Emit(ctx, msg)
		}
	}
}
