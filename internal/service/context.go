package service

import (
	"context"
	"time"

	"printshop-api/internal/ws"
)

type requestMetaKey struct{}

// RequestMeta is the caller information the activity log records.
type RequestMeta struct {
	IP        string
	UserAgent string
	RequestID string
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// Notifier pushes workflow events to connected dashboards. *ws.Hub implements it.
type Notifier interface {
	Publish(event ws.Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(ws.Event) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }
