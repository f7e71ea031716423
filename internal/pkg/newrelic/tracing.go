package newrelic

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// FromContext returns the transaction carried by ctx, or nil
func FromContext(ctx context.Context) *newrelic.Transaction {
	return newrelic.FromContext(ctx)
}

// WithSegment runs fn inside a named segment of the transaction in ctx, if any
func WithSegment(ctx context.Context, name string, fn func() error) error {
	txn := FromContext(ctx)
	if txn == nil {
		return fn()
	}
	defer txn.StartSegment(name).End()

	err := fn()
	if err != nil {
		txn.NoticeError(err)
	}
	return err
}

// StartBackgroundTransaction starts a transaction for work that does not come from HTTP,
// such as NATS messages and websocket events. The returned context carries it.
func StartBackgroundTransaction(ctx context.Context, app *newrelic.Application, name string) (context.Context, func()) {
	if app == nil {
		return ctx, func() {}
	}
	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn.End
}
