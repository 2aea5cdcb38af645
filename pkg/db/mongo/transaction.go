package mongo

import (
	"context"
	"fmt"
	"time"

	apperrors "hotelbooking/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// TransactionFunc runs inside a transaction. The ctx it receives carries the
// session and must be passed to every repository call that should join it.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client  *mongo.Client
	timeout time.Duration
}

func NewTransactionManager(client *mongo.Client, timeout time.Duration) TransactionManager {
	return &mongoTransactionManager{
		client:  client,
		timeout: timeout,
	}
}

func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	}, txnOpts)

	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		if ctx.Err() != nil {
			return apperrors.Timeout("transaction timed out")
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// WithTimeout bounds a single operation. Session contexts are returned
// unchanged because wrapping them would detach the operation from its
// transaction; the transaction's own deadline covers them.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}
