package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/infrastructure/resilience"
)

const (
	subjectDocumentPending = "lexilocal.documents.pending"
	queueGroupIndexer      = "indexer"
)

// Queue publishes document-pending events and feeds them to the indexer
// worker. Consumers join a queue group so multiple indexer instances share
// the stream without duplicate processing.
type Queue struct {
	conn     *nats.Conn
	executor *resilience.Executor
	logger   *slog.Logger
}

func Connect(url string, executor *resilience.Executor, logger *slog.Logger) (*Queue, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info("nats_reconnected", "url", conn.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "nats connect", err)
	}
	return &Queue{conn: conn, executor: executor, logger: logger}, nil
}

func (q *Queue) PublishDocumentPending(ctx context.Context, documentID string) error {
	publish := func(callCtx context.Context) error {
		if err := q.conn.Publish(subjectDocumentPending, []byte(documentID)); err != nil {
			return err
		}
		// Flush bounds the publish by the caller's deadline instead of
		// leaving the message sitting in the client buffer.
		return q.conn.FlushWithContext(callCtx)
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", publish, classifyNATSError)
	} else {
		err = publish(ctx)
	}
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "publish pending", err)
	}
	return nil
}

// classifyNATSError treats connection-state failures as transient. A
// reconnecting client recovers them; a closed connection does not.
func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case errors.Is(err, nats.ErrConnectionClosed):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	default:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
}

// SubscribeDocumentPending blocks until ctx is done. Handler errors are
// logged and the message dropped; the document record keeps the failure
// status, so losing the event is observable.
func (q *Queue) SubscribeDocumentPending(ctx context.Context, handler func(context.Context, string) error) error {
	subscription, err := q.conn.QueueSubscribe(subjectDocumentPending, queueGroupIndexer, func(msg *nats.Msg) {
		documentID := string(msg.Data)
		if err := handler(ctx, documentID); err != nil {
			q.logger.Error("pending_handler_failed", "document_id", documentID, "error", err)
		}
	})
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "subscribe pending", fmt.Errorf("%s: %w", subjectDocumentPending, err))
	}
	defer func() {
		if err := subscription.Unsubscribe(); err != nil {
			q.logger.Warn("unsubscribe_failed", "error", err)
		}
	}()

	<-ctx.Done()
	return ctx.Err()
}

func (q *Queue) Close() {
	q.conn.Close()
}
