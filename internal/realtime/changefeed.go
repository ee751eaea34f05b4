package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	contracts "github.com/piccolojnr/planning-platform/contracts/mq"
	"github.com/piccolojnr/planning-platform/pkg/metrics"
	"github.com/piccolojnr/planning-platform/pkg/outbox"
)

// ChangeFeed records table change events through the transactional outbox.
// Consumers only learn "table X changed for project P" and refetch the whole
// container; no deltas are carried. Events survive broker outages because the
// outbox dispatcher owns actual publication.
type ChangeFeed struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewChangeFeed(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *ChangeFeed {
	return &ChangeFeed{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

// Record stores a change event in its own short transaction. Used after
// single-statement mutations, which are atomic on their own.
func (f *ChangeFeed) Record(ctx context.Context, table, action string, projectID int64) error {
	tx, err := f.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin changefeed tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := f.RecordInTx(ctx, tx, table, action, projectID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RecordInTx stores a change event inside an existing transaction, so the
// event commits together with the mutation it describes.
func (f *ChangeFeed) RecordInTx(ctx context.Context, tx pgx.Tx, table, action string, projectID int64) error {
	payload := contracts.TableChangedPayload{
		Table:     table,
		Action:    action,
		ProjectID: projectID,
		ChangedAt: time.Now().UTC(),
	}

	aggregateID := projectID
	err := f.outbox.Enqueue(ctx, tx, table, &aggregateID, contracts.RoutingKey(table), payload)
	if err != nil {
		return fmt.Errorf("failed to record change event: %w", err)
	}

	metrics.IncrementChangeEvent(table, action)
	return nil
}

// Notify is a best-effort Record: failures are logged, never surfaced, so a
// missed refetch ping cannot fail the mutation it follows.
func (f *ChangeFeed) Notify(ctx context.Context, table, action string, projectID int64) {
	if err := f.Record(ctx, table, action, projectID); err != nil {
		f.logger.Error("Failed to record change event",
			zap.String("table", table),
			zap.String("action", action),
			zap.Int64("project_id", projectID),
			zap.Error(err),
		)
	}
}
