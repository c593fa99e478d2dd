package audit

import (
	"context"
	"log/slog"
	"time"

	"ticket-gate/common"
	"ticket-gate/common/constant"
	"ticket-gate/common/contract"
	"ticket-gate/common/otel"
	"ticket-gate/model"
)

const insertScanSql = `INSERT INTO gate_scans (attempt_id, gate_id, token, ticket_token, outcome, status, scanned_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Recorder keeps a gate-local trail of completed scan attempts. It is an
// optional collaborator: scanning keeps working when the venue runs a gate
// without a database.
type Recorder struct {
	Db contract.DbConn
}

func (r *Recorder) Record(ctx context.Context, msg model.ScanResultEventMessage) error {
	ctx, span := otel.Tracer.Start(ctx, "Audit.record")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	scannedAt, err := time.Parse(time.RFC3339, msg.ScannedAt)
	if err != nil {
		scannedAt = time.Now()
	}

	_, err = r.Db.Exec(ctx, insertScanSql,
		msg.AttemptId,
		msg.GateId,
		msg.Token,
		msg.TicketToken,
		msg.Outcome,
		msg.Status,
		scannedAt,
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to record scan attempt", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return err
	}

	slog.DebugContext(ctx, "scan attempt recorded", traceIdAttr, slog.String(constant.LogFieldToken, msg.Token))

	return nil
}
