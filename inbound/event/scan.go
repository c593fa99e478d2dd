package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"ticket-gate/common"
	"ticket-gate/common/constant"
	"ticket-gate/common/otel"
	"ticket-gate/model"
	"ticket-gate/outbound/audit"
)

// ScanResultEvent consumes gate scan outcomes off the stream and records
// them centrally. Malformed payloads are dropped, not redelivered.
type ScanResultEvent struct {
	Recorder *audit.Recorder

	Timeout time.Duration
}

func (in ScanResultEvent) RecordHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.ScanResultEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil {
		slog.WarnContext(ctx, "scan result event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	ctx, span := otel.Tracer.Start(ctx, "ScanResultEvent.record")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	slog.InfoContext(ctx, "scan result event receive request",
		slog.Any(constant.LogFieldPayload, req),
		slog.String(constant.LogFieldGate, req.GateId),
		traceIdAttr,
	)

	if err := in.Recorder.Record(ctx, req); err != nil {
		common.UtilSpanError(span, err)
		return err
	}

	return nil
}
