package cmd

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"ticket-gate/common/constant"
	commonJetstream "ticket-gate/common/jetstream"
	"ticket-gate/common/otel"
	"ticket-gate/inbound/event"
	"ticket-gate/outbound/audit"
)

// runMonitorCmd tails the scan-result stream and records every gate outcome
// into the central audit store.
func runMonitorCmd(ctx context.Context) {
	cfg := newCfg("env")

	if cfg.GetBool("otel.enabled") {
		shutdown := otel.InitProvider(ctx, cfg.GetString("otel.endpoint"), "scan-monitor")
		defer shutdown()
	}

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	commonJetstream.CreateScanStream(ctx, js)

	st, err := js.Stream(ctx, constant.ScanStreamName)
	if err != nil {
		log.Fatalln("failed to get stream", err)
	}

	db := newAuditDb(cfg)
	defer db.Close()

	scanEvent := event.ScanResultEvent{
		Recorder: &audit.Recorder{Db: db},
		Timeout:  cfg.GetDuration("queue.scan.timeout"),
	}

	cons, err := st.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       "consumer:scan_results",
		FilterSubject: constant.ScanWildcard,
		MaxDeliver:    cfg.GetInt("queue.scan.max_deliver"),
		AckWait:       cfg.GetDuration("queue.scan.ack_wait"),
	})
	if err != nil {
		log.Fatalln("failed to create consumer", err)
	}

	iter, err := cons.Messages()
	if err != nil {
		panic(err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := iter.Next()
				if err != nil && err != jetstream.ErrMsgIteratorClosed {
					slog.ErrorContext(ctx, "Error fetching message", slog.Any(constant.LogFieldErr, err))
					continue
				}

				if msg == nil {
					continue
				}

				if eventErr := scanEvent.RecordHandler(ctx, msg.Data()); eventErr != nil {
					msg.NakWithDelay(1 * time.Second)
					continue
				}

				if err := msg.Ack(); err != nil {
					slog.ErrorContext(ctx, "Error acknowledging message",
						slog.Any(constant.LogFieldErr, err),
						slog.Any(constant.LogFieldPayload, string(msg.Data())),
						slog.String("subject", msg.Subject()),
					)
					continue
				}
			}
		}
	}()

	slog.InfoContext(ctx, "scan monitor started")

	<-ctx.Done()

	iter.Stop()

	slog.InfoContext(ctx, "scan monitor stopped")
}
