package jetstream

import (
	"context"

	"github.com/nats-io/nats.go/jetstream"

	"ticket-gate/common/constant"
)

// CreateScanStream declares the work-queue stream that gate processes
// publish scan outcomes to.
func CreateScanStream(ctx context.Context, js jetstream.JetStream) jetstream.Stream {
	cfg := jetstream.StreamConfig{
		Name:      constant.ScanStreamName,
		Retention: jetstream.WorkQueuePolicy,
		Subjects:  []string{constant.AllWildcard},
		MaxBytes:  5 * 1024 * 1024,
	}

	st, err := js.CreateOrUpdateStream(ctx, cfg)
	if err != nil {
		panic(err)
	}

	return st
}
