package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"ticket-gate/common"
	"ticket-gate/common/constant"
)

// HeartbeatCron refreshes the gate's liveness key so venue ops can tell a
// quiet gate from a dead one.
type HeartbeatCron struct {
	Cfg    *viper.Viper
	Cache  *redis.Client
	GateId string

	TimeNow func() time.Time
}

func (in HeartbeatCron) Start(ctx context.Context) {
	interval := in.Cfg.GetDuration("cron.heartbeat.interval")
	if interval == 0 {
		interval = 30 * time.Second
	}

	beatTicker := time.NewTicker(interval)
	defer beatTicker.Stop()

	// Run initial beat
	in.beat(ctx, interval)

	slog.Info("heartbeat cron started")

	for {
		select {
		case <-beatTicker.C:
			in.beat(ctx, interval)
		case <-ctx.Done():
			slog.Info("heartbeat cron stopped")
			return
		}
	}
}

func (in HeartbeatCron) beat(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	now := time.Now
	if in.TimeNow != nil {
		now = in.TimeNow
	}

	key := fmt.Sprintf(constant.GateHeartbeatKey, in.GateId)
	err := in.Cache.Set(ctx, key, now().UTC().Format(time.RFC3339), 3*interval).Err()
	if err != nil {
		slog.ErrorContext(ctx, "failed to refresh gate heartbeat", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	slog.DebugContext(ctx, "gate heartbeat refreshed", traceIdAttr)
}
