package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	commonJetstream "ticket-gate/common/jetstream"
	"ticket-gate/common/otel"
	inboundCron "ticket-gate/inbound/cron"
	"ticket-gate/inbound/scan"
	"ticket-gate/model"
	"ticket-gate/outbound/audit"
	"ticket-gate/outbound/decoder"
	"ticket-gate/outbound/gateapi"
)

func runGateCmd(ctx context.Context, policy scan.Policy) {
	cfg := newCfg("env")

	gateId := cfg.GetString("gate.id")
	region := cfg.GetString("gate.region")

	if cfg.GetBool("otel.enabled") {
		shutdown := otel.InitProvider(ctx, cfg.GetString("otel.endpoint"), gateId)
		defer shutdown()
	}

	registry := decoder.NewRegistry(func(region string) decoder.Session {
		return decoder.NewStreamSession(
			region,
			decoder.DeviceOpener(cfg.GetString("gate.device")),
			cfg.GetInt("gate.frame_rate"),
		)
	})

	renderer := &gateRenderer{
		Printer: message.NewPrinter(localeTag(cfg)),
		Out:     os.Stdout,
	}

	controller := &scan.Controller{
		Api:       gateapi.NewClient(cfg),
		Session:   registry.Acquire(region),
		Validator: validator.New(),
		GateId:    gateId,
		Policy:    policy,
		RecentTTL: cfg.GetDuration("gate.recent_ttl"),
		OnChange:  renderer.Render,
	}

	if cfg.GetBool("redis.enabled") {
		cacheClient := newRedis(cfg)
		defer cacheClient.Close()

		controller.Cache = cacheClient

		heartbeat := inboundCron.HeartbeatCron{
			Cfg:    cfg,
			Cache:  cacheClient,
			GateId: gateId,
		}
		go heartbeat.Start(ctx)
	}

	if cfg.GetBool("nats.enabled") {
		natsConn := newNats(cfg)
		defer natsConn.Close()

		js := newJs(natsConn)
		commonJetstream.CreateScanStream(ctx, js)

		controller.Publisher = js
	}

	if cfg.GetBool("audit.enabled") {
		db := newAuditDb(cfg)
		defer db.Close()

		controller.Recorder = &audit.Recorder{Db: db}
	}

	srv := newStatusServer(cfg)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln("unable to start status server", err)
		}
	}()

	controller.Start(ctx)
	defer controller.Close()

	go consoleLoop(ctx, controller, os.Stdin)

	slog.Info("gate terminal started",
		slog.String("gate_id", gateId),
		slog.String("region_id", region),
		slog.Bool("requires_lookup", policy.RequiresLookup),
	)

	<-ctx.Done()

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		log.Fatalln("unable to shutdown status server", err)
	}

	slog.Info("gate terminal stopped")
}

func newStatusServer(cfg *viper.Viper) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		slog.DebugContext(r.Context(), "health check")
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GetInt("status.port")),
		Handler:           mux,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// consoleLoop reads operator input: "v" validates the reviewed ticket, "r"
// resets the workflow, anything else is submitted as a manually typed token.
func consoleLoop(ctx context.Context, controller *scan.Controller, in io.Reader) {
	sc := bufio.NewScanner(in)

	for sc.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch line := sc.Text(); line {
		case "v":
			controller.Validate()
		case "r":
			controller.Reset()
		default:
			if err := controller.SubmitManual(line); err != nil {
				fmt.Println("rejected input:", err)
			}
		}
	}
}

func localeTag(cfg *viper.Viper) language.Tag {
	tag, err := language.Parse(cfg.GetString("gate.locale"))
	if err != nil {
		return language.English
	}

	return tag
}

type gateRenderer struct {
	Printer *message.Printer
	Out     io.Writer
}

func (r *gateRenderer) Render(snap scan.Snapshot) {
	switch snap.Phase {
	case scan.PhaseScanning:
		fmt.Fprintln(r.Out, "-- ready: scan a ticket or type its token --")
	case scan.PhaseFetching:
		fmt.Fprintln(r.Out, "fetching ticket...")
	case scan.PhaseValidating:
		fmt.Fprintln(r.Out, "validating ticket...")
	case scan.PhaseReviewing:
		r.renderTicket(snap.Ticket, snap.SeenRecently)
		if snap.CanValidate() {
			fmt.Fprintln(r.Out, "[v] validate  [r] rescan")
		} else {
			fmt.Fprintln(r.Out, "ticket cannot be validated  [r] rescan")
		}
	case scan.PhaseValidated:
		r.renderTicket(snap.Ticket, snap.SeenRecently)
		if snap.Ticket != nil && snap.Ticket.UsedAt != nil {
			fmt.Fprintf(r.Out, "VALIDATED at %s\n", snap.Ticket.UsedAt.Local().Format(time.DateTime))
		} else {
			fmt.Fprintln(r.Out, "VALIDATED")
		}
		fmt.Fprintln(r.Out, "[r] rescan")
	case scan.PhaseConflict:
		r.renderTicket(snap.Ticket, snap.SeenRecently)
		fmt.Fprintln(r.Out, "ALREADY USED  [r] rescan")
	case scan.PhaseFailed:
		if snap.Err != nil {
			fmt.Fprintln(r.Out, "ERROR:", snap.Err.Message)
		} else {
			fmt.Fprintln(r.Out, "ERROR")
		}
		if snap.Ticket != nil {
			r.renderTicket(snap.Ticket, false)
		}
		fmt.Fprintln(r.Out, "[r] rescan or restart the gate")
	}
}

func (r *gateRenderer) renderTicket(t *model.TicketInfo, seenRecently bool) {
	if t == nil {
		return
	}

	fmt.Fprintf(r.Out, "%s %s <%s>\n", t.User.FirstName, t.User.LastName, t.User.Email)
	fmt.Fprintf(r.Out, "%s, %s %s, %s\n", t.Event.Name, t.Event.Date, t.Event.Time, t.Event.Location)
	r.Printer.Fprintf(r.Out, "%d places, status %s\n", t.Event.Places, t.Status)
	fmt.Fprintf(r.Out, "token %s (scanned %s)\n", t.Token, t.TicketToken)

	if seenRecently {
		fmt.Fprintln(r.Out, "note: this token was scanned moments ago")
	}
}
