package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/message"

	"ticket-gate/common/errs"
	"ticket-gate/model"
	"ticket-gate/outbound/gateapi"
)

// runValidateCmd is the scanner-less fallback: validate one token directly,
// with the same conflict-display semantics as a direct gate.
func runValidateCmd(ctx context.Context, token string) {
	cfg := newCfg("env")

	validate := validator.New()
	if err := validate.Var(token, "required,printascii,max=128"); err != nil {
		log.Fatalln("invalid token:", err)
	}

	client := gateapi.NewClient(cfg)

	reqCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	renderer := &gateRenderer{
		Printer: message.NewPrinter(localeTag(cfg)),
		Out:     os.Stdout,
	}

	partial, err := client.Validate(reqCtx, token)
	if err != nil {
		var scanErr *errs.ScanError
		if errors.As(err, &scanErr) && scanErr.Kind == errs.KindConflict {
			if snapshot, ok := scanErr.Data.(*model.TicketInfo); ok {
				renderer.renderTicket(snapshot, false)
				log.Fatalln("ticket already used")
			}
		}

		log.Fatalln("validation failed:", err)
	}

	partial.TicketToken = token
	renderer.renderTicket(partial, false)

	if partial.UsedAt != nil {
		log.Println("validated at", partial.UsedAt.Local().Format(time.DateTime))
	}
}
