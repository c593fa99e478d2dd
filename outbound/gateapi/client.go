package gateapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"ticket-gate/common"
	"ticket-gate/common/constant"
	"ticket-gate/common/errs"
	"ticket-gate/common/otel"
	"ticket-gate/model"
)

// Client talks to the ticketing backend's scan endpoints. Every request
// carries the gate's bearer credential and the active locale; no retries
// happen here, retry is a staff-initiated workflow restart.
type Client struct {
	baseUrl        string
	bearerToken    string
	acceptLanguage string

	Http *http.Client
}

func NewClient(cfg *viper.Viper) *Client {
	tag, err := language.Parse(cfg.GetString("gate.locale"))
	if err != nil {
		tag = language.English
	}

	timeout := cfg.GetDuration("api.timeout")
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		baseUrl:        cfg.GetString("api.base_url"),
		bearerToken:    cfg.GetString("api.token"),
		acceptLanguage: tag.String(),
		Http: &http.Client{
			Timeout:   timeout,
			Transport: &otel.TracingTransport{},
		},
	}
}

// Lookup fetches ticket, event and holder details for a scanned or typed
// token. The returned TicketInfo keeps the submitted value in TicketToken
// next to the server's own canonical Token.
func (c *Client) Lookup(ctx context.Context, token string) (*model.TicketInfo, error) {
	ctx, span := otel.Tracer.Start(ctx, "GateApi.lookup")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	resp, err := c.do(ctx, http.MethodGet, token)
	if err != nil {
		slog.ErrorContext(ctx, "ticket lookup request failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return nil, errs.Fetch(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		slog.DebugContext(ctx, "ticket not found", traceIdAttr, slog.String(constant.LogFieldToken, token))
		return nil, errs.NotFound()
	case resp.StatusCode != http.StatusOK:
		err := statusError(resp)
		slog.ErrorContext(ctx, "ticket lookup failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return nil, errs.Fetch(err)
	}

	var info model.TicketInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		slog.ErrorContext(ctx, "ticket lookup decode failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return nil, errs.Fetch(err)
	}

	info.TicketToken = token

	return &info, nil
}

// Validate marks the ticket as used. A 200 returns the partial snapshot to
// merge; a 409 returns a ScanError of KindConflict whose Data holds the full
// TicketInfo the server sent back.
func (c *Client) Validate(ctx context.Context, token string) (*model.TicketInfo, error) {
	ctx, span := otel.Tracer.Start(ctx, "GateApi.validate")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	resp, err := c.do(ctx, http.MethodPost, token)
	if err != nil {
		slog.ErrorContext(ctx, "ticket validate request failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return nil, errs.Validation(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		var snapshot model.TicketInfo
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			common.UtilSpanError(span, err)
			return nil, errs.Validation(err)
		}

		snapshot.TicketToken = token

		slog.InfoContext(ctx, "ticket validate conflict", traceIdAttr, slog.String(constant.LogFieldToken, token))
		return nil, errs.Conflict(&snapshot)
	case resp.StatusCode != http.StatusOK:
		err := statusError(resp)
		slog.ErrorContext(ctx, "ticket validate failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return nil, errs.Validation(err)
	}

	var partial model.TicketInfo
	if err := json.NewDecoder(resp.Body).Decode(&partial); err != nil {
		slog.ErrorContext(ctx, "ticket validate decode failed", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return nil, errs.Validation(err)
	}

	return &partial, nil
}

func (c *Client) do(ctx context.Context, method string, token string) (*http.Response, error) {
	endpoint := fmt.Sprintf("%s/api/tickets/scan/%s", c.baseUrl, url.PathEscape(token))

	req, err := http.NewRequestWithContext(ctx, method, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("Accept-Language", c.acceptLanguage)
	req.Header.Set("Accept", "application/json")

	return c.Http.Do(req)
}

// statusError classifies an unexpected response, keeping the backend's own
// error message when the body carries one.
func statusError(resp *http.Response) error {
	var body model.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body.Error)
	}

	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
