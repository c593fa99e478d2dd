package gateapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-gate/common/errs"
	"ticket-gate/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := viper.New()
	cfg.Set("api.base_url", srv.URL)
	cfg.Set("api.token", "secret-token")
	cfg.Set("api.timeout", "5s")
	cfg.Set("gate.locale", "fr")

	return NewClient(cfg)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		expectedKind errs.Kind
		expectedMsg  string
		check        func(t *testing.T, info *model.TicketInfo)
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{"token":"CANONICAL-1","status":"issued",` +
				`"user":{"firstName":"Jane","lastName":"Doe","email":"jane@example.com"},` +
				`"event":{"name":"Concert","date":"2025-07-15","time":"20:00","location":"Main Hall","places":2}}`,
			check: func(t *testing.T, info *model.TicketInfo) {
				assert.Equal(t, "CANONICAL-1", info.Token)
				assert.Equal(t, "ABC123", info.TicketToken)
				assert.Equal(t, model.TicketStatusIssued, info.Status)
				assert.Equal(t, "Concert", info.Event.Name)
				assert.True(t, info.CanValidate())
			},
		},
		{
			name:         "not found",
			status:       http.StatusNotFound,
			body:         `{"error":"not found"}`,
			expectedKind: errs.KindNotFound,
		},
		{
			name:         "server error",
			status:       http.StatusInternalServerError,
			body:         `{"error":"boom"}`,
			expectedKind: errs.KindFetch,
			expectedMsg:  "unexpected status 500: boom",
		},
		{
			name:         "unauthorized",
			status:       http.StatusUnauthorized,
			body:         `{"error":"bad token"}`,
			expectedKind: errs.KindFetch,
			expectedMsg:  "unexpected status 401: bad token",
		},
		{
			name:         "malformed body",
			status:       http.StatusOK,
			body:         `{invalid`,
			expectedKind: errs.KindFetch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/tickets/scan/ABC123", r.URL.Path)
				assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
				assert.Equal(t, "fr", r.Header.Get("Accept-Language"))

				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			info, err := client.Lookup(context.Background(), "ABC123")

			if tt.expectedKind != 0 {
				require.Error(t, err)
				var scanErr *errs.ScanError
				require.True(t, errors.As(err, &scanErr))
				assert.Equal(t, tt.expectedKind, scanErr.Kind)
				if tt.expectedMsg != "" {
					assert.Contains(t, scanErr.Error(), tt.expectedMsg)
				}
				assert.Nil(t, info)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, info)
			tt.check(t, info)
		})
	}
}

func TestLookupNetworkFailure(t *testing.T) {
	cfg := viper.New()
	cfg.Set("api.base_url", "http://127.0.0.1:1")
	cfg.Set("api.token", "secret-token")
	cfg.Set("api.timeout", "250ms")
	cfg.Set("gate.locale", "en")

	client := NewClient(cfg)

	_, err := client.Lookup(context.Background(), "ABC123")

	require.Error(t, err)
	var scanErr *errs.ScanError
	require.True(t, errors.As(err, &scanErr))
	assert.Equal(t, errs.KindFetch, scanErr.Kind)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		expectedKind errs.Kind
		check        func(t *testing.T, info *model.TicketInfo)
		checkErr     func(t *testing.T, scanErr *errs.ScanError)
	}{
		{
			name:   "success returns partial snapshot",
			status: http.StatusOK,
			body:   `{"status":"used","usedAt":"2025-07-15T10:00:00Z"}`,
			check: func(t *testing.T, info *model.TicketInfo) {
				assert.Equal(t, model.TicketStatusUsed, info.Status)
				require.NotNil(t, info.UsedAt)
				assert.Equal(t, time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC), info.UsedAt.UTC())
			},
		},
		{
			name:   "conflict carries full snapshot",
			status: http.StatusConflict,
			body: `{"token":"CANONICAL-9","status":"already_used",` +
				`"user":{"firstName":"Max","lastName":"Muster","email":"max@example.com"},` +
				`"event":{"name":"Festival","places":4}}`,
			expectedKind: errs.KindConflict,
			checkErr: func(t *testing.T, scanErr *errs.ScanError) {
				snapshot, ok := scanErr.Data.(*model.TicketInfo)
				require.True(t, ok)
				assert.Equal(t, model.TicketStatusAlreadyUsed, snapshot.Status)
				assert.Equal(t, "max@example.com", snapshot.User.Email)
				assert.Equal(t, "ABC123", snapshot.TicketToken)
			},
		},
		{
			name:         "server error",
			status:       http.StatusBadGateway,
			body:         `{"error":"bad gateway"}`,
			expectedKind: errs.KindValidation,
			checkErr: func(t *testing.T, scanErr *errs.ScanError) {
				assert.Contains(t, scanErr.Error(), "unexpected status 502: bad gateway")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/tickets/scan/ABC123", r.URL.Path)
				assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

				body, _ := io.ReadAll(r.Body)
				assert.Empty(t, body)

				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			info, err := client.Validate(context.Background(), "ABC123")

			if tt.expectedKind != 0 {
				require.Error(t, err)
				var scanErr *errs.ScanError
				require.True(t, errors.As(err, &scanErr))
				assert.Equal(t, tt.expectedKind, scanErr.Kind)
				if tt.checkErr != nil {
					tt.checkErr(t, scanErr)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, info)
			tt.check(t, info)
		})
	}
}

func TestClientLocaleFallback(t *testing.T) {
	cfg := viper.New()
	cfg.Set("api.base_url", "http://localhost")
	cfg.Set("gate.locale", "not-a-locale")

	client := NewClient(cfg)

	assert.Equal(t, "en", client.acceptLanguage)
}
