package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/suite"

	"ticket-gate/model"
	"ticket-gate/outbound/audit"
)

type ScanResultEventTestSuite struct {
	suite.Suite

	PgxMock   pgxmock.PgxPoolIface
	scanEvent ScanResultEvent
}

func (s *ScanResultEventTestSuite) SetupTest() {
	pool, err := pgxmock.NewPool()
	if err != nil {
		s.T().Fatalf("failed to create pgxmock pool: %v", err)
	}

	s.PgxMock = pool
	s.scanEvent = ScanResultEvent{
		Recorder: &audit.Recorder{Db: pool},
		Timeout:  10 * time.Second,
	}

	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func (s *ScanResultEventTestSuite) TearDownTest() {
	s.PgxMock.Close()
}

func TestScanResultEventTestSuite(t *testing.T) {
	suite.Run(t, new(ScanResultEventTestSuite))
}

func (s *ScanResultEventTestSuite) TestRecordHandler() {
	scannedAt := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)

	input := model.ScanResultEventMessage{
		AttemptId:   "01JZXV1Q2M3N4P5Q6R7S8T9V0W",
		GateId:      "gate-a1",
		Token:       "CANONICAL-1",
		TicketToken: "ABC123",
		Outcome:     "validated",
		Status:      "used",
		ScannedAt:   scannedAt.Format(time.RFC3339),
	}

	testCases := []struct {
		name        string
		msg         func() []byte
		setupMock   func()
		expectError bool
	}{
		{
			name:        "malformed payload is dropped",
			msg:         func() []byte { return []byte(`{invalid json`) },
			setupMock:   func() {},
			expectError: false,
		},
		{
			name: "record error",
			msg: func() []byte {
				data, _ := json.Marshal(input)
				return data
			},
			setupMock: func() {
				s.PgxMock.ExpectExec(`INSERT INTO gate_scans`).
					WithArgs(input.AttemptId, input.GateId, input.Token, input.TicketToken, input.Outcome, input.Status, scannedAt).
					WillReturnError(fmt.Errorf("database error"))
			},
			expectError: true,
		},
		{
			name: "success",
			msg: func() []byte {
				data, _ := json.Marshal(input)
				return data
			},
			setupMock: func() {
				s.PgxMock.ExpectExec(`INSERT INTO gate_scans`).
					WithArgs(input.AttemptId, input.GateId, input.Token, input.TicketToken, input.Outcome, input.Status, scannedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			expectError: false,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			tc.setupMock()

			err := s.scanEvent.RecordHandler(context.Background(), tc.msg())

			if tc.expectError {
				s.Error(err)
			} else {
				s.NoError(err)
			}

			s.NoError(s.PgxMock.ExpectationsWereMet())
		})
	}
}
