package constant

import "time"

const (
	RecentScanKey    = "gate:recent_scan:%s"
	GateHeartbeatKey = "gate:heartbeat:%s"
)

const (
	RecentScanDefaultTTL = 2 * time.Minute
)

const (
	ScanOutcomeValidated = "validated"
	ScanOutcomeConflict  = "conflict"
	ScanOutcomeRejected  = "rejected"
)
