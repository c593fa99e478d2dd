package constant

const (
	LogFieldErr     = "error"
	LogFieldPayload = "payload"
	LogFieldTraceId = "trace_id"
	LogFieldToken   = "token"
	LogFieldGate    = "gate_id"
	LogFieldPhase   = "phase"
	LogFieldRegion  = "region_id"
)
