package constant

const (
	ScanStreamName = "ticket_gate_scan_stream"
)

const (
	AllWildcard  = "scans.>"
	ScanWildcard = "scans.result.>"

	SubjectScanValidated = "scans.result.validated"
	SubjectScanConflict  = "scans.result.conflict"
	SubjectScanRejected  = "scans.result.rejected"
)
