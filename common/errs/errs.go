package errs

import "fmt"

type Kind int

const (
	KindCamera Kind = iota + 1
	KindNotFound
	KindFetch
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindCamera:
		return "camera"
	case KindNotFound:
		return "not_found"
	case KindFetch:
		return "fetch"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	}

	return "unknown"
}

// ScanError is the single classified failure type of the scan workflow.
// Data carries the conflict ticket snapshot on KindConflict responses.
type ScanError struct {
	Kind    Kind
	Message string
	Data    any
	Err     error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("kind %s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("kind %s: %s", e.Kind, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

const (
	MsgCameraUnavailable = "Unable to access the scanner device"
	MsgTicketNotFound    = "Ticket not found"
	MsgFetchFailed       = "Unable to fetch ticket details"
	MsgValidationFailed  = "Unable to validate ticket"
)

func Camera(err error) *ScanError {
	return &ScanError{Kind: KindCamera, Message: MsgCameraUnavailable, Err: err}
}

func NotFound() *ScanError {
	return &ScanError{Kind: KindNotFound, Message: MsgTicketNotFound}
}

func Fetch(err error) *ScanError {
	return &ScanError{Kind: KindFetch, Message: MsgFetchFailed, Err: err}
}

func Validation(err error) *ScanError {
	return &ScanError{Kind: KindValidation, Message: MsgValidationFailed, Err: err}
}

func Conflict(snapshot any) *ScanError {
	return &ScanError{Kind: KindConflict, Message: MsgValidationFailed, Data: snapshot}
}
