package errorsx

import "errors"

// ReasonCode is a short machine-readable error reason. Collaborator
// boundaries return these instead of relying on error string matching,
// so failure handling stays auditable in tests.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	// Classifier failures are advisory; the turn proceeds degraded.
	ReasonClassifyDegraded ReasonCode = "classify_degraded"

	// Transcription failure aborts the turn before classification.
	ReasonTranscribeFailed ReasonCode = "transcribe_failed"

	// Response generation failure kinds. All abort the turn at
	// GENERATING; no reply is sent.
	ReasonBackendUnavailable ReasonCode = "backend_unavailable"
	ReasonBackendRateLimit   ReasonCode = "backend_rate_limit"
	ReasonBackendTimeout     ReasonCode = "backend_timeout"
	ReasonBackendMalformed   ReasonCode = "backend_malformed"

	// Delivery failure: reply generated but transport rejected it.
	ReasonDeliveryFailed ReasonCode = "delivery_failed"

	ReasonStoreRead     ReasonCode = "store_read"
	ReasonStoreWrite    ReasonCode = "store_write"
	ReasonTransportSend ReasonCode = "transport_send"
)

// ReasonedError wraps an error with a reason code.
type ReasonedError struct {
	Err    error
	Reason ReasonCode
}

func (e ReasonedError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return e.Err.Error()
}

func (e ReasonedError) Unwrap() error {
	return e.Err
}

// Wrap attaches a reason code to an error. The first reason attached
// wins; wrapping an already-reasoned error is a no-op.
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return err
	}
	return ReasonedError{Err: err, Reason: reason}
}

// Reason extracts a reason code from an error, if present.
func Reason(err error) ReasonCode {
	if err == nil {
		return ReasonUnknown
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonUnknown
}

// HasReason returns true if err carries the given reason code.
func HasReason(err error, reason ReasonCode) bool {
	return Reason(err) == reason
}
