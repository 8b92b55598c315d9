package session

import (
	"strings"

	"github.com/foxseedlab/s2t/internal/transcriber"
)

type OutcomeKind int

const (
	OutcomeRecognized OutcomeKind = iota + 1
	OutcomeNoMatch
	OutcomeCanceled
	OutcomeUnknown
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRecognized:
		return "Recognized"
	case OutcomeNoMatch:
		return "NoMatch"
	case OutcomeCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Outcome is the classified form of one final recognition result.
// ErrorCode and ErrorDetails are set only when Kind is OutcomeCanceled and
// Reason is CancellationError, and then both are non-empty.
type Outcome struct {
	Kind         OutcomeKind
	Text         string
	Reason       transcriber.CancellationReason
	ErrorCode    transcriber.CancellationErrorCode
	ErrorDetails string
}

func (o Outcome) IsCanceled() bool {
	return o.Kind == OutcomeCanceled
}

func (o Outcome) IsError() bool {
	return o.Kind == OutcomeCanceled && o.Reason == transcriber.CancellationError
}

const missingErrorDetails = "no error details were provided by the speech service"

// Classify maps every raw result to exactly one outcome.
func Classify(r transcriber.Result) Outcome {
	switch r.Reason {
	case transcriber.ReasonRecognizedSpeech:
		if strings.TrimSpace(r.Text) == "" {
			return Outcome{Kind: OutcomeNoMatch}
		}
		return Outcome{Kind: OutcomeRecognized, Text: r.Text}
	case transcriber.ReasonNoMatch:
		return Outcome{Kind: OutcomeNoMatch}
	case transcriber.ReasonCanceled:
		return classifyCancellation(r.Cancellation)
	default:
		return Outcome{Kind: OutcomeUnknown}
	}
}

func classifyCancellation(d *transcriber.CancellationDetails) Outcome {
	if d == nil {
		d = &transcriber.CancellationDetails{Reason: transcriber.CancellationError}
	}
	switch d.Reason {
	case transcriber.CancellationEndOfStream, transcriber.CancellationByUser:
		return Outcome{Kind: OutcomeCanceled, Reason: d.Reason}
	}

	code := d.ErrorCode
	if code == "" || code == transcriber.ErrorCodeNone {
		code = transcriber.ErrorCodeRuntimeError
	}
	details := strings.TrimSpace(d.ErrorDetails)
	if details == "" {
		details = missingErrorDetails
	}
	return Outcome{
		Kind:         OutcomeCanceled,
		Reason:       transcriber.CancellationError,
		ErrorCode:    code,
		ErrorDetails: details,
	}
}
