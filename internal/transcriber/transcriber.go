package transcriber

import (
	"context"
	"time"

	"github.com/foxseedlab/s2t/internal/audio"
)

// ResultReason says what kind of result a backend produced. Values outside
// the declared constants are valid and mean the backend saw something it
// could not name.
type ResultReason int

const (
	ReasonUnknown ResultReason = iota
	ReasonRecognizingSpeech
	ReasonRecognizedSpeech
	ReasonNoMatch
	ReasonCanceled
)

func (r ResultReason) String() string {
	switch r {
	case ReasonRecognizingSpeech:
		return "RecognizingSpeech"
	case ReasonRecognizedSpeech:
		return "RecognizedSpeech"
	case ReasonNoMatch:
		return "NoMatch"
	case ReasonCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

type CancellationReason int

const (
	CancellationError CancellationReason = iota + 1
	CancellationEndOfStream
	CancellationByUser
)

func (r CancellationReason) String() string {
	switch r {
	case CancellationError:
		return "Error"
	case CancellationEndOfStream:
		return "EndOfStream"
	case CancellationByUser:
		return "CancelledByUser"
	default:
		return "Unknown"
	}
}

type CancellationErrorCode string

const (
	ErrorCodeNone                  CancellationErrorCode = "NoError"
	ErrorCodeAuthenticationFailure CancellationErrorCode = "AuthenticationFailure"
	ErrorCodeBadRequest            CancellationErrorCode = "BadRequest"
	ErrorCodeTooManyRequests       CancellationErrorCode = "TooManyRequests"
	ErrorCodeForbidden             CancellationErrorCode = "Forbidden"
	ErrorCodeConnectionFailure     CancellationErrorCode = "ConnectionFailure"
	ErrorCodeServiceTimeout        CancellationErrorCode = "ServiceTimeout"
	ErrorCodeServiceError          CancellationErrorCode = "ServiceError"
	ErrorCodeServiceUnavailable    CancellationErrorCode = "ServiceUnavailable"
	ErrorCodeRuntimeError          CancellationErrorCode = "RuntimeError"
)

type CancellationDetails struct {
	Reason       CancellationReason
	ErrorCode    CancellationErrorCode
	ErrorDetails string
}

// Result is one raw recognition event as reported by a backend.
type Result struct {
	Reason       ResultReason
	Text         string
	Offset       time.Duration
	Duration     time.Duration
	Cancellation *CancellationDetails
}

func EndOfStream() Result {
	return Result{
		Reason:       ReasonCanceled,
		Cancellation: &CancellationDetails{Reason: CancellationEndOfStream},
	}
}

func CanceledWithError(code CancellationErrorCode, details string) Result {
	return Result{
		Reason: ReasonCanceled,
		Cancellation: &CancellationDetails{
			Reason:       CancellationError,
			ErrorCode:    code,
			ErrorDetails: details,
		},
	}
}

// Stream is a running continuous recognition. Results are delivered in the
// order the service produced them; the channel is closed after the terminal
// Canceled result or after Stop.
type Stream interface {
	Results() <-chan Result
	// Stop ends the stream and releases the connection. It is safe to call
	// more than once.
	Stop() error
}

type Transcriber interface {
	// RecognizeOnce submits src and waits for a single result. An error means
	// the service could not be reached at all.
	RecognizeOnce(ctx context.Context, sessionID string, src audio.Source) (Result, error)
	// StartStreaming connects to the service and starts streaming src. An
	// error means the connection was not established.
	StartStreaming(ctx context.Context, sessionID string, src audio.Source) (Stream, error)
}
