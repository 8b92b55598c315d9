package session

import (
	"testing"

	"github.com/foxseedlab/s2t/internal/transcriber"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  transcriber.Result
		want Outcome
	}{
		{
			name: "recognized",
			raw:  transcriber.Result{Reason: transcriber.ReasonRecognizedSpeech, Text: "Hello world."},
			want: Outcome{Kind: OutcomeRecognized, Text: "Hello world."},
		},
		{
			name: "recognized text is kept verbatim",
			raw:  transcriber.Result{Reason: transcriber.ReasonRecognizedSpeech, Text: " hello  world "},
			want: Outcome{Kind: OutcomeRecognized, Text: " hello  world "},
		},
		{
			name: "recognized blank text",
			raw:  transcriber.Result{Reason: transcriber.ReasonRecognizedSpeech, Text: "  "},
			want: Outcome{Kind: OutcomeNoMatch},
		},
		{
			name: "no match",
			raw:  transcriber.Result{Reason: transcriber.ReasonNoMatch},
			want: Outcome{Kind: OutcomeNoMatch},
		},
		{
			name: "end of stream",
			raw:  transcriber.EndOfStream(),
			want: Outcome{Kind: OutcomeCanceled, Reason: transcriber.CancellationEndOfStream},
		},
		{
			name: "end of stream drops stray error fields",
			raw: transcriber.Result{Reason: transcriber.ReasonCanceled, Cancellation: &transcriber.CancellationDetails{
				Reason:       transcriber.CancellationEndOfStream,
				ErrorCode:    transcriber.ErrorCodeServiceError,
				ErrorDetails: "ignored",
			}},
			want: Outcome{Kind: OutcomeCanceled, Reason: transcriber.CancellationEndOfStream},
		},
		{
			name: "cancelled by user",
			raw: transcriber.Result{Reason: transcriber.ReasonCanceled, Cancellation: &transcriber.CancellationDetails{
				Reason: transcriber.CancellationByUser,
			}},
			want: Outcome{Kind: OutcomeCanceled, Reason: transcriber.CancellationByUser},
		},
		{
			name: "error",
			raw:  transcriber.CanceledWithError(transcriber.ErrorCodeAuthenticationFailure, "invalid key"),
			want: Outcome{
				Kind:         OutcomeCanceled,
				Reason:       transcriber.CancellationError,
				ErrorCode:    transcriber.ErrorCodeAuthenticationFailure,
				ErrorDetails: "invalid key",
			},
		},
		{
			name: "error without code or details",
			raw:  transcriber.CanceledWithError("", ""),
			want: Outcome{
				Kind:         OutcomeCanceled,
				Reason:       transcriber.CancellationError,
				ErrorCode:    transcriber.ErrorCodeRuntimeError,
				ErrorDetails: missingErrorDetails,
			},
		},
		{
			name: "cancellation without details",
			raw:  transcriber.Result{Reason: transcriber.ReasonCanceled},
			want: Outcome{
				Kind:         OutcomeCanceled,
				Reason:       transcriber.CancellationError,
				ErrorCode:    transcriber.ErrorCodeRuntimeError,
				ErrorDetails: missingErrorDetails,
			},
		},
		{
			name: "interim is not a final outcome",
			raw:  transcriber.Result{Reason: transcriber.ReasonRecognizingSpeech, Text: "hel"},
			want: Outcome{Kind: OutcomeUnknown},
		},
		{
			name: "unnamed reason",
			raw:  transcriber.Result{Reason: transcriber.ResultReason(42)},
			want: Outcome{Kind: OutcomeUnknown},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.raw)
			if got != tt.want {
				t.Fatalf("unexpected outcome:\n%+v\nwant\n%+v", got, tt.want)
			}
			if got.IsError() != (got.ErrorCode != "") {
				t.Fatalf("error fields must be set exactly for error cancellations: %+v", got)
			}
		})
	}
}
