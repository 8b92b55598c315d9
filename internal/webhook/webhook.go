package webhook

import "context"

// Transcript is the output file of a finished continuous recognition.
type Transcript struct {
	SessionID string
	Filename  string
	Body      []byte
	// Outcome names how recognition ended, e.g. "EndOfStream" or "Error".
	Outcome string
}

type Sender interface {
	SendTranscript(ctx context.Context, t Transcript) error
}
