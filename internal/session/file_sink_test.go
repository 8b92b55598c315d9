package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foxseedlab/s2t/internal/transcriber"
)

func TestFileSink_TruncatesAndWritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte("stale content from a previous run\n"), 0o644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	sink, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.HandleOutcome(time.Second, Outcome{Kind: OutcomeRecognized, Text: "hello world"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Lines are on disk before the sink is closed.
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(body) != "[0:0:1] hello world\n" {
		t.Fatalf("unexpected content: %q", body)
	}

	if err := sink.HandleOutcome(2*time.Second, Outcome{
		Kind:         OutcomeCanceled,
		Reason:       transcriber.CancellationError,
		ErrorCode:    transcriber.ErrorCodeConnectionFailure,
		ErrorDetails: "connection reset",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}

	body, _ = os.ReadFile(path)
	want := "[0:0:1] hello world\n" +
		"[0:0:2] Canceled for the following reason \"Error\".\n" +
		"[0:0:2] Canceled with error code \"ConnectionFailure\". Error details: \"connection reset\". Did you update the subscription info?\n"
	if string(body) != want {
		t.Fatalf("unexpected content:\n%s\nwant\n%s", body, want)
	}
}

func TestFileSink_WriteAfterClose(t *testing.T) {
	sink, err := OpenFileSink(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = sink.Close()

	err = sink.HandleOutcome(0, Outcome{Kind: OutcomeNoMatch})
	if !errors.Is(err, os.ErrClosed) {
		t.Fatalf("expected os.ErrClosed, got %v", err)
	}
}

func TestOpenFileSink_MissingDirectory(t *testing.T) {
	if _, err := OpenFileSink(filepath.Join(t.TempDir(), "missing", "out.txt")); err == nil {
		t.Fatal("expected error")
	}
}
