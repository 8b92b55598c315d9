package transcriber

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/s2t/internal/transcriber"
)

var protocolTime = time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

func TestAzureTextMessage(t *testing.T) {
	msg := string(azureTextMessage(azurePathSpeechConfig, "", azureJSONContentType, []byte(`{"a":1}`), protocolTime))

	want := "Path: speech.config\r\n" +
		"X-Timestamp: 2026-01-02T03:04:05.006Z\r\n" +
		"Content-Type: application/json; charset=utf-8\r\n" +
		"\r\n" +
		`{"a":1}`
	if msg != want {
		t.Fatalf("unexpected message:\n%q\nwant\n%q", msg, want)
	}
}

func TestAzureAudioMessage(t *testing.T) {
	chunk := []byte{1, 2, 3, 4}
	msg := azureAudioMessage("req1", chunk, protocolTime)

	headerLen := int(binary.BigEndian.Uint16(msg[0:2]))
	headers := string(msg[2 : 2+headerLen])
	if !strings.HasPrefix(headers, "Path: audio\r\n") {
		t.Fatalf("unexpected headers: %q", headers)
	}
	if !strings.Contains(headers, "X-RequestId: req1\r\n") {
		t.Fatalf("missing request id: %q", headers)
	}
	if !bytes.Equal(msg[2+headerLen:], chunk) {
		t.Fatalf("unexpected payload: %v", msg[2+headerLen:])
	}
}

func TestAzureAudioMessage_EndOfAudio(t *testing.T) {
	msg := azureAudioMessage("req1", nil, protocolTime)
	headerLen := int(binary.BigEndian.Uint16(msg[0:2]))
	if len(msg) != 2+headerLen {
		t.Fatalf("expected empty payload, got %d extra bytes", len(msg)-2-headerLen)
	}
}

func TestAzureSpeechConfigMessage(t *testing.T) {
	msg, err := azureSpeechConfigMessage(protocolTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parsed, err := parseAzureServiceMessage(msg)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if parsed.Path != strings.ToLower(azurePathSpeechConfig) {
		t.Fatalf("unexpected path: %s", parsed.Path)
	}
	if !strings.Contains(string(parsed.Body), `"name":"s2t"`) {
		t.Fatalf("unexpected body: %s", parsed.Body)
	}
}

func TestParseAzureServiceMessage(t *testing.T) {
	data := []byte("X-RequestId: abc\r\nPath: Speech.Phrase\r\nContent-Type: application/json\r\n\r\n{\"x\":1}")
	msg, err := parseAzureServiceMessage(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Path != "speech.phrase" {
		t.Fatalf("unexpected path: %s", msg.Path)
	}
	if msg.RequestID != "abc" {
		t.Fatalf("unexpected request id: %s", msg.RequestID)
	}
	if string(msg.Body) != `{"x":1}` {
		t.Fatalf("unexpected body: %s", msg.Body)
	}
}

func TestParseAzureServiceMessage_Malformed(t *testing.T) {
	cases := map[string]string{
		"no separator": "Path: speech.phrase\r\n{}",
		"no path":      "X-RequestId: abc\r\n\r\n{}",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseAzureServiceMessage([]byte(data)); err != errMalformedAzureMessage {
				t.Fatalf("expected errMalformedAzureMessage, got %v", err)
			}
		})
	}
}

func TestAzurePhraseResult(t *testing.T) {
	tests := []struct {
		status     string
		wantReason transcriber.ResultReason
		wantOK     bool
	}{
		{"Success", transcriber.ReasonRecognizedSpeech, true},
		{"NoMatch", transcriber.ReasonNoMatch, true},
		{"InitialSilenceTimeout", transcriber.ReasonNoMatch, true},
		{"BabbleTimeout", transcriber.ReasonNoMatch, true},
		{"Error", transcriber.ReasonCanceled, true},
		{"EndOfDictation", transcriber.ReasonUnknown, false},
		{"SomethingNew", transcriber.ReasonUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			r, ok := azurePhrase{RecognitionStatus: tt.status, DisplayText: "hello", Offset: 10_000_000, Duration: 5_000_000}.result()
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if r.Reason != tt.wantReason {
				t.Fatalf("expected %s, got %s", tt.wantReason, r.Reason)
			}
		})
	}
}

func TestAzurePhraseResult_Success(t *testing.T) {
	r, _ := azurePhrase{RecognitionStatus: "Success", DisplayText: "Hello world.", Offset: 10_000_000, Duration: 5_000_000}.result()
	if r.Text != "Hello world." {
		t.Fatalf("unexpected text: %q", r.Text)
	}
	if r.Offset != time.Second || r.Duration != 500*time.Millisecond {
		t.Fatalf("unexpected timing: offset=%s duration=%s", r.Offset, r.Duration)
	}
}

func TestAzurePhraseResult_Error(t *testing.T) {
	r, _ := azurePhrase{RecognitionStatus: "Error"}.result()
	if r.Cancellation == nil || r.Cancellation.Reason != transcriber.CancellationError {
		t.Fatalf("expected error cancellation, got %+v", r.Cancellation)
	}
	if r.Cancellation.ErrorCode != transcriber.ErrorCodeServiceError {
		t.Fatalf("unexpected error code: %s", r.Cancellation.ErrorCode)
	}
}
