package transcriber

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/foxseedlab/s2t/internal/transcriber"
	"github.com/google/uuid"
)

// Message paths of the Azure speech websocket protocol. Incoming paths are
// matched in lower case.
const (
	azurePathSpeechConfig   = "speech.config"
	azurePathAudio          = "audio"
	azurePathTurnStart      = "turn.start"
	azurePathTurnEnd        = "turn.end"
	azurePathStartDetected  = "speech.startdetected"
	azurePathEndDetected    = "speech.enddetected"
	azurePathHypothesis     = "speech.hypothesis"
	azurePathFragment       = "speech.fragment"
	azurePathPhrase         = "speech.phrase"
	azureTimestampLayout    = "2006-01-02T15:04:05.000Z"
	azureAudioContentType   = "audio/x-wav"
	azureJSONContentType    = "application/json; charset=utf-8"
	azureHeaderPath         = "Path"
	azureHeaderRequestID    = "X-RequestId"
	azureHeaderTimestamp    = "X-Timestamp"
	azureHeaderContentType  = "Content-Type"
	azureHeaderConnectionID = "X-ConnectionId"
	azureHeaderSubscription = "Ocp-Apim-Subscription-Key"
	azureTicksPerSecond     = 10_000_000
)

var errMalformedAzureMessage = errors.New("malformed speech service message")

func newAzureID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func azureTimestamp(t time.Time) string {
	return t.UTC().Format(azureTimestampLayout)
}

func azureTicks(ticks int64) time.Duration {
	return time.Duration(ticks) * (time.Second / azureTicksPerSecond)
}

func writeAzureHeaders(b *bytes.Buffer, path, requestID, contentType string, now time.Time) {
	fmt.Fprintf(b, "%s: %s\r\n", azureHeaderPath, path)
	if requestID != "" {
		fmt.Fprintf(b, "%s: %s\r\n", azureHeaderRequestID, requestID)
	}
	fmt.Fprintf(b, "%s: %s\r\n", azureHeaderTimestamp, azureTimestamp(now))
	fmt.Fprintf(b, "%s: %s\r\n", azureHeaderContentType, contentType)
}

// azureTextMessage frames a text message: CRLF separated headers, an empty
// line, then the body.
func azureTextMessage(path, requestID, contentType string, body []byte, now time.Time) []byte {
	var b bytes.Buffer
	writeAzureHeaders(&b, path, requestID, contentType, now)
	b.WriteString("\r\n")
	b.Write(body)
	return b.Bytes()
}

// azureAudioMessage frames a binary audio message: a big-endian uint16
// header length, the headers, then the audio bytes. An empty chunk tells the
// service that the audio has ended.
func azureAudioMessage(requestID string, chunk []byte, now time.Time) []byte {
	var h bytes.Buffer
	writeAzureHeaders(&h, azurePathAudio, requestID, azureAudioContentType, now)
	msg := make([]byte, 2+h.Len()+len(chunk))
	binary.BigEndian.PutUint16(msg[0:2], uint16(h.Len()))
	copy(msg[2:], h.Bytes())
	copy(msg[2+h.Len():], chunk)
	return msg
}

type azureSpeechConfig struct {
	Context azureSpeechContext `json:"context"`
}

type azureSpeechContext struct {
	System azureSystemInfo `json:"system"`
	OS     azureOSInfo     `json:"os"`
}

type azureSystemInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Build   string `json:"build"`
	Lang    string `json:"lang"`
}

type azureOSInfo struct {
	Platform string `json:"platform"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

func azureSpeechConfigMessage(now time.Time) ([]byte, error) {
	body, err := json.Marshal(azureSpeechConfig{
		Context: azureSpeechContext{
			System: azureSystemInfo{Name: "s2t", Version: "1.0.0", Build: runtime.Version(), Lang: "Go"},
			OS:     azureOSInfo{Platform: runtime.GOOS, Name: runtime.GOOS + "/" + runtime.GOARCH},
		},
	})
	if err != nil {
		return nil, err
	}
	return azureTextMessage(azurePathSpeechConfig, "", azureJSONContentType, body, now), nil
}

type azureServiceMessage struct {
	Path      string
	RequestID string
	Body      []byte
}

func parseAzureServiceMessage(data []byte) (azureServiceMessage, error) {
	headerEnd := bytes.Index(data, []byte("\r\n\r\n"))
	if headerEnd < 0 {
		return azureServiceMessage{}, errMalformedAzureMessage
	}
	var msg azureServiceMessage
	for _, line := range strings.Split(string(data[:headerEnd]), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch {
		case strings.EqualFold(strings.TrimSpace(name), azureHeaderPath):
			msg.Path = strings.ToLower(strings.TrimSpace(value))
		case strings.EqualFold(strings.TrimSpace(name), azureHeaderRequestID):
			msg.RequestID = strings.TrimSpace(value)
		}
	}
	if msg.Path == "" {
		return azureServiceMessage{}, errMalformedAzureMessage
	}
	msg.Body = data[headerEnd+4:]
	return msg, nil
}

// azurePhrase is the body of speech.phrase messages and of REST responses.
type azurePhrase struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

type azureHypothesis struct {
	Text     string `json:"Text"`
	Offset   int64  `json:"Offset"`
	Duration int64  `json:"Duration"`
}

// result maps a final phrase to a raw result. ok is false for statuses that
// carry no recognition outcome.
func (p azurePhrase) result() (r transcriber.Result, ok bool) {
	r = transcriber.Result{
		Offset:   azureTicks(p.Offset),
		Duration: azureTicks(p.Duration),
	}
	switch p.RecognitionStatus {
	case "Success":
		r.Reason = transcriber.ReasonRecognizedSpeech
		r.Text = p.DisplayText
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		r.Reason = transcriber.ReasonNoMatch
	case "Error":
		r = transcriber.CanceledWithError(transcriber.ErrorCodeServiceError, "the speech service reported a recognition error")
	case "EndOfDictation":
		return transcriber.Result{}, false
	default:
		r.Reason = transcriber.ReasonUnknown
	}
	return r, true
}

func (h azureHypothesis) result() transcriber.Result {
	return transcriber.Result{
		Reason:   transcriber.ReasonRecognizingSpeech,
		Text:     h.Text,
		Offset:   azureTicks(h.Offset),
		Duration: azureTicks(h.Duration),
	}
}
