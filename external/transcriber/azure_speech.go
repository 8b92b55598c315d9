package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foxseedlab/s2t/internal/audio"
	"github.com/foxseedlab/s2t/internal/transcriber"
	"github.com/gorilla/websocket"
)

const (
	azureRecognitionPath = "/speech/recognition/conversation/cognitiveservices/v1"
	azureAudioChunk      = 100 * time.Millisecond
	azureHandshakeLimit  = 20 * time.Second
	azureCloseWait       = time.Second
	azureErrorBodyLimit  = 4 << 10
)

type AzureSpeechConfig struct {
	APIKey   string
	Region   string
	Language string
	// Endpoint overrides the regional https endpoint, e.g. for a private
	// deployment. The websocket URL is derived from it.
	Endpoint string
}

type AzureSpeechTranscriber struct {
	apiKey     string
	language   string
	endpoint   *url.URL
	httpClient *http.Client
	dialer     *websocket.Dialer
	now        func() time.Time
}

func NewAzureSpeechTranscriber(cfg AzureSpeechConfig) (transcriber.Transcriber, error) {
	raw := strings.TrimSpace(cfg.Endpoint)
	if raw == "" {
		raw = fmt.Sprintf("https://%s.stt.speech.microsoft.com", strings.TrimSpace(cfg.Region))
	}
	endpoint, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse speech endpoint: %w", err)
	}
	return &AzureSpeechTranscriber{
		apiKey:     cfg.APIKey,
		language:   cfg.Language,
		endpoint:   endpoint,
		httpClient: &http.Client{},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: azureHandshakeLimit,
		},
		now: time.Now,
	}, nil
}

func (t *AzureSpeechTranscriber) recognitionURL(scheme string) string {
	u := *t.endpoint
	u.Scheme = scheme
	u.Path = strings.TrimSuffix(u.Path, "/") + azureRecognitionPath
	q := u.Query()
	q.Set("language", t.language)
	q.Set("format", "simple")
	u.RawQuery = q.Encode()
	return u.String()
}

func (t *AzureSpeechTranscriber) websocketScheme() string {
	if t.endpoint.Scheme == "http" {
		return "ws"
	}
	return "wss"
}

// RecognizeOnce posts the whole file to the short-audio REST endpoint, which
// returns the first recognized phrase.
func (t *AzureSpeechTranscriber) RecognizeOnce(ctx context.Context, sessionID string, src audio.Source) (transcriber.Result, error) {
	format := src.Format()
	header := format.WAVHeader(uint32(src.PCMSize()))
	body := io.MultiReader(bytes.NewReader(header), src)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.recognitionURL(t.endpoint.Scheme), body)
	if err != nil {
		return transcriber.Result{}, err
	}
	req.ContentLength = int64(len(header) + src.PCMSize())
	req.Header.Set(azureHeaderSubscription, t.apiKey)
	req.Header.Set("Content-Type", fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", format.SampleRate))
	req.Header.Set("Accept", "application/json")
	req.Header.Set(azureHeaderRequestID, newAzureID())

	slog.Info("sending audio to azure speech", "session_id", sessionID, "host", t.endpoint.Host, "language", t.language, "pcm_bytes", src.PCMSize())
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return transcriber.Result{}, fmt.Errorf("call speech service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, azureErrorBodyLimit))
		slog.Warn("azure speech rejected request", "session_id", sessionID, "status", resp.StatusCode)
		return transcriber.CanceledWithError(azureStatusErrorCode(resp.StatusCode), azureStatusDetails(resp, detail)), nil
	}

	var phrase azurePhrase
	if err := json.NewDecoder(resp.Body).Decode(&phrase); err != nil {
		return transcriber.CanceledWithError(transcriber.ErrorCodeServiceError, fmt.Sprintf("decode response: %v", err)), nil
	}
	r, ok := phrase.result()
	if !ok {
		return transcriber.Result{Reason: transcriber.ReasonUnknown}, nil
	}
	return r, nil
}

func azureStatusErrorCode(status int) transcriber.CancellationErrorCode {
	switch {
	case status == http.StatusBadRequest:
		return transcriber.ErrorCodeBadRequest
	case status == http.StatusUnauthorized:
		return transcriber.ErrorCodeAuthenticationFailure
	case status == http.StatusForbidden:
		return transcriber.ErrorCodeForbidden
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return transcriber.ErrorCodeServiceTimeout
	case status == http.StatusTooManyRequests:
		return transcriber.ErrorCodeTooManyRequests
	case status == http.StatusServiceUnavailable:
		return transcriber.ErrorCodeServiceUnavailable
	case status >= 500:
		return transcriber.ErrorCodeServiceError
	default:
		return transcriber.ErrorCodeRuntimeError
	}
}

func azureStatusDetails(resp *http.Response, body []byte) string {
	details := resp.Status
	if msg := strings.TrimSpace(string(body)); msg != "" {
		details += ": " + msg
	}
	return details
}

func azureCloseErrorCode(code int) transcriber.CancellationErrorCode {
	switch code {
	case websocket.CloseInvalidFramePayloadData, websocket.CloseUnsupportedData:
		return transcriber.ErrorCodeBadRequest
	case websocket.ClosePolicyViolation:
		return transcriber.ErrorCodeForbidden
	case websocket.CloseTryAgainLater:
		return transcriber.ErrorCodeServiceUnavailable
	case websocket.CloseInternalServerErr:
		return transcriber.ErrorCodeServiceError
	default:
		return transcriber.ErrorCodeConnectionFailure
	}
}

// StartStreaming opens the websocket, sends the speech configuration and
// starts pushing audio. A rejected handshake is returned as an error.
func (t *AzureSpeechTranscriber) StartStreaming(ctx context.Context, sessionID string, src audio.Source) (transcriber.Stream, error) {
	connectionID := newAzureID()
	header := http.Header{}
	header.Set(azureHeaderSubscription, t.apiKey)
	header.Set(azureHeaderConnectionID, connectionID)

	target := t.recognitionURL(t.websocketScheme())
	slog.Info("connecting to azure speech", "session_id", sessionID, "host", t.endpoint.Host, "language", t.language, "connection_id", connectionID)
	conn, resp, err := t.dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connect to speech service: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("connect to speech service: %w", err)
	}

	cfgMsg, err := azureSpeechConfigMessage(t.now())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, cfgMsg); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send speech config: %w", err)
	}

	s := &azureStream{
		resultStream: newResultStream(ctx),
		conn:         conn,
		sessionID:    sessionID,
		requestID:    newAzureID(),
		now:          t.now,
	}
	s.interrupt = func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(azureCloseWait))
		_ = conn.Close()
	}
	s.spawn(s.receive)
	s.spawn(func() { s.sendAudio(src) })
	slog.Info("azure speech stream initialized", "session_id", sessionID, "request_id", s.requestID)
	return s, nil
}

type azureStream struct {
	*resultStream
	conn      *websocket.Conn
	sessionID string
	requestID string
	now       func() time.Time
}

func (s *azureStream) sendAudio(src audio.Source) {
	format := src.Format()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, azureAudioMessage(s.requestID, format.WAVHeader(0), s.now())); err != nil {
		s.failSend(transcriber.ErrorCodeConnectionFailure, fmt.Errorf("send audio header: %w", err))
		return
	}

	buf := make([]byte, format.ChunkSize(azureAudioChunk))
	var sent int64
	for {
		if s.ctx.Err() != nil {
			return
		}
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			if werr := s.conn.WriteMessage(websocket.BinaryMessage, azureAudioMessage(s.requestID, buf[:n], s.now())); werr != nil {
				s.failSend(transcriber.ErrorCodeConnectionFailure, fmt.Errorf("send audio: %w", werr))
				return
			}
			sent += int64(n)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			s.failSend(transcriber.ErrorCodeRuntimeError, fmt.Errorf("read audio: %w", err))
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.BinaryMessage, azureAudioMessage(s.requestID, nil, s.now())); err != nil {
		s.failSend(transcriber.ErrorCodeConnectionFailure, fmt.Errorf("send end of audio: %w", err))
		return
	}
	slog.Info("azure speech audio fully sent", "session_id", s.sessionID, "pcm_bytes", sent)
}

// failSend records err and closes the connection so that receive reports
// the failure as the stream's terminal result.
func (s *azureStream) failSend(code transcriber.CancellationErrorCode, err error) {
	if s.isStopping() {
		return
	}
	s.setSendErr(code, err)
	_ = s.conn.Close()
}

func (s *azureStream) receive() {
	defer close(s.results)
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			s.receiveFailed(err)
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		msg, err := parseAzureServiceMessage(data)
		if err != nil {
			slog.Warn("ignoring malformed azure speech message", "session_id", s.sessionID, "error", err)
			continue
		}
		if !s.handle(msg) {
			return
		}
	}
}

// handle processes one service message and reports whether the stream
// continues.
func (s *azureStream) handle(msg azureServiceMessage) bool {
	switch msg.Path {
	case azurePathHypothesis, azurePathFragment:
		var h azureHypothesis
		if err := json.Unmarshal(msg.Body, &h); err != nil {
			slog.Warn("ignoring undecodable hypothesis", "session_id", s.sessionID, "error", err)
			return true
		}
		return s.emit(h.result())
	case azurePathPhrase:
		var p azurePhrase
		if err := json.Unmarshal(msg.Body, &p); err != nil {
			return s.emit(transcriber.Result{Reason: transcriber.ReasonUnknown})
		}
		r, ok := p.result()
		if !ok {
			return true
		}
		if !s.emit(r) {
			return false
		}
		return r.Reason != transcriber.ReasonCanceled
	case azurePathTurnEnd:
		slog.Info("azure speech turn ended", "session_id", s.sessionID, "request_id", msg.RequestID)
		s.emit(transcriber.EndOfStream())
		return false
	case azurePathTurnStart, azurePathStartDetected, azurePathEndDetected:
		slog.Debug("azure speech event", "session_id", s.sessionID, "path", msg.Path)
		return true
	default:
		slog.Debug("ignoring azure speech message", "session_id", s.sessionID, "path", msg.Path)
		return true
	}
}

func (s *azureStream) receiveFailed(err error) {
	if s.isStopping() {
		slog.Info("azure speech receive loop stopped", "session_id", s.sessionID)
		return
	}
	if r, ok := s.sendFailure(); ok {
		s.emit(r)
		return
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		slog.Warn("azure speech closed the connection", "session_id", s.sessionID, "code", closeErr.Code, "text", closeErr.Text)
		s.emit(transcriber.CanceledWithError(azureCloseErrorCode(closeErr.Code), closeErr.Error()))
		return
	}
	slog.Error("azure speech connection failed", "session_id", s.sessionID, "error", err)
	s.emit(transcriber.CanceledWithError(transcriber.ErrorCodeConnectionFailure, err.Error()))
}
