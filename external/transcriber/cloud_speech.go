package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/s2t/internal/audio"
	"github.com/foxseedlab/s2t/internal/transcriber"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	speechAPIEndpointPort = 443
	cloudSpeechChunk      = 100 * time.Millisecond
	// Streaming requests may carry at most 15 KiB of audio each.
	cloudSpeechMaxChunkBytes = 15 * 1024
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Language        string
	Location        string
	Model           string
}

type CloudSpeechTranscriber struct {
	projectID       string
	credentialsJSON string
	language        string
	location        string
	model           string
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig) transcriber.Transcriber {
	return &CloudSpeechTranscriber{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		language:        cfg.Language,
		location:        strings.TrimSpace(cfg.Location),
		model:           strings.TrimSpace(cfg.Model),
	}
}

func (t *CloudSpeechTranscriber) newClient(ctx context.Context) (*speech.Client, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(t.credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if t.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", t.location, speechAPIEndpointPort)))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return client, nil
}

func (t *CloudSpeechTranscriber) recognizer() string {
	return fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.projectID, t.location)
}

func (t *CloudSpeechTranscriber) recognitionConfig(format audio.Format) *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		Model:         t.model,
		LanguageCodes: []string{t.language},
		DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
			ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
				Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
				SampleRateHertz:   int32(format.SampleRate),
				AudioChannelCount: int32(format.Channels),
			},
		},
		Features: &speechpb.RecognitionFeatures{EnableAutomaticPunctuation: true},
	}
}

// RecognizeOnce sends the whole file in one synchronous request and keeps the
// first transcribed result.
func (t *CloudSpeechTranscriber) RecognizeOnce(ctx context.Context, sessionID string, src audio.Source) (transcriber.Result, error) {
	pcm, err := io.ReadAll(src)
	if err != nil {
		return transcriber.Result{}, fmt.Errorf("read audio: %w", err)
	}
	client, err := t.newClient(ctx)
	if err != nil {
		return transcriber.Result{}, err
	}
	defer func() {
		_ = client.Close()
	}()

	slog.Info("sending audio to cloud speech", "session_id", sessionID, "location", t.location, "language", t.language, "model", t.model, "pcm_bytes", len(pcm))
	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer:  t.recognizer(),
		Config:      t.recognitionConfig(src.Format()),
		AudioSource: &speechpb.RecognizeRequest_Content{Content: pcm},
	})
	if err != nil {
		slog.Warn("cloud speech recognize failed", "session_id", sessionID, "error", err)
		return rpcCancellation(err), nil
	}
	for _, result := range resp.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		text := result.GetAlternatives()[0].GetTranscript()
		if strings.TrimSpace(text) == "" {
			continue
		}
		return transcriber.Result{
			Reason:   transcriber.ReasonRecognizedSpeech,
			Text:     text,
			Duration: result.GetResultEndOffset().AsDuration(),
		}, nil
	}
	return transcriber.Result{Reason: transcriber.ReasonNoMatch}, nil
}

func (t *CloudSpeechTranscriber) StartStreaming(ctx context.Context, sessionID string, src audio.Source) (transcriber.Stream, error) {
	slog.Info("starting cloud speech streaming", "session_id", sessionID, "location", t.location, "language", t.language, "model", t.model)
	client, err := t.newClient(ctx)
	if err != nil {
		return nil, err
	}

	rs := newResultStream(ctx)
	rpcCtx, rpcCancel := context.WithCancel(rs.ctx)
	stream, err := client.StreamingRecognize(rpcCtx)
	if err != nil {
		rpcCancel()
		rs.cancel()
		_ = client.Close()
		return nil, fmt.Errorf("open streaming recognize: %w", err)
	}
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		Recognizer: t.recognizer(),
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:            t.recognitionConfig(src.Format()),
				StreamingFeatures: &speechpb.StreamingRecognitionFeatures{InterimResults: true},
			},
		},
	}); err != nil {
		rpcCancel()
		rs.cancel()
		_ = client.Close()
		return nil, fmt.Errorf("send streaming config: %w", err)
	}
	slog.Info("cloud speech stream initialized", "session_id", sessionID)

	w := &cloudSpeechStream{
		resultStream: rs,
		stream:       stream,
		rpcCancel:    rpcCancel,
		sessionID:    sessionID,
	}
	w.release = func() error {
		rpcCancel()
		return client.Close()
	}
	w.spawn(w.receive)
	w.spawn(func() { w.sendAudio(src) })
	return w, nil
}

type cloudSpeechStream struct {
	*resultStream
	stream    speechpb.Speech_StreamingRecognizeClient
	rpcCancel context.CancelFunc
	sessionID string
}

func cloudSpeechChunkSize(format audio.Format) int {
	n := format.ChunkSize(cloudSpeechChunk)
	if n > cloudSpeechMaxChunkBytes {
		frame := format.Channels * format.BitDepth / 8
		n = cloudSpeechMaxChunkBytes - cloudSpeechMaxChunkBytes%frame
	}
	return n
}

func (w *cloudSpeechStream) sendAudio(src audio.Source) {
	buf := make([]byte, cloudSpeechChunkSize(src.Format()))
	var sent int64
	for {
		if w.ctx.Err() != nil {
			return
		}
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			req := &speechpb.StreamingRecognizeRequest{
				StreamingRequest: &speechpb.StreamingRecognizeRequest_Audio{Audio: append([]byte(nil), buf[:n]...)},
			}
			if serr := w.stream.Send(req); serr != nil {
				// The cause is reported by Recv.
				slog.Debug("cloud speech send stopped", "session_id", w.sessionID, "error", serr)
				return
			}
			sent += int64(n)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			w.setSendErr(transcriber.ErrorCodeRuntimeError, fmt.Errorf("read audio: %w", err))
			w.rpcCancel()
			return
		}
	}
	if err := w.stream.CloseSend(); err != nil {
		slog.Warn("cloud speech close send failed", "session_id", w.sessionID, "error", err)
	}
	slog.Info("cloud speech audio fully sent", "session_id", w.sessionID, "pcm_bytes", sent)
}

func (w *cloudSpeechStream) receive() {
	defer close(w.results)
	for {
		resp, err := w.stream.Recv()
		if err != nil {
			w.receiveFailed(err)
			return
		}
		for _, result := range resp.GetResults() {
			r := streamingResult(result)
			if r.Reason == transcriber.ReasonRecognizingSpeech && r.Text == "" {
				continue
			}
			if !w.emit(r) {
				return
			}
		}
	}
}

func (w *cloudSpeechStream) receiveFailed(err error) {
	if errors.Is(err, io.EOF) {
		slog.Info("cloud speech stream completed", "session_id", w.sessionID)
		w.emit(transcriber.EndOfStream())
		return
	}
	if w.isStopping() {
		slog.Info("cloud speech receive loop stopped", "session_id", w.sessionID)
		return
	}
	if r, ok := w.sendFailure(); ok {
		w.emit(r)
		return
	}
	slog.Error("cloud speech stream error", "session_id", w.sessionID, "error", err)
	w.emit(rpcCancellation(err))
}

func streamingResult(result *speechpb.StreamingRecognitionResult) transcriber.Result {
	var text string
	if alts := result.GetAlternatives(); len(alts) > 0 {
		text = alts[0].GetTranscript()
	}
	r := transcriber.Result{
		Text:     text,
		Duration: result.GetResultEndOffset().AsDuration(),
	}
	switch {
	case !result.GetIsFinal():
		r.Reason = transcriber.ReasonRecognizingSpeech
	case strings.TrimSpace(text) == "":
		r.Reason = transcriber.ReasonNoMatch
	default:
		r.Reason = transcriber.ReasonRecognizedSpeech
	}
	return r
}

func rpcCancellation(err error) transcriber.Result {
	st, ok := status.FromError(err)
	if !ok {
		return transcriber.CanceledWithError(transcriber.ErrorCodeConnectionFailure, err.Error())
	}
	return transcriber.CanceledWithError(rpcErrorCode(st.Code()), st.Message())
}

func rpcErrorCode(c codes.Code) transcriber.CancellationErrorCode {
	switch c {
	case codes.Unauthenticated:
		return transcriber.ErrorCodeAuthenticationFailure
	case codes.PermissionDenied:
		return transcriber.ErrorCodeForbidden
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange, codes.NotFound:
		return transcriber.ErrorCodeBadRequest
	case codes.ResourceExhausted:
		return transcriber.ErrorCodeTooManyRequests
	case codes.DeadlineExceeded:
		return transcriber.ErrorCodeServiceTimeout
	case codes.Unavailable:
		return transcriber.ErrorCodeServiceUnavailable
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return transcriber.ErrorCodeServiceError
	case codes.Canceled, codes.Aborted:
		return transcriber.ErrorCodeConnectionFailure
	default:
		return transcriber.ErrorCodeRuntimeError
	}
}
