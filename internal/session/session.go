package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/foxseedlab/s2t/internal/audio"
	"github.com/foxseedlab/s2t/internal/config"
	"github.com/foxseedlab/s2t/internal/transcriber"
	"github.com/foxseedlab/s2t/internal/webhook"
	"github.com/google/uuid"
)

const webhookTimeout = 30 * time.Second

// ErrCanceledWithError is returned by the commands when recognition ended
// with an error cancellation.
var ErrCanceledWithError = errors.New("recognition canceled with an error")

type OutcomeHandler interface {
	HandleOutcome(elapsed time.Duration, o Outcome) error
}

type InterimHandler interface {
	HandleInterim(text string)
}

type Session struct {
	transcriber  transcriber.Transcriber
	openAudio    audio.SourceFactory
	console      *Console
	webhook      webhook.Sender
	now          func() time.Time
	newSessionID func() string
}

func NewSession(stt transcriber.Transcriber, openAudio audio.SourceFactory, console *Console, wh webhook.Sender) *Session {
	return &Session{
		transcriber:  stt,
		openAudio:    openAudio,
		console:      console,
		webhook:      wh,
		now:          time.Now,
		newSessionID: uuid.NewString,
	}
}

// RunOnce recognizes a single result from the input file and reports it on
// the console.
func (s *Session) RunOnce(ctx context.Context, cfg *config.Config) (Outcome, error) {
	sessionID := s.newSessionID()
	logger := slog.With("session_id", sessionID)

	src, err := s.openAudio(cfg.InputFile)
	if err != nil {
		return Outcome{}, fmt.Errorf("open input audio: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	s.console.Println(messageOnceStart)
	logger.Info("recognizing single result", "backend", cfg.Backend, "file", cfg.InputFile, "format", src.Format())
	raw, err := s.transcriber.RecognizeOnce(ctx, sessionID, src)
	if err != nil {
		return Outcome{}, fmt.Errorf("recognize: %w", err)
	}

	o := Classify(raw)
	logger.Info("recognition finished", "outcome", o.Kind, "reason", o.Reason, "error_code", o.ErrorCode)
	s.console.ReportOnce(o)
	return o, nil
}

type completion struct {
	outcome     Outcome
	elapsed     time.Duration
	err         error
	interrupted bool
}

// RunContinuous streams the input file, writing every final outcome to the
// output file and the console until the service cancels the stream or ctx is
// done. The stream is stopped and the file closed on every return path.
func (s *Session) RunContinuous(ctx context.Context, cfg *config.Config) (Outcome, error) {
	sessionID := s.newSessionID()
	logger := slog.With("session_id", sessionID)

	src, err := s.openAudio(cfg.InputFile)
	if err != nil {
		return Outcome{}, fmt.Errorf("open input audio: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	logger.Info("starting continuous recognition", "backend", cfg.Backend, "file", cfg.InputFile, "format", src.Format())
	stream, err := s.transcriber.StartStreaming(ctx, sessionID, src)
	if err != nil {
		return Outcome{}, fmt.Errorf("start streaming recognition: %w", err)
	}
	defer func() {
		if err := stream.Stop(); err != nil {
			logger.Warn("failed to stop recognition stream", "error", err)
		}
	}()

	sink, err := OpenFileSink(cfg.OutputFile)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		_ = sink.Close()
	}()
	s.console.Printf(messageContinuousStartFormat, sink.Path())

	latch := NewLatch[completion]()
	start := s.now()
	d := &dispatcher{
		now:      s.now,
		start:    start,
		handlers: []OutcomeHandler{sink, s.console},
		interim:  s.console,
		latch:    latch,
		done:     make(chan struct{}),
		logger:   logger,
	}
	go d.run(stream.Results())

	c, err := latch.Wait(ctx)
	if err != nil {
		if latch.TrySet(completion{
			outcome:     Outcome{Kind: OutcomeCanceled, Reason: transcriber.CancellationByUser},
			elapsed:     s.now().Sub(start),
			interrupted: true,
		}) {
			logger.Info("continuous recognition interrupted", "reason", err)
		}
		c, _ = latch.Value()
	}

	if err := stream.Stop(); err != nil {
		logger.Warn("failed to stop recognition stream", "error", err)
	}
	<-d.done

	if c.err == nil && d.err != nil {
		c.err = d.err
	}
	if c.interrupted && !d.terminal && d.err == nil {
		// Results drained after the interrupt carry later stamps.
		c.elapsed = s.now().Sub(start)
		if err := d.deliver(c.elapsed, c.outcome); err != nil {
			c.err = err
		}
	}
	if err := sink.Close(); err != nil && c.err == nil {
		c.err = fmt.Errorf("close output file: %w", err)
	}
	logger.Info("continuous recognition finished",
		"outcome", c.outcome.Kind,
		"reason", c.outcome.Reason,
		"error_code", c.outcome.ErrorCode,
		"outcomes", d.delivered,
		"elapsed", c.elapsed)

	s.console.Println(messageContinuousDone)
	s.console.Printf(messageOutputSavedFormat, sink.Path())
	s.sendTranscript(ctx, logger, sessionID, sink.Path(), c.outcome)

	if c.err != nil {
		return c.outcome, c.err
	}
	return c.outcome, nil
}

func (s *Session) sendTranscript(ctx context.Context, logger *slog.Logger, sessionID, path string, o Outcome) {
	if s.webhook == nil {
		return
	}
	body, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read transcript for webhook", "error", err, "file", path)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), webhookTimeout)
	defer cancel()
	t := webhook.Transcript{
		SessionID: sessionID,
		Filename:  filepath.Base(path),
		Body:      body,
		Outcome:   o.Kind.String(),
	}
	if o.IsCanceled() {
		t.Outcome = o.Reason.String()
	}
	if err := s.webhook.SendTranscript(ctx, t); err != nil {
		logger.Error("failed to send webhook transcript", "error", err)
		return
	}
	logger.Info("transcript sent to webhook", "file", t.Filename)
}

// dispatcher is the single consumer of a stream's results. It keeps
// draining after the latch is set so the producer never blocks.
type dispatcher struct {
	now      func() time.Time
	start    time.Time
	handlers []OutcomeHandler
	interim  InterimHandler
	latch    *Latch[completion]
	done     chan struct{}
	logger   *slog.Logger

	// Written by run only; read after done is closed.
	terminal  bool
	err       error
	delivered int
}

func (d *dispatcher) run(results <-chan transcriber.Result) {
	defer close(d.done)
	for r := range results {
		if d.terminal || d.err != nil {
			continue
		}
		if r.Reason == transcriber.ReasonRecognizingSpeech {
			d.interim.HandleInterim(r.Text)
			continue
		}

		elapsed := d.now().Sub(d.start)
		o := Classify(r)
		d.logger.Debug("recognition outcome", "outcome", o.Kind, "text", o.Text, "offset", r.Offset, "elapsed", elapsed)
		if err := d.deliver(elapsed, o); err != nil {
			d.err = err
			d.latch.TrySet(completion{outcome: o, elapsed: elapsed, err: err})
			continue
		}
		if o.IsCanceled() {
			d.terminal = true
			d.latch.TrySet(completion{outcome: o, elapsed: elapsed})
		}
	}
	if d.latch.TrySet(completion{elapsed: d.now().Sub(d.start)}) {
		d.logger.Warn("recognition stream closed without a cancellation result")
	}
}

func (d *dispatcher) deliver(elapsed time.Duration, o Outcome) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("outcome handler panicked: %v", r)
		}
	}()
	for _, h := range d.handlers {
		if err := h.HandleOutcome(elapsed, o); err != nil {
			return err
		}
	}
	d.delivered++
	return nil
}
