package transcriber

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/foxseedlab/s2t/internal/transcriber"
)

const resultBufferSize = 64

// resultStream is the part of a backend stream shared by all backends: a
// bounded results channel owned by one receive goroutine, plus idempotent
// shutdown.
type resultStream struct {
	ctx     context.Context
	cancel  context.CancelFunc
	results chan transcriber.Result
	wg      sync.WaitGroup

	stopping atomic.Bool
	stopOnce sync.Once
	stopErr  error

	// interrupt unblocks goroutines stuck in transport I/O; release frees
	// the transport after they have exited. Either may be nil.
	interrupt func()
	release   func() error

	mu       sync.Mutex
	sendErr  error
	sendCode transcriber.CancellationErrorCode
}

func newResultStream(parent context.Context) *resultStream {
	ctx, cancel := context.WithCancel(parent)
	return &resultStream{
		ctx:     ctx,
		cancel:  cancel,
		results: make(chan transcriber.Result, resultBufferSize),
	}
}

func (s *resultStream) Results() <-chan transcriber.Result {
	return s.results
}

// emit delivers r unless the stream is being stopped.
func (s *resultStream) emit(r transcriber.Result) bool {
	select {
	case s.results <- r:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *resultStream) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *resultStream) isStopping() bool {
	return s.stopping.Load()
}

// setSendErr records the first failure of the audio sender.
func (s *resultStream) setSendErr(code transcriber.CancellationErrorCode, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr == nil {
		s.sendErr = err
		s.sendCode = code
	}
}

// sendFailure returns the recorded sender failure as a terminal result.
func (s *resultStream) sendFailure() (transcriber.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr == nil {
		return transcriber.Result{}, false
	}
	return transcriber.CanceledWithError(s.sendCode, s.sendErr.Error()), true
}

func (s *resultStream) Stop() error {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		s.cancel()
		if s.interrupt != nil {
			s.interrupt()
		}
		s.wg.Wait()
		if s.release != nil {
			s.stopErr = s.release()
		}
	})
	return s.stopErr
}
