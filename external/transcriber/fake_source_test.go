package transcriber

import (
	"bytes"

	"github.com/foxseedlab/s2t/internal/audio"
)

type fakeSource struct {
	*bytes.Reader
	format audio.Format
	size   int
}

func newFakeSource(pcm []byte) *fakeSource {
	return &fakeSource{
		Reader: bytes.NewReader(pcm),
		format: audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 16},
		size:   len(pcm),
	}
}

func (s *fakeSource) Format() audio.Format { return s.format }
func (s *fakeSource) PCMSize() int         { return s.size }
func (s *fakeSource) Close() error         { return nil }
