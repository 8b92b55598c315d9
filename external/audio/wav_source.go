package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/foxseedlab/s2t/internal/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

type wavSource struct {
	file    *os.File
	pcm     io.Reader
	format  audio.Format
	pcmSize int
}

// OpenWAV opens a PCM WAV file and positions it at the start of its sample
// data. Compressed WAV variants are rejected with audio.ErrUnsupportedFormat.
func OpenWAV(path string) (audio.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}

	dec := wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read wav %s: %w", path, err)
	}
	if err := dec.Err(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read wav %s: %w", path, err)
	}
	if dec.PCMChunk == nil || dec.NumChans == 0 || dec.SampleRate == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%s has no pcm data: %w", path, audio.ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM || dec.BitDepth != 16 {
		_ = f.Close()
		return nil, fmt.Errorf("%s is format %d with %d-bit samples, want 16-bit pcm: %w",
			path, dec.WavAudioFormat, dec.BitDepth, audio.ErrUnsupportedFormat)
	}

	return &wavSource{
		file: f,
		pcm:  io.LimitReader(dec.PCMChunk, int64(dec.PCMSize)),
		format: audio.Format{
			SampleRate: int(dec.SampleRate),
			Channels:   int(dec.NumChans),
			BitDepth:   int(dec.BitDepth),
		},
		pcmSize: dec.PCMSize,
	}, nil
}

func (s *wavSource) Read(p []byte) (int, error) {
	return s.pcm.Read(p)
}

func (s *wavSource) Format() audio.Format {
	return s.format
}

func (s *wavSource) PCMSize() int {
	return s.pcmSize
}

func (s *wavSource) Close() error {
	return s.file.Close()
}
