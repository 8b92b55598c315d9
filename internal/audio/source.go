package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"time"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BitDepth / 8
}

// ChunkSize returns the byte length of d worth of PCM, aligned to whole frames.
func (f Format) ChunkSize(d time.Duration) int {
	frame := f.Channels * f.BitDepth / 8
	if frame <= 0 {
		return 0
	}
	n := int(int64(f.BytesPerSecond()) * int64(d) / int64(time.Second))
	n -= n % frame
	if n < frame {
		n = frame
	}
	return n
}

// WAVHeader returns a canonical 44-byte RIFF header for PCM in this format.
// A dataSize of 0 marks a stream of unknown length.
func (f Format) WAVHeader(dataSize uint32) []byte {
	h := make([]byte, 44)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], 36+dataSize)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1)
	binary.LittleEndian.PutUint16(h[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(f.BytesPerSecond()))
	binary.LittleEndian.PutUint16(h[32:34], uint16(f.Channels*f.BitDepth/8))
	binary.LittleEndian.PutUint16(h[34:36], uint16(f.BitDepth))
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataSize)
	return h
}

// Source yields little-endian PCM samples of a decoded audio file.
type Source interface {
	io.Reader
	Format() Format
	// PCMSize is the total number of PCM bytes, or 0 when unknown.
	PCMSize() int
	Close() error
}

type SourceFactory func(path string) (Source, error)
