// Package wav wraps raw little-endian PCM into a RIFF/WAVE container.
package wav

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	gowav "github.com/go-audio/wav"
)

const (
	headerSize = 44
	formatPCM  = 1
	MIMEType   = "audio/wav"
)

var (
	ErrNoPCM        = errors.New("wav: no pcm data")
	ErrPartialFrame = errors.New("wav: pcm length is not a whole number of frames")
	ErrBadFormat    = errors.New("wav: invalid format")
	// ErrInvalidContainer marks bytes labelled as WAV that do not parse as one.
	ErrInvalidContainer = errors.New("wav: invalid wav container")
)

// Format describes the PCM stream.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// DefaultFormat matches the speech model output: mono, 24 kHz, 16-bit.
var DefaultFormat = Format{Channels: 1, SampleRate: 24000, BitsPerSample: 16}

func (f Format) blockAlign() int { return f.Channels * f.BitsPerSample / 8 }

func (f Format) validate() error {
	switch {
	case f.Channels <= 0:
		return fmt.Errorf("%w: channels %d", ErrBadFormat, f.Channels)
	case f.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrBadFormat, f.SampleRate)
	case f.BitsPerSample <= 0 || f.BitsPerSample%8 != 0:
		return fmt.Errorf("%w: bits per sample %d", ErrBadFormat, f.BitsPerSample)
	}
	return nil
}

// Encode returns a complete WAV file: a 44-byte header followed by pcm
// unchanged.
func Encode(pcm []byte, f Format) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, ErrNoPCM
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	if len(pcm)%f.blockAlign() != 0 {
		return nil, fmt.Errorf("%w: %d bytes, block align %d", ErrPartialFrame, len(pcm), f.blockAlign())
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + len(pcm))
	le := binary.LittleEndian
	u32 := func(v int) { _ = binary.Write(&buf, le, uint32(v)) }
	u16 := func(v int) { _ = binary.Write(&buf, le, uint16(v)) }

	buf.WriteString("RIFF")
	u32(36 + len(pcm))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	u32(16)
	u16(formatPCM)
	u16(f.Channels)
	u32(f.SampleRate)
	u32(f.SampleRate * f.blockAlign())
	u16(f.blockAlign())
	u16(f.BitsPerSample)

	buf.WriteString("data")
	u32(len(pcm))
	buf.Write(pcm)
	return buf.Bytes(), nil
}

// DataURI encodes a WAV file for inline playback.
func DataURI(wav []byte) string {
	return "data:" + MIMEType + ";base64," + base64.StdEncoding.EncodeToString(wav)
}

// Validate reports whether b is a readable WAV file carrying samples.
func Validate(b []byte) error {
	if len(b) < headerSize {
		return fmt.Errorf("%w: %d bytes", ErrInvalidContainer, len(b))
	}
	d := gowav.NewDecoder(bytes.NewReader(b))
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidContainer, err)
		}
		return ErrInvalidContainer
	}
	return nil
}
