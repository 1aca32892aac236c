package wav

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"medo/internal/tester"
)

func samplePCM() []byte {
	samples := []int16{0, 1, -1, 32767, -32768, 1234, -4321, 42}
	out := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s))
	}
	return out
}

func pcmBytes(buf *audio.IntBuffer) []byte {
	out := make([]byte, 0, len(buf.Data)*2)
	for _, v := range buf.Data {
		out = binary.LittleEndian.AppendUint16(out, uint16(int16(v)))
	}
	return out
}

func TestEncode_DecodesWithStandardParser(t *testing.T) {
	pcm := samplePCM()
	out, err := Encode(pcm, DefaultFormat)
	tester.NoErr(t, err)
	tester.Eq(t, len(out), headerSize+len(pcm))

	d := gowav.NewDecoder(bytes.NewReader(out))
	tester.True(t, d.IsValidFile(), "valid wav")
	buf, err := d.FullPCMBuffer()
	tester.NoErr(t, err)

	tester.Eq(t, int(d.NumChans), 1)
	tester.Eq(t, int(d.SampleRate), 24000)
	tester.Eq(t, int(d.BitDepth), 16)
	tester.Eq(t, len(buf.Data), len(pcm)/2)
	tester.Eq(t, pcmBytes(buf), pcm)
}

func TestEncode_HeaderFields(t *testing.T) {
	pcm := samplePCM()
	out, err := Encode(pcm, Format{Channels: 2, SampleRate: 16000, BitsPerSample: 16})
	tester.NoErr(t, err)

	le := binary.LittleEndian
	tester.Eq(t, string(out[0:4]), "RIFF")
	tester.Eq(t, le.Uint32(out[4:8]), uint32(36+len(pcm)))
	tester.Eq(t, string(out[8:16]), "WAVEfmt ")
	tester.Eq(t, le.Uint16(out[20:22]), uint16(1))
	tester.Eq(t, le.Uint16(out[22:24]), uint16(2))
	tester.Eq(t, le.Uint32(out[24:28]), uint32(16000))
	tester.Eq(t, le.Uint32(out[28:32]), uint32(64000))
	tester.Eq(t, le.Uint16(out[32:34]), uint16(4))
	tester.Eq(t, le.Uint16(out[34:36]), uint16(16))
	tester.Eq(t, string(out[36:40]), "data")
	tester.Eq(t, le.Uint32(out[40:44]), uint32(len(pcm)))
	tester.Eq(t, out[44:], pcm)
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode(nil, DefaultFormat)
	tester.ErrIs(t, err, ErrNoPCM)

	_, err = Encode([]byte{1, 2, 3}, DefaultFormat)
	tester.ErrIs(t, err, ErrPartialFrame)

	_, err = Encode([]byte{1, 2}, Format{Channels: 1, SampleRate: 0, BitsPerSample: 16})
	tester.ErrIs(t, err, ErrBadFormat)
}

func TestDataURI(t *testing.T) {
	pcm := samplePCM()
	out, err := Encode(pcm, DefaultFormat)
	tester.NoErr(t, err)
	payload, ok := strings.CutPrefix(DataURI(out), "data:audio/wav;base64,")
	tester.True(t, ok, "data uri prefix")
	raw, err := base64.StdEncoding.DecodeString(payload)
	tester.NoErr(t, err)
	tester.Eq(t, raw[headerSize:], pcm)
}

func TestValidate(t *testing.T) {
	out, err := Encode(samplePCM(), DefaultFormat)
	tester.NoErr(t, err)
	tester.NoErr(t, Validate(out))

	tester.ErrIs(t, Validate([]byte("RIFF")), ErrInvalidContainer)
	garbage := append([]byte("NOPE"), make([]byte, 60)...)
	tester.ErrIs(t, Validate(garbage), ErrInvalidContainer)
}
