package media

import (
	"errors"
	"testing"

	"medo/internal/tester"
)

func TestDecode(t *testing.T) {
	pdf := DataURI("application/pdf", []byte("%PDF-1.4"))
	tests := []struct {
		name    string
		ref     Reference
		accept  []Class
		wantErr error
		mime    string
	}{
		{name: "pdf accepted", ref: Reference{URL: pdf}, accept: []Class{ClassImage, ClassPDF}, mime: "application/pdf"},
		{name: "image accepted", ref: Reference{URL: DataURI("image/png", []byte{0x89, 'P'})}, accept: []Class{ClassImage}, mime: "image/png"},
		{name: "audio with params", ref: Reference{URL: "data:audio/webm;codecs=opus;base64,AAEC"}, accept: []Class{ClassAudio}, mime: "audio/webm;codecs=opus"},
		{name: "pdf rejected for audio", ref: Reference{URL: pdf}, accept: []Class{ClassAudio}, wantErr: ErrUnsupportedType},
		{name: "not a data uri", ref: Reference{URL: "https://example.com/a.png"}, wantErr: ErrInvalidDataURI},
		{name: "not base64", ref: Reference{URL: "data:image/png,rawbytes"}, wantErr: ErrInvalidDataURI},
		{name: "bad payload", ref: Reference{URL: "data:image/png;base64,@@@"}, wantErr: ErrInvalidDataURI},
		{name: "empty payload", ref: Reference{URL: "data:image/png;base64,"}, wantErr: ErrInvalidDataURI},
		{name: "declared mismatch", ref: Reference{URL: pdf, MIMEType: "image/png"}, wantErr: ErrMIMEMismatch},
		{name: "declared fills missing", ref: Reference{URL: "data:;base64,AAEC", MIMEType: "AUDIO/WAV"}, accept: []Class{ClassAudio}, mime: "audio/wav"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := tt.ref.Decode(tt.accept...)
			if tt.wantErr != nil {
				tester.True(t, errors.Is(err, tt.wantErr), "want %v, got %v", tt.wantErr, err)
				return
			}
			tester.NoErr(t, err)
			tester.Eq(t, blob.MIMEType, tt.mime)
			tester.True(t, len(blob.Data) > 0, "payload decoded")
		})
	}
}

func TestClassMatch(t *testing.T) {
	tester.True(t, ClassImage.Match("image/jpeg"))
	tester.True(t, ClassAudio.Match("Audio/Mpeg; charset=x"))
	tester.False(t, ClassImage.Match("image/"))
	tester.False(t, ClassPDF.Match("application/pdfx"))
	tester.False(t, ClassAudio.Match(""))
}

func TestBlobParam(t *testing.T) {
	b := Blob{MIMEType: "audio/L16;codec=pcm;rate=24000"}
	tester.Eq(t, b.Param("rate"), "24000")
	tester.Eq(t, b.Param("codec"), "pcm")
	tester.Eq(t, b.Param("missing"), "")
	tester.Eq(t, b.BaseMIME(), "audio/l16")
}
