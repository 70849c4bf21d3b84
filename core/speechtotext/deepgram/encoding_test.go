package deepgram

import (
	"net/url"
	"testing"

	"github.com/koscakluka/ema-voice/core/audio"
)

func TestNewListenEncoding(t *testing.T) {
	tests := []struct {
		name    string
		info    audio.EncodingInfo
		wantErr bool
	}{
		{name: "linear16 wideband", info: audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingLinear16}},
		{name: "mulaw narrowband", info: audio.EncodingInfo{SampleRate: 8000, Format: audio.EncodingMulaw}},
		{name: "alaw wideband", info: audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingALaw}, wantErr: true},
		{name: "odd rate", info: audio.EncodingInfo{SampleRate: 44100, Format: audio.EncodingLinear16}, wantErr: true},
		{name: "unknown format", info: audio.EncodingInfo{SampleRate: 16000, Format: "opus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newListenEncoding(tt.info)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestListenEncodingApply(t *testing.T) {
	encoding, err := newListenEncoding(audio.GetDefaultEncodingInfo())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	query := url.Values{}
	encoding.apply(query)
	if query.Get("encoding") != "linear16" || query.Get("sample_rate") != "16000" || query.Get("channels") != "1" {
		t.Fatalf("unexpected query: %v", query.Encode())
	}
}
