package deepgram

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/koscakluka/ema-voice/core/audio"
)

// listenEncoding is how raw audio is described to the listen endpoint.
type listenEncoding struct {
	name       string
	sampleRate int
}

var listenSampleRates = []int{8000, 16000, 24000, 32000, 48000}

// Companded formats are narrowband only.
var narrowbandFormats = map[audio.EncodingFormat]bool{
	audio.EncodingALaw:  true,
	audio.EncodingMulaw: true,
}

func newListenEncoding(info audio.EncodingInfo) (listenEncoding, error) {
	if !slices.Contains(listenSampleRates, info.SampleRate) {
		return listenEncoding{}, fmt.Errorf("unsupported sample rate %d", info.SampleRate)
	}

	switch {
	case info.Format == audio.EncodingLinear16:
	case narrowbandFormats[info.Format]:
		if info.SampleRate != 8000 {
			return listenEncoding{}, fmt.Errorf("%s audio must be sampled at 8000Hz, got %d", info.Format, info.SampleRate)
		}
	default:
		return listenEncoding{}, fmt.Errorf("unsupported encoding %q", info.Format)
	}

	return listenEncoding{name: info.Format.Name(), sampleRate: info.SampleRate}, nil
}

func (e listenEncoding) apply(query url.Values) {
	query.Set("encoding", e.name)
	query.Set("sample_rate", strconv.Itoa(e.sampleRate))
	query.Set("channels", "1")
}
