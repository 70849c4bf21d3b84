package texttospeech

type SpeakOptions struct {
	// StartCallback is called once when audio for the utterance starts.
	StartCallback func()
	// EndCallback is called once when the utterance has been fully played.
	// It is not called for cancelled utterances.
	EndCallback func()
	// ErrorCallback is called when speech fails after Speak returned. No end
	// callback follows.
	ErrorCallback func(error)

	// Language is the session language used for voice resolution.
	Language string
}

type SpeakOption func(*SpeakOptions)

func NewSpeakOptions(opts ...SpeakOption) SpeakOptions {
	options := SpeakOptions{
		StartCallback: func() {},
		EndCallback:   func() {},
		ErrorCallback: func(error) {},
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithStartCallback(callback func()) SpeakOption {
	return func(o *SpeakOptions) {
		if callback != nil {
			o.StartCallback = callback
		}
	}
}

func WithEndCallback(callback func()) SpeakOption {
	return func(o *SpeakOptions) {
		if callback != nil {
			o.EndCallback = callback
		}
	}
}

func WithErrorCallback(callback func(error)) SpeakOption {
	return func(o *SpeakOptions) {
		if callback != nil {
			o.ErrorCallback = callback
		}
	}
}

func WithLanguage(language string) SpeakOption {
	return func(o *SpeakOptions) { o.Language = language }
}
