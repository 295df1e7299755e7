package loopback

import (
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
)

type config struct {
	CodecNames      []string
	InputBuffers    int
	OutputBuffers   int
	InputBufferSize int
	OutputFormat    mediacodec.Format
	Manual          bool
}

func defaultConfig() config {
	return config{
		CodecNames:      []string{"c2.loopback.video.decoder"},
		InputBuffers:    4,
		OutputBuffers:   4,
		InputBufferSize: 1 << 20,
	}
}

type Option interface {
	apply(*config)
}

type Options []Option

func (s Options) apply(cfg *config) {
	for _, opt := range s {
		opt.apply(cfg)
	}
}

func (s Options) config() config {
	cfg := defaultConfig()
	s.apply(&cfg)
	return cfg
}

// OptionCodecNames sets the names the platform reports (and accepts) as
// codecs, in the order of preference.
type OptionCodecNames []string

func (opt OptionCodecNames) apply(cfg *config) {
	cfg.CodecNames = opt
}

type OptionInputBuffers int

func (opt OptionInputBuffers) apply(cfg *config) {
	cfg.InputBuffers = int(opt)
}

type OptionOutputBuffers int

func (opt OptionOutputBuffers) apply(cfg *config) {
	cfg.OutputBuffers = int(opt)
}

type OptionInputBufferSize int

func (opt OptionInputBufferSize) apply(cfg *config) {
	cfg.InputBufferSize = int(opt)
}

// OptionOutputFormat overrides keys of the format reported through
// OnAsyncFormatChanged.
type OptionOutputFormat mediacodec.Format

func (opt OptionOutputFormat) apply(cfg *config) {
	cfg.OutputFormat = mediacodec.Format(opt)
}

// OptionManual disables producing outputs from queued inputs: the test code
// drives the callbacks through the Emit* methods instead.
type OptionManual bool

func (opt OptionManual) apply(cfg *config) {
	cfg.Manual = bool(opt)
}
