package decoder

import (
	"github.com/google/uuid"
	"github.com/xaionaro-go/asyncmediacodec/executor"
	"github.com/xaionaro-go/asyncmediacodec/surface"
)

type config struct {
	Quirks           Quirks
	CodecNames       []string
	SurfaceAllocator surface.Allocator
	TrackingID       uuid.UUID
	LowLatency       bool
	MaxInputSize     int32
	Executor         *executor.Serial
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
	cfg := config{}
	s.apply(&cfg)
	if cfg.TrackingID == uuid.Nil {
		cfg.TrackingID = uuid.New()
	}
	return cfg
}

type OptionQuirks Quirks

func (opt OptionQuirks) apply(cfg *config) {
	cfg.Quirks = Quirks(opt)
}

// OptionCodecNames overrides the candidate codecs (in the order of
// preference) instead of asking the platform.
type OptionCodecNames []string

func (opt OptionCodecNames) apply(cfg *config) {
	cfg.CodecNames = opt
}

// OptionSurfaceAllocator is used to get an output surface when none is
// given explicitly. Without either, decoded frames are copied out of the
// codec into raw images.
type OptionSurfaceAllocator struct {
	surface.Allocator
}

func (opt OptionSurfaceAllocator) apply(cfg *config) {
	cfg.SurfaceAllocator = opt.Allocator
}

// OptionTrackingID sets the ID the decoder logs are tagged with.
type OptionTrackingID uuid.UUID

func (opt OptionTrackingID) apply(cfg *config) {
	cfg.TrackingID = uuid.UUID(opt)
}

type OptionLowLatency bool

func (opt OptionLowLatency) apply(cfg *config) {
	cfg.LowLatency = bool(opt)
}

type OptionMaxInputSize int32

func (opt OptionMaxInputSize) apply(cfg *config) {
	cfg.MaxInputSize = int32(opt)
}

// OptionExecutor makes the decoder run on the given executor instead of
// starting its own. The executor is not closed by Shutdown then.
type OptionExecutor struct {
	*executor.Serial
}

func (opt OptionExecutor) apply(cfg *config) {
	cfg.Executor = opt.Serial
}
