package decoder

import (
	"time"

	"github.com/xaionaro-go/asyncmediacodec/types"
)

// perfRecorder measures the time between submitting a sample and getting
// the frame with the same presentation time back. Only used on the executor.
type perfRecorder struct {
	startedAt map[int64]time.Time
	latency   *types.LatencyCounters
}

func newPerfRecorder(latency *types.LatencyCounters) perfRecorder {
	return perfRecorder{
		startedAt: map[int64]time.Time{},
		latency:   latency,
	}
}

func (r *perfRecorder) Start(ptsUs int64) {
	r.startedAt[ptsUs] = time.Now()
}

func (r *perfRecorder) Record(ptsUs int64) (time.Duration, bool) {
	startedAt, ok := r.startedAt[ptsUs]
	if !ok {
		return 0, false
	}
	delete(r.startedAt, ptsUs)
	d := time.Since(startedAt)
	r.latency.Observe(d)
	return d, true
}

func (r *perfRecorder) Reset() {
	clear(r.startedAt)
}
