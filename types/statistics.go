package types

import (
	"time"

	"go.uber.org/atomic"
)

type StatisticsItem struct {
	Count uint64 `json:",omitempty"`
	Bytes uint64 `json:",omitempty"`
}

type LatencyStatistics struct {
	Count uint64        `json:",omitempty"`
	Min   time.Duration `json:",omitempty"`
	Max   time.Duration `json:",omitempty"`
	Avg   time.Duration `json:",omitempty"`
}

// DecoderStatistics is a snapshot of the counters of a decoder.
type DecoderStatistics struct {
	Received  StatisticsItem
	Queued    StatisticsItem
	Decoded   StatisticsItem
	Delivered StatisticsItem
	Discarded StatisticsItem
	Canceled  StatisticsItem

	Flushes uint64 `json:",omitempty"`
	Drains  uint64 `json:",omitempty"`
	Errors  uint64 `json:",omitempty"`

	DecodeLatency LatencyStatistics
}

type CountersItem struct {
	Count atomic.Uint64
	Bytes atomic.Uint64
}

func (c *CountersItem) Increment(msgSize uint64) {
	c.Count.Inc()
	c.Bytes.Add(msgSize)
}

func (c *CountersItem) ToStats() StatisticsItem {
	return StatisticsItem{
		Count: c.Count.Load(),
		Bytes: c.Bytes.Load(),
	}
}

type LatencyCounters struct {
	Count atomic.Uint64
	Sum   atomic.Int64
	Min   atomic.Int64
	Max   atomic.Int64
}

func (c *LatencyCounters) Observe(d time.Duration) {
	if c.Count.Inc() == 1 {
		c.Min.Store(int64(d))
	}
	c.Sum.Add(int64(d))
	for {
		cur := c.Min.Load()
		if int64(d) >= cur || c.Min.CompareAndSwap(cur, int64(d)) {
			break
		}
	}
	for {
		cur := c.Max.Load()
		if int64(d) <= cur || c.Max.CompareAndSwap(cur, int64(d)) {
			break
		}
	}
}

func (c *LatencyCounters) ToStats() LatencyStatistics {
	count := c.Count.Load()
	if count == 0 {
		return LatencyStatistics{}
	}
	return LatencyStatistics{
		Count: count,
		Min:   time.Duration(c.Min.Load()),
		Max:   time.Duration(c.Max.Load()),
		Avg:   time.Duration(c.Sum.Load() / int64(count)),
	}
}

type DecoderCounters struct {
	Received  CountersItem
	Queued    CountersItem
	Decoded   CountersItem
	Delivered CountersItem
	Discarded CountersItem
	Canceled  CountersItem

	Flushes atomic.Uint64
	Drains  atomic.Uint64
	Errors  atomic.Uint64

	DecodeLatency LatencyCounters
}

func (c *DecoderCounters) ToStats() DecoderStatistics {
	return DecoderStatistics{
		Received:      c.Received.ToStats(),
		Queued:        c.Queued.ToStats(),
		Decoded:       c.Decoded.ToStats(),
		Delivered:     c.Delivered.ToStats(),
		Discarded:     c.Discarded.ToStats(),
		Canceled:      c.Canceled.ToStats(),
		Flushes:       c.Flushes.Load(),
		Drains:        c.Drains.Load(),
		Errors:        c.Errors.Load(),
		DecodeLatency: c.DecodeLatency.ToStats(),
	}
}
