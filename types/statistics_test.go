package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLatencyCounters(t *testing.T) {
	var c LatencyCounters
	require.Equal(t, LatencyStatistics{}, c.ToStats())
	c.Observe(20 * time.Millisecond)
	c.Observe(10 * time.Millisecond)
	c.Observe(30 * time.Millisecond)
	require.Equal(t, LatencyStatistics{
		Count: 3,
		Min:   10 * time.Millisecond,
		Max:   30 * time.Millisecond,
		Avg:   20 * time.Millisecond,
	}, c.ToStats())
}

func TestDecoderCounters(t *testing.T) {
	var c DecoderCounters
	c.Received.Increment(100)
	c.Received.Increment(50)
	c.Flushes.Inc()
	stats := c.ToStats()
	require.Equal(t, StatisticsItem{Count: 2, Bytes: 150}, stats.Received)
	require.Equal(t, uint64(1), stats.Flushes)
}

func TestMediaTypeFromMIMEType(t *testing.T) {
	require.Equal(t, MediaTypeVideo, MediaTypeFromMIMEType("video/avc"))
	require.Equal(t, MediaTypeAudio, MediaTypeFromMIMEType("audio/opus"))
	require.Equal(t, MediaTypeUnknown, MediaTypeFromMIMEType("text/plain"))
}
