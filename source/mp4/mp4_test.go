package mp4

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	mp4ff "github.com/Eyevinn/mp4ff/mp4"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/source"
	"github.com/xaionaro-go/asyncmediacodec/types"
)

var (
	testSPS = []byte{0x67, 0x42, 0xC0, 0x1E, 0xF4, 0x21, 0x32}
	testPPS = []byte{0x68, 0xCE, 0x3C, 0x80}
	testIDR = []byte{0x65, 0x88, 0x84, 0x00}
	testP   = []byte{0x41, 0x9A, 0x02, 0x00}
)

type testSample struct {
	nalus      [][]byte
	decodeTime uint64
	dur        uint32
	cto        int32
	isSync     bool
}

func buildFragmentedMP4(t *testing.T, timescale uint32, samples []testSample) []byte {
	init := mp4ff.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")
	trak := init.Moov.Trak

	avcC, err := mp4ff.CreateAvcC([][]byte{testSPS}, [][]byte{testPPS}, true)
	require.NoError(t, err)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4ff.CreateVisualSampleEntryBox("avc1", 64, 64, avcC))

	frag, err := mp4ff.CreateFragment(1, trak.Tkhd.TrackID)
	require.NoError(t, err)
	for _, s := range samples {
		flags := mp4ff.NonSyncSampleFlags
		if s.isSync {
			flags = mp4ff.SyncSampleFlags
		}
		data := source.AnnexBToLengthPrefixed(source.JoinAnnexB(s.nalus...))
		frag.AddFullSample(mp4ff.FullSample{
			Sample: mp4ff.Sample{
				Flags:                 flags,
				Size:                  uint32(len(data)),
				Dur:                   s.dur,
				CompositionTimeOffset: s.cto,
			},
			DecodeTime: s.decodeTime,
			Data:       data,
		})
	}

	var buf bytes.Buffer
	require.NoError(t, mp4ff.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"}).Encode(&buf))
	require.NoError(t, init.Moov.Encode(&buf))
	require.NoError(t, frag.Encode(&buf))
	return buf.Bytes()
}

func readAll(t *testing.T, ctx context.Context, s source.Source) []*source.Sample {
	var result []*source.Sample
	for {
		sample, err := s.NextSample(ctx)
		if err == io.EOF {
			return result
		}
		require.NoError(t, err)
		result = append(result, sample)
	}
}

func TestFragmentedAVC(t *testing.T) {
	ctx := context.Background()
	data := buildFragmentedMP4(t, 1000, []testSample{
		{nalus: [][]byte{testIDR}, decodeTime: 0, dur: 40, cto: 40, isSync: true},
		{nalus: [][]byte{testP}, decodeTime: 40, dur: 40, cto: 40},
	})

	s, err := New(ctx, bytes.NewReader(data))
	require.NoError(t, err)

	track, err := s.Track(ctx)
	require.NoError(t, err)
	require.Equal(t, mediacodec.MIMETypeAVC, track.MIMEType)
	require.Equal(t, types.Size{Width: 64, Height: 64}, track.ImageSize)

	samples := readAll(t, ctx, s)
	require.Len(t, samples, 2)

	key := samples[0]
	require.True(t, key.IsKeyFrame)
	require.Equal(t, 40*time.Millisecond, key.PresentationTime)
	require.Equal(t, time.Duration(0), key.DecodeTime)
	require.Equal(t, 40*time.Millisecond, key.Duration)
	require.Equal(t, [][]byte{testSPS, testPPS, testIDR}, source.SplitAnnexB(key.Payload))

	delta := samples[1]
	require.False(t, delta.IsKeyFrame)
	require.Equal(t, 80*time.Millisecond, delta.PresentationTime)
	require.Equal(t, [][]byte{testP}, source.SplitAnnexB(delta.Payload))

	_, err = s.NextSample(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestKeyFrameDetectedFromNALUnits(t *testing.T) {
	ctx := context.Background()
	data := buildFragmentedMP4(t, 90000, []testSample{
		{nalus: [][]byte{testIDR}, dur: 3000},
	})

	s, err := New(ctx, bytes.NewReader(data))
	require.NoError(t, err)
	samples := readAll(t, ctx, s)
	require.Len(t, samples, 1)
	require.True(t, samples[0].IsKeyFrame)
	require.Equal(t, time.Second/30, samples[0].Duration)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	data := buildFragmentedMP4(t, 1000, []testSample{
		{nalus: [][]byte{testIDR}, dur: 40, isSync: true},
	})
	s, err := New(ctx, bytes.NewReader(data))
	require.NoError(t, err)

	cancel()
	_, err = s.NextSample(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNotAnMP4(t *testing.T) {
	_, err := New(context.Background(), bytes.NewReader([]byte("definitely not an mp4 file")))
	require.Error(t, err)
}

func TestToDuration(t *testing.T) {
	s := &Source{timescale: 90000}
	require.Equal(t, time.Second, s.toDuration(90000))
	require.Equal(t, 100*time.Hour, s.toDuration(90000*3600*100))
	require.Equal(t, -time.Second, s.toDuration(-90000))
}
