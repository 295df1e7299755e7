// Package mpegts reads the first H.264 or HEVC elementary stream of an
// MPEG transport stream.
package mpegts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/asticode/go-astits"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/source"
	"github.com/xaionaro-go/asyncmediacodec/types"
)

const clockRate = 90000

type Source struct {
	demuxer *astits.Demuxer

	pid          uint16
	mimeType     string
	imageSize    types.Size
	lookahead    *source.Sample
	lastDuration time.Duration
	isEOF        bool
}

var _ source.Source = (*Source)(nil)

func New(ctx context.Context, r io.Reader) *Source {
	return &Source{
		demuxer: astits.NewDemuxer(ctx, r),
	}
}

func (s *Source) String() string {
	return fmt.Sprintf("MPEGTS(pid:%d, %s)", s.pid, s.mimeType)
}

// Track reads up to the first sample of the video stream.
func (s *Source) Track(ctx context.Context) (_ret source.Track, _err error) {
	logger.Debugf(ctx, "Track")
	defer func() { logger.Debugf(ctx, "/Track: %v %v", _ret, _err) }()
	if err := s.fillLookahead(ctx); err != nil {
		return source.Track{}, err
	}
	if s.mimeType == "" {
		return source.Track{}, fmt.Errorf("no H.264 or HEVC stream found")
	}
	return source.Track{
		MIMEType:  s.mimeType,
		ImageSize: s.imageSize,
	}, nil
}

// NextSample returns the next access unit. Its duration is the distance to
// the decode time of the following one; the last access unit repeats the
// duration of the one before.
func (s *Source) NextSample(ctx context.Context) (*source.Sample, error) {
	if err := s.fillLookahead(ctx); err != nil {
		return nil, err
	}
	cur := s.lookahead
	if cur == nil {
		return nil, io.EOF
	}

	next, err := s.readSample(ctx)
	switch {
	case err == io.EOF:
		s.isEOF = true
	case err != nil:
		return nil, err
	}
	s.lookahead = next

	if next != nil && next.DecodeTime > cur.DecodeTime {
		s.lastDuration = next.DecodeTime - cur.DecodeTime
	}
	cur.Duration = s.lastDuration
	return cur, nil
}

func (s *Source) fillLookahead(ctx context.Context) error {
	if s.lookahead != nil || s.isEOF {
		return nil
	}
	sample, err := s.readSample(ctx)
	switch {
	case err == io.EOF:
		s.isEOF = true
		return nil
	case err != nil:
		return err
	}
	s.lookahead = sample
	return nil
}

func (s *Source) readSample(ctx context.Context) (*source.Sample, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := s.demuxer.NextData()
		if err != nil {
			if errors.Is(err, astits.ErrNoMorePackets) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("unable to demux: %w", err)
		}

		if d.PMT != nil && s.mimeType == "" {
			s.selectStream(ctx, d.PMT)
			continue
		}
		if d.PES == nil || s.mimeType == "" || d.PID != s.pid {
			continue
		}

		sample, err := s.newSample(d)
		if err != nil {
			logger.Warnf(ctx, "skipping a PES packet: %v", err)
			continue
		}
		logger.Tracef(ctx, "%s", sample)
		return sample, nil
	}
}

func (s *Source) selectStream(ctx context.Context, pmt *astits.PMTData) {
	for _, es := range pmt.ElementaryStreams {
		switch es.StreamType {
		case astits.StreamTypeH264Video:
			s.mimeType = mediacodec.MIMETypeAVC
		case astits.StreamTypeH265Video:
			s.mimeType = mediacodec.MIMETypeHEVC
		default:
			continue
		}
		s.pid = es.ElementaryPID
		logger.Debugf(ctx, "selected the elementary stream %s", s)
		return
	}
}

func (s *Source) newSample(d *astits.DemuxerData) (*source.Sample, error) {
	hdr := d.PES.Header
	if hdr == nil || hdr.OptionalHeader == nil || hdr.OptionalHeader.PTS == nil {
		return nil, fmt.Errorf("no PTS")
	}
	pts := toDuration(hdr.OptionalHeader.PTS.Base)
	dts := pts
	if hdr.OptionalHeader.DTS != nil {
		dts = toDuration(hdr.OptionalHeader.DTS.Base)
	}

	nalus := source.SplitAnnexB(d.PES.Data)
	isKeyFrame := source.IsRandomAccessPoint(s.mimeType, nalus)
	if p := d.FirstPacket; p != nil && p.AdaptationField != nil && p.AdaptationField.RandomAccessIndicator {
		isKeyFrame = true
	}
	if s.imageSize.IsZero() {
		if size, ok := source.ImageSizeFromSPS(s.mimeType, nalus); ok {
			s.imageSize = size
		}
	}

	return &source.Sample{
		Payload:          d.PES.Data,
		PresentationTime: pts,
		DecodeTime:       dts,
		IsKeyFrame:       isKeyFrame,
	}, nil
}

func toDuration(ticks int64) time.Duration {
	return time.Duration(ticks/clockRate)*time.Second + time.Duration(ticks%clockRate)*time.Second/clockRate
}
