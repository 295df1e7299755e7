// Package mp4 reads the video samples of progressive and fragmented MP4
// files.
package mp4

import (
	"context"
	"fmt"
	"io"
	"time"

	mp4ff "github.com/Eyevinn/mp4ff/mp4"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/source"
	"github.com/xaionaro-go/asyncmediacodec/types"
)

const nalLengthSize = 4

type sampleRef struct {
	Offset     uint64
	Size       uint32
	Data       []byte
	DecodeTime uint64
	Duration   uint32
	CTO        int32
	IsSync     bool
}

type Source struct {
	reader        io.ReadSeeker
	track         source.Track
	timescale     uint32
	parameterSets [][]byte
	samples       []sampleRef
	next          int
}

var _ source.Source = (*Source)(nil)

// New parses the file and indexes the samples of its first video track.
// Samples of progressive files are read from r on demand.
func New(
	ctx context.Context,
	r io.ReadSeeker,
) (_ret *Source, _err error) {
	logger.Debugf(ctx, "New")
	defer func() { logger.Debugf(ctx, "/New: %v", _err) }()

	f, err := mp4ff.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("unable to decode the MP4 file: %w", err)
	}

	s := &Source{reader: r}
	if f.IsFragmented() {
		err = s.indexFragmented(ctx, f)
	} else {
		err = s.indexProgressive(ctx, f)
	}
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "%s: %d samples", s.track, len(s.samples))
	return s, nil
}

func findVideoTrak(moov *mp4ff.MoovBox) (*mp4ff.TrakBox, *mp4ff.VisualSampleEntryBox, error) {
	if moov == nil {
		return nil, nil, fmt.Errorf("no moov box")
	}
	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
			continue
		}
		for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
			if entry, ok := child.(*mp4ff.VisualSampleEntryBox); ok {
				return trak, entry, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("no video track found")
}

func (s *Source) initTrack(
	trak *mp4ff.TrakBox,
	entry *mp4ff.VisualSampleEntryBox,
) error {
	s.timescale = 1000
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale != 0 {
		s.timescale = trak.Mdia.Mdhd.Timescale
	}
	s.track.ImageSize = types.Size{Width: int32(entry.Width), Height: int32(entry.Height)}

	switch entry.Type() {
	case "avc1", "avc3":
		s.track.MIMEType = mediacodec.MIMETypeAVC
		if entry.AvcC != nil {
			s.parameterSets = append(s.parameterSets, entry.AvcC.SPSnalus...)
			s.parameterSets = append(s.parameterSets, entry.AvcC.PPSnalus...)
		}
	case "hvc1", "hev1":
		s.track.MIMEType = mediacodec.MIMETypeHEVC
		if entry.HvcC != nil {
			for _, array := range entry.HvcC.NaluArrays {
				s.parameterSets = append(s.parameterSets, array.Nalus...)
			}
		}
	case "vp09":
		s.track.MIMEType = mediacodec.MIMETypeVP9
	case "av01":
		s.track.MIMEType = mediacodec.MIMETypeAV1
	default:
		return fmt.Errorf("unsupported sample entry '%s'", entry.Type())
	}
	return nil
}

func (s *Source) isNALBased() bool {
	switch s.track.MIMEType {
	case mediacodec.MIMETypeAVC, mediacodec.MIMETypeHEVC:
		return true
	}
	return false
}

func (s *Source) indexProgressive(ctx context.Context, f *mp4ff.File) error {
	trak, entry, err := findVideoTrak(f.Moov)
	if err != nil {
		return err
	}
	if err := s.initTrack(trak, entry); err != nil {
		return err
	}

	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil || stbl.Stsc == nil || stbl.Stts == nil {
		return fmt.Errorf("an incomplete sample table")
	}
	if stbl.Stco == nil && stbl.Co64 == nil {
		return fmt.Errorf("no chunk offsets")
	}
	syncSamples := map[uint32]struct{}{}
	if stbl.Stss != nil {
		for _, sampleNr := range stbl.Stss.SampleNumber {
			syncSamples[sampleNr] = struct{}{}
		}
	}

	s.samples = make([]sampleRef, 0, stbl.Stsz.SampleNumber)
	var (
		curChunkNr = -1
		offset     uint64
	)
	for sampleNr := uint32(1); sampleNr <= stbl.Stsz.SampleNumber; sampleNr++ {
		chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
		if err != nil {
			return fmt.Errorf("unable to find the chunk of sample %d: %w", sampleNr, err)
		}
		if chunkNr != curChunkNr {
			curChunkNr = chunkNr
			offset, err = chunkOffset(stbl, chunkNr)
			if err != nil {
				return err
			}
			for nr := uint32(firstSampleInChunk); nr < sampleNr; nr++ {
				offset += uint64(stbl.Stsz.GetSampleSize(int(nr)))
			}
		}

		ref := sampleRef{
			Offset: offset,
			Size:   stbl.Stsz.GetSampleSize(int(sampleNr)),
		}
		offset += uint64(ref.Size)
		ref.DecodeTime, ref.Duration = stbl.Stts.GetDecodeTime(sampleNr)
		if stbl.Ctts != nil {
			ref.CTO = stbl.Ctts.GetCompositionTimeOffset(sampleNr)
		}
		_, ref.IsSync = syncSamples[sampleNr]
		if stbl.Stss == nil {
			ref.IsSync = true
		}
		s.samples = append(s.samples, ref)
	}
	return nil
}

func chunkOffset(stbl *mp4ff.StblBox, chunkNr int) (uint64, error) {
	if stbl.Stco != nil {
		offset, err := stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return 0, fmt.Errorf("unable to get the offset of chunk %d: %w", chunkNr, err)
		}
		return offset, nil
	}
	if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
		return 0, fmt.Errorf("chunk %d is out of range [1, %d]", chunkNr, len(stbl.Co64.ChunkOffset))
	}
	return stbl.Co64.ChunkOffset[chunkNr-1], nil
}

func (s *Source) indexFragmented(ctx context.Context, f *mp4ff.File) error {
	if f.Init == nil {
		return fmt.Errorf("a fragmented file without an init segment")
	}
	trak, entry, err := findVideoTrak(f.Init.Moov)
	if err != nil {
		return err
	}
	if err := s.initTrack(trak, entry); err != nil {
		return err
	}
	trackID := trak.Tkhd.TrackID

	var trex *mp4ff.TrexBox
	if f.Init.Moov.Mvex != nil {
		for _, t := range f.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil || !hasTraf(frag.Moof, trackID) {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return fmt.Errorf("unable to get the samples of fragment %d: %w", frag.Moof.Mfhd.SequenceNumber, err)
			}
			for _, sample := range samples {
				s.samples = append(s.samples, sampleRef{
					Size:       uint32(len(sample.Data)),
					Data:       sample.Data,
					DecodeTime: sample.DecodeTime,
					Duration:   sample.Dur,
					CTO:        sample.CompositionTimeOffset,
					IsSync:     sample.Flags == mp4ff.SyncSampleFlags,
				})
			}
		}
	}
	return nil
}

func hasTraf(moof *mp4ff.MoofBox, trackID uint32) bool {
	for _, traf := range moof.Trafs {
		if traf.Tfhd != nil && traf.Tfhd.TrackID == trackID {
			return true
		}
	}
	return false
}

func (s *Source) Track(ctx context.Context) (source.Track, error) {
	return s.track, nil
}

// NextSample returns the next sample in decode order.
func (s *Source) NextSample(ctx context.Context) (_ret *source.Sample, _err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.samples) {
		return nil, io.EOF
	}
	ref := s.samples[s.next]
	s.next++

	data := ref.Data
	if data == nil {
		data = make([]byte, ref.Size)
		if _, err := s.reader.Seek(int64(ref.Offset), io.SeekStart); err != nil {
			return nil, fmt.Errorf("unable to seek to sample %d: %w", s.next, err)
		}
		if _, err := io.ReadFull(s.reader, data); err != nil {
			return nil, fmt.Errorf("unable to read sample %d: %w", s.next, err)
		}
	}

	sample := &source.Sample{
		PresentationTime: s.toDuration(int64(ref.DecodeTime) + int64(ref.CTO)),
		DecodeTime:       s.toDuration(int64(ref.DecodeTime)),
		Duration:         s.toDuration(int64(ref.Duration)),
		IsKeyFrame:       ref.IsSync,
		Payload:          data,
	}
	if !s.isNALBased() {
		return sample, nil
	}

	payload, err := source.LengthPrefixedToAnnexB(data, nalLengthSize)
	if err != nil {
		return nil, fmt.Errorf("sample %d: %w", s.next, err)
	}
	if !sample.IsKeyFrame {
		sample.IsKeyFrame = source.IsRandomAccessPoint(s.track.MIMEType, source.SplitAnnexB(payload))
	}
	if sample.IsKeyFrame && len(s.parameterSets) > 0 {
		payload = append(source.JoinAnnexB(s.parameterSets...), payload...)
	}
	sample.Payload = payload
	return sample, nil
}

func (s *Source) toDuration(ticks int64) time.Duration {
	ts := int64(s.timescale)
	return time.Duration(ticks/ts)*time.Second + time.Duration(ticks%ts)*time.Second/time.Duration(ts)
}
