package box

import (
	"fmt"
	"io"
)

// MovieInfo 解析完成后不再修改，可被多个会话并发读取
type MovieInfo struct {
	FileType     *FileTypeBox
	Header       *MovieHeaderBox
	Duration     float64 // 秒
	MoovPosition int64
	Tracks       []*TrackInfo
}

type TrackInfo struct {
	// Index 是该 track 在 MovieInfo.Tracks 中的下标
	Index       int
	Header      *TrackHeaderBox
	Media       *MediaHeaderBox
	Handler     *HandlerBox
	Description *SampleDescriptionBox
	Table       SampleTable
	Chunks      []Chunk
}

// ParseMovie 解析整个文件并建立 MovieInfo
func ParseMovie(r io.ReadSeeker) (*MovieInfo, error) {
	boxes, err := ReadBoxes(r)
	if err != nil {
		return nil, err
	}
	return NewMovieInfo(boxes)
}

func NewMovieInfo(boxes []*Box) (*MovieInfo, error) {
	var movie MovieInfo
	var moov *Box
	var extent int64
	for _, b := range boxes {
		extent = max(extent, b.End())
		switch b.Type {
		case TypeFTYP:
			movie.FileType, _ = b.Payload.(*FileTypeBox)
		case TypeMOOV:
			if moov == nil {
				moov = b
			}
		}
	}
	if moov == nil {
		return nil, ErrNoMovie
	}
	movie.MoovPosition = moov.Offset
	if mvhd := moov.Child(TypeMVHD); mvhd != nil {
		movie.Header, _ = mvhd.Payload.(*MovieHeaderBox)
	}
	if movie.Header != nil {
		movie.Duration = movie.Header.Seconds()
	}
	for _, trak := range moov.Children {
		if trak.Type != TypeTRAK {
			continue
		}
		track, err := newTrackInfo(trak, len(movie.Tracks), extent)
		if err != nil {
			return nil, err
		}
		movie.Tracks = append(movie.Tracks, track)
	}
	return &movie, nil
}

func newTrackInfo(trak *Box, index int, extent int64) (*TrackInfo, error) {
	track := &TrackInfo{Index: index}
	track.Table.SourceSize = extent
	for _, leaf := range trak.Collect() {
		switch p := leaf.Payload.(type) {
		case *TrackHeaderBox:
			track.Header = p
		case *MediaHeaderBox:
			track.Media = p
		case *HandlerBox:
			track.Handler = p
		case *SampleDescriptionBox:
			track.Description = p
		default:
			track.Table.add(p)
		}
	}
	if track.Media == nil {
		return nil, fmt.Errorf("track %d: %w: missing mdhd", index, ErrSampleTable)
	}
	var err error
	if track.Chunks, err = track.Table.BuildChunks(track.Media.Timescale); err != nil {
		return nil, fmt.Errorf("track %d: %w", index, err)
	}
	return track, nil
}

// Track 通过下标取 track
func (m *MovieInfo) Track(index int) *TrackInfo {
	if index < 0 || index >= len(m.Tracks) {
		return nil
	}
	return m.Tracks[index]
}

func (m *MovieInfo) VideoTrack() *TrackInfo {
	for _, t := range m.Tracks {
		if t.IsVideo() {
			return t
		}
	}
	return nil
}

func (m *MovieInfo) AudioTrack() *TrackInfo {
	for _, t := range m.Tracks {
		if t.IsAudio() {
			return t
		}
	}
	return nil
}

func (t *TrackInfo) TimeScale() uint32 {
	return t.Media.Timescale
}

// Duration 毫秒
func (t *TrackInfo) Duration() uint32 {
	return t.Media.Milliseconds()
}

func (t *TrackInfo) ID() uint32 {
	if t.Header == nil {
		return uint32(t.Index + 1)
	}
	return t.Header.TrackID
}

func (t *TrackInfo) SampleEntry() *SampleEntry {
	if t.Description == nil || len(t.Description.Entries) == 0 {
		return nil
	}
	return t.Description.Entries[0]
}

func (t *TrackInfo) IsVideo() bool {
	if t.Handler != nil {
		return t.Handler.HandlerType == TypeVIDE
	}
	e := t.SampleEntry()
	return e != nil && e.IsVideo()
}

func (t *TrackInfo) IsAudio() bool {
	if t.Handler != nil {
		return t.Handler.HandlerType == TypeSOUN
	}
	e := t.SampleEntry()
	return e != nil && e.IsAudio()
}

func (t *TrackInfo) SampleCount() (n int) {
	for i := range t.Chunks {
		n += len(t.Chunks[i].Samples)
	}
	return
}

// Samples 按解码顺序返回所有样本的副本
func (t *TrackInfo) Samples() []Sample {
	samples := make([]Sample, 0, t.SampleCount())
	for i := range t.Chunks {
		samples = append(samples, t.Chunks[i].Samples...)
	}
	return samples
}

// ChunkOf 解析样本到所属 chunk 的反向引用
func (t *TrackInfo) ChunkOf(s *Sample) *Chunk {
	if s.Chunk < 0 || s.Chunk >= len(t.Chunks) {
		return nil
	}
	return &t.Chunks[s.Chunk]
}

// SampleEntryOf 返回样本所属 chunk 的 sample description
func (t *TrackInfo) SampleEntryOf(s *Sample) *SampleEntry {
	chunk := t.ChunkOf(s)
	if chunk == nil || t.Description == nil {
		return nil
	}
	return t.Description.Entry(chunk.SampleDescIndex)
}
