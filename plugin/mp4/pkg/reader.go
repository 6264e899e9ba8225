package mp4

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"m7s.live/vod/v5/pkg"
	flv "m7s.live/vod/v5/plugin/flv/pkg"
	. "m7s.live/vod/v5/plugin/mp4/pkg/box"
	rtmp "m7s.live/vod/v5/plugin/rtmp/pkg"
)

// ObjectTypeIndication 中表示 AAC 的取值
const (
	objectTypeMPEG4Audio   = 0x40
	objectTypeMPEG2AACMain = 0x66
	objectTypeMPEG2AACLC   = 0x67
	objectTypeMPEG2AACSSR  = 0x68
)

type (
	ReaderOption func(*Reader)
	// Reader 把一个解析好的 mp4 按时间顺序转换为 rtmp 消息，每个播放会话一个 Reader
	Reader struct {
		*slog.Logger
		Movie         *MovieInfo
		Tracks        []*Track
		ReadSampleIdx []int
		VideoTrack    *Track
		AudioTrack    *Track

		src                io.ReaderAt
		disableAudio       bool
		disableVideo       bool
		defaultAudioConfig []byte
	}
)

func WithTracks(audio, video bool) ReaderOption {
	return func(r *Reader) {
		r.disableAudio = !audio
		r.disableVideo = !video
	}
}

// WithDefaultAudioConfig esds 中没有 DecoderSpecificInfo 时使用的 AudioSpecificConfig
func WithDefaultAudioConfig(config []byte) ReaderOption {
	return func(r *Reader) {
		r.defaultAudioConfig = config
	}
}

func NewReader(movie *MovieInfo, src io.ReaderAt, logger *slog.Logger, opts ...ReaderOption) (*Reader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reader{
		Logger:             logger,
		Movie:              movie,
		src:                src,
		defaultAudioConfig: DefaultAudioSpecificConfig[:],
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, info := range movie.Tracks {
		switch {
		case info.IsVideo() && !r.disableVideo && r.VideoTrack == nil:
			r.VideoTrack = r.videoTrack(info)
		case info.IsAudio() && !r.disableAudio && r.AudioTrack == nil:
			r.AudioTrack = r.audioTrack(info)
		default:
			r.Debug("skip track", "track", info.ID())
		}
	}
	// 视频在前，时间相同时先输出视频
	for _, track := range []*Track{r.VideoTrack, r.AudioTrack} {
		if track != nil {
			r.Tracks = append(r.Tracks, track)
		}
	}
	if len(r.Tracks) == 0 {
		return nil, pkg.ErrNoPlayableTrack
	}
	r.ReadSampleIdx = make([]int, len(r.Tracks))
	return r, nil
}

func (r *Reader) videoTrack(info *TrackInfo) *Track {
	entry := info.SampleEntry()
	if entry == nil {
		r.Warn("video track without sample entry", "track", info.ID())
		return nil
	}
	switch entry.Type {
	case TypeAVC1, TypeAVC3:
	default:
		r.Warn("unsupported video codec", "track", info.ID(), "type", entry.Type)
		return nil
	}
	avcC := entry.Extension(TypeAVCC)
	if avcC == nil {
		r.Warn("avc track without avcC", "track", info.ID())
		return nil
	}
	return newTrack(info, true, avcC)
}

func (r *Reader) audioTrack(info *TrackInfo) *Track {
	entry := info.SampleEntry()
	if entry == nil {
		r.Warn("audio track without sample entry", "track", info.ID())
		return nil
	}
	if entry.Type != TypeMP4A || entry.Descriptor == nil {
		r.Warn("unsupported audio codec", "track", info.ID(), "type", entry.Type)
		return nil
	}
	switch entry.Descriptor.ObjectTypeIndication {
	case objectTypeMPEG4Audio, objectTypeMPEG2AACMain, objectTypeMPEG2AACLC, objectTypeMPEG2AACSSR:
	default:
		r.Warn("unsupported audio object type", "track", info.ID(), "oti", entry.Descriptor.ObjectTypeIndication)
		return nil
	}
	config := entry.Descriptor.DecoderSpecificInfo
	if !entry.Descriptor.HasDecoderSpecificInfo || len(config) == 0 {
		if len(r.defaultAudioConfig) == 0 {
			r.Warn("aac track without decoder specific info", "track", info.ID())
			return nil
		}
		r.Debug("use default audio config", "track", info.ID(), "config", fmt.Sprintf("%X", r.defaultAudioConfig))
		config = r.defaultAudioConfig
	}
	return newTrack(info, false, config)
}

// Configs 返回 sequence header，需在任何帧之前发送
func (r *Reader) Configs() (configs []rtmp.Message) {
	if r.VideoTrack != nil {
		configs = append(configs, rtmp.NewAVCSequenceHeader(0, r.VideoTrack.ExtraData))
	}
	if r.AudioTrack != nil {
		configs = append(configs, rtmp.NewAACSequenceHeader(0, r.AudioTrack.ExtraData))
	}
	return
}

// nextTrack 选出当前样本时间最早的 track，全部读完时返回 -1
func (r *Reader) nextTrack() (trackIdx int) {
	trackIdx = -1
	var minSample *Sample
	for i, track := range r.Tracks {
		idx := r.ReadSampleIdx[i]
		if idx >= len(track.Samplelist) {
			continue
		}
		s := &track.Samplelist[idx]
		if minSample == nil || CompareSamples(s, minSample) < 0 {
			minSample = s
			trackIdx = i
		}
	}
	return
}

func (r *Reader) ReadSample() (track *Track, sample *Sample, data []byte, err error) {
	trackIdx := r.nextTrack()
	if trackIdx == -1 {
		return nil, nil, nil, io.EOF
	}
	track = r.Tracks[trackIdx]
	sample = &track.Samplelist[r.ReadSampleIdx[trackIdx]]
	data = make([]byte, sample.Size)
	n, err := r.src.ReadAt(data, int64(sample.FileOffset))
	if n == len(data) {
		err = nil
	} else {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, nil, nil, fmt.Errorf("read sample %d of track %d at %d: %w", r.ReadSampleIdx[trackIdx], track.ID(), sample.FileOffset, err)
	}
	r.ReadSampleIdx[trackIdx]++
	return
}

// Next 返回下一帧，读完后返回 io.EOF
func (r *Reader) Next() (rtmp.Message, error) {
	track, sample, data, err := r.ReadSample()
	if err != nil {
		return nil, err
	}
	if track.Video {
		key := track.AllSync || sample.SyncSample
		return rtmp.NewAVCFrame(sample.Time, key, sample.CompositionTimeOffset, data), nil
	}
	return rtmp.NewAACFrame(sample.Time, data), nil
}

// Seek 定位到 ms 之前最近的视频关键帧，音频对齐到该关键帧时间，返回实际开始时间
func (r *Reader) Seek(ms uint32) (uint32, error) {
	if duration := r.Movie.Duration * 1000; duration > 0 && float64(ms) > duration {
		return 0, fmt.Errorf("%w: %d ms, duration %.0f ms", pkg.ErrSeekOutOfRange, ms, duration)
	}
	var start uint32
	if r.VideoTrack != nil {
		idx := r.VideoTrack.Seek(ms)
		if idx == -1 {
			idx = 0
		}
		if idx < len(r.VideoTrack.Samplelist) {
			start = r.VideoTrack.Samplelist[idx].Time
		}
		for i, track := range r.Tracks {
			if track == r.VideoTrack {
				r.ReadSampleIdx[i] = idx
			} else {
				r.ReadSampleIdx[i] = track.searchTime(start)
			}
		}
	} else {
		idx := r.AudioTrack.Seek(ms)
		if idx == -1 {
			idx = 0
		}
		if idx < len(r.AudioTrack.Samplelist) {
			start = r.AudioTrack.Samplelist[idx].Time
		}
		r.ReadSampleIdx[0] = idx
	}
	r.Debug("seek", "target", ms, "start", start, "index", r.ReadSampleIdx)
	return start, nil
}

// Remux 输出完整的 flv: 文件头、onMetaData、sequence header、全部帧
func (r *Reader) Remux(w io.Writer) (err error) {
	writer := flv.NewWriter(w)
	if err = writer.WriteMessage(r.Metadata()); err != nil {
		return
	}
	for _, config := range r.Configs() {
		if err = writer.WriteMessage(config); err != nil {
			return
		}
	}
	var count, audio, video int
	for {
		var msg rtmp.Message
		if msg, err = r.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return
		}
		switch msg.(type) {
		case *rtmp.VideoMessage:
			video++
		case *rtmp.AudioMessage:
			audio++
		}
		count++
		if err = writer.WriteMessage(msg); err != nil {
			return
		}
	}
	r.Info("remux done", "frames", count, "video", video, "audio", audio)
	return nil
}
