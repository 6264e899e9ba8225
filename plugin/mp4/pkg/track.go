package mp4

import (
	"sort"

	. "m7s.live/vod/v5/plugin/mp4/pkg/box"
)

type Track struct {
	*TrackInfo
	Entry      *SampleEntry
	Samplelist []Sample
	// ExtraData 视频为 AVCDecoderConfigurationRecord，音频为 AudioSpecificConfig
	ExtraData []byte
	Video     bool
	// AllSync 没有 stss 时每个样本都可以作为随机访问点
	AllSync bool
}

func newTrack(info *TrackInfo, video bool, extraData []byte) *Track {
	return &Track{
		TrackInfo:  info,
		Entry:      info.SampleEntry(),
		Samplelist: info.Samples(),
		ExtraData:  extraData,
		Video:      video,
		AllSync:    info.Table.SyncSample == nil,
	}
}

// IsKeyFrame 第 i 个样本能否作为播放起点
func (track *Track) IsKeyFrame(i int) bool {
	return track.AllSync || track.Samplelist[i].SyncSample
}

// Seek 返回时间不晚于 ms 的最后一个样本，视频只考虑关键帧。没有符合条件的样本时返回 -1
func (track *Track) Seek(ms uint32) int {
	end := sort.Search(len(track.Samplelist), func(i int) bool {
		return track.Samplelist[i].Time > ms
	})
	for i := end - 1; i >= 0; i-- {
		if !track.Video || track.IsKeyFrame(i) {
			return i
		}
	}
	return -1
}

// searchTime 返回第一个时间不早于 ms 的样本下标
func (track *Track) searchTime(ms uint32) int {
	return sort.Search(len(track.Samplelist), func(i int) bool {
		return track.Samplelist[i].Time >= ms
	})
}
