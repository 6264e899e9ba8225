package mp4

import (
	"github.com/bluenviron/mediacommon/pkg/codecs/mpeg4audio"
	"github.com/deepch/vdk/codec/h264parser"
	rtmp "m7s.live/vod/v5/plugin/rtmp/pkg"
)

// Metadata 生成 onMetaData，字段与 FMS 播放 f4v 时发送的一致
func (r *Reader) Metadata() *rtmp.MetadataMessage {
	meta := rtmp.NewMetadataMessage(rtmp.Metadata_OnMetaData)
	meta.SetDuration(r.Movie.Duration)
	meta.SetValue("moovPosition", float64(r.Movie.MoovPosition))
	if track := r.VideoTrack; track != nil {
		width, height := int(track.Entry.Width), int(track.Entry.Height)
		if codec, err := h264parser.NewCodecDataFromAVCDecoderConfRecord(track.ExtraData); err == nil {
			if codec.Width() > 0 && codec.Height() > 0 {
				width, height = codec.Width(), codec.Height()
			}
			meta.SetValue("avcprofile", float64(codec.RecordInfo.AVCProfileIndication))
			meta.SetValue("avclevel", float64(codec.RecordInfo.AVCLevelIndication))
		} else {
			r.Warn("parse avcC", "track", track.ID(), "error", err)
		}
		meta.SetValue("width", float64(width))
		meta.SetValue("height", float64(height))
		meta.SetValue("videocodecid", track.Entry.Type.String())
		if duration := track.Duration(); duration > 0 {
			meta.SetValue("videoframerate", float64(len(track.Samplelist))*1000/float64(duration))
		}
	}
	if track := r.AudioTrack; track != nil {
		var config mpeg4audio.Config
		if err := config.Unmarshal(track.ExtraData); err == nil {
			meta.SetValue("audiosamplerate", float64(config.SampleRate))
			meta.SetValue("audiochannels", float64(config.ChannelCount))
			meta.SetValue("aacaot", float64(config.Type))
		} else {
			r.Warn("parse AudioSpecificConfig", "track", track.ID(), "error", err)
			meta.SetValue("audiosamplerate", float64(track.Entry.SampleRate>>16))
			meta.SetValue("audiochannels", float64(track.Entry.ChannelCount))
		}
		meta.SetValue("audiocodecid", track.Entry.Type.String())
	}
	trackinfo := make([]any, 0, len(r.Movie.Tracks))
	for _, info := range r.Movie.Tracks {
		item := rtmp.Object{
			{Key: "length", Value: float64(info.Media.Duration)},
			{Key: "timescale", Value: float64(info.TimeScale())},
			{Key: "language", Value: string(info.Media.Language[:])},
		}
		if entry := info.SampleEntry(); entry != nil {
			item.Set("sampledescription", []any{rtmp.Object{{Key: "sampletype", Value: entry.Type.String()}}})
		}
		trackinfo = append(trackinfo, item)
	}
	meta.SetValue("trackinfo", trackinfo)
	return meta
}
