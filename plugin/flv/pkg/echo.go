package flv

import (
	"errors"
	"io"
	"log/slog"

	rtmp "m7s.live/vod/v5/plugin/rtmp/pkg"
)

// Echo 逐个打印 tag 信息，读到文件结尾返回 nil
func Echo(r io.Reader, logger *slog.Logger) (err error) {
	reader := NewReader(r)
	var startTs uint32
	var count, skipped int
	for {
		var msg rtmp.Message
		msg, err = reader.ReadMessage()
		var tagErr *TagError
		if errors.As(err, &tagErr) {
			logger.Warn("skip tag", "type", tagErr.MessageType, "ts", tagErr.Timestamp, "size", tagErr.Length, "error", tagErr.Err)
			skipped++
			continue
		}
		if errors.Is(err, io.EOF) && count+skipped > 0 {
			break
		}
		if err != nil && !rtmp.IsRecoverable(err) {
			return
		}
		if count == 0 {
			logger.Info("flv header", "hasAudio", reader.HasAudio, "hasVideo", reader.HasVideo)
			startTs = msg.GetHeader().Timestamp
		}
		count++
		h := msg.GetHeader()
		switch m := msg.(type) {
		case *rtmp.AudioMessage:
			logger.Debug("audio", "ts", h.Timestamp-startTs, "size", h.Length, "codec", m.CodecID(), "config", m.IsConfig())
		case *rtmp.VideoMessage:
			args := []any{"ts", h.Timestamp - startTs, "size", h.Length, "codec", m.CodecID(), "key", m.IsKeyFrame(), "config", m.IsConfig()}
			if width, height, e := m.Geometry(); e == nil {
				args = append(args, "width", width, "height", height)
			} else if m.CodecID() == rtmp.CodecID_H264 || m.CodecID() == rtmp.CodecID_H265 {
				args = append(args, "cts", m.CompositionTime())
			}
			logger.Debug("video", args...)
		case *rtmp.MetadataMessage:
			logger.Info("script", "name", m.Name, "duration", m.Duration(), "values", m.Values, "error", err)
		}
	}
	logger.Info("flv end", "tags", count, "skipped", skipped)
	return nil
}
