package rtmp

type (
	AudioCodecID byte
	VideoCodecID byte
)

const (
	CodecID_PCMA AudioCodecID = 7
	CodecID_PCMU AudioCodecID = 8
	CodecID_AAC  AudioCodecID = 0xA
	CodecID_MP3  AudioCodecID = 2

	CodecID_H263   VideoCodecID = 2 // Sorenson H.263
	CodecID_Screen VideoCodecID = 3 // Screen video
	CodecID_VP6    VideoCodecID = 4
	CodecID_H264   VideoCodecID = 7
	CodecID_H265   VideoCodecID = 0xC
)

// FLV video frame type, 高 4 位
const (
	FrameTypeKey        = 1
	FrameTypeInter      = 2
	FrameTypeDisposable = 3
)

// AVC/AAC packet type
const (
	PacketTypeSequenceStart = iota
	PacketTypeCodedFrames
	PacketTypeSequenceEnd
)

// https://zhuanlan.zhihu.com/p/196743129
const (
	RTMP_MSG_AUDIO         = 8
	RTMP_MSG_VIDEO         = 9
	RTMP_MSG_AMF3_METADATA = 15
	RTMP_MSG_AMF3_COMMAND  = 17
	RTMP_MSG_AMF0_METADATA = 18
	RTMP_MSG_AMF0_COMMAND  = 20

	// ChannelID == Chunk Stream ID
	// StreamID == Message Stream ID
	RTMP_CSID_CONTROL = 0x02
	RTMP_CSID_COMMAND = 0x03
	RTMP_CSID_RESET   = 0x04
	RTMP_CSID_AUDIO   = 0x06
	RTMP_CSID_DATA    = 0x05
	RTMP_CSID_VIDEO   = 0x05
	RTMP_CSID_STREAM  = 0x08 // publish, play 请求以及流通知
)

// 根据消息类型给出默认的 chunk stream
func defaultChannel(messageType byte) uint32 {
	switch messageType {
	case RTMP_MSG_AUDIO:
		return RTMP_CSID_AUDIO
	case RTMP_MSG_VIDEO:
		return RTMP_CSID_VIDEO
	case RTMP_MSG_AMF0_METADATA, RTMP_MSG_AMF3_METADATA:
		return RTMP_CSID_DATA
	case RTMP_MSG_AMF0_COMMAND, RTMP_MSG_AMF3_COMMAND:
		return RTMP_CSID_COMMAND
	}
	return RTMP_CSID_CONTROL
}
