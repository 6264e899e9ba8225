package rtmp

import "m7s.live/vod/v5/pkg/util"

// AAC 音频首字节: SoundFormat(4)=10 | SoundRate(2)=3 | SoundSize(1)=1 | SoundType(1)=1
const aacHeader = byte(CodecID_AAC)<<4 | 0x0F

// NewAACSequenceHeader 0xAF 00 + AudioSpecificConfig
func NewAACSequenceHeader(timestamp uint32, config []byte) *AudioMessage {
	return NewAudioMessage(timestamp, []byte{aacHeader, PacketTypeSequenceStart}, config)
}

// NewAACFrame 0xAF 01 + raw AAC
func NewAACFrame(timestamp uint32, data []byte) *AudioMessage {
	return NewAudioMessage(timestamp, []byte{aacHeader, PacketTypeCodedFrames}, data)
}

func avcHeader(frameType byte, packetType byte, cts uint32) []byte {
	b := []byte{frameType<<4 | byte(CodecID_H264), packetType, 0, 0, 0}
	util.PutBE(b[2:5], cts)
	return b
}

// NewAVCSequenceHeader 0x17 00 000000 + AVCDecoderConfigurationRecord
func NewAVCSequenceHeader(timestamp uint32, record []byte) *VideoMessage {
	return NewVideoMessage(timestamp, avcHeader(FrameTypeKey, PacketTypeSequenceStart, 0), record)
}

// NewAVCFrame frameType<<4|7, 01, 24 位 composition time + AVCC 格式的 NALU
func NewAVCFrame(timestamp uint32, keyFrame bool, cts uint32, data []byte) *VideoMessage {
	frameType := byte(FrameTypeInter)
	if keyFrame {
		frameType = FrameTypeKey
	}
	return NewVideoMessage(timestamp, avcHeader(frameType, PacketTypeCodedFrames, cts), data)
}

// CompositionTime 返回 AVC/HEVC 视频帧的 composition time offset
func (m *VideoMessage) CompositionTime() uint32 {
	if len(m.Data) < 5 {
		return 0
	}
	return util.ReadBE[uint32](m.Data[2:5])
}
