package box

import (
	"fmt"

	"m7s.live/vod/v5/pkg/util"
)

// Payload 叶子 box 的内容，Decode/Encode 均不包含 box 头
type Payload interface {
	Type() BoxType
	Decode(data []byte) error
	Encode() []byte
}

// 只读的类型表，新增 box 类型在这里注册
var payloadTypes = map[BoxType]func() Payload{
	TypeFTYP: func() Payload { return new(FileTypeBox) },
	TypeMVHD: func() Payload { return new(MovieHeaderBox) },
	TypeTKHD: func() Payload { return new(TrackHeaderBox) },
	TypeMDHD: func() Payload { return new(MediaHeaderBox) },
	TypeHDLR: func() Payload { return new(HandlerBox) },
	TypeSTSD: func() Payload { return new(SampleDescriptionBox) },
	TypeSTTS: func() Payload { return new(TimeToSampleBox) },
	TypeCTTS: func() Payload { return new(CompositionOffsetBox) },
	TypeSTSC: func() Payload { return new(SampleToChunkBox) },
	TypeSTSZ: func() Payload { return new(SampleSizeBox) },
	TypeSTCO: func() Payload { return new(ChunkOffsetBox) },
	TypeCO64: func() Payload { return &ChunkOffsetBox{Large: true} },
	TypeSTSS: func() Payload { return new(SyncSampleBox) },
}

func HasPayload(t BoxType) bool {
	_, ok := payloadTypes[t]
	return ok
}

// readEntryCount 读取 entry_count 并检查剩余长度是否足够
func readEntryCount(b *util.Buffer, entrySize int) (int, error) {
	n, err := b.CheckUint32()
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(entrySize) > uint64(b.Len()) {
		return 0, fmt.Errorf("%w: %d entries of %d bytes, %d bytes left", ErrPayloadTruncated, n, entrySize, b.Len())
	}
	return int(n), nil
}
