package box

import (
	"fmt"

	"github.com/yapingcat/gomedia/go-codec"
	"m7s.live/vod/v5/pkg/util"
)

// aligned(8) class MediaHeaderBox extends FullBox(‘mdhd’, version, 0) {
//  if (version==1) {
// 	unsigned int(64)  creation_time;
// 	unsigned int(64)  modification_time;
// 	unsigned int(32)  timescale;
// 	unsigned int(64)  duration;
//  } else { // version==0
// 	unsigned int(32)  creation_time;
// 	unsigned int(32)  modification_time;
// 	unsigned int(32)  timescale;
// 	unsigned int(32)  duration;
// }
// bit(1) pad = 0;
// unsigned int(5)[3] language; // ISO-639-2/T language code
// unsigned int(16) pre_defined = 0;
// }

type MediaHeaderBox struct {
	FullBox
	CreationTime     uint64
	ModificationTime uint64
	Timescale        uint32
	Duration         uint64
	Language         [3]byte
}

func (*MediaHeaderBox) Type() BoxType {
	return TypeMDHD
}

func (mdhd *MediaHeaderBox) Decode(data []byte) error {
	b := util.Buffer(data)
	if err := mdhd.decode(&b); err != nil {
		return err
	}
	need := 16 + 4
	if mdhd.Version == 1 {
		need = 28 + 4
	}
	if !b.CanReadN(need) {
		return fmt.Errorf("%w: mdhd v%d needs %d bytes, have %d", ErrPayloadTruncated, mdhd.Version, need, b.Len())
	}
	if mdhd.Version == 1 {
		mdhd.CreationTime = b.ReadUint64()
		mdhd.ModificationTime = b.ReadUint64()
		mdhd.Timescale = b.ReadUint32()
		mdhd.Duration = b.ReadUint64()
	} else {
		mdhd.CreationTime = uint64(b.ReadUint32())
		mdhd.ModificationTime = uint64(b.ReadUint32())
		mdhd.Timescale = b.ReadUint32()
		mdhd.Duration = uint64(b.ReadUint32())
	}
	bs := codec.NewBitStream(b.ReadN(2))
	bs.SkipBits(1)
	for i := range mdhd.Language {
		mdhd.Language[i] = bs.Uint8(5) + 0x60
	}
	return nil
}

func (mdhd *MediaHeaderBox) Encode() []byte {
	b := make(util.Buffer, 0, 36)
	mdhd.encode(&b)
	if mdhd.Version == 1 {
		b.WriteUint64(mdhd.CreationTime)
		b.WriteUint64(mdhd.ModificationTime)
		b.WriteUint32(mdhd.Timescale)
		b.WriteUint64(mdhd.Duration)
	} else {
		b.WriteUint32(uint32(mdhd.CreationTime))
		b.WriteUint32(uint32(mdhd.ModificationTime))
		b.WriteUint32(mdhd.Timescale)
		b.WriteUint32(uint32(mdhd.Duration))
	}
	bsw := codec.NewBitStreamWriter(2)
	bsw.PutUint8(0, 1)
	for _, c := range mdhd.Language {
		bsw.PutUint8((c-0x60)&0x1F, 5)
	}
	b.Write(bsw.Bits())
	b.WriteUint16(0)
	return b
}

// Milliseconds 返回媒体时长（毫秒）
func (mdhd *MediaHeaderBox) Milliseconds() uint32 {
	return ConvertTimeScale(mdhd.Duration, mdhd.Timescale)
}
