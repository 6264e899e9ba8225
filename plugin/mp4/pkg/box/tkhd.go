package box

import (
	"fmt"

	"m7s.live/vod/v5/pkg/util"
)

// aligned(8) class TrackHeaderBox extends FullBox(‘tkhd’, version, flags){
// 	if (version==1) {
// 		  unsigned int(64)  creation_time;
// 		  unsigned int(64)  modification_time;
// 		  unsigned int(32)  track_ID;
// 		  const unsigned int(32)  reserved = 0;
// 		  unsigned int(64)  duration;
// 	   } else { // version==0
// 		  unsigned int(32)  creation_time;
// 		  unsigned int(32)  modification_time;
// 		  unsigned int(32)  track_ID;
// 		  const unsigned int(32)  reserved = 0;
// 		  unsigned int(32)  duration;
// 	}
// 	const unsigned int(32)[2] reserved = 0;
// 	template int(16) layer = 0;
// 	template int(16) alternate_group = 0;
// 	template int(16) volume = {if track_is_audio 0x0100 else 0};
// 	const unsigned int(16) reserved = 0;
// 	template int(32)[9] matrix= { 0x00010000,0,0,0,0x00010000,0,0,0,0x40000000 };
// 	unsigned int(32) width;
// 	unsigned int(32) height;
// }

type TrackHeaderBox struct {
	FullBox
	CreationTime     uint64
	ModificationTime uint64
	TrackID          uint32
	Duration         uint64
	Layer            int16
	AlternateGroup   int16
	Volume           uint16
	Matrix           [9]uint32
	Width            uint32 // 16.16
	Height           uint32 // 16.16
}

func (*TrackHeaderBox) Type() BoxType {
	return TypeTKHD
}

func (tkhd *TrackHeaderBox) Decode(data []byte) error {
	b := util.Buffer(data)
	if err := tkhd.decode(&b); err != nil {
		return err
	}
	need := 20 + 60
	if tkhd.Version == 1 {
		need = 32 + 60
	}
	if !b.CanReadN(need) {
		return fmt.Errorf("%w: tkhd v%d needs %d bytes, have %d", ErrPayloadTruncated, tkhd.Version, need, b.Len())
	}
	if tkhd.Version == 1 {
		tkhd.CreationTime = b.ReadUint64()
		tkhd.ModificationTime = b.ReadUint64()
		tkhd.TrackID = b.ReadUint32()
		b.Skip(4)
		tkhd.Duration = b.ReadUint64()
	} else {
		tkhd.CreationTime = uint64(b.ReadUint32())
		tkhd.ModificationTime = uint64(b.ReadUint32())
		tkhd.TrackID = b.ReadUint32()
		b.Skip(4)
		tkhd.Duration = uint64(b.ReadUint32())
	}
	b.Skip(8)
	tkhd.Layer = int16(b.ReadUint16())
	tkhd.AlternateGroup = int16(b.ReadUint16())
	tkhd.Volume = b.ReadUint16()
	b.Skip(2)
	for i := range tkhd.Matrix {
		tkhd.Matrix[i] = b.ReadUint32()
	}
	tkhd.Width = b.ReadUint32()
	tkhd.Height = b.ReadUint32()
	return nil
}

func (tkhd *TrackHeaderBox) Encode() []byte {
	b := make(util.Buffer, 0, 96)
	tkhd.encode(&b)
	if tkhd.Version == 1 {
		b.WriteUint64(tkhd.CreationTime)
		b.WriteUint64(tkhd.ModificationTime)
		b.WriteUint32(tkhd.TrackID)
		b.WriteUint32(0)
		b.WriteUint64(tkhd.Duration)
	} else {
		b.WriteUint32(uint32(tkhd.CreationTime))
		b.WriteUint32(uint32(tkhd.ModificationTime))
		b.WriteUint32(tkhd.TrackID)
		b.WriteUint32(0)
		b.WriteUint32(uint32(tkhd.Duration))
	}
	b.WriteUint64(0)
	b.WriteUint16(uint16(tkhd.Layer))
	b.WriteUint16(uint16(tkhd.AlternateGroup))
	b.WriteUint16(tkhd.Volume)
	b.WriteUint16(0)
	for _, m := range tkhd.Matrix {
		b.WriteUint32(m)
	}
	b.WriteUint32(tkhd.Width)
	b.WriteUint32(tkhd.Height)
	return b
}
