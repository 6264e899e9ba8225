package box

import (
	"fmt"

	"m7s.live/vod/v5/pkg/util"
)

// aligned(8) class MovieHeaderBox extends FullBox(‘mvhd’, version, 0) {
// 	if (version==1) {
// 	   unsigned int(64)  creation_time;
// 	   unsigned int(64)  modification_time;
// 	   unsigned int(32)  timescale;
// 	   unsigned int(64)  duration;
// 	} else { // version==0
// 	   unsigned int(32)  creation_time;
// 	   unsigned int(32)  modification_time;
// 	   unsigned int(32)  timescale;
// 	   unsigned int(32)  duration;
// 	}
// 	template int(32) rate = 0x00010000; // typically 1.0
// 	template int(16) volume = 0x0100;  // typically, full volume
// 	const bit(16) reserved = 0;
// 	const unsigned int(32)[2] reserved = 0;
// 	template int(32)[9] matrix = { 0x00010000,0,0,0,0x00010000,0,0,0,0x40000000 };
// 	bit(32)[6]  pre_defined = 0;
// 	unsigned int(32)  next_track_ID;
// }

var UnityMatrix = [9]uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}

type MovieHeaderBox struct {
	FullBox
	CreationTime     uint64
	ModificationTime uint64
	Timescale        uint32
	Duration         uint64
	Rate             uint32
	Volume           uint16
	Matrix           [9]uint32
	NextTrackID      uint32
}

func (*MovieHeaderBox) Type() BoxType {
	return TypeMVHD
}

func (mvhd *MovieHeaderBox) Decode(data []byte) error {
	b := util.Buffer(data)
	if err := mvhd.decode(&b); err != nil {
		return err
	}
	need := 16 + 80
	if mvhd.Version == 1 {
		need = 28 + 80
	}
	if !b.CanReadN(need) {
		return fmt.Errorf("%w: mvhd v%d needs %d bytes, have %d", ErrPayloadTruncated, mvhd.Version, need, b.Len())
	}
	if mvhd.Version == 1 {
		mvhd.CreationTime = b.ReadUint64()
		mvhd.ModificationTime = b.ReadUint64()
		mvhd.Timescale = b.ReadUint32()
		mvhd.Duration = b.ReadUint64()
	} else {
		mvhd.CreationTime = uint64(b.ReadUint32())
		mvhd.ModificationTime = uint64(b.ReadUint32())
		mvhd.Timescale = b.ReadUint32()
		mvhd.Duration = uint64(b.ReadUint32())
	}
	mvhd.Rate = b.ReadUint32()
	mvhd.Volume = b.ReadUint16()
	b.Skip(10)
	for i := range mvhd.Matrix {
		mvhd.Matrix[i] = b.ReadUint32()
	}
	b.Skip(24)
	mvhd.NextTrackID = b.ReadUint32()
	return nil
}

func (mvhd *MovieHeaderBox) Encode() []byte {
	b := make(util.Buffer, 0, 112)
	mvhd.encode(&b)
	if mvhd.Version == 1 {
		b.WriteUint64(mvhd.CreationTime)
		b.WriteUint64(mvhd.ModificationTime)
		b.WriteUint32(mvhd.Timescale)
		b.WriteUint64(mvhd.Duration)
	} else {
		b.WriteUint32(uint32(mvhd.CreationTime))
		b.WriteUint32(uint32(mvhd.ModificationTime))
		b.WriteUint32(mvhd.Timescale)
		b.WriteUint32(uint32(mvhd.Duration))
	}
	b.WriteUint32(mvhd.Rate)
	b.WriteUint16(mvhd.Volume)
	b.Malloc(10)
	for _, m := range mvhd.Matrix {
		b.WriteUint32(m)
	}
	b.Malloc(24)
	b.WriteUint32(mvhd.NextTrackID)
	return b
}

// Seconds 返回影片时长（秒）
func (mvhd *MovieHeaderBox) Seconds() float64 {
	if mvhd.Timescale == 0 {
		return 0
	}
	return float64(mvhd.Duration) / float64(mvhd.Timescale)
}
