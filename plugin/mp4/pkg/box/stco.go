package box

import "m7s.live/vod/v5/pkg/util"

// aligned(8) class ChunkOffsetBox extends FullBox(‘stco’, version = 0, 0) {
// 	unsigned int(32) entry_count;
// 	for (i=1; i <= entry_count; i++) {
// 		unsigned int(32) chunk_offset;
// 	}
// }
// aligned(8) class ChunkLargeOffsetBox extends FullBox(‘co64’, version = 0, 0) {
// 	unsigned int(32) entry_count;
// 	for (i=1; i <= entry_count; i++) {
// 		unsigned int(64) chunk_offset;
// 	}
// }

// ChunkOffsetBox 同时表示 stco 与 co64，Large 为 true 时是 co64
type ChunkOffsetBox struct {
	FullBox
	Large   bool
	Offsets []uint64
}

func (stco *ChunkOffsetBox) Type() BoxType {
	if stco.Large {
		return TypeCO64
	}
	return TypeSTCO
}

func (stco *ChunkOffsetBox) width() int {
	if stco.Large {
		return 8
	}
	return 4
}

func (stco *ChunkOffsetBox) Decode(data []byte) error {
	b := util.Buffer(data)
	if err := stco.decode(&b); err != nil {
		return err
	}
	n, err := readEntryCount(&b, stco.width())
	if err != nil {
		return err
	}
	stco.Offsets = make([]uint64, n)
	for i := range stco.Offsets {
		if stco.Large {
			stco.Offsets[i] = b.ReadUint64()
		} else {
			stco.Offsets[i] = uint64(b.ReadUint32())
		}
	}
	return nil
}

func (stco *ChunkOffsetBox) Encode() []byte {
	b := make(util.Buffer, 0, 8+stco.width()*len(stco.Offsets))
	stco.encode(&b)
	b.WriteUint32(uint32(len(stco.Offsets)))
	for _, offset := range stco.Offsets {
		if stco.Large {
			b.WriteUint64(offset)
		} else {
			b.WriteUint32(uint32(offset))
		}
	}
	return b
}
