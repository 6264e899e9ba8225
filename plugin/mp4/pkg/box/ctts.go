package box

import "m7s.live/vod/v5/pkg/util"

// aligned(8) class CompositionOffsetBox extends FullBox(‘ctts’, version = 0, 0) {
// 	unsigned int(32) entry_count;
// 	   int i;
// 	if (version==0) {
// 	   for (i=0; i < entry_count; i++) {
// 		  unsigned int(32) sample_count;
// 		  unsigned int(32) sample_offset;
// 	   }
// 	}
// 	else if (version == 1) {
// 	   for (i=0; i < entry_count; i++) {
// 		  unsigned int(32) sample_count;
// 		  signed int(32) sample_offset;
// 	   }
// 	}
// }

type CompositionOffsetEntry struct {
	SampleCount  uint32
	SampleOffset uint32
}

type CompositionOffsetBox struct {
	FullBox
	Entries []CompositionOffsetEntry
}

func (*CompositionOffsetBox) Type() BoxType {
	return TypeCTTS
}

func (ctts *CompositionOffsetBox) Decode(data []byte) error {
	b := util.Buffer(data)
	if err := ctts.decode(&b); err != nil {
		return err
	}
	n, err := readEntryCount(&b, 8)
	if err != nil {
		return err
	}
	ctts.Entries = make([]CompositionOffsetEntry, n)
	for i := range ctts.Entries {
		ctts.Entries[i].SampleCount = b.ReadUint32()
		ctts.Entries[i].SampleOffset = b.ReadUint32()
	}
	return nil
}

func (ctts *CompositionOffsetBox) Encode() []byte {
	b := make(util.Buffer, 0, 8+8*len(ctts.Entries))
	ctts.encode(&b)
	b.WriteUint32(uint32(len(ctts.Entries)))
	for _, e := range ctts.Entries {
		b.WriteUint32(e.SampleCount)
		b.WriteUint32(e.SampleOffset)
	}
	return b
}

// Offset 返回第 i 条记录的偏移，version 1 的负偏移按 0 处理
func (ctts *CompositionOffsetBox) Offset(i int) uint32 {
	offset := ctts.Entries[i].SampleOffset
	if ctts.Version == 1 && int32(offset) < 0 {
		return 0
	}
	return offset
}
