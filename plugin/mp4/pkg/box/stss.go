package box

import "m7s.live/vod/v5/pkg/util"

// aligned(8) class SyncSampleBox extends FullBox(‘stss’, version = 0, 0) {
// 	unsigned int(32) entry_count;
// 	int i;
// 	for (i=0; i < entry_count; i++) {
// 		unsigned int(32) sample_number;
// 	}
// }

type SyncSampleBox struct {
	FullBox
	SampleNumbers []uint32
}

func (*SyncSampleBox) Type() BoxType {
	return TypeSTSS
}

func (stss *SyncSampleBox) Decode(data []byte) error {
	b := util.Buffer(data)
	if err := stss.decode(&b); err != nil {
		return err
	}
	n, err := readEntryCount(&b, 4)
	if err != nil {
		return err
	}
	stss.SampleNumbers = make([]uint32, n)
	for i := range stss.SampleNumbers {
		stss.SampleNumbers[i] = b.ReadUint32()
	}
	return nil
}

func (stss *SyncSampleBox) Encode() []byte {
	b := make(util.Buffer, 0, 8+4*len(stss.SampleNumbers))
	stss.encode(&b)
	b.WriteUint32(uint32(len(stss.SampleNumbers)))
	for _, n := range stss.SampleNumbers {
		b.WriteUint32(n)
	}
	return b
}

// Set 返回 1 起始的同步样本序号集合
func (stss *SyncSampleBox) Set() map[uint32]struct{} {
	set := make(map[uint32]struct{}, len(stss.SampleNumbers))
	for _, n := range stss.SampleNumbers {
		set[n] = struct{}{}
	}
	return set
}
