package box

import "m7s.live/vod/v5/pkg/util"

// aligned(8) class SampleSizeBox extends FullBox(‘stsz’, version = 0, 0) {
// 	unsigned int(32) sample_size;
// 	unsigned int(32) sample_count;
// 	if (sample_size==0) {
// 		for (i=1; i <= sample_count; i++) {
// 		unsigned int(32) entry_size;
// 		}
// 	}
// }

type SampleSizeBox struct {
	FullBox
	SampleSize  uint32
	SampleCount uint32
	EntrySizes  []uint32
}

func (*SampleSizeBox) Type() BoxType {
	return TypeSTSZ
}

func (stsz *SampleSizeBox) Decode(data []byte) error {
	b := util.Buffer(data)
	if err := stsz.decode(&b); err != nil {
		return err
	}
	var err error
	if stsz.SampleSize, err = b.CheckUint32(); err != nil {
		return err
	}
	if stsz.SampleSize != 0 {
		stsz.SampleCount, err = b.CheckUint32()
		return err
	}
	n, err := readEntryCount(&b, 4)
	if err != nil {
		return err
	}
	stsz.SampleCount = uint32(n)
	stsz.EntrySizes = make([]uint32, n)
	for i := range stsz.EntrySizes {
		stsz.EntrySizes[i] = b.ReadUint32()
	}
	return nil
}

func (stsz *SampleSizeBox) Encode() []byte {
	b := make(util.Buffer, 0, 12+4*len(stsz.EntrySizes))
	stsz.encode(&b)
	b.WriteUint32(stsz.SampleSize)
	if stsz.SampleSize != 0 {
		b.WriteUint32(stsz.SampleCount)
		return b
	}
	b.WriteUint32(uint32(len(stsz.EntrySizes)))
	for _, size := range stsz.EntrySizes {
		b.WriteUint32(size)
	}
	return b
}

func (stsz *SampleSizeBox) Len() int {
	if stsz.SampleSize != 0 {
		return int(stsz.SampleCount)
	}
	return len(stsz.EntrySizes)
}

// Size 返回第 i 个样本（从 0 开始）的大小
func (stsz *SampleSizeBox) Size(i int) (uint32, bool) {
	if i < 0 || i >= stsz.Len() {
		return 0, false
	}
	if stsz.SampleSize != 0 {
		return stsz.SampleSize, true
	}
	return stsz.EntrySizes[i], true
}
