package box

import "m7s.live/vod/v5/pkg/util"

// aligned(8) class TimeToSampleBox extends FullBox(’stts’, version = 0, 0) {
//     unsigned int(32) entry_count;
//     int i;
//     for (i=0; i < entry_count; i++) {
//         unsigned int(32) sample_count;
//         unsigned int(32) sample_delta;
//     }
// }

type TimeToSampleEntry struct {
	SampleCount uint32
	SampleDelta uint32
}

type TimeToSampleBox struct {
	FullBox
	Entries []TimeToSampleEntry
}

func (*TimeToSampleBox) Type() BoxType {
	return TypeSTTS
}

func (stts *TimeToSampleBox) Decode(data []byte) error {
	b := util.Buffer(data)
	if err := stts.decode(&b); err != nil {
		return err
	}
	n, err := readEntryCount(&b, 8)
	if err != nil {
		return err
	}
	stts.Entries = make([]TimeToSampleEntry, n)
	for i := range stts.Entries {
		stts.Entries[i].SampleCount = b.ReadUint32()
		stts.Entries[i].SampleDelta = b.ReadUint32()
	}
	return nil
}

func (stts *TimeToSampleBox) Encode() []byte {
	b := make(util.Buffer, 0, 8+8*len(stts.Entries))
	stts.encode(&b)
	b.WriteUint32(uint32(len(stts.Entries)))
	for _, e := range stts.Entries {
		b.WriteUint32(e.SampleCount)
		b.WriteUint32(e.SampleDelta)
	}
	return b
}

func (stts *TimeToSampleBox) SampleCount() (n uint64) {
	for _, e := range stts.Entries {
		n += uint64(e.SampleCount)
	}
	return
}
