package box

import "m7s.live/vod/v5/pkg/util"

// aligned(8) class SampleToChunkBox extends FullBox(‘stsc’, version = 0, 0) {
// 	unsigned int(32) entry_count;
// 	for (i=1; i <= entry_count; i++) {
// 		unsigned int(32) first_chunk;
// 		unsigned int(32) samples_per_chunk;
// 		unsigned int(32) sample_description_index;
// 	}
// }

type SampleToChunkEntry struct {
	FirstChunk             uint32
	SamplesPerChunk        uint32
	SampleDescriptionIndex uint32
}

type SampleToChunkBox struct {
	FullBox
	Entries []SampleToChunkEntry
}

func (*SampleToChunkBox) Type() BoxType {
	return TypeSTSC
}

func (stsc *SampleToChunkBox) Decode(data []byte) error {
	b := util.Buffer(data)
	if err := stsc.decode(&b); err != nil {
		return err
	}
	n, err := readEntryCount(&b, 12)
	if err != nil {
		return err
	}
	stsc.Entries = make([]SampleToChunkEntry, n)
	for i := range stsc.Entries {
		stsc.Entries[i].FirstChunk = b.ReadUint32()
		stsc.Entries[i].SamplesPerChunk = b.ReadUint32()
		stsc.Entries[i].SampleDescriptionIndex = b.ReadUint32()
	}
	return nil
}

func (stsc *SampleToChunkBox) Encode() []byte {
	b := make(util.Buffer, 0, 8+12*len(stsc.Entries))
	stsc.encode(&b)
	b.WriteUint32(uint32(len(stsc.Entries)))
	for _, e := range stsc.Entries {
		b.WriteUint32(e.FirstChunk)
		b.WriteUint32(e.SamplesPerChunk)
		b.WriteUint32(e.SampleDescriptionIndex)
	}
	return b
}
