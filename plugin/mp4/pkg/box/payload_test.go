package box

import (
	"bytes"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, data []byte) Payload {
	boxes, err := ReadBoxes(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	require.NotNil(t, boxes[0].Payload)
	return boxes[0].Payload
}

func TestDecodeReferenceBoxes(t *testing.T) {
	t.Run("stts", func(t *testing.T) {
		p := parseOne(t, encodeRef(t, &mp4.SttsBox{SampleCount: []uint32{3, 1}, SampleTimeDelta: []uint32{1024, 512}}))
		stts := p.(*TimeToSampleBox)
		assert.Equal(t, []TimeToSampleEntry{{3, 1024}, {1, 512}}, stts.Entries)
		assert.Equal(t, uint64(4), stts.SampleCount())
	})
	t.Run("stsz list", func(t *testing.T) {
		stsz := parseOne(t, encodeRef(t, &mp4.StszBox{SampleNumber: 3, SampleSize: []uint32{5, 6, 7}})).(*SampleSizeBox)
		assert.Equal(t, 3, stsz.Len())
		size, ok := stsz.Size(2)
		assert.True(t, ok)
		assert.Equal(t, uint32(7), size)
		_, ok = stsz.Size(3)
		assert.False(t, ok)
	})
	t.Run("stsz uniform", func(t *testing.T) {
		stsz := parseOne(t, encodeRef(t, &mp4.StszBox{SampleUniformSize: 9, SampleNumber: 100})).(*SampleSizeBox)
		assert.Equal(t, 100, stsz.Len())
		size, ok := stsz.Size(99)
		assert.True(t, ok)
		assert.Equal(t, uint32(9), size)
	})
	t.Run("stco", func(t *testing.T) {
		stco := parseOne(t, encodeRef(t, &mp4.StcoBox{ChunkOffset: []uint32{48, 1 << 31}})).(*ChunkOffsetBox)
		assert.False(t, stco.Large)
		assert.Equal(t, []uint64{48, 1 << 31}, stco.Offsets)
	})
	t.Run("co64", func(t *testing.T) {
		co64 := parseOne(t, encodeRef(t, &mp4.Co64Box{ChunkOffset: []uint64{48, 1 << 40}})).(*ChunkOffsetBox)
		assert.True(t, co64.Large)
		assert.Equal(t, TypeCO64, co64.Type())
		assert.Equal(t, []uint64{48, 1 << 40}, co64.Offsets)
	})
	t.Run("stss", func(t *testing.T) {
		stss := parseOne(t, encodeRef(t, &mp4.StssBox{SampleNumber: []uint32{1, 31, 61}})).(*SyncSampleBox)
		assert.Equal(t, []uint32{1, 31, 61}, stss.SampleNumbers)
		assert.Len(t, stss.Set(), 3)
	})
	t.Run("mdhd", func(t *testing.T) {
		mdhd := parseOne(t, encodeRef(t, &mp4.MdhdBox{Timescale: 90000, Duration: 900000, Language: 0x55C4})).(*MediaHeaderBox)
		assert.Equal(t, uint32(90000), mdhd.Timescale)
		assert.Equal(t, [3]byte{'u', 'n', 'd'}, mdhd.Language)
		assert.Equal(t, uint32(10000), mdhd.Milliseconds())
	})
	t.Run("ftyp", func(t *testing.T) {
		ftyp := parseOne(t, encodeRef(t, mp4.NewFtyp("isom", 512, []string{"isom", "iso2", "mp41"}))).(*FileTypeBox)
		assert.Equal(t, "isom", ftyp.MajorBrand.String())
		assert.Equal(t, uint32(512), ftyp.MinorVersion)
		assert.Len(t, ftyp.CompatibleBrands, 3)
	})
}

func TestEncodeMatchesReference(t *testing.T) {
	ours := EncodeBox(&TimeToSampleBox{Entries: []TimeToSampleEntry{{3, 1024}}})
	assert.Equal(t, encodeRef(t, &mp4.SttsBox{SampleCount: []uint32{3}, SampleTimeDelta: []uint32{1024}}), ours)
	ours = EncodeBox(&ChunkOffsetBox{Offsets: []uint64{8, 16}})
	assert.Equal(t, encodeRef(t, &mp4.StcoBox{ChunkOffset: []uint32{8, 16}}), ours)
}

func TestHeaderBoxes(t *testing.T) {
	t.Run("mvhd v1", func(t *testing.T) {
		mvhd := &MovieHeaderBox{FullBox: FullBox{Version: 1}, Timescale: 600, Duration: 1 << 33, Rate: 0x00010000, Matrix: UnityMatrix, NextTrackID: 7}
		got := parseOne(t, EncodeBox(mvhd)).(*MovieHeaderBox)
		assert.Equal(t, mvhd, got)
		assert.InDelta(t, float64(1<<33)/600, got.Seconds(), 1e-6)
	})
	t.Run("tkhd v0", func(t *testing.T) {
		tkhd := &TrackHeaderBox{FullBox: FullBox{Flags: 7}, TrackID: 2, Duration: 1000, Layer: -1, Volume: 0x0100, Matrix: UnityMatrix, Width: 640 << 16, Height: 360 << 16}
		data := EncodeBox(tkhd)
		assert.Len(t, data, 8+84)
		assert.Equal(t, tkhd, parseOne(t, data))
	})
	t.Run("hdlr", func(t *testing.T) {
		hdlr := parseOne(t, EncodeBox(&HandlerBox{HandlerType: TypeSOUN, Name: "SoundHandler"})).(*HandlerBox)
		assert.Equal(t, TypeSOUN, hdlr.HandlerType)
		assert.Equal(t, "SoundHandler", hdlr.Name)
	})
	t.Run("truncated", func(t *testing.T) {
		for _, p := range []Payload{new(MovieHeaderBox), new(TrackHeaderBox), new(MediaHeaderBox), new(HandlerBox), new(FileTypeBox)} {
			assert.ErrorIs(t, p.Decode(make([]byte, 6)), ErrPayloadTruncated, p.Type().String())
		}
	})
}

func TestSampleDescription(t *testing.T) {
	file := buildTestMovie(t)
	movie, err := ParseMovie(bytes.NewReader(file))
	require.NoError(t, err)

	video := movie.VideoTrack().SampleEntry()
	require.NotNil(t, video)
	assert.True(t, video.IsVideo())
	assert.Equal(t, uint16(320), video.Width)
	assert.Equal(t, uint16(240), video.Height)
	assert.Equal(t, testAVCC(), video.Extension(TypeAVCC))
	assert.Nil(t, video.Descriptor)

	audio := movie.AudioTrack().SampleEntry()
	require.NotNil(t, audio)
	assert.True(t, audio.IsAudio())
	assert.Equal(t, uint16(2), audio.ChannelCount)
	assert.Equal(t, uint32(44100), audio.SampleRate>>16)
	require.NotNil(t, audio.Descriptor)
	assert.Equal(t, testAudioConfig, audio.Descriptor.DecoderSpecificInfo)
	assert.Equal(t, uint8(0x40), audio.Descriptor.ObjectTypeIndication)
}

func TestSampleEntryQuickTime(t *testing.T) {
	esds := append([]byte{0, 0, 0, 0}, (&ESDescriptor{ObjectTypeIndication: 0x40, StreamType: 5}).Encode()...)
	wave := EncodeContainer(TypeWAVE, rawBox("frma", []byte("mp4a")), rawBox("esds", esds), make([]byte, 8))
	stsd := &SampleDescriptionBox{Entries: []*SampleEntry{
		{
			Type:           TypeMP4A,
			SoundVersion:   1,
			ChannelCount:   1,
			SampleSize:     16,
			SampleRate:     22050 << 16,
			SoundExtension: make([]byte, 16),
			Extensions:     []RawBox{{Type: TypeWAVE, Data: wave[8:]}},
		},
		{Type: f("tx3g"), DataReferenceIndex: 1, Data: []byte{1, 2, 3, 4}},
	}}
	got := parseOne(t, EncodeBox(stsd)).(*SampleDescriptionBox)
	require.Len(t, got.Entries, 2)
	audio := got.Entry(1)
	require.NotNil(t, audio.Descriptor)
	assert.False(t, audio.Descriptor.HasDecoderSpecificInfo)
	assert.Equal(t, DefaultAudioSpecificConfig[:], audio.Descriptor.DecoderSpecificInfo)
	assert.Equal(t, []byte("mp4a"), audio.Extension(f("frma")))
	text := got.Entry(2)
	assert.False(t, text.IsAudio() || text.IsVideo())
	assert.Equal(t, []byte{1, 2, 3, 4}, text.Data)
	assert.Nil(t, got.Entry(0))
	assert.Nil(t, got.Entry(3))
}

func TestSampleDescriptionOverrun(t *testing.T) {
	data := EncodeBox(&SampleDescriptionBox{Entries: []*SampleEntry{{Type: TypeAVC1, Width: 16, Height: 16}}})
	data[8+8+3] = 0xFF // entry size
	_, err := ReadBoxes(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrBoxOverrun)
}
