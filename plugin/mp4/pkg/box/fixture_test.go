package box

import (
	"bytes"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/stretchr/testify/require"
)

const (
	testVideoTimescale = 30000
	testAudioTimescale = 48000
	testAudioSize      = 3
)

var (
	testSPS         = []byte{0x67, 0x42, 0x00, 0x1E, 0xDA, 0x05, 0x07, 0xE4}
	testPPS         = []byte{0x68, 0xCE, 0x3C, 0x80}
	testAudioConfig = []byte{0x12, 0x10}
	testVideoSizes  = []uint32{10, 4, 4, 6, 4}
)

func testAVCC() []byte {
	b := []byte{1, 0x42, 0x00, 0x1E, 0xFF, 0xE1, 0, byte(len(testSPS))}
	b = append(b, testSPS...)
	b = append(b, 1, 0, byte(len(testPPS)))
	return append(b, testPPS...)
}

func encodeRef(t *testing.T, b mp4.Box) []byte {
	var buf bytes.Buffer
	require.NoError(t, b.Encode(&buf))
	return buf.Bytes()
}

// buildTestMovie 生成 ftyp + mdat + moov，mdat 中交错存放
// 视频 chunk0(v0 v1) 音频 chunk0(a0-a3) 视频 chunk1(v2 v3) 视频 chunk2(v4)
func buildTestMovie(t *testing.T) []byte {
	ftyp := encodeRef(t, mp4.NewFtyp("isom", 0x200, []string{"isom", "avc1", "mp41"}))
	var mdat []byte
	base := uint64(len(ftyp) + BasicBoxLen)
	sample := func(fill byte, size uint32) {
		mdat = append(mdat, bytes.Repeat([]byte{fill}, int(size))...)
	}
	videoOffsets := []uint32{uint32(base)}
	sample(0x10, testVideoSizes[0])
	sample(0x11, testVideoSizes[1])
	audioOffset := base + uint64(len(mdat))
	for i := 0; i < 4; i++ {
		sample(byte(0x20+i), testAudioSize)
	}
	videoOffsets = append(videoOffsets, uint32(base)+uint32(len(mdat)))
	sample(0x12, testVideoSizes[2])
	sample(0x13, testVideoSizes[3])
	videoOffsets = append(videoOffsets, uint32(base)+uint32(len(mdat)))
	sample(0x14, testVideoSizes[4])

	video := EncodeContainer(TypeTRAK,
		EncodeBox(&TrackHeaderBox{FullBox: FullBox{Flags: 3}, TrackID: 1, Duration: 167, Matrix: UnityMatrix, Width: 320 << 16, Height: 240 << 16}),
		EncodeContainer(TypeMDIA,
			encodeRef(t, &mp4.MdhdBox{Timescale: testVideoTimescale, Duration: 5 * 1001, Language: 0x55C4}),
			EncodeBox(&HandlerBox{HandlerType: TypeVIDE, Name: "VideoHandler"}),
			EncodeContainer(TypeMINF,
				rawBox("vmhd", make([]byte, 12)),
				EncodeContainer(TypeDINF, rawBox("dref", make([]byte, 8))),
				EncodeContainer(TypeSTBL,
					EncodeBox(&SampleDescriptionBox{Entries: []*SampleEntry{{
						Type:               TypeAVC1,
						DataReferenceIndex: 1,
						Width:              320,
						Height:             240,
						HorizResolution:    0x00480000,
						VertResolution:     0x00480000,
						FrameCount:         1,
						Depth:              0x18,
						Extensions:         []RawBox{{Type: TypeAVCC, Data: testAVCC()}},
					}}}),
					encodeRef(t, &mp4.SttsBox{SampleCount: []uint32{5}, SampleTimeDelta: []uint32{1001}}),
					EncodeBox(&CompositionOffsetBox{Entries: []CompositionOffsetEntry{{1, 1001}, {4, 2002}}}),
					EncodeBox(&SampleToChunkBox{Entries: []SampleToChunkEntry{{1, 2, 1}, {3, 1, 1}}}),
					encodeRef(t, &mp4.StszBox{SampleNumber: 5, SampleSize: testVideoSizes}),
					encodeRef(t, &mp4.StcoBox{ChunkOffset: videoOffsets}),
					encodeRef(t, &mp4.StssBox{SampleNumber: []uint32{1, 4}}),
				),
			),
		),
	)
	esds := append([]byte{0, 0, 0, 0}, (&ESDescriptor{
		ESID:                   2,
		ObjectTypeIndication:   0x40,
		StreamType:             5,
		DecoderSpecificInfo:    testAudioConfig,
		HasDecoderSpecificInfo: true,
	}).Encode()...)
	audio := EncodeContainer(TypeTRAK,
		EncodeBox(&TrackHeaderBox{FullBox: FullBox{Flags: 3}, TrackID: 2, Duration: 85, Volume: 0x0100, Matrix: UnityMatrix}),
		EncodeContainer(TypeMDIA,
			EncodeBox(&MediaHeaderBox{Timescale: testAudioTimescale, Duration: 4 * 1024, Language: [3]byte{'u', 'n', 'd'}}),
			EncodeBox(&HandlerBox{HandlerType: TypeSOUN, Name: "SoundHandler"}),
			EncodeContainer(TypeMINF,
				EncodeContainer(TypeSTBL,
					EncodeBox(&SampleDescriptionBox{Entries: []*SampleEntry{{
						Type:               TypeMP4A,
						DataReferenceIndex: 1,
						ChannelCount:       2,
						SampleSize:         16,
						SampleRate:         44100 << 16,
						Extensions:         []RawBox{{Type: TypeESDS, Data: esds}},
					}}}),
					EncodeBox(&TimeToSampleBox{Entries: []TimeToSampleEntry{{4, 1024}}}),
					EncodeBox(&SampleToChunkBox{Entries: []SampleToChunkEntry{{1, 4, 1}}}),
					EncodeBox(&SampleSizeBox{SampleSize: testAudioSize, SampleCount: 4}),
					EncodeBox(&ChunkOffsetBox{Offsets: []uint64{audioOffset}}),
				),
			),
		),
	)
	moov := EncodeContainer(TypeMOOV,
		EncodeBox(&MovieHeaderBox{Timescale: 1000, Duration: 167, Rate: 0x00010000, Volume: 0x0100, Matrix: UnityMatrix, NextTrackID: 3}),
		video,
		audio,
	)
	file := append(ftyp, rawBox("mdat", mdat)...)
	return append(file, moov...)
}
