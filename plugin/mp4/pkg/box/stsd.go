package box

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"m7s.live/vod/v5/pkg/util"
)

// aligned(8) class SampleDescriptionBox (unsigned int(32) handler_type) extends FullBox('stsd', version, 0){
// 	int i ;
// 	unsigned int(32) entry_count;
// 	for (i = 1 ; i <= entry_count ; i++){
// 		SampleEntry();
// 	}
// }

// aligned(8) abstract class SampleEntry (unsigned int(32) format) extends Box(format){
// 	const unsigned int(8)[6] reserved = 0;
// 	unsigned int(16) data_reference_index;
// }

// class VisualSampleEntry(codingname) extends SampleEntry (codingname){
// 	unsigned int(16) pre_defined = 0;
// 	const unsigned int(16) reserved = 0;
// 	unsigned int(32)[3] pre_defined = 0;
// 	unsigned int(16) width;
// 	unsigned int(16) height;
// 	template unsigned int(32) horizresolution = 0x00480000; // 72 dpi
// 	template unsigned int(32) vertresolution = 0x00480000; // 72 dpi
// 	const unsigned int(32) reserved = 0;
// 	template unsigned int(16) frame_count = 1;
// 	string[32] compressorname;
// 	template unsigned int(16) depth = 0x0018;
// 	int(16) pre_defined = -1;
// }

// class AudioSampleEntry(codingname) extends SampleEntry (codingname){
// 	const unsigned int(32)[2] reserved = 0;  // QuickTime: version, revision, vendor
// 	template unsigned int(16) channelcount = 2;
// 	template unsigned int(16) samplesize = 16;
// 	unsigned int(16) pre_defined = 0;
// 	const unsigned int(16) reserved = 0 ;
// 	template unsigned int(32) samplerate = { default samplerate of media}<<16;
// }

const (
	sampleEntryLen = 8
	visualEntryLen = 70
	audioEntryLen  = 20
)

var (
	visualEntries = map[BoxType]struct{}{TypeAVC1: {}, TypeAVC3: {}, TypeHVC1: {}, TypeHEV1: {}, TypeMP4V: {}, TypeS263: {}, TypeENCV: {}}
	audioEntries  = map[BoxType]struct{}{TypeMP4A: {}, TypeENCA: {}, TypeAC3: {}, TypeEC3: {}, TypeOPUS: {}, TypeMP3: {}, TypeALAW: {}, TypeULAW: {}}
)

// RawBox 未解析的子 box
type RawBox struct {
	Type BoxType
	Data []byte
}

type SampleEntry struct {
	Type               BoxType
	DataReferenceIndex uint16

	Width           uint16
	Height          uint16
	HorizResolution uint32
	VertResolution  uint32
	FrameCount      uint16
	CompressorName  string
	Depth           uint16

	SoundVersion   uint16
	ChannelCount   uint16
	SampleSize     uint16
	SampleRate     uint32 // 16.16
	SoundExtension []byte // QuickTime sound description v1/v2

	Extensions []RawBox
	Descriptor *ESDescriptor
	// Data 未知类型 entry 的原始内容
	Data []byte
}

func (e *SampleEntry) IsVideo() bool {
	_, ok := visualEntries[e.Type]
	return ok
}

func (e *SampleEntry) IsAudio() bool {
	_, ok := audioEntries[e.Type]
	return ok
}

// Extension 返回类型为 t 的子 box 内容，也会查找 QuickTime 的 wave box
func (e *SampleEntry) Extension(t BoxType) []byte {
	for _, ext := range e.Extensions {
		if ext.Type == t {
			return ext.Data
		}
		if ext.Type == TypeWAVE {
			children, _ := parseRawBoxes(ext.Data)
			for _, child := range children {
				if child.Type == t {
					return child.Data
				}
			}
		}
	}
	return nil
}

func (e *SampleEntry) decode(body []byte) (err error) {
	if len(body) < sampleEntryLen {
		return fmt.Errorf("%w: sample entry %s of %d bytes", ErrPayloadTruncated, e.Type, len(body))
	}
	b := util.Buffer(body)
	b.Skip(6)
	e.DataReferenceIndex = b.ReadUint16()
	switch {
	case e.IsVideo():
		if !b.CanReadN(visualEntryLen) {
			return fmt.Errorf("%w: visual sample entry %s", ErrPayloadTruncated, e.Type)
		}
		b.Skip(16)
		e.Width = b.ReadUint16()
		e.Height = b.ReadUint16()
		e.HorizResolution = b.ReadUint32()
		e.VertResolution = b.ReadUint32()
		b.Skip(4)
		e.FrameCount = b.ReadUint16()
		name := b.ReadN(32)
		if l := int(name[0]); l < 32 {
			e.CompressorName = string(name[1 : 1+l])
		}
		e.Depth = b.ReadUint16()
		b.Skip(2)
	case e.IsAudio():
		if !b.CanReadN(audioEntryLen) {
			return fmt.Errorf("%w: audio sample entry %s", ErrPayloadTruncated, e.Type)
		}
		e.SoundVersion = b.ReadUint16()
		b.Skip(6)
		e.ChannelCount = b.ReadUint16()
		e.SampleSize = b.ReadUint16()
		b.Skip(4)
		e.SampleRate = b.ReadUint32()
		ext := 0
		switch e.SoundVersion {
		case 1:
			ext = 16
		case 2:
			ext = 36
		}
		if !b.CanReadN(ext) {
			return fmt.Errorf("%w: sound description v%d", ErrPayloadTruncated, e.SoundVersion)
		}
		if ext > 0 {
			e.SoundExtension = b.ReadN(ext).Clone()
		}
	default:
		e.Data = b.Clone()
		return nil
	}
	if e.Extensions, err = parseRawBoxes(b); err != nil {
		return
	}
	if esds := e.Extension(TypeESDS); esds != nil {
		if len(esds) < fullBoxHeadLen {
			return fmt.Errorf("%w: esds of %d bytes", ErrPayloadTruncated, len(esds))
		}
		e.Descriptor, err = ParseESDescriptor(esds[fullBoxHeadLen:], nil)
	}
	return
}

func (e *SampleEntry) encode() []byte {
	b := make(util.Buffer, 0, 128)
	b.Malloc(6)
	b.WriteUint16(e.DataReferenceIndex)
	switch {
	case e.IsVideo():
		b.Malloc(16)
		b.WriteUint16(e.Width)
		b.WriteUint16(e.Height)
		b.WriteUint32(e.HorizResolution)
		b.WriteUint32(e.VertResolution)
		b.WriteUint32(0)
		b.WriteUint16(e.FrameCount)
		name := b.Malloc(32)
		clear(name)
		name[0] = byte(copy(name[1:], e.CompressorName))
		b.WriteUint16(e.Depth)
		b.WriteUint16(0xFFFF)
	case e.IsAudio():
		b.WriteUint16(e.SoundVersion)
		b.Malloc(6)
		b.WriteUint16(e.ChannelCount)
		b.WriteUint16(e.SampleSize)
		b.WriteUint32(0)
		b.WriteUint32(e.SampleRate)
		b.Write(e.SoundExtension)
	default:
		b.Write(e.Data)
		return b
	}
	for _, ext := range e.Extensions {
		b = appendHeader(b, ext.Type, len(ext.Data))
		b.Write(ext.Data)
	}
	return b
}

// parseRawBoxes 拆分连续的子 box，末尾不足一个 box 头的填充字节被忽略
func parseRawBoxes(data []byte) (boxes []RawBox, err error) {
	for len(data) >= BasicBoxLen {
		size := uint64(binary.BigEndian.Uint32(data))
		t := BoxType(data[4:8])
		head := BasicBoxLen
		switch size {
		case 0:
			size = uint64(len(data))
		case 1:
			if len(data) < LargeBoxLen {
				return boxes, fmt.Errorf("%w: %s large size", ErrBoxOverrun, t)
			}
			size, head = binary.BigEndian.Uint64(data[8:]), LargeBoxLen
		}
		if size < uint64(head) || size > uint64(len(data)) {
			return boxes, fmt.Errorf("%w: %s declares %d bytes, have %d", ErrBoxOverrun, t, size, len(data))
		}
		boxes = append(boxes, RawBox{Type: t, Data: bytes.Clone(data[head:size])})
		data = data[size:]
	}
	return
}

type SampleDescriptionBox struct {
	FullBox
	Entries []*SampleEntry
}

func (*SampleDescriptionBox) Type() BoxType {
	return TypeSTSD
}

func (stsd *SampleDescriptionBox) Decode(data []byte) error {
	b := util.Buffer(data)
	if err := stsd.decode(&b); err != nil {
		return err
	}
	n, err := readEntryCount(&b, BasicBoxLen)
	if err != nil {
		return err
	}
	stsd.Entries = make([]*SampleEntry, 0, n)
	for i := 0; i < n; i++ {
		if !b.CanReadN(BasicBoxLen) {
			return fmt.Errorf("%w: sample entry %d", ErrPayloadTruncated, i)
		}
		size := int(binary.BigEndian.Uint32(b))
		if size < BasicBoxLen || size > b.Len() {
			return fmt.Errorf("%w: sample entry %d declares %d bytes, have %d", ErrBoxOverrun, i, size, b.Len())
		}
		entry := b.ReadN(size)
		e := &SampleEntry{Type: BoxType(entry[4:8])}
		if err = e.decode(entry[BasicBoxLen:]); err != nil {
			return err
		}
		stsd.Entries = append(stsd.Entries, e)
	}
	return nil
}

func (stsd *SampleDescriptionBox) Encode() []byte {
	b := make(util.Buffer, 0, 256)
	stsd.encode(&b)
	b.WriteUint32(uint32(len(stsd.Entries)))
	for _, e := range stsd.Entries {
		body := e.encode()
		b = appendHeader(b, e.Type, len(body))
		b.Write(body)
	}
	return b
}

// Entry 按 1 起始的 sample_description_index 查找
func (stsd *SampleDescriptionBox) Entry(index uint32) *SampleEntry {
	if index == 0 || int(index) > len(stsd.Entries) {
		return nil
	}
	return stsd.Entries[index-1]
}
