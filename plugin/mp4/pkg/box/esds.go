package box

import (
	"encoding/binary"
	"fmt"

	"github.com/yapingcat/gomedia/go-codec"
)

// abstract aligned(8) expandable(228-1) class BaseDescriptor : bit(8) tag=0 {
// 	// empty. To be filled by classes extending this class.
// }

//  int sizeOfInstance = 0;
// 	bit(1) nextByte;
// 	bit(7) sizeOfInstance;
// 	while(nextByte) {
// 		bit(1) nextByte;
// 		bit(7) sizeByte;
// 		sizeOfInstance = sizeOfInstance<<7 | sizeByte;
// }

const (
	ESDescrTag            = 0x03
	DecoderConfigDescrTag = 0x04
	DecSpecificInfoTag    = 0x05
	SLConfigDescrTag      = 0x06
)

// DefaultAudioSpecificConfig AAC LC 48000Hz 双声道
var DefaultAudioSpecificConfig = [2]byte{0x13, 0x10}

type ESDescriptor struct {
	ESID           uint16
	DependsOnESID  uint16
	URL            string
	OCRESID        uint16
	StreamPriority uint8

	ObjectTypeIndication uint8
	StreamType           uint8
	UpStream             bool
	BufferSizeDB         uint32
	MaxBitrate           uint32
	AvgBitrate           uint32

	// DecoderSpecificInfo 在没有 tag 5 时保持为传入的默认值
	DecoderSpecificInfo    []byte
	HasDecoderSpecificInfo bool
}

// ParseESDescriptor 解析 esds 的描述符部分（不含 FullBox 头）。
// defaultConfig 为 nil 时使用 DefaultAudioSpecificConfig。
// 出错时仍返回已解析的部分。
func ParseESDescriptor(data []byte, defaultConfig []byte) (*ESDescriptor, error) {
	if defaultConfig == nil {
		defaultConfig = DefaultAudioSpecificConfig[:]
	}
	d := &ESDescriptor{DecoderSpecificInfo: append([]byte(nil), defaultConfig...)}
	return d, d.parse(data)
}

func readDescriptorHeader(data []byte) (tag uint8, size int, n int, err error) {
	if len(data) < 2 {
		return 0, 0, 0, fmt.Errorf("%w: header needs 2 bytes, have %d", ErrDescriptor, len(data))
	}
	tag, n = data[0], 1
	for i := 0; ; i++ {
		if i == 4 {
			// 长度最多 4 字节
			return tag, 0, n, fmt.Errorf("%w: tag %d length exceeds 4 bytes", ErrDescriptor, tag)
		}
		if n >= len(data) {
			return tag, 0, n, fmt.Errorf("%w: tag %d length truncated", ErrDescriptor, tag)
		}
		b := data[n]
		n++
		size = size<<7 | int(b&0x7F)
		if b&0x80 == 0 {
			break
		}
	}
	if size > len(data)-n {
		return tag, size, n, fmt.Errorf("%w: tag %d declares %d bytes, have %d", ErrDescriptor, tag, size, len(data)-n)
	}
	return
}

func (d *ESDescriptor) parse(data []byte) error {
	for len(data) > 0 {
		tag, size, n, err := readDescriptorHeader(data)
		if err != nil {
			return err
		}
		body := data[n : n+size]
		data = data[n+size:]
		switch tag {
		case ESDescrTag:
			err = d.parseES(body)
		case DecoderConfigDescrTag:
			err = d.parseDecoderConfig(body)
		case DecSpecificInfoTag:
			d.DecoderSpecificInfo = append([]byte(nil), body...)
			d.HasDecoderSpecificInfo = true
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// class ES_Descriptor extends BaseDescriptor : bit(8) tag=ES_DescrTag {
// 	bit(16) ES_ID;
// 	bit(1) streamDependenceFlag;
// 	bit(1) URL_Flag;
// 	bit(1) OCRstreamFlag;
// 	bit(5) streamPriority;
// 	if (streamDependenceFlag)
// 		bit(16) dependsOn_ES_ID;
// 	if (URL_Flag) {
// 		bit(8) URLlength;
// 		bit(8) URLstring[URLlength];
// 	}
// 	if (OCRstreamFlag)
// 		bit(16) OCR_ES_Id;
// 	DecoderConfigDescriptor decConfigDescr;
// 	SLConfigDescriptor slConfigDescr;
// 	...
// }

func (d *ESDescriptor) parseES(body []byte) error {
	if len(body) < 3 {
		return fmt.Errorf("%w: ES descriptor of %d bytes", ErrDescriptor, len(body))
	}
	bs := codec.NewBitStream(body[:3])
	d.ESID = uint16(bs.Uint32(16))
	streamDependenceFlag := bs.GetBit()
	urlFlag := bs.GetBit()
	ocrStreamFlag := bs.GetBit()
	d.StreamPriority = bs.Uint8(5)
	rest := body[3:]
	if streamDependenceFlag == 1 {
		if len(rest) < 2 {
			return fmt.Errorf("%w: dependsOn_ES_ID", ErrDescriptor)
		}
		d.DependsOnESID = binary.BigEndian.Uint16(rest)
		rest = rest[2:]
	}
	if urlFlag == 1 {
		if len(rest) < 1 || int(rest[0]) > len(rest)-1 {
			return fmt.Errorf("%w: URL", ErrDescriptor)
		}
		l := 1 + int(rest[0])
		d.URL = string(rest[1:l])
		rest = rest[l:]
	}
	if ocrStreamFlag == 1 {
		if len(rest) < 2 {
			return fmt.Errorf("%w: OCR_ES_Id", ErrDescriptor)
		}
		d.OCRESID = binary.BigEndian.Uint16(rest)
		rest = rest[2:]
	}
	return d.parse(rest)
}

// class DecoderConfigDescriptor extends BaseDescriptor : bit(8) tag=DecoderConfigDescrTag {
// 	bit(8) objectTypeIndication;
// 	bit(6) streamType;
// 	bit(1) upStream;
// 	const bit(1) reserved=1;
// 	bit(24) bufferSizeDB;
// 	bit(32) maxBitrate;
// 	bit(32) avgBitrate;
// 	DecoderSpecificInfo decSpecificInfo[0 .. 1];
// 	...
// }

func (d *ESDescriptor) parseDecoderConfig(body []byte) error {
	if len(body) < 13 {
		return fmt.Errorf("%w: decoder config of %d bytes", ErrDescriptor, len(body))
	}
	bs := codec.NewBitStream(body[:13])
	d.ObjectTypeIndication = bs.Uint8(8)
	d.StreamType = bs.Uint8(6)
	d.UpStream = bs.GetBit() == 1
	bs.SkipBits(1)
	d.BufferSizeDB = bs.Uint32(24)
	d.MaxBitrate = bs.Uint32(32)
	d.AvgBitrate = bs.Uint32(32)
	return d.parse(body[13:])
}

func makeDescriptorHeader(tag uint8, size int) []byte {
	bsw := codec.NewBitStreamWriter(5)
	bsw.PutByte(tag)
	bsw.PutUint8(1, 1)
	bsw.PutUint8(uint8(size>>21), 7)
	bsw.PutUint8(1, 1)
	bsw.PutUint8(uint8(size>>14), 7)
	bsw.PutUint8(1, 1)
	bsw.PutUint8(uint8(size>>7), 7)
	bsw.PutUint8(0, 1)
	bsw.PutUint8(uint8(size), 7)
	return bsw.Bits()[:5]
}

// Encode 生成 ES_Descriptor，包含 DecoderConfig、DecoderSpecificInfo 与 SLConfig
func (d *ESDescriptor) Encode() []byte {
	dcd := make([]byte, 13, 13+5+len(d.DecoderSpecificInfo))
	dcd[0] = d.ObjectTypeIndication
	dcd[1] = d.StreamType<<2 | 1
	if d.UpStream {
		dcd[1] |= 0x02
	}
	dcd[2], dcd[3], dcd[4] = byte(d.BufferSizeDB>>16), byte(d.BufferSizeDB>>8), byte(d.BufferSizeDB)
	binary.BigEndian.PutUint32(dcd[5:], d.MaxBitrate)
	binary.BigEndian.PutUint32(dcd[9:], d.AvgBitrate)
	if d.HasDecoderSpecificInfo {
		dcd = append(dcd, makeDescriptorHeader(DecSpecificInfoTag, len(d.DecoderSpecificInfo))...)
		dcd = append(dcd, d.DecoderSpecificInfo...)
	}
	es := []byte{byte(d.ESID >> 8), byte(d.ESID), d.StreamPriority & 0x1F}
	if d.DependsOnESID != 0 {
		es[2] |= 0x80
		es = binary.BigEndian.AppendUint16(es, d.DependsOnESID)
	}
	if d.URL != "" {
		es[2] |= 0x40
		es = append(es, byte(len(d.URL)))
		es = append(es, d.URL...)
	}
	if d.OCRESID != 0 {
		es[2] |= 0x20
		es = binary.BigEndian.AppendUint16(es, d.OCRESID)
	}
	es = append(es, makeDescriptorHeader(DecoderConfigDescrTag, len(dcd))...)
	es = append(es, dcd...)
	es = append(es, makeDescriptorHeader(SLConfigDescrTag, 1)...)
	es = append(es, 0x02)
	return append(makeDescriptorHeader(ESDescrTag, len(es)), es...)
}
