package box

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"m7s.live/vod/v5/pkg/util"
)

const (
	BasicBoxLen    = 8
	LargeBoxLen    = 16
	FullBoxLen     = 12
	fullBoxHeadLen = FullBoxLen - BasicBoxLen
)

type BoxType [4]byte

func (t BoxType) String() string {
	return string(t[:])
}

func f(s string) BoxType {
	return BoxType([]byte(s))
}

var (
	TypeFTYP = f("ftyp")
	TypeMOOV = f("moov")
	TypeMVHD = f("mvhd")
	TypeTRAK = f("trak")
	TypeTKHD = f("tkhd")
	TypeEDTS = f("edts")
	TypeMDIA = f("mdia")
	TypeMDHD = f("mdhd")
	TypeHDLR = f("hdlr")
	TypeMINF = f("minf")
	TypeDINF = f("dinf")
	TypeSTBL = f("stbl")
	TypeSTSD = f("stsd")
	TypeSTTS = f("stts")
	TypeCTTS = f("ctts")
	TypeSTSC = f("stsc")
	TypeSTSZ = f("stsz")
	TypeSTCO = f("stco")
	TypeCO64 = f("co64")
	TypeSTSS = f("stss")
	TypeUDTA = f("udta")
	TypeMVEX = f("mvex")
	TypeMDAT = f("mdat")
	TypeFREE = f("free")

	TypeAVC1 = f("avc1")
	TypeAVC3 = f("avc3")
	TypeHVC1 = f("hvc1")
	TypeHEV1 = f("hev1")
	TypeMP4V = f("mp4v")
	TypeS263 = f("s263")
	TypeENCV = f("encv")
	TypeMP4A = f("mp4a")
	TypeENCA = f("enca")
	TypeAC3  = f("ac-3")
	TypeEC3  = f("ec-3")
	TypeOPUS = f("Opus")
	TypeMP3  = f(".mp3")
	TypeALAW = f("alaw")
	TypeULAW = f("ulaw")
	TypeAVCC = f("avcC")
	TypeHVCC = f("hvcC")
	TypeESDS = f("esds")
	TypeWAVE = f("wave")

	TypeVIDE = f("vide")
	TypeSOUN = f("soun")
)

// 容器 box，子节点按顺序解析
var containers = map[BoxType]struct{}{
	TypeMOOV: {},
	TypeTRAK: {},
	TypeEDTS: {},
	TypeMDIA: {},
	TypeMINF: {},
	TypeDINF: {},
	TypeSTBL: {},
	TypeUDTA: {},
	TypeMVEX: {},
}

func (t BoxType) IsContainer() bool {
	_, ok := containers[t]
	return ok
}

//	aligned(8) class Box (unsigned int(32) boxtype, optional unsigned int(8)[16] extended_type) {
//	    unsigned int(32) size;
//	    unsigned int(32) type = boxtype;
//	    if (size==1) {
//	       unsigned int(64) largesize;
//	    } else if (size==0) {
//	       // box extends to end of file
//	    }
//	}

// Box 是解析后的节点，Children 与 Payload 至多一个非空
// Offset 是 payload 在文件中的起始位置，Size 是 payload 长度（不含头）
type Box struct {
	Type     BoxType
	Offset   int64
	Size     int64
	Children []*Box
	Payload  Payload
}

func (b *Box) End() int64 {
	return b.Offset + b.Size
}

// ParseBox 从 c 的当前位置解析一个 box，parentEnd 为父节点（或文件）的结束位置。
// 返回时 c 恰好位于该 box 的末尾。
func ParseBox(c *util.Cursor, parentEnd int64) (*Box, error) {
	start := c.Position()
	if parentEnd-start < BasicBoxLen {
		return nil, &ParseError{Offset: start, Expected: BasicBoxLen, Actual: parentEnd - start, Err: ErrBoxSize}
	}
	size, err := c.ReadUint32()
	if err != nil {
		return nil, &ParseError{Offset: start, Err: err}
	}
	var b Box
	typ, err := c.ReadN(4)
	if err != nil {
		return nil, &ParseError{Offset: start, Err: err}
	}
	b.Type = BoxType(typ)
	switch size {
	case 0:
		b.Offset = c.Position()
		b.Size = parentEnd - b.Offset
	case 1:
		large, err := c.ReadUint64()
		if err != nil {
			return nil, &ParseError{Type: b.Type, Offset: start, Err: err}
		}
		b.Offset = c.Position()
		if large < LargeBoxLen || large-LargeBoxLen > uint64(max(parentEnd-b.Offset, 0)) {
			return nil, &ParseError{Type: b.Type, Offset: start, Expected: parentEnd - start, Actual: clampSize(large), Err: ErrBoxOverrun}
		}
		b.Size = int64(large - LargeBoxLen)
	default:
		if size < BasicBoxLen {
			return nil, &ParseError{Type: b.Type, Offset: start, Expected: BasicBoxLen, Actual: int64(size), Err: ErrBoxSize}
		}
		b.Offset = c.Position()
		b.Size = int64(size) - BasicBoxLen
	}
	childEnd := b.End()
	if b.Size < 0 || childEnd > parentEnd {
		return nil, &ParseError{Type: b.Type, Offset: start, Expected: parentEnd - start, Actual: childEnd - start, Err: ErrBoxOverrun}
	}
	switch {
	case b.Type.IsContainer():
		for c.Position() < childEnd {
			child, err := ParseBox(c, childEnd)
			if err != nil {
				return nil, err
			}
			b.Children = append(b.Children, child)
		}
		if c.Position() != childEnd {
			return nil, &ParseError{Type: b.Type, Offset: start, Expected: childEnd - start, Actual: c.Position() - start, Err: ErrBoxOverrun}
		}
	case b.Type == TypeMDAT:
		err = c.SetPosition(childEnd)
	default:
		newPayload, ok := payloadTypes[b.Type]
		if !ok {
			err = c.SetPosition(childEnd)
			break
		}
		var data []byte
		if data, err = c.ReadN(b.Size); err != nil {
			break
		}
		b.Payload = newPayload()
		if err = b.Payload.Decode(data); err != nil {
			return nil, &ParseError{Type: b.Type, Offset: b.Offset, Err: err}
		}
	}
	if err != nil {
		return nil, &ParseError{Type: b.Type, Offset: start, Err: err}
	}
	return &b, nil
}

func clampSize(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// ReadBoxes 解析 r 中从当前位置到末尾的所有顶层 box
func ReadBoxes(r io.ReadSeeker) ([]*Box, error) {
	c, err := util.NewCursor(r)
	if err != nil {
		return nil, err
	}
	var boxes []*Box
	for c.Remaining() > 0 {
		b, err := ParseBox(c, c.Size())
		if err != nil {
			return boxes, err
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}

// Collect 深度优先返回所有带 payload 的节点
func (b *Box) Collect() (leaves []*Box) {
	if b.Payload != nil {
		return append(leaves, b)
	}
	for _, child := range b.Children {
		leaves = append(leaves, child.Collect()...)
	}
	return
}

// Child 返回第一个类型为 t 的直接子节点
func (b *Box) Child(t BoxType) *Box {
	for _, child := range b.Children {
		if child.Type == t {
			return child
		}
	}
	return nil
}

// Find 深度优先查找第一个类型为 t 的节点（包括自身）
func (b *Box) Find(t BoxType) *Box {
	if b.Type == t {
		return b
	}
	for _, child := range b.Children {
		if found := child.Find(t); found != nil {
			return found
		}
	}
	return nil
}

func (b *Box) String() string {
	return fmt.Sprintf("%s@%d+%d", b.Type, b.Offset, b.Size)
}

func appendHeader(buf []byte, t BoxType, payloadLen int) []byte {
	if size := uint64(payloadLen) + BasicBoxLen; size <= math.MaxUint32 {
		buf = binary.BigEndian.AppendUint32(buf, uint32(size))
		return append(buf, t[:]...)
	}
	buf = binary.BigEndian.AppendUint32(buf, 1)
	buf = append(buf, t[:]...)
	return binary.BigEndian.AppendUint64(buf, uint64(payloadLen)+LargeBoxLen)
}

// EncodeBox 编码一个叶子 box（头 + payload）
func EncodeBox(p Payload) []byte {
	data := p.Encode()
	return append(appendHeader(nil, p.Type(), len(data)), data...)
}

// EncodeContainer 编码容器 box，children 为已编码的子 box
func EncodeContainer(t BoxType, children ...[]byte) []byte {
	body := util.ConcatBuffers(children)
	return append(appendHeader(nil, t, len(body)), body...)
}

// aligned(8) class FullBox(unsigned int(32) boxtype, unsigned int(8) v, bit(24) f) extends Box(boxtype) {
//     unsigned int(8) version = v;
//     bit(24) flags = f;
// }

type FullBox struct {
	Version uint8
	Flags   uint32
}

func (box *FullBox) decode(b *util.Buffer) error {
	v, err := b.CheckUint32()
	if err != nil {
		return err
	}
	box.Version, box.Flags = uint8(v>>24), v&0xFFFFFF
	return nil
}

func (box FullBox) encode(b *util.Buffer) {
	b.WriteUint32(uint32(box.Version)<<24 | box.Flags&0xFFFFFF)
}
