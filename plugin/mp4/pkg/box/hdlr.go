package box

import (
	"bytes"
	"fmt"

	"m7s.live/vod/v5/pkg/util"
)

// aligned(8) class HandlerBox extends FullBox(‘hdlr’, version = 0, 0) {
// 	unsigned int(32) pre_defined = 0;
// 	unsigned int(32) handler_type;
// 	const unsigned int(32)[3] reserved = 0;
// 	string name;
// }

type HandlerBox struct {
	FullBox
	PreDefined  uint32
	HandlerType BoxType
	Name        string
}

func (*HandlerBox) Type() BoxType {
	return TypeHDLR
}

func (hdlr *HandlerBox) Decode(data []byte) error {
	b := util.Buffer(data)
	if err := hdlr.decode(&b); err != nil {
		return err
	}
	if !b.CanReadN(20) {
		return fmt.Errorf("%w: hdlr of %d bytes", ErrPayloadTruncated, len(data))
	}
	hdlr.PreDefined = b.ReadUint32()
	hdlr.HandlerType = BoxType(b.ReadN(4))
	b.Skip(12)
	// QuickTime 的 name 是 pascal string
	name := b.Bytes()
	if len(name) > 0 && int(name[0]) == len(name)-1 && hdlr.PreDefined != 0 {
		name = name[1:]
	}
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	hdlr.Name = string(name)
	return nil
}

func (hdlr *HandlerBox) Encode() []byte {
	b := make(util.Buffer, 0, 25+len(hdlr.Name))
	hdlr.encode(&b)
	b.WriteUint32(hdlr.PreDefined)
	b.Write(hdlr.HandlerType[:])
	b.Malloc(12)
	b.WriteString(hdlr.Name)
	b.WriteByte(0)
	return b
}
