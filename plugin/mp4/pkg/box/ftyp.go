package box

import (
	"fmt"

	"m7s.live/vod/v5/pkg/util"
)

// aligned(8) class FileTypeBox extends Box(‘ftyp’) {
// 	unsigned int(32) major_brand;
// 	unsigned int(32) minor_version;
// 	unsigned int(32) compatible_brands[]; // to end of the box
// }

type FileTypeBox struct {
	MajorBrand       BoxType
	MinorVersion     uint32
	CompatibleBrands []BoxType
}

func (*FileTypeBox) Type() BoxType {
	return TypeFTYP
}

func (ftyp *FileTypeBox) Decode(data []byte) error {
	if len(data) < 8 || len(data)%4 != 0 {
		return fmt.Errorf("%w: ftyp of %d bytes", ErrPayloadTruncated, len(data))
	}
	b := util.Buffer(data)
	ftyp.MajorBrand = BoxType(b.ReadN(4))
	ftyp.MinorVersion = b.ReadUint32()
	ftyp.CompatibleBrands = make([]BoxType, 0, b.Len()/4)
	for b.CanReadN(4) {
		ftyp.CompatibleBrands = append(ftyp.CompatibleBrands, BoxType(b.ReadN(4)))
	}
	return nil
}

func (ftyp *FileTypeBox) Encode() []byte {
	b := make(util.Buffer, 0, 8+4*len(ftyp.CompatibleBrands))
	b.Write(ftyp.MajorBrand[:])
	b.WriteUint32(ftyp.MinorVersion)
	for _, brand := range ftyp.CompatibleBrands {
		b.Write(brand[:])
	}
	return b
}
