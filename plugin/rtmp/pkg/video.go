package rtmp

import (
	"errors"
	"fmt"

	"github.com/yapingcat/gomedia/go-codec"
)

var (
	ErrNoGeometry             = errors.New("rtmp: codec carries no picture size")
	ErrUnsupportedPictureSize = errors.New("rtmp: unsupported H.263 picture size")
)

// H.263 picture size 2~6 对应的固定分辨率
var h263Sizes = [...][2]int{
	{352, 288},
	{176, 144},
	{128, 96},
	{320, 240},
	{160, 120},
}

// 视频首字节之后的 9 个字节右对齐到 72 位窗口
const geometryWindow = 9

// Geometry 返回宽高，只计算一次。
// Sorenson H.263:
//
//	bit 30~32 picture size
//	0: width bit 33~40, height bit 41~48
//	1: width bit 33~48, height bit 49~64
//	2~6: 查表
//
// Screen video: width bit 4~15, height bit 16~27
func (m *VideoMessage) Geometry() (width, height int, err error) {
	if !m.geometrySolved {
		m.width, m.height, m.geometryErr = m.solveGeometry()
		m.geometrySolved = true
	}
	return m.width, m.height, m.geometryErr
}

func (m *VideoMessage) solveGeometry() (width, height int, err error) {
	codecID := m.CodecID()
	if len(m.Data) < 2 || (codecID != CodecID_H263 && codecID != CodecID_Screen) {
		return 0, 0, fmt.Errorf("%w: codec %d", ErrNoGeometry, codecID)
	}
	var window [geometryWindow]byte
	src := m.Data[1:min(len(m.Data), 1+geometryWindow)]
	copy(window[geometryWindow-len(src):], src)
	bs := codec.NewBitStream(window[:])
	if codecID == CodecID_Screen {
		bs.SkipBits(4)
		width = int(bs.Uint32(12))
		height = int(bs.Uint32(12))
		return
	}
	bs.SkipBits(30)
	switch code := bs.Uint8(3); code {
	case 0:
		width = int(bs.Uint32(8))
		height = int(bs.Uint32(8))
	case 1:
		width = int(bs.Uint32(16))
		height = int(bs.Uint32(16))
	case 2, 3, 4, 5, 6:
		size := h263Sizes[code-2]
		width, height = size[0], size[1]
	default:
		err = fmt.Errorf("%w: code %d", ErrUnsupportedPictureSize, code)
	}
	return
}
