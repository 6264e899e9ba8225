package box

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseESDescriptor(t *testing.T) {
	t.Run("all flags", func(t *testing.T) {
		want := &ESDescriptor{
			ESID:                   1,
			DependsOnESID:          9,
			URL:                    "rtmp://x",
			OCRESID:                3,
			StreamPriority:         4,
			ObjectTypeIndication:   0x40,
			StreamType:             5,
			UpStream:               true,
			BufferSizeDB:           0x012345,
			MaxBitrate:             128000,
			AvgBitrate:             96000,
			DecoderSpecificInfo:    []byte{0x12, 0x10, 0x56, 0xE5, 0x00},
			HasDecoderSpecificInfo: true,
		}
		got, err := ParseESDescriptor(want.Encode(), nil)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
	t.Run("default config", func(t *testing.T) {
		def := []byte{0x11, 0x90}
		got, err := ParseESDescriptor((&ESDescriptor{ObjectTypeIndication: 0x40}).Encode(), def)
		require.NoError(t, err)
		assert.False(t, got.HasDecoderSpecificInfo)
		assert.Equal(t, def, got.DecoderSpecificInfo)
		def[0] = 0
		assert.Equal(t, byte(0x11), got.DecoderSpecificInfo[0], "default is copied")
	})
	t.Run("short length form", func(t *testing.T) {
		// 03 19 | 0001 00 | 04 11 40 15 000000 0001F400 0001F400 | 05 02 1190 | 06 01 02
		data := []byte{
			0x03, 0x19, 0x00, 0x01, 0x00,
			0x04, 0x11, 0x40, 0x15, 0x00, 0x00, 0x00, 0x00, 0x01, 0xF4, 0x00, 0x00, 0x01, 0xF4, 0x00,
			0x05, 0x02, 0x11, 0x90,
			0x06, 0x01, 0x02,
		}
		got, err := ParseESDescriptor(data, nil)
		require.NoError(t, err)
		assert.Equal(t, uint16(1), got.ESID)
		assert.Equal(t, uint8(0x40), got.ObjectTypeIndication)
		assert.Equal(t, uint8(5), got.StreamType)
		assert.False(t, got.UpStream)
		assert.Equal(t, uint32(128000), got.MaxBitrate)
		assert.Equal(t, []byte{0x11, 0x90}, got.DecoderSpecificInfo)
	})
	t.Run("unknown tag skipped", func(t *testing.T) {
		data := []byte{0x7F, 0x03, 0xAA, 0xBB, 0xCC, 0x05, 0x01, 0x42}
		got, err := ParseESDescriptor(data, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x42}, got.DecoderSpecificInfo)
	})
	t.Run("overrun keeps default", func(t *testing.T) {
		data := []byte{0x03, 0x80, 0x80, 0x80, 0x40, 0x00}
		got, err := ParseESDescriptor(data, nil)
		assert.ErrorIs(t, err, ErrDescriptor)
		require.NotNil(t, got)
		assert.Equal(t, DefaultAudioSpecificConfig[:], got.DecoderSpecificInfo)
	})
	t.Run("nested overrun", func(t *testing.T) {
		// ES 描述符内的 DecoderConfig 声明长度超过 ES 描述符本身
		data := []byte{0x03, 0x06, 0x00, 0x01, 0x00, 0x04, 0x20, 0x40}
		_, err := ParseESDescriptor(data, nil)
		assert.ErrorIs(t, err, ErrDescriptor)
	})
	t.Run("length longer than four bytes", func(t *testing.T) {
		data := []byte{0x03, 0x80, 0x80, 0x80, 0x81, 0x01, 0x00, 0x01, 0x00}
		got, err := ParseESDescriptor(data, nil)
		assert.ErrorIs(t, err, ErrDescriptor)
		require.NotNil(t, got)
		assert.Equal(t, DefaultAudioSpecificConfig[:], got.DecoderSpecificInfo)
	})
}

func TestReadDescriptorHeader(t *testing.T) {
	for _, tc := range []struct {
		data []byte
		size int
		n    int
		err  bool
	}{
		{[]byte{0x05, 0x02, 0x11, 0x90}, 2, 2, false},
		{[]byte{0x05, 0x80, 0x80, 0x80, 0x02, 0x11, 0x90}, 2, 5, false},
		{[]byte{0x05, 0x81, 0x00}, 0, 0, true},
		{[]byte{0x05, 0x80, 0x80, 0x80, 0x82, 0x02, 0x11, 0x90}, 0, 0, true},
		{[]byte{0x05, 0x80}, 0, 0, true},
	} {
		_, size, n, err := readDescriptorHeader(tc.data)
		if tc.err {
			assert.ErrorIs(t, err, ErrDescriptor, "% X", tc.data)
			continue
		}
		require.NoError(t, err, "% X", tc.data)
		assert.Equal(t, tc.size, size)
		assert.Equal(t, tc.n, n)
	}
}
