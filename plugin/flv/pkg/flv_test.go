package flv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rtmp "m7s.live/vod/v5/plugin/rtmp/pkg"
)

func writeSample(t *testing.T) []byte {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	meta := rtmp.NewMetadataMessage(rtmp.Metadata_OnMetaData)
	meta.SetDuration(1.5)
	for _, m := range []rtmp.Message{
		meta,
		rtmp.NewAVCSequenceHeader(0, []byte{1, 0x42, 0, 0x1E}),
		rtmp.NewAACSequenceHeader(0, []byte{0x12, 0x10}),
		rtmp.NewAVCFrame(0, true, 33, []byte{0, 0, 0, 1, 0x65}),
		rtmp.NewAACFrame(21, []byte{0x21}),
	} {
		require.NoError(t, w.WriteMessage(m))
	}
	return buf.Bytes()
}

func TestWriter(t *testing.T) {
	data := writeSample(t)
	assert.Equal(t, []byte{0x46, 0x4C, 0x56, 0x01, 0x05, 0, 0, 0, 9, 0, 0, 0, 0}, data[:13])

	// 逐个校验 previous tag size
	rest := data[13:]
	var types []byte
	for len(rest) > 0 {
		require.GreaterOrEqual(t, len(rest), rtmp.HeaderSize)
		length := int(rest[1])<<16 | int(rest[2])<<8 | int(rest[3])
		types = append(types, rest[0])
		assert.Equal(t, []byte{0, 0, 0, 0}, rest[7:11])
		end := rtmp.HeaderSize + length
		assert.Equal(t, uint32(end), binary.BigEndian.Uint32(rest[end:]))
		rest = rest[end+4:]
	}
	assert.Equal(t, []byte{FLV_TAG_TYPE_SCRIPT, FLV_TAG_TYPE_VIDEO, FLV_TAG_TYPE_AUDIO, FLV_TAG_TYPE_VIDEO, FLV_TAG_TYPE_AUDIO}, types)
}

func TestReader(t *testing.T) {
	r := NewReader(bytes.NewReader(writeSample(t)))
	msg, err := r.ReadMessage()
	require.NoError(t, err)
	assert.True(t, r.HasAudio)
	assert.True(t, r.HasVideo)
	meta, ok := msg.(*rtmp.MetadataMessage)
	require.True(t, ok)
	assert.Equal(t, 1.5, meta.Duration())

	msg, err = r.ReadMessage()
	require.NoError(t, err)
	assert.True(t, msg.(*rtmp.VideoMessage).IsConfig())
	msg, err = r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAF, 0, 0x12, 0x10}, msg.(*rtmp.AudioMessage).Data)
	msg, err = r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, uint32(33), msg.(*rtmp.VideoMessage).CompositionTime())
	msg, err = r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, uint32(21), msg.GetHeader().Timestamp)

	_, err = r.ReadMessage()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderErrors(t *testing.T) {
	data := writeSample(t)
	bad := bytes.Clone(data)
	bad[0] = 'X'
	_, err := NewReader(bytes.NewReader(bad)).ReadMessage()
	assert.ErrorIs(t, err, ErrNotFLV)

	bad = bytes.Clone(data)
	first := rtmp.HeaderSize + (int(bad[14])<<16 | int(bad[15])<<8 | int(bad[16]))
	bad[13+first+3]++
	_, err = NewReader(bytes.NewReader(bad)).ReadMessage()
	assert.ErrorIs(t, err, ErrPreviousTagSize)

	_, err = NewReader(bytes.NewReader(data[:20])).ReadMessage()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// withUnknownTag 在第一个 tag 之后插入一个类型为 0x10 的 tag
func withUnknownTag(data []byte) []byte {
	first := rtmp.HeaderSize + (int(data[14])<<16 | int(data[15])<<8 | int(data[16])) + PreviousTagSizeSize
	unknown := []byte{0x10, 0, 0, 3, 0, 0, 10, 0, 0, 0, 0, 0xAA, 0xBB, 0xCC}
	unknown = binary.BigEndian.AppendUint32(unknown, rtmp.HeaderSize+3)
	out := bytes.Clone(data[:13+first])
	out = append(out, unknown...)
	return append(out, data[13+first:]...)
}

func TestReaderSkipsUndecodableTag(t *testing.T) {
	r := NewReader(bytes.NewReader(withUnknownTag(writeSample(t))))
	msg, err := r.ReadMessage()
	require.NoError(t, err)
	assert.IsType(t, &rtmp.MetadataMessage{}, msg)

	_, err = r.ReadMessage()
	require.ErrorIs(t, err, rtmp.ErrUnsupportedMsg)
	var tagErr *TagError
	require.True(t, errors.As(err, &tagErr))
	assert.Equal(t, byte(0x10), tagErr.MessageType)
	assert.Equal(t, uint32(3), tagErr.Length)
	assert.Equal(t, uint32(10), tagErr.Timestamp)

	// 下一个 tag 照常读出
	msg, err = r.ReadMessage()
	require.NoError(t, err)
	assert.True(t, msg.(*rtmp.VideoMessage).IsConfig())
	for i := 0; i < 3; i++ {
		_, err = r.ReadMessage()
		require.NoError(t, err)
	}
	_, err = r.ReadMessage()
	assert.ErrorIs(t, err, io.EOF)
}

func TestEcho(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	require.NoError(t, Echo(bytes.NewReader(writeSample(t)), logger))
	assert.Contains(t, out.String(), "name=onMetaData")
	assert.Contains(t, out.String(), "cts=33")
	assert.Contains(t, out.String(), "tags=5")

	err := Echo(bytes.NewReader(nil), logger)
	assert.ErrorIs(t, err, io.EOF)

	out.Reset()
	require.NoError(t, Echo(bytes.NewReader(withUnknownTag(writeSample(t))), logger))
	assert.Contains(t, out.String(), "skip tag")
	assert.Contains(t, out.String(), "tags=5")
	assert.Contains(t, out.String(), "skipped=1")
}
