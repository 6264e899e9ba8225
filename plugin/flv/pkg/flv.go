package flv

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"

	rtmp "m7s.live/vod/v5/plugin/rtmp/pkg"
)

const (
	// FLV Tag Type
	FLV_TAG_TYPE_AUDIO  = 0x08
	FLV_TAG_TYPE_VIDEO  = 0x09
	FLV_TAG_TYPE_SCRIPT = 0x12

	HeaderSize          = 9
	PreviousTagSizeSize = 4
)

var (
	ErrNotFLV          = errors.New("flv: bad signature")
	ErrPreviousTagSize = errors.New("flv: previous tag size mismatch")
)

// Header 文件头 + 第一个 previous tag size
// F L V | version 1 | flags 0x05 (audio|video) | header size 9 | 0
var Header = [HeaderSize + PreviousTagSizeSize]byte{'F', 'L', 'V', 0x01, 0x05, 0, 0, 0, 9, 0, 0, 0, 0}

// WriteTag 写一个 tag: 11 字节头 + 数据 + previous tag size(11 + 数据长度)
func WriteTag(w io.Writer, msg rtmp.Message) error {
	data, err := rtmp.Marshal(msg)
	if err != nil {
		return err
	}
	var prev [PreviousTagSizeSize]byte
	binary.BigEndian.PutUint32(prev[:], uint32(len(data)))
	buffers := net.Buffers{data, prev[:]}
	_, err = buffers.WriteTo(w)
	return err
}

// TagError tag 已完整读出但无法解码，读取位置停在下一个 tag 开头，可以跳过继续读
type TagError struct {
	rtmp.Header
	Err error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("flv: tag type %d at %d: %v", e.MessageType, e.Timestamp, e.Err)
}

func (e *TagError) Unwrap() error {
	return e.Err
}

// ReadTag 读一个 tag 并校验其后的 previous tag size
func ReadTag(r io.Reader) (rtmp.Message, error) {
	var head [rtmp.HeaderSize]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	h, _ := rtmp.ReadHeader(head[:])
	tag := make([]byte, rtmp.HeaderSize+int(h.Length)+PreviousTagSizeSize)
	copy(tag, head[:])
	if _, err := io.ReadFull(r, tag[rtmp.HeaderSize:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	tag, prev := tag[:len(tag)-PreviousTagSizeSize], binary.BigEndian.Uint32(tag[len(tag)-PreviousTagSizeSize:])
	if want := uint32(len(tag)); prev != want {
		return nil, fmt.Errorf("%w: %d, want %d", ErrPreviousTagSize, prev, want)
	}
	msg, _, err := rtmp.Unmarshal(tag)
	if err != nil && !rtmp.IsRecoverable(err) {
		return nil, &TagError{Header: h, Err: err}
	}
	return msg, err
}

type Writer struct {
	w             io.Writer
	headerWritten bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteMessage 第一次写入前先写文件头
func (w *Writer) WriteMessage(msg rtmp.Message) (err error) {
	if !w.headerWritten {
		if _, err = w.w.Write(Header[:]); err != nil {
			return
		}
		w.headerWritten = true
	}
	return WriteTag(w.w, msg)
}

type Reader struct {
	r          *bufio.Reader
	headerRead bool
	HasAudio   bool
	HasVideo   bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

func (r *Reader) readHeader() error {
	var head [HeaderSize]byte
	if _, err := io.ReadFull(r.r, head[:]); err != nil {
		return err
	}
	if head[0] != 'F' || head[1] != 'L' || head[2] != 'V' {
		return fmt.Errorf("%w: % X", ErrNotFLV, head[:3])
	}
	flags := head[4]
	r.HasAudio = flags&0x04 != 0
	r.HasVideo = flags&0x01 != 0
	// header size 之后还有 4 字节 previous tag size 0
	dataOffset := binary.BigEndian.Uint32(head[5:])
	if dataOffset < HeaderSize {
		return fmt.Errorf("%w: header size %d", ErrNotFLV, dataOffset)
	}
	_, err := r.r.Discard(int(dataOffset) - HeaderSize + PreviousTagSizeSize)
	return err
}

// ReadMessage 返回下一个 tag 对应的消息，文件结束时返回 io.EOF
func (r *Reader) ReadMessage() (rtmp.Message, error) {
	if !r.headerRead {
		if err := r.readHeader(); err != nil {
			return nil, err
		}
		r.headerRead = true
	}
	return ReadTag(r.r)
}
