package util

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var ErrSeekOutOfRange = errors.New("seek out of range")

// Cursor 在 io.ReadSeeker 之上维护绝对位置，所有读取都不会越过流的末尾
type Cursor struct {
	r    io.ReadSeeker
	pos  int64
	size int64
	tmp  [8]byte
}

func NewCursor(r io.ReadSeeker) (*Cursor, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err = r.Seek(pos, io.SeekStart); err != nil {
		return nil, err
	}
	return &Cursor{r: r, pos: pos, size: size}, nil
}

func (c *Cursor) Position() int64 {
	return c.pos
}

func (c *Cursor) Size() int64 {
	return c.size
}

func (c *Cursor) Remaining() int64 {
	return c.size - c.pos
}

func (c *Cursor) SetPosition(pos int64) error {
	if pos < 0 || pos > c.size {
		return fmt.Errorf("%w: %d of %d", ErrSeekOutOfRange, pos, c.size)
	}
	if pos == c.pos {
		return nil
	}
	if _, err := c.r.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	c.pos = pos
	return nil
}

func (c *Cursor) Skip(n int64) error {
	return c.SetPosition(c.pos + n)
}

func (c *Cursor) fill(b []byte) error {
	if int64(len(b)) > c.Remaining() {
		return io.ErrUnexpectedEOF
	}
	n, err := io.ReadFull(c.r, b)
	c.pos += int64(n)
	return err
}

// ReadN 读取 n 个字节到新分配的内存
func (c *Cursor) ReadN(n int64) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if err := c.fill(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Cursor) ReadUint8() (uint8, error) {
	err := c.fill(c.tmp[:1])
	return c.tmp[0], err
}

func (c *Cursor) ReadUint16() (uint16, error) {
	err := c.fill(c.tmp[:2])
	return binary.BigEndian.Uint16(c.tmp[:2]), err
}

func (c *Cursor) ReadUint24() (uint32, error) {
	err := c.fill(c.tmp[:3])
	return ReadBE[uint32](c.tmp[:3]), err
}

func (c *Cursor) ReadUint32() (uint32, error) {
	err := c.fill(c.tmp[:4])
	return binary.BigEndian.Uint32(c.tmp[:4]), err
}

func (c *Cursor) ReadUint64() (uint64, error) {
	err := c.fill(c.tmp[:8])
	return binary.BigEndian.Uint64(c.tmp[:8]), err
}
