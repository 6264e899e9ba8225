package util

import (
	"encoding/binary"
	"io"
	"math"
)

type Integer interface {
	~int | ~int16 | ~int32 | ~int64 | ~uint | ~uint16 | ~uint32 | ~uint64
}

func PutBE[T Integer](b []byte, num T) []byte {
	for i, n := 0, len(b); i < n; i++ {
		b[i] = byte(num >> ((n - i - 1) << 3))
	}
	return b
}

func ReadBE[T Integer](b []byte) (num T) {
	for i, n := 0, len(b); i < n; i++ {
		num += T(b[i]) << ((n - i - 1) << 3)
	}
	return
}

// Buffer 用于方便自动扩容的内存写入，以及顺序读取
// Read* 方法不做越界检查，调用前先用 CanReadN 判断；Check* 方法越界时返回 io.ErrUnexpectedEOF
type Buffer []byte

func (b *Buffer) Read(buf []byte) (n int, err error) {
	if !b.CanReadN(len(buf)) {
		n = copy(buf, *b)
		*b = (*b)[n:]
		return n, io.EOF
	}
	return copy(buf, b.ReadN(len(buf))), nil
}

func (b *Buffer) ReadN(n int) Buffer {
	l := b.Len()
	if n > l {
		n = l
	}
	r := (*b)[:n:n]
	*b = (*b)[n:l]
	return r
}

func (b *Buffer) Skip(n int) {
	b.ReadN(n)
}

func (b *Buffer) ReadFloat64() float64 {
	return math.Float64frombits(b.ReadUint64())
}
func (b *Buffer) ReadUint64() uint64 {
	return binary.BigEndian.Uint64(b.ReadN(8))
}
func (b *Buffer) ReadUint32() uint32 {
	return binary.BigEndian.Uint32(b.ReadN(4))
}
func (b *Buffer) ReadUint24() uint32 {
	return ReadBE[uint32](b.ReadN(3))
}
func (b *Buffer) ReadUint16() uint16 {
	return binary.BigEndian.Uint16(b.ReadN(2))
}
func (b *Buffer) ReadByte() byte {
	return b.ReadN(1)[0]
}

func (b *Buffer) CheckUint32() (uint32, error) {
	if !b.CanReadN(4) {
		return 0, io.ErrUnexpectedEOF
	}
	return b.ReadUint32(), nil
}

func (b *Buffer) CheckUint64() (uint64, error) {
	if !b.CanReadN(8) {
		return 0, io.ErrUnexpectedEOF
	}
	return b.ReadUint64(), nil
}

func (b *Buffer) CheckN(n int) (Buffer, error) {
	if n < 0 || !b.CanReadN(n) {
		return nil, io.ErrUnexpectedEOF
	}
	return b.ReadN(n), nil
}

func (b *Buffer) WriteFloat64(v float64) {
	PutBE(b.Malloc(8), math.Float64bits(v))
}
func (b *Buffer) WriteUint64(v uint64) {
	binary.BigEndian.PutUint64(b.Malloc(8), v)
}
func (b *Buffer) WriteUint32(v uint32) {
	binary.BigEndian.PutUint32(b.Malloc(4), v)
}
func (b *Buffer) WriteUint24(v uint32) {
	PutBE(b.Malloc(3), v)
}
func (b *Buffer) WriteUint16(v uint16) {
	binary.BigEndian.PutUint16(b.Malloc(2), v)
}
func (b *Buffer) WriteByte(v byte) error {
	b.Malloc(1)[0] = v
	return nil
}
func (b *Buffer) WriteString(a string) {
	*b = append(*b, a...)
}
func (b *Buffer) Write(a []byte) (n int, err error) {
	*b = append(*b, a...)
	return len(a), nil
}

func (b Buffer) Clone() (result Buffer) {
	return append(result, b...)
}

func (b Buffer) Bytes() []byte {
	return b
}

func (b Buffer) Len() int {
	return len(b)
}

func (b Buffer) CanRead() bool {
	return b.CanReadN(1)
}

func (b Buffer) CanReadN(n int) bool {
	return b.Len() >= n
}

func (b Buffer) Cap() int {
	return cap(b)
}

func (b Buffer) SubBuf(start int, length int) Buffer {
	return b[start : start+length]
}

// Malloc 扩大原来的buffer的长度，返回新增的buffer
func (b *Buffer) Malloc(count int) Buffer {
	l := b.Len()
	newL := l + count
	if newL > b.Cap() {
		n := make(Buffer, newL, max(newL, 2*b.Cap()))
		copy(n, *b)
		*b = n
	} else {
		*b = b.SubBuf(0, newL)
	}
	return b.SubBuf(l, count)
}

func (b *Buffer) Reset() {
	*b = b.SubBuf(0, 0)
}

// ConcatBuffers 合并碎片内存为一个完整内存
func ConcatBuffers[T ~[]byte](input []T) (out []byte) {
	for _, v := range input {
		out = append(out, v...)
	}
	return
}
