package box

import (
	"errors"
	"fmt"
)

var (
	ErrBoxSize          = errors.New("invalid box size")
	ErrBoxOverrun       = errors.New("box overruns its parent")
	ErrPayloadTruncated = errors.New("payload truncated")
	ErrDescriptor       = errors.New("descriptor overruns its parent")
	ErrSampleTable      = errors.New("sample table mismatch")
	ErrNoMovie          = errors.New("no moov box")
)

// ParseError 记录出错的 box 及其位置，Expected/Actual 为字节数
type ParseError struct {
	Type     BoxType
	Offset   int64
	Expected int64
	Actual   int64
	Err      error
}

func (e *ParseError) Error() string {
	if e.Expected != 0 || e.Actual != 0 {
		return fmt.Sprintf("box: parse %s at %d: %v (expected %d, actual %d)", e.Type, e.Offset, e.Err, e.Expected, e.Actual)
	}
	return fmt.Sprintf("box: parse %s at %d: %v", e.Type, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TableError 表示样本表之间的数量不一致
type TableError struct {
	Table     string
	Index     int
	Available int
}

func (e *TableError) Error() string {
	return fmt.Sprintf("box: %s exhausted: need entry %d, have %d", e.Table, e.Index+1, e.Available)
}

func (e *TableError) Unwrap() error {
	return ErrSampleTable
}
