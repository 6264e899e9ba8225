package rtmp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"slices"
	"time"

	"m7s.live/vod/v5/pkg/util"
)

// Action Message Format -- AMF 0
// http://download.macromedia.com/pub/labs/amf/amf0_spec_121207.pdf

// AMF Object == AMF Object Type(1 byte) + AMF Object Value
//
// AMF Object Value :
// AMF0_STRING : 2 bytes(datasize,记录string的长度) + data(string)
// AMF0_OBJECT : (AMF0_STRING key + AMF Object)* + 00 00 09
// AMF0_NULL : 0 byte
// AMF0_NUMBER : 8 bytes
// AMF0_DATE : 10 bytes (8 bytes 毫秒 + 2 bytes 时区,忽略)
// AMF0_BOOLEAN : 1 byte
// AMF0_ECMA_ARRAY : 4 bytes(arraysize,只作参考) + AMF0_OBJECT
// AMF0_STRICT_ARRAY : 4 bytes(arraysize,记录数组的长度) + AMF Object*
// AMF0_TYPED_OBJECT : AMF0_STRING(classname) + AMF0_OBJECT

const (
	AMF0_NUMBER = iota // 浮点数
	AMF0_BOOLEAN
	AMF0_STRING
	AMF0_OBJECT
	AMF0_MOVIECLIP
	AMF0_NULL
	AMF0_UNDEFINED
	AMF0_REFERENCE
	AMF0_ECMA_ARRAY
	AMF0_END_OBJECT
	AMF0_STRICT_ARRAY
	AMF0_DATE
	AMF0_LONG_STRING
	AMF0_UNSUPPORTED
	AMF0_RECORDSET
	AMF0_XML_DOCUMENT
	AMF0_TYPED_OBJECT
)

// ClassNameKey 出现在 Object 中时按 typed object 编码
const ClassNameKey = "classname"

var END_OBJ = []byte{0, 0, AMF0_END_OBJECT}

var (
	ErrMalformedString = errors.New("amf: malformed string")
	ErrStringTooLong   = errors.New("amf: string exceeds 65535 bytes")
	ErrUnsupportedType = errors.New("amf: unsupported type")
)

// StringError 字符串长度超出剩余数据。解码时该字段替换为空串，剩余数据丢弃。
type StringError struct {
	Offset    int // 长度前缀所在位置
	Length    int
	Available int
}

func (e *StringError) Error() string {
	return fmt.Sprintf("amf: malformed string at %d: length %d, %d bytes available", e.Offset, e.Length, e.Available)
}

func (e *StringError) Unwrap() error {
	return ErrMalformedString
}

// IsRecoverable reports whether err only affected a single field and the
// values decoded alongside it are usable.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrMalformedString)
}

type Property struct {
	Key   string
	Value any
}

// Object 保留键的顺序
type Object []Property

type EcmaArray []Property

type TypedObject struct {
	ClassName string
	Object    Object
}

func (o Object) Get(key string) (any, bool) {
	for _, p := range o {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

func (o *Object) Set(key string, value any) {
	for i := range *o {
		if (*o)[i].Key == key {
			(*o)[i].Value = value
			return
		}
	}
	*o = append(*o, Property{key, value})
}

func (o Object) Delete(key string) Object {
	return slices.DeleteFunc(slices.Clone(o), func(p Property) bool { return p.Key == key })
}

func (e EcmaArray) Get(key string) (any, bool) {
	return Object(e).Get(key)
}

func (e *EcmaArray) Set(key string, value any) {
	(*Object)(e).Set(key, value)
}

type AMF struct {
	util.Buffer
	size int
}

func NewAMF(data []byte) *AMF {
	return &AMF{Buffer: data, size: len(data)}
}

func (amf *AMF) offset() int {
	return amf.size - amf.Len()
}

func (amf *AMF) discard() {
	amf.Buffer = amf.Buffer[len(amf.Buffer):]
}

func (amf *AMF) readString(prefix int) (string, error) {
	at := amf.offset()
	if !amf.CanReadN(prefix) {
		err := &StringError{Offset: at, Length: -1, Available: amf.Len()}
		amf.discard()
		return "", err
	}
	var l int
	if prefix == 2 {
		l = int(amf.ReadUint16())
	} else {
		l = int(amf.ReadUint32())
	}
	if !amf.CanReadN(l) {
		err := &StringError{Offset: at, Length: l, Available: amf.Len()}
		amf.discard()
		return "", err
	}
	return string(amf.ReadN(l)), nil
}

// readProperties 读取键值对直到遇到 00 00 09。数据耗尽但没有结束符时返回已读到的部分。
func (amf *AMF) readProperties() (obj Object, err error) {
	obj = Object{}
	for amf.CanRead() {
		if amf.Len() >= 3 && bytes.Equal(amf.Buffer[:3], END_OBJ) {
			amf.Skip(3)
			return
		}
		var k string
		if k, err = amf.readString(2); err != nil {
			return
		}
		var v any
		v, err = amf.Unmarshal()
		if err != nil && !IsRecoverable(err) {
			return nil, err
		}
		obj = append(obj, Property{k, v})
		if err != nil {
			return
		}
	}
	return
}

// Unmarshal 解码一个值。返回可恢复错误时值仍然有效（出错的字符串为空串）。
func (amf *AMF) Unmarshal() (obj any, err error) {
	if !amf.CanRead() {
		return nil, io.ErrUnexpectedEOF
	}
	switch t := amf.ReadByte(); t {
	case AMF0_NUMBER:
		if !amf.CanReadN(8) {
			return nil, io.ErrUnexpectedEOF
		}
		obj = amf.ReadFloat64()
	case AMF0_BOOLEAN:
		if !amf.CanRead() {
			return nil, io.ErrUnexpectedEOF
		}
		obj = amf.ReadByte() == 1
	case AMF0_STRING:
		obj, err = amf.readString(2)
	case AMF0_LONG_STRING, AMF0_XML_DOCUMENT:
		obj, err = amf.readString(4)
	case AMF0_OBJECT:
		obj, err = amf.readProperties()
	case AMF0_ECMA_ARRAY:
		if !amf.CanReadN(4) {
			return nil, io.ErrUnexpectedEOF
		}
		_ = amf.ReadUint32() // 以结束符为准
		var o Object
		o, err = amf.readProperties()
		if o != nil {
			obj = EcmaArray(o)
		}
	case AMF0_TYPED_OBJECT:
		var typed TypedObject
		if typed.ClassName, err = amf.readString(2); err != nil {
			return typed, err
		}
		typed.Object, err = amf.readProperties()
		if err != nil && !IsRecoverable(err) {
			return nil, err
		}
		obj = typed
	case AMF0_STRICT_ARRAY:
		if !amf.CanReadN(4) {
			return nil, io.ErrUnexpectedEOF
		}
		size := int(amf.ReadUint32())
		list := make([]any, 0, min(size, amf.Len()))
		for j := 0; j < size; j++ {
			var v any
			v, err = amf.Unmarshal()
			if err != nil && !IsRecoverable(err) {
				return nil, err
			}
			list = append(list, v)
			if err != nil {
				break
			}
		}
		obj = list
	case AMF0_DATE:
		if !amf.CanReadN(10) {
			return nil, io.ErrUnexpectedEOF
		}
		ms := amf.ReadFloat64()
		amf.Skip(2)
		obj = time.UnixMilli(int64(ms)).UTC()
	case AMF0_REFERENCE:
		if !amf.CanReadN(2) {
			return nil, io.ErrUnexpectedEOF
		}
		amf.Skip(2)
	default:
		// null, undefined, unsupported, movieclip, recordset 以及未知类型
	}
	return
}

// Unmarshals 解码缓冲区中全部的值。遇到可恢复错误时继续，返回第一个可恢复错误。
func (amf *AMF) Unmarshals() (values []any, err error) {
	for amf.CanRead() {
		v, e := amf.Unmarshal()
		if e != nil && !IsRecoverable(e) {
			return values, e
		}
		if e != nil && err == nil {
			err = e
		}
		values = append(values, v)
	}
	return
}

func UnmarshalAMFs(data []byte) ([]any, error) {
	return NewAMF(data).Unmarshals()
}

func (amf *AMF) writeString(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%w: %d", ErrStringTooLong, len(s))
	}
	amf.WriteUint16(uint16(len(s)))
	amf.WriteString(s)
	return nil
}

func (amf *AMF) writeProperties(props []Property) error {
	for _, p := range props {
		if err := amf.writeString(p.Key); err != nil {
			return err
		}
		if err := amf.Marshal(p.Value); err != nil {
			return err
		}
	}
	amf.Write(END_OBJ)
	return nil
}

func (amf *AMF) writeTyped(className string, props []Property) error {
	amf.WriteByte(AMF0_TYPED_OBJECT)
	if err := amf.writeString(className); err != nil {
		return err
	}
	return amf.writeProperties(props)
}

func MarshalAMFs(v ...any) ([]byte, error) {
	var amf AMF
	err := amf.Marshals(v...)
	return amf.Buffer, err
}

func (amf *AMF) Marshals(v ...any) error {
	for _, vv := range v {
		if err := amf.Marshal(vv); err != nil {
			return err
		}
	}
	return nil
}

func (amf *AMF) Marshal(v any) error {
	if v == nil {
		amf.WriteByte(AMF0_NULL)
		return nil
	}
	switch vv := v.(type) {
	case string:
		amf.WriteByte(AMF0_STRING)
		return amf.writeString(vv)
	case float64, uint, float32, int, int16, int32, int64, uint16, uint32, uint64, uint8, int8:
		amf.WriteByte(AMF0_NUMBER)
		amf.WriteFloat64(ToFloat64(vv))
	case bool:
		amf.WriteByte(AMF0_BOOLEAN)
		if vv {
			amf.WriteByte(1)
		} else {
			amf.WriteByte(0)
		}
	case time.Time:
		amf.WriteByte(AMF0_DATE)
		amf.WriteFloat64(float64(vv.UnixMilli()))
		amf.WriteUint16(0)
	case Object:
		if name, ok := vv.Get(ClassNameKey); ok {
			if className, ok := name.(string); ok {
				return amf.writeTyped(className, vv.Delete(ClassNameKey))
			}
		}
		amf.WriteByte(AMF0_OBJECT)
		return amf.writeProperties(vv)
	case TypedObject:
		return amf.writeTyped(vv.ClassName, vv.Object)
	case EcmaArray:
		amf.WriteByte(AMF0_ECMA_ARRAY)
		amf.WriteUint32(0)
		return amf.writeProperties(vv)
	case map[string]any:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		obj := make(Object, 0, len(keys))
		for _, k := range keys {
			obj = append(obj, Property{k, vv[k]})
		}
		return amf.Marshal(obj)
	default:
		rv := reflect.ValueOf(vv)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if rv.Kind() == reflect.Slice && rv.IsNil() {
				amf.WriteByte(AMF0_NULL)
				return nil
			}
			amf.WriteByte(AMF0_STRICT_ARRAY)
			size := rv.Len()
			amf.WriteUint32(uint32(size))
			for i := 0; i < size; i++ {
				if err := amf.Marshal(rv.Index(i).Interface()); err != nil {
					return err
				}
			}
		case reflect.Ptr:
			if rv.IsNil() {
				amf.WriteByte(AMF0_NULL)
				return nil
			}
			return amf.Marshal(rv.Elem().Interface())
		default:
			return fmt.Errorf("%w: %T", ErrUnsupportedType, v)
		}
	}
	return nil
}

func ToFloat64(num any) float64 {
	switch v := num.(type) {
	case uint:
		return float64(v)
	case int:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	case float32:
		return float64(v)
	}
	return 0
}
