package rtmp

import (
	"errors"
	"fmt"
	"io"

	"m7s.live/vod/v5/pkg/util"
)

// HeaderSize 消息头固定 11 字节:
// type(1) | length(3) | timestamp(3) | timestamp extended(1) | reserved(3)
const HeaderSize = 11

var (
	ErrMessageTooLarge   = errors.New("rtmp: message body exceeds 24 bits")
	ErrUnsupportedMsg    = errors.New("rtmp: unsupported message type")
	ErrMalformedCommand  = errors.New("rtmp: malformed command")
	ErrMalformedMetadata = errors.New("rtmp: malformed metadata")
)

type Header struct {
	MessageType byte
	Timestamp   uint32
	Length      uint32
	ChannelID   uint32 // chunk stream id, 不在 11 字节头中
	StreamID    uint32 // message stream id, 不在 11 字节头中
}

func (h *Header) GetHeader() *Header {
	return h
}

func (h *Header) AppendTo(b []byte) []byte {
	b = append(b, h.MessageType)
	b = append(b, util.PutBE(make([]byte, 3), h.Length)...)
	b = append(b, util.PutBE(make([]byte, 3), h.Timestamp&0xFFFFFF)...)
	// 超过 24 位的时间戳高 8 位放在扩展字节,其余保留为 0
	return append(b, byte(h.Timestamp>>24), 0, 0, 0)
}

func ReadHeader(b []byte) (h Header, err error) {
	if len(b) < HeaderSize {
		return h, io.ErrUnexpectedEOF
	}
	h.MessageType = b[0]
	h.Length = util.ReadBE[uint32](b[1:4])
	h.Timestamp = util.ReadBE[uint32](b[4:7]) | uint32(b[7])<<24
	h.ChannelID = defaultChannel(h.MessageType)
	return
}

// Message 是 AudioMessage, VideoMessage, CommandMessage, MetadataMessage 之一
type Message interface {
	GetHeader() *Header
	body() ([]byte, error)
}

type AudioMessage struct {
	Header
	Data []byte
}

type VideoMessage struct {
	Header
	Data []byte

	geometrySolved bool
	width, height  int
	geometryErr    error
}

type CommandMessage struct {
	Header
	Name          string
	TransactionID uint64
	Object        Object // nil 时编码为 null
	Args          []any
}

type MetadataMessage struct {
	Header
	Name   string
	Values []any
}

func NewAudioMessage(timestamp uint32, data ...[]byte) *AudioMessage {
	m := &AudioMessage{Data: util.ConcatBuffers(data)}
	m.MessageType = RTMP_MSG_AUDIO
	m.ChannelID = RTMP_CSID_AUDIO
	m.Timestamp = timestamp
	m.Length = uint32(len(m.Data))
	return m
}

func NewVideoMessage(timestamp uint32, data ...[]byte) *VideoMessage {
	m := &VideoMessage{Data: util.ConcatBuffers(data)}
	m.MessageType = RTMP_MSG_VIDEO
	m.ChannelID = RTMP_CSID_VIDEO
	m.Timestamp = timestamp
	m.Length = uint32(len(m.Data))
	return m
}

func NewCommandMessage(name string, transactionID uint64, object Object, args ...any) *CommandMessage {
	m := &CommandMessage{Name: name, TransactionID: transactionID, Object: object, Args: args}
	m.MessageType = RTMP_MSG_AMF0_COMMAND
	m.ChannelID = RTMP_CSID_COMMAND
	return m
}

func NewMetadataMessage(name string, values ...any) *MetadataMessage {
	m := &MetadataMessage{Name: name, Values: values}
	m.MessageType = RTMP_MSG_AMF0_METADATA
	m.ChannelID = RTMP_CSID_DATA
	return m
}

func (m *AudioMessage) body() ([]byte, error) {
	return m.Data, nil
}

func (m *VideoMessage) body() ([]byte, error) {
	return m.Data, nil
}

func (m *CommandMessage) body() ([]byte, error) {
	var amf AMF
	if err := amf.Marshals(m.Name, m.TransactionID); err != nil {
		return nil, err
	}
	var object any
	if m.Object != nil {
		object = m.Object
	}
	if err := amf.Marshal(object); err != nil {
		return nil, err
	}
	err := amf.Marshals(m.Args...)
	return amf.Buffer, err
}

func (m *MetadataMessage) body() ([]byte, error) {
	var amf AMF
	if err := amf.Marshal(m.Name); err != nil {
		return nil, err
	}
	err := amf.Marshals(m.Values...)
	return amf.Buffer, err
}

// IsConfig 音频 AAC sequence header: 0xAx 00
func (m *AudioMessage) IsConfig() bool {
	return len(m.Data) >= 2 && AudioCodecID(m.Data[0]>>4) == CodecID_AAC && m.Data[1] == PacketTypeSequenceStart
}

func (m *AudioMessage) CodecID() AudioCodecID {
	if len(m.Data) == 0 {
		return 0
	}
	return AudioCodecID(m.Data[0] >> 4)
}

// IsConfig 视频 AVC/HEVC sequence header: 0x17 00 000000
func (m *VideoMessage) IsConfig() bool {
	if len(m.Data) < 5 || m.Data[1] != PacketTypeSequenceStart {
		return false
	}
	codec := m.CodecID()
	return codec == CodecID_H264 || codec == CodecID_H265
}

func (m *VideoMessage) CodecID() VideoCodecID {
	if len(m.Data) == 0 {
		return 0
	}
	return VideoCodecID(m.Data[0] & 0x0F)
}

func (m *VideoMessage) FrameType() byte {
	if len(m.Data) == 0 {
		return 0
	}
	return m.Data[0] >> 4
}

func (m *VideoMessage) IsKeyFrame() bool {
	return m.FrameType() == FrameTypeKey
}

func (m *CommandMessage) Arg(i int) any {
	if i < 0 || i >= len(m.Args) {
		return nil
	}
	return m.Args[i]
}

func firstObject(values []any) Object {
	if len(values) == 0 {
		return nil
	}
	switch v := values[0].(type) {
	case Object:
		return v
	case EcmaArray:
		return Object(v)
	case TypedObject:
		return v.Object
	}
	return nil
}

// Value 读取第一个参数(对象或 ECMA 数组)中的字段
func (m *MetadataMessage) Value(key string) (any, bool) {
	return firstObject(m.Values).Get(key)
}

// Duration 返回 duration 字段(秒),不存在时为 -1
func (m *MetadataMessage) Duration() float64 {
	if v, ok := m.Value("duration"); ok {
		if d, ok := v.(float64); ok {
			return d
		}
	}
	return -1
}

func (m *MetadataMessage) SetValue(key string, value any) {
	if len(m.Values) == 0 {
		m.Values = []any{EcmaArray{}}
	}
	switch v := m.Values[0].(type) {
	case Object:
		v.Set(key, value)
		m.Values[0] = v
	case EcmaArray:
		v.Set(key, value)
		m.Values[0] = v
	case TypedObject:
		v.Object.Set(key, value)
		m.Values[0] = v
	default:
		m.Values[0] = EcmaArray{{key, value}}
	}
}

func (m *MetadataMessage) SetDuration(duration float64) {
	m.SetValue("duration", duration)
}

// Marshal 编码消息头和消息体,Length 按实际消息体更新
func Marshal(msg Message) ([]byte, error) {
	body, err := msg.body()
	if err != nil {
		return nil, err
	}
	if len(body) > 0xFFFFFF {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(body))
	}
	h := msg.GetHeader()
	h.Length = uint32(len(body))
	return append(h.AppendTo(make([]byte, 0, HeaderSize+len(body))), body...), nil
}

// Unmarshal 解析一条消息,返回消费的字节数。
// 命令和元数据中出现可恢复错误时同时返回消息和错误,由调用方决定是否接受。
func Unmarshal(b []byte) (msg Message, n int, err error) {
	var h Header
	if h, err = ReadHeader(b); err != nil {
		return
	}
	n = HeaderSize + int(h.Length)
	if len(b) < n {
		return nil, 0, io.ErrUnexpectedEOF
	}
	msg, err = decodeBody(h, b[HeaderSize:n])
	if msg == nil {
		n = 0
	}
	return
}

// ReadMessage 从 r 读取一条完整的消息
func ReadMessage(r io.Reader) (Message, error) {
	var head [HeaderSize]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	h, _ := ReadHeader(head[:])
	body := make([]byte, h.Length)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return decodeBody(h, body)
}

func decodeBody(h Header, body []byte) (Message, error) {
	switch h.MessageType {
	case RTMP_MSG_AUDIO:
		return &AudioMessage{Header: h, Data: body}, nil
	case RTMP_MSG_VIDEO:
		return &VideoMessage{Header: h, Data: body}, nil
	case RTMP_MSG_AMF3_COMMAND, RTMP_MSG_AMF3_METADATA:
		// AMF3 消息体第一个字节为 0,其后按 AMF0 解析
		if len(body) == 0 {
			return nil, io.ErrUnexpectedEOF
		}
		body = body[1:]
	case RTMP_MSG_AMF0_COMMAND, RTMP_MSG_AMF0_METADATA:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMsg, h.MessageType)
	}
	isMetadata := h.MessageType == RTMP_MSG_AMF0_METADATA || h.MessageType == RTMP_MSG_AMF3_METADATA
	malformed := ErrMalformedCommand
	if isMetadata {
		malformed = ErrMalformedMetadata
	}
	values, err := UnmarshalAMFs(body)
	if err != nil && !IsRecoverable(err) {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty body", malformed)
	}
	name, ok := values[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: name is %T", malformed, values[0])
	}
	if isMetadata {
		return &MetadataMessage{Header: h, Name: name, Values: values[1:]}, err
	}
	cmd := &CommandMessage{Header: h, Name: name}
	rest := values[1:]
	if len(rest) > 0 {
		if tid, ok := rest[0].(float64); ok {
			cmd.TransactionID = uint64(tid)
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		switch o := rest[0].(type) {
		case nil:
			rest = rest[1:]
		case Object:
			cmd.Object = o
			rest = rest[1:]
		case EcmaArray:
			cmd.Object = Object(o)
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		cmd.Args = rest
	}
	return cmd, err
}
