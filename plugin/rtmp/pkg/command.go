package rtmp

import "fmt"

// ClientOptions 客户端发起 connect/play/publish 时使用
type ClientOptions struct {
	App         string
	TcURL       string
	StreamName  string
	PublishType string  // live, record, append
	Start       float64 // -2 表示默认(直播优先)
	Length      float64 // -1 表示播放到结束
	Params      Object  // 合并进 connect 的命令对象
	Args        []any   // 追加在 connect/play 之后的参数
}

func NewClientOptions(app, tcURL, streamName string) *ClientOptions {
	return &ClientOptions{
		App:         app,
		TcURL:       tcURL,
		StreamName:  streamName,
		PublishType: "live",
		Start:       -2,
		Length:      -1,
	}
}

// OnStatus 构造状态信息对象: level, code, [description], extra...
func OnStatus(level, code, description string, extra ...Property) Object {
	info := Object{{"level", level}, {"code", code}}
	if description != "" {
		info = append(info, Property{"description", description})
	}
	for _, p := range extra {
		info.Set(p.Key, p.Value)
	}
	return info
}

func onStatus(channelID, streamID uint32, info Object) *CommandMessage {
	m := NewCommandMessage(Response_OnStatus, 0, nil, info)
	m.ChannelID = channelID
	m.StreamID = streamID
	return m
}

func Connect(opts *ClientOptions) *CommandMessage {
	object := Object{
		{"app", opts.App},
		{"flashVer", "LNX 11,1,102,55"},
		{"tcUrl", opts.TcURL},
		{"fpad", false},
		{"capabilities", 239.0},
		{"audioCodecs", 3575.0},
		{"videoCodecs", 252.0},
		{"videoFunction", 1.0},
		{"objectEncoding", 0.0},
	}
	for _, p := range opts.Params {
		object.Set(p.Key, p.Value)
	}
	return NewCommandMessage(Command_Connect, 1, object, opts.Args...)
}

func ConnectSuccess(tid uint64) *CommandMessage {
	info := OnStatus(Level_Status, NetConnection_Connect_Success, "Connection succeeded.",
		Property{"fmsVer", "FMS/3,5,1,516"},
		Property{"capabilities", 31.0},
		Property{"mode", 1.0},
		Property{"objectEncoding", 0.0},
	)
	return NewCommandMessage(Response_Result, tid, nil, info)
}

func CreateStream(tid uint64) *CommandMessage {
	return NewCommandMessage(Command_CreateStream, tid, nil)
}

func CreateStreamSuccess(tid uint64, streamID uint32) *CommandMessage {
	return NewCommandMessage(Response_Result, tid, nil, float64(streamID))
}

func OnBWDone() *CommandMessage {
	return NewCommandMessage(Command_OnBWDone, 0, nil)
}

// Play 起始位置和时长只有在非默认值或带有附加参数时才写入
func Play(streamID uint32, opts *ClientOptions) *CommandMessage {
	args := []any{opts.StreamName}
	if opts.Start != -2 || opts.Args != nil {
		args = append(args, opts.Start)
	}
	if opts.Length != -1 || opts.Args != nil {
		args = append(args, opts.Length)
	}
	args = append(args, opts.Args...)
	m := NewCommandMessage(Command_Play, 0, nil, args...)
	m.ChannelID = RTMP_CSID_STREAM
	m.StreamID = streamID
	return m
}

func playStatus(code, description, playName, clientID string) *CommandMessage {
	return onStatus(RTMP_CSID_DATA, 0, OnStatus(Level_Status, code, description+" "+playName+".",
		Property{"details", playName},
		Property{"clientid", clientID},
	))
}

func PlayReset(playName, clientID string) *CommandMessage {
	m := playStatus(NetStream_Play_Reset, "Playing and resetting", playName, clientID)
	m.ChannelID = RTMP_CSID_RESET
	return m
}

func PlayStart(playName, clientID string) *CommandMessage {
	return playStatus(NetStream_Play_Start, "Started playing", playName, clientID)
}

func PlayStop(playName, clientID string) *CommandMessage {
	return playStatus(NetStream_Play_Stop, "Stopped playing", playName, clientID)
}

func PlayFailed() *CommandMessage {
	return onStatus(RTMP_CSID_STREAM, 0, OnStatus(Level_Error, NetStream_Play_Failed, "Stream not found"))
}

// SeekNotify 消息时间戳设为 seek 的目标时间
func SeekNotify(streamID, seekTime uint32, playName, clientID string) *CommandMessage {
	m := onStatus(RTMP_CSID_DATA, streamID, OnStatus(Level_Status, NetStream_Seek_Notify,
		fmt.Sprintf("Seeking %d (stream ID: %d).", seekTime, streamID),
		Property{"details", playName},
		Property{"clientid", clientID},
	))
	m.Timestamp = seekTime
	return m
}

func PauseNotify(playName, clientID string) *CommandMessage {
	return onStatus(RTMP_CSID_DATA, 0, OnStatus(Level_Status, NetStream_Pause_Notify, "Pausing "+playName,
		Property{"details", playName},
		Property{"clientid", clientID},
	))
}

func UnpauseNotify(playName, clientID string) *CommandMessage {
	return onStatus(RTMP_CSID_DATA, 0, OnStatus(Level_Status, NetStream_Unpause_Notify, "Unpausing "+playName,
		Property{"details", playName},
		Property{"clientid", clientID},
	))
}

func Publish(streamID, channelID uint32, opts *ClientOptions) *CommandMessage {
	m := NewCommandMessage(Command_Publish, 0, nil, opts.StreamName, opts.PublishType)
	m.ChannelID = channelID
	m.StreamID = streamID
	return m
}

// Unpublish 以 publish false 结束发布
func Unpublish(streamID uint32) *CommandMessage {
	m := NewCommandMessage(Command_Publish, 0, nil, false)
	m.ChannelID = RTMP_CSID_STREAM
	m.StreamID = streamID
	return m
}

func publishStatus(code, streamName, clientID string, streamID uint32) *CommandMessage {
	return onStatus(RTMP_CSID_STREAM, streamID, OnStatus(Level_Status, code, "",
		Property{"details", streamName},
		Property{"clientid", clientID},
	))
}

func PublishStart(streamName, clientID string, streamID uint32) *CommandMessage {
	return publishStatus(NetStream_Publish_Start, streamName, clientID, streamID)
}

func UnpublishSuccess(streamName, clientID string, streamID uint32) *CommandMessage {
	return publishStatus(NetStream_Unpublish_Success, streamName, clientID, streamID)
}

func PublishBadName(streamID uint32) *CommandMessage {
	return onStatus(RTMP_CSID_STREAM, streamID, OnStatus(Level_Error, NetStream_Publish_BadName, "Stream already exists."))
}

func PublishNotify(streamID uint32) *CommandMessage {
	return onStatus(RTMP_CSID_STREAM, streamID, OnStatus(Level_Status, NetStream_Play_PublishNotify, ""))
}

func UnpublishNotify(streamID uint32) *CommandMessage {
	return onStatus(RTMP_CSID_STREAM, streamID, OnStatus(Level_Status, NetStream_Play_UnpublishNotify, ""))
}

func CloseStream(streamID uint32) *CommandMessage {
	m := NewCommandMessage(Command_CloseStream, 0, nil)
	m.ChannelID = RTMP_CSID_STREAM
	m.StreamID = streamID
	return m
}

// OnPlayStatus 点播结束时发送
func OnPlayStatus(duration, bytes float64) *MetadataMessage {
	return NewMetadataMessage(Metadata_OnPlayStatus, OnStatus(Level_Status, NetStream_Play_Complete, "",
		Property{"duration", duration},
		Property{"bytes", bytes},
	))
}

func RtmpSampleAccess() *MetadataMessage {
	return NewMetadataMessage(Metadata_RtmpSampleAccess, false, false)
}

func DataStart() *MetadataMessage {
	return NewMetadataMessage(Response_OnStatus, Object{{"code", NetStream_Data_Start}})
}
