package rtmp

// http://help.adobe.com/zh_CN/AIR/1.5/jslr/flash/events/NetStatusEvent.html

const (
	Response_OnStatus = "onStatus"
	Response_Result   = "_result"
	Response_Error    = "_error"

	/* Level */
	Level_Status  = "status"
	Level_Error   = "error"
	Level_Warning = "warning"

	/* Code */
	/* NetStream */
	NetStream_Play_Reset           = "NetStream.Play.Reset"           // "status" 由播放列表重置导致
	NetStream_Play_Start           = "NetStream.Play.Start"           // "status" 播放已开始
	NetStream_Play_Stop            = "NetStream.Play.Stop"            // "status" 播放已结束
	NetStream_Play_Failed          = "NetStream.Play.Failed"          // "error"  播放发生了错误
	NetStream_Play_Complete        = "NetStream.Play.Complete"        // "status" 点播文件播放完毕
	NetStream_Play_PublishNotify   = "NetStream.Play.PublishNotify"   // "status" 流开始发布
	NetStream_Play_UnpublishNotify = "NetStream.Play.UnpublishNotify" // "status" 流停止发布

	NetStream_Data_Start = "NetStream.Data.Start"

	NetStream_Publish_Start     = "NetStream.Publish.Start"     // "status"	已经成功发布.
	NetStream_Publish_BadName   = "NetStream.Publish.BadName"   // "error"	试图发布已经被他人发布的流.
	NetStream_Unpublish_Success = "NetStream.Unpublish.Success" // "status"	已成功执行取消发布操作.

	NetStream_Pause_Notify   = "NetStream.Pause.Notify"   // "status" 流已暂停
	NetStream_Unpause_Notify = "NetStream.Unpause.Notify" // "status" 流已恢复
	NetStream_Seek_Notify    = "NetStream.Seek.Notify"    // "status"	搜寻操作完成.

	/* NetConnection */
	NetConnection_Connect_Success = "NetConnection.Connect.Success" // "status" 连接尝试成功
)

// 命令名
const (
	Command_Connect      = "connect"
	Command_CreateStream = "createStream"
	Command_CloseStream  = "closeStream"
	Command_Play         = "play"
	Command_Publish      = "publish"
	Command_OnBWDone     = "onBWDone"

	Metadata_OnMetaData       = "onMetaData"
	Metadata_OnPlayStatus     = "onPlayStatus"
	Metadata_RtmpSampleAccess = "|RtmpSampleAccess"
)
