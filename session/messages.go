package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"voiceink/audio"
	"voiceink/postprocess"
	"voiceink/transcriber"
)

const (
	msgTapIgnored   = "按键时间太短，未启动录音"
	msgNoAudio      = "未检测到录音数据"
	msgNoSpeech     = "未检测到语音内容"
	msgCaptureStart = "录音启动失败: %v"
	msgTranscribing = "正在转写..."
	msgInserted     = "转写完成"
	msgCopied       = "转写完成，已复制到剪贴板"
)

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func msgTooShort(min time.Duration) string {
	return fmt.Sprintf("录音时间太短(小于%s秒)，已取消", seconds(min))
}

func msgTruncated(max time.Duration) string {
	return fmt.Sprintf("录音时间过长(超过%s秒)，仅保留前%s秒", seconds(max), seconds(max))
}

// describe turns a pipeline or insertion error into a status line.
func describe(err error) string {
	var cfgErr *transcriber.ConfigError
	var apiErr *transcriber.Error
	var ppErr *postprocess.Error
	var capErr *audio.CaptureError
	switch {
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("请先在设置中配置%s的%s", cfgErr.Provider, cfgErr.Field)
	case errors.As(err, &apiErr) && apiErr.Status != 0:
		return fmt.Sprintf("%s转写失败 (状态码: %d)", apiErr.Provider, apiErr.Status)
	case errors.As(err, &apiErr):
		return fmt.Sprintf("%s转写失败: %v", apiErr.Provider, apiErr.Err)
	case errors.As(err, &ppErr):
		return fmt.Sprintf("%s后处理失败，已使用原始文本", ppErr.Provider)
	case errors.As(err, &capErr):
		return fmt.Sprintf(msgCaptureStart, capErr.Err)
	}
	return err.Error()
}
