package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	Log struct {
		Level   string `yaml:"level" desc:"日志级别" enum:"trace,debug,info,warn,error"`
		NoColor bool   `yaml:"nocolor" desc:"关闭彩色输出"`
		File    string `yaml:"file" desc:"json日志文件"`
	}
	Remux struct {
		Input  string `yaml:"input" desc:"mp4文件路径"`
		Output string `yaml:"output" desc:"输出的flv文件路径，为空则只解析"`
		Audio  bool   `yaml:"audio" desc:"输出音频"`
		Video  bool   `yaml:"video" desc:"输出视频"`
		Seek   uint32 `yaml:"seek" desc:"从该时间(毫秒)开始输出"`
		// DefaultAudioConfig 当 esds 中没有 DecoderSpecificInfo 时使用，十六进制字符串
		DefaultAudioConfig string `yaml:"defaultaudioconfig"`
	}
	Config struct {
		Log   Log   `yaml:"log"`
		Remux Remux `yaml:"remux"`
	}
)

func Default() *Config {
	return &Config{
		Log: Log{Level: "info"},
		Remux: Remux{
			Audio:              true,
			Video:              true,
			DefaultAudioConfig: "1310",
		},
	}
}

// Load 读取 yaml 配置文件，文件不存在时返回默认配置
func Load(path string) (*Config, error) {
	conf := Default()
	if path == "" {
		return conf, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return conf, nil
	}
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err = conf.Remux.AudioConfig(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (r *Remux) AudioConfig() ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimSpace(r.DefaultAudioConfig), "0x")
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("defaultaudioconfig: %w", err)
	}
	return b, nil
}
