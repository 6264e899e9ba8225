package main

/*
mp4 点播转 flv

	vod -c config.yaml
	vod -i input.mp4 -o output.flv -seek 5000
	vod -echo output.flv

配置文件见 pkg/config，命令行参数优先于配置文件
*/

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"m7s.live/vod/v5/pkg"
	"m7s.live/vod/v5/pkg/config"
	flv "m7s.live/vod/v5/plugin/flv/pkg"
	mp4 "m7s.live/vod/v5/plugin/mp4/pkg"
	"m7s.live/vod/v5/plugin/mp4/pkg/box"
)

func main() {
	conf := flag.String("c", "config.yaml", "config file")
	input := flag.String("i", "", "input mp4 file")
	output := flag.String("o", "", "output flv file")
	seek := flag.Uint("seek", 0, "start time in milliseconds")
	echo := flag.String("echo", "", "print tags of a flv file")
	logLevel := flag.String("loglevel", "", "trace|debug|info|warn|error")
	flag.Parse()
	if err := run(*conf, *input, *output, uint32(*seek), *echo, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(confPath, input, output string, seek uint32, echo, logLevel string) (err error) {
	cfg, err := config.Load(confPath)
	if err != nil {
		return
	}
	if input != "" {
		cfg.Remux.Input = input
	}
	if output != "" {
		cfg.Remux.Output = output
	}
	if seek > 0 {
		cfg.Remux.Seek = seek
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	var logFile io.Writer
	if cfg.Log.File != "" {
		var f *os.File
		if f, err = os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err != nil {
			return
		}
		defer f.Close()
		logFile = f
	}
	logger := pkg.NewLogger(os.Stdout, logFile, cfg.Log.Level, cfg.Log.NoColor)
	if echo != "" {
		return echoFLV(echo, logger)
	}
	return remux(&cfg.Remux, logger)
}

func echoFLV(path string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return flv.Echo(f, logger.With("file", path))
}

func remux(cfg *config.Remux, logger *slog.Logger) (err error) {
	if cfg.Input == "" {
		return pkg.ErrNoInput
	}
	logger = logger.With("input", cfg.Input)
	f, err := os.Open(cfg.Input)
	if err != nil {
		return
	}
	defer f.Close()
	movie, err := box.ParseMovie(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", cfg.Input, err)
	}
	logger.Info("movie", "duration", movie.Duration, "moov", movie.MoovPosition, "tracks", len(movie.Tracks))
	for _, track := range movie.Tracks {
		args := []any{"id", track.ID(), "timescale", track.TimeScale(), "duration", track.Duration(), "samples", track.SampleCount()}
		if entry := track.SampleEntry(); entry != nil {
			args = append(args, "type", entry.Type)
		}
		logger.Info("track", args...)
	}
	audioConfig, err := cfg.AudioConfig()
	if err != nil {
		return
	}
	reader, err := mp4.NewReader(movie, f, logger, mp4.WithTracks(cfg.Audio, cfg.Video), mp4.WithDefaultAudioConfig(audioConfig))
	if err != nil {
		return
	}
	if cfg.Seek > 0 {
		var start uint32
		if start, err = reader.Seek(cfg.Seek); err != nil {
			return
		}
		logger.Info("seek", "target", cfg.Seek, "start", start)
	}
	if cfg.Output == "" {
		return nil
	}
	out, err := os.Create(cfg.Output)
	if err != nil {
		return
	}
	if err = reader.Remux(out); err != nil {
		out.Close()
		return fmt.Errorf("remux %s: %w", cfg.Output, err)
	}
	return out.Close()
}
