package pkg

import "errors"

var (
	ErrNoPlayableTrack = errors.New("no playable track")
	ErrSeekOutOfRange  = errors.New("seek out of range")
	ErrNoInput         = errors.New("no input file")
)
