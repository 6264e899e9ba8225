package box

import (
	"cmp"
	"math"
	"math/bits"
)

// Sample 的时间单位均为毫秒
type Sample struct {
	Size                  uint32
	Duration              uint32
	Time                  uint32
	CompositionTimeOffset uint32
	SyncSample            bool
	FileOffset            uint64
	// Chunk 是所属 chunk 在 TrackInfo.Chunks 中的下标
	Chunk int
}

// PresentationTime 显示时间 = 解码时间 + composition offset
func (s *Sample) PresentationTime() uint32 {
	return s.Time + s.CompositionTimeOffset
}

// CompareSamples 只比较 Time，用于多轨道按时间合并
func CompareSamples(a, b *Sample) int {
	return cmp.Compare(a.Time, b.Time)
}

type Chunk struct {
	FileOffset      uint64
	SampleDescIndex uint32
	Samples         []Sample
}

// ConvertTimeScale 把 timescale 单位的值换算为毫秒，四舍六入五成双
func ConvertTimeScale(raw uint64, timescale uint32) uint32 {
	if timescale == 0 {
		return 0
	}
	ts := uint64(timescale)
	hi, lo := bits.Mul64(raw, 1000)
	if hi >= ts {
		return math.MaxUint32
	}
	q, r := bits.Div64(hi, lo, ts)
	if r2 := r * 2; r2 > ts || (r2 == ts && q&1 == 1) {
		q++
	}
	if q > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(q)
}
