package box

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(stsc []SampleToChunkEntry, sizes []uint32, offsets []uint64, stts []TimeToSampleEntry) *SampleTable {
	return &SampleTable{
		SampleToChunk: &SampleToChunkBox{Entries: stsc},
		SampleSize:    &SampleSizeBox{EntrySizes: sizes, SampleCount: uint32(len(sizes))},
		ChunkOffset:   &ChunkOffsetBox{Offsets: offsets},
		TimeToSample:  &TimeToSampleBox{Entries: stts},
	}
}

func samplesPerChunk(chunks []Chunk) (counts []int) {
	for _, c := range chunks {
		counts = append(counts, len(c.Samples))
	}
	return
}

func TestBuildChunksRuns(t *testing.T) {
	sizes := []uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	table := newTable(
		[]SampleToChunkEntry{{1, 3, 1}, {4, 2, 1}},
		sizes,
		[]uint64{1000, 2000, 3000, 4000},
		[]TimeToSampleEntry{{11, 1000}},
	)
	chunks, err := table.BuildChunks(1000)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 3, 2}, samplesPerChunk(chunks))

	n := 0
	for i, c := range chunks {
		assert.Equal(t, uint64(1000*(i+1)), c.FileOffset)
		assert.Equal(t, uint32(1), c.SampleDescIndex)
		for j, s := range c.Samples {
			assert.Equal(t, sizes[n], s.Size)
			assert.Equal(t, i, s.Chunk)
			if j == 0 {
				assert.Equal(t, c.FileOffset, s.FileOffset)
			} else {
				prev := c.Samples[j-1]
				assert.Equal(t, prev.FileOffset+uint64(prev.Size), s.FileOffset)
			}
			assert.False(t, s.SyncSample, "without stss no sample is marked sync")
			n++
		}
	}
}

func TestBuildChunksSingleRun(t *testing.T) {
	table := newTable(
		[]SampleToChunkEntry{{1, 2, 1}},
		[]uint32{1, 1, 1, 1, 1, 1},
		[]uint64{10, 20, 30},
		[]TimeToSampleEntry{{6, 1}},
	)
	chunks, err := table.BuildChunks(1000)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, samplesPerChunk(chunks), "a single run covers every chunk offset")
}

func TestBuildChunksLastRun(t *testing.T) {
	// 多段时最后一段只到序号为 first_chunk 的 chunk，多余的 offset 不产生 chunk
	table := newTable(
		[]SampleToChunkEntry{{1, 1, 1}, {2, 2, 2}},
		[]uint32{1, 1, 1, 1, 1},
		[]uint64{10, 20, 30, 40},
		[]TimeToSampleEntry{{5, 1}},
	)
	chunks, err := table.BuildChunks(1000)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, samplesPerChunk(chunks))
	assert.Equal(t, uint32(2), chunks[1].SampleDescIndex)
}

func TestBuildChunksExhausted(t *testing.T) {
	t.Run("stsz", func(t *testing.T) {
		table := newTable([]SampleToChunkEntry{{1, 3, 1}}, []uint32{1, 2, 3, 4}, []uint64{0, 100}, nil)
		_, err := table.BuildChunks(1000)
		require.ErrorIs(t, err, ErrSampleTable)
		var te *TableError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "stsz", te.Table)
		assert.Equal(t, 4, te.Index)
		assert.Equal(t, 4, te.Available)
	})
	t.Run("stco", func(t *testing.T) {
		table := newTable([]SampleToChunkEntry{{1, 1, 1}, {5, 1, 1}}, []uint32{1, 1, 1, 1, 1}, []uint64{0, 1}, nil)
		_, err := table.BuildChunks(1000)
		var te *TableError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "stco", te.Table)
		assert.Equal(t, 2, te.Available)
	})
	t.Run("missing table", func(t *testing.T) {
		table := newTable(nil, nil, nil, nil)
		table.TimeToSample = nil
		_, err := table.BuildChunks(1000)
		assert.ErrorIs(t, err, ErrSampleTable)
	})
	t.Run("zero timescale", func(t *testing.T) {
		table := newTable(nil, nil, nil, nil)
		_, err := table.BuildChunks(0)
		assert.ErrorIs(t, err, ErrSampleTable)
	})
}

func TestBuildChunksOversizedChunk(t *testing.T) {
	t.Run("samples per chunk", func(t *testing.T) {
		table := newTable([]SampleToChunkEntry{{1, math.MaxUint32, 1}}, []uint32{10}, []uint64{100}, []TimeToSampleEntry{{1, 1}})
		chunks, err := table.BuildChunks(1000)
		require.ErrorIs(t, err, ErrSampleTable)
		assert.Nil(t, chunks)
		var te *TableError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "stsz", te.Table)
		assert.Equal(t, 1, te.Available)
	})
	t.Run("uniform sample count", func(t *testing.T) {
		table := newTable([]SampleToChunkEntry{{1, math.MaxUint32, 1}}, nil, []uint64{100}, nil)
		table.SampleSize = &SampleSizeBox{SampleSize: 1, SampleCount: math.MaxUint32}
		table.SourceSize = 100
		_, err := table.BuildChunks(1000)
		assert.ErrorIs(t, err, ErrSampleTable)

		// 文件足够大时照常展开
		table.SampleSize.SampleCount = 4
		table.SampleToChunk.Entries[0].SamplesPerChunk = 4
		chunks, err := table.BuildChunks(1000)
		require.NoError(t, err)
		assert.Equal(t, []int{4}, samplesPerChunk(chunks))
	})
}

func TestBuildChunksUniformSize(t *testing.T) {
	table := newTable([]SampleToChunkEntry{{1, 2, 1}}, nil, []uint64{100, 200}, []TimeToSampleEntry{{4, 512}})
	table.SampleSize = &SampleSizeBox{SampleSize: 7, SampleCount: 4}
	chunks, err := table.BuildChunks(44100)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, uint64(107), chunks[0].Samples[1].FileOffset)
	assert.Equal(t, uint64(207), chunks[1].Samples[1].FileOffset)
	for _, c := range chunks {
		for _, s := range c.Samples {
			assert.Equal(t, uint32(7), s.Size)
		}
	}
}

func times(chunks []Chunk) (out [][2]uint32) {
	for _, c := range chunks {
		for _, s := range c.Samples {
			out = append(out, [2]uint32{s.Time, s.Duration})
		}
	}
	return
}

func TestBuildChunksTiming(t *testing.T) {
	build := func(timescale uint32, count uint32, stts ...TimeToSampleEntry) []Chunk {
		sizes := make([]uint32, count)
		table := newTable([]SampleToChunkEntry{{1, count, 1}}, sizes, []uint64{0}, stts)
		chunks, err := table.BuildChunks(timescale)
		require.NoError(t, err)
		return chunks
	}
	assert.Equal(t, [][2]uint32{{0, 1000}, {1000, 1000}}, times(build(1000, 2, TimeToSampleEntry{2, 1000})))
	assert.Equal(t, [][2]uint32{{0, 333}, {333, 333}}, times(build(3000, 2, TimeToSampleEntry{2, 1000})))
	// 时间先累加原始值再换算，第三个样本是 667 而不是 666
	assert.Equal(t, [][2]uint32{{0, 333}, {333, 333}, {667, 333}}, times(build(3000, 3, TimeToSampleEntry{3, 1000})))
	assert.Equal(t, [][2]uint32{{0, 10}, {10, 20}, {30, 20}}, times(build(1000, 3, TimeToSampleEntry{1, 10}, TimeToSampleEntry{2, 20})))
	// stts 比样本多时提前结束
	assert.Equal(t, [][2]uint32{{0, 40}, {40, 40}}, times(build(1000, 2, TimeToSampleEntry{10, 40})))
}

func TestBuildChunksSyncAndComposition(t *testing.T) {
	table := newTable([]SampleToChunkEntry{{1, 2, 1}}, []uint32{1, 1, 1, 1}, []uint64{0, 2}, []TimeToSampleEntry{{4, 3000}})
	table.SyncSample = &SyncSampleBox{SampleNumbers: []uint32{1, 3}}
	table.CompositionOffset = &CompositionOffsetBox{Entries: []CompositionOffsetEntry{{1, 6000}, {2, 3000}}}
	chunks, err := table.BuildChunks(90000)
	require.NoError(t, err)

	var sync []bool
	var cts []uint32
	for _, c := range chunks {
		for _, s := range c.Samples {
			sync = append(sync, s.SyncSample)
			cts = append(cts, s.CompositionTimeOffset)
		}
	}
	assert.Equal(t, []bool{true, false, true, false}, sync)
	assert.Equal(t, []uint32{67, 33, 33, 0}, cts, "offsets beyond the table stay zero")
	assert.Equal(t, uint32(100), chunks[1].Samples[0].PresentationTime())
}

func TestConvertTimeScale(t *testing.T) {
	for _, tc := range []struct {
		raw       uint64
		timescale uint32
		want      uint32
	}{
		{1000, 1000, 1000},
		{1000, 3000, 333},
		{2000, 3000, 667},
		{1, 2000, 0},
		{3, 2000, 2},
		{5, 2000, 2},
		{7, 2000, 4},
		{1001, 30000, 33},
		{1024, 48000, 21},
		{0, 0, 0},
		{math.MaxUint64, 1, math.MaxUint32},
	} {
		assert.Equal(t, tc.want, ConvertTimeScale(tc.raw, tc.timescale), "%d/%d", tc.raw, tc.timescale)
	}
}

func TestCompareSamples(t *testing.T) {
	a := &Sample{Time: 10, Size: 1}
	b := &Sample{Time: 10, Size: 2}
	c := &Sample{Time: 11}
	assert.Equal(t, 0, CompareSamples(a, b))
	assert.Equal(t, -1, CompareSamples(a, c))
	assert.Equal(t, 1, CompareSamples(c, b))
}
