package box

import "fmt"

// SampleTable 一个 track 的 stbl 中与样本位置、时间有关的表
type SampleTable struct {
	SampleToChunk     *SampleToChunkBox
	SampleSize        *SampleSizeBox
	ChunkOffset       *ChunkOffsetBox
	TimeToSample      *TimeToSampleBox
	CompositionOffset *CompositionOffsetBox
	SyncSample        *SyncSampleBox
	// SourceSize 文件的字节数，0 表示未知。统一大小的 stsz 样本数不能超过它
	SourceSize int64
}

func (t *SampleTable) add(p Payload) {
	switch p := p.(type) {
	case *SampleToChunkBox:
		t.SampleToChunk = p
	case *SampleSizeBox:
		t.SampleSize = p
	case *ChunkOffsetBox:
		t.ChunkOffset = p
	case *TimeToSampleBox:
		t.TimeToSample = p
	case *CompositionOffsetBox:
		t.CompositionOffset = p
	case *SyncSampleBox:
		t.SyncSample = p
	}
}

func (t *SampleTable) check() error {
	switch {
	case t.SampleToChunk == nil:
		return fmt.Errorf("%w: missing stsc", ErrSampleTable)
	case t.SampleSize == nil:
		return fmt.Errorf("%w: missing stsz", ErrSampleTable)
	case t.ChunkOffset == nil:
		return fmt.Errorf("%w: missing stco", ErrSampleTable)
	case t.TimeToSample == nil:
		return fmt.Errorf("%w: missing stts", ErrSampleTable)
	}
	return nil
}

// BuildChunks 根据 stsc/stsz/stco 还原 chunk 与样本，再用 stts/ctts 填充时间。
// 只有 stss 中列出的样本才标记为同步样本，没有 stss 时全部为 false。
func (t *SampleTable) BuildChunks(timescale uint32) ([]Chunk, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	if timescale == 0 {
		return nil, fmt.Errorf("%w: timescale is 0", ErrSampleTable)
	}
	if stsz := t.SampleSize; stsz.SampleSize != 0 && t.SourceSize > 0 && int64(stsz.SampleCount) > t.SourceSize {
		return nil, fmt.Errorf("%w: stsz sample count %d exceeds source size %d", ErrSampleTable, stsz.SampleCount, t.SourceSize)
	}
	chunks, err := t.assemble()
	if err != nil {
		return nil, err
	}
	t.applyTiming(chunks, timescale)
	t.applyCompositionOffsets(chunks, timescale)
	return chunks, nil
}

func (t *SampleTable) assemble() (chunks []Chunk, err error) {
	var syncSamples map[uint32]struct{}
	if t.SyncSample != nil {
		syncSamples = t.SyncSample.Set()
	}
	offsets := t.ChunkOffset.Offsets
	entries := t.SampleToChunk.Entries
	stcoIndex, stszIndex := 0, 0
	for i, entry := range entries {
		var lastChunk int
		if i+1 == len(entries) {
			if i == 0 {
				lastChunk = len(offsets)
			} else {
				// 最后一段只延伸到序号为 first_chunk 的 chunk
				lastChunk = int(entry.FirstChunk)
			}
		} else {
			lastChunk = int(entries[i+1].FirstChunk) - 1
		}
		for j := stcoIndex; j < lastChunk; j++ {
			if stcoIndex >= len(offsets) {
				return nil, &TableError{Table: "stco", Index: stcoIndex, Available: len(offsets)}
			}
			if remain := t.SampleSize.Len() - stszIndex; int64(entry.SamplesPerChunk) > int64(remain) {
				return nil, &TableError{Table: "stsz", Index: t.SampleSize.Len(), Available: t.SampleSize.Len()}
			}
			chunk := Chunk{
				FileOffset:      offsets[stcoIndex],
				SampleDescIndex: entry.SampleDescriptionIndex,
				Samples:         make([]Sample, 0, entry.SamplesPerChunk),
			}
			stcoIndex++
			var sampleOffset uint64
			for k := uint32(0); k < entry.SamplesPerChunk; k++ {
				size, _ := t.SampleSize.Size(stszIndex)
				stszIndex++
				sample := Sample{
					Size:       size,
					FileOffset: chunk.FileOffset + sampleOffset,
					Chunk:      len(chunks),
				}
				_, sample.SyncSample = syncSamples[uint32(stszIndex)]
				sampleOffset += uint64(size)
				chunk.Samples = append(chunk.Samples, sample)
			}
			chunks = append(chunks, chunk)
		}
	}
	return
}

// sampleWalker 按解码顺序遍历所有 chunk 中的样本
type sampleWalker struct {
	chunks []Chunk
	chunk  int
	sample int
}

func (w *sampleWalker) next() *Sample {
	for w.chunk < len(w.chunks) {
		if samples := w.chunks[w.chunk].Samples; w.sample < len(samples) {
			w.sample++
			return &samples[w.sample-1]
		}
		w.chunk++
		w.sample = 0
	}
	return nil
}

func (t *SampleTable) applyTiming(chunks []Chunk, timescale uint32) {
	w := sampleWalker{chunks: chunks}
	var rawTime uint64
	for _, entry := range t.TimeToSample.Entries {
		duration := ConvertTimeScale(uint64(entry.SampleDelta), timescale)
		for n := uint32(0); n < entry.SampleCount; n++ {
			sample := w.next()
			if sample == nil {
				return
			}
			sample.Duration = duration
			sample.Time = ConvertTimeScale(rawTime, timescale)
			rawTime += uint64(entry.SampleDelta)
		}
	}
}

func (t *SampleTable) applyCompositionOffsets(chunks []Chunk, timescale uint32) {
	if t.CompositionOffset == nil {
		return
	}
	w := sampleWalker{chunks: chunks}
	for i, entry := range t.CompositionOffset.Entries {
		offset := ConvertTimeScale(uint64(t.CompositionOffset.Offset(i)), timescale)
		for n := uint32(0); n < entry.SampleCount; n++ {
			sample := w.next()
			if sample == nil {
				return
			}
			sample.CompositionTimeOffset = offset
		}
	}
}
