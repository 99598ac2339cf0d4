package transfer

import (
	"fmt"
)

// Chunk is an inclusive byte range of the source object
type Chunk struct {
	Index int
	Start int64
	End   int64
	Last  bool
}

// Size returns the number of bytes in the chunk
func (c Chunk) Size() int64 {
	return c.End - c.Start + 1
}

// Plan splits TotalSize bytes into Count chunks of ChunkSize, the last one possibly shorter.
type Plan struct {
	ChunkSize int64
	TotalSize int64
	Count     int
}

// NewPlan computes the plan for an object of totalSize bytes. An empty object has no chunks.
func NewPlan(totalSize, chunkSize int64) (Plan, error) {
	if chunkSize <= 0 {
		return Plan{}, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if totalSize < 0 {
		return Plan{}, fmt.Errorf("object size must not be negative, got %d", totalSize)
	}

	return Plan{
		ChunkSize: chunkSize,
		TotalSize: totalSize,
		Count:     int((totalSize + chunkSize - 1) / chunkSize),
	}, nil
}

// Chunk returns the i-th chunk. i must be in [0, Count).
func (p Plan) Chunk(i int) Chunk {
	start := int64(i) * p.ChunkSize
	end := start + p.ChunkSize - 1
	if end > p.TotalSize-1 {
		end = p.TotalSize - 1
	}
	return Chunk{
		Index: i,
		Start: start,
		End:   end,
		Last:  i == p.Count-1,
	}
}

// Chunks returns all chunks in upload order
func (p Plan) Chunks() []Chunk {
	chunks := make([]Chunk, 0, p.Count)
	for i := 0; i < p.Count; i++ {
		chunks = append(chunks, p.Chunk(i))
	}
	return chunks
}
