package holder

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/klauspost/compress/zstd"
)

// spillCache holds a PolarsLazyHolder's cached materialization as an
// in-memory byte slice of zstd-compressed Arrow IPC once it grows past a
// size threshold,
// rehydrating it into record batches on the next read. This bounds how much
// heap a single lazy cache can pin, the way the catalog's own zstd-backed
// serialization bounds wire payload size.
type spillCache struct {
	mem        memory.Allocator
	schema     *arrow.Schema
	compressed []byte
}

// spill serializes chunks to Arrow IPC and compresses the result. The
// caller retains ownership of chunks; spill does not release them.
func spill(mem memory.Allocator, schema *arrow.Schema, chunks []arrow.Record) (*spillCache, error) {
	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	for _, rec := range chunks {
		if err := writer.Write(rec); err != nil {
			return nil, fmt.Errorf("holder: spill: write ipc batch: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("holder: spill: close ipc writer: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("holder: spill: new zstd encoder: %w", err)
	}
	defer encoder.Close()

	compressed := encoder.EncodeAll(buf.Bytes(), make([]byte, 0, buf.Len()/2))
	return &spillCache{mem: mem, schema: schema, compressed: compressed}, nil
}

// rehydrate decompresses and decodes the spilled batches back into
// arrow.Record values owned by the caller.
func (s *spillCache) rehydrate() ([]arrow.Record, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("holder: rehydrate: new zstd decoder: %w", err)
	}
	defer decoder.Close()

	raw, err := decoder.DecodeAll(s.compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("holder: rehydrate: decompress: %w", err)
	}

	reader, err := ipc.NewReader(bytes.NewReader(raw), ipc.WithAllocator(s.mem))
	if err != nil {
		return nil, fmt.Errorf("holder: rehydrate: new ipc reader: %w", err)
	}
	defer reader.Release()

	var out []arrow.Record
	for reader.Next() {
		rec := reader.RecordBatch()
		rec.Retain()
		out = append(out, rec)
	}
	if err := reader.Err(); err != nil {
		for _, rec := range out {
			rec.Release()
		}
		return nil, fmt.Errorf("holder: rehydrate: read ipc batches: %w", err)
	}
	return out, nil
}

// sizeOf estimates a record's resident footprint well enough to decide
// whether a cache is worth spilling. It counts cells rather than walking
// buffer internals, which is a rough but allocation-free heuristic.
func sizeOf(rec arrow.Record) int64 {
	return rec.NumRows() * rec.NumCols() * 8
}
