// Package serialize provides Arrow IPC serialization of cache contents.
// Used to export point-in-time snapshots of a distinct-value cache for
// diagnostics and offline inspection.
package serialize

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// EncodeRecord serializes a record batch to Arrow IPC stream format and
// compresses it with ZStandard.
func EncodeRecord(rec arrow.Record, allocator memory.Allocator) ([]byte, error) {
	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(allocator))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close IPC writer: %w", err)
	}

	compressor, err := NewCompressor()
	if err != nil {
		return nil, err
	}
	defer compressor.Close()

	return compressor.Compress(buf.Bytes())
}

// DecodeRecord decompresses and deserializes a record batch produced by
// EncodeRecord. The caller must release the returned record.
func DecodeRecord(data []byte, allocator memory.Allocator) (arrow.Record, error) {
	decompressor, err := NewDecompressor()
	if err != nil {
		return nil, err
	}
	defer decompressor.Close()

	raw, err := decompressor.Decompress(data)
	if err != nil {
		return nil, err
	}

	reader, err := ipc.NewReader(bytes.NewReader(raw), ipc.WithAllocator(allocator))
	if err != nil {
		return nil, fmt.Errorf("failed to open IPC reader: %w", err)
	}
	defer reader.Release()

	if !reader.Next() {
		if err := reader.Err(); err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		return nil, fmt.Errorf("snapshot contains no record batch")
	}

	rec := reader.Record()
	rec.Retain()
	return rec, nil
}
