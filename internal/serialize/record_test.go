package serialize

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func buildRecord(t *testing.T, allocator memory.Allocator) arrow.Record {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "host", Type: arrow.BinaryTypes.String},
		{Name: "region", Type: arrow.BinaryTypes.String},
	}, nil)

	builder := array.NewRecordBuilder(allocator, schema)
	defer builder.Release()

	builder.Field(0).(*array.StringBuilder).AppendValues([]string{"a", "b"}, nil)
	builder.Field(1).(*array.StringBuilder).AppendValues([]string{"us-east", "us-west"}, nil)
	return builder.NewRecord()
}

func TestRecordRoundTrip(t *testing.T) {
	allocator := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer allocator.AssertSize(t, 0)

	rec := buildRecord(t, allocator)
	defer rec.Release()

	data, err := EncodeRecord(rec, allocator)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeRecord(data, allocator)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	defer decoded.Release()

	if !decoded.Schema().Equal(rec.Schema()) {
		t.Errorf("schema mismatch: got %v, want %v", decoded.Schema(), rec.Schema())
	}
	if decoded.NumRows() != rec.NumRows() {
		t.Errorf("rows = %d, want %d", decoded.NumRows(), rec.NumRows())
	}
	got := decoded.Column(0).(*array.String)
	if got.Value(0) != "a" || got.Value(1) != "b" {
		t.Errorf("host column = [%s %s], want [a b]", got.Value(0), got.Value(1))
	}
}

func TestDecodeRecordRejectsGarbage(t *testing.T) {
	if _, err := DecodeRecord([]byte("not a snapshot"), memory.DefaultAllocator); err == nil {
		t.Errorf("expected an error for garbage input")
	}
}
