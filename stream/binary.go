// Package stream provides the byte-stream primitives used to persist model
// structures: fixed-size records and length-prefixed integer sequences,
// little-endian throughout.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncated reports that the underlying source ran out of data in the
// middle of a record. A truncated model stream must never be partially
// applied by callers.
var ErrTruncated = errors.New("truncated stream")

// maxSeqLen bounds length prefixes read from untrusted streams. Node index
// sequences are tiny in practice; anything near this bound is corruption.
const maxSeqLen = 1 << 20

// BinaryWriter writes records to an io.Writer.
type BinaryWriter struct {
	w io.Writer
}

func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{w: w}
}

// WriteRecord writes v verbatim. v must have a fixed size as understood by
// encoding/binary.
func (bw *BinaryWriter) WriteRecord(v any) error {
	return binary.Write(bw.w, binary.LittleEndian, v)
}

// WriteInt32s writes a uint64 element count followed by the elements.
func (bw *BinaryWriter) WriteInt32s(xs []int32) error {
	if err := binary.Write(bw.w, binary.LittleEndian, uint64(len(xs))); err != nil {
		return err
	}
	return binary.Write(bw.w, binary.LittleEndian, xs)
}

// BinaryReader reads records from an io.Reader. Any end-of-stream hit while
// a record is pending is reported as ErrTruncated.
type BinaryReader struct {
	r io.Reader
}

func NewBinaryReader(r io.Reader) *BinaryReader {
	return &BinaryReader{r: r}
}

// ReadRecord fills v from the stream.
func (br *BinaryReader) ReadRecord(v any) error {
	if err := binary.Read(br.r, binary.LittleEndian, v); err != nil {
		return mapEOF(err)
	}
	return nil
}

// ReadInt32s reads a uint64 element count followed by the elements.
func (br *BinaryReader) ReadInt32s() ([]int32, error) {
	var n uint64
	if err := binary.Read(br.r, binary.LittleEndian, &n); err != nil {
		return nil, mapEOF(err)
	}
	if n > maxSeqLen {
		return nil, fmt.Errorf("sequence length %d out of range", n)
	}
	xs := make([]int32, n)
	if err := binary.Read(br.r, binary.LittleEndian, xs); err != nil {
		return nil, mapEOF(err)
	}
	return xs, nil
}

func mapEOF(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
