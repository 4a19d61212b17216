package onfi

import (
	"fmt"
	"io"
)

// ParamPageReader is the controller primitive that reads from the
// parameter page address space of a NAND part. It must fill out completely
// or return an error.
type ParamPageReader interface {
	ParamPageReadAt(offset uint32, out []byte) error
}

// Buffer holds a parameter page address space image, e.g. a dump taken
// with a programmer.
type Buffer []byte

// ParamPageReadAt implements ParamPageReader for Buffer.
func (b Buffer) ParamPageReadAt(offset uint32, out []byte) error {
	if uint64(offset)+uint64(len(out)) > uint64(len(b)) {
		return fmt.Errorf("read [%#x:%#x] beyond image of %#x bytes: %w",
			offset, uint64(offset)+uint64(len(out)), len(b), io.ErrUnexpectedEOF)
	}
	copy(out, b[offset:])
	return nil
}

// ReaderAt adapts an io.ReaderAt, such as an open dump file.
type ReaderAt struct {
	R io.ReaderAt
}

// ParamPageReadAt implements ParamPageReader for ReaderAt.
func (r ReaderAt) ParamPageReadAt(offset uint32, out []byte) error {
	n, err := r.R.ReadAt(out, int64(offset))
	if n == len(out) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("read %d of %d bytes at %#x: %w", n, len(out), offset, err)
}
