package compression

import (
	"bytes"
	"io"
	"os/exec"

	"github.com/spf13/pflag"
	"github.com/ulikunitz/xz"
)

var xzPath = pflag.String("xz-path", "xz", "用于xz编码的系统xz命令的路径。如果未找到，则使用内部xz实现.")

// Compressor defines a single compression scheme (such as XZ).
type Compressor interface {
	// Name is typically the name of a class.
	Name() string

	// Decode and Encode obey "x == Decode(Encode(x))".
	Decode(encodedData []byte) ([]byte, error)
	Encode(decodedData []byte) ([]byte, error)
}

// XZ implements Compressor with the pure Go xz package.
type XZ struct{}

// Name returns the type of compression employed.
func (c *XZ) Name() string {
	return "XZ"
}

// Decode decodes a byte slice of xz data.
func (c *XZ) Decode(encodedData []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(encodedData))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Encode encodes a byte slice with xz.
func (c *XZ) Encode(decodedData []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	w, err := xz.NewWriter(buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(decodedData); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Default returns the system xz command if it can be found, the internal
// implementation otherwise.
func Default() Compressor {
	if _, err := exec.LookPath(*xzPath); err == nil {
		return &SystemXZ{*xzPath}
	}
	return &XZ{}
}

// CompressorFromName returns the Compressor with the given name, or nil.
func CompressorFromName(name string) Compressor {
	switch name {
	case "XZ":
		return &XZ{}
	case "SystemXZ":
		return Default()
	}
	return nil
}

// IsXZ reports whether data starts with an xz stream header.
func IsXZ(data []byte) bool {
	return len(data) >= xz.HeaderLen && xz.ValidHeader(data[:xz.HeaderLen])
}

// Decompress decodes data if it is an xz stream and returns it unchanged
// otherwise. The bool reports whether anything was decoded.
func Decompress(data []byte) ([]byte, bool, error) {
	if !IsXZ(data) {
		return data, false, nil
	}
	out, err := (&XZ{}).Decode(data)
	if err != nil {
		return nil, true, err
	}
	return out, true, nil
}
