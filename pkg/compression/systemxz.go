package compression

import (
	"bytes"
	"os/exec"
)

// SystemXZ implements Compression and calls out to the system's compressor
// (except for Decode which uses the Go-based decompressor). The system's
// compressor is typically faster and generates smaller files than the Go-based
// implementation.
type SystemXZ struct {
	xzPath string
}

// Name returns the type of compression employed.
func (c *SystemXZ) Name() string {
	return "XZ"
}

// Decode decodes a byte slice of xz data.
func (c *SystemXZ) Decode(encodedData []byte) ([]byte, error) {
	return (&XZ{}).Decode(encodedData)
}

// Encode encodes a byte slice with xz.
func (c *SystemXZ) Encode(decodedData []byte) ([]byte, error) {
	cmd := exec.Command(c.xzPath, "--format=xz", "--check=crc64", "-7", "--stdout")
	cmd.Stdin = bytes.NewBuffer(decodedData)
	return cmd.Output()
}
