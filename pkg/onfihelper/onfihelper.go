package onfihelper

import (
	"errors"
	"os"
	"strings"

	"github.com/tinytoy-sec/onfiprobe/pkg/compression"
	"github.com/tinytoy-sec/onfiprobe/pkg/log"
	"github.com/tinytoy-sec/onfiprobe/pkg/onfi"
	"github.com/tinytoy-sec/onfiprobe/pkg/visitors"
)

// Load returns the parameter page address space stored at path. path may be
// a raw dump, an xz-compressed dump or a directory written by extract.
func Load(path string) (onfi.Buffer, error) {
	f, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if f.Mode().IsDir() {
		pd := visitors.ParseDir{BasePath: path}
		return pd.Parse()
	}
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	image, decoded, err := compression.Decompress(image)
	if err != nil {
		return nil, err
	}
	if decoded {
		log.Debugf("%s: decompressed to %d bytes", path, len(image))
	}
	return image, nil
}

// Run probes the image named by args[0] and applies the visitors named by
// the remaining arguments.
func Run(opts []onfi.Option, args ...string) error {
	if len(args) == 0 {
		return errors.New("at least one argument is required")
	}

	v, err := visitors.ParseCLI(args[1:])
	if err != nil {
		return err
	}

	image, err := Load(args[0])
	if err != nil {
		return err
	}
	p, err := onfi.NewProber(image, opts...)
	if err != nil {
		return err
	}
	part, err := p.Probe(onfi.HeapAllocator{})
	if err != nil {
		return err
	}

	return visitors.ExecuteCLI(part, v)
}

// Synth writes the image described by spec to path, xz-compressed when path
// ends in ".xz".
func Synth(path string, spec onfi.ImageSpec) error {
	image, err := onfi.BuildImage(spec)
	if err != nil {
		return err
	}
	if strings.HasSuffix(path, ".xz") {
		if image, err = compression.Default().Encode(image); err != nil {
			return err
		}
	}
	return os.WriteFile(path, image, 0666)
}
