package visitors

import (
	"encoding/json"
	"io"
	"os"

	"github.com/tinytoy-sec/onfiprobe/pkg/onfi"
)

// JSON 输出探测结果。DescriptorOnly 为真时只输出器件描述符，
// 否则输出整个树：描述符、接受的页副本和扩展页section。
type JSON struct {
	W              io.Writer
	DescriptorOnly bool
}

// Run 从根节点开始输出一次
func (v *JSON) Run(e onfi.Element) error {
	return e.Apply(v)
}

// Visit 编码节点；器件节点在 DescriptorOnly 时换成它的描述符
func (v *JSON) Visit(e onfi.Element) error {
	var value interface{} = e
	if p, ok := e.(*onfi.Part); ok && v.DescriptorOnly {
		value = p.Descriptor
	}
	enc := json.NewEncoder(v.W)
	enc.SetIndent("", "\t")
	return enc.Encode(value)
}

func init() {
	RegisterCLI("json", "以JSON输出描述符、参数页副本和section", nil, func(args []string) (onfi.Visitor, error) {
		return &JSON{W: os.Stdout}, nil
	})
	RegisterCLI("descriptor", "只以JSON输出器件描述符（几何、ECC、版本）", nil, func(args []string) (onfi.Visitor, error) {
		return &JSON{W: os.Stdout, DescriptorOnly: true}, nil
	})
}
