package visitors

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/tinytoy-sec/onfiprobe/pkg/onfi"
)

// 以表格形式打印器件描述符和接受的页
type Table struct {
	W io.Writer

	// 私有
	tw *tabwriter.Writer
}

// 包装Visit并在结束时刷新表格
func (v *Table) Run(e onfi.Element) error {
	v.tw = tabwriter.NewWriter(v.W, 0, 8, 2, ' ', 0)
	if err := e.Apply(v); err != nil {
		return err
	}
	return v.tw.Flush()
}

func (v *Table) row(name string, format string, args ...interface{}) {
	fmt.Fprintf(v.tw, "%s\t%s\n", name, fmt.Sprintf(format, args...))
}

// 将Table访问者应用于任何节点类型
func (v *Table) Visit(e onfi.Element) error {
	switch e := e.(type) {
	case *onfi.Part:
		d := e.Descriptor
		v.row("ONFI version", "%v", d.Version)
		v.row("Manufacturer", "%s (JEDEC %#02x)", d.Manufacturer, d.JEDECManufacturerID)
		v.row("Model", "%s", d.Model)
		v.row("Bus width", "x%d", d.BusWidth)
		v.row("Random page program", "%t", d.RandomPageProgram)
		v.row("Page size", "%d + %d spare", d.PageSize, d.SpareSize)
		v.row("Pages per block", "%d", d.PagesPerBlock)
		v.row("Blocks per LUN", "%d", d.BlocksPerLUN)
		v.row("LUNs", "%d", d.NumberOfLUNs)
		v.row("LUN size", "%d bytes", d.LUNSize())
		v.row("Address cycles", "%d row, %d column", d.RowAddressCycles, d.ColumnAddressCycles)
		v.row("Bits per cell", "%d", d.BitsPerCell)
		v.row("Max bad blocks per LUN", "%d", d.MaxBadBlocksPerLUN)
		v.row("Max erase count", "%d", d.MaxEraseCount)
		v.row("Partial page programs", "%d", d.PartialPageProgramCount)
		if d.ECCCorrectionBits == onfi.ECCDeferred {
			v.row("ECC", "deferred, no ECC section")
		} else {
			v.row("ECC", "%d bits per %d bytes", d.ECCCorrectionBits, d.ECCCodewordSize)
		}
		v.row("Defect mark", "%v", d.DefectMark)
		v.row("Parameter pages", "%d", d.ParamPageCount)
		if d.ExtPageLength != 0 {
			v.row("Extended page", "%d bytes", d.ExtPageLength)
		}

	case *onfi.ParameterPage:
		v.row("Accepted parameter page", "copy %d at %#x, CRC %#04x", e.Copy, e.Offset, e.CRC)

	case *onfi.ExtendedPage:
		v.row("Accepted extended page", "copy %d at %#x, CRC %#04x, %d sections", e.Copy, e.Offset, e.CRC, len(e.Sections))
		// Sections visitor lists them.
		return nil
	}
	return e.ApplyChildren(v)
}

// 列出扩展参数页中的所有section
type Sections struct {
	W io.Writer

	// 私有
	tw *tabwriter.Writer
}

// 打印表头并在结束时刷新表格
func (v *Sections) Run(e onfi.Element) error {
	v.tw = tabwriter.NewWriter(v.W, 0, 8, 2, ' ', 0)
	fmt.Fprintln(v.tw, "NAME\tTYPE\tOFFSET\tLENGTH\tDATA")
	if err := e.Apply(v); err != nil {
		return err
	}
	return v.tw.Flush()
}

// 将Sections访问者应用于任何节点类型
func (v *Sections) Visit(e onfi.Element) error {
	if s, ok := e.(*onfi.Section); ok {
		data := s.Buf()
		if len(data) > 8 {
			data = data[:8]
		}
		fmt.Fprintf(v.tw, "%s\t%v\t%#x\t%d\t% x\n", ElementName(s), s.Type, s.DataOffset, s.Length, data)
	}
	return e.ApplyChildren(v)
}

func init() {
	RegisterCLI("table", "以表格形式打印器件参数", nil, func(args []string) (onfi.Visitor, error) {
		return &Table{W: os.Stdout}, nil
	})
	RegisterCLI("sections", "列出扩展参数页的section", nil, func(args []string) (onfi.Visitor, error) {
		return &Sections{W: os.Stdout}, nil
	})
}
