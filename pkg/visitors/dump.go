package visitors

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tinytoy-sec/onfiprobe/pkg/onfi"
)

// 按名称导出原始页或section
type Dump struct {
	// 输入
	Predicate FindPredicate

	// 输出
	// 数据将写入此writer
	W io.Writer
}

// 只是调用访问者
func (v *Dump) Run(e onfi.Element) error {
	return e.Apply(v)
}

// 使用find将数据导出到W
func (v *Dump) Visit(e onfi.Element) error {
	// 首先运行"find"生成要导出的列表
	find := Find{
		Predicate: v.Predicate,
	}
	if err := find.Run(e); err != nil {
		return err
	}

	// 必须只有一个匹配项
	if numMatch := len(find.Matches); numMatch > 1 {
		names := make([]string, numMatch)
		for i, m := range find.Matches {
			names[i] = ElementName(m)
		}
		return fmt.Errorf("找到多个匹配项，只允许一个！得到 %v", names)
	} else if numMatch == 0 {
		return errors.New("未找到匹配项")
	}

	_, err := v.W.Write(find.Matches[0].Buf())
	return err
}

func init() {
	RegisterCLI("dump", "导出原始页或section (param, ext, inline<N>, specifier<N>)", []string{"名称", "文件"}, func(args []string) (onfi.Visitor, error) {
		pred, err := FindNamePredicate(args[0])
		if err != nil {
			return nil, err
		}

		file, err := os.OpenFile(args[1], os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return nil, err
		}

		return &Dump{
			Predicate: pred,
			W:         file,
		}, nil
	})
}
