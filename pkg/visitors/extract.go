package visitors

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/tinytoy-sec/onfiprobe/pkg/compression"
	"github.com/tinytoy-sec/onfiprobe/pkg/onfi"
)

var (
	force    = pflag.Bool("force", false, "强制提取到非空目录")
	remove   = pflag.Bool("remove", false, "提取前删除现有目录")
	compress = pflag.Bool("xz", false, "提取时使用xz压缩原始页")
)

// SummaryFile 是提取目录中描述器件的JSON文件
const SummaryFile = "summary.json"

// 将器件的原始页和section提取到BasePath
type Extract struct {
	BasePath string
	DirPath  string
	// 如果非nil，每个二进制文件都用它压缩并加上".xz"后缀
	Compressor compression.Compressor
}

// 将二进制文件简单地转储到指定目录和文件名
// 如果目录不存在则创建，并将缓冲区转储到其中
// 返回二进制文件相对于BasePath的路径
func (v *Extract) extractBinary(buf []byte, filename string) (string, error) {
	// 如果目录不存在则创建
	dirPath := filepath.Join(v.BasePath, v.DirPath)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", err
	}

	if v.Compressor != nil {
		var err error
		if buf, err = v.Compressor.Encode(buf); err != nil {
			return "", err
		}
		filename += ".xz"
	}

	fp := filepath.Join(dirPath, filename)
	if err := os.WriteFile(fp, buf, 0666); err != nil {
		// 确保返回""，因为我们不希望无效路径被序列化出去
		return "", err
	}
	return filepath.Join(v.DirPath, filename), nil
}

// 包装Visit并执行一些设置和清理任务
func (v *Extract) Run(e onfi.Element) error {
	// 如果目录已存在，可选择删除
	if *remove {
		if err := os.RemoveAll(v.BasePath); err != nil {
			return err
		}
	}

	if !*force {
		// 检查目录是否不存在或为空
		files, err := os.ReadDir(v.BasePath)
		if err == nil {
			if len(files) != 0 {
				return errors.New("现有目录非空，使用--force覆盖")
			}
		} else if !os.IsNotExist(err) {
			return err
		}
	}

	if err := os.MkdirAll(v.BasePath, 0755); err != nil {
		return err
	}

	if err := e.Apply(v); err != nil {
		return err
	}

	// 输出摘要json
	summary, err := json.MarshalIndent(e, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(v.BasePath, SummaryFile), summary, 0666)
}

// 将Extract访问者应用于任何节点类型
func (v *Extract) Visit(e onfi.Element) error {
	// 在修改前必须克隆访问者；否则，会修改兄弟节点的值
	v2 := *v

	var err error
	switch e := e.(type) {
	case *onfi.ParameterPage:
		v2.DirPath = filepath.Join(v.DirPath, "param")
		e.ExtractPath, err = v2.extractBinary(e.Buf(), fmt.Sprintf("copy%d.bin", e.Copy))

	case *onfi.ExtendedPage:
		v2.DirPath = filepath.Join(v.DirPath, "ext")
		e.ExtractPath, err = v2.extractBinary(e.Buf(), fmt.Sprintf("copy%d.bin", e.Copy))

	case *onfi.Section:
		v2.DirPath = filepath.Join(v.DirPath, "sections")
		if len(e.Buf()) != 0 {
			e.ExtractPath, err = v2.extractBinary(e.Buf(), ElementName(e)+".bin")
		}
	}
	if err != nil {
		return err
	}

	return e.ApplyChildren(&v2)
}

func init() {
	RegisterCLI("extract", "将接受的页和section提取到目录，附summary.json（--xz 压缩）", []string{"目录"}, func(args []string) (onfi.Visitor, error) {
		v := &Extract{
			BasePath: args[0],
			DirPath:  ".",
		}
		if *compress {
			v.Compressor = compression.Default()
		}
		return v, nil
	})
}
