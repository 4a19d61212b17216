package visitors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tinytoy-sec/onfiprobe/pkg/compression"
	"github.com/tinytoy-sec/onfiprobe/pkg/onfi"
)

// 摘要中重建地址空间所需的字段
type extractedPart struct {
	Descriptor struct {
		ParamPageCount int
	}
	ParamPage *extractedPage
	ExtPage   *extractedPage
}

type extractedPage struct {
	Copy        int
	ExtractPath string
}

// 从Extract生成的目录重建参数页地址空间
type ParseDir struct {
	BasePath string
}

func (v *ParseDir) readPage(p *extractedPage) ([]byte, error) {
	if p.ExtractPath == "" {
		return nil, fmt.Errorf("页 copy%d 未被提取", p.Copy)
	}
	buf, err := os.ReadFile(filepath.Join(v.BasePath, p.ExtractPath))
	if err != nil {
		return nil, err
	}
	buf, _, err = compression.Decompress(buf)
	return buf, err
}

// Parse 读取summary.json和提取的页，返回一个可以重新探测的镜像。
// 被接受的副本之前的副本都用它填充，使探测在同一副本上成功。
func (v *ParseDir) Parse() (onfi.Buffer, error) {
	summary, err := os.ReadFile(filepath.Join(v.BasePath, SummaryFile))
	if err != nil {
		return nil, err
	}
	var p extractedPart
	if err := json.Unmarshal(summary, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", SummaryFile, err)
	}
	if p.ParamPage == nil {
		return nil, fmt.Errorf("%s: 没有参数页", SummaryFile)
	}

	pp, err := v.readPage(p.ParamPage)
	if err != nil {
		return nil, err
	}
	if len(pp) != onfi.ParamPageLen {
		return nil, fmt.Errorf("参数页长度为 %d，需要 %d", len(pp), onfi.ParamPageLen)
	}
	var image []byte
	for i := 0; i <= p.ParamPage.Copy; i++ {
		image = append(image, pp...)
	}
	if p.ExtPage == nil {
		return image, nil
	}

	ep, err := v.readPage(p.ExtPage)
	if err != nil {
		return nil, err
	}
	start := p.Descriptor.ParamPageCount * onfi.ParamPageLen
	if len(image) < start {
		image = append(image, make([]byte, start-len(image))...)
	}
	image = image[:start]
	for i := 0; i <= p.ExtPage.Copy; i++ {
		image = append(image, ep...)
	}
	return image, nil
}
