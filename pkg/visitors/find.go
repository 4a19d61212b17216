package visitors

import (
	"fmt"
	"regexp"

	"github.com/tinytoy-sec/onfiprobe/pkg/onfi"
)

// 用于筛选Find访问者匹配项的谓词
type FindPredicate = func(e onfi.Element) bool

// 根据名称查找节点
type Find struct {
	// 输入
	// 只有当此函数返回true时，节点才会出现在`Matches`切片中
	Predicate FindPredicate

	// 输出
	Matches []onfi.Element
}

// 包装Visit并执行一些设置和清理任务
func (v *Find) Run(e onfi.Element) error {
	return e.Apply(v)
}

// 将Find访问者应用于任何节点类型
func (v *Find) Visit(e onfi.Element) error {
	if v.Predicate(e) {
		v.Matches = append(v.Matches, e)
	}
	return e.ApplyChildren(v)
}

// ElementName 返回节点在命令行中使用的名称:
// part, param, ext, inline<N>, specifier<N>
func ElementName(e onfi.Element) string {
	switch e := e.(type) {
	case *onfi.Part:
		return "part"
	case *onfi.ParameterPage:
		return "param"
	case *onfi.ExtendedPage:
		return "ext"
	case *onfi.Section:
		return fmt.Sprintf("%s%d", e.Phase, e.Index)
	}
	return ""
}

// 按名称搜索节点的通用谓词，名称不区分大小写
func FindNamePredicate(r string) (FindPredicate, error) {
	ciRE, err := regexp.Compile("^(?i)(" + r + ")$")
	if err != nil {
		return nil, err
	}
	return func(e onfi.Element) bool {
		return ciRE.MatchString(ElementName(e))
	}, nil
}

// 仅搜索给定类型section的通用谓词
func FindSectionTypePredicate(t onfi.SectionType) FindPredicate {
	return func(e onfi.Element) bool {
		if s, ok := e.(*onfi.Section); ok {
			return s.Type == t
		}
		return false
	}
}
