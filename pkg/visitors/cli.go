package visitors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tinytoy-sec/onfiprobe/pkg/onfi"
)

// 一个可从命令行调用的操作
type command struct {
	name    string
	args    []string
	help    string
	factory func(args []string) (onfi.Visitor, error)
}

func (c command) synopsis() string {
	if len(c.args) == 0 {
		return c.name
	}
	return c.name + " <" + strings.Join(c.args, "> <") + ">"
}

var commands = map[string]command{}

const usage = "用法: onfiprobe <参数页镜像|.xz|提取目录> [操作 [参数]]..."

// RegisterCLI 注册一个操作。args 是操作参数的名称，只用于帮助文本和参数计数。
// 每个操作文件在init中调用它；重名会panic。
func RegisterCLI(name string, help string, args []string, factory func([]string) (onfi.Visitor, error)) {
	if _, dup := commands[name]; dup {
		panic(fmt.Sprintf("操作 %q 重复注册", name))
	}
	commands[name] = command{name: name, args: args, help: help, factory: factory}
}

// ParseCLI 把命令行剩余参数解析为按顺序执行的访问者
func ParseCLI(args []string) ([]onfi.Visitor, error) {
	var out []onfi.Visitor
	for i := 0; i < len(args); {
		c, ok := commands[args[i]]
		if !ok {
			return nil, fmt.Errorf("未知操作 %q\n%s", args[i], usage)
		}
		i++
		if rest := len(args) - i; rest < len(c.args) {
			return nil, fmt.Errorf("操作 %q 需要 %d 个参数，只有 %d 个: %s", c.name, len(c.args), rest, c.synopsis())
		}
		v, err := c.factory(args[i : i+len(c.args)])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
		out = append(out, v)
		i += len(c.args)
	}
	return out, nil
}

// ExecuteCLI 依次在探测到的器件上运行访问者，遇到第一个错误即停止
func ExecuteCLI(part *onfi.Part, v []onfi.Visitor) error {
	for _, visitor := range v {
		if err := visitor.Run(part); err != nil {
			return err
		}
	}
	return nil
}

// ListCLI 返回按名称排序的操作列表，每行一个操作及其参数
func ListCLI() string {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		c := commands[n]
		fmt.Fprintf(&b, "  %-26s %s\n", c.synopsis(), c.help)
	}
	return b.String()
}
