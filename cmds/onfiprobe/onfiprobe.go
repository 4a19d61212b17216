package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/tinytoy-sec/onfiprobe/pkg/log"
	"github.com/tinytoy-sec/onfiprobe/pkg/onfi"
	"github.com/tinytoy-sec/onfiprobe/pkg/onfihelper"
	"github.com/tinytoy-sec/onfiprobe/pkg/visitors"
)

var (
	logLevel     = pflag.String("log-level", "warn", "日志级别: debug, info, warn, error")
	maxCopies    = pflag.Int("max-copies", 3, "尝试读取的基本参数页副本数")
	maxExtCopies = pflag.Int("max-ext-copies", 3, "尝试读取的扩展参数页副本数")
	extCapacity  = pflag.Int("ext-capacity", 1024, "扩展参数页缓冲区大小（字节）")
)

// 配置结构
type config struct {
	Level log.Level
	Opts  []onfi.Option
}

// 解析命令行参数
func parseArguments() (config, []string, error) {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: onfiprobe [标志] <文件名> [0个或多个操作]\n")
		fmt.Fprintf(os.Stderr, "      onfiprobe [标志] synth <输出文件>\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n操作:\n%s", visitors.ListCLI())
	}
	pflag.Parse()
	if len(pflag.Args()) == 0 || pflag.Args()[0] == "help" {
		pflag.Usage()
		os.Exit(2)
	}
	var cfg config
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		return cfg, nil, err
	}
	cfg.Level = level
	cfg.Opts = []onfi.Option{
		onfi.WithMaxParamPageCopies(*maxCopies),
		onfi.WithMaxExtPageCopies(*maxExtCopies),
		onfi.WithExtPageCapacity(*extCapacity),
	}
	return cfg, pflag.Args(), nil
}

func main() {
	cfg, args, err := parseArguments()
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.SetLevel(cfg.Level)

	if args[0] == "synth" {
		if len(args) != 2 {
			log.Fatalf("synth 需要一个输出文件")
		}
		if err := onfihelper.Synth(args[1], onfi.DefaultImageSpec()); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}
	if err := onfihelper.Run(cfg.Opts, args...); err != nil {
		log.Fatalf("%v", err)
	}
}
