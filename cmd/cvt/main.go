// Command cvt converts subscriptions between Clash (mihomo) configs, Clash
// proxies lists, share-link lists and base64 from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/cvt/internal/convert"
	"github.com/John-Robertt/cvt/internal/render"
)

const usage = `用于在 Clash(Meta/mihomo)、Clash proxies、base64 和 uri 订阅格式之间进行快速转换

cvt [flags] <from> [<to>] [<ua>]
  <from>
  http/s 订阅链接、除 http/s 代理的 uri、用 base64/base64url 编码的订阅内容或 Data URL, 多个用 | 分隔
  获取零节点订阅用 empty, 可用于去广告

  <to>
  clash、clash-proxies、base64、uri 或 auto(若 ua 含 clash 则 clash 否则 base64)

  <ua>
  User-Agent 请求头

flags:
`

type cliOptions struct {
	out    string
	filter string
	hide   string
	ndl    bool
	legacy bool
	proxy  string
}

func main() {
	var o cliOptions
	fs := flag.NewFlagSet("cvt", flag.ExitOnError)
	fs.StringVar(&o.out, "o", "", "输出路径（默认写到标准输出）")
	fs.StringVar(&o.filter, "filter", "", "只保留匹配该过滤表达式的节点")
	fs.StringVar(&o.hide, "hide", "", "匹配的节点不加入策略组")
	fs.BoolVar(&o.ndl, "ndl", false, "GEOIP,CN 规则加 no-resolve，防止 DNS 泄露")
	fs.BoolVar(&o.legacy, "legacy", false, "只输出不带 Meta 扩展的内核支持的节点")
	fs.StringVar(&o.proxy, "proxy", "", "拉取订阅时使用的代理，多个用 | 分隔，与 <from> 按位置对应")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		return
	}

	logrus.SetLevel(logrus.WarnLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, o, fs.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var errFailed = errors.New("cvt: conversion failed")

func run(ctx context.Context, stdout, stderr io.Writer, o cliOptions, args []string) error {
	opt := convert.Options{
		Filter:    o.filter,
		Hide:      o.hide,
		NoDNSLeak: o.ndl,
		Legacy:    o.legacy,
	}
	if len(args) > 1 {
		opt.Target = render.Target(args[1])
	}
	if len(args) > 2 {
		opt.UserAgent = args[2]
	}
	if o.proxy != "" {
		opt.Proxies = strings.Split(o.proxy, "|")
	}

	res, err := convert.Convert(ctx, args[0], opt)
	if err != nil {
		return err
	}

	if o.out != "" {
		if err := os.WriteFile(o.out, []byte(res.Body), 0o644); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(stdout, res.Body)
	}

	if v := res.Header.Get("subscription-userinfo"); v != "" {
		fmt.Fprintf(stderr, "订阅信息: %s\n", v)
	}
	fmt.Fprintf(stderr, "总节点: %d, 成功转换节点: %d, 过滤后节点: %d\n",
		res.Counts.Total, res.Counts.Merged, res.Counts.Filtered)
	if res.Failed {
		return errFailed
	}
	return nil
}
