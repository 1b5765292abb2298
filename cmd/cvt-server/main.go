package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/cvt/internal/convert"
	"github.com/John-Robertt/cvt/internal/emoji"
	"github.com/John-Robertt/cvt/internal/fetch"
	"github.com/John-Robertt/cvt/internal/geoip"
	"github.com/John-Robertt/cvt/internal/httpapi"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	listen := flag.String("listen", defaultListen(), "HTTP 监听地址（[host:]port；也可用 HOST/PORT 环境变量）")
	readHeaderTimeout := flag.Duration("read-header-timeout", 5*time.Second, "HTTP ReadHeaderTimeout（请求头读取超时）")
	convertTimeout := flag.Duration("convert-timeout", 60*time.Second, "单次转换的总超时（包含远程拉取）")
	fetchTimeout := flag.Duration("fetch-timeout", 15*time.Second, "单次远程拉取的超时（每个 URL 一次请求）")
	shutdownTimeout := flag.Duration("shutdown-timeout", 10*time.Second, "收到退出信号后的优雅退出等待时间")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "info"), "日志级别（debug/info/warn/error）")
	geoipURL := flag.String("geoip-url", geoip.DefaultURL, "IP 归属地数据地址")
	geoipMMDB := flag.String("geoip-mmdb", "", "本地 MaxMind 国家数据库（设置后不再下载 -geoip-url）")
	rateLimit := flag.Float64("rate-limit", 0, "每个客户端 IP 每秒允许的转换请求数（0 表示不限制）")
	trustProxy := flag.Bool("trust-proxy", false, "从 X-Forwarded-For / X-Real-IP 读取客户端 IP")
	healthcheck := flag.Bool("healthcheck", false, "探测本机 /healthz 后退出（用于容器健康检查）")
	flag.Parse()
	if flag.NArg() > 0 {
		*listen = flag.Arg(0)
	}
	addr := listenAddr(*listen)

	lvl, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("invalid -log-level: %v", err)
	}
	logrus.SetLevel(lvl)

	if *healthcheck {
		u, err := deriveHealthzURL(addr)
		if err == nil {
			err = runHealthcheck(u, 3*time.Second)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	var lookup emoji.GeoIP
	if *geoipMMDB != "" {
		db, err := geoip.OpenMMDB(*geoipMMDB)
		if err != nil {
			logrus.Fatalf("open -geoip-mmdb: %v", err)
		}
		defer db.Close()
		lookup = db
	} else {
		lookup = geoip.NewRemote(*geoipURL, &fetch.Client{
			Kind:     fetch.KindGeoIP,
			Defaults: fetch.Options{Timeout: *fetchTimeout},
		})
	}

	srv := &http.Server{
		Addr: addr,
		Handler: httpapi.NewHandlerWithOptions(httpapi.Options{
			ConvertTimeout: *convertTimeout,
			FetchTimeout:   *fetchTimeout,
			RateLimit:      *rateLimit,
			TrustProxy:     *trustProxy,
			Version:        version,
			GeoIP:          lookup,
		}),
		ReadHeaderTimeout: *readHeaderTimeout,
	}

	logrus.WithFields(logrus.Fields{"version": version, "ua": convert.DefaultUserAgent}).
		Infof("listening on http://%s", addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logrus.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logrus.WithError(err).Warn("graceful shutdown failed")
			_ = srv.Close()
		}

		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// defaultListen builds the listen address from HOST (or IP) and PORT.
func defaultListen() string {
	host := os.Getenv("HOST")
	if host == "" {
		host = os.Getenv("IP")
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, envOr("PORT", "25500"))
}

// listenAddr accepts a bare port as well as host:port.
func listenAddr(s string) string {
	s = strings.TrimSpace(s)
	if s != "" && !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}
