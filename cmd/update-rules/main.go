// Command update-rules rebuilds the embedded rule list from the upstream
// rulesets in rules.Sources.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/cvt/internal/fetch"
	"github.com/John-Robertt/cvt/internal/model"
	"github.com/John-Robertt/cvt/internal/rules"
)

// Fetcher downloads one ruleset.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opt fetch.Options) (*fetch.Result, error)
}

func main() {
	out := flag.String("o", "internal/rules/rules.txt", "输出路径")
	timeout := flag.Duration("timeout", 30*time.Second, "单个规则集的下载超时")
	flag.Parse()

	client := &fetch.Client{Kind: fetch.KindRuleset, Defaults: fetch.Options{Timeout: *timeout}}
	text, err := build(context.Background(), client, rules.Sources)
	if err != nil {
		logrus.Fatal(err)
	}
	if err := os.WriteFile(*out, []byte(text), 0o644); err != nil {
		logrus.Fatal(err)
	}
	logrus.WithField("path", *out).Info("rules updated")
}

// build downloads every source concurrently and renders the rule file in
// source order. Any failed download fails the build.
func build(ctx context.Context, f Fetcher, sources []rules.Source) (string, error) {
	sets := make([][]model.Rule, len(sources))
	eg, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		eg.Go(func() error {
			res, err := f.Fetch(ctx, src.URL, fetch.Options{})
			if err != nil {
				return err
			}
			rs, skipped, err := rules.ParseRulesetText(src.URL, res.Text(), src.Action)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{"url": src.URL, "rules": len(rs), "skipped": skipped}).Debug("ruleset")
			sets[i] = rs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return "", err
	}
	return rules.File(rules.Compose(sets...)), nil
}
