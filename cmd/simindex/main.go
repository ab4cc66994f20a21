// Command simindex loads a CSV dataset into an Elasticsearch index.
//
// The binary is the only place that decides to halt: configuration problems,
// an unreadable input file, and a failed liveness probe abort the run with a
// non-zero exit; everything downstream degrades per field or per document
// and is reported in the final summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"simindex/internal/config"
	"simindex/internal/metrics"
	"simindex/internal/metrics/datadog"
	"simindex/internal/metrics/prompush"

	// register the elasticsearch sink with the sink factory.
	_ "simindex/internal/sink/elastic"
)

func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/obitos.json", "run config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid: %s", cfgPath)
	}
	if validate {
		log.Info("configuration is valid", "path", cfgPath)
		return
	}

	if p.Job == "" {
		p.Job = p.Index.Name
	}

	setupMetrics(log, p.Job, metricsBackendFlg, pushGatewayURLFlg, dogstatsdAddrFlg)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", "err", err)
		}
	}()

	ctx := context.Background()
	start := time.Now()

	sum, err := run(ctx, log, p)
	if err != nil {
		fatalf("%v", err)
	}

	log.Info("run complete",
		"job", p.Job,
		"index", p.Index.Name,
		"read", sum.Read,
		"skipped", sum.Skipped,
		"normalized", sum.Normalized,
		"indexed", sum.Indexed,
		"failed", sum.Failed,
		"elapsed", time.Since(start).Truncate(time.Millisecond),
	)
	if sum.FailureArtifact != "" {
		log.Warn("failed documents persisted", "path", sum.FailureArtifact, "count", sum.Failed)
	}
}

// setupMetrics decides the metrics backend: flag → env → disabled.
func setupMetrics(log *slog.Logger, job, backendName, gwURL, ddAddr string) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Warn("metrics backend init failed, using nop", "backend", backendName, "err", err)
			return
		}
		log.Info("metrics enabled", "backend", backendName, "url", gwURL, "job", job)
		metrics.SetBackend(b)

	case "datadog":
		if ddAddr == "" {
			ddAddr = os.Getenv("DOGSTATSD_ADDR")
		}
		if ddAddr == "" {
			ddAddr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: ddAddr, Namespace: "simindex."})
		if err != nil {
			log.Warn("metrics backend init failed, using nop", "backend", backendName, "err", err)
			return
		}
		log.Info("metrics enabled", "backend", backendName, "addr", ddAddr, "job", job)
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Warn("unknown metrics backend; metrics disabled", "backend", backendName)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
