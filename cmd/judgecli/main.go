// Command judgecli judges one task described by a YAML file and prints the
// result as JSON. It is a development and operations tool; the surrounding
// platform calls the engine as a library.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	env "github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/config"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/compiler"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/observer"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/profile"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/result"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/sandbox"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/verdict"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/workspace"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/utils/logger"
)

// taskFile is the on-disk task description. Source may be given inline or as
// a file path.
type taskFile struct {
	judge.Task `yaml:",inline"`
	SourceFile string `yaml:"sourceFile"`
}

func main() {
	taskPath := flag.String("task", "", "path to the task YAML file")
	configPath := flag.String("config", "", "path to the engine config YAML file")
	metricsAddr := flag.String("metrics-addr", "", "optional address serving /metrics while judging")
	flag.Parse()

	// .env is optional; it may set JUDGE_CONFIG for deployments.
	_ = env.Load()
	if *configPath == "" {
		*configPath = os.Getenv("JUDGE_CONFIG")
	}
	if *taskPath == "" {
		fmt.Fprintln(os.Stderr, "usage: judgecli -task task.yaml [-config config.yaml]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	task, err := loadTask(*taskPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load task: %v\n", err)
		os.Exit(1)
	}

	var metrics observer.MetricsRecorder = observer.NoopMetricsRecorder{}
	if *metricsAddr != "" {
		registry := prometheus.NewRegistry()
		metrics = observer.NewPrometheusRecorder(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
	}

	engine, err := buildEngine(cfg, metrics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := engine.Judge(ctx, task)
	if err != nil {
		fmt.Fprintf(os.Stderr, "judge: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if res.Verdict != result.VerdictAC {
		os.Exit(1)
	}
}

func loadTask(path string) (judge.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return judge.Task{}, err
	}
	var file taskFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return judge.Task{}, err
	}
	if file.SourceCode == "" && file.SourceFile != "" {
		src, err := os.ReadFile(file.SourceFile)
		if err != nil {
			return judge.Task{}, err
		}
		file.SourceCode = string(src)
	}
	if file.Policy == "" {
		file.Policy = judge.PolicyOI
	}
	return file.Task, nil
}

func buildEngine(cfg config.Config, metrics observer.MetricsRecorder) (*judge.Engine, error) {
	registry := profile.NewRegistry(cfg.LanguageProfiles())
	workspaces, err := workspace.NewManager(cfg.ScratchRoot)
	if err != nil {
		return nil, err
	}
	compilerStage := compiler.New(
		compiler.WithTimeout(cfg.CompileTimeout),
		compiler.WithLogMaxBytes(cfg.CompileLogMaxBytes),
		compiler.WithMetrics(metrics),
	)
	tracker := sandbox.NewTracker()
	executor := sandbox.NewExecutor(
		verdict.NewEngine(cfg.PEScoreFactor),
		tracker,
		sandbox.WithSampleInterval(cfg.MemSampleInterval),
		sandbox.WithOutputMaxBytes(cfg.OutputMaxBytes),
		sandbox.WithMetrics(metrics),
	)
	engine := judge.NewEngine(registry, workspaces, compilerStage, executor, tracker)
	engine.SetMaxSourceBytes(cfg.MaxSourceBytes)
	return engine, nil
}
