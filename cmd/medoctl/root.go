package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"medo/internal/flow"
	"medo/internal/gateway/app"
	"medo/internal/gateway/config"
	"medo/internal/logger"
)

// deps is what the commands need from the outside world; tests swap in a
// fake-backed service and buffers.
type deps struct {
	in         io.Reader
	out        io.Writer
	newService func(ctx context.Context, envFile string) (*flow.Service, func(), error)
}

func defaultDeps() deps {
	return deps{in: os.Stdin, out: os.Stdout, newService: serviceFromConfig}
}

func serviceFromConfig(ctx context.Context, envFile string) (*flow.Service, func(), error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Options{Env: cfg.Env, Level: "warn", File: cfg.LogFile})
	if err != nil {
		return nil, nil, err
	}
	reg, err := app.NewRegistry(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	svc, err := flow.NewServiceFromRegistry(reg, flow.WithLogger(log))
	if err != nil {
		_ = reg.Close()
		return nil, nil, err
	}
	return svc, func() {
		if err := reg.Close(); err != nil {
			log.Warn("closing model clients failed", zap.Error(err))
		}
		_ = log.Sync()
	}, nil
}

type cli struct {
	deps
	envFile string
}

func newRootCmd(d deps) *cobra.Command {
	c := &cli{deps: d}
	root := &cobra.Command{
		Use:           "medoctl",
		Short:         "Run Medo study flows against the configured model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(d.in)
	root.SetOut(d.out)
	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "Env file to load before the environment (default .env)")

	root.AddCommand(
		c.askCmd(),
		c.transcribeCmd(),
		c.summarizeCmd(),
		c.speakCmd(),
		c.mindMapCmd(),
		c.questionsCmd(),
		c.gradeCmd(),
		c.quizCmd(),
	)
	return root
}

// withService opens the flow service for the duration of one command.
func (c *cli) withService(cmd *cobra.Command, run func(ctx context.Context, svc *flow.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := c.newService(ctx, c.envFile)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return run(ctx, svc)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
