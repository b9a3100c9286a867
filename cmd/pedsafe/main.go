// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/pedsafe"
	"github.com/poiesic/pedsafe/ai"
	"github.com/poiesic/pedsafe/ai/openai"
	"github.com/poiesic/pedsafe/config"
	"github.com/poiesic/pedsafe/faers/openfda"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pedsafe",
		Usage: "Explore pediatric adverse drug event reports with hybrid retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"PEDSAFE_CONFIG"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ask",
				Usage:  "Ask one question about one drug and print a summary",
				Action: askCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "drug",
						Aliases:  []string{"d"},
						Usage:    "Drug name as reported, e.g. amoxicillin",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "question",
						Aliases:  []string{"q"},
						Usage:    "Question in plain language, e.g. \"serious rashes in boys\"",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "audience",
						Aliases: []string{"a"},
						Usage:   "Summary audience (parent, professional)",
						Value:   "parent",
					},
					&cli.BoolFlag{
						Name:  "show-evidence",
						Usage: "Print the evidence records after the summary",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full analysis as JSON",
					},
					&cli.StringFlag{
						Name:  "history-db",
						Usage: "Path to a BadgerDB directory recording analyses",
					},
				}, aiFlags()...),
			},
			{
				Name:   "serve",
				Usage:  "Serve the analysis API over HTTP",
				Action: serveCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (default from config, :8080)",
					},
					&cli.StringFlag{
						Name:  "history-db",
						Usage: "Path to a BadgerDB directory recording analyses",
					},
				}, aiFlags()...),
			},
			{
				Name:   "history",
				Usage:  "List recorded analyses, newest first",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of analyses to list",
						Value: 10,
					},
				},
			},
		},
	}
}

// aiFlags override the AI section of the loaded configuration.
func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible host for both embeddings and generation",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "generative-model",
			Usage: "Generative model name",
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("host") {
		cfg.AI.EmbeddingHost = c.String("host")
		cfg.AI.GenerativeHost = c.String("host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	if c.IsSet("generative-model") {
		cfg.AI.GenerativeModel = c.String("generative-model")
	}
	if c.IsSet("history-db") {
		cfg.History.Path = c.String("history-db")
	}
	if c.IsSet("addr") {
		cfg.HTTP.Addr = c.String("addr")
	}
	return cfg, nil
}

func newProvider(cfg *config.Config) (ai.AIProvider, error) {
	aiConfig, err := cfg.AIConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	return provider, nil
}

func newReportSource(cfg *config.Config, progress func(fetched, total int)) (*openfda.Client, error) {
	opts := []openfda.Option{
		openfda.WithBaseURL(cfg.OpenFDA.BaseURL),
		openfda.WithDaysBack(cfg.OpenFDA.DaysBack),
		openfda.WithReportLimit(cfg.OpenFDA.ReportLimit),
		openfda.WithPageSize(cfg.OpenFDA.PageSize),
		openfda.WithWorkers(cfg.OpenFDA.Workers),
		openfda.WithRequestsPerMinute(cfg.OpenFDA.RequestsPerMinute),
		openfda.WithTimeout(cfg.OpenFDA.Timeout),
		openfda.WithLogger(slog.Default()),
	}
	if cfg.OpenFDA.APIKey != "" {
		opts = append(opts, openfda.WithAPIKey(cfg.OpenFDA.APIKey))
	}
	if progress != nil {
		opts = append(opts, openfda.WithProgress(progress))
	}
	client, err := openfda.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openFDA client: %w", err)
	}
	return client, nil
}

func explorerOptions(cfg *config.Config) []pedsafe.Option {
	return []pedsafe.Option{
		pedsafe.WithLogger(slog.Default()),
		pedsafe.WithTopK(cfg.Retrieval.TopK),
		pedsafe.WithMaxSummaryRecords(cfg.Summary.MaxRecords),
	}
}
