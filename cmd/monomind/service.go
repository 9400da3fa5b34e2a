package main

import (
	"fmt"

	"github.com/LuyGGG/MonoMind/pkg/config"
	"github.com/LuyGGG/MonoMind/pkg/logging"
	"github.com/LuyGGG/MonoMind/pkg/rewrite"
	"github.com/LuyGGG/MonoMind/pkg/rewrite/dictionary"
	"github.com/LuyGGG/MonoMind/pkg/rewrite/llmrewriter"
	"github.com/LuyGGG/MonoMind/pkg/tone"
	"github.com/LuyGGG/MonoMind/pkg/tone/selector"
)

// buildService creates the configured rewrite backend wrapped with the
// per-call timeout.
func buildService(settings config.ToneSettings, llm *config.LLMSection, cli *CLIConfig, logger *logging.Logger) (rewrite.Service, error) {
	var svc rewrite.Service

	switch settings.Backend {
	case config.BackendDictionary:
		level, err := dictionary.ParseLevel(settings.Level)
		if err != nil {
			return nil, err
		}
		svc = dictionary.New(level)
		logger.Infof("Using dictionary backend at level %s", level)

	case config.BackendLLM:
		provider, err := config.BuildProvider(config.LLMOptions{
			Model:   cli.Model,
			BaseURL: cli.BaseURL,
			APIKey:  cli.APIKey,
		})
		if err != nil {
			return nil, err
		}
		opts := []llmrewriter.Option{llmrewriter.WithLogger(logger.With("llm"))}
		if llm != nil {
			opts = append(opts, llmrewriter.WithMaxInputTokens(llm.GetMaxInputTokens()))
		}
		svc = llmrewriter.New(provider, opts...)
		logger.Infof("Using llm backend with model %s", provider.GetModel())

	default:
		return nil, fmt.Errorf("unknown backend %q", settings.Backend)
	}

	return rewrite.WithTimeout(svc, settings.Timeout), nil
}

// controllerOptions maps tone settings onto controller options.
func controllerOptions(settings config.ToneSettings, logger *logging.Logger) ([]tone.Option, error) {
	sel, err := selector.New(selector.Options{
		ExcludeTags:     settings.ExcludeTags,
		ExcludePatterns: settings.ExcludePatterns,
	})
	if err != nil {
		return nil, err
	}

	return []tone.Option{
		tone.WithSelector(sel),
		tone.WithDirective(settings.StyleDirective),
		tone.WithConcurrency(settings.Concurrency),
		tone.WithBatchSize(settings.BatchSize),
		tone.WithMaxAttempts(settings.MaxAttempts),
		tone.WithLogger(logger.With("tone")),
	}, nil
}
