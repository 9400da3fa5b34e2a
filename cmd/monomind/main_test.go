package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LuyGGG/MonoMind/pkg/config"
	"github.com/LuyGGG/MonoMind/pkg/dom"
	"github.com/LuyGGG/MonoMind/pkg/logging"
	"github.com/LuyGGG/MonoMind/pkg/tone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = "<html><head></head><body><p>I hate this.</p><nav><p>I hate menus.</p></nav></body></html>"

func parse(t *testing.T, args ...string) *CLIConfig {
	t.Helper()
	fs := flag.NewFlagSet("monomind", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return parseFlags(fs, args)
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"MONOMIND_API_KEY", "OPENAI_API_KEY", "MONOMIND_BASE_URL", "OPENAI_BASE_URL", "MONOMIND_MODEL"} {
		t.Setenv(key, "")
	}
}

func TestParseFlags(t *testing.T) {
	cli := parse(t, "-in", "a.html", "-level", "max", "-timeout", "5s", "-serve")
	assert.Equal(t, "a.html", cli.Input)
	assert.Equal(t, "max", cli.Level)
	assert.Equal(t, 5*time.Second, cli.Timeout)
	assert.True(t, cli.Serve)

	assert.True(t, cli.set["level"])
	assert.True(t, cli.set["timeout"])
	assert.False(t, cli.set["backend"])
}

func TestApplyFlags(t *testing.T) {
	t.Run("only explicit flags override", func(t *testing.T) {
		m, err := config.NewDefaultManager(config.NewMemoryStore())
		require.NoError(t, err)
		section, _ := m.GetSection(config.SectionIDTone)
		require.NoError(t, section.SetData(map[string]any{"level": "soft", "concurrency": 7}))

		cli := parse(t, "-level", "max", "-directive", "Be gentle.")
		require.NoError(t, cli.applyFlags(m))

		s := section.(*config.ToneSection).Settings()
		assert.Equal(t, "max", s.Level)
		assert.Equal(t, "Be gentle.", s.StyleDirective)
		assert.Equal(t, 7, s.Concurrency)
	})

	t.Run("invalid flag value", func(t *testing.T) {
		m, err := config.NewDefaultManager(config.NewMemoryStore())
		require.NoError(t, err)

		err = parse(t, "-backend", "thesaurus").applyFlags(m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend")
	})
}

func TestMergeProfile(t *testing.T) {
	cli := parse(t, "-out", "flag.html")
	cli.mergeProfile(&config.Profile{Input: "profile.html", Output: "profile.out.html"})
	assert.Equal(t, "profile.html", cli.Input)
	assert.Equal(t, "flag.html", cli.Output)

	cli = parse(t, "-url", "https://example.com")
	cli.mergeProfile(&config.Profile{Input: "profile.html"})
	assert.Empty(t, cli.Input)
}

func TestLoadDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("from file", func(t *testing.T) {
		doc, err := loadDocument(ctx, parse(t, "-in", writeFile(t, "p.html", page)), nil)
		require.NoError(t, err)
		assert.Contains(t, doc.String(), "I hate this.")
	})

	t.Run("from stdin", func(t *testing.T) {
		doc, err := loadDocument(ctx, parse(t), strings.NewReader(page))
		require.NoError(t, err)
		assert.Contains(t, doc.String(), "I hate menus.")
	})

	t.Run("serve needs a document source", func(t *testing.T) {
		_, err := loadDocument(ctx, parse(t, "-serve"), strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("in and url together", func(t *testing.T) {
		_, err := loadDocument(ctx, parse(t, "-in", "a.html", "-url", "https://example.com"), nil)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadDocument(ctx, parse(t, "-in", filepath.Join(t.TempDir(), "none.html")), nil)
		assert.Error(t, err)
	})
}

func TestBuildService(t *testing.T) {
	isolate(t)
	logger := logging.Nop()

	t.Run("dictionary", func(t *testing.T) {
		settings := config.NewToneSection().Settings()
		svc, err := buildService(settings, nil, parse(t), logger)
		require.NoError(t, err)

		out, err := svc.Rewrite(context.Background(), "I hate this.", "")
		require.NoError(t, err)
		assert.Equal(t, "I dislike this.", out)
	})

	t.Run("llm without key", func(t *testing.T) {
		settings := config.NewToneSection().Settings()
		settings.Backend = config.BackendLLM
		_, err := buildService(settings, config.NewLLMSection(), parse(t), logger)
		assert.ErrorIs(t, err, config.ErrMissingAPIKey)
	})

	t.Run("llm with key", func(t *testing.T) {
		settings := config.NewToneSection().Settings()
		settings.Backend = config.BackendLLM
		svc, err := buildService(settings, config.NewLLMSection(), parse(t, "-api-key", "k"), logger)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("bad level", func(t *testing.T) {
		settings := config.NewToneSection().Settings()
		settings.Level = "loud"
		_, err := buildService(settings, nil, parse(t), logger)
		assert.Error(t, err)
	})
}

func TestControllerOptions(t *testing.T) {
	settings := config.NewToneSection().Settings()
	settings.ExcludePatterns = []string{"[unclosed"}
	_, err := controllerOptions(settings, logging.Nop())
	assert.Error(t, err)

	settings.ExcludePatterns = nil
	settings.ExcludeTags = []string{"nav"}
	opts, err := controllerOptions(settings, logging.Nop())
	require.NoError(t, err)

	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	svc, err := buildService(settings, nil, parse(t), logging.Nop())
	require.NoError(t, err)

	result := tone.NewController(doc, svc, opts...).Apply(context.Background())
	assert.Equal(t, tone.ApplyResult{OK: true, Scanned: 1, Changed: 1}, result)
	assert.Contains(t, doc.String(), "I hate menus.")
}

func TestWriteDocument(t *testing.T) {
	doc, err := dom.ParseString(page)
	require.NoError(t, err)

	t.Run("stdout", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, writeDocument(doc, parse(t), &out))
		assert.Equal(t, doc.String(), out.String())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.html")
		var out bytes.Buffer
		require.NoError(t, writeDocument(doc, parse(t, "-out", path), &out))
		assert.Empty(t, out.String())

		written, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, doc.String(), string(written))
	})

	t.Run("highlighted", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, writeDocument(doc, parse(t, "-color"), &out))
		assert.Contains(t, out.String(), "\x1b[")
		assert.Contains(t, out.String(), "hate")
	})
}

func TestSummary(t *testing.T) {
	out := summary(tone.ApplyResult{OK: true, Scanned: 4, Changed: 2, Failed: 1}, tone.StatsResult{}, "dictionary", time.Second)
	assert.Contains(t, out, "Tone softened")
	assert.Contains(t, out, "dictionary")
	assert.Contains(t, out, "failed")

	out = summary(tone.ApplyResult{Error: tone.CodeNoRewriter}, tone.StatsResult{}, "llm", 0)
	assert.Contains(t, out, "no_rewriter")
}

func TestRun(t *testing.T) {
	isolate(t)

	t.Run("softens a file", func(t *testing.T) {
		in := writeFile(t, "page.html", page)
		out := filepath.Join(t.TempDir(), "page.soft.html")
		cli := parse(t, "-config", filepath.Join(t.TempDir(), "config.json"), "-in", in, "-out", out)

		require.NoError(t, run(context.Background(), cli, nil, io.Discard))

		written, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(written), "<p>I dislike this.</p>")
	})

	t.Run("profile selects input and exclusions", func(t *testing.T) {
		in := writeFile(t, "page.html", page)
		profile := writeFile(t, "run.yaml", "input: "+in+"\ntone:\n  exclude_tags: [nav]\n")
		var stdout bytes.Buffer
		cli := parse(t, "-config", filepath.Join(t.TempDir(), "config.json"), "-profile", profile)

		require.NoError(t, run(context.Background(), cli, nil, &stdout))
		assert.Contains(t, stdout.String(), "I dislike this.")
		assert.Contains(t, stdout.String(), "I hate menus.")
	})

	t.Run("serves the router", func(t *testing.T) {
		in := writeFile(t, "page.html", page)
		out := filepath.Join(t.TempDir(), "served.html")
		cli := parse(t, "-config", filepath.Join(t.TempDir(), "config.json"), "-in", in, "-out", out, "-serve")
		requests := strings.NewReader(`{"action":"tone:apply"}` + "\n" + `{"action":"tone:state"}` + "\n")
		var stdout bytes.Buffer

		require.NoError(t, run(context.Background(), cli, requests, &stdout))

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		require.Len(t, lines, 2)
		assert.JSONEq(t, `{"ok":true,"scanned":2,"changed":2}`, lines[0])
		assert.JSONEq(t, `{"ok":true,"applied":true}`, lines[1])

		written, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(written), "I dislike menus.")
	})

	t.Run("llm backend without key fails early", func(t *testing.T) {
		cli := parse(t, "-config", filepath.Join(t.TempDir(), "config.json"), "-backend", "llm", "-in", "x.html")
		err := run(context.Background(), cli, nil, io.Discard)
		assert.ErrorIs(t, err, config.ErrMissingAPIKey)
	})
}
