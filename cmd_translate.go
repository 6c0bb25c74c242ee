package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/icase-intl/langkit/config"
	"github.com/icase-intl/langkit/i18n"
	"github.com/icase-intl/langkit/settings"
	"github.com/icase-intl/langkit/translate"
	"github.com/icase-intl/langkit/visit"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// translate (hash mode)
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		apiKey       string
		provider     string
		model        string
		baseURL      string
		chunkSize    int
		timeout      time.Duration
		dryRun       bool
		skipInEditor bool
	)

	cmd := &cobra.Command{
		Use:   "translate [files...]",
		Short: "Collect wrapped literals and machine-translate them (hash mode)",
		Long: `Collect every wrapped literal of the run into one checksum table and
translate it into every target locale. Each locale's catalog is rewritten
as a whole. The source locale is copied through untranslated.

Locales are translated concurrently, the chunks of one locale in sequence.
A chunk that fails is logged and left out of that locale's catalog.

Examples:
  # Use the provider from .langkit.yaml
  langkit translate

  # Override provider and model
  langkit translate --provider groq --model llama-3.3-70b-versatile

  # Show what would be sent
  langkit translate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			files, _, err := p.sources(args)
			if err != nil {
				return err
			}

			if provider != "" {
				p.cfg.Provider.ID = provider
			}
			if model != "" {
				p.cfg.Provider.Model = model
			}
			if baseURL != "" {
				p.cfg.Provider.BaseURL = baseURL
			}
			if chunkSize > 0 {
				p.cfg.ChunkSize = chunkSize
			}
			if timeout > 0 {
				p.cfg.Timeout = timeout
			}
			if cmd.Flags().Changed("skip-in-editor") {
				p.cfg.SkipInEditor = &skipInEditor
			}

			acc := visit.NewAccumulation()
			if *p.cfg.SkipInEditor && visit.EditorSession() {
				logWarning(i18n.T("Running inside VS Code: hash-mode collection skipped"))
				return nil
			}
			st, walkErr := p.walk(files, pass{collect: true}, acc, nil)
			summarize(st, pass{collect: true})
			if walkErr != nil {
				logWarning("%v", walkErr)
			}
			return p.translateEntries(acc, apiKey, dryRun)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider: openai, groq, ollama, google, anthropic, custom-openai")
	cmd.Flags().StringVar(&model, "model", "", "Model name")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (or LANGKIT_API_KEY env var)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Custom API base URL")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Entries per API request (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Bound for the whole translation stage")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be translated without calling the provider")
	cmd.Flags().BoolVar(&skipInEditor, "skip-in-editor", true, "Skip collection when running inside VS Code")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"openai\tOpenAI",
			"groq\tGroq",
			"ollama\tOllama local server",
			"google\tGoogle AI (Gemini)",
			"anthropic\tAnthropic",
			"custom-openai\tCustom OpenAI-compatible endpoint",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// translateEntries runs the batch stage over the run's checksum table.
func (p *project) translateEntries(acc *visit.Accumulation, apiKey string, dryRun bool) error {
	entries := acc.Entries()
	if entries.Len() == 0 {
		logInfo(i18n.T("Nothing to translate"))
		return nil
	}

	chunkSize := p.cfg.ChunkSize
	targets := lo.Filter(p.cfg.TargetLocales, func(l string, _ int) bool { return l != p.cfg.SourceLocale })

	if dryRun {
		chunks := len(lo.Chunk(entries.Keys(), chunkSize))
		logInfo(i18n.T("Dry run: %d entries in %d chunks for %s"), entries.Len(), chunks, strings.Join(targets, ", "))
		keys := entries.Keys()
		for _, k := range keys[:min(len(keys), 10)] {
			v, _ := entries.Get(k)
			fmt.Printf("  %s  %s\n", k, v)
		}
		return nil
	}

	var tr translate.Translator
	if len(targets) > 0 {
		prov := resolveProvider(p.cfg, apiKey)
		if err := validateProvider(prov); err != nil {
			return err
		}
		client, err := translate.NewClient(prov, translate.Options{SystemPrompt: p.cfg.Provider.Prompt})
		if err != nil {
			return err
		}
		logInfo(i18n.T("Translating %d entries with %s (%s)"), entries.Len(), client.Provider().Name, client.Provider().Model)
		tr = client
	}

	bar := progressbar.NewOptions(entries.Len()*len(targets),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]"+i18n.T("translating")+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	var mu sync.Mutex
	progress := make(map[string]int)

	batch := &translate.Batch{
		Dir:          p.cfg.CatalogDir(),
		Format:       p.cfg.SaveFormat,
		Locales:      p.cfg.TargetLocales,
		SourceLocale: p.cfg.SourceLocale,
		ChunkSize:    chunkSize,
		Timeout:      p.cfg.Timeout,
		Translator:   tr,
		OnProgress: func(locale string, done, total int) {
			if locale == p.cfg.SourceLocale {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			progress[locale] = done
			_ = bar.Set(lo.Sum(lo.Values(progress)))
		},
	}

	ctx, cancel := signalContext()
	defer cancel()

	reports, err := batch.Run(ctx, entries)
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	for _, r := range reports {
		switch {
		case r.Err == nil:
			logSuccess(i18n.T("%s: %d entries written to %s"), r.Locale, r.Entries, relPath(r.Path))
		case r.Entries == 0 && len(r.FailedChunks) > 0:
			logError(i18n.T("%s: every chunk failed, %s left unchanged"), r.Locale, relPath(r.Path))
		case len(r.FailedChunks) > 0:
			logWarning(i18n.T("%s: %d entries written, chunks %v failed"), r.Locale, r.Entries, lo.Map(r.FailedChunks, func(i, _ int) int { return i + 1 }))
		default:
			logError("%s: %v", r.Locale, r.Err)
		}
	}
	if err != nil && ctx.Err() == context.Canceled {
		return fmt.Errorf("interrupted: %w", err)
	}
	return err
}

// ---------------------------------------------------------------------------
// Provider helpers
// ---------------------------------------------------------------------------

// resolveProvider merges configuration, stored credentials and built-in
// defaults. apiKey is the --api-key flag value.
func resolveProvider(cfg *config.File, apiKey string) translate.Provider {
	id := strings.ToLower(cfg.Provider.ID)
	prov := translate.Provider{
		ID:      id,
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  settings.APIKey(id, apiKey),
		Model:   cfg.Provider.Model,
		Proxy:   cfg.Provider.Proxy,
		RPS:     cfg.Provider.RPS,
	}
	if prov.BaseURL == "" {
		prov.BaseURL = settings.BaseURL(id)
	}
	if _, known := translate.DefaultProviders()[id]; !known {
		// Anything else is an OpenAI-compatible endpoint named by its URL.
		prov.ID = translate.ProviderCustomOpenAI
		prov.Name = cfg.Provider.ID
		if prov.BaseURL == "" {
			prov.BaseURL = cfg.Provider.ID
		}
	}
	return translate.ResolveProvider(prov)
}

func validateProvider(prov translate.Provider) error {
	if prov.Model == "" {
		examples := map[string]string{
			translate.ProviderOllama:       "llama3.2, qwen2.5, mistral",
			translate.ProviderAnthropic:    "claude-3-5-haiku-latest, claude-sonnet-4-0",
			translate.ProviderCustomOpenAI: "depends on your endpoint",
		}[prov.ID]
		if examples == "" {
			examples = "check provider documentation"
		}
		return fmt.Errorf("provider '%s' needs a model\n\n"+
			"Example models for %s:\n  %s\n\n"+
			"Set provider.model in %s or pass --model", prov.ID, prov.Name, examples, config.FileName)
	}

	switch prov.ID {
	case translate.ProviderOpenAI, translate.ProviderGroq, translate.ProviderGoogle, translate.ProviderAnthropic:
		if prov.APIKey == "" {
			return fmt.Errorf("provider '%s' requires an API key\n\n"+
				"Option 1: Store your API key:\n"+
				"  langkit auth login --provider %s\n\n"+
				"Option 2: Pass key directly:\n"+
				"  --api-key YOUR_KEY or export %s=YOUR_KEY", prov.ID, prov.ID, settings.EnvAPIKey)
		}

	case translate.ProviderCustomOpenAI:
		if prov.BaseURL == "" {
			return fmt.Errorf("provider 'custom-openai' requires an endpoint URL\n\n" +
				"Option 1: Configure via auth:\n" +
				"  langkit auth login --provider custom-openai\n\n" +
				"Option 2: Pass directly:\n" +
				"  --base-url https://api.example.com/v1")
		}

	case translate.ProviderOllama:
		client := &http.Client{Timeout: 2 * time.Second}
		resp, err := client.Get(strings.TrimSuffix(prov.BaseURL, "/v1") + "/api/tags")
		if err != nil {
			return fmt.Errorf("provider 'ollama' requires the Ollama server to be running\n\n" +
				"Start Ollama with: ollama serve\n" +
				"Install from: https://ollama.com")
		}
		resp.Body.Close()
	}
	return nil
}
