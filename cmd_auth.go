package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/icase-intl/langkit/i18n"
	"github.com/icase-intl/langkit/settings"
	"github.com/icase-intl/langkit/translate"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// auth (provider credentials)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
		Long: `Manage the API keys used by 'langkit translate'.

Keys are stored in ` + "$XDG_CONFIG_HOME/langkit/credentials.yaml" + ` with
0600 permissions. --api-key and ` + settings.EnvAPIKey + ` take precedence.

Examples:
  langkit auth login --provider openai     Store an OpenAI key
  langkit auth login --provider custom-openai
  langkit auth logout --provider openai    Remove the OpenAI key
  langkit auth logout                      Remove all credentials
  langkit auth list                        Show stored credentials`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)
	return cmd
}

// keyProviders are the providers that take an API key, in menu order.
var keyProviders = []struct {
	id      string
	helpURL string
}{
	{translate.ProviderOpenAI, "https://platform.openai.com/api-keys"},
	{translate.ProviderGroq, "https://console.groq.com/keys"},
	{translate.ProviderGoogle, "https://aistudio.google.com/apikey"},
	{translate.ProviderAnthropic, "https://console.anthropic.com/settings/keys"},
	{translate.ProviderCustomOpenAI, ""},
}

func providerName(id string) string {
	if p, ok := translate.DefaultProviders()[id]; ok {
		return p.Name
	}
	return id
}

func newAuthLoginCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewScanner(os.Stdin)
			if provider == "" {
				id, err := chooseProvider(in)
				if err != nil {
					return err
				}
				provider = id
			}
			return authLogin(in, provider)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to log in to")
	return cmd
}

func chooseProvider(in *bufio.Scanner) (string, error) {
	fmt.Fprintf(os.Stderr, "\n%s\n", color.BlueString(i18n.T("Select a provider")))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for i, p := range keyProviders {
		fmt.Fprintf(os.Stderr, "  %d) %-14s %s\n", i+1, p.id, providerName(p.id))
	}
	fmt.Fprintf(os.Stderr, "\n  %s", i18n.T("Choice: "))
	if !in.Scan() {
		return "", fmt.Errorf("no input received")
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(in.Text()), "%d", &n); err != nil || n < 1 || n > len(keyProviders) {
		return "", fmt.Errorf("invalid choice %q", in.Text())
	}
	return keyProviders[n-1].id, nil
}

func authLogin(in *bufio.Scanner, provider string) error {
	var helpURL string
	known := false
	for _, p := range keyProviders {
		if p.id == provider {
			helpURL, known = p.helpURL, true
		}
	}
	if !known {
		return fmt.Errorf("provider %q does not use an API key", provider)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", color.BlueString("%s: %s", providerName(provider), i18n.T("API key setup")))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	if helpURL != "" {
		fmt.Fprintf(os.Stderr, "  %s %s\n\n", i18n.T("Get your API key from:"), color.GreenString(helpURL))
	}

	existing, _ := settings.Get(provider)

	if provider == translate.ProviderCustomOpenAI {
		fmt.Fprintf(os.Stderr, "  %s", i18n.T("Endpoint URL: "))
		if !in.Scan() {
			return fmt.Errorf("no input received")
		}
		if u := strings.TrimSpace(in.Text()); u != "" {
			existing.BaseURL = u
		}
		if existing.BaseURL == "" {
			return fmt.Errorf("no endpoint URL provided")
		}
	}

	if existing.Key != "" {
		fmt.Fprintf(os.Stderr, "  %s %s\n", i18n.T("Current key:"), color.YellowString(settings.MaskKey(existing.Key)))
		fmt.Fprintf(os.Stderr, "  %s", i18n.T("Enter new key to replace, or press Enter to keep: "))
	} else {
		fmt.Fprintf(os.Stderr, "  %s", i18n.T("Enter API key: "))
	}
	if !in.Scan() {
		return fmt.Errorf("no input received")
	}
	if key := strings.TrimSpace(in.Text()); key != "" {
		existing.Key = key
	}
	if existing.Key == "" && provider != translate.ProviderCustomOpenAI {
		return fmt.Errorf("no API key provided")
	}

	if err := settings.Set(provider, existing); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	logSuccess(i18n.T("%s credentials saved"), providerName(provider))
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess(i18n.T("All credentials removed"))
				return nil
			}
			if err := settings.Remove(provider); err != nil {
				return err
			}
			logSuccess(i18n.T("%s credentials removed"), providerName(provider))
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to log out of (default: all)")
	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.Load()
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "\n%s\n", color.BlueString(i18n.T("Stored credentials")))
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
			for _, p := range keyProviders {
				e, ok := store[p.id]
				switch {
				case ok && e.Key != "":
					status := color.GreenString(i18n.T("configured")) + fmt.Sprintf(" (key: %s)", settings.MaskKey(e.Key))
					if e.BaseURL != "" {
						status += fmt.Sprintf("\n  %14s endpoint: %s", "", e.BaseURL)
					}
					fmt.Fprintf(os.Stderr, "  %-14s %s\n", p.id, status)
				case ok && e.BaseURL != "":
					fmt.Fprintf(os.Stderr, "  %-14s %s (no key)\n  %14s endpoint: %s\n", p.id, color.GreenString(i18n.T("configured")), "", e.BaseURL)
				default:
					fmt.Fprintf(os.Stderr, "  %-14s %s\n", p.id, color.RedString(i18n.T("not configured")))
				}
			}

			if env := os.Getenv(settings.EnvAPIKey); env != "" {
				fmt.Fprintf(os.Stderr, "\n  %s: %s %s\n", settings.EnvAPIKey, color.GreenString(settings.MaskKey(env)), i18n.T("(overrides stored keys)"))
			} else {
				fmt.Fprintf(os.Stderr, "\n  %s: %s\n", settings.EnvAPIKey, color.RedString(i18n.T("not set")))
			}
			fmt.Fprintf(os.Stderr, "  %s\n\n", settings.FilePath())
			return nil
		},
	}
}
