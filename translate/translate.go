// Package translate implements the hash-mode translation stage: a batch
// that fans the run's collected literals out to every target locale, and
// an HTTP client for AI providers that serves as its Translator.
//
// Supported providers speak one of three wire formats: OpenAI chat
// completions (OpenAI, Groq, Ollama, any compatible endpoint), Google AI
// generateContent, and Anthropic messages.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/time/rate"
)

// Logger is the logger used by package translate.
var Logger = zerolog.Nop()

// Translator translates the values of record into locale. The returned
// record must carry the same keys.
type Translator interface {
	Translate(ctx context.Context, record map[string]string, locale string) (map[string]string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, record map[string]string, locale string) (map[string]string, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, record map[string]string, locale string) (map[string]string, error) {
	return f(ctx, record, locale)
}

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderOpenAI       = "openai"
	ProviderGroq         = "groq"
	ProviderOllama       = "ollama"
	ProviderGoogle       = "google"
	ProviderAnthropic    = "anthropic"
	ProviderCustomOpenAI = "custom-openai"
)

var (
	// ErrNoModel is returned when a provider has no model configured.
	ErrNoModel = errors.New("no model configured")
	// ErrKeysMismatch is returned when a reply drops keys of the request.
	ErrKeysMismatch = errors.New("reply does not preserve the key set")
)

// ---------------------------------------------------------------------------
// Default system prompt
// ---------------------------------------------------------------------------

// DefaultSystemPrompt is sent with every request; {{targetLang}} is replaced
// with the English name of the target locale.
const DefaultSystemPrompt = `You are a professional translator specializing in software localization. You are translating UI strings of a web application.

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for naturalness and fluency in {{targetLang}}, not word-for-word
- Use established IT terminology in {{targetLang}}
- Keep brand names and proper nouns unchanged

TECHNICAL REQUIREMENTS:
- The input is a JSON object. Return a JSON object with exactly the same keys, translating only the values into {{targetLang}}.
- Preserve every {placeholder} marker exactly as-is, including its name.
- Preserve leading/trailing whitespace, newlines, and punctuation patterns.
- Return ONLY the JSON object, no explanations or markdown code blocks.`

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for an AI translation service.
type Provider struct {
	// ID is the provider identifier (openai, groq, google, etc.).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
	// RPS caps requests per second (0 = unlimited).
	RPS float64
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderOpenAI: {
			ID:      ProviderOpenAI,
			Name:    "OpenAI",
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		ProviderGroq: {
			ID:      ProviderGroq,
			Name:    "Groq",
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.3-70b-versatile",
			Timeout: 60 * time.Second,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Model:   "",
			Timeout: 120 * time.Second,
		},
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google AI (Gemini)",
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-2.0-flash",
			Timeout: 120 * time.Second,
		},
		ProviderAnthropic: {
			ID:      ProviderAnthropic,
			Name:    "Anthropic",
			BaseURL: "https://api.anthropic.com/v1",
			Model:   "",
			Timeout: 120 * time.Second,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Model:   "",
			Timeout: 60 * time.Second,
		},
	}
}

// ResolveProvider fills the zero fields of p from the built-in definition
// with the same ID. Unknown IDs are treated as OpenAI-compatible.
func ResolveProvider(p Provider) Provider {
	def, ok := DefaultProviders()[p.ID]
	if !ok {
		return p
	}
	if p.Name == "" {
		p.Name = def.Name
	}
	if p.BaseURL == "" {
		p.BaseURL = def.BaseURL
	}
	if p.Model == "" {
		p.Model = def.Model
	}
	if p.Timeout == 0 {
		p.Timeout = def.Timeout
	}
	return p
}

// ---------------------------------------------------------------------------
// Client options
// ---------------------------------------------------------------------------

// Options controls the client behavior.
type Options struct {
	// Timeout is the per-request timeout (overrides provider timeout if set).
	Timeout time.Duration
	// MaxRetries is the maximum number of retries on rate limit (429),
	// transport errors and 5xx. Default: 3.
	MaxRetries int
	// SystemPrompt overrides DefaultSystemPrompt.
	SystemPrompt string
	// HTTPClient replaces the client built from the provider settings.
	HTTPClient *http.Client
	// Backoff is the base delay of the exponential backoff. Default: 1s.
	Backoff time.Duration
}

func (o *Options) effectiveTimeout(prov Provider) time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	if prov.Timeout > 0 {
		return prov.Timeout
	}
	return 120 * time.Second
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 3
}

func (o *Options) effectiveBackoff() time.Duration {
	if o.Backoff > 0 {
		return o.Backoff
	}
	return time.Second
}

// LanguageName returns the English display name of locale, or locale
// itself when it does not parse.
func LanguageName(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return locale
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return locale
}

// resolvedPrompt returns the system prompt with {{targetLang}} replaced.
func (o *Options) resolvedPrompt(locale string) string {
	prompt := o.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	return strings.ReplaceAll(prompt, "{{targetLang}}", LanguageName(locale))
}

// ---------------------------------------------------------------------------
// Rate limit state (global pause after a 429)
// ---------------------------------------------------------------------------

type rateLimitState struct {
	mu       sync.Mutex
	paused   int32 // atomic: 1 = paused
	pauseEnd time.Time
}

func (r *rateLimitState) isPaused() bool {
	return atomic.LoadInt32(&r.paused) == 1
}

func (r *rateLimitState) pause(duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauseEnd = time.Now().Add(duration)
	atomic.StoreInt32(&r.paused, 1)
}

func (r *rateLimitState) unpause() {
	atomic.StoreInt32(&r.paused, 0)
}

// waitIfPaused blocks until the rate limit pause is over.
func (r *rateLimitState) waitIfPaused(ctx context.Context) error {
	for r.isPaused() {
		r.mu.Lock()
		remaining := time.Until(r.pauseEnd)
		r.mu.Unlock()
		if remaining <= 0 {
			r.unpause()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(min(remaining, 100*time.Millisecond)):
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// HTTP client with real proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// API format types
// ---------------------------------------------------------------------------

type apiFormat int

const (
	formatOpenAIChat   apiFormat = iota // OpenAI chat/completions
	formatGeminiNative                  // Google Gemini generateContent
	formatAnthropic                     // Anthropic messages
)

func formatFor(providerID string) apiFormat {
	switch providerID {
	case ProviderGoogle:
		return formatGeminiNative
	case ProviderAnthropic:
		return formatAnthropic
	default:
		return formatOpenAIChat
	}
}

// ---------------------------------------------------------------------------
// Request builders for each API format
// ---------------------------------------------------------------------------

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"responseMimeType"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
		GenerationConfig: genConfig{Temperature: temperature, ResponseMimeType: "application/json"},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

func buildAnthropicRequest(model, systemPrompt, userPrompt string) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    string `json:"system,omitempty"`
		Messages  []msg  `json:"messages"`
	}{
		Model:     model,
		MaxTokens: 8192,
		System:    systemPrompt,
		Messages: []msg{
			{Role: "user", Content: userPrompt},
		},
	}
	return json.Marshal(req)
}

// buildHTTPRequest constructs the endpoint, headers, and body for a provider.
func buildHTTPRequest(prov Provider, systemPrompt, userPrompt string, format apiFormat) (string, map[string]string, []byte, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	var endpoint string
	var body []byte
	var err error

	switch format {
	case formatGeminiNative:
		endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent",
			strings.TrimRight(prov.BaseURL, "/"), prov.Model)
		if prov.APIKey != "" {
			headers["x-goog-api-key"] = prov.APIKey
		}
		body, err = buildGeminiRequest(systemPrompt, userPrompt, 0.3)

	case formatAnthropic:
		endpoint = strings.TrimRight(prov.BaseURL, "/") + "/messages"
		if prov.APIKey != "" {
			headers["x-api-key"] = prov.APIKey
		}
		headers["anthropic-version"] = "2023-06-01"
		body, err = buildAnthropicRequest(prov.Model, systemPrompt, userPrompt)

	default: // formatOpenAIChat
		baseURL := strings.TrimRight(prov.BaseURL, "/")
		if !strings.HasSuffix(baseURL, "/chat/completions") {
			endpoint = baseURL + "/chat/completions"
		} else {
			endpoint = baseURL
		}
		if prov.APIKey != "" {
			headers["Authorization"] = "Bearer " + prov.APIKey
		}
		body, err = buildOpenAIChatRequest(prov.Model, systemPrompt, userPrompt, 0.3)
	}

	if err != nil {
		return "", nil, nil, err
	}
	return endpoint, headers, body, nil
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

// extractResponseText tries all known response formats and returns the text.
func extractResponseText(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("invalid JSON response: %s", truncate(string(body), 200))
	}
	res := gjson.ParseBytes(body)

	if e := res.Get("error"); e.Exists() {
		if msg := e.Get("message"); msg.Exists() {
			return "", fmt.Errorf("API error: %s", msg.String())
		}
		return "", fmt.Errorf("API error: %s", e.Raw)
	}

	// OpenAI chat format
	if v := res.Get("choices.0.message.content"); v.Type == gjson.String {
		return v.String(), nil
	}
	// Gemini format
	if v := res.Get("candidates.0.content.parts.0.text"); v.Type == gjson.String {
		return v.String(), nil
	}
	// Anthropic format: first content block of type text
	if v := res.Get(`content.#(type=="text").text`); v.Type == gjson.String {
		return v.String(), nil
	}

	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// parseRetryDelay extracts the retry delay from a 429 response body.
// Looks for Google's RetryInfo detail with retryDelay field.
// Returns the delay to wait, defaulting to 60s + 5s buffer.
func parseRetryDelay(body []byte) time.Duration {
	const defaultDelay = 65 * time.Second

	var found time.Duration
	gjson.GetBytes(body, "error.details").ForEach(func(_, detail gjson.Result) bool {
		if !strings.Contains(detail.Get("@type").String(), "RetryInfo") {
			return true
		}
		d := strings.TrimSuffix(detail.Get("retryDelay").String(), "s")
		if secs, err := strconv.ParseFloat(d, 64); err == nil {
			found = time.Duration(secs*1000)*time.Millisecond + 5*time.Second
			return false
		}
		return true
	})
	if found > 0 {
		return found
	}
	return defaultDelay
}

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseRecord extracts a JSON object of strings from the reply text,
// tolerating a Markdown code fence around it.
func parseRecord(content string) (map[string]string, error) {
	content = strings.TrimSpace(content)

	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("failed to parse translation response as JSON object: %w\nResponse: %s", err, truncate(content, 300))
	}
	return out, nil
}

// checkKeys keeps only the requested keys of got and fails when any is
// missing.
func checkKeys(want, got map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(want))
	var missing []string
	for k := range want {
		v, ok := got[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		out[k] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing %s", ErrKeysMismatch, strings.Join(missing, ", "))
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Client is a Translator backed by an HTTP AI provider.
type Client struct {
	prov    Provider
	opts    Options
	format  apiFormat
	http    *http.Client
	limiter *rate.Limiter
	rl      *rateLimitState
}

// NewClient returns a client for prov. Zero provider fields are filled from
// the built-in definitions.
func NewClient(prov Provider, opts Options) (*Client, error) {
	prov = ResolveProvider(prov)
	if prov.Model == "" {
		return nil, fmt.Errorf("provider %s: %w", prov.ID, ErrNoModel)
	}
	if prov.BaseURL == "" {
		return nil, fmt.Errorf("provider %s: no base URL configured", prov.ID)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = makeHTTPClient(prov.Proxy, opts.effectiveTimeout(prov))
	}
	limit := rate.Inf
	if prov.RPS > 0 {
		limit = rate.Limit(prov.RPS)
	}
	return &Client{
		prov:    prov,
		opts:    opts,
		format:  formatFor(prov.ID),
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		rl:      &rateLimitState{},
	}, nil
}

// Provider returns the resolved provider configuration.
func (c *Client) Provider() Provider {
	return c.prov
}

// Translate sends record as a JSON object and returns the translated
// object. The reply must contain every key of record.
func (c *Client) Translate(ctx context.Context, record map[string]string, locale string) (map[string]string, error) {
	if len(record) == 0 {
		return map[string]string{}, nil
	}
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	userPrompt := fmt.Sprintf("Translate the values of this JSON object to %s:\n\n%s", LanguageName(locale), payload)
	text, err := c.call(ctx, c.opts.resolvedPrompt(locale), userPrompt)
	if err != nil {
		return nil, err
	}

	got, err := parseRecord(text)
	if err != nil {
		return nil, err
	}
	return checkKeys(record, got)
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (c *Client) call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	endpoint, headers, body, err := buildHTTPRequest(c.prov, systemPrompt, userPrompt, c.format)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	maxRetries := c.opts.effectiveMaxRetries()
	backoff := func(attempt int) time.Duration {
		return time.Duration(math.Pow(2, float64(attempt))) * c.opts.effectiveBackoff()
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Wait if globally paused (rate limit from another worker)
		if err := c.rl.waitIfPaused(ctx); err != nil {
			return "", err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		Logger.Debug().Str("provider", c.prov.Name).Int("attempt", attempt+1).Str("endpoint", endpoint).Msg("POST")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt < maxRetries && ctx.Err() == nil {
				if err := c.sleep(ctx, backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("API request failed: %w", err)
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			retryDelay := parseRetryDelay(respBody)
			Logger.Warn().Dur("delay", retryDelay).Int("attempt", attempt+1).Int("max", maxRetries).Msg("Rate limited")
			if attempt < maxRetries {
				c.rl.pause(retryDelay)
				if err := c.rl.waitIfPaused(ctx); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("rate limited after %d retries: %s", maxRetries, truncate(string(respBody), 500))
		}

		if resp.StatusCode != http.StatusOK {
			if attempt < maxRetries && resp.StatusCode >= 500 {
				if err := c.sleep(ctx, backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
		}

		return extractResponseText(respBody)
	}

	return "", fmt.Errorf("exhausted all %d retries", maxRetries)
}

// truncate truncates a string to maxLen bytes.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
