package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration errors. Any of them aborts the run before a network call.
var (
	ErrMissingNewsKey       = errors.New("NEWS_API_KEY is required")
	ErrMissingLLMKey        = errors.New("language model API key is required")
	ErrMissingSender        = errors.New("EMAIL_USER is required")
	ErrMissingPassword      = errors.New("EMAIL_PASS is required")
	ErrUnknownProvider      = errors.New("ANALYZER_PROVIDER must be one of: gemini, openai, anthropic")
	ErrInvalidSMTPPort      = errors.New("SMTP_PORT must be a valid port number")
	ErrNoCategories         = errors.New("news.categories needs at least one entry")
	ErrCategoryMissingLabel = errors.New("category label is required")
	ErrCategoryMissingQuery = errors.New("category needs a query or a feed")
	ErrInvalidPageSize      = errors.New("news.page_size must be between 1 and 100")
	ErrInvalidMaxArticles   = errors.New("news.max_articles must be non-negative")
	ErrInvalidCompleteness  = errors.New("news.completeness must be 'strict' or 'lenient'")
	ErrInvalidWorkers       = errors.New("analyzer.workers must be at least 1")
	ErrInvalidMinLength     = errors.New("analyzer.min_length must be non-negative")
	ErrInvalidFormat        = errors.New("render.format must be 'html' or 'text'")
	ErrInvalidTimeout       = errors.New("timeouts must be at least 1 second")
)

const (
	defaultConfigFile     = "newsletter.yaml"
	defaultRecipientsFile = "recipients.txt"
	defaultNewsEndpoint   = "https://newsapi.org/v2/everything"

	CompletenessStrict  = "strict"
	CompletenessLenient = "lenient"

	FormatHTML = "html"
	FormatText = "text"

	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is built once at startup and handed to every component.
type Config struct {
	NewsAPIKey     string `yaml:"-"`
	LLMAPIKey      string `yaml:"-"`
	SenderEmail    string `yaml:"-"`
	SenderPassword string `yaml:"-"`
	Provider       string `yaml:"-"`
	SMTPHost       string `yaml:"-"`
	SMTPPort       int    `yaml:"-"`
	RecipientsFile string `yaml:"-"`
	LogLevel       string `yaml:"-"`

	News     NewsConfig     `yaml:"news"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Render   RenderConfig   `yaml:"render"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

// NewsConfig controls which articles are fetched.
type NewsConfig struct {
	Endpoint     string           `yaml:"endpoint"`
	Categories   []CategoryConfig `yaml:"categories"`
	Domains      []string         `yaml:"domains"`
	Language     string           `yaml:"language"`
	SortBy       string           `yaml:"sort_by"`
	PageSize     int              `yaml:"page_size"`
	MaxArticles  int              `yaml:"max_articles"`
	Completeness string           `yaml:"completeness"`
}

// CategoryConfig is one labelled query. Feed, when set, is fetched as RSS/Atom
// instead of going through the news API.
type CategoryConfig struct {
	Label string `yaml:"label"`
	Query string `yaml:"query"`
	Feed  string `yaml:"feed"`
}

// AnalyzerConfig configures the language model call.
type AnalyzerConfig struct {
	Model       string            `yaml:"model"`
	MinLength   int               `yaml:"min_length"`
	Workers     int               `yaml:"workers"`
	Placeholder string            `yaml:"placeholder"`
	Safety      map[string]string `yaml:"safety"`
}

// RenderConfig configures the newsletter document and mail subject.
type RenderConfig struct {
	Format        string      `yaml:"format"`
	Title         string      `yaml:"title"`
	Tagline       string      `yaml:"tagline"`
	SubjectPrefix string      `yaml:"subject_prefix"`
	TextWidth     int         `yaml:"text_width"`
	Highlights    []Highlight `yaml:"highlights"`
}

// TimeoutConfig bounds each outbound call, in seconds.
type TimeoutConfig struct {
	FetchSec   int `yaml:"fetch_sec"`
	AnalyzeSec int `yaml:"analyze_sec"`
	SendSec    int `yaml:"send_sec"`
}

func (t TimeoutConfig) Fetch() time.Duration   { return time.Duration(t.FetchSec) * time.Second }
func (t TimeoutConfig) Analyze() time.Duration { return time.Duration(t.AnalyzeSec) * time.Second }
func (t TimeoutConfig) Send() time.Duration    { return time.Duration(t.SendSec) * time.Second }

// DefaultConfig returns the built-in newsletter setup.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderGemini,
		SMTPHost:       "smtp.gmail.com",
		SMTPPort:       465,
		RecipientsFile: defaultRecipientsFile,
		LogLevel:       "info",
		News: NewsConfig{
			Endpoint: defaultNewsEndpoint,
			Categories: []CategoryConfig{
				{Label: "INDIA STRATEGIC", Query: "Indian economy OR RBI policy OR India trade"},
				{Label: "GLOBAL FINANCE", Query: "Federal Reserve OR ECB OR interest rates banking"},
				{Label: "POLICY & LAW", Query: "Supreme Court India OR Government Bill OR Regulation"},
			},
			Domains: []string{
				"economictimes.indiatimes.com",
				"livemint.com",
				"reuters.com",
				"bloomberg.com",
				"indianexpress.com",
			},
			Language:     "en",
			SortBy:       "publishedAt",
			PageSize:     5,
			MaxArticles:  12,
			Completeness: CompletenessStrict,
		},
		Analyzer: AnalyzerConfig{
			MinLength:   20,
			Workers:     1,
			Placeholder: "<p><em>Strategic review pending.</em></p>",
		},
		Render: RenderConfig{
			Format:        FormatHTML,
			Title:         "THE DAILY INTEL",
			Tagline:       "INDIA • GLOBAL FINANCE • GEOPOLITICS",
			SubjectPrefix: "The Daily Intel",
			TextWidth:     72,
		},
		Timeouts: TimeoutConfig{
			FetchSec:   30,
			AnalyzeSec: 60,
			SendSec:    30,
		},
	}
}

// LoadConfig builds the configuration from the optional YAML file and the
// environment. getenv is usually os.Getenv.
func LoadConfig(getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	path := getenv("NEWSLETTER_CONFIG")
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	c.NewsAPIKey = getenv("NEWS_API_KEY")
	c.SenderEmail = getenv("EMAIL_USER")
	c.SenderPassword = getenv("EMAIL_PASS")

	if v := getenv("ANALYZER_PROVIDER"); v != "" {
		c.Provider = strings.ToLower(strings.TrimSpace(v))
	}

	switch c.Provider {
	case ProviderGemini:
		c.LLMAPIKey = getenv("GEMINI_API_KEY")
	case ProviderOpenAI:
		c.LLMAPIKey = getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		c.LLMAPIKey = getenv("ANTHROPIC_API_KEY")
	}

	if v := getenv("SMTP_HOST"); v != "" {
		c.SMTPHost = v
	}
	if v := getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidSMTPPort, v)
		}
		c.SMTPPort = port
	}
	if v := getenv("RECIPIENTS_FILE"); v != "" {
		c.RecipientsFile = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	return nil
}

// Validate checks credentials first, then the newsletter settings.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("%w, got %q", ErrUnknownProvider, c.Provider)
	}

	if c.NewsAPIKey == "" && c.needsNewsAPI() {
		return ErrMissingNewsKey
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingLLMKey, llmKeyVar(c.Provider))
	}
	if c.SenderEmail == "" {
		return ErrMissingSender
	}
	if c.SenderPassword == "" {
		return ErrMissingPassword
	}
	if c.SMTPPort < 1 || c.SMTPPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidSMTPPort, c.SMTPPort)
	}

	if err := c.News.validate(); err != nil {
		return err
	}

	if c.Analyzer.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.Analyzer.MinLength < 0 {
		return ErrInvalidMinLength
	}
	if _, err := safetySettings(c.Analyzer.Safety); err != nil {
		return err
	}

	if c.Render.Format != FormatHTML && c.Render.Format != FormatText {
		return fmt.Errorf("%w, got %q", ErrInvalidFormat, c.Render.Format)
	}

	if c.Timeouts.FetchSec < 1 || c.Timeouts.AnalyzeSec < 1 || c.Timeouts.SendSec < 1 {
		return ErrInvalidTimeout
	}

	return nil
}

func (n *NewsConfig) validate() error {
	if len(n.Categories) == 0 {
		return ErrNoCategories
	}

	for i, cat := range n.Categories {
		if strings.TrimSpace(cat.Label) == "" {
			return fmt.Errorf("category %d: %w", i, ErrCategoryMissingLabel)
		}
		if strings.TrimSpace(cat.Query) == "" && strings.TrimSpace(cat.Feed) == "" {
			return fmt.Errorf("category %q: %w", cat.Label, ErrCategoryMissingQuery)
		}
	}

	if n.PageSize < 1 || n.PageSize > 100 {
		return ErrInvalidPageSize
	}
	if n.MaxArticles < 0 {
		return ErrInvalidMaxArticles
	}
	if n.Completeness != CompletenessStrict && n.Completeness != CompletenessLenient {
		return fmt.Errorf("%w, got %q", ErrInvalidCompleteness, n.Completeness)
	}

	return nil
}

// needsNewsAPI is false only when every category is an RSS feed.
func (c *Config) needsNewsAPI() bool {
	for _, cat := range c.News.Categories {
		if cat.Feed == "" {
			return true
		}
	}
	return false
}

func llmKeyVar(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}
