package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

var (
	ErrShortAnalysis = errors.New("analysis shorter than minimum length")
	ErrEmptyResponse = errors.New("language model returned no text")
)

// TextGenerator is a language model backend that turns a prompt into text
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Analyzer asks the language model for a short strategic analysis of each
// article. A failed or unusable response is replaced by the placeholder and
// never retried.
type Analyzer struct {
	generator   TextGenerator
	minLength   int
	placeholder string
	workers     int
	timeout     time.Duration
	logger      *slog.Logger
}

func NewAnalyzer(generator TextGenerator, cfg AnalyzerConfig, timeout time.Duration, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = discardLogger()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Analyzer{
		generator:   generator,
		minLength:   cfg.MinLength,
		placeholder: cfg.Placeholder,
		workers:     workers,
		timeout:     timeout,
		logger:      logger,
	}
}

func buildAnalysisPrompt(article Article) string {
	return fmt.Sprintf(`Act as a Senior Geopolitical and Markets Analyst. Analyze this news item:
Title: %s
Details: %s

Rules: No Markdown. No code fences or backticks. Use simple HTML tags for structure.
Output exactly this structure:
<p><strong>CONTEXT:</strong> [1 sentence of historical or political background]</p>
<p><strong>ANALYSIS:</strong> [the long-term strategic impact on markets, policy or society]</p>
<ul>
<li><strong>PROS:</strong> [who or what benefits]</li>
<li><strong>RISKS:</strong> [what could go wrong and for whom]</li>
</ul>
<p><strong>IMPACT:</strong> High/Medium/Low</p>`, article.Title, article.Description)
}

// cleanAnalysis strips code fence markers the model adds despite the prompt.
func cleanAnalysis(content string) string {
	content = strings.ReplaceAll(content, "```html", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}

// Analyze returns the model's analysis or the placeholder, never an error.
func (a *Analyzer) Analyze(ctx context.Context, article Article) Analysis {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	response, err := a.generator.GenerateText(ctx, buildAnalysisPrompt(article))
	if err != nil {
		a.logger.Warn("analysis failed, using placeholder",
			"title", article.Title, "provider", a.generator.Name(), "error", err)
		return Analysis{Text: a.placeholder, Fallback: true, Err: err}
	}

	content := cleanAnalysis(response)
	if utf8.RuneCountInString(content) < a.minLength {
		a.logger.Warn("analysis too short, using placeholder",
			"title", article.Title, "length", utf8.RuneCountInString(content))
		return Analysis{Text: a.placeholder, Fallback: true, Err: ErrShortAnalysis}
	}

	return Analysis{Text: content}
}

// AnalyzeAll analyzes articles with up to workers calls in flight. Sections
// come back in the same order as articles.
func (a *Analyzer) AnalyzeAll(ctx context.Context, articles []Article) []ReportSection {
	sections := make([]ReportSection, len(articles))

	var g errgroup.Group
	g.SetLimit(a.workers)

	for i, article := range articles {
		i, article := i, article
		g.Go(func() error {
			a.logger.Debug("analyzing article", "index", i, "title", article.Title)
			sections[i] = ReportSection{Article: article, Analysis: a.Analyze(ctx, article)}
			return nil
		})
	}
	_ = g.Wait()

	return sections
}
