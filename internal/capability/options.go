package capability

import (
	"fmt"
	"strings"
)

const (
	DefaultSystemPrompt   = "You are a helpful and friendly assistant."
	DefaultSourceLanguage = "en"
	DefaultTargetLanguage = "kn"
)

// PromptOptions configure the general-purpose language model.
type PromptOptions struct {
	SystemPrompt string  `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`
	Temperature  float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// Normalize fills in defaults.
func (o PromptOptions) Normalize() PromptOptions {
	if strings.TrimSpace(o.SystemPrompt) == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	return o
}

// Validate rejects options no runtime can serve.
func (o PromptOptions) Validate() error {
	if o.Temperature < 0 || o.Temperature > 2 {
		return Unavailable(KindLanguageModel, "temperature %.2f outside [0, 2]", o.Temperature)
	}
	return nil
}

// Instructions is the system prompt.
func (o PromptOptions) Instructions() string {
	return o.Normalize().SystemPrompt
}

// TranslatorOptions select the language pair.
type TranslatorOptions struct {
	SourceLanguage string `json:"sourceLanguage,omitempty" yaml:"sourceLanguage,omitempty"`
	TargetLanguage string `json:"targetLanguage,omitempty" yaml:"targetLanguage,omitempty"`
}

// Normalize fills in the default pair and lower-cases the codes.
func (o TranslatorOptions) Normalize() TranslatorOptions {
	o.SourceLanguage = strings.ToLower(strings.TrimSpace(o.SourceLanguage))
	o.TargetLanguage = strings.ToLower(strings.TrimSpace(o.TargetLanguage))
	if o.SourceLanguage == "" {
		o.SourceLanguage = DefaultSourceLanguage
	}
	if o.TargetLanguage == "" {
		o.TargetLanguage = DefaultTargetLanguage
	}
	return o
}

// Validate rejects unknown languages and identical source and target.
func (o TranslatorOptions) Validate() error {
	o = o.Normalize()
	if _, ok := LookupLanguage(o.SourceLanguage); !ok {
		return Unavailable(KindTranslator, "unsupported source language %q", o.SourceLanguage)
	}
	if _, ok := LookupLanguage(o.TargetLanguage); !ok {
		return Unavailable(KindTranslator, "unsupported target language %q", o.TargetLanguage)
	}
	if o.SourceLanguage == o.TargetLanguage {
		return Unavailable(KindTranslator, "source and target language are both %q", o.SourceLanguage)
	}
	return nil
}

// Instructions asks for a translation and nothing else.
func (o TranslatorOptions) Instructions() string {
	o = o.Normalize()
	return fmt.Sprintf(
		"Translate the user's text from %s to %s. Reply with the translation only, without notes or quotes.",
		LanguageLabel(o.SourceLanguage), LanguageLabel(o.TargetLanguage))
}

// Pair renders the pair as "en->kn".
func (o TranslatorOptions) Pair() string {
	o = o.Normalize()
	return o.SourceLanguage + "->" + o.TargetLanguage
}

// SummarizerType is the shape of the summary.
type SummarizerType string

const (
	SummarizerKeyPoints SummarizerType = "key-points"
	SummarizerTLDR      SummarizerType = "tldr"
	SummarizerTeaser    SummarizerType = "teaser"
	SummarizerHeadline  SummarizerType = "headline"
)

// SummarizerFormat is the output markup.
type SummarizerFormat string

const (
	SummarizerMarkdown  SummarizerFormat = "markdown"
	SummarizerPlainText SummarizerFormat = "plain-text"
)

// SummarizerLength is the requested summary length.
type SummarizerLength string

const (
	SummarizerShort  SummarizerLength = "short"
	SummarizerMedium SummarizerLength = "medium"
	SummarizerLong   SummarizerLength = "long"
)

// SummarizerOptions configure the summary.
type SummarizerOptions struct {
	Type   SummarizerType   `json:"type,omitempty" yaml:"type,omitempty"`
	Format SummarizerFormat `json:"format,omitempty" yaml:"format,omitempty"`
	Length SummarizerLength `json:"length,omitempty" yaml:"length,omitempty"`
}

// Normalize fills in key-points / markdown / medium.
func (o SummarizerOptions) Normalize() SummarizerOptions {
	if o.Type == "" {
		o.Type = SummarizerKeyPoints
	}
	if o.Format == "" {
		o.Format = SummarizerMarkdown
	}
	if o.Length == "" {
		o.Length = SummarizerMedium
	}
	return o
}

// Validate rejects unknown type, format or length values.
func (o SummarizerOptions) Validate() error {
	o = o.Normalize()
	switch o.Type {
	case SummarizerKeyPoints, SummarizerTLDR, SummarizerTeaser, SummarizerHeadline:
	default:
		return Unavailable(KindSummarizer, "unknown summary type %q", o.Type)
	}
	switch o.Format {
	case SummarizerMarkdown, SummarizerPlainText:
	default:
		return Unavailable(KindSummarizer, "unknown summary format %q", o.Format)
	}
	switch o.Length {
	case SummarizerShort, SummarizerMedium, SummarizerLong:
	default:
		return Unavailable(KindSummarizer, "unknown summary length %q", o.Length)
	}
	return nil
}

// Instructions describes the summary shape for a model.
func (o SummarizerOptions) Instructions() string {
	o = o.Normalize()

	var shape string
	switch o.Type {
	case SummarizerTLDR:
		shape = "a TL;DR: a short overview of the text"
	case SummarizerTeaser:
		shape = "a teaser that draws the reader in without giving everything away"
	case SummarizerHeadline:
		shape = "a single headline capturing the main point"
	default:
		shape = "the key points of the text as a bulleted list"
	}

	var size string
	switch o.Length {
	case SummarizerShort:
		size = "Keep it short (one sentence or up to three bullets)."
	case SummarizerLong:
		size = "Be thorough (up to a paragraph or seven bullets)."
	default:
		size = "Keep it medium length (a few sentences or up to five bullets)."
	}
	if o.Type == SummarizerHeadline {
		size = "Use at most twelve words."
	}

	format := "Format the answer as Markdown."
	if o.Format == SummarizerPlainText {
		format = "Use plain text without any Markdown."
	}
	return fmt.Sprintf("Summarize the user's text as %s. %s %s", shape, size, format)
}

// ProofreaderOptions declare the languages the input is expected in.
type ProofreaderOptions struct {
	ExpectedInputLanguages []string `json:"expectedInputLanguages,omitempty" yaml:"expectedInputLanguages,omitempty"`
}

// Normalize defaults to English input.
func (o ProofreaderOptions) Normalize() ProofreaderOptions {
	if len(o.ExpectedInputLanguages) == 0 {
		o.ExpectedInputLanguages = []string{DefaultSourceLanguage}
		return o
	}
	langs := make([]string, 0, len(o.ExpectedInputLanguages))
	for _, l := range o.ExpectedInputLanguages {
		langs = append(langs, strings.ToLower(strings.TrimSpace(l)))
	}
	o.ExpectedInputLanguages = langs
	return o
}

// Validate rejects unknown input languages.
func (o ProofreaderOptions) Validate() error {
	for _, l := range o.Normalize().ExpectedInputLanguages {
		if _, ok := LookupLanguage(l); !ok {
			return Unavailable(KindProofreader, "unsupported input language %q", l)
		}
	}
	return nil
}

// Instructions asks for the corrected input only.
func (o ProofreaderOptions) Instructions() string {
	o = o.Normalize()
	labels := make([]string, 0, len(o.ExpectedInputLanguages))
	for _, l := range o.ExpectedInputLanguages {
		labels = append(labels, LanguageLabel(l))
	}
	return fmt.Sprintf(
		"Proofread the user's %s text. Fix spelling, grammar and punctuation while keeping the meaning and tone. Reply with the corrected text only.",
		strings.Join(labels, " or "))
}
