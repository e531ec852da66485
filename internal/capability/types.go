package capability

import (
	"fmt"
	"strings"
)

// Status is the availability of a capability as reported by its provider.
type Status string

const (
	// StatusUnknown is the unset state before the first probe resolves.
	StatusUnknown      Status = ""
	StatusDownloadable Status = "downloadable"
	StatusDownloading  Status = "downloading"
	StatusAvailable    Status = "available"
	StatusUnavailable  Status = "unavailable"
)

// String returns the wire name, or "unknown" for the unset status.
func (s Status) String() string {
	if s == StatusUnknown {
		return "unknown"
	}
	return string(s)
}

// IsKnown reports whether s is one of the four provider-reported statuses.
func (s Status) IsKnown() bool {
	switch s {
	case StatusDownloadable, StatusDownloading, StatusAvailable, StatusUnavailable:
		return true
	}
	return false
}

// ParseStatus converts a wire name into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsKnown() {
		return StatusUnknown, fmt.Errorf("unknown capability status %q", s)
	}
	return st, nil
}

// Kind identifies a capability family.
type Kind string

const (
	KindLanguageModel Kind = "prompt"
	KindTranslator    Kind = "translator"
	KindSummarizer    Kind = "summarizer"
	KindProofreader   Kind = "proofreader"
)

// AllKinds lists the capability families in display order.
var AllKinds = []Kind{KindLanguageModel, KindTranslator, KindSummarizer, KindProofreader}

// ParseKind accepts a kind name or one of its common aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prompt", "languagemodel", "language-model", "generate":
		return KindLanguageModel, nil
	case "translator", "translate":
		return KindTranslator, nil
	case "summarizer", "summarize":
		return KindSummarizer, nil
	case "proofreader", "proofread":
		return KindProofreader, nil
	}
	return "", fmt.Errorf("unknown capability %q (want one of prompt, translator, summarizer, proofreader)", s)
}

// DisplayName is the human-readable name used in messages.
func (k Kind) DisplayName() string {
	switch k {
	case KindLanguageModel:
		return "Prompt AI"
	case KindTranslator:
		return "Translator"
	case KindSummarizer:
		return "Summarizer"
	case KindProofreader:
		return "Proofreader"
	}
	return string(k)
}

// NotSupportedMessage is the default text shown when the family is absent.
func (k Kind) NotSupportedMessage() string {
	return k.DisplayName() + " is not supported"
}

// UnavailableMessage is the default text shown when the provider declines the options.
func (k Kind) UnavailableMessage() string {
	if k == KindTranslator {
		return "Translation is not available for the selected languages"
	}
	return k.DisplayName() + " is not available"
}
