package capability

import "strings"

// Language is a translation language offered to users.
type Language struct {
	Code  string `json:"code" yaml:"code"`
	Label string `json:"label" yaml:"label"`
}

// Languages are the translation languages capctl offers, Indian languages first.
var Languages = []Language{
	{Code: "en", Label: "English"},
	{Code: "hi", Label: "Hindi"},
	{Code: "bn", Label: "Bengali"},
	{Code: "te", Label: "Telugu"},
	{Code: "ta", Label: "Tamil"},
	{Code: "mr", Label: "Marathi"},
	{Code: "kn", Label: "Kannada"},
	{Code: "ml", Label: "Malayalam"},
	{Code: "it", Label: "Italian"},
	{Code: "fr", Label: "French"},
	{Code: "ja", Label: "Japanese"},
	{Code: "es", Label: "Spanish"},
	{Code: "de", Label: "German"},
	{Code: "zh", Label: "Chinese"},
}

// LookupLanguage finds a language by code, ignoring case.
func LookupLanguage(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// LanguageLabel returns the label for code, or the code itself when unknown.
func LanguageLabel(code string) string {
	if l, ok := LookupLanguage(code); ok {
		return l.Label
	}
	return code
}
