package services

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Regional variants whose names are commonly picked in language selectors.
var namedVariants = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.BrazilianPortuguese,
	language.EuropeanPortuguese,
	language.LatinAmericanSpanish,
	language.CanadianFrench,
	language.SimplifiedChinese,
	language.TraditionalChinese,
}

var (
	languageNamesOnce sync.Once
	languageNames     map[string]language.Tag
)

// languageByName maps English names ("French") and native names
// ("français") to their tags.
func languageByName(name string) (language.Tag, bool) {
	languageNamesOnce.Do(func() {
		english := display.English.Languages()
		tags := append(append([]language.Tag{}, display.Supported.Tags()...), namedVariants...)

		languageNames = make(map[string]language.Tag, 2*len(tags))
		for _, tag := range tags {
			for _, n := range []string{english.Name(tag), display.Self.Name(tag)} {
				if n == "" {
					continue
				}
				if _, taken := languageNames[strings.ToLower(n)]; !taken {
					languageNames[strings.ToLower(n)] = tag
				}
			}
		}
	})

	tag, ok := languageNames[strings.ToLower(name)]
	return tag, ok
}

// NormalizeLanguage accepts a BCP 47 code ("es", "pt-BR") or a language name
// ("Spanish", "español") and returns the canonical code.
func NormalizeLanguage(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrValidation, field)
	}

	if tag, ok := languageByName(value); ok {
		return tag.String(), nil
	}

	tag, err := language.Parse(value)
	if err != nil || tag == language.Und {
		return "", fmt.Errorf("%w: %s %q is not a known language", ErrValidation, field, value)
	}
	if _, confidence := tag.Base(); confidence == language.No {
		return "", fmt.Errorf("%w: %s %q is not a known language", ErrValidation, field, value)
	}
	return tag.String(), nil
}

// LanguageName renders a code as its English name, falling back to the code.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
