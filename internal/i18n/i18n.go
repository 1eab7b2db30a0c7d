// Package i18n is the static display-string dictionary.
//
// Lookups fall back from the requested language to Russian, then English,
// then the key itself, so a missing translation never breaks output.
package i18n

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

// Lang is a supported interface language.
type Lang string

const (
	Russian Lang = "ru"
	English Lang = "en"
	Kazakh  Lang = "kk"
)

// Langs lists the supported languages, default first.
var Langs = []Lang{Russian, English, Kazakh}

// fallback is tried after the requested language.
var fallback = []Lang{Russian, English}

// ParseLang accepts a language code such as "en" or "kk-KZ".
func ParseLang(s string) (Lang, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("unsupported language %q: %w", s, err)
	}
	base, _ := tag.Base()
	lang := Lang(base.String())
	if !slices.Contains(Langs, lang) {
		return "", fmt.Errorf("unsupported language %q (want one of ru, en, kk)", s)
	}
	return lang, nil
}

// Tag is the BCP 47 tag of the language, for collation.
func (l Lang) Tag() language.Tag {
	return language.Make(string(l))
}

// Bundle holds the dictionaries of every language.
type Bundle struct {
	dicts map[Lang]map[string]string
}

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
)

// Default returns the bundle built from the embedded messages.
// Panics if the embedded file is invalid.
func Default() *Bundle {
	defaultOnce.Do(func() {
		b, err := Load(messagesYAML)
		if err != nil {
			panic(fmt.Sprintf("i18n: embedded messages: %v", err))
		}
		defaultBundle = b
	})
	return defaultBundle
}

// Load parses a messages document keyed by language code.
func Load(data []byte) (*Bundle, error) {
	var raw map[Lang]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse messages: %w", err)
	}
	for lang := range raw {
		if !slices.Contains(Langs, lang) {
			return nil, fmt.Errorf("parse messages: unsupported language %q", lang)
		}
	}
	return &Bundle{dicts: raw}, nil
}

// Keys returns the sorted keys defined for lang, without fallback.
func (b *Bundle) Keys(lang Lang) []string {
	keys := make([]string, 0, len(b.dicts[lang]))
	for k := range b.dicts[lang] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Translator returns a translator for lang.
func (b *Bundle) Translator(lang Lang) *Translator {
	return &Translator{bundle: b, lang: lang}
}

// Translator renders display strings in one language.
type Translator struct {
	bundle *Bundle
	lang   Lang
}

// Lang returns the translator's language.
func (t *Translator) Lang() Lang {
	return t.lang
}

// T looks up key and substitutes {name} placeholders from params.
func (t *Translator) T(key string, params map[string]any) string {
	msg := t.lookup(key)
	if len(params) == 0 {
		return msg
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(params[name]))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Noun returns the plural form of noun.<name> for count.
func (t *Translator) Noun(name string, count int) string {
	prefix := "noun." + name + "."
	return PluralNoun(count, t.lookup(prefix+"one"), t.lookup(prefix+"few"), t.lookup(prefix+"many"))
}

func (t *Translator) lookup(key string) string {
	if msg, ok := t.bundle.dicts[t.lang][key]; ok {
		return msg
	}
	for _, lang := range fallback {
		if msg, ok := t.bundle.dicts[lang][key]; ok {
			return msg
		}
	}
	return key
}

// PluralNoun picks the Slavic plural form for count.
// When few and many coincide the language only distinguishes one and many.
func PluralNoun(count int, one, few, many string) string {
	if few == many {
		if count == 1 {
			return one
		}
		return many
	}

	if count < 0 {
		count = -count
	}
	n := count % 100
	n1 := n % 10
	switch {
	case n > 10 && n < 20:
		return many
	case n1 > 1 && n1 < 5:
		return few
	case n1 == 1:
		return one
	default:
		return many
	}
}
