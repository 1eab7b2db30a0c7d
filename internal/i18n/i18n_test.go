package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestDefault_HasEveryLanguage(t *testing.T) {
	b := Default()
	for _, lang := range Langs {
		assert.NotEmpty(t, b.Keys(lang), "language %s", lang)
	}
}

func TestDefault_RussianAndEnglishAreComplete(t *testing.T) {
	b := Default()
	assert.Equal(t, b.Keys(Russian), b.Keys(English))
}

func TestT_Lookup(t *testing.T) {
	en := Default().Translator(English)
	assert.Equal(t, "Cart", en.T("cart.title", nil))
	assert.Equal(t, "Корзина", Default().Translator(Russian).T("cart.title", nil))
	assert.Equal(t, "Себет", Default().Translator(Kazakh).T("cart.title", nil))
}

func TestT_Params(t *testing.T) {
	en := Default().Translator(English)
	got := en.T("cart.summary", map[string]any{"count": 3, "noun": "items", "total": "12.50"})
	assert.Equal(t, "3 items, total 12.50", got)
}

func TestT_RepeatedPlaceholder(t *testing.T) {
	b, err := Load([]byte("en:\n  echo: \"{x}-{x}\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "1-1", b.Translator(English).T("echo", map[string]any{"x": 1}))
}

func TestT_FallbackChain(t *testing.T) {
	b, err := Load([]byte(`
ru:
  only.ru: русский
  both: русский
en:
  only.en: english
  both: english
kk:
  mine: қазақша
`))
	require.NoError(t, err)
	kk := b.Translator(Kazakh)

	assert.Equal(t, "қазақша", kk.T("mine", nil))
	assert.Equal(t, "русский", kk.T("both", nil), "ru before en")
	assert.Equal(t, "english", kk.T("only.en", nil))
	assert.Equal(t, "missing.key", kk.T("missing.key", nil))
}

func TestLoad_RejectsUnknownLanguage(t *testing.T) {
	_, err := Load([]byte("de:\n  a: b\n"))
	assert.Error(t, err)
}

func TestParseLang(t *testing.T) {
	for in, want := range map[string]Lang{"ru": Russian, "en": English, "en-US": English, "kk-KZ": Kazakh} {
		got, err := ParseLang(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseLang("de")
	assert.Error(t, err)
	_, err = ParseLang("???")
	assert.Error(t, err)
}

func TestLang_Tag(t *testing.T) {
	assert.Equal(t, language.Russian, Russian.Tag())
	assert.Equal(t, language.English, English.Tag())
}

func TestPluralNoun_Slavic(t *testing.T) {
	forms := func(n int) string { return PluralNoun(n, "товар", "товара", "товаров") }

	assert.Equal(t, "товар", forms(1))
	assert.Equal(t, "товар", forms(21))
	assert.Equal(t, "товара", forms(2))
	assert.Equal(t, "товара", forms(34))
	assert.Equal(t, "товаров", forms(0))
	assert.Equal(t, "товаров", forms(5))
	assert.Equal(t, "товаров", forms(11))
	assert.Equal(t, "товаров", forms(14))
	assert.Equal(t, "товаров", forms(111))
	assert.Equal(t, "товара", forms(-3))
}

func TestPluralNoun_TwoForms(t *testing.T) {
	assert.Equal(t, "item", PluralNoun(1, "item", "items", "items"))
	assert.Equal(t, "items", PluralNoun(21, "item", "items", "items"))
	assert.Equal(t, "items", PluralNoun(0, "item", "items", "items"))
}

func TestNoun(t *testing.T) {
	ru := Default().Translator(Russian)
	assert.Equal(t, "отзыва", ru.Noun("review", 3))
	en := Default().Translator(English)
	assert.Equal(t, "orders", en.Noun("order", 5))
}
