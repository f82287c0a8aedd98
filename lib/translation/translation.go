package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

const domain = "default"

// Configure loads the catalog for lang from dir/<lang>/LC_MESSAGES/default.po.
// Values such as "ja_JP.UTF-8" are reduced to their base language.
func Configure(dir, lang string) {
	gotext.Configure(dir, NormalizeLanguage(lang), domain)
}

// NormalizeLanguage maps a locale string to its base language code, "en" when unknown.
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	if base.String() == "und" {
		return "en"
	}
	return base.String()
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
