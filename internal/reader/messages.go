package reader

import "strings"

// fallbackNoContent is shown when no translation exists for the locale
const fallbackNoContent = "[i18n-key: noContent]"

var noContent = map[string]string{
	"en":    "No novel loaded. Run novelreader load <file>.",
	"zh-cn": "尚未加载小说，请运行 novelreader load <文件>。",
}

// Placeholder returns the localised "no content" line
func Placeholder(locale string) string {
	key := strings.ToLower(locale)
	if msg, ok := noContent[key]; ok {
		return msg
	}
	// "en-GB" falls back to "en"
	if i := strings.IndexByte(key, '-'); i > 0 {
		if msg, ok := noContent[key[:i]]; ok {
			return msg
		}
	}
	return fallbackNoContent
}
