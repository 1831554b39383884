package apiclient

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	keyNetworkError   = "network_error"
	keySessionExpired = "session_expired"
)

var (
	supportedLanguages = []language.Tag{language.English, language.Azerbaijani, language.Russian}
	languageMatcher    = language.NewMatcher(supportedLanguages)
	messageCatalog     = buildCatalog()
)

type translation struct {
	tag     language.Tag
	key     string
	message string
}

var translations = []translation{
	{language.English, keyNetworkError, "Unable to reach the server. Please check your internet connection and try again."},
	{language.English, keySessionExpired, "Your session has expired. Please log in again."},
	{language.Azerbaijani, keyNetworkError, "Serverə qoşulmaq mümkün olmadı. İnternet bağlantınızı yoxlayın və yenidən cəhd edin."},
	{language.Azerbaijani, keySessionExpired, "Sessiyanızın müddəti bitib. Zəhmət olmasa yenidən daxil olun."},
	{language.Russian, keyNetworkError, "Не удалось подключиться к серверу. Проверьте подключение к интернету и повторите попытку."},
	{language.Russian, keySessionExpired, "Ваша сессия истекла. Пожалуйста, войдите снова."},
}

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, t := range translations {
		if err := b.SetString(t.tag, t.key, t.message); err != nil {
			panic("apiclient: invalid translation " + t.key + ": " + err.Error())
		}
	}
	return b
}

// messages holds the localized strings a client hands to callers.
type messages struct {
	network        string
	sessionExpired string
}

func newMessages(tag language.Tag) messages {
	_, idx, _ := languageMatcher.Match(tag)
	p := message.NewPrinter(supportedLanguages[idx], message.Catalog(messageCatalog))
	return messages{
		network:        p.Sprintf(keyNetworkError),
		sessionExpired: p.Sprintf(keySessionExpired),
	}
}

// ParseLanguage parses a BCP 47 tag such as "az" or "ru-RU", falling back to English.
func ParseLanguage(s string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return language.English
	}
	return tag
}
