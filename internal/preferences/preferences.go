// Package preferences stores UI settings (theme, language, notifications) as
// opaque JSON blobs. Only the language is interpreted, to localize API client
// messages.
package preferences

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/samvad-hq/bizdesk/internal/storage"
	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

// Known preference names.
const (
	Theme         = "theme"
	Language      = "language"
	Notifications = "notifications"
)

const keyPrefix = "prefs/"

var known = map[string]bool{Theme: true, Language: true, Notifications: true}

// Names lists the supported preference names in sorted order.
func Names() []string {
	out := make([]string, 0, len(known))
	for name := range known {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Store reads and writes preference blobs.
type Store struct {
	kv storage.Store
}

func New(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// Get returns the stored blob, or ok=false when unset.
func (s *Store) Get(name string) (json.RawMessage, bool, error) {
	key, err := keyFor(name)
	if err != nil {
		return nil, false, err
	}
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return nil, false, fmt.Errorf("load preference %s: %w", name, err)
	}
	if !ok {
		return nil, false, nil
	}
	return json.RawMessage(raw), true, nil
}

// Set stores value, which must be valid JSON. A bare word that is not JSON is
// stored as a JSON string, so `dark` and `"dark"` are equivalent.
func (s *Store) Set(name string, value []byte) error {
	key, err := keyFor(name)
	if err != nil {
		return err
	}
	blob := normalize(value)
	if key == keyPrefix+Language {
		var lang string
		if err := json.Unmarshal(blob, &lang); err != nil {
			return fmt.Errorf("language must be a string: %w", err)
		}
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("language %q: %w", lang, err)
		}
	}
	if err := s.kv.Set(key, blob, 0); err != nil {
		return fmt.Errorf("save preference %s: %w", name, err)
	}
	return nil
}

// Reset removes a preference.
func (s *Store) Reset(name string) error {
	key, err := keyFor(name)
	if err != nil {
		return err
	}
	return s.kv.Delete(key)
}

// All returns every set preference.
func (s *Store) All() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	for _, name := range Names() {
		v, ok, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		if ok {
			out[name] = v
		}
	}
	return out, nil
}

// LanguageTag returns the stored language, or fallback when unset or unreadable.
func (s *Store) LanguageTag(fallback string) language.Tag {
	if raw, ok, err := s.Get(Language); err == nil && ok {
		var lang string
		if json.Unmarshal(raw, &lang) == nil && lang != "" {
			return apiclient.ParseLanguage(lang)
		}
	}
	return apiclient.ParseLanguage(fallback)
}

func keyFor(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !known[name] {
		return "", fmt.Errorf("unknown preference %q (expected one of %s)", name, strings.Join(Names(), ", "))
	}
	return keyPrefix + name, nil
}

func normalize(value []byte) []byte {
	trimmed := []byte(strings.TrimSpace(string(value)))
	if json.Valid(trimmed) {
		return trimmed
	}
	quoted, _ := json.Marshal(string(trimmed))
	return quoted
}
