package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/samvad-hq/bizdesk/internal/logger"
	"github.com/samvad-hq/bizdesk/internal/storage"
)

const cookieKeyPrefix = "session/cookies/"

// storedCookie keeps the attributes the jar needs to replay a cookie.
type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// CookieJar is an http.CookieJar that persists cookies set by the API origin
// so the session survives process restarts. Cookies for other hosts live in
// memory only. Values are never inspected.
type CookieJar struct {
	mu      sync.Mutex
	inner   *cookiejar.Jar
	origin  *url.URL
	store   storage.Store
	key     string
	cookies map[string]storedCookie
	log     logger.Logger
	now     func() time.Time
}

// NewCookieJar restores the persisted cookies for apiBase into a fresh jar.
func NewCookieJar(store storage.Store, apiBase string, log logger.Logger) (*CookieJar, error) {
	origin, err := url.Parse(apiBase)
	if err != nil || origin.Host == "" {
		return nil, fmt.Errorf("cookie jar origin %q is not an absolute URL", apiBase)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	j := &CookieJar{
		origin:  &url.URL{Scheme: origin.Scheme, Host: origin.Host, Path: "/"},
		store:   store,
		key:     cookieKeyPrefix + strings.ToLower(origin.Host),
		cookies: make(map[string]storedCookie),
		log:     log,
		now:     time.Now,
	}
	if err := j.reset(); err != nil {
		return nil, err
	}
	if err := j.restore(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *CookieJar) reset() error {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	j.inner = inner
	return nil
}

func (j *CookieJar) restore() error {
	raw, ok, err := j.store.Get(j.key)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}
	if !ok {
		return nil
	}
	var list []storedCookie
	if err := json.Unmarshal(raw, &list); err != nil {
		j.log.WarnObj("discarding unreadable persisted cookies", "error", err.Error())
		return nil
	}
	now := j.now()
	replay := make([]*http.Cookie, 0, len(list))
	for _, c := range list {
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		j.cookies[cookieID(c.Name, c.Path, c.Domain)] = c
		replay = append(replay, c.httpCookie())
	}
	j.inner.SetCookies(j.origin, replay)
	return nil
}

// SetCookies implements http.CookieJar.
func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	if !strings.EqualFold(u.Host, j.origin.Host) {
		return
	}

	now := j.now()
	for _, c := range cookies {
		id := cookieID(c.Name, c.Path, c.Domain)
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			delete(j.cookies, id)
			continue
		}
		sc := storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if c.MaxAge > 0 {
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.cookies[id] = sc
	}
	if err := j.persist(); err != nil {
		j.log.WarnObj("persist cookies failed", "error", err.Error())
	}
}

// Cookies implements http.CookieJar.
func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Clear drops every cookie, persisted or not.
func (j *CookieJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.cookies = make(map[string]storedCookie)
	if err := j.reset(); err != nil {
		return err
	}
	if err := j.store.Delete(j.key); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}

// Len reports how many origin cookies are persisted.
func (j *CookieJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

func (j *CookieJar) persist() error {
	if len(j.cookies) == 0 {
		return j.store.Delete(j.key)
	}
	list := make([]storedCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		list = append(list, c)
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return j.store.Set(j.key, raw, 0)
}

func (c storedCookie) httpCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
}

func cookieID(name, path, domain string) string {
	return strings.ToLower(domain) + ";" + path + ";" + name
}
