package httpclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewWithoutJarDropsCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("sid"); err == nil {
			w.WriteHeader(http.StatusConflict)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "x", Path: "/"})
	}))
	defer srv.Close()

	c := New(Options{Timeout: time.Second})
	for i := 0; i < 2; i++ {
		resp, err := c.R().Get(srv.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode() != http.StatusOK {
			t.Fatalf("request %d replayed a cookie, status %d", i, resp.StatusCode())
		}
	}
}

func TestNewWithJarReplaysCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("sid"); err == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "x", Path: "/"})
	}))
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("jar: %v", err)
	}
	c := New(Options{Timeout: time.Second, Jar: jar})
	if _, err := c.R().Get(srv.URL); err != nil {
		t.Fatalf("first request: %v", err)
	}
	resp, err := c.R().Get(srv.URL)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if resp.StatusCode() != http.StatusAccepted {
		t.Fatalf("cookie not replayed, status %d", resp.StatusCode())
	}
}
