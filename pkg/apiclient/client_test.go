package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/text/language"
)

// recordingLogger keeps every logged message.
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (r *recordingLogger) add(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, level+":"+msg)
}

func (r *recordingLogger) InfoObj(msg, _ string, _ interface{})  { r.add("info", msg) }
func (r *recordingLogger) DebugObj(msg, _ string, _ interface{}) { r.add("debug", msg) }
func (r *recordingLogger) WarnObj(msg, _ string, _ interface{})  { r.add("warn", msg) }
func (r *recordingLogger) ErrorObj(msg, _ string, _ interface{}) { r.add("error", msg) }

func (r *recordingLogger) has(entry string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e == entry {
			return true
		}
	}
	return false
}

// respond returns a handler writing a fixed status, content type and body.
func respond(status int, contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestDoReturnsParsedJSON(t *testing.T) {
	client := newTestClient(t, respond(http.StatusOK, "application/json; charset=utf-8", `{"user":{"id":"u1"},"count":2}`))

	resp, err := client.Get(context.Background(), "/Auth/check")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("Status = %d", resp.Status)
	}
	want := map[string]any{
		"user":  map[string]any{"id": "u1"},
		"count": float64(2),
	}
	if !reflect.DeepEqual(resp.Data(), want) {
		t.Fatalf("Data = %#v, want %#v", resp.Data(), want)
	}
	if resp.Body.Kind != BodyJSON {
		t.Fatalf("Kind = %s", resp.Body.Kind)
	}
}

func TestDoReturnsNilDataForEmptyBody(t *testing.T) {
	for _, tc := range []struct {
		name        string
		status      int
		contentType string
	}{
		{"no content", http.StatusNoContent, ""},
		{"json declared", http.StatusOK, "application/json"},
		{"text declared", http.StatusCreated, "text/plain"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, respond(tc.status, tc.contentType, ""))
			resp, err := client.Delete(context.Background(), "/Contacts/1")
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if resp.Data() != nil {
				t.Fatalf("expected nil data, got %#v", resp.Data())
			}
			if resp.Status != tc.status {
				t.Fatalf("Status = %d want %d", resp.Status, tc.status)
			}
			if err := resp.Decode(&struct{}{}); !errors.Is(err, ErrNoContent) {
				t.Fatalf("Decode on empty body = %v, want ErrNoContent", err)
			}
		})
	}
}

func TestDoParsesJSONMislabeledAsText(t *testing.T) {
	client := newTestClient(t, respond(http.StatusOK, "text/plain; charset=utf-8", `[{"code":"+994"}]`))

	resp, err := client.Get(context.Background(), "/CountryCodes")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []any{map[string]any{"code": "+994"}}
	if !reflect.DeepEqual(resp.Data(), want) {
		t.Fatalf("Data = %#v, want parsed array", resp.Data())
	}

	var codes []struct {
		Code string `json:"code"`
	}
	if err := resp.Decode(&codes); err != nil || len(codes) != 1 || codes[0].Code != "+994" {
		t.Fatalf("Decode = %#v err=%v", codes, err)
	}
}

func TestDoKeepsPlainText(t *testing.T) {
	for _, contentType := range []string{"text/plain", ""} {
		client := newTestClient(t, respond(http.StatusOK, contentType, "plain message"))

		resp, err := client.Post(context.Background(), "/Auth/logout", nil)
		if err != nil {
			t.Fatalf("Post: %v", err)
		}
		if got, ok := resp.Data().(string); !ok || got != "plain message" {
			t.Fatalf("content type %q: Data = %#v, want raw string", contentType, resp.Data())
		}
		if resp.Body.Kind != BodyText {
			t.Fatalf("Kind = %s", resp.Body.Kind)
		}
	}
}

func TestDoSwallowsMalformedJSONAndLogsIt(t *testing.T) {
	log := &recordingLogger{}
	client := newTestClient(t, respond(http.StatusOK, "application/json", `{"broken":`), WithLogger(log))

	resp, err := client.Get(context.Background(), "/Dashboard/metrics")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Data() != nil {
		t.Fatalf("expected nil data for malformed json, got %#v", resp.Data())
	}
	if string(resp.Body.Raw) != `{"broken":` {
		t.Fatalf("raw body should be kept for diagnostics, got %q", resp.Body.Raw)
	}
	if !log.has("warn:api response body is not valid json") {
		t.Fatalf("expected parse failure to be logged, got %v", log.entries)
	}
}

func TestDoSessionExpiredMessage(t *testing.T) {
	client := newTestClient(t, respond(http.StatusUnauthorized, "application/json", `{"message":"Unauthorized"}`))

	_, err := client.Get(context.Background(), "/Contacts")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T %v", err, err)
	}
	if httpErr.Status != http.StatusUnauthorized {
		t.Fatalf("Status = %d", httpErr.Status)
	}
	if httpErr.Message == "HTTP error! status: 401" || httpErr.Message == "Unauthorized" {
		t.Fatalf("expected dedicated session expired message, got %q", httpErr.Message)
	}
	if httpErr.Message != newMessages(language.English).sessionExpired {
		t.Fatalf("Message = %q", httpErr.Message)
	}
	if !errors.Is(err, ErrSessionExpired) || !httpErr.SessionExpired() {
		t.Fatalf("expected 401 to match ErrSessionExpired")
	}
}

func TestDoErrorMessageDerivation(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"message field", http.StatusBadRequest, "application/json", `{"message":"X"}`, "X"},
		{"error field", http.StatusConflict, "application/json", `{"error":"duplicate email"}`, "duplicate email"},
		{"title field", http.StatusNotFound, "application/problem+json", `{"title":"Not Found","status":404}`, "Not Found"},
		{"priority", http.StatusBadRequest, "application/json", `{"title":"T","error":"E","message":"M"}`, "M"},
		{"empty message skipped", http.StatusBadRequest, "application/json", `{"message":"","error":"E"}`, "E"},
		{"object message skipped", http.StatusBadRequest, "application/json", `{"message":{"a":1},"error":"Bad"}`, "Bad"},
		{"array error skipped", http.StatusUnprocessableEntity, "application/json", `{"error":["x","y"],"title":"Invalid"}`, "Invalid"},
		{"only structured fields", http.StatusBadRequest, "application/json", `{"message":{"code":7}}`, "HTTP error! status: 400"},
		{"json in text/plain", http.StatusBadRequest, "text/plain", `{"message":"from text"}`, "from text"},
		{"no known fields", http.StatusInternalServerError, "application/json", `{"detail":"boom"}`, "HTTP error! status: 500"},
		{"plain text body", http.StatusBadGateway, "text/plain", "upstream down", "HTTP error! status: 502"},
		{"empty body", http.StatusForbidden, "", "", "HTTP error! status: 403"},
		{"array body", http.StatusBadRequest, "application/json", `[{"message":"nested"}]`, "HTTP error! status: 400"},
		{"html page", http.StatusServiceUnavailable, "text/html", "<html><title>Maintenance</title></html>", "HTTP error! status: 503"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, respond(tc.status, tc.contentType, tc.body))
			_, err := client.Get(context.Background(), "/Todo/u1")

			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected HTTPError, got %T %v", err, err)
			}
			if httpErr.Message != tc.want || err.Error() != tc.want {
				t.Fatalf("Message = %q, want %q", httpErr.Message, tc.want)
			}
			if httpErr.Status != tc.status {
				t.Fatalf("Status = %d want %d", httpErr.Status, tc.status)
			}
			if errors.Is(err, ErrSessionExpired) {
				t.Fatalf("non-401 must not match ErrSessionExpired")
			}
		})
	}
}

type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }

func TestDoNetworkFailureUsesLocalizedMessage(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:443: connect: connection refused")
	client, err := New("https://api.example.test", WithTransport(failingTransport{err: cause}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.Get(context.Background(), "/Contacts")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T %v", err, err)
	}
	if strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("network error must not expose raw transport text: %q", err.Error())
	}
	if err.Error() != newMessages(language.English).network {
		t.Fatalf("Message = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected underlying cause to be reachable via errors.Is")
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		t.Fatalf("network failure must not look like an HTTP error")
	}
}

func TestDoNetworkFailureAgainstClosedServer(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusOK, "", ""))
	url := srv.URL
	srv.Close()

	client, err := New(url, WithLanguage(language.Azerbaijani))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Get(context.Background(), "/Contacts")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T %v", err, err)
	}
	if netErr.Message != newMessages(language.Azerbaijani).network {
		t.Fatalf("expected azerbaijani message, got %q", netErr.Message)
	}
}

func TestDoPassesOtherErrorsThrough(t *testing.T) {
	client := newTestClient(t, respond(http.StatusOK, "", ""))

	if _, err := client.Get(context.Background(), "Contacts"); err == nil {
		t.Fatalf("expected error for endpoint without leading slash")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Get(ctx, "/Contacts")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %T %v", err, err)
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		t.Fatalf("cancellation must not be reported as a network error")
	}
}

func TestDoRepeatedGetIsIndependent(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"total":3}`)
	}))

	first, err := client.Get(context.Background(), "/Contacts/stats")
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	second, err := client.Get(context.Background(), "/Contacts/stats")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected two round trips, got %d", hits.Load())
	}
	if !reflect.DeepEqual(first.Data(), second.Data()) || first.Status != second.Status {
		t.Fatalf("envelopes differ: %#v vs %#v", first, second)
	}
	first.Data().(map[string]any)["total"] = 99
	if second.Data().(map[string]any)["total"] != float64(3) {
		t.Fatalf("responses must not share decoded values")
	}
}

func TestDoSendsJSONContentTypeAndBody(t *testing.T) {
	var (
		gotMethod, gotType, gotBody, gotExtra string
	)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotExtra = r.Header.Get("X-Trace")
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
	}))

	_, err := client.Do(context.Background(), Request{
		Endpoint: "/ProductStock",
		Method:   "post",
		Body:     []byte(`{"name":"Chair"}`),
		Headers:  map[string]string{"X-Trace": "t1"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotMethod != http.MethodPost || gotType != "application/json" || gotBody != `{"name":"Chair"}` || gotExtra != "t1" {
		t.Fatalf("unexpected request method=%s type=%s body=%s extra=%s", gotMethod, gotType, gotBody, gotExtra)
	}

	_, err = client.Do(context.Background(), Request{
		Endpoint: "/ProductStock",
		Method:   http.MethodPut,
		Body:     []byte("raw"),
		Headers:  map[string]string{"Content-Type": "text/plain"},
	})
	if err != nil {
		t.Fatalf("Do override: %v", err)
	}
	if gotType != "text/plain" {
		t.Fatalf("expected Content-Type override, got %q", gotType)
	}
}

func TestDoDefaultsToGet(t *testing.T) {
	var gotMethod string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	}))
	if _, err := client.Do(context.Background(), Request{Endpoint: "/Dashboard/metrics"}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotMethod != http.MethodGet {
		t.Fatalf("method = %s", gotMethod)
	}
}

func TestDoForwardsSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Auth/login", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "opaque", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"user":{"id":"u1"}}`)
	})
	mux.HandleFunc("/api/Auth/check", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "opaque" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	withCookies, err := New(srv.URL + "/api/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := withCookies.Post(context.Background(), "/Auth/login", map[string]string{"email": "a@b.com", "password": "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := withCookies.Get(context.Background(), "/Auth/check"); err != nil {
		t.Fatalf("check with cookie: %v", err)
	}

	withoutCookies, err := New(srv.URL+"/api", WithoutCredentials())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := withoutCookies.Post(context.Background(), "/Auth/login", nil); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := withoutCookies.Get(context.Background(), "/Auth/check"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected cookie to be withheld, got %v", err)
	}
}

func TestDoNotifiesObserver(t *testing.T) {
	var calls []CallInfo
	var mu sync.Mutex
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), WithObserver(func(c CallInfo) {
		mu.Lock()
		calls = append(calls, c)
		mu.Unlock()
	}))

	_, _ = client.Do(context.Background(), Request{Endpoint: "/Contacts", Operation: "contacts.list"})
	_, _ = client.Do(context.Background(), Request{Endpoint: "/Contacts/missing", Operation: "contacts.get"})

	if len(calls) != 2 {
		t.Fatalf("expected 2 observed calls, got %d", len(calls))
	}
	if calls[0].Outcome != OutcomeOK || calls[0].Status != 200 || calls[0].Operation != "contacts.list" {
		t.Fatalf("unexpected first call %#v", calls[0])
	}
	if calls[1].Outcome != OutcomeHTTPError || calls[1].Status != 404 {
		t.Fatalf("unexpected second call %#v", calls[1])
	}
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	if _, err := New("/api"); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}
