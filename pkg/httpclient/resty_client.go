package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options configures a resty client.
type Options struct {
	// Timeout bounds a whole request. Zero disables the client-side deadline.
	Timeout time.Duration
	// Jar, when non-nil, stores and replays cookies. A nil Jar disables cookies.
	Jar http.CookieJar
	// Transport overrides the underlying round tripper (tests, proxies).
	Transport http.RoundTripper
	// Logger receives resty's own warnings and errors.
	Logger Logger
}

// Logger is the structured logging surface resty diagnostics are forwarded to.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// New creates a resty.Client from opts.
func New(opts Options) *resty.Client {
	c := resty.New()
	c.SetTimeout(opts.Timeout)
	// resty installs a default jar; replace it so credential forwarding is explicit.
	c.SetCookieJar(opts.Jar)
	if opts.Transport != nil {
		c.SetTransport(opts.Transport)
	}
	if opts.Logger != nil {
		c.SetLogger(restyLogger{log: opts.Logger})
	}
	return c
}

// restyLogger bridges resty.Logger onto the structured Logger.
type restyLogger struct {
	log Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.log.ErrorObj("resty error", "resty_message", fmt.Sprintf(format, v...))
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.log.WarnObj("resty warning", "resty_message", fmt.Sprintf(format, v...))
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.log.DebugObj("resty debug", "resty_message", fmt.Sprintf(format, v...))
}
