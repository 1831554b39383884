// Package relay snapshots dashboard data on a schedule and publishes every
// snapshot whose content differs from the one last published for its kind.
package relay

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/samvad-hq/bizdesk/internal/domain"
	"github.com/samvad-hq/bizdesk/internal/logger"
	"github.com/samvad-hq/bizdesk/internal/session"
	"github.com/samvad-hq/bizdesk/pkg/apiclient"
	"github.com/samvad-hq/bizdesk/pkg/publishers"
	"github.com/samvad-hq/bizdesk/pkg/resources"
)

// Snapshot result labels.
const (
	ResultPublished = "published"
	ResultUnchanged = "unchanged"
	ResultFailed    = "failed"
)

// Source fetches one kind of snapshot.
type Source struct {
	Kind  string
	Fetch func(ctx context.Context) (*apiclient.Response, error)
}

// DefaultSources are the dashboard views the relay watches.
func DefaultSources(svc *resources.Services) []Source {
	return []Source{
		{Kind: "dashboard.metrics", Fetch: svc.Dashboard.Metrics},
		{Kind: "dashboard.accounts", Fetch: svc.Dashboard.Accounts},
		{Kind: "contacts.stats", Fetch: svc.Contacts.Stats},
	}
}

// Options tunes delivery retries. Zero values take defaults.
type Options struct {
	RetryAttempts uint
	RetryDelay    time.Duration
}

// Service runs relay passes.
type Service struct {
	sources   []Source
	origin    string
	auth      session.Authenticator
	sessions  *session.Manager
	creds     domain.Credentials
	publisher EventPublisher
	deduper   Deduper
	recorder  Recorder
	log       logger.Logger
	opts      Options
}

// NewService wires a relay. recorder and log may be nil.
func NewService(sources []Source, origin string, auth session.Authenticator, sessions *session.Manager,
	creds domain.Credentials, pub EventPublisher, deduper Deduper, recorder Recorder, log logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &Service{
		sources:   sources,
		origin:    origin,
		auth:      auth,
		sessions:  sessions,
		creds:     creds,
		publisher: pub,
		deduper:   deduper,
		recorder:  recorder,
		log:       log,
		opts:      opts,
	}
}

// Run executes one pass over all sources. A session-expired response clears
// the local session and ends the pass; the next pass signs in again.
func (s *Service) Run(ctx context.Context) error {
	if s == nil || s.publisher == nil || s.sessions == nil {
		return fmt.Errorf("relay service is not initialized")
	}
	if len(s.sources) == 0 {
		return fmt.Errorf("no snapshot sources configured")
	}

	if err := s.ensureSession(ctx); err != nil {
		return err
	}

	var errs []error
	for _, src := range s.sources {
		if ctx.Err() != nil {
			break
		}
		err := s.runSource(ctx, src)
		if err == nil {
			continue
		}
		errs = append(errs, err)
		if errors.Is(err, apiclient.ErrSessionExpired) {
			if clearErr := s.sessions.Clear(); clearErr != nil {
				errs = append(errs, clearErr)
			}
			s.log.WarnObj("session expired; will sign in on next pass", "snapshot_kind", src.Kind)
			break
		}
	}
	s.recorder.PassCompleted(time.Now())
	return errors.Join(errs...)
}

func (s *Service) ensureSession(ctx context.Context) error {
	st, err := s.sessions.Load()
	if err != nil {
		return err
	}
	if st.Authenticated {
		return nil
	}
	if strings.TrimSpace(s.creds.Email) == "" || s.creds.Password == "" {
		return fmt.Errorf("no active session and no relay credentials configured")
	}
	if _, err := s.sessions.Login(ctx, s.auth, s.creds.Email, s.creds.Password, true); err != nil {
		return fmt.Errorf("relay sign-in: %w", err)
	}
	s.log.InfoObj("relay signed in", "relay_user", s.creds.Email)
	return nil
}

func (s *Service) runSource(ctx context.Context, src Source) error {
	resp, err := src.Fetch(ctx)
	if err != nil {
		s.recorder.Snapshot(src.Kind, ResultFailed)
		return fmt.Errorf("fetch %s: %w", src.Kind, err)
	}

	data, digest, err := canonicalize(src.Kind, resp)
	if err != nil {
		s.recorder.Snapshot(src.Kind, ResultFailed)
		return fmt.Errorf("canonicalize %s: %w", src.Kind, err)
	}

	if s.deduper != nil {
		last, ok, err := s.deduper.LastDigest(src.Kind)
		if err != nil {
			s.log.WarnObj("digest lookup failed; publishing anyway", "relay_dedupe_error", map[string]any{
				"kind":  src.Kind,
				"error": err.Error(),
			})
		} else if ok && last == digest {
			s.recorder.Snapshot(src.Kind, ResultUnchanged)
			s.log.DebugObj("snapshot unchanged", "snapshot_kind", src.Kind)
			return nil
		}
	}

	evt := publishers.NewEvent(src.Kind, s.origin, digest, data)
	delivered, err := s.publish(ctx, evt)
	s.recorder.Delivery(src.Kind, delivered, s.publisher.Size()-delivered)
	if delivered == 0 {
		if err == nil {
			err = errors.New("no publisher accepted the snapshot")
		}
		s.recorder.Snapshot(src.Kind, ResultFailed)
		return fmt.Errorf("publish %s: %w", src.Kind, err)
	}
	if err != nil {
		s.log.WarnObj("snapshot partially delivered", "relay_publish_error", map[string]any{
			"kind":      src.Kind,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}

	if s.deduper != nil {
		if err := s.deduper.RecordDigest(src.Kind, digest); err != nil {
			s.log.WarnObj("record digest failed", "relay_dedupe_error", map[string]any{
				"kind":  src.Kind,
				"error": err.Error(),
			})
		}
	}
	s.recorder.Snapshot(src.Kind, ResultPublished)
	s.log.InfoObj("snapshot published", "snapshot", map[string]any{
		"kind":      src.Kind,
		"digest":    digest,
		"delivered": delivered,
	})
	return nil
}

// publish retries with backoff while no sink has accepted the event. Once any
// sink accepts it, remaining failures are reported without a retry so that
// accepting sinks do not receive duplicates.
func (s *Service) publish(ctx context.Context, evt publishers.Event) (int, error) {
	var (
		delivered int
		lastErr   error
	)
	err := retry.Do(
		func() error {
			n, err := s.publisher.Publish(ctx, evt)
			delivered, lastErr = n, err
			if n == 0 && err != nil {
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.opts.RetryAttempts),
		retry.Delay(s.opts.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.log.WarnObj("snapshot delivery retry", "relay_retry", map[string]any{
				"kind":    evt.Kind,
				"attempt": n + 1,
				"error":   err.Error(),
			})
		}),
	)
	if err != nil {
		return delivered, err
	}
	return delivered, lastErr
}

// canonicalize re-encodes the response data with sorted object keys so
// digests do not depend on the backend's field order.
func canonicalize(kind string, resp *apiclient.Response) (json.RawMessage, string, error) {
	var data any
	if resp != nil {
		data = resp.Data()
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(append([]byte(kind+"\n"), raw...))
	return raw, hex.EncodeToString(sum[:]), nil
}
