package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"
)

// IdempotencyStore remembers responses to POST requests that carried an
// Idempotency-Key header so retries replay the first result
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	inFlight  bool
	ready     chan struct{}
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep results (default 24h)
	Cleanup time.Duration // Cleanup interval (default 1h)
}

// NewIdempotencyStore creates a store and starts its cleanup goroutine.
// Call Stop when done.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Hour
	}

	s := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}

	go s.cleanupLoop(cfg.Cleanup)

	return s
}

// Stop stops the cleanup goroutine and waits for it to exit
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if !e.inFlight && e.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// Len returns the number of remembered or in-flight requests
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// claim returns a completed entry to replay, or registers key as in flight
// and returns (nil, entry). Concurrent duplicates wait for the first request.
func (s *IdempotencyStore) claim(key string) (replay *idempotencyEntry, owned *idempotencyEntry) {
	for {
		s.mu.Lock()
		e, ok := s.entries[key]
		switch {
		case !ok || (!e.inFlight && e.expiresAt.Before(time.Now())):
			e = &idempotencyEntry{inFlight: true, ready: make(chan struct{})}
			s.entries[key] = e
			s.mu.Unlock()
			return nil, e
		case e.inFlight:
			ready := e.ready
			s.mu.Unlock()
			<-ready
		default:
			s.mu.Unlock()
			return e, nil
		}
	}
}

// complete stores the outcome of an owned entry. Server errors and aborted
// requests (nil rec) are not remembered so the client can retry them.
func (s *IdempotencyStore) complete(key string, e *idempotencyEntry, rec *idempotencyResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec == nil || rec.status >= http.StatusInternalServerError {
		delete(s.entries, key)
	} else {
		e.status = rec.status
		e.headers = replayableHeaders(rec.before, rec.Header())
		e.body = rec.body.Bytes()
		e.expiresAt = time.Now().Add(s.ttl)
	}
	e.inFlight = false
	close(e.ready)
}

// perRequestHeaders belong to the transport or to the request being served,
// never to the stored result
var perRequestHeaders = map[string]bool{
	"Content-Encoding":      true,
	"Content-Length":        true,
	"Vary":                  true,
	"X-Request-Id":          true,
	"X-Ratelimit-Limit":     true,
	"X-Ratelimit-Remaining": true,
	"X-Ratelimit-Reset":     true,
	"Retry-After":           true,
}

// replayableHeaders returns the headers the wrapped handler set: those in
// after that were absent from before or changed, minus per-request headers
func replayableHeaders(before, after http.Header) http.Header {
	out := make(http.Header)
	for k, v := range after {
		if perRequestHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		if prev, ok := before[k]; ok && slices.Equal(prev, v) {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}

// fingerprint ties a key to the caller and the exact request
func fingerprint(userID, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{userID, idempotencyKey, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// idempotencyResponseWriter captures the response for caching
type idempotencyResponseWriter struct {
	http.ResponseWriter
	before http.Header
	status int
	body   bytes.Buffer
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency returns middleware that replays POST responses for repeated
// Idempotency-Key headers
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := r.Header.Get("Idempotency-Key")
			if r.Method != http.MethodPost || idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID := GetUserID(r.Context())
			if userID == "" {
				userID = clientAddr(r)
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := fingerprint(userID, idempotencyKey, r.Method, r.URL.Path, body)

			replay, owned := store.claim(key)
			if replay != nil {
				for k, v := range replay.headers {
					w.Header()[k] = append([]string(nil), v...)
				}
				w.Header().Set("X-Idempotency-Replayed", "true")
				w.WriteHeader(replay.status)
				_, _ = w.Write(replay.body)
				return
			}

			rec := &idempotencyResponseWriter{
				ResponseWriter: w,
				before:         w.Header().Clone(),
				status:         http.StatusOK,
			}
			finished := false
			defer func() {
				if !finished {
					store.complete(key, owned, nil)
				}
			}()

			next.ServeHTTP(rec, r)
			store.complete(key, owned, rec)
			finished = true
		})
	}
}
