// Package callback receives the browser redirect the bank-data provider sends
// after the user finishes linking their bank.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Result is what the provider reported on the redirect.
type Result struct {
	Reference string
	Err       error
}

// Listener serves the redirect URL until one matching redirect arrives.
type Listener struct {
	ln      net.Listener
	srv     *http.Server
	base    *url.URL
	results chan Result
	done    chan struct{}
	once    sync.Once
	log     *zap.Logger
}

// Listen binds the host and port of redirectURL. Port 0 picks a free port,
// which URL reports.
func Listen(redirectURL string, log *zap.Logger) (*Listener, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect url: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("redirect url %q: only http is supported for a local listener", redirectURL)
	}
	if log == nil {
		log = zap.NewNop()
	}

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	base := *u
	base.Host = ln.Addr().String()
	if u.Hostname() == "localhost" {
		base.Host = net.JoinHostPort("localhost", portOf(ln))
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	l := &Listener{
		ln:      ln,
		base:    &base,
		results: make(chan Result),
		done:    make(chan struct{}),
		log:     log.Named("callback"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(path, l.handleRedirect)
	l.srv = &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Error("callback server stopped", zap.Error(err))
		}
	}()
	return l, nil
}

// URL is the redirect URL to register with the provider.
func (l *Listener) URL() string {
	return l.base.String()
}

func (l *Listener) handleRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := Result{Reference: q.Get("ref")}
	if e := q.Get("error"); e != "" {
		res.Err = fmt.Errorf("bank link failed: %s: %s", e, q.Get("details"))
	} else if res.Reference == "" {
		http.Error(w, "missing ref parameter", http.StatusBadRequest)
		return
	}

	l.log.Info("redirect received", zap.String("ref", res.Reference), zap.Bool("failed", res.Err != nil))

	select {
	case l.results <- res:
	case <-l.done:
		http.Error(w, "no longer waiting", http.StatusGone)
		return
	case <-r.Context().Done():
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if res.Err != nil {
		_, _ = fmt.Fprintln(w, "Bank connection failed. Return to the terminal for details.")
		return
	}
	_, _ = fmt.Fprintln(w, "Bank connection complete. You can close this window.")
}

// Wait blocks until a redirect arrives or ctx ends, then stops the server.
// A non-empty reference must match the redirect's ref.
func (l *Listener) Wait(ctx context.Context, reference string) (string, error) {
	defer l.Close()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res := <-l.results:
			if res.Err != nil {
				return res.Reference, res.Err
			}
			if reference != "" && res.Reference != reference {
				l.log.Warn("ignoring redirect for another reference", zap.String("ref", res.Reference))
				continue
			}
			return res.Reference, nil
		}
	}
}

// Close stops the server.
func (l *Listener) Close() error {
	l.once.Do(func() { close(l.done) })
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return l.srv.Shutdown(ctx)
}

func portOf(ln net.Listener) string {
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	return port
}
