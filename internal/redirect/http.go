package redirect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// closePage is shown in the browser tab once the callback is accepted.
// The provider's redirect page forwards here and the user just closes
// the tab.
const closePage = `<!DOCTYPE html>
<html><head><title>Signed in</title></head>
<body><p>You are signed in. You can close this tab and return to your editor.</p></body></html>`

// HTTPSource receives login callbacks on a loopback HTTP listener.
type HTTPSource struct {
	*dispatcher

	addr   string
	logger *slog.Logger
}

// NewHTTPSource creates a source listening on addr (loopback only).
func NewHTTPSource(addr string, logger *slog.Logger) *HTTPSource {
	return &HTTPSource{
		dispatcher: newDispatcher(logger),
		addr:       addr,
		logger:     logger,
	}
}

// Run serves the callback endpoint until ctx is cancelled. It blocks;
// run it in a background goroutine.
func (s *HTTPSource) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", s.handleCallback)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)

		return ctx.Err()

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("callback server: %w", err)
	}
}

func (s *HTTPSource) handleCallback(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	s.logger.Debug("login callback received", slog.Int("params", len(params)))
	s.dispatch(params)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, closePage)
}
