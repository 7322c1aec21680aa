package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"cardwatch/internal/logging"
)

// Receiver is a local endpoint for exercising deliveries end to end before a
// real integration exists: it validates the API key, logs each card read, and
// replies the way the production endpoint is expected to.
type Receiver struct {
	apiKey string
	logger *slog.Logger
	server *http.Server
}

// NewReceiver builds a receiver bound to the given address. An empty apiKey
// disables authentication.
func NewReceiver(bind, apiKey string, logger *slog.Logger) *Receiver {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Receiver{
		apiKey: apiKey,
		logger: logging.NewComponentLogger(logger, "receiver"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", r.handle)
	r.server = &http.Server{
		Addr:         bind,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return r
}

// Handler exposes the receiver's HTTP handler so tests can drive it through
// httptest without binding a port.
func (r *Receiver) Handler() http.Handler {
	return r.server.Handler
}

func (r *Receiver) handle(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, "error", "POST required")
		return
	}
	if r.apiKey != "" && req.Header.Get("x-api-key") != r.apiKey {
		r.logger.Warn("rejected delivery with bad api key", slog.String("remote", req.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, "error", "invalid x-api-key header")
		return
	}

	var payload struct {
		DeviceID  string `json:"device_id"`
		CardID    string `json:"card_id"`
		CardValue string `json:"card_value"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, "error", "invalid JSON payload")
		return
	}

	r.logger.Info("card read received",
		slog.String(logging.FieldDeviceID, payload.DeviceID),
		slog.String(logging.FieldCardID, payload.CardID),
		slog.String("card_value", payload.CardValue),
		slog.String("remote", req.RemoteAddr),
	)
	writeJSON(w, http.StatusOK, "success", "webhook received")
}

func writeJSON(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  status,
		"message": message,
	})
}

// Run serves until the context is canceled, then shuts down gracefully.
func (r *Receiver) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", r.server.Addr, err)
	}
	r.logger.Info("receiver listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
