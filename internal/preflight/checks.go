package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"cardwatch/internal/outbox"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist; created on first daemon start)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckReaderDevice verifies the card reader's device node is present and readable.
func CheckReaderDevice(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "no reader device configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: not attached)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckDatabase probes the outbox schema layout without opening it for writes.
func CheckDatabase(ctx context.Context, name, dbPath string) Result {
	layout, err := outbox.ProbeSchema(ctx, dbPath)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dbPath, err)}
	}
	switch layout {
	case outbox.LayoutMissing:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first daemon start)", dbPath)}
	case outbox.LayoutCurrent:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema current)", dbPath)}
	case outbox.LayoutLegacy:
		return Result{Name: name, Detail: fmt.Sprintf("%s (legacy schema; run 'cardwatch migrate')", dbPath)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s (unrecognized schema)", dbPath)}
	}
}

// CheckIdentity reports whether the device identity has been persisted.
func CheckIdentity(name, id string) Result {
	id = strings.TrimSpace(id)
	if id == "" {
		return Result{Name: name, Detail: "not set (derived and persisted on first daemon start)"}
	}
	return Result{Name: name, Passed: true, Detail: id}
}

// CheckWebhook verifies the delivery endpoint is reachable. Any HTTP response
// proves reachability; delivery success is judged per send, not here. An
// unconfigured URL passes because capture works without one.
func CheckWebhook(ctx context.Context, name, rawURL string) Result {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Result{Name: name, Passed: true, Detail: "not configured (deliveries wait until a URL is set)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid url (%v)", err)}
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	defer resp.Body.Close()

	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (HTTP %d)", resp.StatusCode)}
}
