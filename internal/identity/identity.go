package identity

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"cardwatch/internal/config"
	"cardwatch/internal/logging"
)

const cpuInfoPath = "/proc/cpuinfo"

// EnsureDeviceID returns the device identifier for this reader, deriving and
// persisting a new one when the configuration has none. The id must reach disk
// before any event is captured: an unpersisted id would change on restart and
// split one reader's history across identities, so a persist failure is
// returned and aborts startup.
func EnsureDeviceID(cfg *config.Config, configPath string, logger *slog.Logger) (string, error) {
	logger = logging.NewComponentLogger(logger, "identity")

	if id := strings.TrimSpace(cfg.Device.ID); id != "" {
		logger.Debug("using configured device identity",
			logging.String(logging.FieldDeviceID, id),
		)
		return id, nil
	}

	id := Derive(time.Now())
	if err := config.SetDeviceID(configPath, id); err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}
	cfg.Device.ID = id

	logger.Info("derived device identity",
		logging.String(logging.FieldDeviceID, id),
		logging.String("config", configPath),
		logging.String(logging.FieldEventType, "device_id_derived"),
	)
	return id, nil
}

// Derive produces a device identifier from the hardware facts available: the
// CPU serial and the first non-loopback MAC address, salted with the current
// time. With no hardware facts at all it falls back to a random identifier so
// two blank devices cannot collide.
func Derive(now time.Time) string {
	return deriveFrom(cpuSerial(), primaryMAC(), now)
}

func deriveFrom(serial, mac string, now time.Time) string {
	if serial == "" && mac == "" {
		return "reader-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	if serial == "" {
		serial = "unknown"
	}
	if mac == "" {
		mac = "unknown"
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%s_%d", serial, mac, now.Unix())))
	return hex.EncodeToString(sum[:])[:12]
}

// cpuSerial reads the board serial from /proc/cpuinfo. The single-board
// computers this service targets expose one; other hosts report empty.
func cpuSerial() string {
	file, err := os.Open(cpuInfoPath)
	if err != nil {
		return ""
	}
	defer file.Close()
	return parseCPUSerial(file)
}

func parseCPUSerial(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Serial") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func primaryMAC() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		return iface.HardwareAddr.String()
	}
	return ""
}
