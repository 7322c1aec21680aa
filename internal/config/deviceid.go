package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// SetDeviceID persists a device identifier into the configuration file at
// path, touching only the id entry so comments and ordering survive. A missing
// file is created from the embedded sample first. Reads captured by a device
// whose identifier never reaches disk would change identity on restart, so
// callers treat a write failure as fatal.
func SetDeviceID(path, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("device id is empty")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("config path is empty")
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat config: %w", err)
		}
		if err := CreateSample(path); err != nil {
			return err
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	updated := rewriteDeviceID(string(raw), id)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func rewriteDeviceID(content, id string) string {
	entry := fmt.Sprintf("id = %q", id)
	lines := strings.Split(content, "\n")
	section := ""
	deviceHeader := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = strings.Trim(trimmed, "[]")
			if section == "device" {
				deviceHeader = i
			}
			continue
		}
		if section != "device" {
			continue
		}
		parts := strings.SplitN(trimmed, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.TrimSpace(parts[0]) == "id" {
			lines[i] = entry
			return strings.Join(lines, "\n")
		}
	}

	if deviceHeader >= 0 {
		out := make([]string, 0, len(lines)+1)
		out = append(out, lines[:deviceHeader+1]...)
		out = append(out, entry)
		out = append(out, lines[deviceHeader+1:]...)
		return strings.Join(out, "\n")
	}

	trimmed := strings.TrimRight(content, "\n")
	if trimmed == "" {
		return "[device]\n" + entry + "\n"
	}
	return trimmed + "\n\n[device]\n" + entry + "\n"
}
