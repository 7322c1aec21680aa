package reader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// ErrUnavailable reports that the reader device cannot be opened or has
// stopped producing data. Callers should back off and retry.
var ErrUnavailable = errors.New("card reader unavailable")

// Card is a single read from the physical reader.
type Card struct {
	ID    string
	Value string
}

// Source yields card reads from a physical or simulated reader.
type Source interface {
	// ReadCard blocks until a card is read, the context is already canceled,
	// or the device becomes unavailable.
	ReadCard(ctx context.Context) (Card, error)
	// Close releases the device and unblocks a pending read.
	Close() error
}

// LineSource reads newline-delimited card records from a device node or FIFO.
// Each line carries the card identifier and an optional tab-separated value.
// The device is opened lazily and reopened after it goes away, so a detached
// reader surfaces as ErrUnavailable rather than a terminal failure.
type LineSource struct {
	path string

	mu      sync.Mutex
	file    *os.File
	scanner *bufio.Scanner
	closed  bool
}

// NewLineSource creates a source reading from the device node at path.
func NewLineSource(path string) *LineSource {
	return &LineSource{path: path}
}

// Path returns the device node this source reads from.
func (s *LineSource) Path() string {
	return s.path
}

// ReadCard returns the next card read from the device. Blank lines and lines
// without a card identifier are skipped.
func (s *LineSource) ReadCard(ctx context.Context) (Card, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Card{}, err
		}

		scanner, err := s.ensureOpen()
		if err != nil {
			return Card{}, err
		}
		if !scanner.Scan() {
			err := scanner.Err()
			s.dropDevice()
			if err != nil {
				return Card{}, fmt.Errorf("%w: read %s: %v", ErrUnavailable, s.path, err)
			}
			return Card{}, fmt.Errorf("%w: %s closed", ErrUnavailable, s.path)
		}

		card, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		return card, nil
	}
}

// Close releases the device. A closed source stays unavailable.
func (s *LineSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.scanner = nil
	return err
}

func (s *LineSource) ensureOpen() (*bufio.Scanner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("%w: source closed", ErrUnavailable)
	}
	if s.scanner != nil {
		return s.scanner, nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not present", ErrUnavailable, s.path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, s.path, err)
	}
	s.file = file
	s.scanner = bufio.NewScanner(file)
	return s.scanner, nil
}

func (s *LineSource) dropDevice() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		_ = s.file.Close()
	}
	s.file = nil
	s.scanner = nil
}

func parseLine(line string) (Card, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Card{}, false
	}
	parts := strings.SplitN(line, "\t", 2)
	card := Card{ID: strings.TrimSpace(parts[0])}
	if len(parts) == 2 {
		card.Value = strings.TrimSpace(parts[1])
	}
	if card.ID == "" {
		return Card{}, false
	}
	return card, true
}
