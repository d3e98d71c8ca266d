package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files whose extension is neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// DefaultDebounce is how long Watch waits after the last write before reporting a change.
// Editors often save a file in several writes.
const DefaultDebounce = 100 * time.Millisecond

func logger() *slog.Logger {
	return common.ComponentLogger("config")
}

// Format is a settings file encoding.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatOf picks the encoding from the file extension.
//
// Parameters:
//   - path: the settings file path
//
// Returns:
//   - Format: the detected encoding
//   - error: ErrUnsupportedFormat when the extension is not .toml, .yaml or .yml
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// Decode unmarshals data in the given format into v. Fields missing from data keep
// the values already in v, so callers usually pass a struct filled with defaults.
func Decode(data []byte, format Format, v any) error {
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("config: decode toml: %w", err)
		}
	case FormatYAML:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("config: decode yaml: %w", err)
		}
	default:
		return ErrUnsupportedFormat
	}
	return nil
}

// Encode marshals v in the given format.
func Encode(v any, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(v)
	case FormatYAML:
		return yaml.Marshal(v)
	}
	return nil, ErrUnsupportedFormat
}

// Load reads the file at path and decodes it into v.
//
// Parameters:
//   - path: a .toml, .yaml or .yml file
//   - v: pointer to the destination, pre-filled with defaults
//
// Returns:
//   - error: a read, format or decode error
func Load(path string, v any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return Decode(data, format, v)
}

// Save encodes v and writes it to path, choosing the format from the extension.
func Save(path string, v any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(v, format)
	if err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Watch calls onChange every time the file at path is written or recreated, until ctx is
// cancelled. Bursts of events within DefaultDebounce are reported once. The parent
// directory is watched so atomic saves (write temp file, rename over) are seen.
//
// Parameters:
//   - ctx: stops the watch when cancelled
//   - path: the settings file to watch
//   - onChange: called from the watch goroutine after each debounced change
//
// Returns:
//   - error: a watcher setup error, or nil once ctx is cancelled
func Watch(ctx context.Context, path string, onChange func()) error {
	return watch(ctx, path, DefaultDebounce, onChange)
}

func watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger().Warn("settings watcher error", "path", abs, "error", err)
		case <-timer.C:
			logger().Info("settings file changed", "path", abs)
			onChange()
		}
	}
}
