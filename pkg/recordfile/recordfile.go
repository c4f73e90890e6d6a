// Package recordfile loads batches of database records to import from YAML or
// JSON files.
package recordfile

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic dedup key
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one record to create. Key is optional; when empty the dedup key is
// derived from the properties.
type Entry struct {
	Key        string         `json:"key" yaml:"key"`
	Properties map[string]any `json:"properties" yaml:"properties"`
}

type file struct {
	Records []Entry `json:"records" yaml:"records"`
}

// Load reads and validates a record file.
func Load(path string) ([]Entry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("records file path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}

	return Parse(raw, filepath.Ext(path))
}

// Parse decodes record file content. ext selects the format; an empty ext
// tries YAML then JSON.
func Parse(data []byte, ext string) ([]Entry, error) {
	parsed, err := parseFile(data, ext)
	if err != nil {
		return nil, err
	}
	if len(parsed.Records) == 0 {
		return nil, errors.New("records file contains no records entries")
	}

	seen := make(map[string]struct{}, len(parsed.Records))
	out := make([]Entry, 0, len(parsed.Records))
	for i, e := range parsed.Records {
		e.Key = strings.TrimSpace(e.Key)
		if len(e.Properties) == 0 {
			return nil, fmt.Errorf("records[%d]: properties are required", i)
		}
		key, err := e.DedupKey()
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("records[%d]: duplicate record %q", i, key)
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

// DedupKey returns the explicit key or a hash of the properties. encoding/json
// sorts map keys, so equal properties hash equally.
func (e Entry) DedupKey() (string, error) {
	if e.Key != "" {
		return e.Key, nil
	}
	raw, err := json.Marshal(e.Properties)
	if err != nil {
		return "", fmt.Errorf("encode properties: %w", err)
	}
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:]), nil
}

type unmarshalFn func([]byte, any) error

func parseFile(data []byte, ext string) (file, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var f file
		if err := d.fn(data, &f); err != nil {
			errs = append(errs, fmt.Errorf("decode %s records: %w", d.name, err))
			continue
		}
		return f, nil
	}

	if len(errs) == 0 {
		return file{}, fmt.Errorf("records file extension %q not supported (expected .yaml, .yml or .json)", ext)
	}
	return file{}, errors.Join(errs...)
}
