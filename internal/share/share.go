// Package share encodes configurations for links and files.
//
// A link carries only the values that differ from the catalog defaults:
//
//	merge_option&split_option&key_type=long+long
//
// Files hold the same values as a features table in YAML, TOML or JSON.
package share

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/features"
)

// DocumentVersion is written into every share file.
const DocumentVersion = 1

var (
	// ErrUnsupportedFormat is returned for unknown file formats.
	ErrUnsupportedFormat = errors.New("unsupported share format")
	// ErrMalformed is returned for input that does not parse.
	ErrMalformed = errors.New("malformed share data")
)

// Format is a file encoding.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
	JSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	case ".json":
		return JSON, nil
	default:
		return "", errors.Mark(errors.Newf("cannot tell the format of %q", path), ErrUnsupportedFormat)
	}
}

// ParseFormat accepts a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case YAML, TOML, JSON:
		return f, nil
	case "yml":
		return YAML, nil
	default:
		return "", errors.Mark(errors.Newf("unknown format %q", s), ErrUnsupportedFormat)
	}
}

// Encode returns the link form of cfg.
func Encode(cat *catalog.Catalog, cfg features.Config) string {
	var parts []string
	for _, key := range features.Changed(cat, cfg) {
		f, _ := cat.Lookup(key)
		if f.Kind == catalog.Enumerated {
			parts = append(parts, key+"="+url.QueryEscape(cfg.Enum(key)))
			continue
		}
		parts = append(parts, key)
	}
	return strings.Join(parts, "&")
}

// Decode parses a link. Anything up to a '?' is ignored, so a full URL
// works as well as a bare query.
func Decode(cat *catalog.Catalog, link string) (features.Config, error) {
	cfg := features.Default(cat)
	link = strings.TrimSpace(link)
	if i := strings.IndexByte(link, '?'); i >= 0 {
		link = link[i+1:]
	}
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}
	for _, part := range strings.Split(link, "&") {
		if part == "" {
			continue
		}
		key, raw, hasValue := strings.Cut(part, "=")
		key, err := url.QueryUnescape(key)
		if err != nil {
			return cfg, errors.Mark(errors.Wrapf(err, "link part %q", part), ErrMalformed)
		}
		if !hasValue {
			raw = "true"
		} else if raw, err = url.QueryUnescape(raw); err != nil {
			return cfg, errors.Mark(errors.Wrapf(err, "link part %q", part), ErrMalformed)
		}
		if cfg, err = features.Set(cat, cfg, key, raw); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Document is the file form of a configuration.
type Document struct {
	Version  int                    `json:"version" yaml:"version" toml:"version"`
	Name     string                 `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Features map[string]interface{} `json:"features" yaml:"features" toml:"features"`
}

// NewDocument holds the values of cfg that differ from the defaults.
func NewDocument(cat *catalog.Catalog, cfg features.Config, name string) Document {
	doc := Document{Version: DocumentVersion, Name: name, Features: map[string]interface{}{}}
	for _, key := range features.Changed(cat, cfg) {
		f, _ := cat.Lookup(key)
		if f.Kind == catalog.Enumerated {
			doc.Features[key] = cfg.Enum(key)
		} else {
			doc.Features[key] = true
		}
	}
	return doc
}

// Config applies the document on top of the catalog defaults.
func (d Document) Config(cat *catalog.Catalog) (features.Config, error) {
	cfg := features.Default(cat)
	if d.Version > DocumentVersion {
		return cfg, errors.Mark(errors.Newf("document version %d is newer than %d", d.Version, DocumentVersion), ErrMalformed)
	}
	for _, key := range features.SortedKeys(d.Features) {
		var raw string
		switch v := d.Features[key].(type) {
		case bool:
			raw = fmt.Sprint(v)
		case string:
			raw = v
		default:
			return cfg, errors.Mark(errors.Newf("feature %q: unsupported value %v", key, v), ErrMalformed)
		}
		var err error
		if cfg, err = features.Set(cat, cfg, key, raw); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Marshal encodes cfg in format.
func Marshal(cat *catalog.Catalog, cfg features.Config, name string, format Format) ([]byte, error) {
	doc := NewDocument(cat, cfg, name)
	switch format {
	case YAML:
		return yaml.Marshal(doc)
	case TOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, errors.Wrap(err, "encode toml")
		}
		return buf.Bytes(), nil
	case JSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, errors.Mark(errors.Newf("unknown format %q", format), ErrUnsupportedFormat)
	}
}

// Unmarshal decodes data in format into a configuration.
func Unmarshal(cat *catalog.Catalog, data []byte, format Format) (features.Config, string, error) {
	var (
		doc Document
		err error
	)
	switch format {
	case YAML:
		err = yaml.Unmarshal(data, &doc)
	case TOML:
		err = toml.Unmarshal(data, &doc)
	case JSON:
		err = json.Unmarshal(data, &doc)
	default:
		return features.Config{}, "", errors.Mark(errors.Newf("unknown format %q", format), ErrUnsupportedFormat)
	}
	if err != nil {
		return features.Config{}, "", errors.Mark(errors.Wrapf(err, "decode %s", format), ErrMalformed)
	}
	cfg, err := doc.Config(cat)
	return cfg, doc.Name, err
}

// ReadFile loads a share file, picking the format from its extension.
func ReadFile(cat *catalog.Catalog, path string) (features.Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return features.Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return features.Config{}, errors.Wrap(err, "read share file")
	}
	cfg, _, err := Unmarshal(cat, data, format)
	return cfg, errors.Wrapf(err, "%s", path)
}

// WriteFile writes cfg to path in the format its extension names.
func WriteFile(cat *catalog.Catalog, path string, cfg features.Config, name string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(cat, cfg, name, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads arg as a share file when such a file exists and as a link
// otherwise.
func Load(cat *catalog.Catalog, arg string) (features.Config, error) {
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		return ReadFile(cat, arg)
	}
	return Decode(cat, arg)
}
