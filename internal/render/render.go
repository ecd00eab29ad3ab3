// Package render encodes a resolved configuration document as YAML, JSON or
// flat key path lines.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/discuss-config/internal/config"
)

// RedactedValue replaces secrets when redaction is enabled.
const RedactedValue = "********"

// Format names an output encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatFlat Format = "flat"
)

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatYAML, FormatJSON, FormatFlat:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Entry is a single leaf of the document addressed by its key path.
type Entry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Option configures Encode and Flatten.
type Option func(*options)

type options struct {
	redact bool
}

// Redacted hides the database password, when it is set, if enabled is true.
func Redacted(enabled bool) Option {
	return func(o *options) {
		o.redact = enabled
	}
}

func applyOptions(doc config.Document, opts []Option) config.Document {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.redact && doc.Database.Password != "" {
		doc.Database.Password = RedactedValue
	}
	return doc
}

// Flatten lists every leaf of doc in document order.
func Flatten(doc config.Document, opts ...Option) []Entry {
	doc = applyOptions(doc, opts)
	db := doc.Database
	return []Entry{
		{"debug", doc.Debug},
		{"database.driver", db.Driver},
		{"database.host", db.Host},
		{"database.port", db.Port},
		{"database.database", db.Database},
		{"database.username", db.Username},
		{"database.password", db.Password},
		{"database.charset", db.Charset},
		{"database.collation", db.Collation},
		{"database.prefix", db.Prefix},
		{"database.strict", db.Strict},
		{"database.engine", db.Engine},
		{"database.prefix_indexes", db.PrefixIndexes},
		{"url", doc.URL},
		{"paths.api", doc.Paths.API},
		{"paths.admin", doc.Paths.Admin},
	}
}

// Lookup returns the entry stored under key.
func Lookup(doc config.Document, key string, opts ...Option) (Entry, error) {
	for _, entry := range Flatten(doc, opts...) {
		if entry.Key == key {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Encode writes doc to w in the requested format.
func Encode(w io.Writer, doc config.Document, format Format, opts ...Option) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(applyOptions(doc, opts)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		if err := CheckJSON(doc); err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(applyOptions(doc, opts)); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatFlat:
		for _, entry := range Flatten(doc, opts...) {
			if _, err := fmt.Fprintf(w, "%s: %s\n", entry.Key, FormatValue(entry.Value)); err != nil {
				return fmt.Errorf("write entry %s: %w", entry.Key, err)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
}

// CheckJSON reports the first string value that JSON cannot carry unchanged.
// encoding/json would substitute U+FFFD for its invalid bytes.
func CheckJSON(doc config.Document) error {
	for _, entry := range Flatten(doc) {
		if err := checkEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

func checkEntry(entry Entry) error {
	if s, ok := entry.Value.(string); ok && !utf8.ValidString(s) {
		return fmt.Errorf("%w: %s", ErrInvalidUTF8, entry.Key)
	}
	return nil
}

// LookupJSON is Lookup for entries that will be JSON encoded.
func LookupJSON(doc config.Document, key string, opts ...Option) (Entry, error) {
	entry, err := Lookup(doc, key, opts...)
	if err != nil {
		return Entry{}, err
	}
	if err := checkEntry(entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// FormatValue renders a leaf value: strings quoted, booleans bare.
func FormatValue(v any) string {
	switch value := v.(type) {
	case string:
		return strconv.Quote(value)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}
