package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// DecodeError reports a payload that is not a well-formed list of records.
type DecodeError struct {
	Issues []ValidationIssue
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return "invalid manifest: " + e.Err.Error()
	}
	if len(e.Issues) == 0 {
		return "invalid manifest"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path != "" {
			parts = append(parts, issue.Path+": "+issue.Message)
		} else {
			parts = append(parts, issue.Message)
		}
	}
	return "invalid manifest: " + strings.Join(parts, "; ")
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is, or wraps, a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Encode serializes records in the given format. A nil manifest encodes as an
// empty list.
func Encode(records Manifest, format Format) ([]byte, error) {
	if records == nil {
		records = Manifest{}
	}

	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling manifest JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return nil, fmt.Errorf("marshaling manifest YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("flushing manifest YAML: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown manifest format %q", format)
	}
}

// Decode parses a JSON or YAML manifest. The payload must be a list of
// objects; fields are optional but typed when present. Any violation is
// returned as a *DecodeError.
func Decode(data []byte) (Manifest, error) {
	raw, err := parse(data)
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("parsing manifest: %w", err)}
	}

	jsonData, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("converting manifest to JSON: %w", err)}
	}

	result, err := validateJSON(jsonData)
	if err != nil {
		return nil, fmt.Errorf("validating manifest: %w", err)
	}
	if !result.Valid {
		return nil, &DecodeError{Issues: result.Issues}
	}

	var records Manifest
	if err := json.Unmarshal(jsonData, &records); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("decoding records: %w", err)}
	}
	if records == nil {
		records = Manifest{}
	}
	return records, nil
}

// parse reads data as JSON when it looks like JSON and as YAML otherwise.
// JSON goes through encoding/json because YAML does not accept every JSON
// escape ("\/", surrogate pairs). A flow-style YAML list that is not JSON
// still parses through the YAML fallback.
func parse(data []byte) (interface{}, error) {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	if len(trimmed) == 0 || (trimmed[0] != '[' && trimmed[0] != '{') {
		var raw interface{}
		err := yaml.Unmarshal(data, &raw)
		return raw, err
	}

	raw, jsonErr := decodeJSON(trimmed)
	if jsonErr == nil {
		return raw, nil
	}
	var fallback interface{}
	if err := yaml.Unmarshal(data, &fallback); err != nil {
		return nil, jsonErr
	}
	return fallback, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after the top-level value")
	}
	return raw, nil
}

// ReadFile reads and decodes a manifest file.
func ReadFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return Decode(data)
}

// WriteFile encodes records and writes them to path.
func WriteFile(path string, records Manifest, format Format) error {
	data, err := Encode(records, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}
