// Package canonical produces order-independent JSON encodings and the MD5
// fingerprints derived from them.
//
// Two values that are equal as JSON (same scalars, same array order, same
// object members in any order) canonicalize to the same bytes and therefore
// share a fingerprint. Numbers are decoded as float64 before encoding, which
// keeps fingerprints compatible with hashes computed by JavaScript clients.
package canonical

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

var fingerprintPattern = regexp.MustCompile(`^[a-fA-F0-9]{32}$`)

// Canonicalize renders value as JSON with object keys sorted recursively.
func Canonicalize(value any) (string, error) {
	decoded, err := toJSONValue(value)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := writeValue(&buf, decoded); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Fingerprint returns the lowercase hex MD5 of value's canonical form.
func Fingerprint(value any) (string, error) {
	canonical, err := Canonicalize(value)
	if err != nil {
		return "", err
	}
	return FingerprintString(canonical), nil
}

// FingerprintString returns the lowercase hex MD5 of s.
func FingerprintString(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// IsFingerprint reports whether s looks like a 32 digit hex fingerprint.
// Upper-case digits are accepted.
func IsFingerprint(s string) bool {
	return fingerprintPattern.MatchString(s)
}

// toJSONValue reduces value to the generic shapes produced by encoding/json:
// nil, bool, float64, string, []any and map[string]any.
func toJSONValue(value any) (any, error) {
	var raw []byte
	switch v := value.(type) {
	case nil, bool, float64, string:
		return v, nil
	case json.RawMessage:
		raw = v
	default:
		encoded, err := marshal(v)
		if err != nil {
			return nil, fmt.Errorf("canonicalize: encode value: %w", err)
		}
		raw = encoded
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("canonicalize: decode value: %w", err)
	}
	return decoded, nil
}

func writeValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeScalar(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeValue(buf, v[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return writeScalar(buf, v)
	}
	return nil
}

func writeScalar(buf *bytes.Buffer, value any) error {
	encoded, err := marshal(value)
	if err != nil {
		return fmt.Errorf("canonicalize: encode scalar: %w", err)
	}
	buf.Write(encoded)
	return nil
}

// marshal encodes without HTML escaping so "<", ">" and "&" survive as-is.
func marshal(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
