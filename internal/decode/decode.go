// Package decode turns the opaque brief URL parameter into a parsed JSON document.
// The producer has sent raw JSON, standard Base64, URL-safe Base64 with or without
// padding, and Base64 of Markdown-fenced JSON; all of them are accepted here.
package decode

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrDecodeFailure wraps every failure of Decode and DecodeText.
var ErrDecodeFailure = errors.New("decode failure")

var (
	leadingFence  = regexp.MustCompile("^\\s*```[A-Za-z0-9_+-]*\\s*")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
)

// Decode parses raw into an untyped JSON value. Strategies are tried in order and the
// first success wins: direct JSON when raw looks like an object, then Base64 text.
// The returned error always wraps ErrDecodeFailure.
func Decode(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty parameter", ErrDecodeFailure)
	}
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		if doc, err := parseJSON(trimmed); err == nil {
			return doc, nil
		}
	}
	text, err := DecodeText(raw)
	if err != nil {
		return nil, err
	}
	doc, err := parseJSON(text)
	if err != nil {
		return nil, fmt.Errorf("%w: parse json: %w", ErrDecodeFailure, err)
	}
	return doc, nil
}

// DecodeText decodes a Base64 (standard or URL-safe, padded or not) parameter into text,
// stripping a surrounding Markdown code fence. Bytes that are not valid UTF-8 are read
// as ISO-8859-1.
func DecodeText(raw string) (string, error) {
	norm, err := normalizeBase64(raw)
	if err != nil {
		return "", err
	}
	b, err := base64.StdEncoding.DecodeString(norm)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %w", ErrDecodeFailure, err)
	}
	text, err := bytesToText(b)
	if err != nil {
		return "", err
	}
	return stripFences(text), nil
}

// Encode returns the URL-safe, unpadded Base64 form of text, as producers are expected to send it.
func Encode(text []byte) string {
	return base64.RawURLEncoding.EncodeToString(text)
}

// normalizeBase64 maps raw onto the padded standard alphabet.
// Literal spaces are read as '+' first since some URL decoders turn '+' into ' '.
func normalizeBase64(raw string) (string, error) {
	s := strings.ReplaceAll(raw, " ", "+")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		switch r {
		case '-':
			return '+'
		case '_':
			return '/'
		}
		return r
	}, s)
	s = strings.TrimRight(s, "=")
	if s == "" {
		return "", fmt.Errorf("%w: empty base64 payload", ErrDecodeFailure)
	}
	switch len(s) % 4 {
	case 1:
		return "", fmt.Errorf("%w: base64 length %d cannot be padded", ErrDecodeFailure, len(s))
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return s, nil
}

func bytesToText(b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: latin-1: %w", ErrDecodeFailure, err)
	}
	return string(out), nil
}

func stripFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return text
}

func parseJSON(text string) (any, error) {
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
