// Package program loads Intcode program images from their textual form:
// comma-separated integers, with arbitrary surrounding whitespace.
package program

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parse reads an entire program image from r. The text is split on commas
// and each field is parsed as a signed 64-bit integer; whitespace around
// fields and around the whole text is ignored. An empty input yields an
// empty image.
func Parse(r io.Reader) ([]int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("program: read: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses a program image from a string.
func ParseString(text string) ([]int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	fields := strings.Split(text, ",")
	image := make([]int64, 0, len(fields))
	for i, field := range fields {
		word, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("program: word %d: bad token %q", i, strings.TrimSpace(field))
		}
		image = append(image, word)
	}
	return image, nil
}

// LoadFile parses a program image from the file at path.
func LoadFile(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("program: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Format renders an image back to its textual form.
func Format(image []int64) string {
	fields := make([]string, len(image))
	for i, word := range image {
		fields[i] = strconv.FormatInt(word, 10)
	}
	return strings.Join(fields, ",")
}
