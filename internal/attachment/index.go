package attachment

import (
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var indexPathPattern = regexp.MustCompile(`attachments/[A-Za-z0-9-]+`)

// framingByte is left at the end of a line by the record's length-prefixed encoding
const framingByte = "X"

// ParseIndex scrapes the ordered attachment paths out of an index record.
//
// The record is a protobuf message, not text. Only the embedded
// "attachments/<token>" strings are recovered, in the order they appear.
// A nil slice means no ordering information is available.
func ParseIndex(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}

	// Invalid sequences decode to U+FFFD, they never match the pattern.
	decoded, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		decoded = []byte(strings.ToValidUTF8(string(raw), "�"))
	}

	var paths []string
	for _, line := range strings.Split(string(decoded), "\n") {
		line = strings.TrimSuffix(line, framingByte)
		// Matches start at "attachments/", so a slash before it is never captured.
		paths = append(paths, indexPathPattern.FindAllString(line, -1)...)
	}
	return paths
}
