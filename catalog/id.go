package catalog

import (
	"strconv"
	"unicode/utf16"
)

// contentIDLength matches the length of a YouTube video ID.
const contentIDLength = 11

// ContentID derives a stable identifier for a row that has no provider ID.
//
// It is a 32-bit rolling hash (h = h*31 + c over UTF-16 code units) of
// title+channel, rendered as the hex of its absolute value. It is a render
// and thumbnail key only: it is not collision-free and not a security token.
// Rows that carry a real video ID should use it instead.
func ContentID(title, channel string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(title + channel)) {
		h = h*31 + int32(c)
	}

	n := int64(h)
	if n < 0 {
		n = -n
	}

	id := strconv.FormatInt(n, 16)
	if len(id) > contentIDLength {
		id = id[:contentIDLength]
	}
	return id
}
