package validation

import (
	"fmt"
	"strings"
)

type phpPair struct {
	key   string
	value string
}

// phpSerializePairs renders an ordered list of string pairs in PHP's
// serialize() associative array format:
//
//	a:2:{s:3:"foo";s:3:"bar";s:1:"k";s:1:"v";}
//
// String lengths are byte lengths, matching PHP's handling of UTF-8 input.
func phpSerializePairs(pairs []phpPair) string {
	var b strings.Builder
	fmt.Fprintf(&b, "a:%d:{", len(pairs))
	for _, pair := range pairs {
		fmt.Fprintf(&b, "s:%d:\"%s\";s:%d:\"%s\";", len(pair.key), pair.key, len(pair.value), pair.value)
	}
	b.WriteString("}")
	return b.String()
}
