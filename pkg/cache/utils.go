package cache

import (
	"fmt"
	"strings"
	"time"
)

// Key joins prefix and parts with ':'. Times are rendered as unix seconds.
func Key(prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteByte(':')
		switch v := p.(type) {
		case time.Time:
			fmt.Fprintf(&b, "%d", v.Unix())
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}

// Pattern matches every key under prefix.
func Pattern(prefix string) string {
	return prefix + ":*"
}
