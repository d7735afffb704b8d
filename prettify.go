package kkcard

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/koikatu-go/kkcard/value"
)

// Prettify returns a human-readable rendering of the block's decoded
// value tree, with byte strings elided to a length summary rather than
// printed in full. It panics on an opaque (unknown) block; callers should
// check Decoded first.
func (b *Block) Prettify() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (v%s)\n", b.Name, b.Version)
	writePretty(&sb, b.Value(), 1)
	return sb.String()
}

func writePretty(sb *strings.Builder, v value.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v.Kind {
	case value.KindMap:
		for _, p := range v.Map {
			fmt.Fprintf(sb, "%s%s:", indent, p.Key.String())
			if p.Val.Kind == value.KindMap || p.Val.Kind == value.KindArray || p.Val.Kind == value.KindNested {
				sb.WriteString("\n")
				writePretty(sb, p.Val, depth+1)
			} else {
				fmt.Fprintf(sb, " %s\n", summarize(p.Val))
			}
		}
	case value.KindArray:
		for i, e := range v.Array {
			fmt.Fprintf(sb, "%s[%d]:", indent, i)
			if e.Kind == value.KindMap || e.Kind == value.KindArray || e.Kind == value.KindNested {
				sb.WriteString("\n")
				writePretty(sb, e, depth+1)
			} else {
				fmt.Fprintf(sb, " %s\n", summarize(e))
			}
		}
	case value.KindNested:
		fmt.Fprintf(sb, "%s(nested payload)\n", indent)
		writePretty(sb, *v.Nested, depth+1)
	default:
		fmt.Fprintf(sb, "%s%s\n", indent, summarize(v))
	}
}

// summarize renders a leaf value for display. String values are
// normalized to NFC for display purposes only: block names such as
// nicknames round-trip through the object codec as whatever byte
// sequence the game wrote, which is not always normalized, and a
// prettified listing should not depend on the reader's font stack
// resolving two visually-identical but differently-composed strings.
func summarize(v value.Value) string {
	switch v.Kind {
	case value.KindBytes:
		return fmt.Sprintf("<%d bytes>", len(v.Bin))
	case value.KindString:
		return fmt.Sprintf("%q", norm.NFC.String(v.Str))
	default:
		return v.String()
	}
}
