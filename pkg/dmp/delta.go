package dmp

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/coreseekdev/cordage/pkg/rope"
)

// ErrInvalidDelta reports a malformed or truncated delta.
var ErrInvalidDelta = errors.New("invalid delta")

// unescaper undoes the escaping of characters the delta format leaves
// readable. Note %2B maps back to a literal '+': inserted plus signs
// travel unescaped and the decoder compensates (see FromDelta).
var unescaper = strings.NewReplacer(
	"%21", "!", "%7E", "~", "%27", "'",
	"%28", "(", "%29", ")", "%3B", ";",
	"%2F", "/", "%3F", "?", "%3A", ":",
	"%40", "@", "%26", "&", "%3D", "=",
	"%2B", "+", "%24", "$", "%2C", ",",
	"%23", "#", "%2A", "*",
)

// ToDelta crushes a diff into a compact string describing the
// operations needed to turn the source into the target: "=3\t-2\t+ing"
// keeps three elements, deletes two, inserts "ing". Tokens are
// tab-separated; inserted text is percent-escaped.
func ToDelta(diffs []Diff[rune]) string {
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Op {
		case OpInsert:
			sb.WriteByte('+')
			sb.WriteString(strings.ReplaceAll(url.QueryEscape(rope.Text(d.Items)), "+", " "))
			sb.WriteByte('\t')
		case OpDelete:
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(d.Items.Len()))
			sb.WriteByte('\t')
		case OpEqual:
			sb.WriteByte('=')
			sb.WriteString(strconv.Itoa(d.Items.Len()))
			sb.WriteByte('\t')
		}
	}
	delta := sb.String()
	if len(delta) != 0 {
		delta = delta[:len(delta)-1]
		delta = unescaper.Replace(delta)
	}
	return delta
}

// FromDelta rebuilds the full diff from the source text and a delta
// produced by ToDelta. Equal and delete runs are sliced out of source,
// so the result shares its buffers.
func FromDelta(source *rope.Rope[rune], delta string) ([]Diff[rune], error) {
	var diffs []Diff[rune]
	cursor := 0
	for _, token := range strings.Split(delta, "\t") {
		if len(token) == 0 {
			// A blank token is fine (trailing tab).
			continue
		}
		param := token[1:]
		switch op := token[0]; op {
		case '+':
			// QueryUnescape would turn '+' into a space; the format
			// ships literal pluses, so shield them first.
			param = strings.ReplaceAll(param, "+", "%2b")
			decoded, err := url.QueryUnescape(param)
			if err != nil {
				return nil, fmt.Errorf("%w: bad escape in %q: %v", ErrInvalidDelta, token, err)
			}
			diffs = append(diffs, Diff[rune]{OpInsert, rope.FromString(decoded)})
		case '=', '-':
			n, err := strconv.Atoi(param)
			if err != nil {
				return nil, fmt.Errorf("%w: bad count %q", ErrInvalidDelta, param)
			}
			if n < 0 {
				return nil, fmt.Errorf("%w: negative count %d", ErrInvalidDelta, n)
			}
			if cursor+n > source.Len() {
				return nil, fmt.Errorf("%w: count %d overruns source length %d", ErrInvalidDelta, n, source.Len())
			}
			items := sub(source, cursor, n)
			cursor += n
			if op == '=' {
				diffs = append(diffs, Diff[rune]{OpEqual, items})
			} else {
				diffs = append(diffs, Diff[rune]{OpDelete, items})
			}
		default:
			return nil, fmt.Errorf("%w: unknown operation %q", ErrInvalidDelta, string(op))
		}
	}
	if cursor != source.Len() {
		return nil, fmt.Errorf("%w: delta consumed %d of %d source elements", ErrInvalidDelta, cursor, source.Len())
	}
	return diffs, nil
}
