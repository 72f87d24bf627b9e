package dmp

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/coreseekdev/cordage/pkg/rope"
)

// ErrInvalidPatch reports malformed patch text.
var ErrInvalidPatch = errors.New("invalid patch")

// patchHeader matches the GNU-style hunk header "@@ -s1,l1 +s2,l2 @@".
var patchHeader = regexp.MustCompile(`^@@ -(\d+),?(\d*) \+(\d+),?(\d*) @@$`)

// PatchString renders one patch in the GNU unified-diff-like wire
// format: indices are 1-based, a length of 1 is omitted, a length of 0
// keeps the 0-based index. Body lines start with ' ', '+' or '-'
// followed by the percent-escaped content of the diff.
func PatchString(p Patch[rune]) string {
	var coords1, coords2 string
	switch p.Length1 {
	case 0:
		coords1 = strconv.Itoa(p.Start1) + ",0"
	case 1:
		coords1 = strconv.Itoa(p.Start1 + 1)
	default:
		coords1 = strconv.Itoa(p.Start1+1) + "," + strconv.Itoa(p.Length1)
	}
	switch p.Length2 {
	case 0:
		coords2 = strconv.Itoa(p.Start2) + ",0"
	case 1:
		coords2 = strconv.Itoa(p.Start2 + 1)
	default:
		coords2 = strconv.Itoa(p.Start2+1) + "," + strconv.Itoa(p.Length2)
	}

	var sb strings.Builder
	sb.WriteString("@@ -" + coords1 + " +" + coords2 + " @@\n")
	for _, d := range p.Diffs {
		switch d.Op {
		case OpInsert:
			sb.WriteByte('+')
		case OpDelete:
			sb.WriteByte('-')
		case OpEqual:
			sb.WriteByte(' ')
		}
		sb.WriteString(encodeURI(textOf(d.Items)))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PatchToText serializes a patch list.
func PatchToText(patches []Patch[rune]) string {
	var sb strings.Builder
	for _, p := range patches {
		sb.WriteString(PatchString(p))
	}
	return sb.String()
}

// PatchFromText parses the output of PatchToText. Blank body lines are
// tolerated; a malformed header, an unknown body prefix or undecodable
// content fails with ErrInvalidPatch.
func PatchFromText(text string) ([]Patch[rune], error) {
	var patches []Patch[rune]
	if text == "" {
		return patches, nil
	}
	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		if lines[i] == "" {
			i++
			continue
		}
		m := patchHeader.FindStringSubmatch(lines[i])
		if m == nil {
			return nil, fmt.Errorf("%w: bad header %q", ErrInvalidPatch, lines[i])
		}
		patch := Patch[rune]{}
		patch.Start1, _ = strconv.Atoi(m[1])
		switch m[2] {
		case "0":
			patch.Length1 = 0
		case "":
			patch.Start1--
			patch.Length1 = 1
		default:
			patch.Start1--
			patch.Length1, _ = strconv.Atoi(m[2])
		}
		patch.Start2, _ = strconv.Atoi(m[3])
		switch m[4] {
		case "0":
			patch.Length2 = 0
		case "":
			patch.Start2--
			patch.Length2 = 1
		default:
			patch.Start2--
			patch.Length2, _ = strconv.Atoi(m[4])
		}
		i++

		for i < len(lines) {
			line := lines[i]
			if line == "" {
				// Blank lines are tolerated inside a body.
				i++
				continue
			}
			if line[0] == '@' {
				// Next patch begins.
				break
			}
			content, err := decodeURI(line[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: undecodable line %q", ErrInvalidPatch, line)
			}
			items := rope.FromString(content)
			switch line[0] {
			case '+':
				patch.Diffs = append(patch.Diffs, Diff[rune]{OpInsert, items})
			case '-':
				patch.Diffs = append(patch.Diffs, Diff[rune]{OpDelete, items})
			case ' ':
				patch.Diffs = append(patch.Diffs, Diff[rune]{OpEqual, items})
			default:
				return nil, fmt.Errorf("%w: unknown prefix %q", ErrInvalidPatch, string(line[0]))
			}
			i++
		}
		if len(patch.Diffs) == 0 {
			return nil, fmt.Errorf("%w: header with empty body", ErrInvalidPatch)
		}
		patches = append(patches, patch)
	}
	return patches, nil
}

// encodeURI escapes content the same restricted way the delta codec
// does, keeping the format's readable characters literal.
func encodeURI(s string) string {
	return unescaper.Replace(strings.ReplaceAll(url.QueryEscape(s), "+", " "))
}

// decodeURI inverts encodeURI, shielding literal pluses from the query
// decoder's space conversion first.
func decodeURI(s string) (string, error) {
	return url.QueryUnescape(strings.ReplaceAll(s, "+", "%2b"))
}

// textOf renders a rune rope; kept local so the wire codecs do not
// depend on the rope package's text helpers by name in every call.
func textOf(r *rope.Rope[rune]) string {
	return rope.Text(r)
}
