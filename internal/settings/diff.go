package settings

import (
	"fmt"
	"strings"
)

// DefaultDiffWidth is the column width of each side of SideBySide.
const DefaultDiffWidth = 70

// DiffStyles colors SideBySide output. A nil func prints plain text.
type DiffStyles struct {
	Header  func(...string) string
	Added   func(...string) string
	Removed func(...string) string
	Changed func(...string) string
}

func paint(f func(...string) string, s string) string {
	if f == nil {
		return s
	}
	return f(s)
}

// SideBySide renders old and new line by line in two columns of width
// characters. Lines are paired by position: a line only on the left is
// removed, only on the right is added, and differing on both sides is
// changed. Longer lines are cut to width with a "..." marker.
func SideBySide(oldText, newText string, width int, st DiffStyles) string {
	if width < 4 {
		width = DefaultDiffWidth
	}
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)
	rule := strings.Repeat("=", width*2+5)

	var sb strings.Builder
	sb.WriteString(rule + "\n")
	sb.WriteString(paint(st.Header, center("Current Config", width)+" | "+center("New Config", width)) + "\n")
	sb.WriteString(rule + "\n")

	n := max(len(oldLines), len(newLines))
	for i := range n {
		var oldLine, newLine string
		if i < len(oldLines) {
			oldLine = oldLines[i]
		}
		if i < len(newLines) {
			newLine = newLines[i]
		}

		var left, right func(...string) string
		switch {
		case oldLine == newLine:
		case newLine == "":
			left = st.Removed
		case oldLine == "":
			right = st.Added
		default:
			left, right = st.Changed, st.Changed
		}
		fmt.Fprintf(&sb, "%s | %s\n", paint(left, fit(oldLine, width)), paint(right, fit(newLine, width)))
	}
	sb.WriteString(rule + "\n")
	return sb.String()
}

func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-len(r))
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

// editOp is one line-level edit operation.
type editOp int

const (
	opEqual editOp = iota
	opInsert
	opDelete
)

type diffLine struct {
	op   editOp
	text string
}

// diffLines computes the line-level edit script from a to b using an LCS table.
func diffLines(a, b []string) []diffLine {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else {
				dp[i][j] = max(dp[i+1][j], dp[i][j+1])
			}
		}
	}

	var out []diffLine
	i, j := 0, 0
	for i < m && j < n {
		switch {
		case a[i] == b[j]:
			out = append(out, diffLine{opEqual, a[i]})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			out = append(out, diffLine{opDelete, a[i]})
			i++
		default:
			out = append(out, diffLine{opInsert, b[j]})
			j++
		}
	}
	for ; i < m; i++ {
		out = append(out, diffLine{opDelete, a[i]})
	}
	for ; j < n; j++ {
		out = append(out, diffLine{opInsert, b[j]})
	}
	return out
}

// UnifiedDiff produces a unified diff comparing oldText and newText with three
// lines of context. It returns an empty string when they are identical.
func UnifiedDiff(name, oldText, newText string) string {
	lines := diffLines(splitLines(oldText), splitLines(newText))

	changed := false
	for _, l := range lines {
		if l.op != opEqual {
			changed = true
			break
		}
	}
	if !changed {
		return ""
	}

	const context = 3
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", name, name)

	// Line numbers before each annotated entry.
	oldNo := make([]int, len(lines)+1)
	newNo := make([]int, len(lines)+1)
	for k, l := range lines {
		oldNo[k+1], newNo[k+1] = oldNo[k], newNo[k]
		if l.op != opInsert {
			oldNo[k+1]++
		}
		if l.op != opDelete {
			newNo[k+1]++
		}
	}

	k := 0
	for k < len(lines) {
		if lines[k].op == opEqual {
			k++
			continue
		}
		start := max(k-context, 0)
		end := k
		for end < len(lines) {
			if lines[end].op != opEqual {
				end++
				continue
			}
			next := -1
			for x := end; x < len(lines) && x <= end+2*context; x++ {
				if lines[x].op != opEqual {
					next = x
					break
				}
			}
			if next < 0 {
				break
			}
			end = next + 1
		}
		stop := min(end+context, len(lines))

		oldCount := oldNo[stop] - oldNo[start]
		newCount := newNo[stop] - newNo[start]
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", hunkStart(oldNo[start], oldCount), oldCount, hunkStart(newNo[start], newCount), newCount)
		for _, l := range lines[start:stop] {
			switch l.op {
			case opEqual:
				sb.WriteString(" " + l.text + "\n")
			case opDelete:
				sb.WriteString("-" + l.text + "\n")
			case opInsert:
				sb.WriteString("+" + l.text + "\n")
			}
		}
		k = stop
	}
	return sb.String()
}

func hunkStart(before, count int) int {
	if count == 0 {
		return before
	}
	return before + 1
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
