package fileops

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// heading is one ATX/setext heading located via goldmark's AST, with its
// byte offsets within the source so section bodies can be sliced out
// without re-serialising the document (preserving formatting verbatim).
type heading struct {
	level      int
	title      string
	lineStart  int // byte offset where the heading's own line begins
	lineEnd    int // byte offset just past the heading's own line (incl. newline)
	childIndex int // index into the flat headings slice of the first nested heading, or -1
}

// parseHeadings walks source's markdown AST and returns every heading in
// document order. Using goldmark (rather than a "lines starting with #"
// scan) means a "#" inside a fenced code block is never mistaken for a
// heading.
func parseHeadings(source []byte) []heading {
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var out []heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		// Lines() covers only the heading's text; widen it to whole lines so
		// the "#" markers and the trailing newline belong to the heading.
		lineStart := lines.At(0).Start
		for lineStart > 0 && source[lineStart-1] != '\n' {
			lineStart--
		}
		lineEnd := lines.At(lines.Len() - 1).Stop
		if lineEnd == 0 || source[lineEnd-1] != '\n' {
			for lineEnd < len(source) && source[lineEnd] != '\n' {
				lineEnd++
			}
			if lineEnd < len(source) {
				lineEnd++
			}
		}
		out = append(out, heading{
			level:     h.Level,
			title:     strings.TrimSpace(headingText(h, source)),
			lineStart: lineStart,
			lineEnd:   lineEnd,
		})
		return ast.WalkSkipChildren, nil
	})

	linkChildren(out)
	return out
}

// headingText concatenates the plain text of a heading's inline children;
// goldmark's ast.Node no longer exposes a Text(source) helper directly on
// block nodes, so inline text segments are walked by hand.
func headingText(h *ast.Heading, source []byte) string {
	var sb strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		collectText(c, source, &sb)
	}
	return sb.String()
}

func collectText(n ast.Node, source []byte, sb *strings.Builder) {
	if t, ok := n.(*ast.Text); ok {
		sb.Write(t.Segment.Value(source))
		if t.SoftLineBreak() || t.HardLineBreak() {
			sb.WriteByte(' ')
		}
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		collectText(c, source, sb)
	}
}

// linkChildren fills in childIndex: for each heading, the index of the next
// heading in document order with a strictly greater level, provided no
// heading of level <= the current one appears first.
func linkChildren(headings []heading) {
	for i := range headings {
		headings[i].childIndex = -1
		if i+1 < len(headings) && headings[i+1].level > headings[i].level {
			headings[i].childIndex = i + 1
		}
	}
}

// nextSiblingOrAncestorIndex returns the index of the next heading at level
// <= headings[i].level, or len(headings) if none remains. This is the end
// of heading i's full scope (header + all descendants).
func nextSiblingOrAncestorIndex(headings []heading, i int) int {
	for j := i + 1; j < len(headings); j++ {
		if headings[j].level <= headings[i].level {
			return j
		}
	}
	return len(headings)
}

// locateSection walks titles as a path of nested header titles and returns
// the flat index of the matching heading. Each step only considers
// headings strictly nested under the previous match (between it and its
// scope end), so identically titled headings elsewhere in the document
// don't collide.
func locateSection(headings []heading, titles []string) (located location, ok bool) {
	if len(titles) == 0 {
		return location{}, false
	}

	searchStart, searchEnd := 0, len(headings)
	var matchIdx int
	for step, title := range titles {
		found := -1
		for j := searchStart; j < searchEnd; j++ {
			if headings[j].title == title {
				found = j
				break
			}
		}
		if found == -1 {
			return location{}, false
		}
		matchIdx = found
		if step < len(titles)-1 {
			searchStart = found + 1
			searchEnd = nextSiblingOrAncestorIndex(headings, found)
		}
	}
	return location{headings: headings, index: matchIdx}, true
}

// location pins down a matched heading within its flat slice so bodyRange
// can compute byte offsets without re-walking the document.
type location struct {
	headings []heading
	index    int
}

// bodyRange returns the [start, end) byte offsets of the section's body:
// from just after the heading's own line to either its first child heading
// (preface=true) or the end of its full scope (preface=false, the default
// — "a section's scope includes its child sections", spec §4.9). sourceLen
// bounds the range when the section runs to the end of the file.
func (l location) bodyRange(sourceLen int, preface bool) (start, end int) {
	h := l.headings[l.index]
	start = h.lineEnd

	if preface && h.childIndex != -1 {
		end = l.headings[h.childIndex].lineStart
		return start, end
	}

	endIdx := nextSiblingOrAncestorIndex(l.headings, l.index)
	if endIdx >= len(l.headings) {
		return start, sourceLen
	}
	return start, l.headings[endIdx].lineStart
}
