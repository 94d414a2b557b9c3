package sourcemap

import (
	"fmt"

	"gopkg.in/guregu/null.v3"
)

// Position is an original position. Every field is null when the generated
// position has no original counterpart. Line is 1-based, Column 0-based.
type Position struct {
	Source null.String `json:"source"`
	Line   null.Int    `json:"line"`
	Column null.Int    `json:"column"`
	Name   null.String `json:"name"`
}

// Found reports whether the position resolved to an original source.
func (p Position) Found() bool {
	return p.Source.Valid
}

func (p Position) String() string {
	if !p.Found() {
		return "<no original position>"
	}
	s := fmt.Sprintf("%s:%d:%d", p.Source.String, p.Line.Int64, p.Column.Int64)
	if p.Name.Valid {
		s += " (" + p.Name.String + ")"
	}
	return s
}

// OriginalPositionFor resolves the generated position (1-based line, 0-based
// column) against index, which must have been decoded from doc. Sources are
// combined with the document's sourceRoot by JoinSourceRoot.
//
// Out of range coordinates and positions without a mapping yield a Position
// with every field null; OriginalPositionFor never fails.
func OriginalPositionFor(index *Index, doc *Document, line, column int) Position {
	return originalPositionFor(index, doc, JoinSourceRoot, line, column)
}

func originalPositionFor(index *Index, doc *Document, policy SourceRootPolicy, line, column int) Position {
	if index == nil || line < 1 || column < 0 {
		return Position{}
	}
	seg, ok := index.Lookup(line-1, column)
	if !ok || !seg.HasSource || seg.SourceIndex >= len(doc.Sources) {
		return Position{}
	}

	source := doc.Sources[seg.SourceIndex]
	if !source.Valid {
		return Position{}
	}
	pos := Position{
		Source: null.StringFrom(policy.Apply(doc.SourceRoot, source.String)),
		Line:   null.IntFrom(int64(seg.OriginalLine) + 1),
		Column: null.IntFrom(int64(seg.OriginalColumn)),
	}
	if seg.HasName && seg.NameIndex < len(doc.Names) {
		pos.Name = null.StringFrom(doc.Names[seg.NameIndex])
	}
	return pos
}
