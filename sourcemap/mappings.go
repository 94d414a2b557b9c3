package sourcemap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.k6.io/smdecode/errext"
)

// Errors describing structurally corrupt mappings. DecodeMappings returns
// them wrapped in an InvalidSourceMap error that names the offending segment.
var (
	ErrFieldCount        = errors.New("segment must have 1, 4 or 5 fields")
	ErrUnsortedColumns   = errors.New("generated columns are not sorted")
	ErrSourceOutOfRange  = errors.New("source index out of range")
	ErrNameOutOfRange    = errors.New("name index out of range")
	ErrNegativeOriginal  = errors.New("original line or column is negative")
	ErrNegativeGenerated = errors.New("generated column is negative")
)

// Segment is one decoded mapping. Only GeneratedColumn is meaningful when
// HasSource is false, and NameIndex only when HasName is true.
type Segment struct {
	GeneratedColumn int
	SourceIndex     int
	OriginalLine    int // 0-based
	OriginalColumn  int
	NameIndex       int
	HasSource       bool
	HasName         bool
}

// Index holds the segments of every generated line, sorted by generated
// column. It is never modified after DecodeMappings returns it.
type Index struct {
	lines    [][]Segment
	segments int
}

// Lines returns the number of generated lines covered by the mappings,
// including empty ones.
func (idx *Index) Lines() int {
	return len(idx.lines)
}

// Len returns the total number of segments.
func (idx *Index) Len() int {
	return idx.segments
}

// Segments returns the segments of the 0-based generated line, or nil.
func (idx *Index) Segments(line int) []Segment {
	if line < 0 || line >= len(idx.lines) {
		return nil
	}
	return idx.lines[line]
}

// Lookup finds the last segment on the 0-based generated line whose
// generated column is not after column.
func (idx *Index) Lookup(line, column int) (Segment, bool) {
	segments := idx.Segments(line)
	if len(segments) == 0 || column < 0 {
		return Segment{}, false
	}
	i := sort.Search(len(segments), func(i int) bool {
		return segments[i].GeneratedColumn > column
	})
	if i == 0 {
		return Segment{}, false
	}
	return segments[i-1], true
}

// accumulator carries the running totals that persist across segments and
// lines. The generated column is not part of it since it resets every line.
type accumulator struct {
	sourceIndex    int
	originalLine   int
	originalColumn int
	nameIndex      int
}

// DecodeMappings decodes the "mappings" field of a source map into an Index.
// sourceCount and nameCount bound the source and name indexes.
func DecodeMappings(encoded string, sourceCount, nameCount int) (*Index, error) {
	idx := &Index{lines: make([][]Segment, 0, strings.Count(encoded, ";")+1)}
	if encoded == "" {
		return idx, nil
	}

	var (
		acc    accumulator
		fields [5]int
	)
	for lineNo, group := range strings.Split(encoded, ";") {
		if group == "" {
			idx.lines = append(idx.lines, nil)
			continue
		}

		rawSegments := strings.Split(group, ",")
		segments := make([]Segment, 0, len(rawSegments))
		generatedColumn := 0
		for segNo, raw := range rawSegments {
			n, err := readFields(raw, &fields)
			if err != nil {
				return nil, segmentError(lineNo, segNo, err)
			}

			if segNo > 0 && fields[0] < 0 {
				return nil, segmentError(lineNo, segNo, ErrUnsortedColumns)
			}
			generatedColumn += fields[0]
			if generatedColumn < 0 {
				return nil, segmentError(lineNo, segNo, ErrNegativeGenerated)
			}
			seg := Segment{GeneratedColumn: generatedColumn}

			if n >= 4 {
				acc.sourceIndex += fields[1]
				acc.originalLine += fields[2]
				acc.originalColumn += fields[3]
				if acc.sourceIndex < 0 || acc.sourceIndex >= sourceCount {
					return nil, segmentError(lineNo, segNo,
						fmt.Errorf("%w: %d not in [0, %d)", ErrSourceOutOfRange, acc.sourceIndex, sourceCount))
				}
				if acc.originalLine < 0 || acc.originalColumn < 0 {
					return nil, segmentError(lineNo, segNo, ErrNegativeOriginal)
				}
				seg.HasSource = true
				seg.SourceIndex = acc.sourceIndex
				seg.OriginalLine = acc.originalLine
				seg.OriginalColumn = acc.originalColumn
			}
			if n == 5 {
				acc.nameIndex += fields[4]
				if acc.nameIndex < 0 || acc.nameIndex >= nameCount {
					return nil, segmentError(lineNo, segNo,
						fmt.Errorf("%w: %d not in [0, %d)", ErrNameOutOfRange, acc.nameIndex, nameCount))
				}
				seg.HasName = true
				seg.NameIndex = acc.nameIndex
			}
			segments = append(segments, seg)
		}
		idx.lines = append(idx.lines, segments)
		idx.segments += len(segments)
	}
	return idx, nil
}

// readFields decodes every VLQ value of one segment into fields and returns
// how many there were.
func readFields(raw string, fields *[5]int) (int, error) {
	n := 0
	for pos := 0; pos < len(raw); {
		if n == len(fields) {
			return 0, fmt.Errorf("%w, got more than %d", ErrFieldCount, len(fields))
		}
		v, next, err := decodeVLQ(raw, pos)
		if err != nil {
			return 0, err
		}
		fields[n] = v
		n++
		pos = next
	}
	if n != 1 && n != 4 && n != 5 {
		return 0, fmt.Errorf("%w, got %d", ErrFieldCount, n)
	}
	return n, nil
}

func segmentError(lineNo, segNo int, err error) error {
	return &errext.Error{
		Kind:    errext.InvalidSourceMap,
		Message: fmt.Sprintf("mappings: generated line %d, segment %d: %s", lineNo+1, segNo+1, err),
		Err:     err,
	}
}
