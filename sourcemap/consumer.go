package sourcemap

import (
	"sort"
	"sync"
)

// Consumer answers position queries for one Document. The mapping index is
// decoded on the first query and then shared, read-only, by every later one,
// so a Consumer is safe for concurrent use.
type Consumer struct {
	doc    *Document
	policy SourceRootPolicy

	once     sync.Once
	index    *Index
	sections []*Consumer
	err      error
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithSourceRootPolicy sets how sourceRoot is applied to sources.
func WithSourceRootPolicy(p SourceRootPolicy) ConsumerOption {
	return func(c *Consumer) {
		c.policy = p
	}
}

// NewConsumer returns a Consumer for doc. Nothing is decoded yet.
func NewConsumer(doc *Document, opts ...ConsumerOption) *Consumer {
	c := &Consumer{doc: doc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Document returns the document this Consumer was created for.
func (c *Consumer) Document() *Document {
	return c.doc
}

// Policy returns the source root policy in use.
func (c *Consumer) Policy() SourceRootPolicy {
	return c.policy
}

func (c *Consumer) init() error {
	c.once.Do(func() {
		if c.doc.IsIndexMap() {
			c.sections = make([]*Consumer, len(c.doc.Sections))
			for i, s := range c.doc.Sections {
				sc := NewConsumer(s.Map, WithSourceRootPolicy(c.policy))
				if err := sc.init(); err != nil {
					c.err = err
					return
				}
				c.sections[i] = sc
			}
			return
		}
		c.index, c.err = DecodeMappings(c.doc.Mappings, len(c.doc.Sources), len(c.doc.Names))
	})
	return c.err
}

// Index returns the decoded mapping index. Index maps have no index of their
// own and return nil; their sections are reachable through Sections.
func (c *Consumer) Index() (*Index, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	return c.index, nil
}

// Sections returns one Consumer per section of an index map.
func (c *Consumer) Sections() ([]*Consumer, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	return c.sections, nil
}

// OriginalPositionFor resolves a generated position (1-based line, 0-based
// column). The only possible error comes from decoding the mappings; a
// position without an original counterpart is returned with null fields.
func (c *Consumer) OriginalPositionFor(line, column int) (Position, error) {
	if err := c.init(); err != nil {
		return Position{}, err
	}
	if line < 1 || column < 0 {
		return Position{}, nil
	}
	if c.sections == nil {
		return originalPositionFor(c.index, c.doc, c.policy, line, column), nil
	}

	query := Offset{Line: line - 1, Column: column}
	i := sort.Search(len(c.doc.Sections), func(i int) bool {
		return c.doc.Sections[i].Offset.after(query)
	})
	if i == 0 {
		return Position{}, nil
	}
	offset := c.doc.Sections[i-1].Offset
	if query.Line == offset.Line {
		column -= offset.Column
	}
	return c.sections[i-1].OriginalPositionFor(query.Line-offset.Line+1, column)
}

// SourceContent returns the embedded content of source, which is matched
// against the sources as they are reported in positions.
func (c *Consumer) SourceContent(source string) (string, bool) {
	if err := c.init(); err != nil {
		return "", false
	}
	for _, sc := range c.sections {
		if content, ok := sc.SourceContent(source); ok {
			return content, true
		}
	}
	for i, s := range c.doc.Sources {
		if !s.Valid || i >= len(c.doc.SourcesContent) {
			continue
		}
		if s.String == source || c.policy.Apply(c.doc.SourceRoot, s.String) == source {
			content := c.doc.SourcesContent[i]
			return content.String, content.Valid
		}
	}
	return "", false
}

// Stats summarizes the decoded mappings.
type Stats struct {
	Sections       int `json:"sections" yaml:"sections"`
	Lines          int `json:"lines" yaml:"lines"`
	Segments       int `json:"segments" yaml:"segments"`
	MappedSegments int `json:"mappedSegments" yaml:"mappedSegments"`
	NamedSegments  int `json:"namedSegments" yaml:"namedSegments"`
}

// Stats decodes the mappings, if needed, and counts them.
func (c *Consumer) Stats() (Stats, error) {
	if err := c.init(); err != nil {
		return Stats{}, err
	}
	var st Stats
	for i, sc := range c.sections {
		sub, err := sc.Stats()
		if err != nil {
			return Stats{}, err
		}
		st.Sections++
		st.Segments += sub.Segments
		st.MappedSegments += sub.MappedSegments
		st.NamedSegments += sub.NamedSegments
		if end := c.doc.Sections[i].Offset.Line + sub.Lines; end > st.Lines {
			st.Lines = end
		}
	}
	if c.index == nil {
		return st, nil
	}
	st.Lines = c.index.Lines()
	st.Segments = c.index.Len()
	for line := 0; line < c.index.Lines(); line++ {
		for _, seg := range c.index.Segments(line) {
			if seg.HasSource {
				st.MappedSegments++
			}
			if seg.HasName {
				st.NamedSegments++
			}
		}
	}
	return st, nil
}
