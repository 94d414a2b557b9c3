package sourcemap

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// SourceRootPolicy decides how "sourceRoot" is combined with an entry of
// "sources".
type SourceRootPolicy uint8

// The supported source root policies. JoinSourceRoot is the default.
const (
	// JoinSourceRoot path-joins the root and the source, unless the source is
	// already absolute or URL-like. URL-like roots are joined with exactly one
	// slash so that their scheme and authority are left alone.
	JoinSourceRoot SourceRootPolicy = iota
	// ConcatSourceRoot prepends the root to every source as is.
	ConcatSourceRoot
	// IgnoreSourceRoot never applies the root.
	IgnoreSourceRoot
)

//nolint:gochecknoglobals
var schemeRegexp = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)

// ParseSourceRootPolicy parses the textual name of a policy.
func ParseSourceRootPolicy(s string) (SourceRootPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "join":
		return JoinSourceRoot, nil
	case "concat":
		return ConcatSourceRoot, nil
	case "ignore":
		return IgnoreSourceRoot, nil
	default:
		return JoinSourceRoot, fmt.Errorf("unknown source root policy %q, expected join, concat or ignore", s)
	}
}

func (p SourceRootPolicy) String() string {
	switch p {
	case ConcatSourceRoot:
		return "concat"
	case IgnoreSourceRoot:
		return "ignore"
	default:
		return "join"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p SourceRootPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *SourceRootPolicy) UnmarshalText(data []byte) error {
	v, err := ParseSourceRootPolicy(string(data))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Apply combines root and source according to the policy.
func (p SourceRootPolicy) Apply(root, source string) string {
	if root == "" {
		return source
	}
	switch p {
	case IgnoreSourceRoot:
		return source
	case ConcatSourceRoot:
		return root + source
	}

	if source == "" {
		return root
	}
	if isAbsoluteOrURL(source) {
		return source
	}
	if schemeRegexp.MatchString(root) {
		return strings.TrimSuffix(root, "/") + "/" + strings.TrimPrefix(source, "/")
	}
	return path.Join(root, source)
}

func isAbsoluteOrURL(source string) bool {
	return strings.HasPrefix(source, "/") || schemeRegexp.MatchString(source)
}
