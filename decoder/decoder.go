// Package decoder wires the loader and the sourcemap packages into the single
// operation of the tool: turn a generated position into an original one.
package decoder

import (
	"context"
	"crypto/sha256"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"

	"go.k6.io/smdecode/errext"
	"go.k6.io/smdecode/loader"
	"go.k6.io/smdecode/sourcemap"
)

// Decoder resolves positions against sourcemaps it retrieves itself. Decoded
// maps are cached by content, so the same map fetched twice is only decoded
// once. A Decoder is safe for concurrent use.
type Decoder struct {
	logger  logrus.FieldLogger
	loader  *loader.Loader
	policy  sourcemap.SourceRootPolicy
	timeout time.Duration
	cache   *lru.Cache[[sha256.Size]byte, *sourcemap.Consumer]
}

// New returns a Decoder for the consolidated conf. The user agent of opts is
// replaced by the one of conf.
func New(logger logrus.FieldLogger, conf Config, opts loader.Options) (*Decoder, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	policy, _ := sourcemap.ParseSourceRootPolicy(conf.SourceRootPolicy.String)
	opts.UserAgent = conf.UserAgent.String

	d := &Decoder{
		logger:  logger.WithField("component", "decoder"),
		loader:  loader.New(logger, opts),
		policy:  policy,
		timeout: conf.Timeout.TimeDuration(),
	}
	if size := int(conf.CacheSize.Int64); size > 0 {
		cache, err := lru.New[[sha256.Size]byte, *sourcemap.Consumer](size)
		if err != nil {
			return nil, err
		}
		d.cache = cache
	}
	return d, nil
}

// Open retrieves and parses the sourcemap behind locator. The mappings
// themselves are decoded on the first query.
func (d *Decoder) Open(ctx context.Context, locator string) (*sourcemap.Consumer, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	src, err := d.loader.Load(ctx, locator)
	if err != nil {
		return nil, err
	}

	key := sha256.Sum256(src.Data)
	if d.cache != nil {
		if c, ok := d.cache.Get(key); ok {
			d.logger.WithField("url", src.URL.String()).Debug("Reusing a decoded sourcemap")
			return c, nil
		}
	}

	doc, err := sourcemap.Parse(src.Data)
	if err != nil {
		return nil, errext.AsInvalidSourceMap(err)
	}
	c := sourcemap.NewConsumer(doc, sourcemap.WithSourceRootPolicy(d.policy))
	if d.cache != nil {
		d.cache.Add(key, c)
	}
	return c, nil
}

// Result is a resolved position and, when the sourcemap embeds it, the
// content of its original source.
type Result struct {
	Position      sourcemap.Position
	SourceContent null.String
}

// Decode returns the original position of the generated 1-based line and
// 0-based column in the file described by the sourcemap at locator. It
// either returns a position with a source or an error.
func (d *Decoder) Decode(ctx context.Context, locator string, column, line int) (sourcemap.Position, error) {
	res, err := d.Lookup(ctx, locator, column, line)
	if err != nil {
		return sourcemap.Position{}, err
	}
	return res.Position, nil
}

// Lookup is Decode that also returns the embedded original source.
func (d *Decoder) Lookup(ctx context.Context, locator string, column, line int) (Result, error) {
	if err := ValidatePosition(locator, column, line); err != nil {
		return Result{}, err
	}
	c, err := d.Open(ctx, locator)
	if err != nil {
		return Result{}, err
	}
	pos, err := c.OriginalPositionFor(line, column)
	if err != nil {
		return Result{}, errext.AsInvalidSourceMap(err)
	}
	if !pos.Found() {
		return Result{}, errext.InvalidSourceMapf(
			"could not find original position for line %d, column %d", line, column)
	}

	d.logger.WithFields(logrus.Fields{
		"line":     line,
		"column":   column,
		"position": pos.String(),
	}).Debug("Resolved")

	content, ok := c.SourceContent(pos.Source.String)
	return Result{Position: pos, SourceContent: null.NewString(content, ok)}, nil
}

// ValidatePosition checks the arguments of Decode without doing any I/O.
func ValidatePosition(locator string, column, line int) error {
	if locator == "" {
		return errext.NewInvalidInput("the sourcemap file path must be a non-empty string")
	}
	if column < 0 {
		return errext.NewInvalidInput("column number must be a non-negative integer, got: %d", column)
	}
	if line < 1 {
		return errext.NewInvalidInput("line number must be a positive integer, got: %d", line)
	}
	return nil
}
