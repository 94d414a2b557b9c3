// Package loader retrieves source map documents. A locator is either an
// http(s) URL, an inline data: URL, "-" for standard input, or a local path
// (optionally as a file:// URL) read through an afero filesystem.
package loader

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"go.k6.io/smdecode/errext"
)

// DefaultExtension is appended to locators that have no extension.
const DefaultExtension = ".js.map"

// SourceData wraps a retrieved source map; data and where it came from.
type SourceData struct {
	Data []byte
	URL  *url.URL
}

// Loader retrieves source maps. It makes exactly one attempt per locator and
// never retries.
type Loader struct {
	logger    logrus.FieldLogger
	fs        afero.Fs
	getwd     func() (string, error)
	stdin     io.Reader
	client    *http.Client
	userAgent string
}

// Options are the collaborators of a Loader. Only FS is required.
type Options struct {
	FS        afero.Fs
	Getwd     func() (string, error)
	Stdin     io.Reader
	Client    *http.Client
	UserAgent string
}

// New returns a Loader.
func New(logger logrus.FieldLogger, opts Options) *Loader {
	l := &Loader{
		logger:    logger,
		fs:        opts.FS,
		getwd:     opts.Getwd,
		stdin:     opts.Stdin,
		client:    opts.Client,
		userAgent: opts.UserAgent,
	}
	if l.getwd == nil {
		l.getwd = os.Getwd
	}
	if l.client == nil {
		l.client = http.DefaultClient
	}
	return l
}

// Normalize appends DefaultExtension to a locator without an extension.
// Standard input and data: URLs are returned as they are.
func Normalize(locator string) string {
	if locator == "-" || isDataURL(locator) {
		return locator
	}
	if path.Ext(filepath.ToSlash(locator)) == "" {
		return locator + DefaultExtension
	}
	return locator
}

// Resolve turns a normalized locator into a URL. Local paths are made
// absolute against pwd and get the "file" scheme.
func Resolve(pwd, locator string) (*url.URL, error) {
	switch {
	case locator == "":
		return nil, errext.NewInvalidInput("the sourcemap file path must be a non-empty string")
	case locator == "-":
		return &url.URL{Scheme: "file", Path: "/-"}, nil
	case isDataURL(locator):
		return &url.URL{Scheme: "data", Opaque: locator[len("data:"):]}, nil
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		u, err := url.Parse(locator)
		if err != nil {
			return nil, errext.NewInvalidInput("malformed URL %q: %s", locator, err)
		}
		return u, nil
	case strings.HasPrefix(locator, "file://"):
		u, err := url.Parse(locator)
		if err != nil {
			return nil, errext.NewInvalidInput("malformed URL %q: %s", locator, err)
		}
		return &url.URL{Scheme: "file", Path: u.Path}, nil
	}

	p := locator
	if !filepath.IsAbs(p) {
		p = filepath.Join(pwd, p)
	}
	// C:\something is decoded as a URL with the scheme C, keep it as a path
	p = filepath.ToSlash(filepath.Clean(p))
	if filepath.VolumeName(p) != "" {
		p = "/" + p
	}
	return &url.URL{Scheme: "file", Path: p}, nil
}

// Load normalizes and retrieves locator. Failures are errext errors of kind
// InvalidInput (bad locator), NotFound (local reads) or Network (remote
// fetches).
func (l *Loader) Load(ctx context.Context, locator string) (*SourceData, error) {
	if locator == "" {
		return nil, errext.NewInvalidInput("the sourcemap file path must be a non-empty string")
	}
	normalized := Normalize(locator)
	pwd, err := l.getwd()
	if err != nil {
		pwd = "/"
	}
	u, err := Resolve(pwd, normalized)
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"locator":  locator,
		"resolved": u.String(),
	}).Debug("Loading...")

	var data []byte
	switch {
	case u.Scheme == "data":
		data, err = decodeDataURL(normalized)
	case u.Scheme == "http" || u.Scheme == "https":
		data, err = l.fetch(ctx, u.String())
	case normalized == "-":
		data, err = l.readStdin()
	default:
		data, err = l.readFile(normalized, u)
	}
	if err != nil {
		return nil, err
	}
	return &SourceData{Data: data, URL: u}, nil
}

func (l *Loader) readStdin() ([]byte, error) {
	if l.stdin == nil {
		return nil, errext.NewNotFound("-", nil)
	}
	data, err := io.ReadAll(l.stdin)
	if err != nil {
		return nil, errext.NewNotFound("-", err)
	}
	return data, nil
}

func (l *Loader) readFile(locator string, u *url.URL) ([]byte, error) {
	pathOnFs := u.Path
	if len(pathOnFs) > 1 && filepath.VolumeName(pathOnFs[1:]) != "" {
		pathOnFs = pathOnFs[1:]
	}
	pathOnFs = filepath.FromSlash(pathOnFs)
	data, err := afero.ReadFile(l.fs, pathOnFs)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.WithError(err).WithField("path", pathOnFs).Debug("Couldn't read the source map")
		}
		return nil, errext.NewNotFound(locator, err)
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, u string) ([]byte, error) {
	l.logger.WithField("url", u).Debug("Fetching source map...")
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errext.NewNetworkFailure(u, err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	res, err := l.client.Do(req)
	if err != nil {
		return nil, errext.NewNetworkFailure(u, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, errext.NewNetwork(u, res.StatusCode, statusText(res))
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errext.NewNetworkFailure(u, err)
	}

	l.logger.WithFields(logrus.Fields{
		"url": u,
		"t":   time.Since(startTime),
		"len": len(data),
	}).Debug("Fetched!")
	return data, nil
}

// statusText prefers the reason phrase sent by the server.
func statusText(res *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if text == "" {
		return http.StatusText(res.StatusCode)
	}
	return text
}

func isDataURL(locator string) bool {
	return strings.HasPrefix(locator, "data:")
}

// decodeDataURL decodes the payload of data:[<mediatype>][;base64],<data>.
func decodeDataURL(locator string) ([]byte, error) {
	meta, payload, ok := strings.Cut(locator[len("data:"):], ",")
	if !ok {
		return nil, errext.NewInvalidInput("malformed data URL: missing ','")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, errext.NewInvalidInput("malformed data URL: %s", err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errext.NewInvalidInput("malformed data URL: %s", err)
	}
	return []byte(data), nil
}
