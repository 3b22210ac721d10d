package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/httpclient"
	"github.com/kbukum/speakerkit/logger"
	"github.com/kbukum/speakerkit/observability"
	"github.com/kbukum/speakerkit/util"
)

// DefaultMaxSize caps a single downloaded or copied recording.
const DefaultMaxSize = "512MB"

// Fetcher copies the recording at location to the local file dst.
type Fetcher interface {
	Fetch(ctx context.Context, location, dst string) error
}

// FetchConfig configures audio retrieval.
type FetchConfig struct {
	// Timeout bounds a single download attempt.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxAttempts is the number of download attempts. 1 disables retry.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// AllowLocal permits plain paths and file:// locations.
	AllowLocal bool `yaml:"allow_local" mapstructure:"allow_local"`
	// MaxSize limits the size of a source file, e.g. "512MB".
	MaxSize string `yaml:"max_size" mapstructure:"max_size"`
}

// ApplyDefaults fills in zero values.
func (c *FetchConfig) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.MaxSize == "" {
		c.MaxSize = DefaultMaxSize
	}
}

// MaxBytes returns MaxSize in bytes.
func (c *FetchConfig) MaxBytes() (int64, error) {
	n, err := util.ParseSize(c.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("fetch.max_size: %w", err)
	}
	return n, nil
}

// tooLarge reports a source over the size limit. A negative size means the
// length was not known up front.
func tooLarge(size, limit int64) *errors.AppError {
	if size < 0 {
		return errors.InvalidInput("fileUrl", "audio file exceeds the "+util.FormatSize(limit)+" limit")
	}
	return errors.InvalidInput("fileUrl", fmt.Sprintf("audio file is %s, limit is %s",
		util.FormatSize(size), util.FormatSize(limit)))
}

// HTTPFetcher downloads http and https locations.
type HTTPFetcher struct {
	client   *httpclient.Client
	maxBytes int64
	log      *logger.Logger
}

// NewHTTPFetcher builds a fetcher over the shared HTTP client.
func NewHTTPFetcher(cfg FetchConfig, log *logger.Logger) (*HTTPFetcher, error) {
	cfg.ApplyDefaults()
	maxBytes, err := cfg.MaxBytes()
	if err != nil {
		return nil, err
	}
	hc := httpclient.Config{Timeout: cfg.Timeout, MaxResponseBytes: maxBytes}
	if cfg.MaxAttempts > 1 {
		retry := httpclient.DefaultRetryConfig()
		retry.MaxAttempts = cfg.MaxAttempts
		hc.Retry = retry
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, err
	}
	return &HTTPFetcher{client: client, maxBytes: maxBytes, log: logger.OrNop(log).WithComponent("fetch")}, nil
}

// Fetch downloads location into dst.
func (f *HTTPFetcher) Fetch(ctx context.Context, location, dst string) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanFetch)
	defer span.End()

	start := time.Now()
	resp, err := f.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: location})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var herr *httpclient.Error
		if stderrors.As(err, &herr) && herr.Kind == httpclient.KindTooLarge {
			return tooLarge(herr.Size, f.maxBytes)
		}
		f.log.Error("download failed", logger.ErrorFields("fetch", err))
		return errors.FetchFailed(location, err)
	}
	if err := os.WriteFile(dst, resp.Body, 0o600); err != nil {
		return errors.FetchFailed(location, err)
	}

	span.SetAttributes(attribute.Int("source.bytes", len(resp.Body)))
	f.log.Debug("downloaded", logger.Fields(
		"bytes", len(resp.Body),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

// FileFetcher copies local files.
type FileFetcher struct {
	// MaxBytes rejects larger files. Zero means no limit.
	MaxBytes int64
}

// Fetch copies the file named by location (a path or file:// URL) to dst.
func (f FileFetcher) Fetch(_ context.Context, location, dst string) error {
	path := location
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return errors.FetchFailed(location, err)
		}
		path = u.Path
	}

	in, err := os.Open(path)
	if err != nil {
		return errors.FetchFailed(location, err)
	}
	defer in.Close()
	if f.MaxBytes > 0 {
		if info, err := in.Stat(); err == nil && info.Size() > f.MaxBytes {
			return tooLarge(info.Size(), f.MaxBytes)
		}
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.FetchFailed(location, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.FetchFailed(location, err)
	}
	if err := out.Close(); err != nil {
		return errors.FetchFailed(location, err)
	}
	return nil
}

// Router dispatches on the location scheme.
type Router struct {
	remote Fetcher
	local  Fetcher
}

// NewRouter returns a fetcher that sends http(s) locations to remote and,
// when local is non-nil, everything else to local.
func NewRouter(remote, local Fetcher) *Router {
	return &Router{remote: remote, local: local}
}

// NewFetcher builds the default router from cfg.
func NewFetcher(cfg FetchConfig, log *logger.Logger) (*Router, error) {
	remote, err := NewHTTPFetcher(cfg, log)
	if err != nil {
		return nil, err
	}
	var local Fetcher
	if cfg.AllowLocal {
		local = FileFetcher{MaxBytes: remote.maxBytes}
	}
	return NewRouter(remote, local), nil
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, location, dst string) error {
	switch scheme(location) {
	case "http", "https":
		return r.remote.Fetch(ctx, location, dst)
	case "", "file":
		if r.local == nil {
			return errors.InvalidInput("fileUrl", "local files are not allowed")
		}
		return r.local.Fetch(ctx, location, dst)
	default:
		return errors.InvalidInput("fileUrl", fmt.Sprintf("unsupported scheme in %q", location))
	}
}

func scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(location[:i])
}
