package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/metrics"
)

// DefaultURL is the upstream location of the curated package lists.
const DefaultURL = "https://raw.githubusercontent.com/Universal-Debloater-Alliance/universal-android-debloater-next-generation/main/resources/assets/uad_lists.json"

// Source names where a loaded catalog came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceCache    Source = "cache"
	SourceEmbedded Source = "embedded"
)

// Cache persists the last good remote document between sessions.
type Cache interface {
	LoadCatalog(ctx context.Context) ([]byte, error)
	SaveCatalog(ctx context.Context, data []byte) error
}

// Loader resolves the catalog: remote first, then the cached copy, then the
// snapshot embedded in the binary. It never fails.
type Loader struct {
	URL         string
	OverlayPath string
	HTTP        *resty.Client
	Cache       Cache
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// NewHTTPClient builds the download client: resty on top of a retrying
// transport. retries <= 0 disables retrying.
func NewHTTPClient(timeout time.Duration, retries int, logger *zap.Logger) *resty.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = max(retries, 0)
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil
	if logger != nil {
		rc.Logger = retryLogger{logger.Sugar()}
	}

	return resty.NewWithClient(rc.StandardClient()).
		SetTimeout(timeout).
		SetHeader("User-Agent", "uad-ng/1.0").
		SetHeader("Accept", "application/json")
}

// Result is a loaded catalog with its provenance.
type Result struct {
	Catalog  Catalog
	Source   Source
	Degraded bool
}

// Load returns the catalog and whether a fallback source had to be used.
func (l *Loader) Load(ctx context.Context, remote bool) (Catalog, bool) {
	res := l.Resolve(ctx, remote)
	return res.Catalog, res.Degraded
}

// Resolve is Load with the serving source attached.
func (l *Loader) Resolve(ctx context.Context, remote bool) Result {
	log := l.logger()

	if remote {
		c, err := l.fetch(ctx)
		if err == nil {
			return l.finish(Result{Catalog: c, Source: SourceRemote})
		}
		log.Error("remote catalog unavailable, falling back", zap.String("url", l.URL), zap.Error(err))
	}

	if l.Cache != nil {
		data, err := l.Cache.LoadCatalog(ctx)
		switch {
		case err != nil:
			log.Warn("catalog cache read failed", zap.Error(err))
		case len(data) > 0:
			c, err := Decode(data)
			if err == nil {
				return l.finish(Result{Catalog: c, Source: SourceCache, Degraded: true})
			}
			log.Warn("cached catalog is corrupt", zap.Error(err))
		}
	}

	c, err := Embedded()
	if err != nil {
		// Only reachable with a broken build; keep the session usable.
		log.Error("embedded catalog does not decode", zap.Error(err))
		c = Catalog{}
	}
	return l.finish(Result{Catalog: c, Source: SourceEmbedded, Degraded: true})
}

func (l *Loader) finish(res Result) Result {
	log := l.logger()
	if l.OverlayPath != "" {
		o, err := LoadOverlay(l.OverlayPath)
		if err != nil {
			log.Warn("catalog overlay ignored", zap.Error(err))
		} else if n := o.Apply(res.Catalog); n > 0 {
			log.Info("catalog overlay applied", zap.String("path", l.OverlayPath), zap.Int("entries", n))
		}
	}
	l.Metrics.RecordCatalog(string(res.Source))
	log.Info("catalog loaded",
		zap.String("source", string(res.Source)),
		zap.Int("packages", len(res.Catalog)),
		zap.Bool("degraded", res.Degraded))
	return res
}

func (l *Loader) fetch(ctx context.Context) (Catalog, error) {
	if l.HTTP == nil || l.URL == "" {
		return nil, fmt.Errorf("remote catalog not configured")
	}
	resp, err := l.HTTP.R().SetContext(ctx).Get(l.URL)
	if err != nil {
		return nil, fmt.Errorf("download catalog: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("download catalog: unexpected status %s", resp.Status())
	}
	body := resp.Body()
	c, err := Decode(body)
	if err != nil {
		return nil, err
	}
	if l.Cache != nil {
		if err := l.Cache.SaveCatalog(ctx, body); err != nil {
			l.logger().Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return c, nil
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// retryLogger adapts zap to retryablehttp.LeveledLogger.
type retryLogger struct {
	s *zap.SugaredLogger
}

func (r retryLogger) Error(msg string, kv ...interface{}) { r.s.Errorw(msg, kv...) }
func (r retryLogger) Info(msg string, kv ...interface{})  { r.s.Debugw(msg, kv...) }
func (r retryLogger) Debug(msg string, kv ...interface{}) { r.s.Debugw(msg, kv...) }
func (r retryLogger) Warn(msg string, kv ...interface{})  { r.s.Warnw(msg, kv...) }
