// Package api is the typed facade over the script bridge. Each method builds
// a script, runs it, normalizes the reply and annotates recurrence; list
// methods for projects, tags and folders go through the on-disk cache.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/cache"
	"github.com/kutbudev/ofocus-cli/internal/config"
	"github.com/kutbudev/ofocus-cli/internal/executor"
	"github.com/kutbudev/ofocus-cli/internal/models"
	"github.com/kutbudev/ofocus-cli/internal/recurrence"
	"github.com/kutbudev/ofocus-cli/internal/script"
)

// Runner executes one script. *executor.Executor implements it.
type Runner interface {
	Run(ctx context.Context, s script.Script) (*executor.Result, error)
}

// CacheTTL holds per-list cache lifetimes.
type CacheTTL struct {
	Projects time.Duration
	Tags     time.Duration
	Folders  time.Duration
}

// Options configures a Client.
type Options struct {
	AppName    string
	Runner     Runner
	Cache      *cache.Store
	TTL        CacheTTL
	Recurrence *recurrence.Registry
	Logger     *slog.Logger
	Now        func() time.Time
}

// Client runs typed operations against the host application.
type Client struct {
	scripts    *script.Builder
	runner     Runner
	cache      *cache.Store
	ttl        CacheTTL
	recurrence *recurrence.Registry
	logger     *slog.Logger
	validate   *validator.Validate
	now        func() time.Time
}

// NewClient creates a Client. Runner is required; a nil Cache disables caching.
func NewClient(opts Options) *Client {
	c := &Client{
		scripts:    script.NewBuilder(opts.AppName),
		runner:     opts.Runner,
		cache:      opts.Cache,
		ttl:        opts.TTL,
		recurrence: opts.Recurrence,
		logger:     opts.Logger,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		now:        opts.Now,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.recurrence == nil {
		c.recurrence = recurrence.Default(recurrence.WithLogger(c.logger), recurrence.WithClock(c.now))
	}
	return c
}

// NewClientFromConfig wires an executor, the list cache and the default
// analyzers from cfg. The executor is returned so callers can apply config
// reloads to it.
func NewClientFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, *executor.Executor) {
	if logger == nil {
		logger = slog.Default()
	}
	exec := executor.New(cfg.Executor(), nil, logger)
	var store *cache.Store
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		store = cache.New(cfg.Cache.Dir)
	}
	return NewClient(Options{
		AppName: cfg.AppName,
		Runner:  exec,
		Cache:   store,
		TTL: CacheTTL{
			Projects: cfg.Cache.ProjectsTTL,
			Tags:     cfg.Cache.TagsTTL,
			Folders:  cfg.Cache.FoldersTTL,
		},
		Logger: logger,
	}), exec
}

// Meta describes how a result was produced.
type Meta struct {
	FromCache bool `json:"from_cache"`
	Scanned   int  `json:"scanned,omitempty"`
	// Dropped counts host records without a readable id.
	Dropped int `json:"dropped,omitempty"`
	// Filtered counts records the in-process filter re-check removed.
	Filtered int `json:"filtered,omitempty"`
}

// List is a page of records with its provenance.
type List[T any] struct {
	Items []T
	Meta  Meta
}

func (c *Client) nowTS() models.Timestamp {
	return models.NewTimestamp(c.now().Truncate(time.Minute))
}

// run executes s, retrying once through its alternate script for host errors
// with a known workaround.
func (c *Client) run(ctx context.Context, s script.Script) (any, error) {
	res, err := c.runner.Run(ctx, s)
	if err != nil && s.Fallback != nil && bridgeerr.IsFallbackEligible(err) {
		c.logger.Warn("retrying through alternate script", "script", s.Name, "error", bridgeerr.Describe(err))
		res, err = c.runner.Run(ctx, *s.Fallback)
	}
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// build turns a builder error into the returned error unchanged, so input
// problems surface before anything reaches the host.
func build(s script.Script, err error) (script.Script, error) {
	if err != nil {
		return script.Script{}, err
	}
	return s, nil
}

// check validates struct tags on caller input.
func (c *Client) check(v any) error {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return bridgeerr.Wrap(bridgeerr.InvalidValue, err, "invalid input")
	}
	fe := verrs[0]
	field := lowerFirst(fe.Field())
	if fe.Tag() == "required" {
		return bridgeerr.Newf(bridgeerr.MissingRequiredField, "%s is required", field).
			WithDetails(map[string]any{"field": field})
	}
	msg := fmt.Sprintf("%s failed the %q rule", field, fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return bridgeerr.New(bridgeerr.InvalidValue, msg).
		WithDetails(map[string]any{"field": field, "rule": fe.Tag(), "value": fmt.Sprint(fe.Value())})
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Cache helpers

const (
	keyProjects       = "projects"
	keyProjectsCounts = "projects:counts"
	keyTags           = "tags"
	keyFolders        = "folders"
)

// taskDerivedKeys hold per-project and per-tag task counts.
var taskDerivedKeys = []string{keyProjectsCounts, keyTags}

func (c *Client) cacheGet(key string, dst any) bool {
	if c.cache == nil {
		return false
	}
	ok, err := c.cache.Get(key, dst)
	if err != nil {
		c.logger.Debug("cache read failed", "key", key, "error", err)
		return false
	}
	return ok
}

func (c *Client) cachePut(key string, v any, ttl time.Duration) {
	if c.cache == nil || ttl <= 0 {
		return
	}
	if err := c.cache.Set(key, v, ttl); err != nil {
		c.logger.Debug("cache write failed", "key", key, "error", err)
	}
}

func (c *Client) invalidate(keys ...string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(keys...); err != nil {
		c.logger.Debug("cache invalidation failed", "keys", keys, "error", err)
	}
}

// ClearCache removes every cached list.
func (c *Client) ClearCache() (int, error) {
	if c.cache == nil {
		return 0, nil
	}
	return c.cache.Clear()
}

// System

// Status reports whether the host answers.
type Status struct {
	OK        bool          `json:"ok"`
	App       string        `json:"app"`
	Version   string        `json:"version"`
	Strategy  string        `json:"strategy"`
	Latency   time.Duration `json:"-"`
	LatencyMS int64         `json:"latency_ms"`
}

// Ping checks the host and reports its version.
func (c *Client) Ping(ctx context.Context) (*Status, error) {
	s, err := build(c.scripts.Ping())
	if err != nil {
		return nil, err
	}
	start := time.Now()
	v, err := c.run(ctx, s)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, bridgeerr.Newf(bridgeerr.UnexpectedShape, "unexpected ping reply %T", v)
	}
	st := &Status{Latency: time.Since(start)}
	st.LatencyMS = st.Latency.Milliseconds()
	st.OK, _ = m["ok"].(bool)
	st.App, _ = m["name"].(string)
	st.Version, _ = m["version"].(string)
	st.Strategy, _ = m["strategy"].(string)
	return st, nil
}
