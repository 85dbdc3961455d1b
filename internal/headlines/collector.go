// Package headlines collects candidate news items from RSS and Atom feeds.
package headlines

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"basegraph.app/agora/common/logger"
	"basegraph.app/agora/internal/model"
)

const (
	DefaultMaxPerSource = 10
	DefaultTimeout      = 20 * time.Second
)

var ErrAllSourcesFailed = errors.New("every headline source failed")

type Source struct {
	Key      string
	URL      string
	Category string
	Name     string
}

func DefaultSources() []Source {
	return []Source{
		{
			Key:      "google_tech_kr",
			URL:      "https://news.google.com/rss/search?q=AI+%EA%B8%B0%EC%88%A0&hl=ko&gl=KR&ceid=KR:ko",
			Category: "tech",
			Name:     "Google News (Tech KR)",
		},
		{
			Key:      "google_economy_kr",
			URL:      "https://news.google.com/rss/search?q=%EA%B2%BD%EC%A0%9C&hl=ko&gl=KR&ceid=KR:ko",
			Category: "economy",
			Name:     "Google News (Economy KR)",
		},
		{
			Key:      "google_ai_en",
			URL:      "https://news.google.com/rss/search?q=AI+technology&hl=en&gl=US&ceid=US:en",
			Category: "tech",
			Name:     "Google News (AI)",
		},
		{
			Key:      "hacker_news",
			URL:      "https://news.ycombinator.com/rss",
			Category: "tech",
			Name:     "Hacker News",
		},
	}
}

type Collector struct {
	sources      []Source
	maxPerSource int
	timeout      time.Duration
	client       *http.Client
}

type Option func(*Collector)

func WithSources(sources []Source) Option {
	return func(c *Collector) {
		if len(sources) > 0 {
			c.sources = sources
		}
	}
}

func WithMaxPerSource(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.maxPerSource = n
		}
	}
}

// WithTimeout bounds each feed download.
func WithTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Collector) {
		if hc != nil {
			c.client = hc
		}
	}
}

func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		sources:      DefaultSources(),
		maxPerSource: DefaultMaxPerSource,
		timeout:      DefaultTimeout,
		client:       http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchSources downloads every feed and returns items in source order.
// A failing source is logged and skipped; only when all fail is it an error.
// Entries without a title or link are dropped, as are repeated links.
func (c *Collector) FetchSources(ctx context.Context) ([]model.SourceItem, error) {
	return c.collect(ctx, c.sources)
}

// FetchCategory is FetchSources restricted to sources of one category.
func (c *Collector) FetchCategory(ctx context.Context, category string) ([]model.SourceItem, error) {
	var sources []Source
	for _, s := range c.sources {
		if s.Category == category {
			sources = append(sources, s)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no headline source for category %q", category)
	}
	return c.collect(ctx, sources)
}

func (c *Collector) collect(ctx context.Context, sources []Source) ([]model.SourceItem, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "agora.headlines"})

	perSource := make([][]model.SourceItem, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			items, err := c.fetch(gctx, src)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", src.Name, err)
				slog.WarnContext(ctx, "headline source failed", "source", src.Key, "error", err)
				return nil
			}
			perSource[i] = items
			slog.DebugContext(ctx, "headline source collected", "source", src.Key, "items", len(items))
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if len(sources) > 0 && failed == len(sources) {
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}

	seen := make(map[string]bool)
	var out []model.SourceItem
	for _, items := range perSource {
		for _, item := range items {
			if seen[item.Key] {
				continue
			}
			seen[item.Key] = true
			out = append(out, item)
		}
	}

	slog.InfoContext(ctx, "headlines collected", "items", len(out), "sources", len(sources), "failed_sources", failed)
	return out, nil
}

func (c *Collector) fetch(ctx context.Context, src Source) ([]model.SourceItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.Client = c.client

	feed, err := parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, err
	}

	entries := feed.Items
	if len(entries) > c.maxPerSource {
		entries = entries[:c.maxPerSource]
	}

	items := make([]model.SourceItem, 0, len(entries))
	for _, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		link := strings.TrimSpace(entry.Link)
		if title == "" || link == "" {
			continue
		}
		item := model.SourceItem{
			Key:      link,
			Title:    title,
			Category: src.Category,
			Origin:   src.Name,
		}
		if entry.PublishedParsed != nil {
			published := entry.PublishedParsed.UTC()
			item.PublishedAt = &published
		}
		items = append(items, item)
	}
	return items, nil
}
