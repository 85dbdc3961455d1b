// Package cycle drives one automation cycle: prune, fetch, filter, select,
// publish, record and discuss.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"basegraph.app/agora/common/id"
	"basegraph.app/agora/common/logger"
	"basegraph.app/agora/internal/board"
	"basegraph.app/agora/internal/brain"
	"basegraph.app/agora/internal/ledger"
	"basegraph.app/agora/internal/model"
)

// Fatal stages. A cycle error wraps exactly one of these.
var (
	ErrFetchFailed      = errors.New("fetching sources failed")
	ErrLedgerFailed     = errors.New("reading ledger failed")
	ErrEditorAuthFailed = errors.New("editor authentication failed")
	ErrSelectionFailed  = errors.New("source selection failed")
)

type SourceFetcher interface {
	FetchSources(ctx context.Context) ([]model.SourceItem, error)
}

// Editor chooses sources and writes the opening article for each.
type Editor interface {
	SelectSources(ctx context.Context, items []model.SourceItem, maxSelect int) ([]model.SelectedSource, error)
	WriteAnalysis(ctx context.Context, selected model.SelectedSource) (*brain.AnalysisResult, error)
}

// Publisher is the editor's board session.
type Publisher interface {
	Authenticate(ctx context.Context, handle, credential string) (*model.Author, error)
	PublishArticle(ctx context.Context, boardID int64, draft board.ArticleDraft) (*model.Article, error)
}

type Discusser interface {
	RunForMany(ctx context.Context, articleIDs []int64, agents []model.AgentIdentity, delay time.Duration) []model.ArticleDiscussion
}

type Config struct {
	EditorHandle     string
	EditorCredential string
	MaxSelect        int

	// BoardFor maps a (possibly re-tagged) category to the board it is published on.
	BoardFor func(category string) int64

	Agents          []model.AgentIdentity
	DiscussionDelay time.Duration

	// Retention is how long ledger records are kept. 0 disables pruning.
	Retention time.Duration

	// DryRun stops after selection: nothing is published, recorded or pruned.
	DryRun bool
}

type Coordinator struct {
	cfg       Config
	sources   SourceFetcher
	ledger    ledger.Ledger
	editor    Editor
	publisher Publisher
	discusser Discusser
	now       func() time.Time
}

func NewCoordinator(cfg Config, sources SourceFetcher, l ledger.Ledger, editor Editor, publisher Publisher, discusser Discusser) *Coordinator {
	if cfg.MaxSelect <= 0 {
		cfg.MaxSelect = brain.DefaultMaxSelect
	}
	if cfg.BoardFor == nil {
		cfg.BoardFor = func(string) int64 { return 1 }
	}
	return &Coordinator{
		cfg:       cfg,
		sources:   sources,
		ledger:    l,
		editor:    editor,
		publisher: publisher,
		discusser: discusser,
		now:       time.Now,
	}
}

// Run executes one cycle. The report is always returned, filled in as far as
// the cycle got; a non-nil error means the cycle stopped at a fatal stage.
func (c *Coordinator) Run(ctx context.Context) (*model.CycleReport, error) {
	cycleID := id.New()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		CycleID:   &cycleID,
		Component: "agora.cycle",
	})

	sc := logger.StartSpan(ctx, "cycle.run", attribute.Int64("cycle_id", cycleID), attribute.Bool("dry_run", c.cfg.DryRun))
	defer sc.End()
	ctx = sc.Context()

	report := &model.CycleReport{CycleID: cycleID, StartedAt: c.now()}
	defer func() { report.FinishedAt = c.now() }()

	err := c.run(ctx, report)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "cycle aborted", "error", err)
		return report, err
	}

	sc.SetAttributes(
		attribute.Int("selected", report.Selected),
		attribute.Int("published", report.Published),
		attribute.Int("discussed", report.Discussed))
	slog.InfoContext(ctx, "cycle finished",
		"fetched", report.Fetched,
		"fresh", report.Fresh,
		"selected", report.Selected,
		"published", report.Published,
		"discussed", report.Discussed,
		"failed_items", report.Count(model.ItemStatusFailed))
	return report, nil
}

func (c *Coordinator) run(ctx context.Context, report *model.CycleReport) error {
	if c.cfg.Retention > 0 && !c.cfg.DryRun {
		pruned, err := c.ledger.PruneOlderThan(ctx, c.cfg.Retention)
		if err != nil {
			slog.WarnContext(ctx, "ledger prune failed, continuing", "error", err)
		} else {
			report.Pruned = pruned
			attrs := []any{"removed", pruned, "retention", c.cfg.Retention}
			if remaining, err := c.ledger.Count(ctx); err == nil {
				attrs = append(attrs, "remaining", remaining)
			}
			slog.InfoContext(ctx, "ledger pruned", attrs...)
		}
	}

	items, err := c.sources.FetchSources(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	report.Fetched = len(items)

	fresh, err := ledger.FilterUnrecorded(ctx, c.ledger, items, func(it model.SourceItem) string { return it.Key })
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLedgerFailed, err)
	}
	report.Fresh = len(fresh)
	report.AlreadyRecorded = len(items) - len(fresh)
	slog.InfoContext(ctx, "sources filtered", "fetched", len(items), "fresh", len(fresh))

	if len(fresh) == 0 {
		slog.InfoContext(ctx, "nothing new to cover")
		return nil
	}

	if !c.cfg.DryRun {
		if _, err := c.publisher.Authenticate(ctx, c.cfg.EditorHandle, c.cfg.EditorCredential); err != nil {
			return fmt.Errorf("%w: %w", ErrEditorAuthFailed, err)
		}
	}

	selected, err := c.editor.SelectSources(ctx, fresh, c.cfg.MaxSelect)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSelectionFailed, err)
	}
	report.Selected = len(selected)
	for i, s := range selected {
		slog.InfoContext(ctx, "source selected",
			"rank", i+1,
			"title", logger.Truncate(s.Item.Title, 80),
			"category", s.Item.Category,
			"reason", logger.Truncate(s.Reason, 120))
	}

	if c.cfg.DryRun {
		for _, s := range selected {
			report.Items = append(report.Items, model.ItemReport{
				Source:  s.Item,
				Reason:  s.Reason,
				BoardID: c.cfg.BoardFor(s.Item.Category),
			})
		}
		return nil
	}

	var published []int64
	for _, s := range selected {
		item := c.publish(ctx, s)
		report.Items = append(report.Items, item)
		if item.Published() {
			report.Published++
			published = append(published, item.ArticleID)
		}
	}

	if len(published) == 0 {
		return nil
	}
	if len(c.cfg.Agents) == 0 {
		// No panel: a published item has nothing left to do.
		slog.InfoContext(ctx, "no agents configured, skipping discussion", "published", len(published))
		for i := range report.Items {
			if report.Items[i].Published() {
				report.Items[i].Discussion = &model.ArticleDiscussion{ArticleID: report.Items[i].ArticleID}
			}
		}
		return nil
	}

	discussions := c.discusser.RunForMany(ctx, published, c.cfg.Agents, c.cfg.DiscussionDelay)
	byArticle := make(map[int64]*model.ArticleDiscussion, len(discussions))
	for i := range discussions {
		byArticle[discussions[i].ArticleID] = &discussions[i]
		if discussions[i].Err == nil {
			report.Discussed++
		}
	}
	for i := range report.Items {
		if d, ok := byArticle[report.Items[i].ArticleID]; ok {
			report.Items[i].Discussion = d
		}
	}
	return nil
}

// publish authors, publishes and records one selected item. Failures stay in the item.
func (c *Coordinator) publish(ctx context.Context, s model.SelectedSource) model.ItemReport {
	key := s.Item.Key
	ctx = logger.WithLogFields(ctx, logger.LogFields{SourceKey: &key})

	sc := logger.StartSpan(ctx, "cycle.item", attribute.String("source_key", key))
	defer sc.End()
	ctx = sc.Context()

	item := model.ItemReport{
		Source:  s.Item,
		Reason:  s.Reason,
		BoardID: c.cfg.BoardFor(s.Item.Category),
	}

	analysis, err := c.editor.WriteAnalysis(ctx, s)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "analysis authoring failed", "error", err)
		item.Err = err
		return item
	}

	article, err := c.publisher.PublishArticle(ctx, item.BoardID, board.ArticleDraft{
		Title:   analysis.Title,
		Content: analysis.Content,
		Source:  analysis.Source,
	})
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "article publish failed", "board_id", item.BoardID, "error", err)
		item.Err = err
		return item
	}
	item.ArticleID = article.ID
	item.Title = article.Title
	sc.SetAttributes(attribute.Int64("article_id", article.ID))
	slog.InfoContext(ctx, "article published", "article_id", article.ID, "board_id", item.BoardID, "title", logger.Truncate(article.Title, 80))

	if err := c.ledger.Record(ctx, key, s.Item.Title); err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "ledger record failed after publish; item may be republished", "error", err)
		item.LedgerErr = err
	}
	return item
}
