// Package discussion runs an ordered panel of agents over one article. Each
// agent replies in turn and sees every reply published before it in the run.
package discussion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"basegraph.app/agora/common/id"
	"basegraph.app/agora/common/logger"
	"basegraph.app/agora/internal/brain"
	"basegraph.app/agora/internal/model"
)

// ArticleReader loads the seed article. Reads need no session.
type ArticleReader interface {
	FetchArticle(ctx context.Context, articleID int64) (*model.Article, error)
}

// Session is one agent's board identity for the length of a turn.
type Session interface {
	Authenticate(ctx context.Context, handle, credential string) (*model.Author, error)
	PublishReply(ctx context.Context, articleID int64, content string) (*model.Reply, error)
}

// SessionFactory returns a fresh, unauthenticated session. Sessions are never
// shared between agents or runs.
type SessionFactory func() Session

// ReplyWriter authors one discussion reply.
type ReplyWriter interface {
	WriteDiscussionReply(ctx context.Context, turn brain.DiscussionTurn) (*brain.ReplyResult, error)
}

// WriterFactory returns the writer backed by an agent's own model.
type WriterFactory func(agent model.AgentIdentity) (ReplyWriter, error)

type Scheduler struct {
	reader      ArticleReader
	sessions    SessionFactory
	writers     WriterFactory
	concurrency int
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Scheduler)

// WithConcurrency bounds how many articles RunForMany discusses at once. 1 is sequential.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

func NewScheduler(reader ArticleReader, sessions SessionFactory, writers WriterFactory, opts ...Option) *Scheduler {
	s := &Scheduler{
		reader:      reader,
		sessions:    sessions,
		writers:     writers,
		concurrency: 1,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run discusses one article. The returned slice has one TurnResult per agent,
// in roster order. An error means the article could not be loaded and no turn ran.
func (s *Scheduler) Run(ctx context.Context, articleID int64, agents []model.AgentIdentity, delay time.Duration) ([]model.TurnResult, error) {
	runID := id.New()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID:     &runID,
		ArticleID: &articleID,
		Component: "agora.discussion.scheduler",
	})

	sc := logger.StartSpan(ctx, "discussion.run",
		attribute.Int64("article_id", articleID),
		attribute.Int("agents", len(agents)))
	defer sc.End()
	ctx = sc.Context()

	article, err := s.reader.FetchArticle(ctx, articleID)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "discussion aborted: article not readable", "error", err)
		return nil, fmt.Errorf("fetching article %d: %w", articleID, err)
	}

	slog.InfoContext(ctx, "discussion started", "title", logger.Truncate(article.Title, 80), "agents", len(agents))

	var transcript []model.TranscriptEntry
	results := make([]model.TurnResult, 0, len(agents))

	for _, agent := range agents {
		if err := ctx.Err(); err != nil {
			results = append(results, model.TurnResult{
				Handle: agent.Handle,
				Label:  agent.DisplayLabel(),
				Stage:  model.TurnStageAuthenticate,
				Err:    err,
			})
			continue
		}

		// Copy so a writer holding on to the slice never sees later appends.
		seen := append([]model.TranscriptEntry(nil), transcript...)
		result := s.turn(ctx, *article, agent, seen)
		results = append(results, result)

		if !result.Succeeded() {
			continue
		}
		transcript = append(transcript, model.TranscriptEntry{Author: result.Label, Text: result.Content})

		if delay > 0 {
			if err := s.sleep(ctx, delay); err != nil {
				slog.WarnContext(ctx, "discussion pacing interrupted", "error", err)
			}
		}
	}

	failed := 0
	for _, r := range results {
		if !r.Succeeded() {
			failed++
		}
	}
	sc.SetAttributes(attribute.Int("failed_turns", failed))
	slog.InfoContext(ctx, "discussion finished", "turns", len(results), "failed", failed)

	return results, nil
}

func (s *Scheduler) turn(ctx context.Context, article model.Article, agent model.AgentIdentity, transcript []model.TranscriptEntry) model.TurnResult {
	handle := agent.Handle
	ctx = logger.WithLogFields(ctx, logger.LogFields{Agent: &handle})

	sc := logger.StartSpan(ctx, "discussion.turn",
		attribute.String("agent", handle),
		attribute.String("model", agent.Model),
		attribute.Int("transcript_len", len(transcript)))
	defer sc.End()
	ctx = sc.Context()

	result := model.TurnResult{Handle: handle, Label: agent.DisplayLabel()}
	fail := func(stage model.TurnStage, err error) model.TurnResult {
		sc.RecordError(err)
		slog.WarnContext(ctx, "agent turn failed", "stage", stage, "error", err)
		result.Stage = stage
		result.Err = err
		return result
	}

	session := s.sessions()
	if _, err := session.Authenticate(ctx, handle, agent.Credential); err != nil {
		return fail(model.TurnStageAuthenticate, err)
	}

	writer, err := s.writers(agent)
	if err != nil {
		return fail(model.TurnStageGenerate, err)
	}
	reply, err := writer.WriteDiscussionReply(ctx, brain.DiscussionTurn{
		Agent:      agent,
		Article:    article,
		Transcript: transcript,
	})
	if err != nil {
		return fail(model.TurnStageGenerate, err)
	}

	published, err := session.PublishReply(ctx, article.ID, reply.Content)
	if err != nil {
		return fail(model.TurnStagePublish, err)
	}

	result.Stage = model.TurnStageDone
	result.ReplyID = published.ID
	result.Content = reply.Content
	slog.InfoContext(ctx, "agent replied", "reply_id", published.ID, "chars", len([]rune(reply.Content)))
	return result
}

// RunForMany discusses each article independently. Results keep the order of
// articleIDs; a failed run is reported in its ArticleDiscussion and never
// stops the others.
func (s *Scheduler) RunForMany(ctx context.Context, articleIDs []int64, agents []model.AgentIdentity, delay time.Duration) []model.ArticleDiscussion {
	out := make([]model.ArticleDiscussion, len(articleIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, articleID := range articleIDs {
		g.Go(func() error {
			turns, err := s.Run(gctx, articleID, agents, delay)
			out[i] = model.ArticleDiscussion{ArticleID: articleID, Turns: turns, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
