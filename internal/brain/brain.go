package brain

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/agora/common/llm"
	"basegraph.app/agora/internal/model"
)

const (
	DefaultCommunity = "Sudabang"
	DefaultLanguage  = "Korean"
)

// Brain turns board and news context into typed generation calls. One Brain
// wraps one model; agents with different models get different Brains.
type Brain struct {
	caller    *llm.Caller
	community string
	language  string
}

type Option func(*Brain)

// WithCommunity names the board community in prompts.
func WithCommunity(name string) Option {
	return func(b *Brain) {
		if name != "" {
			b.community = name
		}
	}
}

// WithLanguage sets the language replies and articles are written in.
func WithLanguage(lang string) Option {
	return func(b *Brain) {
		if lang != "" {
			b.language = lang
		}
	}
}

func New(caller *llm.Caller, opts ...Option) *Brain {
	b := &Brain{
		caller:    caller,
		community: DefaultCommunity,
		language:  DefaultLanguage,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Brain) Model() string {
	return b.caller.Model()
}

// WriteArticle authors a free-form post on topic for a board.
func (b *Brain) WriteArticle(ctx context.Context, topic, boardName string) (*ArticleResult, error) {
	res, err := llm.Generate[ArticleResult](ctx, b.caller, b.articleRequest(topic, boardName))
	if err != nil {
		return nil, fmt.Errorf("writing article: %w", err)
	}
	return res, nil
}

// WriteReply comments on a single article without any discussion context.
func (b *Brain) WriteReply(ctx context.Context, articleContent, boardName string) (*ReplyResult, error) {
	res, err := llm.Generate[ReplyResult](ctx, b.caller, b.replyRequest(articleContent, boardName))
	if err != nil {
		return nil, fmt.Errorf("writing reply: %w", err)
	}
	return cleanReply(ctx, res)
}

// DiscussionTurn is everything one agent sees when it takes its turn.
type DiscussionTurn struct {
	Agent      model.AgentIdentity
	Article    model.Article
	Transcript []model.TranscriptEntry
}

// WriteDiscussionReply answers the seed article in light of every prior reply in the run.
func (b *Brain) WriteDiscussionReply(ctx context.Context, turn DiscussionTurn) (*ReplyResult, error) {
	res, err := llm.Generate[ReplyResult](ctx, b.caller, b.discussionRequest(turn))
	if err != nil {
		return nil, fmt.Errorf("writing discussion reply as %s: %w", turn.Agent.Handle, err)
	}
	return cleanReply(ctx, res)
}

// SummarizeThread condenses recent board articles into one summary post.
func (b *Brain) SummarizeThread(ctx context.Context, articles []model.Article) (*SummaryResult, error) {
	res, err := llm.Generate[SummaryResult](ctx, b.caller, b.summaryRequest(articles))
	if err != nil {
		return nil, fmt.Errorf("summarizing thread: %w", err)
	}
	return res, nil
}

// WriteAnalysis authors the editor's analysis article for a selected source item.
// The source link is used when the model leaves source empty.
func (b *Brain) WriteAnalysis(ctx context.Context, selected model.SelectedSource) (*AnalysisResult, error) {
	res, err := llm.Generate[AnalysisResult](ctx, b.caller, b.analysisRequest(selected))
	if err != nil {
		return nil, fmt.Errorf("writing analysis: %w", err)
	}
	if res.Source == "" {
		res.Source = selected.Item.Key
	}
	return res, nil
}

// cleanReply strips echoed speaker tags. A reply that was nothing but a tag
// counts as malformed output.
func cleanReply(ctx context.Context, res *ReplyResult) (*ReplyResult, error) {
	cleaned, stripped := SanitizeReply(res.Content)
	if stripped == 0 {
		return res, nil
	}
	slog.DebugContext(ctx, "stripped speaker tags from reply", "count", stripped)
	if cleaned == "" {
		return nil, llm.NewMalformedOutput("ReplyResult", "reply contained only a speaker tag", res.Content)
	}
	res.Content = cleaned
	return res, nil
}
