// Package agent runs single, operator-triggered actions as one roster
// identity: post an article, reply to one, summarize a board, attach a file.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"basegraph.app/agora/common/logger"
	"basegraph.app/agora/internal/board"
	"basegraph.app/agora/internal/brain"
	"basegraph.app/agora/internal/model"
)

// SummaryListLimit is how many recent articles SummarizeBoard reads.
const SummaryListLimit = 10

var ErrNothingToSummarize = errors.New("source board has no articles")

// Board is the subset of board.Client an agent acts through.
type Board interface {
	Authenticated() bool
	Authenticate(ctx context.Context, handle, credential string) (*model.Author, error)
	PublishArticle(ctx context.Context, boardID int64, draft board.ArticleDraft) (*model.Article, error)
	PublishReply(ctx context.Context, articleID int64, content string) (*model.Reply, error)
	AttachFile(ctx context.Context, articleID int64, path string) (*model.Attachment, error)
	FetchArticle(ctx context.Context, articleID int64) (*model.Article, error)
	ListArticles(ctx context.Context, boardID int64, limit int) ([]model.Article, error)
}

// Writer is the generation side of an agent.
type Writer interface {
	WriteArticle(ctx context.Context, topic, boardName string) (*brain.ArticleResult, error)
	WriteReply(ctx context.Context, articleContent, boardName string) (*brain.ReplyResult, error)
	SummarizeThread(ctx context.Context, articles []model.Article) (*brain.SummaryResult, error)
}

type Agent struct {
	identity model.AgentIdentity
	writer   Writer
	board    Board
}

func New(identity model.AgentIdentity, writer Writer, b Board) *Agent {
	return &Agent{identity: identity, writer: writer, board: b}
}

func (a *Agent) Identity() model.AgentIdentity {
	return a.identity
}

// PostArticle writes a post on topic and publishes it to boardID.
func (a *Agent) PostArticle(ctx context.Context, boardID int64, topic, boardName string) (*model.Article, error) {
	ctx = a.logContext(ctx)
	if err := a.login(ctx); err != nil {
		return nil, err
	}

	res, err := a.writer.WriteArticle(ctx, topic, boardName)
	if err != nil {
		return nil, err
	}
	article, err := a.board.PublishArticle(ctx, boardID, board.ArticleDraft{
		Title:   res.Title,
		Content: res.Content,
		Source:  res.Source,
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "article posted", "article_id", article.ID, "board_id", boardID, "title", logger.Truncate(article.Title, 80))
	return article, nil
}

// ReplyToArticle reads one article and comments on it.
func (a *Agent) ReplyToArticle(ctx context.Context, articleID int64, boardName string) (*model.Reply, error) {
	ctx = a.logContext(ctx)
	ctx = logger.WithLogFields(ctx, logger.LogFields{ArticleID: &articleID})
	if err := a.login(ctx); err != nil {
		return nil, err
	}

	article, err := a.board.FetchArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("fetching article %d: %w", articleID, err)
	}
	res, err := a.writer.WriteReply(ctx, article.Content, boardName)
	if err != nil {
		return nil, err
	}
	reply, err := a.board.PublishReply(ctx, articleID, res.Content)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "reply posted", "reply_id", reply.ID)
	return reply, nil
}

// SummarizeBoard condenses the newest articles of sourceBoardID into one
// summary post on targetBoardID.
func (a *Agent) SummarizeBoard(ctx context.Context, sourceBoardID, targetBoardID int64, boardName string) (*model.Article, error) {
	ctx = a.logContext(ctx)
	if err := a.login(ctx); err != nil {
		return nil, err
	}

	articles, err := a.board.ListArticles(ctx, sourceBoardID, SummaryListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing board %d: %w", sourceBoardID, err)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("%w: board %d", ErrNothingToSummarize, sourceBoardID)
	}

	res, err := a.writer.SummarizeThread(ctx, articles)
	if err != nil {
		return nil, err
	}
	article, err := a.board.PublishArticle(ctx, targetBoardID, board.ArticleDraft{
		Title:   res.Title,
		Content: res.Content,
		Source:  res.Source,
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "summary posted",
		"article_id", article.ID,
		"source_board_id", sourceBoardID,
		"target_board_id", targetBoardID,
		"articles_read", len(articles))
	return article, nil
}

func (a *Agent) Attach(ctx context.Context, articleID int64, path string) (*model.Attachment, error) {
	ctx = a.logContext(ctx)
	if err := a.login(ctx); err != nil {
		return nil, err
	}
	att, err := a.board.AttachFile(ctx, articleID, path)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "file attached", "article_id", articleID, "filename", att.Filename, "size", att.FileSize)
	return att, nil
}

func (a *Agent) login(ctx context.Context) error {
	if a.board.Authenticated() {
		return nil
	}
	_, err := a.board.Authenticate(ctx, a.identity.Handle, a.identity.Credential)
	return err
}

func (a *Agent) logContext(ctx context.Context) context.Context {
	handle := a.identity.Handle
	return logger.WithLogFields(ctx, logger.LogFields{Agent: &handle, Component: "agora.agent"})
}
