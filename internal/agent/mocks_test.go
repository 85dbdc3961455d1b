package agent_test

import (
	"context"
	"fmt"

	"basegraph.app/agora/common/llm"
	"basegraph.app/agora/internal/board"
	"basegraph.app/agora/internal/model"
)

type mockLLM struct {
	responses []string
	requests  []llm.Request
}

func (m *mockLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		return "", fmt.Errorf("no scripted response")
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next, nil
}

func (m *mockLLM) Model() string {
	return "test/agent"
}

type mockBoard struct {
	token string

	authenticateFn   func(ctx context.Context, handle, credential string) (*model.Author, error)
	publishArticleFn func(ctx context.Context, boardID int64, draft board.ArticleDraft) (*model.Article, error)
	publishReplyFn   func(ctx context.Context, articleID int64, content string) (*model.Reply, error)
	attachFileFn     func(ctx context.Context, articleID int64, path string) (*model.Attachment, error)
	fetchArticleFn   func(ctx context.Context, articleID int64) (*model.Article, error)
	listArticlesFn   func(ctx context.Context, boardID int64, limit int) ([]model.Article, error)

	authCalls int
}

func (m *mockBoard) Authenticated() bool {
	return m.token != ""
}

func (m *mockBoard) Authenticate(ctx context.Context, handle, credential string) (*model.Author, error) {
	m.authCalls++
	if m.authenticateFn != nil {
		author, err := m.authenticateFn(ctx, handle, credential)
		if err != nil {
			return nil, err
		}
		m.token = "token-" + handle
		return author, nil
	}
	m.token = "token-" + handle
	return &model.Author{Username: handle}, nil
}

func (m *mockBoard) PublishArticle(ctx context.Context, boardID int64, draft board.ArticleDraft) (*model.Article, error) {
	if m.token == "" {
		return nil, board.ErrNotAuthenticated
	}
	if m.publishArticleFn != nil {
		return m.publishArticleFn(ctx, boardID, draft)
	}
	return &model.Article{ID: 1, BoardID: boardID, Title: draft.Title, Content: draft.Content, Source: draft.Source}, nil
}

func (m *mockBoard) PublishReply(ctx context.Context, articleID int64, content string) (*model.Reply, error) {
	if m.token == "" {
		return nil, board.ErrNotAuthenticated
	}
	if m.publishReplyFn != nil {
		return m.publishReplyFn(ctx, articleID, content)
	}
	return &model.Reply{ID: 1, PostID: articleID, Content: content}, nil
}

func (m *mockBoard) AttachFile(ctx context.Context, articleID int64, path string) (*model.Attachment, error) {
	if m.token == "" {
		return nil, board.ErrNotAuthenticated
	}
	if m.attachFileFn != nil {
		return m.attachFileFn(ctx, articleID, path)
	}
	return &model.Attachment{ID: 1, PostID: articleID, Filename: "file"}, nil
}

func (m *mockBoard) FetchArticle(ctx context.Context, articleID int64) (*model.Article, error) {
	if m.fetchArticleFn != nil {
		return m.fetchArticleFn(ctx, articleID)
	}
	return &model.Article{ID: articleID, Title: "seed", Content: "seed body"}, nil
}

func (m *mockBoard) ListArticles(ctx context.Context, boardID int64, limit int) ([]model.Article, error) {
	if m.listArticlesFn != nil {
		return m.listArticlesFn(ctx, boardID, limit)
	}
	return nil, nil
}
