package agent_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/agora/common/llm"
	"basegraph.app/agora/internal/agent"
	"basegraph.app/agora/internal/board"
	"basegraph.app/agora/internal/brain"
	"basegraph.app/agora/internal/model"
)

var _ = Describe("Agent", func() {
	var (
		ctx       context.Context
		llmMock   *mockLLM
		boardMock *mockBoard
		a         *agent.Agent
	)

	BeforeEach(func() {
		ctx = context.Background()
		llmMock = &mockLLM{}
		boardMock = &mockBoard{}
		identity := model.AgentIdentity{Handle: "gemini", Credential: "pw", Model: "google/gemini-2.5-pro"}
		a = agent.New(identity, brain.New(llm.NewCaller(llmMock, llm.WithBaseDelay(0))), boardMock)
	})

	Describe("PostArticle", func() {
		It("logs in, writes and publishes", func() {
			var gotBoard int64
			var gotDraft board.ArticleDraft
			boardMock.publishArticleFn = func(_ context.Context, boardID int64, draft board.ArticleDraft) (*model.Article, error) {
				gotBoard, gotDraft = boardID, draft
				return &model.Article{ID: 42, BoardID: boardID, Title: draft.Title}, nil
			}
			llmMock.responses = []string{`{"title": "Chips", "content": "## Body", "source": "own view"}`}

			article, err := a.PostArticle(ctx, 1, "AI chips", "tech")

			Expect(err).NotTo(HaveOccurred())
			Expect(article.ID).To(Equal(int64(42)))
			Expect(gotBoard).To(Equal(int64(1)))
			Expect(gotDraft).To(Equal(board.ArticleDraft{Title: "Chips", Content: "## Body", Source: "own view"}))
			Expect(boardMock.authCalls).To(Equal(1))
			Expect(llmMock.requests[0].Task).To(ContainSubstring("Topic: AI chips"))
		})

		It("reuses an existing session", func() {
			boardMock.token = "already"
			llmMock.responses = []string{`{"title": "T", "content": "C", "source": "S"}`}

			_, err := a.PostArticle(ctx, 1, "topic", "tech")

			Expect(err).NotTo(HaveOccurred())
			Expect(boardMock.authCalls).To(BeZero())
		})

		It("stops before generating when login fails", func() {
			boardMock.authenticateFn = func(context.Context, string, string) (*model.Author, error) {
				return nil, fmt.Errorf("%w: gemini", board.ErrAuthenticationFailed)
			}

			_, err := a.PostArticle(ctx, 1, "topic", "tech")

			Expect(err).To(MatchError(board.ErrAuthenticationFailed))
			Expect(llmMock.requests).To(BeEmpty())
		})
	})

	Describe("ReplyToArticle", func() {
		It("replies to the fetched article content", func() {
			boardMock.fetchArticleFn = func(_ context.Context, id int64) (*model.Article, error) {
				return &model.Article{ID: id, Content: "Rates were cut by 25bp."}, nil
			}
			var gotArticle int64
			var gotContent string
			boardMock.publishReplyFn = func(_ context.Context, articleID int64, content string) (*model.Reply, error) {
				gotArticle, gotContent = articleID, content
				return &model.Reply{ID: 9, PostID: articleID, Content: content}, nil
			}
			llmMock.responses = []string{`{"content": "Good for borrowers."}`}

			reply, err := a.ReplyToArticle(ctx, 16, "economy")

			Expect(err).NotTo(HaveOccurred())
			Expect(reply.ID).To(Equal(int64(9)))
			Expect(gotArticle).To(Equal(int64(16)))
			Expect(gotContent).To(Equal("Good for borrowers."))
			Expect(llmMock.requests[0].Task).To(ContainSubstring("Rates were cut by 25bp."))
		})

		It("surfaces a missing article", func() {
			boardMock.fetchArticleFn = func(context.Context, int64) (*model.Article, error) {
				return nil, &board.RequestError{Action: "fetch article", Status: 404, Detail: "Post not found"}
			}

			_, err := a.ReplyToArticle(ctx, 99, "free")

			Expect(err).To(MatchError(board.ErrRequestFailed))
			Expect(board.IsStatus(err, 404)).To(BeTrue())
			Expect(llmMock.requests).To(BeEmpty())
		})
	})

	Describe("SummarizeBoard", func() {
		It("summarizes the source board onto the target board", func() {
			var listedBoard int64
			var listedLimit int
			boardMock.listArticlesFn = func(_ context.Context, boardID int64, limit int) ([]model.Article, error) {
				listedBoard, listedLimit = boardID, limit
				return []model.Article{
					{ID: 1, Title: "first", Content: "one"},
					{ID: 2, Title: "second", Content: "two"},
				}, nil
			}
			var targetBoard int64
			boardMock.publishArticleFn = func(_ context.Context, boardID int64, draft board.ArticleDraft) (*model.Article, error) {
				targetBoard = boardID
				return &model.Article{ID: 77, BoardID: boardID, Title: draft.Title}, nil
			}
			llmMock.responses = []string{`{"title": "[Summary] week", "content": "both", "source": "compiled from board discussion"}`}

			article, err := a.SummarizeBoard(ctx, 1, 3, "free")

			Expect(err).NotTo(HaveOccurred())
			Expect(article.Title).To(Equal("[Summary] week"))
			Expect(listedBoard).To(Equal(int64(1)))
			Expect(listedLimit).To(Equal(agent.SummaryListLimit))
			Expect(targetBoard).To(Equal(int64(3)))
			Expect(llmMock.requests[0].Task).To(ContainSubstring("first"))
			Expect(llmMock.requests[0].Task).To(ContainSubstring("second"))
		})

		It("refuses to summarize an empty board", func() {
			_, err := a.SummarizeBoard(ctx, 1, 3, "free")

			Expect(err).To(MatchError(agent.ErrNothingToSummarize))
			Expect(llmMock.requests).To(BeEmpty())
		})
	})

	Describe("Attach", func() {
		It("uploads through an authenticated session", func() {
			var gotPath string
			boardMock.attachFileFn = func(_ context.Context, articleID int64, path string) (*model.Attachment, error) {
				gotPath = path
				return &model.Attachment{ID: 5, PostID: articleID, Filename: "chart.png", FileSize: 12}, nil
			}

			att, err := a.Attach(ctx, 16, "/tmp/chart.png")

			Expect(err).NotTo(HaveOccurred())
			Expect(att.Filename).To(Equal("chart.png"))
			Expect(gotPath).To(Equal("/tmp/chart.png"))
			Expect(boardMock.authCalls).To(Equal(1))
		})
	})
})
