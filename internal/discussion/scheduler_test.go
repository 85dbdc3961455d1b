package discussion_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/agora/internal/board"
	"basegraph.app/agora/internal/discussion"
	"basegraph.app/agora/internal/model"
)

var _ = Describe("Scheduler", func() {
	var (
		ctx     context.Context
		reader  *mockReader
		boardMk *mockBoard
		writers *mockWriters
		slept   []time.Duration
		sched   *discussion.Scheduler
	)

	BeforeEach(func() {
		ctx = context.Background()
		reader = &mockReader{}
		boardMk = newMockBoard()
		writers = newMockWriters()
		slept = nil
		sched = discussion.NewScheduler(reader, boardMk.factory(), writers.factory(),
			discussion.WithSleep(func(_ context.Context, d time.Duration) error {
				slept = append(slept, d)
				return nil
			}),
		)
	})

	Describe("Run", func() {
		It("threads a growing transcript through every turn", func() {
			results, err := sched.Run(ctx, 16, roster("gemini", "gpt", "grok"), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			for _, r := range results {
				Expect(r.Succeeded()).To(BeTrue())
				Expect(r.Stage).To(Equal(model.TurnStageDone))
				Expect(r.ReplyID).NotTo(BeZero())
			}

			Expect(writers.turnsFor("gemini")[0].Transcript).To(BeEmpty())
			Expect(writers.turnsFor("gpt")[0].Transcript).To(Equal([]model.TranscriptEntry{
				{Author: "L-gemini", Text: "gemini on 16"},
			}))
			Expect(writers.turnsFor("grok")[0].Transcript).To(Equal([]model.TranscriptEntry{
				{Author: "L-gemini", Text: "gemini on 16"},
				{Author: "L-gpt", Text: "gpt on 16"},
			}))
			Expect(writers.turnsFor("grok")[0].Article.Title).To(Equal("article 16"))
		})

		It("publishes each reply from the agent's own session", func() {
			_, err := sched.Run(ctx, 16, roster("gemini", "gpt"), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(boardMk.sessions).To(Equal(2))
			Expect(boardMk.published).To(Equal([]publishedReply{
				{Handle: "gemini", ArticleID: 16, Content: "gemini on 16"},
				{Handle: "gpt", ArticleID: 16, Content: "gpt on 16"},
			}))
		})

		It("isolates a failed generation to its own turn", func() {
			writers.failFor["gpt"] = errGeneration

			results, err := sched.Run(ctx, 16, roster("gemini", "gpt", "grok"), time.Second)

			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].Succeeded()).To(BeTrue())
			Expect(results[1].Err).To(MatchError(errGeneration))
			Expect(results[1].Stage).To(Equal(model.TurnStageGenerate))
			Expect(results[2].Succeeded()).To(BeTrue())

			Expect(writers.turnsFor("grok")[0].Transcript).To(Equal([]model.TranscriptEntry{
				{Author: "L-gemini", Text: "gemini on 16"},
			}))
			Expect(slept).To(Equal([]time.Duration{time.Second, time.Second}))
		})

		It("records an authentication failure without generating", func() {
			boardMk.badLogins["gpt"] = true

			results, err := sched.Run(ctx, 16, roster("gemini", "gpt", "grok"), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[1].Stage).To(Equal(model.TurnStageAuthenticate))
			Expect(results[1].Err).To(MatchError(board.ErrAuthenticationFailed))
			Expect(writers.turnsFor("gpt")).To(BeEmpty())
			Expect(writers.turnsFor("grok")[0].Transcript).To(HaveLen(1))
		})

		It("keeps an unpublished reply out of the transcript", func() {
			boardMk.badPublish["gemini"] = true

			results, err := sched.Run(ctx, 16, roster("gemini", "gpt"), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Stage).To(Equal(model.TurnStagePublish))
			Expect(results[0].Err).To(MatchError(board.ErrRequestFailed))
			Expect(writers.turnsFor("gpt")[0].Transcript).To(BeEmpty())
		})

		It("treats a writer that cannot be built as a generation failure", func() {
			writers.factoryFn = func(agent model.AgentIdentity) error {
				if agent.Handle == "gemini" {
					return errors.New("unknown model")
				}
				return nil
			}

			results, err := sched.Run(ctx, 16, roster("gemini", "gpt"), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Stage).To(Equal(model.TurnStageGenerate))
			Expect(results[1].Succeeded()).To(BeTrue())
		})

		It("does not pace when the delay is zero", func() {
			_, err := sched.Run(ctx, 16, roster("gemini", "gpt"), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(slept).To(BeEmpty())
		})

		It("returns an error and no turns when the article cannot be read", func() {
			reader.fetchFn = func(_ context.Context, _ int64) (*model.Article, error) {
				return nil, &board.RequestError{Action: "fetch article", Status: 404, Detail: "Post not found"}
			}

			results, err := sched.Run(ctx, 99, roster("gemini"), 0)

			Expect(err).To(MatchError(board.ErrRequestFailed))
			Expect(results).To(BeEmpty())
			Expect(boardMk.sessions).To(BeZero())
		})

		It("marks remaining turns cancelled once the context is done", func() {
			cctx, cancel := context.WithCancel(ctx)
			writers.factoryFn = func(agent model.AgentIdentity) error {
				if agent.Handle == "gemini" {
					cancel()
				}
				return nil
			}

			results, err := sched.Run(cctx, 16, roster("gemini", "gpt"), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[1].Err).To(MatchError(context.Canceled))
			Expect(writers.turnsFor("gpt")).To(BeEmpty())
		})
	})

	Describe("RunForMany", func() {
		It("runs each article independently and keeps input order", func() {
			reader.fetchFn = func(_ context.Context, articleID int64) (*model.Article, error) {
				if articleID == 17 {
					return nil, errors.New("gone")
				}
				return &model.Article{ID: articleID, Title: "t"}, nil
			}

			out := sched.RunForMany(ctx, []int64{16, 17, 18}, roster("gemini", "gpt"), 0)

			Expect(out).To(HaveLen(3))
			Expect(out[0].ArticleID).To(Equal(int64(16)))
			Expect(out[0].Turns).To(HaveLen(2))
			Expect(out[1].ArticleID).To(Equal(int64(17)))
			Expect(out[1].Err).To(HaveOccurred())
			Expect(out[2].ArticleID).To(Equal(int64(18)))
			Expect(out[2].Failed()).To(BeZero())

			for _, turn := range writers.turnsFor("gemini") {
				Expect(turn.Transcript).To(BeEmpty())
			}
			gptTurns := writers.turnsFor("gpt")
			Expect(gptTurns).To(HaveLen(2))
			Expect(gptTurns[1].Transcript).To(Equal([]model.TranscriptEntry{{Author: "L-gemini", Text: "gemini on 18"}}))
		})

		It("can discuss articles in parallel", func() {
			parallel := discussion.NewScheduler(reader, boardMk.factory(), writers.factory(), discussion.WithConcurrency(3))

			out := parallel.RunForMany(ctx, []int64{1, 2, 3, 4}, roster("gemini", "gpt"), 0)

			Expect(out).To(HaveLen(4))
			for i, d := range out {
				Expect(d.ArticleID).To(Equal(int64(i + 1)))
				Expect(d.Err).NotTo(HaveOccurred())
				Expect(d.Failed()).To(BeZero())
				Expect(d.Turns[1].Content).To(Equal(fmt.Sprintf("gpt on %d", i+1)))
			}
			Expect(boardMk.published).To(HaveLen(8))
		})
	})
})
