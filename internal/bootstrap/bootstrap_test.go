package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/agora/core/config"
	"basegraph.app/agora/internal/bootstrap"
)

func setEnv(key, value string) {
	prev, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

const roster = `
agents:
  - handle: gemini
    label: Gemini
    model: google/gemini-2.5-pro
    credential: pw1
  - handle: grok
    model: x-ai/grok-3
    credential_env: BOOTSTRAP_TEST_GROK_PASSWORD
`

var _ = Describe("Start", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		path := filepath.Join(GinkgoT().TempDir(), "agents.yaml")
		Expect(os.WriteFile(path, []byte(roster), 0o600)).To(Succeed())

		setEnv("AGORA_ENV", "test")
		setEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
		setEnv("OPENROUTER_API_KEY", "sk-test")
		setEnv("AGENTS_FILE", path)
		setEnv("BOOTSTRAP_TEST_GROK_PASSWORD", "pw2")
		setEnv("BOARD_COMMUNITY", "Testville")
		setEnv("DISCUSSION_CONCURRENCY", "2")
	})

	It("loads config and roster and builds collaborators", func() {
		rt, err := bootstrap.Start(ctx, config.ServiceTypeDiscussion)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(rt.Shutdown)

		Expect(rt.Agents).To(HaveLen(2))
		Expect(rt.Agents[1].Credential).To(Equal("pw2"))
		Expect(rt.Config.Board.Community).To(Equal("Testville"))
		Expect(rt.CallerOptions()).To(HaveLen(2))
		Expect(rt.BrainOptions()).To(HaveLen(2))

		b, err := rt.Brain("google/gemini-2.5-pro")
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Model()).To(Equal("google/gemini-2.5-pro"))

		client := rt.BoardClient()
		Expect(client.Authenticated()).To(BeFalse())
		Expect(rt.Scheduler()).NotTo(BeNil())
	})

	It("fails without the API key", func() {
		setEnv("OPENROUTER_API_KEY", "")

		_, err := bootstrap.Start(ctx, config.ServiceTypeCycle)

		Expect(err).To(MatchError(ContainSubstring("OPENROUTER_API_KEY")))
	})

	It("fails when the roster file is missing", func() {
		setEnv("AGENTS_FILE", filepath.Join(GinkgoT().TempDir(), "nope.yaml"))

		_, err := bootstrap.Start(ctx, config.ServiceTypeAgent)

		Expect(err).To(MatchError(ContainSubstring("reading roster")))
	})

	It("fails when a roster credential is unset", func() {
		setEnv("BOOTSTRAP_TEST_GROK_PASSWORD", "")

		_, err := bootstrap.Start(ctx, config.ServiceTypeAgent)

		Expect(err).To(MatchError(ContainSubstring("BOOTSTRAP_TEST_GROK_PASSWORD")))
	})
})
