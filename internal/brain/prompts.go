package brain

import (
	"fmt"
	"strings"

	"basegraph.app/agora/common/llm"
	"basegraph.app/agora/common/logger"
	"basegraph.app/agora/internal/model"
)

const (
	replyContextLimit   = 1500
	summaryArticleLimit = 5
	summaryContentLimit = 500
)

const jsonOnly = "Respond with JSON only, exactly in this shape, with no other text:\n"

func (b *Brain) articleRequest(topic, boardName string) llm.Request {
	system := fmt.Sprintf(
		"You are an active member of '%s', an online community where AI agents discuss technology, "+
			"economics and daily life. Write naturally in %s as a thoughtful community member.",
		b.community, b.language)

	var task strings.Builder
	fmt.Fprintf(&task, "Board: %s\nTopic: %s\n\n", boardName, topic)
	task.WriteString("Write a post on this topic. Rules:\n")
	fmt.Fprintf(&task, "- Write in %s\n", b.language)
	task.WriteString("- Use Markdown (## subheadings, **emphasis**)\n")
	task.WriteString("- 3 to 5 paragraphs\n")
	fmt.Fprintf(&task, "- Fit the tone of the %s board\n", boardName)
	task.WriteString("- Give the source URL if there is one, otherwise say it is your own view\n\n")
	task.WriteString(jsonOnly)
	task.WriteString(`{"title": "title", "content": "markdown body", "source": "source URL or own view"}`)

	return llm.Request{System: system, Task: task.String()}
}

func (b *Brain) replyRequest(articleContent, boardName string) llm.Request {
	system := fmt.Sprintf(
		"You are an active member of '%s', an online community. You read others' posts carefully "+
			"and respond with thoughtful comments in %s.",
		b.community, b.language)

	var task strings.Builder
	fmt.Fprintf(&task, "Board: %s\n\nRead the post below and write a comment:\n\n", boardName)
	fmt.Fprintf(&task, "---\n%s\n---\n\n", logger.Truncate(PlainText(articleContent), replyContextLimit))
	task.WriteString("Comment rules:\n")
	fmt.Fprintf(&task, "- Write in %s\n", b.language)
	task.WriteString("- React to the post's key point\n")
	task.WriteString("- Take one clear stance: agree, disagree or add to it\n")
	task.WriteString("- Back the opinion with reasons\n")
	task.WriteString("- 2 to 4 sentences\n\n")
	task.WriteString(jsonOnly)
	task.WriteString(`{"content": "comment text"}`)

	return llm.Request{System: system, Task: task.String()}
}

// discussionRequest renders the seed article and the whole transcript so far.
// Transcript entries are never truncated or dropped.
func (b *Brain) discussionRequest(turn DiscussionTurn) llm.Request {
	label := turn.Agent.DisplayLabel()

	var system strings.Builder
	fmt.Fprintf(&system, "You are %s, a member of '%s', an online community where AI agents debate the news. ",
		label, b.community)
	if turn.Agent.Personality != "" {
		fmt.Fprintf(&system, "Your personality: %s. ", turn.Agent.Personality)
	}
	fmt.Fprintf(&system, "Always write in %s.", b.language)

	var task strings.Builder
	fmt.Fprintf(&task, "Original post by %s\nTitle: %s\n\n%s\n\n", turn.Article.Author.Name(), turn.Article.Title, turn.Article.Content)

	if len(turn.Transcript) == 0 {
		task.WriteString("No one has commented yet. You are the first.\n\n")
	} else {
		task.WriteString("Comments so far, in order:\n")
		for i, entry := range turn.Transcript {
			fmt.Fprintf(&task, "%d. [%s] %s\n", i+1, entry.Author, entry.Text)
		}
		task.WriteString("\n")
	}

	task.WriteString("Write your comment. Rules:\n")
	fmt.Fprintf(&task, "- Write in %s, in your own voice as %s\n", b.language, label)
	if len(turn.Transcript) > 0 {
		task.WriteString("- Engage with the earlier comments: build on, challenge or refine them by name\n")
		task.WriteString("- Do not repeat points already made\n")
	}
	task.WriteString("- 2 to 5 sentences\n\n")
	task.WriteString(jsonOnly)
	task.WriteString(`{"content": "comment text"}`)

	return llm.Request{System: system.String(), Task: task.String()}
}

func (b *Brain) summaryRequest(articles []model.Article) llm.Request {
	system := fmt.Sprintf(
		"You are the summarizer of '%s', an online community. You read discussion threads and write "+
			"concise, insightful summaries in %s.",
		b.community, b.language)

	var thread strings.Builder
	for i, a := range articles {
		if i == summaryArticleLimit {
			break
		}
		fmt.Fprintf(&thread, "[%s] %s\n%s\n\n", a.Author.Name(), a.Title, logger.Truncate(PlainText(a.Content), summaryContentLimit))
	}

	var task strings.Builder
	fmt.Fprintf(&task, "Read the %s discussion below and write a summary post:\n\n", b.community)
	fmt.Fprintf(&task, "---\n%s---\n\n", thread.String())
	task.WriteString("Summary rules:\n")
	fmt.Fprintf(&task, "- Write in %s\n", b.language)
	task.WriteString("- Use Markdown\n")
	task.WriteString("- The title must start with [Summary]\n")
	task.WriteString("- Lay out the main arguments and conclusions in 3 to 5 paragraphs\n")
	task.WriteString("- source is always \"compiled from board discussion\"\n\n")
	task.WriteString(jsonOnly)
	task.WriteString(`{"title": "[Summary] title", "content": "markdown summary", "source": "compiled from board discussion"}`)

	return llm.Request{System: system, Task: task.String()}
}

func (b *Brain) selectionRequest(items []model.SourceItem, maxSelect int) llm.Request {
	system := fmt.Sprintf(
		"You are the editor-in-chief of '%s', an online community where AI agents discuss the news. "+
			"You pick the stories that will spark the most useful discussion.",
		b.community)

	var task strings.Builder
	task.WriteString("Today's headlines:\n")
	for i, item := range items {
		fmt.Fprintf(&task, "%d. [%s] %s", i, item.Category, item.Title)
		if item.Origin != "" {
			fmt.Fprintf(&task, " (%s)", item.Origin)
		}
		task.WriteString("\n")
	}
	task.WriteString("\n")
	fmt.Fprintf(&task, "Pick at most %d of the most important stories. Rules:\n", maxSelect)
	task.WriteString("- Prefer news with broad impact and room for debate\n")
	task.WriteString("- Skip duplicates of the same story\n")
	task.WriteString("- category is one of tech, economy, free; change it if the tag above is wrong\n")
	fmt.Fprintf(&task, "- Write reason in %s, one sentence\n\n", b.language)
	task.WriteString("Respond with a JSON array only, using the numbers above as index, with no other text:\n")
	task.WriteString(`[{"index": 0, "reason": "why it matters", "category": "tech"}]`)

	return llm.Request{System: system, Task: task.String()}
}

func (b *Brain) analysisRequest(selected model.SelectedSource) llm.Request {
	item := selected.Item
	system := fmt.Sprintf(
		"You are the editor-in-chief of '%s'. You write sharp analysis posts that open a discussion "+
			"among the community's AI members. Write in %s.",
		b.community, b.language)

	var task strings.Builder
	fmt.Fprintf(&task, "Headline: %s\nCategory: %s\nLink: %s\n", item.Title, item.Category, item.Key)
	if item.Origin != "" {
		fmt.Fprintf(&task, "Outlet: %s\n", item.Origin)
	}
	if selected.Reason != "" {
		fmt.Fprintf(&task, "Why it was picked: %s\n", selected.Reason)
	}
	task.WriteString("\nWrite an analysis post about this news. Rules:\n")
	fmt.Fprintf(&task, "- Write in %s, using Markdown\n", b.language)
	task.WriteString("- Explain what happened, why it matters and what could come next\n")
	task.WriteString("- End with one open question for the community\n")
	task.WriteString("- 3 to 5 paragraphs\n\n")
	task.WriteString(jsonOnly)
	task.WriteString(`{"title": "title", "content": "markdown body", "source": "news link"}`)

	return llm.Request{System: system, Task: task.String()}
}
