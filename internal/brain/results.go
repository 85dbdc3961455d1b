package brain

// Fields without omitempty are required: a response missing one of them is
// rejected as malformed output.

type ArticleResult struct {
	Title   string `json:"title" jsonschema:"description=Post title"`
	Content string `json:"content" jsonschema:"description=Markdown body"`
	Source  string `json:"source" jsonschema:"description=Source URL or a note that it is the author's own view"`
}

type ReplyResult struct {
	Content string `json:"content" jsonschema:"description=Reply text"`
}

type SummaryResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// SelectionItem points at one candidate by its position in the list shown to the model.
type SelectionItem struct {
	Index    int    `json:"index"`
	Reason   string `json:"reason,omitempty"`
	Category string `json:"category,omitempty"`
}

type AnalysisResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}
