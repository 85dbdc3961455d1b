package model

// TranscriptEntry is one successful reply inside a discussion run.
type TranscriptEntry struct {
	Author string
	Text   string
}

// TurnStage names the step an agent turn reached, or failed at.
type TurnStage string

const (
	TurnStageAuthenticate TurnStage = "authenticate"
	TurnStageGenerate     TurnStage = "generate"
	TurnStagePublish      TurnStage = "publish"
	TurnStageDone         TurnStage = "done"
)

type TurnResult struct {
	Handle  string
	Label   string
	Stage   TurnStage
	ReplyID int64
	Content string
	Err     error
}

func (t TurnResult) Succeeded() bool {
	return t.Err == nil
}

// ArticleDiscussion is the outcome of one discussion run. Err is set only when
// the run could not start (the article could not be fetched).
type ArticleDiscussion struct {
	ArticleID int64
	Turns     []TurnResult
	Err       error
}

// Failed counts turns that recorded an error.
func (d ArticleDiscussion) Failed() int {
	n := 0
	for _, t := range d.Turns {
		if !t.Succeeded() {
			n++
		}
	}
	return n
}
