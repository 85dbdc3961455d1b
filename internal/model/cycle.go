package model

import "time"

type ItemStatus string

const (
	ItemStatusSucceeded ItemStatus = "succeeded"
	ItemStatusPartial   ItemStatus = "partial"
	ItemStatusFailed    ItemStatus = "failed"
)

// ItemReport follows one selected source item through author, publish,
// record and discuss.
type ItemReport struct {
	Source     SourceItem
	Reason     string
	BoardID    int64
	ArticleID  int64
	Title      string
	Err        error // authoring or publishing failed; nothing was recorded
	LedgerErr  error // published but the ledger write failed
	Discussion *ArticleDiscussion
}

func (r ItemReport) Published() bool {
	return r.ArticleID != 0
}

func (r ItemReport) Status() ItemStatus {
	if !r.Published() {
		return ItemStatusFailed
	}
	if r.LedgerErr != nil || r.Discussion == nil || r.Discussion.Err != nil || r.Discussion.Failed() > 0 {
		return ItemStatusPartial
	}
	return ItemStatusSucceeded
}

type CycleReport struct {
	CycleID         int64
	StartedAt       time.Time
	FinishedAt      time.Time
	Pruned          int64
	Fetched         int
	AlreadyRecorded int
	Fresh           int
	Selected        int
	Published       int
	Discussed       int
	Items           []ItemReport
}

// Count returns how many items ended in the given status.
func (r CycleReport) Count(status ItemStatus) int {
	n := 0
	for _, item := range r.Items {
		if item.Status() == status {
			n++
		}
	}
	return n
}
