package brain

import (
	"context"
	"fmt"
	"strings"

	"basegraph.app/agora/common/llm"
	"basegraph.app/agora/internal/model"
)

const DefaultMaxSelect = 2

// SelectSources asks the model which candidates are worth covering. Indices
// refer to items; an index outside it fails the whole call as malformed
// output. Repeated indices collapse and the result never exceeds maxSelect.
// The model may re-tag an item's category.
func (b *Brain) SelectSources(ctx context.Context, items []model.SourceItem, maxSelect int) ([]model.SelectedSource, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if maxSelect <= 0 {
		maxSelect = DefaultMaxSelect
	}

	text, err := b.caller.Complete(ctx, b.selectionRequest(items, maxSelect))
	if err != nil {
		return nil, fmt.Errorf("selecting sources: %w", err)
	}
	picks, err := llm.DecodeList[SelectionItem](text)
	if err != nil {
		return nil, fmt.Errorf("selecting sources: %w", err)
	}

	seen := make(map[int]bool, len(picks))
	selected := make([]model.SelectedSource, 0, min(len(picks), maxSelect))
	for _, pick := range picks {
		if pick.Index < 0 || pick.Index >= len(items) {
			return nil, fmt.Errorf("selecting sources: %w", llm.NewMalformedOutput(
				"SelectionItem",
				fmt.Sprintf("index %d out of range for %d candidates", pick.Index, len(items)),
				text,
			))
		}
		if seen[pick.Index] || len(selected) == maxSelect {
			continue
		}
		seen[pick.Index] = true

		item := items[pick.Index]
		if category := strings.ToLower(strings.TrimSpace(pick.Category)); category != "" {
			item.Category = category
		}
		selected = append(selected, model.SelectedSource{Item: item, Reason: pick.Reason})
	}
	return selected, nil
}
