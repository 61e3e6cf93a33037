package content

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/notiondigest/internal/interfaces"
)

// DefaultPageSize is the number of children requested per fetch.
const DefaultPageSize = 100

// Aggregator walks a page body depth-first, pre-order, and collects one line
// per text-bearing block.
type Aggregator struct {
	store    interfaces.DocumentStore
	pageSize int
	logger   arbor.ILogger
}

// NewAggregator creates a new tree aggregator
func NewAggregator(store interfaces.DocumentStore, pageSize int, logger arbor.ILogger) *Aggregator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Aggregator{
		store:    store,
		pageSize: pageSize,
		logger:   logger,
	}
}

// frame is one container being drained: its id, the cursor of its next page,
// and the blocks of the current page that have not been visited yet.
type frame struct {
	containerID string
	cursor      string
	pending     []*blockRef
	exhausted   bool
}

type blockRef struct {
	id          string
	hasChildren bool
	lines       []string
}

// Aggregate returns the text lines of the tree rooted at rootID in traversal order.
//
// A block's own text is emitted before its children, and a child subtree is fully
// drained before the next sibling. Each level keeps its own cursor, so descending
// never disturbs the parent's pagination. A failed fetch ends only the container
// it belongs to; lines gathered so far are kept.
func (a *Aggregator) Aggregate(ctx context.Context, rootID string) []string {
	var lines []string
	stack := []*frame{{containerID: rootID}}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			a.logger.Warn().
				Err(ctx.Err()).
				Str("root_id", rootID).
				Msg("Block traversal cancelled")
			return lines
		}

		top := stack[len(stack)-1]

		if len(top.pending) == 0 {
			if top.exhausted {
				stack = stack[:len(stack)-1]
				continue
			}
			if !a.fetchNext(ctx, top) {
				stack = stack[:len(stack)-1]
			}
			continue
		}

		block := top.pending[0]
		top.pending = top.pending[1:]

		lines = append(lines, block.lines...)
		if block.hasChildren {
			stack = append(stack, &frame{containerID: block.id})
		}
	}

	return lines
}

// fetchNext loads the next page of the frame's container.
// Returns false when the fetch failed and the container must be abandoned.
func (a *Aggregator) fetchNext(ctx context.Context, f *frame) bool {
	list, err := a.store.ListBlockChildren(ctx, f.containerID, a.pageSize, f.cursor)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("block_id", f.containerID).
			Msg("Failed to fetch block children, keeping partial text")
		return false
	}

	f.pending = f.pending[:0]
	for _, block := range list.Results {
		if block == nil {
			continue
		}
		f.pending = append(f.pending, &blockRef{
			id:          block.ID,
			hasChildren: block.HasChildren,
			lines:       ExtractBlockText(block),
		})
	}

	next := list.Cursor()
	if list.HasMore && next != "" {
		f.cursor = next
	} else {
		f.exhausted = true
	}
	return true
}

// JoinLines joins aggregated lines into the body text sent for summarisation
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
