package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nidoapp/nido/internal/change"
	"github.com/nidoapp/nido/internal/dateutil"
	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

const systemPrompt = `You are a scheduling assistant for a shared-custody calendar.
Two guardians (parent_a, parent_b) and optionally a nanny cover the child's day
in 15-minute blocks. You translate the user's request into a batch of discrete
schedule changes for a human to review. You never apply changes yourself.

Context:
- Today: %s (%s)
- Care window (scheduling allowed): %s to %s
- Providers: parent_a, parent_b, nanny

Current schedule (block_id date start-end provider):
%s

User request: "%s"

Rules:
- Return JSON only (no markdown).
- Times use 24-hour HH:MM on 15-minute boundaries; dates use YYYY-MM-DD.
- Every change must stay inside the care window.
- "kind" is one of: retime, swap, add, remove, reassign.
- retime: set "block_id" plus any of "date", "start", "end" to change.
- reassign: set "block_id" and the new "provider".
- swap: set "block_id" and "second_block_id"; the two blocks exchange providers.
- add: set "date", "start", "end", "provider" and optionally "note".
- remove: set "block_id" only.
- Reference block_id values exactly as listed above.
- "summary" is one sentence describing the whole batch.
- Each change carries a short "description" and a "reason" for the human reviewer.

JSON schema:
{
  "summary": "string",
  "changes": [
    {
      "kind": "retime" | "swap" | "add" | "remove" | "reassign",
      "block_id": "string",
      "second_block_id": "string",
      "date": "YYYY-MM-DD",
      "start": "HH:MM",
      "end": "HH:MM",
      "provider": "parent_a" | "parent_b" | "nanny",
      "note": "string",
      "description": "string",
      "reason": "string"
    }
  ],
  "warnings": ["string"]
}`

// ProposeRequest contains the input for the proposer.
type ProposeRequest struct {
	Instruction string
	Today       time.Time
	Window      slotclock.Window
	Blocks      []*schedule.TimeBlock // current schedule for context and id resolution
}

// proposeResponse is the wire format returned by the model.
type proposeResponse struct {
	Summary  string       `json:"summary"`
	Changes  []wireChange `json:"changes"`
	Warnings []string     `json:"warnings"`
}

type wireChange struct {
	Kind          string `json:"kind"`
	BlockID       string `json:"block_id"`
	SecondBlockID string `json:"second_block_id"`
	Date          string `json:"date"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Provider      string `json:"provider"`
	Note          string `json:"note"`
	Description   string `json:"description"`
	Reason        string `json:"reason"`
}

// Proposal is the outcome of a propose call: the batch for review plus
// any warnings the model surfaced.
type Proposal struct {
	Batch    change.Batch
	Warnings []string
}

// Proposer asks an LLM to turn an instruction into a change batch.
type Proposer struct {
	client Client
}

// NewProposer creates a Proposer with the given LLM client.
func NewProposer(client Client) *Proposer {
	return &Proposer{client: client}
}

// Propose converts a natural-language instruction into a change batch.
func (p *Proposer) Propose(ctx context.Context, req ProposeRequest) (*Proposal, error) {
	messages := p.buildInitialMessages(req)
	return p.proposeWithMessages(ctx, req, messages)
}

// ProposeWithRetry proposes and, when the response fails validation or
// references unknown blocks, feeds the errors back to the model up to
// maxRetries times.
func (p *Proposer) ProposeWithRetry(ctx context.Context, req ProposeRequest, maxRetries int) (*Proposal, error) {
	messages := p.buildInitialMessages(req)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		proposal, err := p.proposeWithMessages(ctx, req, messages)
		if err == nil {
			if errs := proposal.Batch.Validate(); len(errs) > 0 {
				lastErr = fmt.Errorf("%d invalid changes in response", len(errs))
				messages = append(messages,
					Message{Role: "user", Content: change.FormatValidationErrors(errs)},
				)
				continue
			}
			return proposal, nil
		}
		lastErr = err
		messages = append(messages, Message{
			Role:    "user",
			Content: fmt.Sprintf("Your response could not be used: %v.\nPlease respond again with valid JSON.", err),
		})
	}
	return nil, fmt.Errorf("no valid proposal after %d retries: %w", maxRetries, lastErr)
}

func (p *Proposer) buildInitialMessages(req ProposeRequest) []Message {
	prompt := fmt.Sprintf(systemPrompt,
		req.Today.Format("2006-01-02"),
		req.Today.Format("Monday"),
		slotclock.Format(req.Window.Start),
		slotclock.Format(req.Window.End),
		formatBlocks(req.Blocks),
		req.Instruction,
	)
	return []Message{{Role: "system", Content: prompt}}
}

func (p *Proposer) proposeWithMessages(ctx context.Context, req ProposeRequest, messages []Message) (*Proposal, error) {
	var resp proposeResponse
	if err := p.client.ChatJSON(ctx, messages, &resp); err != nil {
		return nil, fmt.Errorf("getting proposal from LLM: %w", err)
	}
	batch, err := resp.toBatch(req.Blocks)
	if err != nil {
		return nil, err
	}
	return &Proposal{Batch: *batch, Warnings: resp.Warnings}, nil
}

func formatBlocks(blocks []*schedule.TimeBlock) string {
	if len(blocks) == 0 {
		return "(empty schedule)"
	}
	var sb strings.Builder
	for _, b := range schedule.SortedByStart(blocks) {
		sb.WriteString(fmt.Sprintf("- %s %s %s %s\n",
			b.ID,
			b.Date.Format("2006-01-02"),
			slotclock.FormatRange(b.Start, b.End),
			b.Provider,
		))
	}
	return sb.String()
}

// toBatch resolves wire changes against the schedule snapshot and builds
// the domain batch. Originals come from the snapshot, never from the
// model, so the apply step's stale-reference check stays meaningful.
func (r *proposeResponse) toBatch(blocks []*schedule.TimeBlock) (*change.Batch, error) {
	byID := make(map[string]*schedule.TimeBlock, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}

	batch := &change.Batch{Summary: r.Summary}
	for i, wc := range r.Changes {
		proposal, err := wc.toProposal(byID)
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		batch.Changes = append(batch.Changes, *proposal)
	}
	return batch, nil
}

func (wc wireChange) toProposal(byID map[string]*schedule.TimeBlock) (*change.Proposal, error) {
	proposal := &change.Proposal{
		Kind:        change.Kind(wc.Kind),
		Description: wc.Description,
		Rationale:   wc.Reason,
		AISuggested: true,
	}

	lookup := func(id string) (*schedule.TimeBlock, error) {
		if id == "" {
			return nil, fmt.Errorf("%w: missing block_id", change.ErrInvalidProposal)
		}
		b, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown block %s", change.ErrStaleReference, id)
		}
		return b.Clone(), nil
	}

	switch proposal.Kind {
	case change.KindAdd:
		date, err := dateutil.ParseDate(wc.Date)
		if err != nil {
			return nil, err
		}
		start, err := slotclock.ParseSlot(wc.Start)
		if err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		end, err := slotclock.ParseSlot(wc.End)
		if err != nil {
			return nil, fmt.Errorf("end: %w", err)
		}
		block, err := schedule.NewTimeBlock(date, start, end, schedule.Provider(wc.Provider), wc.Note)
		if err != nil {
			return nil, err
		}
		proposal.Proposed = block

	case change.KindRemove:
		original, err := lookup(wc.BlockID)
		if err != nil {
			return nil, err
		}
		proposal.Original = original

	case change.KindRetime:
		original, err := lookup(wc.BlockID)
		if err != nil {
			return nil, err
		}
		proposed := original.Clone()
		if wc.Date != "" {
			date, err := dateutil.ParseDate(wc.Date)
			if err != nil {
				return nil, err
			}
			proposed.Date = date
		}
		if wc.Start != "" {
			start, err := slotclock.ParseSlot(wc.Start)
			if err != nil {
				return nil, fmt.Errorf("start: %w", err)
			}
			proposed.Start = start
		}
		if wc.End != "" {
			end, err := slotclock.ParseSlot(wc.End)
			if err != nil {
				return nil, fmt.Errorf("end: %w", err)
			}
			proposed.End = end
		}
		proposal.Original = original
		proposal.Proposed = proposed

	case change.KindReassign:
		original, err := lookup(wc.BlockID)
		if err != nil {
			return nil, err
		}
		provider, err := schedule.ParseProvider(wc.Provider)
		if err != nil {
			return nil, err
		}
		proposed := original.Clone()
		proposed.Provider = provider
		proposal.Original = original
		proposal.Proposed = proposed

	case change.KindSwap:
		first, err := lookup(wc.BlockID)
		if err != nil {
			return nil, err
		}
		second, err := lookup(wc.SecondBlockID)
		if err != nil {
			return nil, err
		}
		firstProposed := first.Clone()
		secondProposed := second.Clone()
		firstProposed.Provider, secondProposed.Provider = second.Provider, first.Provider
		proposal.Original = first
		proposal.Proposed = firstProposed
		proposal.SwapOriginal = second
		proposal.SwapProposed = secondProposed

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", change.ErrInvalidProposal, wc.Kind)
	}

	return proposal, nil
}
