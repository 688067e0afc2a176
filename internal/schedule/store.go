package schedule

import (
	"slices"
	"sync"
	"time"

	"github.com/nidoapp/nido/internal/dateutil"
)

// Store holds the current schedule in memory. Reads see a consistent
// snapshot; mutations are serialized through the apply gate so two batch
// applications can never interleave (one mutation in flight at a time,
// late arrivals fail fast with ErrStoreBusy).
type Store struct {
	mu     sync.RWMutex
	blocks []*TimeBlock // insertion order preserved for stable sorts

	applyGate sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the store contents with blocks from the persistence
// collaborator. Invalid blocks are rejected wholesale.
func (s *Store) Load(blocks []*TimeBlock) error {
	for _, b := range blocks {
		if !b.Valid() {
			return ErrInvalidRange
		}
	}
	cloned := cloneAll(blocks)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = cloned
	return nil
}

// Blocks returns a copy of every block.
func (s *Store) Blocks() []*TimeBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.blocks)
}

// BlocksForDate returns all blocks on the given calendar day.
func (s *Store) BlocksForDate(date time.Time) []*TimeBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*TimeBlock
	for _, b := range s.blocks {
		if dateutil.SameDay(b.Date, date) {
			result = append(result, b.Clone())
		}
	}
	return result
}

// BlocksForProvider returns all blocks assigned to the given provider.
func (s *Store) BlocksForProvider(p Provider) []*TimeBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*TimeBlock
	for _, b := range s.blocks {
		if b.Provider == p {
			result = append(result, b.Clone())
		}
	}
	return result
}

// BlocksInRange returns all blocks whose date falls inside the range.
func (s *Store) BlocksInRange(r *dateutil.DateRange) []*TimeBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*TimeBlock
	for _, b := range s.blocks {
		if r.Contains(b.Date) {
			result = append(result, b.Clone())
		}
	}
	return result
}

// Get returns a copy of the block with the given id, or nil.
func (s *Store) Get(id string) *TimeBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.blocks {
		if b.ID == id {
			return b.Clone()
		}
	}
	return nil
}

// Len returns the number of blocks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// Overlapping returns every pair of blocks on the given date assigned to
// the given provider whose ranges intersect. The schedule engine reports
// overlap rather than enforcing non-overlap at write time; callers decide
// what to surface.
func (s *Store) Overlapping(date time.Time, p Provider) [][2]*TimeBlock {
	day := SortedByStart(s.BlocksForDate(date))

	var pairs [][2]*TimeBlock
	for i := 0; i < len(day); i++ {
		if day[i].Provider != p {
			continue
		}
		for j := i + 1; j < len(day); j++ {
			if day[j].Provider != p {
				continue
			}
			if day[i].OverlapsWith(day[j]) {
				pairs = append(pairs, [2]*TimeBlock{day[i], day[j]})
			}
		}
	}
	return pairs
}

// BeginApply acquires the single-writer apply gate. It fails fast with
// ErrStoreBusy if another mutation is in flight.
func (s *Store) BeginApply() error {
	if !s.applyGate.TryLock() {
		return ErrStoreBusy
	}
	return nil
}

// EndApply releases the apply gate.
func (s *Store) EndApply() {
	s.applyGate.Unlock()
}

// Replace atomically swaps in a new block set. Only the change engine
// calls this, while holding the apply gate, so readers never observe a
// partially-applied batch.
func (s *Store) Replace(blocks []*TimeBlock) {
	cloned := cloneAll(blocks)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = cloned
}

// SortedByStart returns blocks ordered ascending by start slot. The sort
// is stable: ties keep insertion order, which keeps rendering and
// conflict detection deterministic.
func SortedByStart(blocks []*TimeBlock) []*TimeBlock {
	sorted := slices.Clone(blocks)
	slices.SortStableFunc(sorted, func(a, b *TimeBlock) int {
		return int(a.Start - b.Start)
	})
	return sorted
}

// TotalHours sums the duration of the given blocks in hours.
func TotalHours(blocks []*TimeBlock) float64 {
	var total float64
	for _, b := range blocks {
		total += b.DurationHours()
	}
	return total
}

func cloneAll(blocks []*TimeBlock) []*TimeBlock {
	cloned := make([]*TimeBlock, len(blocks))
	for i, b := range blocks {
		cloned[i] = b.Clone()
	}
	return cloned
}
