package graph

import "sort"

// findCycles enumerates elementary cycles as closed walks, bounded by the
// options. The search follows Johnson's blocking scheme over nodes in sorted
// order, so output is deterministic: every cycle starts at its
// lexicographically smallest member and cycles appear grouped by that start.
// Self-loops come first as length-one cycles.
func (g *Graph) findCycles(opts Options) ([][]string, bool) {
	f := &cycleFinder{
		g:         g,
		maxCycles: opts.MaxCycles,
		maxLen:    opts.MaxCycleLen,
		index:     make(map[string]int),
	}
	return f.run()
}

type cycleFinder struct {
	g         *Graph
	maxCycles int
	maxLen    int

	order   []string
	index   map[string]int
	blocked map[string]bool
	blockOn map[string]map[string]bool
	stack   []string

	cycles    [][]string
	truncated bool
	lenPruned bool
}

func (f *cycleFinder) run() ([][]string, bool) {
	var loops []string
	for id := range f.g.selfLoops {
		loops = append(loops, id)
	}
	sort.Strings(loops)
	for _, id := range loops {
		if len(f.cycles) >= f.maxCycles {
			f.truncated = true
			return f.cycles, true
		}
		f.cycles = append(f.cycles, []string{id, id})
	}

	f.order = f.g.Nodes()
	for i, id := range f.order {
		f.index[id] = i
	}

	for _, start := range f.order {
		if f.truncated {
			break
		}
		f.blocked = make(map[string]bool)
		f.blockOn = make(map[string]map[string]bool)
		f.stack = f.stack[:0]
		f.circuit(start, start)
	}
	return f.cycles, f.truncated || f.lenPruned
}

// circuit extends the current path from v looking for a return to start.
// Only nodes ordered at or after start participate, which is what makes each
// elementary cycle come out exactly once.
func (f *cycleFinder) circuit(v, start string) bool {
	f.stack = append(f.stack, v)
	f.blocked[v] = true
	found := false

	for _, w := range f.g.successors(v) {
		if f.truncated {
			break
		}
		if f.index[w] < f.index[start] {
			continue
		}
		if w == start {
			if len(f.cycles) >= f.maxCycles {
				f.truncated = true
				break
			}
			cycle := make([]string, len(f.stack), len(f.stack)+1)
			copy(cycle, f.stack)
			f.cycles = append(f.cycles, append(cycle, start))
			found = true
			continue
		}
		if !f.blocked[w] {
			if len(f.stack) >= f.maxLen {
				// The length bound pruned a live extension, so cycles
				// longer than the cap may exist unreported. The search
				// itself continues; only the cycle budget aborts it.
				f.lenPruned = true
				continue
			}
			if f.circuit(w, start) {
				found = true
			}
		}
	}

	if found {
		f.unblock(v)
	} else {
		for _, w := range f.g.successors(v) {
			if f.index[w] < f.index[start] {
				continue
			}
			if f.blockOn[w] == nil {
				f.blockOn[w] = make(map[string]bool)
			}
			f.blockOn[w][v] = true
		}
	}
	f.stack = f.stack[:len(f.stack)-1]
	return found
}

func (f *cycleFinder) unblock(v string) {
	f.blocked[v] = false
	for w := range f.blockOn[v] {
		delete(f.blockOn[v], w)
		if f.blocked[w] {
			f.unblock(w)
		}
	}
}
