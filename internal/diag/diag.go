package diag

import (
	"fmt"
	"sort"
	"sync"
)

type Severity int

const (
	Information Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "note"
	}
}

// Problem describes something wrong with author input and where it was found.
type Problem struct {
	Severity   Severity
	Identifier string // stable machine-readable id, e.g. "semantic.MissingArgument"
	Summary    string
	Source     string // file path or URL, may be empty
	Line       int    // 1-based, 0 when unknown
}

func (p Problem) String() string {
	loc := p.Source
	if loc != "" && p.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, p.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s [%s]", p.Severity, p.Summary, p.Identifier)
	}
	return fmt.Sprintf("%s: %s: %s [%s]", loc, p.Severity, p.Summary, p.Identifier)
}

// Collector accumulates problems from one pass so every problem can be
// reported at the end. Safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	problems []Problem
}

func (c *Collector) Add(problems ...Problem) {
	if len(problems) == 0 {
		return
	}
	c.mu.Lock()
	c.problems = append(c.problems, problems...)
	c.mu.Unlock()
}

// Problems returns the collected problems ordered by source, line, then
// identifier so output does not depend on which worker reported first.
func (c *Collector) Problems() []Problem {
	c.mu.Lock()
	out := make([]Problem, len(c.problems))
	copy(out, c.problems)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out
}

func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.problems {
		if p.Severity == Error {
			return true
		}
	}
	return false
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.problems)
}
