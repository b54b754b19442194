package serial

import (
	"regexp"
	"sort"
	"sync"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handler consumes a matched line's submatches (regexp FindStringSubmatch
// layout: index 0 is the whole line, capture groups follow).
type Handler func(groups []string)

// handlerEntry pairs a registered handler with its removal id.
type handlerEntry struct {
	id int
	fn Handler
}

// pairing binds one pattern to its handlers, with the ordering metadata
// the Parser sorts by.
type pairing struct {
	re       *regexp.Regexp
	priority int
	seq      uint64
	handlers []handlerEntry
}

// Parser routes printer output lines to handlers by regular expression.
//
// Patterns are tried by descending priority; among equal priorities the
// most recently registered pattern is tried first. Matching stops at
// the first pattern that matches, and all of that pattern's handlers
// fire, in registration order.
//
// Thread Safety: all methods are safe for concurrent use. Handlers fire
// outside the parser's lock, so they may register or remove handlers.
type Parser struct {
	logger Logger

	mu      sync.Mutex
	ordered []*pairing
	byExpr  map[string]*pairing
	nextSeq uint64
	nextID  int
}

// NewParser creates an empty parser.
func NewParser() *Parser {
	return &Parser{
		logger: noopLogger{},
		byExpr: map[string]*pairing{},
	}
}

// SetLogger sets the logger for the parser.
func (p *Parser) SetLogger(logger Logger) {
	p.logger = logger
}

// Add registers a handler for lines matching re and returns an id for
// RemoveHandler. Registering the same pattern again attaches another
// handler to the existing pairing; a higher priority on a later
// registration promotes the whole pairing.
func (p *Parser) Add(re *regexp.Regexp, priority int, fn Handler) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID

	pr, ok := p.byExpr[re.String()]
	if !ok {
		p.nextSeq++
		pr = &pairing{re: re, priority: priority, seq: p.nextSeq}
		p.byExpr[re.String()] = pr
		p.ordered = append(p.ordered, pr)
	} else if priority > pr.priority {
		pr.priority = priority
	}
	pr.handlers = append(pr.handlers, handlerEntry{id: id, fn: fn})

	p.resort()
	return id
}

// RemoveHandler detaches the handler registered under id from the given
// pattern. When the last handler goes, the pattern is dropped entirely.
func (p *Parser) RemoveHandler(re *regexp.Regexp, id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pr, ok := p.byExpr[re.String()]
	if !ok {
		return ErrNoSuchHandler
	}

	found := false
	kept := pr.handlers[:0]
	for _, h := range pr.handlers {
		if h.id == id {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	if !found {
		return ErrNoSuchHandler
	}
	pr.handlers = kept

	if len(pr.handlers) == 0 {
		delete(p.byExpr, re.String())
		for i, other := range p.ordered {
			if other == pr {
				p.ordered = append(p.ordered[:i], p.ordered[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Decide finds the first pattern matching line and fires its handlers.
// Lines nobody claims are logged at debug level and dropped.
func (p *Parser) Decide(line string) {
	var (
		chosen *pairing
		groups []string
	)

	p.mu.Lock()
	for _, pr := range p.ordered {
		if m := pr.re.FindStringSubmatch(line); m != nil {
			chosen = pr
			groups = m
			break
		}
	}
	var handlers []handlerEntry
	if chosen != nil {
		handlers = append(handlers, chosen.handlers...)
	}
	p.mu.Unlock()

	if chosen == nil {
		p.logger.Debug("no handler for printer output", "line", line)
		return
	}

	for _, h := range handlers {
		p.fire(h.fn, groups, line)
	}
}

// fire invokes one handler, recovering panics so printer output keeps
// flowing whatever a consumer does.
func (p *Parser) fire(fn Handler, groups []string, line string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic in serial output handler",
				"line", line,
				"panic", r,
			)
		}
	}()
	fn(groups)
}

// resort restores the priority order: higher priority first, newer
// registration first among equals. Callers hold mu.
func (p *Parser) resort() {
	sort.SliceStable(p.ordered, func(i, j int) bool {
		if p.ordered[i].priority != p.ordered[j].priority {
			return p.ordered[i].priority > p.ordered[j].priority
		}
		return p.ordered[i].seq > p.ordered[j].seq
	})
}
