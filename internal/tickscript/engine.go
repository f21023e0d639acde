// Package tickscript implements the TickScript indicator language: a lexer,
// a recursive-descent parser, a shape inference pass and a tree-walking
// evaluator that turns OHLCV bars into numeric series.
package tickscript

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arijanluiken/tickscript/pkg/market"
)

// Program is a compiled script. It is immutable and may be run
// concurrently; every run gets its own Context.
type Program struct {
	Source     string
	Statements []Stmt
	Study      StudyInfo
}

// Options tunes an Engine.
type Options struct {
	MaxDepth  int // expression nesting limit, DefaultMaxDepth when 0
	CacheSize int // compiled programs kept, 0 disables caching
}

// Engine compiles, validates and runs TickScript sources
type Engine struct {
	logger   zerolog.Logger
	maxDepth int

	mu        sync.RWMutex
	cache     map[string]*Program
	order     []string
	cacheSize int
}

// NewEngine creates a new TickScript engine
func NewEngine(logger zerolog.Logger, opts Options) *Engine {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	return &Engine{
		logger:    logger,
		maxDepth:  maxDepth,
		cache:     make(map[string]*Program),
		cacheSize: opts.CacheSize,
	}
}

// Compile tokenizes, parses and shape-checks source.
func Compile(source string) (*Program, error) {
	return compile(source, DefaultMaxDepth)
}

func compile(source string, maxDepth int) (*Program, error) {
	stmts, err := parse(source, maxDepth)
	if err != nil {
		return nil, err
	}

	program := &Program{Source: source, Statements: Infer(stmts)}
	for _, stmt := range program.Statements {
		if s, ok := stmt.(*StudyDecl); ok {
			program.Study = StudyInfo{Title: s.Title, ShortTitle: s.ShortTitle, Overlay: s.Overlay}
		}
	}
	return program, nil
}

func parse(source string, maxDepth int) ([]Stmt, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, maxDepth).Parse()
}

// Run evaluates the program against bars on a fresh context.
func (p *Program) Run(ctx context.Context, bars []market.Bar, params map[string]interface{}) (*Result, error) {
	evalCtx, err := NewContext(bars, params)
	if err != nil {
		return nil, err
	}
	return Execute(ctx, p.Statements, evalCtx)
}

// Compile returns the compiled program for source, reusing a cached one
// when available.
func (e *Engine) Compile(source string) (*Program, error) {
	e.mu.RLock()
	program, ok := e.cache[source]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := compile(source, e.maxDepth)
	if err != nil {
		return nil, err
	}

	e.store(source, program)

	e.logger.Debug().
		Int("statements", len(program.Statements)).
		Str("study", program.Study.Title).
		Msg("Script compiled")

	return program, nil
}

func (e *Engine) store(source string, program *Program) {
	if e.cacheSize <= 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.cache[source]; ok {
		return
	}
	// evict oldest first
	for len(e.order) >= e.cacheSize {
		delete(e.cache, e.order[0])
		e.order = e.order[1:]
	}
	e.cache[source] = program
	e.order = append(e.order, source)
}

// CachedPrograms returns the number of programs held in the cache
func (e *Engine) CachedPrograms() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// Validate checks that source lexes and parses. Only syntax errors are
// reported; nothing is evaluated.
func (e *Engine) Validate(source string) error {
	_, err := parse(source, e.maxDepth)
	return err
}

// ValidateScript reports validity and the error message, if any.
func (e *Engine) ValidateScript(source string) (bool, string) {
	if err := e.Validate(source); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// Run compiles and evaluates source, returning evaluation errors to the
// caller.
func (e *Engine) Run(ctx context.Context, source string, bars []market.Bar, params map[string]interface{}) (*Result, error) {
	program, err := e.Compile(source)
	if err != nil {
		return nil, err
	}

	result, err := program.Run(ctx, bars, params)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("study", result.Study.Title).
		Int("bars", len(bars)).
		Int("plots", len(result.Plots)).
		Msg("Script executed")

	return result, nil
}

// Execute runs source and returns the last plotted series. Failures are
// logged and yield an empty series.
func (e *Engine) Execute(source string, bars []market.Bar, params map[string]interface{}) []float64 {
	result, err := e.Run(context.Background(), source, bars, params)
	if err != nil {
		event := e.logger.Error().Err(err)
		var scriptErr *Error
		if errors.As(err, &scriptErr) {
			event = event.Str("kind", scriptErr.Kind.String())
			if scriptErr.Name != "" {
				event = event.Str("name", scriptErr.Name)
			}
		}
		event.Msg("TickScript execution error")
		return []float64{}
	}
	return result.Series
}
