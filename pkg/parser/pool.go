package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// parserPool holds the tree-sitter parsers of one grammar.
//
// Design:
// - Idle parsers wait in a buffered channel of capacity maxSize
// - Parsers are created on first demand, never more than maxSize
// - Every parser in a pool is bound to the same grammar
//
// Thread Safety:
// - acquire and release may be called from any goroutine
// - mutex guards the created counter and parser construction
type parserPool struct {
	// pool buffers idle parsers
	pool chan *ts.Parser

	// langPtr is the grammar handed to SetLanguage
	langPtr unsafe.Pointer

	// grammar names the pool in logs and errors
	grammar grammar

	// maxSize caps the parsers this pool will ever create
	maxSize int

	// mutex protects created
	mutex sync.Mutex

	// created counts parsers constructed so far
	created int

	logger *slog.Logger
}

// newParserPool creates an empty pool.
//
// Parameters:
// - g: The grammar every parser is bound to
// - langPtr: The tree-sitter language for g
// - maxSize: Upper bound on parsers, also the channel capacity
// - logger: Structured logger
func newParserPool(g grammar, langPtr unsafe.Pointer, maxSize int, logger *slog.Logger) *parserPool {
	return &parserPool{
		pool:    make(chan *ts.Parser, maxSize),
		langPtr: langPtr,
		grammar: g,
		maxSize: maxSize,
		logger:  logger,
	}
}

// acquire checks out a parser. An idle parser is reused; otherwise a new
// one is built while the pool is below maxSize.
//
// Thread Safety:
// - Safe for concurrent use
// - Blocks until a release once maxSize parsers are checked out
func (p *parserPool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.pool:
		return parser, nil
	default:
	}

	p.mutex.Lock()
	if p.created >= p.maxSize {
		p.mutex.Unlock()
		return <-p.pool, nil
	}
	defer p.mutex.Unlock()

	parser := ts.NewParser()
	if parser == nil {
		return nil, fmt.Errorf("failed to create parser")
	}
	if err := parser.SetLanguage(ts.NewLanguage(p.langPtr)); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set language %s: %w", p.grammar, err)
	}
	p.created++
	p.logger.Debug("created parser", "grammar", p.grammar.String(), "pool_size", p.created)
	return parser, nil
}

// release returns parser to the pool. It never blocks: a parser that does
// not fit is closed.
func (p *parserPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	select {
	case p.pool <- parser:
	default:
		parser.Close()
		p.logger.Warn("parser pool full, closing excess parser", "grammar", p.grammar.String())
	}
}

// close frees every idle parser. Parsers still checked out are not
// tracked and must not be released afterwards.
func (p *parserPool) close() {
	close(p.pool)
	for parser := range p.pool {
		parser.Close()
	}
}

// createdCount reports how many parsers the pool has built.
func (p *parserPool) createdCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.created
}
