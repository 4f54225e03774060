package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/propfix/pkg/util"
)

// ErrSyntax is returned by ParseStrict when the tree contains ERROR or
// MISSING nodes.
var ErrSyntax = errors.New("source contains syntax errors")

// ParserManager hands out pooled tree-sitter parsers per grammar.
//
// Design:
// - One parserPool per grammar (JavaScript, TypeScript, TSX)
// - Pools are created on the first parse of their grammar
// - Parsers go back to their pool as soon as the tree is built
//
// Thread Safety:
// - All methods are safe for concurrent use
// - RWMutex guards the pool map; pools synchronize themselves
//
// Callers own the returned trees and must Close them. The manager itself
// must be closed via Close().
//
// Example:
//
//	pm := parser.NewParserManager(logger, 0)
//	defer pm.Close()
//
//	tree, err := pm.ParseFile(src, "src/Button.jsx")
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type ParserManager struct {
	// pools maps each grammar to its pool
	pools map[grammar]*parserPool

	// poolSize is the maxSize given to every new pool
	poolSize int

	// mutex protects pools and parses
	mutex sync.RWMutex

	logger *slog.Logger

	// parses counts Parse calls
	parses int
}

// NewParserManager creates a manager with no pools.
//
// Parameters:
// - logger: Structured logger; nil uses slog.Default()
// - poolSize: Parsers per grammar; <= 0 selects util.GetOptimalPoolSize()
func NewParserManager(logger *slog.Logger, poolSize int) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserManager{
		pools:    make(map[grammar]*parserPool),
		poolSize: util.GetOptimalPoolSizeWithOverride(poolSize),
		logger:   logger,
	}
}

// Parse parses source with the grammar of the given dialect. A tree with
// syntax errors is still returned; use ParseStrict to reject it.
//
// Thread Safety:
// - Safe for concurrent use
// - Blocks while every parser of the grammar is busy
func (pm *ParserManager) Parse(source []byte, dialect Dialect) (*ts.Tree, error) {
	if dialect == DialectUnknown {
		return nil, fmt.Errorf("cannot parse unknown dialect")
	}

	pm.mutex.Lock()
	pm.parses++
	pm.mutex.Unlock()

	pool, err := pm.getOrCreatePool(dialect.grammar())
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", dialect, err)
	}

	p, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}
	tree := p.Parse(source, nil)
	pool.release(p)

	if tree == nil {
		return nil, fmt.Errorf("parser returned nil tree")
	}
	return tree, nil
}

// ParseStrict parses like Parse but closes the tree and returns ErrSyntax
// when the source does not parse cleanly. Rewriting a file around a broken
// parse would splice at the wrong offsets.
func (pm *ParserManager) ParseStrict(source []byte, dialect Dialect) (*ts.Tree, error) {
	tree, err := pm.Parse(source, dialect)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		tree.Close()
		pm.logger.Debug("parse tree contains errors", "dialect", dialect.String(), "line", line)
		return nil, fmt.Errorf("%w (near line %d)", ErrSyntax, line)
	}
	return tree, nil
}

// ParseFile detects the dialect from filePath and parses strictly.
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	dialect := DetectDialect(filePath)
	if dialect == DialectUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	return pm.ParseStrict(source, dialect)
}

// Close releases all pooled parsers. The manager cannot be used afterwards.
func (pm *ParserManager) Close() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	for g, pool := range pm.pools {
		pool.close()
		pm.logger.Debug("closed parser pool", "grammar", g.String())
	}
	pm.pools = make(map[grammar]*parserPool)
	return nil
}

// Stats returns parser usage counters.
func (pm *ParserManager) Stats() ParserStats {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	created := 0
	for _, pool := range pm.pools {
		created += pool.createdCount()
	}
	return ParserStats{ParsersCreated: created, ParsesCalled: pm.parses}
}

// ParserStats contains parser usage statistics.
type ParserStats struct {
	ParsersCreated int
	ParsesCalled   int
}

// getOrCreatePool returns the pool for g, creating it under the write lock
// when the read path misses.
func (pm *ParserManager) getOrCreatePool(g grammar) (*parserPool, error) {
	pm.mutex.RLock()
	pool, ok := pm.pools[g]
	pm.mutex.RUnlock()
	if ok {
		return pool, nil
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if pool, ok = pm.pools[g]; ok {
		return pool, nil
	}

	pool = newParserPool(g, languagePointer(g), pm.poolSize, pm.logger)
	pm.pools[g] = pool
	pm.logger.Debug("created parser pool", "grammar", g.String(), "max_size", pm.poolSize)
	return pool, nil
}

// languagePointer maps a grammar to its tree-sitter language.
func languagePointer(g grammar) unsafe.Pointer {
	switch g {
	case grammarTypeScript:
		return ts_typescript.LanguageTypescript()
	case grammarTSX:
		return ts_typescript.LanguageTSX()
	default:
		return ts_javascript.Language()
	}
}

// firstErrorLine returns the 1-based line of the first ERROR or MISSING node.
func firstErrorLine(node *ts.Node) int {
	if node.IsError() || node.IsMissing() {
		return int(node.StartPosition().Row) + 1
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.HasError() {
			return firstErrorLine(child)
		}
	}
	return int(node.StartPosition().Row) + 1
}
