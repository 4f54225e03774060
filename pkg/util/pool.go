package util

import "runtime"

// GetOptimalPoolSize returns how many tree-sitter parsers a dialect pool may
// hold at once.
//
// Formula: min(max(runtime.NumCPU(), 2), 8)
//
// The batch driver parses one file at a time; extra parsers only serve the
// watcher and concurrent MCP tool calls, so the ceiling stays low.
func GetOptimalPoolSize() int {
	size := runtime.NumCPU()
	if size < 2 {
		size = 2
	}
	if size > 8 {
		size = 8
	}
	return size
}

// GetOptimalPoolSizeWithOverride returns override when positive, otherwise
// GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
