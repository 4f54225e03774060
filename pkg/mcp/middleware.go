package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// callLogMiddleware records every tool call in the server's call log and
// mirrors it to the structured logger. Log failures never affect results.
func (s *Server) callLogMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := now()
			result, err := next(ctx, req)
			elapsed := time.Since(start).Milliseconds()

			var errStr *string
			if err != nil {
				msg := err.Error()
				errStr = &msg
			}
			entry := CallEntry{
				Ts:            start.UTC().Format(time.RFC3339),
				Tool:          req.Params.Name,
				Params:        sanitizeParams(req.GetArguments()),
				DurationMs:    elapsed,
				ResponseBytes: responseBytes(result),
				IsError:       result != nil && result.IsError,
				Error:         errStr,
			}
			if werr := s.calls.Write(entry); werr != nil {
				s.logger.Warn("failed to write call log", "error", werr)
			}
			s.logger.Debug("tool call", "tool", entry.Tool, "ms", elapsed, "is_error", entry.IsError)

			return result, err
		}
	}
}
