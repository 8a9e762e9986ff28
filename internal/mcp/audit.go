package mcp

import (
	"fmt"
	"time"

	"github.com/JulieCB/tvb-root/internal/logging"
	"github.com/JulieCB/tvb-root/internal/pathutil"
)

// pathParams are tool parameters holding file paths. They are redacted
// before they reach any log.
var pathParams = map[string]bool{
	"data_file": true,
}

// sanitizeToolParams turns tool arguments into loggable strings. Empty
// values are dropped and paths are redacted.
func sanitizeToolParams(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		s := fmt.Sprint(v)
		if s == "" || s == "0" || s == "false" {
			continue
		}
		if pathParams[k] {
			s = pathutil.RedactPath(s)
		}
		out[k] = s
	}
	return out
}

// auditTool records one tool invocation in the import event log and the
// operational log.
func (s *Server) auditTool(toolName string, start time.Time, err error, params map[string]string) {
	status := "success"
	errMsg := ""
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}
	elapsed := time.Since(start).Milliseconds()

	s.ws.Events.Log("tool_call", map[string]any{
		"tool":        toolName,
		"status":      status,
		"error":       errMsg,
		"duration_ms": elapsed,
		"params":      params,
	})

	if err != nil {
		s.logger.Warn("tool call failed", "tool", toolName, logging.Duration(elapsed), logging.Error(err))
		return
	}
	s.logger.Debug("tool call", "tool", toolName, logging.Duration(elapsed))
}
