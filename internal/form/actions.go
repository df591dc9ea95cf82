// internal/form/actions.go
//
// Forms subsystem: post-submit actions.
//
// Context
//   A FormDef may declare actions that run after validation succeeds.  The
//   only action type is "log", which writes the submission to the
//   request logger.  Fields listed under "redact" are masked first.
//
//   actions:
//     - type: log
//       message: agenda event submitted
//       redact: [password]
//
//------------------------------------------------------------------------------

package form

import (
	"context"

	"github.com/toescalado/escalado/internal/logger"
)

// ActionCtx carries request-scoped helpers for action execution.
type ActionCtx struct{ Ctx context.Context }

// ExecuteActions performs all YAML-declared actions.  Errors are logged
// but not returned, keeping user flow uninterrupted.
func ExecuteActions(formID string, data map[string]any, actx ActionCtx) {
	fd, ok := GetFormDef(formID)
	if !ok || len(fd.Actions) == 0 {
		return
	}
	if actx.Ctx == nil {
		actx.Ctx = context.Background()
	}

	for _, ac := range fd.Actions {
		switch ac.Type {
		case "log":
			runLog(fd, ac.Params, data, actx)
		default:
			logger.FromContext(actx.Ctx).Warnw("form action warning",
				"form", fd.ID, "action", ac.Type, "warning", "unsupported action")
		}
	}
}

func runLog(fd *FormDef, p map[string]any, data map[string]any, actx ActionCtx) {
	msg, _ := p["message"].(string)
	if msg == "" {
		msg = "form submitted"
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	if list, ok := p["redact"].([]any); ok {
		for _, item := range list {
			if k, ok := item.(string); ok {
				if _, set := out[k]; set {
					out[k] = "***"
				}
			}
		}
	}
	logger.FromContext(actx.Ctx).Infow(msg, "form", fd.ID, "data", out)
}
