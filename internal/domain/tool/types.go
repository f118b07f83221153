// Package tool defines the contract between the agent runtime and the
// concrete tools the bot can execute on its behalf.
package tool

import (
	"context"
	"encoding/json"

	"github.com/meteogram/meteogram/internal/domain/agent"
)

// Tool is a callable capability exposed to the agent runtime. Execute
// returns the tool output as text; operational failures (bad city, upstream
// timeout) are reported inside the output string so the model can relay
// them, not as Go errors.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

// Definition converts a Tool into the shape handed to the provider.
func Definition(t Tool) agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}
