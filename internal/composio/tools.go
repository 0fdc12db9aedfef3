package composio

import (
	"context"
	"fmt"

	"mediareport/internal/constants"
)

type executeRequest struct {
	UserID    string      `json:"user_id,omitempty"`
	Arguments interface{} `json:"arguments"`
}

// ExecuteResult is the envelope returned by tool execution.
type ExecuteResult struct {
	Data       map[string]interface{} `json:"data"`
	Error      *string                `json:"error"`
	Successful bool                   `json:"successful"`
}

// ExecuteTool runs tool with arguments on behalf of the configured user.
func (c *Client) ExecuteTool(ctx context.Context, tool string, arguments interface{}) (*ExecuteResult, error) {
	var out ExecuteResult
	err := c.postJSON(ctx, constants.CollaboratorMail, fmt.Sprintf(executeToolPathFmt, tool), executeRequest{
		UserID:    c.cfg.UserID,
		Arguments: arguments,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
