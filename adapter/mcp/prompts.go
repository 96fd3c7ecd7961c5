package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers prompts for common task workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("review_open_tasks").
		Description("Walk through every open task and decide what to finish, reschedule or drop.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Open task review",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me review my open tasks.

1. Read the tasktrack://tasks/open resource.
2. Group the tasks by frequency and point out any with a due date in the past.
3. For each overdue task, suggest whether to complete it, move the due date, or delete it.

Apply the changes I approve with task.update and task.delete.
Remember that task.update replaces every field, so always pass the title, frequency and due date you want to keep.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("plan_routine").
		Description("Turn a goal into a set of recurring tasks.").
		Argument("goal", "What the routine should achieve", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			goal := args["goal"]
			if goal == "" {
				goal = "[Please describe the goal]"
			}

			return &mcp.PromptResult{
				Description: "Routine planner",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Help me build a routine for this goal:

**Goal:** %s

Propose 3 to 7 short task titles. Give each a frequency of daily, weekly, monthly or yearly and, where it helps, a first due date in YYYY-MM-DD form.
Check tasktrack://tasks first so you do not duplicate existing tasks.

Once I approve the list, create each task with the task.create tool.`, goal),
						},
					},
				},
			}, nil
		})

	return nil
}
