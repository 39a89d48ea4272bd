package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasksync/internal/graph"
)

var tailCmd = &cobra.Command{
	Use:   "tail <session-id>",
	Short: "Follow a session's live state",
	Long: `Connect to a session's event stream and print its history as it grows.

The graph is restored from the local cache first, so only events newer than
the cached state are fetched. On stream loss tail reconnects with backoff and
resumes from the last seen event; when the server does not support streaming
it polls snapshots instead.

Examples:
  tasksync tail sess-7f3a
  tasksync tail sess-7f3a --base-url https://agents.example.com/api`,
	Args: cobra.ExactArgs(1),
	RunE: runTail,
}

func init() {
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	e := newEngine(cfg, args[0], logger)

	p := &nodePrinter{printed: make(map[string]graph.Status)}
	e.OnChange(p.print)
	e.View(p.print) // cached history first

	ctx := cmd.Context()
	e.Start(ctx)
	defer e.Close()

	<-ctx.Done()
	return nil
}

// nodePrinter writes each node once, re-printing task nodes whose status
// moved.
type nodePrinter struct {
	printed map[string]graph.Status
}

func (p *nodePrinter) print(g *graph.Graph) {
	for _, n := range g.Nodes {
		status, seen := p.printed[n.ID]
		if seen && (n.Kind != graph.KindTaskStatus || n.TaskStatus == nil || n.TaskStatus.Status == status) {
			continue
		}
		if n.Kind == graph.KindTaskStatus && n.TaskStatus != nil {
			p.printed[n.ID] = n.TaskStatus.Status
		} else {
			p.printed[n.ID] = ""
		}
		fmt.Printf("%s  %-11s %s\n", n.Timestamp.Format("15:04:05"), n.Kind, describeNode(n))
	}
}

func describeNode(n *graph.Node) string {
	switch n.Kind {
	case graph.KindTaskStatus:
		if n.TaskStatus == nil {
			return n.ID
		}
		title := n.TaskStatus.Title
		if title == "" {
			title = n.TaskStatus.TaskID
		}
		return fmt.Sprintf("%s [%s]", title, n.TaskStatus.Status)
	case graph.KindThinking:
		if n.Thinking == nil {
			return n.ID
		}
		return oneLine(n.Thinking.Text, 96)
	case graph.KindToolCall:
		if n.ToolCall == nil {
			return n.ID
		}
		desc := n.ToolCall.Tool
		if n.ToolCall.RequiresApproval {
			desc += fmt.Sprintf(" (awaiting approval %s, risk %s)", n.ToolCall.ApprovalID, n.ToolCall.Risk)
		}
		return desc
	case graph.KindToolOutput:
		if n.ToolOutput == nil {
			return n.ID
		}
		if n.ToolOutput.IsError {
			return fmt.Sprintf("error from %s: %s", n.ToolOutput.CallID, n.ToolOutput.ErrorCode)
		}
		return fmt.Sprintf("result for %s (%dms)", n.ToolOutput.CallID, n.ToolOutput.DurationMS)
	case graph.KindPlanUpdate:
		if n.PlanUpdate == nil {
			return n.ID
		}
		return fmt.Sprintf("plan updated (%d steps)", len(n.PlanUpdate.Steps))
	default:
		return n.ID
	}
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
