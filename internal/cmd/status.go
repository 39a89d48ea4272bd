package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasksync/internal/graph"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show a session's current state",
	Long: `Fetch the latest snapshot of a session and print a summary: session
status, tasks, pending approval, artifacts, and token usage.

Examples:
  tasksync status sess-7f3a
  tasksync status sess-7f3a --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output the full graph as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	e := newEngine(cfg, args[0], logger)
	if err := e.Refresh(cmd.Context()); err != nil {
		return err
	}

	var out error
	e.View(func(g *graph.Graph) {
		if statusJSON {
			data, err := json.MarshalIndent(g, "", "  ")
			if err != nil {
				out = fmt.Errorf("failed to marshal graph: %w", err)
				return
			}
			fmt.Println(string(data))
			return
		}
		printSummary(g)
	})
	return out
}

func printSummary(g *graph.Graph) {
	fmt.Printf("Session:  %s\n", g.SessionID)
	fmt.Printf("Status:   %s\n", g.Status)
	if g.AgentMode != "" {
		fmt.Printf("Mode:     %s\n", g.AgentMode)
	}
	if g.PendingApprovalID != "" {
		fmt.Printf("Pending:  approval %s\n", g.PendingApprovalID)
	}

	var tasks []*graph.Node
	for _, n := range g.Nodes {
		if n.Kind == graph.KindTaskStatus && n.TaskStatus != nil {
			tasks = append(tasks, n)
		}
	}
	if len(tasks) > 0 {
		fmt.Printf("\nTasks (%d):\n", len(tasks))
		for _, n := range tasks {
			title := n.TaskStatus.Title
			if title == "" {
				title = n.TaskStatus.TaskID
			}
			fmt.Printf("  %-20s %s\n", n.TaskStatus.Status, title)
		}
	}

	if len(g.Artifacts) > 0 {
		fmt.Printf("\nArtifacts (%d):\n", len(g.Artifacts))
		for _, a := range g.Artifacts {
			fmt.Printf("  %-10s %-10s v%d  %s\n", a.Kind, a.Status, a.Version, a.ID)
		}
	}

	if g.Usage != nil {
		fmt.Printf("\nUsage: %d in / %d out tokens", g.Usage.InputTokens, g.Usage.OutputTokens)
		if g.Usage.CostUSD > 0 {
			fmt.Printf(" ($%.4f)", g.Usage.CostUSD)
		}
		fmt.Println()
	}
	fmt.Printf("\nHistory: %d nodes\n", len(g.Nodes))
}
