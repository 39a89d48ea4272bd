package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var approveCmd = &cobra.Command{
	Use:   "approve <approval-id>",
	Short: "Approve a pending operation",
	Long: `Approve a risk-gated operation so the agent can proceed.

The local graph is updated immediately; the server is then notified. If the
server rejects the call, the local state is re-derived from a fresh snapshot
rather than guessed at.

Examples:
  tasksync approve apr-91be --session sess-7f3a`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

var rejectCmd = &cobra.Command{
	Use:   "reject <approval-id>",
	Short: "Reject a pending operation",
	Args:  cobra.ExactArgs(1),
	RunE:  runReject,
}

var approvalSession string

func init() {
	for _, c := range []*cobra.Command{approveCmd, rejectCmd} {
		c.Flags().StringVar(&approvalSession, "session", "", "session the approval belongs to")
		_ = c.MarkFlagRequired("session")
		rootCmd.AddCommand(c)
	}
}

func runApprove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	e := newEngine(cfg, approvalSession, logger)
	if err := e.ApproveApproval(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Approved %s\n", args[0])
	return nil
}

func runReject(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	e := newEngine(cfg, approvalSession, logger)
	if err := e.RejectApproval(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Rejected %s\n", args[0])
	return nil
}
