package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasksync/internal/engine"
	"github.com/felixgeelhaar/tasksync/internal/graph"
)

var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Apply or revert session artifacts",
}

var artifactApplyCmd = &cobra.Command{
	Use:   "apply <artifact-id>",
	Short: "Apply an artifact to the workspace",
	Long: `Ask the server to apply an artifact (a plan, diff, or document the
agent produced). The server performs the apply; the returned record
overwrites the local artifact's status and version.

Examples:
  tasksync artifact apply diff-42 --session sess-7f3a`,
	Args: cobra.ExactArgs(1),
	RunE: runArtifactApply,
}

var artifactRevertCmd = &cobra.Command{
	Use:   "revert <artifact-id>",
	Short: "Revert a previously applied artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtifactRevert,
}

var artifactSession string

func init() {
	for _, c := range []*cobra.Command{artifactApplyCmd, artifactRevertCmd} {
		c.Flags().StringVar(&artifactSession, "session", "", "session the artifact belongs to")
		_ = c.MarkFlagRequired("session")
		artifactCmd.AddCommand(c)
	}
	rootCmd.AddCommand(artifactCmd)
}

func runArtifactApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	e := newEngine(cfg, artifactSession, logger)
	if err := e.ApplyArtifact(cmd.Context(), args[0]); err != nil {
		return err
	}
	printArtifact(e, args[0], "Applied")
	return nil
}

func runArtifactRevert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	e := newEngine(cfg, artifactSession, logger)
	if err := e.RevertArtifact(cmd.Context(), args[0]); err != nil {
		return err
	}
	printArtifact(e, args[0], "Reverted")
	return nil
}

func printArtifact(e *engine.Engine, id, verb string) {
	e.View(func(g *graph.Graph) {
		if a, ok := g.Artifacts[id]; ok {
			fmt.Printf("%s %s (now %s, v%d)\n", verb, id, a.Status, a.Version)
			return
		}
		fmt.Printf("%s %s\n", verb, id)
	})
}
