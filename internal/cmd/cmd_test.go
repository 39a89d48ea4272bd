package cmd

import (
	"testing"
)

// TestRootCommand tests the root command configuration
func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "tasksync" {
		t.Errorf("root Use = %q, want %q", rootCmd.Use, "tasksync")
	}
	if rootCmd.Short == "" {
		t.Error("root Short description is empty")
	}
	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("persistent flag 'config' not found on root command")
	}
	if rootCmd.PersistentFlags().Lookup("base-url") == nil {
		t.Error("persistent flag 'base-url' not found on root command")
	}
}

// TestSubcommandsRegistered tests that all commands are attached to the root
func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"tail", "status", "approve", "reject", "artifact", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered on root", name)
		}
	}
}

// TestTailCommand tests the tail command configuration
func TestTailCommand(t *testing.T) {
	if tailCmd.Use != "tail <session-id>" {
		t.Errorf("tail Use = %q, want %q", tailCmd.Use, "tail <session-id>")
	}
	if tailCmd.Args == nil {
		t.Error("tail command should have Args validator")
	}
}

// TestApprovalCommands tests the approve/reject command configuration
func TestApprovalCommands(t *testing.T) {
	if approveCmd.Flags().Lookup("session") == nil {
		t.Error("flag 'session' not found on approve command")
	}
	if rejectCmd.Flags().Lookup("session") == nil {
		t.Error("flag 'session' not found on reject command")
	}
}

// TestArtifactCommands tests the artifact subcommand configuration
func TestArtifactCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range artifactCmd.Commands() {
		names[c.Name()] = true
	}
	if !names["apply"] {
		t.Error("artifact apply subcommand not registered")
	}
	if !names["revert"] {
		t.Error("artifact revert subcommand not registered")
	}
}

// TestVersionFlags tests that version has correct flags
func TestVersionFlags(t *testing.T) {
	if versionCmd.Flags().Lookup("verbose") == nil {
		t.Error("flag 'verbose' not found on version command")
	}
	if versionCmd.Flags().Lookup("json") == nil {
		t.Error("flag 'json' not found on version command")
	}
}
