// ABOUTME: Tests for add command structure and flags
// ABOUTME: Verifies argument handling without touching real storage

package commands

import (
	"testing"
)

func TestNewAddCmd(t *testing.T) {
	cmd := NewAddCmd()

	if cmd.Use != "add [text]" {
		t.Errorf("Use = %q, want %q", cmd.Use, "add [text]")
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	if cmd.Long == "" {
		t.Error("Long description should not be empty")
	}
}

func TestAddCmd_Flags(t *testing.T) {
	cmd := NewAddCmd()

	tests := []struct {
		flagName string
		defValue string
	}{
		{"user", ""},
		{"conversation", ""},
		{"role", "user"},
		{"media", "text"},
		{"file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("--%s flag not found", tt.flagName)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("--%s default = %q, want %q", tt.flagName, flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestAddCmd_RequiredFlags(t *testing.T) {
	cmd := NewAddCmd()
	cmd.SetArgs([]string{"some text"})

	if err := cmd.Execute(); err == nil {
		t.Error("Expected error when --user and --conversation are missing")
	}
}
