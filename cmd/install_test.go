package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallCompletion(t *testing.T) {
	home := t.TempDir()

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			target, ok := completionTargets[shell]
			require.True(t, ok)

			name, err := installCompletion(rootCmd, target(home))
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(name))

			data, err := os.ReadFile(name)
			require.NoError(t, err)
			assert.Contains(t, string(data), "livetree")
		})
	}
}

func TestInstallUnknownShell(t *testing.T) {
	err := installCmd.RunE(installCmd, []string{"tcsh"})
	assert.ErrorContains(t, err, "tcsh")
}
