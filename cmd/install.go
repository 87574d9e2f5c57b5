package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
)

type completionTarget struct {
	dir      string
	file     string
	generate func(root *cobra.Command, w io.Writer) error
}

var completionTargets = map[string]func(home string) completionTarget{
	"bash": func(home string) completionTarget {
		return completionTarget{
			dir:      filepath.Join(home, ".local/share/bash-completion/completions"),
			file:     "livetree",
			generate: (*cobra.Command).GenBashCompletion,
		}
	},
	"zsh": func(home string) completionTarget {
		return completionTarget{
			dir:      filepath.Join(home, ".zsh/completions"),
			file:     "_livetree",
			generate: (*cobra.Command).GenZshCompletion,
		}
	},
	"fish": func(home string) completionTarget {
		return completionTarget{
			dir:  filepath.Join(home, ".config/fish/completions"),
			file: "livetree.fish",
			generate: func(root *cobra.Command, w io.Writer) error {
				return root.GenFishCompletion(w, true)
			},
		}
	},
	"powershell": func(home string) completionTarget {
		return completionTarget{
			dir:      home,
			file:     "livetree_completion.ps1",
			generate: (*cobra.Command).GenPowerShellCompletionWithDesc,
		}
	},
}

var installCmd = &cobra.Command{
	Use:       "install [shell]",
	Short:     "Install shell completions",
	Long:      "Install writes the completion script for the given shell, or the current one, where the shell picks it up.",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		shell := detectShell()
		if len(args) == 1 {
			shell = args[0]
		}

		target, ok := completionTargets[shell]
		if !ok {
			return fmt.Errorf("shell completion not supported for %q (bash, zsh, fish, powershell)", shell)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		file, err := installCompletion(cmd.Root(), target(home))
		if err != nil {
			return fmt.Errorf("install %s completions: %w", shell, err)
		}

		fmt.Printf("✅ %s completions written to %s\n", shell, file)
		fmt.Println("💡 Restart your shell to enable tab completion")
		return nil
	},
}

func detectShell() string {
	if runtime.GOOS == "windows" {
		return "powershell"
	}

	shell := filepath.Base(os.Getenv("SHELL"))
	if shell == "" || shell == "." {
		return "bash"
	}
	return shell
}

func installCompletion(root *cobra.Command, target completionTarget) (string, error) {
	if err := os.MkdirAll(target.dir, 0755); err != nil {
		return "", err
	}

	name := filepath.Join(target.dir, target.file)
	file, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := target.generate(root, file); err != nil {
		return "", err
	}
	return name, nil
}

func init() {
	rootCmd.AddCommand(installCmd)
}
