package cli

import "github.com/spf13/cobra"

// completionCmd generates shell completion scripts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for paylink.

To load completions:

Bash:
  $ source <(paylink completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ paylink completion bash > /etc/bash_completion.d/paylink
  # macOS:
  $ paylink completion bash > $(brew --prefix)/etc/bash_completion.d/paylink

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ paylink completion zsh > "${fpath[1]}/_paylink"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ paylink completion fish | source

  # To load completions for each session, execute once:
  $ paylink completion fish > ~/.config/fish/completions/paylink.fish

PowerShell:
  PS> paylink completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> paylink completion powershell > paylink.ps1
  # and source this file from your PowerShell profile.
`,
	Example: `  paylink completion bash > /etc/bash_completion.d/paylink
  paylink completion zsh > "${fpath[1]}/_paylink"`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(completionCmd)
	completionCmd.GroupID = groupConfig
}
