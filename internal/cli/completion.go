package cli

import (
	"github.com/spf13/cobra"
)

// deckExtensions are offered when completing a deck argument.
var deckExtensions = []string{"txt", "toml", "json"}

// completeDeckFile completes the single deck argument of export and parse.
func completeDeckFile(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return deckExtensions, cobra.ShellCompDirectiveFilterFileExt
}

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Print a shell completion script",
		Long: `Print a completion script for bash, zsh, fish or powershell.

Deck arguments complete to .txt, .toml and .json files.`,
		Example: `  source <(proxysheet completion bash)
  proxysheet completion zsh > "${fpath[1]}/_proxysheet"
  proxysheet completion fish > ~/.config/fish/completions/proxysheet.fish
  proxysheet completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
