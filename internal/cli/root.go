package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions — общие флаги всех команд.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand создаёт корневую команду commenter.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "commenter",
		Short:         "Комментирование постов подписок Instagram",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "путь к config.yaml (по умолчанию $COMMENTER_CONFIG или ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "уровень журнала (debug|info|warn|error)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	return cmd
}
