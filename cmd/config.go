package cmd

import (
	"fmt"
	"os"

	"github.com/audiolibrelab/voicecapture/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and manage VoiceCapture configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var configUseCmd = &cobra.Command{
	Use:   "use [profile]",
	Short: "Set the active configuration profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		if _, err := os.Stat(cfgFile); err != nil {
			return fmt.Errorf("config file %s not found: %w", cfgFile, err)
		}

		// Make sure the profile exists before switching
		if _, err := config.LoadWithProfile(cfgFile, name); err != nil {
			return err
		}

		if err := config.UpdateActiveConfig(cfgFile, name); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Active configuration set to %s\n", name)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configUseCmd)
}
