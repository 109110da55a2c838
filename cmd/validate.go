package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/netkit/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		fmt.Printf("%s: OK\n", configFile)
		fmt.Printf("  buffers: small=%d medium=%d large=%d\n",
			cfg.Buffers.SmallCount, cfg.Buffers.MediumCount, cfg.Buffers.LargeCount)
		fmt.Printf("  static udp bindings: %d\n", len(cfg.UDP.Bindings))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
