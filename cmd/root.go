// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "netkit",
	Short: "Netkit - packet buffer pools and UDP transport core",
	Long: `Netkit is the packet-buffer and transport-binding core of a from-scratch
network stack. It pre-allocates tiered packet buffer pools (no heap churn in
the hot path) and dispatches UDP datagrams to registered endpoint bindings.

The link-layer driver and IP routing are external collaborators; netkit sits
between them and the socket API.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/netkit/config.yml",
		"config file path")
}
