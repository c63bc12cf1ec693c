// Package cli provides the command-line interface for the Gen2
// air-interface simulator.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gen2sim",
	Short: "A discrete-event simulator for the EPC Gen2 RFID air interface",
	Long: `gen2sim reproduces, in simulated time, the command/reply exchanges
of an EPC Class-1 Generation-2 inventory round (Query -> RN16 -> ACK -> EPC,
optionally ReqRN -> Handle -> Read -> Data) between a moving reader and one
or more passive tags, under a radio channel model that modulates path loss,
received power, and bit error rate along the reader's trajectory.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default gen2sim.yaml in $HOME/.config/gen2sim, /etc/gen2sim, or the working directory)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common locations (in priority order)
		viper.SetConfigName("gen2sim")
		viper.SetConfigType("yaml") // Supports both .yaml and .yml extensions
		viper.AddConfigPath("$HOME/.config/gen2sim")
		viper.AddConfigPath("/etc/gen2sim")
		viper.AddConfigPath(".")
	}

	// Environment variables
	viper.SetEnvPrefix("GEN2SIM")
	viper.AutomaticEnv()

	// Read config file if it exists (errors are intentionally ignored)
	_ = viper.ReadInConfig()
}

// GetConfigFile returns the config file being used
func GetConfigFile() string {
	return viper.ConfigFileUsed()
}
