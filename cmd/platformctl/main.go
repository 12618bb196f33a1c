package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcplatform/platform/pkg/log"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/provider/aws"
	"github.com/lcplatform/platform/pkg/provider/mock"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	logLevel string
	logJSON  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "platformctl",
	Short: "platformctl - Inspect and validate platform configuration",
	Long: `platformctl works against the cloud-agnostic platform library:
it validates application dependency descriptors, lists the registered
providers and the services each one implements, and reports version
information.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Config{
			Level:      log.Level(logLevel),
			JSONOutput: logJSON,
			Output:     os.Stderr,
		})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"platformctl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit structured JSON logs")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(versionCmd)
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered providers and the services they implement",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := provider.NewRegistry()
		mock.Register(reg)
		aws.Register(reg)

		for _, p := range reg.Providers() {
			fmt.Printf("%s\n", p)
			fmt.Println("  control-plane services:")
			for _, id := range provider.ControlServices() {
				if reg.Supports(p, id) {
					fmt.Printf("    %s\n", id)
				}
			}
			fmt.Println("  data-plane clients:")
			for _, id := range provider.DataClients() {
				if reg.Supports(p, id) {
					fmt.Printf("    %s\n", id)
				}
			}
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("platformctl version %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Built: %s\n", BuildTime)
	},
}
