package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"argus/bootstrap"
	"argus/intel"
)

func newIntelCmd() *cobra.Command {
	intelCmd := &cobra.Command{
		Use:   "intel",
		Short: "Manage threat intelligence",
	}

	intelCmd.AddCommand(newIntelShowCmd())
	intelCmd.AddCommand(newIntelLoadCmd())
	return intelCmd
}

func newIntelShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active threat intelligence snapshot",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := bootstrap.NewApp(configFile)
			if err != nil {
				return err
			}
			defer app.Close()

			snap := app.Intel.Snapshot()
			if outputJSON {
				return printJSON(map[string]any{
					"version":             snap.Version,
					"high_risk_ips":       intel.Indicators(snap.HighRiskIPs),
					"malicious_domains":   intel.Indicators(snap.MaliciousDomains),
					"suspicious_keywords": intel.Indicators(snap.SuspiciousKeywords),
				})
			}

			headerColor.Printf("Threat intelligence snapshot v%d\n", snap.Version)
			printIndicatorSet("high-risk IPs", intel.Indicators(snap.HighRiskIPs))
			printIndicatorSet("malicious domains", intel.Indicators(snap.MaliciousDomains))
			printIndicatorSet("suspicious keywords", intel.Indicators(snap.SuspiciousKeywords))
			return nil
		},
	}
}

func newIntelLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <feed-file> [...]",
		Short: "Validate threat intelligence feed files",
		Long: `Parse and validate YAML or JSON indicator feed files and report what
they would add to the active snapshot. Add files to intel.feed_files in
the config to load them at startup.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			for _, path := range args {
				update, err := intel.LoadFeedFile(path)
				if err != nil {
					errorColor.Printf("✗ %s: %v\n", path, err)
					return fmt.Errorf("invalid feed file %s", path)
				}
				successColor.Printf("✓ %s", path)
				fmt.Printf(" (%d IPs, %d domains, %d keywords)\n",
					len(update.HighRiskIPs),
					len(update.MaliciousDomains),
					len(update.SuspiciousKeywords))
			}
			return nil
		},
	}
}

func printIndicatorSet(label string, values []string) {
	infoColor.Printf("  %s (%d)\n", label, len(values))
	for _, value := range values {
		fmt.Printf("    %s\n", value)
	}
}
