package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/insight-pipeline/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := renderConfig(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

// renderConfig marshals the effective configuration with the API key
// masked so the output is safe to paste into tickets.
func renderConfig(c *config.Config) (string, error) {
	masked := *c
	if masked.Anthropic.Key != "" {
		masked.Anthropic.Key = "****"
	}

	data, err := yaml.Marshal(&masked)
	if err != nil {
		return "", eris.Wrap(err, "marshal config")
	}
	return string(data), nil
}

func init() {
	rootCmd.AddCommand(configCmd)
}
