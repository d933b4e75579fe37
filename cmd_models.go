package main

import (
	"fmt"
	"io"

	"triage_server/core/domain"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Print the model endpoints in fallback order",
	RunE: func(cmd *cobra.Command, args []string) error {
		if modelsJSON {
			return writeJSON(cmd.OutOrStdout(), cfg.Models)
		}
		return writeModels(cmd.OutOrStdout(), cfg.Models)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "triage %s\n", version)
	},
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "print JSON instead of YAML")
}

// writeModels prints the catalogue in the same shape the models file uses.
func writeModels(w io.Writer, models []domain.ModelEndpoint) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(struct {
		Models []domain.ModelEndpoint `yaml:"models"`
	}{Models: models})
}
