package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/resumator/internal/scrape"
)

var locatorsCmd = &cobra.Command{
	Use:   "locators",
	Short: "Print the effective locator tables",
	Long: "Print the per-platform locator chains in effect, including overrides from the " +
		"configured locators file. The output is a valid locators file.",
	RunE: runLocators,
}

var locatorsJSON bool

func init() {
	locatorsCmd.Flags().BoolVar(&locatorsJSON, "json", false, "Print JSON instead of YAML")
	rootCmd.AddCommand(locatorsCmd)
}

func runLocators(cmd *cobra.Command, _ []string) error {
	opts, err := cfg.ScrapeOptions()
	if err != nil {
		return err
	}
	locators := opts.Locators
	if locators == nil {
		locators = scrape.DefaultLocators()
	}

	var data []byte
	if locatorsJSON {
		data, err = json.MarshalIndent(locators, "", "  ")
	} else {
		data, err = yaml.Marshal(locators)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal locators: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
