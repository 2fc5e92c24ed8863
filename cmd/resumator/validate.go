package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumator/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file.json>",
	Short: "Validate a JSON file against a schema",
	Long: "Validate a job record or metadata file. --schema names a built-in schema " +
		"(job_record, job_record_meta) or a path to a JSON Schema file.",
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var validateSchema string

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", schemas.JobRecordSchema, "Built-in schema name or schema file path")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := validateFile(validateSchema, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
	return nil
}

func validateFile(schema, path string) error {
	if _, ok := schemas.Builtin(schema); ok {
		return schemas.ValidateBuiltinFile(schema, path)
	}
	return schemas.ValidateJSON(schema, path)
}
