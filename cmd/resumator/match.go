package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumator/internal/backend"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score a candidate profile against a job posting",
	Long:  "Extract a job posting and ask the backend how well the candidate profile matches it.",
	RunE:  runMatch,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a resume tailored to a job posting",
	Long:  "Extract a job posting, send it with the candidate profile to the backend and save the returned PDF.",
	RunE:  runGenerate,
}

var (
	jobURL         string
	jobFile        string
	jobPageURL     string
	jobDescription string
	jobTitle       string
	profilePath    string
	resumeOutDir   string
)

func init() {
	for _, c := range []*cobra.Command{matchCmd, generateCmd} {
		c.Flags().StringVarP(&jobURL, "url", "u", "", "Job posting URL")
		c.Flags().StringVarP(&jobFile, "file", "f", "", "Saved HTML job page")
		c.Flags().StringVar(&jobPageURL, "page-url", "", "Original URL of --file, used for platform detection")
		c.Flags().StringVar(&jobDescription, "description", "", "Job description text, skipping extraction")
		c.Flags().StringVar(&jobTitle, "title", "", "Override the job title")
		c.Flags().StringVarP(&profilePath, "profile", "p", "", "Candidate profile (YAML or JSON)")
		_ = c.MarkFlagRequired("profile")
		c.MarkFlagsMutuallyExclusive("url", "file", "description")
		rootCmd.AddCommand(c)
	}
	generateCmd.Flags().StringVarP(&resumeOutDir, "out", "o", ".", "Directory for the generated PDF")
}

func backendRequest(cmd *cobra.Command) (*backend.Request, string, error) {
	profile, err := loadProfile(profilePath)
	if err != nil {
		return nil, "", err
	}
	opts, err := cfg.IngestionOptions()
	if err != nil {
		return nil, "", err
	}
	src := jobSource{url: jobURL, file: jobFile, pageURL: jobPageURL, description: jobDescription, title: jobTitle}
	rec, err := src.resolve(cmd.Context(), opts)
	if err != nil {
		return nil, "", err
	}
	return &backend.Request{UserData: profile, JobDescription: rec.Description}, rec.Title, nil
}

func runMatch(cmd *cobra.Command, _ []string) error {
	req, title, err := backendRequest(cmd)
	if err != nil {
		return err
	}
	result, err := cfg.BackendClient().Match(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if title != "" {
		fmt.Fprintf(out, "Job: %s\n", title)
	}
	fmt.Fprintf(out, "Match score: %.0f/100\n", result.Score)
	if result.Reasoning != "" {
		fmt.Fprintf(out, "Reasoning: %s\n", result.Reasoning)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	req, title, err := backendRequest(cmd)
	if err != nil {
		return err
	}
	pdf, err := cfg.BackendClient().Generate(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	path, err := writeResume(resumeOutDir, title, pdf)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Resume written to %s\n", path)
	return nil
}
