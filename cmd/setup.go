package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"reels-relay/domain/schedule"
	"reels-relay/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Password(message string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Password(message string) (string, error) {
	result := ""
	prompt := &survey.Password{
		Message: message,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through setting up the source account, the
Instagram token, Google credentials, the archive folder and the schedule.
Every value can still be overridden from the environment.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	return RunSetupWithPrompter(DefaultPrompter, cfgFile, DefaultOutput)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out io.Writer) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to reels-relay setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	if err := promptTikTok(prompter, cfg); err != nil {
		return err
	}
	if err := promptInstagram(prompter, cfg); err != nil {
		return err
	}
	if err := promptGoogle(prompter, cfg); err != nil {
		return err
	}
	if err := promptSchedule(prompter, cfg); err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

func promptTikTok(prompter Prompter, cfg *config.Config) error {
	username, err := prompter.Input("TikTok account to republish (without @)?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return fmt.Errorf("TikTok username is required")
	}
	cfg.TikTok.Username = username

	useApify, err := prompter.Confirm("Fetch through Apify instead of yt-dlp?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if useApify {
		cfg.TikTok.Source = config.SourceApify
		token, err := prompter.Password("Apify API token?")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if token == "" {
			return fmt.Errorf("Apify token is required for the apify source")
		}
		cfg.TikTok.ApifyToken = token
	}

	dir, err := prompter.Input("Where should downloads go?", "downloads")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if dir == "" {
		dir = "downloads"
	}
	cfg.TikTok.DownloadDir = dir

	return nil
}

func promptInstagram(prompter Prompter, cfg *config.Config) error {
	token, err := prompter.Password("Instagram Graph API access token?")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if token == "" {
		return fmt.Errorf("Instagram token is required")
	}
	cfg.Instagram.AccessToken = token

	caption, err := prompter.Input("Caption for every post?", config.DefaultCaption)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if caption != "" {
		cfg.Instagram.Caption = caption
	}

	return nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	credentialsPath, err := prompter.Input("Path to Google service account JSON?", "credentials.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentialsPath == "" {
		credentialsPath = "credentials.json"
	}
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	cfg.Google.Credentials = string(data)

	archive, err := prompter.Confirm("Archive videos to Google Drive?", true)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !archive {
		return nil
	}

	folder, err := prompter.Input("Google Drive folder ID for archives?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required when archiving")
	}
	cfg.Google.DriveFolderID = folder

	return nil
}

func promptSchedule(prompter Prompter, cfg *config.Config) error {
	value, err := prompter.Input("Times of day to post (HH:MM, comma separated)?", strings.Join(cfg.Schedule.Times, ","))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}

	var times []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			times = append(times, part)
		}
	}
	if _, err := schedule.ParseClockTimes(times); err != nil {
		return err
	}
	cfg.Schedule.Times = times

	return nil
}
