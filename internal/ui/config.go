package ui

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nidoapp/nido/internal/config"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  nido config`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInteractive()
		},
	}
}

func runConfigInteractive() error {
	configPath := config.DefaultConfigPath()
	fmt.Printf("Config file: %s\n\n", configPath)

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, fileErr := os.Stat(configPath)
	isNew := os.IsNotExist(fileErr)

	if isNew {
		fmt.Println("No config file found. Creating with default values...")
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Created %s\n\n", configPath)
	}

	printConfig(cfg)

	if !promptYesNo("\nWould you like to edit the configuration?") {
		return nil
	}

	reader := bufio.NewReader(os.Stdin)

	cfg.Care.WindowStart = promptValue(reader, "Care window start", cfg.Care.WindowStart)
	cfg.Care.WindowEnd = promptValue(reader, "Care window end", cfg.Care.WindowEnd)
	cfg.Care.BalanceThresholdHours = promptFloat(reader, "Balance threshold (hours)", cfg.Care.BalanceThresholdHours)
	cfg.Apply.WindowPolicy = promptValue(reader, "Window policy (reject/clamp)", cfg.Apply.WindowPolicy)
	cfg.Providers.ParentA = promptValue(reader, "Parent A display name", cfg.Providers.ParentA)
	cfg.Providers.ParentB = promptValue(reader, "Parent B display name", cfg.Providers.ParentB)
	cfg.Providers.Nanny = promptValue(reader, "Nanny display name", cfg.Providers.Nanny)
	cfg.LLM.Provider = promptValue(reader, "LLM provider", cfg.LLM.Provider)
	cfg.LLM.Model = promptValue(reader, "LLM model", cfg.LLM.Model)
	cfg.LLM.BaseURL = promptValue(reader, "LLM base URL (Ollama/LM Studio)", cfg.LLM.BaseURL)
	cfg.Storage.DBPath = promptValue(reader, "Database path", cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println("\nConfiguration saved!")
	return nil
}

func printConfig(cfg *config.Config) {
	fmt.Println("Current configuration:")
	fmt.Println("──────────────────────")
	fmt.Println("[care]")
	fmt.Printf("  window_start            = %s\n", cfg.Care.WindowStart)
	fmt.Printf("  window_end              = %s\n", cfg.Care.WindowEnd)
	fmt.Printf("  balance_threshold_hours = %g\n", cfg.Care.BalanceThresholdHours)
	fmt.Println("\n[apply]")
	fmt.Printf("  window_policy           = %s\n", cfg.Apply.WindowPolicy)
	fmt.Println("\n[providers]")
	fmt.Printf("  parent_a                = %s\n", cfg.Providers.ParentA)
	fmt.Printf("  parent_b                = %s\n", cfg.Providers.ParentB)
	fmt.Printf("  nanny                   = %s\n", cfg.Providers.Nanny)
	fmt.Println("\n[llm]")
	fmt.Printf("  provider                = %s\n", cfg.LLM.Provider)
	fmt.Printf("  model                   = %s\n", cfg.LLM.Model)
	fmt.Printf("  base_url                = %s\n", cfg.LLM.BaseURL)
	fmt.Println("\n[storage]")
	fmt.Printf("  db_path                 = %s\n", cfg.Storage.DBPath)
}

func promptYesNo(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, label, current string) string {
	if current == "" {
		fmt.Printf("  %s: ", label)
	} else {
		fmt.Printf("  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	for {
		input := promptValue(reader, label, strconv.FormatFloat(current, 'g', -1, 64))
		value, err := strconv.ParseFloat(input, 64)
		if err != nil {
			fmt.Printf("  Invalid number %q.\n", input)
			continue
		}
		return value
	}
}
