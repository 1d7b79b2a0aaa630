package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
	"github.com/gtmod/gtmod/pkg/gtmod/history"
	"github.com/gtmod/gtmod/pkg/gtmod/logging"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the history of packaging, bundling, extraction, and conversion
operations, including the files each one produced.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a specific operation",
	Long:  `Display detailed information about a specific operation by its ID.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var (
	historyLimit int
	historyType  string
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")
	historyCmd.Flags().StringVarP(&historyType, "type", "t", "", "filter by operation type (package, bundle, extract, convert)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getHistory returns a history instance with the configured directory.
func getHistory(cfg *config.Config) (*history.History, error) {
	dir := cfg.History.Path
	if dir == "" {
		var err error
		dir, err = config.HistoryDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get history directory: %w", err)
		}
	}
	return history.New(dir)
}

// logHistory records an operation's outputs, when history is enabled.
// History failures are logged, never surfaced; a missing log entry must not
// fail a successful operation.
func logHistory(cfg *config.Config, op history.OperationType, outputs []history.OutputRecord) {
	if !cfg.History.Enabled || len(outputs) == 0 {
		return
	}
	h, err := getHistory(cfg)
	if err != nil {
		logging.Get("history").Warn("could not open history", "error", err)
		return
	}
	if err := h.EnsureDir(); err != nil {
		logging.Get("history").Warn("could not create history directory", "error", err)
		return
	}
	if _, err := h.Log(op, outputs); err != nil {
		logging.Get("history").Warn("could not record operation", "operation", op, "error", err)
	}
}

// runHistory lists recent operations.
func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	h, err := getHistory(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	var op history.OperationType
	if historyType != "" {
		op, err = history.ParseOperation(historyType)
		if err != nil {
			return err
		}
	}

	entries, err := h.List(historyLimit, op)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		if op != "" {
			printInfo("No %s entries found.", op)
			return nil
		}
		printInfo("No history entries found.")
		printInfo("Run 'gtmod package' or 'gtmod extract' to get started.")
		return nil
	}

	fmt.Printf("\n%-40s  %-8s  %-8s  %-12s\n", "ID", "TYPE", "OUTPUTS", "SIZE")
	fmt.Println(strings.Repeat("-", 76))

	for _, entry := range entries {
		fmt.Printf("%-40s  %-8s  %-8d  %-12s\n",
			truncateString(entry.ID, 40),
			entry.Operation,
			entry.Summary.TotalOutputs,
			humanize.Bytes(uint64(entry.Summary.TotalBytes)),
		)
	}

	fmt.Println(strings.Repeat("-", 76))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'gtmod history show <id>' for details on a specific entry.")

	return nil
}

// runHistoryShow displays details of a specific operation.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	h, err := getHistory(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	entry, err := h.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nOperation Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", entry.ID)
	fmt.Printf("Timestamp:  %s\n", entry.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Operation:  %s\n", entry.Operation)
	fmt.Printf("Outputs:    %d\n", entry.Summary.TotalOutputs)
	fmt.Printf("Total Size: %s\n", humanize.Bytes(uint64(entry.Summary.TotalBytes)))

	if len(entry.Outputs) > 0 {
		fmt.Println("\nOutputs:")
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("%-12s  %s\n", "SIZE", "PATH")
		fmt.Println(strings.Repeat("-", 60))

		for _, out := range entry.Outputs {
			fmt.Printf("%-12s  %s\n", humanize.Bytes(uint64(out.Size)), out.Path)
		}
	}

	return nil
}

// runHistoryClean removes old history entries.
func runHistoryClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	h, err := getHistory(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	retentionDays := cfg.History.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	if err := h.Cleanup(retentionDays); err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("History cleanup complete.")
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
