package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// processCmd runs assessments from the command line without starting the server
var processCmd = &cobra.Command{
	Use:   "process [domain...]",
	Short: "assess domains now, or the whole pending queue with --all",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !k.Bool("all") && len(args) == 0 {
			return ErrNothingToProcess
		}

		return process(cmd.Context(), args)
	},
}

// init registers the process command and its flags on the root command
func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().Bool("all", false, "process every pending domain in the queue")
	processCmd.Flags().Int("concurrency", 3, "domains processed at once with --all")
}

// process assesses the named domains, then the queue when --all is set, printing JSON results
func process(ctx context.Context, domains []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := setupStore(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() { _ = st.Close() }()

	coord, err := setupCoordinator(cfg, st)
	if err != nil {
		return fmt.Errorf("setting up coordinator: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, d := range domains {
		result, err := coord.ProcessOne(ctx, d)
		if err != nil {
			return fmt.Errorf("processing %s: %w", d, err)
		}

		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	if !k.Bool("all") {
		return nil
	}

	summary, err := coord.ProcessAll(ctx, k.Int("concurrency"))
	if err != nil {
		return fmt.Errorf("processing queue: %w", err)
	}

	return enc.Encode(summary)
}
