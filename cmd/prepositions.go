// File: cmd/prepositions.go
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/config"
	"github.com/xkilldash9x/errsynth/internal/observability"
	"github.com/xkilldash9x/errsynth/internal/service"
)

// ErrStatisticsUnavailable is returned by share queries on a store that only
// supports the aggregate frequency table.
var ErrStatisticsUnavailable = errors.New("detailed preposition statistics require the postgres driver")

func newPrepositionsCmd(factory service.ComponentFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepositions",
		Short: "Inspects and feeds the preposition usage store",
	}
	cmd.AddCommand(
		newPrepositionsTableCmd(factory),
		newPrepositionsReplaceCmd(factory),
		newPrepositionsImportCmd(factory),
		newPrepositionsShareCmd(factory),
	)
	return cmd
}

// withStore creates the components with the usage store open and runs fn.
func withStore(cmd *cobra.Command, factory service.ComponentFactory, fn func(ctx context.Context, cfg config.Interface, c *service.Components) error) error {
	ctx := cmd.Context()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	components, err := factory.Create(ctx, cfg, observability.GetLogger(), service.CreateOptions{WithStore: true})
	if err != nil {
		return fmt.Errorf("failed to initialize preposition store: %w", err)
	}
	defer components.Shutdown()
	return fn(ctx, cfg, components)
}

func newPrepositionsTableCmd(factory service.ComponentFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Prints the preposition frequency table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, factory, func(ctx context.Context, cfg config.Interface, c *service.Components) error {
				freqs, err := c.Prepositions.Frequencies(ctx)
				if err != nil {
					return err
				}
				return printFrequencies(cmd.OutOrStdout(), freqs, cfg.Prepositions().MinShare)
			})
		},
	}
}

func printFrequencies(out io.Writer, freqs []schemas.PrepositionFrequency, minShare float64) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PREPOSITION\tCOUNT\tSHARE\tELIGIBLE")
	for _, f := range freqs {
		fmt.Fprintf(tw, "%s\t%d\t%.5f\t%t\n", f.Preposition, f.Count, f.Percentage, f.Percentage > minShare)
	}
	return tw.Flush()
}

func newPrepositionsReplaceCmd(factory service.ComponentFactory) *cobra.Command {
	var seed uint64

	cmd := &cobra.Command{
		Use:   "replace <word...>",
		Short: "Draws a replacement for each word by preposition frequency",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("seed") {
				cfg, err := getConfigFromContext(cmd.Context())
				if err != nil {
					return err
				}
				cfg.SetEngineSeed(seed)
			}
			return withStore(cmd, factory, func(ctx context.Context, _ config.Interface, c *service.Components) error {
				out := cmd.OutOrStdout()
				for _, word := range args {
					replacement, err := c.Prepositions.Replace(ctx, word)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s -> %s\n", word, replacement)
				}
				return nil
			})
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible draw (default engine.seed)")
	return cmd
}

func newPrepositionsImportCmd(factory service.ComponentFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "import <usages.jsonl>",
		Short: "Loads preposition usages (one JSON object per line) into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open usages: %w", err)
			}
			defer f.Close()
			return withStore(cmd, factory, func(ctx context.Context, _ config.Interface, c *service.Components) error {
				return runImport(ctx, c, f, observability.GetLogger(), cmd.OutOrStdout())
			})
		},
	}
}

// runImport streams usages from r into the store. Malformed lines are
// logged and skipped.
func runImport(ctx context.Context, c *service.Components, r io.Reader, logger *zap.Logger, out io.Writer) error {
	usages := make(chan schemas.PrepositionUsage, 256)
	saved, err := c.ImportUsages(ctx, usages)
	if err != nil {
		close(usages)
		return err
	}

	var read, malformed int
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var scanErr error
	for line := 1; scanner.Scan(); line++ {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var u schemas.PrepositionUsage
		if err := json.Unmarshal(raw, &u); err != nil || u.MainWord == "" {
			malformed++
			logger.Warn("Skipping malformed usage line", zap.Int("line", line), zap.Error(err))
			continue
		}
		select {
		case usages <- u:
			read++
		case <-ctx.Done():
			scanErr = ctx.Err()
		}
		if scanErr != nil {
			break
		}
	}
	if scanErr == nil {
		scanErr = scanner.Err()
	}
	close(usages)
	c.WaitImport()

	if scanErr != nil {
		return fmt.Errorf("import stopped after %d usages: %w", saved.Load(), scanErr)
	}
	fmt.Fprintf(out, "Imported %d of %d usages (%d malformed lines)\n", saved.Load(), read, malformed)
	return nil
}

func newPrepositionsShareCmd(factory service.ComponentFactory) *cobra.Command {
	var depLemma, mainLemma, depCase string

	cmd := &cobra.Command{
		Use:   "share <preposition>",
		Short: "Prints the share of a preposition, overall or for a given word or case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, factory, func(ctx context.Context, _ config.Interface, c *service.Components) error {
				if c.Store == nil || c.Store.Statistics == nil {
					return ErrStatisticsUnavailable
				}
				st := c.Store.Statistics
				prep := args[0]
				out := cmd.OutOrStdout()

				overall, err := st.PrepPercentage(ctx, prep)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s overall: %.5f\n", prep, overall)

				type query struct {
					label string
					key   string
					share func() (float64, error)
					rare  func() (bool, error)
				}
				queries := []query{
					{"dependent lemma", depLemma,
						func() (float64, error) { return st.PrepPercentageForDepLemma(ctx, prep, depLemma) },
						func() (bool, error) { return st.IsPrepNotCommonForDepLemma(ctx, prep, depLemma) }},
					{"main lemma", mainLemma,
						func() (float64, error) { return st.PrepPercentageForMainLemma(ctx, prep, mainLemma) },
						func() (bool, error) { return st.IsPrepNotCommonForMainLemma(ctx, prep, mainLemma) }},
					{"case", depCase,
						func() (float64, error) { return st.PrepPercentageForCase(ctx, prep, depCase) },
						func() (bool, error) { return st.IsPrepNotCommonForCase(ctx, prep, depCase) }},
				}
				for _, q := range queries {
					if q.key == "" {
						continue
					}
					share, err := q.share()
					if err != nil {
						return err
					}
					rare, err := q.rare()
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s for %s %q: %.5f (rare: %t)\n", prep, q.label, q.key, share, rare)
				}
				if depCase != "" {
					casePct, err := st.CasePercentageForPrep(ctx, prep, depCase)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "case %s after %s: %.5f\n", depCase, prep, casePct)
				}
				if mainLemma != "" && depLemma != "" {
					same, err := st.SameByWordsAndPrep(ctx, mainLemma, depLemma, prep)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "observed %q %s %q: %d times\n", mainLemma, prep, depLemma, len(same))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&depLemma, "dep-lemma", "", "Dependent word lemma")
	cmd.Flags().StringVar(&mainLemma, "main-lemma", "", "Governing word lemma")
	cmd.Flags().StringVar(&depCase, "case", "", "Grammatical case of the dependent word (e.g. Loc)")
	return cmd
}
