// File: cmd/inject.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/internal/config"
	"github.com/xkilldash9x/errsynth/internal/observability"
	"github.com/xkilldash9x/errsynth/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newInjectCmd creates the `inject` command, which corrupts a single sentence
// and prints the annotated record.
func newInjectCmd(factory service.ComponentFactory) *cobra.Command {
	var (
		mode      string
		seed      uint64
		errorRate float64
	)

	cmd := &cobra.Command{
		Use:   "inject <sentence...>",
		Short: "Injects errors into one sentence and prints the annotated record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			applyEngineFlags(cmd, cfg, mode, seed, errorRate)
			return runInject(ctx, cfg, observability.GetLogger(), factory, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}
	addEngineFlags(cmd, &mode, &seed, &errorRate)
	return cmd
}

func runInject(ctx context.Context, cfg config.Interface, logger *zap.Logger, factory service.ComponentFactory, sentence string, out io.Writer) error {
	engineCfg := cfg.Engine()
	if err := engineCfg.Validate(); err != nil {
		return fmt.Errorf("invalid engine settings: %w", err)
	}

	components, err := factory.Create(ctx, cfg, logger, service.CreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to initialize generation components: %w", err)
	}
	defer components.Shutdown()

	item, err := components.Engine.Generate(ctx, sentence, engineCfg.Mode)
	if err != nil {
		return fmt.Errorf("failed to inject errors: %w", err)
	}

	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
