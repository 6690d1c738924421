// File: cmd/config.go
package cmd

import (
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/errsynth/internal/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Prints the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

// printConfig writes cfg as YAML with the database password masked.
func printConfig(out io.Writer, cfg config.Interface) error {
	c, ok := cfg.(*config.Config)
	if !ok {
		return fmt.Errorf("unsupported configuration type %T", cfg)
	}
	masked := *c
	masked.DatabaseCfg.URL = maskPassword(masked.DatabaseCfg.URL)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}
	return enc.Close()
}

// maskPassword hides the password of a connection URL. Strings that do not
// parse as URLs are returned unchanged.
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, set := u.User.Password(); !set {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
