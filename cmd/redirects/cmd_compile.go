package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/summitlift/elevator-site/internal/redirects"
	"github.com/summitlift/elevator-site/pkg/logging"
)

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the compiled redirect rules",
		Long: `Reads the mapping file and prints the deduplicated permanent redirect
rules. A missing or malformed file compiles to an empty table and malformed
entries are dropped, matching what the server would serve; use --strict to
fail instead.`,
		Args: cobra.NoArgs,
		RunE: runCompile,
	}
	cmd.Flags().Bool("json", false, "print rules as a JSON array")
	cmd.Flags().Bool("strict", false, "fail when the mapping file cannot be compiled")
	return cmd
}

func runCompile(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	strict, _ := cmd.Flags().GetBool("strict")

	rules, err := loadRules(cmd, strict)
	if err != nil {
		return err
	}
	return printRules(cmd.OutOrStdout(), rules, asJSON)
}

// loadRules compiles the --file mappings. Strict mode surfaces decode errors
// that the lenient loaders only log.
func loadRules(cmd *cobra.Command, strict bool) ([]redirects.Rule, error) {
	path, _ := cmd.Flags().GetString("file")
	level, _ := cmd.Flags().GetString("log-level")
	logger := logging.NewWithWriter(level, cmd.ErrOrStderr())

	if path != "-" && !strict {
		return redirects.LoadFile(path, logger), nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if strict {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		logger.Warn("redirects: mapping input unreadable", "path", path, "error", err)
		return []redirects.Rule{}, nil
	}
	if !strict {
		return redirects.Parse(data), nil
	}
	mappings, skipped, err := redirects.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(skipped) > 0 {
		errs := make([]error, 0, len(skipped))
		for _, entryErr := range skipped {
			errs = append(errs, entryErr)
		}
		return nil, fmt.Errorf("decode %s: %w", path, errors.Join(errs...))
	}
	return redirects.Compile(mappings), nil
}

func printRules(w io.Writer, rules []redirects.Rule, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rules)
	}
	for _, rule := range rules {
		if _, err := fmt.Fprintln(w, rule.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d rule(s)\n", len(rules))
	return err
}
