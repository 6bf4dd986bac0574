package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/spf13/cobra"

	"github.com/summitlift/elevator-site/internal/redirects"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <url>...",
		Short: "Show where each URL would be redirected",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	rules, err := loadRules(cmd, false)
	if err != nil {
		return err
	}
	holder := redirects.NewHolder(rules, nil)
	handler := redirects.Middleware(holder)(http.NotFoundHandler())

	out := cmd.OutOrStdout()
	for _, target := range args {
		req, err := http.NewRequest(http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("invalid url %q: %w", target, err)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusPermanentRedirect {
			fmt.Fprintf(out, "%s -> %s (308)\n", target, rec.Header().Get("Location"))
			continue
		}
		fmt.Fprintf(out, "%s: no redirect\n", target)
	}
	return nil
}
