package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/intercede-dev/intercede/internal/capability/accesscontrol"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Work with access-control policy documents",
}

// policyValidateCmd checks one or more policy files against the policy
// schema. Files validate in parallel; the command fails if any file
// does.
var policyValidateCmd = &cobra.Command{
	Use:   "validate <policy.yaml> [more...]",
	Short: "Validate access-control policy files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runPolicyValidate(ctx, args)
	},
}

func init() {
	policyCmd.AddCommand(policyValidateCmd)
	rootCmd.AddCommand(policyCmd)
}

func runPolicyValidate(ctx context.Context, paths []string) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]error, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			_, err := accesscontrol.LoadPolicy(path)
			results[i] = err
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, path := range paths {
		if results[i] != nil {
			failed++
			slog.Error("policy invalid", "file", path, "error", results[i])
			continue
		}
		fmt.Printf("%s: ok\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d policy files failed validation", failed, len(paths))
	}
	return nil
}
