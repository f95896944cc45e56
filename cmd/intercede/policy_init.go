package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/intercede-dev/intercede/internal/capability/accesscontrol"
)

type policyInitOptions struct {
	Output        string
	Read          string
	Write         string
	Invoke        string
	Construct     bool
	NoInteractive bool
}

var policyInitOpts policyInitOptions

// policyInitCmd scaffolds a new policy file, prompting for the
// allow-sets unless they were given as flags.
var policyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new access-control policy file",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runPolicyInit(policyInitOpts)
	},
}

func init() {
	policyInitCmd.Flags().StringVarP(&policyInitOpts.Output, "output", "o", "policy.yaml", "output file path")
	policyInitCmd.Flags().StringVar(&policyInitOpts.Read, "read", "", "comma-separated readable keys (\"*\" for all)")
	policyInitCmd.Flags().StringVar(&policyInitOpts.Write, "write", "", "comma-separated writable keys")
	policyInitCmd.Flags().StringVar(&policyInitOpts.Invoke, "invoke", "", "comma-separated invokable methods")
	policyInitCmd.Flags().BoolVar(&policyInitOpts.Construct, "construct", false, "permit construction")
	policyInitCmd.Flags().BoolVar(&policyInitOpts.NoInteractive, "no-interactive", false, "skip prompts")

	policyCmd.AddCommand(policyInitCmd)
}

func runPolicyInit(opts policyInitOptions) error {
	if !opts.NoInteractive {
		if opts.Read == "" {
			err := huh.NewInput().
				Title("Readable keys (comma separated, \"*\" for all)").
				Value(&opts.Read).
				Run()
			if err != nil {
				return err
			}
		}

		if opts.Write == "" {
			err := huh.NewInput().
				Title("Writable keys (comma separated)").
				Value(&opts.Write).
				Run()
			if err != nil {
				return err
			}
		}

		if opts.Invoke == "" {
			err := huh.NewInput().
				Title("Invokable methods (comma separated)").
				Value(&opts.Invoke).
				Run()
			if err != nil {
				return err
			}
		}

		err := huh.NewConfirm().
			Title("Permit construction?").
			Value(&opts.Construct).
			Run()
		if err != nil {
			return err
		}
	}

	policy := accesscontrol.Policy{
		Version: "1.0.0",
		Allow: accesscontrol.AllowSets{
			Read:      splitKeys(opts.Read),
			Write:     splitKeys(opts.Write),
			Invoke:    splitKeys(opts.Invoke),
			Construct: opts.Construct,
		},
	}
	if err := policy.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to render policy: %w", err)
	}
	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Output, err)
	}

	fmt.Printf("wrote %s\n", opts.Output)
	return nil
}

func splitKeys(s string) []string {
	var keys []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
