package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/liamcoop/scid/rules"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate factor rule sets",
	}
	cmd.AddCommand(newRulesListCmd(a), newRulesCheckCmd(), newRulesExportCmd())
	return cmd
}

func newRulesListCmd(a *app) *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the active rules",
		Long:  "Lists the rules from --rules, the configured rule file, or the built-in set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rulesPath == "" {
				rulesPath = a.cfg.Engine.RulesPath
			}
			assessor, err := NewAssessor(EngineRules, rulesPath, a.cfg.Policy())
			if err != nil {
				return err
			}
			active, err := assessor.Rules()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FACTOR\tID\tEXPRESSION")
			for _, r := range active {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Factor, r.ID, r.Expression)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML rule file")
	return cmd
}

func newRulesCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Validate and compile rule files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				rs, err := rules.LoadRuleFile(path)
				if err == nil {
					_, err = rules.NewEngineFromRules(rs)
				}
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d rules)\n", path, len(rs))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d rule files failed", failed, len(args))
			}
			return nil
		},
	}
}

func newRulesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the built-in rule set as a rule file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := rules.MarshalRuleFile(rules.DefaultRules())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
