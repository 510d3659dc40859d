package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradewise-tools/originate/internal/cli"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the loaded FTA origin rules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the configured origin rules",
		RunE: func(_ *cobra.Command, _ []string) error {
			repo, err := initRules()
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("FTA Origin Rules"))
			for _, rule := range repo.Rules() {
				fmt.Printf("%-10s  headings %s-%s  threshold %s%%\n",
					rule.TradeAgreement, rule.HeadingStart, rule.HeadingEnd, rule.Threshold)
				if rule.RuleText != "" {
					fmt.Println("  " + cli.SubtleStyle.Render(rule.RuleText))
				}
				for _, evidence := range rule.RequiredEvidence {
					fmt.Println("  - " + cli.SubtleStyle.Render(evidence))
				}
			}
			return nil
		},
	})

	return cmd
}
