package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradewise-tools/originate/internal/cli"
	"github.com/tradewise-tools/originate/internal/common"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <hs-code>",
		Short: "Resolve an HS code to its origin-rule category",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			classifier, err := initClassifier()
			if err != nil {
				return err
			}

			classification, err := classifier.Classify(args[0])
			if err != nil {
				if errors.Is(err, common.ErrUnknownHSCode) {
					fmt.Println(cli.FormatWarning(err.Error()))
					return nil
				}
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s → %s (headings %s-%s)",
				classification.Code, classification.Category,
				classification.HeadingStart, classification.HeadingEnd)))
			fmt.Println("  " + cli.SubtleStyle.Render(classification.Description))
			return nil
		},
	}
}
