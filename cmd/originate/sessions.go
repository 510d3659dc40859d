package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tradewise-tools/originate/internal/cli"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect saved analysis sessions",
	}

	cmd.AddCommand(sessionsListCmd())
	cmd.AddCommand(sessionsShowCmd())

	return cmd
}

func sessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved analysis sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sessions, err := store.ListSessions(ctx)
			if err != nil {
				return err
			}

			if len(sessions) == 0 {
				fmt.Println(cli.FormatWarning("No saved sessions"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Analysis Sessions"))
			for _, s := range sessions {
				fmt.Printf("%4d  %s  %-16s  %s\n",
					s.ID,
					s.CreatedAt.Format("2006-01-02 15:04"),
					s.Verdict,
					s.Filename)
			}
			return nil
		},
	}
}

func sessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved session's determination report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q: %w", args[0], err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			session, report, err := store.GetSession(ctx, id)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Session %d: %s (%s)",
				session.ID, session.Filename, session.CreatedAt.Format("2006-01-02 15:04"))))
			fmt.Println(cli.RenderReport(report))

			materials, err := store.GetMaterials(ctx, id)
			if err != nil {
				return err
			}
			for _, m := range materials {
				if m.Rejected {
					fmt.Println(cli.FormatWarning(fmt.Sprintf("rejected row %d: %s", m.Position+2, m.RejectReason)))
				}
			}
			return nil
		},
	}
}
