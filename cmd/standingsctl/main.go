// Command standingsctl runs league standings operations without the chat bot.
//
// Usage:
//
//	standingsctl submit --division 1 "https://colonist.io/replay/..."
//	standingsctl roster --division CK --site colonist.io SomePlayer
//	standingsctl next-row --division 2
//	standingsctl games --division 1 --limit 10
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"catan-standings/internal/domain"
	fxmodules "catan-standings/internal/fx"
	"catan-standings/internal/ledger"
	"catan-standings/internal/repository"
	"catan-standings/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type deps struct {
	fx.In

	DB          *sql.DB
	Submissions *service.SubmissionService
	Players     *service.PlayerService
	Syncer      *ledger.Syncer
	Games       *repository.GameRepository
}

func main() {
	root := &cobra.Command{
		Use:           "standingsctl",
		Short:         "League standings admin CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(submitCmd())
	root.AddCommand(rosterCmd())
	root.AddCommand(nextRowCmd())
	root.AddCommand(gamesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run builds the application graph and hands the components to fn.
func run(fn func(ctx context.Context, d deps) error) error {
	var d deps
	app := fx.New(
		fxmodules.Module,
		fx.NopLogger,
		fx.Populate(&d),
	)
	if err := app.Err(); err != nil {
		return err
	}
	defer d.DB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return fn(ctx, d)
}

func divisionFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "division", "d", "1", "Division (1, 2, CK)")
}

func submitCmd() *cobra.Command {
	var division, author string
	cmd := &cobra.Command{
		Use:   "submit <message>",
		Short: "Submit a replay link to the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			div, err := domain.ParseDivision(division)
			if err != nil {
				return err
			}
			return run(func(ctx context.Context, d deps) error {
				res, err := d.Submissions.Submit(ctx, service.Submission{
					Division: div,
					Content:  strings.Join(args, " "),
					Author:   author,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				if res.SubmissionID != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "\nsubmission:", res.SubmissionID)
				}
				return nil
			})
		},
	}
	divisionFlag(cmd, &division)
	cmd.Flags().StringVar(&author, "author", "standingsctl", "Name shown as the poster")
	return cmd
}

func rosterCmd() *cobra.Command {
	var division, site string
	var refresh bool
	cmd := &cobra.Command{
		Use:   "roster <replay-site name>",
		Short: "Look up a replay-site handle on the division roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			div, err := domain.ParseDivision(division)
			if err != nil {
				return err
			}
			return run(func(ctx context.Context, d deps) error {
				if refresh {
					d.Players.RefreshRoster(div)
				}
				p, err := d.Players.GetPlayer(ctx, div, domain.Site(site), args[0])
				if err != nil {
					return err
				}
				if p == nil {
					return fmt.Errorf("%s is not on the division %s roster", args[0], div)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "discord name: %s\n", p.DiscordName)
				if p.DiscordID != "" {
					fmt.Fprintf(out, "discord id:   %s\n", p.DiscordID)
				}
				if p.ColonistUsername != "" {
					fmt.Fprintf(out, "colonist.io:  %s\n", p.ColonistUsername)
				}
				if p.TwoSheepUsername != "" {
					fmt.Fprintf(out, "twosheep.io:  %s\n", p.TwoSheepUsername)
				}
				return nil
			})
		},
	}
	divisionFlag(cmd, &division)
	cmd.Flags().StringVar(&site, "site", string(domain.SiteColonist), "Replay site (colonist.io, twosheep.io)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Drop the cached roster first")
	return cmd
}

func nextRowCmd() *cobra.Command {
	var division string
	cmd := &cobra.Command{
		Use:   "next-row",
		Short: "Print the first free ledger row of a division",
		RunE: func(cmd *cobra.Command, args []string) error {
			div, err := domain.ParseDivision(division)
			if err != nil {
				return err
			}
			return run(func(ctx context.Context, d deps) error {
				row, err := d.Syncer.NextFreeRow(ctx, div)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), row)
				return nil
			})
		},
	}
	divisionFlag(cmd, &division)
	return cmd
}

func gamesCmd() *cobra.Command {
	var division string
	var limit int
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List recently submitted games from the local mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			div, err := domain.ParseDivision(division)
			if err != nil {
				return err
			}
			return run(func(ctx context.Context, d deps) error {
				games, err := d.Games.List(ctx, div, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, g := range games {
					flags := ""
					if g.IsDuplicate {
						flags += " duplicate"
					}
					if g.IsOldGame {
						flags += " old"
					}
					fmt.Fprintf(out, "%s  %s  %s%s\n", domain.ISOTimestamp(g.PlayedAt), g.SubmissionID, g.ReplayLink, flags)
					for _, s := range g.Seats {
						fmt.Fprintf(out, "    %-30s %2d\n", s.Name, s.Score)
					}
				}
				return nil
			})
		},
	}
	divisionFlag(cmd, &division)
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of games")
	return cmd
}
