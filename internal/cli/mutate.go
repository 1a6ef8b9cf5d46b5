package cli

import (
	"errors"
	"fmt"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var errVoterRequired = errors.New("--as is required")

func newVoteCommand() *cobra.Command {
	var voter string

	cmd := &cobra.Command{
		Use:   "vote <item-id> <up|down>",
		Short: "Vote on a feedback item; repeating the same vote retracts it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if voter == "" {
				return errVoterRequired
			}
			desired, err := domain.ParsePolarity(args[1])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			clock := clockwork.NewRealClock()
			reg := metrics.NewRegistry()

			b, err := openBackend(ctx, cfg, clock, reg, backendOptions{})
			if err != nil {
				return err
			}
			defer b.Close()

			op, err := b.service(cfg, clock, reg).CastVote(ctx, args[0], domain.Identity(voter), desired)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s vote on %s\n", op, desired, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&voter, "as", "", "voter identity")
	return cmd
}

func newSubmitCommand() *cobra.Command {
	var (
		author      string
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a feedback item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if author == "" {
				return errVoterRequired
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			clock := clockwork.NewRealClock()
			reg := metrics.NewRegistry()

			b, err := openBackend(ctx, cfg, clock, reg, backendOptions{})
			if err != nil {
				return err
			}
			defer b.Close()

			item, err := b.service(cfg, clock, reg).Submit(ctx, domain.Identity(author), title, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q\n", item.ID, item.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "as", "", "author identity")
	cmd.Flags().StringVar(&title, "title", "", "feedback title")
	cmd.Flags().StringVar(&description, "description", "", "optional description")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
