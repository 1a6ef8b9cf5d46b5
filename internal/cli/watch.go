package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/app"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/feedback"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCommand() *cobra.Command {
	var voter string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the ranked feedback list every time it changes",
		Long: `Print the ranked feedback list every time it changes.

Lines read from stdin act on the open view:
  as <identity>   render for another identity; "as" alone signs out
  up <item-id>    vote on an item as the current identity
  down <item-id>  same as up with the other polarity`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			clock := clockwork.NewRealClock()
			reg := metrics.NewRegistry()

			b, err := openBackend(ctx, cfg, clock, reg, backendOptions{})
			if err != nil {
				return err
			}
			defer b.Close()

			g, gctx := errgroup.WithContext(ctx)
			for _, run := range b.runners {
				g.Go(func() error { return run(gctx) })
			}

			svc := b.service(cfg, clock, reg)
			view := svc.NewView(domain.Identity(voter))
			if err := view.Mount(gctx); err != nil {
				stop()
				_ = g.Wait()
				return err
			}

			out := cmd.OutOrStdout()
			go readWatchInput(gctx, cmd.InOrStdin(), cmd.ErrOrStderr(), view, svc)

			for snap := range view.Updates() {
				printSnapshot(out, snap)
			}
			view.Unmount()

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&voter, "as", "", "identity whose own votes are shown")
	return cmd
}

var errUnknownWatchCommand = errors.New("unknown command; use as, up or down")

// readWatchInput applies stdin lines to view until input ends or the view is torn down.
func readWatchInput(ctx context.Context, in io.Reader, errOut io.Writer, view *app.LiveView, svc *app.Service) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case <-view.Done():
			return
		default:
		}
		msg, err := applyWatchLine(ctx, scanner.Text(), view, svc)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}
		if msg != "" {
			fmt.Fprintln(errOut, msg)
		}
	}
}

// applyWatchLine runs one watch command. Votes take the current polarity from
// the snapshot on screen, as the web page does.
func applyWatchLine(ctx context.Context, line string, view *app.LiveView, svc *app.Service) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	switch fields[0] {
	case "as":
		identity := domain.Anonymous
		if len(fields) > 1 {
			identity = domain.Identity(fields[1])
		}
		view.SetVoter(identity)
		if !identity.Present() {
			return "watching anonymously", nil
		}
		return fmt.Sprintf("watching as %s", identity), nil
	case "up", "down":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: %s <item-id>", fields[0])
		}
		voter := view.Voter()
		if !voter.Present() {
			return "", errVoterRequired
		}
		desired, err := domain.ParsePolarity(fields[0])
		if err != nil {
			return "", err
		}
		current, err := shownVote(view.Current(), fields[1])
		if err != nil {
			return "", err
		}
		op, err := svc.ApplyVote(ctx, feedback.VoteRequest{
			ItemID:  fields[1],
			Voter:   voter,
			Current: current,
			Desired: desired,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s vote on %s", op, desired, fields[1]), nil
	default:
		return "", errUnknownWatchCommand
	}
}

func shownVote(snap domain.Snapshot, itemID string) (domain.Polarity, error) {
	for _, item := range snap.Items {
		if item.ID == itemID {
			return item.UserVote, nil
		}
	}
	return domain.PolarityNone, fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
}

func printSnapshot(w io.Writer, snap domain.Snapshot) {
	fmt.Fprintf(w, "\n== version %d at %s ==\n", snap.Version, snap.FetchedAt.Format("15:04:05"))
	if snap.Failed() {
		fmt.Fprintf(w, "error: %v\n", snap.Err)
		return
	}
	if len(snap.Items) == 0 {
		fmt.Fprintln(w, "no feedback yet")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNET\tUP\tDOWN\tYOU\tTITLE\tID")
	for i, item := range snap.Items {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
			i+1, item.Net, item.Upvotes, item.Downvotes, userVoteMark(item.UserVote), item.Title, item.ID)
	}
	_ = tw.Flush()
}

func userVoteMark(p domain.Polarity) string {
	switch p {
	case domain.PolarityUp:
		return "+"
	case domain.PolarityDown:
		return "-"
	default:
		return ""
	}
}
