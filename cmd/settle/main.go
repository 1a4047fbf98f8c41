// Command settle prints balances, a settlement plan and a ledger summary for
// a trip exported as YAML. It runs the same calculator as the server and
// needs no database.
//
// Usage:
//
//	settle [-v] trip.yaml
//	settle < trip.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mmynk/tripledger/internal/calculator"
	"github.com/mmynk/tripledger/internal/ledger"
	"github.com/mmynk/tripledger/pkg/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		slog.Error("settle failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("settle", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "log debug output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := logging.Setup(level)

	in := stdin
	if path := fs.Arg(0); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	t, err := readSnapshot(in)
	if err != nil {
		return err
	}
	logger.Debug("Snapshot loaded",
		"members", len(t.Members),
		"expenses", len(t.Expenses),
		"planned", len(t.Planned),
		"settlements", len(t.Settlements),
	)

	for _, s := range t.Settlements {
		if err := calculator.ValidateSettlement(s, t.Members); err != nil {
			return err
		}
	}
	balances, err := calculator.TripBalances(t.Expenses, t.Settlements, t.Members)
	if err != nil {
		return err
	}
	transfers, err := calculator.Plan(balances)
	if err != nil {
		return err
	}
	view, err := ledger.BuildView(t.Expenses, t.Planned, t.Members, t.Budget)
	if err != nil {
		return err
	}

	return writeReport(stdout, &report{
		trip:      t,
		balances:  calculator.Sorted(balances),
		transfers: transfers,
		view:      view,
	})
}

type report struct {
	trip      *trip
	balances  []calculator.Balance
	transfers []calculator.Transfer
	view      *ledger.View
}

func writeReport(w io.Writer, r *report) error {
	p := &printer{w: w}
	cur := r.trip.Currency

	if r.trip.Name != "" {
		p.printf("%s\n\n", r.trip.Name)
	}

	p.printf("Balances\n")
	tw := p.table()
	fmt.Fprintf(tw, "  member\tpaid\tprivate\tshare\tsent\treceived\tnet\t\n")
	for _, b := range r.balances {
		fmt.Fprintf(tw, "  %s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%+.2f\t\n",
			b.Member.Name, b.Paid, b.PaidPrivately, b.OwedShare, b.Sent, b.Received, b.Net)
	}
	p.flush(tw)

	p.printf("\nSettlement plan\n")
	if len(r.transfers) == 0 {
		p.printf("  everyone is settled up\n")
	}
	for _, t := range r.transfers {
		p.printf("  %s pays %s %.2f %s\n", t.From.Name, t.To.Name, t.Amount, cur)
	}
	if len(r.transfers) > 0 {
		p.printf("  total %.2f %s in %d transfer(s)\n", calculator.TotalTransferred(r.transfers), cur, len(r.transfers))
	}

	v := r.view
	p.printf("\nLedger\n")
	for _, g := range v.Groups {
		label := g.Date
		if g.Unscheduled {
			label = "unscheduled"
		}
		p.printf("  %s (%.2f)\n", label, g.Total)
		for _, e := range g.Entries {
			if e.Source == ledger.SourcePlanned {
				p.printf("    [planned] %s %.2f (%.2f each)\n", e.Title, e.Amount, e.PerPersonEstimate)
				continue
			}
			p.printf("    %s %.2f paid by %s (%s)\n", e.Title, e.Amount, e.PayerName, e.SplitKind)
		}
	}
	p.printf("  spent %.2f %s, planned %.2f %s (%.2f per person)\n",
		v.TotalManualSpent, cur, v.TotalPlanned, cur, v.PlannedPerPerson)
	if v.PercentOfBudget != nil {
		p.printf("  %d%% of budget %.2f %s used\n", *v.PercentOfBudget, r.trip.Budget, cur)
	}
	return p.err
}
