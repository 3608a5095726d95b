package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

const timeLayout = time.DateTime

// Logs prints the latest change of each of the user's items.
func (a *App) Logs(ctx context.Context) error {
	logs, err := a.portal.Logs(ctx, a.session.Email)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Fprintln(a.out, "No changes recorded")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, e := range logs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp.Local().Format(timeLayout), e.ItemID, checkMark(e.Checked))
	}
	return tw.Flush()
}

// Trail prints the audit-log entries of one item.
func (a *App) Trail(ctx context.Context, id string) error {
	logs, err := a.portal.AuditTrail(ctx, id)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Fprintf(a.out, "No changes recorded for %s\n", id)
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, e := range logs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp.Local().Format(timeLayout), e.OwnerEmail, checkMark(e.Checked))
	}
	return tw.Flush()
}

// History prints every recorded change of the user, or of one item when id
// is set.
func (a *App) History(ctx context.Context, id string) error {
	events, err := a.portal.History(ctx, a.session.Email, id)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(a.out, "No changes recorded")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp.Local().Format(timeLayout), e.ItemID, checkMark(e.Checked))
	}
	return tw.Flush()
}

// Export uploads the user's audit data and prints the object key.
func (a *App) Export(ctx context.Context) error {
	key, err := a.portal.ExportAudit(ctx, a.session.Email)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported to %s\n", key)
	return nil
}
