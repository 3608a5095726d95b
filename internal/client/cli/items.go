package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/models"
	"github.com/dmitrijs2005/dataportal/internal/services"
)

const dateLayout = "2006-01-02"

func checkMark(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}

// List prints the user's items narrowed by the active filter and search.
func (a *App) List(ctx context.Context, search string) error {
	if a.items == nil {
		if err := a.reload(ctx); err != nil {
			return err
		}
	}

	f := a.filter
	f.Search = search
	items := services.FilterItems(a.items, f)
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No items found")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tTITLE\tCATEGORY\tPRIORITY\tDUE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			checkMark(a.states[it.ID].Checked), it.ID, it.Title, it.Category, it.Priority, it.DueDate.Format(dateLayout))
	}
	return tw.Flush()
}

// Filter prompts for the category and priority used by List.
func (a *App) Filter(ctx context.Context) error {
	categories := append([]string{services.FilterAll}, services.Categories(a.items)...)
	category, err := getSimpleText(a.reader, "Category ("+strings.Join(categories, ", ")+")", a.out)
	if err != nil {
		return err
	}
	priority, err := getSimpleText(a.reader, "Priority (all, low, medium, high)", a.out)
	if err != nil {
		return err
	}

	a.filter.Category = category
	a.filter.Priority = priority
	fmt.Fprintf(a.out, "Filter: category=%s priority=%s\n", orAll(category), orAll(priority))
	return nil
}

func orAll(s string) string {
	if s == "" {
		return services.FilterAll
	}
	return s
}

func (a *App) Categories(ctx context.Context) error {
	for _, c := range services.Categories(a.items) {
		fmt.Fprintln(a.out, c)
	}
	return nil
}

func (a *App) ownsItem(id string) bool {
	for _, it := range a.items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// SetChecked marks item id checked or unchecked. The local view changes
// first and is restored if the service rejects the change.
func (a *App) SetChecked(ctx context.Context, id string, checked bool) error {
	if !a.ownsItem(id) {
		return fmt.Errorf("%w: item %s", common.ErrorNotFound, id)
	}

	prev, had := a.states[id]
	a.states[id] = models.CheckboxState{ItemID: id, Checked: checked, LastUpdated: time.Now()}

	state, err := a.portal.SetState(ctx, a.session.Email, id, checked)
	if err != nil {
		if had {
			a.states[id] = prev
		} else {
			delete(a.states, id)
		}
		return err
	}

	a.states[id] = *state
	fmt.Fprintf(a.out, "%s %s\n", checkMark(state.Checked), id)
	return nil
}

// Stats prints the dashboard counters of the cached view.
func (a *App) Stats(ctx context.Context) error {
	s := services.ComputeStats(a.items, a.states)
	fmt.Fprintf(a.out, "Total: %d  Completed: %d  High priority: %d  Completion: %d%%\n",
		s.Total, s.Completed, s.HighPriority, s.CompletionRate)
	return nil
}

// Refresh reloads items and states from the service.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.reload(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Loaded %d items\n", len(a.items))
	return nil
}
