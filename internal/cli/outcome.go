package cli

import (
	"fmt"
	"io"

	"github.com/alexanderramin/crawl/internal/cli/formatter"
	"github.com/alexanderramin/crawl/internal/service"
)

// printOutcome reports a mutating operation. Rejected gestures are printed,
// not returned as errors: the catalog is simply unchanged.
func printOutcome(w io.Writer, verb string, o service.Outcome) {
	fmt.Fprint(w, outcomeText(verb, o))
}

func outcomeText(verb string, o service.Outcome) string {
	var s string
	switch {
	case o.Applied:
		s = fmt.Sprintf("%s %s %s\n", verb, formatter.Bold(o.Name), formatter.TruncID(o.NodeID))
	case o.Reason != "":
		s = formatter.StyleYellow.Render("Nothing changed: "+o.Reason) + "\n"
	default:
		s = formatter.Dim("Nothing to do") + "\n"
	}
	for _, w := range o.Warnings {
		s += formatter.Warn(w) + "\n"
	}
	if o.Reconciled {
		if o.PersistErr != nil {
			s += formatter.StyleRed.Render(fmt.Sprintf("Store write failed (%v); reloaded from store", o.PersistErr)) + "\n"
		} else {
			s += formatter.Dim("Store differed; reloaded from store") + "\n"
		}
	}
	return s
}
