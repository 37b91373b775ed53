package scenario

import (
	"fmt"
	"io"
	"time"
)

// WriteReport writes human-readable results. With verbose set, every step
// is listed; otherwise only failing steps are.
func WriteReport(w io.Writer, results []*Result, verbose bool) (passed, failed int) {
	for _, res := range results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}

		fmt.Fprintf(w, "[%s] %s - %s (%s)\n",
			status, res.Scenario.ID, res.Scenario.Name, res.Duration.Round(time.Millisecond))

		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
		}

		for _, sr := range res.Steps {
			if sr.Passed && !verbose {
				continue
			}
			mark := "ok"
			if !sr.Passed {
				mark = "FAILED"
			}
			fmt.Fprintf(w, "  step %d %s: %s", sr.Index, sr.Action, mark)
			if sr.Description != "" {
				fmt.Fprintf(w, " (%s)", sr.Description)
			}
			fmt.Fprintln(w)
			for _, f := range sr.Failures {
				fmt.Fprintf(w, "    - %s\n", f)
			}
		}

		if verbose {
			fmt.Fprintf(w, "  registrations=%d unregistrations=%d teardowns=%d absorbed=%d duplicates=%d\n",
				res.Counts.Adds, res.Counts.Removes, res.Stats.Teardowns,
				res.Stats.AbsorbedRemoves, res.Stats.DuplicateAdds)
		}

		if res.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Fprintf(w, "\n--- Summary ---\n")
	fmt.Fprintf(w, "Total:  %d\n", len(results))
	fmt.Fprintf(w, "Passed: %d\n", passed)
	fmt.Fprintf(w, "Failed: %d\n", failed)
	return passed, failed
}
