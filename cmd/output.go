package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscope/internal/dedup"
	"github.com/sells-group/leadscope/internal/model"
)

// openOutput returns the writer for --output, defaulting to stdout.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output %s", path)
	}
	return f, f.Close, nil
}

// writeCandidates renders scan results as a table or CSV.
func writeCandidates(w io.Writer, format string, candidates []dedup.Candidate) error {
	switch format {
	case "csv":
		return writeCandidatesCSV(w, candidates)
	case "table":
		writeCandidatesTable(w, candidates)
		return nil
	default:
		return eris.Errorf("unknown format %q (want table or csv)", format)
	}
}

func writeCandidatesTable(w io.Writer, candidates []dedup.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "no duplicate candidates found")
		return
	}

	fmt.Fprintf(w, "%-38s %-38s %-7s %-7s %-14s %s\n",
		"LEAD", "DUPLICATE", "SCORE", "CONF", "RESOLUTION", "MATCHED RULES")
	for _, c := range candidates {
		fmt.Fprintf(w, "%-38s %-38s %-7.3f %-7.2f %-14s %s\n",
			candidateLabel(&c.Lead),
			candidateLabel(&c.Duplicate),
			c.MatchScore,
			c.Confidence,
			c.Resolution,
			strings.Join(c.MatchedRules, ", "),
		)
	}
	fmt.Fprintf(w, "\n%d candidate(s)\n", len(candidates))
}

// candidateLabel prefers a human-readable identity over the raw id.
func candidateLabel(l *model.Lead) string {
	if l.ContactEmail != "" {
		return l.ContactEmail
	}
	if l.ContactName != "" && l.CompanyName != "" {
		return l.ContactName + " @ " + l.CompanyName
	}
	return l.ID
}

func writeCandidatesCSV(w io.Writer, candidates []dedup.Candidate) error {
	cw := csv.NewWriter(w)
	header := []string{
		"lead_id", "duplicate_id", "match_score", "confidence",
		"suggested_resolution", "matched_rules", "conflict_fields",
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "write csv header")
	}

	for _, c := range candidates {
		conflicts := make([]string, len(c.ConflictFields))
		for i, f := range c.ConflictFields {
			conflicts[i] = string(f)
		}
		row := []string{
			c.Lead.ID,
			c.Duplicate.ID,
			strconv.FormatFloat(c.MatchScore, 'f', 4, 64),
			strconv.FormatFloat(c.Confidence, 'f', 2, 64),
			string(c.Resolution),
			strings.Join(c.MatchedRules, ";"),
			strings.Join(conflicts, ";"),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "flush csv")
}

func writeLeadsTable(w io.Writer, leads []model.Lead) {
	if len(leads) == 0 {
		fmt.Fprintln(w, "no leads found")
		return
	}

	fmt.Fprintf(w, "%-38s %-28s %-24s %-22s %s\n", "ID", "CONTACT", "EMAIL", "COMPANY", "SCORE")
	for _, l := range leads {
		fmt.Fprintf(w, "%-38s %-28s %-24s %-22s %.0f\n",
			l.ID, l.ContactName, l.ContactEmail, l.CompanyName, l.LeadScore)
	}
	fmt.Fprintf(w, "\n%d lead(s)\n", len(leads))
}

func writeEventsTable(w io.Writer, events []model.MergeEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "no merge events found")
		return
	}

	fmt.Fprintf(w, "%-25s %-38s %-38s %s\n", "WHEN", "SURVIVING", "REMOVED", "CHANGED FIELDS")
	for _, ev := range events {
		fields := make([]string, len(ev.ChangedFields))
		for i, f := range ev.ChangedFields {
			fields[i] = string(f)
		}
		fmt.Fprintf(w, "%-25s %-38s %-38s %s\n",
			ev.CreatedAt.Format("2006-01-02 15:04:05 MST"),
			ev.SurvivingLeadID,
			ev.RemovedLeadID,
			strings.Join(fields, ", "),
		)
	}
	fmt.Fprintf(w, "\n%d event(s)\n", len(events))
}
