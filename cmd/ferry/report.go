package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// printRun writes the outcome of a run and its report as tables.
func printRun(w io.Writer, run *models.PipelineRun, report *models.Report) {
	status := color.New(color.FgGreen, color.Bold)
	if run.Status != models.RunSucceeded {
		status = color.New(color.FgRed, color.Bold)
	}
	status.Fprintf(w, "\nRun %s %s\n", run.ID, run.Status)
	if run.Error != nil {
		color.New(color.FgRed).Fprintf(w, "%s\n", *run.Error)
	}
	if report == nil {
		return
	}

	color.New(color.FgYellow).Fprintln(w, "\nEntities")
	totals := tablewriter.NewWriter(w)
	totals.SetHeader([]string{"Entity", "Count"})
	for _, row := range []struct {
		name  string
		count int
	}{
		{"seasons", report.Seasons},
		{"listings", report.Listings},
		{"courses", report.Courses},
		{"professors", report.Professors},
		{"code groups", report.CodeGroups},
		{"same-course groups", report.SameCourseGroups},
		{"same-course-and-professors groups", report.SameCourseProfs},
		{"evaluated courses", report.EvaluatedCourses},
	} {
		totals.Append([]string{row.name, strconv.Itoa(row.count)})
	}
	totals.Render()

	if len(report.SkippedSeasons) > 0 {
		color.New(color.FgYellow).Fprintln(w, "\nSkipped seasons")
		skipped := tablewriter.NewWriter(w)
		skipped.SetHeader([]string{"Season", "Reason"})
		for _, s := range report.SkippedSeasons {
			skipped.Append([]string{s.SeasonCode, s.Reason})
		}
		skipped.Render()
	}

	var counters [][]string
	for _, group := range []struct {
		kind   string
		counts map[string]int
	}{
		{"dropped", report.Dropped},
		{"inconsistent", report.Inconsistent},
		{"ambiguous", report.Ambiguous},
	} {
		for _, key := range slices.Sorted(maps.Keys(group.counts)) {
			counters = append(counters, []string{group.kind, key, strconv.Itoa(group.counts[key])})
		}
	}
	if len(counters) > 0 {
		color.New(color.FgYellow).Fprintln(w, "\nTolerated input problems")
		problems := tablewriter.NewWriter(w)
		problems.SetHeader([]string{"Kind", "Reason", "Count"})
		problems.AppendBulk(counters)
		problems.Render()
	}

	fmt.Fprintf(w, "\nFinished in %dms\n", report.DurationMillis)
}
