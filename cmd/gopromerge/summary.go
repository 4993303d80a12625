package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"gopromerge/internal/grouping"
	"gopromerge/internal/processor"
)

// renderSummary formats the end-of-run table: one row per merge job, then one
// row per rejected group, followed by the overall tally.
func renderSummary(report *processor.Report, invalid []*grouping.ClassificationError, ignored int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Group", "Output", "Status", "Size", "Duration"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	for _, result := range report.Results {
		size, duration := "-", "-"
		status := string(result.Job.Status)
		switch result.Job.Status {
		case grouping.StatusCompleted:
			size = humanize.IBytes(uint64(result.OutputBytes))
			duration = result.Elapsed.Round(time.Millisecond).String()
		case grouping.StatusFailed:
			status = failureCell(result)
			duration = result.Elapsed.Round(time.Millisecond).String()
		case grouping.StatusPending:
			status = "aborted"
		}
		tw.AppendRow(table.Row{result.Job.GroupID, result.Job.OutputName, status, size, duration})
	}

	sort.Slice(invalid, func(i, j int) bool { return invalid[i].GroupID < invalid[j].GroupID })
	for _, classErr := range invalid {
		tw.AppendRow(table.Row{classErr.GroupID, "-", "rejected: " + classErr.Reason.Error(), "-", "-"})
	}

	var sb strings.Builder
	sb.WriteString(tw.Render())
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%d merged, %d failed, %d aborted, %d rejected, %d files ignored",
		report.Completed, report.Failed, report.Aborted, len(invalid), ignored)
	return sb.String()
}

func failureCell(result processor.JobResult) string {
	cell := "failed"
	if result.Err != nil {
		cell += ": " + result.Err.Error()
	}
	if result.LogPath != "" {
		cell += " (log: " + result.LogPath + ")"
	}
	return cell
}

type summaryJob struct {
	Group    string  `json:"group"`
	Output   string  `json:"output"`
	Status   string  `json:"status"`
	Bytes    int64   `json:"bytes,omitempty"`
	Seconds  float64 `json:"seconds,omitempty"`
	Error    string  `json:"error,omitempty"`
	LogPath  string  `json:"log_path,omitempty"`
	Chapters int     `json:"chapters"`
}

type summaryGroup struct {
	Group  string `json:"group"`
	Reason string `json:"reason"`
}

type summaryDoc struct {
	Event     string         `json:"event"`
	RunID     string         `json:"run_id"`
	Completed int            `json:"completed"`
	Failed    int            `json:"failed"`
	Aborted   int            `json:"aborted"`
	Rejected  int            `json:"rejected"`
	Ignored   int            `json:"ignored"`
	Jobs      []summaryJob   `json:"jobs"`
	Invalid   []summaryGroup `json:"invalid,omitempty"`
}

// writeSummaryJSON emits the run summary as a final NDJSON record, matching
// the event stream the json reporter produces during the run.
func writeSummaryJSON(w io.Writer, report *processor.Report, invalid []*grouping.ClassificationError, ignored int) {
	doc := summaryDoc{
		Event:     "summary",
		RunID:     report.RunID,
		Completed: report.Completed,
		Failed:    report.Failed,
		Aborted:   report.Aborted,
		Rejected:  len(invalid),
		Ignored:   ignored,
		Jobs:      make([]summaryJob, 0, len(report.Results)),
	}
	for _, result := range report.Results {
		job := summaryJob{
			Group:    result.Job.GroupID,
			Output:   result.Job.OutputName,
			Status:   string(result.Job.Status),
			Chapters: len(result.Job.Chapters),
		}
		switch result.Job.Status {
		case grouping.StatusCompleted:
			job.Bytes = result.OutputBytes
			job.Seconds = result.Elapsed.Seconds()
		case grouping.StatusFailed:
			job.Seconds = result.Elapsed.Seconds()
			if result.Err != nil {
				job.Error = result.Err.Error()
			}
			job.LogPath = result.LogPath
		case grouping.StatusPending:
			job.Status = "aborted"
		}
		doc.Jobs = append(doc.Jobs, job)
	}
	for _, classErr := range invalid {
		doc.Invalid = append(doc.Invalid, summaryGroup{
			Group:  classErr.GroupID,
			Reason: classErr.Reason.Error(),
		})
	}

	enc := json.NewEncoder(w)
	_ = enc.Encode(doc)
}
