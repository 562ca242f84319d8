package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dukex/pqdag-console/pkg/cluster"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/dukex/pqdag-console/pkg/pipeline"
	"github.com/dukex/pqdag-console/pkg/query"
	"github.com/dustin/go-humanize"
)

const barWidth = 30

func renderPipeline(w io.Writer, state pipeline.State) {
	fmt.Fprintf(w, "Run      %s\n", state.RunID)
	if state.Dataset != "" {
		fmt.Fprintf(w, "Dataset  %s\n", state.Dataset)
	}

	fmt.Fprintf(w, "Stage    %s\n", state.Stage())

	for i, phase := range state.Phases {
		mark := " "
		if phase.Completed {
			mark = "x"
		}

		fmt.Fprintf(w, "  [%s] %d. %s\n", mark, i+1, phase.Name)
	}

	if state.LastError != "" {
		fmt.Fprintf(w, "Error    %s\n", state.LastError)
	}

	if state.Result != nil {
		renderAllocation(w, *state.Result)
	}
}

func renderAllocation(w io.Writer, result models.AllocationResult) {
	stats := result.Statistics

	fmt.Fprintf(w, "Fragments %s  Edges %s  Took %ss\n",
		humanize.Comma(int64(stats.TotalFragments)),
		humanize.Comma(int64(stats.TotalEdges)),
		humanize.FtoaWithDigits(stats.ExecutionTime, 2),
	)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKER\tIP\tFRAGMENTS\tLOAD")

	ips := make(map[int]string, len(result.Distribution))
	for _, m := range result.Distribution {
		ips[m.MachineID] = m.WorkerIP
	}

	for i, load := range result.Load() {
		bar := strings.Repeat("#", int(load.Fraction*barWidth+0.5))
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", load.Label, ips[result.Distribution[i].MachineID], humanize.Comma(int64(load.Value)), bar)
	}

	_ = tw.Flush()
}

func renderCluster(w io.Writer, snapshot cluster.Snapshot) {
	fmt.Fprintf(w, "Cluster  %s\n", snapshot.State)

	if snapshot.BoundDataset != "" {
		fmt.Fprintf(w, "Dataset  %s\n", snapshot.BoundDataset)
	}

	if snapshot.LastMessage != "" {
		fmt.Fprintf(w, "Message  %s\n", snapshot.LastMessage)
	}

	if snapshot.LastError != "" {
		fmt.Fprintf(w, "Error    %s\n", snapshot.LastError)
	}

	if snapshot.Output != "" {
		fmt.Fprintln(w, strings.TrimRight(snapshot.Output, "\n"))
	}
}

func renderOutcome(w io.Writer, outcome query.Outcome) {
	if !outcome.ClusterReady() {
		fmt.Fprintf(w, "Warning: cluster is %s\n", outcome.ClusterState)
	}

	if outcome.Result == nil {
		fmt.Fprintln(w, "No query executed")

		return
	}

	r := outcome.Result
	fmt.Fprintf(w, "%s  %s\n", strings.ToUpper(r.Status.String()), r.Message)

	if r.Succeeded() {
		fmt.Fprintf(w, "Results  %s\n", humanize.Comma(int64(r.ResultCount)))
	}

	for _, line := range r.Results {
		fmt.Fprintln(w, line)
	}

	if r.Output != "" {
		fmt.Fprintln(w, strings.TrimRight(r.Output, "\n"))
	}
}

func renderList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintln(w, item)
	}
}

func renderUpload(w io.Writer, result models.UploadResult) {
	fmt.Fprintf(w, "Uploaded %d file(s), %s\n", result.FileCount, humanize.IBytes(uint64(max(result.TotalSize, 0))))

	for _, name := range result.FileNames {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

func renderListing(w io.Writer, listing models.FileListing) {
	fmt.Fprintf(w, "%d file(s), %s\n", listing.FileCount, humanize.IBytes(uint64(max(listing.TotalSize, 0))))
	renderList(w, listing.Files)
}
