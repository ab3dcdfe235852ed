// Package display renders plans, results, and backup listings for the
// command line.
package display

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/arthur-debert/confsync/pkg/install"
	"github.com/arthur-debert/confsync/pkg/sources"
	"github.com/arthur-debert/confsync/pkg/types"
)

// Renderer writes human-readable output for confsync commands.
type Renderer struct {
	writer io.Writer
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{writer: w}
}

// RenderPlan prints the change plan, one row per file.
func (r *Renderer) RenderPlan(plan *types.Plan, dryRun bool) error {
	if plan == nil || plan.IsEmpty() {
		_, err := fmt.Fprintln(r.writer, "Nothing to install")
		return err
	}

	header := "Plan"
	if dryRun {
		header += " (dry run)"
	}
	if _, err := fmt.Fprintln(r.writer, header); err != nil {
		return err
	}

	data := pterm.TableData{{"Category", "File", "Status"}}
	for _, cat := range plan.Categories {
		for _, item := range cat.Items {
			data = append(data, []string{cat.Category.Name, item.Entry.Dest, statusLabel(item.Status)})
		}
	}
	if err := r.table(data); err != nil {
		return err
	}

	counts := plan.CountByStatus()
	if _, err := fmt.Fprintf(r.writer, "\n%d new, %d updated, %d merge, %d unchanged\n",
		counts[types.StatusNew], counts[types.StatusUpdated],
		counts[types.StatusMerge], counts[types.StatusUnchanged]); err != nil {
		return err
	}
	return r.renderWarnings(plan.Warnings)
}

// RenderResult prints what an install run did.
func (r *Renderer) RenderResult(result *install.ApplyResult) error {
	if result.DryRun {
		return r.RenderPlan(result.Plan, true)
	}

	if _, err := fmt.Fprintf(r.writer, "Applied %d file(s), %d merged, %d unchanged\n",
		len(result.Applied), result.Merged, len(result.Skipped)); err != nil {
		return err
	}
	if result.BackupID != "" {
		if _, err := fmt.Fprintf(r.writer, "Backup: %s\n", result.BackupID); err != nil {
			return err
		}
	}
	for _, line := range result.Checked {
		if _, err := fmt.Fprintf(r.writer, "check: %s\n", line); err != nil {
			return err
		}
	}
	return r.renderWarnings(result.Warnings)
}

// RenderBackups prints the snapshot listing, newest first.
func (r *Renderer) RenderBackups(backups []types.BackupInfo) error {
	if len(backups) == 0 {
		_, err := fmt.Fprintln(r.writer, "No backups found")
		return err
	}

	data := pterm.TableData{{"Backup", "Created", "Files", "Categories"}}
	for _, b := range backups {
		id := b.ID
		if b.Legacy {
			id += " (legacy)"
		}
		data = append(data, []string{
			id,
			b.CreatedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(b.FileCount),
			joinOrDash(b.Categories),
		})
	}
	return r.table(data)
}

// RenderSources prints the declared sources.
func (r *Renderer) RenderSources(srcs []sources.Source) error {
	if len(srcs) == 0 {
		_, err := fmt.Fprintln(r.writer, "No sources declared")
		return err
	}

	data := pterm.TableData{{"Name", "Type", "Location"}}
	for _, src := range srcs {
		data = append(data, []string{src.Name, string(src.Type), sourceLocation(src)})
	}
	return r.table(data)
}

func (r *Renderer) table(data pterm.TableData) error {
	return pterm.DefaultTable.
		WithHasHeader().
		WithWriter(r.writer).
		WithData(data).
		Render()
}

func (r *Renderer) renderWarnings(warnings []string) error {
	for _, w := range warnings {
		if _, err := fmt.Fprintf(r.writer, "warning: %s\n", w); err != nil {
			return err
		}
	}
	return nil
}

func statusLabel(status types.PlanStatus) string {
	switch status {
	case types.StatusNew:
		return "new"
	case types.StatusUpdated:
		return "updated"
	case types.StatusMerge:
		return "merge"
	case types.StatusUnchanged:
		return "unchanged"
	default:
		return string(status)
	}
}

func sourceLocation(src sources.Source) string {
	switch src.Type {
	case sources.TypeGit:
		if src.Ref != "" {
			return src.Repo + "@" + src.Ref
		}
		return src.Repo
	case sources.TypeZip:
		return src.URL
	default:
		return src.Path
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	out := items[0]
	for _, item := range items[1:] {
		out += ", " + item
	}
	return out
}
