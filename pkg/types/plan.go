package types

// PlanStatus classifies a file in an install plan. Status is computed
// purely from content comparison, never from modification times.
type PlanStatus string

const (
	StatusNew       PlanStatus = "New"
	StatusUpdated   PlanStatus = "Updated"
	StatusUnchanged PlanStatus = "Unchanged"
	StatusMerge     PlanStatus = "Merge"
)

// PlanItem is a resolved file entry with its computed status.
type PlanItem struct {
	Entry      FileEntry
	Category   string
	Status     PlanStatus
	SourcePath string
	DestPath   string
}

// CategoryPlan groups plan items under the category they belong to,
// preserving manifest declaration order.
type CategoryPlan struct {
	Category Category
	Items    []PlanItem
}

// Plan is the ordered result of diffing resolved sources against the
// target tree. Built fresh every run, never persisted.
type Plan struct {
	Categories []CategoryPlan
	Warnings   []string
}

// Changed returns every item whose status requires a write, in plan
// order. Check categories are reported, never written, so their items
// are excluded.
func (p *Plan) Changed() []PlanItem {
	var items []PlanItem
	for _, cp := range p.Categories {
		if cp.Category.InstallType == InstallTypeCheck {
			continue
		}
		for _, item := range cp.Items {
			if item.Status != StatusUnchanged {
				items = append(items, item)
			}
		}
	}
	return items
}

// IsEmpty reports whether the plan contains no items at all.
func (p *Plan) IsEmpty() bool {
	for _, cp := range p.Categories {
		if len(cp.Items) > 0 {
			return false
		}
	}
	return true
}

// HasChanges reports whether any item requires a write.
func (p *Plan) HasChanges() bool {
	return len(p.Changed()) > 0
}

// CountByStatus tallies plan items per status.
func (p *Plan) CountByStatus() map[PlanStatus]int {
	counts := make(map[PlanStatus]int)
	for _, cp := range p.Categories {
		for _, item := range cp.Items {
			counts[item.Status]++
		}
	}
	return counts
}

// CategoryNames returns the names of the planned categories in order.
func (p *Plan) CategoryNames() []string {
	names := make([]string, 0, len(p.Categories))
	for _, cp := range p.Categories {
		names = append(names, cp.Category.Name)
	}
	return names
}
