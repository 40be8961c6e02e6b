package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"pixelgroomer/internal/config"
	"pixelgroomer/internal/domain"
)

// Build turns ordered shots into an import plan with one action per member.
// It is pure: the same shots and config always give the same plan. When two
// actions resolve to the same destination, the later one by shot order is
// marked skip-collision.
func Build(shots []domain.Shot, cfg config.EffectiveConfig) (domain.ImportPlan, error) {
	deriver, err := NewDeriver(cfg)
	if err != nil {
		return domain.ImportPlan{}, err
	}

	kind := domain.ActionCopy
	if !cfg.MetadataFields().Empty() {
		kind = domain.ActionCopyWithMetadata
	}

	var plan domain.ImportPlan
	claimed := map[string]domain.PlannedAction{}

	for _, shot := range shots {
		nc := deriver.NamingContext(shot)
		for _, member := range shot.Members() {
			dir, name, class := deriver.Derive(member, nc)
			action := domain.PlannedAction{
				Source:      member,
				Destination: filepath.Join(dir, name),
				Kind:        kind,
				Class:       class,
				ShotKey:     shot.Key,
				Seq:         shot.Seq,
			}

			// Compared case-insensitively so case-folding filesystems cannot
			// merge two planned files either.
			key := strings.ToLower(action.Destination)
			if first, taken := claimed[key]; taken {
				action.Kind = domain.ActionSkipCollision
				action.CollidesWith = first.Source.Path
				plan.Summary.Collisions++
				plan.Warnings = append(plan.Warnings, fmt.Sprintf("collision: %s and %s both map to %s, skipping %s",
					first.Source.RelativePath, member.RelativePath, action.Destination, member.RelativePath))
			} else {
				claimed[key] = action
			}

			plan.Actions = append(plan.Actions, action)
			countMember(&plan.Summary, member)
		}
	}

	plan.Summary.Files = len(plan.Actions)
	plan.Summary.Shots = len(shots)
	plan.Summary.RangeStart, plan.Summary.RangeEnd = captureRange(shots)
	return plan, nil
}

func countMember(summary *domain.PlanSummary, member domain.SourceFile) {
	if member.IsRAW() {
		summary.RawCount++
	} else {
		summary.ImageCount++
	}
	if member.IsFallback() {
		summary.Fallbacks++
	}
}

func captureRange(shots []domain.Shot) (*time.Time, *time.Time) {
	var first, last time.Time
	for i, shot := range shots {
		for j, m := range shot.Members() {
			if (i == 0 && j == 0) || m.TakenAt.Before(first) {
				first = m.TakenAt
			}
			if (i == 0 && j == 0) || m.TakenAt.After(last) {
				last = m.TakenAt
			}
		}
	}
	if len(shots) == 0 {
		return nil, nil
	}
	return &first, &last
}
