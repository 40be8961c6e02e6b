package domain

import "time"

type ActionKind string

const (
	ActionCopy             ActionKind = "copy"
	ActionCopyWithMetadata ActionKind = "copy+metadata-write"
	ActionSkipCollision    ActionKind = "skip-collision"
)

// Subfolder is the target subfolder class of a planned file.
type Subfolder string

const (
	SubfolderRaw  Subfolder = "raw"
	SubfolderJPG  Subfolder = "jpg"
	SubfolderFlat Subfolder = "flat"
)

type PlannedAction struct {
	Source       SourceFile
	Destination  string
	Kind         ActionKind
	Class        Subfolder
	ShotKey      string
	Seq          int
	CollidesWith string
}

func (a PlannedAction) Skipped() bool {
	return a.Kind == ActionSkipCollision
}

func (a PlannedAction) WritesMetadata() bool {
	return a.Kind == ActionCopyWithMetadata
}

type PlanSummary struct {
	Files       int
	Shots       int
	RawCount    int
	ImageCount  int
	Collisions  int
	Fallbacks   int
	Unsupported int
	Existing    int
	RangeStart  *time.Time
	RangeEnd    *time.Time
}

// ImportPlan is built once per run and never mutated afterwards.
type ImportPlan struct {
	Actions  []PlannedAction
	Summary  PlanSummary
	Warnings []string
}

// Executable returns the number of actions the executor will attempt.
func (p ImportPlan) Executable() int {
	count := 0
	for _, a := range p.Actions {
		if !a.Skipped() {
			count++
		}
	}
	return count
}
