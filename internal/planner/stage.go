package planner

// Stage tracks how far a planning pass got.
type Stage int

const (
	StageEmpty Stage = iota
	StageScanning
	StageClassified
	StageVersioned
	StageAccounted
	StageRendered
	StagePersisted
)

var stageNames = [...]string{
	StageEmpty:      "empty",
	StageScanning:   "scanning",
	StageClassified: "classified",
	StageVersioned:  "versioned",
	StageAccounted:  "accounted",
	StageRendered:   "rendered",
	StagePersisted:  "persisted",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}
