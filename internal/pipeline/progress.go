package pipeline

// Stage names the four-stage progress contract of spec.md §4.6.
type Stage string

const (
	StageScanning  Stage = "scanning"
	StageEmbedding Stage = "embedding"
	StageUpdating  Stage = "updating"
	StageComplete  Stage = "complete"
)

// ProgressFunc is invoked on every stage transition with a
// human-readable detail and the caller's position within the current
// run's file list.
type ProgressFunc func(stage Stage, detail string, fileIndex, totalFiles int)

func noopProgress(Stage, string, int, int) {}
