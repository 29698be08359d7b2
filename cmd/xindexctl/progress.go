package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/minuraashen/synapse-semantic-index/internal/pipeline"
)

// cliProgress renders the pipeline's four-stage contract as a single
// progress bar, switching description as the stage changes.
type cliProgress struct {
	quiet   bool
	bar     *progressbar.ProgressBar
	stage   pipeline.Stage
	started time.Time
}

func newCLIProgress(quiet bool) *cliProgress {
	return &cliProgress{quiet: quiet, started: time.Now()}
}

func (p *cliProgress) onProgress(stage pipeline.Stage, detail string, fileIndex, totalFiles int) {
	if p.quiet {
		return
	}

	if stage == pipeline.StageComplete {
		if p.bar != nil {
			p.bar.Finish()
		}
		fmt.Printf("\n✓ indexing complete in %s\n", time.Since(p.started).Round(time.Millisecond))
		return
	}

	if p.bar == nil || p.stage != stage {
		if p.bar != nil {
			p.bar.Finish()
			fmt.Println()
		}
		p.stage = stage
		total := totalFiles
		if total <= 0 {
			total = 1
		}
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription(string(stage)),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowElapsedTimeOnFinish(),
		)
	}

	if fileIndex > 0 {
		_ = p.bar.Set(fileIndex)
	}
	_ = detail
}
