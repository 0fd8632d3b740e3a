package sandbox

import (
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/proc"
)

// DefaultSampleInterval is how often the process tree's resident memory is
// read. Sampling is per process tree, not per process, so runtimes that fork
// helper processes are accounted in full.
const DefaultSampleInterval = 25 * time.Millisecond

// samplePeak polls the child's process tree RSS until done closes, tracking
// the peak. When the effective memory limit is breached the whole group is
// killed; a process that frees memory right before exiting has still
// violated the limit.
func samplePeak(pid int, memLimitMB int64, interval time.Duration, peakKB *atomic.Int64, memKilled *atomic.Bool, done <-chan struct{}) {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			rssKB := treeRSSKB(root, 0)
			if rssKB > peakKB.Load() {
				peakKB.Store(rssKB)
			}
			if memLimitMB > 0 && rssKB > memLimitMB*1024 {
				memKilled.Store(true)
				proc.KillGroup(pid)
				return
			}
		}
	}
}

const maxTreeDepth = 8

// treeRSSKB sums resident memory over the process and its descendants.
// Processes that exit between listing and reading are simply skipped.
func treeRSSKB(p *process.Process, depth int) int64 {
	total := rssKB(p)
	if depth >= maxTreeDepth {
		return total
	}
	children, err := p.Children()
	if err != nil {
		return total
	}
	for _, child := range children {
		total += treeRSSKB(child, depth+1)
	}
	return total
}

func rssKB(p *process.Process) int64 {
	info, err := p.MemoryInfo()
	if err != nil || info == nil {
		return 0
	}
	return int64(info.RSS / 1024)
}
