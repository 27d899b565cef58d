package engine

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// cgroupRoot is where the cgroup filesystem is mounted
var cgroupRoot = "/sys/fs/cgroup"

// DefaultWorkers returns the worker bound used when Config.Workers is 0:
// GOMAXPROCS, lowered to the container CPU quota when one is set.
func DefaultWorkers() int {
	workers := runtime.GOMAXPROCS(0)
	if limit, ok := cpuQuota(cgroupRoot); ok {
		if n := int(math.Ceil(limit)); n < workers {
			workers = n
		}
	}
	return max(workers, 1)
}

// cpuQuota reads the CPU limit from cgroup v2 cpu.max, falling back to
// the v1 cfs quota and period files
func cpuQuota(root string) (float64, bool) {
	if cpuMax := readFileSafe(filepath.Join(root, "cpu.max")); cpuMax != "" {
		fields := strings.Fields(cpuMax)
		if len(fields) >= 2 && fields[0] != "max" {
			quota, err1 := strconv.ParseInt(fields[0], 10, 64)
			period, err2 := strconv.ParseInt(fields[1], 10, 64)
			if err1 == nil && err2 == nil && quota > 0 && period > 0 {
				return float64(quota) / float64(period), true
			}
		}
		return 0, false
	}

	quota := readFileSafe(filepath.Join(root, "cpu", "cpu.cfs_quota_us"))
	period := readFileSafe(filepath.Join(root, "cpu", "cpu.cfs_period_us"))
	if quota == "" || period == "" {
		return 0, false
	}
	q, err1 := strconv.ParseInt(quota, 10, 64)
	p, err2 := strconv.ParseInt(period, 10, 64)
	if err1 != nil || err2 != nil || q <= 0 || p <= 0 {
		return 0, false
	}
	return float64(q) / float64(p), true
}

func readFileSafe(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
