package cpupool

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// numaTopology maps logical CPUs to NUMA node IDs, read once from sysfs
// and cached for the life of the process.
type numaTopology struct {
	cpuNode map[int]int
}

var (
	topologyOnce sync.Once
	topology     *numaTopology
)

// detectNUMATopology reads /sys/devices/system/node/nodeN/cpulist to
// build a CPU->node map. Returns nil if the sysfs NUMA hierarchy is
// absent (e.g. non-Linux, or a single-node machine without the NUMA
// sysfs tree), in which case RangeInitNUMA does nothing.
func detectNUMATopology() *numaTopology {
	const sysfsNodes = "/sys/devices/system/node"
	entries, err := os.ReadDir(sysfsNodes)
	if err != nil {
		return nil
	}
	topo := &numaTopology{cpuNode: make(map[int]int)}
	found := false
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "node") {
			continue
		}
		nodeID, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), "node"))
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(sysfsNodes, entry.Name(), "cpulist"))
		if err != nil {
			continue
		}
		for _, cpu := range parseCPUList(strings.TrimSpace(string(data))) {
			topo.cpuNode[cpu] = nodeID
			found = true
		}
	}
	if !found {
		return nil
	}
	return topo
}

func parseCPUList(list string) []int {
	var cpus []int
	if list == "" {
		return cpus
	}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(lo)
			end, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil {
				continue
			}
			for c := start; c <= end; c++ {
				cpus = append(cpus, c)
			}
		} else {
			if cpu, err := strconv.Atoi(part); err == nil {
				cpus = append(cpus, cpu)
			}
		}
	}
	return cpus
}

// nodeForCPU returns the NUMA node id for cpu, defaulting to node 0 when
// topology information is unavailable.
func nodeForCPU(cpu int) int {
	topologyOnce.Do(func() { topology = detectNUMATopology() })
	if topology == nil {
		return 0
	}
	if node, ok := topology.cpuNode[cpu]; ok {
		return node
	}
	return 0
}

// RangeInitNUMA moves every page of region to the NUMA node associated
// with cpu. flags is passed verbatim to the platform NUMA primitive. On
// systems without NUMA support this is a no-op returning nil, matching
// the package's documented degraded-mode contract.
func RangeInitNUMA(region []byte, cpu int, flags int) error {
	if len(region) == 0 {
		return nil
	}
	node := nodeForCPU(cpu)
	if topology == nil {
		return nil
	}
	return bindRegionToNode(region, node, flags)
}
