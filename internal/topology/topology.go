// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

// Package topology models the processor layout: packages, the physical cores
// inside them, and the mapping from a logical CPU to its package and to its
// position among the hyper-thread siblings of one physical core. The model is
// built once at startup and never mutated; processors do not hot-plug here.
package topology

import (
	"fmt"
	"sort"

	"github.com/prometheus/procfs"
)

// Fixed maxima. Discovery fails rather than index past these.
const (
	MaxPackages = 8
	MaxCPUs     = 1024
)

// Topology is the immutable processor layout.
type Topology struct {
	packageCount  int
	physicalCount []int // physical cores per package

	cpus            []int // logical CPU ids, ascending
	numberToPackage map[int]int
	numberToLogical map[int]int // sibling index within the physical core, 0 = primary
	uniquePhysical  map[int]int // dense global physical-core index

	packageOfPhysical []int // owning package per unique physical-core index
	leader            []int // lowest logical CPU per package
}

// Discover builds the topology from procfs.
func Discover(procPath string) (*Topology, error) {
	fs, err := procfs.NewFS(procPath)
	if err != nil {
		return nil, fmt.Errorf("creating procfs failed: %w", err)
	}

	infos, err := fs.CPUInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to read cpuinfo: %w", err)
	}

	return New(infos)
}

// New builds the topology from cpuinfo rows.
func New(infos []procfs.CPUInfo) (*Topology, error) {
	if len(infos) == 0 {
		return nil, fmt.Errorf("cpuinfo reports no processors")
	}
	if len(infos) > MaxCPUs {
		return nil, fmt.Errorf("%d logical cpus exceed the supported maximum of %d", len(infos), MaxCPUs)
	}

	rows := make([]procfs.CPUInfo, len(infos))
	copy(rows, infos)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Processor < rows[j].Processor })

	type coreKey struct {
		pkg, core string
	}

	t := &Topology{
		numberToPackage: map[int]int{},
		numberToLogical: map[int]int{},
		uniquePhysical:  map[int]int{},
	}

	pkgIndex := map[string]int{}   // physical id -> package index
	coreIndex := map[coreKey]int{} // -> unique physical-core index
	siblings := map[coreKey]int{}

	for _, row := range rows {
		cpu := int(row.Processor)
		if cpu >= MaxCPUs {
			return nil, fmt.Errorf("logical cpu %d exceeds the supported maximum of %d", cpu, MaxCPUs)
		}

		// Single-socket machines may omit topology fields.
		pkgID := row.PhysicalID
		if pkgID == "" {
			pkgID = "0"
		}
		coreID := row.CoreID
		if coreID == "" {
			coreID = fmt.Sprintf("%d", cpu)
		}

		pkg, ok := pkgIndex[pkgID]
		if !ok {
			pkg = len(pkgIndex)
			if pkg >= MaxPackages {
				return nil, fmt.Errorf("more than %d processor packages", MaxPackages)
			}
			pkgIndex[pkgID] = pkg
			t.physicalCount = append(t.physicalCount, 0)
			t.leader = append(t.leader, cpu)
		}

		key := coreKey{pkgID, coreID}
		core, ok := coreIndex[key]
		if !ok {
			core = len(coreIndex)
			coreIndex[key] = core
			t.physicalCount[pkg]++
			t.packageOfPhysical = append(t.packageOfPhysical, pkg)
		}

		t.cpus = append(t.cpus, cpu)
		t.numberToPackage[cpu] = pkg
		t.numberToLogical[cpu] = siblings[key]
		t.uniquePhysical[cpu] = core
		siblings[key]++
	}

	t.packageCount = len(pkgIndex)
	return t, nil
}

// PackageCount returns the number of physical processor packages.
func (t *Topology) PackageCount() int {
	return t.packageCount
}

// PhysicalCount returns the number of physical cores in a package.
func (t *Topology) PhysicalCount(pkg int) int {
	return t.physicalCount[pkg]
}

// TotalPhysical returns the number of physical cores across all packages.
func (t *Topology) TotalPhysical() int {
	return len(t.packageOfPhysical)
}

// CPUs returns the logical CPU ids in ascending order.
func (t *Topology) CPUs() []int {
	cpus := make([]int, len(t.cpus))
	copy(cpus, t.cpus)
	return cpus
}

// PackageOf returns the package index owning a logical CPU, or -1.
func (t *Topology) PackageOf(cpu int) int {
	pkg, ok := t.numberToPackage[cpu]
	if !ok {
		return -1
	}
	return pkg
}

// SiblingIndex returns the position of a logical CPU among the hyper-thread
// siblings of its physical core (0 = primary thread), or -1.
func (t *Topology) SiblingIndex(cpu int) int {
	l, ok := t.numberToLogical[cpu]
	if !ok {
		return -1
	}
	return l
}

// UniquePhysical returns the dense global index of the physical core a
// logical CPU belongs to, or -1. Hyper-thread siblings share the index.
func (t *Topology) UniquePhysical(cpu int) int {
	u, ok := t.uniquePhysical[cpu]
	if !ok {
		return -1
	}
	return u
}

// PackageOfPhysical returns the package owning a unique physical-core index.
func (t *Topology) PackageOfPhysical(core int) int {
	return t.packageOfPhysical[core]
}

// Leader returns the lowest-numbered logical CPU of a package. The leader is
// the only unit that performs package-scoped reads during a round, which
// keeps package fields single-writer.
func (t *Topology) Leader(pkg int) int {
	return t.leader[pkg]
}

// IsPackageLeader reports whether a logical CPU is its package's leader.
func (t *Topology) IsPackageLeader(cpu int) bool {
	pkg := t.PackageOf(cpu)
	return pkg >= 0 && t.leader[pkg] == cpu
}

// Leaders returns the leader CPU of every package, in package order.
func (t *Topology) Leaders() []int {
	leaders := make([]int, len(t.leader))
	copy(leaders, t.leader)
	return leaders
}

func (t *Topology) String() string {
	return fmt.Sprintf("%d package(s), %d physical core(s), %d logical cpu(s)",
		t.packageCount, t.TotalPhysical(), len(t.cpus))
}
