/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"sort"
	"strconv"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

// expandCellNames expands a Formation's cell templates into concrete
// "name-0".."name-(replicas-1)" names, in template declaration order.
func expandCellNames(cells []cellforgev1alpha1.CellTemplate) []string {
	var names []string
	for _, tpl := range cells {
		for i := 0; i < tpl.Replicas; i++ {
			names = append(names, templateInstanceName(tpl.Name, i))
		}
	}
	return names
}

func templateInstanceName(template string, index int) string {
	return template + "-" + strconv.Itoa(index)
}

// buildRouteTable is a pure function: given the same TopologySpec and cell
// set it produces the same table, with deterministically sorted peer
// lists, so the materialised JSON is byte-for-byte stable.
func buildRouteTable(topology cellforgev1alpha1.TopologySpec, cells []cellforgev1alpha1.CellTemplate) map[string][]string {
	names := expandCellNames(cells)
	routes := make(map[string][]string, len(names))
	for _, n := range names {
		routes[n] = nil
	}

	switch topology.Kind {
	case cellforgev1alpha1.TopologyFullMesh:
		for _, from := range names {
			for _, to := range names {
				if from == to {
					continue
				}
				routes[from] = append(routes[from], to)
			}
		}

	case cellforgev1alpha1.TopologyHierarchy:
		root := topology.Root
		for _, n := range names {
			if n == root {
				continue
			}
			routes[root] = append(routes[root], n)
			routes[n] = append(routes[n], root)
		}

	case cellforgev1alpha1.TopologyStar:
		hub := topology.Hub
		for _, n := range names {
			if n == hub {
				continue
			}
			routes[hub] = append(routes[hub], n)
			routes[n] = append(routes[n], hub)
		}

	case cellforgev1alpha1.TopologyRing:
		count := len(names)
		for i, n := range names {
			if count < 2 {
				break
			}
			prev := names[(i-1+count)%count]
			next := names[(i+1)%count]
			routes[n] = append(routes[n], prev, next)
		}

	case cellforgev1alpha1.TopologyCustom:
		expanded := expandRouteNames(topology.Routes, cells)
		for from, tos := range expanded {
			routes[from] = append(routes[from], tos...)
		}

	case cellforgev1alpha1.TopologyStigmergy:
		// Communication happens via the shared blackboard, not direct
		// routes; every cell's route list stays empty.
	}

	for name := range routes {
		routes[name] = dedupSorted(routes[name])
	}
	return routes
}

// expandRouteNames expands a custom TopologySpec's adjacency list: a key
// or value naming a template expands to every replica of that template; a
// name that matches neither a template nor a concrete instance passes
// through unresolved.
func expandRouteNames(raw map[string][]string, cells []cellforgev1alpha1.CellTemplate) map[string][]string {
	instancesOf := make(map[string][]string, len(cells))
	for _, tpl := range cells {
		for i := 0; i < tpl.Replicas; i++ {
			instancesOf[tpl.Name] = append(instancesOf[tpl.Name], templateInstanceName(tpl.Name, i))
		}
	}

	resolve := func(name string) []string {
		if instances, ok := instancesOf[name]; ok {
			return instances
		}
		return []string{name}
	}

	out := make(map[string][]string, len(raw))
	for from, tos := range raw {
		var expandedTos []string
		for _, to := range tos {
			expandedTos = append(expandedTos, resolve(to)...)
		}
		for _, from := range resolve(from) {
			out[from] = append(out[from], expandedTos...)
		}
	}
	return out
}

func dedupSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
