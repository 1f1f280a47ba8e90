package schedule

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// slackTolerance absorbs float error when comparing earliest and latest
// start times in the critical path computation.
const slackTolerance = 0.001

// ValidateDependencies checks a proposed dependency set for a phase against
// the full phase set of its project. Every proposed ID must exist, belong to
// the same project, and the resulting graph must stay acyclic. When phaseID
// names an existing phase, its current dependency set is substituted with the
// proposed one before cycle detection.
func ValidateDependencies(projectPhases []Phase, projectID, phaseID string, proposed []string) error {
	byID := make(map[string]Phase, len(projectPhases))
	for _, p := range projectPhases {
		byID[p.ID] = p
	}

	for _, depID := range proposed {
		dep, ok := byID[depID]
		if !ok {
			return fmt.Errorf("dependency %s: %w", depID, ErrPhaseNotFound)
		}
		if dep.ProjectID != projectID {
			return fmt.Errorf("dependency %s: %w", depID, ErrCrossProjectDependency)
		}
		if depID == phaseID {
			return fmt.Errorf("phase %s depends on itself: %w", phaseID, ErrCircularDependency)
		}
	}

	if DetectCycle(projectPhases, phaseID, proposed) {
		return fmt.Errorf("phase %s: %w", phaseID, ErrCircularDependency)
	}
	return nil
}

// DetectCycle reports whether substituting the proposed dependency set for
// phaseID introduces a cycle. Dependencies are walked as ID edges over an
// adjacency map; a revisit of a node still on the recursion stack is a cycle.
func DetectCycle(phases []Phase, phaseID string, proposed []string) bool {
	adjacency := make(map[string][]string, len(phases))
	for _, p := range phases {
		adjacency[p.ID] = p.DependsOn
	}
	adjacency[phaseID] = proposed

	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)

	var visit func(id string) bool
	visit = func(id string) bool {
		visited[id] = true
		recursionStack[id] = true

		for _, depID := range adjacency[id] {
			if _, exists := adjacency[depID]; !exists {
				// Dangling edge: invalid graph, but not a cycle.
				continue
			}
			if !visited[depID] {
				if visit(depID) {
					return true
				}
			} else if recursionStack[depID] {
				return true
			}
		}

		recursionStack[id] = false
		return false
	}

	for id := range adjacency {
		if !visited[id] {
			if visit(id) {
				return true
			}
		}
	}
	return false
}

// TopologicalSort orders phases so that every phase appears after all of its
// dependencies (Kahn's algorithm). Ties are broken by phase ID so the order
// is deterministic. Returns ErrCircularDependency if the set is cyclic;
// given prior validation this should be unreachable.
func TopologicalSort(phases []Phase) ([]Phase, error) {
	byID := make(map[string]Phase, len(phases))
	inDegree := make(map[string]int, len(phases))
	dependents := make(map[string][]string, len(phases))

	for _, p := range phases {
		byID[p.ID] = p
		inDegree[p.ID] = 0
	}
	for _, p := range phases {
		for _, depID := range p.DependsOn {
			if _, ok := byID[depID]; !ok {
				continue
			}
			inDegree[p.ID]++
			dependents[depID] = append(dependents[depID], p.ID)
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	ordered := make([]Phase, 0, len(phases))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ordered = append(ordered, byID[id])

		next := dependents[id]
		sort.Strings(next)
		for _, depID := range next {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if len(ordered) != len(phases) {
		return nil, ErrCircularDependency
	}
	return ordered, nil
}

// PathNode is a phase annotated with CPM timings, in fractional business
// days relative to the project start.
type PathNode struct {
	Phase          Phase
	EarliestStart  float64
	EarliestFinish float64
	LatestStart    float64
	LatestFinish   float64
	Slack          float64
	OnCriticalPath bool
}

// CriticalPath runs the critical path method over a project's phases:
// a forward pass for earliest start/finish, a backward pass for latest
// start/finish, then zero-slack marking. Returns nodes in topological order.
func CriticalPath(phases []Phase) ([]PathNode, error) {
	ordered, err := TopologicalSort(phases)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*PathNode, len(ordered))
	dependents := make(map[string][]string, len(ordered))
	for _, p := range ordered {
		nodes[p.ID] = &PathNode{Phase: p}
		for _, depID := range p.DependsOn {
			dependents[depID] = append(dependents[depID], p.ID)
		}
	}

	// Forward pass: earliest start is the max finish over dependencies.
	projectFinish := 0.0
	for _, p := range ordered {
		node := nodes[p.ID]
		for _, depID := range p.DependsOn {
			if dep, ok := nodes[depID]; ok && dep.EarliestFinish > node.EarliestStart {
				node.EarliestStart = dep.EarliestFinish
			}
		}
		node.EarliestFinish = node.EarliestStart + float64(p.DurationDays)
		if node.EarliestFinish > projectFinish {
			projectFinish = node.EarliestFinish
		}
	}

	// Backward pass: latest finish is the min start over dependents.
	for i := len(ordered) - 1; i >= 0; i-- {
		node := nodes[ordered[i].ID]
		node.LatestFinish = projectFinish
		for _, depID := range dependents[ordered[i].ID] {
			if dep, ok := nodes[depID]; ok && dep.LatestStart < node.LatestFinish {
				node.LatestFinish = dep.LatestStart
			}
		}
		node.LatestStart = node.LatestFinish - float64(ordered[i].DurationDays)
		node.Slack = node.LatestStart - node.EarliestStart
		node.OnCriticalPath = math.Abs(node.Slack) < slackTolerance
	}

	result := make([]PathNode, len(ordered))
	for i, p := range ordered {
		result[i] = *nodes[p.ID]
	}
	return result, nil
}

// DateAdjustment is a pending date shift for a phase whose dependency
// moved out from under it.
type DateAdjustment struct {
	PhaseID  string
	NewStart time.Time
	NewEnd   time.Time
}

// AdjustDependentDates computes the cascade of date shifts caused by moving
// a phase's end date. Any phase depending on phaseID whose start precedes the
// new end plus one day is shifted forward by the shortfall, and the shift
// recurses onto its own dependents. Termination follows from acyclicity.
func AdjustDependentDates(phases []Phase, phaseID string, newEnd time.Time) []DateAdjustment {
	dependents := make(map[string][]int, len(phases))
	current := make([]Phase, len(phases))
	copy(current, phases)
	for i, p := range current {
		for _, depID := range p.DependsOn {
			dependents[depID] = append(dependents[depID], i)
		}
	}

	var adjustments []DateAdjustment
	var cascade func(id string, end time.Time)
	cascade = func(id string, end time.Time) {
		earliestStart := end.AddDate(0, 0, 1)
		for _, i := range dependents[id] {
			p := &current[i]
			if !p.StartDate.Before(earliestStart) {
				continue
			}
			shift := earliestStart.Sub(p.StartDate)
			p.StartDate = p.StartDate.Add(shift)
			p.EndDate = p.EndDate.Add(shift)
			adjustments = append(adjustments, DateAdjustment{
				PhaseID:  p.ID,
				NewStart: p.StartDate,
				NewEnd:   p.EndDate,
			})
			cascade(p.ID, p.EndDate)
		}
	}
	cascade(phaseID, newEnd)
	return adjustments
}
