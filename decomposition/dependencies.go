package decomposition

// EdgeKind classifies a dependency-graph edge (spec §9 TaskDecomposition).
type EdgeKind int

const (
	Requires EdgeKind = iota
	Suggests
	Blocks
)

func (k EdgeKind) String() string {
	switch k {
	case Requires:
		return "requires"
	case Suggests:
		return "suggests"
	case Blocks:
		return "blocks"
	default:
		return "unknown"
	}
}

// Edge is one directed dependency-graph edge: From depends on To.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// DependencyGraph is spec §9's dependency_graph.
type DependencyGraph struct {
	Nodes         []string
	Edges         []Edge
	HasCycles     bool
	ExecutionOrder []string // topological sort of the Requires-subgraph; empty if HasCycles
}

// IdentifyDependencies implements spec §4.9's identify_dependencies:
// explicit SubTask.Dependencies become Requires edges; consecutive
// subtasks (by Order) with no explicit dependency get a Suggests edge.
// Cycle detection and execution order both run over the Requires
// subgraph via Kahn's algorithm, matching the invariant in spec §9/§3:
// has_cycles == false iff execution_order is a valid topological sort.
func IdentifyDependencies(subtasks []SubTask) DependencyGraph {
	var g DependencyGraph
	byID := make(map[string]SubTask, len(subtasks))
	for _, st := range subtasks {
		g.Nodes = append(g.Nodes, st.ID)
		byID[st.ID] = st
	}

	hasExplicitDep := make(map[string]bool, len(subtasks))
	for _, st := range subtasks {
		for _, dep := range st.Dependencies {
			g.Edges = append(g.Edges, Edge{From: st.ID, To: dep, Kind: Requires})
			hasExplicitDep[st.ID] = true
		}
	}

	ordered := append([]SubTask(nil), subtasks...)
	sortByOrder(ordered)
	for i := 1; i < len(ordered); i++ {
		cur, prev := ordered[i], ordered[i-1]
		if !hasExplicitDep[cur.ID] {
			g.Edges = append(g.Edges, Edge{From: cur.ID, To: prev.ID, Kind: Suggests})
		}
	}

	order, ok := kahnTopoSort(g.Nodes, requiresEdges(g.Edges))
	g.HasCycles = !ok
	if ok {
		g.ExecutionOrder = order
	}
	return g
}

func sortByOrder(subtasks []SubTask) {
	for i := 1; i < len(subtasks); i++ {
		for j := i; j > 0 && subtasks[j].Order < subtasks[j-1].Order; j-- {
			subtasks[j], subtasks[j-1] = subtasks[j-1], subtasks[j]
		}
	}
}

func requiresEdges(edges []Edge) []Edge {
	var out []Edge
	for _, e := range edges {
		if e.Kind == Requires {
			out = append(out, e)
		}
	}
	return out
}

// kahnTopoSort runs Kahn's algorithm over the Requires subgraph (From
// depends on To, i.e. To must precede From). Returns (order, true) if
// acyclic, else (nil, false).
func kahnTopoSort(nodes []string, edges []Edge) ([]string, bool) {
	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string) // To -> []From
	for _, n := range nodes {
		inDegree[n] = 0
	}
	for _, e := range edges {
		inDegree[e.From]++
		dependents[e.To] = append(dependents[e.To], e.From)
	}

	var queue []string
	for _, n := range nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	var order []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, dep := range dependents[n] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, false
	}
	return order, true
}
