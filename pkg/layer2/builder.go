package layer2

// Builder collects layer-2 edges and unions their endpoints. Nodes are mapped to
// dense indexes backing the union-find arrays. A Builder is not safe for
// concurrent use; edges computed in parallel are fed to it by one goroutine.
type Builder struct {
	index  map[Node]int
	nodes  []Node
	parent []int
	rank   []int
}

func NewBuilder() *Builder {
	return &Builder{index: map[Node]int{}}
}

// AddNode registers n as its own domain if it is not known yet.
func (b *Builder) AddNode(n Node) int {
	if i, ok := b.index[n]; ok {
		return i
	}
	i := len(b.nodes)
	b.index[n] = i
	b.nodes = append(b.nodes, n)
	b.parent = append(b.parent, i)
	b.rank = append(b.rank, 0)
	return i
}

// AddEdge unions the domains of both endpoints.
func (b *Builder) AddEdge(e Edge) {
	b.union(b.AddNode(e.Node1), b.AddNode(e.Node2))
}

func (b *Builder) find(i int) int {
	root := i
	for b.parent[root] != root {
		root = b.parent[root]
	}
	for b.parent[i] != root {
		b.parent[i], i = root, b.parent[i]
	}
	return root
}

func (b *Builder) union(i, j int) {
	ri, rj := b.find(i), b.find(j)
	if ri == rj {
		return
	}
	switch {
	case b.rank[ri] < b.rank[rj]:
		b.parent[ri] = rj
	case b.rank[ri] > b.rank[rj]:
		b.parent[rj] = ri
	default:
		b.parent[rj] = ri
		b.rank[ri]++
	}
}

// Build freezes the current partition. The builder stays usable.
func (b *Builder) Build() *Topology {
	groups := map[int][]Node{}
	for i, n := range b.nodes {
		root := b.find(i)
		groups[root] = append(groups[root], n)
	}
	out := make([][]Node, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	return newTopology(out)
}
