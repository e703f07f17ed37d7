package vessel

import (
	"container/heap"
	"math"

	"github.com/everforgeworks/galaxyserver/internal/catalog"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

// Placement is one component instance in a construction request, before
// a vessel id or stage index has been assigned.
type Placement struct {
	ComponentID    string
	LocalPos       world.Vec2
	PaintPrimary   string
	PaintSecondary string
}

// Connection is an undirected edge between two placement indices.
type Connection struct {
	A, B int
}

// stageEdge carries the masked stage-add used only for the staging
// solve (spec.md §4.3 staging algorithm collision-masking rule).
type stageEdge struct {
	preAdd, add int
}

// SolveStaging assigns a stage index to every placement, implementing
// spec.md §4.3's algorithm exactly:
//  1. locate the payload (is-payload).
//  2. mask stage-add collisions: when both endpoints of an edge declare
//     stage-add, the endpoint closer to the payload keeps it; the other
//     is masked to 0 for this computation only (ties broken by lower
//     index).
//  3. shortest path from the payload with edge weight
//     stage-pre-add(u) + stage-add(v) (v is the node the traversal
//     enters).
//  4. disconnected nodes receive stage 1; the payload is always stage 0.
func SolveStaging(cat *catalog.Catalog, placements []Placement, conns []Connection) (stages []int, payloadIdx int, err error) {
	n := len(placements)
	stages = make([]int, n)
	for i := range stages {
		stages[i] = -1
	}
	payloadIdx = -1
	comps := make([]*catalog.Component, n)
	for i, p := range placements {
		c := cat.Components[p.ComponentID]
		comps[i] = c
		if c != nil && c.IsPayload {
			payloadIdx = i
		}
	}
	if payloadIdx == -1 {
		return nil, -1, errNoPayload
	}
	stages[payloadIdx] = 0

	adj := make([][]int, n)
	for _, c := range conns {
		adj[c.A] = append(adj[c.A], c.B)
		adj[c.B] = append(adj[c.B], c.A)
	}

	// Unweighted BFS distance from the payload, used only to decide
	// which endpoint of a stage-add collision is "closer to payload".
	bfsDist := bfsDistances(adj, payloadIdx, n)

	stageAddOf := func(i int) int {
		if comps[i] == nil || comps[i].StageAdd == nil {
			return 0
		}
		return *comps[i].StageAdd
	}
	stagePreAddOf := func(i int) int {
		if comps[i] == nil || comps[i].StagePreAdd == nil {
			return 0
		}
		return *comps[i].StagePreAdd
	}

	maskedStageAdd := make([]int, n)
	for i := range maskedStageAdd {
		maskedStageAdd[i] = stageAddOf(i)
	}
	for _, c := range conns {
		a, b := c.A, c.B
		if stageAddOf(a) == 0 || stageAddOf(b) == 0 {
			continue
		}
		// Both declare stage-add: the one closer to the payload keeps
		// it; ties go to the lower index.
		loser := a
		if bfsDist[a] < bfsDist[b] {
			loser = b
		} else if bfsDist[a] > bfsDist[b] {
			loser = a
		} else if a < b {
			loser = b
		} else {
			loser = a
		}
		maskedStageAdd[loser] = 0
	}

	dist := dijkstraStage(adj, payloadIdx, n, func(u, v int) float64 {
		return float64(stagePreAddOf(u) + maskedStageAdd[v])
	})

	for i := 0; i < n; i++ {
		if i == payloadIdx {
			stages[i] = 0
			continue
		}
		if math.IsInf(dist[i], 1) {
			stages[i] = 1 // disconnected nodes receive stage 1
		} else {
			stages[i] = int(math.Round(dist[i]))
		}
	}
	return stages, payloadIdx, nil
}

func bfsDistances(adj [][]int, src, n int) []int {
	dist := make([]int, n)
	for i := range dist {
		dist[i] = -1
	}
	dist[src] = 0
	queue := []int{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if dist[v] == -1 {
				dist[v] = dist[u] + 1
				queue = append(queue, v)
			}
		}
	}
	return dist
}

type pqItem struct {
	node int
	dist float64
}
type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// dijkstraStage runs Dijkstra over an undirected graph whose (u,v) edge
// weight is asymmetric (weight depends on traversal direction).
func dijkstraStage(adj [][]int, src, n int, weight func(u, v int) float64) []float64 {
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[src] = 0
	pq := &priorityQueue{{node: src, dist: 0}}
	heap.Init(pq)
	visited := make([]bool, n)
	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		u := item.node
		if visited[u] {
			continue
		}
		visited[u] = true
		for _, v := range adj[u] {
			w := weight(u, v)
			if nd := dist[u] + w; nd < dist[v] {
				dist[v] = nd
				heap.Push(pq, pqItem{node: v, dist: nd})
			}
		}
	}
	return dist
}

var errNoPayload = stagingError("construction request has no is-payload component")

type stagingError string

func (e stagingError) Error() string { return string(e) }
