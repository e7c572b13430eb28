// Package facematch matches face encodings against the set of registered
// employees. The index is an in-memory HNSW graph rebuilt from the store at
// startup and kept current as employees register or leave.
package facematch

import (
	"fmt"
	"sync"

	"github.com/coder/hnsw"
)

// hnswMaxNeighbors controls graph connectivity. Registered employee counts
// are small, so a modest M keeps searches exact in practice.
const hnswMaxNeighbors = 16

// KnownFace is one registered employee's face encoding.
type KnownFace struct {
	EmployeeID string
	Name       string
	Encoding   []float32
}

// Match is the result of searching the index with a probe encoding.
type Match struct {
	EmployeeID string
	Name       string
	Distance   float64
}

// Index wraps an HNSW graph over employee face encodings.
type Index struct {
	graph    *hnsw.Graph[int64]
	idToFace map[int64]*KnownFace
	byEmp    map[string]int64
	nextID   int64
	mu       sync.RWMutex
}

// NewIndex creates a new empty index.
func NewIndex() *Index {
	return &Index{
		idToFace: make(map[int64]*KnownFace),
		byEmp:    make(map[string]int64),
	}
}

func newGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance
	return g
}

// Build replaces the index contents with the given faces.
func (x *Index) Build(faces []KnownFace) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.graph = nil
	x.idToFace = make(map[int64]*KnownFace, len(faces))
	x.byEmp = make(map[string]int64, len(faces))
	x.nextID = 0

	if len(faces) == 0 {
		return nil
	}

	g := newGraph()
	for i := range faces {
		face := &faces[i]
		if len(face.Encoding) == 0 {
			continue
		}
		id := x.nextID
		x.nextID++
		g.Add(hnsw.MakeNode(id, face.Encoding))
		x.idToFace[id] = face
		x.byEmp[face.EmployeeID] = id
	}

	x.graph = g
	return nil
}

// Add inserts or replaces one employee's encoding.
func (x *Index) Add(face KnownFace) error {
	if len(face.Encoding) == 0 {
		return fmt.Errorf("employee %s has an empty encoding", face.EmployeeID)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if old, ok := x.byEmp[face.EmployeeID]; ok {
		delete(x.idToFace, old)
	}
	if x.graph == nil {
		x.graph = newGraph()
	}

	id := x.nextID
	x.nextID++
	x.graph.Add(hnsw.MakeNode(id, face.Encoding))
	x.idToFace[id] = &face
	x.byEmp[face.EmployeeID] = id
	return nil
}

// Remove drops an employee from search results. The HNSW graph has no true
// deletion, so the node stays but the lookup filter hides it.
func (x *Index) Remove(employeeID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if id, ok := x.byEmp[employeeID]; ok {
		delete(x.idToFace, id)
		delete(x.byEmp, employeeID)
	}
}

// Search finds the nearest registered employee within tolerance. Returns nil
// when no face is close enough.
func (x *Index) Search(probe []float32, tolerance float64) (*Match, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	// Nobody registered yet means no match, not an error.
	if x.graph == nil {
		return nil, nil
	}

	// Over-fetch to survive removed employees lingering in the graph.
	neighbors := x.graph.Search(probe, 5)
	for _, n := range neighbors {
		face, ok := x.idToFace[n.Key]
		if !ok {
			continue
		}
		dist := EuclideanDistance(probe, n.Value)
		if dist <= tolerance {
			return &Match{EmployeeID: face.EmployeeID, Name: face.Name, Distance: dist}, nil
		}
	}
	return nil, nil
}

// Count returns the number of searchable faces.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.idToFace)
}
