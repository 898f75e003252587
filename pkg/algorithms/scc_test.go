package algorithms

import (
	"slices"
	"testing"
)

// TestSCC_EmptyGraph tests SCC on an empty graph
func TestSCC_EmptyGraph(t *testing.T) {
	components := StronglyConnectedComponents(NewDigraph[int]())
	if len(components) != 0 {
		t.Errorf("Expected 0 components, got %d", len(components))
	}
}

// TestSCC_SingleNode tests SCC with one node and no edges
func TestSCC_SingleNode(t *testing.T) {
	g := buildGraph(t, "A", "")
	components := StronglyConnectedComponents(g)
	if len(components) != 1 || !slices.Equal(components[0], []string{"A"}) {
		t.Errorf("Expected [[A]], got %v", components)
	}
}

// TestSCC_DAG tests that every node of a DAG is its own component
func TestSCC_DAG(t *testing.T) {
	g := buildGraph(t, "", "A->B,B->C,A->C")
	components := StronglyConnectedComponents(g)
	if len(components) != 3 {
		t.Fatalf("Expected 3 singleton components, got %v", components)
	}
	// Tarjan completes sinks first
	if !slices.Equal(components[0], []string{"C"}) {
		t.Errorf("Expected C to complete first, got %v", components[0])
	}
}

// TestSCC_TwoCycles tests two cycles joined by a bridge
func TestSCC_TwoCycles(t *testing.T) {
	//  A <-> B  ->  C -> D -> E -> C
	g := buildGraph(t, "", "A->B,B->A,B->C,C->D,D->E,E->C")
	components := StronglyConnectedComponents(g)
	if len(components) != 2 {
		t.Fatalf("Expected 2 components, got %v", components)
	}
	if !slices.Equal(components[0], []string{"C", "D", "E"}) {
		t.Errorf("Expected [C D E] first, got %v", components[0])
	}
	if !slices.Equal(components[1], []string{"A", "B"}) {
		t.Errorf("Expected [A B] second, got %v", components[1])
	}
}

// TestCycles tests cycle extraction including self-loops
func TestCycles(t *testing.T) {
	tests := []struct {
		name  string
		nodes string
		edges string
		want  [][]string
	}{
		{"dag", "", "A->B,B->C", nil},
		{"self loop", "A,B", "A->A,A->B", [][]string{{"A"}}},
		{"ring", "", "C->A,A->B,B->C", [][]string{{"A", "B", "C"}}},
		{"two loops", "", "X->Y,Y->X,B->B,B->X", [][]string{{"B"}, {"X", "Y"}}},
		{"node behind loop", "", "A->B,B->A,B->Z", [][]string{{"A", "B"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cycles(buildGraph(t, tt.nodes, tt.edges))
			if len(got) != len(tt.want) {
				t.Fatalf("Cycles() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if !slices.Equal(got[i], tt.want[i]) {
					t.Errorf("cycle %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
