package story

import "testing"

func TestSeedGraphLint(t *testing.T) {
	problems := Lint(SeedGraph())
	for _, p := range problems {
		t.Errorf("seed graph problem: %s", p)
	}
}

func TestSeedGraphNoDeadEnds(t *testing.T) {
	for _, n := range SeedGraph() {
		if len(n.Choices) == 0 {
			t.Errorf("node %q has no outgoing choices", n.ID)
		}
	}
}

func TestSeedGraphStartExists(t *testing.T) {
	found := false
	for _, n := range SeedGraph() {
		if n.ID == StartNodeID {
			found = true
		}
		if n.ID == DynamicNodeID {
			t.Errorf("seed graph must not contain the %q sentinel", DynamicNodeID)
		}
	}
	if !found {
		t.Fatalf("seed graph has no %q node", StartNodeID)
	}
}

func TestLintReportsProblems(t *testing.T) {
	tests := []struct {
		name  string
		nodes []SeedNode
		want  int // minimum number of problems
	}{
		{
			name:  "missing start",
			nodes: []SeedNode{{ID: "lonely", Text: "x", Choices: []SeedChoice{{Text: "loop", Next: "lonely"}}}},
			want:  1,
		},
		{
			name: "dead end",
			nodes: []SeedNode{
				{ID: StartNodeID, Text: "x", Choices: []SeedChoice{{Text: "go", Next: "end"}}},
				{ID: "end", Text: "y"},
			},
			want: 1,
		},
		{
			name: "broken target",
			nodes: []SeedNode{
				{ID: StartNodeID, Text: "x", Choices: []SeedChoice{{Text: "go", Next: "nowhere"}}},
			},
			want: 1,
		},
		{
			name: "unreachable node",
			nodes: []SeedNode{
				{ID: StartNodeID, Text: "x", Choices: []SeedChoice{{Text: "loop", Next: StartNodeID}}},
				{ID: "island", Text: "y", Choices: []SeedChoice{{Text: "loop", Next: "island"}}},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := Lint(tt.nodes)
			if len(problems) < tt.want {
				t.Errorf("expected at least %d problems, got %d: %v", tt.want, len(problems), problems)
			}
		})
	}
}
