package story

import "fmt"

// Lint checks a seed graph for structural problems: missing start node,
// dead-end nodes, choices targeting nodes that don't exist, and nodes
// unreachable from start. Returns one message per problem found.
func Lint(nodes []SeedNode) []string {
	var problems []string

	byID := make(map[string]SeedNode, len(nodes))
	for _, n := range nodes {
		if _, dup := byID[n.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate node id %q", n.ID))
		}
		byID[n.ID] = n
	}

	if _, ok := byID[StartNodeID]; !ok {
		problems = append(problems, fmt.Sprintf("graph has no %q node", StartNodeID))
	}

	for _, n := range nodes {
		if len(n.Choices) == 0 {
			problems = append(problems, fmt.Sprintf("node %q has no outgoing choices", n.ID))
		}
		for _, c := range n.Choices {
			if c.Text == "" {
				problems = append(problems, fmt.Sprintf("node %q has a choice with empty text", n.ID))
			}
			if _, ok := byID[c.Next]; !ok {
				problems = append(problems, fmt.Sprintf("node %q choice %q targets unknown node %q", n.ID, c.Text, c.Next))
			}
		}
	}

	// Walk from start to find unreachable nodes.
	reached := make(map[string]bool, len(nodes))
	stack := []string{StartNodeID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[id] {
			continue
		}
		reached[id] = true
		for _, c := range byID[id].Choices {
			if !reached[c.Next] {
				stack = append(stack, c.Next)
			}
		}
	}
	for _, n := range nodes {
		if !reached[n.ID] {
			problems = append(problems, fmt.Sprintf("node %q is unreachable from %q", n.ID, StartNodeID))
		}
	}

	return problems
}
