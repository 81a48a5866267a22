package story

import "time"

const (
	// StartNodeID is the entry point of the static story graph.
	StartNodeID = "start"

	// DynamicNodeID is the sentinel node id used while the session is in
	// dynamic mode. It never exists as a row in the graph.
	DynamicNodeID = "dynamic"
)

// Node is a unit of narrative text with a stable identifier.
// Nodes are created once during seeding and never mutated.
type Node struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Choices   []Choice  `json:"choices,omitempty"` // display order is significant
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Choice is a labeled edge from one node to another. Dynamic choices use
// DynamicNodeID for both NodeID and NextNodeID.
type Choice struct {
	ID         string `json:"id"`
	NodeID     string `json:"node_id"`
	Text       string `json:"text"`
	NextNodeID string `json:"next_node_id"`
}

// IsDynamic reports whether the choice belongs to a dynamically generated
// story beat rather than the static graph.
func (c Choice) IsDynamic() bool {
	return c.NextNodeID == DynamicNodeID
}
