package domain

// Action type constants define what a reached node asks the caller to do.
const (
	// ActionReply sends the payload message back to the end user.
	ActionReply = "reply"
	// ActionCreateTicket opens a ticket in the ticketing service.
	ActionCreateTicket = "create_ticket"
	// ActionEscalateHuman hands the conversation to a human agent.
	ActionEscalateHuman = "escalate_human"
	// ActionCallMicroservice invokes the microservice named on the action.
	ActionCallMicroservice = "call_microservice"
	// ActionEnd closes the conversation.
	ActionEnd = "end"
)

// AllowedActions is the closed set of node action types.
var AllowedActions = map[string]bool{
	ActionReply:            true,
	ActionCreateTicket:     true,
	ActionEscalateHuman:    true,
	ActionCallMicroservice: true,
	ActionEnd:              true,
}

// NodeAction is what happens when a node is reached.
type NodeAction struct {
	Type         string         `json:"type" mapstructure:"type"`
	Microservice string         `json:"microservice,omitempty" mapstructure:"microservice"`
	Payload      map[string]any `json:"payload,omitempty" mapstructure:"payload"`
}

// Consequence is a guarded edge: if Condition evaluates true against the
// runtime context, traversal moves to NextNodeID.
type Consequence struct {
	Condition  string `json:"condition" mapstructure:"condition"`
	NextNodeID string `json:"next_node_id" mapstructure:"next_node_id"`
}

// FlowNode is a single decision point in a flow graph.
type FlowNode struct {
	ID    string `json:"id" mapstructure:"id"`
	Label string `json:"label,omitempty" mapstructure:"label"`

	// Condition gates the node's own action. Empty means always eligible.
	Condition string `json:"condition,omitempty" mapstructure:"condition"`

	Action       NodeAction    `json:"action" mapstructure:"action"`
	Consequences []Consequence `json:"consequences" mapstructure:"consequences"`
}

// FlowDefinition is a validated decision graph. Definitions are immutable once
// persisted; an edit creates a new version.
type FlowDefinition struct {
	StartNodeID string     `json:"start_node_id" mapstructure:"start_node_id"`
	Nodes       []FlowNode `json:"nodes" mapstructure:"nodes"`
}

// RuntimeContext maps variable names to scalar values for one traversal.
// It has no identity beyond a single interpreter invocation.
type RuntimeContext map[string]any

// TraversalResult is the outcome of one flow interpretation.
type TraversalResult struct {
	ReachedNodeID string     `json:"reached_node_id"`
	Action        NodeAction `json:"action"`

	// NextNodeID is nil when no consequence matched at the reached node.
	NextNodeID *string `json:"next_node_id"`
}
