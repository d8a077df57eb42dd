package flow

import (
	"log/slog"

	"github.com/vaniflow/vaniflow/internal/domain"
)

// MaxSteps bounds a single traversal. Exceeding it is a hard failure, not a
// silent truncation; it is also the only guard against cyclic graphs.
const MaxSteps = 20

// Engine walks a validated flow graph against a runtime context and resolves
// a single reachable action.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an interpreter. A nil logger is replaced by the default.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Run traverses the flow starting at start_node_id.
//
// At each node: if the node carries a gating condition that evaluates false,
// the consequences are searched in order for the first whose own condition
// holds and traversal advances along that edge; with no match, the node is
// reported as reached with its own action and a nil next node (fallback
// self-action). When the gate holds, or the node has no gate, the node is the
// result: its action is returned together with the first matching consequence
// target, nil if none matched.
func (e *Engine) Run(definition *domain.FlowDefinition, ctx domain.RuntimeContext) (*domain.TraversalResult, error) {
	if definition == nil {
		return nil, domain.BadRequestf("invalid flow definition")
	}

	nodes := make(map[string]*domain.FlowNode, len(definition.Nodes))
	for i := range definition.Nodes {
		nodes[definition.Nodes[i].ID] = &definition.Nodes[i]
	}

	currentNodeID := definition.StartNodeID

	for step := 0; step < MaxSteps; step++ {
		node, ok := nodes[currentNodeID]
		if !ok {
			// Validation guarantees resolvable edges, so this means the
			// stored definition is corrupt. Fail loudly.
			return nil, domain.RuntimeErrorf("flow references unknown node %q", currentNodeID)
		}

		if node.Condition != "" && !EvaluateCondition(node.Condition, ctx) {
			fallback := firstMatch(node.Consequences, ctx)
			if fallback == nil {
				e.logger.Debug("flow traversal halted at gated node",
					"node", node.ID, "steps", step+1)
				return &domain.TraversalResult{
					ReachedNodeID: node.ID,
					Action:        node.Action,
					NextNodeID:    nil,
				}, nil
			}
			currentNodeID = fallback.NextNodeID
			continue
		}

		result := &domain.TraversalResult{
			ReachedNodeID: node.ID,
			Action:        node.Action,
		}
		if next := firstMatch(node.Consequences, ctx); next != nil {
			result.NextNodeID = &next.NextNodeID
		}
		e.logger.Debug("flow traversal resolved",
			"node", node.ID, "action", node.Action.Type, "steps", step+1)
		return result, nil
	}

	return nil, domain.RuntimeErrorf("flow traversal exceeded maximum of %d steps", MaxSteps)
}

// firstMatch returns the first consequence whose condition evaluates true, in
// sequence order (first-matching-condition wins).
func firstMatch(consequences []domain.Consequence, ctx domain.RuntimeContext) *domain.Consequence {
	for i := range consequences {
		if EvaluateCondition(consequences[i].Condition, ctx) {
			return &consequences[i]
		}
	}
	return nil
}
