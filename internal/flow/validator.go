package flow

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/vaniflow/vaniflow/internal/domain"
)

// ValidateDefinition statically checks a submitted flow graph and returns the
// typed definition. Checks run in a fixed order and each failure carries a
// distinct reason. Cycles are accepted; the interpreter's step bound is the
// only cycle guard.
func ValidateDefinition(raw any) (*domain.FlowDefinition, error) {
	payload, ok := raw.(map[string]any)
	if !ok || payload == nil {
		return nil, domain.BadRequestf("flow definition must be an object")
	}

	startNodeID, _ := payload["start_node_id"].(string)
	if strings.TrimSpace(startNodeID) == "" {
		return nil, domain.BadRequestf("flow.start_node_id is required")
	}

	rawNodes, ok := payload["nodes"].([]any)
	if !ok || len(rawNodes) == 0 {
		return nil, domain.BadRequestf("flow.nodes must be a non-empty array")
	}

	// First pass: per-node shape checks, collecting the id set.
	nodeIDs := make(map[string]bool, len(rawNodes))
	for _, rawNode := range rawNodes {
		node, ok := rawNode.(map[string]any)
		if !ok || node == nil {
			return nil, domain.BadRequestf("each node must be an object")
		}

		id, _ := node["id"].(string)
		if strings.TrimSpace(id) == "" {
			return nil, domain.BadRequestf("each node requires id")
		}
		if nodeIDs[id] {
			return nil, domain.BadRequestf("duplicate node id: %s", id)
		}
		nodeIDs[id] = true

		action, ok := node["action"].(map[string]any)
		if !ok || action == nil {
			return nil, domain.BadRequestf("node %s requires action", id)
		}
		actionType, _ := action["type"].(string)
		if !domain.AllowedActions[actionType] {
			return nil, domain.BadRequestf("node %s has invalid action.type; allowed: %s",
				id, strings.Join(allowedActionNames(), ", "))
		}

		consequences, ok := node["consequences"].([]any)
		if !ok && node["consequences"] != nil {
			return nil, domain.BadRequestf("node %s requires consequences array", id)
		}
		if node["consequences"] == nil {
			return nil, domain.BadRequestf("node %s requires consequences array", id)
		}
		for _, rawConsequence := range consequences {
			consequence, ok := rawConsequence.(map[string]any)
			if !ok || consequence == nil {
				return nil, domain.BadRequestf("node %s consequence must be object", id)
			}
			condition, _ := consequence["condition"].(string)
			if strings.TrimSpace(condition) == "" {
				return nil, domain.BadRequestf("node %s consequence.condition is required", id)
			}
			nextNodeID, _ := consequence["next_node_id"].(string)
			if strings.TrimSpace(nextNodeID) == "" {
				return nil, domain.BadRequestf("node %s consequence.next_node_id is required", id)
			}
		}
	}

	if !nodeIDs[startNodeID] {
		return nil, domain.BadRequestf("flow.start_node_id does not exist in nodes")
	}

	// Second pass: every edge target must resolve within the flow.
	for _, rawNode := range rawNodes {
		node := rawNode.(map[string]any)
		consequences, _ := node["consequences"].([]any)
		for _, rawConsequence := range consequences {
			consequence := rawConsequence.(map[string]any)
			nextNodeID, _ := consequence["next_node_id"].(string)
			if !nodeIDs[nextNodeID] {
				return nil, domain.BadRequestf("node %v references missing next node: %s",
					node["id"], nextNodeID)
			}
		}
	}

	var definition domain.FlowDefinition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &definition,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("building flow decoder: %w", err)
	}
	if err := decoder.Decode(payload); err != nil {
		return nil, domain.BadRequestf("flow definition does not match the expected shape: %v", err)
	}

	return &definition, nil
}

func allowedActionNames() []string {
	return []string{
		domain.ActionReply,
		domain.ActionCreateTicket,
		domain.ActionEscalateHuman,
		domain.ActionCallMicroservice,
		domain.ActionEnd,
	}
}
