package analysis

import (
	"fmt"
	"math"
)

// EdgeThreshold is the minimum edge, in percentage points, for a PICK. Inclusive.
const EdgeThreshold = 4.89

type Status string

const (
	StatusPick Status = "PICK"
	StatusFlag Status = "FLAG"
)

// Outcome is the classification of a tier's factor pick. Edge is nil when it could not be computed.
type Outcome struct {
	Edge          *float64 `json:"edge"`
	Status        Status   `json:"status"`
	FlagThreshold string   `json:"flag_threshold"`
}

// ComputeEdge returns (factor - market) * 100, or nil when either probability is undefined.
func ComputeEdge(factorProb, marketProb float64) *float64 {
	if math.IsNaN(factorProb) || math.IsNaN(marketProb) {
		return nil
	}
	edge := (factorProb - marketProb) * 100
	return &edge
}

// ClassifyPick compares the adjusted probability of pick with the market baseline.
// Derby fixtures are always flagged.
func ClassifyPick(pick Side, baseline, adjusted Distribution, ctx Context) Outcome {
	edge := ComputeEdge(adjusted.Get(pick), baseline.Get(pick))
	if ctx.IsDerby {
		return Outcome{Edge: edge, Status: StatusFlag, FlagThreshold: "Derby safeguard"}
	}
	return classifyEdge(edge)
}

func classifyEdge(edge *float64) Outcome {
	out := Outcome{Edge: edge, Status: StatusFlag}
	switch {
	case edge == nil:
		out.FlagThreshold = "Missing odds"
	case *edge >= EdgeThreshold:
		out.Status = StatusPick
		out.FlagThreshold = fmt.Sprintf("Edge %.2f ≥ %v", *edge, EdgeThreshold)
	default:
		out.FlagThreshold = fmt.Sprintf("Edge %.2f < %v", *edge, EdgeThreshold)
	}
	return out
}
