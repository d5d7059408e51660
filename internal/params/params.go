// Package params decodes raw learned-parameter tensors into the
// validated node and edge structures consumed by the CPG network. The
// tensor layout matches what the outer learning loop emits: a 2-D node
// tensor [node][param] and a 4-D edge tensor
// [source][target][coupling][weight, phase bias].
package params

import (
	"fmt"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/cpg"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/model"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

// Node tensor column order.
const (
	ColFrequency = iota
	ColAmplitude
	ColBias
	ColAmplitudeRamp
	ColStiffness
	ColDamping

	NodeParamCount
)

// EdgeParamCount is the width of the innermost edge tensor dimension:
// coupling weight and phase bias.
const EdgeParamCount = 2

// DecodeNodes converts the node tensor into a parameter map keyed by
// segment index. Shape violations wrap cpg.ErrConfig.
func DecodeNodes(tensor [][]float64) (map[int]cpg.NodeParams, error) {
	if len(tensor) == 0 {
		return nil, fmt.Errorf("%w: empty node tensor", cpg.ErrConfig)
	}
	nodes := make(map[int]cpg.NodeParams, len(tensor))
	for i, row := range tensor {
		if len(row) != NodeParamCount {
			return nil, fmt.Errorf("%w: node %d has %d parameters, want %d", cpg.ErrConfig, i, len(row), NodeParamCount)
		}
		nodes[i] = cpg.NodeParams{
			Frequency:     row[ColFrequency],
			Amplitude:     row[ColAmplitude],
			Bias:          row[ColBias],
			AmplitudeRamp: row[ColAmplitudeRamp],
			Stiffness:     row[ColStiffness],
			Damping:       row[ColDamping],
		}
	}
	return nodes, nil
}

// DecodeEdges converts the edge tensor into coupling edges. The outer
// two dimensions must both equal nodeCount; the coupling dimension may
// vary per pair. Zero-weight entries denote absent couplings and are
// skipped.
func DecodeEdges(tensor [][][][]float64, nodeCount int) ([]cpg.CouplingEdge, error) {
	if tensor == nil {
		return nil, nil
	}
	if len(tensor) != nodeCount {
		return nil, fmt.Errorf("%w: edge tensor has %d source rows, want %d", cpg.ErrConfig, len(tensor), nodeCount)
	}
	var edges []cpg.CouplingEdge
	for src, row := range tensor {
		if len(row) != nodeCount {
			return nil, fmt.Errorf("%w: edge tensor row %d has %d target columns, want %d", cpg.ErrConfig, src, len(row), nodeCount)
		}
		for dst, couplings := range row {
			for k, pair := range couplings {
				if len(pair) != EdgeParamCount {
					return nil, fmt.Errorf("%w: edge %d->%d coupling %d has %d parameters, want %d",
						cpg.ErrConfig, src, dst, k, len(pair), EdgeParamCount)
				}
				if pair[0] == 0 {
					continue
				}
				if src == dst {
					return nil, fmt.Errorf("%w: self coupling on node %d", cpg.ErrConfig, src)
				}
				edges = append(edges, cpg.CouplingEdge{
					Source:    src,
					Target:    dst,
					Weight:    pair[0],
					PhaseBias: pair[1],
				})
			}
		}
	}
	return edges, nil
}

// Decode validates a full parameter set and returns the structures the
// network is built from.
func Decode(set model.ParamSet) (map[int]cpg.NodeParams, []cpg.CouplingEdge, error) {
	nodes, err := DecodeNodes(set.Nodes)
	if err != nil {
		return nil, nil, err
	}
	edges, err := DecodeEdges(set.Edges, len(nodes))
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}
