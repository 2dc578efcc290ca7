package correlation

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClusterSymbols_GroupsAboveThresholdTransitively(t *testing.T) {
	symbols := []string{"A", "B", "C", "D"}
	edges := []pairwiseEdge{
		{symbol1: "A", symbol2: "B", rho: 0.8},
		{symbol1: "B", symbol2: "C", rho: 0.75},
		{symbol1: "C", symbol2: "D", rho: 0.2}, // below threshold, doesn't merge D in
	}

	clusters := clusterSymbols(symbols, edges, 0.7)

	assert.Len(t, clusters, 1)
	members := clusters[0]
	sort.Strings(members)
	assert.Equal(t, []string{"A", "B", "C"}, members)
}

func TestClusterSymbols_NoEdgesAboveThresholdYieldsNoClusters(t *testing.T) {
	symbols := []string{"A", "B"}
	edges := []pairwiseEdge{{symbol1: "A", symbol2: "B", rho: 0.1}}

	clusters := clusterSymbols(symbols, edges, 0.7)
	assert.Empty(t, clusters)
}
