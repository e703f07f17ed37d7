package vessel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/galaxyserver/internal/catalog"
)

func intPtr(n int) *int { return &n }

func newCatalogWithComponents(comps map[string]*catalog.Component) *catalog.Catalog {
	return &catalog.Catalog{Components: comps}
}

func TestSolveStaging_PayloadIsAlwaysStageZero(t *testing.T) {
	cat := newCatalogWithComponents(map[string]*catalog.Component{
		"probe":  {ID: "probe", IsPayload: true},
		"tank":   {ID: "tank"},
		"engine": {ID: "engine", StageAdd: intPtr(1)},
	})
	placements := []Placement{{ComponentID: "probe"}, {ComponentID: "tank"}, {ComponentID: "engine"}}
	conns := []Connection{{A: 0, B: 1}, {A: 1, B: 2}}

	stages, payloadIdx, err := SolveStaging(cat, placements, conns)
	require.NoError(t, err)
	assert.Equal(t, 0, payloadIdx)
	assert.Equal(t, 0, stages[0], "payload is always stage 0")
}

func TestSolveStaging_StageAddPropagatesAlongChain(t *testing.T) {
	cat := newCatalogWithComponents(map[string]*catalog.Component{
		"probe":   {ID: "probe", IsPayload: true},
		"tank1":   {ID: "tank1"},
		"engine1": {ID: "engine1", StageAdd: intPtr(1)},
		"tank2":   {ID: "tank2"},
	})
	// probe(0) - tank1(1) - engine1(2) - tank2(3), a linear chain.
	placements := []Placement{
		{ComponentID: "probe"}, {ComponentID: "tank1"}, {ComponentID: "engine1"}, {ComponentID: "tank2"},
	}
	conns := []Connection{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}}

	stages, _, err := SolveStaging(cat, placements, conns)
	require.NoError(t, err)

	assert.Equal(t, 0, stages[0], "payload")
	assert.Equal(t, 0, stages[1], "reached before crossing the stage_add engine")
	assert.Equal(t, 1, stages[2], "engine's own stage_add bumps the stage entering it")
	assert.Equal(t, 1, stages[3], "beyond the engine, still in the bumped stage")
}

func TestSolveStaging_DisconnectedComponentGetsStageOne(t *testing.T) {
	cat := newCatalogWithComponents(map[string]*catalog.Component{
		"probe":    {ID: "probe", IsPayload: true},
		"floating": {ID: "floating"},
	})
	placements := []Placement{{ComponentID: "probe"}, {ComponentID: "floating"}}

	stages, _, err := SolveStaging(cat, placements, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stages[1], "a component with no path to the payload defaults to stage 1")
}

func TestSolveStaging_NoPayloadIsRejected(t *testing.T) {
	cat := newCatalogWithComponents(map[string]*catalog.Component{
		"tank": {ID: "tank"},
	})
	_, _, err := SolveStaging(cat, []Placement{{ComponentID: "tank"}}, nil)
	assert.Error(t, err)
}

func TestSolveStaging_CollisionMaskingKeepsCloserEndpointsStageAdd(t *testing.T) {
	cat := newCatalogWithComponents(map[string]*catalog.Component{
		"probe":   {ID: "probe", IsPayload: true},
		"engineA": {ID: "engineA", StageAdd: intPtr(1)},
		"engineB": {ID: "engineB", StageAdd: intPtr(1)},
	})
	// probe(0) -- engineA(1) -- engineB(2): engineA is closer to the
	// payload so it keeps its stage_add on that edge; engineB's (the
	// farther endpoint) is masked to 0.
	placements := []Placement{{ComponentID: "probe"}, {ComponentID: "engineA"}, {ComponentID: "engineB"}}
	conns := []Connection{{A: 0, B: 1}, {A: 1, B: 2}}

	stages, _, err := SolveStaging(cat, placements, conns)
	require.NoError(t, err)
	assert.Equal(t, 1, stages[1], "engineA keeps its stage_add since it is closer to the payload")
	assert.Equal(t, 1, stages[2], "engineB's stage_add is masked as the farther endpoint, so entering it adds nothing")
}
