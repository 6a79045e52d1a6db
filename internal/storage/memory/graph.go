package memory

import (
	"context"

	"github.com/cory-johannsen/dragonfair/internal/game/hero"
)

func (t *tx) KnownTargets(_ context.Context, wise int64) ([]int64, error) {
	var out []int64
	for _, e := range t.st.edgeOrder {
		if e.wise == wise {
			out = append(out, e.target)
		}
	}
	return out, nil
}

func (t *tx) KnownBy(_ context.Context, target int64) ([]int64, error) {
	var out []int64
	for _, e := range t.st.edgeOrder {
		if e.target == target {
			out = append(out, e.wise)
		}
	}
	return out, nil
}

func (t *tx) HasEdge(_ context.Context, wise, target int64) (bool, error) {
	_, ok := t.st.edges[edgeKey{wise, target}]
	return ok, nil
}

func (t *tx) AddEdge(_ context.Context, e hero.KnownVulnerability) (bool, error) {
	k := edgeKey{e.WiseHeroID, e.TargetHeroID}
	if _, ok := t.st.edges[k]; ok {
		return false, nil
	}
	t.st.edges[k] = struct{}{}
	t.st.edgeOrder = append(t.st.edgeOrder, k)
	return true, nil
}

func (t *tx) EdgesFrom(_ context.Context, wise int64) ([]hero.KnownVulnerability, error) {
	var out []hero.KnownVulnerability
	for _, e := range t.st.edgeOrder {
		if e.wise == wise {
			out = append(out, hero.KnownVulnerability{WiseHeroID: e.wise, TargetHeroID: e.target})
		}
	}
	return out, nil
}
