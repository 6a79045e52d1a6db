package challenge_test

import (
	"testing"

	"github.com/cory-johannsen/dragonfair/internal/game/challenge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNamedTablesValidate(t *testing.T) {
	require.NoError(t, challenge.StaffTable.Validate())
	require.NoError(t, challenge.ColorsTable.Validate())
	require.NoError(t, challenge.GossipTable.Validate())
	require.NoError(t, challenge.ValidateTables())
}

func TestValidateTables_ReportsBrokenTable(t *testing.T) {
	saved := challenge.ColorsTable
	t.Cleanup(func() { challenge.ColorsTable = saved })
	challenge.ColorsTable = challenge.Table[string]{Name: "colors"}

	err := challenge.ValidateTables()
	require.Error(t, err)
	assert.ErrorIs(t, err, challenge.ErrInvalidTable)
	assert.Contains(t, err.Error(), "colors")
}

func TestValidate_RejectsUnorderedAndGaps(t *testing.T) {
	unordered := challenge.Table[string]{Name: "bad", Tiers: []challenge.Tier[string]{{Min: 2}, {Min: 10}}}
	assert.ErrorIs(t, unordered.Validate(), challenge.ErrInvalidTable)

	gap := challenge.Table[string]{Name: "gap", Tiers: []challenge.Tier[string]{{Min: 10}, {Min: 5}}}
	assert.ErrorIs(t, gap.Validate(), challenge.ErrInvalidTable)

	empty := challenge.Table[string]{Name: "empty"}
	assert.ErrorIs(t, empty.Validate(), challenge.ErrInvalidTable)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, challenge.Fail, challenge.Classify(1))
	assert.Equal(t, challenge.Success, challenge.Classify(20))
	for face := 2; face <= 19; face++ {
		assert.Equal(t, challenge.None, challenge.Classify(face))
	}
	assert.Equal(t, "critical fail", challenge.Fail.String())
}

func TestResolve_StaffThresholds(t *testing.T) {
	cases := []struct {
		face, mod int
		key       string
		bonus     int
	}{
		{2, 0, "d2to7", 0},
		{7, 0, "d2to7", 0},
		{8, 0, "d8to10", 1},
		{5, 5, "d8to10", 1},
		{11, 0, "d11to16", 2},
		{16, 0, "d11to16", 2},
		{17, 0, "d17plus", 3},
		{15, 4, "d17plus", 3},
		{1, 19, "d1", -1},
		{20, -5, "d20", 4},
	}
	for _, tc := range cases {
		res, err := challenge.Resolve(tc.face, tc.mod, challenge.StaffTable)
		require.NoError(t, err)
		assert.Equal(t, tc.key, res.Outcome.Key, "face=%d mod=%d", tc.face, tc.mod)
		assert.Equal(t, tc.bonus, res.Outcome.Bonus, "face=%d mod=%d", tc.face, tc.mod)
	}
}

// A face of 1 with modifier 19 would total 20, the top tier, but the
// critical fail wins.
func TestResolve_CriticalFailIgnoresModifier(t *testing.T) {
	for _, tbl := range []challenge.Table[string]{challenge.ColorsTable} {
		res, err := challenge.Resolve(1, 19, tbl)
		require.NoError(t, err)
		assert.Equal(t, "d1", res.Outcome)
		assert.Equal(t, challenge.Fail, res.Critical)
		assert.Equal(t, -1, res.Tier)
	}
	g, err := challenge.Resolve(1, 19, challenge.GossipTable)
	require.NoError(t, err)
	assert.True(t, g.Outcome.Exposed)
	assert.False(t, g.Outcome.Counterpart)
}

func TestResolve_BelowFloorClampsToLowestTier(t *testing.T) {
	res, err := challenge.Resolve(3, -5, challenge.ColorsTable)
	require.NoError(t, err)
	assert.Equal(t, "d2to9", res.Outcome)
	assert.Equal(t, -2, res.Total)
}

func TestResolve_DieOutOfRange(t *testing.T) {
	for _, face := range []int{0, -1, 21} {
		_, err := challenge.Resolve(face, 0, challenge.ColorsTable)
		assert.ErrorIs(t, err, challenge.ErrDieOutOfRange)
	}
}

// For faces 2..19 the outcome is the tier with the greatest Min <= total.
func TestResolve_Property_GreatestThreshold(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "tiers")
		mins := make([]int, n)
		mins[n-1] = rapid.IntRange(-10, 2).Draw(t, "floor")
		for i := n - 2; i >= 0; i-- {
			mins[i] = mins[i+1] + rapid.IntRange(1, 8).Draw(t, "step")
		}
		tbl := challenge.Table[int]{Name: "prop", CriticalFail: -100, CriticalSuccess: 100}
		for i, m := range mins {
			tbl.Tiers = append(tbl.Tiers, challenge.Tier[int]{Min: m, Outcome: i})
		}
		if err := tbl.Validate(); err != nil {
			t.Fatalf("generated table invalid: %v", err)
		}

		face := rapid.IntRange(2, 19).Draw(t, "face")
		mod := rapid.IntRange(-30, 30).Draw(t, "mod")
		res, err := challenge.Resolve(face, mod, tbl)
		if err != nil {
			t.Fatal(err)
		}

		want := n - 1
		for i, m := range mins {
			if m <= face+mod {
				want = i
				break
			}
		}
		if res.Outcome != want {
			t.Fatalf("face=%d mod=%d mins=%v: got tier %d want %d", face, mod, mins, res.Outcome, want)
		}
	})
}

func TestResolve_Property_CriticalsBypassTable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mod := rapid.IntRange(-100, 100).Draw(t, "mod")
		lo, err := challenge.Resolve(1, mod, challenge.StaffTable)
		if err != nil || lo.Outcome.Key != "d1" {
			t.Fatalf("face 1 mod %d gave %+v (%v)", mod, lo.Outcome, err)
		}
		hi, err := challenge.Resolve(20, mod, challenge.StaffTable)
		if err != nil || hi.Outcome.Key != "d20" || hi.Critical != challenge.Success {
			t.Fatalf("face 20 mod %d gave %+v (%v)", mod, hi.Outcome, err)
		}
	})
}
