package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMusicApplyBoostClamps(t *testing.T) {
	tests := []struct {
		name     string
		start    float64
		delta    float64
		expected float64
	}{
		{name: "increase within range", start: 0.3, delta: 0.1, expected: 0.4},
		{name: "increase clamps at max", start: 0.85, delta: 0.5, expected: BoostMax},
		{name: "decrease clamps at zero", start: 0.05, delta: -0.5, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Music{UserBoost: tt.start}
			m.ApplyBoost(tt.delta)
			assert.InDelta(t, tt.expected, m.UserBoost, 1e-9)
		})
	}
}

func TestMusicApplyFatigueUnclamped(t *testing.T) {
	m := &Music{Fatigue: 0.5}
	m.ApplyFatigue(0.1)
	assert.InDelta(t, 0.6, m.Fatigue, 1e-9)

	m.ApplyFatigue(-10)
	assert.InDelta(t, -9.4, m.Fatigue, 1e-9)
}

func TestMusicResetLogitsLeavesBaseBias(t *testing.T) {
	m := &Music{BaseBias: 0.2, Fatigue: 3, UserBoost: 0.5, Diversity: 0.9}
	m.ResetLogits()

	assert.Equal(t, 0.2, m.BaseBias)
	assert.Equal(t, 0.0, m.Fatigue)
	assert.Equal(t, 0.0, m.UserBoost)
	assert.Equal(t, 0.0, m.Diversity)
}

func TestAverageLoudness(t *testing.T) {
	a, b := 10.0, 20.0
	assert.InDelta(t, 15.0, *AverageLoudness([]*float64{&a, &b}), 1e-9)
	assert.Nil(t, AverageLoudness([]*float64{nil, nil}))
	assert.Nil(t, AverageLoudness(nil))
}

func TestCollectionRmExcludeRemovesOnly(t *testing.T) {
	c := &Collection{Name: "A"}
	c.Unstar(Music{Path: "/x/1.m4a"})
	c.Unstar(Music{Path: "/x/2.m4a"})
	assert.Len(t, c.Exclude, 2)

	c.RmExclude(Music{Path: "/x/1.m4a"})
	assert.Len(t, c.Exclude, 1)
	assert.Equal(t, "/x/2.m4a", c.Exclude[0].Path)

	c.RmExclude(Music{Path: "/x/1.m4a"})
	assert.Len(t, c.Exclude, 1, "removing an absent path is a no-op")
}
