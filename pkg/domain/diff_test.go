package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      map[string]RouterState
		new      map[string]RouterState
		wantDiff *StateDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  map[string]RouterState{"root": {Visible: true}},
			wantDiff: &StateDiff{
				Changed: map[string]RouterState{"root": {Visible: true}},
			},
		},
		{
			name:     "No Changes",
			old:      map[string]RouterState{"a": {Visible: true, Order: 1}},
			new:      map[string]RouterState{"a": {Visible: true, Order: 1}},
			wantDiff: nil,
		},
		{
			name: "Visibility Flip",
			old:  map[string]RouterState{"a": {Visible: true}, "b": {}},
			new:  map[string]RouterState{"a": {}, "b": {Visible: true}},
			wantDiff: &StateDiff{
				Changed: map[string]RouterState{"a": {}, "b": {Visible: true}},
			},
		},
		{
			name: "Removed Router",
			old:  map[string]RouterState{"a": {}, "gone": {Visible: true}},
			new:  map[string]RouterState{"a": {}},
			wantDiff: &StateDiff{
				Removed: []string{"gone"},
			},
		},
		{
			name: "Extra Payload Change",
			old:  map[string]RouterState{"a": {Extra: map[string]any{"tags": []string{"x"}}}},
			new:  map[string]RouterState{"a": {Extra: map[string]any{"tags": []string{"y"}}}},
			wantDiff: &StateDiff{
				Changed: map[string]RouterState{"a": {Extra: map[string]any{"tags": []string{"y"}}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			assert.Equal(t, tt.wantDiff, got)
		})
	}
}

func TestStateDiff_Became(t *testing.T) {
	old := map[string]RouterState{"a": {Visible: true}, "b": {}}
	next := map[string]RouterState{"a": {}, "b": {Visible: true}, "c": {Visible: true}}

	d := Diff(old, next)
	assert.Equal(t, []string{"b", "c"}, d.Became(true, old))
	assert.Equal(t, []string{"a"}, d.Became(false, old))

	var empty *StateDiff
	assert.True(t, empty.IsEmpty())
	assert.Nil(t, empty.Became(true, old))
}
