package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjection(t *testing.T) {
	p, err := NewProjection([]string{"granuleId", "error.Error", "missing", "execution"})
	require.NoError(t, err)

	got := p.Apply(Record{
		"granuleId": "g1",
		"status":    "failed",
		"error":     map[string]any{"Error": "Boom", "Cause": "stack"},
	})
	assert.Equal(t, Record{
		"granuleId": "g1",
		"error":     map[string]any{"Error": "Boom"},
	}, got)
}

func TestProjection_EmptyKeepsRecord(t *testing.T) {
	p, err := NewProjection(nil)
	require.NoError(t, err)
	r := Record{"a": 1}
	assert.Equal(t, r, p.Apply(r))
}

func TestProjection_ApplyAll(t *testing.T) {
	p, err := NewProjection([]string{"name"})
	require.NoError(t, err)
	got := p.ApplyAll([]Record{{"name": "a", "x": 1}, {"x": 2}})
	assert.Equal(t, []Record{{"name": "a"}, {}}, got)
}
