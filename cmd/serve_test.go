package cmd

import (
	"testing"

	cfgpkg "github.com/KaramelBytes/tableloom/internal/config"
	"github.com/KaramelBytes/tableloom/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDashboards(t *testing.T) {
	dir, _ := setup(t)
	c := &cfgpkg.Global{DataDir: dir}
	profiles := []cfgpkg.Profile{
		{Name: "a", Path: "students.csv", Filters: []string{"Gender"}},
		{Name: "missing", Path: "nope.csv"},
		{Name: "b", Path: "students.csv"},
	}

	_, _, err := loadDashboards(c, profiles, false)
	require.Error(t, err)
	var le *dataset.LoadError
	assert.ErrorAs(t, err, &le)

	boards, skipped, err := loadDashboards(c, profiles, true)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, "a", boards[0].Profile().Name)
	assert.Equal(t, "b", boards[1].Profile().Name)
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0].Error(), "missing")
}
