package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrator_LoadOrdersByVersion(t *testing.T) {
	src := fstest.MapFS{
		"010_reminders.sql": {Data: []byte("CREATE TABLE r();")},
		"002_history.sql":   {Data: []byte("CREATE TABLE h();")},
		"001_init.sql":      {Data: []byte("CREATE TABLE m();")},
		"README.md":         {Data: []byte("docs")},
		"draft.sql":         {Data: []byte("-- sin versión")},
	}

	migs, err := NewMigrator(nil, src).Load()
	require.NoError(t, err)
	require.Len(t, migs, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{migs[0].Version, migs[1].Version, migs[2].Version})
	assert.Equal(t, "002_history.sql", migs[1].Name)
	assert.Equal(t, "CREATE TABLE r();", migs[2].SQL)
}

func TestMigrations_EmbedsInitialSchema(t *testing.T) {
	migs, err := NewMigrator(nil, Migrations()).Load()
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, 1, migs[0].Version)
	assert.Contains(t, migs[0].SQL, "history")
}

func TestValidID(t *testing.T) {
	assert.True(t, validID("6f1c2d4e-8a7b-4c3d-9e0f-1a2b3c4d5e6f"))
	assert.False(t, validID("not-a-uuid"))
	assert.False(t, validID(""))
}
