package regions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	all := All()
	require.Len(t, all, 19)
	require.Equal(t, DefaultCode, all[0].Code)

	seen := make(map[string]struct{}, len(all))
	for _, region := range all {
		require.NotEmpty(t, region.Code)
		require.NotEmpty(t, region.NameEN)
		require.NotEmpty(t, region.NameAR)
		_, dup := seen[region.Code]
		require.False(t, dup, "duplicate region code %s", region.Code)
		seen[region.Code] = struct{}{}
	}
}

func TestExists(t *testing.T) {
	require.True(t, Exists("headquarters"))
	require.True(t, Exists("khamis_mushait"))
	require.False(t, Exists("atlantis"))
	require.False(t, Exists(""))
	require.False(t, Exists("Riyadh"))
}

func TestByCode(t *testing.T) {
	region, ok := ByCode("jubail")
	require.True(t, ok)
	require.Equal(t, "Jubail", region.NameEN)
	require.Equal(t, "الجبيل", region.NameAR)

	_, ok = ByCode("nowhere")
	require.False(t, ok)
}

func TestAllReturnsCopy(t *testing.T) {
	first := All()
	first[0].NameEN = "mutated"
	require.Equal(t, "Headquarters", All()[0].NameEN)
}
