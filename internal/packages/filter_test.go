package packages

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
)

func facebookStore() *Store {
	return Build(testCatalog, []UserPackages{{
		User: device.User{Index: 0},
		States: map[string]State{
			"com.facebook.katana":     Enabled,
			"com.facebook.appmanager": Disabled,
			"com.facebook.services":   Enabled,
			"com.Facebook.lite":       Enabled,
			"com.android.chrome":      Enabled,
			"com.android.systemui":    Enabled,
		},
	}})
}

func names(s *Store, ords []int) []string {
	out := make([]string, 0, len(ords))
	for _, p := range ords {
		out = append(out, s.ID(p))
	}
	return out
}

func TestRecomputeDefaultsShowEverything(t *testing.T) {
	s := facebookStore()
	got := Recompute(DefaultCriteria(), s.Records(0))
	require.Len(t, got, s.Len())
	for i, p := range got {
		require.Equal(t, i, p)
	}
}

func TestRecomputeFacebookSearch(t *testing.T) {
	s := facebookStore()
	c := DefaultCriteria()
	c.Search = "facebook"

	require.Equal(t, []string{
		"com.facebook.appmanager",
		"com.facebook.katana",
		"com.facebook.services",
	}, names(s, Recompute(c, s.Records(0))))

	c.Removal = catalog.Recommended
	require.Equal(t, []string{
		"com.facebook.appmanager",
		"com.facebook.katana",
	}, names(s, Recompute(c, s.Records(0))))

	c.State = Enabled
	require.Equal(t, []string{"com.facebook.katana"}, names(s, Recompute(c, s.Records(0))))
}

func TestRecomputeFilters(t *testing.T) {
	s := facebookStore()
	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"list", Criteria{List: catalog.ListAosp, Removal: catalog.RemovalAll, State: StateAll},
			[]string{"com.android.systemui"}},
		{"unlisted", Criteria{List: catalog.ListUnlisted, Removal: catalog.RemovalAll, State: StateAll},
			[]string{"com.Facebook.lite"}},
		{"state", Criteria{List: catalog.ListAll, Removal: catalog.RemovalAll, State: Disabled},
			[]string{"com.facebook.appmanager"}},
		{"nothing", Criteria{List: catalog.ListOem, Removal: catalog.RemovalAll, State: StateAll},
			[]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, names(s, Recompute(tt.c, s.Records(0))))
		})
	}
}

func TestRecomputeIsPure(t *testing.T) {
	s := facebookStore()
	c := DefaultCriteria()
	c.Search = "android"
	before := append([]Record(nil), s.Records(0)...)

	first := Recompute(c, s.Records(0))
	second := Recompute(c, s.Records(0))
	require.Equal(t, first, second)
	require.Equal(t, before, s.Records(0))
}

func TestClosestName(t *testing.T) {
	s := facebookStore()
	name, ok := ClosestName(s.Records(0), "facebok")
	require.True(t, ok)
	require.Contains(t, name, "acebook")

	_, ok = ClosestName(s.Records(0), "qqqqqqqqqqqq")
	require.False(t, ok)

	_, ok = ClosestName(s.Records(0), "")
	require.False(t, ok)
}
