package topics

import "testing"

func TestNextLevel(t *testing.T) {
	cases := []struct {
		in   Level
		want Level
		ok   bool
	}{
		{LevelL1, LevelL2, true},
		{LevelL2, LevelL3, true},
		{LevelL3, LevelL3, false},
	}
	for _, tc := range cases {
		got, ok := NextLevel(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NextLevel(%s) = (%s, %v), want (%s, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCatalogOrderCoversEveryCluster(t *testing.T) {
	order := CatalogOrder()
	if len(order) != 6 {
		t.Fatalf("catalog has %d clusters, want 6", len(order))
	}
	if order[0] != CentralTendency || order[5] != NonNormalSkew {
		t.Errorf("catalog order wrong: %v", order)
	}
	seen := map[string]bool{}
	for _, c := range order {
		if seen[c] {
			t.Errorf("cluster %q duplicated", c)
		}
		seen[c] = true
	}
}

func TestHumanize(t *testing.T) {
	if got := Humanize(CentralTendency, "en"); got != "Central Tendency (Mean/Median/Mode)" {
		t.Errorf("en display = %q", got)
	}
	if got := Humanize(CentralTendency, "ar"); got == CentralTendency {
		t.Error("ar display fell back to the code")
	}
	if got := Humanize("unknown_cluster", "en"); got != "unknown_cluster" {
		t.Errorf("unknown code = %q, want passthrough", got)
	}
	// Unknown languages read the English catalog.
	if got := Humanize(Correlation, "fr"); got != Humanize(Correlation, "en") {
		t.Errorf("fr display = %q", got)
	}
}

func TestDisplayList(t *testing.T) {
	got := DisplayList([]string{CentralTendency, DataQualityIQR}, "en")
	if len(got) != 2 || got[1] != "Data Quality & Outliers (IQR, LB/UB)" {
		t.Errorf("got %v", got)
	}
}
