package blocks

import "testing"

func TestAllStartsWithAirAndIsSorted(t *testing.T) {
	all := All()
	if len(all) == 0 || all[0] != Air {
		t.Fatalf("expected AIR first, got %v", all)
	}
	for i := 2; i < len(all); i++ {
		if all[i-1] >= all[i] {
			t.Fatalf("not sorted at %d: %s >= %s", i, all[i-1], all[i])
		}
	}
}

func TestFluidVariantsCoverBothEncodings(t *testing.T) {
	w := FluidWater.Variants()
	if len(w) != 2 || w[0] != FlowingWater || w[1] != Water {
		t.Fatalf("water variants=%v", w)
	}
	l := FluidLava.Variants()
	if len(l) != 2 || l[0] != FlowingLava || l[1] != Lava {
		t.Fatalf("lava variants=%v", l)
	}
	for _, m := range append(w, l...) {
		if m.Family() != FamilyFluid {
			t.Fatalf("%s family=%s", m, m.Family())
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(" planks_oak "); got != PlanksOak {
		t.Fatalf("got %q", got)
	}
	if Normalize("cobblestone").Known() {
		t.Fatalf("cobblestone should not be a known material")
	}
}
