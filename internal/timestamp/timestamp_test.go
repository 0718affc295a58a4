package timestamp

import "testing"

func filetimeForUnix(unixSeconds int64) uint64 {
	return uint64((unixSeconds + windowsEpochOffset) * filetimeUnitsPerSecond)
}

func TestFromFiletimes_NormalValues(t *testing.T) {
	accessed := filetimeForUnix(1_600_000_000)
	tup := FromFiletimes(accessed, accessed, accessed, accessed)

	if tup.Accessed != 1_600_000_000 {
		t.Fatalf("Accessed = %d, want 1600000000", tup.Accessed)
	}
	if tup.MftModified != 1_600_000_000 || tup.Modified != 1_600_000_000 || tup.Created != 1_600_000_000 {
		t.Fatalf("unexpected tuple: %+v", tup)
	}
}

func TestFromFiletimes_PreEpochClampedToZero(t *testing.T) {
	// -3600 unix seconds: one hour before the epoch.
	preEpoch := filetimeForUnix(-3600)
	tup := FromFiletimes(preEpoch, 0, 0, 0)

	if tup.Accessed != 0 {
		t.Fatalf("Accessed = %d, want 0 (clamped)", tup.Accessed)
	}
}

func TestFromFiletimes_ZeroFiletimeClampedToZero(t *testing.T) {
	// A raw zero FILETIME underflows past 1601 entirely once we subtract
	// the epoch offset; it must still clamp to zero, never go negative.
	tup := FromFiletimes(0, 0, 0, 0)
	if tup.Accessed != 0 || tup.MftModified != 0 || tup.Modified != 0 || tup.Created != 0 {
		t.Fatalf("all-zero FILETIME should clamp to all-zero tuple, got %+v", tup)
	}
}

func TestNoNegativeValues(t *testing.T) {
	values := []uint64{0, 1, filetimeForUnix(-100), filetimeForUnix(100)}
	for _, v := range values {
		tup := FromFiletimes(v, v, v, v)
		if tup.Accessed < 0 || tup.MftModified < 0 || tup.Modified < 0 || tup.Created < 0 {
			t.Fatalf("negative timestamp produced from filetime %d: %+v", v, tup)
		}
	}
}
