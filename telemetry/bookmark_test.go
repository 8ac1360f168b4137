package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, b := range bookmarks {
		if b.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Impact(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if bms := bd.Check(WindowStats{WindowEndStep: 100, Particles: 10, PeakSpeed: 1, PeakCompression: 0.01}); hasBookmark(bms, BookmarkImpact) {
		t.Error("small compression should not count as an impact")
	}
	if bms := bd.Check(WindowStats{WindowEndStep: 200, Particles: 10, PeakSpeed: 1, PeakCompression: 0.08}); !hasBookmark(bms, BookmarkImpact) {
		t.Error("expected impact bookmark")
	}
	if bms := bd.Check(WindowStats{WindowEndStep: 300, Particles: 10, PeakSpeed: 1, PeakCompression: 0.2}); hasBookmark(bms, BookmarkImpact) {
		t.Error("impact should fire only once")
	}
}

func TestBookmarkDetector_Splash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		if bms := bd.Check(WindowStats{WindowEndStep: i * 100, Particles: 10, PeakSpeed: 1}); hasBookmark(bms, BookmarkSplash) {
			t.Fatalf("window %d: unexpected splash", i)
		}
	}

	bms := bd.Check(WindowStats{WindowEndStep: 300, Particles: 10, PeakSpeed: 3})
	if !hasBookmark(bms, BookmarkSplash) {
		t.Error("expected splash bookmark when peak speed is 3x average")
	}
}

func TestBookmarkDetector_SplashNeedsHistory(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{Particles: 10, PeakSpeed: 1})

	if bms := bd.Check(WindowStats{Particles: 10, PeakSpeed: 10}); hasBookmark(bms, BookmarkSplash) {
		t.Error("splash should not fire with fewer than 3 windows of history")
	}
}

func TestBookmarkDetector_Leak(t *testing.T) {
	bd := NewBookmarkDetector(10)

	steps := []struct {
		escaped int
		want    bool
	}{
		{0, false},
		{2, true},
		{2, false},
		{1, false},
		{3, true},
	}
	for i, s := range steps {
		bms := bd.Check(WindowStats{WindowEndStep: i, Particles: 10, PeakSpeed: 1, Escaped: s.escaped})
		if got := hasBookmark(bms, BookmarkLeak); got != s.want {
			t.Errorf("window %d (escaped %d): leak = %v, want %v", i, s.escaped, got, s.want)
		}
	}
}

func TestBookmarkDetector_Settled(t *testing.T) {
	bd := NewBookmarkDetector(10)

	fired := 0
	for i := 0; i < 8; i++ {
		bms := bd.Check(WindowStats{WindowEndStep: i, Particles: 10, PeakSpeed: 1e-3})
		if hasBookmark(bms, BookmarkSettled) {
			fired++
			if i != settleWindows-1 {
				t.Errorf("settled fired at window %d, want %d", i, settleWindows-1)
			}
		}
	}
	if fired != 1 {
		t.Errorf("settled fired %d times, want 1", fired)
	}
}

func TestBookmarkDetector_SettledResetsOnMotion(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < settleWindows-1; i++ {
		bd.Check(WindowStats{Particles: 10, PeakSpeed: 1e-3})
	}
	bd.Check(WindowStats{Particles: 10, PeakSpeed: 0.5})
	if bms := bd.Check(WindowStats{Particles: 10, PeakSpeed: 1e-3}); hasBookmark(bms, BookmarkSettled) {
		t.Error("settled count should restart after motion")
	}
}

func TestBookmarkDetector_EmptyFluidNeverSettles(t *testing.T) {
	bd := NewBookmarkDetector(3)
	for i := 0; i < 10; i++ {
		if bms := bd.Check(WindowStats{}); hasBookmark(bms, BookmarkSettled) {
			t.Fatal("empty fluid reported as settled")
		}
	}
}
