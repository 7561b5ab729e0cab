package filter

import "testing"

func TestDuplicateFilter_Name(t *testing.T) {
	f := NewDuplicateFilter()
	if f.Name() != "duplicate" {
		t.Errorf("Name() = %q, want %q", f.Name(), "duplicate")
	}
}

func TestDuplicateFilter_CollidingNames(t *testing.T) {
	f := NewDuplicateFilter()

	if f.ShouldFilter("/About") {
		t.Error("first route to claim a name should pass")
	}
	if !f.ShouldFilter("/about") {
		t.Error("/about folds to the same name as /About and should be filtered")
	}
	if f.ShouldFilter("/about_x") {
		t.Error("/about_x has its own name and should pass")
	}
	if !f.ShouldFilter("/about?x") {
		t.Error("/about?x folds to the same name as /about_x and should be filtered")
	}
}

func TestDuplicateFilter_SameRouteRepeats(t *testing.T) {
	f := NewDuplicateFilter()
	for i := 0; i < 3; i++ {
		if f.ShouldFilter("/pricing") {
			t.Errorf("call %d: repeat of the owning route should pass", i+1)
		}
	}
	if f.ShouldFilter("pricing") {
		t.Error("un-normalized spelling of the owner should pass")
	}
}

func TestDuplicateFilter_HomepageAliases(t *testing.T) {
	f := NewDuplicateFilter()
	if f.ShouldFilter("") {
		t.Error("homepage should pass")
	}
	if f.ShouldFilter("/") {
		t.Error("'/' is the same route as ''")
	}
	if f.ShouldFilter("/HOMEPAGE") {
		t.Error("/HOMEPAGE folds to _homepage and should not collide with the root")
	}
}
