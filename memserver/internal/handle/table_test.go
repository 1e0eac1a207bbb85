package handle

import "testing"

func TestTableBasic(t *testing.T) {
	tbl := New[string]()

	h := tbl.Insert("bool1")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}
	if v, ok := tbl.Get(h); !ok || v != "bool1" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if _, ok := tbl.Get(0); ok {
		t.Fatal("handle 0 must never resolve")
	}
	if _, ok := tbl.Get(h + 1); ok {
		t.Fatal("unissued handle resolved")
	}

	if v, ok := tbl.Remove(h); !ok || v != "bool1" {
		t.Fatalf("Remove = %q, %v", v, ok)
	}
	if _, ok := tbl.Get(h); ok {
		t.Fatal("removed handle still resolves")
	}
	if _, ok := tbl.Remove(h); ok {
		t.Fatal("double remove succeeded")
	}
	if tbl.Len() != 0 {
		t.Fatalf("Len = %d, want 0", tbl.Len())
	}
}

func TestTableReusesHandles(t *testing.T) {
	tbl := New[int]()
	a := tbl.Insert(1)
	b := tbl.Insert(2)
	tbl.Remove(a)

	c := tbl.Insert(3)
	if c != a {
		t.Errorf("freed handle %d not reused, got %d", a, c)
	}
	if v, _ := tbl.Get(b); v != 2 {
		t.Errorf("handle %d = %d, want 2", b, v)
	}

	var seen []uint32
	tbl.Each(func(h uint32, _ int) bool {
		seen = append(seen, h)
		return true
	})
	if len(seen) != 2 || tbl.Len() != 2 {
		t.Errorf("Each saw %v, Len %d", seen, tbl.Len())
	}
}
