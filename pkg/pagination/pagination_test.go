package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   Params
		want Params
	}{
		{Params{}, Params{Page: 1, Limit: DefaultLimit}},
		{Params{Page: -3, Limit: 500}, Params{Page: 1, Limit: MaxLimit}},
		{Params{Page: 4, Limit: 20}, Params{Page: 4, Limit: 20}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 3, Limit: 20}).Offset(); got != 40 {
		t.Fatalf("expected offset 40, got %d", got)
	}
	if got := (Params{}).Offset(); got != 0 {
		t.Fatalf("expected offset 0, got %d", got)
	}
}

func TestNewPageAndMap(t *testing.T) {
	page := NewPage([]int{1, 2, 3}, Params{Page: 2, Limit: 3}, 7)
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", page.TotalPages)
	}
	doubled := Map(page, func(v int) int { return v * 2 })
	if len(doubled.Items) != 3 || doubled.Items[2] != 6 || doubled.Total != 7 || doubled.Page != 2 {
		t.Fatalf("unexpected mapped page %+v", doubled)
	}

	empty := NewPage[int](nil, Params{}, 0)
	if empty.Items == nil || empty.TotalPages != 0 {
		t.Fatalf("expected empty non-nil items, got %+v", empty)
	}
}
