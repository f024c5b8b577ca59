package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{"/directory", 1},
		{"/directory?page=3", 3},
		{"/directory?page=0", 1},
		{"/directory?page=-2", 1},
		{"/directory?page=abc", 1},
		{"/directory?page=9223372036854775807", MaxPage},
		{"/directory?page=99999999999999999999", 1},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.target, nil)
		if got := ParsePage(r); got != tt.want {
			t.Errorf("ParsePage(%q) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestPager_HugePageKeepsSkipPositive(t *testing.T) {
	r := httptest.NewRequest("GET", "/directory?page=9223372036854775807", nil)
	p := NewPager(r, 50)
	if want := int64(MaxPage-1) * 50; p.Skip() != want {
		t.Errorf("Skip() = %d, want %d", p.Skip(), want)
	}
}

func TestPager(t *testing.T) {
	r := httptest.NewRequest("GET", "/directory?page=2", nil)
	p := NewPager(r, 0)
	p.Total = 25

	if p.PerPage != DefaultPerPage {
		t.Fatalf("PerPage = %d, want %d", p.PerPage, DefaultPerPage)
	}
	if p.Skip() != 10 || p.Limit() != 10 {
		t.Errorf("Skip/Limit = %d/%d, want 10/10", p.Skip(), p.Limit())
	}
	if p.Pages() != 3 {
		t.Errorf("Pages() = %d, want 3", p.Pages())
	}
	if !p.HasPrev() || !p.HasNext() {
		t.Errorf("HasPrev/HasNext = %v/%v, want true/true", p.HasPrev(), p.HasNext())
	}
}

func TestPager_Empty(t *testing.T) {
	p := Pager{Page: 1, PerPage: 10}
	if p.Pages() != 1 {
		t.Errorf("Pages() = %d, want 1", p.Pages())
	}
	if p.HasNext() || p.HasPrev() {
		t.Error("empty pager should have neither prev nor next")
	}
}

func TestPager_URLKeepsFilters(t *testing.T) {
	r := httptest.NewRequest("GET", "/directory/people?letter=b&page=3", nil)
	p := NewPager(r, 10)
	if got := p.URL(4); got != "?letter=b&page=4" {
		t.Errorf("URL(4) = %q", got)
	}
}
