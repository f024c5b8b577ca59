package csvutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadRows_KeysByHeader(t *testing.T) {
	in := "Title,Published,Permissions\nStaff,1,\"edit, guest\"\nBoard,,admin\n"

	rows, err := ReadRows(strings.NewReader(in), 0)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	want := []map[string]string{
		{"title": "Staff", "published": "1", "permissions": "edit, guest"},
		{"title": "Board", "published": "", "permissions": "admin"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("ReadRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRows_BOMHandling(t *testing.T) {
	rows, err := ReadRows(strings.NewReader("\ufeffTitle\nStaff"), 0)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 1 || rows[0]["title"] != "Staff" {
		t.Errorf("ReadRows() = %v, want title key without BOM", rows)
	}
}

func TestReadRows_SkipsBlankRowsAndShortRows(t *testing.T) {
	in := "title,published\n,\nStaff\n\nBoard,yes\n"

	rows, err := ReadRows(strings.NewReader(in), 0)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if _, ok := rows[0]["published"]; ok {
		t.Errorf("short row should not carry missing columns: %v", rows[0])
	}
}

func TestReadRows_EmptyFile(t *testing.T) {
	if _, err := ReadRows(strings.NewReader(""), 0); !errors.Is(err, ErrEmpty) {
		t.Errorf("ReadRows(empty) error = %v, want ErrEmpty", err)
	}
}

func TestReadRows_MaxRows(t *testing.T) {
	in := "title\na\nb\nc\n"
	if _, err := ReadRows(strings.NewReader(in), 2); !errors.Is(err, ErrTooManyRows) {
		t.Errorf("error = %v, want ErrTooManyRows", err)
	}
	if rows, err := ReadRows(strings.NewReader(in), 3); err != nil || len(rows) != 3 {
		t.Errorf("limit 3: rows=%d err=%v", len(rows), err)
	}
}
