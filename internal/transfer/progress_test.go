package transfer

import (
	"testing"
	"time"
)

func TestProgressTracker(t *testing.T) {
	var got []int
	tr := NewProgressTracker(func(p int) { got = append(got, p) })

	for _, p := range []int{-5, 0, 10, 10, 5, 50, 120, 100} {
		tr.Report(p)
	}

	want := []int{10, 50, 100}
	if len(got) != len(want) {
		t.Fatalf("reported %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reported %v, want %v", got, want)
		}
	}
	if tr.Last() != 100 {
		t.Errorf("Last() = %d, want 100", tr.Last())
	}
}

func TestProgressTracker_ReportBytes(t *testing.T) {
	tests := []struct {
		done, total int64
		want        int
	}{
		{0, 200, 0},
		{50, 200, 25},
		{199, 200, 99},
		{200, 200, 100},
		{0, 0, 100},
	}
	for _, tt := range tests {
		tr := NewProgressTracker(nil)
		tr.ReportBytes(tt.done, tt.total)
		if tr.Last() != tt.want {
			t.Errorf("ReportBytes(%d, %d) = %d, want %d", tt.done, tt.total, tr.Last(), tt.want)
		}
	}
}

func TestArchiveName(t *testing.T) {
	ts := time.Date(2025, 3, 7, 9, 5, 0, 0, time.Local)
	if got := ArchiveName(ts); got != "iTransfer_2503070905.zip" {
		t.Errorf("ArchiveName() = %q", got)
	}
}

func TestManifest(t *testing.T) {
	items := []UploadItem{
		{Name: "a.txt", Path: "/a.txt", Size: 1},
		{Name: "b.txt", Path: "/dir/b.txt", Size: 2},
	}
	m := Manifest(items)
	if m[0].Name != "a.txt" || m[1].Name != "dir/b.txt" || m[1].Size != 2 {
		t.Errorf("Manifest() = %+v", m)
	}
	if TotalSize(items) != 3 {
		t.Errorf("TotalSize() = %d, want 3", TotalSize(items))
	}
}

func TestForm_Validate(t *testing.T) {
	tests := []struct {
		name   string
		form   Form
		staged int
		field  string
	}{
		{"nothing staged", Form{Recipient: "r", Sender: "s", ExpirationDays: 7}, 0, "files"},
		{"no recipient", Form{Sender: "s", ExpirationDays: 7}, 1, "email"},
		{"no sender", Form{Recipient: "r", ExpirationDays: 7}, 1, "sender_email"},
		{"staged checked first", Form{}, 0, "files"},
		{"bad expiration", Form{Recipient: "r", Sender: "s", ExpirationDays: 4}, 1, "expiration_days"},
		{"valid", Form{Recipient: "r", Sender: "s", ExpirationDays: 10}, 2, ""},
		{"unvalidated email format", Form{Recipient: "not-an-email", Sender: "s", ExpirationDays: 3}, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate(tt.staged)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}
