package allocation

import (
	"reflect"
	"testing"
)

func seated(id, surname, given string) Seated {
	return Seated{StudentID: id, Number: id, Surname: surname, GivenName: given}
}

func occupied(t *testing.T, asg Assignment) []Desk {
	t.Helper()
	var desks []Desk
	for _, d := range asg.Desks {
		if d.StudentID != "" {
			desks = append(desks, d)
		}
	}
	return desks
}

func TestAllocate_surnameOrder(t *testing.T) {
	students := []Seated{
		seated("s1", "Zed", "Zoe"),
		seated("s2", "Amy", "Ann"),
		seated("s3", "Bob", "Ben"),
	}

	asg, err := Allocate(1, 3, students)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if asg.Mode != ModeDense {
		t.Errorf("Allocate() mode = %s, want %s", asg.Mode, ModeDense)
	}

	want := []string{"s2", "s3", "s1"} // Amy, Bob, Zed
	got := make([]string, 0, 3)
	for _, d := range occupied(t, asg) {
		got = append(got, d.StudentID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Allocate() seating order = %v, want %v", got, want)
	}
}

func TestAllocate_tieBreaks(t *testing.T) {
	students := []Seated{
		{StudentID: "s1", Number: "222", Surname: "smith", GivenName: "Ann"},
		{StudentID: "s2", Number: "111", Surname: "Smith", GivenName: "ann"},
		{StudentID: "s3", Number: "333", Surname: "SMITH", GivenName: "Amy"},
	}

	asg, err := Allocate(1, 3, students)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	// surname ties: given name first (Amy), then student number (111 < 222)
	want := []string{"s3", "s2", "s1"}
	got := make([]string, 0, 3)
	for _, d := range occupied(t, asg) {
		got = append(got, d.StudentID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Allocate() seating order = %v, want %v", got, want)
	}
}

func TestAllocate_modeBoundary(t *testing.T) {
	// 2x5 = 10 desks; exactly half is the last skip-column count
	tests := []struct {
		name     string
		students int
		want     Mode
	}{
		{name: "zero students", students: 0, want: ModeSkipColumn},
		{name: "below half", students: 4, want: ModeSkipColumn},
		{name: "exactly half", students: 5, want: ModeSkipColumn},
		{name: "just above half", students: 6, want: ModeDense},
		{name: "full", students: 10, want: ModeDense},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students := make([]Seated, tt.students)
			for i := range students {
				students[i] = seated(string(rune('a'+i)), string(rune('a'+i)), "")
			}
			asg, err := Allocate(2, 5, students)
			if err != nil {
				t.Fatalf("Allocate() error = %v", err)
			}
			if asg.Mode != tt.want {
				t.Errorf("Allocate() mode = %s, want %s", asg.Mode, tt.want)
			}
		})
	}
}

func TestAllocate_skipColumnPlacement(t *testing.T) {
	students := []Seated{
		seated("s1", "Amy", ""),
		seated("s2", "Bob", ""),
		seated("s3", "Cid", ""),
		seated("s4", "Dan", ""),
	}

	asg, err := Allocate(2, 5, students)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if asg.Mode != ModeSkipColumn {
		t.Fatalf("Allocate() mode = %s, want %s", asg.Mode, ModeSkipColumn)
	}

	// row 0 holds columns 0, 2, 4 (desks 1, 3, 5); the fourth student
	// wraps to row 1 column 0 (desk 6)
	wantIdx := []int{1, 3, 5, 6}
	desks := occupied(t, asg)
	if len(desks) != len(wantIdx) {
		t.Fatalf("Allocate() occupied %d desks, want %d", len(desks), len(wantIdx))
	}
	for i, d := range desks {
		if d.Index != wantIdx[i] {
			t.Errorf("Allocate() desk[%d].Index = %d, want %d", i, d.Index, wantIdx[i])
		}
		if d.Column%2 != 0 {
			t.Errorf("Allocate() desk %d seated in odd column %d", d.Index, d.Column)
		}
	}
}

func TestAllocate_everyStudentExactlyOneDesk(t *testing.T) {
	for _, n := range []int{0, 1, 5, 6, 11, 12} {
		students := make([]Seated, n)
		for i := range students {
			students[i] = Seated{StudentID: string(rune('A' + i)), Number: string(rune('A' + i)), Surname: "Surname"}
		}

		asg, err := Allocate(3, 4, students)
		if err != nil {
			t.Fatalf("Allocate(3, 4, %d students) error = %v", n, err)
		}
		if len(asg.Desks) != 12 {
			t.Errorf("Allocate() returned %d desks, want 12", len(asg.Desks))
		}

		seen := make(map[string]int)
		for _, d := range asg.Desks {
			if d.StudentID != "" {
				seen[d.StudentID]++
			}
		}
		if len(seen) != n {
			t.Errorf("Allocate(%d students) seated %d distinct students", n, len(seen))
		}
		for id, count := range seen {
			if count != 1 {
				t.Errorf("Allocate(%d students) seated %s %d times", n, id, count)
			}
		}
	}
}

func TestAllocate_zeroStudents(t *testing.T) {
	asg, err := Allocate(2, 5, nil)
	if err != nil {
		t.Fatalf("Allocate() error = %v, want nil", err)
	}
	if got := asg.Seated(); got != 0 {
		t.Errorf("Allocate() seated %d students, want 0", got)
	}
	if len(asg.Desks) != 10 {
		t.Errorf("Allocate() returned %d desks, want 10", len(asg.Desks))
	}
}

func TestAllocate_capacityError(t *testing.T) {
	students := make([]Seated, 3)
	for i := range students {
		students[i] = seated(string(rune('a'+i)), string(rune('a'+i)), "")
	}

	asg, err := Allocate(1, 2, students)
	if err == nil {
		t.Fatal("Allocate() error = nil, want CapacityError")
	}
	if !IsCapacityError(err) {
		t.Errorf("IsCapacityError() = false for %v", err)
	}
	if len(asg.Desks) != 0 {
		t.Errorf("Allocate() returned a partial assignment on failure: %v", asg)
	}
}

func TestAllocate_idempotent(t *testing.T) {
	a := []Seated{seated("s1", "Zed", ""), seated("s2", "Amy", ""), seated("s3", "Bob", "")}
	b := []Seated{a[1], a[2], a[0]} // same students, different input order

	first, err := Allocate(4, 4, a)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	second, err := Allocate(4, 4, b)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Allocate() not deterministic:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestAllocate_invalidGeometry(t *testing.T) {
	if _, err := Allocate(0, 5, nil); err == nil {
		t.Error("Allocate(0, 5) error = nil, want error")
	}
	if _, err := Allocate(5, -1, nil); err == nil {
		t.Error("Allocate(5, -1) error = nil, want error")
	}
}

func TestAssignment_DeskOf(t *testing.T) {
	asg, err := Allocate(1, 4, []Seated{seated("s1", "Amy", "")})
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	desk, ok := asg.DeskOf("s1")
	if !ok {
		t.Fatal("DeskOf(s1) not found")
	}
	if desk.Index != 1 {
		t.Errorf("DeskOf(s1).Index = %d, want 1", desk.Index)
	}
	if _, ok = asg.DeskOf("nope"); ok {
		t.Error("DeskOf(nope) found, want not found")
	}
}
