package model

import (
	"net/url"
	"testing"
)

func TestFilterQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{
			name:   "level and subject",
			filter: Filter{Level: LevelCE1, Subject: SubjectMaths},
			want:   "level=CE1&subject=mathématiques",
		},
		{
			name:   "all and all",
			filter: Filter{Level: FilterAll, Subject: FilterAll},
			want:   "",
		},
		{
			name:   "zero value",
			filter: Filter{},
			want:   "",
		},
		{
			name:   "level only",
			filter: Filter{Level: Level6e, Subject: FilterAll},
			want:   "level=6e",
		},
		{
			name:   "subject only",
			filter: Filter{Subject: SubjectDiscovery},
			want:   "subject=découverte du monde",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := url.QueryUnescape(tt.filter.Query())
			if err != nil {
				t.Fatalf("QueryUnescape: %v", err)
			}
			if got != tt.want {
				t.Errorf("Query() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterIsZero(t *testing.T) {
	if !(Filter{Level: FilterAll, Subject: FilterAll}).IsZero() {
		t.Error("all/all filter should be zero")
	}
	if (Filter{Level: LevelCP}).IsZero() {
		t.Error("level filter should not be zero")
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Filter
	}{
		{
			name:  "valid values",
			query: "level=CM2&subject=histoire",
			want:  Filter{Level: LevelCM2, Subject: SubjectHistory},
		},
		{
			name:  "all values",
			query: "level=all&subject=all",
			want:  Filter{},
		},
		{
			name:  "unknown values dropped",
			query: "level=7e&subject=latin",
			want:  Filter{},
		},
		{
			name:  "empty",
			query: "",
			want:  Filter{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			if got := ParseFilter(q); got != tt.want {
				t.Errorf("ParseFilter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFilterSelectValues(t *testing.T) {
	f := Filter{Level: LevelGS}
	if got := f.LevelValue(); got != "GS" {
		t.Errorf("LevelValue() = %q, want GS", got)
	}
	if got := f.SubjectValue(); got != FilterAll {
		t.Errorf("SubjectValue() = %q, want %q", got, FilterAll)
	}
}

func TestLevelsAndSubjects(t *testing.T) {
	if got := len(Levels()); got != 12 {
		t.Errorf("len(Levels()) = %d, want 12", got)
	}
	if got := len(Subjects()); got != 6 {
		t.Errorf("len(Subjects()) = %d, want 6", got)
	}
	if !Level("CE1").IsValid() {
		t.Error("CE1 should be valid")
	}
	if Level("all").IsValid() {
		t.Error("all should not be a valid level")
	}
	if !Subject("français").IsValid() {
		t.Error("français should be valid")
	}

	// Callers must not be able to mutate the package lists.
	l := Levels()
	l[0] = "XX"
	if Levels()[0] != LevelPS {
		t.Error("Levels() returned shared slice")
	}
}
