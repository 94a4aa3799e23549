package matchmaking

import "testing"

func TestNormalizeSkills(t *testing.T) {
	set := normalizeSkills([]string{" Guitar ", "GUITAR", "go", "", "   "})
	if len(set) != 2 {
		t.Fatalf("expected 2 distinct skills, got %d: %v", len(set), set)
	}
	if _, ok := set["guitar"]; !ok {
		t.Fatal("expected lowercased trimmed entry")
	}
	if _, ok := set["go"]; !ok {
		t.Fatal("expected go to survive")
	}
}

func TestSkillsCompatible(t *testing.T) {
	tests := []struct {
		name                   string
		myTeach, myLearn       []string
		theirTeach, theirLearn []string
		want                   bool
	}{
		{"i teach what they learn", []string{"go"}, nil, nil, []string{"go"}, true},
		{"they teach what i learn", nil, []string{"piano"}, []string{"piano"}, nil, true},
		{"case and whitespace folded", []string{"Go "}, nil, nil, []string{" gO"}, true},
		{"disjoint", []string{"go"}, []string{"piano"}, []string{"sql"}, []string{"chess"}, false},
		{"same direction overlap only", []string{"go"}, nil, []string{"go"}, nil, false},
		{"empty sets", nil, nil, nil, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := skillsCompatible(
				normalizeSkills(tc.myTeach), normalizeSkills(tc.myLearn),
				normalizeSkills(tc.theirTeach), normalizeSkills(tc.theirLearn),
			)
			if got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}
