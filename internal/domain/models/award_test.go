package models

import "testing"

func TestParseAwardKind(t *testing.T) {
	tests := []struct {
		input  string
		want   AwardKind
		wantOK bool
	}{
		{"firstPlace", AwardFirstPlace, true},
		{"secondPlace", AwardSecondPlace, true},
		{"thirdPlace", AwardThirdPlace, true},
		{"fourthPlace", AwardFourthPlace, true},
		{"completedInTime", AwardCompletedInTime, true},
		{"participationPoint", AwardParticipationPoint, true},
		{"FirstPlace", "", false},
		{"", "", false},
		{"bonus", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAwardKind(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseAwardKind(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseAwardKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWeights(t *testing.T) {
	for _, k := range AllAwardKinds {
		if k.Weight() <= 0 {
			t.Errorf("weight of %q = %d, want positive", k, k.Weight())
		}
	}
	if AwardFirstPlace.Weight() != 5 {
		t.Errorf("firstPlace weight = %d, want 5", AwardFirstPlace.Weight())
	}
	if ParticipationWeight() != 1 {
		t.Errorf("participation weight = %d, want 1", ParticipationWeight())
	}
	if AwardKind("nope").Weight() != 0 {
		t.Error("unknown kind should weigh 0")
	}
}

func TestAwardsTotal(t *testing.T) {
	a := Awards{ParticipationPoint: true, FirstPlace: true, CompletedInTime: true}
	if got := a.Total(); got != 8 {
		t.Errorf("Total() = %d, want 8", got)
	}
	if (Awards{}).Total() != 0 {
		t.Error("empty awards should total 0")
	}
}

func TestUserFullName(t *testing.T) {
	tests := []struct {
		name string
		u    User
		want string
	}{
		{"both", User{FirstName: "Asha", LastName: "Rao"}, "Asha Rao"},
		{"first only", User{FirstName: " Asha "}, "Asha"},
		{"display fallback", User{DisplayName: "asha_r"}, "asha_r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.u.FullName(); got != tt.want {
				t.Errorf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}
