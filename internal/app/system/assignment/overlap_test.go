package assignment_test

import (
	"testing"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/assignment"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOverlaps(t *testing.T) {
	h := func(n int) time.Time { return *at(n) }
	tests := []struct {
		name           string
		aS, aE, bS, bE int
		want           bool
	}{
		{"partial", 10, 12, 11, 13, true},
		{"touching end", 10, 12, 12, 14, false},
		{"touching start", 12, 14, 10, 12, false},
		{"contained", 10, 14, 11, 12, true},
		{"identical", 10, 12, 10, 12, true},
		{"disjoint", 8, 9, 10, 12, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := assignment.Overlaps(h(tt.aS), h(tt.aE), h(tt.bS), h(tt.bE)); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := assignment.Overlaps(h(tt.bS), h(tt.bE), h(tt.aS), h(tt.aE)); got != tt.want {
				t.Errorf("Overlaps (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissionsOverlap_Ongoing(t *testing.T) {
	a := scheduled("A", 10, 12)
	b := ongoing(3)
	if assignment.MissionsOverlap(&a, &b) {
		t.Error("ongoing missions never overlap")
	}
}

func TestFindConflicts(t *testing.T) {
	v1, v2 := primitive.NewObjectID(), primitive.NewObjectID()
	a := scheduled("A", 10, 12, v1, v2)
	b := scheduled("B", 11, 13, v1)
	c := scheduled("C", 12, 14, v1, v2)
	d := scheduled("D", 9, 15, v2)
	cancelled := scheduled("X", 10, 12, v1)
	cancelled.Status = models.MissionStatusCancelled
	run := ongoing(5, v1)

	got := assignment.FindConflicts([]models.Mission{c, b, a, d, cancelled, run})

	type pair struct {
		v    primitive.ObjectID
		a, b string
	}
	want := map[pair]bool{
		{v1, "A", "B"}: true,
		{v1, "B", "C"}: true,
		{v2, "D", "A"}: true,
		{v2, "D", "C"}: true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d conflicts, want %d: %+v", len(got), len(want), got)
	}
	for _, c := range got {
		if !want[pair{c.VolunteerID, c.A.Title, c.B.Title}] {
			t.Errorf("unexpected conflict %s: %s/%s", c.VolunteerID.Hex(), c.A.Title, c.B.Title)
		}
		if c.A.StartAt.After(c.B.StartAt) {
			t.Errorf("A should start no later than B: %+v", c)
		}
	}
}

func TestFindConflicts_None(t *testing.T) {
	v := primitive.NewObjectID()
	if got := assignment.FindConflicts([]models.Mission{scheduled("A", 10, 12, v), scheduled("C", 12, 14, v)}); len(got) != 0 {
		t.Errorf("expected no conflicts, got %+v", got)
	}
}
