package storage

import (
	"testing"

	"github.com/google/uuid"
)

func TestOrderPairIsSymmetric(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")

	gotA, gotB := orderPair(a, b)
	if gotA != a || gotB != b {
		t.Fatalf("already ordered pair must not change: %s %s", gotA, gotB)
	}

	gotA, gotB = orderPair(b, a)
	if gotA != a || gotB != b {
		t.Fatalf("reversed pair must normalize: %s %s", gotA, gotB)
	}

	gotA, gotB = orderPair(a, a)
	if gotA != a || gotB != a {
		t.Fatal("identical pair must pass through")
	}
}

func TestPublicUserOmitsCredentials(t *testing.T) {
	connID := "conn-1"
	user := &User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		SkillsTeach:  []string{"go"},
		Rating:       4.5,
		TotalRatings: 2,
		IsOnline:     true,
		ConnectionID: &connID,
	}

	public := user.Public()
	if public.Username != "alice" || public.Rating != 4.5 || !public.IsOnline {
		t.Fatalf("public view lost profile fields: %+v", public)
	}
}
