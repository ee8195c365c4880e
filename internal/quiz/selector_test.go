package quiz

import (
	"math/rand"
	"testing"
)

func seededRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func makePool(n int) []int64 {
	pool := make([]int64, n)
	for i := range pool {
		pool[i] = int64(i + 1)
	}
	return pool
}

func assertDistinctSubset(t *testing.T, selected, pool []int64) {
	t.Helper()
	inPool := make(map[int64]bool, len(pool))
	for _, id := range pool {
		inPool[id] = true
	}
	picked := make(map[int64]bool, len(selected))
	for _, id := range selected {
		if !inPool[id] {
			t.Errorf("selected id %d is not in the pool", id)
		}
		if picked[id] {
			t.Errorf("selected id %d appears more than once", id)
		}
		picked[id] = true
	}
}

func TestSelectQuestionsEmptyPool(t *testing.T) {
	got := SelectQuestions(seededRand(), nil, nil, nil, 10)
	if len(got) != 0 {
		t.Errorf("empty pool should select nothing, got %v", got)
	}
}

func TestSelectQuestionsWholePool(t *testing.T) {
	pool := makePool(10)

	// limit <= 0 means everything
	got := SelectQuestions(seededRand(), pool, nil, nil, 0)
	if len(got) != 10 {
		t.Errorf("limit 0 should return whole pool, got %d ids", len(got))
	}
	assertDistinctSubset(t, got, pool)

	// limit beyond pool size means everything too
	got = SelectQuestions(seededRand(), pool, nil, nil, 50)
	if len(got) != 10 {
		t.Errorf("limit 50 on pool of 10 should return 10 ids, got %d", len(got))
	}
	assertDistinctSubset(t, got, pool)
}

func TestSelectQuestionsUnseenQuota(t *testing.T) {
	pool := makePool(100)
	seen := make(map[int64]bool)
	for id := int64(1); id <= 80; id++ { // 20 unseen: ids 81..100
		seen[id] = true
	}

	got := SelectQuestions(seededRand(), pool, seen, nil, 10)
	if len(got) != 10 {
		t.Fatalf("expected 10 ids, got %d", len(got))
	}
	assertDistinctSubset(t, got, pool)

	// ceil(10 * 0.4) = 4 unseen ids guaranteed
	unseenCount := 0
	for _, id := range got {
		if !seen[id] {
			unseenCount++
		}
	}
	if unseenCount < 4 {
		t.Errorf("expected at least 4 unseen ids, got %d", unseenCount)
	}
}

func TestSelectQuestionsFailureQuota(t *testing.T) {
	pool := makePool(20)
	seen := make(map[int64]bool)
	for _, id := range pool {
		seen[id] = true
	}
	rates := map[int64]float64{
		3:  90,
		7:  80,
		11: 60,
		15: 40, // below threshold, not revision material
	}

	got := SelectQuestions(seededRand(), pool, seen, rates, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 ids, got %d", len(got))
	}
	assertDistinctSubset(t, got, pool)

	// No unseen ids exist, so the failure bucket runs at its quota of
	// ceil(5*0.4) = 2: the two worst-failed ids must be present.
	contains := func(id int64) bool {
		for _, got := range got {
			if got == id {
				return true
			}
		}
		return false
	}
	if !contains(3) || !contains(7) {
		t.Errorf("expected worst-failed ids 3 and 7 in selection, got %v", got)
	}
}

func TestSelectQuestionsTotality(t *testing.T) {
	pool := makePool(17)

	for limit := 0; limit <= 25; limit++ {
		got := SelectQuestions(seededRand(), pool, nil, nil, limit)

		want := limit
		if limit <= 0 || limit > len(pool) {
			want = len(pool)
		}
		if len(got) != want {
			t.Errorf("limit %d: got %d ids, want %d", limit, len(got), want)
		}
		assertDistinctSubset(t, got, pool)
	}
}

func TestSelectQuestionsDeterministicWithSeed(t *testing.T) {
	pool := makePool(30)
	seen := map[int64]bool{1: true, 2: true, 3: true}
	rates := map[int64]float64{1: 75, 2: 55}

	a := SelectQuestions(rand.New(rand.NewSource(7)), pool, seen, rates, 10)
	b := SelectQuestions(rand.New(rand.NewSource(7)), pool, seen, rates, 10)

	if len(a) != len(b) {
		t.Fatalf("same seed produced different lengths: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different selections: %v vs %v", a, b)
		}
	}
}
