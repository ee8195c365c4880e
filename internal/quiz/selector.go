package quiz

import (
	"math"
	"math/rand"
	"sort"
)

// HighFailureThreshold is the historical failure rate (percent) above
// which a seen question is considered revision material.
const HighFailureThreshold = 50.0

// Quota shares for the unseen and high-failure buckets. Whatever the two
// priority buckets cannot fill folds into the random fill.
const (
	unseenShare  = 0.4
	failureShare = 0.4
)

// SelectQuestions picks up to limit question ids from pool, biased toward
// material the learner has never seen and material they historically fail,
// while still injecting novelty through a random fill.
//
// seen is the set of question ids the learner has ever answered, across
// all sessions. failureRates maps seen question ids to their historical
// failure percentage (0-100). limit <= 0, or limit >= |pool|, means the
// whole pool.
//
// The result is a selection, not a presentation order: callers shuffle
// again before presenting.
func SelectQuestions(rng *rand.Rand, pool []int64, seen map[int64]bool, failureRates map[int64]float64, limit int) []int64 {
	if len(pool) == 0 {
		return nil
	}

	if limit <= 0 || limit >= len(pool) {
		all := append([]int64(nil), pool...)
		rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		return all
	}

	var unseen []int64
	var highFailure []int64
	for _, id := range pool {
		if !seen[id] {
			unseen = append(unseen, id)
		} else if failureRates[id] >= HighFailureThreshold {
			highFailure = append(highFailure, id)
		}
	}

	// Worst-failed first; stable so equal rates keep pool order.
	sort.SliceStable(highFailure, func(i, j int) bool {
		return failureRates[highFailure[i]] > failureRates[highFailure[j]]
	})

	unseenQuota := int(math.Ceil(float64(limit) * unseenShare))
	failureQuota := int(math.Ceil(float64(limit) * failureShare))

	selected := make([]int64, 0, limit)
	picked := make(map[int64]bool, limit)

	take := func(ids []int64, n int) {
		for _, id := range ids {
			if n <= 0 || len(selected) >= limit {
				return
			}
			if picked[id] {
				continue
			}
			picked[id] = true
			selected = append(selected, id)
			n--
		}
	}

	rng.Shuffle(len(unseen), func(i, j int) { unseen[i], unseen[j] = unseen[j], unseen[i] })
	take(unseen, unseenQuota)
	take(highFailure, failureQuota)

	// Random fill from the rest of the pool.
	rest := notPicked(pool, picked)
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	take(rest, limit-len(selected))

	// Quota rounding can leave the selection short when the priority
	// buckets overlap; one final top-up closes the gap.
	if len(selected) < limit {
		rest = notPicked(pool, picked)
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		take(rest, limit-len(selected))
	}

	return selected
}

func notPicked(pool []int64, picked map[int64]bool) []int64 {
	var out []int64
	for _, id := range pool {
		if !picked[id] {
			out = append(out, id)
		}
	}
	return out
}
