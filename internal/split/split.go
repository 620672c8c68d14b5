// Package split partitions labeled examples into train/validation/test sets
// without leakage: stratified by (label, language) within a fold, and with
// test data held out at the dataset level across folds.
package split

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
)

type bucketKey struct {
	label domain.Label
	lang  string
}

// Stratified deterministically splits examples into train and validation
// subsets, preserving label and language proportions.
//
// Buckets are visited in sorted key order and shuffled with a generator
// seeded once from seed, so an identical (examples, valFraction, seed) triple
// always produces an identical split. Per bucket of size k, the validation
// count is k*valFraction rounded half to even, clamped to [1, k-1] for k >= 2 and 0
// otherwise: no bucket is fully drained and no splittable bucket contributes
// nothing. Train and val are disjoint and their union is the input.
func Stratified(examples []domain.UserExample, valFraction float64, seed int64) (train, val []domain.UserExample, err error) {
	if valFraction <= 0 || valFraction >= 1 {
		return nil, nil, fmt.Errorf("%w: val fraction must be between 0 and 1, got %v", errors.ErrInvalidArgument, valFraction)
	}

	buckets := make(map[bucketKey][]domain.UserExample)
	for _, example := range examples {
		key := bucketKey{label: example.Label, lang: example.Lang}
		buckets[key] = append(buckets[key], example)
	}

	keys := make([]bucketKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].label != keys[j].label {
			return keys[i].label < keys[j].label
		}

		return keys[i].lang < keys[j].lang
	})

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible split, not cryptographic

	for _, key := range keys {
		bucket := buckets[key]
		sort.Slice(bucket, func(i, j int) bool {
			return bucket[i].UserID < bucket[j].UserID
		})
		rng.Shuffle(len(bucket), func(i, j int) {
			bucket[i], bucket[j] = bucket[j], bucket[i]
		})

		nVal := validationCount(len(bucket), valFraction)

		val = append(val, bucket[:nVal]...)
		train = append(train, bucket[nVal:]...)
	}

	sortByUserID(train)
	sortByUserID(val)

	return train, val, nil
}

// validationCount returns how many of a bucket's k members go to validation.
func validationCount(k int, valFraction float64) int {
	if k <= 1 {
		return 0
	}

	// Half-to-even rounding: at exact .5 ties a bucket of 25 at fraction
	// 0.10 sends 2 members to validation, not 3.
	n := int(math.RoundToEven(float64(k) * valFraction))
	if n < 1 {
		n = 1
	}

	if n > k-1 {
		n = k - 1
	}

	return n
}

func sortByUserID(examples []domain.UserExample) {
	sort.Slice(examples, func(i, j int) bool {
		return examples[i].UserID < examples[j].UserID
	})
}

// UserIDSet collects the identifier set of an example list.
func UserIDSet(examples []domain.UserExample) map[string]struct{} {
	ids := make(map[string]struct{}, len(examples))
	for _, example := range examples {
		ids[example.UserID] = struct{}{}
	}

	return ids
}

// OverlapSize counts user ids present in both lists. Zero by construction for
// any split produced here; computed anyway so violations surface in reports.
func OverlapSize(a, b []domain.UserExample) int {
	ids := UserIDSet(a)

	count := 0

	for _, example := range b {
		if _, ok := ids[example.UserID]; ok {
			count++
		}
	}

	return count
}
