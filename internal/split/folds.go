package split

import (
	"fmt"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
	"github.com/lueurxax/bot-detection-pipeline/internal/dataset"
)

// PairFold names a dataset-level train/test partition. Test datasets are
// entirely excluded from training, which is what prevents leakage through
// near-duplicate content across independently collected corpora.
type PairFold struct {
	Name            string `json:"name"`
	TrainDatasetIDs []int  `json:"train_dataset_ids"`
	TestDatasetIDs  []int  `json:"test_dataset_ids"`
}

// Seed offset for the final full-corpus split, keeping it distinct from any
// per-fold seed.
const FinalSeedOffset = 999

// PairFolds returns the two folds for the default four-dataset corpus, each
// using the other's datasets as held-out test data.
func PairFolds() []PairFold {
	return []PairFold{
		{Name: "fold_a", TrainDatasetIDs: []int{30, 32}, TestDatasetIDs: []int{31, 33}},
		{Name: "fold_b", TrainDatasetIDs: []int{31, 33}, TestDatasetIDs: []int{30, 32}},
	}
}

// ValidateFolds checks the configuration-time invariant that every fold's
// train and test dataset ids are disjoint. Called once at startup.
func ValidateFolds(folds []PairFold) error {
	for _, fold := range folds {
		train := make(map[int]struct{}, len(fold.TrainDatasetIDs))
		for _, id := range fold.TrainDatasetIDs {
			train[id] = struct{}{}
		}

		for _, id := range fold.TestDatasetIDs {
			if _, ok := train[id]; ok {
				return fmt.Errorf("%w: fold %s has dataset %d in both train and test", errors.ErrInvalidArgument, fold.Name, id)
			}
		}
	}

	return nil
}

// FoldSplit is the materialized partition for one pair fold: a stratified
// train/val split over the fold's train datasets plus the unsplit test set.
type FoldSplit struct {
	Fold  PairFold
	Train []domain.UserExample
	Val   []domain.UserExample
	Test  []domain.UserExample
}

// BuildFold filters examples to the fold's train datasets, stratified-splits
// that pool, and separately filters the held-out test set.
func BuildFold(examples []domain.UserExample, fold PairFold, valFraction float64, seed int64) (FoldSplit, error) {
	trainPool := dataset.FilterByDataset(examples, fold.TrainDatasetIDs)

	train, val, err := Stratified(trainPool, valFraction, seed)
	if err != nil {
		return FoldSplit{}, fmt.Errorf("splitting fold %s: %w", fold.Name, err)
	}

	return FoldSplit{
		Fold:  fold,
		Train: train,
		Val:   val,
		Test:  dataset.FilterByDataset(examples, fold.TestDatasetIDs),
	}, nil
}
