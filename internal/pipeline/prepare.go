package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/lueurxax/bot-detection-pipeline/internal/artifacts"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
	"github.com/lueurxax/bot-detection-pipeline/internal/dataset"
	"github.com/lueurxax/bot-detection-pipeline/internal/split"
)

// Known corpus shape for the default four datasets. Prepare refuses to
// proceed when the loaded data deviates, since every downstream artifact
// would silently inherit the corruption.
const (
	expectedTotal  = 889
	expectedBots   = 184
	expectedHumans = 705
)

// SplitSummary records where one train/val split was written and how big
// each side is.
type SplitSummary struct {
	TrainPath       string `json:"train_path"`
	ValPath         string `json:"val_path"`
	TrainCount      int    `json:"train_count"`
	ValCount        int    `json:"val_count"`
	TrainValOverlap int    `json:"train_val_overlap"`
}

// FoldSummary extends SplitSummary with the fold's held-out test side.
type FoldSummary struct {
	Name            string `json:"name"`
	TrainDatasetIDs []int  `json:"train_dataset_ids"`
	TestDatasetIDs  []int  `json:"test_dataset_ids"`
	SplitSummary
	TestEvalPath     string `json:"test_eval_path"`
	TestCount        int    `json:"test_count"`
	TrainTestOverlap int    `json:"train_test_overlap"`
	ValTestOverlap   int    `json:"val_test_overlap"`
}

// PrepareSummary is the persisted record of one prepare invocation.
type PrepareSummary struct {
	GeneratedAt   string          `json:"generated_at"`
	Datasets      []int           `json:"datasets"`
	Seed          int64           `json:"seed"`
	ValFraction   float64         `json:"val_fraction"`
	DataIntegrity dataset.Summary `json:"data_integrity"`
	PairFolds     []FoldSummary   `json:"pair_folds"`
	FinalSplit    SplitSummary    `json:"final_split"`
}

// Prepare loads the corpus, builds every split downstream modes consume
// (full corpus, both pair folds, the final full-corpus split) and persists
// the JSONL artifacts plus a summary describing sizes and identifier
// overlaps.
func (p *Pipeline) Prepare() (*PrepareSummary, error) {
	folds := split.PairFolds()
	if err := split.ValidateFolds(folds); err != nil {
		return nil, err
	}

	examples, err := dataset.LoadExamples(p.cfg.DatasetsDir, p.cfg.DatasetIDs)
	if err != nil {
		return nil, err
	}

	summary := dataset.Summarize(examples)

	if err := p.checkCorpusShape(summary); err != nil {
		return nil, err
	}

	preparedDir := p.cfg.PreparedDir()
	allDir := filepath.Join(preparedDir, "all")

	if err := artifacts.WriteSFT(filepath.Join(allDir, "all.jsonl"), examples); err != nil {
		return nil, err
	}

	if err := artifacts.WriteMeta(filepath.Join(allDir, "all.meta.jsonl"), examples); err != nil {
		return nil, err
	}

	if err := artifacts.WriteEval(filepath.Join(allDir, "all.eval.jsonl"), examples); err != nil {
		return nil, err
	}

	foldSummaries := make([]FoldSummary, 0, len(folds))

	for index, fold := range folds {
		foldSplit, err := split.BuildFold(examples, fold, p.cfg.ValFraction, p.cfg.Seed+int64(index))
		if err != nil {
			return nil, err
		}

		foldSummary, err := writeFold(filepath.Join(preparedDir, fold.Name), foldSplit)
		if err != nil {
			return nil, err
		}

		foldSummaries = append(foldSummaries, foldSummary)

		p.logger.Info().
			Str("fold", fold.Name).
			Int("train", foldSummary.TrainCount).
			Int("val", foldSummary.ValCount).
			Int("test", foldSummary.TestCount).
			Int("train_val_overlap", foldSummary.TrainValOverlap).
			Int("train_test_overlap", foldSummary.TrainTestOverlap).
			Int("val_test_overlap", foldSummary.ValTestOverlap).
			Msg("fold split written")
	}

	finalTrain, finalVal, err := split.Stratified(examples, p.cfg.ValFraction, p.cfg.Seed+split.FinalSeedOffset)
	if err != nil {
		return nil, fmt.Errorf("splitting final corpus: %w", err)
	}

	finalSummary, err := writeSplit(filepath.Join(preparedDir, "final"), finalTrain, finalVal)
	if err != nil {
		return nil, err
	}

	payload := &PrepareSummary{
		GeneratedAt:   nowISO(),
		Datasets:      p.cfg.DatasetIDs,
		Seed:          p.cfg.Seed,
		ValFraction:   p.cfg.ValFraction,
		DataIntegrity: summary,
		PairFolds:     foldSummaries,
		FinalSplit:    finalSummary,
	}

	if err := artifacts.SaveJSON(filepath.Join(preparedDir, "summary.json"), payload); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("dir", preparedDir).
		Int("total", summary.TotalExamples).
		Int("bots", summary.Labels[string(domain.LabelBot)]).
		Int("humans", summary.Labels[string(domain.LabelHuman)]).
		Int("truncation_mismatches", summary.TruncationMismatches).
		Msg("prepared data written")

	return payload, nil
}

// checkCorpusShape enforces the known totals when the configured datasets
// are exactly the default corpus. Custom dataset selections skip the check.
func (p *Pipeline) checkCorpusShape(summary dataset.Summary) error {
	if !isDefaultCorpus(p.cfg.DatasetIDs) {
		return nil
	}

	bots := summary.Labels[string(domain.LabelBot)]
	humans := summary.Labels[string(domain.LabelHuman)]

	if summary.TotalExamples != expectedTotal {
		return fmt.Errorf("%w: unexpected total examples %d (expected %d)", errors.ErrDataIntegrity, summary.TotalExamples, expectedTotal)
	}

	if bots != expectedBots {
		return fmt.Errorf("%w: unexpected BOT count %d (expected %d)", errors.ErrDataIntegrity, bots, expectedBots)
	}

	if humans != expectedHumans {
		return fmt.Errorf("%w: unexpected HUMAN count %d (expected %d)", errors.ErrDataIntegrity, humans, expectedHumans)
	}

	return nil
}

func isDefaultCorpus(datasetIDs []int) bool {
	defaults := map[int]struct{}{30: {}, 31: {}, 32: {}, 33: {}}

	seen := make(map[int]struct{}, len(datasetIDs))
	for _, id := range datasetIDs {
		if _, ok := defaults[id]; !ok {
			return false
		}

		seen[id] = struct{}{}
	}

	return len(seen) == len(defaults)
}

// writeSplit persists a train/val split as SFT transcripts plus metadata
// rows and reports sizes and the train/val identifier overlap.
func writeSplit(dir string, train, val []domain.UserExample) (SplitSummary, error) {
	trainPath := filepath.Join(dir, "train.jsonl")
	valPath := filepath.Join(dir, "val.jsonl")

	if err := artifacts.WriteSFT(trainPath, train); err != nil {
		return SplitSummary{}, err
	}

	if err := artifacts.WriteMeta(filepath.Join(dir, "train.meta.jsonl"), train); err != nil {
		return SplitSummary{}, err
	}

	if err := artifacts.WriteSFT(valPath, val); err != nil {
		return SplitSummary{}, err
	}

	if err := artifacts.WriteMeta(filepath.Join(dir, "val.meta.jsonl"), val); err != nil {
		return SplitSummary{}, err
	}

	return SplitSummary{
		TrainPath:       trainPath,
		ValPath:         valPath,
		TrainCount:      len(train),
		ValCount:        len(val),
		TrainValOverlap: split.OverlapSize(train, val),
	}, nil
}

// writeFold persists a fold's train/val split plus its held-out test set as
// evaluation records.
func writeFold(dir string, foldSplit split.FoldSplit) (FoldSummary, error) {
	base, err := writeSplit(dir, foldSplit.Train, foldSplit.Val)
	if err != nil {
		return FoldSummary{}, err
	}

	testEvalPath := filepath.Join(dir, "test.eval.jsonl")

	if err := artifacts.WriteEval(testEvalPath, foldSplit.Test); err != nil {
		return FoldSummary{}, err
	}

	if err := artifacts.WriteMeta(filepath.Join(dir, "test.meta.jsonl"), foldSplit.Test); err != nil {
		return FoldSummary{}, err
	}

	return FoldSummary{
		Name:             foldSplit.Fold.Name,
		TrainDatasetIDs:  foldSplit.Fold.TrainDatasetIDs,
		TestDatasetIDs:   foldSplit.Fold.TestDatasetIDs,
		SplitSummary:     base,
		TestEvalPath:     testEvalPath,
		TestCount:        len(foldSplit.Test),
		TrainTestOverlap: split.OverlapSize(foldSplit.Train, foldSplit.Test),
		ValTestOverlap:   split.OverlapSize(foldSplit.Val, foldSplit.Test),
	}, nil
}
