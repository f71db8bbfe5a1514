package interrogation

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/fuzzy"
	"github.com/mavunolabs/shamba/internal/store"
)

// Crop dialog-machine state tags.
const (
	cropStateConfirm  StateTag = "crop_confirm"
	cropStateAdd      StateTag = "crop_add"
	cropStatePick     StateTag = "crop_pick"
	cropStateRemove   StateTag = "crop_remove"
	cropStatePlanting StateTag = "crop_planting"
)

const (
	cropCandidatesKey = "crop_candidates"
	plantingCropKey   = "planting_crop"

	cropCandidateCount  = 3
	cropCandidateCutoff = 0.5
	cropScratchSep      = "|"
)

// plantingWindow is how fresh a planting record must be before the dialog
// stops asking about that crop again.
const plantingWindow = 365 * 24 * time.Hour

// NewCropDialog builds the crop review machine: confirm the current crop
// list, add or remove crops against the vocabulary, then collect a planting
// date for every crop without a recent record.
func NewCropDialog(key string, vocabulary []string, repo store.Repository, now func() time.Time) *FsmInterrogator {
	d := &cropDialog{vocabulary: vocabulary, repo: repo, now: now}
	m := Machine{
		Initial: cropStateConfirm,
		States: map[StateTag]State{
			cropStateConfirm: {
				Tag:        cropStateConfirm,
				OnEnter:    d.enterConfirm,
				Question:   d.confirmQuestion,
				OnResponse: d.confirmResponse,
			},
			cropStateAdd: {
				Tag:        cropStateAdd,
				Question:   d.addQuestion,
				OnResponse: d.addResponse,
			},
			cropStatePick: {
				Tag:        cropStatePick,
				Question:   d.pickQuestion,
				OnResponse: d.pickResponse,
			},
			cropStateRemove: {
				Tag:        cropStateRemove,
				Question:   d.removeQuestion,
				OnResponse: d.removeResponse,
			},
			cropStatePlanting: {
				Tag:        cropStatePlanting,
				OnEnter:    d.enterPlanting,
				Question:   d.plantingQuestion,
				OnResponse: d.plantingResponse,
			},
		},
	}
	needed := func(c *domain.Customer) bool { return !c.IsRegistered }
	return NewFsm(key, m, needed)
}

type cropDialog struct {
	vocabulary []string
	repo       store.Repository
	now        func() time.Time
}

func (d *cropDialog) enterConfirm(ctx context.Context, c *domain.Customer, fs *FlowState) (StateTag, error) {
	if len(c.Crops) == 0 {
		return cropStateAdd, nil
	}
	return cropStateConfirm, nil
}

func (d *cropDialog) confirmQuestion(ctx context.Context, c *domain.Customer, fs *FlowState) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Your crops: %s. Is this correct?", strings.Join(c.Crops, ", "))
	b.WriteString("\n1. Yes, correct")
	b.WriteString("\n2. Add a crop")
	if len(c.Crops) > 0 {
		b.WriteString("\n3. Remove a crop")
	}
	return b.String(), nil
}

func (d *cropDialog) confirmResponse(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (StateTag, error) {
	switch strings.TrimSpace(input) {
	case "1":
		return cropStatePlanting, nil
	case "2":
		return cropStateAdd, nil
	case "3":
		if len(c.Crops) > 0 {
			return cropStateRemove, nil
		}
	}
	return cropStateConfirm, nil
}

func (d *cropDialog) addQuestion(ctx context.Context, c *domain.Customer, fs *FlowState) (string, error) {
	return "What crop would you like to add?\n0. None", nil
}

func (d *cropDialog) addResponse(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (StateTag, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "0", noneSentinel:
		// A farmer who grows nothing is done with the crop review; one who
		// already has crops just declined to add another.
		if len(c.Crops) == 0 {
			return StateNone, nil
		}
		return cropStateConfirm, nil
	}
	cands := rankVocabulary(input, d.vocabulary, cropCandidateCount, cropCandidateCutoff)
	if len(cands) == 0 {
		return cropStateAdd, nil
	}
	fs.Put(cropCandidatesKey, strings.Join(cands, cropScratchSep))
	return cropStatePick, nil
}

func (d *cropDialog) pickQuestion(ctx context.Context, c *domain.Customer, fs *FlowState) (string, error) {
	cands := strings.Split(fs.Get(cropCandidatesKey), cropScratchSep)
	var b strings.Builder
	b.WriteString("Which crop did you mean?")
	for i, cand := range cands {
		fmt.Fprintf(&b, "\n%d. %s", i+1, cand)
	}
	b.WriteString("\n0. None of these")
	return b.String(), nil
}

func (d *cropDialog) pickResponse(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (StateTag, error) {
	cands := strings.Split(fs.Get(cropCandidatesKey), cropScratchSep)
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 0 || n > len(cands) {
		return cropStatePick, nil
	}
	fs.Drop(cropCandidatesKey)
	if n == 0 {
		return cropStateAdd, nil
	}

	chosen := cands[n-1]
	if !c.HasCrop(chosen) {
		next := append(append([]string{}, c.Crops...), chosen)
		if err := d.repo.ReplaceCommodities(ctx, c.ID, domain.CommodityCrop, next); err != nil {
			return StateNone, err
		}
		c.Crops = next
	}
	return cropStateConfirm, nil
}

func (d *cropDialog) removeQuestion(ctx context.Context, c *domain.Customer, fs *FlowState) (string, error) {
	var b strings.Builder
	b.WriteString("Which crop should be removed?")
	for i, crop := range c.Crops {
		fmt.Fprintf(&b, "\n%d. %s", i+1, crop)
	}
	b.WriteString("\n0. Keep all")
	return b.String(), nil
}

func (d *cropDialog) removeResponse(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (StateTag, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 0 || n > len(c.Crops) {
		return cropStateRemove, nil
	}
	if n == 0 {
		return cropStateConfirm, nil
	}

	next := make([]string, 0, len(c.Crops)-1)
	for i, crop := range c.Crops {
		if i != n-1 {
			next = append(next, crop)
		}
	}
	if err := d.repo.ReplaceCommodities(ctx, c.ID, domain.CommodityCrop, next); err != nil {
		return StateNone, err
	}
	c.Crops = next
	return cropStateConfirm, nil
}

func (d *cropDialog) enterPlanting(ctx context.Context, c *domain.Customer, fs *FlowState) (StateTag, error) {
	crop, err := d.nextCropNeedingDate(ctx, c, "")
	if err != nil {
		return StateNone, err
	}
	if crop == "" {
		return StateNone, nil
	}
	fs.Put(plantingCropKey, crop)
	return cropStatePlanting, nil
}

func (d *cropDialog) plantingQuestion(ctx context.Context, c *domain.Customer, fs *FlowState) (string, error) {
	return fmt.Sprintf("When did you plant %s? (e.g. 11-Dec-2021)", fs.Get(plantingCropKey)), nil
}

func (d *cropDialog) plantingResponse(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (StateTag, error) {
	crop := fs.Get(plantingCropKey)
	when, ok := ParseLenientDate(input)
	if !ok {
		return cropStatePlanting, nil
	}

	rec := &domain.PlantingRecord{CustomerID: c.ID, Crop: crop, PlantedAt: &when}
	if err := d.repo.UpsertPlantingRecord(ctx, rec); err != nil {
		return StateNone, err
	}

	next, err := d.nextCropNeedingDate(ctx, c, crop)
	if err != nil {
		return StateNone, err
	}
	if next == "" {
		fs.Drop(plantingCropKey)
		return StateNone, nil
	}
	fs.Put(plantingCropKey, next)
	// Same tag so the machine re-asks; the question text follows the scratch.
	return cropStatePlanting, nil
}

// nextCropNeedingDate returns the first crop after the given one (in list
// order) without a recent planting record, or "".
func (d *cropDialog) nextCropNeedingDate(ctx context.Context, c *domain.Customer, after string) (string, error) {
	recs, err := d.repo.ListPlantingRecords(ctx, c.ID)
	if err != nil {
		return "", err
	}
	recent := map[string]bool{}
	now := d.now()
	for _, r := range recs {
		if r.Recent(plantingWindow, now) {
			recent[strings.ToLower(r.Crop)] = true
		}
	}

	passed := after == ""
	for _, crop := range c.Crops {
		if !passed {
			if strings.EqualFold(crop, after) {
				passed = true
			}
			continue
		}
		if !recent[strings.ToLower(crop)] {
			return crop, nil
		}
	}
	return "", nil
}

// rankVocabulary scores every vocabulary term against the input and returns
// the topN above the cutoff, best first.
func rankVocabulary(input string, vocabulary []string, topN int, cutoff float64) []string {
	type scored struct {
		term  string
		score float64
	}
	var hits []scored
	needle := strings.ToLower(strings.TrimSpace(input))
	for _, term := range vocabulary {
		if s := fuzzy.Ratio(needle, strings.ToLower(term)); s >= cutoff {
			hits = append(hits, scored{term: term, score: s})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > topN {
		hits = hits[:topN]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.term
	}
	return out
}
