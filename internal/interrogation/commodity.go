package interrogation

import (
	"context"
	"strings"

	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/fuzzy"
	"github.com/mavunolabs/shamba/internal/store"
)

// noneSentinel is the explicit "I have none" answer: it clears the
// customer's commodity set of this kind.
const noneSentinel = "none"

// CommodityInterrogator collects a multi-value commodity list (crops or
// livestock) from free text resolved against a controlled vocabulary. The
// raw text and the count of unmatched characters are retained on the
// customer's misc record for data-quality audit.
type CommodityInterrogator struct {
	key        string
	kind       string
	question   string
	vocabulary []string
	repo       store.Repository
	needed     func(c *domain.Customer) bool
}

// NewCommodity builds a fuzzy multi-value commodity interrogator.
func NewCommodity(key, kind, question string, vocabulary []string, repo store.Repository,
	needed func(c *domain.Customer) bool) *CommodityInterrogator {
	return &CommodityInterrogator{
		key: key, kind: kind, question: question,
		vocabulary: vocabulary, repo: repo, needed: needed,
	}
}

// Key names the interrogator.
func (ci *CommodityInterrogator) Key() string { return ci.key }

// IsNeeded reports whether the commodity set is still missing.
func (ci *CommodityInterrogator) IsNeeded(c *domain.Customer) bool { return ci.needed(c) }

// AskOrAnswer runs one exchange.
func (ci *CommodityInterrogator) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Continue(ci.question), nil
	}

	if strings.EqualFold(input, noneSentinel) {
		if err := ci.persist(ctx, c, nil, input, 0); err != nil {
			return Result{}, err
		}
		return Complete(), nil
	}

	extraction := fuzzy.FindChoicesRaw(input, ci.vocabulary)
	if len(extraction.Choices) == 0 {
		return Continue(tryAgainPrefix + ci.question), nil
	}

	if err := ci.persist(ctx, c, extraction.Choices, input, extraction.Unmatched); err != nil {
		return Result{}, err
	}
	return Complete(), nil
}

func (ci *CommodityInterrogator) persist(ctx context.Context, c *domain.Customer, names []string, raw string, unmatched int) error {
	if err := ci.repo.ReplaceCommodities(ctx, c.ID, ci.kind, names); err != nil {
		return err
	}

	md, err := ci.repo.GetMiscData(ctx, c.ID)
	if err != nil {
		return err
	}
	if md == nil {
		md = &domain.CustomerMiscData{CustomerID: c.ID}
	}
	switch ci.kind {
	case domain.CommodityCrop:
		md.RawCropText = raw
		md.CropUnmatched = unmatched
	case domain.CommodityLivestock:
		md.RawLivestockText = raw
		md.LivestockUnmatched = unmatched
	}
	if err := ci.repo.UpsertMiscData(ctx, md); err != nil {
		return err
	}

	switch ci.kind {
	case domain.CommodityCrop:
		c.Crops = names
	case domain.CommodityLivestock:
		c.Livestock = names
	}
	return nil
}
