package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beautycare/backend/internal/domain"
)

func TestSelect_WarmAutumnPicksWarmFoundation(t *testing.T) {
	cat := newMemCatalog(
		prod("f-cool", domain.CategoryFoundation, domain.UndertoneCool, 1000),
		prod("f-neutral", domain.CategoryFoundation, domain.UndertoneNeutral, 1000),
		prod("f-warm", domain.CategoryFoundation, domain.UndertoneWarm, 1000),
	)
	profile := domain.UserProfile{
		UserID:    "u1",
		Undertone: domain.UndertoneWarm,
		Season:    domain.SeasonAutumn,
		Contrast:  domain.ContrastMedium,
		SkinType:  domain.SkinDry,
		Concerns:  []domain.Concern{domain.ConcernDryness},
	}

	result, err := newTestSelector(t, cat, nil).Select(context.Background(), profile)
	require.NoError(t, err)

	entry, ok := result.Find(domain.SectionMakeupBase, domain.CategoryFoundation)
	require.True(t, ok)
	assert.Equal(t, "f-warm", entry.ProductID)
	assert.Contains(t, entry.Explain, "warm")
	assert.Contains(t, entry.Explain, "autumn")
	assert.False(t, entry.IsFallback)
}

func TestSelect_AcneCleanserWinsBothRoutines(t *testing.T) {
	cat := newMemCatalog(
		prod("c-a", domain.CategoryCleanser, "", 900),
		prod("c-b", domain.CategoryCleanser, "", 900),
		prod("c-salicylic", domain.CategoryCleanser, "", 900, withActives("salicylic_acid")),
		prod("c-c", domain.CategoryCleanser, "", 900),
	)
	profile := domain.UserProfile{
		UserID:    "u2",
		Undertone: domain.UndertoneCool,
		Season:    domain.SeasonWinter,
		Contrast:  domain.ContrastHigh,
		SkinType:  domain.SkinCombo,
		Concerns:  []domain.Concern{domain.ConcernAcne},
	}

	sel := newTestSelector(t, cat, nil)
	result, err := sel.Select(context.Background(), profile)
	require.NoError(t, err)

	for _, section := range []domain.Section{domain.SectionSkincareAM, domain.SectionSkincarePM} {
		entry, ok := result.Find(section, domain.CategoryCleanser)
		require.True(t, ok, section)
		assert.Equal(t, "c-salicylic", entry.ProductID, section)
	}

	ranked := sel.Scorer().Rank(profile, cat.Snapshot().ByCategory(domain.CategoryCleanser))
	require.Len(t, ranked, 4)
	assert.Equal(t, "c-salicylic", ranked[0].Product.ID)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestSelect_TieBreaks(t *testing.T) {
	profile := domain.UserProfile{
		UserID:    "u3",
		Undertone: domain.UndertoneNeutral,
		Season:    domain.SeasonSummer,
		Contrast:  domain.ContrastMedium,
		SkinType:  domain.SkinNormal,
	}

	tests := []struct {
		name     string
		products []domain.Product
		want     string
	}{
		{
			name: "lower price wins",
			products: []domain.Product{
				prod("f-any", domain.CategoryFoundation, domain.UndertoneAny, 1200),
				prod("f-neutral", domain.CategoryFoundation, domain.UndertoneNeutral, 800),
			},
			want: "f-neutral",
		},
		{
			name: "lexicographic id on equal price",
			products: []domain.Product{
				prod("f-neutral", domain.CategoryFoundation, domain.UndertoneNeutral, 1000),
				prod("f-any", domain.CategoryFoundation, domain.UndertoneAny, 1000),
			},
			want: "f-any",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestSelector(t, newMemCatalog(tt.products...), nil).Select(context.Background(), profile)
			require.NoError(t, err)

			entry, ok := result.Find(domain.SectionMakeupBase, domain.CategoryFoundation)
			require.True(t, ok)
			assert.Equal(t, tt.want, entry.ProductID)
		})
	}
}

func TestSelect_OutOfStockWinnerFallsBackToNeighbor(t *testing.T) {
	shades := newShades(t)
	cat := newMemCatalog(
		prod("f-warm", domain.CategoryFoundation, domain.UndertoneWarm, 1000, withShade("found_003"), outOfStock),
		prod("f-neutral", domain.CategoryFoundation, domain.UndertoneNeutral, 1000, withShade("found_004")),
		prod("f-cool", domain.CategoryFoundation, domain.UndertoneCool, 1000, withShade("found_001")),
	)
	profile := domain.UserProfile{
		UserID:    "u4",
		Undertone: domain.UndertoneWarm,
		Season:    domain.SeasonSpring,
		Contrast:  domain.ContrastLow,
		SkinType:  domain.SkinDry,
	}

	result, err := newTestSelector(t, cat, nil).Select(context.Background(), profile)
	require.NoError(t, err)

	entry, ok := result.Find(domain.SectionMakeupBase, domain.CategoryFoundation)
	require.True(t, ok)
	assert.True(t, entry.IsFallback)
	assert.Contains(t, []string{domain.FallbackReasonOOS, domain.FallbackReasonCoverage}, entry.FallbackReason)
	assert.Equal(t, "f-warm", entry.DisplacedID)
	assert.True(t, entry.InStock)

	allowed := append(shades.GetShadeNeighbors("found_003"), shades.SeasonUniversals(domain.SeasonSpring)...)
	assert.Contains(t, allowed, entry.ShadeID)
	assert.Equal(t, domain.FallbackStageNeighbor, entry.FallbackStage)
	assert.Contains(t, entry.Explain, "in-stock alternative")
}

func TestSelect_BucketFallbackPrefersCloseShade(t *testing.T) {
	shades := newShades(t)
	cat := newMemCatalog(
		prod("f-warm", domain.CategoryFoundation, domain.UndertoneWarm, 1000, withShade("found_003"), withTags("spring"), outOfStock),
		prod("f-warm-deep", domain.CategoryFoundation, domain.UndertoneWarm, 100, withShade("found_008"), withTags("spring")),
		prod("f-warm-neighbor", domain.CategoryFoundation, domain.UndertoneWarm, 900, withShade("found_004")),
	)
	profile := domain.UserProfile{
		UserID:    "u4",
		Undertone: domain.UndertoneWarm,
		Season:    domain.SeasonSpring,
		Contrast:  domain.ContrastLow,
		SkinType:  domain.SkinDry,
	}

	result, err := newTestSelector(t, cat, nil).Select(context.Background(), profile)
	require.NoError(t, err)

	entry, ok := result.Find(domain.SectionMakeupBase, domain.CategoryFoundation)
	require.True(t, ok)
	assert.Equal(t, "f-warm-neighbor", entry.ProductID, "the higher scored warm product has a distant shade")
	assert.Equal(t, domain.FallbackStageBucket, entry.FallbackStage)
	assert.Equal(t, domain.FallbackReasonOOS, entry.FallbackReason)

	allowed := append(shades.GetShadeNeighbors("found_003"), shades.SeasonUniversals(domain.SeasonSpring)...)
	assert.Contains(t, allowed, entry.ShadeID)
}

func TestSelect_FallbackStages(t *testing.T) {
	profile := domain.UserProfile{
		UserID:    "u5",
		Undertone: domain.UndertoneWarm,
		Season:    domain.SeasonAutumn,
		Contrast:  domain.ContrastLow,
	}

	tests := []struct {
		name      string
		products  []domain.Product
		wantID    string
		wantStage string
		reason    string
	}{
		{
			name: "same bucket first",
			products: []domain.Product{
				prod("a-warm-oos", domain.CategoryFoundation, domain.UndertoneWarm, 100, withShade("found_003"), outOfStock),
				prod("b-warm", domain.CategoryFoundation, domain.UndertoneWarm, 900, withShade("found_008")),
				prod("c-neighbor", domain.CategoryFoundation, domain.UndertoneNeutral, 100, withShade("found_004")),
			},
			wantID:    "b-warm",
			wantStage: domain.FallbackStageBucket,
			reason:    domain.FallbackReasonOOS,
		},
		{
			name: "season universal",
			products: []domain.Product{
				prod("a-warm-oos", domain.CategoryFoundation, domain.UndertoneWarm, 100, withShade("found_003"), outOfStock),
				prod("b-deep", domain.CategoryFoundation, domain.UndertoneNeutral, 100, withShade("found_008")),
				prod("c-universal", domain.CategoryFoundation, domain.UndertoneNeutral, 100, withShade("found_006")),
			},
			wantID:    "c-universal",
			wantStage: domain.FallbackStageUniversal,
			reason:    domain.FallbackReasonOOS,
		},
		{
			name: "top scored in stock",
			products: []domain.Product{
				prod("a-warm-oos", domain.CategoryFoundation, domain.UndertoneWarm, 100, withShade("found_003"), outOfStock),
				prod("b-cool", domain.CategoryFoundation, domain.UndertoneCool, 100, withShade("found_008")),
			},
			wantID:    "b-cool",
			wantStage: domain.FallbackStageTopScored,
			reason:    domain.FallbackReasonCoverage,
		},
		{
			name: "nothing in stock keeps the winner",
			products: []domain.Product{
				prod("a-warm-oos", domain.CategoryFoundation, domain.UndertoneWarm, 100, withShade("found_003"), outOfStock),
				prod("b-cool-oos", domain.CategoryFoundation, domain.UndertoneCool, 100, outOfStock),
			},
			wantID:    "a-warm-oos",
			wantStage: domain.FallbackStageTopScored,
			reason:    domain.FallbackReasonCoverage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestSelector(t, newMemCatalog(tt.products...), nil).Select(context.Background(), profile)
			require.NoError(t, err)

			entry, ok := result.Find(domain.SectionMakeupBase, domain.CategoryFoundation)
			require.True(t, ok)
			assert.Equal(t, tt.wantID, entry.ProductID)
			assert.Equal(t, tt.wantStage, entry.FallbackStage)
			assert.Equal(t, tt.reason, entry.FallbackReason)
			assert.True(t, entry.IsFallback)
			if entry.InStock {
				assert.Contains(t, entry.Explain, "in-stock alternative")
			} else {
				assert.NotContains(t, entry.Explain, "in-stock")
				assert.Contains(t, entry.Explain, "out of stock")
			}
		})
	}
}

func TestSelect_AffiliateLinks(t *testing.T) {
	p := prod("f-warm", domain.CategoryFoundation, domain.UndertoneWarm, 1000)
	p.Sources[0].URL = "https://shop.example/item?x=1"
	cat := newMemCatalog(p)

	sel := newTestSelector(t, cat, nil)
	result, err := sel.Select(context.Background(), domain.UserProfile{
		UserID: "u6", Undertone: domain.UndertoneWarm, Season: domain.SeasonAutumn, Contrast: domain.ContrastLow,
	})
	require.NoError(t, err)

	entry, ok := result.Find(domain.SectionMakeupBase, domain.CategoryFoundation)
	require.True(t, ok)
	assert.Equal(t, "https://shop.example/item?x=1&aff=XYZ", entry.AffiliateURL)

	report := sel.Validator().Report(result)
	assert.Equal(t, ReportPass, report.Status)
	assert.Equal(t, 1, report.Valid)
}

func TestSelect_BrokenSourceURLEmitsAffiliateMissing(t *testing.T) {
	p := prod("f-warm", domain.CategoryFoundation, domain.UndertoneWarm, 1000)
	p.Sources[0].URL = "ftp://files.example/f"
	sink := &recordingSink{}

	result, err := newTestSelector(t, newMemCatalog(p), sink).Select(context.Background(), domain.UserProfile{
		UserID: "u7", Undertone: domain.UndertoneWarm, Season: domain.SeasonAutumn, Contrast: domain.ContrastLow,
	})
	require.NoError(t, err)

	entry, ok := result.Find(domain.SectionMakeupBase, domain.CategoryFoundation)
	require.True(t, ok)
	assert.Equal(t, "ftp://files.example/f", entry.AffiliateURL)
	require.Len(t, sink.named(domain.EventAffiliateMissing), 1)
	assert.Equal(t, "f-warm", sink.named(domain.EventAffiliateMissing)[0].Properties["product_id"])
}

func TestSelect_UncoveredSlots(t *testing.T) {
	sink := &recordingSink{}
	cat := newMemCatalog(prod("f", domain.CategoryFoundation, domain.UndertoneWarm, 1000))

	result, err := newTestSelector(t, cat, sink).Select(context.Background(), domain.UserProfile{
		UserID: "u8", Undertone: domain.UndertoneWarm, Season: domain.SeasonAutumn, Contrast: domain.ContrastLow,
	})
	require.NoError(t, err)

	require.Len(t, result.Sections, 1)
	assert.Equal(t, domain.SectionMakeupBase, result.Sections[0].Section)
	assert.Len(t, result.Sections[0].Entries, 1)

	// 15 makeup slots, one covered
	assert.Len(t, result.Uncovered, 14)
	assert.Len(t, sink.named(domain.EventSlotUncovered), 14)
	require.Len(t, sink.named(domain.EventSelectionDone), 1)
	assert.Equal(t, 1, sink.named(domain.EventSelectionDone)[0].Properties["covered"])

	for _, e := range sink.events {
		assert.Equal(t, "u8", e.UserID)
		assert.Equal(t, fixedClock(), e.OccurredAt)
		assert.NotEmpty(t, e.ID)
	}
}

func TestSelect_Errors(t *testing.T) {
	cat := newMemCatalog(prod("f", domain.CategoryFoundation, domain.UndertoneWarm, 1000))
	colorProfile := domain.UserProfile{
		UserID: "u9", Undertone: domain.UndertoneWarm, Season: domain.SeasonAutumn, Contrast: domain.ContrastLow,
	}

	t.Run("empty profile", func(t *testing.T) {
		_, err := newTestSelector(t, cat, nil).Select(context.Background(), domain.UserProfile{UserID: "u9"})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("nothing covered", func(t *testing.T) {
		result, err := newTestSelector(t, newMemCatalog(), nil).Select(context.Background(), colorProfile)
		assert.ErrorIs(t, err, domain.ErrSelectionEmpty)
		require.NotNil(t, result)
		assert.True(t, result.IsEmpty())
	})

	t.Run("skincare only profile ignores makeup catalog", func(t *testing.T) {
		_, err := newTestSelector(t, cat, nil).Select(context.Background(), domain.UserProfile{UserID: "u9", SkinType: domain.SkinDry})
		assert.ErrorIs(t, err, domain.ErrSelectionEmpty)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestSelector(t, cat, nil).Select(ctx, colorProfile)
		assert.ErrorIs(t, err, domain.ErrDeadlineExceeded)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSelect_ProductsWithoutURLAreSkipped(t *testing.T) {
	p := prod("f-nourl", domain.CategoryFoundation, domain.UndertoneWarm, 100)
	p.Sources = nil
	cat := newMemCatalog(p, prod("f-url", domain.CategoryFoundation, domain.UndertoneCool, 900))

	result, err := newTestSelector(t, cat, nil).Select(context.Background(), domain.UserProfile{
		UserID: "u10", Undertone: domain.UndertoneWarm, Season: domain.SeasonAutumn, Contrast: domain.ContrastLow,
	})
	require.NoError(t, err)

	entry, ok := result.Find(domain.SectionMakeupBase, domain.CategoryFoundation)
	require.True(t, ok)
	assert.Equal(t, "f-url", entry.ProductID)
}

func TestBrowse(t *testing.T) {
	var products []domain.Product
	for i := 0; i < 5; i++ {
		products = append(products, prod(fmt.Sprintf("lip-%d", i), domain.CategoryLipstick, domain.UndertoneWarm, int64(100*(i+1))))
	}
	sel := newTestSelector(t, newMemCatalog(products...), nil)
	profile := domain.UserProfile{UserID: "u11", Undertone: domain.UndertoneWarm, Season: domain.SeasonSpring, Contrast: domain.ContrastLow}

	tests := []struct {
		page    int
		wantIDs []string
		hasMore bool
	}{
		{1, []string{"lip-0", "lip-1"}, true},
		{2, []string{"lip-2", "lip-3"}, true},
		{3, []string{"lip-4"}, false},
		{4, nil, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			page, err := sel.Browse(context.Background(), profile, domain.CategoryLipstick, tt.page, 2)
			require.NoError(t, err)

			var ids []string
			for _, e := range page.Entries {
				ids = append(ids, e.ProductID)
				assert.Contains(t, e.AffiliateURL, "aff=XYZ")
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.hasMore, page.HasMore)
			assert.Equal(t, 5, page.Total)
		})
	}

	_, err := sel.Browse(context.Background(), profile, domain.CategoryLipstick, 0, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

// genCatalog decodes generated integers into a small makeup catalog so
// shrinking stays meaningful
func genCatalog(codes []int) []domain.Product {
	undertones := []domain.Undertone{domain.UndertoneWarm, domain.UndertoneCool, domain.UndertoneNeutral, ""}
	categories := []domain.Category{domain.CategoryFoundation, domain.CategoryConcealer, domain.CategoryLipstick}

	products := make([]domain.Product, 0, len(codes))
	for i, n := range codes {
		opts := []func(*domain.Product){withShade(fmt.Sprintf("found_%03d", 1+(n/40)%8))}
		if (n/4)%2 == 1 {
			opts = append(opts, outOfStock)
		}
		products = append(products, prod(
			fmt.Sprintf("p-%02d", i),
			categories[(n/320)%len(categories)],
			undertones[n%len(undertones)],
			int64(100+(n/8)%5*100),
			opts...,
		))
	}
	return products
}

func genProfile(n int) domain.UserProfile {
	return domain.UserProfile{
		UserID:    "prop",
		Undertone: []domain.Undertone{domain.UndertoneWarm, domain.UndertoneCool, domain.UndertoneNeutral}[n%3],
		Season:    []domain.Season{domain.SeasonSpring, domain.SeasonSummer, domain.SeasonAutumn, domain.SeasonWinter}[(n/3)%4],
		Contrast:  []domain.Contrast{domain.ContrastLow, domain.ContrastMedium, domain.ContrastHigh}[(n/12)%3],
	}
}

func TestSelectProperties(t *testing.T) {
	shades := newShades(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	run := func(codes []int, profileCode int) (*domain.SelectionResult, *Selector, error) {
		sel := NewSelector(newMemCatalog(genCatalog(codes)...), shades, nil, SelectorConfig{
			PartnerCode: testPartner,
			Weights:     DefaultWeights(),
		})
		result, err := sel.Select(context.Background(), genProfile(profileCode))
		if err != nil && len(codes) > 0 {
			return nil, nil, err
		}
		return result, sel, nil
	}

	properties.Property("selection is byte-identical across runs", prop.ForAll(
		func(codes []int, profileCode int) bool {
			a, _, errA := run(codes, profileCode)
			b, _, errB := run(codes, profileCode)
			if errA != nil || errB != nil {
				return false
			}
			ja, _ := json.Marshal(a)
			jb, _ := json.Marshal(b)
			return string(ja) == string(jb)
		},
		gen.SliceOfN(12, gen.IntRange(0, 959)),
		gen.IntRange(0, 35),
	))

	properties.Property("every entry is tagged, annotated and alone in its slot", prop.ForAll(
		func(codes []int, profileCode int) bool {
			result, sel, err := run(codes, profileCode)
			if err != nil {
				return false
			}
			for _, section := range result.Sections {
				seen := map[domain.Category]bool{}
				for _, e := range section.Entries {
					if seen[e.Slot] {
						return false
					}
					seen[e.Slot] = true
					if e.IsFallback && e.FallbackReason == "" {
						return false
					}
					if !sel.Validator().Validate(e.AffiliateURL).OK() {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(12, gen.IntRange(0, 959)),
		gen.IntRange(0, 35),
	))

	properties.Property("neighbor fallbacks come from the displaced winner's neighbors", prop.ForAll(
		func(codes []int, profileCode int) bool {
			result, _, err := run(codes, profileCode)
			if err != nil {
				return false
			}
			snap := newMemCatalog(genCatalog(codes)...).Snapshot()
			for _, e := range result.Entries() {
				if e.FallbackStage != domain.FallbackStageNeighbor {
					continue
				}
				displaced, ok := snap.Get(e.DisplacedID)
				if !ok {
					return false
				}
				if !toSet(shades.GetShadeNeighbors(displaced.ShadeID))[e.ShadeID] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(12, gen.IntRange(0, 959)),
		gen.IntRange(0, 35),
	))

	properties.TestingRun(t)
}
