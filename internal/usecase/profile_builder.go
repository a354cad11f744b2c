package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/beautycare/backend/internal/domain"
)

// PaletteAnswers are the eight a-d answers of the color-type test
type PaletteAnswers struct {
	Hair      string `json:"hair" binding:"required"`
	Eyes      string `json:"eyes" binding:"required"`
	Undertone string `json:"undertone" binding:"required"`
	Contrast  string `json:"contrast" binding:"required"`
	Sun       string `json:"sun" binding:"required"`
	Face      string `json:"face" binding:"required"`
	Style     string `json:"style" binding:"required"`
	Lips      string `json:"lips" binding:"required"`
}

// SkincareAnswers are the eight a-d answers of the skin-care test
type SkincareAnswers struct {
	Tightness     string `json:"tightness" binding:"required"`
	Sun           string `json:"sun" binding:"required"`
	Imperfections string `json:"imperfections" binding:"required"`
	Eye           string `json:"eye" binding:"required"`
	Couperose     string `json:"couperose" binding:"required"`
	Care          string `json:"care" binding:"required"`
	Allergies     string `json:"allergies" binding:"required"`
	Effect        string `json:"effect" binding:"required"`
}

// Canonical words accepted in place of answer letters
var (
	undertoneWords = map[string]byte{"warm": 'a', "cool": 'b', "cold": 'b', "neutral": 'c'}
	contrastWords  = map[string]byte{"low": 'a', "medium": 'b', "high": 'c'}
	styleWords     = map[string]byte{"natural": 'a', "minimal": 'a', "classic": 'b', "bold": 'c'}
	seasonWords    = map[string]byte{"spring": 'a', "summer": 'b', "autumn": 'c', "winter": 'd'}
)

var (
	hairLabels = map[byte]string{'a': "golden blonde", 'b': "ash blonde", 'c': "warm brown", 'd': "dark"}
	eyeLabels  = map[byte]string{'a': "blue", 'b': "gray", 'c': "brown", 'd': "blue"}
)

// seasonTieOrder breaks majority ties, highest contrast first
var seasonTieOrder = []domain.Season{
	domain.SeasonWinter, domain.SeasonAutumn, domain.SeasonSpring, domain.SeasonSummer,
}

var seasonByLetter = map[byte]domain.Season{
	'a': domain.SeasonSpring,
	'b': domain.SeasonSummer,
	'c': domain.SeasonAutumn,
	'd': domain.SeasonWinter,
}

// ProfileBuilder derives profiles from questionnaire answers and stores them
type ProfileBuilder struct {
	repo   domain.ProfileRepository
	events *EventPublisher
}

// NewProfileBuilder creates a profile builder
func NewProfileBuilder(repo domain.ProfileRepository, events *EventPublisher) *ProfileBuilder {
	return &ProfileBuilder{repo: repo, events: events}
}

// BuildPalette derives the color dimensions and merges them into the user's
// stored profile
func (b *ProfileBuilder) BuildPalette(ctx context.Context, userID string, answers PaletteAnswers) (*domain.UserProfile, error) {
	derived, err := DerivePalette(userID, answers)
	if err != nil {
		return nil, err
	}
	return b.store(ctx, derived, "palette")
}

// BuildSkincare derives the skin dimensions and merges them into the user's
// stored profile
func (b *ProfileBuilder) BuildSkincare(ctx context.Context, userID string, answers SkincareAnswers) (*domain.UserProfile, error) {
	derived, err := DeriveSkincare(userID, answers)
	if err != nil {
		return nil, err
	}
	return b.store(ctx, derived, "skincare")
}

// Get returns the stored profile
func (b *ProfileBuilder) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if err := domain.ContextError(ctx); err != nil {
		return nil, err
	}
	return b.repo.Get(ctx, userID)
}

func (b *ProfileBuilder) store(ctx context.Context, derived domain.UserProfile, test string) (*domain.UserProfile, error) {
	if err := domain.ContextError(ctx); err != nil {
		return nil, err
	}

	merged := derived
	existing, err := b.repo.Get(ctx, derived.UserID)
	switch {
	case err == nil && existing != nil:
		merged = MergeProfiles(*existing, derived)
	case err != nil && !errors.Is(err, domain.ErrProfileNotFound):
		return nil, err
	}

	if err := domain.ContextError(ctx); err != nil {
		return nil, err
	}
	if err := b.repo.Save(ctx, &merged); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", merged.UserID).
		Str("test", test).
		Str("season", string(merged.Season)).
		Str("skin_type", string(merged.SkinType)).
		Msg("Profile built")

	b.events.Publish(ctx, domain.EventProfileBuilt, merged.UserID, map[string]any{
		"test":      test,
		"undertone": string(merged.Undertone),
		"season":    string(merged.Season),
		"skin_type": string(merged.SkinType),
	})
	return &merged, nil
}

// DerivePalette maps palette answers onto the color dimensions. Season is
// the majority answer letter.
func DerivePalette(userID string, answers PaletteAnswers) (domain.UserProfile, error) {
	if userID == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: empty user id", domain.ErrInvalidRequest)
	}

	fields := []struct {
		name  string
		raw   string
		words map[string]byte
	}{
		{"hair", answers.Hair, seasonWords},
		{"eyes", answers.Eyes, seasonWords},
		{"undertone", answers.Undertone, undertoneWords},
		{"contrast", answers.Contrast, contrastWords},
		{"sun", answers.Sun, nil},
		{"face", answers.Face, nil},
		{"style", answers.Style, styleWords},
		{"lips", answers.Lips, nil},
	}

	letters := make(map[string]byte, len(fields))
	counts := make(map[domain.Season]int, 4)
	for _, f := range fields {
		letter, err := answerLetter(f.name, f.raw, f.words)
		if err != nil {
			return domain.UserProfile{}, err
		}
		letters[f.name] = letter
		counts[seasonByLetter[letter]]++
	}

	season := seasonTieOrder[0]
	for _, s := range seasonTieOrder[1:] {
		if counts[s] > counts[season] {
			season = s
		}
	}

	profile := domain.UserProfile{
		UserID:    userID,
		Season:    season,
		HairColor: hairLabels[letters["hair"]],
		EyeColor:  eyeLabels[letters["eyes"]],
	}

	switch letters["undertone"] {
	case 'a':
		profile.Undertone = domain.UndertoneWarm
	case 'b':
		profile.Undertone = domain.UndertoneCool
	default:
		profile.Undertone = domain.UndertoneNeutral
	}

	switch letters["contrast"] {
	case 'a':
		profile.Contrast = domain.ContrastLow
	case 'b':
		profile.Contrast = domain.ContrastMedium
	default:
		profile.Contrast = domain.ContrastHigh
	}

	switch {
	case normalizeAnswer(answers.Style) == "minimal":
		profile.MakeupStyle = domain.StyleMinimal
	case letters["style"] == 'a':
		profile.MakeupStyle = domain.StyleNatural
	case letters["style"] == 'b':
		profile.MakeupStyle = domain.StyleClassic
	default:
		profile.MakeupStyle = domain.StyleBold
	}

	return profile, nil
}

// DeriveSkincare maps skin-care answers onto a skin type and concerns.
// Later answers refine the type chosen by earlier ones.
func DeriveSkincare(userID string, answers SkincareAnswers) (domain.UserProfile, error) {
	if userID == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: empty user id", domain.ErrInvalidRequest)
	}

	fields := []struct {
		name string
		raw  string
	}{
		{"tightness", answers.Tightness},
		{"sun", answers.Sun},
		{"imperfections", answers.Imperfections},
		{"eye", answers.Eye},
		{"couperose", answers.Couperose},
		{"care", answers.Care},
		{"allergies", answers.Allergies},
		{"effect", answers.Effect},
	}
	a := make(map[string]byte, len(fields))
	for _, f := range fields {
		letter, err := answerLetter(f.name, f.raw, nil)
		if err != nil {
			return domain.UserProfile{}, err
		}
		a[f.name] = letter
	}

	skin := domain.SkinNormal
	concerns := make(map[domain.Concern]bool)

	switch a["tightness"] {
	case 'a':
		skin = domain.SkinDry
		concerns[domain.ConcernDryness] = true
	case 'c':
		skin = domain.SkinCombo
	}

	if a["sun"] == 'c' {
		concerns[domain.ConcernPigmentation] = true
		concerns[domain.ConcernSensitivity] = true
	}

	switch a["imperfections"] {
	case 'a':
		if skin != domain.SkinDry {
			skin = domain.SkinOily
		}
	case 'b':
		skin = domain.SkinOily
		concerns[domain.ConcernAcne] = true
	case 'c':
		skin = domain.SkinDry
		concerns[domain.ConcernDryness] = true
	case 'd':
		concerns[domain.ConcernPigmentation] = true
		concerns[domain.ConcernRedness] = true
	}

	if a["eye"] == 'c' {
		concerns[domain.ConcernAging] = true
	}

	if a["couperose"] != 'c' {
		concerns[domain.ConcernRedness] = true
		concerns[domain.ConcernSensitivity] = true
	}

	if a["allergies"] == 'a' || a["allergies"] == 'b' {
		concerns[domain.ConcernSensitivity] = true
	}

	switch a["effect"] {
	case 'a':
		concerns[domain.ConcernDryness] = true
	case 'b':
		if skin != domain.SkinDry {
			skin = domain.SkinOily
		}
	case 'c':
		concerns[domain.ConcernAging] = true
	}

	profile := domain.UserProfile{UserID: userID, SkinType: skin}
	for _, c := range concernOrder {
		if concerns[c] {
			profile.Concerns = append(profile.Concerns, c)
		}
	}
	return profile, nil
}

// concernOrder fixes the order concerns are listed in a profile
var concernOrder = []domain.Concern{
	domain.ConcernDryness,
	domain.ConcernAcne,
	domain.ConcernAging,
	domain.ConcernPigmentation,
	domain.ConcernSensitivity,
	domain.ConcernRedness,
}

// MergeProfiles overlays the populated dimensions of next onto base
func MergeProfiles(base, next domain.UserProfile) domain.UserProfile {
	out := base
	if next.UserID != "" {
		out.UserID = next.UserID
	}
	if next.HasColor() {
		out.Undertone = next.Undertone
		out.Season = next.Season
		out.Contrast = next.Contrast
		out.HairColor = next.HairColor
		out.EyeColor = next.EyeColor
		out.MakeupStyle = next.MakeupStyle
	}
	if next.HasSkin() {
		out.SkinType = next.SkinType
		out.Concerns = append([]domain.Concern(nil), next.Concerns...)
	}
	return out
}

func normalizeAnswer(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, ")")
	return s
}

// answerLetter reduces an answer to a-d. Accepted forms: "a", "A", "a)"
// and, when words is set, one of its canonical words.
func answerLetter(field, raw string, words map[string]byte) (byte, error) {
	s := normalizeAnswer(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: missing answer %q", domain.ErrInvalidRequest, field)
	}
	if len(s) == 1 && s[0] >= 'a' && s[0] <= 'd' {
		return s[0], nil
	}
	if letter, ok := words[s]; ok {
		return letter, nil
	}
	return 0, fmt.Errorf("%w: answer %q for %q is not one of a-d", domain.ErrInvalidRequest, raw, field)
}
