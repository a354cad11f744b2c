package domain

// Season is a color-analysis bucket
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// Contrast is the brightness gap between hair, skin and eyes
type Contrast string

const (
	ContrastLow    Contrast = "low"
	ContrastMedium Contrast = "medium"
	ContrastHigh   Contrast = "high"
)

// DepthFor maps a contrast level onto the shade depth it favors
func (c Contrast) DepthFor() Depth {
	switch c {
	case ContrastLow:
		return DepthLight
	case ContrastMedium:
		return DepthMedium
	case ContrastHigh:
		return DepthDeep
	default:
		return ""
	}
}

// SkinType is the skincare questionnaire outcome
type SkinType string

const (
	SkinDry    SkinType = "dry"
	SkinOily   SkinType = "oily"
	SkinCombo  SkinType = "combo"
	SkinNormal SkinType = "normal"
)

// Concern is a skin concern from the closed set
type Concern string

const (
	ConcernDryness      Concern = "dryness"
	ConcernAcne         Concern = "acne"
	ConcernAging        Concern = "aging"
	ConcernPigmentation Concern = "pigmentation"
	ConcernSensitivity  Concern = "sensitivity"
	ConcernRedness      Concern = "redness"
)

// MakeupStyle is the user's preferred makeup look
type MakeupStyle string

const (
	StyleNatural MakeupStyle = "natural"
	StyleClassic MakeupStyle = "classic"
	StyleBold    MakeupStyle = "bold"
	StyleMinimal MakeupStyle = "minimal"
)

// UserProfile is the attribute set derived from one questionnaire run.
// Color dimensions are set by the palette test, skin dimensions by the
// skincare test.
type UserProfile struct {
	UserID      string      `json:"user_id"`
	Undertone   Undertone   `json:"undertone,omitempty"`
	Season      Season      `json:"season,omitempty"`
	Contrast    Contrast    `json:"contrast,omitempty"`
	SkinType    SkinType    `json:"skin_type,omitempty"`
	Concerns    []Concern   `json:"concerns,omitempty"`
	HairColor   string      `json:"hair_color,omitempty"`
	EyeColor    string      `json:"eye_color,omitempty"`
	MakeupStyle MakeupStyle `json:"makeup_style,omitempty"`
}

// HasColor reports whether all three color dimensions are populated
func (p UserProfile) HasColor() bool {
	return p.Undertone != "" && p.Season != "" && p.Contrast != ""
}

// HasSkin reports whether the skin dimensions are populated
func (p UserProfile) HasSkin() bool {
	return p.SkinType != ""
}

// HasConcern reports whether the profile lists the concern
func (p UserProfile) HasConcern(c Concern) bool {
	for _, x := range p.Concerns {
		if x == c {
			return true
		}
	}
	return false
}
