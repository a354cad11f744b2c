package shade

import "github.com/beautycare/backend/internal/domain"

// defaultShades is the built-in shade map used when no shade map file exists
var defaultShades = map[string]domain.ShadeInfo{
	// Foundation
	"porcelain":    {ShadeID: "found_001", Undertone: domain.UndertoneCool, Depth: domain.DepthLight},
	"ivory":        {ShadeID: "found_002", Undertone: domain.UndertoneNeutral, Depth: domain.DepthLight},
	"fair":         {ShadeID: "found_003", Undertone: domain.UndertoneWarm, Depth: domain.DepthLight},
	"light":        {ShadeID: "found_004", Undertone: domain.UndertoneNeutral, Depth: domain.DepthLight},
	"light medium": {ShadeID: "found_005", Undertone: domain.UndertoneNeutral, Depth: domain.DepthMedium},
	"medium":       {ShadeID: "found_006", Undertone: domain.UndertoneNeutral, Depth: domain.DepthMedium},
	"medium deep":  {ShadeID: "found_007", Undertone: domain.UndertoneNeutral, Depth: domain.DepthMedium},
	"deep":         {ShadeID: "found_008", Undertone: domain.UndertoneNeutral, Depth: domain.DepthDeep},

	// Concealer
	"fair concealer":   {ShadeID: "conc_001", Undertone: domain.UndertoneNeutral, Depth: domain.DepthLight},
	"light concealer":  {ShadeID: "conc_002", Undertone: domain.UndertoneNeutral, Depth: domain.DepthLight},
	"medium concealer": {ShadeID: "conc_003", Undertone: domain.UndertoneNeutral, Depth: domain.DepthMedium},

	// Lips
	"nude":  {ShadeID: "lip_001", Undertone: domain.UndertoneNeutral, Finish: "satin"},
	"pink":  {ShadeID: "lip_002", Undertone: domain.UndertoneCool, Finish: "satin"},
	"coral": {ShadeID: "lip_003", Undertone: domain.UndertoneWarm, Finish: "satin"},
	"red":   {ShadeID: "lip_004", Undertone: domain.UndertoneNeutral, Finish: "satin"},
	"berry": {ShadeID: "lip_005", Undertone: domain.UndertoneCool, Finish: "satin"},
}

// defaultNeighbors walks the foundation depth ladder
var defaultNeighbors = map[string][]string{
	"found_001": {"found_002", "found_003"},
	"found_002": {"found_001", "found_003", "found_004"},
	"found_003": {"found_002", "found_004"},
	"found_004": {"found_003", "found_005"},
	"found_005": {"found_004", "found_006"},
	"found_006": {"found_005", "found_007"},
	"found_007": {"found_006", "found_008"},
	"found_008": {"found_007"},
}

var seasonUniversals = map[domain.Season][]string{
	domain.SeasonSpring: {"found_004", "found_005", "lip_003"},
	domain.SeasonSummer: {"found_002", "found_004", "lip_002"},
	domain.SeasonAutumn: {"found_005", "found_006", "lip_003"},
	domain.SeasonWinter: {"found_001", "found_008", "lip_005"},
}

// neutralUniversals is returned for an unknown or empty season
var neutralUniversals = []string{"found_004", "found_006"}
