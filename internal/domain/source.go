package domain

import (
	"net/url"
	"strings"
)

// merchantDomains maps merchant hostnames to their source kind
var merchantDomains = map[string]SourceKind{
	"goldapple.ru":      SourceGoldapple,
	"goldenappletree.ru": SourceGoldapple,
	"золотоеяблочко.рф": SourceGoldapple,

	"sephora.ru":     SourceOfficial,
	"letu.ru":        SourceOfficial,
	"rive-gauche.ru": SourceOfficial,
	"aroma-zone.ru":  SourceOfficial,
	"pudra.ru":       SourceOfficial,

	"wildberries.ru":   SourceMarketplace,
	"ozon.ru":          SourceMarketplace,
	"market.yandex.ru": SourceMarketplace,
	"yandex.market.ru": SourceMarketplace,
	"lamoda.ru":        SourceMarketplace,
	"goods.ru":         SourceMarketplace,

	"sephora.com":       SourceInternational,
	"ulta.com":          SourceInternational,
	"cultbeauty.com":    SourceInternational,
	"lookfantastic.com": SourceInternational,
	"notino.com":        SourceInternational,
	"dermstore.com":     SourceInternational,
}

// InferSourceKind classifies a merchant URL by its host. Subdomains of a
// known merchant inherit its kind; unknown hosts are treated as marketplaces.
func InferSourceKind(rawURL string) SourceKind {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return SourceMarketplace
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if kind, ok := merchantDomains[host]; ok {
		return kind
	}
	for d, kind := range merchantDomains {
		if strings.HasSuffix(host, "."+d) {
			return kind
		}
	}
	return SourceMarketplace
}

// ParseSourceKind accepts canonical kinds and the legacy catalog spellings
func ParseSourceKind(raw string) (SourceKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "goldapple", "gold_apple", "golden_apple":
		return SourceGoldapple, true
	case "official", "ru_official", "brand":
		return SourceOfficial, true
	case "marketplace", "ru_marketplace":
		return SourceMarketplace, true
	case "international", "intl":
		return SourceInternational, true
	}
	return "", false
}
