package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/beautycare/backend/internal/domain"
)

// DefaultCurrency is assumed when a catalog entry has a price but no currency
const DefaultCurrency = "RUB"

// knownFields are consumed by the loader; everything else goes to Product.Extra
var knownFields = map[string]bool{
	"product_id": true, "id": true, "brand": true, "title": true, "name": true,
	"category": true, "shade_name": true, "shade": true, "shade_id": true,
	"undertone_match": true, "undertone": true, "tags": true, "actives": true,
	"price": true, "currency": true, "in_stock": true, "sources": true,
	"link": true, "url": true,
}

// Parse decodes a catalog file into products. YAML and JSON are accepted;
// the root may be a list of products or a mapping with a "products" key.
// Shade ids are filled through shades when an entry carries only a name.
func Parse(path string, shades domain.ShadeLookup) ([]domain.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogLoad, err)
	}

	var root any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &root)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &root)
	default:
		return nil, fmt.Errorf("%w: unsupported catalog format %q", domain.ErrCatalogLoad, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCatalogLoad, path, err)
	}

	entries, err := rootEntries(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCatalogLoad, path, err)
	}

	products := make([]domain.Product, 0, len(entries))
	seen := make(map[string]int, len(entries))
	for i, raw := range entries {
		m, ok := raw.(map[string]any)
		if !ok {
			log.Warn().Int("entry", i).Msg("Skipping catalog entry that is not a mapping")
			continue
		}

		// A bad entry is dropped so one typo does not take the catalog down
		p, err := productFromMap(m, shades)
		if err != nil {
			log.Warn().
				Err(err).
				Int("entry", i).
				Str("product_id", p.ID).
				Msg("Skipping invalid catalog entry")
			continue
		}
		if p.Category == "" {
			log.Warn().
				Int("entry", i).
				Str("product_id", p.ID).
				Interface("category", m["category"]).
				Msg("Skipping catalog entry with unknown category")
			continue
		}
		if prev, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product_id %q (entries %d and %d)", domain.ErrCatalogLoad, p.ID, prev, i)
		}
		seen[p.ID] = i
		products = append(products, p)
	}

	return products, nil
}

func rootEntries(root any) ([]any, error) {
	switch v := root.(type) {
	case []any:
		return v, nil
	case map[string]any:
		list, ok := v["products"].([]any)
		if !ok {
			return nil, fmt.Errorf("mapping root needs a products list")
		}
		return list, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected root type %T", root)
	}
}

func productFromMap(m map[string]any, shades domain.ShadeLookup) (domain.Product, error) {
	p := domain.Product{
		Brand:     str(m["brand"]),
		Title:     firstNonEmpty(str(m["title"]), str(m["name"])),
		ShadeName: firstNonEmpty(str(m["shade_name"]), str(m["shade"])),
		ShadeID:   str(m["shade_id"]),
		Currency:  strings.ToUpper(str(m["currency"])),
		Tags:      lowerList(m["tags"]),
		Actives:   lowerList(m["actives"]),
		InStock:   true,
	}
	if p.Title == "" {
		return p, fmt.Errorf("missing title")
	}

	if c, ok := domain.ParseCategory(str(m["category"])); ok {
		p.Category = c
	}

	p.ID = firstNonEmpty(str(m["product_id"]), str(m["id"]))
	if p.ID == "" {
		p.ID = domain.DeriveProductID(p.Brand, p.Title, p.ShadeName)
	}

	if u := strings.ToLower(firstNonEmpty(str(m["undertone_match"]), str(m["undertone"]))); u != "" {
		switch domain.Undertone(u) {
		case domain.UndertoneWarm, domain.UndertoneCool, domain.UndertoneNeutral, domain.UndertoneAny:
			p.UndertoneMatch = domain.Undertone(u)
		default:
			return p, fmt.Errorf("invalid undertone_match %q", u)
		}
	}

	price, err := decimalOf(m["price"])
	if err != nil {
		return p, fmt.Errorf("price: %w", err)
	}
	p.Price = price
	if p.Currency == "" && !price.IsZero() {
		p.Currency = DefaultCurrency
	}

	if v, ok := m["in_stock"]; ok {
		b, ok := v.(bool)
		if !ok {
			return p, fmt.Errorf("in_stock must be a boolean")
		}
		p.InStock = b
	}

	sources, err := sourcesOf(m, p)
	if err != nil {
		return p, err
	}
	p.Sources = sources

	if p.ShadeID == "" && p.ShadeName != "" && shades != nil {
		p.ShadeID = shades.Normalize(p.ShadeName).ShadeID
	}

	for k, v := range m {
		if knownFields[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}

	return p, nil
}

func sourcesOf(m map[string]any, p domain.Product) ([]domain.Source, error) {
	raw, hasList := m["sources"]
	if !hasList {
		link := firstNonEmpty(str(m["link"]), str(m["url"]))
		if link == "" {
			return nil, nil
		}
		return []domain.Source{{
			Kind:    domain.InferSourceKind(link),
			URL:     link,
			InStock: p.InStock,
			Price:   p.Price,
		}}, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("sources must be a list")
	}

	out := make([]domain.Source, 0, len(list))
	for i, item := range list {
		sm, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("source %d is not a mapping", i)
		}
		s := domain.Source{
			URL:     firstNonEmpty(str(sm["url"]), str(sm["link"])),
			InStock: p.InStock,
			Price:   p.Price,
		}
		if s.URL == "" {
			return nil, fmt.Errorf("source %d has no url", i)
		}

		if kind, ok := domain.ParseSourceKind(firstNonEmpty(str(sm["kind"]), str(sm["type"]))); ok {
			s.Kind = kind
		} else {
			s.Kind = domain.InferSourceKind(s.URL)
		}

		if v, ok := sm["in_stock"]; ok {
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("source %d: in_stock must be a boolean", i)
			}
			s.InStock = b
		}
		if v, ok := sm["price"]; ok && v != nil {
			price, err := decimalOf(v)
			if err != nil {
				return nil, fmt.Errorf("source %d price: %w", i, err)
			}
			s.Price = price
		}
		out = append(out, s)
	}
	return out, nil
}

func decimalOf(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint64:
		return decimal.NewFromString(strconv.FormatUint(n, 10))
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		if strings.TrimSpace(n) == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(strings.TrimSpace(n))
	default:
		return decimal.Zero, fmt.Errorf("unexpected type %T", v)
	}
}

func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case int:
		return strconv.Itoa(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// lowerList accepts a YAML/JSON list or a comma separated string
func lowerList(v any) []string {
	var items []string
	switch l := v.(type) {
	case []any:
		for _, x := range l {
			items = append(items, str(x))
		}
	case string:
		items = strings.Split(l, ",")
	}

	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
