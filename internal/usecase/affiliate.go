package usecase

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/beautycare/backend/internal/domain"
)

// AffiliateParam is the query parameter the linker writes in direct mode
const AffiliateParam = "aff"

// affiliateParams are recognized as carrying an affiliate tag, in lookup order
var affiliateParams = []string{
	"aff", "affiliate", "partner", "ref", "utm_source",
	"utm_campaign", "tag", "aff_id", "partner_id",
}

// Report status values
const (
	ReportPass = "PASS"
	ReportFail = "FAIL"
)

const (
	passRate       = 95.0
	maxReportIssue = 10
)

// AffiliateLinker composes outbound purchase URLs carrying the partner code
type AffiliateLinker struct {
	partnerCode  string
	redirectBase string
}

// NewAffiliateLinker creates a linker. A non-empty redirectBase switches to
// redirect-prefix mode.
func NewAffiliateLinker(partnerCode, redirectBase string) *AffiliateLinker {
	return &AffiliateLinker{
		partnerCode:  partnerCode,
		redirectBase: strings.TrimSpace(redirectBase),
	}
}

// Link wraps sourceURL with the partner code
func (l *AffiliateLinker) Link(sourceURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: cannot link %q", domain.ErrAffiliateInvalid, sourceURL)
	}

	if l.redirectBase != "" {
		sep := "?"
		if strings.Contains(l.redirectBase, "?") {
			sep = "&"
		}
		return l.redirectBase + sep +
			"target=" + url.QueryEscape(u.String()) +
			"&" + AffiliateParam + "=" + url.QueryEscape(l.partnerCode), nil
	}

	// Keep the original pairs verbatim and in order; only an existing aff
	// value is replaced.
	var pairs []string
	if u.RawQuery != "" {
		for _, pair := range strings.Split(u.RawQuery, "&") {
			key, _, _ := strings.Cut(pair, "=")
			if k, err := url.QueryUnescape(key); err == nil && k == AffiliateParam {
				continue
			}
			pairs = append(pairs, pair)
		}
	}
	pairs = append(pairs, AffiliateParam+"="+url.QueryEscape(l.partnerCode))
	u.RawQuery = strings.Join(pairs, "&")
	u.ForceQuery = false

	return u.String(), nil
}

// LinkVerdict is the validator's assessment of one URL
type LinkVerdict struct {
	URL          string   `json:"url"`
	HasAffiliate bool     `json:"has_affiliate"`
	AffiliateTag string   `json:"affiliate_tag,omitempty"`
	IsValid      bool     `json:"is_valid"`
	Issues       []string `json:"issues,omitempty"`
}

// OK reports whether the URL is both valid and tagged
func (v LinkVerdict) OK() bool {
	return v.IsValid && v.HasAffiliate
}

// AffiliateReport aggregates verdicts for a selection result
type AffiliateReport struct {
	Total       int      `json:"total"`
	Valid       int      `json:"valid"`
	Missing     int      `json:"missing"`
	Broken      int      `json:"broken"`
	Rate        float64  `json:"rate"`
	Status      string   `json:"status"`
	ExpectedTag string   `json:"expected_tag"`
	Issues      []string `json:"issues,omitempty"`
}

// AffiliateValidator checks outbound URLs for a parseable host and an
// affiliate parameter
type AffiliateValidator struct {
	partnerCode string
}

// NewAffiliateValidator creates a validator expecting partnerCode
func NewAffiliateValidator(partnerCode string) *AffiliateValidator {
	return &AffiliateValidator{partnerCode: partnerCode}
}

// Validate inspects one URL
func (v *AffiliateValidator) Validate(rawURL string) LinkVerdict {
	verdict := LinkVerdict{URL: rawURL}
	if strings.TrimSpace(rawURL) == "" {
		verdict.Issues = append(verdict.Issues, "empty url")
		return verdict
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		verdict.Issues = append(verdict.Issues, fmt.Sprintf("unparseable url: %v", err))
		return verdict
	}
	verdict.IsValid = u.Host != ""
	if !verdict.IsValid {
		verdict.Issues = append(verdict.Issues, "missing host")
	}

	q := u.Query()
	for _, name := range affiliateParams {
		if values, ok := q[name]; ok {
			verdict.HasAffiliate = true
			if len(values) > 0 {
				verdict.AffiliateTag = values[0]
			}
			break
		}
	}
	if !verdict.HasAffiliate {
		verdict.Issues = append(verdict.Issues, "no affiliate parameter")
	} else if verdict.AffiliateTag != v.partnerCode {
		// Informational only; some merchants use their own tag names
		verdict.Issues = append(verdict.Issues,
			fmt.Sprintf("unexpected affiliate tag %q (want %q)", verdict.AffiliateTag, v.partnerCode))
	}

	return verdict
}

// Check returns ErrAffiliateInvalid when the URL is not valid and tagged
func (v *AffiliateValidator) Check(rawURL string) error {
	verdict := v.Validate(rawURL)
	if !verdict.OK() {
		return fmt.Errorf("%w: %s: %s", domain.ErrAffiliateInvalid, rawURL, strings.Join(verdict.Issues, ", "))
	}
	return nil
}

// Report validates every entry of a selection result
func (v *AffiliateValidator) Report(result *domain.SelectionResult) AffiliateReport {
	report := AffiliateReport{ExpectedTag: v.partnerCode}
	if result == nil {
		report.Status = ReportFail
		return report
	}

	for _, sec := range result.Sections {
		for _, e := range sec.Entries {
			report.Total++
			verdict := v.Validate(e.AffiliateURL)
			switch {
			case verdict.OK():
				report.Valid++
			case !verdict.HasAffiliate:
				report.Missing++
				report.addIssue(fmt.Sprintf("%s/%s: %s - no affiliate", sec.Section, e.Slot, e.ProductID))
			default:
				report.Broken++
				report.addIssue(fmt.Sprintf("%s/%s: %s - broken link", sec.Section, e.Slot, e.ProductID))
			}
		}
	}

	if report.Total > 0 {
		report.Rate = float64(report.Valid) / float64(report.Total) * 100
	}
	report.Status = ReportFail
	if report.Rate >= passRate {
		report.Status = ReportPass
	}
	return report
}

func (r *AffiliateReport) addIssue(issue string) {
	if len(r.Issues) < maxReportIssue {
		r.Issues = append(r.Issues, issue)
	}
}
