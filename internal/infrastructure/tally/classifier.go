package tally

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/retailops/ledgersync/internal/domain/ledger"
)

// The ledger system answers imports with a small XML envelope carrying
// CREATED/ALTERED/ERRORS counters and, on rejection, a LINEERROR element
// with free-form text. The matching below is deliberately narrow and kept
// behind ledger.ResponseClassifier so it can be swapped if the response
// format ever changes.

var (
	createdRe   = regexp.MustCompile(`<CREATED>\s*(\d+)\s*</CREATED>`)
	alteredRe   = regexp.MustCompile(`<ALTERED>\s*(\d+)\s*</ALTERED>`)
	errorsRe    = regexp.MustCompile(`<ERRORS>\s*(\d+)\s*</ERRORS>`)
	lineErrorRe = regexp.MustCompile(`<LINEERROR>(.*?)</LINEERROR>`)
	voucherIDRe = regexp.MustCompile(`<LASTVCHID>\s*(\d+)\s*</LASTVCHID>`)
)

// duplicatePhrases mark rejections that mean the remote system already holds
// the record. They are success for our purposes: retrying would be harmful.
var duplicatePhrases = []string{
	"already exists",
	"duplicate",
	"duplicated",
}

// Classifier classifies raw ledger-system response bodies
type Classifier struct{}

// NewClassifier creates a response classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify implements ledger.ResponseClassifier
func (c *Classifier) Classify(body string) ledger.Response {
	resp := ledger.Response{Raw: body}

	if lineErr := extractLineError(body); lineErr != "" {
		if isDuplicate(lineErr) {
			resp.Outcome = ledger.OutcomeDuplicate
			resp.Message = lineErr
			return resp
		}
		resp.Outcome = ledger.OutcomeRejected
		resp.Message = lineErr
		return resp
	}

	if isDuplicate(body) {
		resp.Outcome = ledger.OutcomeDuplicate
		resp.Message = "record already exists in ledger system"
		return resp
	}

	if count(errorsRe, body) > 0 {
		resp.Outcome = ledger.OutcomeRejected
		resp.Message = "ledger system rejected the payload"
		return resp
	}

	if count(createdRe, body) > 0 || count(alteredRe, body) > 0 {
		resp.Outcome = ledger.OutcomeSuccess
		if m := voucherIDRe.FindStringSubmatch(body); len(m) == 2 {
			resp.VoucherRef = m[1]
		}
		return resp
	}

	resp.Outcome = ledger.OutcomeRejected
	resp.Message = "unrecognized ledger system response"
	return resp
}

func extractLineError(body string) string {
	m := lineErrorRe.FindStringSubmatch(body)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func isDuplicate(s string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range duplicatePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func count(re *regexp.Regexp, body string) int {
	m := re.FindStringSubmatch(body)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

var _ ledger.ResponseClassifier = (*Classifier)(nil)
