package reliability

import (
	"regexp"

	"github.com/assignwatch/assignwatch/internal/model"
)

// claimPattern matches first-person commitments to work on an item. The
// phrase set is fixed; matches require whole-word boundaries to keep false
// positives down. False negatives are accepted.
var claimPattern = regexp.MustCompile(`(?i)\b(i will|i'll take|i'll handle|i'll work on this|i'll do this|i'll|assign to me|assign me|i can take|i'm taking this|working on it)\b`)

// DetectClaim reports whether the comment text constitutes a claim-to-work
// statement.
func DetectClaim(text string) bool {
	if text == "" {
		return false
	}
	return claimPattern.MatchString(text)
}

// TagClaim labels a claim according to the claimant's score. Returns nil
// when the text is not a claim. A claimant scoring below the risk threshold
// gets a danger tag signaling likely non-delivery; otherwise the claim is
// considered credible.
func (s *Scorer) TagClaim(isClaim bool, score int) *model.ClaimTag {
	if !isClaim {
		return nil
	}
	if score < s.policy.ClaimRiskThreshold {
		return &model.ClaimTag{Text: "Cookie-Licker (likely)", Tone: model.ToneDanger}
	}
	return &model.ClaimTag{Text: "Claim (credible)", Tone: model.ToneSuccess}
}
