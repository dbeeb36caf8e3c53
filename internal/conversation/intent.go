package conversation

// #region imports
import (
	"regexp"
	"strconv"
	"strings"
)

// #endregion

// #region keywords

// tokenPattern matches the deposit assets the fund accepts. Word-bounded
// so "eth" inside "something" does not count.
var tokenPattern = regexp.MustCompile(`\b(usdc|usdt|dai|eth)\b`)

// depositKeywords signal an instruction to move money.
var depositKeywords = []string{
	"deposit", "invest", "contribute", "donate", "fund", "allocate", "put in",
}

// readinessKeywords signal intent without a concrete instruction.
var readinessKeywords = []string{
	"ready", "proceed", "let's go", "lets go", "sounds good", "go ahead", "sign me up",
}

var amountPattern = regexp.MustCompile(`(\d[\d,]*)(\.\d+)?\s*(k\b)?`)

// #endregion

// #region intent

// DepositIntent is the deterministic reading of a donor message. It is
// the authoritative trigger for moving money; generative extraction is
// advisory only.
type DepositIntent struct {
	Amount   int64
	Token    string
	Complete bool // amount and token both present
	Partial  bool // deposit-related signal without both fields
}

// DetectDepositIntent scans a message for an explicit deposit instruction
// (amount + token) or a partial intent.
func DetectDepositIntent(text string) DepositIntent {
	lower := strings.ToLower(text)

	intent := DepositIntent{
		Amount: extractAmount(lower),
		Token:  extractToken(lower),
	}

	related := intent.Amount > 0 || intent.Token != "" ||
		containsAny(lower, depositKeywords) || containsAny(lower, readinessKeywords)

	intent.Complete = intent.Amount > 0 && intent.Token != ""
	intent.Partial = related && !intent.Complete
	return intent
}

// #endregion

// #region extraction

func extractToken(lower string) string {
	if m := tokenPattern.FindStringSubmatch(lower); m != nil {
		return m[1]
	}
	return ""
}

func extractAmount(lower string) int64 {
	for _, m := range amountPattern.FindAllStringSubmatch(lower, -1) {
		raw := strings.ReplaceAll(m[1], ",", "")
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		if m[3] != "" {
			n *= 1000
		}
		return n
	}
	return 0
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// #endregion
