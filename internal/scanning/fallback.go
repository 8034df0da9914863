package scanning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Credential tier labels reported in Result.KeyLabel.
const (
	labelFree    = "free"
	labelPrimary = "primary"
	labelOther   = "other"
)

// Environment keys holding Gemini credentials. The free-tier key is tried
// before the paid one so rate-limited quota is burned first.
const (
	envGeminiKey     = "GEMINI_API_KEY"
	envGeminiFreeKey = "GEMINI_FREE_API_KEY"
)

// Tier is one credential to try. An empty Key means no explicit
// credential: the transport falls back to its ambient default.
type Tier struct {
	Label string
	Key   string
}

// KeyLookup resolves a configuration key to a credential. Production use
// passes os.Getenv; tiers are recomputed from it on every request.
type KeyLookup func(name string) string

// isGeminiModel reports whether the identifier belongs to the model
// family with a free tier. Both the bare ("gemini-2.5-flash") and the
// provider-prefixed ("gemini/gemini-2.5-flash") spellings count.
func isGeminiModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gemini")
}

// rankTiers orders the credential tiers to attempt for a model. Gemini
// models get the free key first, then the primary key; with neither
// configured a single explicit-less primary tier is returned so the
// transport's ambient credential applies. Any other model family gets
// exactly one "other" tier.
func rankTiers(model string, lookup KeyLookup) []Tier {
	if !isGeminiModel(model) {
		return []Tier{{Label: labelOther}}
	}

	var tiers []Tier
	if key := lookup(envGeminiFreeKey); key != "" {
		tiers = append(tiers, Tier{Label: labelFree, Key: key})
	}
	if key := lookup(envGeminiKey); key != "" {
		tiers = append(tiers, Tier{Label: labelPrimary, Key: key})
	}
	if len(tiers) == 0 {
		tiers = []Tier{{Label: labelPrimary}}
	}
	return tiers
}

// attemptCompletion walks the tiers in order. A failure moves on to the
// next tier only when the free tier's own key hit its quota; every other
// failure is fatal immediately. Returns the response text, whether a
// fallback happened and the label of the tier that answered (or the one
// that failed fatally).
func attemptCompletion(ctx context.Context, completer Completer, tiers []Tier, req CompletionRequest) (string, bool, string, error) {
	var lastErr error
	label := labelOther
	for i, tier := range tiers {
		label = tier.Label
		req.APIKey = tier.Key

		text, err := completer.Complete(ctx, req)
		if err == nil {
			return text, i > 0, tier.Label, nil
		}
		lastErr = err

		canRetry := tier.Label == labelFree &&
			tier.Key != "" &&
			i+1 < len(tiers) &&
			isQuotaExhausted(err)
		if !canRetry {
			return "", i > 0, tier.Label, fmt.Errorf("%w: %w", ErrCompletion, err)
		}
		slog.Warn("free tier quota exhausted, trying next key",
			"model", req.Model, "tier", tier.Label, "error", err)
	}
	return "", len(tiers) > 1, label, fmt.Errorf("%w: %w", ErrCompletion, lastErr)
}

// isQuotaExhausted decides whether a transport failure means quota, and
// therefore whether the next credential tier is worth trying. Structured
// status codes win; the substring match covers transports that only
// expose a message.
func isQuotaExhausted(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "quota")
}
