// Package resolve maps noisy free-text customer names to canonical records
// from the customer index, trying successively looser strategies and stopping
// at the first hit.
package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/BorisSolomonia/9-telebots/internal/customer"
	"github.com/BorisSolomonia/9-telebots/internal/match"
	"github.com/BorisSolomonia/9-telebots/internal/metrics"
)

const (
	// tokenThreshold applies when matching single message tokens against
	// short keys; stringThreshold when scoring the whole candidate string.
	tokenThreshold  = 0.8
	stringThreshold = 0.75

	// wordBonus is the maximum boost for candidate words found verbatim in a
	// key, added on top of the edit-distance ratio.
	wordBonus = 0.2

	// maxTokens caps how many leading tokens are fuzzed individually:
	// customer names appear near the start of a message in this domain.
	maxTokens = 3

	// candidateLimit and candidateCutoff bound the subset shown to the LLM;
	// fallbackCandidates is used when nothing clears the cutoff.
	candidateLimit     = 20
	candidateCutoff    = 0.3
	fallbackCandidates = 30
)

// Mapper is the external text-completion service used as the last-resort
// strategy. An empty result means the model signalled no match.
type Mapper interface {
	MapCustomer(ctx context.Context, name string, candidates []string) (string, error)
}

// Resolver runs the layered resolution pipeline against one index.
type Resolver struct {
	index  *customer.Index
	mapper Mapper
	cache  *Cache
	log    *slog.Logger
}

func New(index *customer.Index, mapper Mapper, cache *Cache) *Resolver {
	return &Resolver{
		index:  index,
		mapper: mapper,
		cache:  cache,
		log:    slog.With("component", "resolver"),
	}
}

// Resolve maps a candidate name to a canonical record. The second return is
// false when every strategy failed, which is a normal outcome: the caller
// should offer to register a new customer. Every returned record is a member
// of the index's record set, including those produced by the LLM strategy.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || r.index.Empty() {
		metrics.Resolutions.WithLabelValues("unresolved").Inc()
		return "", false
	}

	// Exact key, then exact record, then case-insensitive key. LookupExact
	// covers the first two: it also passes an already-canonical record
	// string through unchanged.
	if record, ok := r.index.LookupExact(name); ok {
		metrics.Resolutions.WithLabelValues("exact_key").Inc()
		return record, true
	}
	if record, ok := r.index.LookupFold(name); ok {
		metrics.Resolutions.WithLabelValues("fold").Inc()
		return record, true
	}

	if record, ok := r.substringMatch(name); ok {
		metrics.Resolutions.WithLabelValues("substring").Inc()
		return record, true
	}

	if record, ok := r.tokenFuzzyMatch(name); ok {
		metrics.Resolutions.WithLabelValues("token_fuzzy").Inc()
		return record, true
	}

	if record, ok := r.stringFuzzyMatch(name); ok {
		metrics.Resolutions.WithLabelValues("string_fuzzy").Inc()
		return record, true
	}

	if record, ok := r.llmMatch(ctx, name); ok {
		metrics.Resolutions.WithLabelValues("llm").Inc()
		return record, true
	}

	metrics.Resolutions.WithLabelValues("unresolved").Inc()
	return "", false
}

// substringMatch wins only when exactly one key contains the candidate or is
// contained by it. Multiple hits are ambiguous: defer to the fuzzy and LLM
// strategies rather than guess.
func (r *Resolver) substringMatch(name string) (string, bool) {
	folded := customer.Fold(name)
	if folded == "" {
		return "", false
	}

	var hit string
	hits := 0
	for _, key := range r.index.Keys() {
		keyFold := customer.Fold(key)
		if strings.Contains(keyFold, folded) || strings.Contains(folded, keyFold) {
			hit = key
			hits++
			if hits > 1 {
				r.log.Debug("substring match ambiguous, deferring", "name", name)
				return "", false
			}
		}
	}
	if hits != 1 {
		return "", false
	}
	return r.index.Record(hit)
}

// tokenFuzzyMatch fuzzes the first few tokens individually against every key
// and accepts the single best hit above the token threshold.
func (r *Resolver) tokenFuzzyMatch(name string) (string, bool) {
	keys := r.index.Keys()
	folded := make([]string, len(keys))
	for i, key := range keys {
		folded[i] = customer.Fold(key)
	}

	tokens := strings.Fields(customer.Fold(name))
	if len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	for _, token := range tokens {
		best, score := match.BestMatch(token, folded)
		if score >= tokenThreshold {
			for i, f := range folded {
				if f == best {
					return r.index.Record(keys[i])
				}
			}
		}
	}
	return "", false
}

// stringFuzzyMatch scores the whole candidate against each key: edit-distance
// ratio plus a bonus for candidate words present verbatim in the key. First
// key wins ties, so iteration order (insertion order) keeps it deterministic.
func (r *Resolver) stringFuzzyMatch(name string) (string, bool) {
	cleaned := customer.Fold(name)
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return "", false
	}

	bestScore := 0.0
	bestKey := ""
	for _, key := range r.index.Keys() {
		keyFold := customer.Fold(key)
		score := match.Ratio(cleaned, keyFold)

		keyWords := strings.Fields(keyFold)
		overlap := 0
		for _, w := range words {
			for _, kw := range keyWords {
				if w == kw {
					overlap++
					break
				}
			}
		}
		score += float64(overlap) / float64(len(words)) * wordBonus

		if score > bestScore {
			bestScore, bestKey = score, key
		}
	}

	if bestScore > stringThreshold {
		return r.index.Record(bestKey)
	}
	return "", false
}

// llmMatch asks the external model to choose from a bounded candidate subset
// and re-validates the answer against the full record set before trusting it.
// The model can only ever narrow to an existing record, never invent one.
func (r *Resolver) llmMatch(ctx context.Context, name string) (string, bool) {
	candidates := r.Candidates(name)
	if len(candidates) == 0 {
		return "", false
	}

	if r.cache != nil {
		if record, ok := r.cache.Get(name, candidates); ok {
			metrics.Resolutions.WithLabelValues("cache").Inc()
			return record, true
		}
	}

	result, err := r.mapper.MapCustomer(ctx, name, candidates)
	if err != nil {
		r.log.Error("llm mapping failed", "name", name, "err", err)
		return "", false
	}
	if result == "" || !r.index.Contains(result) {
		if result != "" {
			r.log.Warn("llm returned unknown customer, discarding", "result", result)
		}
		return "", false
	}

	if r.cache != nil {
		r.cache.Set(name, candidates, result)
	}
	return result, true
}

// Candidates builds the bounded record subset shown to the LLM: the closest
// keys by fuzzy ratio at a low cutoff, or the first records of the list when
// nothing clears it.
func (r *Resolver) Candidates(name string) []string {
	keys := r.index.Keys()
	folded := make([]string, len(keys))
	byFold := make(map[string]string, len(keys))
	for i, key := range keys {
		folded[i] = customer.Fold(key)
		byFold[folded[i]] = key
	}

	closest := match.ClosestMatches(customer.Fold(name), folded, candidateLimit, candidateCutoff)
	if len(closest) == 0 {
		records := r.index.Records()
		if len(records) > fallbackCandidates {
			records = records[:fallbackCandidates]
		}
		return records
	}

	candidates := make([]string, 0, len(closest))
	for _, f := range closest {
		if record, ok := r.index.Record(byFold[f]); ok {
			candidates = append(candidates, record)
		}
	}
	return candidates
}
