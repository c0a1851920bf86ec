// Package parse extracts a candidate (customer, amount, product) triple from
// raw chat text. Rule-based patterns run first; the LLM extractor is a
// fallback for order messages the patterns cannot handle.
package parse

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BorisSolomonia/9-telebots/internal/customer"
	"github.com/BorisSolomonia/9-telebots/internal/llm"
	"github.com/BorisSolomonia/9-telebots/internal/metrics"
)

// Mode selects the message shape the parser expects.
type Mode int

const (
	// ModeOrders parses "name amount [unit] product" messages.
	ModeOrders Mode = iota
	// ModePayments parses "name amount [currency]" messages with no product.
	ModePayments
)

func ModeFromString(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "orders", "order":
		return ModeOrders, nil
	case "payments", "payment":
		return ModePayments, nil
	}
	return 0, fmt.Errorf("unknown parse mode %q", s)
}

// Order is a parsed intake line. Product is empty in payment mode.
type Order struct {
	Customer string
	Amount   float64
	Product  string
}

// Extractor is the LLM fallback for order messages the patterns miss.
type Extractor interface {
	ExtractOrder(ctx context.Context, text string, candidates []string) (*llm.Extraction, error)
}

var (
	orderPattern   = regexp.MustCompile(`(?i)^(.*?)\s+(\d+(?:[.,]\d+)?)\s*(?:GEL|kg|ლარი|კგ)?\s+(.+)$`)
	paymentPattern = regexp.MustCompile(`(?i)^(.*)\s+(\d+(?:[.,]\d+)?)\s*(?:GEL|USD|EUR|₾)?$`)

	// Remainder patterns apply after a known customer key is cut out of the
	// message, so only amount (and product) are left to capture.
	orderRemainder   = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:GEL|kg|ლარი|კგ)?\s*(.+)`)
	paymentRemainder = regexp.MustCompile(`(?i)^\s*(\d+(?:[.,]\d+)?)\s*(?:GEL|USD|EUR|₾)?\s*$`)

	yearPattern = regexp.MustCompile(`\b\d{4}\b`)
)

// maxCandidates bounds the record list sent with the extraction prompt.
const maxCandidates = 30

// Parser turns one message into at most one Order.
type Parser struct {
	mode      Mode
	index     *customer.Index
	extractor Extractor
	log       *slog.Logger
}

// New builds a Parser. extractor may be nil to disable the LLM fallback.
func New(mode Mode, index *customer.Index, extractor Extractor) *Parser {
	return &Parser{
		mode:      mode,
		index:     index,
		extractor: extractor,
		log:       slog.With("component", "parser"),
	}
}

// Parse extracts an order from text. The second return is false when neither
// the patterns nor the LLM fallback produced a valid result, which the caller
// answers with a format hint.
func (p *Parser) Parse(ctx context.Context, text string) (*Order, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.Parses.WithLabelValues("none").Inc()
		return nil, false
	}

	// A key already present verbatim in the message beats the generic
	// pattern: multi-word names would otherwise split at the wrong word.
	if order, ok := p.knownKeyParse(text); ok {
		metrics.Parses.WithLabelValues("rule").Inc()
		return order, true
	}

	if order, ok := p.ruleParse(text); ok {
		metrics.Parses.WithLabelValues("rule").Inc()
		return order, true
	}

	if order, ok := p.llmParse(ctx, text); ok {
		metrics.Parses.WithLabelValues("llm").Inc()
		return order, true
	}

	metrics.Parses.WithLabelValues("none").Inc()
	return nil, false
}

// knownKeyParse looks for the longest index key contained verbatim
// (case-insensitively) in the message and parses amount and product from the
// rest of the text.
func (p *Parser) knownKeyParse(text string) (*Order, bool) {
	if p.index == nil || p.index.Empty() {
		return nil, false
	}

	bestKey := ""
	bestStart, bestEnd := -1, -1
	for _, key := range p.index.Keys() {
		start, end := indexFold(text, key)
		if start >= 0 && len(key) > len(bestKey) {
			bestKey, bestStart, bestEnd = key, start, end
		}
	}
	if bestKey == "" {
		return nil, false
	}

	remainder := strings.TrimSpace(text[:bestStart] + " " + text[bestEnd:])
	amount, product, ok := p.parseRemainder(remainder)
	if !ok {
		return nil, false
	}
	return &Order{Customer: bestKey, Amount: amount, Product: product}, true
}

// indexFold returns the byte range of the first case-insensitive occurrence
// of key in text, or (-1, -1). The comparison lowercases rune by rune, so the
// returned offsets are always valid for text itself: lowering a whole string
// can change its byte length and must never feed offsets back into the
// original.
func indexFold(text, key string) (int, int) {
	keyRunes := []rune(key)
	if len(keyRunes) == 0 {
		return -1, -1
	}
	for i := range text {
		if n, ok := foldPrefixLen(text[i:], keyRunes); ok {
			return i, i + n
		}
	}
	return -1, -1
}

// foldPrefixLen reports whether s starts with key under rune-wise case
// folding, and the byte length of that prefix in s.
func foldPrefixLen(s string, key []rune) (int, bool) {
	n := 0
	for _, kr := range key {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return 0, false
		}
		if unicode.ToLower(r) != unicode.ToLower(kr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

func (p *Parser) parseRemainder(remainder string) (float64, string, bool) {
	if p.mode == ModePayments {
		m := paymentRemainder.FindStringSubmatch(remainder)
		if m == nil {
			return 0, "", false
		}
		amount, ok := parseAmount(m[1])
		return amount, "", ok
	}

	m := orderRemainder.FindStringSubmatch(remainder)
	if m == nil {
		return 0, "", false
	}
	amount, ok := parseAmount(m[1])
	product := strings.TrimSpace(m[2])
	if !ok || product == "" {
		return 0, "", false
	}
	return amount, product, true
}

func (p *Parser) ruleParse(text string) (*Order, bool) {
	if p.mode == ModePayments {
		m := paymentPattern.FindStringSubmatch(text)
		if m == nil {
			return nil, false
		}
		amount, ok := parseAmount(m[2])
		if !ok {
			return nil, false
		}
		// Years next to a name ("ბაჩუკი 2024") are noise, not amounts.
		name := strings.TrimSpace(yearPattern.ReplaceAllString(m[1], ""))
		if name == "" {
			return nil, false
		}
		return &Order{Customer: name, Amount: amount}, true
	}

	m := orderPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	amount, ok := parseAmount(m[2])
	name := strings.TrimSpace(m[1])
	product := strings.TrimSpace(m[3])
	if !ok || name == "" || product == "" {
		return nil, false
	}
	return &Order{Customer: name, Amount: amount, Product: product}, true
}

// llmParse asks the model for a structured extraction. Payment messages never
// reach here with a product requirement they cannot meet, so the fallback is
// order-mode only.
func (p *Parser) llmParse(ctx context.Context, text string) (*Order, bool) {
	if p.extractor == nil || p.mode != ModeOrders {
		return nil, false
	}

	ext, err := p.extractor.ExtractOrder(ctx, text, p.candidates())
	if err != nil {
		p.log.Error("llm extraction failed", "err", err)
		return nil, false
	}
	if ext == nil {
		return nil, false
	}
	if p.index != nil && !p.index.Empty() {
		if _, ok := p.index.LookupExact(ext.Customer); !ok {
			p.log.Warn("llm extracted unknown customer, discarding", "customer", ext.Customer)
			return nil, false
		}
	}
	return &Order{Customer: ext.Customer, Amount: ext.Amount, Product: ext.Product}, true
}

func (p *Parser) candidates() []string {
	if p.index == nil {
		return nil
	}
	records := p.index.Records()
	if len(records) > maxCandidates {
		records = records[:maxCandidates]
	}
	return records
}

func parseAmount(raw string) (float64, bool) {
	amount, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}
