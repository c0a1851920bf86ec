package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BorisSolomonia/9-telebots/internal/customer"
)

type fakeMapper struct {
	result string
	err    error
	calls  int
}

func (f *fakeMapper) MapCustomer(ctx context.Context, name string, candidates []string) (string, error) {
	f.calls++
	return f.result, f.err
}

func newResolver(records []string, mapper Mapper) *Resolver {
	return New(customer.Build(records), mapper, NewCache(time.Minute, 100))
}

func TestResolveExactKey(t *testing.T) {
	mapper := &fakeMapper{}
	r := newResolver([]string{"(405135946-დღგ) შპს მაგსი"}, mapper)

	record, ok := r.Resolve(context.Background(), "შპს მაგსი")
	require.True(t, ok)
	require.Equal(t, "(405135946-დღგ) შპს მაგსი", record)
	require.Zero(t, mapper.calls, "exact match must never invoke the LLM")
}

func TestResolveExactRecordPassthrough(t *testing.T) {
	r := newResolver([]string{"(405135946-დღგ) შპს მაგსი"}, &fakeMapper{})

	record, ok := r.Resolve(context.Background(), "(405135946-დღგ) შპს მაგსი")
	require.True(t, ok)
	require.Equal(t, "(405135946-დღგ) შპს მაგსი", record)
}

func TestResolveCaseInsensitive(t *testing.T) {
	r := newResolver([]string{"(1) Magsi LLC"}, &fakeMapper{})

	record, ok := r.Resolve(context.Background(), "magsi llc")
	require.True(t, ok)
	require.Equal(t, "(1) Magsi LLC", record)
}

func TestResolveSubstringUnique(t *testing.T) {
	r := newResolver([]string{"(1) შპს წისქვილი ჯგუფი", "(2) ბაჩუკი უშხვანი"}, &fakeMapper{})

	record, ok := r.Resolve(context.Background(), "წისქვილი")
	require.True(t, ok)
	require.Equal(t, "(1) შპს წისქვილი ჯგუფი", record)
}

func TestResolveSubstringAmbiguousDefers(t *testing.T) {
	// "შპს" is contained in both keys: the substring strategy must not
	// guess, and with the LLM also declining the result is unresolved.
	mapper := &fakeMapper{result: ""}
	r := newResolver([]string{"(1) შპს ალფა", "(2) შპს ბეტა"}, mapper)

	_, ok := r.Resolve(context.Background(), "შპს")
	require.False(t, ok)
	require.Equal(t, 1, mapper.calls, "ambiguity should fall through to the LLM")
}

func TestResolveTokenFuzzyTypo(t *testing.T) {
	mapper := &fakeMapper{}
	r := newResolver([]string{"(405135946-დღგ) მაგსი"}, mapper)

	// One-rune typo over five runes: ratio exactly 0.8 clears the token
	// threshold without the LLM.
	record, ok := r.Resolve(context.Background(), "მავსი")
	require.True(t, ok)
	require.Equal(t, "(405135946-დღგ) მაგსი", record)
	require.Zero(t, mapper.calls)
}

func TestResolveStringFuzzyTypo(t *testing.T) {
	mapper := &fakeMapper{}
	r := newResolver([]string{"(405135946-დღგ) შპს მაგსი"}, mapper)

	// A one-rune typo in a two-word name scores ~0.89 on the whole string
	// plus the word-overlap bonus for the shared first word.
	record, ok := r.Resolve(context.Background(), "შპს მავსი")
	require.True(t, ok)
	require.Equal(t, "(405135946-დღგ) შპს მაგსი", record)
	require.Zero(t, mapper.calls)
}

func TestResolveLLMFallbackValidated(t *testing.T) {
	mapper := &fakeMapper{result: "(2) ბაჩუკი უშხვანი"}
	r := newResolver([]string{"(1) შპს მაგსი", "(2) ბაჩუკი უშხვანი"}, mapper)

	record, ok := r.Resolve(context.Background(), "სრულიად სხვა სახელი")
	require.True(t, ok)
	require.Equal(t, "(2) ბაჩუკი უშხვანი", record)
}

func TestResolveLLMUnknownRecordDiscarded(t *testing.T) {
	// The model answers with a string that is not in the record set; the
	// validate-then-trust step must treat it as no-match.
	mapper := &fakeMapper{result: "(9) გამოგონილი კლიენტი"}
	r := newResolver([]string{"(1) შპს მაგსი"}, mapper)

	_, ok := r.Resolve(context.Background(), "სრულიად სხვა სახელი")
	require.False(t, ok)
}

func TestResolveLLMErrorIsUnresolved(t *testing.T) {
	mapper := &fakeMapper{err: errors.New("rate limited")}
	r := newResolver([]string{"(1) შპს მაგსი"}, mapper)

	_, ok := r.Resolve(context.Background(), "სრულიად სხვა სახელი")
	require.False(t, ok)
}

func TestResolveIdempotent(t *testing.T) {
	r := newResolver([]string{"(1) შპს მაგსი", "(2) ბაჩუკი უშხვანი"}, &fakeMapper{})

	first, ok1 := r.Resolve(context.Background(), "მაგსი")
	second, ok2 := r.Resolve(context.Background(), "მაგსი")
	require.Equal(t, ok1, ok2)
	require.Equal(t, first, second)
}

func TestResolveEmptyIndex(t *testing.T) {
	mapper := &fakeMapper{}
	r := newResolver(nil, mapper)

	_, ok := r.Resolve(context.Background(), "მაგსი")
	require.False(t, ok)
	require.Zero(t, mapper.calls)
}

func TestResolveCachesLLMResult(t *testing.T) {
	mapper := &fakeMapper{result: "(1) შპს მაგსი"}
	r := newResolver([]string{"(1) შპს მაგსი", "(2) სულ სხვა"}, mapper)

	name := "უცნობი კლიენტი ქს"
	_, ok := r.Resolve(context.Background(), name)
	require.True(t, ok)
	_, ok = r.Resolve(context.Background(), name)
	require.True(t, ok)
	require.Equal(t, 1, mapper.calls, "second resolution should hit the cache")
}

func TestCandidatesFallsBackToFirstRecords(t *testing.T) {
	records := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		records = append(records, "(x) name"+string(rune('a'+i%26))+string(rune('a'+i/26)))
	}
	r := newResolver(records, &fakeMapper{})

	got := r.Candidates("ზზზზზზზზზზზზ")
	require.Len(t, got, fallbackCandidates)
	require.Equal(t, records[0], got[0])
}
