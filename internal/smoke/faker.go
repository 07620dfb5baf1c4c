package smoke

import (
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// FakePrefix marks a body string that is generated per request.
const FakePrefix = "$fake:"

var fakeKinds = map[string]func(*gofakeit.Faker) any{
	"name":        func(f *gofakeit.Faker) any { return f.Name() },
	"email":       func(f *gofakeit.Faker) any { return f.Email() },
	"phone":       func(f *gofakeit.Faker) any { return f.Phone() },
	"company":     func(f *gofakeit.Faker) any { return f.Company() },
	"city":        func(f *gofakeit.Faker) any { return f.City() },
	"country":     func(f *gofakeit.Faker) any { return f.CountryAbr() },
	"url":         func(f *gofakeit.Faker) any { return f.URL() },
	"uuid":        func(f *gofakeit.Faker) any { return f.UUID() },
	"word":        func(f *gofakeit.Faker) any { return f.Word() },
	"sentence":    func(f *gofakeit.Faker) any { return f.Sentence(8) },
	"productName": func(f *gofakeit.Faker) any { return f.ProductName() },
	"number":      func(f *gofakeit.Faker) any { return f.Number(1, 100) },
	"price":       func(f *gofakeit.Faker) any { return f.Price(1, 1000) },
	"bool":        func(f *gofakeit.Faker) any { return f.Bool() },
	"date":        func(f *gofakeit.Faker) any { return future(f).Format("2006-01-02") },
	"datetime":    func(f *gofakeit.Faker) any { return future(f).UTC().Format(time.RFC3339) },
}

func future(f *gofakeit.Faker) time.Time {
	now := time.Now()
	return f.DateRange(now.Add(time.Hour), now.AddDate(0, 1, 0))
}

// BodyFaker expands "$fake:<kind>" markers in request bodies.
//
// Thread Safety: Safe for concurrent use; the underlying faker is guarded.
type BodyFaker struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// NewBodyFaker creates a faker. A zero seed picks a random one.
func NewBodyFaker(seed uint64) *BodyFaker {
	return &BodyFaker{faker: gofakeit.New(seed)}
}

// Fill returns a deep copy of body with every marker replaced. Unknown kinds
// are left as-is so the server sees what the suite author wrote.
func (b *BodyFaker) Fill(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fillMap(body)
}

func (b *BodyFaker) fillMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = b.fillValue(v)
	}
	return out
}

func (b *BodyFaker) fillValue(v any) any {
	switch t := v.(type) {
	case string:
		kind, ok := strings.CutPrefix(t, FakePrefix)
		if !ok {
			return t
		}
		if gen, found := fakeKinds[kind]; found {
			return gen(b.faker)
		}
		return t
	case map[string]any:
		return b.fillMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = b.fillValue(item)
		}
		return out
	default:
		return v
	}
}
