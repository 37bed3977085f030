package manifest

import (
	"sync"
	"testing"

	"github.com/3-lines-studio/heimdall/internal/config"
	"github.com/3-lines-studio/heimdall/internal/document"
)

func newDoc(entry string) *document.Document {
	return document.New(entry, document.Options{Config: config.Config{Mode: config.ModeProduction, PageExt: ".tsx"}})
}

func TestAddIsIdempotent(t *testing.T) {
	m := New()

	calls := 0
	create := func(entry string) *document.Document {
		calls++
		return newDoc(entry)
	}

	first := m.Add("./pages/home.tsx", create)
	second := m.Add("./pages/home.tsx", create)

	if first != second {
		t.Error("Add returned distinct documents for the same entry")
	}
	if calls != 1 {
		t.Errorf("constructor invoked %d times, want 1", calls)
	}
}

func TestAddNormalizesEntries(t *testing.T) {
	m := New()

	a := m.Add("./pages/home.tsx", newDoc)
	b := m.Add("pages/home.tsx", newDoc)

	if a != b {
		t.Error("spelling variants of the same entry produced distinct documents")
	}
}

func TestFindByID(t *testing.T) {
	m := New()

	doc := m.Add("./pages/home.tsx", newDoc)

	found, ok := m.FindByID(doc.ID)
	if !ok {
		t.Fatalf("FindByID(%q) missed after Add", doc.ID)
	}
	if found != doc {
		t.Error("FindByID returned a different document")
	}

	if _, ok := m.FindByID("nope.00000000"); ok {
		t.Error("FindByID matched an unregistered id")
	}
}

func TestAll(t *testing.T) {
	m := New()
	m.Add("./pages/home.tsx", newDoc)
	m.Add("./pages/about.tsx", newDoc)
	m.Add("./pages/home.tsx", newDoc)

	if got := len(m.All()); got != 2 {
		t.Errorf("All returned %d documents, want 2", got)
	}
}

func TestConcurrentAdd(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	docs := make([]*document.Document, 16)
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			docs[i] = m.Add("./pages/home.tsx", newDoc)
		}(i)
	}
	wg.Wait()

	for _, d := range docs[1:] {
		if d != docs[0] {
			t.Fatal("concurrent Add produced distinct documents")
		}
	}
}
