package cart

import (
	"testing"

	"github.com/google/uuid"
)

func TestAddOrIncrementAccumulates(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := NewStore(nil)
	store.AddOrIncrement(id, 2)
	store.AddOrIncrement(id, 3)

	if qty, ok := store.Quantity(id); !ok || qty != 5 {
		t.Fatalf("expected quantity 5, got %d (present=%v)", qty, ok)
	}
}

func TestNewStoreCopiesInput(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	input := map[uuid.UUID]int{id: 1}
	store := NewStore(input)
	store.AddOrIncrement(id, 1)

	if input[id] != 1 {
		t.Fatalf("expected caller map untouched, got %d", input[id])
	}
}

func TestApplyBulkUpdate(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	store := NewStore(map[uuid.UUID]int{a: 2, b: 1})

	skipped := store.ApplyBulkUpdate([]FormPair{
		{Key: "id", Value: a.String()},
		{Key: "quantity", Value: "3"},
		{Key: "id", Value: b.String()},
		{Key: "remove", Value: "1"},
		{Key: "id", Value: c.String()},
		{Key: "quantity", Value: "4"},
		{Key: "coupon", Value: "FREE"},
	})

	if qty, _ := store.Quantity(a); qty != 5 {
		t.Fatalf("expected a=5, got %d", qty)
	}
	if _, ok := store.Quantity(b); ok {
		t.Fatal("expected b removed")
	}
	if qty, _ := store.Quantity(c); qty != 4 {
		t.Fatalf("expected c=4, got %d", qty)
	}
	if len(skipped) != 1 || skipped[0].Reason != "unknown key" {
		t.Fatalf("expected one unknown key skip, got %+v", skipped)
	}
}

func TestApplyBulkUpdateSkipsMalformedPairs(t *testing.T) {
	t.Parallel()

	a := uuid.New()
	store := NewStore(nil)

	skipped := store.ApplyBulkUpdate([]FormPair{
		{Key: "quantity", Value: "1"},
		{Key: "id", Value: "not-a-uuid"},
		{Key: "quantity", Value: "7"},
		{Key: "id", Value: a.String()},
		{Key: "quantity", Value: "two"},
		{Key: "quantity", Value: "2"},
	})

	if len(skipped) != 4 {
		t.Fatalf("expected 4 skipped pairs, got %d: %+v", len(skipped), skipped)
	}
	if qty, _ := store.Quantity(a); qty != 2 {
		t.Fatalf("expected later valid pair applied, got %d", qty)
	}
	if store.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", store.Len())
	}
}

func TestResetClearsEntries(t *testing.T) {
	t.Parallel()

	store := NewStore(map[uuid.UUID]int{uuid.New(): 1, uuid.New(): 4})
	store.Reset()
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestParseFormPairsKeepsOrder(t *testing.T) {
	t.Parallel()

	pairs, skipped := ParseFormPairs("id=a&quantity=1&broken&id=b&remove=on&note=hello%20there&bad=%zz")
	want := []FormPair{
		{Key: "id", Value: "a"},
		{Key: "quantity", Value: "1"},
		{Key: "id", Value: "b"},
		{Key: "remove", Value: "on"},
		{Key: "note", Value: "hello there"},
	}
	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %+v", len(want), pairs)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Fatalf("pair %d: expected %+v, got %+v", i, want[i], pairs[i])
		}
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped segments, got %+v", skipped)
	}
}
