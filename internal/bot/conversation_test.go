package bot

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/optiframe/optiframe/internal/config"
	"github.com/optiframe/optiframe/internal/inventory"
)

// fakeStore is the minimal Store needed to drive the guided-add flow.
type fakeStore struct {
	nextID int64
	frames map[int64]*inventory.Frame
}

func newFakeStore() *fakeStore {
	return &fakeStore{frames: make(map[int64]*inventory.Frame)}
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(tx inventory.Tx) error) error {
	return fn(s)
}

func (s *fakeStore) Get(ctx context.Context, id int64) (*inventory.Frame, error) {
	f, ok := s.frames[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (s *fakeStore) FindByKey(ctx context.Context, key inventory.MatchKey) (*inventory.Frame, error) {
	for _, f := range s.frames {
		if f.Key() == key {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Insert(ctx context.Context, f *inventory.Frame) error {
	s.nextID++
	f.ID = s.nextID
	cp := *f
	s.frames[f.ID] = &cp
	return nil
}

func (s *fakeStore) Update(ctx context.Context, f *inventory.Frame) error {
	cp := *f
	s.frames[f.ID] = &cp
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	delete(s.frames, id)
	return nil
}

func (s *fakeStore) Search(ctx context.Context, c inventory.Criteria, limit int, order inventory.Order) ([]inventory.Frame, error) {
	return nil, nil
}

func (s *fakeStore) Count(ctx context.Context) (int64, error) { return int64(len(s.frames)), nil }

func (s *fakeStore) MaterialCounts(ctx context.Context, top int) ([]inventory.MaterialCount, error) {
	return nil, nil
}

func (s *fakeStore) Duplicates(ctx context.Context, limit int) ([]inventory.DuplicateGroup, error) {
	return nil, nil
}

func (s *fakeStore) Stats(ctx context.Context) (*inventory.Stats, error) {
	return &inventory.Stats{}, nil
}

func testBot(store inventory.Store) *Bot {
	engine := inventory.NewEngine(store, 2000)
	return New(nil, engine, config.BotConfig{}, 3500)
}

func msg(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: chatID}}
}

func TestGuidedAddFlow(t *testing.T) {
	store := newFakeStore()
	b := testBot(store)
	ctx := context.Background()
	const chat = int64(42)

	if got := b.conv.start(chat); !strings.Contains(got, "model code") {
		t.Fatalf("start prompt = %q", got)
	}

	steps := []struct {
		input string
		want  string
	}{
		{"RB2140", "Brand?"},
		{"Ray-Ban", "Stock quantity?"},
		{"3", "Optional fields"},
		{"nonsense without equals", "didn't look like key=value"},
		{`color="matte black" price=150`, "Noted."},
		{"done", "Confirm?"},
	}
	for _, step := range steps {
		got := b.conv.input(ctx, b, msg(chat, step.input))
		if !strings.Contains(got, step.want) {
			t.Fatalf("input %q -> %q, want substring %q", step.input, got, step.want)
		}
	}

	reply := b.conv.input(ctx, b, msg(chat, "yes"))
	if !strings.Contains(reply, "Added ID=1") {
		t.Fatalf("confirm reply = %q", reply)
	}

	f, _ := store.Get(ctx, 1)
	if f == nil {
		t.Fatal("frame not stored")
	}
	if f.Brand == nil || *f.Brand != "Ray-Ban" || f.ModelCode != "RB2140" {
		t.Errorf("stored frame = %+v", f)
	}
	if f.Stock != 3 {
		t.Errorf("stock = %d, want 3", f.Stock)
	}
	if f.Color == nil || *f.Color != "matte black" {
		t.Errorf("color = %v", f.Color)
	}

	// Session is gone after commit.
	if got := b.conv.input(ctx, b, msg(chat, "hello")); got != "" {
		t.Errorf("input after commit = %q, want no reply", got)
	}
}

func TestGuidedAddCancel(t *testing.T) {
	b := testBot(newFakeStore())
	const chat = int64(7)

	if got := b.conv.cancel(chat); got != "Nothing to cancel." {
		t.Errorf("cancel without session = %q", got)
	}
	b.conv.start(chat)
	if got := b.conv.cancel(chat); got != "Cancelled." {
		t.Errorf("cancel = %q", got)
	}
	if got := b.conv.input(context.Background(), b, msg(chat, "RB2140")); got != "" {
		t.Errorf("input after cancel = %q, want no reply", got)
	}
}

func TestGuidedAddDiscard(t *testing.T) {
	store := newFakeStore()
	b := testBot(store)
	ctx := context.Background()
	const chat = int64(9)

	b.conv.start(chat)
	for _, input := range []string{"M1", "-", "1", "done"} {
		b.conv.input(ctx, b, msg(chat, input))
	}
	if got := b.conv.input(ctx, b, msg(chat, "maybe")); !strings.Contains(got, "yes or no") {
		t.Errorf("ambiguous confirm = %q", got)
	}
	if got := b.conv.input(ctx, b, msg(chat, "no")); got != "Discarded." {
		t.Errorf("discard = %q", got)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("store count = %d, want 0", n)
	}
}
