package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/optiframe/optiframe/internal/inventory"
)

type convStep int

const (
	stepModel convStep = iota
	stepBrand
	stepStock
	stepOptionals
	stepConfirm
)

// session holds the state of one guided /new flow. Fields accumulate as
// raw key=value pairs and go through the same parser as /add at the end,
// so both entry paths apply identical coercion rules.
type session struct {
	step convStep
	data map[string]string
}

// conversations tracks at most one guided-add session per chat.
type conversations struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func newConversations() *conversations {
	return &conversations{sessions: make(map[int64]*session)}
}

func (c *conversations) start(chatID int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[chatID] = &session{step: stepModel, data: make(map[string]string)}
	return "Let's add a frame. Send the model code (or /cancel):"
}

func (c *conversations) cancel(chatID int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[chatID]; !ok {
		return "Nothing to cancel."
	}
	delete(c.sessions, chatID)
	return "Cancelled."
}

// input advances the session for this chat with a free-text message.
// Returns "" when no session is active.
func (c *conversations) input(ctx context.Context, b *Bot, m *tgbotapi.Message) string {
	c.mu.Lock()
	s, ok := c.sessions[m.Chat.ID]
	c.mu.Unlock()
	if !ok {
		return ""
	}

	text := strings.TrimSpace(m.Text)

	switch s.step {
	case stepModel:
		if text == "" {
			return "Model code cannot be empty. Try again:"
		}
		s.data["model_code"] = text
		s.step = stepBrand
		return "Brand? (send '-' for no brand)"

	case stepBrand:
		if text != "-" && text != "" {
			s.data["brand"] = text
		}
		s.step = stepStock
		return "Stock quantity? (number, default 1)"

	case stepStock:
		if text != "" {
			n, err := strconv.Atoi(text)
			if err != nil {
				return "Please send a number (or /cancel):"
			}
			if n < 0 {
				n = 0
			}
			s.data["stock"] = strconv.Itoa(n)
		}
		s.step = stepOptionals
		return "Optional fields as key=value (material, lens, bridge, temple, color, shape, gender, price, notes).\nSend 'done' when finished."

	case stepOptionals:
		if strings.EqualFold(text, "done") {
			s.step = stepConfirm
			return "About to save:\n" + summarize(s.data) + "\nConfirm? (yes/no)"
		}
		kv := parseKVArgs(text)
		if len(kv) == 0 {
			return "That didn't look like key=value. Try again or send 'done'."
		}
		for k, v := range kv {
			s.data[k] = v
		}
		return "Noted. More fields, or 'done'."

	case stepConfirm:
		switch strings.ToLower(text) {
		case "yes", "y":
			c.mu.Lock()
			delete(c.sessions, m.Chat.ID)
			c.mu.Unlock()
			return c.commit(ctx, b, s.data)
		case "no", "n":
			c.mu.Lock()
			delete(c.sessions, m.Chat.ID)
			c.mu.Unlock()
			return "Discarded."
		default:
			return "Please answer yes or no."
		}
	}
	return ""
}

func (c *conversations) commit(ctx context.Context, b *Bot, data map[string]string) string {
	cand, _ := inventory.ParseFields(data)
	if cand.ModelCode == nil {
		return "Missing model (use model=<code>)"
	}
	res, err := b.engine.Upsert(ctx, cand)
	if err != nil {
		return errText(err)
	}
	return upsertReply(res)
}

func summarize(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("  %s = %s", k, data[k])
	}
	return strings.Join(lines, "\n")
}
