// Package bot is the Telegram front end for the inventory. It
// translates chat commands into core operations and renders the results
// as plain-text replies or file attachments. All business policy lives
// in the inventory engine; this package is transport and formatting.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/optiframe/optiframe/internal/config"
	"github.com/optiframe/optiframe/internal/export"
	"github.com/optiframe/optiframe/internal/inventory"
	"github.com/optiframe/optiframe/internal/logging"
)

// Bot runs the long-polling Telegram dispatcher.
type Bot struct {
	api      *tgbotapi.BotAPI
	engine   *inventory.Engine
	cfg      config.BotConfig
	inline   int
	handlers map[string]func(ctx context.Context, m *tgbotapi.Message)
	conv     *conversations
}

// New builds the dispatcher. inlineThreshold is the text-export size
// above which replies become file attachments.
func New(api *tgbotapi.BotAPI, engine *inventory.Engine, cfg config.BotConfig, inlineThreshold int) *Bot {
	b := &Bot{
		api:    api,
		engine: engine,
		cfg:    cfg,
		inline: inlineThreshold,
		conv:   newConversations(),
	}

	b.handlers = map[string]func(context.Context, *tgbotapi.Message){
		"start":      b.handleHelp,
		"help":       b.handleHelp,
		"ping":       b.handlePing,
		"new":        b.handleNew,
		"add":        b.handleAdd,
		"search":     b.handleSearch,
		"get":        b.handleGet,
		"recent":     b.handleRecent,
		"list":       b.handleList,
		"brand":      b.handleBrand,
		"count":      b.handleCount,
		"stats":      b.handleStats,
		"duplicates": b.handleDuplicates,
		"lowstock":   b.handleLowStock,
		"update":     b.handleUpdate,
		"setstock":   b.handleSetStock,
		"delete":     b.handleDelete,
		"merge":      b.handleMerge,
		"export":     b.handleExport,
		"backup":     b.handleBackup,

		// aliases
		"ls":  b.handleRecent,
		"inv": b.handleStats,
		"c":   b.handleCount,
	}
	return b
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.cfg.PollTimeout.Seconds())
	updates := b.api.GetUpdatesChan(u)

	logging.FromContext(ctx).Info("bot running", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.dispatch(ctx, update.Message)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, m *tgbotapi.Message) {
	ctx = logging.WithRequestID(ctx)
	log := logging.FromContext(ctx)

	if !m.IsCommand() {
		// Free text only matters inside a guided-add conversation.
		if reply := b.conv.input(ctx, b, m); reply != "" {
			b.reply(ctx, m, reply)
		}
		return
	}

	cmd := strings.ToLower(m.Command())
	log.Debug("command received", "command", cmd, "chat", m.Chat.ID)

	if cmd == "cancel" {
		b.reply(ctx, m, b.conv.cancel(m.Chat.ID))
		return
	}
	handler, ok := b.handlers[cmd]
	if !ok {
		return
	}
	handler(ctx, m)
}

// reply sends a plain text message, logging delivery failures.
func (b *Bot) reply(ctx context.Context, m *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(m.Chat.ID, text)
	if _, err := b.api.Send(msg); err != nil {
		logging.FromContext(ctx).Error("send reply failed", "error", err)
	}
}

// replyDocument sends a file attachment.
func (b *Bot) replyDocument(ctx context.Context, m *tgbotapi.Message, name string, data []byte) {
	doc := tgbotapi.NewDocument(m.Chat.ID, tgbotapi.FileBytes{Name: name, Bytes: data})
	if _, err := b.api.Send(doc); err != nil {
		logging.FromContext(ctx).Error("send document failed", "error", err)
	}
}

// errText translates core errors into chat replies. Business-rule
// rejections surface as-is; adapter failures get a generic message, the
// detail having already been logged by the engine.
func errText(err error) string {
	var nf *inventory.NotFoundError
	if errors.As(err, &nf) {
		return "Not found"
	}
	var val *inventory.ValidationError
	if errors.As(err, &val) {
		return val.Error()
	}
	var inv *inventory.InvalidArgumentError
	if errors.As(err, &inv) {
		return inv.Error()
	}
	return "Something went wrong, please try again later."
}

// args returns the command arguments split on whitespace.
func args(m *tgbotapi.Message) []string {
	return strings.Fields(m.CommandArguments())
}

func (b *Bot) handleHelp(ctx context.Context, m *tgbotapi.Message) {
	a := args(m)
	if len(a) > 0 && strings.EqualFold(a[0], "fields") {
		b.reply(ctx, m, fieldHelpText())
		return
	}
	b.reply(ctx, m, helpText())
}

func (b *Bot) handlePing(ctx context.Context, m *tgbotapi.Message) {
	b.reply(ctx, m, "pong")
}

func (b *Bot) handleNew(ctx context.Context, m *tgbotapi.Message) {
	b.reply(ctx, m, b.conv.start(m.Chat.ID))
}

func (b *Bot) handleAdd(ctx context.Context, m *tgbotapi.Message) {
	kv := parseKVArgs(m.CommandArguments())
	cand, _ := inventory.ParseFields(kv)
	if cand.ModelCode == nil {
		b.reply(ctx, m, "Missing model (use model=<code>)")
		return
	}

	res, err := b.engine.Upsert(ctx, cand)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	b.reply(ctx, m, upsertReply(res))
}

func upsertReply(res *inventory.UpsertResult) string {
	f := res.Frame
	if res.Status == inventory.StatusMerged {
		return fmt.Sprintf("✅ Updated existing ID=%d\nStock: %d -> %d\nItem: %s %s",
			f.ID, res.PrevStock, f.Stock, f.Label(), f.ModelCode)
	}
	return fmt.Sprintf("🆕 Added ID=%d\nItem: %s %s\nStock=%d",
		f.ID, f.Label(), f.ModelCode, f.Stock)
}

// criteriaFromKV builds search criteria from key=value arguments.
// Typed field values that fail conversion are dropped, like everywhere
// else on this surface.
func criteriaFromKV(kv map[string]string) inventory.Criteria {
	var c inventory.Criteria

	text := func(key string, dst **string) {
		if v, ok := kv[key]; ok && v != "" {
			*dst = &v
		}
	}
	text("brand", &c.Brand)
	text("model", &c.ModelCode)
	text("model_code", &c.ModelCode)
	text("material", &c.Material)
	text("color", &c.Color)
	text("shape", &c.Shape)
	text("gender", &c.Gender)

	for _, key := range []string{"lens", "lens_width"} {
		if v, ok := kv[key]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				c.LensWidth = &n
			}
		}
	}
	if v, ok := kv["min_price"]; ok {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			c.MinPrice = &p
		}
	}
	if v, ok := kv["max_price"]; ok {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			c.MaxPrice = &p
		}
	}
	return c
}

func (b *Bot) handleSearch(ctx context.Context, m *tgbotapi.Message) {
	c := criteriaFromKV(parseKVArgs(m.CommandArguments()))
	frames, err := b.engine.Search(ctx, c, 10, inventory.OrderNewestFirst)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	if len(frames) == 0 {
		b.reply(ctx, m, "No matches.")
		return
	}
	b.reply(ctx, m, detailLines(frames))
}

func (b *Bot) handleGet(ctx context.Context, m *tgbotapi.Message) {
	a := args(m)
	if len(a) < 1 {
		b.reply(ctx, m, "Usage: /get <id>")
		return
	}
	id, err := strconv.ParseInt(a[0], 10, 64)
	if err != nil {
		b.reply(ctx, m, "Invalid id")
		return
	}
	f, err := b.engine.Get(ctx, id)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	b.reply(ctx, m, renderGet(f))
}

// limitArg parses an optional numeric argument clamped to [1, max],
// falling back to def when absent or unparsable.
func limitArg(a []string, def, max int) int {
	if len(a) == 0 {
		return def
	}
	n, err := strconv.Atoi(a[0])
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

func (b *Bot) handleRecent(ctx context.Context, m *tgbotapi.Message) {
	limit := limitArg(args(m), 5, 50)
	frames, err := b.engine.Search(ctx, inventory.Criteria{}, limit, inventory.OrderNewestFirst)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	if len(frames) == 0 {
		b.reply(ctx, m, "No frames yet.")
		return
	}
	b.reply(ctx, m, detailLines(frames))
}

func (b *Bot) handleList(ctx context.Context, m *tgbotapi.Message) {
	limit := limitArg(args(m), 10, 100)
	frames, err := b.engine.Search(ctx, inventory.Criteria{}, limit, inventory.OrderIDAscending)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	if len(frames) == 0 {
		b.reply(ctx, m, "No frames.")
		return
	}
	b.reply(ctx, m, fmt.Sprintf("First %d by ID:\n%s", len(frames), shortLines(frames)))
}

func (b *Bot) handleBrand(ctx context.Context, m *tgbotapi.Message) {
	name := strings.TrimSpace(m.CommandArguments())
	if name == "" {
		b.reply(ctx, m, "Usage: /brand <brand_name>")
		return
	}
	frames, err := b.engine.Search(ctx, inventory.Criteria{BrandExact: &name}, 25, inventory.OrderModelAscending)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	if len(frames) == 0 {
		b.reply(ctx, m, "No frames for that brand.")
		return
	}
	lines := make([]string, len(frames))
	for i := range frames {
		f := &frames[i]
		lines[i] = fmt.Sprintf("%d: %s stock=%d price=%s", f.ID, f.ModelCode, f.Stock, dashFloat(f.Price))
	}
	b.reply(ctx, m, fmt.Sprintf("Brand %s (first %d):\n%s", name, len(frames), strings.Join(lines, "\n")))
}

func (b *Bot) handleCount(ctx context.Context, m *tgbotapi.Message) {
	total, materials, err := b.engine.Count(ctx)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	b.reply(ctx, m, renderCount(total, materials))
}

func (b *Bot) handleStats(ctx context.Context, m *tgbotapi.Message) {
	stats, err := b.engine.Stats(ctx)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	b.reply(ctx, m, renderStats(stats))
}

func (b *Bot) handleDuplicates(ctx context.Context, m *tgbotapi.Message) {
	groups, err := b.engine.Duplicates(ctx)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	if len(groups) == 0 {
		b.reply(ctx, m, "No duplicates detected.")
		return
	}
	b.reply(ctx, m, renderDuplicates(groups))
}

func (b *Bot) handleLowStock(ctx context.Context, m *tgbotapi.Message) {
	threshold := 5
	if a := args(m); len(a) > 0 {
		if n, err := strconv.Atoi(a[0]); err == nil && n >= 0 {
			threshold = n
		}
	}
	frames, err := b.engine.Search(ctx, inventory.Criteria{MaxStock: &threshold}, 50, inventory.OrderStockAscending)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	if len(frames) == 0 {
		b.reply(ctx, m, fmt.Sprintf("No items with stock <= %d.", threshold))
		return
	}
	b.reply(ctx, m, renderLowStock(frames, threshold))
}

func (b *Bot) handleUpdate(ctx context.Context, m *tgbotapi.Message) {
	a := args(m)
	if len(a) < 1 {
		b.reply(ctx, m, "Usage: /update <id> field=value ...")
		return
	}
	id, err := strconv.ParseInt(a[0], 10, 64)
	if err != nil {
		b.reply(ctx, m, "First arg must be id")
		return
	}
	kv := parseKVArgs(strings.Join(a[1:], " "))
	_, applied, err := b.engine.UpdateFields(ctx, id, kv)
	if err != nil {
		var val *inventory.ValidationError
		if errors.As(err, &val) {
			b.reply(ctx, m, "No valid fields to update.")
			return
		}
		b.reply(ctx, m, errText(err))
		return
	}
	b.reply(ctx, m, fmt.Sprintf("Updated ID=%d fields: %s", id, strings.Join(applied, ", ")))
}

func (b *Bot) handleSetStock(ctx context.Context, m *tgbotapi.Message) {
	a := args(m)
	if len(a) < 2 {
		b.reply(ctx, m, "Usage: /setstock <id> <number>")
		return
	}
	id, err1 := strconv.ParseInt(a[0], 10, 64)
	val, err2 := strconv.Atoi(a[1])
	if err1 != nil || err2 != nil {
		b.reply(ctx, m, "Numbers only")
		return
	}
	_, prev, err := b.engine.SetStock(ctx, id, val)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	b.reply(ctx, m, fmt.Sprintf("Stock ID=%d %d->%d", id, prev, val))
}

func (b *Bot) handleDelete(ctx context.Context, m *tgbotapi.Message) {
	a := args(m)
	if len(a) < 1 {
		b.reply(ctx, m, "Usage: /delete <id>")
		return
	}
	id, err := strconv.ParseInt(a[0], 10, 64)
	if err != nil {
		b.reply(ctx, m, "Invalid id")
		return
	}
	if err := b.engine.Delete(ctx, id); err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	b.reply(ctx, m, fmt.Sprintf("Deleted ID=%d", id))
}

func (b *Bot) handleMerge(ctx context.Context, m *tgbotapi.Message) {
	a := args(m)
	if len(a) < 2 {
		b.reply(ctx, m, "Usage: /merge <source_id> <target_id>")
		return
	}
	sid, err1 := strconv.ParseInt(a[0], 10, 64)
	tid, err2 := strconv.ParseInt(a[1], 10, 64)
	if err1 != nil || err2 != nil {
		b.reply(ctx, m, "IDs must be numbers")
		return
	}
	if sid == tid {
		b.reply(ctx, m, "Source and target must differ.")
		return
	}
	merged, err := b.engine.Merge(ctx, sid, tid)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	b.reply(ctx, m, fmt.Sprintf("Merged %d into %d. New stock=%d", sid, tid, merged.Stock))
}

func (b *Bot) handleExport(ctx context.Context, m *tgbotapi.Message) {
	a := args(m)
	kind := export.KindCSV
	limit := 100
	var c inventory.Criteria

	// Quick form: /export 250
	if len(a) == 1 {
		if n, err := strconv.Atoi(a[0]); err == nil {
			limit = clampInt(n, 1, b.engine.MaxRows())
			a = nil
		}
	}
	if len(a) > 0 {
		kv := parseKVArgs(strings.Join(a, " "))
		if v, ok := kv["format"]; ok {
			kind = export.ParseKind(v)
		}
		if v, ok := kv["limit"]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				limit = clampInt(n, 1, b.engine.MaxRows())
			}
		}
		if v, ok := kv["brand"]; ok && v != "" {
			c.BrandExact = &v
		}
		if v, ok := kv["since"]; ok {
			if t, err := time.Parse("2006-01-02", v); err == nil {
				c.Since = &t
			}
		}
	}

	frames, err := b.engine.Search(ctx, c, limit, inventory.OrderNewestFirst)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}

	artifact, err := export.Format(frames, kind, b.inline)
	if errors.Is(err, export.ErrNoData) {
		b.reply(ctx, m, "No data to export with given filters.")
		return
	}
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	if artifact.Inline {
		b.reply(ctx, m, string(artifact.Data))
		return
	}
	b.replyDocument(ctx, m, artifact.Filename, artifact.Data)
}

func (b *Bot) handleBackup(ctx context.Context, m *tgbotapi.Message) {
	frames, err := b.engine.Search(ctx, inventory.Criteria{}, b.engine.MaxRows(), inventory.OrderIDAscending)
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	artifact, err := export.Format(frames, export.KindCSV, b.inline)
	if errors.Is(err, export.ErrNoData) {
		b.reply(ctx, m, "No data to back up.")
		return
	}
	if err != nil {
		b.reply(ctx, m, errText(err))
		return
	}
	b.replyDocument(ctx, m, "frames_backup.csv", artifact.Data)
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
