package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"meal-planner/internal/app"
	"meal-planner/internal/calendar"
	"meal-planner/internal/config"
	"meal-planner/internal/ingredient"
	"meal-planner/internal/metrics"
	"meal-planner/internal/pantry"
	"meal-planner/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// sessionTTL is how long a selected week stays active.
const sessionTTL = 12 * time.Hour

const helpText = `🧑‍🍳 Meal planner commands

/week [this|next|prev|YYYY-MM-DD] - show or select the week
/plan <day> <category> <title>: <ingredients> - plan a meal
/add <day> <category> <recipe id> - plan a recipe from the library
/external <day> <category> <id> - plan an external recipe
/unplan <day> <category> <n> - remove a planned meal
/recipes - list the recipe library
/find <query> - search external recipes
/shop - add new meals to the shopping list
/list - show the shopping list
/resetshop - rebuild the list from every meal next time
/prep - write a prep list for the week
/pantry - show your stock
/stock <section> <amount> <name> - add stock
/use <section> <amount> <name> - use up stock
/drop <section> <name> - remove an item

Categories: kidsLunch, adultsLunch, familyDinner (or kids, adults, dinner).
Sections: pantry, freezer, spice.
Send a recipe URL to clip it into the library.`

// Bot wraps the Telegram API around the meal planner.
type Bot struct {
	api      *tgbotapi.BotAPI
	app      *app.App
	sessions *SessionRepository
	cfg      *config.Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, sessions *SessionRepository, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", zap.String("description", resp.Description))

	return &Bot{
		api:      api,
		app:      a,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !b.isAllowed(update.Message.From.ID) {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", update.Message.From.ID), zap.String("username", update.Message.From.UserName))
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) isAllowed(id int64) bool {
	if id == b.cfg.AdminTelegramID && id != 0 {
		return true
	}
	for _, allowed := range b.cfg.TelegramAllowedUserIDs {
		if id == allowed {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if !isSlow(msg.Text) {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, b.respond(ctx, msg.From.ID, msg.Text)))
		return
	}

	sent, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "⏳ Working on it..."))
	if err != nil {
		b.logger.Warn("failed to send initial reply", zap.Error(err))
		return
	}
	b.send(tgbotapi.NewEditMessageText(msg.Chat.ID, sent.MessageID, b.respond(ctx, msg.From.ID, msg.Text)))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("failed to send telegram message", zap.Error(err))
	}
}

// isSlow reports whether the message triggers an LLM call.
func isSlow(text string) bool {
	cmd, _ := splitCommand(text)
	return isURL(text) || cmd == "/prep"
}

func isURL(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}

// splitCommand separates "/cmd@bot args" into the lower-cased command and its arguments.
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	return cmd, strings.TrimSpace(text[len(fields[0]):])
}

// respond runs one chat message and returns the reply text.
func (b *Bot) respond(ctx context.Context, from int64, text string) string {
	userID := strconv.FormatInt(from, 10)
	if isURL(text) {
		return b.cmdClip(ctx, strings.TrimSpace(text))
	}

	cmd, args := splitCommand(text)
	var (
		reply string
		err   error
	)
	switch cmd {
	case "/start", "/help":
		return helpText
	case "/week":
		reply, err = b.cmdWeek(ctx, userID, args)
	case "/plan":
		reply, err = b.cmdPlan(ctx, userID, args)
	case "/add":
		reply, err = b.cmdAdd(ctx, userID, args)
	case "/external":
		reply, err = b.cmdExternal(ctx, userID, args)
	case "/unplan":
		reply, err = b.cmdUnplan(ctx, userID, args)
	case "/recipes":
		reply, err = b.cmdRecipes(ctx)
	case "/find":
		reply, err = b.cmdFind(ctx, args)
	case "/shop":
		reply, err = b.cmdShop(ctx, userID)
	case "/list":
		reply, err = b.cmdList(ctx, userID)
	case "/resetshop":
		reply, err = b.cmdResetShop(ctx, userID)
	case "/prep":
		reply, err = b.cmdPrep(ctx, userID)
	case "/pantry":
		reply, err = b.cmdPantry(ctx, userID)
	case "/stock":
		reply, err = b.cmdStock(ctx, userID, args, 1)
	case "/use":
		reply, err = b.cmdStock(ctx, userID, args, -1)
	case "/drop":
		reply, err = b.cmdDrop(ctx, userID, args)
	case "/metrics":
		if from != b.cfg.AdminTelegramID {
			return "⛔ Access denied: admin only."
		}
		reply, err = b.cmdMetrics(ctx)
	default:
		return "🤔 Unknown command. Send /help for the list."
	}

	if err != nil {
		if errors.Is(err, app.ErrFeatureDisabled) {
			return "🚫 This feature is not configured."
		}
		b.logger.Warn("command failed", zap.String("command", cmd), zap.String("user_id", userID), zap.Error(err))
		return "❌ " + err.Error()
	}
	return reply
}

func (b *Bot) activeWeek(ctx context.Context, userID string) (string, error) {
	s, err := b.sessions.GetActive(ctx, userID, b.now())
	if err != nil {
		return "", err
	}
	if s != nil {
		return s.WeekKey, nil
	}
	return calendar.KeyFor(b.now()), nil
}

func (b *Bot) cmdWeek(ctx context.Context, userID, args string) (string, error) {
	var key string
	switch strings.ToLower(args) {
	case "":
		k, err := b.activeWeek(ctx, userID)
		if err != nil {
			return "", err
		}
		key = k
	case "this":
		key = calendar.KeyFor(b.now())
	case "next":
		key = calendar.KeyFor(b.now().AddDate(0, 0, 7))
	case "prev":
		key = calendar.KeyFor(b.now().AddDate(0, 0, -7))
	default:
		k, err := calendar.ParseKey(args)
		if err != nil {
			return "", err
		}
		key = k
	}

	if args != "" {
		if err := b.sessions.Set(ctx, userID, key, b.now().Add(sessionTTL)); err != nil {
			return "", err
		}
	}

	w, err := b.app.Week(ctx, userID, key)
	if err != nil {
		return "", err
	}
	return formatWeek(w), nil
}

// slotArgs parses "<day> <category> <rest>".
func slotArgs(args string) (int, calendar.Category, string, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return 0, "", "", fmt.Errorf("expected <day> <category> and more, see /help")
	}
	day, err := calendar.ParseDay(fields[0])
	if err != nil {
		return 0, "", "", err
	}
	c, err := calendar.ParseCategory(fields[1])
	if err != nil {
		return 0, "", "", err
	}
	rest := strings.TrimSpace(args)
	for _, f := range fields[:2] {
		rest = strings.TrimSpace(rest[len(f):])
	}
	return day, c, rest, nil
}

func (b *Bot) cmdPlan(ctx context.Context, userID, args string) (string, error) {
	day, c, rest, err := slotArgs(args)
	if err != nil {
		return "", err
	}
	title, ingredients, _ := strings.Cut(rest, ":")
	m := &calendar.Meal{Title: strings.TrimSpace(title), Ingredients: calendar.IngredientsText(strings.TrimSpace(ingredients))}

	key, err := b.activeWeek(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := b.app.PlanMeal(ctx, userID, key, day, c, m); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Planned %s for %s %s.", m.Title, calendar.DayNames[day], c), nil
}

func (b *Bot) cmdAdd(ctx context.Context, userID, args string) (string, error) {
	day, c, recipeID, err := slotArgs(args)
	if err != nil {
		return "", err
	}
	key, err := b.activeWeek(ctx, userID)
	if err != nil {
		return "", err
	}
	m, err := b.app.PlanRecipe(ctx, userID, key, day, c, recipeID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Planned %s for %s %s.", m.Title, calendar.DayNames[day], c), nil
}

func (b *Bot) cmdExternal(ctx context.Context, userID, args string) (string, error) {
	day, c, id, err := slotArgs(args)
	if err != nil {
		return "", err
	}
	key, err := b.activeWeek(ctx, userID)
	if err != nil {
		return "", err
	}
	m, err := b.app.PlanExternal(ctx, userID, key, day, c, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Planned %s for %s %s.", m.Title, calendar.DayNames[day], c), nil
}

func (b *Bot) cmdUnplan(ctx context.Context, userID, args string) (string, error) {
	day, c, rest, err := slotArgs(args)
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return "", fmt.Errorf("meal number must be a positive integer, got %q", rest)
	}
	key, err := b.activeWeek(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := b.app.Unplan(ctx, userID, key, day, c, n-1); err != nil {
		return "", err
	}
	return fmt.Sprintf("🗑 Removed meal %d from %s %s.", n, calendar.DayNames[day], c), nil
}

func (b *Bot) cmdRecipes(ctx context.Context) (string, error) {
	recipes, err := b.app.Recipes(ctx)
	if err != nil {
		return "", err
	}
	if len(recipes) == 0 {
		return "📚 The recipe library is empty. Send a recipe URL to clip one.", nil
	}
	var sb strings.Builder
	sb.WriteString("📚 Recipes\n\n")
	for _, r := range recipes {
		fmt.Fprintf(&sb, "• %s\n  id: %s\n", r.Summary(), r.ID)
	}
	return sb.String(), nil
}

func (b *Bot) cmdFind(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("usage: /find <query>")
	}
	found, err := b.app.SearchExternal(ctx, query)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return fmt.Sprintf("🔍 Nothing found for %q.", query), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 Results for %q\n\n", query)
	for i, d := range found {
		if i == 10 {
			break
		}
		fmt.Fprintf(&sb, "• %s (id %s)\n", d.Title, d.ID)
	}
	return sb.String(), nil
}

func (b *Bot) cmdShop(ctx context.Context, userID string) (string, error) {
	key, err := b.activeWeek(ctx, userID)
	if err != nil {
		return "", err
	}
	res, err := b.app.ShoppingList(ctx, userID, key)
	if err != nil {
		return "", err
	}
	if res.NoChanges {
		return "✅ No new meals since the last shopping list.", nil
	}
	return formatShoppingList(res), nil
}

func (b *Bot) cmdList(ctx context.Context, userID string) (string, error) {
	key, err := b.activeWeek(ctx, userID)
	if err != nil {
		return "", err
	}
	w, err := b.app.Week(ctx, userID, key)
	if err != nil {
		return "", err
	}
	return formatItems(w.Grocery), nil
}

func (b *Bot) cmdResetShop(ctx context.Context, userID string) (string, error) {
	key, err := b.activeWeek(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := b.app.ResetShoppingList(ctx, userID, key); err != nil {
		return "", err
	}
	return "🔄 Shopping list cleared. /shop will include every planned meal.", nil
}

func (b *Bot) cmdPrep(ctx context.Context, userID string) (string, error) {
	key, err := b.activeWeek(ctx, userID)
	if err != nil {
		return "", err
	}
	text, err := b.app.GeneratePrep(ctx, userID, key)
	if err != nil {
		return "", err
	}
	return "🔪 Prep list\n\n" + text, nil
}

func (b *Bot) cmdPantry(ctx context.Context, userID string) (string, error) {
	p, err := b.app.Pantry(ctx, userID)
	if err != nil {
		return "", err
	}
	return formatPantry(p), nil
}

// cmdStock adds (sign 1) or uses up (sign -1) stock given as
// "<section> <amount> <name>", e.g. "pantry 2 lbs chicken".
func (b *Bot) cmdStock(ctx context.Context, userID, args string, sign float64) (string, error) {
	section, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	s, err := pantry.ParseSection(section)
	if err != nil {
		return "", err
	}

	item, err := parseStock(rest)
	if err != nil {
		return "", err
	}

	if sign > 0 {
		p, err := b.app.Stock(ctx, userID, s, item)
		if err != nil {
			return "", err
		}
		return "📦 Stocked.\n\n" + formatPantry(p), nil
	}
	p, err := b.app.AdjustStock(ctx, userID, s, item.Name, -item.Quantity)
	if err != nil {
		return "", err
	}
	return "📦 Updated.\n\n" + formatPantry(p), nil
}

// parseStock reads "2 lbs chicken" as ounces, "3 eggs" as a count and a
// bare name as one of it.
func parseStock(s string) (pantry.Item, error) {
	s = strings.TrimSpace(s)
	if parsed, ok := ingredient.Parse(s); ok && parsed.Name != "" {
		if parsed.Unquantified() {
			return pantry.Item{Name: parsed.Name, Quantity: 1}, nil
		}
		return pantry.Item{Name: parsed.Name, Quantity: parsed.Quantity, Unit: parsed.Unit}, nil
	}

	count, name, _ := strings.Cut(s, " ")
	q, err := strconv.ParseFloat(count, 64)
	if err != nil || q <= 0 || strings.TrimSpace(name) == "" {
		return pantry.Item{}, fmt.Errorf("could not read an amount from %q", s)
	}
	return pantry.Item{Name: strings.TrimSpace(name), Quantity: q}, nil
}

func (b *Bot) cmdDrop(ctx context.Context, userID, args string) (string, error) {
	section, name, _ := strings.Cut(strings.TrimSpace(args), " ")
	s, err := pantry.ParseSection(section)
	if err != nil {
		return "", err
	}
	p, err := b.app.RemoveStock(ctx, userID, s, strings.TrimSpace(name))
	if err != nil {
		return "", err
	}
	return "🗑 Removed.\n\n" + formatPantry(p), nil
}

func (b *Bot) cmdClip(ctx context.Context, url string) string {
	res, err := b.app.ClipURL(ctx, url)
	if err != nil {
		if errors.Is(err, app.ErrFeatureDisabled) {
			return "🚫 Recipe clipping is not configured."
		}
		b.logger.Warn("error clipping recipe", zap.String("url", url), zap.Error(err))
		return "❌ Error clipping recipe: " + err.Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Recipe saved!\n\nTitle: %s\nID: %s\n", res.Recipe.Title, res.Recipe.ID)
	if res.Post != nil {
		postURL := res.Post.URL
		if postURL == "" {
			postURL = fmt.Sprintf("%s/%s", b.cfg.GhostURL, res.Post.ID)
		}
		fmt.Fprintf(&sb, "Published: %s\n", postURL)
	}
	return sb.String()
}

func (b *Bot) cmdMetrics(ctx context.Context) (string, error) {
	usage, err := b.app.Usage(ctx, 7)
	if err != nil {
		return "", err
	}
	health := metrics.GetSysHealth(b.cfg.DatabasePath)

	var sb strings.Builder
	sb.WriteString("📊 Usage & Health Report\n\n")

	sb.WriteString("🗓 Recent LLM Activity\n")
	if len(usage) == 0 {
		sb.WriteString("No data yet\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• %s: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 System Health\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Database: %s\n", metrics.FormatBytes(health.DatabaseBytes))
	return sb.String(), nil
}

func formatWeek(w *calendar.Week) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 Week of %s\n", w.Key)

	planned := 0
	for d := range w.Days {
		var day strings.Builder
		for _, c := range calendar.Categories {
			for i, m := range w.Days[d].Meals(c) {
				fmt.Fprintf(&day, "  %s %d. %s\n", c, i+1, m.Title)
				planned++
			}
		}
		if day.Len() > 0 {
			fmt.Fprintf(&sb, "\n%s\n%s", calendar.DayNames[d], day.String())
		}
	}
	if planned == 0 {
		sb.WriteString("\nNothing planned yet.\n")
	}
	if len(w.Grocery) > 0 {
		fmt.Fprintf(&sb, "\n🛒 %d items on the shopping list\n", len(w.Grocery))
	}
	if w.Prep != "" {
		sb.WriteString("🔪 Prep list ready (/prep to rewrite)\n")
	}
	return sb.String()
}

func formatShoppingList(res *shopping.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Added %d new meals.", res.MealsProcessed)
	if res.PantryUpdated {
		sb.WriteString(" Pantry stock was used first.")
	}
	sb.WriteString("\n\n")
	sb.WriteString(formatItems(res.Items))
	return sb.String()
}

func formatItems(items []string) string {
	if len(items) == 0 {
		return "🛒 The shopping list is empty. Use /shop after planning meals."
	}
	var sb strings.Builder
	sb.WriteString("🛒 Shopping List\n\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "• %s\n", item)
	}
	return sb.String()
}

func formatPantry(p *pantry.Pantry) string {
	var sb strings.Builder
	for _, s := range []pantry.Section{pantry.SectionPantry, pantry.SectionFreezer, pantry.SectionSpice} {
		fmt.Fprintf(&sb, "%s\n", strings.ToUpper(string(s)[:1])+string(s)[1:])
		items := p.Items(s)
		if len(items) == 0 {
			sb.WriteString("  (empty)\n")
		}
		for _, it := range items {
			fmt.Fprintf(&sb, "  • %s: %s%s\n", it.Name, shopping.FormatQuantity(it.Quantity), unitSuffix(it.Unit))
		}
	}
	return sb.String()
}

func unitSuffix(unit string) string {
	if unit == "" {
		return ""
	}
	return " " + unit
}
