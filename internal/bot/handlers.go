package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/sheetbot/internal/eventlog"
	"github.com/example/sheetbot/internal/export"
	"github.com/example/sheetbot/internal/ledger"
	"github.com/example/sheetbot/pkg/models"
)

func displayName(from *tgbotapi.User) string {
	if from.UserName != "" {
		return from.UserName
	}
	if from.FirstName != "" {
		return from.FirstName
	}
	return strconv.FormatInt(from.ID, 10)
}

// rememberUser keeps the user directory current so leaderboards can
// print names instead of IDs.
func (b *Bot) rememberUser(ctx context.Context, from *tgbotapi.User) {
	user := &models.User{
		ID:          from.ID,
		Username:    from.UserName,
		FirstName:   from.FirstName,
		DisplayName: displayName(from),
	}
	if err := b.users.Upsert(ctx, user); err != nil {
		log.Printf("Failed to record user %d: %v", from.ID, err)
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	b.rememberUser(ctx, message.From)
	text := "Hi! I track problem sheet progress.\n\n" +
		"Log what you've done with /log, see where everyone stands with " +
		"/leaderboard, and watch the race with /race.\n\n" +
		"Use /help for the full command list."
	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	text := "Commands:\n" +
		"/log <sheet> <module> <progress> [| comment] - log progress, e.g.\n" +
		"    /log 3 Network Science 25 | finished question 2\n" +
		"/leaderboard [sheet] [module] - ranked totals\n" +
		"/myprogress - your progress per sheet\n" +
		"/export [sheets] [modules] - progress heatmap as HTML\n" +
		"    (prefix with xlsx for a spreadsheet, e.g. /export xlsx 1,2)\n" +
		"/alllogs - your full history as CSV\n" +
		"/race [sheets] [module] [YYYY-MM-DD] - progress race chart\n" +
		"/modules - list the course modules"
	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleModules(message *tgbotapi.Message) error {
	return b.reply(message.Chat.ID, "Modules:\n"+strings.Join(b.catalog.All(), "\n"))
}

// handleLog parses "/log <sheet> <module words> <progress> [| comment]"
// and applies the update. The module name sits between the sheet number
// and the progress value and may contain spaces.
func (b *Bot) handleLog(ctx context.Context, message *tgbotapi.Message) error {
	b.rememberUser(ctx, message.From)

	args := message.CommandArguments()
	var comment string
	if idx := strings.Index(args, "|"); idx >= 0 {
		comment = strings.TrimSpace(args[idx+1:])
		args = args[:idx]
	}

	fields := strings.Fields(args)
	if len(fields) < 3 {
		return b.reply(message.Chat.ID,
			"Usage: /log <sheet> <module> <progress> [| comment]")
	}

	sheetID := fields[0]
	module := strings.Join(fields[1:len(fields)-1], " ")
	progress, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return b.reply(message.Chat.ID,
			fmt.Sprintf("Progress must be a number, got %q.", fields[len(fields)-1]))
	}

	result, err := b.store.UpdateProgress(message.From.ID, sheetID, module, progress, comment)
	if errors.Is(err, ledger.ErrUnknownModule) {
		return b.reply(message.Chat.ID, b.unknownModuleText(module))
	}
	if errors.Is(err, ledger.ErrInvalidSheet) {
		return b.reply(message.Chat.ID,
			fmt.Sprintf("Sheet number must be a whole number, got %q.", sheetID))
	}
	if err != nil {
		// The update may have landed even if the history append
		// failed; tell the user and surface the error.
		log.Printf("Update for user %d partially failed: %v", message.From.ID, err)
	}

	text := fmt.Sprintf("Progress updated for %s: Sheet %s, %s, %+g%%!",
		displayName(message.From), sheetID, module, result.Applied)
	if result.Clamped() {
		text += fmt.Sprintf("\n(requested %+g%%, progress is capped between 0 and 100)", result.Requested)
	}
	if comment != "" {
		text += "\n\n" + comment
	}
	if rerr := b.reply(message.Chat.ID, text); rerr != nil {
		return rerr
	}

	b.pushUserLog(ctx, message.From)
	return err
}

// pushUserLog mirrors the user's history after a successful log, named
// by display name as the remote convention has always been.
func (b *Bot) pushUserLog(ctx context.Context, from *tgbotapi.User) {
	if b.mirror == nil {
		return
	}
	local := b.events.Path(from.ID)
	if _, err := os.Stat(local); err != nil {
		return
	}
	remote := "/" + displayName(from) + ".csv"
	if err := b.mirror.Push(ctx, local, remote); err != nil {
		log.Printf("Failed to mirror logs for user %d: %v", from.ID, err)
	}
}

func (b *Bot) unknownModuleText(module string) string {
	text := fmt.Sprintf("Invalid module: %s. Choose from:\n%s",
		module, strings.Join(b.catalog.All(), "\n"))
	if matches := b.catalog.Match(module); len(matches) > 0 && len(matches) < b.catalog.Len() {
		text = fmt.Sprintf("Invalid module: %s. Did you mean:\n%s",
			module, strings.Join(matches, "\n"))
	}
	return text
}

func (b *Bot) handleLeaderboard(ctx context.Context, message *tgbotapi.Message) error {
	fields := strings.Fields(message.CommandArguments())

	var filter ledger.LeaderboardFilter
	var prefix string
	if len(fields) > 0 {
		if _, err := strconv.Atoi(fields[0]); err == nil {
			var nerr error
			filter.Sheet, nerr = ledger.NormalizeSheet(fields[0])
			if nerr != nil {
				return b.reply(message.Chat.ID, "Sheet number must be a whole number.")
			}
			prefix += "Sheet " + filter.Sheet + " "
			fields = fields[1:]
		}
	}
	if len(fields) > 0 {
		filter.Module = strings.Join(fields, " ")
		if !b.catalog.IsValid(filter.Module) {
			return b.reply(message.Chat.ID, b.unknownModuleText(filter.Module))
		}
		prefix += filter.Module + " "
	}

	entries := b.store.Leaderboard(filter)
	if len(entries) == 0 {
		return b.reply(message.Chat.ID, "No progress logged yet, the leaderboard is empty.")
	}

	var sb strings.Builder
	sb.WriteString(prefix + "Leaderboard:\n")
	for rank, e := range entries {
		name := b.users.DisplayName(ctx, e.UserID)
		sb.WriteString(fmt.Sprintf("%d. %s - %g\n", rank+1, name, e.Points))
	}
	return b.replyCode(message.Chat.ID, sb.String())
}

func (b *Bot) handleMyProgress(message *tgbotapi.Message) error {
	progress := b.store.UserProgress(message.From.ID)
	if len(progress) == 0 {
		return b.reply(message.Chat.ID, "You have no progress logged yet. Start with /log.")
	}

	var sb strings.Builder
	sb.WriteString("Your Progress:\n")
	for _, sheetID := range sortedSheets(progress) {
		sb.WriteString(fmt.Sprintf("Sheet %s:\n", sheetID))
		for _, module := range b.catalog.All() {
			sb.WriteString(fmt.Sprintf("  %s: %g%%\n", module, progress[sheetID][module]))
		}
	}
	return b.replyCode(message.Chat.ID, sb.String())
}

// handleExport renders the user's heatmap. Arguments are an optional
// "xlsx" keyword, an optional comma-separated sheet list, and the rest
// of the line as a comma-separated module list. Missing lists default
// to the sheets the user has logged and the modules they have touched.
func (b *Bot) handleExport(message *tgbotapi.Message) error {
	args := strings.TrimSpace(message.CommandArguments())

	asWorkbook := false
	if strings.HasPrefix(args, "xlsx") {
		asWorkbook = true
		args = strings.TrimSpace(strings.TrimPrefix(args, "xlsx"))
	}

	var sheetArg, moduleArg string
	if args != "" {
		parts := strings.SplitN(args, " ", 2)
		sheetArg = parts[0]
		if len(parts) > 1 {
			moduleArg = strings.TrimSpace(parts[1])
		}
	}

	progress := b.store.UserProgress(message.From.ID)

	var sheetIDs []string
	if sheetArg == "" {
		sheetIDs = sortedSheets(progress)
		if len(sheetIDs) == 0 {
			return b.reply(message.Chat.ID,
				"You have no progress logged, so there's nothing to export.")
		}
	} else {
		for _, s := range strings.Split(sheetArg, ",") {
			sheetID, err := ledger.NormalizeSheet(strings.TrimSpace(s))
			if err != nil {
				return b.reply(message.Chat.ID,
					"Invalid sheet numbers format. Use a comma-separated list, e.g. 1,2,3.")
			}
			sheetIDs = append(sheetIDs, sheetID)
		}
	}

	var modules []string
	if moduleArg == "" {
		modules = touchedModules(progress, b.catalog.All())
		if len(modules) == 0 {
			return b.reply(message.Chat.ID,
				"You have no progress logged for any modules, so there's nothing to export.")
		}
	} else {
		for _, m := range strings.Split(moduleArg, ",") {
			m = strings.TrimSpace(m)
			if !b.catalog.IsValid(m) {
				return b.reply(message.Chat.ID, b.unknownModuleText(m))
			}
			modules = append(modules, m)
		}
	}

	grid := b.store.HeatmapTable(message.From.ID, sheetIDs, modules)

	var buf bytes.Buffer
	if asWorkbook {
		if err := export.HeatmapWorkbook(&buf, sheetIDs, modules, grid); err != nil {
			log.Printf("Error exporting progress for user %d: %v", message.From.ID, err)
			return b.reply(message.Chat.ID, "Failed to export progress. Please try again.")
		}
		return b.sendDocument(message.Chat.ID, "progress.xlsx", buf.Bytes())
	}
	title := fmt.Sprintf("Progress Heatmap for %s", displayName(message.From))
	if err := export.Heatmap(&buf, title, sheetIDs, modules, grid); err != nil {
		log.Printf("Error exporting progress for user %d: %v", message.From.ID, err)
		return b.reply(message.Chat.ID, "Failed to export progress. Please try again.")
	}
	return b.sendDocument(message.Chat.ID, "progress.html", buf.Bytes())
}

func (b *Bot) handleAllLogs(message *tgbotapi.Message) error {
	path := b.events.Path(message.From.ID)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return b.reply(message.Chat.ID, "You have no logs to export.")
	}
	if err != nil {
		return fmt.Errorf("failed to read logs for user %d: %w", message.From.ID, err)
	}
	return b.sendDocument(message.Chat.ID, fmt.Sprintf("%d_logs.csv", message.From.ID), data)
}

// handleRace plots everyone's cumulative progress over time. Arguments
// may appear in any order: a comma-separated sheet list, a start date
// as YYYY-MM-DD, and the remaining words form a module name.
func (b *Bot) handleRace(ctx context.Context, message *tgbotapi.Message) error {
	fields := strings.Fields(message.CommandArguments())

	var filter eventlog.SeriesFilter
	var moduleWords []string
	for _, f := range fields {
		if t, err := time.Parse("2006-01-02", f); err == nil {
			filter.Start = t
			continue
		}
		if sheets, ok := parseSheetList(f); ok {
			filter.Sheets = append(filter.Sheets, sheets...)
			continue
		}
		moduleWords = append(moduleWords, f)
	}
	if len(moduleWords) > 0 {
		filter.Module = strings.Join(moduleWords, " ")
		if !b.catalog.IsValid(filter.Module) {
			return b.reply(message.Chat.ID, b.unknownModuleText(filter.Module))
		}
	}

	all, err := b.events.AllSeries(filter)
	if err != nil {
		return fmt.Errorf("failed to rebuild race series: %w", err)
	}
	if len(all) == 0 {
		return b.reply(message.Chat.ID, "No progress matches those filters, nothing to race yet.")
	}

	ids := make([]int64, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	series := make([]export.UserSeries, 0, len(all))
	for _, id := range ids {
		series = append(series, export.UserSeries{
			Name:   b.users.DisplayName(ctx, id),
			Points: all[id],
		})
	}

	var buf bytes.Buffer
	if err := export.RaceChart(&buf, series); err != nil {
		log.Printf("Error rendering race chart: %v", err)
		return b.reply(message.Chat.ID, "Failed to render the race chart. Please try again.")
	}
	return b.sendPhoto(message.Chat.ID, "progress_race.png", buf.Bytes())
}

// parseSheetList accepts "1,2,3" style lists of sheet numbers.
func parseSheetList(arg string) ([]string, bool) {
	parts := strings.Split(arg, ",")
	sheets := make([]string, 0, len(parts))
	for _, p := range parts {
		sheetID, err := ledger.NormalizeSheet(strings.TrimSpace(p))
		if err != nil {
			return nil, false
		}
		sheets = append(sheets, sheetID)
	}
	return sheets, true
}

// sortedSheets orders sheet IDs numerically.
func sortedSheets(progress map[string]map[string]float64) []string {
	sheets := make([]string, 0, len(progress))
	for s := range progress {
		sheets = append(sheets, s)
	}
	sort.Slice(sheets, func(i, j int) bool {
		a, _ := strconv.Atoi(sheets[i])
		b, _ := strconv.Atoi(sheets[j])
		return a < b
	})
	return sheets
}

// touchedModules returns the modules with any progress, in catalog
// order.
func touchedModules(progress map[string]map[string]float64, catalogOrder []string) []string {
	var out []string
	for _, module := range catalogOrder {
		for _, cells := range progress {
			if cells[module] > 0 {
				out = append(out, module)
				break
			}
		}
	}
	return out
}
