package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"meal-planner/internal/app"
	"meal-planner/internal/calendar"
	"meal-planner/internal/config"
	"meal-planner/internal/logger"
	"meal-planner/internal/pantry"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})
	defer l.Sync()

	ctx := context.Background()

	application, err := app.New(ctx, cfg, l)
	if err != nil {
		l.Fatal("failed to initialize app", zap.Error(err))
	}
	defer application.Close()

	cmd, args := os.Args[1], os.Args[2:]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	user := fs.String("user", envOr("MEAL_PLANNER_USER", "cli"), "Household user id")
	weekDate := fs.String("week", "", "Any date (YYYY-MM-DD) in the week, defaults to this week")

	if err := run(ctx, application, cmd, fs, args, user, weekDate); err != nil {
		l.Error("command failed", zap.String("command", cmd), zap.Error(err))
		application.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, cmd string, fs *flag.FlagSet, args []string, user, weekDate *string) error {
	weekKey := func() (string, error) {
		if *weekDate == "" {
			return calendar.KeyFor(time.Now()), nil
		}
		return calendar.ParseKey(*weekDate)
	}

	switch cmd {
	case "week":
		fs.Parse(args)
		key, err := weekKey()
		if err != nil {
			return err
		}
		w, err := a.Week(ctx, *user, key)
		if err != nil {
			return err
		}
		return printJSON(w)

	case "plan":
		day := fs.String("day", "", "Day of week, e.g. monday")
		category := fs.String("category", "familyDinner", "kidsLunch, adultsLunch or familyDinner")
		title := fs.String("title", "", "Meal title")
		ingredients := fs.String("ingredients", "", "Comma separated ingredients")
		recipeID := fs.String("recipe", "", "Plan a recipe from the library instead")
		externalID := fs.String("external", "", "Plan an external recipe id instead")
		fs.Parse(args)

		key, err := weekKey()
		if err != nil {
			return err
		}
		d, err := calendar.ParseDay(*day)
		if err != nil {
			return err
		}
		c, err := calendar.ParseCategory(*category)
		if err != nil {
			return err
		}

		var m *calendar.Meal
		switch {
		case *recipeID != "":
			m, err = a.PlanRecipe(ctx, *user, key, d, c, *recipeID)
		case *externalID != "":
			m, err = a.PlanExternal(ctx, *user, key, d, c, *externalID)
		default:
			m = &calendar.Meal{Title: *title, Ingredients: calendar.IngredientsText(*ingredients)}
			err = a.PlanMeal(ctx, *user, key, d, c, m)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Planned %s for %s %s.\n", m.Title, calendar.DayNames[d], c)

	case "shop":
		fs.Parse(args)
		key, err := weekKey()
		if err != nil {
			return err
		}
		res, err := a.ShoppingList(ctx, *user, key)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "reset":
		fs.Parse(args)
		key, err := weekKey()
		if err != nil {
			return err
		}
		if err := a.ResetShoppingList(ctx, *user, key); err != nil {
			return err
		}
		fmt.Println("Shopping list cleared.")

	case "prep":
		fs.Parse(args)
		key, err := weekKey()
		if err != nil {
			return err
		}
		text, err := a.GeneratePrep(ctx, *user, key)
		if err != nil {
			return err
		}
		fmt.Println(text)

	case "pantry":
		fs.Parse(args)
		p, err := a.Pantry(ctx, *user)
		if err != nil {
			return err
		}
		return printJSON(p)

	case "stock":
		section := fs.String("section", "pantry", "pantry, freezer or spice")
		name := fs.String("name", "", "Item name")
		qty := fs.Float64("qty", 1, "Quantity to add, negative to use up")
		unit := fs.String("unit", "", "Unit of the quantity, e.g. oz")
		remove := fs.Bool("remove", false, "Remove the item instead")
		fs.Parse(args)

		s, err := pantry.ParseSection(*section)
		if err != nil {
			return err
		}
		var p *pantry.Pantry
		switch {
		case *remove:
			p, err = a.RemoveStock(ctx, *user, s, *name)
		case *qty < 0:
			p, err = a.AdjustStock(ctx, *user, s, *name, *qty)
		default:
			p, err = a.Stock(ctx, *user, s, pantry.Item{Name: *name, Quantity: *qty, Unit: *unit})
		}
		if err != nil {
			return err
		}
		return printJSON(p)

	case "ingest":
		fs.Parse(args)
		report, err := a.IngestRecipes(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Fetched %d posts: %d imported, %d unchanged, %d failed.\n",
			report.Fetched, report.Imported, report.Skipped, report.Failed)

	case "clip":
		fs.Parse(args)
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: meal-planner clip <url>")
		}
		res, err := a.ClipURL(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		return printJSON(res.Recipe)

	case "usage":
		days := fs.Int("days", 7, "Number of days to report")
		fs.Parse(args)
		usage, err := a.Usage(ctx, *days)
		if err != nil {
			return err
		}
		return printJSON(usage)

	case "usage-cleanup":
		days := fs.Int("days", 30, "Keep records for the last N days")
		fs.Parse(args)
		affected, err := a.PruneUsage(ctx, *days)
		if err != nil {
			return err
		}
		fmt.Printf("Successfully removed %d old usage records.\n", affected)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println("Usage: meal-planner <command> [flags]")
	fmt.Println("\nCommands:")
	fmt.Println("  week           Show the planned week")
	fmt.Println("  plan           Plan a meal (-day, -category, -title, -ingredients | -recipe | -external)")
	fmt.Println("  shop           Add newly planned meals to the shopping list")
	fmt.Println("  reset          Clear the shopping list so every meal is counted again")
	fmt.Println("  prep           Write a prep list for the week")
	fmt.Println("  pantry         Show pantry stock")
	fmt.Println("  stock          Add, use up or remove stock (-section, -name, -qty, -unit, -remove)")
	fmt.Println("  ingest         Import recipes from Ghost")
	fmt.Println("  clip <url>     Clip a recipe from a web page")
	fmt.Println("  usage          Show LLM token usage")
	fmt.Println("  usage-cleanup  Remove old usage records")
	fmt.Println("\nCommon flags: -user <id>, -week <YYYY-MM-DD>")
}
