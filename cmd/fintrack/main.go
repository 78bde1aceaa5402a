// Command fintrack is a small terminal client for the fintrack API.
//
//	fintrack --user alice --password secret summary --year 2024 --month 3
//	fintrack --user alice --password secret add --type expense --amount 12.50 --description Lunch
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"

	"fintrack/internal/client"
	"fintrack/internal/logger"
)

func main() {
	logger.Init(envOr("ENV", "test"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fintrack: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(args []string) error {
	_ = godotenv.Load()

	now := time.Now()
	global := flag.NewFlagSet("fintrack", flag.ContinueOnError)
	baseURL := global.String("url", envOr("FINTRACK_URL", "http://localhost:8080"), "API base URL")
	username := global.String("user", os.Getenv("FINTRACK_USER"), "username")
	password := global.String("password", os.Getenv("FINTRACK_PASSWORD"), "password")
	timeout := global.Duration("timeout", 15*time.Second, "request timeout")
	global.SetInterspersed(false)
	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: fintrack [flags] <summary|transactions|add> [command flags]")
	}
	if *username == "" || *password == "" {
		return fmt.Errorf("--user and --password (or FINTRACK_USER and FINTRACK_PASSWORD) are required")
	}

	c := client.New(*baseURL, &http.Client{Timeout: *timeout})
	ctx := context.Background()
	if _, err := c.Login(ctx, *username, *password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	cmd := flag.NewFlagSet(rest[0], flag.ContinueOnError)
	year := cmd.Int("year", now.Year(), "year")
	month := cmd.Int("month", int(now.Month()), "month (1-12)")

	switch rest[0] {
	case "summary":
		if err := cmd.Parse(rest[1:]); err != nil {
			return err
		}
		return summary(ctx, c, *year, *month)

	case "transactions":
		if err := cmd.Parse(rest[1:]); err != nil {
			return err
		}
		return listTransactions(ctx, c, *year, *month)

	case "add":
		txType := cmd.String("type", "expense", "income, expense or transfer")
		amount := cmd.String("amount", "", "amount, e.g. 12.50")
		date := cmd.String("date", now.Format("2006-01-02"), "date (YYYY-MM-DD)")
		description := cmd.String("description", "", "description")
		assetID := cmd.Uint("asset", 0, "asset id to update")
		categoryID := cmd.Uint("category", 0, "category id")
		if err := cmd.Parse(rest[1:]); err != nil {
			return err
		}
		value, err := decimal.NewFromString(*amount)
		if err != nil {
			return fmt.Errorf("invalid --amount %q", *amount)
		}
		input := client.TransactionInput{Amount: value, Type: *txType, Date: *date, Description: *description}
		if *assetID != 0 {
			id := *assetID
			input.AssetID = &id
		}
		if *categoryID != 0 {
			id := *categoryID
			input.CategoryID = &id
		}
		tx, err := c.CreateTransaction(ctx, input)
		if err != nil {
			return err
		}
		fmt.Printf("created transaction %d\n", tx.ID)
		return nil

	default:
		return fmt.Errorf("unknown command %q (use summary, transactions or add)", rest[0])
	}
}

func summary(ctx context.Context, c *client.Client, year, month int) error {
	stats, err := c.MonthlyStats(ctx, year, month)
	if err != nil {
		return err
	}
	total, err := c.TotalBalance(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "%04d-%02d\t\n", year, month)
	fmt.Fprintf(w, "income\t%s\t\n", stats.TotalIncome.StringFixed(2))
	fmt.Fprintf(w, "expense\t%s\t\n", stats.TotalExpense.StringFixed(2))
	fmt.Fprintf(w, "net\t%s\t\n", stats.Net.StringFixed(2))
	fmt.Fprintf(w, "transactions\t%d\t\n", stats.TransactionCount)
	fmt.Fprintf(w, "balance\t%s\t\n", total.CurrentBalance.StringFixed(2))
	fmt.Fprintf(w, "assets\t%s\t\n", total.AssetTotal.StringFixed(2))
	return w.Flush()
}

func listTransactions(ctx context.Context, c *client.Client, year, month int) error {
	transactions, err := c.Transactions(ctx, year, month)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tDESCRIPTION")
	for _, tx := range transactions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", tx.ID, tx.Date.Format("2006-01-02"), tx.Type, tx.Amount.StringFixed(2), tx.Description)
	}
	return w.Flush()
}
