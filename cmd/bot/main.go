package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Armin-kho/price-tracker-bot/internal/bot"
	"github.com/Armin-kho/price-tracker-bot/internal/config"
	"github.com/Armin-kho/price-tracker-bot/internal/extract"
)

func main() {
	cfgPath := flag.String("config", config.DefaultConfigPath(), "path to config.json")
	checkURL := flag.String("check", "", "extract one product page, print the result and exit")
	flag.Parse()

	if *checkURL != "" {
		os.Exit(check(*checkURL))
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := bot.New(cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer app.Close()

	// Graceful stop
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("[bot] shutting down...")
		app.Close()
		os.Exit(0)
	}()

	if err := app.Run(); err != nil {
		log.Fatalf("run error: %v", err)
	}
}

// check runs the extractor once without a bot token or database.
func check(url string) int {
	ex := extract.New(extract.Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := ex.Extract(ctx, url)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("name:  %s\n", res.Name)
	fmt.Printf("image: %s\n", res.ImageURL)
	if !res.HasPrice() {
		fmt.Println("price: (none found)")
		return 2
	}
	fmt.Printf("price: %s\n", res.Price)
	return 0
}
