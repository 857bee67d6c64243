package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ddgsearch/internal/app"
)

// debugsearch runs one query through the same adapter the MCP server uses and
// prints the markdown answer.
func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.DefaultContextLogger = &log.Logger

	count := flag.Int("count", 5, "Number of results to render")
	searchFile := flag.String("search.file", "", "Offline JSON results file (default $SEARCH_FILE)")
	flag.Parse()

	q := "What is love?"
	if flag.NArg() > 0 {
		q = strings.Join(flag.Args(), " ")
	}

	// Flags first, then environment, then defaults.
	cfg := app.Config{SearchFile: *searchFile}
	app.ApplyEnvToConfig(&cfg)
	app.FillDefaults(&cfg)
	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	out, err := a.Adapter().Search(ctx, q, *count)
	if err != nil {
		fmt.Println("err:", err)
		os.Exit(1)
	}
	fmt.Println(out)
}
