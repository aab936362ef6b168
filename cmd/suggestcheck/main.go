package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/park285/cheese-match/internal/rules"
	"github.com/park285/cheese-match/internal/suggest"
)

// suggestcheck asks the suggestion and analysis services about the start position once.
func main() {
	baseURL := os.Getenv("SUGGEST_BASE_URL")
	analysisURL := os.Getenv("ANALYSIS_BASE_URL")
	token := os.Getenv("SUGGEST_TOKEN")

	if baseURL == "" {
		log.Fatal("SUGGEST_BASE_URL is required")
	}
	if analysisURL == "" {
		analysisURL = baseURL
	}

	client := suggest.NewClient(baseURL,
		suggest.WithToken(token),
		suggest.WithTimeout(8*time.Second),
		suggest.WithMoveEndpoint(os.Getenv("SUGGEST_PATH"), os.Getenv("SUGGEST_FEN_PARAM"), os.Getenv("SUGGEST_HISTORY_PARAM")),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sug, ok := client.RequestMove(ctx, rules.StartFEN, "")
	if !ok {
		log.Printf("move endpoint: no usable reply")
	} else {
		log.Printf("move endpoint ok: move=%s reasoning=%q", sug.Move, sug.Reasoning)
		oracle := rules.NewOracle()
		if _, err := oracle.ApplyNotation(oracle.Initial(), sug.Move); err != nil {
			log.Printf("move rejected by rules: %v", err)
		}
	}

	analyzer := client
	if analysisURL != baseURL {
		analyzer = suggest.NewClient(analysisURL, suggest.WithToken(token), suggest.WithTimeout(8*time.Second))
	}
	actx, acancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer acancel()
	an, err := analyzer.Analyze(actx, rules.StartFEN)
	if err != nil {
		log.Printf("/analysis error: %v", err)
		return
	}
	log.Printf("/analysis ok: white=%q black=%q", an.White, an.Black)
}
