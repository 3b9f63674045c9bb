package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/studyladder/internal/app"
	"github.com/yungbote/studyladder/internal/modules/progression"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var failed idList
	var userRaw, setRaw, mode string
	var rate float64
	var studied int
	flag.StringVar(&userRaw, "user", "", "user id")
	flag.StringVar(&setRaw, "set", "", "content set id")
	flag.StringVar(&mode, "mode", "evaluate", "evaluate | complete | struggle | finish")
	flag.Float64Var(&rate, "rate", 0, "session correct rate in [0,1]")
	flag.IntVar(&studied, "studied", 0, "items studied in the session")
	flag.Var(&failed, "failed", "failed item id (repeatable)")
	flag.Parse()

	userID, err := uuid.Parse(strings.TrimSpace(userRaw))
	if err != nil || userID == uuid.Nil {
		fmt.Println("a valid -user is required")
		os.Exit(2)
	}
	setID, err := uuid.Parse(strings.TrimSpace(setRaw))
	if err != nil || setID == uuid.Nil {
		fmt.Println("a valid -set is required")
		os.Exit(2)
	}
	failedIDs := make([]uuid.UUID, 0, len(failed))
	for _, raw := range failed {
		id, err := uuid.Parse(raw)
		if err != nil {
			fmt.Printf("invalid -failed %q: %v\n", raw, err)
			os.Exit(2)
		}
		failedIDs = append(failedIDs, id)
	}

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	engine := application.Services.Progression
	stats := progression.SessionStats{CorrectRate: rate, ItemsStudied: studied}

	var out any
	switch mode {
	case "evaluate":
		out = engine.Evaluate(ctx, userID, setID)
	case "complete":
		out = engine.CompleteSession(ctx, progression.CompleteSessionInput{UserID: userID, ContentSetID: setID, Stats: stats})
	case "struggle":
		out = engine.HandleStruggling(ctx, progression.HandleStrugglingInput{UserID: userID, ContentSetID: setID, Stats: stats, FailedItemIDs: failedIDs})
	case "finish":
		out = engine.FinishSession(ctx, progression.HandleStrugglingInput{UserID: userID, ContentSetID: setID, Stats: stats, FailedItemIDs: failedIDs})
	default:
		fmt.Printf("unknown -mode %q\n", mode)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Printf("encode result: %v\n", err)
		os.Exit(1)
	}
}
