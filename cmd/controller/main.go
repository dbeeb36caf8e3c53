package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/audit"
	"github.com/kincholabs/daf-controller/internal/chat"
	"github.com/kincholabs/daf-controller/internal/config"
	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/conversation"
	"github.com/kincholabs/daf-controller/internal/finance"
	"github.com/kincholabs/daf-controller/internal/profile"
	"github.com/kincholabs/daf-controller/internal/questionnaire"
	"github.com/kincholabs/daf-controller/internal/store"
)

// #region main
func main() {
	configPath := flag.String("config", "", "path to YAML config")
	userID := flag.String("user", "donor-local", "donor user ID for this session")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	def := questionnaire.Default()
	if cfg.QuestionnairePath != "" {
		def, err = questionnaire.LoadFile(cfg.QuestionnairePath)
		if err != nil {
			log.Fatalf("load questionnaire: %v", err)
		}
	}

	engine := profile.NewEngineWith(profile.WithBaselineCauses(cfg.Profile.BaselineCauses))

	coord := consensus.NewCoordinator(finance.NewHeuristicAnalyzer(), audit.NewStore(st, st.DB()))
	coord.SetMinApproveConfidence(cfg.Consensus.MinApproveConfidence)

	completer := chat.NewClient(cfg.Chat.BaseURL, cfg.Chat.Model,
		time.Duration(cfg.Chat.TimeoutSeconds)*time.Second)

	fund := func(ctx context.Context) (alloc.FundState, error) {
		return cfg.FundState(), nil
	}

	machine := conversation.NewMachine(st, def, engine, coord, fund, completer)

	conversationID := uuid.New().String()

	fmt.Println("Kincho Fund Controller ready.")
	fmt.Printf("  DB: %s | user: %s | conversation: %s\n", cfg.DBPath, *userID, conversationID)
	fmt.Println("Type a message, 'confirm <amount>' to simulate a settled deposit, or 'quit' to exit:")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		reply, err := dispatch(ctx, machine, conversationID, *userID, line)
		cancel()
		if err != nil {
			log.Printf("error: %v", err)
			continue
		}

		fmt.Printf("\n%s\n\n", reply)
	}
}

// #endregion main

// #region dispatch

// dispatch routes the REPL line: "confirm <amount>" stands in for the
// on-chain deposit confirmation event; everything else is conversation.
func dispatch(ctx context.Context, machine *conversation.Machine, conversationID, userID, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 2 && strings.EqualFold(fields[0], "confirm") {
		amount, err := strconv.ParseInt(strings.ReplaceAll(fields[1], ",", ""), 10, 64)
		if err != nil {
			return "", fmt.Errorf("confirm: bad amount %q", fields[1])
		}
		depositID := uuid.New().String()
		return machine.ConfirmDeposit(ctx, conversationID, userID, depositID, amount)
	}
	return machine.HandleMessage(ctx, conversationID, userID, line)
}

// #endregion dispatch
