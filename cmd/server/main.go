package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/audit"
	"github.com/kincholabs/daf-controller/internal/chat"
	"github.com/kincholabs/daf-controller/internal/config"
	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/conversation"
	"github.com/kincholabs/daf-controller/internal/finance"
	"github.com/kincholabs/daf-controller/internal/profile"
	"github.com/kincholabs/daf-controller/internal/questionnaire"
	"github.com/kincholabs/daf-controller/internal/server"
	"github.com/kincholabs/daf-controller/internal/store"
)

// #region main
func main() {
	configPath := flag.String("config", "", "path to YAML config")
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

	srv := server.NewServer(machine, coord, st, engine, fund, cfg.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}

// #endregion main
