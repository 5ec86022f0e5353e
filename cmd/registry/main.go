package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trustmod/registry/config"
	"github.com/trustmod/registry/db/repositories"
	"github.com/trustmod/registry/initializers"
	"github.com/trustmod/registry/internal/fetch"
	"github.com/trustmod/registry/internal/handlers"
	"github.com/trustmod/registry/internal/history"
	"github.com/trustmod/registry/internal/ingest"
	"github.com/trustmod/registry/internal/logging"
	"github.com/trustmod/registry/internal/npmreg"
	"github.com/trustmod/registry/internal/rating"
	"github.com/trustmod/registry/internal/resolver"
	"github.com/trustmod/registry/internal/stats"
	"github.com/trustmod/registry/internal/storage"
)

func main() {
	if err := config.Load(os.Getenv("REGISTRY_CONFIG")); err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := logging.Init(config.Server.Mode); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logging.Sync()

	if config.Server.Mode == "prod" || config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := initializers.InitDatabase(); err != nil {
		logging.Log.Fatalw("database init failed", "error", err)
	}
	repositories.InitPackageRepository()
	repositories.InitRatingRepository()
	repositories.InitHistoryRepository()

	store, err := storage.New(config.Upstream.ArtifactDir)
	if err != nil {
		logging.Log.Fatalw("artifact store init failed", "error", err)
	}

	// Registry statistics with 5-minute update interval.
	stats.Init(config.Upstream.ArtifactDir, 5*time.Minute, repositories.PackageRepo)

	npm := npmreg.New(config.Upstream.NPMRegistry)
	gh := resolver.NewGitHubClient(config.Upstream.GitHubAPI, config.Upstream.GitHubToken)
	res := resolver.New(npm, gh)
	engine := rating.NewEngine(rating.Unmeasured(), config.Rating)
	ledger := history.NewLedger(repositories.HistoryRepo)
	fetcher := fetch.New()
	defer fetcher.Close()

	orch := ingest.New(
		repositories.PackageRepo,
		repositories.RatingRepo,
		ledger,
		res,
		engine,
		store,
		fetcher,
		config.Upstream.GitHubAPI,
	)

	router := handlers.NewRouter(handlers.NewPackageHandler(orch), config.Server.AuthSecret)

	addr := config.Server.Host + ":" + config.Server.Port
	logging.Log.Infow("registry started", "addr", addr)
	if err := router.Run(addr); err != nil {
		logging.Log.Fatalw("server exited", "error", err)
	}
}
