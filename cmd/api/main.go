package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"labvault.app/internal/auth"
	"labvault.app/internal/extract"
	"labvault.app/internal/httpapi"
	"labvault.app/internal/insight"
	"labvault.app/internal/media"
	"labvault.app/internal/obs"
	"labvault.app/internal/reports"
	"labvault.app/internal/store/pg"
	"labvault.app/internal/stream"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Session secrets are fatal config: without them no token can be signed
	// or verified and the service must not come up.
	codec, err := auth.NewTokenCodec(
		os.Getenv("LABVAULT_ACCESS_SECRET"),
		os.Getenv("LABVAULT_REFRESH_SECRET"),
	)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	sessions, err := auth.NewSessions(codec)
	if err != nil {
		log.Fatalf("sessions: %v", err)
	}

	var (
		db           *sql.DB
		users        auth.UserStore
		reportsStore reports.Store
	)
	if dsn := os.Getenv("LABVAULT_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db = pgStore.DB()
		users = auth.NewPGStore(db)
		reportsStore = pgStore
	} else {
		log.Print("LABVAULT_PG_DSN not set, using in-memory stores")
		users = auth.NewInMemoryUsers()
		reportsStore = reports.NewInMemory()
	}

	mediaStore, mediaDir := buildMediaStore()
	extractor := buildExtractor()
	generator := buildGenerator()

	events := stream.New()
	reportSvc := reports.NewService(reportsStore, mediaStore, extractor, generator, events)

	api := httpapi.New(httpapi.Config{
		Version:       version,
		Sessions:      sessions,
		Users:         users,
		IdentityCache: auth.NewIdentityCache(0, 0),
		Reports:       reportSvc,
		Stream:        events,
		ReadyProbe:    httpapi.ReadyProbe{DB: db},
		SecureCookies: os.Getenv("LABVAULT_ENV") != "development",
		AllowedOrigin: envOr("LABVAULT_ALLOWED_ORIGIN", "http://localhost:3000"),
		RateBurst:     envInt("LABVAULT_RATE_BURST", 60),
		RatePerSec:    envInt("LABVAULT_RATE_PER_SEC", 30),
		MediaDir:      mediaDir,
	})

	srv := &http.Server{
		Addr:              envOr("LABVAULT_ADDR", ":8080"),
		Handler:           api.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting labvault-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

// buildMediaStore returns the store plus the local directory to serve when
// no external host is configured.
func buildMediaStore() (reports.MediaStore, string) {
	if base := os.Getenv("LABVAULT_MEDIA_URL"); base != "" {
		client, err := media.NewClient(base, os.Getenv("LABVAULT_MEDIA_KEY"))
		if err != nil {
			log.Fatalf("media client: %v", err)
		}
		return client, ""
	}
	dir := envOr("LABVAULT_MEDIA_DIR", "data/media")
	local, err := media.NewLocal(dir, "/media")
	if err != nil {
		log.Fatalf("local media store: %v", err)
	}
	return local, dir
}

func buildExtractor() reports.Extractor {
	endpoint := os.Getenv("LABVAULT_EXTRACTOR_URL")
	if endpoint == "" {
		log.Print("LABVAULT_EXTRACTOR_URL not set, uploads will fail processing")
		return extract.Disabled{}
	}
	client, err := extract.NewClient(endpoint, os.Getenv("LABVAULT_EXTRACTOR_KEY"))
	if err != nil {
		log.Fatalf("extractor: %v", err)
	}
	return client
}

func buildGenerator() reports.Generator {
	key := os.Getenv("LABVAULT_OPENAI_KEY")
	if key == "" {
		return insight.Rules{}
	}
	gen, err := insight.NewOpenAI(key, insight.WithModel(os.Getenv("LABVAULT_OPENAI_MODEL")))
	if err != nil {
		log.Fatalf("insight generator: %v", err)
	}
	return gen
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Fatalf("%s: invalid value %q", key, v)
	}
	return n
}
