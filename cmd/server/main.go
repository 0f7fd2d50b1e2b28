package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"eadshop_back_end/internal/cache"
	"eadshop_back_end/internal/catalog"
	"eadshop_back_end/internal/checkout"
	"eadshop_back_end/internal/config"
	"eadshop_back_end/internal/database"
	"eadshop_back_end/internal/handlers"
	"eadshop_back_end/internal/metrics"
	"eadshop_back_end/internal/middleware"
	"eadshop_back_end/internal/notify"
	"eadshop_back_end/internal/payment"
	"eadshop_back_end/internal/routes"
	"eadshop_back_end/internal/search"
	"eadshop_back_end/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.Load()
	cfg := config.FromEnv()
	for _, w := range cfg.Warnings() {
		log.Println("⚠️", w)
	}

	cat := loadCatalog(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	orders, closeStore := openStore(ctx, cfg)
	defer closeStore()

	deps := handlers.Deps{Config: cfg, Catalog: cat}

	// Recherche admin (optionnelle)
	if cfg.ElasticURL != "" {
		if client, err := database.ConnectElastic(cfg); err != nil {
			log.Println("⚠️ Elasticsearch indisponible, recherche désactivée :", err)
		} else {
			index := search.NewOrderIndex(client, search.DefaultIndex)
			orders = store.NewIndexed(orders, index)
			deps.Search = index
		}
	}

	// Verrou d'idempotence et rate limit : Redis si disponible
	var (
		locker  checkout.Locker = checkout.NewLocalLocker()
		counter middleware.RateCounter
	)
	if cfg.RedisHost != "" {
		if client, err := database.ConnectRedis(ctx, cfg); err != nil {
			log.Println("⚠️ Redis indisponible, verrou local uniquement :", err)
		} else {
			defer client.Close()
			locker = cache.NewRedisLocker(client, cfg.LockTTL)
			counter = cache.NewRateLimiter(client)
		}
	}

	// Notifications
	mailer, err := notify.NewMailer(cfg)
	if err != nil {
		log.Fatal("❌ Configuration SMTP invalide :", err)
	}
	channels := []notify.Channel{mailer}

	if brokers := splitBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		writer := notify.NewKafkaWriter(brokers, cfg.KafkaOrdersTopic)
		defer writer.Close()
		channels = append(channels, notify.NewEventPublisher(writer))
		log.Println("✅ Publication Kafka sur", cfg.KafkaOrdersTopic)
	}

	if cfg.MinIOEndpoint != "" {
		if client, err := database.ConnectMinIO(ctx, cfg); err != nil {
			log.Println("⚠️ MinIO indisponible, reçus non archivés :", err)
		} else {
			archiver := notify.NewReceiptArchiver(client, cfg.MinIOBucket, cfg.PublicBaseURL)
			channels = append(channels, archiver)
			deps.Receipts = archiver
		}
	}
	cancel()

	fanout := notify.NewMulti(channels...)
	log.Println("📧 Canaux de notification :", strings.Join(fanout.Channels(), ", "))

	m := metrics.New()
	svc := checkout.NewService(cfg, payment.NewStripeGateway(cfg.StripeSecretKey), orders, fanout, locker)
	svc.SetResendNotifier(mailer)
	svc.SetObserver(m)

	deps.Checkout = svc
	deps.Orders = orders
	h := handlers.New(deps)

	r := gin.Default()
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(middleware.Metrics(m))
	r.GET("/metrics", gin.WrapH(m.Handler()))
	routes.RegisterRoutes(r, h, routes.Middlewares{
		CheckoutLimit: middleware.CheckoutRateLimit(counter, cfg.CheckoutRateLimit),
		Admin:         middleware.AdminRequired(cfg.JWTSecret, cfg.AdminEnabled()),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		log.Println("🚀 Serveur ead-shop lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ Serveur arrêté :", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("🛑 Arrêt demandé, fin des requêtes en cours…")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("⚠️ Arrêt forcé :", err)
	}
	svc.Wait()
	log.Println("👋 Serveur arrêté")
}

func loadCatalog(cfg *config.Config) *catalog.Catalog {
	if cfg.CatalogPath == "" {
		cat := catalog.Default()
		log.Printf("✅ Catalogue par défaut : %d produits", cat.Len())
		return cat
	}
	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		log.Fatal("❌ Catalogue invalide :", err)
	}
	log.Printf("✅ Catalogue chargé depuis %s : %d produits", cfg.CatalogPath, cat.Len())
	return cat
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func()) {
	switch cfg.OrderStore {
	case "mongo":
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			log.Fatal("❌ ", err)
		}
		s := store.NewMongoStore(db)
		if err := s.EnsureIndexes(ctx); err != nil {
			log.Fatal("❌ Index MongoDB :", err)
		}
		return s, func() { _ = client.Disconnect(context.Background()) }
	case "scylla":
		session, err := database.ConnectScylla(cfg)
		if err != nil {
			log.Fatal("❌ ", err)
		}
		return store.NewScyllaStore(session), session.Close
	default:
		log.Println("⚠️ Commandes conservées en mémoire (perdues au redémarrage)")
		return store.NewMemoryStore(), func() {}
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", handlers.IdempotencyHeader},
		ExposeHeaders: []string{"Idempotent-Replayed", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}

func splitBrokers(csv string) []string {
	var brokers []string
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
