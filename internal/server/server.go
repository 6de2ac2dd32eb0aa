package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/projectlearn/vocaquiz/internal/account"
	"github.com/projectlearn/vocaquiz/internal/api"
	"github.com/projectlearn/vocaquiz/internal/event"
	"github.com/projectlearn/vocaquiz/internal/history"
	"github.com/projectlearn/vocaquiz/internal/practice"
	"github.com/projectlearn/vocaquiz/internal/quiz"
	"github.com/projectlearn/vocaquiz/internal/storage"
	"github.com/projectlearn/vocaquiz/internal/telemetry"
	"github.com/projectlearn/vocaquiz/internal/vocab"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Redis struct {
		Storage struct {
			Addrs  []string
			Pass   string
			Prefix string
		}

		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		// History is optional; an empty Addr disables quiz-result history.
		History struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Practice struct {
		BaseURL string
		APIKey  string
		Model   string
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			storage redis.UniversalClient
			pubsub  redis.UniversalClient
		}

		postgres struct {
			history *pgxpool.Pool
		}
	}

	service struct {
		vocab   *vocab.Store
		account *account.Service
		quiz    *quiz.Service
		history *history.Service
	}

	practice *practice.Client

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initService(); err != nil {
		return nil, fmt.Errorf("server: init service: %w", err)
	}

	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(addrs []string, pass string) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.storage, err = connect(s.c.Redis.Storage.Addrs, s.c.Redis.Storage.Pass)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	s.infra.redis.pubsub, err = connect(s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() error {
	h := s.c.Postgres.History
	if h.Addr == "" {
		slog.Warn("server: postgres history disabled, quiz results will not be recorded")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", h.User, h.Pass, h.Addr, h.Name))
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		return err
	}

	s.infra.postgres.history = db
	return nil
}

func (s *Server) initService() error {
	var err error
	s.service.vocab, err = vocab.Load()
	if err != nil {
		return err
	}

	s.service.account = account.NewService(account.Config{
		EventBus: s.eb,
		Storage: storage.NewRedis(storage.Config{
			Redis:  s.infra.redis.storage,
			Prefix: s.c.Redis.Storage.Prefix,
		}),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.service.account.Load(ctx); err != nil {
		return fmt.Errorf("account: load persisted state: %w", err)
	}

	s.service.quiz = quiz.NewService(quiz.Config{
		EventBus: s.eb,
		Vocab:    s.service.vocab,
	})

	if s.infra.postgres.history != nil {
		s.service.history = history.NewService(history.Config{
			EventBus: s.eb,
			DB:       s.infra.postgres.history,
		})
	}

	s.practice = practice.New(practice.Config{
		BaseURL: s.c.Practice.BaseURL,
		APIKey:  s.c.Practice.APIKey,
		Model:   s.c.Practice.Model,
	})

	return nil
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	api.New(api.Config{
		Router:       e,
		EventBus:     s.eb,
		Account:      s.service.account,
		Quiz:         s.service.quiz,
		Vocab:        s.service.vocab,
		Practice:     s.practice,
		History:      s.service.history,
		Redis:        s.infra.redis.pubsub,
		PubsubPrefix: s.c.Redis.Pubsub.Prefix,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	if s.infra.postgres.history != nil {
		s.infra.postgres.history.Close()
	}
	for _, r := range []redis.UniversalClient{s.infra.redis.storage, s.infra.redis.pubsub} {
		if r != nil {
			_ = r.Close()
		}
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
