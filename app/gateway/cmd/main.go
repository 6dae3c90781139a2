package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/auth"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/handler"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/metrics"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/presence"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/router"
	gwsession "github.com/concordchat-legacy/concord-gateway/app/gateway/internal/session"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/store"
	"github.com/concordchat-legacy/concord-gateway/pkg/app"
	"github.com/concordchat-legacy/concord-gateway/pkg/database/postgres"
	"github.com/concordchat-legacy/concord-gateway/pkg/database/redis"
	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
	"github.com/concordchat-legacy/concord-gateway/pkg/util/conc"
	"github.com/concordchat-legacy/concord-gateway/pkg/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config Gateway 服务配置
type Config struct {
	Log logger.Config `mapstructure:"log"`

	// Addr HTTP 监听地址
	Addr string `mapstructure:"addr"`

	// WebSocket 服务端配置
	WebSocket websocket.ServerConfig `mapstructure:"websocket"`

	// Gateway 连接处理配置
	Gateway handler.Config `mapstructure:"gateway"`

	// Redis 配置
	Redis redis.Config `mapstructure:"redis"`

	// Postgres 配置
	Postgres postgres.Config `mapstructure:"postgres"`
}

func main() {
	var cfg Config

	// 1. 加载配置
	if err := app.LoadConfig(&cfg); err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		return
	}
	if cfg.Addr == "" {
		cfg.Addr = ":5000"
	}

	// 2. 初始化日志
	l, err := logger.New(&cfg.Log)
	if err != nil {
		panic(err)
	}

	// 3. 初始化存储
	db, err := postgres.New(&cfg.Postgres)
	if err != nil {
		l.Error("failed to connect postgres", "error", err)
		return
	}

	rdb, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		l.Error("failed to connect redis", "error", err)
		return
	}

	st := store.NewCachedStore(store.NewPostgresStore(db, l))

	// 4. 初始化网关组件
	registry := gwsession.NewRegistry()
	gwMetrics := metrics.NewGatewayMetrics(prometheus.DefaultRegisterer)
	pm := presence.NewManager(st, rdb, l)
	verifier := auth.NewVerifier(st, l)

	gw, err := handler.NewGateway(&cfg.Gateway, l, verifier, st, registry, pm, gwMetrics)
	if err != nil {
		l.Error("failed to create gateway handler", "error", err)
		return
	}

	// 5. 初始化 WebSocket 服务端
	wsServer, err := websocket.NewServer(&cfg.WebSocket,
		websocket.WithServerLogger(l),
		websocket.WithServerHandler(gw),
		websocket.WithMetricsRegisterer(prometheus.DefaultRegisterer),
	)
	if err != nil {
		l.Error("failed to create websocket server", "error", err)
		return
	}

	// 6. 初始化分发路由器
	rt := router.NewRouter(l, rdb, registry, gwMetrics)

	// 7. HTTP 路由
	mux := http.NewServeMux()
	mux.Handle("/", wsServer.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	// 8. 创建应用并注册服务
	application := app.NewBaseApp(
		app.WithName("gateway"),
		app.WithLogger(l),
	)

	application.AppendServer(rt)
	application.AppendServer(newHTTPServer(cfg.Addr, mux, l))

	application.AppendCloser(app.MapCloser(wsServer))
	application.AppendCloser(st)
	application.AppendCloser(rdb)
	application.AppendCloser(app.CloseFunc(func() error {
		db.Close()
		return nil
	}))

	// 9. 运行
	if err := application.Run(); err != nil {
		l.Error("gateway exited with error", "error", err)
	}
}

// httpServer 将 net/http 服务包装为应用可托管的服务
type httpServer struct {
	logger logger.Logger
	srv    *http.Server
}

func newHTTPServer(addr string, mux *http.ServeMux, l logger.Logger) *httpServer {
	return &httpServer{
		logger: l.Named("http"),
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start 启动监听，不阻塞
func (s *httpServer) Start() error {
	conc.Go(func() (struct{}, error) {
		s.logger.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server exited", "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	return nil
}

// Stop 立即停止
func (s *httpServer) Stop() error {
	return s.srv.Close()
}

// GracefulStop 优雅停止
func (s *httpServer) GracefulStop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
