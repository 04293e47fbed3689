// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"votemap-api/internal/api"
	"votemap-api/internal/cache"
	"votemap-api/internal/dataset"
	"votemap-api/internal/harmonize"
	"votemap-api/internal/loader"
	"votemap-api/internal/logger"
	"votemap-api/internal/metrics"
	"votemap-api/internal/middleware"
	"votemap-api/internal/migrate"
	"votemap-api/internal/panel"
	"votemap-api/internal/series"
	"votemap-api/internal/store"
	"votemap-api/internal/utils"
	"votemap-api/internal/version"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok", "commit", version.Commit)
	apiBase := utils.Getenv("API_BASE", "/api")
	l.Debug("config_api_base", "base", apiBase)
	ui := utils.Getenv("UI_DIST", filepath.Join("ui", "dist"))
	l.Debug("config_ui_dir", "dir", ui)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 序列目录与阈值阶梯：配置错误在启动期暴露
	cfg := series.Defaults()
	if p := os.Getenv("SERIES_CONFIG"); p != "" {
		c, err := series.Load(p)
		if err != nil {
			l.Error("series_config_error", "path", p, "err", err)
			os.Exit(1)
		}
		cfg = c
		l.Info("series_config_ok", "path", p, "series", len(cfg.Catalog.All()))
	}

	// 文档注释：数据源选择
	// 背景：file 直接读取本地路径或 URL 并合并；postgres 读取 dataset-import 写入的记录。
	var load dataset.LoadFunc
	source := utils.Getenv("DATA_SOURCE", "file")
	switch source {
	case "file":
		baseSrc := utils.Getenv("BASE_SRC", filepath.Join("data", "everything.geojson"))
		changeSrc := utils.Getenv("CHANGE_SRC", filepath.Join("data", "change.json"))
		l.Debug("config_data_src", "base", baseSrc, "change", changeSrc)
		load = func(ctx context.Context) (*harmonize.Index, harmonize.Stats, error) {
			return loader.Load(ctx, baseSrc, changeSrc, loader.DefaultSchema)
		}
	case "postgres":
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
			os.Exit(1)
		}
		l.Info("db_ping_ok")
		if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		st := store.AttachDB(db)
		if n, err := st.CountRecords(ctx); err == nil {
			l.Info("db_records", "count", n)
		}
		load = st.LoadIndex
	default:
		l.Error("config_data_source_invalid", "source", source)
		os.Exit(1)
	}

	var holder dataset.Holder
	// 首次加载失败不退出：以空数据集启动，等待定时刷新或手动重载
	if err := holder.Reload(ctx, load); err != nil {
		l.Warn("dataset_initial_load_failed", "err", err)
	}
	holder.StartRefresh(ctx, time.Duration(utils.GetenvInt("DATA_REFRESH_INTERVAL_S", 0))*time.Second, load)

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		defer rc.Close()
	}
	ttl := time.Duration(utils.GetenvInt("LAYER_CACHE_TTL_S", 3600)) * time.Second
	layers := cache.NewLayerCache(rc, cache.NewLRU(utils.GetenvInt("LAYER_CACHE_SIZE", 64), ttl), ttl)

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(api.Deps{
		Holder:     &holder,
		Config:     cfg,
		Cache:      layers,
		Labels:     panel.DefaultLabels,
		Reload:     load,
		AdminToken: os.Getenv("ADMIN_TOKEN"),
	})
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	fs := http.FileServer(http.Dir(ui))
	mux.Handle("/", fs)

	// NOTE: 向前端暴露 API 基础路径与默认序列，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + apiBase + "'"))
		_, _ = w.Write([]byte("\n"))
		_, _ = w.Write([]byte("window.__DEFAULT_SERIES__='" + cfg.Catalog.Default().Value + "'"))
		_, _ = w.Write([]byte("\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'"))
	})

	geo := middleware.NewGeoTaggerFromEnv()
	defer geo.Close()

	addr := utils.Getenv("ADDR", ":8080")
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler, geo)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()
	l.Info("listening", "addr", addr, "source", source)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("listen_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown_ok")
}
