// 数据导入工具：读取基础 GeoJSON 与变化数据集，合并后批量写入 PostgreSQL，供 DATA_SOURCE=postgres 使用
package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"votemap-api/internal/harmonize"
	"votemap-api/internal/loader"
	"votemap-api/internal/logger"
	"votemap-api/internal/migrate"
	"votemap-api/internal/store"
	"votemap-api/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	baseSrc := utils.Getenv("BASE_SRC", filepath.Join("data", "everything.geojson"))
	changeSrc := utils.Getenv("CHANGE_SRC", filepath.Join("data", "change.json"))
	timeout := time.Duration(utils.GetenvInt("IMPORT_TIMEOUT_S", 600)) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ix, st, err := loader.Load(ctx, baseSrc, changeSrc, loader.DefaultSchema)
	if err != nil {
		l.Error("import_load_error", "err", err)
		os.Exit(1)
	}
	if ix.Len() == 0 {
		l.Error("import_empty", "base", baseSrc)
		os.Exit(1)
	}

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
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	s := store.AttachDB(db)
	if err := importIndex(ctx, s, ix, st, baseSrc, changeSrc); err != nil {
		l.Error("import_error", "err", err)
		os.Exit(1)
	}
	n, _ := s.CountRecords(ctx)
	l.Info("import_done", "records", ix.Len(), "years", ix.Years(), "table_total", n)
}

func importIndex(ctx context.Context, s *store.Store, ix *harmonize.Index, st harmonize.Stats, baseSrc, changeSrc string) error {
	if err := s.UpsertRecords(ctx, ix.Records()); err != nil {
		return err
	}
	return s.RecordImport(ctx, baseSrc, changeSrc, st)
}
