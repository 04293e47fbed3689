package migrate

import (
	"database/sql"

	"votemap-api/internal/logger"
)

// 背景：首次运行自动创建记录表与索引，保障导入与加载
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；比率列可空以保留“缺失”语义
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _dong_records (
            join_key TEXT NOT NULL,
            year INT NOT NULL,
            raw_name TEXT NOT NULL DEFAULT '',
            ratio_a DOUBLE PRECISION,
            ratio_b DOUBLE PRECISION,
            change_ratio_a DOUBLE PRECISION,
            change_ratio_b DOUBLE PRECISION,
            attrs JSONB NOT NULL DEFAULT '{}'::jsonb,
            geometry JSONB,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (join_key, year)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_dong_records_year ON _dong_records(year)`,
		`CREATE TABLE IF NOT EXISTS _dong_imports (
            id SERIAL PRIMARY KEY,
            base_src TEXT NOT NULL,
            change_src TEXT NOT NULL,
            base_count INT NOT NULL,
            matched INT NOT NULL,
            unmatched INT NOT NULL,
            duplicates INT NOT NULL,
            imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
