// 包 store: 合并后记录的 PostgreSQL 持久化，作为文件数据源之外的可选数据源
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"votemap-api/internal/harmonize"
	"votemap-api/internal/logger"

	"github.com/paulmach/orb/geojson"
)

// 每批提交的记录数
const batchSize = 5000

// Store: 数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *sql.DB { return s.db }

const upsertSQL = `INSERT INTO _dong_records(join_key, year, raw_name, ratio_a, ratio_b, change_ratio_a, change_ratio_b, attrs, geometry)
    VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
    ON CONFLICT (join_key, year) DO UPDATE SET raw_name=EXCLUDED.raw_name, ratio_a=EXCLUDED.ratio_a, ratio_b=EXCLUDED.ratio_b,
        change_ratio_a=EXCLUDED.change_ratio_a, change_ratio_b=EXCLUDED.change_ratio_b, attrs=EXCLUDED.attrs, geometry=EXCLUDED.geometry, updated_at=now()`

// 文档注释：批量写入合并结果
// 背景：按 5000 条一批提交，降低单事务锁持有时间；同一 (join_key, year) 重复导入时覆盖。
// 异常：编码或数据库错误直接返回，已提交的批次保留。
func (s *Store) UpsertRecords(ctx context.Context, recs []harmonize.Record) error {
	for start := 0; start < len(recs); start += batchSize {
		end := start + batchSize
		if end > len(recs) {
			end = len(recs)
		}
		if err := s.upsertBatch(ctx, recs[start:end]); err != nil {
			return err
		}
		logger.L().Info("store_upsert_progress", "count", end, "total", len(recs))
	}
	return nil
}

func (s *Store) upsertBatch(ctx context.Context, recs []harmonize.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range recs {
		row, err := encodeRow(r)
		if err != nil {
			return fmt.Errorf("encode %s/%d: %w", r.JoinKey, r.Year, err)
		}
		if _, err := stmt.ExecContext(ctx, row.args()...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadRecords：读取全部记录；派生字段与变化字段由调用方重新合并得到
func (s *Store) LoadRecords(ctx context.Context) ([]harmonize.Record, []harmonize.Change, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT join_key, year, raw_name, ratio_a, ratio_b, change_ratio_a, change_ratio_b, attrs, geometry
        FROM _dong_records ORDER BY year, join_key`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var scanned []dbRow
	for rows.Next() {
		var row dbRow
		if err := rows.Scan(&row.JoinKey, &row.Year, &row.RawName, &row.RatioA, &row.RatioB, &row.ChangeA, &row.ChangeB, &row.Attrs, &row.Geometry); err != nil {
			return nil, nil, err
		}
		scanned = append(scanned, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	recs, changes := assembleRows(scanned)
	logger.L().Debug("store_load_done", "rows", len(scanned), "records", len(recs), "changes", len(changes))
	return recs, changes, nil
}

// 文档注释：表行还原为基础记录与变化条目
// 背景：变化量按行政动存储在每个年份行上；取该行政动第一条带有变化值的行作为变化条目，
// 全为 NULL 的行政动不产生条目（合并后变化字段保持缺失）。
// 约束：无法解码的行记日志后跳过；输出顺序与输入一致。
func assembleRows(rows []dbRow) ([]harmonize.Record, []harmonize.Change) {
	recs := make([]harmonize.Record, 0, len(rows))
	var changes []harmonize.Change
	seen := make(map[string]struct{})
	for _, row := range rows {
		r, err := row.decode()
		if err != nil {
			logger.L().Warn("store_row_decode_error", "key", row.JoinKey, "year", row.Year, "err", err)
			continue
		}
		recs = append(recs, r)
		if _, ok := seen[r.JoinKey]; ok {
			continue
		}
		if row.ChangeA.Valid || row.ChangeB.Valid {
			seen[r.JoinKey] = struct{}{}
			changes = append(changes, harmonize.Change{JoinKey: r.JoinKey, ChangeRatioA: fromNull(row.ChangeA), ChangeRatioB: fromNull(row.ChangeB)})
		}
	}
	return recs, changes
}

// RecordImport：记录一次导入的来源与合并统计
func (s *Store) RecordImport(ctx context.Context, baseSrc, changeSrc string, st harmonize.Stats) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO _dong_imports(base_src, change_src, base_count, matched, unmatched, duplicates)
        VALUES($1,$2,$3,$4,$5,$6)`, baseSrc, changeSrc, st.Base, st.Matched, st.Unmatched, st.DuplicateChanges)
	return err
}

func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM _dong_records").Scan(&n)
	return n, err
}

// dbRow：表行与记录之间的编码层
type dbRow struct {
	JoinKey  string
	Year     int
	RawName  string
	RatioA   sql.NullFloat64
	RatioB   sql.NullFloat64
	ChangeA  sql.NullFloat64
	ChangeB  sql.NullFloat64
	Attrs    []byte
	Geometry []byte
}

func (r dbRow) args() []any {
	var geom any
	if r.Geometry != nil {
		geom = r.Geometry
	}
	return []any{r.JoinKey, r.Year, r.RawName, r.RatioA, r.RatioB, r.ChangeA, r.ChangeB, r.Attrs, geom}
}

func encodeRow(r harmonize.Record) (dbRow, error) {
	attrs := r.Attrs
	if attrs == nil {
		attrs = map[string]any{}
	}
	ab, err := json.Marshal(attrs)
	if err != nil {
		return dbRow{}, err
	}
	row := dbRow{
		JoinKey: r.JoinKey,
		Year:    r.Year,
		RawName: r.RawName,
		RatioA:  toNull(r.RatioA),
		RatioB:  toNull(r.RatioB),
		ChangeA: toNull(r.ChangeRatioA),
		ChangeB: toNull(r.ChangeRatioB),
		Attrs:   ab,
	}
	if r.Geometry != nil {
		gb, err := geojson.NewGeometry(r.Geometry).MarshalJSON()
		if err != nil {
			return dbRow{}, err
		}
		row.Geometry = gb
	}
	return row, nil
}

func (r dbRow) decode() (harmonize.Record, error) {
	rec := harmonize.Record{
		JoinKey: r.JoinKey,
		Year:    r.Year,
		RawName: r.RawName,
		RatioA:  fromNull(r.RatioA),
		RatioB:  fromNull(r.RatioB),
	}
	if len(r.Attrs) > 0 {
		if err := json.Unmarshal(r.Attrs, &rec.Attrs); err != nil {
			return rec, err
		}
	}
	if len(r.Geometry) > 0 {
		g, err := geojson.UnmarshalGeometry(r.Geometry)
		if err != nil {
			return rec, err
		}
		rec.Geometry = g.Geometry()
	}
	return rec, nil
}

func toNull(m harmonize.Measure) sql.NullFloat64 {
	if !m.Present {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: m.Value, Valid: true}
}

func fromNull(n sql.NullFloat64) harmonize.Measure {
	if !n.Valid {
		return harmonize.None
	}
	return harmonize.Some(n.Float64)
}

// LoadIndex：从库中重建内存索引，签名与文件数据源一致，可直接作为刷新函数
func (s *Store) LoadIndex(ctx context.Context) (*harmonize.Index, harmonize.Stats, error) {
	base, changes, err := s.LoadRecords(ctx)
	if err != nil {
		return nil, harmonize.Stats{}, err
	}
	recs, st := harmonize.Reconcile(base, changes)
	logger.L().Info("dataset_reconciled", "source", "postgres", "base", st.Base, "matched", st.Matched, "unmatched", st.Unmatched)
	return harmonize.NewIndex(recs), st, nil
}
