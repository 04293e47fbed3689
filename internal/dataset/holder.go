// 包 dataset：当前生效数据集的持有者与定时刷新
package dataset

import (
	"strconv"
	"sync/atomic"
	"time"

	"votemap-api/internal/harmonize"
)

// snapshot：索引与其版本作为一个整体切换，读方一次加载即得到一致的二者
type snapshot struct {
	ix      *harmonize.Index
	version uint64
}

// 文档注释：数据集持有者
// 背景：通过原子指针无锁切换数据集，重载期间读路径不阻塞；版本号用于派生缓存键。
// 约束：未设置时 Current 返回空索引，调用方得到空图层而非错误；需要缓存键的调用方必须使用 Load，
// 保证渲染所用索引与键中的版本来自同一次加载。
type Holder struct {
	cur atomic.Pointer[snapshot]
}

var empty = harmonize.NewIndex(nil)

func (h *Holder) load() (*harmonize.Index, uint64) {
	if s := h.cur.Load(); s != nil {
		return s.ix, s.version
	}
	return empty, 0
}

func (h *Holder) Current() *harmonize.Index {
	ix, _ := h.load()
	return ix
}

// Load：返回当前索引及其对应的标签
func (h *Holder) Load() (*harmonize.Index, string) {
	ix, v := h.load()
	return ix, tagOf(v)
}

// Set：替换数据集并递增版本；nil 被忽略
func (h *Holder) Set(ix *harmonize.Index) uint64 {
	if ix == nil {
		return h.Version()
	}
	for {
		old := h.cur.Load()
		next := &snapshot{ix: ix, version: 1}
		if old != nil {
			next.version = old.version + 1
		}
		if h.cur.CompareAndSwap(old, next) {
			return next.version
		}
	}
}

func (h *Holder) Version() uint64 {
	_, v := h.load()
	return v
}

// 进程启动标识；Redis 缓存在多次启动与多副本之间共享，版本号单独不足以区分数据集
var boot = strconv.FormatInt(time.Now().UnixNano(), 36)

func tagOf(version uint64) string { return boot + "-" + strconv.FormatUint(version, 10) }

// Tag：<启动标识>-<版本>，用于派生缓存键
func (h *Holder) Tag() string { return tagOf(h.Version()) }

func (h *Holder) Ready() bool { return h.cur.Load() != nil }
