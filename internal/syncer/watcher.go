package syncer

import (
	"reflect"
	"slices"
	"sync"
	"time"
)

// Change 描述同一集合前后两次全量快照之间的差异
type Change struct {
	Added   []int64
	Removed []int64
	Updated []int64
}

func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Updated) == 0
}

// Watcher 把某个集合的全量快照流转换为离散的变更通知
//
// 底层存储在每次变动时推送整个集合而不是增量，并且可能重复投递未变化的数据，
// 因此这里负责：用第一次快照建立基线（不通知）、对重复内容做结构化比较后静默、
// 以及在静默期内吞掉过于密集的通知
//
// prev 状态只属于本实例，其他组件不得直接读写
type Watcher[T any] struct {
	mu         sync.Mutex
	key        func(T) int64
	quiet      time.Duration
	notify     func(change Change, snapshot []T)
	prev       map[int64]T
	primed     bool
	lastNotify time.Time
	now        func() time.Time
}

func NewWatcher[T any](key func(T) int64, quiet time.Duration, notify func(change Change, snapshot []T)) *Watcher[T] {
	return &Watcher[T]{
		key:    key,
		quiet:  quiet,
		notify: notify,
		now:    time.Now,
	}
}

// Observe 消费一次全量快照
func (w *Watcher[T]) Observe(snapshot []T) {
	w.mu.Lock()

	next := make(map[int64]T, len(snapshot))
	for _, item := range snapshot {
		next[w.key(item)] = item
	}

	// 订阅后的第一次快照只用于建立基线，不代表任何变更
	if !w.primed {
		w.prev = next
		w.primed = true
		w.mu.Unlock()
		return
	}

	change := diff(w.prev, next)
	w.prev = next

	// 重复投递的相同内容不产生通知
	if change.Empty() {
		w.mu.Unlock()
		return
	}

	// 静默期内的变更直接吞掉（不排队），基线照常推进，
	// 所以之后的通知不会重复报告这里看到的变化
	now := w.now()
	if !w.lastNotify.IsZero() && now.Sub(w.lastNotify) < w.quiet {
		w.mu.Unlock()
		return
	}
	w.lastNotify = now
	w.mu.Unlock()

	w.notify(change, snapshot)
}

// diff 计算成员和内容差异，内容比较使用结构化相等
func diff[T any](prev map[int64]T, next map[int64]T) Change {
	var change Change

	for id, item := range next {
		old, ok := prev[id]
		switch {
		case !ok:
			change.Added = append(change.Added, id)
		case !reflect.DeepEqual(old, item):
			change.Updated = append(change.Updated, id)
		}
	}
	for id := range prev {
		if _, ok := next[id]; !ok {
			change.Removed = append(change.Removed, id)
		}
	}

	slices.Sort(change.Added)
	slices.Sort(change.Removed)
	slices.Sort(change.Updated)
	return change
}
