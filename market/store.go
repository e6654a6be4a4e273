package market

import "sync"

// Store 维护全部 instrument 的盘口与行情窗口。
// 摄入路径写入，信号/风控循环并发读取；未知 instrument 首次出现时惰性创建。
type Store struct {
	mu       sync.RWMutex
	lookback int
	books    map[string]*Book
	history  map[string]*History
}

func NewStore(lookback int) *Store {
	if lookback <= 0 {
		lookback = 1
	}
	return &Store{
		lookback: lookback,
		books:    make(map[string]*Book),
		history:  make(map[string]*History),
	}
}

// Lookback 返回窗口容量。
func (s *Store) Lookback() int {
	return s.lookback
}

// Record 更新 tick 所属 instrument 的盘口并追加历史。
// 乱序 tick 被整笔丢弃并返回 false；除此之外对输入全收。
func (s *Store) Record(t Tick) bool {
	s.mu.Lock()
	book, ok := s.books[t.Symbol]
	if !ok {
		book = NewBook(t.Symbol)
		s.books[t.Symbol] = book
		s.history[t.Symbol] = NewHistory(s.lookback)
	}
	hist := s.history[t.Symbol]
	appended := hist.Append(t)
	s.mu.Unlock()

	if !appended {
		return false
	}
	book.Update(t)
	return true
}

// Symbols 返回当前全部 instrument。
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.books))
	for sym := range s.books {
		out = append(out, sym)
	}
	return out
}

// Snapshot 返回某 instrument 的盘口拷贝与行情窗口拷贝。
func (s *Store) Snapshot(symbol string) (BookSnapshot, []Tick, bool) {
	s.mu.RLock()
	book, ok := s.books[symbol]
	var window []Tick
	if ok {
		window = s.history[symbol].Snapshot()
	}
	s.mu.RUnlock()
	if !ok {
		return BookSnapshot{}, nil, false
	}
	return book.Snapshot(), window, true
}

// Book 返回某 instrument 的盘口拷贝。
func (s *Store) Book(symbol string) (BookSnapshot, bool) {
	s.mu.RLock()
	book, ok := s.books[symbol]
	s.mu.RUnlock()
	if !ok {
		return BookSnapshot{}, false
	}
	return book.Snapshot(), true
}

// Books 返回全部盘口拷贝。
func (s *Store) Books() map[string]BookSnapshot {
	s.mu.RLock()
	books := make([]*Book, 0, len(s.books))
	for _, b := range s.books {
		books = append(books, b)
	}
	s.mu.RUnlock()

	out := make(map[string]BookSnapshot, len(books))
	for _, b := range books {
		snap := b.Snapshot()
		out[snap.Symbol] = snap
	}
	return out
}

// Mid 返回某 instrument 的中间价；无数据返回 0。
func (s *Store) Mid(symbol string) float64 {
	s.mu.RLock()
	book, ok := s.books[symbol]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return book.Mid()
}

// HistoryLen 返回某 instrument 当前窗口长度。
func (s *Store) HistoryLen(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.history[symbol]
	if !ok {
		return 0
	}
	return h.Len()
}
