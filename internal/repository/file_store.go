package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dujiao-next/cartflow/internal/constants"
	"github.com/dujiao-next/cartflow/internal/models"

	"github.com/spf13/afero"
)

const journalFileName = "journal.json"

// errUnchanged 写回调未修改任何数据，跳过提交
var errUnchanged = errors.New("file store: unchanged")

// fileState 文件存储的内存表
type fileState struct {
	products  []models.Product
	cart      []models.CartItem
	orders    []models.Order
	sequences []models.Sequence
}

func (st *fileState) clone() *fileState {
	next := &fileState{
		products:  append([]models.Product(nil), st.products...),
		cart:      append([]models.CartItem(nil), st.cart...),
		orders:    make([]models.Order, len(st.orders)),
		sequences: append([]models.Sequence(nil), st.sequences...),
	}
	for i := range st.orders {
		next.orders[i] = st.orders[i].Clone()
	}
	return next
}

func (st *fileState) collection(name string) interface{} {
	switch name {
	case constants.CollectionProducts:
		return st.products
	case constants.CollectionCart:
		return st.cart
	case constants.CollectionOrders:
		return st.orders
	case constants.CollectionSequences:
		return st.sequences
	}
	return nil
}

// fileJournal 多集合提交的重做日志
type fileJournal struct {
	Collections map[string]json.RawMessage `json:"collections"`
}

// fileSession 读写入口：自动提交或事务内
type fileSession interface {
	read(fn func(st *fileState) error) error
	write(fn func(st *fileState) error, collections ...string) error
}

// FileStore JSON 文件存储，每个集合一个文件
type FileStore struct {
	fs      afero.Fs
	dir     string
	mu      sync.RWMutex
	state   *fileState
	pending map[string]bool // 日志已落盘但集合文件未写完
}

// NewFileStore 打开文件存储，存在日志时先重放
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &FileStore{fs: fs, dir: dir, pending: map[string]bool{}}
	if err := s.replayJournal(); err != nil {
		return nil, err
	}
	state, err := s.load()
	if err != nil {
		return nil, err
	}
	s.state = state
	return s, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) load() (*fileState, error) {
	st := &fileState{}
	targets := map[string]interface{}{
		constants.CollectionProducts:  &st.products,
		constants.CollectionCart:      &st.cart,
		constants.CollectionOrders:    &st.orders,
		constants.CollectionSequences: &st.sequences,
	}
	for name, target := range targets {
		exists, err := afero.Exists(s.fs, s.path(name))
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		raw, err := afero.ReadFile(s.fs, s.path(name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return st, nil
}

func (s *FileStore) replayJournal() error {
	journalPath := filepath.Join(s.dir, journalFileName)
	exists, err := afero.Exists(s.fs, journalPath)
	if err != nil || !exists {
		return err
	}
	raw, err := afero.ReadFile(s.fs, journalPath)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	var journal fileJournal
	if err := json.Unmarshal(raw, &journal); err != nil {
		// 日志写入未完成，提交未生效
		return s.fs.Remove(journalPath)
	}
	for name, data := range journal.Collections {
		if err := s.writeFile(s.path(name), data); err != nil {
			return err
		}
	}
	return s.fs.Remove(journalPath)
}

func (s *FileStore) writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func encodeCollection(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// commit 持久化变更集合，调用方持有写锁
func (s *FileStore) commit(next *fileState, dirty map[string]bool) error {
	for name := range s.pending {
		dirty[name] = true
	}
	if len(dirty) == 0 {
		s.state = next
		return nil
	}
	names := make([]string, 0, len(dirty))
	for name := range dirty {
		names = append(names, name)
	}
	sort.Strings(names)

	encoded := make(map[string]json.RawMessage, len(names))
	for _, name := range names {
		data, err := encodeCollection(next.collection(name))
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		encoded[name] = data
	}

	if len(names) == 1 {
		if err := s.writeFile(s.path(names[0]), encoded[names[0]]); err != nil {
			return err
		}
		s.state = next
		s.pending = map[string]bool{}
		return nil
	}

	journalPath := filepath.Join(s.dir, journalFileName)
	journal, err := json.Marshal(fileJournal{Collections: encoded})
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}
	if err := s.writeFile(journalPath, journal); err != nil {
		return err
	}
	// 日志落盘即视为提交成功，集合文件写入失败时保留日志，下次提交或启动时补齐
	s.state = next
	for _, name := range names {
		if err := s.writeFile(s.path(name), encoded[name]); err != nil {
			s.pending = dirty
			return nil
		}
	}
	s.pending = map[string]bool{}
	return s.fs.Remove(journalPath)
}

func (s *FileStore) read(fn func(st *fileState) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

func (s *FileStore) write(fn func(st *fileState) error, collections ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	if err := fn(next); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	dirty := make(map[string]bool, len(collections))
	for _, name := range collections {
		dirty[name] = true
	}
	return s.commit(next, dirty)
}

// Products 商品仓库
func (s *FileStore) Products() ProductRepository { return &fileProductRepository{session: s} }

// Cart 购物车仓库
func (s *FileStore) Cart() CartRepository { return &fileCartRepository{session: s} }

// Orders 订单仓库
func (s *FileStore) Orders() OrderRepository { return &fileOrderRepository{session: s} }

// Sequences 序列仓库
func (s *FileStore) Sequences() SequenceRepository { return &fileSequenceRepository{session: s} }

// Driver 驱动名称
func (s *FileStore) Driver() string { return constants.StoreDriverFile }

// Close 文件存储无需关闭
func (s *FileStore) Close(_ context.Context) error { return nil }

// Transaction 在内存副本上执行回调，成功后一次性提交
//
// 回调期间持有写锁，回调内只能通过 tx 访问存储。
func (s *FileStore) Transaction(ctx context.Context, fn TxFunc) error {
	if fn == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &fileTx{store: s, state: s.state.clone(), dirty: map[string]bool{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return s.commit(tx.state, tx.dirty)
}

// fileTx 事务视图
type fileTx struct {
	store *FileStore
	state *fileState
	dirty map[string]bool
}

func (t *fileTx) read(fn func(st *fileState) error) error {
	return fn(t.state)
}

func (t *fileTx) write(fn func(st *fileState) error, collections ...string) error {
	if err := fn(t.state); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	for _, name := range collections {
		t.dirty[name] = true
	}
	return nil
}

func (t *fileTx) Products() ProductRepository { return &fileProductRepository{session: t} }

func (t *fileTx) Cart() CartRepository { return &fileCartRepository{session: t} }

func (t *fileTx) Orders() OrderRepository { return &fileOrderRepository{session: t} }

func (t *fileTx) Sequences() SequenceRepository { return &fileSequenceRepository{session: t} }

func (t *fileTx) Driver() string { return constants.StoreDriverFile }

func (t *fileTx) Close(_ context.Context) error { return nil }

// Transaction 事务内嵌套调用直接复用当前事务
func (t *fileTx) Transaction(ctx context.Context, fn TxFunc) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, t)
}
