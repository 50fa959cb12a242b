package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
)

// --- In-memory transactional store ---
//
// memDB stands in for Postgres. A transaction holds mu from BeginTx until
// Commit or Rollback and works on a private copy of the state, so commits
// are all-or-nothing and transactions are fully serialized. Queries made
// outside a transaction take mu for the single call.

type memberKey struct {
	category uuid.UUID
	item     uuid.UUID
}

type memState struct {
	items   map[uuid.UUID]database.MenuItem
	cats    map[uuid.UUID]database.Category
	members map[memberKey]database.CategoryMember
	orders  map[uuid.UUID]database.Order
	daily   map[string]database.DailyReport
	monthly map[string]database.MonthlyReport
}

func newMemState() *memState {
	return &memState{
		items:   map[uuid.UUID]database.MenuItem{},
		cats:    map[uuid.UUID]database.Category{},
		members: map[memberKey]database.CategoryMember{},
		orders:  map[uuid.UUID]database.Order{},
		daily:   map[string]database.DailyReport{},
		monthly: map[string]database.MonthlyReport{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.items {
		v.Categories = append([]string(nil), v.Categories...)
		c.items[k] = v
	}
	for k, v := range s.cats {
		c.cats[k] = v
	}
	for k, v := range s.members {
		c.members[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]database.OrderLine(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.daily {
		c.daily[k] = v
	}
	for k, v := range s.monthly {
		c.monthly[k] = v
	}
	return c
}

type memDB struct {
	mu    sync.Mutex
	state *memState

	beginErr   error
	commitErrs []error // consumed one per commit
	begins     int
	commits    int
}

func newMemDB() *memDB {
	return &memDB{state: newMemState()}
}

func (db *memDB) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	db.mu.Lock()
	db.begins++
	return &memTx{db: db, work: db.state.clone()}, nil
}

// store returns a store running outside any transaction.
func (db *memDB) store() *memStore {
	return &memStore{db: db}
}

// bind is the NewXStore factory: it only accepts transactions begun by this db.
func (db *memDB) bind(d database.DBTX) *memStore {
	tx, ok := d.(*memTx)
	if !ok || tx.db != db {
		panic("memDB: store bound to a foreign DBTX")
	}
	return &memStore{db: db, tx: tx}
}

func (db *memDB) catalogService() *CatalogService {
	return NewCatalogService(db, db.store(), func(d database.DBTX) CatalogStore { return db.bind(d) })
}

func (db *memDB) orderService(cfg OrderConfig) *OrderService {
	return NewOrderService(db, db.store(), func(d database.DBTX) OrderStore { return db.bind(d) }, cfg)
}

func (db *memDB) reportService(loc *time.Location) *ReportService {
	return NewReportService(db, db.store(), func(d database.DBTX) ReportStore { return db.bind(d) }, loc)
}

// snapshot returns a copy of the committed state.
func (db *memDB) snapshot() *memState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.clone()
}

// memTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type memTx struct {
	db   *memDB
	work *memState
	done bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	defer t.db.mu.Unlock()

	if len(t.db.commitErrs) > 0 {
		err := t.db.commitErrs[0]
		t.db.commitErrs = t.db.commitErrs[1:]
		if err != nil {
			return err
		}
	}
	t.db.state = t.work
	t.db.commits++
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.mu.Unlock()
	return nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *memTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (t *memTx) Conn() *pgx.Conn { panic("not implemented") }

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraint}
}

func serializationFailure() error {
	return &pgconn.PgError{Code: pgSerializationFailure, Message: "could not serialize access"}
}

// memStore implements CatalogStore, OrderStore and ReportStore.
type memStore struct {
	db *memDB
	tx *memTx
}

func (s *memStore) with(fn func(st *memState) error) error {
	if s.tx != nil {
		if s.tx.done {
			return pgx.ErrTxClosed
		}
		return fn(s.tx.work)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.state)
}

// --- Catalog ---

func (s *memStore) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	var out database.MenuItem
	err := s.with(func(st *memState) error {
		it, ok := st.items[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = it
		return nil
	})
	return out, err
}

func (s *memStore) ListMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error) {
	var out []database.MenuItem
	err := s.with(func(st *memState) error {
		for _, id := range ids {
			if it, ok := st.items[id]; ok {
				out = append(out, it)
			}
		}
		return nil
	})
	return out, err
}

func (s *memStore) ListMenuItems(ctx context.Context) ([]database.MenuItem, error) {
	var out []database.MenuItem
	err := s.with(func(st *memState) error {
		for _, it := range st.items {
			out = append(out, it)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, err
}

func (s *memStore) MenuItemNameTaken(ctx context.Context, arg database.MenuItemNameTakenParams) (bool, error) {
	var taken bool
	err := s.with(func(st *memState) error {
		for _, it := range st.items {
			if it.Name == arg.Name && it.ID != arg.ExcludeID {
				taken = true
			}
		}
		return nil
	})
	return taken, err
}

func (s *memStore) CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	var out database.MenuItem
	err := s.with(func(st *memState) error {
		for _, it := range st.items {
			if it.Name == arg.Name {
				return uniqueViolation(constraintItemName)
			}
		}
		out = database.MenuItem{
			ID:           uuid.New(),
			Name:         arg.Name,
			Description:  arg.Description,
			Price:        arg.Price,
			ThumbnailURL: arg.ThumbnailURL,
			IsActive:     arg.IsActive,
			Categories:   []string{},
			CreatedAt:    arg.CreatedAt.Time,
		}
		st.items[out.ID] = out
		return nil
	})
	return out, err
}

func (s *memStore) UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error) {
	var out database.MenuItem
	err := s.with(func(st *memState) error {
		it, ok := st.items[arg.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		for _, other := range st.items {
			if other.ID != arg.ID && other.Name == arg.Name {
				return uniqueViolation(constraintItemName)
			}
		}
		it.Name = arg.Name
		it.Description = arg.Description
		it.Price = arg.Price
		it.ThumbnailURL = arg.ThumbnailURL
		it.IsActive = arg.IsActive
		st.items[it.ID] = it
		out = it
		return nil
	})
	return out, err
}

func (s *memStore) SetMenuItemCategories(ctx context.Context, arg database.SetMenuItemCategoriesParams) error {
	return s.with(func(st *memState) error {
		it, ok := st.items[arg.ID]
		if !ok {
			return nil
		}
		it.Categories = append([]string{}, arg.Categories...)
		st.items[it.ID] = it
		return nil
	})
}

func (s *memStore) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	return s.with(func(st *memState) error {
		for k := range st.members {
			if k.item == id {
				return &pgconn.PgError{Code: "23503", ConstraintName: "category_items_item_id_fkey"}
			}
		}
		delete(st.items, id)
		return nil
	})
}

func (s *memStore) GetCategory(ctx context.Context, id uuid.UUID) (database.Category, error) {
	var out database.Category
	err := s.with(func(st *memState) error {
		c, ok := st.cats[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = c
		return nil
	})
	return out, err
}

func (s *memStore) ListCategories(ctx context.Context) ([]database.Category, error) {
	var out []database.Category
	err := s.with(func(st *memState) error {
		for _, c := range st.cats {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Letter != out[j].Letter {
			return out[i].Letter < out[j].Letter
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}

func (s *memStore) CategoryNameTaken(ctx context.Context, arg database.CategoryNameTakenParams) (bool, error) {
	var taken bool
	err := s.with(func(st *memState) error {
		for _, c := range st.cats {
			if c.Name == arg.Name && c.ID != arg.ExcludeID {
				taken = true
			}
		}
		return nil
	})
	return taken, err
}

func (s *memStore) CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error) {
	var out database.Category
	err := s.with(func(st *memState) error {
		for _, c := range st.cats {
			if c.Name == arg.Name {
				return uniqueViolation(constraintCatName)
			}
		}
		out = database.Category{
			ID:        uuid.New(),
			Name:      arg.Name,
			Letter:    arg.Letter,
			IsActive:  arg.IsActive,
			CreatedAt: time.Now(),
		}
		st.cats[out.ID] = out
		return nil
	})
	return out, err
}

func (s *memStore) UpdateCategory(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error) {
	var out database.Category
	err := s.with(func(st *memState) error {
		c, ok := st.cats[arg.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		for _, other := range st.cats {
			if other.ID != arg.ID && other.Name == arg.Name {
				return uniqueViolation(constraintCatName)
			}
		}
		c.Name = arg.Name
		c.Letter = arg.Letter
		c.IsActive = arg.IsActive
		st.cats[c.ID] = c
		out = c
		return nil
	})
	return out, err
}

func (s *memStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.with(func(st *memState) error {
		delete(st.cats, id)
		for k := range st.members {
			if k.category == id {
				delete(st.members, k)
			}
		}
		return nil
	})
}

func sortMembers(ms []database.CategoryMember) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].CategoryID != ms[j].CategoryID {
			return ms[i].CategoryID.String() < ms[j].CategoryID.String()
		}
		return ms[i].Position < ms[j].Position
	})
}

func (s *memStore) ListCategoryMembers(ctx context.Context, categoryID uuid.UUID) ([]database.CategoryMember, error) {
	var out []database.CategoryMember
	err := s.with(func(st *memState) error {
		for k, m := range st.members {
			if k.category == categoryID {
				out = append(out, m)
			}
		}
		return nil
	})
	sortMembers(out)
	return out, err
}

func (s *memStore) ListAllCategoryMembers(ctx context.Context) ([]database.CategoryMember, error) {
	var out []database.CategoryMember
	err := s.with(func(st *memState) error {
		for _, m := range st.members {
			out = append(out, m)
		}
		return nil
	})
	sortMembers(out)
	return out, err
}

func (s *memStore) ListMembersByItem(ctx context.Context, itemID uuid.UUID) ([]database.CategoryMember, error) {
	var out []database.CategoryMember
	err := s.with(func(st *memState) error {
		for k, m := range st.members {
			if k.item == itemID {
				out = append(out, m)
			}
		}
		return nil
	})
	sortMembers(out)
	return out, err
}

func (s *memStore) InsertCategoryMember(ctx context.Context, arg database.CategoryMember) error {
	return s.with(func(st *memState) error {
		k := memberKey{arg.CategoryID, arg.ItemID}
		if _, ok := st.members[k]; ok {
			return uniqueViolation("category_items_pkey")
		}
		st.members[k] = arg
		return nil
	})
}

func (s *memStore) UpdateMemberPreview(ctx context.Context, arg database.UpdateMemberPreviewParams) error {
	return s.with(func(st *memState) error {
		k := memberKey{arg.CategoryID, arg.ItemID}
		m, ok := st.members[k]
		if !ok {
			return nil
		}
		m.Name = arg.Name
		m.Description = arg.Description
		m.Price = arg.Price
		m.ThumbnailURL = arg.ThumbnailURL
		m.IsActive = arg.IsActive
		st.members[k] = m
		return nil
	})
}

func (s *memStore) DeleteCategoryMember(ctx context.Context, arg database.DeleteCategoryMemberParams) error {
	return s.with(func(st *memState) error {
		delete(st.members, memberKey{arg.CategoryID, arg.ItemID})
		return nil
	})
}

func (s *memStore) SetMemberPosition(ctx context.Context, arg database.SetMemberPositionParams) error {
	return s.with(func(st *memState) error {
		k := memberKey{arg.CategoryID, arg.ItemID}
		if m, ok := st.members[k]; ok {
			m.Position = arg.Position
			st.members[k] = m
		}
		return nil
	})
}

// --- Orders ---

func openTableTaken(st *memState, table string, except uuid.UUID) bool {
	for _, o := range st.orders {
		if o.ID != except && o.Status == enum.OrderStatusOpen && o.OrderType == enum.OrderTypeDineIn &&
			o.TableNumber.Valid && o.TableNumber.String == table {
			return true
		}
	}
	return false
}

func (s *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	var out database.Order
	err := s.with(func(st *memState) error {
		if arg.OrderType == enum.OrderTypeDineIn && openTableTaken(st, arg.TableNumber.String, uuid.Nil) {
			return uniqueViolation(constraintOpenTable)
		}
		out = database.Order{
			ID:            uuid.New(),
			OrderDate:     arg.OrderDate,
			CreatedAt:     arg.CreatedAt,
			SenderID:      arg.SenderID,
			Status:        arg.Status,
			OrderType:     arg.OrderType,
			TableNumber:   arg.TableNumber,
			Items:         append([]database.OrderLine(nil), arg.Items...),
			Subtotal:      arg.Subtotal,
			Contact:       arg.Contact,
			PaymentMethod: arg.PaymentMethod,
			UpdatedAt:     arg.CreatedAt,
		}
		st.orders[out.ID] = out
		return nil
	})
	return out, err
}

func (s *memStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	var out database.Order
	err := s.with(func(st *memState) error {
		o, ok := st.orders[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = o
		return nil
	})
	return out, err
}

func (s *memStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return s.GetOrder(ctx, id)
}

func (s *memStore) CountOpenOrdersByTable(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.with(func(st *memState) error {
		for _, o := range st.orders {
			if o.Status == enum.OrderStatusOpen && o.OrderType == enum.OrderTypeDineIn && o.TableNumber.String == table {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *memStore) UpdateOrderItems(ctx context.Context, arg database.UpdateOrderItemsParams) (database.Order, error) {
	var out database.Order
	err := s.with(func(st *memState) error {
		o, ok := st.orders[arg.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		o.Items = append([]database.OrderLine(nil), arg.Items...)
		o.Subtotal = arg.Subtotal
		o.UpdatedAt = time.Now()
		st.orders[o.ID] = o
		out = o
		return nil
	})
	return out, err
}

func (s *memStore) CloseOrder(ctx context.Context, arg database.CloseOrderParams) (database.Order, error) {
	var out database.Order
	err := s.with(func(st *memState) error {
		o, ok := st.orders[arg.ID]
		if !ok || o.Status != enum.OrderStatusOpen {
			return pgx.ErrNoRows
		}
		o.Status = enum.OrderStatusClosed
		o.PaymentMethod = optionalText(arg.PaymentMethod)
		o.PaymentStatus = optionalText(arg.PaymentStatus)
		o.Subtotal = arg.Subtotal
		o.Discount = arg.Discount
		o.Taxes = arg.Taxes
		o.Total = arg.Total
		o.ClosedAt.Time, o.ClosedAt.Valid = arg.ClosedAt, true
		st.orders[o.ID] = o
		out = o
		return nil
	})
	return out, err
}

func (s *memStore) UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error) {
	var out database.Order
	err := s.with(func(st *memState) error {
		o, ok := st.orders[arg.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		o.Status = arg.Status
		o.PaymentStatus = arg.PaymentStatus
		o.TableNumber = arg.TableNumber
		o.Items = append([]database.OrderLine(nil), arg.Items...)
		o.Subtotal = arg.Subtotal
		o.Contact = arg.Contact
		o.PaymentMethod = arg.PaymentMethod
		if o.Status == enum.OrderStatusOpen && o.OrderType == enum.OrderTypeDineIn &&
			openTableTaken(st, o.TableNumber.String, o.ID) {
			return uniqueViolation(constraintOpenTable)
		}
		st.orders[o.ID] = o
		out = o
		return nil
	})
	return out, err
}

func (s *memStore) DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := s.with(func(st *memState) error {
		if _, ok := st.orders[id]; ok {
			delete(st.orders, id)
			n = 1
		}
		return nil
	})
	return n, err
}

func sortOrders(os []database.Order) {
	sort.Slice(os, func(i, j int) bool { return os[i].CreatedAt.Before(os[j].CreatedAt) })
}

func (s *memStore) ListOpenOrders(ctx context.Context) ([]database.Order, error) {
	var out []database.Order
	err := s.with(func(st *memState) error {
		for _, o := range st.orders {
			if o.Status == enum.OrderStatusOpen {
				out = append(out, o)
			}
		}
		return nil
	})
	sortOrders(out)
	return out, err
}

func inWindow(o database.Order, arg database.TimeRangeParams) bool {
	return o.OrderDate >= arg.StartDate && o.OrderDate <= arg.EndDate &&
		!o.CreatedAt.Before(arg.Start) && !o.CreatedAt.After(arg.End)
}

func (s *memStore) ListOrdersInRange(ctx context.Context, arg database.TimeRangeParams) ([]database.Order, error) {
	var out []database.Order
	err := s.with(func(st *memState) error {
		for _, o := range st.orders {
			if inWindow(o, arg) {
				out = append(out, o)
			}
		}
		return nil
	})
	sortOrders(out)
	return out, err
}

func (s *memStore) CountOpenOrdersInRange(ctx context.Context, arg database.TimeRangeParams) (int64, error) {
	var n int64
	err := s.with(func(st *memState) error {
		for _, o := range st.orders {
			if inWindow(o, arg) && o.Status == enum.OrderStatusOpen {
				n++
			}
		}
		return nil
	})
	return n, err
}

// --- Reports ---

func (s *memStore) UpsertDailyReport(ctx context.Context, arg database.DailyReport) (database.DailyReport, error) {
	arg.GeneratedAt = time.Now()
	err := s.with(func(st *memState) error {
		st.daily[arg.ReportDate] = arg
		return nil
	})
	return arg, err
}

func (s *memStore) ListDailyReports(ctx context.Context, arg database.DateRangeParams) ([]database.DailyReport, error) {
	var out []database.DailyReport
	err := s.with(func(st *memState) error {
		for date, r := range st.daily {
			if date >= arg.StartDate && date <= arg.EndDate {
				out = append(out, r)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate < out[j].ReportDate })
	return out, err
}

func (s *memStore) UpsertMonthlyReport(ctx context.Context, arg database.MonthlyReport) (database.MonthlyReport, error) {
	arg.GeneratedAt = time.Now()
	err := s.with(func(st *memState) error {
		st.monthly[arg.ReportMonth] = arg
		return nil
	})
	return arg, err
}
