package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/database"
)

// --- Test helpers ---

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustCreateItem(t *testing.T, svc *CatalogService, name, price string, active bool) uuid.UUID {
	t.Helper()
	res, err := svc.CreateItem(context.Background(), CreateItemRequest{
		Name:        name,
		Description: name + " description",
		Price:       dec(price),
		Active:      active,
	})
	if err != nil {
		t.Fatalf("create item %q: %v", name, err)
	}
	return res.ID
}

func mustCreateCategory(t *testing.T, svc *CatalogService, name, letter string, ids ...uuid.UUID) uuid.UUID {
	t.Helper()
	view, err := svc.CreateCategory(context.Background(), CreateCategoryRequest{
		Name:    name,
		ItemIDs: ids,
		Letter:  letter,
		Active:  true,
	})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return view.ID
}

// assertCatalogConsistent checks that every category's preview rows mirror
// the current item values and that item membership sets match the rows.
func assertCatalogConsistent(t *testing.T, db *memDB) {
	t.Helper()
	st := db.snapshot()

	memberships := map[uuid.UUID][]string{}
	positions := map[uuid.UUID][]int32{}
	for k, m := range st.members {
		if k.category != m.CategoryID || k.item != m.ItemID {
			t.Fatalf("member key %v does not match row %v/%v", k, m.CategoryID, m.ItemID)
		}
		cat, ok := st.cats[m.CategoryID]
		if !ok {
			t.Fatalf("preview row for deleted category %s", m.CategoryID)
		}
		it, ok := st.items[m.ItemID]
		if !ok {
			t.Fatalf("category %q still previews deleted item %s", cat.Name, m.ItemID)
		}
		if m.Name != it.Name || m.Description != it.Description || m.ThumbnailURL != it.ThumbnailURL ||
			m.IsActive != it.IsActive || !database.NumericToDecimal(m.Price).Equal(database.NumericToDecimal(it.Price)) {
			t.Fatalf("preview of %q in %q is stale: %+v vs %+v", it.Name, cat.Name, m, it)
		}
		memberships[it.ID] = append(memberships[it.ID], cat.Name)
		positions[cat.ID] = append(positions[cat.ID], m.Position)
	}

	for id, it := range st.items {
		got := append([]string(nil), it.Categories...)
		want := memberships[id]
		sort.Strings(got)
		sort.Strings(want)
		if len(got) != len(want) {
			t.Fatalf("item %q categories = %v, want %v", it.Name, got, want)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("item %q categories = %v, want %v", it.Name, got, want)
			}
		}
	}

	for catID, ps := range positions {
		sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
		for i, p := range ps {
			if p != int32(i) {
				t.Fatalf("category %s positions not dense: %v", catID, ps)
			}
		}
	}
}

func previewIDs(v CategoryView) map[uuid.UUID]bool {
	out := map[uuid.UUID]bool{}
	for _, it := range v.Items {
		out[it.ID] = true
	}
	return out
}

func findView(t *testing.T, views []CategoryView, id uuid.UUID) CategoryView {
	t.Helper()
	for _, v := range views {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("category %s not listed", id)
	return CategoryView{}
}

// --- Items ---

func TestCreateItem_Success(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()

	res, err := svc.CreateItem(context.Background(), CreateItemRequest{
		Name:  "  Margherita ",
		Price: dec("12.50"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if res.Active {
		t.Error("expected inactive item")
	}

	item, err := svc.GetItem(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Name != "Margherita" {
		t.Errorf("expected trimmed name, got %q", item.Name)
	}
	if item.ID != res.ID {
		t.Errorf("stored id %s does not match returned id %s", item.ID, res.ID)
	}
}

func TestCreateItem_DuplicateNameIncludesInactive(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()
	mustCreateItem(t, svc, "Tiramisu", "6.00", false)

	_, err := svc.CreateItem(context.Background(), CreateItemRequest{Name: "Tiramisu", Price: dec("7.00"), Active: true})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if len(db.snapshot().items) != 1 {
		t.Fatal("duplicate item was stored")
	}
}

func TestCreateItem_Validation(t *testing.T) {
	svc := newMemDB().catalogService()
	tests := []struct {
		name string
		req  CreateItemRequest
		want error
	}{
		{"empty name", CreateItemRequest{Name: "  ", Price: dec("1")}, ErrNameRequired},
		{"negative price", CreateItemRequest{Name: "Soup", Price: dec("-0.01")}, ErrInvalidPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUpdateItem_RewritesPreviews(t *testing.T) {
	for _, owners := range []int{0, 1, 3} {
		t.Run(map[int]string{0: "no categories", 1: "one category", 3: "three categories"}[owners], func(t *testing.T) {
			db := newMemDB()
			svc := db.catalogService()
			ctx := context.Background()

			id := mustCreateItem(t, svc, "Lasagna", "14.00", true)
			other := mustCreateItem(t, svc, "Gnocchi", "11.00", true)
			var cats []uuid.UUID
			for i := 0; i < owners; i++ {
				cats = append(cats, mustCreateCategory(t, svc, "Cat"+string(rune('A'+i)), "L", other, id))
			}

			updated, err := svc.UpdateItem(ctx, id, ItemPatch{
				Name:         ptr("Lasagna Bolognese"),
				Price:        ptr(dec("15.75")),
				ThumbnailURL: ptr("https://img.example/lasagna.jpg"),
				Active:       ptr(false),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if updated.Name != "Lasagna Bolognese" {
				t.Errorf("expected new name, got %q", updated.Name)
			}

			all, err := svc.ListAllCategories(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			for _, catID := range cats {
				v := findView(t, all, catID)
				var found bool
				for _, p := range v.Items {
					if p.ID != id {
						continue
					}
					found = true
					if p.Name != "Lasagna Bolognese" || !p.Price.Equal(dec("15.75")) ||
						p.ThumbnailURL != "https://img.example/lasagna.jpg" || p.Active {
						t.Errorf("stale preview in %q: %+v", v.Name, p)
					}
				}
				if !found {
					t.Errorf("item missing from %q", v.Name)
				}
			}
			assertCatalogConsistent(t, db)
		})
	}
}

func TestUpdateItem_NotFound(t *testing.T) {
	svc := newMemDB().catalogService()
	_, err := svc.UpdateItem(context.Background(), uuid.New(), ItemPatch{Price: ptr(dec("1"))})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateItem_RenameOntoExistingName(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()
	id := mustCreateItem(t, svc, "Espresso", "2.50", true)
	mustCreateItem(t, svc, "Latte", "3.50", true)

	_, err := svc.UpdateItem(context.Background(), id, ItemPatch{Name: ptr("Latte")})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if got := db.snapshot().items[id].Name; got != "Espresso" {
		t.Fatalf("item renamed despite failure: %q", got)
	}
}

func TestUpdateItem_KeepsOwnName(t *testing.T) {
	svc := newMemDB().catalogService()
	id := mustCreateItem(t, svc, "Espresso", "2.50", true)

	if _, err := svc.UpdateItem(context.Background(), id, ItemPatch{Name: ptr("Espresso"), Price: ptr(dec("2.75"))}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteItem_RemovesFromAllCategories(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()
	ctx := context.Background()

	a := mustCreateItem(t, svc, "Bruschetta", "7.00", true)
	b := mustCreateItem(t, svc, "Calamari", "9.00", true)
	c := mustCreateItem(t, svc, "Arancini", "8.00", true)
	starters := mustCreateCategory(t, svc, "Starters", "A", a, b, c)
	specials := mustCreateCategory(t, svc, "Specials", "B", b, a)

	if err := svc.DeleteItem(ctx, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := svc.ListAllCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, catID := range []uuid.UUID{starters, specials} {
		if previewIDs(findView(t, all, catID))[b] {
			t.Fatalf("deleted item still previewed in %s", catID)
		}
	}
	if _, err := svc.GetItem(ctx, b); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	assertCatalogConsistent(t, db)
}

func TestDeleteItem_NotFound(t *testing.T) {
	svc := newMemDB().catalogService()
	if err := svc.DeleteItem(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- Categories ---

func TestCreateCategory_BuildsPreviewsAndMemberships(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()

	a := mustCreateItem(t, svc, "Cola", "2.00", true)
	b := mustCreateItem(t, svc, "Water", "1.00", true)

	view, err := svc.CreateCategory(context.Background(), CreateCategoryRequest{
		Name:    "Drinks",
		ItemIDs: []uuid.UUID{a, b, a},
		Letter:  "D",
		Active:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.ID == uuid.Nil {
		t.Fatal("expected category id")
	}
	if len(view.Items) != 2 || view.Items[0].ID != a || view.Items[1].ID != b {
		t.Fatalf("unexpected members: %+v", view.Items)
	}

	st := db.snapshot()
	if cats := st.items[a].Categories; len(cats) != 1 || cats[0] != "Drinks" {
		t.Errorf("expected Cola in Drinks, got %v", cats)
	}
	assertCatalogConsistent(t, db)
}

func TestCreateCategory_UnknownItem(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()
	a := mustCreateItem(t, svc, "Cola", "2.00", true)

	_, err := svc.CreateCategory(context.Background(), CreateCategoryRequest{
		Name:    "Drinks",
		ItemIDs: []uuid.UUID{a, uuid.New()},
	})
	if !errors.Is(err, ErrInvalidItemList) {
		t.Fatalf("expected ErrInvalidItemList, got %v", err)
	}

	st := db.snapshot()
	if len(st.cats) != 0 || len(st.members) != 0 {
		t.Fatal("partial category committed")
	}
	if len(st.items[a].Categories) != 0 {
		t.Fatal("membership recorded for aborted category")
	}
}

func TestCreateCategory_DuplicateName(t *testing.T) {
	svc := newMemDB().catalogService()
	mustCreateCategory(t, svc, "Desserts", "D")

	_, err := svc.CreateCategory(context.Background(), CreateCategoryRequest{Name: "Desserts"})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestUpdateCategory_RenamePropagatesToItems(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()
	ctx := context.Background()

	a := mustCreateItem(t, svc, "Panna Cotta", "6.00", true)
	cat := mustCreateCategory(t, svc, "Sweets", "S", a)

	updated, err := svc.UpdateCategory(ctx, cat, CategoryPatch{Name: ptr("Desserts"), Active: ptr(false)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Desserts" || updated.IsActive {
		t.Fatalf("unexpected category: %+v", updated)
	}
	if cats := db.snapshot().items[a].Categories; len(cats) != 1 || cats[0] != "Desserts" {
		t.Fatalf("expected membership renamed, got %v", cats)
	}
	assertCatalogConsistent(t, db)
}

func TestUpdateCategory_Errors(t *testing.T) {
	svc := newMemDB().catalogService()
	ctx := context.Background()
	mustCreateCategory(t, svc, "Mains", "M")
	sides := mustCreateCategory(t, svc, "Sides", "S")

	if _, err := svc.UpdateCategory(ctx, uuid.New(), CategoryPatch{Letter: ptr("X")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.UpdateCategory(ctx, sides, CategoryPatch{Name: ptr("Mains")}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestAddItemsToCategory_Idempotent(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()
	ctx := context.Background()

	a := mustCreateItem(t, svc, "Fries", "4.00", true)
	b := mustCreateItem(t, svc, "Salad", "5.00", true)
	c := mustCreateItem(t, svc, "Rice", "3.00", true)
	cat := mustCreateCategory(t, svc, "Sides", "S", a)

	first, err := svc.AddItemsToCategory(ctx, cat, []uuid.UUID{a, b, c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Items) != 3 {
		t.Fatalf("expected 3 members, got %d", len(first.Items))
	}
	before := db.snapshot()

	_, err = svc.AddItemsToCategory(ctx, cat, []uuid.UUID{a, b, c})
	if !errors.Is(err, ErrEmptyAfterFilter) {
		t.Fatalf("expected ErrEmptyAfterFilter, got %v", err)
	}

	after := db.snapshot()
	if len(after.members) != len(before.members) {
		t.Fatalf("second add changed membership: %d -> %d", len(before.members), len(after.members))
	}
	for id, it := range after.items {
		if len(it.Categories) != len(before.items[id].Categories) {
			t.Fatalf("second add changed memberships of %q", it.Name)
		}
	}
	assertCatalogConsistent(t, db)
}

func TestAddItemsToCategory_Errors(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()
	ctx := context.Background()
	a := mustCreateItem(t, svc, "Fries", "4.00", true)
	cat := mustCreateCategory(t, svc, "Sides", "S")

	if _, err := svc.AddItemsToCategory(ctx, uuid.New(), []uuid.UUID{a}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.AddItemsToCategory(ctx, cat, []uuid.UUID{a, uuid.New()}); !errors.Is(err, ErrInvalidItemList) {
		t.Errorf("expected ErrInvalidItemList, got %v", err)
	}
	if len(db.snapshot().members) != 0 {
		t.Error("failed add left members behind")
	}
}

func TestRemoveItemsFromCategory(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()
	ctx := context.Background()

	a := mustCreateItem(t, svc, "Soup", "5.00", true)
	b := mustCreateItem(t, svc, "Bread", "2.00", true)
	c := mustCreateItem(t, svc, "Olives", "3.00", true)
	cat := mustCreateCategory(t, svc, "Starters", "A", a, b, c)

	view, err := svc.RemoveItemsFromCategory(ctx, cat, []uuid.UUID{b, uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := previewIDs(*view)
	if len(ids) != 2 || !ids[a] || !ids[c] {
		t.Fatalf("unexpected members after remove: %+v", view.Items)
	}
	if cats := db.snapshot().items[b].Categories; len(cats) != 0 {
		t.Errorf("removed item still lists categories %v", cats)
	}
	assertCatalogConsistent(t, db)

	if _, err := svc.RemoveItemsFromCategory(ctx, uuid.New(), []uuid.UUID{a}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInterleavedMembershipChanges(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()
	ctx := context.Background()

	var items []uuid.UUID
	for _, n := range []string{"A1", "A2", "A3", "A4", "A5"} {
		items = append(items, mustCreateItem(t, svc, n, "1.00", true))
	}
	x := mustCreateCategory(t, svc, "X", "X", items[0], items[1])
	y := mustCreateCategory(t, svc, "Y", "Y", items[1], items[2])

	steps := []func() error{
		func() error { _, err := svc.AddItemsToCategory(ctx, x, items[2:4]); return err },
		func() error { _, err := svc.RemoveItemsFromCategory(ctx, y, items[1:2]); return err },
		func() error { _, err := svc.AddItemsToCategory(ctx, y, items); return err },
		func() error { _, err := svc.RemoveItemsFromCategory(ctx, x, []uuid.UUID{items[0], items[3]}); return err },
		func() error { return svc.DeleteItem(ctx, items[2]) },
		func() error { _, err := svc.UpdateItem(ctx, items[4], ItemPatch{Price: ptr(dec("9.99"))}); return err },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		assertCatalogConsistent(t, db)
	}
}

func TestDeleteCategory(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()
	ctx := context.Background()

	a := mustCreateItem(t, svc, "Gelato", "4.00", true)
	sweets := mustCreateCategory(t, svc, "Sweets", "S", a)
	mustCreateCategory(t, svc, "Cold", "C", a)

	if err := svc.DeleteCategory(ctx, sweets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := db.snapshot()
	if _, ok := st.cats[sweets]; ok {
		t.Fatal("category not deleted")
	}
	if cats := st.items[a].Categories; len(cats) != 1 || cats[0] != "Cold" {
		t.Fatalf("expected only Cold membership, got %v", cats)
	}
	assertCatalogConsistent(t, db)

	if err := svc.DeleteCategory(ctx, sweets); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- Read paths ---

func TestListActiveCategories(t *testing.T) {
	db := newMemDB()
	svc := db.catalogService()
	ctx := context.Background()

	zucchini := mustCreateItem(t, svc, "zucchini fritters", "6.00", true)
	apple := mustCreateItem(t, svc, "Apple pie", "5.00", true)
	banana := mustCreateItem(t, svc, "banana split", "5.50", true)
	hidden := mustCreateItem(t, svc, "Secret", "1.00", false)

	mustCreateCategory(t, svc, "Menu", "B", zucchini, hidden, banana, apple)
	inactive := mustCreateCategory(t, svc, "Off", "A", apple)
	if _, err := svc.UpdateCategory(ctx, inactive, CategoryPatch{Active: ptr(false)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	mustCreateCategory(t, svc, "Only hidden", "C", hidden)

	menu, err := svc.ListActiveCategories(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(menu) != 1 {
		t.Fatalf("expected 1 visible category, got %d: %+v", len(menu), menu)
	}
	got := []string{}
	for _, it := range menu[0].Items {
		got = append(got, it.Name)
	}
	want := []string{"Apple pie", "banana split", "zucchini fritters"}
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items = %v, want %v", got, want)
		}
	}

	all, err := svc.ListAllCategories(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(all))
	}
	if all[0].Name != "Off" || all[1].Name != "Menu" {
		t.Errorf("expected categories ordered by letter, got %q, %q", all[0].Name, all[1].Name)
	}
	if len(findView(t, all, all[1].ID).Items) != 4 {
		t.Errorf("expected hidden item listed in full catalog")
	}
}

func TestListAllCategories_StoreFailure(t *testing.T) {
	db := newMemDB()
	svc := NewCatalogService(db, failingCatalogStore{db.store()}, func(d database.DBTX) CatalogStore { return db.bind(d) })

	_, err := svc.ListAllCategories(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

type failingCatalogStore struct{ *memStore }

func (failingCatalogStore) ListCategories(ctx context.Context) ([]database.Category, error) {
	return nil, errors.New("connection reset")
}
