package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"sort"
	"strconv"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/pagesnap"
	"github.com/unkn0wn-root/pagesnap/store/memory"
)

type article struct {
	ID    string
	Title string
}

func scanArticle(rows *sql.Rows) (article, error) {
	var a article
	var id int64
	err := rows.Scan(&id, &a.Title)
	a.ID = strconv.FormatInt(id, 10)
	return a, err
}

func openDB(t *testing.T, n int) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// every connection of :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(`CREATE TABLE articles (id INTEGER PRIMARY KEY, title TEXT NOT NULL)`); err != nil {
		t.Fatalf("schema: %v", err)
	}
	for i := 1; i <= n; i++ {
		if _, err := db.Exec(`INSERT INTO articles (id, title) VALUES (?, ?)`, i, "article "+strconv.Itoa(i)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return db
}

func newSource(t *testing.T, db *sql.DB, maxBatch int) *Source[article] {
	t.Helper()
	s, err := New(Config[article]{
		DB:       db,
		Table:    "articles",
		Columns:  []string{"id", "title"},
		Scan:     scanArticle,
		MaxBatch: maxBatch,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestResolveReturnsOnlyExistingRows(t *testing.T) {
	db := openDB(t, 10)
	s := newSource(t, db, 3)

	got, err := s.Resolve(context.Background(), []string{"2", "42", "7", "9", "1", "100"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.ID
	}
	sort.Strings(ids)
	if want := []string{"1", "2", "7", "9"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("resolved ids = %v, want %v", ids, want)
	}
}

func TestResolveEmpty(t *testing.T) {
	s := newSource(t, openDB(t, 1), 0)
	got, err := s.Resolve(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("Resolve(nil) = %v, %v", got, err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	db := openDB(t, 0)
	cases := map[string]Config[article]{
		"nil db":        {Table: "articles", Columns: []string{"id"}, Scan: scanArticle},
		"no scan":       {DB: db, Table: "articles", Columns: []string{"id"}},
		"no columns":    {DB: db, Table: "articles", Scan: scanArticle},
		"bad table":     {DB: db, Table: "articles; DROP TABLE x", Columns: []string{"id"}, Scan: scanArticle},
		"bad column":    {DB: db, Table: "articles", Columns: []string{"id", "title--"}, Scan: scanArticle},
		"bad id column": {DB: db, Table: "articles", Columns: []string{"id"}, IDColumn: "1id", Scan: scanArticle},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := New(cfg); !errors.Is(err, pagesnap.ErrConfiguration) {
				t.Fatalf("err = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestDollarPlaceholder(t *testing.T) {
	if Dollar(3) != "$3" || Question(3) != "?" {
		t.Fatalf("placeholders: %q %q", Dollar(3), Question(3))
	}
}

// TestPagingOverDeletedRows drives the fetcher against a real table whose
// rows are deleted after the snapshot was taken.
func TestPagingOverDeletedRows(t *testing.T) {
	ctx := context.Background()
	db := openDB(t, 20)
	src := newSource(t, db, 0)

	p, err := pagesnap.New(pagesnap.Options{Store: memory.New(memory.Config{})})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(ctx) })

	ids := make([]string, 20)
	for i := range ids {
		ids[i] = strconv.Itoa(20 - i) // newest first
	}
	c, err := p.CreateCursor(ctx, ids)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.Exec(`DELETE FROM articles WHERE id IN (19, 17)`); err != nil {
		t.Fatal(err)
	}

	res, err := pagesnap.NewPageFetcher(p.Snapshot(c), src.Resolve, func(a article) string { return a.ID }).Fetch(ctx, 1, 5)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got := make([]string, len(res.Records))
	for i, a := range res.Records {
		got[i] = a.ID
	}
	// the backfill read resumes at the pre-repair offset 5, past 15 and 14
	if want := []string{"20", "18", "16", "13", "12"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("page 1 = %v, want %v", got, want)
	}
	if res.TotalCount != 18 {
		t.Fatalf("TotalCount = %d, want 18", res.TotalCount)
	}
}
