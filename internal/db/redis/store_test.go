package redis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/propsales/internal/db"
	"github.com/kailas-cloud/propsales/internal/domain/search/filter"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewStore_NoAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error")
	}
}

// --- json.go tests ---

func TestJSONSetMulti_NX(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("JSON.SET", "p:1", "$", `{"a":1}`, "NX"),
			mock.Match("JSON.SET", "p:2", "$", `{"a":2}`, "NX"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisNil()), // already present
		})

	s := NewStoreForTest(c)
	n, err := s.JSONSetMulti(context.Background(), []db.JSONSetItem{
		{Key: "p:1", Data: []byte(`{"a":1}`), OnlyIfAbsent: true},
		{Key: "p:2", Path: "$", Data: []byte(`{"a":2}`), OnlyIfAbsent: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("written = %d, want 1 (nil reply is a skipped NX write)", n)
	}
}

func TestJSONSetMulti_Overwrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), mock.Match("JSON.SET", "p:1", "$", `{}`)).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisString("OK"))})

	s := NewStoreForTest(c)
	n, err := s.JSONSetMulti(context.Background(), []db.JSONSetItem{
		{Key: "p:1", Data: []byte(`{}`)},
	})
	if err != nil || n != 1 {
		t.Fatalf("got %d, %v; want 1, nil", n, err)
	}
}

func TestJSONSetMulti_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.ErrorResult(context.DeadlineExceeded),
		})

	s := NewStoreForTest(c)
	n, err := s.JSONSetMulti(context.Background(), []db.JSONSetItem{
		{Key: "p:1", Data: []byte(`{}`)},
		{Key: "p:2", Data: []byte(`{}`)},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 1 {
		t.Errorf("written = %d, want 1 before the failing key", n)
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
	if !strings.Contains(err.Error(), "p:2") {
		t.Errorf("error should name the failing key: %v", err)
	}
}

func TestJSONSetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	if _, err := s.JSONSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- keys.go tests ---

func TestExistsMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("EXISTS", "p:1"),
			mock.Match("EXISTS", "p:2"),
			mock.Match("EXISTS", "p:3"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(1)),
			mock.Result(mock.RedisInt64(0)),
			mock.Result(mock.RedisInt64(1)),
		})

	s := NewStoreForTest(c)
	got, err := s.ExistsMulti(context.Background(), []string{"p:1", "p:2", "p:3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []bool{true, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("exists[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExistsMulti_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.ErrorResult(context.DeadlineExceeded)})

	s := NewStoreForTest(c)
	_, err := s.ExistsMulti(context.Background(), []string{"p:1"})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestExistsMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	got, err := s.ExistsMulti(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

// --- index.go tests ---

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.CREATE", "test:idx", "ON", "JSON", "PREFIX", "1", "test:",
			"SCHEMA", "$.sale_ts", "AS", "sale_ts", "NUMERIC", "SORTABLE",
			"$.county", "AS", "county", "TAG",
		)).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	idx := db.NewIndex("test:idx").
		OnJSON().
		Prefix("test:").
		Numeric("$.sale_ts").As("sale_ts").Sortable().
		Tag("$.county").As("county").
		MustBuild()
	if err := s.CreateIndex(context.Background(), idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	idx := db.NewIndex("idx").Tag("x").MustBuild()
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	idx := db.NewIndex("idx").Tag("x").MustBuild()
	err := s.CreateIndex(context.Background(), idx)
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "idx"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		name   string
		result rueidis.RedisResult
		want   bool
	}{
		{"present", mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("idx"))), true},
		{"absent", mock.Result(mock.RedisError("Unknown index name")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().
				Do(gomock.Any(), mock.Match("FT.INFO", "idx")).
				Return(tt.result)

			s := NewStoreForTest(c)
			got, err := s.IndexExists(context.Background(), "idx")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IndexExists = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildCreateArgs_Validation(t *testing.T) {
	if _, err := buildCreateArgs(&db.IndexDefinition{}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := buildCreateArgs(&db.IndexDefinition{Name: "idx"}); err == nil {
		t.Error("expected error for no fields")
	}
}

func TestBuildFieldArgs_AllTypes(t *testing.T) {
	tests := []struct {
		name  string
		field db.IndexField
		want  string
	}{
		{"numeric", db.IndexField{Name: "price", Type: db.IndexFieldNumeric}, "price NUMERIC"},
		{"text", db.IndexField{Name: "body", Type: db.IndexFieldText}, "body TEXT"},
		{"tag", db.IndexField{Name: "county", Type: db.IndexFieldTag}, "county TAG"},
		{
			"tag opts",
			db.IndexField{Name: "t", Type: db.IndexFieldTag, TagSeparator: "|", TagCaseSensitive: true},
			"t TAG SEPARATOR | CASESENSITIVE",
		},
		{
			"alias sortable",
			db.IndexField{Name: "$.sale_ts", Alias: "sale_ts", Type: db.IndexFieldNumeric, Sortable: true},
			"$.sale_ts AS sale_ts NUMERIC SORTABLE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := buildFieldArgs(&tt.field)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := strings.Join(args, " "); got != tt.want {
				t.Errorf("args = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildFieldArgs_Errors(t *testing.T) {
	if _, err := buildFieldArgs(&db.IndexField{}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := buildFieldArgs(&db.IndexField{Name: "x", Type: db.IndexFieldType(99)}); err == nil {
		t.Error("expected error for unknown type")
	}
}

// --- search.go tests ---

func TestSearchList_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.SEARCH", "idx", "@county:{Dublin}",
			"SORTBY", "sale_ts", "DESC",
			"LIMIT", "20", "10",
			"DIALECT", "2",
		)).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(42),
			mock.RedisString("doc:1"),
			mock.RedisArray(mock.RedisString("$"), mock.RedisString(`{"n":1}`)),
			mock.RedisString("doc:2"),
			mock.RedisArray(mock.RedisString("$"), mock.RedisString(`{"n":2}`)),
		)))

	county, _ := filter.NewMatch("county", "Dublin")
	expr, _ := filter.NewExpression(county)

	s := NewStoreForTest(c)
	result, err := s.SearchList(context.Background(), &db.ListQuery{
		IndexName:  "idx",
		Filters:    expr,
		SortBy:     "sale_ts",
		Descending: true,
		Offset:     20,
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 42 {
		t.Fatalf("expected total 42, got %d", result.Total)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[1].Fields[db.JSONRootField] != `{"n":2}` {
		t.Errorf("unexpected entry: %+v", result.Entries[1])
	}
}

func TestSearchList_AscendingMatchAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.SEARCH", "idx", "*",
			"SORTBY", "sale_ts", "ASC",
			"LIMIT", "0", "20",
			"DIALECT", "2",
		)).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	result, err := s.SearchList(context.Background(), &db.ListQuery{
		IndexName: "idx",
		SortBy:    "sale_ts",
		Limit:     20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 0 || len(result.Entries) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestSearchList_Validation(t *testing.T) {
	s := NewStoreForTest(nil)
	tests := []struct {
		name string
		q    *db.ListQuery
	}{
		{"nil", nil},
		{"no index", &db.ListQuery{Limit: 10}},
		{"zero limit", &db.ListQuery{IndexName: "idx"}},
		{"negative offset", &db.ListQuery{IndexName: "idx", Offset: -1, Limit: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.SearchList(context.Background(), tt.q); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSearchList_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.SearchList(context.Background(), &db.ListQuery{IndexName: "idx", Limit: 10})
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

func TestSearchCount_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "idx", "*", "LIMIT", "0", "0", "DIALECT", "2")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(42))))

	s := NewStoreForTest(c)
	count, err := s.SearchCount(context.Background(), &db.ListQuery{IndexName: "idx", Offset: 40, Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Errorf("expected 42, got %d", count)
	}
}

func TestSearchCount_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray()))

	s := NewStoreForTest(c)
	count, err := s.SearchCount(context.Background(), &db.ListQuery{IndexName: "idx"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}
}

// --- Filter building tests ---

func TestBuildFilter_Empty(t *testing.T) {
	if got := buildFilter(filter.Expression{}); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := queryString(filter.Expression{}); got != "*" {
		t.Errorf("queryString = %q, want *", got)
	}
}

func TestBuildFilter_Conditions(t *testing.T) {
	ts := func(v float64) *float64 { return &v }

	county, _ := filter.NewMatch("county", "Dún Laoghaire")
	secondHand, _ := filter.NewMatch("is_second_hand", "true")
	address, _ := filter.NewPattern("address", []string{"Main", "St."})
	dateRange, _ := filter.NewRangeFilter(nil, ts(1704067200000), ts(1706745600000), nil)
	dates, _ := filter.NewRange("sale_ts", dateRange)
	priceRange, _ := filter.NewRangeFilter(nil, nil, nil, ts(200001))
	price, _ := filter.NewRange("price", priceRange)
	gtRange, _ := filter.NewRangeFilter(ts(10), nil, nil, nil)
	gt, _ := filter.NewRange("price", gtRange)

	tests := []struct {
		name string
		cond filter.Condition
		want string
	}{
		{"tag escaped", county, `@county:{Dún\ Laoghaire}`},
		{"bool tag", secondHand, `@is_second_hand:{true}`},
		{"wildcard", address, `@address:{w'*Main*St.*'}`},
		{"date range no exponent", dates, `@sale_ts:[1704067200000 (1706745600000]`},
		{"upper only", price, `@price:[-inf 200001]`},
		{"exclusive lower", gt, `@price:[(10 +inf]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := filter.NewExpression(tt.cond)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := buildFilter(expr); got != tt.want {
				t.Errorf("buildFilter = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildFilter_Combined(t *testing.T) {
	county, _ := filter.NewMatch("county", "Cork")
	address, _ := filter.NewPattern("address", []string{"main"})
	expr, _ := filter.NewExpression(address, county)

	want := `@address:{w'*main*'} @county:{Cork}`
	if got := buildFilter(expr); got != want {
		t.Errorf("buildFilter = %q, want %q", got, want)
	}
}

func TestBuildWildcardFilter_Escaping(t *testing.T) {
	got := buildWildcardFilter("address", []string{"O'Brien", "a*b"})
	want := `@address:{w'*O\'Brien*a\*b*'}`
	if got != want {
		t.Errorf("buildWildcardFilter = %q, want %q", got, want)
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}

func isDBOpError(err error, op string) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr) && dbErr.Op == op
}

// --- scan / JSON.GET tests ---

func TestScan_SinglePage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	// SCAN returns [cursor, [elements...]]
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN" && cmd[1] == "0" && cmd[3] == "propsales:property:*"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0), // cursor=0 means done
			mock.RedisArray(mock.RedisString("propsales:property:a"), mock.RedisString("propsales:property:b")),
		)))

	s := NewStoreForTest(c)
	keys, err := s.Scan(context.Background(), "propsales:property:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("expected 2 keys, got %d", len(keys))
	}
}

func TestScan_FollowsCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(42), // cursor=42 means more
					mock.RedisArray(mock.RedisString("k1")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0),
				mock.RedisArray(mock.RedisString("k2")),
			))
		}).
		Times(2)

	s := NewStoreForTest(c)
	keys, err := s.Scan(context.Background(), "*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "k1" || keys[1] != "k2" {
		t.Errorf("keys = %v", keys)
	}
}

func TestScan_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Scan(context.Background(), "*")
	if !isDBOpError(err, db.OpScan) {
		t.Errorf("expected db.Error{Op: SCAN}, got %v", err)
	}
}

func TestJSONGetMulti(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("JSON.GET", "p:1"),
			mock.Match("JSON.GET", "p:2"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString(`{"a":1}`)),
			mock.Result(mock.RedisNil()), // deleted since SCAN
		})

	s := NewStoreForTest(c)
	docs, err := s.JSONGetMulti(context.Background(), []string{"p:1", "p:2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 || string(docs[0]) != `{"a":1}` || docs[1] != nil {
		t.Errorf("docs = %q", docs)
	}
}

func TestJSONGetMulti_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.ErrorResult(context.DeadlineExceeded)})

	s := NewStoreForTest(c)
	_, err := s.JSONGetMulti(context.Background(), []string{"p:1"})
	if !isDBOpError(err, db.OpJSONGet) {
		t.Errorf("expected db.Error{Op: JSON.GET}, got %v", err)
	}
}

func TestJSONGetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	docs, err := s.JSONGetMulti(context.Background(), nil)
	if err != nil || docs != nil {
		t.Errorf("expected nil, nil; got %v, %v", docs, err)
	}
}
