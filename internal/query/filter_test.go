package query_test

import (
	"testing"
	"time"

	"go-distribusi-ops/internal/query"
	"go-distribusi-ops/pkg/datetz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSortable = map[string]string{
	"id":         "stores.id",
	"name":       "stores.name",
	"created_at": "stores.created_at",
}

func newTestRanger(t *testing.T) *datetz.Ranger {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	now := time.Date(2025, 3, 12, 15, 4, 0, 0, loc)
	r, err := datetz.NewRangerAt("Asia/Jakarta", func() time.Time { return now })
	require.NoError(t, err)
	return r
}

func params(m map[string]string) query.Getter {
	return func(key string) string { return m[key] }
}

func TestParse_Defaults(t *testing.T) {
	f, err := query.Parse(params(nil), newTestRanger(t), testSortable, "id")
	require.NoError(t, err)

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, query.DefaultPageSize, f.PageSize)
	assert.Equal(t, "id", f.SortField)
	assert.Equal(t, "stores.id", f.SortColumn)
	assert.Equal(t, query.SortDesc, f.SortDir)
	assert.Nil(t, f.Window)
	assert.Empty(t, f.Ignored)
}

func TestParse_StructuralErrors(t *testing.T) {
	ranger := newTestRanger(t)

	cases := []struct {
		name  string
		query map[string]string
		field string
	}{
		{"page zero", map[string]string{"page": "0"}, "page"},
		{"page not a number", map[string]string{"page": "abc"}, "page"},
		{"page size over max", map[string]string{"page_size": "500"}, "page_size"},
		{"unknown sort field", map[string]string{"sort_field": "price; DROP TABLE"}, "sort_field"},
		{"bad sort dir", map[string]string{"sort_dir": "sideways"}, "sort_dir"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := query.Parse(params(tc.query), ranger, testSortable, "id")
			var ve *query.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestParse_BadValuesDroppedNotFatal(t *testing.T) {
	f, err := query.Parse(params(map[string]string{
		"store_id":       "abc",
		"sales_rep_id":   "3",
		"date_from":      "12-03-2025", // wrong format
		"payment_method": "CHECK",
	}), newTestRanger(t), testSortable, "id")
	require.NoError(t, err)

	// The valid filter still applies.
	require.NotNil(t, f.SalesRepID)
	assert.Equal(t, uint(3), *f.SalesRepID)

	// The bad ones are dropped and echoed, not errors.
	assert.Nil(t, f.StoreID)
	assert.Nil(t, f.Window)
	assert.Empty(t, f.PaymentMethod)

	fields := make([]string, len(f.Ignored))
	for i, ig := range f.Ignored {
		fields[i] = ig.Field
	}
	assert.ElementsMatch(t, []string{"store_id", "date_from", "payment_method"}, fields)
}

func TestParse_DateRangeShortcutWinsOverExplicitDates(t *testing.T) {
	ranger := newTestRanger(t)
	f, err := query.Parse(params(map[string]string{
		"date_range": "today",
		"date_from":  "2025-01-01",
		"date_to":    "2025-01-31",
	}), ranger, testSortable, "id")
	require.NoError(t, err)

	require.NotNil(t, f.Window)
	today, _ := ranger.Shortcut("today")
	assert.Equal(t, today, *f.Window)
}

func TestParse_UnknownShortcutFallsBackToExplicitDates(t *testing.T) {
	f, err := query.Parse(params(map[string]string{
		"date_range": "last_quarter",
		"date_from":  "2025-01-01",
		"date_to":    "2025-01-31",
	}), newTestRanger(t), testSortable, "id")
	require.NoError(t, err)

	require.NotNil(t, f.Window)
	assert.Equal(t, "2025-01-01", f.Window.From.Format("2006-01-02"))
	require.Len(t, f.Ignored, 1)
	assert.Equal(t, "date_range", f.Ignored[0].Field)
}

func TestParse_DateToBeforeDateFrom(t *testing.T) {
	f, err := query.Parse(params(map[string]string{
		"date_from": "2025-03-10",
		"date_to":   "2025-03-01",
	}), newTestRanger(t), testSortable, "id")
	require.NoError(t, err)

	// date_to is dropped, the window stays open-ended on that side.
	require.NotNil(t, f.Window)
	assert.True(t, f.Window.To.IsZero())
	require.Len(t, f.Ignored, 1)
	assert.Equal(t, "date_to", f.Ignored[0].Field)
}

func TestParse_PaymentMethodNormalized(t *testing.T) {
	f, err := query.Parse(params(map[string]string{"payment_method": "cash"}), newTestRanger(t), testSortable, "id")
	require.NoError(t, err)
	assert.Equal(t, "CASH", f.PaymentMethod)
}

func TestFilter_Applied_EchoesInclusiveDates(t *testing.T) {
	f, err := query.Parse(params(map[string]string{
		"date_from": "2025-03-01",
		"date_to":   "2025-03-10",
		"store_id":  "7",
		"search":    "berkah",
	}), newTestRanger(t), testSortable, "id")
	require.NoError(t, err)

	applied := f.Applied()
	// The half-open window is echoed back as the inclusive dates requested.
	assert.Equal(t, "2025-03-01", applied["date_from"])
	assert.Equal(t, "2025-03-10", applied["date_to"])
	assert.Equal(t, uint(7), applied["store_id"])
	assert.Equal(t, "berkah", applied["search"])
}

func TestFilter_Offset(t *testing.T) {
	f := query.Filter{Page: 3, PageSize: 20}
	assert.Equal(t, 40, f.Offset())
}
