package analytics

import (
	"testing"

	"zenledger/internal/core"
	"zenledger/internal/store"
	"zenledger/internal/zenmoney"
)

func fixtureStore(t *testing.T) *store.Store {
	t.Helper()
	merchant := "m-bakery"
	s := store.New()
	s.Apply(&zenmoney.Diff{
		Instrument: []core.Instrument{{ID: 2, ShortTitle: "RUB"}, {ID: 3, ShortTitle: "EUR"}},
		Account: []core.Account{
			{ID: "rub", Title: "Карта", Instrument: 2, Type: "ccard", InBalance: true},
			{ID: "eur", Title: "Вклад EUR", Instrument: 3, Type: "checking", Savings: true},
		},
		Tag: []core.Tag{
			{ID: "t-food", Title: "Продукты"},
			{ID: "t-salary", Title: "Зарплата"},
		},
		Merchant: []core.Merchant{{ID: merchant, Title: "Булочная"}},
		Transaction: []core.Transaction{
			{ID: "e1", Date: "2026-02-02", Outcome: 300, OutcomeAccount: "rub", Tag: []string{"t-food"}, Merchant: &merchant},
			{ID: "e2", Date: "2026-02-03", Outcome: 200, OutcomeAccount: "rub", Tag: []string{"t-food"}},
			{ID: "e3", Date: "2026-02-04", Outcome: 50, OutcomeAccount: "eur", Payee: "Cafe"},
			{ID: "i1", Date: "2026-02-05", Income: 1000, IncomeAccount: "rub", Tag: []string{"t-salary"}},
			{ID: "tr1", Date: "2026-02-06", Outcome: 400, OutcomeAccount: "rub", Income: 400, IncomeAccount: "eur"},
			{ID: "del", Date: "2026-02-07", Outcome: 999, OutcomeAccount: "rub", Deleted: true},
			{ID: "old", Date: "2026-01-07", Outcome: 999, OutcomeAccount: "rub"},
		},
	})
	return s
}

func TestAggregateExpensesByCategory(t *testing.T) {
	sum, err := Aggregate(fixtureStore(t), Query{From: "2026-02-01", To: "2026-02-28"})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Type != TypeExpense || sum.GroupBy != ByCategory {
		t.Fatalf("defaults not applied: %+v", sum)
	}
	if sum.TransactionCount != 3 {
		t.Fatalf("count = %d, want transfers, deleted and off-period excluded", sum.TransactionCount)
	}
	if sum.GrandTotal != 550 {
		t.Fatalf("grand total = %v", sum.GrandTotal)
	}
	if len(sum.Groups) != 2 {
		t.Fatalf("groups: %+v", sum.Groups)
	}
	if sum.Groups[0].Name != "Продукты" || sum.Groups[0].Total != 500 || sum.Groups[0].Currency != "RUB" {
		t.Fatalf("top group: %+v", sum.Groups[0])
	}
	if sum.Groups[1].Name != "Uncategorized" || sum.Groups[1].Currency != "EUR" {
		t.Fatalf("fallback group: %+v", sum.Groups[1])
	}
}

func TestAggregateIncomeByAccount(t *testing.T) {
	sum, err := Aggregate(fixtureStore(t), Query{
		From: "2026-02-01", To: "2026-02-28", GroupBy: ByAccount, Type: TypeIncome,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Groups) != 1 || sum.Groups[0].Name != "Карта" || sum.Groups[0].Total != 1000 {
		t.Fatalf("groups: %+v", sum.Groups)
	}
}

func TestAggregateByMerchantFallsBackToPayee(t *testing.T) {
	sum, err := Aggregate(fixtureStore(t), Query{
		From: "2026-02-01", To: "2026-02-28", GroupBy: ByMerchant,
	})
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]float64)
	for _, g := range sum.Groups {
		names[g.Name] = g.Total
	}
	if names["Булочная"] != 300 || names["Cafe"] != 50 || names["Uncategorized"] != 200 {
		t.Fatalf("merchant buckets: %+v", names)
	}
}

func TestAggregateAllCarriesBothSides(t *testing.T) {
	sum, err := Aggregate(fixtureStore(t), Query{
		From: "2026-02-01", To: "2026-02-28", Type: TypeAll,
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum.GrandTotal != 1550 {
		t.Fatalf("grand total = %v", sum.GrandTotal)
	}
	for _, g := range sum.Groups {
		if g.Name == "Зарплата" && g.Income != 1000 {
			t.Fatalf("income side lost: %+v", g)
		}
	}
}

func TestAggregateRejectsBadInput(t *testing.T) {
	s := store.New()
	if _, err := Aggregate(s, Query{From: "nope", To: "2026-02-28"}); err == nil {
		t.Fatal("malformed date must error")
	}
	if _, err := Aggregate(s, Query{From: "2026-02-01", To: "2026-02-28", GroupBy: "week"}); err == nil {
		t.Fatal("unknown grouping must error")
	}
	if _, err := Aggregate(s, Query{From: "2026-02-01", To: "2026-02-28", Type: "net"}); err == nil {
		t.Fatal("unknown type must error")
	}
}

func TestSearchMerchants(t *testing.T) {
	s := store.New()
	s.Apply(&zenmoney.Diff{Merchant: []core.Merchant{
		{ID: "1", Title: "Булочная"},
		{ID: "2", Title: "Пятёрочка"},
		{ID: "3", Title: "булочная у дома"},
	}})

	matches, total := SearchMerchants(s, "булоч", 10, 0)
	if total != 2 || len(matches) != 2 {
		t.Fatalf("search: total %d, matches %+v", total, matches)
	}

	matches, total = SearchMerchants(s, "", 2, 2)
	if total != 3 || len(matches) != 1 {
		t.Fatalf("paging: total %d, got %d", total, len(matches))
	}
}
