// Package analytics aggregates booked transactions into spending and
// income breakdowns grouped by category, account or merchant.
package analytics

import (
	"fmt"
	"sort"
	"strings"

	"zenledger/internal/core"
	"zenledger/internal/store"
)

// Grouping selects the aggregation axis.
type Grouping string

const (
	ByCategory Grouping = "category"
	ByAccount  Grouping = "account"
	ByMerchant Grouping = "merchant"
)

// Type restricts which operations enter the aggregation.
type Type string

const (
	TypeExpense Type = "expense"
	TypeIncome  Type = "income"
	TypeAll     Type = "all"
)

// Query is one analytics request over a closed date interval.
type Query struct {
	From    core.Day
	To      core.Day
	GroupBy Grouping
	Type    Type
}

// Group is one aggregation bucket.
type Group struct {
	Name     string  `json:"name"`
	Total    float64 `json:"total"`
	Income   float64 `json:"income,omitempty"`
	Outcome  float64 `json:"outcome,omitempty"`
	Count    int     `json:"count"`
	Currency string  `json:"currency"`
}

// Summary is the finished breakdown, buckets sorted by total descending.
type Summary struct {
	From             core.Day `json:"from"`
	To               core.Day `json:"to"`
	Type             Type     `json:"type"`
	GroupBy          Grouping `json:"groupBy"`
	GrandTotal       float64  `json:"grandTotal"`
	TransactionCount int      `json:"transactionCount"`
	Groups           []Group  `json:"groups"`
}

const (
	uncategorized   = "Uncategorized"
	unknownAccount  = "Unknown Account"
	unknownMerchant = "Unknown Merchant"
	defaultCurrency = "RUB"
)

// Aggregate computes the breakdown from the current store snapshot.
// Deleted transactions and transfers never contribute.
func Aggregate(s *store.Store, q Query) (*Summary, error) {
	if err := q.From.Validate(); err != nil {
		return nil, fmt.Errorf("analytics: from: %w", err)
	}
	if err := q.To.Validate(); err != nil {
		return nil, fmt.Errorf("analytics: to: %w", err)
	}
	switch q.GroupBy {
	case ByCategory, ByAccount, ByMerchant:
	case "":
		q.GroupBy = ByCategory
	default:
		return nil, fmt.Errorf("analytics: unknown grouping %q", q.GroupBy)
	}
	switch q.Type {
	case TypeExpense, TypeIncome, TypeAll:
	case "":
		q.Type = TypeExpense
	default:
		return nil, fmt.Errorf("analytics: unknown type %q", q.Type)
	}

	sum := &Summary{From: q.From, To: q.To, Type: q.Type, GroupBy: q.GroupBy}
	buckets := make(map[string]*Group)

	for _, t := range s.Transactions() {
		if t.Deleted || !t.Date.In(q.From, q.To) {
			continue
		}
		kind := t.Kind()
		switch q.Type {
		case TypeExpense:
			if kind != core.OpExpense {
				continue
			}
		case TypeIncome:
			if kind != core.OpIncome {
				continue
			}
		case TypeAll:
			if kind != core.OpExpense && kind != core.OpIncome {
				continue
			}
		}

		name, currency := bucketOf(s, t, q)
		g, ok := buckets[name]
		if !ok {
			g = &Group{Name: name, Currency: currency}
			buckets[name] = g
		}
		g.Income += t.Income
		g.Outcome += t.Outcome
		g.Count++
		sum.TransactionCount++
	}

	for _, g := range buckets {
		switch q.Type {
		case TypeExpense:
			g.Total = g.Outcome
			g.Income, g.Outcome = 0, 0
		case TypeIncome:
			g.Total = g.Income
			g.Income, g.Outcome = 0, 0
		case TypeAll:
			g.Total = g.Income + g.Outcome
		}
		sum.GrandTotal += g.Total
		sum.Groups = append(sum.Groups, *g)
	}
	sort.Slice(sum.Groups, func(i, j int) bool {
		if sum.Groups[i].Total != sum.Groups[j].Total {
			return sum.Groups[i].Total > sum.Groups[j].Total
		}
		return sum.Groups[i].Name < sum.Groups[j].Name
	})
	return sum, nil
}

func bucketOf(s *store.Store, t core.Transaction, q Query) (name, currency string) {
	name = uncategorized
	currency = defaultCurrency

	moneyAccount := t.OutcomeAccount
	if t.Outcome == 0 {
		moneyAccount = t.IncomeAccount
	}

	switch q.GroupBy {
	case ByCategory:
		if len(t.Tag) > 0 {
			if tag, ok := s.Tag(t.Tag[0]); ok {
				name = tag.Title
			}
		}
		currency = currencyOf(s, moneyAccount)
	case ByAccount:
		accountID := t.OutcomeAccount
		if q.Type == TypeIncome {
			accountID = t.IncomeAccount
		}
		name = unknownAccount
		if a, ok := s.Account(accountID); ok {
			name = a.Title
		}
		currency = currencyOf(s, accountID)
	case ByMerchant:
		switch {
		case t.Merchant != nil:
			if m, ok := s.Merchant(*t.Merchant); ok {
				name = m.Title
			} else if t.Payee != "" {
				name = t.Payee
			} else {
				name = unknownMerchant
			}
		case t.Payee != "":
			name = t.Payee
		}
		currency = currencyOf(s, moneyAccount)
	}
	return name, currency
}

func currencyOf(s *store.Store, accountID string) string {
	a, ok := s.Account(accountID)
	if !ok {
		return defaultCurrency
	}
	in, ok := s.Instrument(a.Instrument)
	if !ok {
		return defaultCurrency
	}
	return in.ShortTitle
}

// SearchMerchants filters merchants by a case-insensitive substring of
// their title and pages the result.
func SearchMerchants(s *store.Store, search string, limit, offset int) (matches []core.Merchant, total int) {
	all := s.Merchants()
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	if search != "" {
		q := strings.ToLower(search)
		kept := all[:0]
		for _, m := range all {
			if strings.Contains(strings.ToLower(m.Title), q) {
				kept = append(kept, m)
			}
		}
		all = kept
	}
	total = len(all)
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, total
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total
}
