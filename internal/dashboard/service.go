// Package dashboard aggregates the figures shown on the admin home page.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-admin/internal/backend"
	"github.com/noah-isme/pos-admin/internal/product"
)

// Source reads recorded sales and orders.
type Source interface {
	ListSales(ctx context.Context) ([]backend.Sale, error)
	FilterOrders(ctx context.Context, f backend.OrderFilter) (backend.Page[backend.Order], error)
}

// Products lists sellable products.
type Products interface {
	Available(ctx context.Context) ([]product.Product, error)
}

// Service computes dashboard figures with a short Redis cache.
type Service struct {
	Q        Source
	Products Products
	R        *redis.Client
	TTL      time.Duration
	Location *time.Location
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *Service) today() time.Time {
	n := s.now().In(s.loc())
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc())
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// Summary is today's snapshot.
type Summary struct {
	Date           string          `json:"date"`
	SalesTotal     decimal.Decimal `json:"salesTotal"`
	SalesCount     int             `json:"salesCount"`
	ActiveProducts int             `json:"activeProducts"`
	PendingOrders  int             `json:"pendingOrders"`
}

// DayTotal is the sales of one day.
type DayTotal struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// ProductTotal is what one product sold over the period.
type ProductTotal struct {
	ProductName string          `json:"productName"`
	Quantity    decimal.Decimal `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

func (s *Service) configured() error {
	if s == nil || s.Q == nil {
		return errors.New("dashboard service not configured")
	}
	return nil
}

// Summary returns today's sales, product and pending order counts.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if err := s.configured(); err != nil {
		return Summary{}, err
	}
	day := s.today()
	return cached(ctx, s, cacheKey("dash", "summary", day.Format(time.DateOnly)), func() (Summary, error) {
		out := Summary{Date: day.Format(time.DateOnly), SalesTotal: decimal.Zero}
		sales, err := s.Q.ListSales(ctx)
		if err != nil {
			return out, err
		}
		for _, sale := range sales {
			if !sale.Active || !sameDay(sale.Time.In(s.loc()), day) {
				continue
			}
			out.SalesTotal = out.SalesTotal.Add(saleTotal(sale))
			out.SalesCount++
		}
		if s.Products != nil {
			items, err := s.Products.Available(ctx)
			if err != nil {
				return out, err
			}
			out.ActiveProducts = len(items)
		}
		pending, err := s.Q.FilterOrders(ctx, backend.OrderFilter{Status: "PENDIENTE", Page: 0, Size: 1})
		if err != nil {
			return out, err
		}
		out.PendingOrders = pending.TotalElements
		return out, nil
	})
}

// Weekly returns the last seven days of active sales, oldest first.
func (s *Service) Weekly(ctx context.Context) ([]DayTotal, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	day := s.today()
	return cached(ctx, s, cacheKey("dash", "weekly", day.Format(time.DateOnly)), func() ([]DayTotal, error) {
		sales, err := s.Q.ListSales(ctx)
		if err != nil {
			return nil, err
		}
		days := make([]DayTotal, 7)
		index := make(map[string]int, 7)
		for i := 0; i < 7; i++ {
			key := day.AddDate(0, 0, i-6).Format(time.DateOnly)
			days[i] = DayTotal{Date: key, Total: decimal.Zero}
			index[key] = i
		}
		for _, sale := range sales {
			if !sale.Active {
				continue
			}
			i, ok := index[sale.Time.In(s.loc()).Format(time.DateOnly)]
			if !ok {
				continue
			}
			days[i].Total = days[i].Total.Add(saleTotal(sale))
			days[i].Count++
		}
		return days, nil
	})
}

// TopProducts returns the n best selling products of the last seven days by
// amount sold.
func (s *Service) TopProducts(ctx context.Context, n int) ([]ProductTotal, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 5
	}
	day := s.today()
	from := day.AddDate(0, 0, -6)
	return cached(ctx, s, cacheKey("dash", "top", day.Format(time.DateOnly), n), func() ([]ProductTotal, error) {
		sales, err := s.Q.ListSales(ctx)
		if err != nil {
			return nil, err
		}
		byName := map[string]*ProductTotal{}
		for _, sale := range sales {
			at := sale.Time.In(s.loc())
			if !sale.Active || at.Before(from) || !at.Before(day.AddDate(0, 0, 1)) {
				continue
			}
			for _, dt := range sale.Details {
				row, ok := byName[dt.ProductName]
				if !ok {
					row = &ProductTotal{ProductName: dt.ProductName, Quantity: decimal.Zero, Total: decimal.Zero}
					byName[dt.ProductName] = row
				}
				row.Quantity = row.Quantity.Add(dt.Quantity)
				row.Total = row.Total.Add(dt.Subtotal())
			}
		}
		out := make([]ProductTotal, 0, len(byName))
		for _, row := range byName {
			out = append(out, *row)
		}
		sort.Slice(out, func(i, j int) bool {
			if c := out[i].Total.Cmp(out[j].Total); c != 0 {
				return c > 0
			}
			return out[i].ProductName < out[j].ProductName
		})
		if len(out) > n {
			out = out[:n]
		}
		return out, nil
	})
}

func saleTotal(s backend.Sale) decimal.Decimal {
	if !s.Total.IsZero() {
		return s.Total
	}
	sum := decimal.Zero
	for _, dt := range s.Details {
		sum = sum.Add(dt.Subtotal())
	}
	return sum
}

func sameDay(t, day time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	if s.R != nil && s.TTL > 0 {
		if data, err := s.R.Get(ctx, key).Bytes(); err == nil {
			var hit T
			if json.Unmarshal(data, &hit) == nil {
				return hit, nil
			}
		}
	}
	value, err := load()
	if err != nil {
		return value, err
	}
	s.store(ctx, key, value)
	return value, nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
