package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go-distribusi-ops/internal/query"
	"go-distribusi-ops/internal/repository"
)

// Suggestion maps a free-text query fragment to one typed filter the UI can
// apply directly.
type Suggestion struct {
	Type  string `json:"type"` // store | sales_rep | region | status | date_range | store_id
	Value string `json:"value"`
	Label string `json:"label"`
}

type SuggestService interface {
	Suggest(ctx context.Context, text string, limit int) ([]Suggestion, error)
}

type suggestService struct {
	storeRepo    repository.StoreRepository
	salesRepRepo repository.SalesRepRepository
}

func NewSuggestService(storeRepo repository.StoreRepository, salesRepRepo repository.SalesRepRepository) SuggestService {
	return &suggestService{storeRepo: storeRepo, salesRepRepo: salesRepRepo}
}

var dateShortcuts = []Suggestion{
	{Type: "date_range", Value: "today", Label: "Hari ini"},
	{Type: "date_range", Value: "yesterday", Label: "Kemarin"},
	{Type: "date_range", Value: "this_week", Label: "Minggu ini"},
	{Type: "date_range", Value: "current_month", Label: "Bulan ini"},
	{Type: "date_range", Value: "last_month", Label: "Bulan lalu"},
}

var statusWords = map[string]Suggestion{
	"active":   {Type: "status", Value: "active", Label: "Aktif"},
	"aktif":    {Type: "status", Value: "active", Label: "Aktif"},
	"inactive": {Type: "status", Value: "inactive", Label: "Nonaktif"},
	"nonaktif": {Type: "status", Value: "inactive", Label: "Nonaktif"},
}

// Suggest is best effort: every lookup that fails is skipped, not fatal,
// because suggestions are a convenience layer over the ledger readers.
func (s *suggestService) Suggest(ctx context.Context, text string, limit int) ([]Suggestion, error) {
	text = strings.TrimSpace(text)
	if limit < 1 || limit > 20 {
		limit = 10
	}
	suggestions := []Suggestion{}
	if text == "" {
		return suggestions, nil
	}
	lower := strings.ToLower(text)

	// Exact-ID hit ranks ahead of everything else.
	if id, err := strconv.ParseUint(text, 10, 32); err == nil {
		if store, err := s.storeRepo.FindByID(ctx, uint(id)); err == nil {
			suggestions = append(suggestions, Suggestion{
				Type:  "store_id",
				Value: text,
				Label: fmt.Sprintf("Toko #%d — %s", store.ID, store.Name),
			})
		}
	}

	if status, ok := statusWords[lower]; ok {
		suggestions = append(suggestions, status)
	}
	for _, d := range dateShortcuts {
		if strings.HasPrefix(d.Value, lower) || strings.HasPrefix(strings.ToLower(d.Label), lower) {
			suggestions = append(suggestions, d)
		}
	}

	readerFilter := query.Filter{
		Search:     text,
		Page:       1,
		PageSize:   limit,
		SortColumn: "name",
		SortDir:    query.SortAsc,
	}

	if stores, _, err := s.storeRepo.List(ctx, readerFilter); err == nil {
		seenRegion := map[string]bool{}
		for _, store := range stores {
			suggestions = append(suggestions, Suggestion{
				Type:  "store",
				Value: strconv.FormatUint(uint64(store.ID), 10),
				Label: store.Name,
			})
			for _, region := range []string{store.Kabupaten, store.Kecamatan} {
				if region != "" && strings.Contains(strings.ToLower(region), lower) && !seenRegion[region] {
					seenRegion[region] = true
					suggestions = append(suggestions, Suggestion{Type: "region", Value: region, Label: region})
				}
			}
		}
	}

	if reps, _, err := s.salesRepRepo.List(ctx, readerFilter); err == nil {
		for _, rep := range reps {
			suggestions = append(suggestions, Suggestion{
				Type:  "sales_rep",
				Value: strconv.FormatUint(uint64(rep.ID), 10),
				Label: rep.Name,
			})
		}
	}

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}
