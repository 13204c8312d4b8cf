package storage

import (
	"cmp"
	"slices"

	"github.com/mcoot/partygame/internal/model"
)

// SortHistoryNewestFirst orders entries by timestamp descending. The sort is
// stable, so backends pass entries most-recently-saved first to break ties.
func SortHistoryNewestFirst(entries []*model.GameHistory) {
	slices.SortStableFunc(entries, func(a, b *model.GameHistory) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}

// SortPartiesNewestFirst orders parties by creation time descending, then by id
func SortPartiesNewestFirst(parties []*model.Party) {
	slices.SortFunc(parties, func(a, b *model.Party) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
