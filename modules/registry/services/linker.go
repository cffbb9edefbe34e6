package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
	"github.com/fieo/orgregistry/modules/registry/domain/schema"
)

// Linker resolves self-referential references once every kind is upserted.
// Each field is re-resolved over its whole table from the stored raw
// references, so a reference that becomes resolvable later links on the next
// run even when the dependent row was absent from that run's source.
type Linker struct {
	store LinkStore
}

func NewLinker(store LinkStore) *Linker {
	return &Linker{store: store}
}

func (l *Linker) Link(ctx context.Context, at time.Time) ([]*LinkReport, error) {
	reports := make([]*LinkReport, 0, len(schema.LinkFields))
	indexes := make(map[schema.Kind]*entities.KeyIndex)

	for _, field := range schema.LinkFields {
		rep := &LinkReport{Field: field.String(), Status: StatusOK}
		reports = append(reports, rep)

		def := schema.MustLookup(field.Kind)
		exists, err := l.store.TableExists(ctx, def.Table)
		if err != nil {
			return reports, err
		}
		if !exists {
			rep.Status = StatusMissingTable
			rep.Error = entities.ErrMissingTable.Error()
			continue
		}

		idx, ok := indexes[field.Kind]
		if !ok {
			if idx, err = l.store.KeyIndex(ctx, field.Kind); err != nil {
				return reports, err
			}
			indexes[field.Kind] = idx
		}

		rows, err := l.store.LinkRows(ctx, field)
		if err != nil {
			return reports, err
		}
		updates := planLinks(rows, idx, rep)
		if err := l.store.ApplyLinks(ctx, field, updates, at); err != nil {
			return reports, err
		}

		logWithFields(ctx, logrus.InfoLevel, "links resolved", logrus.Fields{
			"stage":      "link",
			"field":      rep.Field,
			"resolved":   rep.Resolved,
			"unresolved": rep.Unresolved,
			"cleared":    rep.Cleared,
			"changed":    rep.Changed,
		})
	}
	return reports, nil
}

// planLinks computes the link of every row and returns only the rows whose
// link changes. A reference to the row itself never resolves.
func planLinks(rows []entities.LinkRow, idx *entities.KeyIndex, rep *LinkReport) []entities.LinkUpdate {
	var updates []entities.LinkUpdate
	for _, r := range rows {
		var target *int64
		if r.Ref != nil && strings.TrimSpace(*r.Ref) != "" {
			if id, ok := idx.Resolve(*r.Ref); ok && id != r.ID {
				rep.Resolved++
				target = &id
			} else {
				rep.Unresolved++
			}
		}
		if sameLink(r.Current, target) {
			continue
		}
		if target == nil {
			rep.Cleared++
		}
		updates = append(updates, entities.LinkUpdate{ID: r.ID, Target: target})
	}
	rep.Changed = len(updates)
	return updates
}

func sameLink(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
