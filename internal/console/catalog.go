package console

import (
	"context"
	"fmt"

	"vetadmin/internal/assemble"
	"vetadmin/internal/backend"
	"vetadmin/internal/records"
)

// CatalogKind names one of the reference lists staff maintain.
type CatalogKind string

const (
	CatalogVaccineTypes CatalogKind = "vaccine-types"
	CatalogVaccineNames CatalogKind = "vaccine-names"
	CatalogBreeds       CatalogKind = "breeds"
)

var catalogTables = map[CatalogKind]records.Table{
	CatalogVaccineTypes: records.TableVaccineTypes,
	CatalogVaccineNames: records.TableVaccineNames,
	CatalogBreeds:       records.TableBreeds,
}

func ParseCatalogKind(s string) (CatalogKind, bool) {
	k := CatalogKind(s)
	_, ok := catalogTables[k]
	return k, ok
}

func (k CatalogKind) Table() records.Table { return catalogTables[k] }

// CatalogItem is the common shape of vaccine types, vaccine names and breeds.
// Description is unused by breeds and Type only by breeds.
type CatalogItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

func (s *Service) Catalog(ctx context.Context, kind CatalogKind) ([]CatalogItem, error) {
	var (
		items []CatalogItem
		err   error
	)
	switch kind {
	case CatalogVaccineTypes:
		var rows []records.VaccineType
		rows, err = backend.FetchAll[records.VaccineType](ctx, s.client)
		items = assemble.Map(rows, func(r records.VaccineType) CatalogItem {
			return CatalogItem{ID: r.ID, Name: r.Name, Description: r.Description}
		})
	case CatalogVaccineNames:
		var rows []records.VaccineName
		rows, err = backend.FetchAll[records.VaccineName](ctx, s.client)
		items = assemble.Map(rows, func(r records.VaccineName) CatalogItem {
			return CatalogItem{ID: r.ID, Name: r.Name, Description: r.Description}
		})
	case CatalogBreeds:
		var rows []records.Breed
		rows, err = backend.FetchAll[records.Breed](ctx, s.client)
		items = assemble.Map(rows, breedItem)
	default:
		return nil, unknownCatalog(kind)
	}
	if err := s.loaded(string(kind), err); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveCatalogItem creates the item when id is zero and updates it otherwise.
func (s *Service) SaveCatalogItem(ctx context.Context, kind CatalogKind, id int64, item CatalogItem) (CatalogItem, error) {
	var (
		saved CatalogItem
		err   error
	)
	switch kind {
	case CatalogVaccineTypes, CatalogVaccineNames:
		form := records.CatalogForm{Name: item.Name, Description: item.Description}
		if err := records.Validate(form); err != nil {
			return CatalogItem{}, err
		}
		if kind == CatalogVaccineTypes {
			var r records.VaccineType
			r, err = writeCatalog[records.VaccineType](ctx, s.client, id, form)
			saved = CatalogItem{ID: r.ID, Name: r.Name, Description: r.Description}
		} else {
			var r records.VaccineName
			r, err = writeCatalog[records.VaccineName](ctx, s.client, id, form)
			saved = CatalogItem{ID: r.ID, Name: r.Name, Description: r.Description}
		}
	case CatalogBreeds:
		form := records.BreedForm{Name: item.Name, Type: item.Type}
		if err := records.Validate(form); err != nil {
			return CatalogItem{}, err
		}
		var r records.Breed
		r, err = writeCatalog[records.Breed](ctx, s.client, id, form)
		saved = breedItem(r)
	default:
		return CatalogItem{}, unknownCatalog(kind)
	}
	if err != nil {
		return CatalogItem{}, err
	}

	action := "update"
	if id == 0 {
		action = "create"
	}
	s.changed(kind.Table(), action, saved.ID)
	return saved, nil
}

func (s *Service) DeleteCatalogItems(ctx context.Context, kind CatalogKind, form records.DeleteForm) (*records.DeleteResult, error) {
	if _, ok := catalogTables[kind]; !ok {
		return nil, unknownCatalog(kind)
	}
	return s.Delete(ctx, kind.Table(), form)
}

func writeCatalog[T records.Record](ctx context.Context, c *backend.Client, id int64, body any) (T, error) {
	if id == 0 {
		return backend.Create[T](ctx, c, body)
	}
	return backend.Update[T](ctx, c, id, body)
}

func breedItem(b records.Breed) CatalogItem {
	return CatalogItem{ID: b.ID, Name: b.Name, Type: b.Type}
}

func unknownCatalog(kind CatalogKind) error {
	return fmt.Errorf("%w: unknown catalog %q", records.ErrInvalidForm, kind)
}
