package console

import (
	"context"

	"golang.org/x/sync/errgroup"

	"vetadmin/internal/backend"
	"vetadmin/internal/records"
)

type PetFilter struct {
	Query    string // name, species or breed
	Type     string
	Gender   string
	Neutered string // "yes", "no" or "all"
}

func (f PetFilter) keep(p records.Pet) bool {
	neutered := true
	switch f.Neutered {
	case "yes":
		neutered = p.IsNeutered
	case "no":
		neutered = !p.IsNeutered
	}
	return matchesQuery(f.Query, p.Name, p.Type, p.Breed) &&
		matchesSelect(f.Type, p.Type) &&
		matchesSelect(f.Gender, p.Gender) &&
		neutered
}

// PetsScreen is a page of pets plus the breed catalog used by the edit form.
type PetsScreen struct {
	Screen[records.Pet]
	Breeds []records.Breed `json:"breeds"`
}

func (s *Service) Pets(ctx context.Context, req PageRequest, f PetFilter) (*PetsScreen, error) {
	req = req.normalize()

	var (
		page   *records.Page[records.Pet]
		breeds []records.Breed
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page, err = backend.List[records.Pet](gctx, s.client, req.Page, req.Limit)
		return err
	})
	g.Go(func() (err error) {
		breeds, err = backend.FetchAll[records.Breed](gctx, s.client)
		return err
	})
	if err := s.loaded("pets", g.Wait()); err != nil {
		return nil, err
	}

	return &PetsScreen{
		Screen: Screen[records.Pet]{Rows: filter(page.Data, f.keep), Pagination: page.Pagination},
		Breeds: breeds,
	}, nil
}

// BreedsFor lists the breeds of one species. An empty species lists all.
func (s *Service) BreedsFor(ctx context.Context, species string) ([]records.Breed, error) {
	breeds, err := backend.FetchAll[records.Breed](ctx, s.client)
	if err != nil {
		return nil, err
	}
	return filter(breeds, func(b records.Breed) bool { return matchesSelect(species, b.Type) }), nil
}

func (s *Service) UpdatePet(ctx context.Context, id int64, form records.PetForm) (records.Pet, error) {
	if err := records.Validate(form); err != nil {
		return records.Pet{}, err
	}
	pet, err := backend.Update[records.Pet](ctx, s.client, id, form)
	if err != nil {
		return records.Pet{}, err
	}
	s.changed(records.TablePets, "update", id)
	return pet, nil
}
