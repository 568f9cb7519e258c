package console

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"vetadmin/internal/assemble"
	"vetadmin/internal/backend"
	"vetadmin/internal/records"
)

type UserFilter struct {
	Query string // first name, last name or email
	State string
}

func (f UserFilter) keep(v assemble.UserView) bool {
	return matchesQuery(f.Query, v.FirstName, v.LastName, v.Email) &&
		matchesSelect(f.State, v.State)
}

func (s *Service) Users(ctx context.Context, req PageRequest, f UserFilter) (*Screen[assemble.UserView], error) {
	req = req.normalize()

	var (
		page *records.Page[records.User]
		pets []records.Pet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page, err = backend.List[records.User](gctx, s.client, req.Page, req.Limit)
		return err
	})
	g.Go(func() (err error) {
		pets, err = backend.FetchAll[records.Pet](gctx, s.client)
		return err
	})
	if err := s.loaded("users", g.Wait()); err != nil {
		return nil, err
	}

	views := filter(assemble.UserViews(page.Data, pets), f.keep)
	return &Screen[assemble.UserView]{Rows: views, Pagination: page.Pagination}, nil
}

// UpdateUser edits a user's name and email. Blank form fields keep the
// current values, so the current row is read first.
func (s *Service) UpdateUser(ctx context.Context, id int64, form records.UserForm) (records.User, error) {
	if err := records.Validate(form); err != nil {
		return records.User{}, err
	}
	users, err := backend.FetchAll[records.User](backend.WithoutCache(ctx), s.client)
	if err != nil {
		return records.User{}, err
	}
	var current *records.User
	for i := range users {
		if users[i].ID == id {
			current = &users[i]
			break
		}
	}
	if current == nil {
		return records.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}

	user, err := backend.Update[records.User](ctx, s.client, id, form.Merge(*current))
	if err != nil {
		return records.User{}, err
	}
	s.changed(records.TableUsers, "update", id)
	return user, nil
}
