package console

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetadmin/internal/backend"
	"vetadmin/internal/backend/backendtest"
	"vetadmin/internal/events"
	"vetadmin/internal/records"
	"vetadmin/internal/slots"
)

func strPtr(s string) *string { return &s }
func idPtr(id int64) *int64   { return &id }

type fixture struct {
	svc *Service
	srv *backendtest.Server
	bus *events.Bus
	got []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)

	f := &fixture{srv: srv, bus: events.NewBus()}
	for _, typ := range []string{events.RecordsChanged, events.SlotToggled, events.NotificationSent} {
		f.bus.Subscribe(typ, func(e events.Event) error {
			f.got = append(f.got, e)
			return nil
		})
	}
	client := backend.New(srv.URL, "token", time.Second)
	f.svc = NewService(client, nil, f.bus, nil)
	f.svc.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	f.svc.SetLocation(time.UTC)
	return f
}

func (f *fixture) seedClinic() {
	f.srv.Seed(records.TableUsers,
		records.User{ID: 1, FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", State: "enabled", CreatedAt: "2024-06-01T09:00:00Z"},
		records.User{ID: 2, FirstName: "Bob", LastName: "Kim", Email: "bob@example.com", State: "disabled", CreatedAt: "2024-06-02T09:00:00Z"},
	)
	f.srv.Seed(records.TablePets,
		records.Pet{ID: 10, UserID: 1, Name: "Rex", Type: records.SpeciesDog, Gender: "Male", IsNeutered: true, Breed: "Beagle", CreatedAt: "2024-06-03T09:00:00Z"},
		records.Pet{ID: 11, UserID: 1, Name: "Tom", Type: records.SpeciesCat, Gender: "Male", Breed: "Siamese", CreatedAt: "2024-06-04T09:00:00Z"},
		records.Pet{ID: 12, UserID: 2, Name: "Mia", Type: records.SpeciesCat, Gender: "Female", IsNeutered: true, Breed: "Persian", CreatedAt: "2024-06-05T09:00:00Z"},
	)
}

func (f *fixture) eventsOf(typ string) []events.Event {
	var out []events.Event
	for _, e := range f.got {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestPageRequest_Normalize(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 1, Limit: DefaultPageSize}, PageRequest{}.normalize())
	assert.Equal(t, PageRequest{Page: 3, Limit: 50}, PageRequest{Page: 3, Limit: 50}.normalize())
}

func TestDelete_PublishesChange(t *testing.T) {
	f := newFixture(t)
	f.seedClinic()

	res, err := f.svc.Delete(context.Background(), records.TablePets, records.DeleteForm{IDs: []int64{10, 12}})
	require.NoError(t, err)
	assert.Equal(t, "2 record(s) deleted", res.Message)
	assert.Equal(t, []int64{11}, f.srv.SortedIDs(records.TablePets))

	changed := f.eventsOf(events.RecordsChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, records.TablePets, changed[0].Table)
	assert.Equal(t, "delete", changed[0].Action)
	assert.Equal(t, []int64{10, 12}, changed[0].IDs)
}

func TestDelete_RejectsEmptyIDs(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Delete(context.Background(), records.TablePets, records.DeleteForm{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, records.ErrInvalidForm))
	assert.Empty(t, f.srv.Requests())
}

func TestDelete_BackendFailureIsNotPublished(t *testing.T) {
	f := newFixture(t)
	f.seedClinic()
	f.srv.Fail(records.TablePets.String(), 1)

	_, err := f.svc.Delete(context.Background(), records.TablePets, records.DeleteForm{IDs: []int64{10}})
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, 500))
	assert.Empty(t, f.eventsOf(events.RecordsChanged))
	assert.Len(t, f.srv.SortedIDs(records.TablePets), 3)
}

func TestApplySlotConfig_SwapsResolverAndToggler(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, slots.PolicyCoexist, f.svc.Resolver().Policy())

	grid, err := slots.GridFromTimes([]string{"09:00", "10:00"})
	require.NoError(t, err)
	f.svc.ApplySlotConfig(slots.PolicySupersede, grid)

	assert.Equal(t, slots.PolicySupersede, f.svc.Resolver().Policy())
	assert.Len(t, f.svc.Resolver().Grid().Times, 2)
	assert.Equal(t, slots.PolicySupersede, f.svc.toggler.Policy())
}

func TestToday_UsesClinicZone(t *testing.T) {
	f := newFixture(t)
	f.svc.now = func() time.Time { return time.Date(2024, 6, 15, 23, 30, 0, 0, time.UTC) }

	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	f.svc.SetLocation(loc)
	assert.Equal(t, "2024-06-16", f.svc.Today())
}
