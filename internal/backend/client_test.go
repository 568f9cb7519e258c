package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetadmin/internal/backend/backendtest"
	"vetadmin/internal/records"
)

func newTestClient(t *testing.T) (*Client, *backendtest.Server) {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	return New(srv.URL, "secret", time.Second), srv
}

func TestList_SendsPagingAndHeaders(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Seed(records.TablePets,
		records.Pet{ID: 1, Name: "Rex", Type: records.SpeciesDog},
		records.Pet{ID: 2, Name: "Tom", Type: records.SpeciesCat},
		records.Pet{ID: 3, Name: "Bo", Type: records.SpeciesDog},
	)

	page, err := List[records.Pet](context.Background(), c, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Bo", page.Data[0].Name)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.False(t, page.HasNext())

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/admin/pets", reqs[0].Path)
	assert.Equal(t, "limit=2&page=2", reqs[0].Query)
	assert.Equal(t, "Bearer secret", reqs[0].Auth)
	assert.NotEmpty(t, reqs[0].RequestID)
}

func TestList_EmptyTableReturnsEmptySlice(t *testing.T) {
	c, _ := newTestClient(t)

	page, err := List[records.Breed](context.Background(), c, 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
}

func TestFetchAll_CappedByDefault(t *testing.T) {
	c, srv := newTestClient(t)
	for i := 1; i <= 5; i++ {
		srv.Seed(records.TableUsers, records.User{ID: int64(i)})
	}
	c.SetFetchLimit(2, false)

	rows, err := FetchAll[records.User](context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, srv.CountRequests(http.MethodGet, "/admin/users"))
}

func TestFetchAll_ExhaustiveWalksPages(t *testing.T) {
	c, srv := newTestClient(t)
	for i := 1; i <= 5; i++ {
		srv.Seed(records.TableUsers, records.User{ID: int64(i)})
	}
	c.SetFetchLimit(2, true)

	rows, err := FetchAll[records.User](context.Background(), c)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, int64(5), rows[4].ID)
	assert.Equal(t, 3, srv.CountRequests(http.MethodGet, "/admin/users"))
}

func TestFetchEvery_IgnoresCap(t *testing.T) {
	c, srv := newTestClient(t)
	for i := 1; i <= 5; i++ {
		srv.Seed(records.TableBlockedSlots, records.BlockedSlot{ID: int64(i), Date: "2024-06-01"})
	}
	c.SetFetchLimit(2, false)

	rows, err := FetchEvery[records.BlockedSlot](context.Background(), c)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, 3, srv.CountRequests(http.MethodGet, "/admin/"+records.TableBlockedSlots.String()))
}

func TestFetchAll_PageNumberNotEchoed(t *testing.T) {
	var calls []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":       []records.User{{ID: int64(len(calls))}},
			"pagination": map[string]any{"total": 2, "limit": 1, "totalPages": 2},
		})
	}))
	defer ts.Close()

	c := New(ts.URL, "", time.Second)
	c.SetFetchLimit(1, true)

	rows, err := FetchAll[records.User](context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "2"}, calls)
}

func TestCount(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Seed(records.TableAppointments, records.Appointment{ID: 1}, records.Appointment{ID: 2})

	n, err := c.Count(context.Background(), records.TableAppointments)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "limit=1&page=1", srv.Requests()[0].Query)
}

func TestCreateUpdateDelete(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	created, err := Create[records.VaccineType](ctx, c, records.CatalogForm{Name: "Rabies"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Rabies", created.Name)

	updated, err := Update[records.VaccineType](ctx, c, created.ID, records.CatalogForm{Name: "Rabies", Description: "yearly"})
	require.NoError(t, err)
	assert.Equal(t, "yearly", updated.Description)

	res, err := c.Delete(ctx, records.TableVaccineTypes, []int64{created.ID})
	require.NoError(t, err)
	assert.Equal(t, "1 record(s) deleted", res.Message)
	assert.Empty(t, srv.SortedIDs(records.TableVaccineTypes))

	var body map[string][]int64
	reqs := srv.Requests()
	require.NoError(t, json.Unmarshal(reqs[len(reqs)-1].Body, &body))
	assert.Equal(t, []int64{created.ID}, body["ids"])
}

func TestDelete_RequiresIDs(t *testing.T) {
	c, srv := newTestClient(t)

	_, err := c.Delete(context.Background(), records.TablePets, nil)
	assert.Error(t, err)
	assert.Empty(t, srv.Requests())
}

func TestHTTPError_CarriesBackendMessage(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Fail(records.TablePets.String(), 1)

	_, err := List[records.Pet](context.Background(), c, 1, 10)
	require.Error(t, err)

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.StatusCode)
	assert.Equal(t, "boom", he.Message)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "fetch pets page 1")
}

func TestHTTPError_PlainBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := New(ts.URL, "", time.Second)
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, "backend: status=502 body=gateway down", err.Error())
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()
	c := New(srv.URL+"/", "", time.Second)

	require.NoError(t, c.Ping(context.Background()))
	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Auth)
	assert.Equal(t, "/admin/vaccine_types", reqs[0].Path)
}

func TestRedisCache_ServesPagesAndDropsOnWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	c, srv := newTestClient(t)
	c.UseRedisCache(rdb, time.Minute)
	srv.Seed(records.TableBreeds, records.Breed{ID: 1, Name: "Beagle", Type: records.SpeciesDog})
	ctx := context.Background()

	_, err := List[records.Breed](ctx, c, 1, 10)
	require.NoError(t, err)
	page, err := List[records.Breed](ctx, c, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 1, srv.CountRequests(http.MethodGet, "/admin/breeds"))
	assert.True(t, mr.Exists(pageCacheKey("breeds", 1, 10)))

	_, err = Create[records.Breed](ctx, c, records.BreedForm{Name: "Siamese", Type: records.SpeciesCat})
	require.NoError(t, err)
	assert.False(t, mr.Exists(pageCacheKey("breeds", 1, 10)))

	page, err = List[records.Breed](ctx, c, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 2, srv.CountRequests(http.MethodGet, "/admin/breeds"))
}

func TestRedisCache_WithoutCacheReadsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	c, srv := newTestClient(t)
	c.UseRedisCache(rdb, time.Minute)
	ctx := context.Background()

	_, err := List[records.Breed](ctx, c, 1, 10)
	require.NoError(t, err)
	_, err = List[records.Breed](WithoutCache(ctx), c, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.CountRequests(http.MethodGet, "/admin/breeds"))
}

func TestRateLimit_CancelledContext(t *testing.T) {
	c, srv := newTestClient(t)
	c.UseRateLimit(0.001, 1)

	require.NoError(t, c.Ping(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Ping(ctx)
	assert.Error(t, err)
	assert.Len(t, srv.Requests(), 1)
}

func TestSendEventNotification(t *testing.T) {
	c, srv := newTestClient(t)

	res, err := c.SendEventNotification(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, []int64{42}, srv.Notified())

	srv.Fail("fcm", 1)
	_, err = c.SendEventNotification(context.Background(), 43)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No device tokens found")
}

func TestSendBulk(t *testing.T) {
	c, srv := newTestClient(t)

	_, err := c.SendBulk(context.Background(), records.BroadcastForm{})
	require.ErrorIs(t, err, records.ErrInvalidForm)
	assert.Empty(t, srv.Requests())

	_, err = c.SendBulk(context.Background(), records.BroadcastForm{Title: "Closed Monday"})
	require.NoError(t, err)
	require.Len(t, srv.Broadcasts(), 1)
	assert.Equal(t, "Closed Monday", srv.Broadcasts()[0].Title)
}

func TestSlotStore(t *testing.T) {
	c, srv := newTestClient(t)
	store := NewSlotStore(c)
	ctx := context.Background()
	ten := "10:00:00"

	row, err := store.BlockSlot(ctx, "2024-06-01", &ten)
	require.NoError(t, err)
	require.NotNil(t, row.Time)
	assert.Equal(t, "10:00:00", *row.Time)

	whole, err := store.BlockSlot(ctx, "2024-06-01", nil)
	require.NoError(t, err)
	assert.Nil(t, whole.Time)

	rows, err := store.BlockedSlots(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, store.UnblockSlots(ctx, []int64{row.ID}))
	var left []records.BlockedSlot
	srv.Rows(records.TableBlockedSlots, &left)
	require.Len(t, left, 1)
	assert.Nil(t, left[0].Time)
}
