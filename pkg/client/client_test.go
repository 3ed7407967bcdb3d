package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auctionbook/internal/apperrors"
	"auctionbook/internal/models"
	"auctionbook/pkg/offline"
)

const auctionJSON = `{"id":"a1","personName":"Asha","mobileNumber":"9876543210","auctionDate":"2024-03-10",
"totalAmount":"200.00","isPaid":false,"createdAt":"2024-03-10T09:00:00Z",
"items":[{"id":"i1","auctionId":"a1","itemName":"Chair","quantity":2,"price":"100.00"}]}`

type fakeAPI struct {
	server *httptest.Server
	calls  atomic.Int32
}

func newFakeAPI(t *testing.T, handler http.HandlerFunc) *fakeAPI {
	api := &fakeAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","hasDbConnection":true}`))
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		api.calls.Add(1)
		handler(w, r)
	})
	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

func (f *fakeAPI) url() string {
	return f.server.URL + "/api"
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func validRequest() AuctionRequest {
	return AuctionRequest{
		PersonName:   "Asha",
		MobileNumber: "9876543210",
		AuctionDate:  models.NewDate(2024, time.March, 10),
		Items:        []ItemRequest{{ItemName: "Chair", Quantity: 2, Price: decimal.NewFromInt(100)}},
	}
}

func newCache(t *testing.T) offline.Store {
	return offline.NewFileStore(filepath.Join(t.TempDir(), "auctions.json"))
}

func TestClient_ListAuctions(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auctions", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("month"))
		assert.Equal(t, "2024", r.URL.Query().Get("year"))
		writeJSON(w, http.StatusOK, "["+auctionJSON+"]")
	})

	auctions, err := New(api.url()).ListAuctions(context.Background(), 3, 2024)

	require.NoError(t, err)
	require.Len(t, auctions, 1)
	assert.Equal(t, "Asha", auctions[0].PersonName)
	assert.Equal(t, "200.00", auctions[0].TotalAmount.StringFixed(2))
	assert.Equal(t, "2024-03-10", auctions[0].AuctionDate.String())
}

func TestClient_Health(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})

	status, err := New(api.url()).Health(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
	assert.True(t, status.HasDBConnection)
}

func TestClient_FetchAuctionsLiveRefreshesCache(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "["+auctionJSON+"]")
	})
	cache := newCache(t)
	c := New(api.url(), WithCache(cache))

	auctions, source, err := c.FetchAuctions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SourceLive, source)
	assert.Len(t, auctions, 1)

	cached, ok, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a1", cached[0].ID)
}

func TestClient_FetchAuctionsOfflineServesCache(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	require.NoError(t, cache.Save(ctx, []models.Auction{{ID: "cached", PersonName: "Old"}}))

	c := New("http://127.0.0.1:1/api", WithCache(cache), WithConnectivity(Static(false)))
	auctions, source, err := c.FetchAuctions(ctx)

	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	require.Len(t, auctions, 1)
	assert.Equal(t, "cached", auctions[0].ID)
}

func TestClient_FetchAuctionsLiveFailureFallsBackToCache(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error":"internal server error","message":"boom"}`)
	})
	cache := newCache(t)
	require.NoError(t, cache.Save(ctx, []models.Auction{{ID: "cached"}}))

	auctions, source, err := New(api.url(), WithCache(cache)).FetchAuctions(ctx)

	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, "cached", auctions[0].ID)
}

func TestClient_FetchAuctionsNoCacheReturnsError(t *testing.T) {
	c := New("http://127.0.0.1:1/api", WithCache(newCache(t)), WithConnectivity(Static(false)))

	auctions, _, err := c.FetchAuctions(context.Background())

	assert.Nil(t, auctions)
	assert.ErrorIs(t, err, ErrOffline)
	assert.True(t, apperrors.IsTransientIO(err))
}

func TestClient_WritesBlockedOffline(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, auctionJSON)
	})
	c := New(api.url(), WithConnectivity(Static(false)))

	_, err := c.CreateAuction(ctx, validRequest())
	assert.ErrorIs(t, err, ErrOffline)
	_, err = c.UpdateAuction(ctx, "a1", validRequest())
	assert.ErrorIs(t, err, ErrOffline)
	_, err = c.MarkPaid(ctx, "a1")
	assert.ErrorIs(t, err, ErrOffline)
	assert.ErrorIs(t, c.DeleteAuction(ctx, "a1"), ErrOffline)

	assert.Zero(t, api.calls.Load(), "offline writes must not reach the API")
}

func TestClient_CreateAuction(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-03-10", body["auctionDate"])
		writeJSON(w, http.StatusCreated, auctionJSON)
	})
	cache := newCache(t)
	require.NoError(t, cache.Save(ctx, []models.Auction{{ID: "old"}}))

	auction, err := New(api.url(), WithCache(cache)).CreateAuction(ctx, validRequest())

	require.NoError(t, err)
	assert.Equal(t, "a1", auction.ID)
	cached, _, _ := cache.Load(ctx)
	require.Len(t, cached, 2)
	assert.Equal(t, "a1", cached[0].ID)
}

func TestClient_CreateAuctionRejectsBadMobile(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, auctionJSON)
	})

	for _, mobile := range []string{"12345", "98765432101", "98765abcde", ""} {
		req := validRequest()
		req.MobileNumber = mobile
		_, err := New(api.url()).CreateAuction(context.Background(), req)
		require.True(t, apperrors.IsValidation(err), "mobile %q", mobile)
		assert.Contains(t, apperrors.As(err).Fields, "mobileNumber")
	}
	assert.Zero(t, api.calls.Load())
}

func TestClient_CreateAuctionRejectsSubPaisaPrice(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, auctionJSON)
	})

	req := validRequest()
	req.Items[0].Price = decimal.RequireFromString("0.004")
	_, err := New(api.url()).CreateAuction(context.Background(), req)

	require.True(t, apperrors.IsValidation(err))
	assert.Contains(t, apperrors.As(err).Fields, "items[0]")
	assert.Zero(t, api.calls.Load())
}

func TestClient_MarkPaidAndDeletePatchCache(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPatch && r.URL.Path == "/api/auctions/a1/pay":
			writeJSON(w, http.StatusOK, `{"id":"a1","personName":"Asha","isPaid":true,"totalAmount":"200.00","auctionDate":"2024-03-10","items":[]}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/auctions/b2":
			writeJSON(w, http.StatusOK, `{"success":true,"message":"Auction deleted successfully"}`)
		default:
			http.NotFound(w, r)
		}
	})
	cache := newCache(t)
	require.NoError(t, cache.Save(ctx, []models.Auction{{ID: "a1"}, {ID: "b2"}}))
	c := New(api.url(), WithCache(cache))

	paid, err := c.MarkPaid(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NoError(t, c.DeleteAuction(ctx, "b2"))

	cached, _, _ := cache.Load(ctx)
	require.Len(t, cached, 1)
	assert.Equal(t, "a1", cached[0].ID)
	assert.True(t, cached[0].IsPaid)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not_found", http.StatusNotFound, `{"error":"resource not found","message":"auction with ID x not found"}`, apperrors.IsNotFound},
		{"validation", http.StatusBadRequest, `{"error":"validation failed","message":"invalid month or year"}`, apperrors.IsValidation},
		{"unavailable", http.StatusServiceUnavailable, `{"error":"service temporarily unavailable","message":"db down"}`, apperrors.IsTransientIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := New(api.url()).MarkPaid(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestClient_TimeoutIsTransient(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, "[]")
	})

	_, err := New(api.url(), WithTimeout(20*time.Millisecond)).ListAuctions(context.Background(), 0, 0)

	require.Error(t, err)
	assert.True(t, apperrors.IsTransientIO(err))
	assert.True(t, apperrors.Retryable(err))
}

func TestClient_TimeoutAppliesToInjectedHTTPClient(t *testing.T) {
	for _, name := range []string{"timeout first", "client first"} {
		t.Run(name, func(t *testing.T) {
			injected := &http.Client{}
			opts := []Option{WithTimeout(3 * time.Second), WithHTTPClient(injected)}
			if name == "client first" {
				opts[0], opts[1] = opts[1], opts[0]
			}

			c := New("http://localhost:8080/api", opts...)

			assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
			assert.Zero(t, injected.Timeout, "caller's client is left untouched")
		})
	}
}

func TestHealthCheckConnectivity(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.True(t, New(api.url()).connectivity.Online(context.Background()))
	assert.False(t, New("http://127.0.0.1:1/api").connectivity.Online(context.Background()))
}
