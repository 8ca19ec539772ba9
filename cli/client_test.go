package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	view := func(state string, rows ...OrderRow) PageView {
		var v PageView
		v.Menu = []CatalogRow{{ID: "0", Emoji: "🍕", Name: "Pizza", Ingredients: "pepperoni", PriceText: "$14"}}
		v.State = state
		v.Order.Rows = rows
		v.Visibility.CheckoutSection = len(rows) > 0
		v.Visibility.CompleteButton = len(rows) > 0
		return v
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"token": "tok", "view": view("browsing")})
	})
	mux.HandleFunc("/api/order/items/0", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"view": view("ordering", OrderRow{Key: "line-1", RemoveID: "0", Name: "Pizza", PriceText: "$14"}),
		})
	})
	mux.HandleFunc("/api/order/items/9", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "item 9 not found", "view": view("browsing")})
	})
	mux.HandleFunc("/api/order", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGone)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown session"})
	})
	return httptest.NewServer(mux)
}

func TestClientSessionFlow(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()

	client := NewApiClient(srv.URL)
	require.NoError(t, client.CheckHealth())

	page, err := client.StartSession()
	require.NoError(t, err)
	assert.Equal(t, "browsing", page.State)
	require.Len(t, page.Menu, 1)
	assert.Equal(t, "Pizza", page.Menu[0].Name)

	page, err = client.AddItem("0")
	require.NoError(t, err)
	assert.Equal(t, "ordering", page.State)
	assert.True(t, page.Visibility.CheckoutSection)
	require.Len(t, page.Order.Rows, 1)

	require.NoError(t, client.EndSession())
}

func TestClientErrors(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()

	client := NewApiClient(srv.URL)
	_, err := client.StartSession()
	require.NoError(t, err)

	_, err = client.AddItem("9")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "item 9 not found", apiErr.Message)
	require.NotNil(t, apiErr.View)
	assert.False(t, errors.Is(err, ErrSessionGone))

	_, err = client.Order()
	assert.True(t, errors.Is(err, ErrSessionGone))
}

func TestModelAppliesViews(t *testing.T) {
	m := initialModel(NewApiClient("http://example.invalid"))

	page := &PageView{
		Menu:  []CatalogRow{{ID: "0", Emoji: "🍕", Name: "Pizza", PriceText: "$14"}},
		State: "ordering",
	}
	page.Order.Rows = []OrderRow{{Key: "line-1", RemoveID: "0", Name: "Pizza", PriceText: "$14"}}
	page.Order.TotalText = "$14"
	page.Visibility = Visibility{CheckoutSection: true, CompleteButton: true}

	updated, _ := m.Update(viewMsg{page: page})
	m = updated.(Model)
	assert.False(t, m.loading)
	assert.Len(t, m.menu.Items(), 1)
	assert.Len(t, m.orderTable.Rows(), 1)
	assert.Contains(t, m.View(), "Total price: $14")

	prompt := *page
	prompt.State = "payment_prompt"
	prompt.Visibility.PaymentOverlay = true
	updated, _ = m.Update(viewMsg{page: &prompt})
	m = updated.(Model)
	assert.True(t, m.inputs[0].Focused())
	assert.Contains(t, m.View(), "Enter card details")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.True(t, m.inputs[1].Focused())
}
