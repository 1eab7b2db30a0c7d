package order

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/storage"
	"github.com/roach88/techshop/internal/testutil"
)

type fakeSession struct{ uid string }

func (s *fakeSession) CurrentUserID() string { return s.uid }

var (
	testAddress = domain.Address{
		FullName:     "Aigerim Sarsenova",
		Email:        "aigerim@example.com",
		PhoneNumber:  "+7 701 000 0000",
		AddressLine1: "Abay Ave 10",
		City:         "Almaty",
		PostalCode:   "050000",
		Country:      "Kazakhstan",
	}
	testPayment = domain.PaymentMethod{ID: domain.PaymentCashOnDelivery, Name: "Cash on delivery"}
)

func line(id, price string, qty int) domain.CartLine {
	return domain.CartLine{
		Product:  domain.Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price), Stock: 10},
		Quantity: qty,
	}
}

func newHistory(t *testing.T, session Session) (*History, storage.Store, *testutil.DeterministicClock) {
	t.Helper()
	st := storage.NewMemory()
	clock := testutil.NewDeterministicClock()
	h := Load(context.Background(), st, nil,
		WithIDGenerator(testutil.NewSequenceGenerator("TECHSHOP")),
		WithClock(clock.Now),
		WithSession(session),
	)
	return h, st, clock
}

func TestPlace_Snapshot(t *testing.T) {
	h, _, _ := newHistory(t, &fakeSession{})
	lines := []domain.CartLine{line("p1", "100", 2)}

	o, err := h.Place(context.Background(), lines, decimal.NewFromInt(200), testAddress, testPayment)
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(200)))
	require.Len(t, o.Items, 1)
	assert.Equal(t, domain.OrderItem{ProductID: "p1", Name: "Product p1", Price: decimal.RequireFromString("100"), Quantity: 2}, o.Items[0])
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, testAddress, o.ShippingAddress)
	assert.Equal(t, testPayment, o.PaymentMethod)
	assert.Equal(t, testutil.Epoch, o.Date)
}

func TestPlace_SnapshotIsDecoupledFromLines(t *testing.T) {
	h, _, _ := newHistory(t, &fakeSession{})
	lines := []domain.CartLine{line("p1", "10", 1)}

	o, err := h.Place(context.Background(), lines, decimal.NewFromInt(10), testAddress, testPayment)
	require.NoError(t, err)

	lines[0].Price = decimal.NewFromInt(99)
	got, ok := h.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, "10", got.Items[0].Price.String())
}

func TestPlace_NoItems(t *testing.T) {
	h, _, _ := newHistory(t, &fakeSession{})
	_, err := h.Place(context.Background(), nil, decimal.Zero, testAddress, testPayment)
	assert.ErrorIs(t, err, ErrNoItems)
	assert.Empty(t, h.All())
}

func TestPlace_NewestFirstAndUniqueIDs(t *testing.T) {
	ctx := context.Background()
	h, _, _ := newHistory(t, &fakeSession{uid: "u1"})

	first, err := h.Place(ctx, []domain.CartLine{line("p1", "1", 1)}, decimal.NewFromInt(1), testAddress, testPayment)
	require.NoError(t, err)
	second, err := h.Place(ctx, []domain.CartLine{line("p2", "2", 1)}, decimal.NewFromInt(2), testAddress, testPayment)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	all := h.All()
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestListForCurrentUser_SignedOut(t *testing.T) {
	ctx := context.Background()
	session := &fakeSession{}
	h, _, _ := newHistory(t, session)

	_, err := h.Place(ctx, []domain.CartLine{line("p1", "1", 1)}, decimal.NewFromInt(1), testAddress, testPayment)
	require.NoError(t, err)

	assert.Equal(t, []domain.Order{}, h.ListForCurrentUser())
}

func TestListForCurrentUser_OnlyOwnOrders(t *testing.T) {
	ctx := context.Background()
	session := &fakeSession{}
	h, _, _ := newHistory(t, session)
	place := func() domain.Order {
		o, err := h.Place(ctx, []domain.CartLine{line("p1", "1", 1)}, decimal.NewFromInt(1), testAddress, testPayment)
		require.NoError(t, err)
		return o
	}

	anonymous := place()
	session.uid = "alice"
	alice := place()
	session.uid = "bob"
	bob := place()

	assert.Empty(t, anonymous.UserID)

	session.uid = "alice"
	got := h.ListForCurrentUser()
	require.Len(t, got, 1)
	assert.Equal(t, alice.ID, got[0].ID)

	session.uid = "bob"
	got = h.ListForCurrentUser()
	require.Len(t, got, 1)
	assert.Equal(t, bob.ID, got[0].ID)

	assert.Empty(t, h.ForUser(""))
}

func TestHasPurchased(t *testing.T) {
	ctx := context.Background()
	h, _, _ := newHistory(t, &fakeSession{uid: "alice"})
	_, err := h.Place(ctx, []domain.CartLine{line("p1", "1", 1), line("p2", "1", 3)}, decimal.NewFromInt(4), testAddress, testPayment)
	require.NoError(t, err)

	assert.True(t, h.HasPurchased("alice", "p2"))
	assert.False(t, h.HasPurchased("alice", "p3"))
	assert.False(t, h.HasPurchased("bob", "p1"))
	assert.False(t, h.HasPurchased("", "p1"))
}

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	session := &fakeSession{uid: "alice"}
	h, st, _ := newHistory(t, session)
	for i := 0; i < 3; i++ {
		_, err := h.Place(ctx, []domain.CartLine{line("p1", "19.99", i+1)}, decimal.NewFromInt(1), testAddress, testPayment)
		require.NoError(t, err)
	}

	reloaded := Load(ctx, st, nil, WithSession(session))
	var want, got []string
	for _, o := range h.All() {
		want = append(want, o.ID)
	}
	for _, o := range reloaded.All() {
		got = append(got, o.ID)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"TECHSHOP-000003", "TECHSHOP-000002", "TECHSHOP-000001"}, got)
	assert.Len(t, reloaded.ListForCurrentUser(), 3)
	assert.Equal(t, "19.99", reloaded.All()[0].Items[0].Price.String())
}

func TestLoad_MalformedIsEmpty(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	require.NoError(t, st.Put(ctx, storage.KeyOrders, []byte(`[{"id":`)))

	h := Load(ctx, st, nil)
	assert.Empty(t, h.All())
}

func TestTimestampGenerator_Format(t *testing.T) {
	gen := TimestampGenerator{Now: testutil.NewDeterministicClock().Now}
	id := gen.Generate()

	assert.Regexp(t, regexp.MustCompile(`^TECHSHOP-\d{6}-[0-9A-F]{5}$`), id)
	assert.Equal(t, "TECHSHOP-200000", id[:15], "last six digits of the millisecond time")
}

func TestTimestampGenerator_Distinct(t *testing.T) {
	gen := TimestampGenerator{}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := gen.Generate()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestWriteCSV(t *testing.T) {
	ctx := context.Background()
	h, _, _ := newHistory(t, &fakeSession{uid: "alice"})
	_, err := h.Place(ctx, []domain.CartLine{line("p1", "100", 2), line("p2", "0.5", 3)}, decimal.RequireFromString("201.5"), testAddress, testPayment)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, h.All()))

	want := "order_id,date,status,user_id,product_id,name,price,quantity,subtotal,payment_method,city\n" +
		"TECHSHOP-000001,2025-01-15T10:00:00Z,pending,alice,p1,Product p1,100.00,2,200.00,cod,Almaty\n" +
		"TECHSHOP-000001,2025-01-15T10:00:00Z,pending,alice,p2,Product p2,0.50,3,1.50,cod,Almaty\n"
	assert.Equal(t, want, buf.String())
}
