package repository

import (
	"context"
	"testing"
	"time"

	"promptmart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartOrder(userID uuid.UUID, now time.Time, items ...model.OrderItem) *model.Order {
	o := &model.Order{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    model.StatusCart,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.TotalPrice = model.Total(items)
	return o
}

func cartLine(p *model.Product, qty int, discounted string) model.OrderItem {
	return model.OrderItem{
		ProductID:       p.ID,
		SellerID:        p.SellerID,
		Quantity:        qty,
		Price:           p.Price,
		DiscountedPrice: decimal.RequireFromString(discounted),
		Unit:            p.Unit,
	}
}

func saveCart(t *testing.T, repo OrderRepository, order *model.Order) {
	t.Helper()
	ctx := context.Background()
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.SaveCart(ctx, tx, order))
	require.NoError(t, tx.Commit(ctx))
}

func TestOrderRepository_Cart(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	users := NewUserRepository(pool, zerolog.Nop())
	categories := NewCategoryRepository(pool, zerolog.Nop())
	products := NewProductRepository(pool, zerolog.Nop())
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	seller := seedUser(t, users, "farmer", model.RoleSeller)
	buyer := seedUser(t, users, "buyer", model.RoleCustomer)
	fruit := seedCategory(t, categories, "fruit")
	mango := seedProduct(t, products, seller.ID, fruit.ID, "MG-01", "100.00", 10)
	durian := seedProduct(t, products, seller.ID, fruit.ID, "DR-01", "300.00", 5)

	now := time.Now().UTC().Truncate(time.Microsecond)
	cart := newCartOrder(buyer.ID, now, cartLine(mango, 3, "80.00"))

	t.Run("no cart yet", func(t *testing.T) {
		got, err := repo.GetCart(ctx, buyer.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("save and load", func(t *testing.T) {
		saveCart(t, repo, cart)

		got, err := repo.GetCart(ctx, buyer.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, cart.ID, got.ID)
		assert.Equal(t, model.StatusCart, got.Status)
		require.Len(t, got.Items, 1)
		assert.Equal(t, mango.ID, got.Items[0].ProductID)
		assert.Equal(t, seller.ID, got.Items[0].SellerID)
		assert.Equal(t, 3, got.Items[0].Quantity)
		assert.True(t, decimal.RequireFromString("240").Equal(got.TotalPrice))
		assert.NotEqual(t, uuid.Nil, got.Items[0].ID)
	})

	t.Run("resave replaces lines and keeps order", func(t *testing.T) {
		cart.Items = append(cart.Items, cartLine(durian, 1, "300.00"))
		cart.TotalPrice = model.Total(cart.Items)
		cart.UpdatedAt = now.Add(time.Minute)
		saveCart(t, repo, cart)

		got, err := repo.GetCart(ctx, buyer.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		assert.Equal(t, mango.ID, got.Items[0].ProductID)
		assert.Equal(t, durian.ID, got.Items[1].ProductID)
		assert.True(t, decimal.RequireFromString("540").Equal(got.TotalPrice))
	})

	t.Run("second cart for the same buyer conflicts", func(t *testing.T) {
		other := newCartOrder(buyer.ID, now, cartLine(durian, 1, "300.00"))

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback(ctx) }()

		assert.ErrorIs(t, repo.SaveCart(ctx, tx, other), model.ErrConcurrentUpdate)
	})

	t.Run("lock cart within transaction", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback(ctx) }()

		got, err := repo.GetCartForUpdate(ctx, tx, buyer.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Len(t, got.Items, 2)
	})

	t.Run("delete", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, tx, cart.ID))
		require.NoError(t, tx.Commit(ctx))

		got, err := repo.GetCart(ctx, buyer.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		var lines int
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM order_items WHERE order_id = $1`, cart.ID).Scan(&lines))
		assert.Zero(t, lines)
	})
}

func TestOrderRepository_StateAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	users := NewUserRepository(pool, zerolog.Nop())
	categories := NewCategoryRepository(pool, zerolog.Nop())
	products := NewProductRepository(pool, zerolog.Nop())
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	farmer := seedUser(t, users, "farmer", model.RoleSeller)
	miller := seedUser(t, users, "miller", model.RoleSeller)
	buyer := seedUser(t, users, "buyer", model.RoleCustomer)
	fruit := seedCategory(t, categories, "fruit")
	mango := seedProduct(t, products, farmer.ID, fruit.ID, "MG-01", "100.00", 10)
	rice := seedProduct(t, products, miller.ID, fruit.ID, "RC-01", "40.00", 50)

	now := time.Now().UTC().Truncate(time.Microsecond)
	order := newCartOrder(buyer.ID, now, cartLine(mango, 1, "100.00"), cartLine(rice, 2, "40.00"))
	saveCart(t, repo, order)

	t.Run("update state to pending", func(t *testing.T) {
		addr := model.Address{
			Name: "Home", Phone: "0812345678", Province: "Bangkok", District: "Pathum Wan",
			Subdistrict: "Lumphini", PostalCode: "10330", Street: "1 Wireless Rd",
		}
		order.Status = model.StatusPending
		order.ShippingAddress = &addr
		order.UpdatedAt = now.Add(time.Minute)

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		locked, err := repo.GetByIDForUpdate(ctx, tx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, locked)
		order.Items = locked.Items
		require.NoError(t, repo.UpdateState(ctx, tx, order))
		require.NoError(t, tx.Commit(ctx))

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, got.Status)
		require.NotNil(t, got.ShippingAddress)
		assert.Equal(t, "Bangkok", got.ShippingAddress.Province)

		cart, err := repo.GetCart(ctx, buyer.ID)
		require.NoError(t, err)
		assert.Nil(t, cart)
	})

	t.Run("update payment fields", func(t *testing.T) {
		txID := "TXN-001"
		proof := "uploads/proof.png"
		order.Status = model.StatusWaitingConfirm
		order.TransactionID = &txID
		order.PaymentProofRef = &proof

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.UpdateState(ctx, tx, order))
		require.NoError(t, tx.Commit(ctx))

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusWaitingConfirm, got.Status)
		assert.Equal(t, "TXN-001", *got.TransactionID)
		assert.Equal(t, "uploads/proof.png", *got.PaymentProofRef)
	})

	t.Run("update missing order", func(t *testing.T) {
		missing := *order
		missing.ID = uuid.New()
		missing.Items = nil

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback(ctx) }()

		assert.ErrorIs(t, repo.UpdateState(ctx, tx, &missing), model.ErrOrderNotFound)
	})

	// A fresh cart for the same buyer is allowed once the previous one was checked out.
	cart := newCartOrder(buyer.ID, now.Add(2*time.Minute), cartLine(mango, 1, "100.00"))
	saveCart(t, repo, cart)

	t.Run("list by buyer", func(t *testing.T) {
		got, err := repo.List(ctx, OrderFilter{UserID: &buyer.ID})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, cart.ID, got[0].ID)
		assert.Equal(t, order.ID, got[1].ID)
		assert.Len(t, got[1].Items, 2)
	})

	t.Run("list by seller excludes carts", func(t *testing.T) {
		got, err := repo.List(ctx, OrderFilter{
			SellerID:      &miller.ID,
			ExcludeStatus: []model.OrderStatus{model.StatusCart},
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, order.ID, got[0].ID)

		got, err = repo.List(ctx, OrderFilter{
			SellerID:      &farmer.ID,
			ExcludeStatus: []model.OrderStatus{model.StatusCart},
		})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("list by status", func(t *testing.T) {
		status := model.StatusWaitingConfirm
		got, err := repo.List(ctx, OrderFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, order.ID, got[0].ID)
	})

	t.Run("list everything", func(t *testing.T) {
		got, err := repo.List(ctx, OrderFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("order lines survive product deletion", func(t *testing.T) {
		require.NoError(t, products.Delete(ctx, rice.ID))

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		assert.Equal(t, rice.ID, got.Items[1].ProductID)
	})
}

func TestOrderRepository_ErrorPaths(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	cleanup()

	t.Run("GetCart with closed pool", func(t *testing.T) {
		_, err := repo.GetCart(ctx, uuid.New())
		assert.Error(t, err)
	})

	t.Run("GetByID with closed pool", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.Error(t, err)
	})

	t.Run("List with closed pool", func(t *testing.T) {
		_, err := repo.List(ctx, OrderFilter{})
		assert.Error(t, err)
	})

	t.Run("BeginTx with closed pool", func(t *testing.T) {
		_, err := repo.BeginTx(ctx)
		assert.Error(t, err)
	})
}
