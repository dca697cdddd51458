package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/velora/internal/auth"
	"github.com/vasiliy-maslov/velora/internal/order"
	"github.com/vasiliy-maslov/velora/internal/user"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrder(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockRepository) GetOrderByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*order.Order, error) {
	args := m.Called(ctx, userID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockRepository) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockRepository) ListOrders(ctx context.Context) ([]order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, result order.PaymentResult) error {
	args := m.Called(ctx, id, paidAt, result)
	return args.Error(0)
}

func (m *MockRepository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error {
	args := m.Called(ctx, id, deliveredAt)
	return args.Error(0)
}

type fakeOwners struct {
	users map[uuid.UUID]*user.User
}

func (f *fakeOwners) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type chanNotifier struct {
	sent chan order.Confirmation
	err  error
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{sent: make(chan order.Confirmation, 4)}
}

func (n *chanNotifier) OrderPlaced(ctx context.Context, c order.Confirmation) error {
	n.sent <- c
	return n.err
}

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func validInput() order.CreateOrderInput {
	return order.CreateOrderInput{
		OrderItems: []order.OrderItem{
			{ProductID: "p1", Name: "Linen Shirt", Image: "/img/p1.jpg", Price: 1000, Quantity: 2, Size: "M"},
			{ProductID: "p2", Name: "Canvas Tote", Image: "/img/p2.jpg", Price: 300, Quantity: 1},
		},
		ShippingAddress: order.ShippingAddress{
			Name:       "Asha Rao",
			Email:      "asha@example.com",
			Phone:      "9876543210",
			Gender:     order.GenderFemale,
			Address:    "12 MG Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
		},
		PaymentMethod: order.PaymentUPI,
		ItemsPrice:    2300,
		ShippingPrice: 0,
		TaxPrice:      0,
		TotalPrice:    2300,
	}
}

func newIdentity() auth.Identity {
	return auth.Identity{UserID: uuid.Must(uuid.NewV4()), Name: "Asha Rao", Email: "asha@example.com"}
}

func TestService_CreateOrder_Success(t *testing.T) {
	repo := new(MockRepository)
	notifier := newChanNotifier()
	caller := newIdentity()
	in := validInput()
	in.IdempotencyKey = "key-1"

	repo.On("GetOrderByIdempotencyKey", mock.Anything, caller.UserID, "key-1").Return(nil, order.ErrOrderNotFound).Once()
	repo.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
		return o.User.ID == caller.UserID && !o.IsPaid && !o.IsDelivered && o.IdempotencyKey == "key-1"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*order.Order).ID = uuid.Must(uuid.NewV4())
	}).Return(nil).Once()

	svc := order.NewService(repo, nil, notifier, order.WithClock(fixedClock))
	o, created, err := svc.CreateOrder(context.Background(), caller, in)
	require.NoError(t, err)
	assert.True(t, created)

	assert.NotEqual(t, uuid.Nil, o.ID)
	assert.Equal(t, order.StatusCreated, o.Status())
	assert.Nil(t, o.PaidAt)
	assert.Nil(t, o.DeliveredAt)
	assert.Equal(t, fixedNow, o.CreatedAt)
	assert.Equal(t, order.DefaultCountry, o.ShippingAddress.Country)
	assert.Equal(t, "M", o.OrderItems[0].Size)
	assert.Equal(t, order.Owner{ID: caller.UserID, Name: caller.Name, Email: caller.Email}, o.User)

	select {
	case c := <-notifier.sent:
		assert.Equal(t, o.ID, c.OrderID)
		assert.Equal(t, 3, c.ItemCount)
		assert.Equal(t, "asha@example.com", c.Email)
	case <-time.After(time.Second):
		t.Fatal("confirmation was not sent")
	}
	repo.AssertExpectations(t)
}

func TestService_CreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *order.CreateOrderInput)
	}{
		{name: "no_items", mutate: func(in *order.CreateOrderInput) { in.OrderItems = nil }},
		{name: "zero_quantity", mutate: func(in *order.CreateOrderInput) { in.OrderItems[1].Quantity = 0 }},
		{name: "negative_price", mutate: func(in *order.CreateOrderInput) { in.OrderItems[1].Price = -1 }},
		{name: "short_phone", mutate: func(in *order.CreateOrderInput) { in.ShippingAddress.Phone = "98765" }},
		{name: "phone_with_letters", mutate: func(in *order.CreateOrderInput) { in.ShippingAddress.Phone = "98765abcde" }},
		{name: "missing_city", mutate: func(in *order.CreateOrderInput) { in.ShippingAddress.City = " " }},
		{name: "unknown_gender", mutate: func(in *order.CreateOrderInput) { in.ShippingAddress.Gender = "Robot" }},
		{name: "unknown_method", mutate: func(in *order.CreateOrderInput) { in.PaymentMethod = "Barter" }},
		{name: "items_price_mismatch", mutate: func(in *order.CreateOrderInput) { in.ItemsPrice = 2000; in.TotalPrice = 2000 }},
		{name: "total_mismatch", mutate: func(in *order.CreateOrderInput) { in.TotalPrice = 2340 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			in := validInput()
			tt.mutate(&in)

			_, _, err := order.NewService(repo, nil, nil).CreateOrder(context.Background(), newIdentity(), in)
			require.ErrorIs(t, err, order.ErrValidation)
			repo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestService_CreateOrder_EmailFallsBackToCaller(t *testing.T) {
	repo := new(MockRepository)
	caller := newIdentity()
	in := validInput()
	in.ShippingAddress.Email = ""

	repo.On("CreateOrder", mock.Anything, mock.Anything).Return(nil).Once()

	o, _, err := order.NewService(repo, nil, nil).CreateOrder(context.Background(), caller, in)
	require.NoError(t, err)
	assert.Equal(t, caller.Email, o.ShippingAddress.Email)
}

func TestService_CreateOrder_ItemsAreSnapshot(t *testing.T) {
	repo := new(MockRepository)
	in := validInput()
	var stored *order.Order
	repo.On("CreateOrder", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*order.Order)
	}).Return(nil).Once()

	o, _, err := order.NewService(repo, nil, nil).CreateOrder(context.Background(), newIdentity(), in)
	require.NoError(t, err)

	in.OrderItems[0].Price = 99999
	in.OrderItems[0].Name = "Renamed"

	assert.Equal(t, 1000.0, o.OrderItems[0].Price)
	assert.Equal(t, "Linen Shirt", o.OrderItems[0].Name)
	require.NotNil(t, stored)
	assert.Equal(t, 1000.0, stored.OrderItems[0].Price)
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{phone: "9876543210", want: true},
		{phone: "98765", want: false},
		{phone: "98765432101", want: false},
		{phone: "98765abcde", want: false},
		{phone: "９876543210", want: false},
		{phone: "", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, order.IsValidPhone(tt.phone), tt.phone)
	}

	assert.True(t, order.IsDigits("560001", 6))
	assert.False(t, order.IsDigits("56000", 6))
	assert.False(t, order.IsDigits("56000a", 6))
}

func TestService_CreateOrder_RepeatedKeyReturnsExisting(t *testing.T) {
	repo := new(MockRepository)
	caller := newIdentity()
	in := validInput()
	in.IdempotencyKey = "key-1"
	existing := &order.Order{ID: uuid.Must(uuid.NewV4()), User: order.Owner{ID: caller.UserID}, IdempotencyKey: "key-1"}

	repo.On("GetOrderByIdempotencyKey", mock.Anything, caller.UserID, "key-1").Return(existing, nil).Once()
	notifier := newChanNotifier()

	o, created, err := order.NewService(repo, nil, notifier).CreateOrder(context.Background(), caller, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, o.ID)
	repo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	assert.Empty(t, notifier.sent)
}

func TestService_CreateOrder_LostInsertRace(t *testing.T) {
	repo := new(MockRepository)
	caller := newIdentity()
	in := validInput()
	in.IdempotencyKey = "key-1"
	winner := &order.Order{ID: uuid.Must(uuid.NewV4()), User: order.Owner{ID: caller.UserID}}

	repo.On("GetOrderByIdempotencyKey", mock.Anything, caller.UserID, "key-1").Return(nil, order.ErrOrderNotFound).Once()
	repo.On("CreateOrder", mock.Anything, mock.Anything).Return(order.ErrDuplicateIdempotencyKey).Once()
	repo.On("GetOrderByIdempotencyKey", mock.Anything, caller.UserID, "key-1").Return(winner, nil).Once()

	o, created, err := order.NewService(repo, nil, nil).CreateOrder(context.Background(), caller, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, o.ID)
	repo.AssertExpectations(t)
}

func TestService_CreateOrder_NotifierFailureIsIgnored(t *testing.T) {
	repo := new(MockRepository)
	notifier := newChanNotifier()
	notifier.err = errors.New("broker down")
	repo.On("CreateOrder", mock.Anything, mock.Anything).Return(nil).Once()

	_, _, err := order.NewService(repo, nil, notifier).CreateOrder(context.Background(), newIdentity(), validInput())
	require.NoError(t, err)

	select {
	case <-notifier.sent:
	case <-time.After(time.Second):
		t.Fatal("notifier was not called")
	}
}

func TestService_GetOrderByID(t *testing.T) {
	owner := newIdentity()
	other := newIdentity()
	admin := auth.Identity{UserID: uuid.Must(uuid.NewV4()), IsAdmin: true}
	orderID := uuid.Must(uuid.NewV4())
	owners := &fakeOwners{users: map[uuid.UUID]*user.User{
		owner.UserID: {ID: owner.UserID, Name: "Asha Rao", Email: "asha@example.com"},
	}}

	tests := []struct {
		name    string
		caller  auth.Identity
		repoErr error
		wantErr error
	}{
		{name: "owner", caller: owner},
		{name: "admin", caller: admin},
		{name: "stranger", caller: other, wantErr: order.ErrForbidden},
		{name: "missing", caller: owner, repoErr: order.ErrOrderNotFound, wantErr: order.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tt.repoErr != nil {
				repo.On("GetOrderByID", mock.Anything, orderID).Return(nil, tt.repoErr).Once()
			} else {
				repo.On("GetOrderByID", mock.Anything, orderID).Return(&order.Order{ID: orderID, User: order.Owner{ID: owner.UserID}}, nil).Once()
			}

			o, err := order.NewService(repo, owners, nil).GetOrderByID(context.Background(), tt.caller, orderID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "asha@example.com", o.User.Email)
			assert.Equal(t, "Asha Rao", o.User.Name)
		})
	}
}

func TestService_GetOrdersByUserID_AttachesOwner(t *testing.T) {
	repo := new(MockRepository)
	userID := uuid.Must(uuid.NewV4())
	owners := &fakeOwners{users: map[uuid.UUID]*user.User{userID: {ID: userID, Name: "Asha", Email: "asha@example.com"}}}
	repo.On("GetOrdersByUserID", mock.Anything, userID).Return([]order.Order{
		{ID: uuid.Must(uuid.NewV4()), User: order.Owner{ID: userID}},
		{ID: uuid.Must(uuid.NewV4()), User: order.Owner{ID: userID}},
	}, nil).Once()

	orders, err := order.NewService(repo, owners, nil).GetOrdersByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, "Asha", o.User.Name)
	}
}

func TestService_ListOrders_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListOrders", mock.Anything).Return(nil, errors.New("connection reset")).Once()

	_, err := order.NewService(repo, nil, nil).ListOrders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service: failed to list orders")
}

func TestService_MarkPaid(t *testing.T) {
	owner := newIdentity()
	orderID := uuid.Must(uuid.NewV4())
	repo := new(MockRepository)
	repo.On("GetOrderByID", mock.Anything, orderID).Return(&order.Order{
		ID:            orderID,
		User:          order.Owner{ID: owner.UserID},
		PaymentMethod: order.PaymentCard,
	}, nil).Once()

	wantResult := order.PaymentResult{
		ID:           "Manual",
		Status:       "Completed",
		UpdateTime:   fixedNow.Format(time.RFC3339),
		EmailAddress: owner.Email,
	}
	repo.On("MarkPaid", mock.Anything, orderID, fixedNow, wantResult).Return(nil).Once()

	o, err := order.NewService(repo, nil, nil, order.WithClock(fixedClock)).
		MarkPaid(context.Background(), owner, orderID, order.PaymentDetails{})
	require.NoError(t, err)

	assert.True(t, o.IsPaid)
	require.NotNil(t, o.PaidAt)
	assert.Equal(t, fixedNow, *o.PaidAt)
	assert.Equal(t, &wantResult, o.PaymentResult)
	assert.Equal(t, order.StatusPaid, o.Status())
	repo.AssertExpectations(t)
}

func TestService_MarkPaid_EmailFallback(t *testing.T) {
	ownerID := uuid.Must(uuid.NewV4())
	admin := auth.Identity{UserID: uuid.Must(uuid.NewV4()), IsAdmin: true}
	orderID := uuid.Must(uuid.NewV4())
	repo := new(MockRepository)
	repo.On("GetOrderByID", mock.Anything, orderID).Return(&order.Order{ID: orderID, User: order.Owner{ID: ownerID}}, nil).Once()
	repo.On("MarkPaid", mock.Anything, orderID, fixedNow, mock.MatchedBy(func(r order.PaymentResult) bool {
		return r.EmailAddress == order.FallbackPaymentEmail && r.ID == "txn-9"
	})).Return(nil).Once()

	_, err := order.NewService(repo, &fakeOwners{}, nil, order.WithClock(fixedClock)).
		MarkPaid(context.Background(), admin, orderID, order.PaymentDetails{ID: "txn-9"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_MarkPaid_Rejections(t *testing.T) {
	owner := newIdentity()
	orderID := uuid.Must(uuid.NewV4())
	paidAt := fixedNow.Add(-time.Hour)

	tests := []struct {
		name    string
		caller  auth.Identity
		stored  *order.Order
		repoErr error
		markErr error
		wantErr error
	}{
		{name: "missing", caller: owner, repoErr: order.ErrOrderNotFound, wantErr: order.ErrOrderNotFound},
		{
			name:    "stranger",
			caller:  newIdentity(),
			stored:  &order.Order{ID: orderID, User: order.Owner{ID: owner.UserID}},
			wantErr: order.ErrForbidden,
		},
		{
			name:    "already_paid",
			caller:  owner,
			stored:  &order.Order{ID: orderID, User: order.Owner{ID: owner.UserID}, IsPaid: true, PaidAt: &paidAt},
			wantErr: order.ErrAlreadyPaid,
		},
		{
			name:    "lost_race",
			caller:  owner,
			stored:  &order.Order{ID: orderID, User: order.Owner{ID: owner.UserID}},
			markErr: order.ErrAlreadyPaid,
			wantErr: order.ErrAlreadyPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tt.repoErr != nil {
				repo.On("GetOrderByID", mock.Anything, orderID).Return(nil, tt.repoErr).Once()
			} else {
				repo.On("GetOrderByID", mock.Anything, orderID).Return(tt.stored, nil).Once()
			}
			repo.On("MarkPaid", mock.Anything, orderID, mock.Anything, mock.Anything).Return(tt.markErr).Maybe()

			_, err := order.NewService(repo, nil, nil).MarkPaid(context.Background(), tt.caller, orderID, order.PaymentDetails{})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_MarkDelivered(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())
	paidAt := fixedNow.Add(-time.Hour)

	tests := []struct {
		name      string
		stored    *order.Order
		wantErr   error
		wantWrite bool
	}{
		{
			name:      "paid_card",
			stored:    &order.Order{ID: orderID, PaymentMethod: order.PaymentCard, IsPaid: true, PaidAt: &paidAt},
			wantWrite: true,
		},
		{
			name:      "unpaid_cash_on_delivery",
			stored:    &order.Order{ID: orderID, PaymentMethod: order.PaymentCashOnDelivery},
			wantWrite: true,
		},
		{
			name:    "unpaid_upi",
			stored:  &order.Order{ID: orderID, PaymentMethod: order.PaymentUPI},
			wantErr: order.ErrNotPaid,
		},
		{
			name:    "already_delivered",
			stored:  &order.Order{ID: orderID, PaymentMethod: order.PaymentCard, IsPaid: true, PaidAt: &paidAt, IsDelivered: true, DeliveredAt: &paidAt},
			wantErr: order.ErrAlreadyDelivered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("GetOrderByID", mock.Anything, orderID).Return(tt.stored, nil).Once()
			if tt.wantWrite {
				repo.On("MarkDelivered", mock.Anything, orderID, fixedNow).Return(nil).Once()
			}

			o, err := order.NewService(repo, nil, nil, order.WithClock(fixedClock)).MarkDelivered(context.Background(), orderID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.True(t, o.IsDelivered)
			assert.Equal(t, fixedNow, *o.DeliveredAt)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_CashOnDeliveryPaidAfterDelivery(t *testing.T) {
	admin := auth.Identity{UserID: uuid.Must(uuid.NewV4()), IsAdmin: true}
	orderID := uuid.Must(uuid.NewV4())
	deliveredAt := fixedNow.Add(-time.Hour)
	repo := new(MockRepository)
	repo.On("GetOrderByID", mock.Anything, orderID).Return(&order.Order{
		ID:            orderID,
		PaymentMethod: order.PaymentCashOnDelivery,
		IsDelivered:   true,
		DeliveredAt:   &deliveredAt,
	}, nil).Once()
	repo.On("MarkPaid", mock.Anything, orderID, fixedNow, mock.Anything).Return(nil).Once()

	o, err := order.NewService(repo, nil, nil, order.WithClock(fixedClock)).
		MarkPaid(context.Background(), admin, orderID, order.PaymentDetails{})
	require.NoError(t, err)
	assert.True(t, o.IsPaid)
	assert.Equal(t, order.StatusDelivered, o.Status())
}

func TestService_Track(t *testing.T) {
	ownerID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())
	stored := func() *order.Order {
		return &order.Order{
			ID:         orderID,
			User:       order.Owner{ID: ownerID},
			OrderItems: []order.OrderItem{{ProductID: "p1", Name: "Shirt", Price: 100, Quantity: 1}},
			ShippingAddress: order.ShippingAddress{
				Email:   "ship@example.com",
				Address: "12 MG Road",
				Phone:   "9876543210",
			},
			TotalPrice: 140,
			CreatedAt:  fixedNow,
		}
	}
	owners := &fakeOwners{users: map[uuid.UUID]*user.User{ownerID: {ID: ownerID, Email: "owner@example.com"}}}

	t.Run("shipping_email_case_insensitive", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetOrderByID", mock.Anything, orderID).Return(stored(), nil).Once()

		view, err := order.NewService(repo, owners, nil).Track(context.Background(), orderID.String(), "  SHIP@example.com ")
		require.NoError(t, err)
		assert.Equal(t, orderID, view.ID)
		assert.Equal(t, 140.0, view.TotalPrice)
		assert.Len(t, view.OrderItems, 1)
	})

	t.Run("owner_email", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetOrderByID", mock.Anything, orderID).Return(stored(), nil).Once()

		_, err := order.NewService(repo, owners, nil).Track(context.Background(), orderID.String(), "Owner@Example.com")
		require.NoError(t, err)
	})

	t.Run("missing_input", func(t *testing.T) {
		svc := order.NewService(new(MockRepository), owners, nil)
		_, err := svc.Track(context.Background(), "", "a@b.c")
		require.ErrorIs(t, err, order.ErrTrackingInput)
		_, err = svc.Track(context.Background(), orderID.String(), " ")
		require.ErrorIs(t, err, order.ErrTrackingInput)
	})

	t.Run("uniform_failures", func(t *testing.T) {
		repo := new(MockRepository)
		unknown := uuid.Must(uuid.NewV4())
		repo.On("GetOrderByID", mock.Anything, unknown).Return(nil, order.ErrOrderNotFound).Once()
		repo.On("GetOrderByID", mock.Anything, orderID).Return(stored(), nil).Once()
		svc := order.NewService(repo, owners, nil)

		_, errUnknown := svc.Track(context.Background(), unknown.String(), "ship@example.com")
		_, errMismatch := svc.Track(context.Background(), orderID.String(), "someone@example.com")
		_, errMalformed := svc.Track(context.Background(), "not-an-id", "ship@example.com")

		require.ErrorIs(t, errUnknown, order.ErrTrackingUnverified)
		assert.Equal(t, errUnknown, errMismatch)
		assert.Equal(t, errUnknown, errMalformed)
	})
}
