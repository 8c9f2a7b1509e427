package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/bizerror"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/dto"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/model"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	svc         SaleService
	cashboxSvc  CashboxService
	cashboxRepo *stubCashboxRepo
	productRepo *stubProductRepo
	movRepo     *stubMovementRepo
	saleRepo    *stubSaleRepo
	clientRepo  *stubClientRepo
	installRepo *stubInstallmentRepo
	tc          tenant.Context
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	f := &saleFixture{
		cashboxRepo: newStubCashboxRepo(),
		productRepo: newStubProductRepo(),
		movRepo:     &stubMovementRepo{},
		saleRepo:    newStubSaleRepo(),
		clientRepo:  newStubClientRepo(),
		installRepo: newStubInstallmentRepo(),
		tc:          testTenant(),
	}
	inventory := NewInventoryService(f.productRepo, f.movRepo, nil)
	credit := NewCreditService(f.installRepo, f.clientRepo, f.cashboxRepo)
	f.svc = NewSaleService(f.saleRepo, inventory, credit, f.cashboxRepo, f.productRepo, f.installRepo, nil)
	f.cashboxSvc = NewCashboxService(f.cashboxRepo)
	return f
}

func (f *saleFixture) openSession(t *testing.T) {
	t.Helper()
	_, err := f.cashboxSvc.Open(context.Background(), f.tc, dto.OpenCashboxRequest{OpeningAmount: dec("100")})
	require.NoError(t, err)
}

func (f *saleFixture) addProduct(barcode, description, price string, stock int) *model.Product {
	p := &model.Product{
		CompanyID:   f.tc.CompanyID,
		Description: description,
		SalePrice:   dec(price),
		Stock:       stock,
		MinStock:    1,
	}
	if barcode != "" {
		p.Barcode = &barcode
	}
	return f.productRepo.add(p)
}

func (f *saleFixture) addClient(limit string) *model.Client {
	c := &model.Client{
		CompanyID:   f.tc.CompanyID,
		BranchID:    f.tc.BranchID,
		Name:        "Cliente Test",
		CreditLimit: dec(limit),
		CurrentDebt: decimal.Zero,
		Active:      true,
	}
	_ = f.clientRepo.Create(context.Background(), c)
	return c
}

func TestSettleSaleCash(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	p := f.addProduct("7750001", "Gaseosa 1L", "5.00", 10)

	resp, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "7750001", Quantity: 3, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("15.00")}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(dec("15.00")))
	assert.Equal(t, model.SaleCompleted, resp.Status)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Gaseosa 1L", resp.Items[0].Product)

	// Stock dropped and the ledger carries the paired movement with the
	// settled balances.
	assert.Equal(t, 7, f.productRepo.products[p.ID].Stock)
	require.Len(t, f.movRepo.movements, 1)
	assert.Equal(t, -3, f.movRepo.movements[0].Delta)
	assert.Equal(t, model.MovementSale, f.movRepo.movements[0].Reason)
	assert.Equal(t, 10, f.movRepo.movements[0].StockBefore)
	assert.Equal(t, 7, f.movRepo.movements[0].StockAfter)

	// Timestamps go out as UTC RFC 3339.
	created, err := time.Parse(time.RFC3339, resp.CreatedAt)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, created.Location())

	// The payment landed in the open session.
	report, err := f.cashboxSvc.GetOpenSession(context.Background(), f.tc)
	require.NoError(t, err)
	assert.True(t, report.Expected.Cash.Equal(dec("115.00")))
}

func TestSettleSaleNoOpenSession(t *testing.T) {
	f := newSaleFixture(t)
	f.addProduct("7750001", "Gaseosa 1L", "5.00", 10)

	_, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "7750001", Quantity: 1, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("5.00")}},
	})
	assert.ErrorIs(t, err, bizerror.ErrNoOpenCashbox)
}

func TestSettleSalePaymentMismatch(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	p := f.addProduct("7750001", "Gaseosa 1L", "5.00", 10)

	_, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "7750001", Quantity: 2, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("9.00")}},
	})
	assert.ErrorIs(t, err, bizerror.ErrPaymentMismatch)

	// Nothing moved.
	assert.Equal(t, 10, f.productRepo.products[p.ID].Stock)
	assert.Empty(t, f.saleRepo.sales)
}

func TestSettleSaleInsufficientStock(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("7750001", "Gaseosa 1L", "5.00", 2)

	_, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "7750001", Quantity: 3, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("15.00")}},
	})
	var insufficient *bizerror.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "Gaseosa 1L", insufficient.Product)
}

func TestSettleSaleResolvesByDescription(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("", "Pan frances", "0.50", 100)

	resp, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Description: "Pan frances", Quantity: 10, UnitPrice: dec("0.50")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("5.00")}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(dec("5.00")))
}

func TestSettleSaleAmbiguousDescription(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("", "Gaseosa", "5.00", 10)
	f.addProduct("", "Gaseosa", "6.00", 10)

	_, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Description: "Gaseosa", Quantity: 1, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("5.00")}},
	})
	var ambiguous *bizerror.AmbiguousProductError
	assert.ErrorAs(t, err, &ambiguous)
}

func TestSettleSaleUnknownBarcode(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)

	_, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "0000000", Quantity: 1, UnitPrice: dec("1.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("1.00")}},
	})
	var notFound *bizerror.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "0000000", notFound.Identifier)
}

// A scanned code that matches nothing falls through to the description, the
// same path a code-less line takes.
func TestSettleSaleBarcodeMissFallsBackToDescription(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("7750001", "Gaseosa 1L", "5.00", 10)

	resp, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "999", Description: "Gaseosa 1L", Quantity: 2, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("10.00")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Gaseosa 1L", resp.Items[0].Product)
}

func TestSettleSaleBarcodeAndDescriptionBothMiss(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("7750001", "Gaseosa 1L", "5.00", 10)

	_, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "999", Description: "Yogurt", Quantity: 1, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("5.00")}},
	})
	var notFound *bizerror.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Yogurt", notFound.Identifier)
}

func TestSettleSaleZeroPriceFallsBackToCatalog(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("7750001", "Gaseosa 1L", "5.00", 10)

	resp, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "7750001", Quantity: 2, UnitPrice: decimal.Zero}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("10.00")}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Items[0].UnitPrice.Equal(dec("5.00")))
}

func TestSettleSaleSplitPayment(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("7750001", "Gaseosa 1L", "5.00", 10)

	_, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items: []dto.CartItemRequest{{Barcode: "7750001", Quantity: 4, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{
			{Method: model.MethodCash, Amount: dec("12.00")},
			{Method: model.MethodCard, Amount: dec("8.00")},
		},
	})
	require.NoError(t, err)

	report, err := f.cashboxSvc.GetOpenSession(context.Background(), f.tc)
	require.NoError(t, err)
	assert.True(t, report.Expected.Cash.Equal(dec("112.00")))
	assert.True(t, report.Expected.Card.Equal(dec("8.00")))
}

func TestSettleSaleCreditLeg(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("7750001", "Gaseosa 1L", "10.00", 10)
	client := f.addClient("500")
	clientID := client.ID.String()

	_, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items: []dto.CartItemRequest{{Barcode: "7750001", Quantity: 10, UnitPrice: dec("10.00")}},
		Payments: []dto.PaymentRequest{
			{Method: model.MethodCash, Amount: dec("40.00")},
			{Method: model.MethodCredit, Amount: dec("60.00")},
		},
		ClientID:     &clientID,
		Installments: 3,
		IntervalDays: 15,
	})
	require.NoError(t, err)

	// Only the cash leg reached the register; credit became debt plus a plan.
	report, err := f.cashboxSvc.GetOpenSession(context.Background(), f.tc)
	require.NoError(t, err)
	assert.True(t, report.Expected.Cash.Equal(dec("140.00")))

	assert.True(t, f.clientRepo.clients[client.ID].CurrentDebt.Equal(dec("60.00")))
	assert.Len(t, f.installRepo.installments, 3)

	sum := decimal.Zero
	for _, inst := range f.installRepo.installments {
		sum = sum.Add(inst.AmountDue)
		assert.Equal(t, model.InstallmentPending, inst.Status)
	}
	assert.True(t, sum.Equal(dec("60.00")))
}

func TestSettleSaleCreditWithoutClient(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("7750001", "Gaseosa 1L", "10.00", 10)

	_, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "7750001", Quantity: 1, UnitPrice: dec("10.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCredit, Amount: dec("10.00")}},
	})
	assert.Error(t, err)
}

func TestSettleSaleCreditLimitExceeded(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	p := f.addProduct("7750001", "Gaseosa 1L", "10.00", 100)
	client := f.addClient("50")
	clientID := client.ID.String()

	_, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "7750001", Quantity: 10, UnitPrice: dec("10.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCredit, Amount: dec("100.00")}},
		ClientID: &clientID,
	})
	require.Error(t, err)

	// The rejected sale wrote nothing.
	assert.Equal(t, 100, f.productRepo.products[p.ID].Stock)
	assert.True(t, f.clientRepo.clients[client.ID].CurrentDebt.IsZero())
	assert.Empty(t, f.installRepo.installments)
}

// Two carts race over the last units; the guarded decrement lets the stock go
// to exactly one of them.
func TestSettleSaleConcurrentStock(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	p := f.addProduct("7750001", "Gaseosa 1L", "5.00", 10)

	req := dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "7750001", Quantity: 6, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("30.00")}},
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SettleSale(context.Background(), f.tc, req)
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		var insufficient *bizerror.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		short++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, 4, f.productRepo.products[p.ID].Stock)
}

func TestVoidSaleRestoresStock(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	p := f.addProduct("7750001", "Gaseosa 1L", "5.00", 10)

	resp, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "7750001", Quantity: 3, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("15.00")}},
	})
	require.NoError(t, err)
	saleID := mustUUID(t, resp.ID)

	require.NoError(t, f.svc.VoidSale(context.Background(), f.tc, saleID, "cliente devolvió el producto"))

	assert.Equal(t, 10, f.productRepo.products[p.ID].Stock)
	assert.Equal(t, model.SaleCancelled, f.saleRepo.sales[saleID].Status)

	// The offsetting movement is on the ledger alongside the original.
	require.Len(t, f.movRepo.movements, 2)
	assert.Equal(t, model.MovementVoid, f.movRepo.movements[1].Reason)
	assert.Equal(t, 3, f.movRepo.movements[1].Delta)
	assert.Equal(t, 7, f.movRepo.movements[1].StockBefore)
	assert.Equal(t, 10, f.movRepo.movements[1].StockAfter)
}

func TestVoidSaleTwiceRejected(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("7750001", "Gaseosa 1L", "5.00", 10)

	resp, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "7750001", Quantity: 1, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("5.00")}},
	})
	require.NoError(t, err)
	saleID := mustUUID(t, resp.ID)

	require.NoError(t, f.svc.VoidSale(context.Background(), f.tc, saleID, "error"))

	err = f.svc.VoidSale(context.Background(), f.tc, saleID, "otra vez")
	var transition *bizerror.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestVoidCreditSaleReleasesDebt(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("7750001", "Gaseosa 1L", "10.00", 100)
	client := f.addClient("0") // limit 0 = no ceiling
	clientID := client.ID.String()

	resp, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:        []dto.CartItemRequest{{Barcode: "7750001", Quantity: 10, UnitPrice: dec("10.00")}},
		Payments:     []dto.PaymentRequest{{Method: model.MethodCredit, Amount: dec("100.00")}},
		ClientID:     &clientID,
		Installments: 4,
	})
	require.NoError(t, err)
	saleID := mustUUID(t, resp.ID)
	require.True(t, f.clientRepo.clients[client.ID].CurrentDebt.Equal(dec("100.00")))

	require.NoError(t, f.svc.VoidSale(context.Background(), f.tc, saleID, "venta registrada por error"))

	// Debt released in full; every unpaid installment capped at zero paid.
	assert.True(t, f.clientRepo.clients[client.ID].CurrentDebt.IsZero())
	for _, inst := range f.installRepo.installments {
		assert.Equal(t, model.InstallmentPaid, inst.Status)
		assert.True(t, inst.AmountDue.Equal(inst.PaidAmount))
	}
}

func TestListSalesDefaults(t *testing.T) {
	f := newSaleFixture(t)
	f.openSession(t)
	f.addProduct("7750001", "Gaseosa 1L", "5.00", 10)

	_, err := f.svc.SettleSale(context.Background(), f.tc, dto.SettleSaleRequest{
		Items:    []dto.CartItemRequest{{Barcode: "7750001", Quantity: 1, UnitPrice: dec("5.00")}},
		Payments: []dto.PaymentRequest{{Method: model.MethodCash, Amount: dec("5.00")}},
	})
	require.NoError(t, err)

	list, err := f.svc.ListSales(context.Background(), f.tc, dto.SaleFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 50, list.Limit)
}
