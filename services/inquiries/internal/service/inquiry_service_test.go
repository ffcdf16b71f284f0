package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/propertyapp/property-listing/pkg/apperr"
	"github.com/propertyapp/property-listing/pkg/events"
	"github.com/propertyapp/property-listing/pkg/notify"
	"github.com/propertyapp/property-listing/services/inquiries/internal/domain"
)

const (
	customerID  int64 = 1
	sellerID    int64 = 2
	otherSeller int64 = 3
	otherBuyer  int64 = 4
	propertyID  int64 = 10
)

var t0 = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc        InquiryService
	repo       *memoryInquiryRepo
	dispatcher *recordingDispatcher
	publisher  *recordingPublisher
	now        *time.Time
}

func newFixture() *fixture {
	users := memoryUserRepo{
		customerID:  {ID: customerID, FullName: "Asha Rao", MobileNumber: "9876543210", UserType: domain.UserCustomer, IsActive: true},
		sellerID:    {ID: sellerID, FullName: "Vikram Shah", MobileNumber: "9123456789", UserType: domain.UserSeller, IsActive: true},
		otherSeller: {ID: otherSeller, FullName: "Meera Iyer", MobileNumber: "9000000003", UserType: domain.UserSeller, IsActive: true},
		otherBuyer:  {ID: otherBuyer, FullName: "Rohan Das", MobileNumber: "9000000004", UserType: domain.UserCustomer, IsActive: true},
	}
	properties := memoryPropertyRepo{
		propertyID: {ID: propertyID, SellerID: sellerID, Title: "2BHK in Indiranagar", IsActive: true},
	}
	f := &fixture{
		repo:       newMemoryInquiryRepo(),
		dispatcher: &recordingDispatcher{},
		publisher:  &recordingPublisher{},
	}
	f.repo.users = users
	f.repo.properties = properties
	now := t0
	f.now = &now
	f.svc = NewInquiryService(f.repo, users, properties, f.dispatcher, 3,
		WithClock(func() time.Time { return *f.now }),
		WithPublisher(f.publisher),
	)
	return f
}

func (f *fixture) create(t *testing.T) *domain.Inquiry {
	t.Helper()
	inq, err := f.svc.CreateInquiry(context.Background(), customerID, propertyID, "Is parking included?", true)
	if err != nil {
		t.Fatalf("CreateInquiry: %v", err)
	}
	return inq
}

func TestCreateInquiry_SnapshotsSellerAndNotifies(t *testing.T) {
	f := newFixture()
	inq := f.create(t)

	if inq.Status != domain.InquiryOpen {
		t.Errorf("status = %s, want OPEN", inq.Status)
	}
	if inq.SellerID != sellerID {
		t.Errorf("seller = %d, want %d", inq.SellerID, sellerID)
	}
	if !inq.InquiryDate.Equal(t0) {
		t.Errorf("inquiry date = %v, want %v", inq.InquiryDate, t0)
	}
	if want := t0.AddDate(0, 3, 0); !inq.ExpiryDate.Equal(want) {
		t.Errorf("expiry date = %v, want %v", inq.ExpiryDate, want)
	}
	if inq.ClosedDate != nil || inq.ClosingReason != nil {
		t.Error("closed fields set on OPEN inquiry")
	}

	sent := f.dispatcher.notifications()
	if len(sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(sent))
	}
	if sent[0].Recipient != "9123456789" {
		t.Errorf("recipient = %q, want seller mobile", sent[0].Recipient)
	}
	want := "New inquiry received for your property: 2BHK in Indiranagar. Customer: Asha Rao (9876543210)"
	if sent[0].Message != want {
		t.Errorf("message = %q, want %q", sent[0].Message, want)
	}
	if sent[0].Kind != notify.KindInquiryCreated || sent[0].InquiryID != inq.ID {
		t.Errorf("notification = %+v", sent[0])
	}

	if len(f.publisher.events) != 1 || f.publisher.events[0].subject != events.InquiryCreated {
		t.Errorf("events = %+v, want one %s", f.publisher.events, events.InquiryCreated)
	}
}

func TestCreateInquiry_Failures(t *testing.T) {
	tests := []struct {
		name       string
		customerID int64
		propertyID int64
		terms      bool
		kind       error
		message    string
	}{
		{"missing customer", 99, propertyID, true, apperr.ErrNotFound, "Customer not found with ID: 99"},
		{"seller as customer", sellerID, propertyID, true, apperr.ErrUnauthorized, "Only customers can create inquiries"},
		{"missing property", customerID, 77, true, apperr.ErrNotFound, "Property not found with ID: 77"},
		{"terms not accepted", customerID, propertyID, false, apperr.ErrInvalidState, "Terms and conditions must be accepted to create an inquiry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.CreateInquiry(context.Background(), tt.customerID, tt.propertyID, "", tt.terms)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want kind %v", err, tt.kind)
			}
			if got := apperr.Message(err); got != tt.message {
				t.Errorf("message = %q, want %q", got, tt.message)
			}
			if n, _ := f.repo.CountByCustomer(context.Background(), tt.customerID); n != 0 {
				t.Errorf("persisted %d inquiries", n)
			}
			if len(f.dispatcher.notifications()) != 0 {
				t.Error("notification sent for failed create")
			}
		})
	}
}

func TestCreateInquiry_NotificationFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.dispatcher.err = notify.ErrQueueFull

	inq, err := f.svc.CreateInquiry(context.Background(), customerID, propertyID, "", true)
	if err != nil {
		t.Fatalf("CreateInquiry: %v", err)
	}
	if got, _ := f.repo.GetByID(context.Background(), inq.ID); got == nil || got.Status != domain.InquiryOpen {
		t.Errorf("stored inquiry = %+v", got)
	}
}

func TestCreateInquiry_StoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.failWrite = errStoreDown

	_, err := f.svc.CreateInquiry(context.Background(), customerID, propertyID, "", true)
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want store unavailable", err)
	}
	if len(f.dispatcher.notifications()) != 0 {
		t.Error("notification sent for failed create")
	}
}

func TestCreateInquiry_AllowsDuplicates(t *testing.T) {
	f := newFixture()
	first := f.create(t)
	second := f.create(t)
	if first.ID == second.ID {
		t.Fatal("duplicate inquiries share an id")
	}
	if n, _ := f.svc.CountByCustomer(context.Background(), customerID); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestUpdateStatus_CloseByOwner(t *testing.T) {
	tests := []struct {
		name    string
		reason  string
		message string
	}{
		{"with reason", "Sold", "Your inquiry for property '2BHK in Indiranagar' has been closed. Reason: Sold"},
		{"without reason", "", "Your inquiry for property '2BHK in Indiranagar' has been closed."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			inq := f.create(t)
			closeAt := t0.Add(48 * time.Hour)
			*f.now = closeAt

			got, err := f.svc.UpdateStatus(context.Background(), inq.ID, sellerID, domain.InquiryClosed, tt.reason)
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if got.Status != domain.InquiryClosed {
				t.Errorf("status = %s", got.Status)
			}
			if got.ClosedDate == nil || !got.ClosedDate.Equal(closeAt) {
				t.Errorf("closed date = %v, want %v", got.ClosedDate, closeAt)
			}
			if got.ClosingReason == nil || *got.ClosingReason != tt.reason {
				t.Errorf("closing reason = %v, want %q", got.ClosingReason, tt.reason)
			}
			if !got.ExpiryDate.Equal(inq.ExpiryDate) {
				t.Error("expiry date changed on close")
			}

			sent := f.dispatcher.notifications()
			if len(sent) != 2 {
				t.Fatalf("notifications = %d, want 2", len(sent))
			}
			if sent[1].Recipient != "9876543210" || sent[1].Message != tt.message {
				t.Errorf("customer notification = %+v, want message %q", sent[1], tt.message)
			}
		})
	}
}

func TestUpdateStatus_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(f *fixture, id int64)
		seller  int64
		status  domain.InquiryStatus
		reason  string
		kind    error
	}{
		{"non-owner seller", nil, otherSeller, domain.InquiryClosed, "", apperr.ErrUnauthorized},
		{"customer id as seller", nil, customerID, domain.InquiryClosed, "", apperr.ErrUnauthorized},
		{"request expired", nil, sellerID, domain.InquiryExpired, "", apperr.ErrInvalidState},
		{"request open", nil, sellerID, domain.InquiryOpen, "", apperr.ErrInvalidState},
		{"reason too long", nil, sellerID, domain.InquiryClosed, strings.Repeat("x", 501), apperr.ErrValidation},
		{"already closed", func(f *fixture, id int64) {
			if _, err := f.svc.UpdateStatus(context.Background(), id, sellerID, domain.InquiryClosed, "Sold"); err != nil {
				panic(err)
			}
		}, sellerID, domain.InquiryClosed, "", apperr.ErrInvalidState},
		{"already expired", func(f *fixture, id int64) {
			if _, err := f.svc.SweepExpired(context.Background(), t0.AddDate(0, 4, 0)); err != nil {
				panic(err)
			}
		}, sellerID, domain.InquiryClosed, "", apperr.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			inq := f.create(t)
			if tt.arrange != nil {
				tt.arrange(f, inq.ID)
			}
			before, _ := f.repo.GetByID(context.Background(), inq.ID)
			notified := len(f.dispatcher.notifications())

			_, err := f.svc.UpdateStatus(context.Background(), inq.ID, tt.seller, tt.status, tt.reason)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want kind %v", err, tt.kind)
			}

			after, _ := f.repo.GetByID(context.Background(), inq.ID)
			if after.Status != before.Status {
				t.Errorf("status changed %s -> %s", before.Status, after.Status)
			}
			if len(f.dispatcher.notifications()) != notified {
				t.Error("notification sent for rejected update")
			}
		})
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.UpdateStatus(context.Background(), 404, sellerID, domain.InquiryClosed, "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if got := apperr.Message(err); got != "Inquiry not found with ID: 404" {
		t.Errorf("message = %q", got)
	}
}

func TestUpdateStatus_ConcurrentClosesSucceedOnce(t *testing.T) {
	f := newFixture()
	inq := f.create(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.UpdateStatus(context.Background(), inq.ID, sellerID, domain.InquiryClosed, "Sold"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("successful closes = %d, want 1", wins)
	}
}

func TestSweepExpired(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	old := f.create(t)

	*f.now = t0.Add(24 * time.Hour)
	fresh := f.create(t)
	closed := f.create(t)
	if _, err := f.svc.UpdateStatus(ctx, closed.ID, sellerID, domain.InquiryClosed, "Sold"); err != nil {
		t.Fatal(err)
	}
	notified := len(f.dispatcher.notifications())

	// Exactly at expiry the inquiry is not yet overdue
	if n, err := f.svc.SweepExpired(ctx, old.ExpiryDate); err != nil || n != 0 {
		t.Fatalf("sweep at expiry = %d, %v; want 0", n, err)
	}

	sweepAt := old.ExpiryDate.Add(time.Second)
	n, err := f.svc.SweepExpired(ctx, sweepAt)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("expired = %d, want 1", n)
	}
	if n, _ := f.svc.SweepExpired(ctx, sweepAt); n != 0 {
		t.Errorf("second sweep expired %d, want 0", n)
	}

	for id, want := range map[int64]domain.InquiryStatus{
		old.ID:    domain.InquiryExpired,
		fresh.ID:  domain.InquiryOpen,
		closed.ID: domain.InquiryClosed,
	} {
		got, _ := f.svc.GetInquiry(ctx, id)
		if got.Status != want {
			t.Errorf("inquiry %d status = %s, want %s", id, got.Status, want)
		}
		if want == domain.InquiryExpired && (got.ClosedDate != nil || got.ClosingReason != nil) {
			t.Errorf("expired inquiry %d has closed fields", id)
		}
	}

	if len(f.dispatcher.notifications()) != notified {
		t.Error("sweep sent notifications")
	}
}

func TestSweepExpired_ConcurrentRunsTransitionOnce(t *testing.T) {
	f := newFixture()
	for i := 0; i < 20; i++ {
		f.create(t)
	}
	sweepAt := t0.AddDate(0, 3, 1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var total int64
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, _ := f.svc.SweepExpired(context.Background(), sweepAt)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != 20 {
		t.Errorf("total transitions = %d, want 20", total)
	}
}

func TestSweepExpired_StoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.failWrite = errStoreDown
	if _, err := f.svc.SweepExpired(context.Background(), t0); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want store unavailable", err)
	}
}

func TestListings_NewestFirstWithStatusFilter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		*f.now = t0.Add(time.Duration(i) * time.Hour)
		ids = append(ids, f.create(t).ID)
	}
	if _, err := f.svc.UpdateStatus(ctx, ids[1], sellerID, domain.InquiryClosed, ""); err != nil {
		t.Fatal(err)
	}

	all, err := f.svc.ListBySeller(ctx, sellerID, domain.InquiryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("order = %v, want newest first", inquiryIDs(all))
	}

	open := domain.InquiryOpen
	openOnly, _ := f.svc.ListByProperty(ctx, propertyID, domain.InquiryFilter{Status: &open})
	if len(openOnly) != 2 {
		t.Errorf("open inquiries = %v, want 2", inquiryIDs(openOnly))
	}

	byCustomer, _ := f.svc.ListByCustomer(ctx, customerID, domain.InquiryFilter{})
	if len(byCustomer) != 3 {
		t.Errorf("customer inquiries = %d, want 3", len(byCustomer))
	}

	if n, _ := f.svc.CountOpenBySeller(ctx, sellerID); n != 2 {
		t.Errorf("open count = %d, want 2", n)
	}
}

func TestCounts_UnknownUser(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.CountOpenBySeller(context.Background(), 99); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("CountOpenBySeller err = %v, want not found", err)
	}
	if _, err := f.svc.CountByCustomer(context.Background(), 99); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("CountByCustomer err = %v, want not found", err)
	}
}

// A customer inquires, the seller closes it with a reason, and the customer
// hears about it exactly once.
func TestInquiryLifecycle_CreateThenClose(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	inq := f.create(t)
	*f.now = t0.Add(time.Hour)
	closed, err := f.svc.UpdateStatus(ctx, inq.ID, sellerID, domain.InquiryClosed, "Sold")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if closed.Status != domain.InquiryClosed || closed.ClosedDate == nil || *closed.ClosingReason != "Sold" {
		t.Errorf("closed inquiry = %+v", closed)
	}

	toCustomer := 0
	for _, n := range f.dispatcher.notifications() {
		if n.Recipient == "9876543210" {
			toCustomer++
		}
	}
	if toCustomer != 1 {
		t.Errorf("customer notifications = %d, want 1", toCustomer)
	}
}

// An inquiry left open past its three month window is expired silently.
func TestInquiryLifecycle_ExpiresWithoutNotice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	inq := f.create(t)
	before := len(f.dispatcher.notifications())

	n, err := f.svc.SweepExpired(ctx, t0.AddDate(0, 3, 1))
	if err != nil || n != 1 {
		t.Fatalf("SweepExpired = %d, %v; want 1", n, err)
	}
	got, _ := f.svc.GetInquiry(ctx, inq.ID)
	if got.Status != domain.InquiryExpired {
		t.Errorf("status = %s, want EXPIRED", got.Status)
	}
	if len(f.dispatcher.notifications()) != before {
		t.Error("expiry sent a notification")
	}
}

func TestListByProperty_PartyFilterAppliesBeforePaging(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	own := f.create(t)
	for i := 1; i <= 25; i++ {
		*f.now = t0.Add(time.Duration(i) * time.Minute)
		if _, err := f.svc.CreateInquiry(ctx, otherBuyer, propertyID, "", true); err != nil {
			t.Fatal(err)
		}
	}

	party := customerID
	mine, err := f.svc.ListByProperty(ctx, propertyID, domain.InquiryFilter{PartyID: &party, Limit: 20})
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != own.ID {
		t.Errorf("party page = %v, want [%d]", inquiryIDs(mine), own.ID)
	}

	seller := sellerID
	sellerPage, _ := f.svc.ListByProperty(ctx, propertyID, domain.InquiryFilter{PartyID: &seller, Limit: 20})
	if len(sellerPage) != 20 {
		t.Errorf("seller page = %d rows, want 20", len(sellerPage))
	}
	rest, _ := f.svc.ListByProperty(ctx, propertyID, domain.InquiryFilter{PartyID: &seller, Limit: 20, Offset: 20})
	if len(rest) != 6 || rest[len(rest)-1].ID != own.ID {
		t.Errorf("seller second page = %v, want 6 rows ending with %d", inquiryIDs(rest), own.ID)
	}
}

func TestStatusReport_CountsPerCustomer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.create(t)
	b := f.create(t)
	f.create(t)
	if _, err := f.svc.UpdateStatus(ctx, a.ID, sellerID, domain.InquiryClosed, "Sold"); err != nil {
		t.Fatal(err)
	}
	f.repo.set(func() domain.Inquiry {
		inq, _ := f.repo.GetByID(ctx, b.ID)
		inq.Status = domain.InquiryExpired
		return *inq
	}())

	reports, err := f.svc.StatusReport(ctx)
	if err != nil {
		t.Fatalf("StatusReport: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want one per customer", len(reports))
	}
	got := reports[0]
	want := domain.CustomerStatusReport{
		CustomerID: customerID, FullName: "Asha Rao", ContactNo: "9876543210", Address: domain.NotAvailable,
		TotalInquiries: 3, OpenInquiries: 1, ClosedInquiries: 1, ExpiredInquiries: 1,
	}
	if got != want {
		t.Errorf("report = %+v, want %+v", got, want)
	}
	if reports[1].CustomerID != otherBuyer || reports[1].TotalInquiries != 0 {
		t.Errorf("customer without inquiries = %+v", reports[1])
	}
}

func TestClosedReport_ListsClosedInquiries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := f.create(t)
	second := f.create(t)
	f.create(t)
	*f.now = t0.Add(time.Hour)
	if _, err := f.svc.UpdateStatus(ctx, first.ID, sellerID, domain.InquiryClosed, "Sold"); err != nil {
		t.Fatal(err)
	}
	*f.now = t0.Add(2 * time.Hour)
	if _, err := f.svc.UpdateStatus(ctx, second.ID, sellerID, domain.InquiryClosed, ""); err != nil {
		t.Fatal(err)
	}

	reports, err := f.svc.ClosedReport(ctx)
	if err != nil {
		t.Fatalf("ClosedReport: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}
	closed := reports[0].ClosedInquiries
	if len(closed) != 2 {
		t.Fatalf("closed = %+v, want 2 entries", closed)
	}
	if closed[0].InquiryID != second.ID || closed[0].ClosingReason != domain.NotAvailable {
		t.Errorf("newest closed = %+v, want inquiry %d with N/A reason", closed[0], second.ID)
	}
	if closed[1].PropertyTitle != "2BHK in Indiranagar" || closed[1].ClosingReason != "Sold" || !closed[1].ClosedDate.Equal(t0.Add(time.Hour)) {
		t.Errorf("older closed = %+v", closed[1])
	}
	if reports[1].ClosedInquiries == nil || len(reports[1].ClosedInquiries) != 0 {
		t.Errorf("customer without closed inquiries = %+v", reports[1])
	}
}

func TestReports_StoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.failRead = errStoreDown
	if _, err := f.svc.StatusReport(context.Background()); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("StatusReport err = %v, want store unavailable", err)
	}
	if _, err := f.svc.ClosedReport(context.Background()); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("ClosedReport err = %v, want store unavailable", err)
	}
}

func inquiryIDs(list []domain.Inquiry) []int64 {
	ids := make([]int64, len(list))
	for i, inq := range list {
		ids[i] = inq.ID
	}
	return ids
}
