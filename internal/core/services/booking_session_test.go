package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/srgjo27/campsite_booking/internal/core/domain"
	"github.com/srgjo27/campsite_booking/internal/core/ports"
	"github.com/srgjo27/campsite_booking/internal/core/ports/mocks"
	"github.com/srgjo27/campsite_booking/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.data[key]
	if !ok {
		return nil, ports.ErrDraftNotFound
	}
	return blob, nil
}

func (m *memStore) Save(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = blob
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "%s = %s, want %s", field, got, want)
}

func newSession(t *testing.T, opts ...services.SessionOption) (*services.BookingSession, *mocks.Submitter) {
	t.Helper()
	submitter := mocks.NewSubmitter(t)
	return services.NewBookingSession(context.Background(), domain.DefaultCatalog(), submitter, opts...), submitter
}

func fillForSubmit(s *services.BookingSession) {
	s.SetDateRange(date("2025-06-01"), date("2025-06-04"))
	s.SetContactInfo(domain.ContactPatch{
		FullName: ptr("Ana Mora"),
		Email:    ptr("ana@example.com"),
		Phone:    ptr("+506 8888 0000"),
		Country:  ptr("Costa Rica"),
	})
}

func ptr[T any](v T) *T {
	return &v
}

func TestNewBookingSession_Defaults(t *testing.T) {
	s, _ := newSession(t)

	d := s.Draft()
	assert.Equal(t, 1, s.Step())
	assert.Equal(t, domain.GuestCounts{Adults: 2}, d.Guests)
	assert.True(t, d.Accommodation.BringOwnTent)
	assert.Empty(t, d.Accommodation.Rentals)
	assert.Empty(t, d.AddOns)
	assert.Equal(t, domain.DraftOpen, d.Status)
	assert.Nil(t, d.CheckIn)
}

func TestSetDateRange_Nights(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  *time.Time
		checkOut *time.Time
		nights   int
	}{
		{"three nights", date("2025-06-01"), date("2025-06-04"), 3},
		{"across month end", date("2025-06-29"), date("2025-07-02"), 3},
		{"same day", date("2025-06-01"), date("2025-06-01"), 0},
		{"backwards", date("2025-06-04"), date("2025-06-01"), 0},
		{"only check-in", date("2025-06-01"), nil, 0},
		{"cleared", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession(t)
			s.SetDateRange(tt.checkIn, tt.checkOut)

			d := s.Draft()
			assert.Equal(t, tt.nights, d.Nights)
			assert.Equal(t, tt.nights, s.ComputePricing().Nights)
			if tt.checkOut == nil {
				assert.Nil(t, d.CheckOut)
			}
		})
	}
}

func TestSetDateRange_IgnoresClockTime(t *testing.T) {
	s, _ := newSession(t)

	in := time.Date(2025, 6, 1, 22, 30, 0, 0, time.UTC)
	out := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
	s.SetDateRange(&in, &out)

	assert.Equal(t, 1, s.Draft().Nights)
}

func TestSetDateRange_LeavesOtherFields(t *testing.T) {
	s, _ := newSession(t)
	require.NoError(t, s.AddRentedUnit("tent-2"))
	require.NoError(t, s.ToggleAddOn("kayak"))

	s.SetDateRange(date("2025-06-01"), date("2025-06-03"))

	d := s.Draft()
	assert.Equal(t, 1, d.Accommodation.Quantity("tent-2"))
	assert.Equal(t, []string{"kayak"}, d.AddOns)
}

func TestSetGuestCounts_TrustsCaller(t *testing.T) {
	s, _ := newSession(t)

	s.SetGuestCounts(domain.GuestCounts{Adults: 0, Children: -1})

	assert.Equal(t, domain.GuestCounts{Adults: 0, Children: -1}, s.Draft().Guests)
	assert.Error(t, s.CheckStep(domain.StepGuests))
	assert.True(t, s.ComputePricing().CampsiteFee.IsZero())
}

func TestPatchGuestCounts(t *testing.T) {
	s, _ := newSession(t)

	s.PatchGuestCounts(domain.GuestCountsPatch{Children: ptr(2)})

	assert.Equal(t, domain.GuestCounts{Adults: 2, Children: 2}, s.Draft().Guests)
}

func TestComputePricing_OwnTentTwoAdults(t *testing.T) {
	s, _ := newSession(t)
	s.SetDateRange(date("2025-06-01"), date("2025-06-04"))
	s.SetGuestCounts(domain.GuestCounts{Adults: 2})
	s.SetBringOwnTent(true)

	p := s.ComputePricing()

	assertMoney(t, "150", p.CampsiteFee, "campsiteFee")
	assertMoney(t, "0", p.TentRental, "tentRental")
	assertMoney(t, "0", p.AddOns, "addOns")
	assertMoney(t, "150", p.Subtotal, "subtotal")
	assertMoney(t, "19.50", p.Taxes, "taxes")
	assertMoney(t, "169.50", p.Total, "total")
	assert.Equal(t, 3, p.Nights)
}

func TestComputePricing_RentalWithFlatAndPerPersonAddOns(t *testing.T) {
	catalog, err := domain.NewRateCatalog(
		domain.PricingConstants{CampsitePerPersonPerNight: dec("25"), TaxRate: dec("0.13")},
		[]domain.AccommodationOption{{ID: "tent-4", Capacity: 4, PricePerNight: dec("25")}},
		[]domain.AddOnOffering{
			{ID: "welcome-basket", Price: dec("20"), Basis: domain.Flat},
			{ID: "breakfast", Price: dec("12"), Basis: domain.PerPerson},
		},
	)
	require.NoError(t, err)

	s := services.NewBookingSession(context.Background(), catalog, mocks.NewSubmitter(t))
	s.SetDateRange(date("2025-06-01"), date("2025-06-04"))
	s.SetGuestCounts(domain.GuestCounts{Adults: 2, Children: 1})
	require.NoError(t, s.AddRentedUnit("tent-4"))
	require.NoError(t, s.ToggleAddOn("welcome-basket"))
	require.NoError(t, s.ToggleAddOn("breakfast"))

	p := s.ComputePricing()

	assertMoney(t, "225", p.CampsiteFee, "campsiteFee")
	assertMoney(t, "75", p.TentRental, "tentRental")
	assertMoney(t, "56", p.AddOns, "addOns")
	assertMoney(t, "356", p.Subtotal, "subtotal")
	assertMoney(t, "46.28", p.Taxes, "taxes")
	assertMoney(t, "402.28", p.Total, "total")
}

func TestComputePricing_InfantsAreFree(t *testing.T) {
	s, _ := newSession(t)
	s.SetDateRange(date("2025-06-01"), date("2025-06-02"))
	s.SetGuestCounts(domain.GuestCounts{Adults: 1, Infants: 3})
	require.NoError(t, s.ToggleAddOn("breakfast"))

	p := s.ComputePricing()

	assertMoney(t, "25", p.CampsiteFee, "campsiteFee")
	assertMoney(t, "12", p.AddOns, "addOns")
}

func TestComputePricing_IdempotentAndAdditive(t *testing.T) {
	s, _ := newSession(t)
	s.SetDateRange(date("2025-06-01"), date("2025-06-06"))
	s.SetGuestCounts(domain.GuestCounts{Adults: 3, Children: 2, Infants: 1})
	require.NoError(t, s.AddRentedUnit("tent-6"))
	require.NoError(t, s.AddRentedUnit("tent-2"))
	require.NoError(t, s.ToggleAddOn("bonfire"))
	require.NoError(t, s.ToggleAddOn("snorkel"))
	require.NoError(t, s.ToggleAddOn("wildlife"))

	first := s.ComputePricing()
	second := s.ComputePricing()

	assert.Equal(t, first, second)
	assert.True(t, first.Subtotal.Equal(first.CampsiteFee.Add(first.TentRental).Add(first.AddOns)))
	assert.True(t, first.Total.Equal(first.Subtotal.Add(first.Taxes)))
}

func TestComputePricing_IncompleteDraftIsZero(t *testing.T) {
	s, _ := newSession(t)
	require.NoError(t, s.ToggleAddOn("bonfire"))

	p := s.ComputePricing()

	assert.True(t, p.Total.IsZero())
	assert.Equal(t, 0, p.Nights)
}

func TestToggleAddOn_Involution(t *testing.T) {
	s, _ := newSession(t)
	require.NoError(t, s.ToggleAddOn("kayak"))
	before := s.Draft().AddOns

	require.NoError(t, s.ToggleAddOn("bonfire"))
	require.NoError(t, s.ToggleAddOn("bonfire"))

	assert.Equal(t, before, s.Draft().AddOns)
}

func TestToggleAddOn_RejectsUnknownOffering(t *testing.T) {
	s, _ := newSession(t)

	err := s.ToggleAddOn("helicopter")

	var unknown *domain.UnknownOfferingError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, domain.KindAddOn, unknown.Kind)
	assert.Empty(t, s.Draft().AddOns)
}

func TestAddRentedUnit_MergesQuantity(t *testing.T) {
	s, _ := newSession(t)

	require.NoError(t, s.AddRentedUnit("tent-4"))
	require.NoError(t, s.AddRentedUnit("tent-4"))
	require.NoError(t, s.AddRentedUnit("tent-2"))

	d := s.Draft()
	assert.False(t, d.Accommodation.BringOwnTent)
	assert.Equal(t, []domain.RentalSelection{
		{AccommodationID: "tent-4", Quantity: 2},
		{AccommodationID: "tent-2", Quantity: 1},
	}, d.Accommodation.Rentals)
	assert.Equal(t, 10, s.SleepingCapacity())
}

func TestAddRentedUnit_RejectsUnknownAccommodation(t *testing.T) {
	s, _ := newSession(t)

	err := s.AddRentedUnit("treehouse")

	var unknown *domain.UnknownOfferingError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, domain.KindAccommodation, unknown.Kind)
	assert.True(t, s.Draft().Accommodation.BringOwnTent)
}

func TestAddThenRemoveRentedUnit_RestoresBringOwn(t *testing.T) {
	s, _ := newSession(t)

	require.NoError(t, s.AddRentedUnit("tent-6"))
	s.RemoveRentedUnit("tent-6")

	d := s.Draft()
	assert.True(t, d.Accommodation.BringOwnTent)
	assert.Empty(t, d.Accommodation.Rentals)
}

func TestRemoveRentedUnit_DecrementsAndIgnoresAbsent(t *testing.T) {
	s, _ := newSession(t)
	require.NoError(t, s.AddRentedUnit("tent-2"))
	require.NoError(t, s.AddRentedUnit("tent-2"))

	s.RemoveRentedUnit("tent-2")
	s.RemoveRentedUnit("tent-6")

	d := s.Draft()
	assert.False(t, d.Accommodation.BringOwnTent)
	assert.Equal(t, 1, d.Accommodation.Quantity("tent-2"))
}

func TestSetBringOwnTent_ClearsRentals(t *testing.T) {
	s, _ := newSession(t)
	s.SetDateRange(date("2025-06-01"), date("2025-06-04"))
	require.NoError(t, s.AddRentedUnit("tent-2"))
	require.NoError(t, s.AddRentedUnit("tent-4"))

	s.SetBringOwnTent(true)

	d := s.Draft()
	assert.True(t, d.Accommodation.BringOwnTent)
	assert.Empty(t, d.Accommodation.Rentals)
	assert.True(t, s.ComputePricing().TentRental.IsZero())
}

func TestAdvanceStep_IsCapped(t *testing.T) {
	s, _ := newSession(t)

	for i := 0; i < 10; i++ {
		s.AdvanceStep()
	}

	assert.Equal(t, 5, s.Step())
}

func TestRetreatStep_IsFloored(t *testing.T) {
	s, _ := newSession(t)
	s.AdvanceStep()

	s.RetreatStep()
	s.RetreatStep()

	assert.Equal(t, 1, s.Step())
}

func TestGoToStep_OnlyBackwards(t *testing.T) {
	s, _ := newSession(t)
	s.AdvanceStep()
	s.AdvanceStep()

	assert.Equal(t, 3, s.GoToStep(3))
	assert.Equal(t, 3, s.GoToStep(5))
	assert.Equal(t, 3, s.GoToStep(0))
	assert.Equal(t, 1, s.GoToStep(1))
}

func TestSetContactInfo_Merges(t *testing.T) {
	s, _ := newSession(t)

	s.SetContactInfo(domain.ContactPatch{FullName: ptr("Ana Mora"), Email: ptr("ana@example.com")})
	s.SetContactInfo(domain.ContactPatch{Phone: ptr("+506 8888 0000")})

	c := s.Draft().Contact
	assert.Equal(t, "Ana Mora", c.FullName)
	assert.Equal(t, "ana@example.com", c.Email)
	assert.Equal(t, "+506 8888 0000", c.Phone)
}

func TestCheckStep_FirstIncompleteStep(t *testing.T) {
	s, _ := newSession(t)
	assert.Equal(t, domain.StepDates, s.FirstIncompleteStep())

	s.SetDateRange(date("2025-06-01"), date("2025-06-04"))
	assert.Equal(t, domain.StepDetails, s.FirstIncompleteStep())

	fillForSubmit(s)
	assert.Equal(t, 0, s.FirstIncompleteStep())
	assert.NoError(t, s.CheckStep(domain.StepPayment))
}

func TestFinalizeAndSubmit_Success(t *testing.T) {
	s, submitter := newSession(t)
	fillForSubmit(s)
	want := s.ComputePricing()

	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(sub ports.Submission) bool {
		return sub.Pricing.Total.Equal(want.Total) && sub.Draft.Nights == 3
	})).Return("CPVC-ABC12", nil).Once()

	code, err := s.FinalizeAndSubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "CPVC-ABC12", code)

	d := s.Draft()
	assert.Equal(t, domain.DraftSubmitted, d.Status)
	assert.Equal(t, "CPVC-ABC12", d.ReferenceCode)

	again, err := s.FinalizeAndSubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, code, again)
}

func TestFinalizeAndSubmit_FailureKeepsDraftForRetry(t *testing.T) {
	s, submitter := newSession(t)
	fillForSubmit(s)
	before := s.Draft()

	submitter.On("Submit", mock.Anything, mock.Anything).Return("", errors.New("gateway timeout")).Once()
	submitter.On("Submit", mock.Anything, mock.Anything).Return("CPVC-RETRY", nil).Once()

	_, err := s.FinalizeAndSubmit(context.Background())
	var subErr *domain.SubmissionError
	require.ErrorAs(t, err, &subErr)

	after := s.Draft()
	assert.Equal(t, domain.DraftFailed, after.Status)
	after.Status = before.Status
	assert.Equal(t, before, after)

	code, err := s.FinalizeAndSubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "CPVC-RETRY", code)
}

func TestFinalizeAndSubmit_ValidationNeverReachesSubmitter(t *testing.T) {
	s, _ := newSession(t)
	s.SetDateRange(date("2025-06-01"), date("2025-06-04"))

	_, err := s.FinalizeAndSubmit(context.Background())

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.StepDetails, verr.Step)
	assert.Equal(t, domain.DraftOpen, s.Draft().Status)
}

func TestFinalizeAndSubmit_RejectsWhileInFlight(t *testing.T) {
	s, submitter := newSession(t)
	fillForSubmit(s)

	started := make(chan struct{})
	release := make(chan struct{})
	submitter.On("Submit", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return("CPVC-SLOW1", nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := s.FinalizeAndSubmit(context.Background())
		done <- err
	}()

	<-started
	_, err := s.FinalizeAndSubmit(context.Background())
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)

	close(release)
	assert.NoError(t, <-done)
}

func TestResetDraft(t *testing.T) {
	s, _ := newSession(t)
	fillForSubmit(s)
	require.NoError(t, s.AddRentedUnit("tent-2"))
	s.AdvanceStep()

	s.ResetDraft()

	d := s.Draft()
	assert.Equal(t, 1, s.Step())
	assert.Nil(t, d.CheckIn)
	assert.True(t, d.Accommodation.BringOwnTent)
	assert.Empty(t, d.Contact.FullName)
}

func TestDraftStore_RestoresDraftButNotCursor(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	first, _ := newSession(t, services.WithDraftStore(store, "visitor-1"))
	fillForSubmit(first)
	require.NoError(t, first.AddRentedUnit("tent-4"))
	require.NoError(t, first.ToggleAddOn("kayak"))
	first.AdvanceStep()
	first.AdvanceStep()
	require.NoError(t, first.Flush(ctx))

	second, _ := newSession(t, services.WithDraftStore(store, "visitor-1"))

	assert.Equal(t, first.Draft(), second.Draft())
	assert.Equal(t, first.ComputePricing(), second.ComputePricing())
	assert.Equal(t, 1, second.Step())
}

func TestDraftStore_SavedUnderGivenKey(t *testing.T) {
	store := newMemStore()
	s, _ := newSession(t, services.WithDraftStore(store, domain.DraftStorageKey))

	s.SetGuestCounts(domain.GuestCounts{Adults: 4})
	require.NoError(t, s.Flush(context.Background()))

	blob, err := store.Load(context.Background(), domain.DraftStorageKey)
	require.NoError(t, err)
	d, err := domain.DecodeState(blob)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Guests.Adults)
}

func TestDraftStore_LoadFailureStartsFresh(t *testing.T) {
	store := mocks.NewDraftStore(t)
	store.On("Load", mock.Anything, "visitor-2").Return(nil, errors.New("redis down"))

	s, _ := newSession(t, services.WithDraftStore(store, "visitor-2"))

	assert.Equal(t, domain.NewDraft(), s.Draft())
}

func TestFinalizeAndSubmit_EditAfterSuccessResubmits(t *testing.T) {
	s, submitter := newSession(t)
	fillForSubmit(s)

	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(sub ports.Submission) bool {
		return sub.Draft.Nights == 3
	})).Return("CPVC-AAAAA", nil).Once()
	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(sub ports.Submission) bool {
		return sub.Draft.Nights == 9 && sub.Draft.Accommodation.Quantity("tent-6") == 1
	})).Return("CPVC-BBBBB", nil).Once()

	first, err := s.FinalizeAndSubmit(context.Background())
	require.NoError(t, err)

	s.GoToStep(1)
	s.SetDateRange(date("2025-07-01"), date("2025-07-10"))
	d := s.Draft()
	assert.Equal(t, domain.DraftOpen, d.Status)
	assert.Empty(t, d.ReferenceCode)

	require.NoError(t, s.AddRentedUnit("tent-6"))

	second, err := s.FinalizeAndSubmit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "CPVC-AAAAA", first)
	assert.Equal(t, "CPVC-BBBBB", second)
	assert.Equal(t, "CPVC-BBBBB", s.Draft().ReferenceCode)
	submitter.AssertNumberOfCalls(t, "Submit", 2)
}

func TestFinalizeAndSubmit_RejectedEditKeepsSubmission(t *testing.T) {
	s, submitter := newSession(t)
	fillForSubmit(s)
	submitter.On("Submit", mock.Anything, mock.Anything).Return("CPVC-AAAAA", nil).Once()

	_, err := s.FinalizeAndSubmit(context.Background())
	require.NoError(t, err)

	assert.Error(t, s.ToggleAddOn("helicopter"))
	assert.Equal(t, domain.DraftSubmitted, s.Draft().Status)
}

func TestFinalizeAndSubmit_EditDuringSubmitKeepsDraftOpen(t *testing.T) {
	s, submitter := newSession(t)
	fillForSubmit(s)

	started := make(chan struct{})
	release := make(chan struct{})
	submitter.On("Submit", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return("CPVC-SLOW1", nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := s.FinalizeAndSubmit(context.Background())
		done <- err
	}()

	<-started
	require.NoError(t, s.ToggleAddOn("kayak"))
	close(release)
	require.NoError(t, <-done)

	d := s.Draft()
	assert.Equal(t, domain.DraftOpen, d.Status)
	assert.Empty(t, d.ReferenceCode)
	assert.Equal(t, []string{"kayak"}, d.AddOns)
}
