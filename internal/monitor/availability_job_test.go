package monitor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zidir/medcom-backend/internal/notifications"
	"github.com/zidir/medcom-backend/internal/supplier"
	"github.com/zidir/medcom-backend/internal/users"
	"github.com/zidir/medcom-backend/internal/watchlist"
	"github.com/zidir/medcom-backend/pkg/db/models"
	"github.com/zidir/medcom-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMonitorTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS pharmacies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT,
  email TEXT,
  phone TEXT,
  website TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  login TEXT NOT NULL,
  email TEXT NOT NULL,
  first_name TEXT,
  last_name TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  role TEXT NOT NULL DEFAULT 'ROLE_USER',
  pharmacy_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT,
  code TEXT NOT NULL,
  official_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS watch_list_items (
  id TEXT PRIMARY KEY,
  last_availability INTEGER,
  last_availability_time DATETIME,
  notify_all_users INTEGER NOT NULL DEFAULT 1,
  created_by_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  pharmacy_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  message TEXT NOT NULL,
  read_at DATETIME,
  sent INTEGER NOT NULL DEFAULT 0,
  sent_at DATETIME,
  delivered INTEGER NOT NULL DEFAULT 0,
  delivered_at DATETIME,
  failed INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  failure_reason TEXT,
  external_message_id TEXT,
  pharmacy_id TEXT,
  user_id TEXT NOT NULL,
  watch_list_item_id TEXT,
  created_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// stubSupplier answers probes from a fixed map of code to result.
type stubSupplier struct {
	results map[string]supplier.Result
	calls   []string
}

func (s *stubSupplier) CheckAvailability(ctx context.Context, code string) supplier.Result {
	s.calls = append(s.calls, code)
	if result, ok := s.results[code]; ok {
		return result
	}
	return supplier.Result{}
}

type monitorFixture struct {
	db       *gorm.DB
	job      *availabilityJob
	supplier *stubSupplier
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()

	db := setupMonitorTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "monitor-test"})

	stub := &stubSupplier{results: map[string]supplier.Result{}}
	fanout, err := NewFanout(logg, users.NewRepository(db))
	require.NoError(t, err)

	jobIface, err := NewAvailabilityJob(AvailabilityJobParams{
		Logger:           logg,
		DB:               gormTxRunner{db: db},
		WatchRepo:        watchlist.NewRepository(db),
		NotificationRepo: notifications.NewRepository(db),
		Fanout:           fanout,
		Supplier:         stub,
	})
	require.NoError(t, err)

	return &monitorFixture{
		db:       db,
		job:      jobIface.(*availabilityJob),
		supplier: stub,
	}
}

func (f *monitorFixture) pharmacy(t *testing.T, name string) *models.Pharmacy {
	t.Helper()
	pharmacy := &models.Pharmacy{ID: uuid.New(), Name: name, Active: true}
	require.NoError(t, f.db.Create(pharmacy).Error)
	return pharmacy
}

func (f *monitorFixture) member(t *testing.T, pharmacyID uuid.UUID, login string) *models.User {
	t.Helper()
	user := &models.User{
		ID:         uuid.New(),
		Login:      login,
		Email:      login + "@example.org",
		IsActive:   true,
		PharmacyID: &pharmacyID,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *monitorFixture) product(t *testing.T, code string, name *string) *models.Product {
	t.Helper()
	product := &models.Product{ID: uuid.New(), Code: code, Name: name}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *monitorFixture) watchItem(t *testing.T, pharmacyID, productID, creatorID uuid.UUID, notifyAll bool, last *bool) *models.WatchListItem {
	t.Helper()
	item := &models.WatchListItem{
		ID:               uuid.New(),
		LastAvailability: last,
		NotifyAllUsers:   notifyAll,
		CreatedByID:      creatorID,
		ProductID:        productID,
		PharmacyID:       pharmacyID,
	}
	require.NoError(t, f.db.Create(item).Error)
	return item
}

func (f *monitorFixture) notifications(t *testing.T, itemID uuid.UUID) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, f.db.Where("watch_list_item_id = ?", itemID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func (f *monitorFixture) reload(t *testing.T, itemID uuid.UUID) *models.WatchListItem {
	t.Helper()
	var item models.WatchListItem
	require.NoError(t, f.db.First(&item, "id = ?", itemID).Error)
	return &item
}

func availablePtr(v bool) *bool { return &v }

func TestAvailabilityJobFirstObservationNotifies(t *testing.T) {
	f := newMonitorFixture(t)
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	f.job.now = func() time.Time { return now }

	pharmacy := f.pharmacy(t, "Central")
	creator := f.member(t, pharmacy.ID, "creator")
	f.member(t, pharmacy.ID, "colleague")
	name := "Doliprane 1000mg"
	product := f.product(t, "3400930000001", &name)
	item := f.watchItem(t, pharmacy.ID, product.ID, creator.ID, true, nil)

	f.supplier.results[product.Code] = supplier.Result{Available: availablePtr(true)}

	require.NoError(t, f.job.Run(context.Background()))

	reloaded := f.reload(t, item.ID)
	require.NotNil(t, reloaded.LastAvailability)
	assert.True(t, *reloaded.LastAvailability)
	require.NotNil(t, reloaded.LastAvailabilityTime)
	assert.WithinDuration(t, now, *reloaded.LastAvailabilityTime, time.Second)

	rows := f.notifications(t, item.ID)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "Product 'Doliprane 1000mg' is now available", row.Message)
		assert.False(t, row.Sent)
		assert.False(t, row.Delivered)
		assert.False(t, row.Failed)
		assert.Nil(t, row.ReadAt)
		require.NotNil(t, row.PharmacyID)
		assert.Equal(t, pharmacy.ID, *row.PharmacyID)
	}
}

func TestAvailabilityJobStableStateIsIdempotent(t *testing.T) {
	f := newMonitorFixture(t)

	pharmacy := f.pharmacy(t, "Central")
	creator := f.member(t, pharmacy.ID, "creator")
	product := f.product(t, "3400930000002", nil)
	item := f.watchItem(t, pharmacy.ID, product.ID, creator.ID, true, availablePtr(true))

	f.supplier.results[product.Code] = supplier.Result{Available: availablePtr(true)}

	require.NoError(t, f.job.Run(context.Background()))
	require.NoError(t, f.job.Run(context.Background()))

	reloaded := f.reload(t, item.ID)
	assert.Nil(t, reloaded.LastAvailabilityTime)
	assert.Empty(t, f.notifications(t, item.ID))
}

func TestAvailabilityJobMessageFallsBackToCode(t *testing.T) {
	f := newMonitorFixture(t)

	pharmacy := f.pharmacy(t, "Central")
	creator := f.member(t, pharmacy.ID, "creator")
	product := f.product(t, "3400930000003", nil)
	item := f.watchItem(t, pharmacy.ID, product.ID, creator.ID, false, availablePtr(true))

	f.supplier.results[product.Code] = supplier.Result{Available: availablePtr(false)}

	require.NoError(t, f.job.Run(context.Background()))

	rows := f.notifications(t, item.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, "Product '3400930000003' is now unavailable", rows[0].Message)
	assert.Equal(t, creator.ID, rows[0].UserID)
}

func TestAvailabilityJobCreatorOnlyWhenBroadcastOff(t *testing.T) {
	f := newMonitorFixture(t)

	pharmacy := f.pharmacy(t, "Central")
	creator := f.member(t, pharmacy.ID, "creator")
	f.member(t, pharmacy.ID, "colleague")
	product := f.product(t, "3400930000004", nil)
	item := f.watchItem(t, pharmacy.ID, product.ID, creator.ID, false, nil)

	f.supplier.results[product.Code] = supplier.Result{Available: availablePtr(true)}

	require.NoError(t, f.job.Run(context.Background()))

	rows := f.notifications(t, item.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, creator.ID, rows[0].UserID)
}

func TestAvailabilityJobBroadcastWithoutMembersNotifiesNobody(t *testing.T) {
	f := newMonitorFixture(t)

	pharmacy := f.pharmacy(t, "Empty")
	// Creator moved away; they are not an active member of the pharmacy.
	other := f.pharmacy(t, "Elsewhere")
	creator := f.member(t, other.ID, "moved-away")
	product := f.product(t, "3400930000005", nil)
	item := f.watchItem(t, pharmacy.ID, product.ID, creator.ID, true, nil)

	f.supplier.results[product.Code] = supplier.Result{Available: availablePtr(true)}

	require.NoError(t, f.job.Run(context.Background()))

	// Availability is still recorded; there is just nobody to tell.
	reloaded := f.reload(t, item.ID)
	require.NotNil(t, reloaded.LastAvailability)
	assert.True(t, *reloaded.LastAvailability)
	assert.Empty(t, f.notifications(t, item.ID))
}

func TestAvailabilityJobBroadcastSkipsForeignCreator(t *testing.T) {
	f := newMonitorFixture(t)

	pharmacy := f.pharmacy(t, "Central")
	alice := f.member(t, pharmacy.ID, "alice")
	bob := f.member(t, pharmacy.ID, "bob")
	other := f.pharmacy(t, "Elsewhere")
	creator := f.member(t, other.ID, "moved-away")
	product := f.product(t, "3400930000011", nil)
	item := f.watchItem(t, pharmacy.ID, product.ID, creator.ID, true, nil)

	f.supplier.results[product.Code] = supplier.Result{Available: availablePtr(true)}

	require.NoError(t, f.job.Run(context.Background()))

	rows := f.notifications(t, item.ID)
	require.Len(t, rows, 2)
	recipients := map[uuid.UUID]bool{}
	for _, row := range rows {
		recipients[row.UserID] = true
	}
	assert.True(t, recipients[alice.ID])
	assert.True(t, recipients[bob.ID])
	assert.False(t, recipients[creator.ID])
}

func TestAvailabilityJobSkipsUnusableItems(t *testing.T) {
	f := newMonitorFixture(t)

	pharmacy := f.pharmacy(t, "Central")
	creator := f.member(t, pharmacy.ID, "creator")

	missingProduct := f.watchItem(t, pharmacy.ID, uuid.New(), creator.ID, true, nil)
	blankCode := f.product(t, "  ", nil)
	blankItem := f.watchItem(t, pharmacy.ID, blankCode.ID, creator.ID, true, nil)

	healthy := f.product(t, "3400930000006", nil)
	healthyItem := f.watchItem(t, pharmacy.ID, healthy.ID, creator.ID, false, nil)
	f.supplier.results[healthy.Code] = supplier.Result{Available: availablePtr(true)}

	require.NoError(t, f.job.Run(context.Background()))

	assert.Empty(t, f.notifications(t, missingProduct.ID))
	assert.Empty(t, f.notifications(t, blankItem.ID))
	assert.Len(t, f.notifications(t, healthyItem.ID), 1)
	assert.Equal(t, []string{healthy.Code}, f.supplier.calls)
}

func TestAvailabilityJobSkipsUnknownAvailability(t *testing.T) {
	f := newMonitorFixture(t)

	pharmacy := f.pharmacy(t, "Central")
	creator := f.member(t, pharmacy.ID, "creator")
	product := f.product(t, "3400930000007", nil)
	item := f.watchItem(t, pharmacy.ID, product.ID, creator.ID, true, availablePtr(true))

	f.supplier.results[product.Code] = supplier.Result{Available: nil}

	require.NoError(t, f.job.Run(context.Background()))

	reloaded := f.reload(t, item.ID)
	require.NotNil(t, reloaded.LastAvailability)
	assert.True(t, *reloaded.LastAvailability)
	assert.Empty(t, f.notifications(t, item.ID))
}

func TestAvailabilityJobSupplierErrorFlipsToUnavailable(t *testing.T) {
	f := newMonitorFixture(t)

	pharmacy := f.pharmacy(t, "Central")
	creator := f.member(t, pharmacy.ID, "creator")
	product := f.product(t, "3400930000008", nil)
	item := f.watchItem(t, pharmacy.ID, product.ID, creator.ID, false, availablePtr(true))

	f.supplier.results[product.Code] = supplier.Result{
		Available: availablePtr(false),
		Error:     "unexpected status 502",
	}

	require.NoError(t, f.job.Run(context.Background()))

	reloaded := f.reload(t, item.ID)
	require.NotNil(t, reloaded.LastAvailability)
	assert.False(t, *reloaded.LastAvailability)

	rows := f.notifications(t, item.ID)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Message, "is now unavailable")
}

func TestAvailabilityJobFanoutSurvivesRejectedInsert(t *testing.T) {
	f := newMonitorFixture(t)

	pharmacy := f.pharmacy(t, "Central")
	alice := f.member(t, pharmacy.ID, "alice")
	bob := f.member(t, pharmacy.ID, "bob")
	carol := f.member(t, pharmacy.ID, "carol")
	product := f.product(t, "3400930000014", nil)
	item := f.watchItem(t, pharmacy.ID, product.ID, alice.ID, true, nil)

	trigger := fmt.Sprintf(`CREATE TRIGGER reject_one BEFORE INSERT ON notifications
WHEN NEW.user_id = '%s'
BEGIN SELECT RAISE(ABORT, 'insert rejected'); END;`, bob.ID)
	require.NoError(t, f.db.Exec(trigger).Error)

	f.supplier.results[product.Code] = supplier.Result{Available: availablePtr(true)}

	require.NoError(t, f.job.Run(context.Background()))

	// The rejected row did not poison the transaction: the availability write
	// and the remaining notifications committed.
	reloaded := f.reload(t, item.ID)
	require.NotNil(t, reloaded.LastAvailability)
	assert.True(t, *reloaded.LastAvailability)

	rows := f.notifications(t, item.ID)
	require.Len(t, rows, 2)
	recipients := map[uuid.UUID]bool{}
	for _, row := range rows {
		recipients[row.UserID] = true
	}
	assert.True(t, recipients[alice.ID])
	assert.True(t, recipients[carol.ID])
	assert.False(t, recipients[bob.ID])
}

// panickySupplier blows up for one product code and defers to the inner
// client for everything else.
type panickySupplier struct {
	inner    supplier.Client
	panicFor string
}

func (s panickySupplier) CheckAvailability(ctx context.Context, code string) supplier.Result {
	if code == s.panicFor {
		panic("supplier exploded")
	}
	return s.inner.CheckAvailability(ctx, code)
}

func TestAvailabilityJobRecoversFromPanics(t *testing.T) {
	f := newMonitorFixture(t)

	pharmacy := f.pharmacy(t, "Central")
	creator := f.member(t, pharmacy.ID, "creator")
	bad := f.product(t, "3400930000012", nil)
	good := f.product(t, "3400930000013", nil)
	badItem := f.watchItem(t, pharmacy.ID, bad.ID, creator.ID, false, nil)
	goodItem := f.watchItem(t, pharmacy.ID, good.ID, creator.ID, false, nil)

	f.supplier.results[good.Code] = supplier.Result{Available: availablePtr(true)}
	f.job.supplier = panickySupplier{inner: f.supplier, panicFor: bad.Code}

	err := f.job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supplier exploded")

	assert.Empty(t, f.notifications(t, badItem.ID))
	assert.Len(t, f.notifications(t, goodItem.ID), 1)
}

type failingMembers struct {
	inner   memberSource
	failFor uuid.UUID
}

func (f failingMembers) ListByPharmacyID(ctx context.Context, pharmacyID uuid.UUID) ([]models.User, error) {
	if pharmacyID == f.failFor {
		return nil, errors.New("member lookup failed")
	}
	return f.inner.ListByPharmacyID(ctx, pharmacyID)
}

func TestAvailabilityJobIsolatesFailingItems(t *testing.T) {
	f := newMonitorFixture(t)
	logg := logger.New(logger.Options{ServiceName: "monitor-test"})

	broken := f.pharmacy(t, "Broken")
	healthy := f.pharmacy(t, "Healthy")
	brokenCreator := f.member(t, broken.ID, "broken-creator")
	healthyCreator := f.member(t, healthy.ID, "healthy-creator")

	brokenProduct := f.product(t, "3400930000009", nil)
	healthyProduct := f.product(t, "3400930000010", nil)
	brokenItem := f.watchItem(t, broken.ID, brokenProduct.ID, brokenCreator.ID, true, nil)
	healthyItem := f.watchItem(t, healthy.ID, healthyProduct.ID, healthyCreator.ID, true, nil)

	fanout, err := NewFanout(logg, failingMembers{inner: users.NewRepository(f.db), failFor: broken.ID})
	require.NoError(t, err)
	f.job.fanout = fanout

	f.supplier.results[brokenProduct.Code] = supplier.Result{Available: availablePtr(true)}
	f.supplier.results[healthyProduct.Code] = supplier.Result{Available: availablePtr(true)}

	err = f.job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "member lookup failed")

	// The failing item rolled back entirely: no availability written, no rows.
	reloadedBroken := f.reload(t, brokenItem.ID)
	assert.Nil(t, reloadedBroken.LastAvailability)
	assert.Empty(t, f.notifications(t, brokenItem.ID))

	reloadedHealthy := f.reload(t, healthyItem.ID)
	require.NotNil(t, reloadedHealthy.LastAvailability)
	assert.True(t, *reloadedHealthy.LastAvailability)
	assert.Len(t, f.notifications(t, healthyItem.ID), 1)
}
