package dao

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

// TestMain starts a throwaway Postgres container. Without Docker, or with
// -short, the database tests are skipped.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Printf("could not construct docker pool: %v", err)
		os.Exit(m.Run())
	}
	if err = pool.Client.Ping(); err != nil {
		log.Printf("could not connect to docker: %v", err)
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=ticketing",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=ticketing",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Printf("could not start postgres: %v", err)
		os.Exit(m.Run())
	}
	_ = resource.Expire(180)

	dsn := fmt.Sprintf("postgres://ticketing:secret@%s/ticketing?sslmode=disable", resource.GetHostPort("5432/tcp"))
	pool.MaxWait = 2 * time.Minute
	err = pool.Retry(func() error {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err = sqlDB.Ping(); err != nil {
			return err
		}
		testDB = db
		return nil
	})
	if err != nil {
		log.Printf("could not connect to postgres: %v", err)
		_ = pool.Purge(resource)
		os.Exit(1)
	}

	if err = InitTables(testDB); err != nil {
		log.Printf("could not migrate: %v", err)
		_ = pool.Purge(resource)
		os.Exit(1)
	}

	code := m.Run()

	_ = pool.Purge(resource)
	os.Exit(code)
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres is not available")
	}

	err := testDB.Exec("TRUNCATE users, ticket_instances, tickets, payments, scan_logs RESTART IDENTITY CASCADE").Error
	require.NoError(t, err)

	return testDB
}

func seedBuyerAndInstance(t *testing.T, db *gorm.DB) (User, TicketInstance) {
	t.Helper()
	ctx := context.Background()

	user, err := NewUserDAO(db).Insert(ctx, User{Email: "buyer@example.com", PINHash: "hash", Role: "buyer"})
	require.NoError(t, err)

	instance, err := NewTicketInstanceDAO(db).Insert(ctx, TicketInstance{
		Name:     "Main Hall",
		Capacity: 1,
		VIPPrice: decimal.NewNullDecimal(decimal.NewFromInt(500)),
	})
	require.NoError(t, err)

	return user, instance
}

func newPendingPayment(t *testing.T, db *gorm.DB, userID uint, reference string) {
	t.Helper()

	_, err := NewPaymentDAO(db).Insert(context.Background(), Payment{
		UserID:            userID,
		ExternalReference: reference,
		Amount:            decimal.NewFromInt(1000),
		PhoneNumber:       "254712345678",
		Status:            PaymentPending,
		Cart:              `[{"instance_id":1,"tier":"vip","quantity":2}]`,
	})
	require.NoError(t, err)
}

func ticketsFor(userID uint, instanceID uint, ids ...string) []Ticket {
	tickets := make([]Ticket, 0, len(ids))
	for _, id := range ids {
		tickets = append(tickets, Ticket{
			ID:               id,
			UserID:           userID,
			TicketInstanceID: &instanceID,
			Tier:             "vip",
			QRCodeURL:        "https://tickets.test/ticket/verify/" + id,
			QRCodeBase64:     "iVBORw0KGgo=",
		})
	}

	return tickets
}

func TestUserDAO_Insert_DuplicateEmail(t *testing.T) {
	db := setupDB(t)
	d := NewUserDAO(db)
	ctx := context.Background()

	_, err := d.Insert(ctx, User{Email: "dup@example.com", PINHash: "x", Role: "buyer"})
	require.NoError(t, err)

	_, err = d.Insert(ctx, User{Email: "dup@example.com", PINHash: "y", Role: "buyer"})
	assert.ErrorIs(t, err, ErrUserEmailExists)
}

func TestUserDAO_UpsertAdmin(t *testing.T) {
	db := setupDB(t)
	d := NewUserDAO(db)
	ctx := context.Background()

	_, err := d.Insert(ctx, User{Email: "staff@example.com", PINHash: "old", Role: "buyer"})
	require.NoError(t, err)

	admin, err := d.UpsertAdmin(ctx, "staff@example.com", "new")
	require.NoError(t, err)

	found, err := d.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", found.Role)
	assert.Equal(t, "new", found.PINHash)
}

func TestPaymentDAO_Complete_IssuesTicketsOnce(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	user, instance := seedBuyerAndInstance(t, db)
	newPendingPayment(t, db, user.ID, "ref-1")
	payments := NewPaymentDAO(db)

	err := payments.Complete(ctx, "ref-1", "RCPT1", "ok", time.Now(), ticketsFor(user.ID, instance.ID, "t-1", "t-2"))
	require.NoError(t, err)

	err = payments.Complete(ctx, "ref-1", "RCPT1", "ok", time.Now(), ticketsFor(user.ID, instance.ID, "t-3", "t-4"))
	assert.ErrorIs(t, err, ErrPaymentNotPending)

	err = payments.MarkFailed(ctx, "ref-1", "late failure", nil)
	assert.ErrorIs(t, err, ErrPaymentNotPending)

	issued, err := NewTicketDAO(db).CountIssued(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), issued)

	payment, err := payments.FindByReference(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, PaymentSuccess, payment.Status)
	assert.NotNil(t, payment.CallbackReceivedAt)

	counts, err := payments.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[PaymentSuccess])
}

func TestTicketDAO_Admit_OnlyOnce(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	user, instance := seedBuyerAndInstance(t, db)
	newPendingPayment(t, db, user.ID, "ref-2")
	require.NoError(t, NewPaymentDAO(db).Complete(ctx, "ref-2", "", "", time.Now(), ticketsFor(user.ID, instance.ID, "t-9")))
	tickets := NewTicketDAO(db)

	first := time.Now().UTC().Truncate(time.Microsecond)
	admitted, err := tickets.Admit(ctx, "t-9", first, ScanLog{TicketID: "t-9", Result: "valid", ScannedAt: first})
	require.NoError(t, err)
	assert.True(t, admitted)

	second := first.Add(time.Minute)
	admitted, err = tickets.Admit(ctx, "t-9", second, ScanLog{TicketID: "t-9", Result: "valid", ScannedAt: second})
	require.NoError(t, err)
	assert.False(t, admitted)

	ticket, err := tickets.FindByID(ctx, "t-9")
	require.NoError(t, err)
	require.NotNil(t, ticket.ScannedAt)
	assert.WithinDuration(t, first, *ticket.ScannedAt, time.Millisecond)
	assert.Equal(t, "buyer@example.com", ticket.User.Email)
	require.NotNil(t, ticket.TicketInstance)
	assert.Equal(t, "Main Hall", ticket.TicketInstance.Name)

	var n int64
	require.NoError(t, db.Model(&ScanLog{}).Where("ticket_id = ? AND result = ?", "t-9", "valid").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestTicketDAO_Admit_RollsBackWhenLogFails(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	user, instance := seedBuyerAndInstance(t, db)
	newPendingPayment(t, db, user.ID, "ref-3")
	require.NoError(t, NewPaymentDAO(db).Complete(ctx, "ref-3", "", "", time.Now(), ticketsFor(user.ID, instance.ID, "t-10")))
	tickets := NewTicketDAO(db)

	// result is varchar(50); an oversized value makes the log insert fail.
	_, err := tickets.Admit(ctx, "t-10", time.Now(), ScanLog{TicketID: "t-10", Result: strings.Repeat("v", 51), ScannedAt: time.Now()})
	require.Error(t, err)

	ticket, err := tickets.FindByID(ctx, "t-10")
	require.NoError(t, err)
	assert.Nil(t, ticket.ScannedAt)
}

func TestTicketInstanceDAO_Delete_KeepsTickets(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	user, instance := seedBuyerAndInstance(t, db)
	newPendingPayment(t, db, user.ID, "ref-3")
	require.NoError(t, NewPaymentDAO(db).Complete(ctx, "ref-3", "", "", time.Now(), ticketsFor(user.ID, instance.ID, "t-5")))

	_, err := NewTicketInstanceDAO(db).Delete(ctx, instance.ID)
	require.NoError(t, err)

	_, err = NewTicketInstanceDAO(db).Delete(ctx, instance.ID)
	assert.ErrorIs(t, err, ErrTicketInstanceNotFound)

	ticket, err := NewTicketDAO(db).FindByID(ctx, "t-5")
	require.NoError(t, err)
	assert.Nil(t, ticket.TicketInstanceID)
	assert.Nil(t, ticket.TicketInstance)
}

func TestScanLogDAO_Insert(t *testing.T) {
	db := setupDB(t)

	_, err := NewScanLogDAO(db).Insert(context.Background(), ScanLog{
		TicketID:  "https://tickets.example.com/ticket/verify/not-a-real-ticket-id-at-all-0000000000",
		Result:    "invalid",
		Details:   "Ticket not found in database",
		ScannedAt: time.Now(),
	})
	require.NoError(t, err)

	_, err = NewScanLogDAO(db).Insert(context.Background(), ScanLog{
		TicketID:  "missing",
		Result:    "invalid",
		Details:   "Ticket not found in database",
		ScannedAt: time.Now(),
	})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&ScanLog{}).Where("ticket_id = ? AND result = ?", "missing", "invalid").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
