package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/asaidimu/go-crudsql/core/persistence"
	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/core/schema"
	"github.com/asaidimu/go-crudsql/drivers"
	"go.uber.org/zap"
)

const (
	dbFileName = "user.db"

	usersDDL = `CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		age INTEGER,
		is_active BOOLEAN NOT NULL DEFAULT 1
	)`
	auditDDL = `CREATE TABLE audit_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		detail TEXT
	)`

	auditDefinitionJSON = `{
		"name": "AuditEntry",
		"table": "audit_entries",
		"fields": [
			{"name": "id", "type": "integer", "key": true},
			{"name": "action", "type": "string"},
			{"name": "detail", "type": "string", "nullable": true}
		]
	}`
)

// User is mapped by convention: ID is the generated key and the db tags name
// the columns.
type User struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Email    string `db:"email"`
	Age      *int64 `db:"age"`
	IsActive bool   `db:"is_active"`
}

func (User) TableName() string { return "users" }

func main() {
	ctx := context.Background()

	if err := os.Remove(dbFileName); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing database file %s: %v", dbFileName, err)
	}
	fmt.Printf("Starting fresh: removed existing %s (if any).\n", dbFileName)

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, dialect, err := drivers.Open(ctx, drivers.Config{Dialect: "sqlite", DSN: dbFileName, MaxOpenConns: 1})
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	defer func() {
		if cErr := db.Close(); cErr != nil {
			log.Printf("Error closing database connection: %v", cErr)
		}
		fmt.Println("Database connection closed.")
	}()

	for _, ddl := range []string{usersDDL, auditDDL} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			log.Fatalf("Failed to create table: %v", err)
		}
	}

	cache := schema.NewCache(schema.CacheOptions{Logger: logger})
	assembler, err := persistence.NewAssembler(cache, dialect, persistence.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create assembler: %v", err)
	}
	store, err := persistence.NewPersistence(db, assembler, &persistence.RepositoryOptions{Logger: logger})
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}
	fmt.Println("Initialized persistence.")

	defs, err := schema.ParseDefinitions([]byte(auditDefinitionJSON), "json")
	if err != nil {
		log.Fatalf("Failed to parse audit definition: %v", err)
	}
	audit, err := store.Create(defs[0])
	if err != nil {
		log.Fatalf("Failed to register audit definition: %v", err)
	}

	store.RegisterSubscription(persistence.RegisterSubscriptionOptions{
		Event: persistence.CommandEvent(query.OpInsert, persistence.PhaseSuccess),
		Label: core.StringPtr("print-inserts"),
		Callback: func(ctx context.Context, event persistence.PersistenceEvent) error {
			fmt.Printf("Row added to '%s': %s\n", *event.Table, event.SQL)
			return nil
		},
	})
	store.RegisterSubscription(persistence.RegisterSubscriptionOptions{
		Event:       persistence.CommandEvent(query.OpDeleteRange, persistence.PhaseSuccess),
		Label:       core.StringPtr("print-deletes"),
		Description: core.StringPtr("Reports range deletes"),
		Callback: func(ctx context.Context, event persistence.PersistenceEvent) error {
			fmt.Printf("Rows deleted from '%s', %v\n", *event.Table, event.Output)
			return nil
		},
	})

	users, err := persistence.For[User](store)
	if err != nil {
		log.Fatalf("Failed to create user repository: %v", err)
	}

	fmt.Println("Inserting sample data...")
	alice := &User{Name: "Alice Smith", Email: "alice@example.com", Age: core.Int64Ptr(30), IsActive: true}
	if _, err := users.InsertAndReturnKey(ctx, alice); err != nil {
		log.Fatalf("Failed to insert Alice 1: %v", err)
	}
	fmt.Printf("Alice 1 stored with id %d\n", alice.ID)

	if _, err := users.BulkInsert(ctx, []User{
		{Name: "Alice Smith", Email: "alice2@example.com", Age: core.Int64Ptr(27), IsActive: true},
		{Name: "Alice Smith", Email: "alice3@example.com", Age: core.Int64Ptr(28)},
	}); err != nil {
		log.Fatalf("Failed to insert Alice 2 and 3: %v", err)
	}

	q := query.NewQueryBuilder().Where("Age").Lt(28).Build()
	if _, err := users.DeleteRange(ctx, q.Filters); err != nil {
		log.Fatalf("Failed to delete Alice: %v", err)
	}
	fmt.Println("Sample data inserted successfully.")

	alex, err := users.GetSingle(ctx, query.Filter{"Age": 28})
	if err != nil {
		log.Fatalf("Failed to find Alice 3: %v", err)
	}
	alex.Name = "Alex Smith"
	if _, err := users.Update(ctx, alex); err != nil {
		log.Fatalf("Failed to update to Alex: %v", err)
	}

	fmt.Println("\nQuerying data from 'users' table:")
	rows, err := users.GetAll(ctx, "id")
	if err != nil {
		log.Fatalf("Failed to read database: %v", err)
	}
	printUsers(rows)

	err = store.Transact(ctx, func(tx *persistence.Persistence) error {
		users, err := persistence.For[User](tx)
		if err != nil {
			return err
		}
		entries, err := tx.Collection("AuditEntry")
		if err != nil {
			return err
		}

		page, err := users.Query(ctx, query.NewQueryBuilder().
			Where("IsActive").Eq(false).
			OrderByDesc("ID").
			Page(1, 10).
			Build())
		if err != nil {
			return err
		}
		for _, u := range page {
			u.IsActive = true
			if _, err := users.Update(ctx, u); err != nil {
				return err
			}
			if _, err := entries.Insert(ctx, &schema.Document{
				"action": "activate",
				"detail": u.Email,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Transaction failed: %v", err)
	}

	active, err := users.Count(ctx, query.Filter{"IsActive": true})
	if err != nil {
		log.Fatalf("Failed to count active users: %v", err)
	}
	logged, err := audit.GetAll(ctx, "id")
	if err != nil {
		log.Fatalf("Failed to read audit entries: %v", err)
	}
	fmt.Printf("\n%d active users, %d audit entries\n", active, len(logged))
	for _, entry := range logged {
		fmt.Printf("  %v %v %v\n", entry["id"], entry["action"], entry["detail"])
	}

	fmt.Printf("\nDatabase created successfully at: %s\n", dbFileName)
	fmt.Printf("Run: sqlite3 %s 'SELECT * FROM users;' to inspect it.\n", dbFileName)
}

func printUsers(users []User) {
	fmt.Println("-------------------------------------------------------------------")
	fmt.Printf("%-10s %-20s %-25s %-5s %-10s\n", "ID", "Name", "Email", "Age", "Active")
	fmt.Println("-------------------------------------------------------------------")
	for _, u := range users {
		age := int64(0)
		if u.Age != nil {
			age = *u.Age
		}
		fmt.Printf("%-10d %-20s %-25s %-5d %-10t\n", u.ID, u.Name, u.Email, age, u.IsActive)
	}
	fmt.Println("-------------------------------------------------------------------")
}
