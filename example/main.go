package main

import (
	"context"
	"embed"
	"log"
	"time"

	cql_migrator "github.com/Maksumys/cql-migrator"
	"github.com/gocql/gocql"
)

//go:embed migrations
var migrations embed.FS

func main() {
	cluster := gocql.NewCluster("127.0.0.1")
	cluster.Keyspace = "library"
	cluster.Timeout = 10 * time.Second

	session, err := cluster.CreateSession()
	if err != nil {
		log.Fatalln(err)
	}
	defer session.Close()

	resources, err := cql_migrator.LoadMigrationResources(migrations, "migrations")
	if err != nil {
		log.Fatalln(err)
	}

	manager, err := cql_migrator.NewMigrationsManager(session, "library",
		cql_migrator.WithAgreementTimeout(30*time.Second),
	)
	if err != nil {
		log.Fatalln(err)
	}

	report, err := manager.Migrate(context.Background(), resources)
	if err != nil {
		log.Fatalln(err)
	}

	log.Printf("applied migrations: %v", report.Applied)
}
