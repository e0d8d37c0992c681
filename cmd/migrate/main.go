package main

import (
	"flag"
	"fmt"
	"log"

	"smartpole/internal/repository/sqlite"
	"smartpole/internal/service/storage"
)

func main() {
	logsDir := flag.String("logs", "accident_logs", "Directory containing daily accident logs")
	dbPath := flag.String("db", "data/accidents.db", "Database path")
	flag.Parse()

	fmt.Printf("Importing accident logs from %s to database %s\n", *logsDir, *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	accidentRepo := sqlite.NewAccidentRepository(db)

	result, err := storage.ImportAccidentLogs(*logsDir, accidentRepo)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("✅ Imported %d accidents from %d files\n", result.Imported, result.Files)
	if result.Existing > 0 {
		fmt.Printf("ℹ️  %d accidents were already stored\n", result.Existing)
	}
	if result.Skipped > 0 {
		fmt.Printf("⚠️  Skipped %d entries (invalid timestamp)\n", result.Skipped)
	}

	stats, err := accidentRepo.GetStats()
	if err == nil {
		fmt.Printf("\n📊 Database Statistics:\n")
		fmt.Printf("   Total accidents: %d\n", stats.TotalAccidents)
		fmt.Printf("   Max score: %.2f, average: %.2f\n", stats.MaxScore, stats.AvgScore)
		for severity, count := range stats.PerSeverity {
			fmt.Printf("      - %s: %d\n", severity, count)
		}
	}
}
