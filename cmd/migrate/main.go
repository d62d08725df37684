package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"smartgarage/internal/importer"
	"smartgarage/internal/model"
	"smartgarage/internal/repository/sqlite"
)

func main() {
	dir := flag.String("dir", "calibrations", "Directory containing calibration files (.json, .log, .txt, .csv)")
	dbPath := flag.String("db", "data/garage.db", "Database path")
	replace := flag.Bool("replace", false, "Delete stored calibrations before importing")
	prune := flag.Duration("prune", 0, "Delete telemetry older than this age (e.g. 720h), 0 keeps everything")
	flag.Parse()

	fmt.Printf("Importing calibrations from %s to database %s\n", *dir, *dbPath)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	calibrations := sqlite.NewCalibrationRepository(db)
	telemetry := sqlite.NewTelemetryRepository(db)

	if *replace {
		if err := calibrations.DeleteAll(); err != nil {
			log.Fatalf("Failed to clear calibrations: %v", err)
		}
		fmt.Println("🗑️  Cleared stored calibrations")
	}

	files, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("Failed to read calibration directory: %v", err)
	}

	imported, skipped := 0, 0
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(*dir, file.Name()))
		if err != nil {
			log.Printf("⚠️  Failed to read %s: %v", file.Name(), err)
			skipped++
			continue
		}

		payload, err := importer.Parse(file.Name(), data)
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		createdAt := time.Now()
		if info, err := file.Info(); err == nil {
			createdAt = info.ModTime()
		}

		id, err := calibrations.Insert(&model.Calibration{
			Payload:   payload,
			Source:    "import",
			CreatedAt: createdAt,
		})
		if err != nil {
			log.Fatalf("Failed to insert %s: %v", file.Name(), err)
		}
		fmt.Printf("   #%d ← %s\n", id, file.Name())
		imported++
	}

	fmt.Printf("✅ Imported %d calibrations\n", imported)
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (invalid format or errors)\n", skipped)
	}

	if *prune > 0 {
		removed, err := telemetry.DeleteBefore(time.Now().Add(-*prune))
		if err != nil {
			log.Fatalf("Failed to prune telemetry: %v", err)
		}
		fmt.Printf("🧹 Removed %d telemetry snapshots older than %s\n", removed, *prune)
	}

	// Show stats
	all, err := calibrations.GetAll(0)
	if err != nil {
		return
	}
	snapshots, err := telemetry.Count()
	if err != nil {
		return
	}
	fmt.Printf("\n📊 Database Statistics:\n")
	fmt.Printf("   Calibrations: %d\n", len(all))
	if len(all) > 0 {
		latest := all[0]
		fmt.Printf("   Latest: #%d from %s (applied: %v)\n", latest.ID, latest.Source, latest.Applied)
	}
	fmt.Printf("   Telemetry snapshots: %d\n", snapshots)
}
