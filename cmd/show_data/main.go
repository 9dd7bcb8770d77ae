package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/xelth-com/sisifo/internal/config"
	"github.com/xelth-com/sisifo/internal/database"
	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/services/reports"
	"github.com/xelth-com/sisifo/internal/storage"
	"github.com/xelth-com/sisifo/internal/store"
)

func main() {
	date := flag.String("date", time.Now().Format(models.DateLayout), "date of the shift (YYYY-MM-DD)")
	shift := flag.String("shift", string(models.ShiftDay), "shift to summarize (DAY or NIGHT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	cfg.Database.Quiet = true

	db, err := database.Connect(cfg.Database)
	if err != nil {
		fmt.Printf("❌ Failed to connect: %v\n", err)
		fmt.Println("\n💡 Try starting the server first:")
		fmt.Println("   go run ./cmd/api")
		os.Exit(1)
	}
	defer db.Close()

	st := store.NewGormStore(db.DB)
	files, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.PublicBaseURL+"/uploads")
	if err != nil {
		log.Fatalf("❌ Failed to open upload dir: %v", err)
	}
	svc := reports.NewService(st, files, nil)
	ctx := context.Background()

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║              📊 Sísifo Shift Summary                      ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Printf("  Date: %s   Shift: %s\n\n", *date, strings.ToUpper(*shift))

	users, err := st.ListUsers(ctx)
	if err != nil {
		log.Fatalf("❌ Listing users: %v", err)
	}
	list, err := svc.ListByFilter(ctx, *date, *shift)
	if err != nil {
		log.Fatalf("❌ Listing partes: %v", err)
	}
	open := 0
	for i := range list {
		if !list[i].IsClosed() {
			open++
		}
	}

	fmt.Println("📈 STATISTICS")
	fmt.Println("──────────────────────────────────────────────────────────")
	fmt.Printf("  Users:         %3d\n", len(users))
	fmt.Printf("  Partes:        %3d\n", len(list))
	fmt.Printf("  Open:          %3d\n", open)
	fmt.Printf("  Closed:        %3d\n", len(list)-open)
	fmt.Println()

	counts, err := svc.CountByZoneAndIncidence(ctx, *date, *shift)
	if err != nil {
		log.Fatalf("❌ Aggregating: %v", err)
	}

	fmt.Println("🗺️  BY ZONE")
	fmt.Println("──────────────────────────────────────────────────────────")
	if len(counts) == 0 {
		fmt.Println("  (no partes)")
	}
	for _, zone := range models.Zones {
		groups, ok := counts[zone]
		if !ok {
			continue
		}
		fmt.Printf("  %s\n", zone)
		for _, g := range groups {
			fmt.Printf("      └─ %-24s %3d\n", g.IncidenceType, g.Count)
		}
	}
	fmt.Println()

	if len(list) > 0 {
		fmt.Println("📝 PARTES")
		fmt.Println("──────────────────────────────────────────────────────────")
		for _, r := range list {
			fmt.Printf("  [%d] %s %s  %-8s %s (%s)\n", r.ID, r.StartTime, r.State(), r.Zone, r.IncidenceType, r.Place)
		}
	}
}
