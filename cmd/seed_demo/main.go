package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xelth-com/sisifo/internal/config"
	"github.com/xelth-com/sisifo/internal/database"
	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/services/reports"
	"github.com/xelth-com/sisifo/internal/storage"
	"github.com/xelth-com/sisifo/internal/store"
	"github.com/xelth-com/sisifo/internal/utils"
)

type demoUser struct {
	username string
	name     string
	role     models.Role
}

var demoUsers = []demoUser{
	{"admin", "Administrador MDPP", models.RoleAdmin},
	{"central", "Central de Monitoreo", models.RoleCallCenter},
	{"jperez", "Juan Pérez", models.RoleOfficer},
	{"mquispe", "María Quispe", models.RoleOfficer},
	{"rtorres", "Rosa Torres", models.RoleOfficer},
}

var incidences = []string{"ROBBERY", "TRAFFIC ACCIDENT", "FIGHT", "NOISE", "VANDALISM"}

var places = map[models.Zone][]string{
	models.ZoneNorth:  {"Parque Kennedy", "Av. Larco cdra. 3", "Calle Berlín"},
	models.ZoneCenter: {"Óvalo Gutiérrez", "Av. Pardo cdra. 6"},
	models.ZoneSouth:  {"Malecón Cisneros", "Bajada Balta"},
}

func main() {
	password := flag.String("password", "sisifo123", "password for every demo user")
	days := flag.Int("days", 3, "days of partes to create, ending today")
	flag.Parse()

	fmt.Println("🌱 Sísifo Demo Data Seeder")
	fmt.Println(strings.Repeat("=", 60))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	st := store.NewGormStore(db.DB)
	fmt.Println("🔨 Running database migrations...")
	if err := st.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	files, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.PublicBaseURL+"/uploads")
	if err != nil {
		log.Fatalf("❌ Failed to open upload dir: %v", err)
	}
	svc := reports.NewService(st, files, nil)
	ctx := context.Background()

	fmt.Println("👤 Creating users...")
	var officers []*models.User
	for _, du := range demoUsers {
		u, err := ensureUser(ctx, st, du, *password)
		if err != nil {
			log.Fatalf("❌ User %s: %v", du.username, err)
		}
		if u.Role == models.RoleOfficer {
			officers = append(officers, u)
		}
	}

	fmt.Println("📝 Creating partes...")
	created := 0
	today := time.Now()
	for d := *days - 1; d >= 0; d-- {
		date := today.AddDate(0, 0, -d).Format(models.DateLayout)
		n := 0
		for zi, zone := range models.Zones {
			for pi, place := range places[zone] {
				n++
				officer := officers[(zi+pi+d)%len(officers)]
				shift := models.ShiftDay
				start := fmt.Sprintf("%02d:%02d", 7+n, (n*7)%60)
				if n%3 == 0 {
					shift = models.ShiftNight
					start = fmt.Sprintf("%02d:%02d", 19+n%4, (n*11)%60)
				}
				in := reports.CreateInput{
					ReferenceNumber: fmt.Sprintf("%s-%03d", strings.ReplaceAll(date, "-", ""), n),
					Date:            date,
					StartTime:       start,
					Zone:            string(zone),
					Shift:           string(shift),
					Place:           place,
					IncidenceType:   incidences[(n+d)%len(incidences)],
					Origin:          "PATRULLAJE",
					Narrative:       fmt.Sprintf("Intervención registrada por %s en %s.", officer.DisplayName(), place),
				}
				report, err := svc.Create(ctx, in, officer.ID, nil)
				if err != nil {
					log.Fatalf("❌ Parte %s: %v", in.ReferenceNumber, err)
				}
				if n%2 == 0 {
					if _, err := svc.Close(ctx, report.ID, endTime(start), officer.ID); err != nil {
						log.Fatalf("❌ Closing parte #%d: %v", report.ID, err)
					}
				}
				created++
			}
		}
	}

	fmt.Println()
	fmt.Printf("✅ Seeded %d users and %d partes\n", len(demoUsers), created)
	fmt.Printf("   Login with any of: admin, central, jperez, mquispe, rtorres / %s\n", *password)
}

func ensureUser(ctx context.Context, st store.Store, du demoUser, password string) (*models.User, error) {
	if !models.IsValidRole(du.role) {
		return nil, fmt.Errorf("invalid role %q", du.role)
	}
	existing, err := st.GetUserByLogin(ctx, du.username)
	if err == nil {
		fmt.Printf("   • %s already exists\n", du.username)
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username: du.username,
		Email:    du.username + "@mdpp.example",
		Password: hash,
		Name:     du.name,
		Role:     du.role,
		IsActive: true,
	}
	if err := st.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	fmt.Printf("   • %s (%s)\n", u.DisplayName(), u.Role)
	return u, nil
}

// endTime closes a parte 45 minutes after it started
func endTime(start string) string {
	t, err := time.Parse(models.TimeLayout, start)
	if err != nil {
		return start
	}
	return t.Add(45 * time.Minute).Format(models.TimeLayout)
}
