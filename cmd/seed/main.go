package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

var specialtyNames = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var (
	dbPath         string
	specialtyCount int
	clinicCount    int
	doctorCount    int
	patientCount   int
	fakerSeed      uint64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the registry database with fake data",
	Long: `Seed creates specialties, clinics, doctors and patients in the registry
SQLite database so the scheduler has something to book against.

Example:
  seed --clinics 5 --doctors 40 --patients 500
  seed --db data/registry.db --seed 42`,
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	rootCmd.Flags().StringVar(&dbPath, "db", "", "registry SQLite path (default: REGISTRY_SQLITE_PATH)")
	rootCmd.Flags().IntVar(&specialtyCount, "specialties", len(specialtyNames), "number of specialties to create")
	rootCmd.Flags().IntVar(&clinicCount, "clinics", 5, "number of clinics to create")
	rootCmd.Flags().IntVar(&doctorCount, "doctors", 40, "number of doctors to create")
	rootCmd.Flags().IntVar(&patientCount, "patients", 500, "number of patients to create")
	rootCmd.Flags().Uint64Var(&fakerSeed, "seed", 0, "faker seed, 0 picks a random one")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if dbPath == "" {
		dbPath = cfg.RegistrySQLitePath
	}
	if specialtyCount < 1 || specialtyCount > len(specialtyNames) {
		return fmt.Errorf("--specialties must be between 1 and %d", len(specialtyNames))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sqlDB, err := db.OpenSQLite(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer sqlDB.Close()

	repo := registry.NewSQLiteRepository(sqlDB)
	if err := repo.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	s := &seeder{
		svc:   registry.NewService(repo),
		faker: gofakeit.New(fakerSeed),
	}

	logger.Info("seed starting", zap.String("db", dbPath))
	start := time.Now()

	specialties, err := s.seedSpecialties(ctx, specialtyNames[:specialtyCount])
	if err != nil {
		return fmt.Errorf("seed specialties: %w", err)
	}
	if err := s.seedClinics(ctx, clinicCount); err != nil {
		return fmt.Errorf("seed clinics: %w", err)
	}
	if err := s.seedDoctors(ctx, doctorCount, specialties); err != nil {
		return fmt.Errorf("seed doctors: %w", err)
	}
	if err := s.seedPatients(ctx, patientCount); err != nil {
		return fmt.Errorf("seed patients: %w", err)
	}

	logger.Info("seed complete", zap.Duration("took", time.Since(start)))
	return nil
}

type seeder struct {
	svc   *registry.Service
	faker *gofakeit.Faker
}

func (s *seeder) seedSpecialties(ctx context.Context, names []string) ([]int64, error) {
	logger.Info("seeding specialties", zap.Int("count", len(names)))

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		sp, err := s.svc.CreateSpecialty(ctx, registry.Specialty{Name: name, Active: true})
		if err != nil {
			return nil, err
		}
		ids = append(ids, sp.ID)
	}
	return ids, nil
}

func (s *seeder) seedClinics(ctx context.Context, count int) error {
	logger.Info("seeding clinics", zap.Int("count", count))

	for i := 0; i < count; i++ {
		_, err := s.svc.CreateClinic(ctx, registry.Clinic{
			Name:    s.faker.Company() + " Clinic",
			Address: s.faker.Street(),
			Active:  true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedDoctors(ctx context.Context, count int, specialties []int64) error {
	logger.Info("seeding doctors", zap.Int("count", count))

	for i := 0; i < count; i++ {
		_, err := s.svc.CreateDoctor(ctx, registry.Doctor{
			Name:        "Dr. " + s.faker.Name(),
			SpecialtyID: specialties[s.faker.Number(0, len(specialties)-1)],
			CRM:         fmt.Sprintf("CRM-%06d", s.faker.Number(1, 999999)),
			Active:      true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedPatients(ctx context.Context, count int) error {
	logger.Info("seeding patients", zap.Int("count", count))

	now := time.Now().UTC()
	oldest := now.AddDate(-90, 0, 0)

	for i := 0; i < count; i++ {
		birth := s.faker.DateRange(oldest, now).Truncate(24 * time.Hour)
		_, err := s.svc.CreatePatient(ctx, registry.Patient{
			Name:      s.faker.Name(),
			Email:     s.faker.Email(),
			Phone:     s.faker.Phone(),
			BirthDate: &birth,
			Active:    true,
		})
		if err != nil {
			return err
		}

		if (i+1)%100 == 0 {
			logger.Debug("patients seeded", zap.Int("done", i+1))
		}
	}
	return nil
}
