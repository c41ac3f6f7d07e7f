package fixtures

import (
	"context"
	"fmt"

	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/services"
	"github.com/courtroom-studio/engine/pkg/logger"
	"github.com/courtroom-studio/engine/pkg/utils"
	"go.uber.org/zap"
)

// Seeder writes a fixture set: the role catalog first, then every case through
// the importer. Cases whose bytes were imported before are skipped.
type Seeder struct {
	templates repository.RoleTemplateRepository
	records   repository.ImportRecordRepository
	importer  services.ImportService
}

func NewSeeder(templates repository.RoleTemplateRepository, records repository.ImportRecordRepository, importer services.ImportService) *Seeder {
	return &Seeder{templates: templates, records: records, importer: importer}
}

type SeedResult struct {
	Templates int
	Imported  map[string]services.ImportResult
	Skipped   []string
}

func (s *Seeder) Seed(ctx context.Context, actor services.Actor, set *Set) (*SeedResult, error) {
	logger.L().Info("seeding fixtures", zap.Int("roles", len(set.Roles)), zap.Int("cases", len(set.Cases)))

	res := &SeedResult{Imported: make(map[string]services.ImportResult)}
	if err := s.templates.Upsert(ctx, set.Templates()); err != nil {
		return nil, err
	}
	res.Templates = len(set.Roles)

	for _, c := range set.Cases {
		seen, err := s.records.HasChecksum(ctx, utils.Checksum(c.Raw))
		if err != nil {
			return nil, err
		}
		if seen {
			logger.L().Info("fixture already imported", zap.String("case", c.Name))
			res.Skipped = append(res.Skipped, c.Name)
			continue
		}

		out, err := s.importer.ImportDocument(ctx, actor, c.Document, c.Raw, services.ImportOptions{})
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", c.Name, err)
		}
		res.Imported[c.Name] = *out
		logger.L().Info("fixture imported", zap.String("case", c.Name), zap.String("scenario_id", out.ScenarioID.String()))
	}
	return res, nil
}
