// Package ingest folds per-insurer excluded-hospital lists into the
// registry and prunes entities no source reports anymore.
package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/insuremap/exclusion-registry/internal/model"
	"github.com/insuremap/exclusion-registry/internal/registry"
)

// SourceFileSuffix is the naming convention the scrapers use for their
// output files; the insurer name is everything before it.
const SourceFileSuffix = " Excluded_Hospitals_List.json"

// minAddressLen guards against clobbering a stored address with a
// truncated fragment from a worse source.
const minAddressLen = 5

// Result summarizes one ingestion pass.
type Result struct {
	SourcesRead   int
	SourcesFailed []string
	Records       int
	Added         int
	Updated       int
	Pruned        int
}

// Run reads every source file in dataDir, merges its records into reg
// under the precedence rules, and prunes entities no longer reported.
// A malformed source file is logged and skipped; its entities survive
// pruning if it was their only backer this run.
func Run(dataDir string, reg *registry.Registry) (Result, error) {
	var res Result

	paths, err := filepath.Glob(filepath.Join(dataDir, "*"+SourceFileSuffix))
	if err != nil {
		return res, eris.Wrapf(err, "ingest: glob %s", dataDir)
	}
	if len(paths) == 0 {
		zap.L().Warn("no source files found, skipping ingestion", zap.String("dir", dataDir))
		return res, nil
	}

	log := zap.L().With(zap.String("stage", "ingest"))
	log.Info("merging source files", zap.Int("files", len(paths)))

	touched := make(map[string]struct{})
	failed := make(map[string]struct{})

	for _, path := range paths {
		source := sourceName(path)
		records, readErr := readSource(path)
		if readErr != nil {
			log.Error("skipping unreadable source", zap.String("source", source), zap.Error(readErr))
			failed[source] = struct{}{}
			res.SourcesFailed = append(res.SourcesFailed, source)
			continue
		}
		res.SourcesRead++

		for _, rec := range records {
			if !rec.Usable() {
				continue
			}
			res.Records++
			mergeRecord(reg, rec, source, touched, &res, log)
		}
	}

	// Prune entities untouched this run, unless every source that ever
	// reported them failed to load (transient scraper outage must not
	// delete resolved data).
	if res.SourcesRead > 0 {
		for _, id := range reg.IDs() {
			if _, ok := touched[id]; ok {
				continue
			}
			e := reg.Get(id)
			if allSourcesFailed(e, failed) {
				log.Warn("retaining entity: all backing sources failed this run",
					zap.String("name", e.Name), zap.Strings("sources", e.ExcludedBy))
				continue
			}
			log.Info("pruning entity no longer reported", zap.String("name", e.Name))
			reg.Delete(id)
			res.Pruned++
		}
	}

	log.Info("ingestion complete",
		zap.Int("sources", res.SourcesRead),
		zap.Int("records", res.Records),
		zap.Int("added", res.Added),
		zap.Int("updated", res.Updated),
		zap.Int("pruned", res.Pruned),
	)
	return res, nil
}

func mergeRecord(reg *registry.Registry, rec model.SourceRecord, source string, touched map[string]struct{}, res *Result, log *zap.Logger) {
	id := rec.ID()
	touched[id] = struct{}{}

	existing := reg.Get(id)
	if existing == nil {
		reg.Put(id, &model.Entity{
			Name:            strings.TrimSpace(rec.Name),
			Address:         strings.TrimSpace(rec.Address),
			City:            strings.TrimSpace(rec.City),
			State:           strings.TrimSpace(rec.State),
			Pincode:         strings.TrimSpace(rec.Pincode),
			ExcludedBy:      []string{source},
			Accuracy:        model.AccuracyPending,
			NeedsResolution: true,
		})
		res.Added++
		return
	}

	// HIGH accuracy text is ground truth; only the source set may grow.
	if existing.Accuracy == model.AccuracyHigh {
		if existing.AddSource(source) {
			log.Debug("merged source into confirmed entity",
				zap.String("source", source), zap.String("name", existing.Name))
		}
		return
	}

	newAddr := strings.TrimSpace(rec.Address)
	if newAddr != strings.TrimSpace(existing.Address) && len(newAddr) > minAddressLen {
		existing.Address = newAddr
		existing.City = strings.TrimSpace(rec.City)
		existing.State = strings.TrimSpace(rec.State)
		existing.Pincode = strings.TrimSpace(rec.Pincode)
		existing.NeedsResolution = true
		res.Updated++
		log.Debug("address changed, entity queued for re-resolution",
			zap.String("name", existing.Name))
	}

	existing.AddSource(source)
}

func readSource(path string) ([]model.SourceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read source")
	}
	var records []model.SourceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "ingest: parse source")
	}
	return records, nil
}

func sourceName(path string) string {
	return strings.TrimSpace(strings.TrimSuffix(filepath.Base(path), SourceFileSuffix))
}

func allSourcesFailed(e *model.Entity, failed map[string]struct{}) bool {
	if len(e.ExcludedBy) == 0 || len(failed) == 0 {
		return false
	}
	for _, s := range e.ExcludedBy {
		if _, ok := failed[s]; !ok {
			return false
		}
	}
	return true
}
