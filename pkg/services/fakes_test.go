package services

import (
	"context"
	"time"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/models"
)

// In-memory repository fakes. They apply field maps the way the SQL
// implementations do, including the only-touch-changed-rows behavior the
// cascade counts on.

type memArchiveStudies struct {
	recs map[string]*models.ArchiveStudy
}

func newMemArchiveStudies() *memArchiveStudies {
	return &memArchiveStudies{recs: make(map[string]*models.ArchiveStudy)}
}

func (m *memArchiveStudies) Upsert(_ context.Context, study *models.ArchiveStudy) error {
	cp := *study
	if existing, ok := m.recs[study.Accession]; ok {
		cp.FetchedAt = existing.FetchedAt
		if cp.WebinSubmitter == "" {
			cp.WebinSubmitter = existing.WebinSubmitter
		}
	}
	m.recs[study.Accession] = &cp
	return nil
}

func (m *memArchiveStudies) Get(_ context.Context, acc string) (*models.ArchiveStudy, error) {
	study, ok := m.recs[acc]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *study
	return &cp, nil
}

func (m *memArchiveStudies) UpdateFields(_ context.Context, acc string, fields models.FieldMap) error {
	study, ok := m.recs[acc]
	if !ok {
		return apperrors.ErrNotFound
	}
	for col, val := range fields {
		switch col {
		case "title":
			study.Title = val.(string)
		case "additional_accessions":
			study.AdditionalAccessions = val.(models.AccessionList)
		case "is_private":
			study.IsPrivate = val.(bool)
		case "is_suppressed":
			study.IsSuppressed = val.(bool)
		case "webin_submitter":
			study.WebinSubmitter = val.(string)
		}
	}
	return nil
}

func (m *memArchiveStudies) MarkFetched(_ context.Context, acc string, at time.Time) error {
	study, ok := m.recs[acc]
	if !ok {
		return apperrors.ErrNotFound
	}
	study.FetchedAt = at
	return nil
}

type memArchiveSamples struct {
	recs map[string]*models.ArchiveSample
}

func newMemArchiveSamples() *memArchiveSamples {
	return &memArchiveSamples{recs: make(map[string]*models.ArchiveSample)}
}

func (m *memArchiveSamples) Upsert(_ context.Context, sample *models.ArchiveSample) error {
	cp := *sample
	cp.FetchedAt = time.Now()
	m.recs[sample.Accession] = &cp
	return nil
}

func (m *memArchiveSamples) Get(_ context.Context, acc string) (*models.ArchiveSample, error) {
	sample, ok := m.recs[acc]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *sample
	return &cp, nil
}

func (m *memArchiveSamples) ListByStudy(_ context.Context, studyAcc string) ([]*models.ArchiveSample, error) {
	var out []*models.ArchiveSample
	for _, sample := range m.recs {
		if sample.StudyAccession == studyAcc {
			cp := *sample
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memStudies struct {
	recs   []*models.Study
	nextID int64
}

func (m *memStudies) FindOverlapping(_ context.Context, accs accession.Set) ([]*models.Study, error) {
	var out []*models.Study
	for _, s := range m.recs {
		if s.Accessions.Set().Overlaps(accs) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Insert stores a copy, like the SQL implementation scans rows into
// fresh structs rather than sharing the caller's.
func (m *memStudies) Insert(_ context.Context, study *models.Study) error {
	m.nextID++
	study.ID = m.nextID
	study.Accession = models.MakeStudyAccession(study.ID)
	study.CreatedAt = time.Now()
	study.UpdatedAt = study.CreatedAt
	cp := *study
	m.recs = append(m.recs, &cp)
	return nil
}

func applyStudyFields(s *models.Study, fields models.FieldMap) bool {
	changed := false
	for col, val := range fields {
		switch col {
		case "title":
			if v := val.(string); s.Title != v {
				s.Title, changed = v, true
			}
		case "accessions":
			s.Accessions, changed = val.(models.AccessionList), true
		case "is_private":
			if v := val.(bool); s.IsPrivate != v {
				s.IsPrivate, changed = v, true
			}
		case "is_suppressed":
			if v := val.(bool); s.IsSuppressed != v {
				s.IsSuppressed, changed = v, true
			}
		case "webin_submitter":
			if v := val.(string); s.WebinSubmitter != v {
				s.WebinSubmitter, changed = v, true
			}
		case "is_ready":
			if v := val.(bool); s.IsReady != v {
				s.IsReady, changed = v, true
			}
		}
	}
	return changed
}

func (m *memStudies) UpdateFields(_ context.Context, id int64, fields models.FieldMap) error {
	for _, s := range m.recs {
		if s.ID == id {
			applyStudyFields(s, fields)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memStudies) StoreAccessions(ctx context.Context, id int64, accs accession.Set) error {
	return m.UpdateFields(ctx, id, models.FieldMap{"accessions": models.AccessionList(accs)})
}

func (m *memStudies) GetByAccession(_ context.Context, acc string) (*models.Study, error) {
	for _, s := range m.recs {
		if s.Accession == acc || s.Accessions.Set().Contains(acc) {
			return s, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memStudies) ApplyVisibility(_ context.Context, archiveAcc string, fields models.FieldMap) (int64, error) {
	var rows int64
	for _, s := range m.recs {
		if s.ArchiveStudyAccession == archiveAcc && applyStudyFields(s, fields) {
			rows++
		}
	}
	return rows, nil
}

// studyIDs returns ids of studies derived from one archive study.
func (m *memStudies) studyIDs(archiveAcc string) map[int64]bool {
	ids := make(map[int64]bool)
	for _, s := range m.recs {
		if s.ArchiveStudyAccession == archiveAcc {
			ids[s.ID] = true
		}
	}
	return ids
}

func applyVisibilityFields(v *models.Visibility, fields models.FieldMap) bool {
	changed := false
	for col, val := range fields {
		switch col {
		case "is_private":
			if b := val.(bool); v.IsPrivate != b {
				v.IsPrivate, changed = b, true
			}
		case "is_suppressed":
			if b := val.(bool); v.IsSuppressed != b {
				v.IsSuppressed, changed = b, true
			}
		case "webin_submitter":
			if s := val.(string); v.WebinSubmitter != s {
				v.WebinSubmitter, changed = s, true
			}
		}
	}
	return changed
}

type memSamples struct {
	recs    []*models.Sample
	nextID  int64
	studies *memStudies
}

func (m *memSamples) FindOverlapping(_ context.Context, accs accession.Set) ([]*models.Sample, error) {
	var out []*models.Sample
	for _, s := range m.recs {
		if s.Accessions.Set().Overlaps(accs) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSamples) Insert(_ context.Context, sample *models.Sample) error {
	m.nextID++
	sample.ID = m.nextID
	sample.Accession = models.SampleAccessionPrefix + models.MakeStudyAccession(sample.ID)[3:]
	sample.CreatedAt = time.Now()
	sample.UpdatedAt = sample.CreatedAt
	cp := *sample
	m.recs = append(m.recs, &cp)
	return nil
}

func (m *memSamples) UpdateFields(_ context.Context, id int64, fields models.FieldMap) error {
	for _, s := range m.recs {
		if s.ID == id {
			applyVisibilityFields(&s.Visibility, fields)
			if v, ok := fields["accessions"]; ok {
				s.Accessions = v.(models.AccessionList)
			}
			if v, ok := fields["metadata"]; ok {
				s.Metadata = v.(models.JSONBMap)
			}
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memSamples) StoreAccessions(ctx context.Context, id int64, accs accession.Set) error {
	return m.UpdateFields(ctx, id, models.FieldMap{"accessions": models.AccessionList(accs)})
}

func (m *memSamples) ApplyVisibility(_ context.Context, archiveAcc string, fields models.FieldMap) (int64, error) {
	ids := m.studies.studyIDs(archiveAcc)
	var rows int64
	for _, s := range m.recs {
		if ids[s.StudyID] && applyVisibilityFields(&s.Visibility, fields) {
			rows++
		}
	}
	return rows, nil
}

type memRuns struct {
	recs    []*models.Run
	nextID  int64
	studies *memStudies
}

func (m *memRuns) FindOverlapping(_ context.Context, accs accession.Set) ([]*models.Run, error) {
	var out []*models.Run
	for _, r := range m.recs {
		if r.Accessions.Set().Overlaps(accs) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRuns) Insert(_ context.Context, run *models.Run) error {
	m.nextID++
	run.ID = m.nextID
	run.Accession = "SCR" + models.MakeStudyAccession(run.ID)[3:]
	run.CreatedAt = time.Now()
	run.UpdatedAt = run.CreatedAt
	cp := *run
	m.recs = append(m.recs, &cp)
	return nil
}

func (m *memRuns) UpdateFields(_ context.Context, id int64, fields models.FieldMap) error {
	for _, r := range m.recs {
		if r.ID == id {
			applyVisibilityFields(&r.Visibility, fields)
			if v, ok := fields["accessions"]; ok {
				r.Accessions = v.(models.AccessionList)
			}
			if v, ok := fields["experiment_type"]; ok {
				r.ExperimentType = v.(models.ExperimentType)
			}
			if v, ok := fields["metadata"]; ok {
				r.Metadata = v.(models.JSONBMap)
			}
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memRuns) StoreAccessions(ctx context.Context, id int64, accs accession.Set) error {
	return m.UpdateFields(ctx, id, models.FieldMap{"accessions": models.AccessionList(accs)})
}

func (m *memRuns) ListByStudy(_ context.Context, studyID int64) ([]*models.Run, error) {
	var out []*models.Run
	for _, r := range m.recs {
		if r.StudyID == studyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRuns) ApplyVisibility(_ context.Context, archiveAcc string, fields models.FieldMap) (int64, error) {
	ids := m.studies.studyIDs(archiveAcc)
	var rows int64
	for _, r := range m.recs {
		if ids[r.StudyID] && applyVisibilityFields(&r.Visibility, fields) {
			rows++
		}
	}
	return rows, nil
}

type memAssemblies struct {
	recs    []*models.Assembly
	nextID  int64
	studies *memStudies
}

func (m *memAssemblies) FindOverlapping(_ context.Context, accs accession.Set) ([]*models.Assembly, error) {
	var out []*models.Assembly
	for _, a := range m.recs {
		if a.Accessions.Set().Overlaps(accs) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssemblies) Insert(_ context.Context, assembly *models.Assembly) error {
	m.nextID++
	assembly.ID = m.nextID
	assembly.Accession = models.AssemblyAccessionPrefix + models.MakeStudyAccession(assembly.ID)[3:]
	assembly.CreatedAt = time.Now()
	assembly.UpdatedAt = assembly.CreatedAt
	cp := *assembly
	m.recs = append(m.recs, &cp)
	return nil
}

func (m *memAssemblies) UpdateFields(_ context.Context, id int64, fields models.FieldMap) error {
	for _, a := range m.recs {
		if a.ID == id {
			for col, val := range fields {
				switch col {
				case "accessions":
					a.Accessions = val.(models.AccessionList)
				case "is_private":
					a.IsPrivate = val.(bool)
				case "is_suppressed":
					a.IsSuppressed = val.(bool)
				case "metadata":
					a.Metadata = val.(models.JSONBMap)
				}
			}
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memAssemblies) StoreAccessions(ctx context.Context, id int64, accs accession.Set) error {
	return m.UpdateFields(ctx, id, models.FieldMap{"accessions": models.AccessionList(accs)})
}

func (m *memAssemblies) ApplyVisibility(_ context.Context, archiveAcc string, fields models.FieldMap) (int64, error) {
	ids := m.studies.studyIDs(archiveAcc)
	var rows int64
	for _, a := range m.recs {
		if !ids[a.StudyID] {
			continue
		}
		changed := false
		for col, val := range fields {
			switch col {
			case "is_private":
				if b := val.(bool); a.IsPrivate != b {
					a.IsPrivate, changed = b, true
				}
			case "is_suppressed":
				if b := val.(bool); a.IsSuppressed != b {
					a.IsSuppressed, changed = b, true
				}
			}
		}
		if changed {
			rows++
		}
	}
	return rows, nil
}
