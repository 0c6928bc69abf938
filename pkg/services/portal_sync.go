package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seqcat-bio/seqcat-engine/pkg/accession"
	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/models"
	"github.com/seqcat-bio/seqcat-engine/pkg/portal"
	"github.com/seqcat-bio/seqcat-engine/pkg/repositories"
)

// SyncConfig tunes portal synchronization.
type SyncConfig struct {
	// PageSize bounds each paged portal request.
	PageSize int
	// DataHubSubmitter is the submitter account behind the data-hub
	// credentials; records fetched privately are attributed to it.
	DataHubSubmitter string
}

// ReadRunFilter narrows a read-run sync.
type ReadRunFilter struct {
	// LibraryStrategy, when set, restricts the portal query to runs of
	// one strategy (e.g. AMPLICON).
	LibraryStrategy string
}

// SkippedRecord names a portal record excluded from import and why.
type SkippedRecord struct {
	Accession string `json:"accession"`
	Reason    string `json:"reason"`
}

// SyncReport summarizes one sync pass over a study's runs or assemblies.
type SyncReport struct {
	Study    *models.Study   `json:"study"`
	Imported int             `json:"imported"`
	Created  int             `json:"created"`
	Skipped  []SkippedRecord `json:"skipped,omitempty"`
}

// PortalSyncService synchronizes archive studies and their read runs and
// assemblies into the catalogue.
type PortalSyncService interface {
	FetchStudy(ctx context.Context, acc string) (*models.Study, error)
	FetchStudyReadRuns(ctx context.Context, acc string, filter ReadRunFilter) (*SyncReport, error)
	FetchStudyAssemblies(ctx context.Context, acc string) (*SyncReport, error)
}

type portalSyncService struct {
	client *portal.Client
	prober *portal.Prober
	cfg    SyncConfig

	archiveStudies repositories.ArchiveStudyRepository
	archiveSamples repositories.ArchiveSampleRepository
	studies        repositories.StudyRepository
	samples        repositories.SampleRepository
	runs           repositories.RunRepository
	assemblies     repositories.AssemblyRepository

	studyResolver    *Resolver[*models.Study]
	sampleResolver   *Resolver[*models.Sample]
	runResolver      *Resolver[*models.Run]
	assemblyResolver *Resolver[*models.Assembly]

	cascade *VisibilityCascade
	logger  *zap.Logger
}

// NewPortalSyncService wires the sync orchestrator.
func NewPortalSyncService(
	client *portal.Client,
	cfg SyncConfig,
	archiveStudies repositories.ArchiveStudyRepository,
	archiveSamples repositories.ArchiveSampleRepository,
	studies repositories.StudyRepository,
	samples repositories.SampleRepository,
	runs repositories.RunRepository,
	assemblies repositories.AssemblyRepository,
	logger *zap.Logger,
) PortalSyncService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5000
	}
	logger = logger.Named("portal-sync")
	return &portalSyncService{
		client:           client,
		prober:           portal.NewProber(client, logger),
		cfg:              cfg,
		archiveStudies:   archiveStudies,
		archiveSamples:   archiveSamples,
		studies:          studies,
		samples:          samples,
		runs:             runs,
		assemblies:       assemblies,
		studyResolver:    NewResolver[*models.Study](studies, logger),
		sampleResolver:   NewResolver[*models.Sample](samples, logger),
		runResolver:      NewResolver[*models.Run](runs, logger),
		assemblyResolver: NewResolver[*models.Assembly](assemblies, logger),
		cascade:          NewVisibilityCascade(studies, samples, runs, assemblies, logger),
		logger:           logger,
	}
}

var _ PortalSyncService = (*portalSyncService)(nil)

func studyQuery(acc string) portal.Expression {
	return portal.NewClause(portal.FieldStudyAccession, acc).
		Or(portal.NewClause(portal.FieldSecondaryStudyAccession, acc))
}

// FetchStudy probes the portal for the study, refreshes its archive
// mirror and resolved catalogue study, and cascades visibility. The
// mirror's fetched_at marker is settled only after the cascade, so an
// interrupted pass stays visibly stale.
func (s *portalSyncService) FetchStudy(ctx context.Context, acc string) (*models.Study, error) {
	visibility, err := s.prober.CheckStudy(ctx, acc)
	if err != nil {
		return nil, err
	}
	if visibility == portal.VisibilitySuppressed {
		return nil, s.suppressStudy(ctx, acc)
	}

	isPrivate := visibility == portal.VisibilityPrivate
	auth := portal.AsPublic
	if isPrivate {
		auth = portal.AsDataHub
	}

	records, err := s.client.Execute(ctx, portal.Request{
		Result: portal.ResultTypeStudy,
		Query:  studyQuery(acc),
		Fields: portal.DefaultStudyFields,
	}, auth, false)
	if err != nil {
		return nil, fmt.Errorf("fetching study %s: %w", acc, err)
	}
	rec := records[0]

	primary, additional := chooseStudyAccessions(rec, acc)
	webin := s.privateSubmitter(isPrivate)

	archive := &models.ArchiveStudy{
		Accession:            primary,
		Title:                rec[portal.FieldStudyTitle],
		AdditionalAccessions: models.AccessionList(additional),
		IsPrivate:            isPrivate,
		WebinSubmitter:       webin,
	}
	if err := s.archiveStudies.Upsert(ctx, archive); err != nil {
		return nil, err
	}

	study, created, err := s.studyResolver.Resolve(ctx, ResolveSpec[*models.Study]{
		Accessions: archive.AllAccessions(),
		Create: &models.Study{
			Title:                 archive.Title,
			ArchiveStudyAccession: primary,
			Visibility: models.Visibility{
				IsPrivate:      isPrivate,
				WebinSubmitter: webin,
			},
		},
		Update: models.FieldMap{"title": archive.Title},
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.cascade.Apply(ctx, archive); err != nil {
		return nil, err
	}
	if err := s.archiveStudies.MarkFetched(ctx, primary, time.Now()); err != nil {
		return nil, err
	}

	study.IsPrivate = archive.IsPrivate
	study.IsSuppressed = archive.IsSuppressed
	if webin != "" {
		study.WebinSubmitter = webin
	}

	s.logger.Info("Study synchronized",
		zap.String("archive_study", primary),
		zap.String("study", study.Accession),
		zap.Bool("created", created),
		zap.String("visibility", visibility.String()))
	return study, nil
}

// suppressStudy marks an already-known study suppressed and cascades the
// flag. Studies never seen before are simply reported unavailable.
func (s *portalSyncService) suppressStudy(ctx context.Context, acc string) error {
	study, err := s.studies.GetByAccession(ctx, acc)
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("%w: study %s not served by portal", apperrors.ErrNotAvailable, acc)
	}
	if err != nil {
		return err
	}

	archive, err := s.archiveStudies.Get(ctx, study.ArchiveStudyAccession)
	if err != nil {
		return err
	}
	if !archive.IsSuppressed {
		if err := s.archiveStudies.UpdateFields(ctx, archive.Accession,
			models.FieldMap{"is_suppressed": true}); err != nil {
			return err
		}
		archive.IsSuppressed = true
	}
	if _, err := s.cascade.Apply(ctx, archive); err != nil {
		return err
	}
	if err := s.archiveStudies.MarkFetched(ctx, archive.Accession, time.Now()); err != nil {
		return err
	}

	s.logger.Warn("Study suppressed in portal, catalogue records hidden",
		zap.String("archive_study", archive.Accession))
	return fmt.Errorf("%w: study %s is suppressed", apperrors.ErrNotAvailable, acc)
}

// FetchStudyReadRuns refreshes the study, then pages through its read
// runs importing each one that passes the library-source and FASTQ
// layout checks. Rejected runs are reported, not failed.
func (s *portalSyncService) FetchStudyReadRuns(ctx context.Context, acc string, filter ReadRunFilter) (*SyncReport, error) {
	study, err := s.FetchStudy(ctx, acc)
	if err != nil {
		return nil, err
	}

	query := studyQuery(study.ArchiveStudyAccession)
	if filter.LibraryStrategy != "" {
		query = query.And(portal.NewClause(portal.FieldLibraryStrategy, filter.LibraryStrategy))
	}

	auth := portal.AsPublic
	if study.IsPrivate {
		auth = portal.AsDataHub
	}

	report := &SyncReport{Study: study}
	err = s.client.ExecutePaged(ctx, portal.Request{
		Result: portal.ResultTypeReadRun,
		Query:  query,
		Fields: portal.DefaultReadRunFields,
		Limit:  s.cfg.PageSize,
	}, auth, true, func(rec portal.Record) error {
		return s.importReadRun(ctx, study, rec, report)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching read runs for %s: %w", acc, err)
	}

	s.logger.Info("Read runs synchronized",
		zap.String("study", study.Accession),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

func (s *portalSyncService) importReadRun(ctx context.Context, study *models.Study, rec portal.Record, report *SyncReport) error {
	runAcc := rec[portal.FieldRunAccession]
	if runAcc == "" {
		return nil
	}

	if !AdmitLibrarySource(rec[portal.FieldLibrarySource], rec[portal.FieldScientificName]) {
		report.Skipped = append(report.Skipped, SkippedRecord{Accession: runAcc, Reason: SkipReasonLibrarySource})
		return nil
	}

	check := CheckReadsFastq(splitFTPList(rec[portal.FieldFastqFTP]), rec[portal.FieldLibraryLayout])
	if !check.OK() {
		s.logger.Warn("Skipping read run",
			zap.String("run", runAcc),
			zap.String("reason", check.SkipReason))
		report.Skipped = append(report.Skipped, SkippedRecord{Accession: runAcc, Reason: check.SkipReason})
		return nil
	}

	sample, err := s.importSample(ctx, study, rec)
	if errors.Is(err, errNoSampleAccession) {
		s.logger.Warn("Skipping read run",
			zap.String("run", runAcc),
			zap.String("reason", SkipReasonNoSample))
		report.Skipped = append(report.Skipped, SkippedRecord{Accession: runAcc, Reason: SkipReasonNoSample})
		return nil
	}
	if err != nil {
		return err
	}

	metadata := models.JSONBMap{
		models.MetadataKeyFastqFTPs:          check.Files,
		models.MetadataKeyLibraryLayout:      rec[portal.FieldLibraryLayout],
		models.MetadataKeyLibraryStrategy:    rec[portal.FieldLibraryStrategy],
		models.MetadataKeyLibrarySource:      rec[portal.FieldLibrarySource],
		models.MetadataKeyInstrumentModel:    rec[portal.FieldInstrumentModel],
		models.MetadataKeyInstrumentPlatform: rec[portal.FieldInstrumentPlatform],
		models.MetadataKeyScientificName:     rec[portal.FieldScientificName],
		models.MetadataKeyHostScientificName: rec[portal.FieldHostScientificName],
	}
	experimentType := models.DeriveExperimentType(
		rec[portal.FieldLibraryStrategy], rec[portal.FieldLibrarySource])

	run, created, err := s.runResolver.Resolve(ctx, ResolveSpec[*models.Run]{
		Accessions: accession.NewSet(runAcc),
		Create: &models.Run{
			StudyID:        study.ID,
			SampleID:       sample.ID,
			Visibility:     study.Visibility,
			ExperimentType: experimentType,
			Metadata:       metadata,
		},
	})
	if err != nil {
		return err
	}
	if !created {
		merged, err := MergeMetadata(run.Metadata, metadata)
		if err != nil {
			return err
		}
		if err := s.runs.UpdateFields(ctx, run.ID, models.FieldMap{
			"experiment_type": experimentType,
			"metadata":        merged,
		}); err != nil {
			return err
		}
	} else {
		report.Created++
	}
	report.Imported++
	return nil
}

// errNoSampleAccession marks a portal record that names no sample. The
// callers record it as a skip; it never fails a batch.
var errNoSampleAccession = errors.New("record reports no sample accession")

// importSample mirrors the run's sample into archive_samples and
// resolves the catalogue sample under its study.
func (s *portalSyncService) importSample(ctx context.Context, study *models.Study, rec portal.Record) (*models.Sample, error) {
	biosample := rec[portal.FieldSampleAccession]
	secondary := rec[portal.FieldSecondarySampleAccession]

	accs := accession.NewSet(biosample, secondary)
	if len(accs) == 0 {
		return nil, errNoSampleAccession
	}

	metadata := models.JSONBMap{
		models.MetadataKeyScientificName: rec[portal.FieldScientificName],
	}
	if title := rec[portal.FieldSampleTitle]; title != "" {
		metadata["sample_title"] = title
	}

	if err := s.archiveSamples.Upsert(ctx, &models.ArchiveSample{
		Accession:      accs.First(),
		StudyAccession: study.ArchiveStudyAccession,
		Metadata:       metadata,
	}); err != nil {
		return nil, err
	}

	sample, _, err := s.sampleResolver.Resolve(ctx, ResolveSpec[*models.Sample]{
		Accessions: accs,
		Create: &models.Sample{
			StudyID:    study.ID,
			Visibility: study.Visibility,
			Metadata:   metadata,
		},
	})
	return sample, err
}

// FetchStudyAssemblies refreshes the study, then imports its sequence
// assemblies from the portal's analysis results.
func (s *portalSyncService) FetchStudyAssemblies(ctx context.Context, acc string) (*SyncReport, error) {
	study, err := s.FetchStudy(ctx, acc)
	if err != nil {
		return nil, err
	}

	query := studyQuery(study.ArchiveStudyAccession).
		And(portal.NewClause(portal.FieldAnalysisType, portal.AnalysisTypeSequenceAssembly))

	auth := portal.AsPublic
	if study.IsPrivate {
		auth = portal.AsDataHub
	}

	report := &SyncReport{Study: study}
	err = s.client.ExecutePaged(ctx, portal.Request{
		Result: portal.ResultTypeAnalysis,
		Query:  query,
		Fields: portal.DefaultAssemblyFields,
		Limit:  s.cfg.PageSize,
	}, auth, true, func(rec portal.Record) error {
		return s.importAssembly(ctx, study, rec, report)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching assemblies for %s: %w", acc, err)
	}

	s.logger.Info("Assemblies synchronized",
		zap.String("study", study.Accession),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

func (s *portalSyncService) importAssembly(ctx context.Context, study *models.Study, rec portal.Record, report *SyncReport) error {
	analysisAcc := rec[portal.FieldAnalysisAccession]
	if analysisAcc == "" {
		return nil
	}

	sample, err := s.importSample(ctx, study, rec)
	if errors.Is(err, errNoSampleAccession) {
		s.logger.Warn("Skipping assembly",
			zap.String("analysis", analysisAcc),
			zap.String("reason", SkipReasonNoSample))
		report.Skipped = append(report.Skipped, SkippedRecord{Accession: analysisAcc, Reason: SkipReasonNoSample})
		return nil
	}
	if err != nil {
		return err
	}

	metadata := models.JSONBMap{
		models.MetadataKeyAssemblyFTPs: splitFTPList(rec[portal.FieldGeneratedFTP]),
	}
	if assemblyType := rec[portal.FieldAssemblyType]; assemblyType != "" {
		metadata["assembly_type"] = assemblyType
	}

	assembly, created, err := s.assemblyResolver.Resolve(ctx, ResolveSpec[*models.Assembly]{
		Accessions: accession.NewSet(analysisAcc),
		Create: &models.Assembly{
			StudyID:      study.ID,
			SampleID:     sample.ID,
			IsPrivate:    study.IsPrivate,
			IsSuppressed: study.IsSuppressed,
			Metadata:     metadata,
		},
	})
	if err != nil {
		return err
	}
	if !created {
		merged, err := MergeMetadata(assembly.Metadata, metadata)
		if err != nil {
			return err
		}
		if err := s.assemblies.UpdateFields(ctx, assembly.ID, models.FieldMap{
			"metadata": merged,
		}); err != nil {
			return err
		}
	} else {
		report.Created++
	}
	report.Imported++
	return nil
}

// privateSubmitter attributes privately fetched records to the data-hub
// account when one is configured and well-formed.
func (s *portalSyncService) privateSubmitter(isPrivate bool) string {
	if !isPrivate || s.cfg.DataHubSubmitter == "" {
		return ""
	}
	if !ValidWebinAccount(s.cfg.DataHubSubmitter) {
		s.logger.Warn("Configured data-hub submitter is not a Webin account, ignoring",
			zap.String("submitter", s.cfg.DataHubSubmitter))
		return ""
	}
	return s.cfg.DataHubSubmitter
}

// chooseStudyAccessions picks the mirror's primary accession out of a
// portal study record, preferring the INSDC secondary study accession
// over the project accession, and returns the rest (plus the accession
// the caller asked for) as additional.
func chooseStudyAccessions(rec portal.Record, requested string) (string, accession.Set) {
	reported := rec[portal.FieldStudyAccession]
	secondary := rec[portal.FieldSecondaryStudyAccession]

	all := accession.NewSet(secondary, reported, requested)
	primary := all.First()
	if m := accession.StudyAccessionPattern.FindString(strings.Join(all, ";")); m != "" {
		primary = m
	}

	additional := accession.Set{}
	for _, a := range all {
		if a != primary {
			additional = additional.Union(accession.NewSet(a))
		}
	}
	return primary, additional
}

// splitFTPList splits the portal's semicolon-separated file listings,
// dropping empties.
func splitFTPList(list string) []string {
	if list == "" {
		return nil
	}
	var files []string
	for _, f := range strings.Split(list, ";") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}
