package portal

// ResultType identifies a portal search result kind. Query clauses and
// requested fields are validated against the result type's vocabulary
// before any network call.
type ResultType string

const (
	ResultTypeStudy    ResultType = "study"
	ResultTypeSample   ResultType = "sample"
	ResultTypeReadRun  ResultType = "read_run"
	ResultTypeAnalysis ResultType = "analysis"
)

// DataPortal selects the portal data view. Fixed per deployment.
type DataPortal string

const (
	DataPortalDefault    DataPortal = "ena"
	DataPortalMetagenome DataPortal = "metagenome"
)

// Study fields, from the portal's searchFields/returnFields listing for
// result=study.
const (
	FieldStudyAccession          = "study_accession"
	FieldSecondaryStudyAccession = "secondary_study_accession"
	FieldStudyTitle              = "study_title"
	FieldStudyDescription        = "study_description"
	FieldStudyName               = "study_name"
	FieldStudyAlias              = "study_alias"
	FieldParentStudyAccession    = "parent_study_accession"
	FieldProjectName             = "project_name"
	FieldBrokerName              = "broker_name"
	FieldCenterName              = "center_name"
	FieldFirstPublic             = "first_public"
	FieldLastUpdated             = "last_updated"
	FieldKeywords                = "keywords"
	FieldStatus                  = "status"
	FieldTaxID                   = "tax_id"
	FieldTaxDivision             = "tax_division"
	FieldScientificName          = "scientific_name"
	FieldDescription             = "description"
	FieldDatahub                 = "datahub"
)

// Read-run fields, result=read_run.
const (
	FieldRunAccession             = "run_accession"
	FieldSampleAccession          = "sample_accession"
	FieldSecondarySampleAccession = "secondary_sample_accession"
	FieldSampleTitle              = "sample_title"
	FieldExperimentAccession      = "experiment_accession"
	FieldFastqFTP                 = "fastq_ftp"
	FieldFastqMD5                 = "fastq_md5"
	FieldFastqBytes               = "fastq_bytes"
	FieldLibraryLayout            = "library_layout"
	FieldLibraryStrategy          = "library_strategy"
	FieldLibrarySource            = "library_source"
	FieldInstrumentModel          = "instrument_model"
	FieldInstrumentPlatform       = "instrument_platform"
	FieldHostTaxID                = "host_tax_id"
	FieldHostScientificName       = "host_scientific_name"
	FieldBaseCount                = "base_count"
	FieldReadCount                = "read_count"
)

// Sample fields, result=sample.
const (
	FieldSampleAlias         = "sample_alias"
	FieldCollectionDate      = "collection_date"
	FieldCountry             = "country"
	FieldDepth               = "depth"
	FieldElevation           = "elevation"
	FieldEnvironmentBiome    = "environment_biome"
	FieldEnvironmentFeature  = "environment_feature"
	FieldEnvironmentMaterial = "environment_material"
	FieldHost                = "host"
	FieldChecklist           = "checklist"
)

// Analysis fields, result=analysis. Assemblies are analysis records with
// analysis_type=SEQUENCE_ASSEMBLY.
const (
	FieldAnalysisAccession = "analysis_accession"
	FieldAnalysisType      = "analysis_type"
	FieldAnalysisTitle     = "analysis_title"
	FieldAssemblyType      = "assembly_type"
	FieldGeneratedFTP      = "generated_ftp"
	FieldGeneratedMD5      = "generated_md5"
)

// AnalysisTypeSequenceAssembly is the analysis_type value for assemblies.
const AnalysisTypeSequenceAssembly = "SEQUENCE_ASSEMBLY"

var studyFields = fieldSet(
	FieldStudyAccession,
	FieldSecondaryStudyAccession,
	FieldStudyTitle,
	FieldStudyDescription,
	FieldStudyName,
	FieldStudyAlias,
	FieldParentStudyAccession,
	FieldProjectName,
	FieldBrokerName,
	FieldCenterName,
	FieldFirstPublic,
	FieldLastUpdated,
	FieldKeywords,
	FieldStatus,
	FieldTaxID,
	FieldTaxDivision,
	FieldScientificName,
	FieldDescription,
	FieldDatahub,
)

var readRunFields = fieldSet(
	FieldRunAccession,
	FieldStudyAccession,
	FieldSecondaryStudyAccession,
	FieldSampleAccession,
	FieldSecondarySampleAccession,
	FieldSampleTitle,
	FieldExperimentAccession,
	FieldFastqFTP,
	FieldFastqMD5,
	FieldFastqBytes,
	FieldLibraryLayout,
	FieldLibraryStrategy,
	FieldLibrarySource,
	FieldInstrumentModel,
	FieldInstrumentPlatform,
	FieldScientificName,
	FieldTaxID,
	FieldHostTaxID,
	FieldHostScientificName,
	FieldBaseCount,
	FieldReadCount,
	FieldFirstPublic,
	FieldCenterName,
	FieldBrokerName,
)

var sampleFields = fieldSet(
	FieldSampleAccession,
	FieldSecondarySampleAccession,
	FieldSampleTitle,
	FieldSampleAlias,
	FieldDescription,
	FieldCollectionDate,
	FieldCountry,
	FieldDepth,
	FieldElevation,
	FieldEnvironmentBiome,
	FieldEnvironmentFeature,
	FieldEnvironmentMaterial,
	FieldHost,
	FieldHostTaxID,
	FieldTaxID,
	FieldScientificName,
	FieldChecklist,
	FieldFirstPublic,
	FieldLastUpdated,
	FieldCenterName,
	FieldBrokerName,
)

var analysisFields = fieldSet(
	FieldAnalysisAccession,
	FieldAnalysisType,
	FieldAnalysisTitle,
	FieldAssemblyType,
	FieldStudyAccession,
	FieldSecondaryStudyAccession,
	FieldSampleAccession,
	FieldSecondarySampleAccession,
	FieldGeneratedFTP,
	FieldGeneratedMD5,
	FieldFirstPublic,
	FieldLastUpdated,
	FieldCenterName,
	FieldTaxID,
	FieldScientificName,
)

// vocabularies maps each result type to its allowed field names.
var vocabularies = map[ResultType]map[string]struct{}{
	ResultTypeStudy:    studyFields,
	ResultTypeSample:   sampleFields,
	ResultTypeReadRun:  readRunFields,
	ResultTypeAnalysis: analysisFields,
}

func fieldSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Default field lists requested by sync fetches. Deployments can narrow
// or extend these through configuration; every entry must stay within
// the result type's vocabulary.
var (
	DefaultStudyFields = []string{
		FieldStudyAccession,
		FieldSecondaryStudyAccession,
		FieldStudyTitle,
		FieldCenterName,
		FieldFirstPublic,
		FieldLastUpdated,
	}

	DefaultReadRunFields = []string{
		FieldRunAccession,
		FieldSampleAccession,
		FieldSecondarySampleAccession,
		FieldSampleTitle,
		FieldFastqFTP,
		FieldLibraryLayout,
		FieldLibraryStrategy,
		FieldLibrarySource,
		FieldInstrumentModel,
		FieldInstrumentPlatform,
		FieldScientificName,
		FieldHostScientificName,
	}

	DefaultAssemblyFields = []string{
		FieldAnalysisAccession,
		FieldAnalysisType,
		FieldAssemblyType,
		FieldSampleAccession,
		FieldSecondarySampleAccession,
		FieldGeneratedFTP,
	}
)
