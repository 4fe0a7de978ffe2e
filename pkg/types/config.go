package types

// ProjectSettings holds the review-level metadata declared in the settings
// file. Per prd001-records R3.1.
type ProjectSettings struct {
	// Title is the working title of the literature review.
	Title string `json:"title" yaml:"title" mapstructure:"title"`

	// ReviewType labels the methodology (e.g. "scoping", "systematic").
	ReviewType string `json:"review_type" yaml:"review_type" mapstructure:"review_type"`
}

// Source declares a search source whose results feed the collection. Record
// origins reference sources by filename ("<filename>/<entry-id>").
// Per prd005-consistency R2.1, R2.4.
type Source struct {
	// Name is a human-readable label for the source.
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`

	// Filename is the result file the source produces. It must be unique
	// across sources and is the anchor origins resolve against.
	Filename string `json:"filename" yaml:"filename" mapstructure:"filename"`

	// Comment documents the search (query string, date, notes).
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty" mapstructure:"comment"`
}

// CriterionType distinguishes how a screen criterion is applied.
// Per prd005-consistency R2.7.
type CriterionType string

const (
	CriterionInclusion CriterionType = "inclusion_criterion"
	CriterionExclusion CriterionType = "exclusion_criterion"
)

// ScreenCriterion is one declared full-text screening criterion. Records
// excluded in the screen must cite at least one by name.
type ScreenCriterion struct {
	// Explanation states the criterion as shown to screeners.
	Explanation string `json:"explanation" yaml:"explanation" mapstructure:"explanation"`

	// Comment carries optional screener guidance.
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty" mapstructure:"comment"`

	// Type is inclusion_criterion or exclusion_criterion.
	Type CriterionType `json:"type" yaml:"type" mapstructure:"type"`
}

// ScreenSettings declares the criteria catalog for the full-text screen.
type ScreenSettings struct {
	// Criteria maps criterion names to their definitions.
	Criteria map[string]ScreenCriterion `json:"criteria" yaml:"criteria" mapstructure:"criteria"`
}

// QualityConfig holds thresholds and exemptions for the field rule library.
// Per prd002-quality R7.1-R7.4.
type QualityConfig struct {
	// CapsRatio is the uppercase-letter ratio at or above which a field is
	// flagged mostly-all-caps (default 0.8).
	CapsRatio float64 `json:"caps_ratio" yaml:"caps_ratio" mapstructure:"caps_ratio"`

	// AbbreviationMaxLen flags container titles shorter than this length as
	// abbreviated when they are all-uppercase (default 6).
	AbbreviationMaxLen int `json:"abbreviation_max_len" yaml:"abbreviation_max_len" mapstructure:"abbreviation_max_len"`

	// ContainerAllowlist exempts known-good short container titles
	// (e.g. "MIS Q") from the abbreviation rule.
	ContainerAllowlist []string `json:"container_allowlist,omitempty" yaml:"container_allowlist,omitempty" mapstructure:"container_allowlist"`

	// IgnoreDefects lists defect codes the model must not report.
	IgnoreDefects []string `json:"ignore_defects,omitempty" yaml:"ignore_defects,omitempty" mapstructure:"ignore_defects"`

	// Workers is the number of concurrent evaluation workers (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// SimilarityConfig holds the field weights and the duplicate decision
// threshold. Weights are renormalized over comparable fields at score time.
// Per prd003-similarity R4.1-R4.2.
type SimilarityConfig struct {
	// AuthorWeight is the author contribution (default 0.25).
	AuthorWeight float64 `json:"author_weight" yaml:"author_weight" mapstructure:"author_weight"`

	// TitleWeight is the title contribution (default 0.5).
	TitleWeight float64 `json:"title_weight" yaml:"title_weight" mapstructure:"title_weight"`

	// YearWeight is the year contribution (default 0.1).
	YearWeight float64 `json:"year_weight" yaml:"year_weight" mapstructure:"year_weight"`

	// ContainerWeight is the venue contribution (default 0.15).
	ContainerWeight float64 `json:"container_weight" yaml:"container_weight" mapstructure:"container_weight"`

	// Threshold is the score at or above which a pair is reported as a
	// likely duplicate (default 0.9). The scorer itself never applies it.
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// SameSourcePolicy controls how duplicate candidates sharing a search source
// are reported. Per prd008-dedupe R3.1.
type SameSourcePolicy string

const (
	SameSourcePrevent SameSourcePolicy = "prevent"
	SameSourceWarn    SameSourcePolicy = "warn"
	SameSourceApply   SameSourcePolicy = "apply"
)

// DedupeConfig holds settings for duplicate candidate reporting.
// Per prd008-dedupe R1.1, R3.1.
type DedupeConfig struct {
	// SameSourcePolicy is prevent, warn, or apply (default warn).
	SameSourcePolicy SameSourcePolicy `json:"same_source_policy" yaml:"same_source_policy" mapstructure:"same_source_policy"`

	// YearWindow blocks pairs whose years differ by more than this
	// (default 1).
	YearWindow int `json:"year_window" yaml:"year_window" mapstructure:"year_window"`
}

// PrescreenConfig declares the scope rules applied by the prescreen.
// Empty rule sets are inactive. Per prd007-prescreen R1.1-R1.4.
type PrescreenConfig struct {
	// EntryTypes restricts the review to the listed ENTRYTYPEs.
	EntryTypes []string `json:"entrytypes,omitempty" yaml:"entrytypes,omitempty" mapstructure:"entrytypes"`

	// YearFrom excludes records published before this year (0 = inactive).
	YearFrom int `json:"year_from,omitempty" yaml:"year_from,omitempty" mapstructure:"year_from"`

	// YearTo excludes records published after this year (0 = inactive).
	YearTo int `json:"year_to,omitempty" yaml:"year_to,omitempty" mapstructure:"year_to"`

	// OutletInclude keeps only records published in the listed outlets.
	OutletInclude []string `json:"outlet_include,omitempty" yaml:"outlet_include,omitempty" mapstructure:"outlet_include"`

	// OutletExclude drops records published in the listed outlets.
	OutletExclude []string `json:"outlet_exclude,omitempty" yaml:"outlet_exclude,omitempty" mapstructure:"outlet_exclude"`

	// ExcludeComplementary drops editorial and front-matter entries whose
	// title matches the complementary keyword list.
	ExcludeComplementary bool `json:"exclude_complementary" yaml:"exclude_complementary" mapstructure:"exclude_complementary"`

	// ComplementaryKeywords overrides the built-in keyword list.
	ComplementaryKeywords []string `json:"complementary_keywords,omitempty" yaml:"complementary_keywords,omitempty" mapstructure:"complementary_keywords"`
}

// StoreConfig holds the data file locations. Per prd006-snapshots R1.1.
type StoreConfig struct {
	// RecordsFile is the working records file (default "data/records.yaml").
	RecordsFile string `json:"records_file" yaml:"records_file" mapstructure:"records_file"`

	// DBPath is the snapshot database (default "data/review.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// Settings groups all project configuration read from review-engine.yaml.
type Settings struct {
	Project    ProjectSettings  `json:"project" yaml:"project" mapstructure:"project"`
	Sources    []Source         `json:"sources" yaml:"sources" mapstructure:"sources"`
	Quality    QualityConfig    `json:"quality" yaml:"quality" mapstructure:"quality"`
	Similarity SimilarityConfig `json:"similarity" yaml:"similarity" mapstructure:"similarity"`
	Dedupe     DedupeConfig     `json:"dedupe" yaml:"dedupe" mapstructure:"dedupe"`
	Prescreen  PrescreenConfig  `json:"prescreen" yaml:"prescreen" mapstructure:"prescreen"`
	Screen     ScreenSettings   `json:"screen" yaml:"screen" mapstructure:"screen"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
}

// DefaultSettings returns the settings used when the config file declares
// nothing. Settings files are unmarshaled over this base, so absent keys
// keep their defaults.
func DefaultSettings() Settings {
	return Settings{
		Quality: QualityConfig{
			CapsRatio:          0.8,
			AbbreviationMaxLen: 6,
			Workers:            4,
		},
		Similarity: SimilarityConfig{
			AuthorWeight:    0.25,
			TitleWeight:     0.5,
			YearWeight:      0.1,
			ContainerWeight: 0.15,
			Threshold:       0.9,
		},
		Dedupe: DedupeConfig{
			SameSourcePolicy: SameSourceWarn,
			YearWindow:       1,
		},
		Store: StoreConfig{
			RecordsFile: "data/records.yaml",
			DBPath:      "data/review.db",
		},
	}
}
